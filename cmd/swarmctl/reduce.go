package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/swarmforge/core/internal/coordinator"
)

var (
	reduceStrategy string
	reduceParams   string
)

var reduceCmd = &cobra.Command{
	Use:   "reduce <parent-id>",
	Short: "Fold completed subtask results for a parent into one result",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		b, _, err := openBoard()
		if err != nil {
			return err
		}
		c := coordinator.New(b)
		result, err := c.Reduce(args[0], coordinator.ReduceStrategy(reduceStrategy), parseKVPairs(reduceParams))
		if err != nil {
			return fmt.Errorf("reduce: %w", err)
		}
		if result == nil {
			fmt.Println("null")
			return nil
		}
		return printJSON(result)
	},
}

func init() {
	reduceCmd.Flags().StringVar(&reduceStrategy, "strategy", string(coordinator.StrategyFirst), "first|best_score|merge_all|majority_vote")
	reduceCmd.Flags().StringVar(&reduceParams, "param", "", "comma-separated key=value strategy parameters (e.g. score_key=score)")
	rootCmd.AddCommand(reduceCmd)
}
