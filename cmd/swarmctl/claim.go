package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/swarmforge/core/internal/swarmerr"
)

var claimNode string

var claimCmd = &cobra.Command{
	Use:   "claim <task-id>",
	Short: "Claim a pending task",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		b, _, err := openBoard()
		if err != nil {
			return err
		}
		node := claimNode
		if node == "" {
			node = "swarmctl"
		}
		t, err := b.Claim(args[0], node)
		if err != nil {
			if errors.Is(err, swarmerr.ErrAlreadyClaimed) {
				return fmt.Errorf("claim %s: %s", args[0], swarmerr.Kind(err))
			}
			return fmt.Errorf("claim %s: %w", args[0], err)
		}
		printTask(t)
		return nil
	},
}

func init() {
	claimCmd.Flags().StringVar(&claimNode, "node", "", "claiming node id (default: swarmctl)")
	rootCmd.AddCommand(claimCmd)
}
