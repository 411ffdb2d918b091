// Command swarmctl is a thin convenience harness over the swarm
// coordination core: TaskBoard, NEB bus, and the consensus channel. It is
// not part of the core's contract (see SPEC_FULL.md §10.5) — every
// operation it exposes is a direct call into internal/board,
// internal/neb, internal/coordinator, and internal/consensus.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/swarmforge/core/internal/config"
)

var (
	cfgFile    string
	verbose    bool
	outputMode string

	cfg *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "swarmctl",
	Short: "Inspect and drive a swarm coordination core",
	Long: `swarmctl is a command-line harness over the swarm coordination core:
a durable TaskBoard, the in-process Neural Event Bus, and the append-only
consensus channel.

Core commands:
  post      Post a new task to the board
  claim     Claim a pending task
  status    Show a task, or list pending tasks
  reduce    Fold completed subtask results for a parent
  propose   Post a consensus proposal
  vote      Post a vote on a proposal
  evaluate  Compute weighted-confidence approval for a proposal
  watch     Poll the board and print lifecycle events as they occur`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cfgFile != "" {
			_ = os.Setenv("SWARM_CONFIG", cfgFile)
		}
		loaded, err := config.Load(nil)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = loaded

		level := slog.LevelWarn
		if verbose {
			level = slog.LevelDebug
		}
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "path to .swarm.yaml (overrides SWARM_CONFIG and project discovery)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVarP(&outputMode, "output", "o", "text", "output format: text|json")
}

// Execute adds all child commands to the root command and runs it.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func main() {
	Execute()
}
