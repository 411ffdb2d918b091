package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/swarmforge/core/internal/board"
	"github.com/swarmforge/core/internal/task"
)

var (
	statusAll  bool
	statusKind string
)

var statusCmd = &cobra.Command{
	Use:   "status [task-id]",
	Short: "Show a task, or list pending tasks",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		b, _, err := openBoard()
		if err != nil {
			return err
		}
		if len(args) == 1 {
			t, err := b.Get(args[0])
			if err != nil {
				return fmt.Errorf("status %s: %w", args[0], err)
			}
			printTask(t)
			return nil
		}
		return listTasks(b)
	},
}

func listTasks(b *board.Board) error {
	var (
		tasks []*task.Task
		err   error
	)
	switch {
	case statusKind != "":
		tasks, err = b.ByType(statusKind)
	case statusAll:
		tasks, err = b.ListAll()
	default:
		tasks, err = b.Pending()
	}
	if err != nil {
		return fmt.Errorf("status: %w", err)
	}
	for _, t := range tasks {
		printTask(t)
	}
	return nil
}

func init() {
	statusCmd.Flags().BoolVar(&statusAll, "all", false, "list every task, not just pending")
	statusCmd.Flags().StringVar(&statusKind, "kind", "", "filter listing by task kind")
	rootCmd.AddCommand(statusCmd)
}
