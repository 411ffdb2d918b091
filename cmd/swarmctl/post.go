package main

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/swarmforge/core/internal/task"
)

var (
	postID          string
	postKind        string
	postDescription string
	postPriority    int
	postPayload     string
)

var postCmd = &cobra.Command{
	Use:   "post",
	Short: "Post a new task to the board",
	RunE: func(cmd *cobra.Command, args []string) error {
		b, _, err := openBoard()
		if err != nil {
			return err
		}
		id := postID
		if id == "" {
			id = uuid.NewString()
		}
		t := task.New(id, postKind, postDescription, postPriority, parseKVPairs(postPayload))
		if err := b.Post(t); err != nil {
			return fmt.Errorf("post: %w", err)
		}
		printTask(t)
		return nil
	},
}

func init() {
	postCmd.Flags().StringVar(&postID, "id", "", "task id (default: generated uuid)")
	postCmd.Flags().StringVar(&postKind, "kind", "", "task kind/type")
	postCmd.Flags().StringVar(&postDescription, "description", "", "human-readable description")
	postCmd.Flags().IntVar(&postPriority, "priority", 0, "priority (lower is more urgent)")
	postCmd.Flags().StringVar(&postPayload, "payload", "", "comma-separated key=value pairs")
	_ = postCmd.MarkFlagRequired("kind")
	rootCmd.AddCommand(postCmd)
}
