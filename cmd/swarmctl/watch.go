package main

import (
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"

	"github.com/swarmforge/core/internal/board"
	"github.com/swarmforge/core/internal/neb"
	"github.com/swarmforge/core/internal/task"
)

var watchInterval time.Duration

// watchCmd polls the board directory and republishes lifecycle transitions
// on a local bus as they're observed, then prints each signal. The bus
// itself has no cross-process reach (§5); this is how a separate CLI
// invocation observes activity another process's board mutations produced.
var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Poll the board and print lifecycle events as they occur",
	RunE: func(cmd *cobra.Command, args []string) error {
		bus := neb.NewBus(neb.WithHistorySize(cfg.Bus.HistorySize))
		b, err := board.New(cfg.BoardRoot)
		if err != nil {
			return fmt.Errorf("watch: %w", err)
		}
		if _, err := bus.Subscribe("**", printSignal); err != nil {
			return fmt.Errorf("watch: %w", err)
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()

		prev := map[string]task.Status{}
		prev, err = diffAndNotify(b, bus, prev)
		if err != nil {
			return fmt.Errorf("watch: %w", err)
		}

		ticker := time.NewTicker(watchInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return nil
			case <-ticker.C:
				prev, err = diffAndNotify(b, bus, prev)
				if err != nil {
					return fmt.Errorf("watch: %w", err)
				}
			}
		}
	},
}

// diffAndNotify scans the board, compares against the previously observed
// status of each task, and publishes the corresponding reserved topic for
// every status change. It returns the new snapshot for the next poll.
func diffAndNotify(b *board.Board, bus *neb.Bus, prev map[string]task.Status) (map[string]task.Status, error) {
	all, err := b.ListAll()
	if err != nil {
		return nil, err
	}
	next := make(map[string]task.Status, len(all))
	for _, t := range all {
		next[t.ID] = t.Status
		old, seen := prev[t.ID]
		if seen && old == t.Status {
			continue
		}
		topic, payload := transitionTopic(t, seen)
		if topic == "" {
			continue
		}
		_ = bus.Notify(topic, payload)
	}
	return next, nil
}

func transitionTopic(t *task.Task, seenBefore bool) (string, map[string]any) {
	switch {
	case !seenBefore && t.Status == task.StatusPending:
		return "task.available", map[string]any{"task_id": t.ID, "task_type": t.Kind, "description": t.Description, "priority": t.Priority}
	case t.Status == task.StatusClaimed:
		claimedBy := ""
		if t.ClaimedBy != nil {
			claimedBy = *t.ClaimedBy
		}
		return "task.claimed", map[string]any{"task_id": t.ID, "claimed_by": claimedBy}
	case t.Status == task.StatusCompleted:
		return "task.completed", map[string]any{"task_id": t.ID, "result": t.Result}
	case t.Status == task.StatusFailed:
		return "task.failed", map[string]any{"task_id": t.ID, "result": t.Result}
	case t.Status == task.StatusCancelled:
		return "task.cancelled", map[string]any{"task_id": t.ID}
	default:
		return "", nil
	}
}

func printSignal(sig neb.Signal) {
	fmt.Printf("%.3f %s %s\n", sig.Timestamp, sig.Topic, sig.Payload)
}

func init() {
	watchCmd.Flags().DurationVar(&watchInterval, "interval", 500*time.Millisecond, "board poll interval")
	rootCmd.AddCommand(watchCmd)
}
