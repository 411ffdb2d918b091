// Package coordinator implements Map/Reduce fan-out and result aggregation
// over a TaskBoard, using the payload.parent_id relation to tie subtasks to
// their parent.
package coordinator

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/swarmforge/core/internal/board"
	"github.com/swarmforge/core/internal/task"
)

// Coordinator is a stateless helper over a Board; it carries no state of
// its own beyond the board reference.
type Coordinator struct {
	board *board.Board
}

// New constructs a Coordinator over b.
func New(b *board.Board) *Coordinator {
	return &Coordinator{board: b}
}

// Map mints a fresh parent id and posts one subtask per payload, each
// stamped with payload.parent_id. It returns immediately; subtask execution
// is driven by agents polling the board.
func (c *Coordinator) Map(kind, description string, payloads []map[string]any, priority int) (string, error) {
	parentID := fmt.Sprintf("parent-%s", uuid.NewString()[:8])
	for i, p := range payloads {
		subPayload := make(map[string]any, len(p)+1)
		for k, v := range p {
			subPayload[k] = v
		}
		subPayload["parent_id"] = parentID

		subID := fmt.Sprintf("%s-sub-%d", parentID, i)
		desc := fmt.Sprintf("%s (part %d/%d)", description, i+1, len(payloads))
		t := task.New(subID, kind, desc, priority, subPayload)
		if err := c.board.Post(t); err != nil {
			return "", fmt.Errorf("map: post subtask %s: %w", subID, err)
		}
	}
	return parentID, nil
}

// Progress summarizes a parent's subtask states from a single board scan.
type Progress struct {
	Total       int     `json:"total"`
	Completed   int     `json:"completed"`
	Failed      int     `json:"failed"`
	Pending     int     `json:"pending"`
	InProgress  int     `json:"in_progress"`
	ProgressPct float64 `json:"progress_pct"`
	IsComplete  bool    `json:"is_complete"`
}

// Progress reports subtask counts for parentID. IsComplete is true once no
// subtask remains pending or in-progress, even if some failed — a parent
// with outstanding work is the only "incomplete" state this core tracks.
func (c *Coordinator) Progress(parentID string) (*Progress, error) {
	subs, err := c.board.ResultsByParent(parentID)
	if err != nil {
		return nil, fmt.Errorf("progress: %w", err)
	}
	p := &Progress{Total: len(subs)}
	for _, t := range subs {
		switch t.Status {
		case task.StatusCompleted:
			p.Completed++
		case task.StatusFailed:
			p.Failed++
		case task.StatusPending, task.StatusClaimed:
			p.Pending++
		case task.StatusInProgress:
			p.InProgress++
		}
	}
	if p.Total > 0 {
		p.ProgressPct = 100 * float64(p.Completed+p.Failed) / float64(p.Total)
	}
	p.IsComplete = p.Pending == 0 && p.InProgress == 0
	return p, nil
}
