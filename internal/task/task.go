// Package task defines the Task value record and its lifecycle transitions.
package task

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/swarmforge/core/internal/swarmerr"
)

// Status is a Task's lifecycle state.
type Status string

const (
	StatusPending    Status = "PENDING"
	StatusClaimed    Status = "CLAIMED"
	StatusInProgress Status = "IN_PROGRESS"
	StatusCompleted  Status = "COMPLETED"
	StatusFailed     Status = "FAILED"
	StatusCancelled  Status = "CANCELLED"
)

// Terminal reports whether s is a state from which no further transition
// (other than overwrite) is legal.
func (s Status) Terminal() bool {
	switch s {
	case StatusCompleted, StatusFailed, StatusCancelled:
		return true
	default:
		return false
	}
}

// Task is a unit of work with a lifecycle, uniquely identified and claimed
// exactly once. The JSON field names are fixed by the board's on-disk
// schema and must not change independently of it.
type Task struct {
	ID          string         `json:"task_id"`
	Kind        string         `json:"task_type"`
	Description string         `json:"description"`
	Status      Status         `json:"status"`
	Priority    int            `json:"priority"`
	CreatedAt   float64        `json:"created_at"`
	ClaimedBy   *string        `json:"claimed_by"`
	ClaimedAt   *float64       `json:"claimed_at"`
	Result      map[string]any `json:"result"`
	Payload     map[string]any `json:"payload"`
}

// New constructs a pending task. kind is stored in its uppercase form, per
// the board's external wire schema.
func New(id, kind, description string, priority int, payload map[string]any) *Task {
	if payload == nil {
		payload = map[string]any{}
	}
	return &Task{
		ID:          id,
		Kind:        strings.ToUpper(kind),
		Description: description,
		Status:      StatusPending,
		Priority:    priority,
		CreatedAt:   nowUnix(),
		Payload:     payload,
	}
}

// nowUnix is a seam so tests can avoid depending on wall-clock ordering
// across very fast successive calls if ever needed; production code uses
// the real clock.
var nowUnix = func() float64 {
	return float64(time.Now().UnixNano()) / 1e9
}

// Clone returns a defensive deep-enough copy of t for returning to callers.
// Payload and Result maps are shallow-copied (their values are opaque to
// the core and never mutated in place).
func (t *Task) Clone() *Task {
	c := *t
	if t.ClaimedBy != nil {
		v := *t.ClaimedBy
		c.ClaimedBy = &v
	}
	if t.ClaimedAt != nil {
		v := *t.ClaimedAt
		c.ClaimedAt = &v
	}
	c.Payload = copyMap(t.Payload)
	c.Result = copyMap(t.Result)
	return &c
}

func copyMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// Claim transitions PENDING -> CLAIMED, recording the claimant and time.
func (t *Task) Claim(nodeID string) error {
	if t.Status != StatusPending {
		return fmt.Errorf("claim %s: %w", t.ID, swarmerr.ErrAlreadyClaimed)
	}
	now := nowUnix()
	t.Status = StatusClaimed
	t.ClaimedBy = &nodeID
	t.ClaimedAt = &now
	return nil
}

// Start transitions CLAIMED -> IN_PROGRESS.
func (t *Task) Start() error {
	if t.Status != StatusClaimed {
		return fmt.Errorf("start %s: %w", t.ID, swarmerr.ErrInvalidState)
	}
	t.Status = StatusInProgress
	return nil
}

// Complete transitions CLAIMED or IN_PROGRESS to COMPLETED, auto-advancing
// through IN_PROGRESS when needed.
func (t *Task) Complete(result map[string]any) error {
	if t.Status != StatusClaimed && t.Status != StatusInProgress {
		return fmt.Errorf("complete %s: %w", t.ID, swarmerr.ErrInvalidState)
	}
	t.Status = StatusCompleted
	t.Result = result
	return nil
}

// Fail transitions CLAIMED or IN_PROGRESS to FAILED, recording errMsg under
// the reserved "error" result key.
func (t *Task) Fail(errMsg string) error {
	if t.Status != StatusClaimed && t.Status != StatusInProgress {
		return fmt.Errorf("fail %s: %w", t.ID, swarmerr.ErrInvalidState)
	}
	t.Status = StatusFailed
	t.Result = map[string]any{"error": errMsg}
	return nil
}

// Cancel transitions any non-terminal status to CANCELLED.
func (t *Task) Cancel() error {
	if t.Status.Terminal() {
		return fmt.Errorf("cancel %s: %w", t.ID, swarmerr.ErrInvalidState)
	}
	t.Status = StatusCancelled
	return nil
}

// ParentID extracts payload.parent_id, the reserved key that relates a
// subtask to its Coordinator-minted parent.
func (t *Task) ParentID() (string, bool) {
	v, ok := t.Payload["parent_id"]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// ToJSON serializes t using the board's wire schema.
func (t *Task) ToJSON() ([]byte, error) {
	return json.Marshal(t)
}

// FromJSON deserializes a task record, returning ErrCorruptRecord wrapped
// with detail on failure.
func FromJSON(data []byte) (*Task, error) {
	var t Task
	if err := json.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("decode task: %w: %v", swarmerr.ErrCorruptRecord, err)
	}
	if t.ID == "" || t.Status == "" {
		return nil, fmt.Errorf("decode task: missing required fields: %w", swarmerr.ErrCorruptRecord)
	}
	return &t, nil
}
