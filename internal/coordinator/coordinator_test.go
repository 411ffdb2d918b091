package coordinator

import (
	"testing"

	"github.com/swarmforge/core/internal/board"
)

func newTestCoordinator(t *testing.T) (*Coordinator, *board.Board) {
	t.Helper()
	b, err := board.New(t.TempDir())
	if err != nil {
		t.Fatalf("new board: %v", err)
	}
	return New(b), b
}

// TestMapReduceBestScore implements spec scenario 3.
func TestMapReduceBestScore(t *testing.T) {
	c, b := newTestCoordinator(t)

	parentID, err := c.Map("EXPLORE", "sorts", []map[string]any{
		{"approach": "quicksort", "score": 0.7},
		{"approach": "mergesort", "score": 0.95},
		{"approach": "heapsort", "score": 0.6},
	}, 0)
	if err != nil {
		t.Fatalf("map: %v", err)
	}

	subs, err := b.ResultsByParent(parentID)
	if err != nil {
		t.Fatalf("results by parent: %v", err)
	}
	if len(subs) != 3 {
		t.Fatalf("len(subs) = %d, want 3", len(subs))
	}
	for _, s := range subs {
		claimed, err := b.Claim(s.ID, "agent-1")
		if err != nil {
			t.Fatalf("claim: %v", err)
		}
		if _, err := b.Complete(claimed.ID, claimed.Payload); err != nil {
			t.Fatalf("complete: %v", err)
		}
	}

	result, err := c.Reduce(parentID, StrategyBestScore, map[string]any{"score_key": "score"})
	if err != nil {
		t.Fatalf("reduce: %v", err)
	}
	if result["approach"] != "mergesort" {
		t.Fatalf("approach = %v, want mergesort", result["approach"])
	}
	if result["score"] != 0.95 {
		t.Fatalf("score = %v, want 0.95", result["score"])
	}
	if result["parent_id"] != parentID {
		t.Fatalf("parent_id = %v, want %s", result["parent_id"], parentID)
	}
}

func TestReduceWithNoCompletedReturnsNil(t *testing.T) {
	c, _ := newTestCoordinator(t)
	parentID, err := c.Map("EXPLORE", "x", []map[string]any{{"a": 1}}, 0)
	if err != nil {
		t.Fatalf("map: %v", err)
	}
	result, err := c.Reduce(parentID, StrategyFirst, nil)
	if err != nil {
		t.Fatalf("reduce: %v", err)
	}
	if result != nil {
		t.Fatalf("result = %v, want nil", result)
	}
}

func TestReduceMergeAll(t *testing.T) {
	c, b := newTestCoordinator(t)
	parentID, err := c.Map("GATHER", "x", []map[string]any{{"tags": "a"}, {"tags": "b"}}, 0)
	if err != nil {
		t.Fatalf("map: %v", err)
	}
	subs, _ := b.ResultsByParent(parentID)
	for _, s := range subs {
		claimed, _ := b.Claim(s.ID, "a")
		_, _ = b.Complete(claimed.ID, map[string]any{"tags": claimed.Payload["tags"]})
	}
	result, err := c.Reduce(parentID, StrategyMergeAll, nil)
	if err != nil {
		t.Fatalf("reduce: %v", err)
	}
	tags, ok := result["tags"].([]any)
	if !ok || len(tags) != 2 {
		t.Fatalf("tags = %v", result["tags"])
	}
}

func TestReduceMajorityVote(t *testing.T) {
	c, b := newTestCoordinator(t)
	parentID, err := c.Map("VOTE", "x", []map[string]any{
		{"vote": "yes"}, {"vote": "yes"}, {"vote": "no"},
	}, 0)
	if err != nil {
		t.Fatalf("map: %v", err)
	}
	subs, _ := b.ResultsByParent(parentID)
	for _, s := range subs {
		claimed, _ := b.Claim(s.ID, "a")
		_, _ = b.Complete(claimed.ID, map[string]any{"vote": claimed.Payload["vote"]})
	}
	result, err := c.Reduce(parentID, StrategyMajorityVote, map[string]any{"vote_key": "vote"})
	if err != nil {
		t.Fatalf("reduce: %v", err)
	}
	if result["vote"] != "yes" {
		t.Fatalf("vote = %v, want yes", result["vote"])
	}
}

func TestProgressIsCompleteIgnoresFailures(t *testing.T) {
	c, b := newTestCoordinator(t)
	parentID, err := c.Map("X", "x", []map[string]any{{"a": 1}, {"a": 2}}, 0)
	if err != nil {
		t.Fatalf("map: %v", err)
	}
	subs, _ := b.ResultsByParent(parentID)
	claimed0, _ := b.Claim(subs[0].ID, "a")
	_, _ = b.Complete(claimed0.ID, map[string]any{})
	claimed1, _ := b.Claim(subs[1].ID, "a")
	_, _ = b.Fail(claimed1.ID, "boom")

	progress, err := c.Progress(parentID)
	if err != nil {
		t.Fatalf("progress: %v", err)
	}
	if !progress.IsComplete {
		t.Fatalf("progress should be complete: %+v", progress)
	}
	if progress.Completed != 1 || progress.Failed != 1 {
		t.Fatalf("progress = %+v", progress)
	}
}
