package coordinator

import (
	"fmt"

	"github.com/swarmforge/core/internal/task"
)

// ReduceStrategy is one of the named folds Reduce can apply over a set of
// completed subtask results.
type ReduceStrategy string

const (
	StrategyFirst        ReduceStrategy = "first"
	StrategyBestScore    ReduceStrategy = "best_score"
	StrategyMergeAll     ReduceStrategy = "merge_all"
	StrategyMajorityVote ReduceStrategy = "majority_vote"
)

type reduceFunc func(results []map[string]any, params map[string]any) map[string]any

var strategies = map[ReduceStrategy]reduceFunc{
	StrategyFirst:        reduceFirst,
	StrategyBestScore:    reduceBestScore,
	StrategyMergeAll:     reduceMergeAll,
	StrategyMajorityVote: reduceMajorityVote,
}

// Reduce reads all completed subtasks for parentID and folds their results
// using the named strategy. It returns nil if there are no completed
// subtasks. Safe to call repeatedly; it is a pure function of board state.
func (c *Coordinator) Reduce(parentID string, strategy ReduceStrategy, params map[string]any) (map[string]any, error) {
	subs, err := c.board.ResultsByParent(parentID)
	if err != nil {
		return nil, fmt.Errorf("reduce: %w", err)
	}

	var completed []map[string]any
	for _, t := range subs {
		if t.Status == task.StatusCompleted && t.Result != nil {
			completed = append(completed, t.Result)
		}
	}
	if len(completed) == 0 {
		return nil, nil
	}

	fn, ok := strategies[strategy]
	if !ok {
		return nil, fmt.Errorf("reduce: unknown strategy %q", strategy)
	}

	result := fn(completed, params)
	result["parent_id"] = parentID
	return result, nil
}

func cloneMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func reduceFirst(results []map[string]any, _ map[string]any) map[string]any {
	return cloneMap(results[0])
}

func reduceBestScore(results []map[string]any, params map[string]any) map[string]any {
	scoreKey, _ := params["score_key"].(string)
	if scoreKey == "" {
		scoreKey = "score"
	}
	best := results[0]
	bestScore := asFloat(best[scoreKey])
	for _, r := range results[1:] {
		s := asFloat(r[scoreKey])
		if s > bestScore {
			best = r
			bestScore = s
		}
	}
	return cloneMap(best)
}

func asFloat(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case float32:
		return float64(n)
	case int:
		return float64(n)
	default:
		return 0
	}
}

// reduceMergeAll concatenates values across all results for each key seen.
// A scalar value becomes a one-element list.
func reduceMergeAll(results []map[string]any, _ map[string]any) map[string]any {
	merged := map[string][]any{}
	var order []string
	for _, r := range results {
		for k, v := range r {
			if _, seen := merged[k]; !seen {
				order = append(order, k)
			}
			if list, ok := v.([]any); ok {
				merged[k] = append(merged[k], list...)
			} else {
				merged[k] = append(merged[k], v)
			}
		}
	}
	out := make(map[string]any, len(order))
	for _, k := range order {
		out[k] = merged[k]
	}
	return out
}

// reduceMajorityVote returns the most common vote_key value across results;
// ties broken by first-seen.
func reduceMajorityVote(results []map[string]any, params map[string]any) map[string]any {
	voteKey, _ := params["vote_key"].(string)
	if voteKey == "" {
		voteKey = "vote"
	}

	counts := map[any]int{}
	var order []any
	for _, r := range results {
		v := r[voteKey]
		if _, seen := counts[v]; !seen {
			order = append(order, v)
		}
		counts[v]++
	}

	var winner any
	best := -1
	for _, v := range order {
		if counts[v] > best {
			best = counts[v]
			winner = v
		}
	}
	return map[string]any{voteKey: winner, "votes": counts[winner], "total": len(results)}
}
