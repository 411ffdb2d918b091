package main

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/swarmforge/core/internal/board"
	"github.com/swarmforge/core/internal/neb"
	"github.com/swarmforge/core/internal/task"
)

// openBoard constructs a Board over the configured storage root, wired to a
// fresh in-process Bus. Each CLI invocation is its own process, so the bus
// only observes signals emitted by this invocation's own operation; cross-
// process notification flows through the board's file-backed state, not
// the bus (see watch.go).
func openBoard() (*board.Board, *neb.Bus, error) {
	bus := neb.NewBus(neb.WithHistorySize(cfg.Bus.HistorySize))
	b, err := board.New(cfg.BoardRoot, board.WithBus(bus))
	if err != nil {
		return nil, nil, fmt.Errorf("open board: %w", err)
	}
	return b, bus, nil
}

// parseKVPairs parses a comma-separated list of key=value pairs into a
// map, attempting numeric and boolean coercion on each value the way a
// host's own parameter string would be interpreted.
func parseKVPairs(s string) map[string]any {
	out := map[string]any{}
	if strings.TrimSpace(s) == "" {
		return out
	}
	for _, pair := range strings.Split(s, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		k, v, ok := strings.Cut(pair, "=")
		if !ok {
			out[k] = true
			continue
		}
		out[k] = coerce(v)
	}
	return out
}

func coerce(v string) any {
	if n, err := strconv.ParseInt(v, 10, 64); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(v, 64); err == nil {
		return f
	}
	if b, err := strconv.ParseBool(v); err == nil {
		return b
	}
	return v
}

// printTask renders t as JSON or a short text summary, per --output.
func printTask(t *task.Task) {
	if outputMode == "json" {
		data, _ := json.MarshalIndent(t, "", "  ")
		fmt.Println(string(data))
		return
	}
	claimedBy := "-"
	if t.ClaimedBy != nil {
		claimedBy = *t.ClaimedBy
	}
	fmt.Printf("%s\t%s\t%s\tprio=%d\tclaimed_by=%s\t%s\n", t.ID, t.Kind, t.Status, t.Priority, claimedBy, t.Description)
}

// printJSON renders v as indented JSON regardless of --output, for
// structured results (reduce, evaluate) that have no natural text form.
func printJSON(v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}
