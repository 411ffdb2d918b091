// Package agent implements SwarmAgent: a coordination object that pulls
// work from a TaskBoard and optionally reacts to its event bus.
package agent

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/swarmforge/core/internal/board"
	"github.com/swarmforge/core/internal/neb"
	"github.com/swarmforge/core/internal/swarmerr"
	"github.com/swarmforge/core/internal/task"
)

// Handler executes the work described by t and returns its result, or an
// error if the work failed.
type Handler func(t *task.Task) (map[string]any, error)

// autoClaimDeferDelay is how long the reactive auto-claim path waits before
// invoking WorkCycle on its own goroutine, so it never re-enters the board
// lock held by the publisher of task.available. 10ms mirrors the interval
// used by the source system's own timer-based deferral.
const autoClaimDeferDelay = 10 * time.Millisecond

// Agent is a SwarmAgent: node identity, board reference, capability set,
// and per-kind handlers.
type Agent struct {
	NodeID         string
	Capabilities   map[string]bool // nil or empty means "accept all kinds"
	Handlers       map[string]Handler
	DefaultHandler Handler

	board  *board.Board
	bus    *neb.Bus
	logger *slog.Logger
}

// Option configures an Agent.
type Option func(*Agent)

// WithCapabilities restricts the agent to the given task kinds. Without
// this option the agent accepts every kind.
func WithCapabilities(kinds ...string) Option {
	return func(a *Agent) {
		a.Capabilities = make(map[string]bool, len(kinds))
		for _, k := range kinds {
			a.Capabilities[k] = true
		}
	}
}

// WithHandler registers handler for the given task kind.
func WithHandler(kind string, handler Handler) Option {
	return func(a *Agent) {
		if a.Handlers == nil {
			a.Handlers = make(map[string]Handler)
		}
		a.Handlers[kind] = handler
	}
}

// WithDefaultHandler sets the handler used for kinds with no specific
// registration.
func WithDefaultHandler(handler Handler) Option {
	return func(a *Agent) { a.DefaultHandler = handler }
}

// WithBus attaches a bus for reactive auto-claim mode.
func WithBus(bus *neb.Bus) Option {
	return func(a *Agent) { a.bus = bus }
}

// WithLogger overrides the agent's diagnostic logger.
func WithLogger(logger *slog.Logger) Option {
	return func(a *Agent) { a.logger = logger }
}

// New constructs an Agent with node id nodeID over b.
func New(nodeID string, b *board.Board, opts ...Option) *Agent {
	a := &Agent{
		NodeID: nodeID,
		board:  b,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

func (a *Agent) accepts(kind string) bool {
	if len(a.Capabilities) == 0 {
		return true
	}
	return a.Capabilities[kind]
}

func (a *Agent) handlerFor(kind string) Handler {
	if h, ok := a.Handlers[kind]; ok {
		return h
	}
	return a.DefaultHandler
}

func defaultHandler(t *task.Task) (map[string]any, error) {
	return map[string]any{"task_id": t.ID, "handled_by": "default"}, nil
}

// WorkCycle runs one iteration: find the first pending task this agent
// accepts, claim it, run its handler, and report the outcome. It returns
// (nil, nil) if nothing could be claimed.
func (a *Agent) WorkCycle() (*task.Task, error) {
	pending, err := a.board.Pending()
	if err != nil {
		return nil, fmt.Errorf("work cycle: %w", err)
	}

	for _, t := range pending {
		if !a.accepts(t.Kind) {
			continue
		}
		claimed, err := a.board.Claim(t.ID, a.NodeID)
		if err != nil {
			if errors.Is(err, swarmerr.ErrAlreadyClaimed) {
				continue
			}
			return nil, fmt.Errorf("work cycle: claim %s: %w", t.ID, err)
		}
		return a.execute(claimed)
	}
	return nil, nil
}

func (a *Agent) execute(t *task.Task) (*task.Task, error) {
	if _, err := a.board.Start(t.ID); err != nil {
		return nil, fmt.Errorf("work cycle: start %s: %w", t.ID, err)
	}

	handler := a.handlerFor(t.Kind)
	if handler == nil {
		handler = defaultHandler
	}

	result, handlerErr := handler(t)
	if handlerErr != nil {
		final, err := a.board.Fail(t.ID, handlerErr.Error())
		if err != nil {
			return nil, fmt.Errorf("work cycle: fail %s: %w", t.ID, err)
		}
		return final, handlerErr
	}

	final, err := a.board.Complete(t.ID, result)
	if err != nil {
		return nil, fmt.Errorf("work cycle: complete %s: %w", t.ID, err)
	}
	return final, nil
}

// SubscribeToEvents subscribes to task.available and, when autoClaim is
// true, schedules a deferred WorkCycle on each notification. The deferral
// runs outside the publisher's call stack so it never re-enters the board
// lock the publisher may be holding.
func (a *Agent) SubscribeToEvents(autoClaim bool) (string, error) {
	if a.bus == nil {
		return "", fmt.Errorf("agent %s: subscribe to events: no bus configured", a.NodeID)
	}
	return a.bus.Subscribe("task.available", func(neb.Signal) {
		if !autoClaim {
			return
		}
		time.AfterFunc(autoClaimDeferDelay, func() {
			if _, err := a.WorkCycle(); err != nil {
				a.logger.Debug("agent: reactive work cycle failed", "node_id", a.NodeID, "error", err)
			}
		})
	})
}
