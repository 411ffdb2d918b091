// Package bridge implements the Bus Bridge: a throttled forwarder of bus
// event summaries to an external boundary transport.
package bridge

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/swarmforge/core/internal/neb"
)

const (
	// DefaultThrottle is the minimum interval between broadcasts.
	DefaultThrottle = 100 * time.Millisecond
	// DefaultBufferSize bounds the events slice in each broadcast payload.
	DefaultBufferSize = 10
	// previewMaxLen is the signal-preview payload truncation length
	// (50 visible characters plus the 3-character "..." suffix marker).
	previewMaxLen = 50
)

// Transport is the boundary interface the bridge broadcasts EVENT_UPDATE
// payloads to. The reference implementation (WSTransport) is a
// coder/websocket hub.
type Transport interface {
	Broadcast(payload []byte) error
}

// SignalPreview is one entry in an EVENT_UPDATE payload's events list.
type SignalPreview struct {
	Topic          string  `json:"topic"`
	SourceID       string  `json:"source_id"`
	Timestamp      float64 `json:"timestamp"`
	PayloadPreview string  `json:"payload_preview"`
}

// eventUpdate is the boundary transport payload shape.
type eventUpdate struct {
	Type string          `json:"type"`
	Data eventUpdateData `json:"data"`
}

type eventUpdateData struct {
	Events      []SignalPreview `json:"events"`
	TopicCounts map[string]int  `json:"topicCounts"`
	TotalCount  int             `json:"totalCount"`
	Timestamp   float64         `json:"timestamp"`
}

// Bridge subscribes to ** on a bus and periodically broadcasts a throttled
// summary to a Transport.
type Bridge struct {
	transport Transport
	logger    *slog.Logger
	throttle  time.Duration
	bufSize   int

	mu            sync.Mutex
	buffered      []neb.Signal
	topicCounts   map[string]int
	totalCount    int
	lastBroadcast time.Time
	timer         *time.Timer
}

// Option configures a Bridge.
type Option func(*Bridge)

// WithThrottle overrides the minimum broadcast interval (default 100ms).
func WithThrottle(d time.Duration) Option {
	return func(br *Bridge) {
		if d > 0 {
			br.throttle = d
		}
	}
}

// WithBufferSize overrides the per-broadcast event buffer cap (default 10).
func WithBufferSize(n int) Option {
	return func(br *Bridge) {
		if n > 0 {
			br.bufSize = n
		}
	}
}

// WithLogger overrides the bridge's diagnostic logger.
func WithLogger(logger *slog.Logger) Option {
	return func(br *Bridge) { br.logger = logger }
}

// New constructs a Bridge over transport and subscribes it to ** on bus.
func New(bus *neb.Bus, transport Transport, opts ...Option) (*Bridge, error) {
	br := &Bridge{
		transport:   transport,
		logger:      slog.Default(),
		throttle:    DefaultThrottle,
		bufSize:     DefaultBufferSize,
		topicCounts: make(map[string]int),
	}
	for _, opt := range opts {
		opt(br)
	}
	if _, err := bus.Subscribe("**", br.onEvent); err != nil {
		return nil, err
	}
	return br, nil
}

func (br *Bridge) onEvent(sig neb.Signal) {
	br.mu.Lock()
	defer br.mu.Unlock()

	br.buffered = append(br.buffered, sig)
	if len(br.buffered) > br.bufSize {
		br.buffered = br.buffered[len(br.buffered)-br.bufSize:]
	}
	topicType := sig.Topic
	if i := indexByte(topicType, '.'); i >= 0 {
		topicType = topicType[:i]
	}
	br.topicCounts[topicType]++
	br.totalCount++

	if br.timer != nil {
		return // a broadcast is already scheduled; this event rides along with it
	}
	// Leading-edge throttle: the first event after a quiet window starts a
	// full throttle-length collection window, so bursts of events arriving
	// faster than the throttle interval are coalesced into one broadcast.
	br.timer = time.AfterFunc(br.throttle, br.fire)
}

func indexByte(s string, b byte) int {
	for i := 0; i < len(s); i++ {
		if s[i] == b {
			return i
		}
	}
	return -1
}

func (br *Bridge) fire() {
	br.mu.Lock()
	events := br.buffered
	br.buffered = nil
	topicCounts := make(map[string]int, len(br.topicCounts))
	for k, v := range br.topicCounts {
		topicCounts[k] = v
	}
	totalCount := br.totalCount
	br.lastBroadcast = time.Now()
	br.timer = nil
	br.mu.Unlock()

	previews := make([]SignalPreview, 0, len(events))
	for _, e := range events {
		previews = append(previews, SignalPreview{
			Topic:          e.Topic,
			SourceID:       e.SourceID,
			Timestamp:      e.Timestamp,
			PayloadPreview: previewPayload(e.Payload),
		})
	}

	payload := eventUpdate{
		Type: "EVENT_UPDATE",
		Data: eventUpdateData{
			Events:      previews,
			TopicCounts: topicCounts,
			TotalCount:  totalCount,
			Timestamp:   float64(time.Now().UnixNano()) / 1e9,
		},
	}

	data, err := json.Marshal(payload)
	if err != nil {
		br.logger.Warn("bridge: marshal payload failed", "error", err)
		return
	}
	if err := br.transport.Broadcast(data); err != nil {
		br.logger.Warn("bridge: broadcast failed", "error", err)
		// Only a successful broadcast clears the buffer: put the unsent
		// events back ahead of any that arrived meanwhile, capped as usual.
		br.mu.Lock()
		br.buffered = append(events, br.buffered...)
		if len(br.buffered) > br.bufSize {
			br.buffered = br.buffered[len(br.buffered)-br.bufSize:]
		}
		br.mu.Unlock()
	}
}

// previewPayload stringifies payload and truncates it to previewMaxLen
// visible characters, appending "..." when truncated (53 characters total,
// matching the source system's preview helper).
func previewPayload(payload map[string]any) string {
	data, err := json.Marshal(payload)
	s := string(data)
	if err != nil {
		s = fmt.Sprintf("%v", payload)
	}
	if len(s) <= previewMaxLen {
		return s
	}
	return s[:previewMaxLen] + "..."
}

// PendingEventCount reports how many events are buffered awaiting the next
// broadcast, exposed for tests and diagnostics.
func (br *Bridge) PendingEventCount() int {
	br.mu.Lock()
	defer br.mu.Unlock()
	return len(br.buffered)
}
