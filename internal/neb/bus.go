package neb

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/swarmforge/core/internal/swarmerr"
)

// DefaultHistorySize is the default size of the signal ring buffer.
const DefaultHistorySize = 100

type mode int

const (
	modeTopic mode = iota
	modeSemantic
)

type subscription struct {
	id           string
	mode         mode
	pattern      string // "" for a semantic subscription with no topic filter
	refEmbedding []float64
	threshold    float64
	sink         Sink
}

// Bus is the public pub/sub façade: it wraps the subscription registry and
// keeps a bounded history of recently published signals.
type Bus struct {
	nodeID      string
	logger      *slog.Logger
	historySize int

	mu            sync.RWMutex
	subs          map[string]*subscription
	order         []string // preserves subscription order for delivery
	history       []Signal
	droppedErrors atomic.Int64
}

// Option configures a Bus.
type Option func(*Bus)

// WithNodeID sets the node id stamped as Signal.SourceID on every publish
// from this bus. Defaults to a freshly generated uuid.
func WithNodeID(id string) Option {
	return func(b *Bus) { b.nodeID = id }
}

// WithLogger overrides the bus's diagnostic logger.
func WithLogger(logger *slog.Logger) Option {
	return func(b *Bus) { b.logger = logger }
}

// WithHistorySize overrides the signal ring-buffer size (default 100).
func WithHistorySize(n int) Option {
	return func(b *Bus) {
		if n > 0 {
			b.historySize = n
		}
	}
}

// NewBus constructs a Bus. Node id defaults to a fresh uuid when not
// supplied via WithNodeID.
func NewBus(opts ...Option) *Bus {
	b := &Bus{
		nodeID:      uuid.NewString(),
		logger:      slog.Default(),
		historySize: DefaultHistorySize,
		subs:        make(map[string]*subscription),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Subscribe registers sink to receive signals whose topic matches pattern.
func (b *Bus) Subscribe(pattern string, sink Sink) (string, error) {
	if err := validatePattern(pattern); err != nil {
		return "", err
	}
	id := uuid.NewString()
	b.mu.Lock()
	b.subs[id] = &subscription{id: id, mode: modeTopic, pattern: pattern, sink: sink}
	b.order = append(b.order, id)
	b.mu.Unlock()
	return id, nil
}

// SubscribeSemantic registers sink to receive signals whose embedding has
// cosine similarity >= threshold against refEmbedding. pattern, if
// non-empty, additionally restricts delivery to matching topics.
func (b *Bus) SubscribeSemantic(refEmbedding []float64, sink Sink, threshold float64, pattern string) (string, error) {
	if pattern != "" {
		if err := validatePattern(pattern); err != nil {
			return "", err
		}
	}
	id := uuid.NewString()
	b.mu.Lock()
	b.subs[id] = &subscription{
		id:           id,
		mode:         modeSemantic,
		pattern:      pattern,
		refEmbedding: refEmbedding,
		threshold:    threshold,
		sink:         sink,
	}
	b.order = append(b.order, id)
	b.mu.Unlock()
	return id, nil
}

// Unsubscribe removes a subscription if present. It returns false (not an
// error) for an unknown id.
func (b *Bus) Unsubscribe(id string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.subs[id]; !ok {
		return false
	}
	delete(b.subs, id)
	for i, oid := range b.order {
		if oid == id {
			b.order = append(b.order[:i], b.order[i+1:]...)
			break
		}
	}
	return true
}

// ListedSubscription is one row of ListSubscriptions' result.
type ListedSubscription struct {
	ID      string
	Pattern string
}

// ListSubscriptions returns the current subscriptions in registration
// order.
func (b *Bus) ListSubscriptions() []ListedSubscription {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]ListedSubscription, 0, len(b.order))
	for _, id := range b.order {
		s := b.subs[id]
		out = append(out, ListedSubscription{ID: id, Pattern: s.pattern})
	}
	return out
}

// RecentSignals returns up to limit of the most recently published
// signals, newest last.
func (b *Bus) RecentSignals(limit int) []Signal {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if limit <= 0 || limit > len(b.history) {
		limit = len(b.history)
	}
	out := make([]Signal, limit)
	copy(out, b.history[len(b.history)-limit:])
	return out
}

// Publish constructs a Signal from topic/payload/embedding, records it in
// the ring buffer, and delivers it to matching subscribers in registration
// order. Topic subscriptions are matched by pattern; semantic subscriptions
// are evaluated only when embedding is non-empty (a signal is never
// delivered twice to the same subscription). Sink panics are recovered and logged, so
// one failing subscriber never blocks delivery to others. A non-nil error
// reports accumulated DIMENSION_MISMATCH failures, one per affected
// semantic subscription; the signal is still delivered to every other
// matching subscription.
func (b *Bus) Publish(topic string, payload map[string]any, embedding []float64) error {
	sig := Signal{
		SourceID:  b.nodeID,
		Topic:     topic,
		Payload:   payload,
		Embedding: embedding,
		Timestamp: nowUnix(),
	}

	b.mu.Lock()
	b.history = append(b.history, sig)
	if len(b.history) > b.historySize {
		b.history = b.history[len(b.history)-b.historySize:]
	}
	matched := make([]*subscription, 0, len(b.order))
	for _, id := range b.order {
		matched = append(matched, b.subs[id])
	}
	b.mu.Unlock()

	var errs []error
	for _, s := range matched {
		switch s.mode {
		case modeTopic:
			if topicMatches(s.pattern, topic) {
				b.deliver(s, sig)
			}
		case modeSemantic:
			if len(embedding) == 0 {
				continue
			}
			if s.pattern != "" && !topicMatches(s.pattern, topic) {
				continue
			}
			if len(s.refEmbedding) != len(embedding) {
				errs = append(errs, fmt.Errorf("subscription %s: %w", s.id, swarmerr.ErrDimensionMismatch))
				continue
			}
			if cosineSimilarity(embedding, s.refEmbedding) >= s.threshold {
				b.deliver(s, sig)
			}
		}
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// Notify satisfies board.Notifier, publishing a topic-only event with no
// embedding.
func (b *Bus) Notify(topic string, payload map[string]any) error {
	return b.Publish(topic, payload, nil)
}

func (b *Bus) deliver(s *subscription, sig Signal) {
	defer func() {
		if r := recover(); r != nil {
			b.droppedErrors.Add(1)
			b.logger.Warn("neb: subscriber panicked", "subscription", s.id, "topic", sig.Topic, "panic", r)
		}
	}()
	s.sink(sig)
}

// SubscriberErrorCount returns the number of subscriber panics recovered
// since bus creation, surfaced for diagnostics. No bus.subscriber.error
// signal is published; the count is the only record besides the log line.
func (b *Bus) SubscriberErrorCount() int64 {
	return b.droppedErrors.Load()
}
