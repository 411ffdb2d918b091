// Package hud implements the Visual HUD Tap: it subscribes to every bus
// event and derives ripple and agent-glow visualization objects, neither of
// which is persisted.
package hud

import (
	"strings"
	"sync"
	"time"

	"github.com/swarmforge/core/internal/neb"
)

const (
	// DefaultMaxEvents bounds the rolling event log.
	DefaultMaxEvents = 100
	// DefaultRippleRate is the ripple expansion rate in units/second.
	DefaultRippleRate = 50.0
	// DefaultMaxRadius is a ripple's maximum radius in units.
	DefaultMaxRadius = 100.0
	// DefaultMaxAge is how long a ripple survives before being dropped.
	DefaultMaxAge = 2 * time.Second
	// DefaultGlowDecayRate is the glow intensity decay rate per second.
	DefaultGlowDecayRate = 0.5
	// glowEpsilon is the intensity floor below which a glow is pruned.
	glowEpsilon = 0.01
	// maxGlowIntensity caps a glow's stored intensity.
	maxGlowIntensity = 10.0
)

// Ripple is a transient visualization object created once per bus event.
type Ripple struct {
	X, Y      float64
	createdAt time.Time
	rate      float64
	maxRadius float64
}

// Radius returns the ripple's current radius given elapsed time since
// creation.
func (r Ripple) Radius(now time.Time) float64 {
	radius := r.rate * now.Sub(r.createdAt).Seconds()
	if radius > r.maxRadius {
		return r.maxRadius
	}
	return radius
}

// Opacity returns the ripple's current opacity, derived from its radius.
func (r Ripple) Opacity(now time.Time) float64 {
	o := 1 - r.Radius(now)/r.maxRadius
	if o < 0 {
		return 0
	}
	return o
}

// AgentGlow tracks a per-agent activity indicator, keyed by payload.agent_id.
type AgentGlow struct {
	AgentID      string
	TopicType    string
	intensity    float64
	decayRate    float64
	lastActivity time.Time
}

// Intensity returns the glow's current intensity given elapsed time since
// its last activity.
func (g AgentGlow) Intensity(now time.Time) float64 {
	i := g.intensity - g.decayRate*now.Sub(g.lastActivity).Seconds()
	if i < 0 {
		return 0
	}
	return i
}

// HUD subscribes to ** on a bus and keeps bounded ripple and glow state.
type HUD struct {
	mu         sync.Mutex
	events     []neb.Signal
	ripples    []Ripple
	glows      map[string]*AgentGlow
	maxEvents  int
	rippleRate float64
	maxRadius  float64
	maxAge     time.Duration
	decayRate  float64
}

// Option configures a HUD.
type Option func(*HUD)

// WithMaxEvents overrides the rolling event log size.
func WithMaxEvents(n int) Option {
	return func(h *HUD) {
		if n > 0 {
			h.maxEvents = n
		}
	}
}

// WithRippleTuning overrides the ripple expansion rate, max radius, and
// max age.
func WithRippleTuning(rate, maxRadius float64, maxAge time.Duration) Option {
	return func(h *HUD) {
		h.rippleRate = rate
		h.maxRadius = maxRadius
		h.maxAge = maxAge
	}
}

// WithGlowDecayRate overrides the agent-glow decay rate per second.
func WithGlowDecayRate(rate float64) Option {
	return func(h *HUD) { h.decayRate = rate }
}

// New constructs a HUD and subscribes it to ** on bus.
func New(bus *neb.Bus, opts ...Option) (*HUD, error) {
	h := &HUD{
		glows:      make(map[string]*AgentGlow),
		maxEvents:  DefaultMaxEvents,
		rippleRate: DefaultRippleRate,
		maxRadius:  DefaultMaxRadius,
		maxAge:     DefaultMaxAge,
		decayRate:  DefaultGlowDecayRate,
	}
	for _, opt := range opts {
		opt(h)
	}
	if _, err := bus.Subscribe("**", h.onEvent); err != nil {
		return nil, err
	}
	return h, nil
}

func (h *HUD) onEvent(sig neb.Signal) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.events = append(h.events, sig)
	if len(h.events) > h.maxEvents {
		h.events = h.events[len(h.events)-h.maxEvents:]
	}

	x, y := extractXY(sig.Payload)
	h.ripples = append(h.ripples, Ripple{
		X: x, Y: y,
		createdAt: time.Now(),
		rate:      h.rippleRate,
		maxRadius: h.maxRadius,
	})
	h.pruneRipplesLocked()

	if agentID, ok := sig.Payload["agent_id"].(string); ok && agentID != "" {
		topicType := sig.Topic
		if i := strings.IndexByte(topicType, '.'); i >= 0 {
			topicType = topicType[:i]
		}
		glow, exists := h.glows[agentID]
		if !exists {
			glow = &AgentGlow{AgentID: agentID, TopicType: topicType, decayRate: h.decayRate}
			h.glows[agentID] = glow
		}
		current := glow.Intensity(time.Now())
		glow.intensity = current + 1.0
		if glow.intensity > maxGlowIntensity {
			glow.intensity = maxGlowIntensity
		}
		glow.lastActivity = time.Now()
		glow.TopicType = topicType
	}
}

func extractXY(payload map[string]any) (float64, float64) {
	return asFloat(payload["x"]), asFloat(payload["y"])
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

func (h *HUD) pruneRipplesLocked() {
	now := time.Now()
	kept := h.ripples[:0]
	for _, r := range h.ripples {
		if now.Sub(r.createdAt) <= h.maxAge {
			kept = append(kept, r)
		}
	}
	h.ripples = kept
}

// Ripples returns the currently live ripples.
func (h *HUD) Ripples() []Ripple {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.pruneRipplesLocked()
	out := make([]Ripple, len(h.ripples))
	copy(out, h.ripples)
	return out
}

// Glows returns currently live agent glows (intensity above the prune
// threshold), pruning stale entries as a side effect.
func (h *HUD) Glows() []AgentGlow {
	h.mu.Lock()
	defer h.mu.Unlock()
	now := time.Now()
	out := make([]AgentGlow, 0, len(h.glows))
	for id, g := range h.glows {
		if g.Intensity(now) < glowEpsilon {
			delete(h.glows, id)
			continue
		}
		out = append(out, *g)
	}
	return out
}

// Events returns the current rolling event log.
func (h *HUD) Events() []neb.Signal {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]neb.Signal, len(h.events))
	copy(out, h.events)
	return out
}
