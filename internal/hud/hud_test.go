package hud

import (
	"testing"
	"time"

	"github.com/swarmforge/core/internal/neb"
)

func TestRippleCreatedPerEvent(t *testing.T) {
	bus := neb.NewBus()
	h, err := New(bus)
	if err != nil {
		t.Fatalf("new hud: %v", err)
	}
	if err := bus.Publish("task.available", map[string]any{"x": 10.0, "y": 20.0}, nil); err != nil {
		t.Fatalf("publish: %v", err)
	}
	ripples := h.Ripples()
	if len(ripples) != 1 {
		t.Fatalf("len(ripples) = %d, want 1", len(ripples))
	}
	if ripples[0].X != 10 || ripples[0].Y != 20 {
		t.Fatalf("ripple position = (%v,%v), want (10,20)", ripples[0].X, ripples[0].Y)
	}
}

func TestRippleRadiusAndOpacityFormulas(t *testing.T) {
	r := Ripple{createdAt: time.Now().Add(-1 * time.Second), rate: 50, maxRadius: 100}
	radius := r.Radius(time.Now())
	if radius < 49 || radius > 51 {
		t.Fatalf("radius = %v, want ~50", radius)
	}
	opacity := r.Opacity(time.Now())
	if opacity < 0.49 || opacity > 0.51 {
		t.Fatalf("opacity = %v, want ~0.5", opacity)
	}
}

func TestRippleClampsAtMaxRadius(t *testing.T) {
	r := Ripple{createdAt: time.Now().Add(-10 * time.Second), rate: 50, maxRadius: 100}
	if r.Radius(time.Now()) != 100 {
		t.Fatalf("radius = %v, want 100 (clamped)", r.Radius(time.Now()))
	}
	if r.Opacity(time.Now()) != 0 {
		t.Fatalf("opacity = %v, want 0", r.Opacity(time.Now()))
	}
}

func TestAgentGlowAccumulatesAndClamps(t *testing.T) {
	bus := neb.NewBus()
	h, err := New(bus)
	if err != nil {
		t.Fatalf("new hud: %v", err)
	}
	for i := 0; i < 15; i++ {
		if err := bus.Publish("task.claimed", map[string]any{"agent_id": "a1"}, nil); err != nil {
			t.Fatalf("publish: %v", err)
		}
	}
	glows := h.Glows()
	if len(glows) != 1 {
		t.Fatalf("len(glows) = %d, want 1", len(glows))
	}
	// The stored intensity is what the clamp applies to; Intensity(now)
	// already subtracts decay for the time since the last event.
	if glows[0].intensity != maxGlowIntensity {
		t.Fatalf("stored intensity = %v, want clamped to %v", glows[0].intensity, maxGlowIntensity)
	}
	if glows[0].TopicType != "task" {
		t.Fatalf("topic type = %s, want task", glows[0].TopicType)
	}
}

func TestAgentGlowDecaysAndPrunes(t *testing.T) {
	bus := neb.NewBus()
	h, err := New(bus, WithGlowDecayRate(100))
	if err != nil {
		t.Fatalf("new hud: %v", err)
	}
	if err := bus.Publish("task.claimed", map[string]any{"agent_id": "a1"}, nil); err != nil {
		t.Fatalf("publish: %v", err)
	}
	time.Sleep(50 * time.Millisecond)
	glows := h.Glows()
	if len(glows) != 0 {
		t.Fatalf("len(glows) = %d, want 0 (decayed below epsilon)", len(glows))
	}
}

func TestEventsSubscribesToDoubleStarAndBounds(t *testing.T) {
	bus := neb.NewBus()
	h, err := New(bus, WithMaxEvents(2))
	if err != nil {
		t.Fatalf("new hud: %v", err)
	}
	for _, topic := range []string{"a.b", "c.d.e", "x"} {
		if err := bus.Publish(topic, map[string]any{}, nil); err != nil {
			t.Fatalf("publish %s: %v", topic, err)
		}
	}
	events := h.Events()
	if len(events) != 2 {
		t.Fatalf("len(events) = %d, want 2", len(events))
	}
	if events[1].Topic != "x" {
		t.Fatalf("last event topic = %s, want x", events[1].Topic)
	}
}
