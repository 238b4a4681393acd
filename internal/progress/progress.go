// Package progress defines the events emitted while a crawl run advances and
// the observer interfaces external surfaces hook into.
package progress

import (
	"time"

	"github.com/google/uuid"
)

// Phase denotes which part of the per-institution pipeline an Event reports.
type Phase string

// Supported progress phases.
const (
	PhaseListing Phase = "listing"
	PhaseDetails Phase = "details"
)

// TotalUnknown is the sentinel reported while listing pagination has not yet
// discovered the true total.
const TotalUnknown = -1

// Event captures a single (current, total) progress milestone.
type Event struct {
	// RunID identifies the crawl run emitting the event.
	RunID uuid.UUID
	// Institution is the source code the event is scoped to.
	Institution string
	// Phase denotes listing pagination or detail fetching.
	Phase Phase
	// Current is the count observed so far.
	Current int
	// Total is the expected final count, or TotalUnknown.
	Total int
	// TS is the UTC timestamp recorded by the emitter.
	TS time.Time
}

// Observer consumes progress events. Detail-fetch events arrive in completion
// order from pool goroutines, so implementations must be safe for concurrent
// use.
type Observer interface {
	Publish(evt Event)
}

// ObserverFunc adapts a function to the Observer interface.
type ObserverFunc func(evt Event)

// Publish calls f(evt).
func (f ObserverFunc) Publish(evt Event) { f(evt) }

// Multi fans an event out to every wrapped observer, in order.
type Multi []Observer

// Publish forwards evt to each observer; nil entries are skipped.
func (m Multi) Publish(evt Event) {
	for _, obs := range m {
		if obs == nil {
			continue
		}
		obs.Publish(evt)
	}
}

// Nop discards all events.
type Nop struct{}

// Publish implements Observer; it performs no action.
func (Nop) Publish(Event) {}
