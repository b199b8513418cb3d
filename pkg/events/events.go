// Package events carries engine notifications to the UI layer through a
// single observer abstraction. A Bus is used from the interaction thread; it
// is not safe for concurrent Publish calls.
package events

// Kind identifies an engine notification.
type Kind string

// Event kinds.
const (
	SelectionChanged Kind = "selection_changed"
	DragStarted      Kind = "drag_started"
	PlanPreviewed    Kind = "plan_previewed"
	Committed        Kind = "committed"
	Cancelled        Kind = "cancelled"
	Inconsistency    Kind = "inconsistency"
)

// Cell is the preview state of one target position.
type Cell struct {
	Position int  `json:"position"`
	Valid    bool `json:"valid"`
}

// Event is a read-only notification. Fields not relevant to Kind are zero.
type Event struct {
	Kind       Kind
	LocationID string
	Positions  []int  // selected or moved positions
	Focus      int    // focus position, -1 when none
	Preview    []Cell // per-position preview for PlanPreviewed
	Err        error  // cause for Cancelled and Inconsistency
}

// Listener receives published events.
type Listener func(Event)

// Bus fans events out to subscribed listeners in subscription order.
// The zero value is ready to use; a nil *Bus drops every event.
type Bus struct {
	next      int
	listeners []subscription
}

type subscription struct {
	id int
	fn Listener
}

// NewBus returns an empty Bus.
func NewBus() *Bus {
	return &Bus{}
}

// Subscribe registers fn and returns a function that removes it.
func (b *Bus) Subscribe(fn Listener) (unsubscribe func()) {
	b.next++
	id := b.next
	b.listeners = append(b.listeners, subscription{id: id, fn: fn})
	return func() {
		for i, s := range b.listeners {
			if s.id == id {
				b.listeners = append(b.listeners[:i], b.listeners[i+1:]...)
				return
			}
		}
	}
}

// Publish delivers e to every listener.
func (b *Bus) Publish(e Event) {
	if b == nil {
		return
	}
	for _, s := range append([]subscription(nil), b.listeners...) {
		s.fn(e)
	}
}

// Recorder is a Listener that keeps every event it sees.
type Recorder struct {
	Events []Event
}

// Listen appends e to the recorded events.
func (r *Recorder) Listen(e Event) {
	r.Events = append(r.Events, e)
}

// Count returns how many recorded events have the given kind.
func (r *Recorder) Count(kind Kind) int {
	n := 0
	for _, e := range r.Events {
		if e.Kind == kind {
			n++
		}
	}
	return n
}

// Last returns the most recent event, or the zero Event.
func (r *Recorder) Last() Event {
	if len(r.Events) == 0 {
		return Event{}
	}
	return r.Events[len(r.Events)-1]
}
