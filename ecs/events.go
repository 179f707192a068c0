package ecs

import "github.com/jakecoffman/cp"

// EventKind identifies simulation event types.
type EventKind string

const (
	EventBlockSpawned   EventKind = "block_spawned"
	EventBlockSettled   EventKind = "block_settled"
	EventBlockRemoved   EventKind = "block_removed"
	EventPreviewUpdated EventKind = "preview_updated"
	EventEffect         EventKind = "effect"
	EventSound          EventKind = "sound"
	EventDamage         EventKind = "damage"
	EventMaxHeight      EventKind = "max_height"
	EventLevelUp        EventKind = "level_up"
	EventHealthChanged  EventKind = "health_changed"
	EventGameOver       EventKind = "game_over"
	EventItemSpawned    EventKind = "item_spawned"
	EventItemUsed       EventKind = "item_used"
)

// Event is a simulation event payload. Only the fields meaningful for Kind
// are set.
type Event struct {
	Kind   EventKind
	Entity Entity
	Name   string
	Point  cp.Vector
	Value  float64
	Data   any
}

// EventQueue is a simple FIFO queue.
type EventQueue struct {
	items []Event
}

// Push adds an event.
func (q *EventQueue) Push(evt Event) {
	if q == nil {
		return
	}
	q.items = append(q.items, evt)
}

// PushAll adds events in order.
func (q *EventQueue) PushAll(evts []Event) {
	if q == nil || len(evts) == 0 {
		return
	}
	q.items = append(q.items, evts...)
}

// Len reports the number of queued events.
func (q *EventQueue) Len() int {
	if q == nil {
		return 0
	}
	return len(q.items)
}

// Drain returns all events and clears the queue.
func (q *EventQueue) Drain() []Event {
	if q == nil || len(q.items) == 0 {
		return nil
	}
	out := q.items
	q.items = nil
	return out
}

func (q *EventQueue) flush() {
	if q == nil {
		return
	}
	q.items = nil
}
