package ecs

import (
	"container/heap"
	"math"
)

// Liveness is implemented by anything that owns deferred work. A timer whose
// owner is no longer alive is dropped instead of fired.
type Liveness interface {
	Alive() bool
}

// TimerFunc runs when a timer expires and returns the events it produced.
type TimerFunc func() []Event

// TimerID identifies a scheduled timer for cancellation.
type TimerID uint64

type timer struct {
	id        TimerID
	due       uint64
	seq       uint64
	owner     Liveness
	fn        TimerFunc
	cancelled bool
	index     int
}

type timerHeap []*timer

func (h timerHeap) Len() int { return len(h) }

func (h timerHeap) Less(i, j int) bool {
	if h[i].due == h[j].due {
		return h[i].seq < h[j].seq
	}
	return h[i].due < h[j].due
}

func (h timerHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}

func (h *timerHeap) Push(x any) {
	t := x.(*timer)
	t.index = len(*h)
	*h = append(*h, t)
}

func (h *timerHeap) Pop() any {
	old := *h
	n := len(old)
	t := old[n-1]
	old[n-1] = nil
	t.index = -1
	*h = old[:n-1]
	return t
}

// Timers is a deferred-callback queue keyed by expiry tick. Callbacks never
// block the tick loop; they run from Advance on the owning loop.
type Timers struct {
	dt    float64
	now   uint64
	seq   uint64
	queue timerHeap
	byID  map[TimerID]*timer
}

// NewTimers creates a timer queue for a fixed timestep of dt seconds.
func NewTimers(dt float64) *Timers {
	if dt <= 0 {
		dt = 1.0 / 60.0
	}
	return &Timers{dt: dt, byID: make(map[TimerID]*timer)}
}

// Now returns the current tick.
func (t *Timers) Now() uint64 {
	if t == nil {
		return 0
	}
	return t.now
}

// Pending returns the number of live timers.
func (t *Timers) Pending() int {
	if t == nil {
		return 0
	}
	return len(t.byID)
}

// TicksFor converts a delay in seconds to a whole number of ticks. Any delay
// runs on a later tick than the one it was scheduled from.
func (t *Timers) TicksFor(seconds float64) uint64 {
	if t == nil || seconds <= 0 {
		return 1
	}
	ticks := math.Ceil(seconds/t.dt - 1e-9)
	if ticks < 1 {
		return 1
	}
	return uint64(ticks)
}

// After schedules fn to run delay seconds from now. owner may be nil.
func (t *Timers) After(owner Liveness, delay float64, fn TimerFunc) TimerID {
	if t == nil || fn == nil {
		return 0
	}
	t.seq++
	tm := &timer{
		id:    TimerID(t.seq),
		due:   t.now + t.TicksFor(delay),
		seq:   t.seq,
		owner: owner,
		fn:    fn,
	}
	heap.Push(&t.queue, tm)
	t.byID[tm.id] = tm
	return tm.id
}

// Cancel drops a pending timer. It reports whether the timer was pending.
func (t *Timers) Cancel(id TimerID) bool {
	if t == nil {
		return false
	}
	tm, ok := t.byID[id]
	if !ok {
		return false
	}
	tm.cancelled = true
	delete(t.byID, id)
	if tm.index >= 0 {
		heap.Remove(&t.queue, tm.index)
	}
	return true
}

// Advance moves the clock one tick and fires every timer that is due, in
// expiry then scheduling order.
func (t *Timers) Advance() []Event {
	if t == nil {
		return nil
	}
	t.now++
	var out []Event
	for len(t.queue) > 0 && t.queue[0].due <= t.now {
		tm := heap.Pop(&t.queue).(*timer)
		delete(t.byID, tm.id)
		if tm.cancelled {
			continue
		}
		if tm.owner != nil && !tm.owner.Alive() {
			continue
		}
		out = append(out, tm.fn()...)
	}
	return out
}

// Clear drops every pending timer without firing it.
func (t *Timers) Clear() {
	if t == nil {
		return
	}
	t.queue = nil
	t.byID = make(map[TimerID]*timer)
}
