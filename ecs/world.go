package ecs

// World owns entities, the fixed-step clock, system order, pending events and
// the deferred timer queue.
type World struct {
	entities  entityStore
	scheduler *Scheduler
	events    EventQueue
	timers    *Timers

	dt   float64
	tick uint64
}

// NewWorld creates an empty world stepping dt seconds per tick.
func NewWorld(dt float64) *World {
	if dt <= 0 {
		dt = 1.0 / 60.0
	}
	return &World{
		scheduler: NewScheduler(),
		timers:    NewTimers(dt),
		dt:        dt,
	}
}

// CreateEntity allocates a new entity.
func (w *World) CreateEntity() Entity {
	return w.entities.create()
}

// DestroyEntity releases an entity. It reports whether the handle was alive.
func (w *World) DestroyEntity(e Entity) bool {
	return w.entities.destroy(e)
}

// IsAlive reports whether an entity handle is valid.
func (w *World) IsAlive(e Entity) bool {
	return w.entities.isAlive(e)
}

// EntityCount returns the number of live entities.
func (w *World) EntityCount() int {
	return w.entities.count()
}

// AddSystem registers a system to run in phase.
func (w *World) AddSystem(phase Phase, s System) {
	if w == nil {
		return
	}
	w.scheduler.Add(phase, s)
}

// Update runs every phase once, then fires due timers. Events produced are
// left on the queue for the owner to drain.
func (w *World) Update() {
	if w == nil {
		return
	}
	w.scheduler.Update(w)
	w.events.PushAll(w.timers.Advance())
	w.tick++
}

// DeltaTime returns the fixed timestep in seconds.
func (w *World) DeltaTime() float64 {
	if w == nil {
		return 0
	}
	return w.dt
}

// Tick returns the number of completed updates.
func (w *World) Tick() uint64 {
	if w == nil {
		return 0
	}
	return w.tick
}

// Elapsed returns simulated seconds since the world was created.
func (w *World) Elapsed() float64 {
	if w == nil {
		return 0
	}
	return float64(w.tick) * w.dt
}

// Events returns the world event queue.
func (w *World) Events() *EventQueue {
	if w == nil {
		return nil
	}
	return &w.events
}

// Timers returns the deferred timer queue.
func (w *World) Timers() *Timers {
	if w == nil {
		return nil
	}
	return w.timers
}

// Shutdown drops pending events and timers. Deferred work scheduled before
// the call never fires.
func (w *World) Shutdown() {
	if w == nil {
		return
	}
	w.events.flush()
	w.timers.Clear()
}
