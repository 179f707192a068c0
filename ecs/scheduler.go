package ecs

// System runs once per fixed tick.
type System interface {
	Update(w *World)
}

// SystemFunc adapts a function to System.
type SystemFunc func(w *World)

func (f SystemFunc) Update(w *World) { f(w) }

// Phase orders systems within a tick. Lower phases run first.
type Phase uint8

const (
	// PhaseControl applies input and per-block behaviour.
	PhaseControl Phase = iota
	// PhasePhysics steps the space and routes contacts.
	PhasePhysics
	// PhaseRules evaluates traps, items, height and level progress.
	PhaseRules

	phaseCount
)

func (p Phase) String() string {
	switch p {
	case PhaseControl:
		return "control"
	case PhasePhysics:
		return "physics"
	case PhaseRules:
		return "rules"
	default:
		return "unknown"
	}
}

// Scheduler runs systems phase by phase, in registration order inside a
// phase.
type Scheduler struct {
	phases [phaseCount][]System
}

func NewScheduler() *Scheduler {
	return &Scheduler{}
}

// Add registers a system in phase. Unknown phases run with PhaseRules.
func (s *Scheduler) Add(phase Phase, system System) {
	if s == nil || system == nil {
		return
	}
	if phase >= phaseCount {
		phase = PhaseRules
	}
	s.phases[phase] = append(s.phases[phase], system)
}

func (s *Scheduler) Update(w *World) {
	if s == nil {
		return
	}
	for _, systems := range s.phases {
		for _, system := range systems {
			system.Update(w)
		}
	}
}
