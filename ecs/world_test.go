package ecs

import (
	"testing"
)

func TestWorldEntityLifecycle(t *testing.T) {
	cases := []struct {
		name         string
		create       int
		destroyIndex int // -1 = none
	}{
		{"single", 1, 0},
		{"three_create_destroy_middle", 3, 1},
		{"none_destroy", 2, -1},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			w := NewWorld(1.0 / 60.0)
			ents := make([]Entity, 0, c.create)
			for i := 0; i < c.create; i++ {
				ents = append(ents, w.CreateEntity())
			}
			if w.EntityCount() != c.create {
				t.Fatalf("expected %d entities, got %d", c.create, w.EntityCount())
			}
			if c.destroyIndex >= 0 {
				if !w.DestroyEntity(ents[c.destroyIndex]) {
					t.Fatalf("DestroyEntity should return true for alive entity")
				}
				if w.IsAlive(ents[c.destroyIndex]) {
					t.Fatalf("entity should not be alive after destruction")
				}
				if w.DestroyEntity(ents[c.destroyIndex]) {
					t.Fatalf("DestroyEntity should return false for a dead entity")
				}
			}
		})
	}
}

func TestWorldReusesSlotWithNewGeneration(t *testing.T) {
	w := NewWorld(1.0 / 60.0)
	first := w.CreateEntity()
	if !w.DestroyEntity(first) {
		t.Fatalf("destroy failed")
	}
	second := w.CreateEntity()
	if first.Slot() != second.Slot() {
		t.Fatalf("expected slot reuse, got %d and %d", first.Slot(), second.Slot())
	}
	if first == second {
		t.Fatalf("expected a new generation for the reused slot")
	}
	if w.IsAlive(first) {
		t.Fatalf("stale handle must not be alive")
	}
	if !w.IsAlive(second) {
		t.Fatalf("fresh handle must be alive")
	}
}

func TestSparseSet(t *testing.T) {
	w := NewWorld(1.0 / 60.0)
	e1 := w.CreateEntity()
	e2 := w.CreateEntity()
	e3 := w.CreateEntity()

	var set SparseSet[string]
	set.Set(e1, "a")
	set.Set(e2, "b")
	set.Set(e3, "c")

	tests := []struct {
		name  string
		check func(t *testing.T)
	}{
		{
			name: "get_present",
			check: func(t *testing.T) {
				v, ok := set.Get(e2)
				if !ok || v != "b" {
					t.Fatalf("expected b, got %q ok=%v", v, ok)
				}
			},
		},
		{
			name: "remove_keeps_others",
			check: func(t *testing.T) {
				if !set.Remove(e1) {
					t.Fatalf("remove failed")
				}
				if set.Has(e1) {
					t.Fatalf("e1 should be gone")
				}
				if v, ok := set.Get(e3); !ok || v != "c" {
					t.Fatalf("expected c after swap remove, got %q ok=%v", v, ok)
				}
				if set.Len() != 2 {
					t.Fatalf("expected len 2, got %d", set.Len())
				}
			},
		},
		{
			name: "stale_generation_misses",
			check: func(t *testing.T) {
				w.DestroyEntity(e2)
				reused := w.CreateEntity()
				if set.Has(reused) {
					t.Fatalf("reused slot must not alias the old value")
				}
				set.Set(reused, "d")
				if set.Has(e2) {
					t.Fatalf("old handle must miss after the slot is overwritten")
				}
				if v, _ := set.Get(reused); v != "d" {
					t.Fatalf("expected d, got %q", v)
				}
			},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, tc.check)
	}
}

type countingSystem struct {
	calls *[]string
	name  string
}

func (s countingSystem) Update(w *World) {
	*s.calls = append(*s.calls, s.name)
}

func TestWorldUpdateRunsPhasesThenTimers(t *testing.T) {
	w := NewWorld(0.5)
	var calls []string
	w.AddSystem(PhaseRules, countingSystem{calls: &calls, name: "rules"})
	w.AddSystem(PhaseControl, countingSystem{calls: &calls, name: "control"})
	w.AddSystem(PhasePhysics, SystemFunc(func(*World) { calls = append(calls, "physics") }))
	w.AddSystem(PhaseControl, countingSystem{calls: &calls, name: "control2"})
	w.Timers().After(nil, 0.5, func() []Event {
		calls = append(calls, "timer")
		return []Event{{Kind: EventSound, Name: "tick"}}
	})

	w.Update()

	want := []string{"control", "control2", "physics", "rules", "timer"}
	if len(calls) != len(want) {
		t.Fatalf("expected %v, got %v", want, calls)
	}
	for i := range want {
		if calls[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, calls)
		}
	}
	evts := w.Events().Drain()
	if len(evts) != 1 || evts[0].Name != "tick" {
		t.Fatalf("expected timer event on the queue, got %v", evts)
	}
	if w.Tick() != 1 {
		t.Fatalf("expected tick 1, got %d", w.Tick())
	}
}

func TestEntityString(t *testing.T) {
	w := NewWorld(1.0 / 60.0)
	e := w.CreateEntity()
	if got := e.String(); got != "#1.0" {
		t.Fatalf("expected #1.0, got %s", got)
	}
	w.DestroyEntity(e)
	if got := w.CreateEntity().String(); got != "#1.1" {
		t.Fatalf("expected #1.1, got %s", got)
	}
	if Nil.String() != "nil" || w.IsAlive(Nil) {
		t.Fatalf("nil handle must print as nil and never be alive")
	}
}
