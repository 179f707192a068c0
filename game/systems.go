package game

import (
	"github.com/milk9111/dreamtower/block"
	"github.com/milk9111/dreamtower/ecs"
	"github.com/milk9111/dreamtower/physics"
)

// blockSystem steers the controlled block and runs buoyancy on the rest.
type blockSystem struct {
	s *Session
}

func (sys *blockSystem) Update(w *ecs.World) {
	s := sys.s
	controlled := s.spawner.Controlled()
	for _, b := range s.blocks.Values() {
		in := block.Input{}
		if b == controlled {
			in = s.input
		}
		w.Events().PushAll(b.Tick(w.DeltaTime(), in))
	}
}

// physicsSystem steps the space and routes the contacts it reports.
type physicsSystem struct {
	s *Session
}

func (sys *physicsSystem) Update(w *ecs.World) {
	s := sys.s
	for _, c := range s.physics.Step(w.DeltaTime()) {
		w.Events().PushAll(s.route(c, c.A, c.B))
		w.Events().PushAll(s.route(c, c.B, c.A))
	}
}

// route delivers one side of a contact to the block on that side.
func (s *Session) route(c physics.Contact, self, other physics.Owner) []ecs.Event {
	if self.Tag != ecs.TagReality && self.Tag != ecs.TagDream {
		return nil
	}
	b, ok := s.blocks.Get(self.ID)
	if !ok {
		return nil
	}
	begin := c.Phase == physics.ContactBegin

	switch other.Tag {
	case ecs.TagTrap:
		if t, ok := s.trapIDs[other.ID]; ok {
			if begin {
				t.Enter(b)
			} else {
				t.Exit(b)
			}
		}
		return nil
	case ecs.TagItem:
		if begin {
			s.items.Enter(other.ID, b)
		} else {
			s.items.Exit(other.ID, b)
		}
		return nil
	}

	col := block.Collision{Other: other.ID, Tag: other.Tag, Point: c.Point}
	if body, ok := s.physics.Body(other.ID); ok {
		col.Body = body
	}
	if begin {
		return b.OnCollisionEnter(col)
	}
	b.OnCollisionExit(col)
	return nil
}

// levelSystem runs traps and items, measures the tower and drives level
// progress.
type levelSystem struct {
	s *Session
}

func (sys *levelSystem) Update(w *ecs.World) {
	s := sys.s
	ev := w.Events()
	for _, t := range s.traps {
		ev.PushAll(t.Update())
	}
	ev.PushAll(s.items.Update())

	height := 0.0
	for _, b := range s.blocks.Values() {
		body, ok := s.physics.Body(b.ID())
		if !ok {
			continue
		}
		top := body.Top() - s.cfg.Arena.GroundY
		if stands(b) {
			height = max(height, top)
		}
		ev.PushAll(s.coord.Observe(b, top))
	}
	ev.PushAll(s.coord.ReportHeight(height))
	s.coord.Advance(w.DeltaTime())
}

// stands reports whether b counts toward the tower height.
func stands(b *block.Block) bool {
	return b.Alive() && b.IsSettled() && !b.IsControlled() && !b.IsFloating()
}
