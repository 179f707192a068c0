package ecs

// entityStore hands out entity slots and bumps a slot's generation when it is
// released.
type entityStore struct {
	gens  []uint32
	free  []uint32
	alive int
}

func (s *entityStore) create() Entity {
	if s == nil {
		return Nil
	}
	var slot uint32
	if n := len(s.free); n > 0 {
		slot = s.free[n-1]
		s.free = s.free[:n-1]
	} else {
		s.gens = append(s.gens, 0)
		slot = uint32(len(s.gens))
	}
	s.alive++
	return makeEntity(slot, s.gens[slot-1])
}

func (s *entityStore) destroy(e Entity) bool {
	if !s.isAlive(e) {
		return false
	}
	s.gens[e.Slot()-1]++
	s.free = append(s.free, e.Slot())
	s.alive--
	return true
}

func (s *entityStore) isAlive(e Entity) bool {
	if s == nil || !e.Valid() || int(e.Slot()) > len(s.gens) {
		return false
	}
	return s.gens[e.Slot()-1] == e.Generation()
}

func (s *entityStore) count() int {
	if s == nil {
		return 0
	}
	return s.alive
}
