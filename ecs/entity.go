package ecs

import "fmt"

// Entity is a generational handle. The low half is a 1-based slot and the
// high half counts how often that slot was recycled, so a stale handle to a
// removed block never aliases the block that reuses its slot.
type Entity uint64

// Nil is the zero handle. It is never alive.
const Nil Entity = 0

const slotBits = 32

func makeEntity(slot, gen uint32) Entity {
	return Entity(uint64(gen)<<slotBits | uint64(slot))
}

// Slot returns the 1-based storage slot.
func (e Entity) Slot() uint32 { return uint32(e) }

// Generation returns the slot generation the handle was issued with.
func (e Entity) Generation() uint32 { return uint32(uint64(e) >> slotBits) }

func (e Entity) Valid() bool { return e.Slot() != 0 }

func (e Entity) String() string {
	if !e.Valid() {
		return "nil"
	}
	return fmt.Sprintf("#%d.%d", e.Slot(), e.Generation())
}
