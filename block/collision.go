package block

import (
	"github.com/jakecoffman/cp"
	"github.com/milk9111/dreamtower/ecs"
)

// Collision is a contact reported by the physics service. Body is nil when
// the other side is static.
type Collision struct {
	Other ecs.Entity
	Tag   ecs.Tag
	Body  Body
	Point cp.Vector
}

// settles reports whether touching tag ends player control.
func settles(tag ecs.Tag) bool {
	return tag == ecs.TagGround || tag.Solid()
}

// OnCollisionEnter handles a new contact. Contacts with untagged bodies are
// ignored.
func (b *Block) OnCollisionEnter(c Collision) []ecs.Event {
	if b == nil || b.disabled || b.fixed || !settles(c.Tag) {
		return nil
	}
	b.buoyancy.enter(b, c)
	if !b.controlled {
		return nil
	}
	return b.settle(c.Point, c.Body)
}

// OnCollisionExit handles a contact ending.
func (b *Block) OnCollisionExit(c Collision) {
	if b == nil || b.disabled || b.fixed {
		return
	}
	b.buoyancy.exit(b, c)
}

// settle stops player control. It runs at most once per block.
func (b *Block) settle(at cp.Vector, other Body) []ecs.Event {
	if b.settled {
		return nil
	}
	b.settled = true
	b.falling = false
	b.controlled = false
	b.snap.paused = false
	b.snap.pauseTimer = 0
	b.holdCW, b.holdCCW = 0, 0
	b.contact = at

	if b.body != nil {
		b.body.SetVelocity(cp.Vector{})
		if b.buoyancy == nil {
			b.body.SetMotion(MotionFree)
		}
	}
	if other != nil && other.IsDynamic() {
		other.SetVelocity(cp.Vector{})
	}
	b.buoyancy.refresh(b)

	return []ecs.Event{
		{Kind: ecs.EventBlockSettled, Entity: b.id, Point: at, Data: b},
		{Kind: ecs.EventEffect, Entity: b.id, Name: EffectCameraShake, Point: at},
		{Kind: ecs.EventSound, Entity: b.id, Name: SoundLand},
	}
}

// FixBlock freezes the block permanently. Repeated calls are no-ops.
func (b *Block) FixBlock() {
	if b == nil || b.fixed {
		return
	}
	b.fixed = true
	b.falling = false
	b.controlled = false
	b.snap.paused = false
	b.buoyancy.stop()
	if b.body != nil {
		b.body.SetVelocity(cp.Vector{})
		b.body.SetMotion(MotionFrozen)
	}
}

// TriggerTrap fixes the block in place, drops its collision response and
// schedules its removal after the fade delay. A controlled block settles
// first so its spawner still hears about it.
func (b *Block) TriggerTrap() []ecs.Event {
	if b == nil || b.fixed || b.disabled {
		return nil
	}
	var out []ecs.Event
	if !b.settled {
		out = append(out, b.settle(b.Position(), nil)...)
	}
	b.FixBlock()
	if b.body != nil {
		b.body.SetCollisionEnabled(false)
	}

	out = append(out,
		ecs.Event{Kind: ecs.EventDamage, Entity: b.id, Point: b.Position(), Value: 1},
		ecs.Event{Kind: ecs.EventEffect, Entity: b.id, Name: EffectTrapHit, Point: b.Position()},
		ecs.Event{Kind: ecs.EventSound, Entity: b.id, Name: SoundTrap},
	)
	b.removal = b.timers.After(b, b.tuning.TrapFadeDelay, b.deactivate)
	return out
}

func (b *Block) deactivate() []ecs.Event {
	if b.disabled {
		return nil
	}
	b.removal = 0
	b.Disable()
	return []ecs.Event{{Kind: ecs.EventBlockRemoved, Entity: b.id, Data: b}}
}
