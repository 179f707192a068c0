package game

import (
	"log"

	"github.com/milk9111/dreamtower/ecs"
)

const DefaultHearts = 5

// Sounds emitted by the health pool.
const (
	SoundGameOver = "game_over"
	SoundShield   = "shield"
)

// Health tracks hearts and shields. A shield absorbs one hit before hearts
// are touched; hits taken at zero hearts are ignored.
type Health struct {
	max     int
	hearts  int
	shields int
	over    bool

	onEmpty func() []ecs.Event
}

// NewHealth returns a full pool. onEmpty runs once when hearts reach zero.
func NewHealth(hearts int, onEmpty func() []ecs.Event) *Health {
	if hearts <= 0 {
		hearts = DefaultHearts
	}
	return &Health{max: hearts, hearts: hearts, onEmpty: onEmpty}
}

func (h *Health) Hearts() int { return h.hearts }
func (h *Health) Max() int { return h.max }
func (h *Health) Shields() int { return h.shields }
func (h *Health) Over() bool { return h.over }

// Damage removes n hits.
func (h *Health) Damage(n int) []ecs.Event {
	if h == nil || n <= 0 || h.hearts <= 0 {
		return nil
	}
	for ; n > 0 && h.shields > 0; n-- {
		h.shields--
	}
	if n == 0 {
		log.Printf("Health: shield absorbed hit, %d left", h.shields)
		return []ecs.Event{h.changed()}
	}
	h.hearts = max(h.hearts-n, 0)
	out := []ecs.Event{h.changed()}
	if h.hearts == 0 && !h.over {
		h.over = true
		log.Printf("Health: out of hearts")
		out = append(out, ecs.Event{Kind: ecs.EventSound, Name: SoundGameOver})
		if h.onEmpty != nil {
			out = append(out, h.onEmpty()...)
		}
	}
	return out
}

// HealAll restores every heart. It does nothing after the game ended.
func (h *Health) HealAll() []ecs.Event {
	if h == nil || h.over || h.hearts == h.max {
		return nil
	}
	h.hearts = h.max
	return []ecs.Event{h.changed()}
}

// AddShield grants n shields.
func (h *Health) AddShield(n int) []ecs.Event {
	if h == nil || h.over || n <= 0 {
		return nil
	}
	h.shields += n
	return []ecs.Event{h.changed(), {Kind: ecs.EventSound, Name: SoundShield}}
}

func (h *Health) changed() ecs.Event {
	return ecs.Event{Kind: ecs.EventHealthChanged, Value: float64(h.hearts), Data: h.shields}
}
