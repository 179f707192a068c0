package block

import "github.com/milk9111/dreamtower/ecs"

// Kind is the block category.
type Kind uint8

const (
	KindReality Kind = iota
	KindDream
)

func (k Kind) String() string {
	switch k {
	case KindReality:
		return "reality"
	case KindDream:
		return "dream"
	default:
		return "unknown"
	}
}

// Tag returns the collision tag blocks of this kind carry.
func (k Kind) Tag() ecs.Tag {
	if k == KindDream {
		return ecs.TagDream
	}
	return ecs.TagReality
}

// ParseKind maps a prefab name to a Kind.
func ParseKind(s string) (Kind, bool) {
	switch s {
	case "reality":
		return KindReality, true
	case "dream":
		return KindDream, true
	default:
		return KindReality, false
	}
}

// Names of fire-and-forget sounds and effects the block emits.
const (
	SoundLand = "land"
	SoundTrap = "trap"

	EffectCameraShake = "camera_shake"
	EffectTrapHit     = "trap_hit"
)
