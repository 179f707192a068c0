package spawner

import (
	"errors"
	"fmt"
	"math/rand/v2"

	"github.com/milk9111/dreamtower/block"
)

var (
	ErrEmptyPool         = errors.New("spawner: empty variant pool")
	ErrVariantOutOfRange = errors.New("spawner: variant out of range")
)

// Policy holds the selection governor and respawn tunables.
type Policy struct {
	BaseProbability float64 `yaml:"base_probability"`
	RealityPenalty  float64 `yaml:"reality_penalty"`
	DreamBonus      float64 `yaml:"dream_bonus"`
	SpawnDelay      float64 `yaml:"spawn_delay"`
}

// DefaultPolicy returns the policy the game ships with.
func DefaultPolicy() Policy {
	return Policy{
		BaseProbability: 0.65,
		RealityPenalty:  0.30,
		DreamBonus:      0.15,
		SpawnDelay:      0.5,
	}
}

// Descriptor is the precomputed next block.
type Descriptor struct {
	Kind     block.Kind
	Variant  int
	Rotation float64
	Sprite   string
}

func (d Descriptor) String() string {
	return fmt.Sprintf("%s#%d@%.0f", d.Kind, d.Variant, d.Rotation)
}

// Selector picks the category, variant and rotation of each next block.
// Long reality streaks lower the chance of another reality block and every
// dream pick raises it again, and a variant never repeats back to back
// within its category.
type Selector struct {
	rng    *rand.Rand
	policy Policy
	pools  [2][]string

	governor
}

// governor is the selection state a pick advances.
type governor struct {
	probability   float64
	realityStreak int
	dreamStreak   int
	last          [2]int
	picks         int
}

// NewSelector builds a selector over the sprite names of each category.
func NewSelector(rng *rand.Rand, policy Policy, reality, dream []string) *Selector {
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return &Selector{
		rng:    rng,
		policy: policy,
		pools:  [2][]string{reality, dream},
		governor: governor{
			probability: policy.BaseProbability,
			last:        [2]int{-1, -1},
		},
	}
}

// Validate fails when either category has no variants.
func (s *Selector) Validate() error {
	if len(s.pools[block.KindReality]) == 0 {
		return fmt.Errorf("%w: reality", ErrEmptyPool)
	}
	if len(s.pools[block.KindDream]) == 0 {
		return fmt.Errorf("%w: dream", ErrEmptyPool)
	}
	return nil
}

// Next draws the next descriptor and updates the governor.
func (s *Selector) Next() (Descriptor, error) {
	if err := s.Validate(); err != nil {
		return Descriptor{}, err
	}
	kind := block.KindReality
	if s.picks > 0 && s.rng.Float64() >= s.probability {
		kind = block.KindDream
	}
	s.picks++

	variant := s.pickVariant(kind)
	s.observe(kind)
	return s.describe(kind, variant), nil
}

// Force builds a descriptor for a specific variant without touching the
// governor.
func (s *Selector) Force(kind block.Kind, variant int) (Descriptor, error) {
	if kind != block.KindReality && kind != block.KindDream {
		return Descriptor{}, fmt.Errorf("%w: kind %d", ErrVariantOutOfRange, kind)
	}
	if variant < 0 || variant >= len(s.pools[kind]) {
		return Descriptor{}, fmt.Errorf("%w: %s %d of %d", ErrVariantOutOfRange, kind, variant, len(s.pools[kind]))
	}
	s.last[kind] = variant
	return s.describe(kind, variant), nil
}

func (s *Selector) describe(kind block.Kind, variant int) Descriptor {
	return Descriptor{
		Kind:     kind,
		Variant:  variant,
		Rotation: float64(90 * s.rng.IntN(4)),
		Sprite:   s.pools[kind][variant],
	}
}

func (s *Selector) pickVariant(kind block.Kind) int {
	n := len(s.pools[kind])
	last := s.last[kind]
	var idx int
	switch {
	case n <= 1:
		idx = 0
	case last < 0 || last >= n:
		idx = s.rng.IntN(n)
	default:
		idx = s.rng.IntN(n - 1)
		if idx >= last {
			idx++
		}
	}
	s.last[kind] = idx
	return idx
}

func (s *Selector) observe(kind block.Kind) {
	if kind == block.KindReality {
		s.realityStreak++
		s.dreamStreak = 0
		if s.realityStreak >= 3 {
			s.probability -= s.policy.RealityPenalty * float64(s.realityStreak-2)
			if s.probability < 0 {
				s.probability = 0
			}
		}
		return
	}
	s.dreamStreak++
	s.realityStreak = 0
	s.probability = s.policy.BaseProbability + s.policy.DreamBonus*float64(s.dreamStreak)
	if s.probability > 1 {
		s.probability = 1
	}
}

// Probability is the current chance of a reality pick.
func (s *Selector) Probability() float64 { return s.probability }

// Streaks returns the consecutive reality and dream pick counts.
func (s *Selector) Streaks() (reality, dream int) {
	return s.realityStreak, s.dreamStreak
}

// LastVariant returns the previous variant index of kind, -1 if none.
func (s *Selector) LastVariant(kind block.Kind) int { return s.last[kind] }

func (s *Selector) snapshot() governor { return s.governor }

func (s *Selector) restore(g governor) { s.governor = g }

// SetPolicy swaps the tunables. The current probability is kept.
func (s *Selector) SetPolicy(p Policy) { s.policy = p }

// SetPools swaps the variant pools, dropping stale anti-repeat state.
func (s *Selector) SetPools(reality, dream []string) {
	s.pools = [2][]string{reality, dream}
	s.last = [2]int{-1, -1}
}
