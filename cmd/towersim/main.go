package main

import (
	"flag"
	"log"
	"math/rand/v2"

	"github.com/milk9111/dreamtower/block"
	"github.com/milk9111/dreamtower/ecs"
	"github.com/milk9111/dreamtower/game"
	"github.com/milk9111/dreamtower/script"
)

func main() {
	ticks := flag.Int("ticks", 60*60*5, "number of fixed ticks to simulate")
	seed := flag.Uint64("seed", 1, "random seed")
	pilotName := flag.String("autopilot", "autopilot", "tengo script in prefabs/scripts; empty for random input")
	flag.Parse()

	cfg, err := game.LoadConfig(*seed)
	if err != nil {
		log.Fatal(err)
	}
	var pilot *script.Autopilot
	if *pilotName != "" {
		if pilot, err = script.LoadAutopilot(*pilotName); err != nil {
			log.Fatal(err)
		}
	}

	sum, err := simulate(cfg, pilot, *ticks)
	if err != nil {
		log.Fatal(err)
	}
	log.Printf("towersim: seed %d ticks %d", *seed, sum.Ticks)
	log.Printf("towersim: spawned %d settled %d removed %d items %d",
		sum.Spawned, sum.Settled,
		sum.Events[ecs.EventBlockRemoved], sum.Events[ecs.EventItemUsed])
	log.Printf("towersim: height %.2f level %d hearts %d game over %v",
		sum.Height, sum.Level, sum.Hearts, sum.Over)
}

type summary struct {
	Ticks   int
	Events  map[ecs.EventKind]int
	Spawned int
	Settled int
	Height  float64
	Level   int
	Hearts  int
	Over    bool
}

// simulate runs a session without a window until ticks run out or the game
// ends. A nil pilot steers with input drawn from the session seed.
func simulate(cfg game.Config, pilot *script.Autopilot, ticks int) (summary, error) {
	sum := summary{Events: map[ecs.EventKind]int{}}
	s, err := game.New(cfg, game.Hooks{})
	if err != nil {
		return sum, err
	}
	s.Subscribe(func(e ecs.Event) {
		sum.Events[e.Kind]++
	})

	rng := rand.New(rand.NewPCG(cfg.Seed, cfg.Seed^0x5eed))
	var held block.Input
	for sum.Ticks < ticks && !s.Over() {
		in, err := steer(s, pilot, rng, &held)
		if err != nil {
			return sum, err
		}
		s.Tick(in)
		sum.Ticks++
	}

	sum.Spawned = s.Spawner().Spawned()
	sum.Settled = s.Spawner().Settled()
	sum.Height = s.Coordinator().MaxHeight()
	sum.Level = s.Coordinator().Level()
	sum.Hearts = s.Health().Hearts()
	sum.Over = s.Over()
	return sum, nil
}

func steer(s *game.Session, pilot *script.Autopilot, rng *rand.Rand, held *block.Input) (block.Input, error) {
	b := s.Controlled()
	if b == nil {
		return block.Input{}, nil
	}
	if pilot == nil {
		// Hold each random input for a short while so moves have an effect.
		if rng.IntN(20) == 0 {
			*held = block.Input{
				Horizontal: float64(rng.IntN(3) - 1),
				Vertical:   -float64(rng.IntN(2)),
				RotateCW:   rng.IntN(4) == 0,
			}
		}
		return *held, nil
	}
	pos := b.Position()
	arena := s.Config().Arena
	return pilot.Decide(script.State{
		BlockID:  uint64(b.ID()),
		Kind:     b.Kind().String(),
		BlockX:   pos.X,
		BlockY:   pos.Y,
		Rotation: b.Rotation(),
		TargetX:  (arena.Left + arena.Right) / 2,
		Tick:     s.World().Tick(),
		Level:    s.Coordinator().Level(),
	})
}
