package game

import (
	"github.com/milk9111/dreamtower/prefabs"
)

// Config is everything a session is built from.
type Config struct {
	Tuning prefabs.TuningSpec
	Blocks prefabs.BlocksSpec
	Arena  prefabs.ArenaSpec
	Seed   uint64
}

// LoadConfig reads the tuning, block and arena prefabs.
func LoadConfig(seed uint64) (Config, error) {
	tuning, err := prefabs.LoadTuning()
	if err != nil {
		return Config{}, err
	}
	blocks, err := prefabs.LoadBlocks()
	if err != nil {
		return Config{}, err
	}
	arena, err := prefabs.LoadArena()
	if err != nil {
		return Config{}, err
	}
	return Config{Tuning: tuning, Blocks: blocks, Arena: arena, Seed: seed}, nil
}
