package game

import (
	"github.com/jakecoffman/cp"
	"github.com/milk9111/dreamtower/spawner"
)

// Sounds plays fire-and-forget sounds by name.
type Sounds interface {
	Play(name string)
}

// Effects shows fire-and-forget visual effects by name.
type Effects interface {
	Effect(name string, at cp.Vector)
}

// Scores follows the run's height and records its end.
type Scores interface {
	OnMaxHeight(h float64)
	OnItem(kind string)
	OnGameOver(height float64, level int, seconds float64)
}

// Preview shows the next block.
type Preview interface {
	ShowNext(d spawner.Descriptor)
}

// Hooks are the optional collaborators a session reports to. Any of them
// may be nil.
type Hooks struct {
	Sounds  Sounds
	Effects Effects
	Scores  Scores
	Preview Preview
}
