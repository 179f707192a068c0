package save

import "log"

// Scoreboard follows a run's height and writes the result to the store
// when the game ends.
type Scoreboard struct {
	store   *Store
	height  float64
	best    float64
	newBest bool
	done    bool
}

func NewScoreboard(store *Store) *Scoreboard {
	return &Scoreboard{store: store, best: store.Record().HighScore}
}

// OnMaxHeight records a new tower height.
func (b *Scoreboard) OnMaxHeight(h float64) {
	if b == nil || b.done || h <= b.height {
		return
	}
	b.height = h
}

// OnItem remembers an item kind the player has seen.
func (b *Scoreboard) OnItem(kind string) {
	if b == nil {
		return
	}
	if b.store.Discover(kind) {
		log.Printf("Scoreboard: discovered %s", kind)
	}
}

// OnGameOver stores the run. Only the first call counts.
func (b *Scoreboard) OnGameOver(height float64, level int, seconds float64) {
	if b == nil || b.done {
		return
	}
	b.done = true
	b.height = max(b.height, height)
	b.newBest = b.store.RecordRun(b.height, level, seconds)
	if b.newBest {
		b.best = b.height
		log.Printf("Scoreboard: new high score %.1f", b.height)
	}
	if err := b.store.Save(); err != nil {
		log.Printf("Scoreboard: %v", err)
	}
}

// Reset starts a new run against the stored best.
func (b *Scoreboard) Reset() {
	if b == nil {
		return
	}
	b.height = 0
	b.newBest = false
	b.done = false
	b.best = b.store.Record().HighScore
}

func (b *Scoreboard) Height() float64 { return b.height }
func (b *Scoreboard) Best() float64 { return b.best }
func (b *Scoreboard) NewBest() bool { return b.newBest }
