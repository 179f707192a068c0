package main

import (
	"errors"
	"flag"
	"log"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/milk9111/dreamtower/common"
)

func main() {
	debug := flag.Bool("debug", false, "enable debug mode")
	seed := flag.Uint64("seed", 0, "random seed (0 picks one from the clock)")
	autopilot := flag.String("autopilot", "", "tengo script in prefabs/scripts that drives the controlled block")
	watch := flag.Bool("watch", false, "hot reload prefabs from disk")
	mute := flag.Bool("mute", false, "start with sound muted")
	flag.Parse()

	if *seed == 0 {
		*seed = uint64(time.Now().UnixNano())
	}

	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	ebiten.SetWindowSize(common.BaseWidth, common.BaseHeight)
	ebiten.SetWindowTitle("dreamtower")
	ebiten.SetTPS(common.TicksPerSecond)

	game, err := NewGame(Options{
		Seed:      *seed,
		Debug:     *debug,
		Autopilot: *autopilot,
		Watch:     *watch,
		Muted:     *mute,
	})
	if err != nil {
		log.Fatal(err)
	}
	defer game.Close()

	log.Printf("dreamtower: seed %d", *seed)
	if err := ebiten.RunGame(game); err != nil && !errors.Is(err, ebiten.Termination) {
		log.Fatal(err)
	}
}
