package main

import (
	"fmt"
	"log"
	"math"

	"github.com/ebitenui/ebitenui"
	"github.com/hajimehoshi/ebiten/v2"
	ebitenaudio "github.com/hajimehoshi/ebiten/v2/audio"
	"github.com/jakecoffman/cp"
	"github.com/milk9111/dreamtower/audio"
	"github.com/milk9111/dreamtower/block"
	"github.com/milk9111/dreamtower/common"
	"github.com/milk9111/dreamtower/game"
	"github.com/milk9111/dreamtower/prefabs"
	"github.com/milk9111/dreamtower/save"
	"github.com/milk9111/dreamtower/script"
	"github.com/milk9111/dreamtower/spawner"
)

const appName = "dreamtower"

type Options struct {
	Seed      uint64
	Debug     bool
	Autopilot string
	Watch     bool
	Muted     bool
}

type Game struct {
	session *game.Session
	input   Input
	pilot   *script.Autopilot
	store   *save.Store
	scores  *save.Scoreboard
	sounds  *audio.Player
	fx      *effects
	next    *preview
	watcher *prefabs.Watcher
	pauseUI *ebitenui.UI

	paused bool
	debug  bool
	quit   bool
}

func NewGame(opts Options) (*Game, error) {
	cfg, err := game.LoadConfig(opts.Seed)
	if err != nil {
		return nil, err
	}

	g := &Game{
		store: save.Open(appName),
		fx:    &effects{},
		next:  &preview{},
		debug: opts.Debug,
	}
	g.scores = save.NewScoreboard(g.store)

	ctx := ebitenaudio.NewContext(audio.SampleRate)
	tones := cfg.Tuning.Sounds
	if len(tones) == 0 {
		tones = audio.DefaultTones()
	}
	if g.sounds, err = audio.NewPlayer(ctx, tones); err != nil {
		log.Printf("Game: sounds disabled: %v", err)
	}
	g.sounds.SetMuted(opts.Muted)

	if opts.Autopilot != "" {
		if g.pilot, err = script.LoadAutopilot(opts.Autopilot); err != nil {
			return nil, err
		}
	}

	hooks := game.Hooks{Effects: g.fx, Scores: g.scores, Preview: g.next}
	if g.sounds != nil {
		hooks.Sounds = g.sounds
	}
	g.session, err = game.New(cfg, hooks)
	if err != nil {
		return nil, err
	}

	if opts.Watch {
		if g.watcher, err = prefabs.NewWatcher(prefabs.DiskDir, prefabs.DiskDir+"/scripts"); err != nil {
			log.Printf("Game: hot reload disabled: %v", err)
			g.watcher = nil
		}
	}
	g.pauseUI = NewPauseUI(g)
	return g, nil
}

// Close releases the watcher and writes the save.
func (g *Game) Close() {
	if g.watcher != nil {
		if err := g.watcher.Close(); err != nil {
			log.Printf("Game: close watcher: %v", err)
		}
	}
	if err := g.store.Save(); err != nil {
		log.Printf("Game: %v", err)
	}
}

func (g *Game) Update() error {
	if g.quit {
		return ebiten.Termination
	}
	g.pollWatcher()
	g.input.Update()

	if g.input.DebugPressed {
		g.debug = !g.debug
	}
	if g.input.MutePressed {
		g.toggleMute()
	}
	if g.input.PausePressed && !g.session.Over() {
		g.paused = !g.paused
	}
	if g.paused {
		g.pauseUI.Update()
		return nil
	}
	if g.input.RestartPressed && g.session.Over() {
		g.restart()
		return nil
	}

	g.session.Tick(g.steer())
	g.fx.Update(common.FixedDelta)
	return nil
}

// steer returns the autopilot's input when one is loaded.
func (g *Game) steer() block.Input {
	if g.pilot == nil {
		return g.input.Block
	}
	b := g.session.Controlled()
	if b == nil {
		return block.Input{}
	}
	pos := b.Position()
	arena := g.session.Config().Arena
	out, err := g.pilot.Decide(script.State{
		BlockID:  uint64(b.ID()),
		Kind:     b.Kind().String(),
		BlockX:   pos.X,
		BlockY:   pos.Y,
		Rotation: b.Rotation(),
		TargetX:  (arena.Left + arena.Right) / 2,
		Tick:     g.session.World().Tick(),
		Level:    g.session.Coordinator().Level(),
	})
	if err != nil {
		log.Printf("Game: autopilot off: %v", err)
		g.pilot = nil
		return g.input.Block
	}
	return out
}

func (g *Game) restart() {
	g.paused = false
	g.scores.Reset()
	g.pilot.Reset()
	g.fx.Reset()
	if err := g.session.Restart(); err != nil {
		log.Printf("Game: restart: %v", err)
	}
}

func (g *Game) toggleMute() {
	g.sounds.SetMuted(!g.sounds.Muted())
}

func (g *Game) pollWatcher() {
	for g.watcher != nil {
		select {
		case name, ok := <-g.watcher.Events:
			if !ok {
				g.watcher = nil
				return
			}
			g.reload(name)
		case err, ok := <-g.watcher.Errors:
			if !ok {
				g.watcher = nil
				return
			}
			log.Printf("Game: watcher: %v", err)
		default:
			return
		}
	}
}

func (g *Game) reload(name string) {
	switch name {
	case prefabs.TuningFile:
		t, err := prefabs.LoadTuning()
		if err == nil {
			err = g.session.ApplyTuning(t)
		}
		if err != nil {
			log.Printf("Game: reload %s: %v", name, err)
		}
	case prefabs.BlocksFile:
		b, err := prefabs.LoadBlocks()
		if err == nil {
			err = g.session.ApplyBlocks(b)
		}
		if err != nil {
			log.Printf("Game: reload %s: %v", name, err)
		}
	default:
		if g.pilot != nil && name == "scripts/"+g.pilot.Name()+".tengo" {
			pilot, err := script.LoadAutopilot(g.pilot.Name())
			if err != nil {
				log.Printf("Game: reload %s: %v", name, err)
				return
			}
			g.pilot = pilot
			log.Printf("Game: autopilot reloaded")
			return
		}
		log.Printf("Game: %s changed, applies on restart", name)
	}
}

func (g *Game) Draw(screen *ebiten.Image) {
	v := g.view()
	drawWorld(screen, g.session, v)
	if g.debug {
		drawSpace(screen, g.session.Physics().Space(), v)
	}
	drawHUD(screen, g)
	if g.paused {
		g.pauseUI.Draw(screen)
	}
}

func (g *Game) view() view {
	shake := g.fx.Shake()
	return view{camX: shake.X, camY: g.session.Coordinator().CameraY() + shake.Y}
}

func (g *Game) LayoutF(outsideWidth, outsideHeight float64) (float64, float64) {
	return common.BaseWidth, common.BaseHeight
}

func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	return common.BaseWidth, common.BaseHeight
}

// preview remembers the next block for the HUD.
type preview struct {
	next spawner.Descriptor
	ok   bool
}

func (p *preview) ShowNext(d spawner.Descriptor) {
	p.next = d
	p.ok = true
}

// effects runs the short-lived visual feedback: camera shake and a banner.
type effects struct {
	shake    float64
	banner   string
	bannerAt float64
	t        float64
}

const (
	shakeTime   = 0.2
	shakeAmount = 0.3
	bannerTime  = 1.5
)

var banners = map[string]string{
	"level_up":    "LEVEL UP",
	"rocket_item": "ROCKET!",
	"ice_item":    "FROZEN",
	"heal_item":   "HEALED",
	"trap_hit":    "OUCH",
}

func (e *effects) Effect(name string, _ cp.Vector) {
	if name == "camera_shake" {
		e.shake = shakeTime
		return
	}
	if text, ok := banners[name]; ok {
		e.banner = text
		e.bannerAt = e.t
	}
}

func (e *effects) Update(dt float64) {
	e.t += dt
	e.shake = max(e.shake-dt, 0)
	if e.banner != "" && e.t-e.bannerAt > bannerTime {
		e.banner = ""
	}
}

func (e *effects) Reset() {
	*e = effects{}
}

// Shake returns the camera offset for this frame.
func (e *effects) Shake() cp.Vector {
	if e.shake <= 0 {
		return cp.Vector{}
	}
	k := e.shake / shakeTime * shakeAmount
	phase := e.t * 60
	return cp.Vector{X: k * tri(phase), Y: k * tri(phase*1.3)}
}

// tri is a triangle wave in [-1,1] with period 1.
func tri(x float64) float64 {
	return 4*math.Abs(x-math.Floor(x)-0.5) - 1
}

func (e *effects) Banner() string { return e.banner }

func hudLine(g *Game) string {
	c := g.session.Coordinator()
	return fmt.Sprintf("Level %d   Height %.1f   Best %.1f", c.Level(), c.MaxHeight(), max(g.scores.Best(), c.MaxHeight()))
}
