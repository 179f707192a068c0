package audio

import (
	"fmt"
	"log"
	"sort"

	"github.com/hajimehoshi/ebiten/v2/audio"
)

// Player plays named synthesized clips through an ebiten audio context.
// Unknown names are ignored.
type Player struct {
	ctx    *audio.Context
	clips  map[string][]byte
	active []*audio.Player
	volume float64
	muted  bool
}

// NewPlayer renders every tone up front. ctx may be shared with other
// players; ebiten allows only one context per process.
func NewPlayer(ctx *audio.Context, tones map[string]Tone) (*Player, error) {
	if ctx == nil {
		return nil, fmt.Errorf("audio: nil context")
	}
	names := make([]string, 0, len(tones))
	for name := range tones {
		names = append(names, name)
	}
	sort.Strings(names)

	clips := make(map[string][]byte, len(tones))
	for _, name := range names {
		pcm, err := Synthesize(tones[name], ctx.SampleRate())
		if err != nil {
			return nil, fmt.Errorf("audio: tone %s: %w", name, err)
		}
		clips[name] = pcm
	}
	return &Player{ctx: ctx, clips: clips, volume: 1}, nil
}

// Play starts a clip. Finished players are released first.
func (p *Player) Play(name string) {
	if p == nil || p.muted {
		return
	}
	pcm, ok := p.clips[name]
	if !ok {
		return
	}
	p.reap()
	player := p.ctx.NewPlayerFromBytes(pcm)
	player.SetVolume(p.volume)
	player.Play()
	p.active = append(p.active, player)
}

func (p *Player) reap() {
	kept := p.active[:0]
	for _, player := range p.active {
		if player.IsPlaying() {
			kept = append(kept, player)
			continue
		}
		if err := player.Close(); err != nil {
			log.Printf("Audio: close player: %v", err)
		}
	}
	p.active = kept
}

// SetVolume sets the volume for clips started afterwards.
func (p *Player) SetVolume(v float64) {
	if p == nil {
		return
	}
	p.volume = v
}

// SetMuted silences all future clips.
func (p *Player) SetMuted(muted bool) {
	if p == nil {
		return
	}
	p.muted = muted
}

func (p *Player) Muted() bool { return p != nil && p.muted }

// Has reports whether a clip exists for name.
func (p *Player) Has(name string) bool {
	if p == nil {
		return false
	}
	_, ok := p.clips[name]
	return ok
}
