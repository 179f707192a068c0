package main

import (
	"fmt"
	"image"
	"image/color"
	"math"

	"github.com/hajimehoshi/ebiten/v2"
	ebtext "github.com/hajimehoshi/ebiten/v2/text/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"github.com/jakecoffman/cp"
	"github.com/milk9111/dreamtower/block"
	"github.com/milk9111/dreamtower/common"
	"github.com/milk9111/dreamtower/game"
	"github.com/milk9111/dreamtower/level"
	"golang.org/x/image/colornames"
	"golang.org/x/image/font/basicfont"
)

var (
	skyColor     = color.RGBA{R: 0x1b, G: 0x1d, B: 0x33, A: 0xff}
	groundColor  = color.RGBA{R: 0x4a, G: 0x3b, B: 0x2f, A: 0xff}
	triggerColor = color.RGBA{R: 0xff, G: 0xff, B: 0xff, A: 0x40}
	trapColors   = map[level.TrapType]color.RGBA{
		level.TrapReality: {R: 0xe0, G: 0x40, B: 0x40, A: 0x70},
		level.TrapDream:   {R: 0xc0, G: 0x60, B: 0xf0, A: 0x70},
		level.TrapAll:     {R: 0xf0, G: 0x90, B: 0x20, A: 0x70},
	}
	itemColors = map[level.ItemKind]color.Color{
		level.ItemHeal:   colornames.Lightpink,
		level.ItemIce:    colornames.Lightblue,
		level.ItemShield: colornames.Gold,
		level.ItemRocket: colornames.Orangered,
	}
	hudFace ebtext.Face = ebtext.NewGoXFace(basicfont.Face7x13)
)

var whitePixel = func() *ebiten.Image {
	img := ebiten.NewImage(3, 3)
	img.Fill(color.White)
	return img.SubImage(image.Rect(1, 1, 2, 2)).(*ebiten.Image)
}()

// view maps world units (y up) to screen pixels (y down) around the camera.
type view struct {
	camX, camY float64
}

func (v view) toScreen(p cp.Vector) (float32, float32) {
	x := (p.X-v.camX)*common.PixelsPerUnit + common.BaseWidth/2
	y := common.BaseHeight/2 - (p.Y-v.camY)*common.PixelsPerUnit
	return float32(x), float32(y)
}

func (v view) fillBox(dst *ebiten.Image, center cp.Vector, w, h float64, clr color.Color) {
	x, y := v.toScreen(cp.Vector{X: center.X - w/2, Y: center.Y + h/2})
	vector.FillRect(dst, x, y, float32(w*common.PixelsPerUnit), float32(h*common.PixelsPerUnit), clr, false)
}

func drawWorld(screen *ebiten.Image, s *game.Session, v view) {
	screen.Fill(skyColor)
	arena := s.Config().Arena

	gx, gy := v.toScreen(cp.Vector{X: arena.Left, Y: arena.GroundY})
	vector.FillRect(screen, gx, gy, float32((arena.Right-arena.Left)*common.PixelsPerUnit), common.BaseHeight, groundColor, false)
	for _, x := range []float64{arena.Left, arena.Right} {
		x0, y0 := v.toScreen(cp.Vector{X: x, Y: arena.GroundY})
		x1, y1 := v.toScreen(cp.Vector{X: x, Y: arena.GroundY + arena.WallHeight})
		vector.StrokeLine(screen, x0, y0, x1, y1, 2, colornames.Slategray, false)
	}

	ty := s.Coordinator().TriggerHeight() + arena.GroundY
	lx, ly := v.toScreen(cp.Vector{X: arena.Left, Y: ty})
	rx, _ := v.toScreen(cp.Vector{X: arena.Right, Y: ty})
	vector.StrokeLine(screen, lx, ly, rx, ly, 1, triggerColor, false)

	for _, t := range s.Traps() {
		w, h := t.Size()
		v.fillBox(screen, t.Center(), w, h, trapColors[t.Type()])
	}
	size := s.Config().Tuning.Items.Size
	for _, it := range s.Items().Live() {
		if clr, ok := itemColors[it.Kind]; ok {
			v.fillBox(screen, it.Pos, size, size, clr)
		}
	}

	for _, b := range s.Blocks() {
		drawBlock(screen, s, b, v)
	}

	sp := s.SpawnPoint().Position()
	sx, sy := v.toScreen(sp)
	vector.StrokeLine(screen, sx-4, sy, sx+4, sy, 1, colornames.White, false)
}

func drawBlock(screen *ebiten.Image, s *game.Session, b *block.Block, v view) {
	body, ok := s.Physics().Body(b.ID())
	if !ok {
		return
	}
	base := color.Color(colornames.Gray)
	if b.Kind() == block.KindDream {
		base = colornames.Plum
	}
	if variant, ok := s.Variant(b); ok {
		base = variant.Color.Or(base)
	}
	clr := color.NRGBAModel.Convert(base).(color.NRGBA)
	if b.IsFixed() {
		clr = shade(clr, 0.55)
	}

	for _, quad := range body.Corners() {
		var pts [4][2]float32
		for i, p := range quad {
			pts[i][0], pts[i][1] = v.toScreen(p)
		}
		fillQuad(screen, pts, clr)
		if b.IsControlled() {
			for i := range 4 {
				j := (i + 1) % 4
				vector.StrokeLine(screen, pts[i][0], pts[i][1], pts[j][0], pts[j][1], 1, colornames.White, true)
			}
		}
	}
}

func shade(c color.NRGBA, k float64) color.NRGBA {
	return color.NRGBA{R: uint8(float64(c.R) * k), G: uint8(float64(c.G) * k), B: uint8(float64(c.B) * k), A: c.A}
}

func fillQuad(dst *ebiten.Image, pts [4][2]float32, clr color.NRGBA) {
	r := float32(clr.R) / 0xff
	g := float32(clr.G) / 0xff
	b := float32(clr.B) / 0xff
	a := float32(clr.A) / 0xff
	verts := make([]ebiten.Vertex, 4)
	for i, p := range pts {
		verts[i] = ebiten.Vertex{DstX: p[0], DstY: p[1], SrcX: 1, SrcY: 1, ColorR: r, ColorG: g, ColorB: b, ColorA: a}
	}
	dst.DrawTriangles(verts, []uint16{0, 1, 2, 0, 2, 3}, whitePixel, nil)
}

func drawText(dst *ebiten.Image, s string, x, y float64, clr color.Color) {
	op := &ebtext.DrawOptions{}
	op.GeoM.Translate(x, y)
	op.ColorScale.ScaleWithColor(clr)
	ebtext.Draw(dst, s, hudFace, op)
}

func drawHUD(screen *ebiten.Image, g *Game) {
	drawText(screen, hudLine(g), 8, 6, colornames.White)

	h := g.session.Health()
	for i := range h.Max() {
		clr := color.Color(colornames.Crimson)
		if i >= h.Hearts() {
			clr = colornames.Dimgray
		}
		vector.FillRect(screen, float32(8+i*14), 26, 10, 10, clr, false)
	}
	for i := range h.Shields() {
		vector.FillRect(screen, float32(8+(h.Max()+i)*14+6), 26, 10, 10, colornames.Gold, false)
	}

	drawPreview(screen, g)

	if banner := g.fx.Banner(); banner != "" {
		drawText(screen, banner, common.BaseWidth/2-float64(len(banner))*3.5, common.BaseHeight/3, colornames.Yellow)
	}
	if g.pilot != nil {
		drawText(screen, "AUTOPILOT", 8, 42, colornames.Lightgreen)
	}
	if g.sounds.Muted() {
		drawText(screen, "MUTED", common.BaseWidth-48, 42, colornames.Gray)
	}
	if g.session.Over() {
		msg := fmt.Sprintf("GAME OVER  height %.1f", g.session.Coordinator().MaxHeight())
		if g.scores.NewBest() {
			msg += "  NEW BEST"
		}
		drawText(screen, msg, common.BaseWidth/2-float64(len(msg))*3.5, common.BaseHeight/2, colornames.White)
		drawText(screen, "press R to restart", common.BaseWidth/2-63, common.BaseHeight/2+18, colornames.Lightgray)
	}
}

// drawPreview shows the next block's cells in the top-right corner.
func drawPreview(screen *ebiten.Image, g *Game) {
	if !g.next.ok {
		return
	}
	d := g.next.next
	variant, ok := g.session.Config().Blocks.Variant(d.Kind, d.Variant)
	if !ok {
		return
	}
	const cell = 8
	ox, oy := float64(common.BaseWidth-60), 40.0
	drawText(screen, "NEXT", ox-4, 6, colornames.White)

	base := color.Color(colornames.Gray)
	if d.Kind == block.KindDream {
		base = colornames.Plum
	}
	clr := variant.Color.Or(base)
	rad := common.DegToRad(d.Rotation)
	sin, cos := math.Sincos(rad)
	for _, c := range variant.Cells {
		x := float64(c.X)*cos - float64(c.Y)*sin
		y := float64(c.X)*sin + float64(c.Y)*cos
		vector.FillRect(screen, float32(ox+x*cell), float32(oy-y*cell), cell-1, cell-1, clr, false)
	}
}
