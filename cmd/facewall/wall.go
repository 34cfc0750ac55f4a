package main

import (
	"fmt"
	"image/color"
	"sync"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/text/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"golang.org/x/image/colornames"
	"golang.org/x/image/font/basicfont"

	"github.com/toddllm/face-controls/internal/sim"
)

var hudFace = text.NewGoXFace(basicfont.Face7x13)

// Wall renders the latest snapshot of a session. Snapshots arrive on the
// spectator goroutine; Update and Draw run on ebiten's.
type Wall struct {
	width, height int

	mu     sync.Mutex
	latest *sim.Snapshot
	banner string
	err    error

	snap *sim.Snapshot
}

func NewWall(width, height int) *Wall {
	return &Wall{width: width, height: height}
}

// Push stores a snapshot for the next frame.
func (w *Wall) Push(s *sim.Snapshot) {
	w.mu.Lock()
	w.latest = s
	w.mu.Unlock()
}

// Announce shows msg under the HUD until the next announcement.
func (w *Wall) Announce(msg string) {
	w.mu.Lock()
	w.banner = msg
	w.mu.Unlock()
}

// Fail stops the game loop with err on the next Update.
func (w *Wall) Fail(err error) {
	w.mu.Lock()
	w.err = err
	w.mu.Unlock()
}

func (w *Wall) Update() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.err != nil {
		return w.err
	}
	if w.latest != nil {
		w.snap = w.latest
	}
	return nil
}

func (w *Wall) Draw(screen *ebiten.Image) {
	screen.Fill(backdrop(w.snap))
	s := w.snap
	if s == nil {
		drawText(screen, "waiting for session...", 10, 10, colornames.White)
		return
	}

	for _, e := range s.Portals {
		vector.StrokeCircle(screen, float32(e.X), float32(e.Y), float32(e.R), 3, colornames.Mediumpurple, true)
	}
	for _, e := range s.Hazards {
		vector.FillCircle(screen, float32(e.X), float32(e.Y), float32(e.R), withAlpha(colorFor(e.Kind), 0x60), true)
	}
	for _, group := range [][]sim.EntityView{s.Creatures, s.Companions, s.Bosses, s.Projectiles} {
		for _, e := range group {
			vector.FillCircle(screen, float32(e.X), float32(e.Y), float32(e.R), colorFor(e.Kind), true)
			if e.Flags&sim.FlagShielded != 0 {
				vector.StrokeCircle(screen, float32(e.X), float32(e.Y), float32(e.R+6), 2, colornames.Skyblue, true)
			}
		}
	}
	for i, p := range s.Players {
		if !p.Present || p.Eaten {
			continue
		}
		c := colornames.Limegreen
		if p.Invulnerable > 0 {
			c = colornames.Palegreen
		}
		vector.StrokeCircle(screen, float32(p.X), float32(p.Y), 50, 4, c, true)
		drawText(screen, fmt.Sprintf("P%d", i+1), p.X-7, p.Y-6, colornames.White)
	}

	drawText(screen, hudLine(s), 10, 10, colornames.White)
	w.mu.Lock()
	banner := w.banner
	w.mu.Unlock()
	if banner != "" {
		drawText(screen, banner, 10, 28, colornames.Gold)
	}
	if s.BossMax > 0 {
		frac := float32(s.BossHealth / s.BossMax)
		bw := float32(w.width) / 2
		x := float32(w.width)/2 - bw/2
		vector.FillRect(screen, x, float32(w.height)-30, bw, 12, colornames.Dimgray, false)
		vector.FillRect(screen, x, float32(w.height)-30, bw*frac, 12, colornames.Crimson, false)
	}
}

func (w *Wall) Layout(_, _ int) (int, int) { return w.width, w.height }

func drawText(dst *ebiten.Image, str string, x, y float64, c color.Color) {
	op := &text.DrawOptions{}
	op.GeoM.Translate(x, y)
	op.ColorScale.ScaleWithColor(c)
	text.Draw(dst, str, hudFace, op)
}

func hudLine(s *sim.Snapshot) string {
	line := fmt.Sprintf("Wave %d   %d/%d   %s", s.Wave+1, s.Kills, s.Target, s.Stage)
	if s.Dimension != "normal" {
		line += "   [" + s.Dimension + "]"
	}
	for i, p := range s.Players {
		if p.Eaten {
			line += fmt.Sprintf("   P%d: eaten", i+1)
		} else {
			line += fmt.Sprintf("   P%d: %d lives", i+1, p.Lives)
		}
	}
	if a := s.Antagonist; a != nil {
		line += fmt.Sprintf("   Gary %d/%d", a.Eaten, a.Trigger)
		if a.Mega {
			line += " MEGA"
		}
	}
	if s.Paused {
		line += "   PAUSED"
	}
	return line
}

// backdrop tints the background by dimension.
func backdrop(s *sim.Snapshot) color.Color {
	if s == nil {
		return colornames.Black
	}
	switch s.Dimension {
	case "dungeon":
		return color.RGBA{0x1a, 0x10, 0x08, 0xff}
	case "elder":
		return color.RGBA{0x10, 0x05, 0x20, 0xff}
	}
	return color.RGBA{0x08, 0x08, 0x18, 0xff}
}

var kindColors = map[string]color.RGBA{
	"basic":       colornames.Red,
	"snowie":      colornames.Lightblue,
	"firespinner": colornames.Orangered,
	"ghost":       colornames.Ghostwhite,
	"skeleton":    colornames.Beige,
	"caster":      colornames.Mediumorchid,
	"dragon":      colornames.Darkred,
	"bat":         colornames.Dimgray,
	"xyz":         colornames.Darkgreen,
	"gary":        colornames.Hotpink,
	"laser":       colornames.Yellow,
	"fireball":    colornames.Orange,
	"storm":       colornames.Slategray,
	"village":     colornames.Sienna,
	"lavapool":    colornames.Orangered,
	"voidzone":    colornames.Indigo,
	"companion":   colornames.Aqua,
}

func colorFor(kind string) color.RGBA {
	if c, ok := kindColors[kind]; ok {
		return c
	}
	// stable fallback per kind name
	var h uint32 = 2166136261
	for i := 0; i < len(kind); i++ {
		h ^= uint32(kind[i])
		h *= 16777619
	}
	return color.RGBA{R: 0x80 | byte(h), G: 0x40 | byte(h>>8), B: 0x40 | byte(h>>16), A: 0xff}
}

func withAlpha(c color.RGBA, a uint8) color.RGBA {
	// premultiplied
	k := float64(a) / 255
	return color.RGBA{R: uint8(float64(c.R) * k), G: uint8(float64(c.G) * k), B: uint8(float64(c.B) * k), A: a}
}
