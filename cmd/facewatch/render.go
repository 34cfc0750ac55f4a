package main

import (
	"fmt"

	"github.com/gdamore/tcell/v2"

	"github.com/toddllm/face-controls/internal/sim"
)

var (
	styleHUD       = tcell.StyleDefault.Foreground(tcell.ColorWhite).Bold(true)
	styleCreature  = tcell.StyleDefault.Foreground(tcell.ColorRed)
	styleBoss      = tcell.StyleDefault.Foreground(tcell.ColorFuchsia).Bold(true)
	styleShot      = tcell.StyleDefault.Foreground(tcell.ColorYellow)
	styleHazard    = tcell.StyleDefault.Foreground(tcell.ColorOrange)
	styleCompanion = tcell.StyleDefault.Foreground(tcell.ColorAqua)
	stylePortal    = tcell.StyleDefault.Foreground(tcell.ColorPurple)
	stylePlayer    = tcell.StyleDefault.Foreground(tcell.ColorLime).Bold(true)
)

// glyphs overrides the first letter of a kind name where it would be
// ambiguous on screen.
var glyphs = map[string]rune{
	"laser":     '|',
	"fireball":  '*',
	"snake":     '~',
	"fang":      'v',
	"crystal":   '+',
	"voidbeam":  '=',
	"storm":     '@',
	"village":   'H',
	"companion": 'c',
	"gary":      'G',
	"xyz":       'X',
}

func glyph(kind string) rune {
	if g, ok := glyphs[kind]; ok {
		return g
	}
	if kind == "" {
		return '?'
	}
	return rune(kind[0])
}

// view maps canvas coordinates onto a w×h cell grid, leaving the top row
// for the HUD.
type view struct {
	w, h   int
	cw, ch float64
}

func (v view) cell(x, y float64) (int, int, bool) {
	if v.cw <= 0 || v.ch <= 0 || v.h < 2 {
		return 0, 0, false
	}
	cx := int(x / v.cw * float64(v.w))
	cy := 1 + int(y/v.ch*float64(v.h-1))
	if cx < 0 || cx >= v.w || cy < 1 || cy >= v.h {
		return 0, 0, false
	}
	return cx, cy, true
}

func putString(s tcell.Screen, x, y int, str string, st tcell.Style) {
	for _, r := range str {
		s.SetContent(x, y, r, nil, st)
		x++
	}
}

// render draws snap onto s. canvasW and canvasH are the simulation's
// canvas size.
func render(s tcell.Screen, snap *sim.Snapshot, canvasW, canvasH float64) {
	s.Clear()
	w, h := s.Size()
	v := view{w: w, h: h, cw: canvasW, ch: canvasH}

	layer := func(views []sim.EntityView, st tcell.Style) {
		for _, e := range views {
			if x, y, ok := v.cell(e.X, e.Y); ok {
				s.SetContent(x, y, glyph(e.Kind), nil, st)
			}
		}
	}
	layer(snap.Portals, stylePortal)
	layer(snap.Hazards, styleHazard)
	layer(snap.Creatures, styleCreature)
	layer(snap.Projectiles, styleShot)
	layer(snap.Companions, styleCompanion)
	layer(snap.Bosses, styleBoss)
	for i, p := range snap.Players {
		if !p.Present || p.Eaten {
			continue
		}
		if x, y, ok := v.cell(p.X, p.Y); ok {
			s.SetContent(x, y, rune('1'+i), nil, stylePlayer)
		}
	}
	putString(s, 0, 0, hud(snap), styleHUD)
}

func hud(snap *sim.Snapshot) string {
	line := fmt.Sprintf("wave %d  %d/%d  %s  %s", snap.Wave+1, snap.Kills, snap.Target, snap.Stage, snap.Dimension)
	if snap.BossMax > 0 {
		line += fmt.Sprintf("  boss %.0f/%.0f", snap.BossHealth, snap.BossMax)
	}
	for i, p := range snap.Players {
		if p.Eaten {
			line += fmt.Sprintf("  P%d eaten", i+1)
			continue
		}
		line += fmt.Sprintf("  P%d %d♥", i+1, p.Lives)
	}
	if snap.Antagonist != nil {
		line += fmt.Sprintf("  gary %d/%d", snap.Antagonist.Eaten, snap.Antagonist.Trigger)
		if snap.Antagonist.Mega {
			line += " MEGA"
		}
	}
	if snap.Paused {
		line += "  [paused]"
	}
	return line
}
