package main

import (
	"fmt"
	"math"

	"github.com/gdamore/tcell/v2"
	"github.com/vladimirvolkov/skijump/server/internal/game"
	"github.com/vladimirvolkov/skijump/server/internal/hill"
)

const hudRows = 3

var (
	styleHUD    = tcell.StyleDefault.Foreground(tcell.ColorWhite)
	styleDim    = tcell.StyleDefault.Foreground(tcell.ColorGray)
	styleSnow   = tcell.StyleDefault.Foreground(tcell.NewRGBColor(220, 230, 255))
	styleJumper = tcell.StyleDefault.Foreground(tcell.ColorRed).Bold(true)
	styleGood   = tcell.StyleDefault.Foreground(tcell.ColorGreen)
)

// viewport maps model metres (y down) to terminal cells. Cells are about
// twice as tall as wide, so one metre spans half as many rows as columns.
type viewport struct {
	lip   float64 // model x of the table edge
	scale float64 // columns per metre
}

// newViewport fits the run-up and the landing hill out to span metres past
// the lip into a w×h area below the HUD.
func newViewport(h hill.Profile, rule game.LandingRule, lip float64, w, ht int) viewport {
	span := h.HillSize * 1.3
	depth := 1.0
	for dx := 0.0; dx <= span; dx += 1 {
		depth = math.Max(depth, rule.Surface(h, dx))
	}
	cols := float64(max(w-2, 1))
	rows := float64(max(ht-hudRows-1, 1))
	scale := math.Min(cols/(lip+span), 2*rows/depth)
	return viewport{lip: lip, scale: scale}
}

func (v viewport) toScreen(x, y float64) (int, int) {
	return 1 + int(math.Round(x*v.scale)), hudRows + int(math.Round(y*v.scale/2))
}

func (v viewport) toModel(col int) float64 {
	return float64(col-1) / v.scale
}

// jumperRune shows the body angle; positive angles are nose down.
func jumperRune(s game.JumpState) rune {
	switch {
	case s.Phase == game.PhaseRunUp:
		return 'o'
	case s.Phase == game.PhaseLanded:
		return '_'
	case s.BodyAngle < -20:
		return '/'
	case s.BodyAngle > 20:
		return '\\'
	default:
		return '-'
	}
}

func drawText(s tcell.Screen, x, y int, style tcell.Style, text string) {
	for _, r := range text {
		s.SetContent(x, y, r, nil, style)
		x++
	}
}

func (a *app) draw() {
	a.screen.Clear()
	if a.jump == nil {
		a.drawMenu()
	} else {
		a.drawRun()
	}
	a.screen.Show()
}

func (a *app) drawMenu() {
	drawText(a.screen, 1, 0, styleHUD, "SKI JUMP")
	drawText(a.screen, 1, 1, styleDim, fmt.Sprintf("best %d   ruleset %s [r]   gate %d [+/-]", a.best.Value(), a.rules.Name, a.tuning.Gate))
	row := 3
	for i, h := range a.catalog.List() {
		if i >= 9 {
			break
		}
		drawText(a.screen, 3, row, styleHUD, fmt.Sprintf("%d) %-20s K %3.0f m  HS %3.0f m", i+1, h.Name, h.KPoint, h.HillSize))
		row++
	}
	row++
	if a.result != nil {
		j := a.result
		drawText(a.screen, 3, row, styleGood, fmt.Sprintf("last: %.1f m  notes %v  style %d  score %d", j.Distance, j.Notes, j.StyleScore, j.Score))
		row++
	}
	drawText(a.screen, 3, row+1, styleDim, "choose a hill, q to quit")
}

func (a *app) drawRun() {
	st := a.jump.State()
	h := a.jump.Hill()
	w, ht := a.screen.Size()

	lip := a.tuning.LiftPointX
	if st.Phase != game.PhaseRunUp {
		lip = st.TakeoffX
	}
	rule := a.jump.Ruleset().Landing
	v := newViewport(h, rule, lip, w, ht)

	for col := 1; col < w-1; col++ {
		x := v.toModel(col)
		y := 0.0
		if x > lip {
			y = rule.Surface(h, x-lip)
		}
		_, row := v.toScreen(x, y)
		for r := row; r < ht; r++ {
			ch := '░'
			if r == row {
				ch = '▄'
			}
			a.screen.SetContent(col, r, ch, nil, styleSnow)
		}
	}
	if kx, ky := v.toScreen(lip+h.KPoint, rule.Surface(h, h.KPoint)); ky > hudRows {
		a.screen.SetContent(kx, ky-1, 'K', nil, styleDim)
	}

	y := st.Y - st.TakeoffY
	if st.Phase == game.PhaseRunUp {
		y = 0
	}
	col, row := v.toScreen(st.X, y)
	a.screen.SetContent(col, max(row-1, hudRows), jumperRune(st), nil, styleJumper)

	drawText(a.screen, 1, 0, styleHUD, fmt.Sprintf("%s   %s   gate %d   wind %+.0f   best %d",
		h.Name, a.jump.Ruleset().Name, st.Gate, st.Wind, st.BestScore))
	switch st.Phase {
	case game.PhaseRunUp:
		drawText(a.screen, 1, 1, styleHUD, fmt.Sprintf("run-up %.1f m  %.1f m/s", st.X, st.VX))
		drawText(a.screen, 1, 2, styleDim, "space: take off")
	case game.PhaseFlight:
		drawText(a.screen, 1, 1, styleHUD, fmt.Sprintf("flight %.1f m  timing %.2f  body %+.0f°", st.Distance, st.Timing, st.BodyAngle))
		drawText(a.screen, 1, 2, styleDim, "up/down: pitch")
	case game.PhaseLanded:
		j := a.jump.Judging()
		text := fmt.Sprintf("%.1f m  notes %v  score %d", j.Distance, j.Notes, j.Score)
		if j.Telemark {
			text += "  telemark!"
		}
		drawText(a.screen, 1, 1, styleGood, text)
	}
}
