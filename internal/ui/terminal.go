// Package ui is the concrete local input capture and rendering
// collaborator cmd/client drives the session against. Spec §1 puts both
// behind an interface boundary ("consumes read-only game state and
// produces pixels", "produces a per-frame Input value") and scopes their
// implementation out of the simulation core; this package is the one
// concrete implementation cmd/client needs to actually run in a terminal,
// grounded on andersfylling-rayman-slides' tcell render/input packages
// (internal/render/tcell.go, internal/input/capture.go) — the only example
// in the pack that drives a tick-based game loop from a terminal screen.
package ui

import (
	"fmt"

	"github.com/gdamore/tcell/v2"

	"github.com/duskreach/netplay/internal/mathutil"
	"github.com/duskreach/netplay/internal/simulation"
	"github.com/duskreach/netplay/internal/worldmap"
)

// holdFrames is the counter a key event sets; CaptureInput ages it on the
// same tick, so a key stays "held" for holdFrames-1 ticks once seen.
// Terminals give no key-up event; this approximates held-down WASD
// the way a gamepad or keyboard driver's auto-repeat would, at a threshold
// comfortably inside typical terminal key-repeat rates.
const holdFrames = 6

// Terminal is a tcell-backed screen that renders the shared Game read-only
// and turns held keys into one simulation.Input per tick.
type Terminal struct {
	screen tcell.Screen
	events chan tcell.Event
	stop   chan struct{}

	held map[rune]int
	quit bool
}

// Open initializes the terminal screen and starts the background event
// pump, mirroring TcellRenderer.Init's screen.Init + pollEvents goroutine.
func Open() (*Terminal, error) {
	screen, err := tcell.NewScreen()
	if err != nil {
		return nil, fmt.Errorf("ui: new screen: %w", err)
	}
	if err := screen.Init(); err != nil {
		return nil, fmt.Errorf("ui: init screen: %w", err)
	}
	screen.SetStyle(tcell.StyleDefault.Background(tcell.ColorBlack).Foreground(tcell.ColorWhite))
	screen.Clear()
	screen.Show()

	t := &Terminal{
		screen: screen,
		events: make(chan tcell.Event, 32),
		stop:   make(chan struct{}),
		held:   make(map[rune]int),
	}
	go t.pump()
	return t, nil
}

func (t *Terminal) pump() {
	for {
		ev := t.screen.PollEvent()
		if ev == nil {
			return
		}
		select {
		case t.events <- ev:
		case <-t.stop:
			return
		default:
			// drop event if the tick loop hasn't drained fast enough
		}
	}
}

// Close tears down the screen and stops the event pump.
func (t *Terminal) Close() {
	close(t.stop)
	t.screen.Fini()
}

// CaptureInput is the local input capture collaborator cmd/client passes
// to session.NewClient: it drains pending terminal events, folds newly
// pressed keys into the held-key table, ages every entry down by one tick,
// and returns the Input those still-held keys imply this tick.
func (t *Terminal) CaptureInput() simulation.Input {
	t.drainEvents()

	for r, frames := range t.held {
		if frames <= 1 {
			delete(t.held, r)
		} else {
			t.held[r] = frames - 1
		}
	}

	in := simulation.Input{
		MoveUp:    t.isHeld('w'),
		MoveDown:  t.isHeld('s'),
		MoveLeft:  t.isHeld('a'),
		MoveRight: t.isHeld('d'),
		Dodge:     t.isHeld(' '),
		Shoot:     t.isHeld('f'),
		Quit:      t.quit,
	}

	dx := b2f(in.MoveRight) - b2f(in.MoveLeft)
	dy := b2f(in.MoveDown) - b2f(in.MoveUp)
	in.Aim = mathutil.Vector2{X: dx, Y: dy}
	return in
}

func (t *Terminal) isHeld(r rune) bool {
	return t.held[r] > 0
}

func b2f(b bool) float32 {
	if b {
		return 1
	}
	return 0
}

func (t *Terminal) drainEvents() {
	for {
		select {
		case ev := <-t.events:
			t.apply(ev)
		default:
			return
		}
	}
}

func (t *Terminal) apply(ev tcell.Event) {
	switch ev := ev.(type) {
	case *tcell.EventKey:
		switch ev.Key() {
		case tcell.KeyEscape, tcell.KeyCtrlC:
			t.quit = true
			return
		case tcell.KeyRune:
			r := ev.Rune()
			switch r {
			case 'q', 'Q':
				t.quit = true
				return
			case 'W':
				r = 'w'
			case 'A':
				r = 'a'
			case 'S':
				r = 's'
			case 'D':
				r = 'd'
			case 'F':
				r = 'f'
			}
			t.held[r] = holdFrames
		}
	case *tcell.EventResize:
		t.screen.Sync()
	}
}

// tileGlyph maps a world tile to the character drawn for it.
func tileGlyph(tl worldmap.Tile) rune {
	switch tl {
	case worldmap.TileStone:
		return '#'
	default:
		return '.'
	}
}

// playerGlyph distinguishes the local player from remote peers so a reader
// watching the terminal can tell which dot they are driving.
func playerGlyph(isLocal bool) rune {
	if isLocal {
		return '@'
	}
	return 'o'
}

// Render draws one frame of the shared Game, read-only, with the local
// player's slot highlighted — the "consumes read-only game state and
// produces pixels" contract of spec §1, realized as terminal cells instead
// of a framebuffer.
func (t *Terminal) Render(g *simulation.Game, localSlot int) {
	t.screen.Clear()

	m := g.Map
	w, h := t.screen.Size()
	style := tcell.StyleDefault.Foreground(tcell.ColorGray).Background(tcell.ColorBlack)
	for j := 0; j < m.Height() && j < h-1; j++ {
		for i := 0; i < m.Width() && i < w; i++ {
			t.screen.SetContent(i, j, tileGlyph(m.TileAt(i, j)), nil, style)
		}
	}

	for idx, p := range g.Players {
		if !p.Occupied {
			continue
		}
		i, j := m.Coord(p.Pos)
		if i < 0 || j < 0 || i >= w || j >= h-1 {
			continue
		}
		fg := tcell.ColorWhite
		if idx == localSlot {
			fg = tcell.ColorYellow
		}
		pstyle := tcell.StyleDefault.Foreground(fg).Background(tcell.ColorBlack)
		t.screen.SetContent(i, j, playerGlyph(idx == localSlot), nil, pstyle)
	}

	t.drawHUD(g, localSlot, h-1)
	t.screen.Show()
}

func (t *Terminal) drawHUD(g *simulation.Game, localSlot, row int) {
	text := "disconnected"
	if localSlot >= 0 {
		p := g.Players[localSlot]
		text = fmt.Sprintf("peer %d  hp %.0f  pos (%.1f, %.1f)", localSlot, p.Health, p.Pos.X, p.Pos.Y)
	}
	style := tcell.StyleDefault.Foreground(tcell.ColorYellow).Background(tcell.ColorBlack)
	for i, r := range text {
		t.screen.SetContent(i, row, r, nil, style)
	}
}
