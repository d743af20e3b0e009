package display

import (
	"fmt"
	"sync/atomic"

	"github.com/gdamore/tcell/v2"

	"github.com/banshee-data/lorentz.report/internal/render"
	"github.com/banshee-data/lorentz.report/internal/timeutil"
)

// halfBlock paints the top pixel with the foreground and the bottom pixel with
// the background, giving two pixel rows per terminal row.
const halfBlock = '▀'

// Terminal presents frames in a terminal through tcell. Escape, Ctrl-C or q
// request cancellation. Frames larger than the terminal are downscaled by
// nearest-neighbour sampling.
type Terminal struct {
	screen  tcell.Screen
	pacer   *Pacer
	cancel  atomic.Bool
	closed  atomic.Bool
	resized atomic.Bool
	done    chan struct{}
}

// NewTerminal takes over the controlling terminal.
func NewTerminal(clock timeutil.Clock, fps int) (*Terminal, error) {
	screen, err := tcell.NewScreen()
	if err != nil {
		return nil, fmt.Errorf("failed to create terminal screen: %w", err)
	}
	if err := screen.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialise terminal screen: %w", err)
	}
	return newTerminal(screen, clock, fps), nil
}

// newTerminal wraps an initialised screen and starts its event pump.
func newTerminal(screen tcell.Screen, clock timeutil.Clock, fps int) *Terminal {
	screen.HideCursor()
	screen.Clear()
	t := &Terminal{
		screen: screen,
		pacer:  NewPacer(clock, fps),
		done:   make(chan struct{}),
	}
	go t.pump()
	return t
}

// pump drains input events until the screen is finalised.
func (t *Terminal) pump() {
	defer close(t.done)
	for {
		ev := t.screen.PollEvent()
		if ev == nil {
			return
		}
		switch ev := ev.(type) {
		case *tcell.EventKey:
			if ev.Key() == tcell.KeyEscape || ev.Key() == tcell.KeyCtrlC ||
				(ev.Key() == tcell.KeyRune && ev.Rune() == 'q') {
				t.cancel.Store(true)
			}
		case *tcell.EventResize:
			t.resized.Store(true)
		}
	}
}

// IsOpen reports whether Close has not been called yet.
func (t *Terminal) IsOpen() bool {
	return !t.closed.Load()
}

// CancelRequested reports whether an exit key was pressed.
func (t *Terminal) CancelRequested() bool {
	return t.cancel.Load()
}

// Present paces, then draws f into the terminal.
func (t *Terminal) Present(f *render.Frame) error {
	if t.closed.Load() {
		return fmt.Errorf("terminal sink closed")
	}
	t.pacer.Wait()
	if t.resized.Swap(false) {
		t.screen.Sync()
	}

	cols, rows := t.screen.Size()
	scale := fitScale(f.Width, f.Height, cols, rows)
	t.screen.Clear()
	for cy := 0; cy*2*scale < f.Height; cy++ {
		for cx := 0; cx*scale < f.Width; cx++ {
			top := f.At(cx*scale, 2*cy*scale)
			bottom := f.At(cx*scale, (2*cy+1)*scale)
			t.screen.SetContent(cx, cy, halfBlock, nil, cellStyle(top, bottom))
		}
	}
	t.screen.Show()
	return nil
}

// Close restores the terminal and stops the event pump.
func (t *Terminal) Close() error {
	if t.closed.Swap(true) {
		return nil
	}
	t.screen.Fini()
	<-t.done
	return nil
}

func cellStyle(top, bottom uint32) tcell.Style {
	return tcell.StyleDefault.Foreground(toColor(top)).Background(toColor(bottom))
}

func toColor(c uint32) tcell.Color {
	r, g, b := render.RGB(c)
	return tcell.NewRGBColor(int32(r), int32(g), int32(b))
}

// fitScale returns the smallest integer downscale at which a width×height
// frame fits into cols×rows cells of two pixels each.
func fitScale(width, height, cols, rows int) int {
	if cols <= 0 || rows <= 0 {
		return max(width, height, 1)
	}
	scale := 1
	for ceilDiv(width, scale) > cols || ceilDiv(height, 2*scale) > rows {
		scale++
	}
	return scale
}

func ceilDiv(a, b int) int {
	return (a + b - 1) / b
}
