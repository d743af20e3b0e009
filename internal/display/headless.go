package display

import (
	"context"
	"sync/atomic"

	"github.com/banshee-data/lorentz.report/internal/render"
	"github.com/banshee-data/lorentz.report/internal/timeutil"
)

// Headless is a Sink with no visible surface. Frames are paced and counted,
// and the most recent one is kept for inspection. It stays open until its
// context is cancelled or Close is called.
type Headless struct {
	ctx    context.Context
	pacer  *Pacer
	closed atomic.Bool
	frames atomic.Uint64
	last   *render.Frame
}

// NewHeadless returns a headless sink paced at fps using clock.
func NewHeadless(ctx context.Context, clock timeutil.Clock, fps int) *Headless {
	return &Headless{ctx: ctx, pacer: NewPacer(clock, fps)}
}

// IsOpen reports false once Close is called or the context ends.
func (h *Headless) IsOpen() bool {
	return !h.closed.Load() && h.ctx.Err() == nil
}

// CancelRequested is always false; a headless sink has no keyboard.
func (h *Headless) CancelRequested() bool {
	return false
}

// Present paces and records f.
func (h *Headless) Present(f *render.Frame) error {
	h.pacer.Wait()
	if h.last == nil || len(h.last.Pix) != len(f.Pix) {
		h.last = render.NewFrame(f.Width, f.Height)
	}
	copy(h.last.Pix, f.Pix)
	h.frames.Add(1)
	return nil
}

// Frames returns how many frames were presented.
func (h *Headless) Frames() uint64 {
	return h.frames.Load()
}

// Last returns the most recently presented frame, or nil. It must only be
// called from the goroutine that calls Present.
func (h *Headless) Last() *render.Frame {
	return h.last
}

// Close marks the sink closed.
func (h *Headless) Close() error {
	h.closed.Store(true)
	return nil
}
