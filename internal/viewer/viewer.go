// Package viewer runs the render loop: it polls the sample channel once per
// tick, advances the physics state, records history and presents a frame.
package viewer

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/banshee-data/lorentz.report/internal/accel"
	"github.com/banshee-data/lorentz.report/internal/display"
	"github.com/banshee-data/lorentz.report/internal/history"
	"github.com/banshee-data/lorentz.report/internal/monitoring"
	"github.com/banshee-data/lorentz.report/internal/physics"
	"github.com/banshee-data/lorentz.report/internal/render"
	"github.com/banshee-data/lorentz.report/internal/units"
)

// Options tunes the render loop. Zero values take the defaults below.
type Options struct {
	C             float64
	HistoryScale  float64
	HistoryRetain int
	Units         string
}

const (
	DefaultC            = 100.0
	DefaultHistoryScale = 10.0
)

func (o Options) withDefaults() Options {
	if o.C <= 0 {
		o.C = DefaultC
	}
	if o.HistoryScale <= 0 {
		o.HistoryScale = DefaultHistoryScale
	}
	if o.HistoryRetain < render.Width {
		o.HistoryRetain = 4 * render.Width
	}
	if !units.IsValid(o.Units) {
		o.Units = units.MPS
	}
	return o
}

// Snapshot is an immutable copy of the loop state after a tick.
type Snapshot struct {
	Tick     uint64
	Velocity accel.Sample
	Reading  physics.Reading
	History  []uint8
	LinkDown bool
	Units    string
}

// Viewer owns all render-side state. Tick and Run must be called from a
// single goroutine; Snapshot may be called from any.
type Viewer struct {
	opts    Options
	samples <-chan accel.Sample

	state    physics.State
	history  *history.Buffer
	frame    *render.Frame
	linkDown bool
	ticks    uint64

	snap atomic.Pointer[Snapshot]
}

// New returns a viewer consuming samples. A closed channel marks the link
// down; the loop keeps running.
func New(opts Options, samples <-chan accel.Sample) *Viewer {
	opts = opts.withDefaults()
	v := &Viewer{
		opts:    opts,
		samples: samples,
		state:   physics.NewState(opts.C),
		history: history.New(opts.HistoryRetain),
		frame:   render.NewFrame(render.Width, render.Height),
	}
	v.snap.Store(&Snapshot{Units: opts.Units, Reading: physics.Reading{Lorentz: 1, InverseLorentz: 1, Peak: 1}})
	return v
}

// poll takes at most one sample without blocking.
func (v *Viewer) poll() (accel.Sample, bool) {
	if v.samples == nil {
		return accel.Sample{}, false
	}
	select {
	case s, ok := <-v.samples:
		if !ok {
			monitoring.Logf("viewer: sample source closed, link down")
			v.samples = nil
			v.linkDown = true
			return accel.Sample{}, false
		}
		return s, true
	default:
		return accel.Sample{}, false
	}
}

// Tick advances one frame: poll, step, append exactly one history entry and
// compose the frame.
func (v *Viewer) Tick() physics.Reading {
	s, ok := v.poll()

	var r physics.Reading
	v.state, r = physics.Step(v.state, s, ok)

	var entry uint8
	if ok {
		entry = physics.HistoryValue(r.Speed, v.opts.HistoryScale)
	}
	v.history.Append(entry)
	v.ticks++

	window := v.history.Window(render.Width)
	render.Compose(v.frame, render.StatusText(r, v.opts.Units, v.linkDown), window)

	v.snap.Store(&Snapshot{
		Tick:     v.ticks,
		Velocity: accel.Sample{X: v.state.Velocity.X, Y: v.state.Velocity.Y, Z: v.state.Velocity.Z},
		Reading:  r,
		History:  window,
		LinkDown: v.linkDown,
		Units:    v.opts.Units,
	})
	return r
}

// Frame returns the most recently composed frame.
func (v *Viewer) Frame() *render.Frame {
	return v.frame
}

// HistoryLen is the number of entries appended so far.
func (v *Viewer) HistoryLen() int {
	return v.history.Len()
}

// Snapshot returns the state published by the latest tick.
func (v *Viewer) Snapshot() *Snapshot {
	return v.snap.Load()
}

// Run ticks and presents until the sink closes, the user cancels or ctx is
// done.
func (v *Viewer) Run(ctx context.Context, sink display.Sink) error {
	for sink.IsOpen() && !sink.CancelRequested() && ctx.Err() == nil {
		v.Tick()
		if err := sink.Present(v.frame); err != nil {
			return fmt.Errorf("failed to present frame %d: %w", v.ticks, err)
		}
	}
	return nil
}
