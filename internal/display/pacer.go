package display

import (
	"time"

	"github.com/banshee-data/lorentz.report/internal/timeutil"
)

// Pacer limits how often Wait returns: each call sleeps for whatever remains
// of the interval since the previous call. The first call never sleeps.
type Pacer struct {
	clock    timeutil.Clock
	interval time.Duration
	last     time.Time
}

// NewPacer returns a Pacer for fps frames per second. fps below 1 disables
// pacing.
func NewPacer(clock timeutil.Clock, fps int) *Pacer {
	if clock == nil {
		clock = timeutil.RealClock{}
	}
	var interval time.Duration
	if fps > 0 {
		interval = time.Second / time.Duration(fps)
	}
	return &Pacer{clock: clock, interval: interval}
}

// Interval returns the minimum spacing between frames.
func (p *Pacer) Interval() time.Duration {
	return p.interval
}

// Wait blocks until the next frame slot.
func (p *Pacer) Wait() {
	now := p.clock.Now()
	if !p.last.IsZero() && p.interval > 0 {
		if remaining := p.interval - now.Sub(p.last); remaining > 0 {
			p.clock.Sleep(remaining)
			now = now.Add(remaining)
		}
	}
	p.last = now
}
