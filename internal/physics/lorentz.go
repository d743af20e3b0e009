// Package physics turns the latest sample into the relativistic figures shown
// on screen. All state lives in State, which the render loop threads through
// Step once per tick; nothing here is shared between goroutines.
package physics

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/banshee-data/lorentz.report/internal/accel"
)

// State is the render loop's physics state.
type State struct {
	// Velocity is set directly from the most recent sample. It is not
	// integrated from acceleration over time.
	Velocity r3.Vec
	// Peak is the highest Lorentz factor seen so far. It starts at 1 and never
	// decreases.
	Peak float64
	// C is the light-speed constant, in the sender's units.
	C float64
}

// Reading holds the scalars derived on one tick.
type Reading struct {
	Speed          float64
	Lorentz        float64
	InverseLorentz float64
	Peak           float64
}

// NewState returns the state at rest for light-speed c.
func NewState(c float64) State {
	return State{Peak: 1, C: c}
}

// LorentzFactor returns 1/sqrt(1-(speed/c)^2). At speed == c the result is
// +Inf and above c it is NaN; neither is trapped.
func LorentzFactor(speed, c float64) float64 {
	beta := speed / c
	return 1 / math.Sqrt(1-beta*beta)
}

// Step advances the state by one tick. When ok is false no sample arrived and
// the previous velocity is kept.
func Step(st State, s accel.Sample, ok bool) (State, Reading) {
	if ok {
		st.Velocity = s.Vec()
	}
	speed := r3.Norm(st.Velocity)
	lorentz := LorentzFactor(speed, st.C)
	// NaN compares false, so an undefined factor never raises the peak.
	if lorentz > st.Peak {
		st.Peak = lorentz
	}
	return st, Reading{
		Speed:          speed,
		Lorentz:        lorentz,
		InverseLorentz: 1 / lorentz,
		Peak:           st.Peak,
	}
}

// ClampToByte saturates v into a byte: NaN and negatives give 0, anything at
// or above 255 gives 255, the rest truncates toward zero.
func ClampToByte(v float64) uint8 {
	switch {
	case math.IsNaN(v) || v <= 0:
		return 0
	case v >= math.MaxUint8:
		return math.MaxUint8
	default:
		return uint8(v)
	}
}

// HistoryValue scales a speed into a chart byte.
func HistoryValue(speed, scale float64) uint8 {
	return ClampToByte(speed * scale)
}
