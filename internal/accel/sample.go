// Package accel defines the motion sample streamed by the remote sender and
// the codec for its wire form.
package accel

import "gonum.org/v1/gonum/spatial/r3"

// Sample is one 3-axis reading from the sender. It is a plain value and is
// copied through the sample channel.
type Sample struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Vec returns the sample as a gonum 3-vector.
func (s Sample) Vec() r3.Vec {
	return r3.Vec{X: s.X, Y: s.Y, Z: s.Z}
}

// Magnitude returns the Euclidean length of the sample.
func (s Sample) Magnitude() float64 {
	return r3.Norm(s.Vec())
}
