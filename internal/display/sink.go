// Package display presents composed frames. A Sink is the window-system
// collaborator of the render loop: it is polled for open/cancel state each
// tick and caps how often frames are presented.
package display

import "github.com/banshee-data/lorentz.report/internal/render"

// Sink receives one composed frame per render tick.
type Sink interface {
	// IsOpen reports whether the surface is still available.
	IsOpen() bool
	// CancelRequested reports whether the user asked to quit.
	CancelRequested() bool
	// Present shows f, blocking as needed to respect the sink's frame rate.
	Present(f *render.Frame) error
	// Close releases the surface.
	Close() error
}
