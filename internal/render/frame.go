// Package render composes the viewer's frame: a fixed pixel grid holding the
// status text block and the scrolling speed chart. Presenting the frame is
// left to a display sink.
package render

import (
	"image"
	"image/color"
)

// Surface dimensions in logical pixels.
const (
	Width  = 200
	Height = 200
)

// Frame is a pixel buffer in 0xAARRGGBB form, row-major.
type Frame struct {
	Width  int
	Height int
	Pix    []uint32
}

// NewFrame allocates a cleared frame.
func NewFrame(width, height int) *Frame {
	return &Frame{Width: width, Height: height, Pix: make([]uint32, width*height)}
}

// Clear fills the frame with c.
func (f *Frame) Clear(c uint32) {
	for i := range f.Pix {
		f.Pix[i] = c
	}
}

// Set writes one pixel. Writes outside the frame are ignored and reported as
// false.
func (f *Frame) Set(x, y int, c uint32) bool {
	if x < 0 || y < 0 || x >= f.Width || y >= f.Height {
		return false
	}
	f.Pix[y*f.Width+x] = c
	return true
}

// At returns the pixel at (x, y), or 0 outside the frame.
func (f *Frame) At(x, y int) uint32 {
	if x < 0 || y < 0 || x >= f.Width || y >= f.Height {
		return 0
	}
	return f.Pix[y*f.Width+x]
}

// RGB splits a packed pixel into its colour channels. Alpha is ignored, as
// the display treats every pixel as opaque.
func RGB(c uint32) (r, g, b uint8) {
	return uint8(c >> 16), uint8(c >> 8), uint8(c)
}

// RGBA copies the frame into an opaque image.
func (f *Frame) RGBA() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, f.Width, f.Height))
	for y := 0; y < f.Height; y++ {
		for x := 0; x < f.Width; x++ {
			r, g, b := RGB(f.Pix[y*f.Width+x])
			img.SetRGBA(x, y, color.RGBA{R: r, G: g, B: b, A: 0xff})
		}
	}
	return img
}
