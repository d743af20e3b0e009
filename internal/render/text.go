package render

import (
	"image"

	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// Text layout in pixels.
const (
	CharAdvance = 8
	LineAdvance = 14
)

var face = basicfont.Face7x13

// hasGlyph reports whether the face carries r. basicfont substitutes U+FFFD
// for missing runes; we skip them instead.
func hasGlyph(r rune) bool {
	for _, rng := range face.Ranges {
		if r >= rng.Low && r < rng.High {
			return true
		}
	}
	return false
}

// DrawText renders newline-delimited text with its top-left corner at pt.
// Every character, drawn or skipped, advances the pen by CharAdvance.
func DrawText(f *Frame, text string, pt image.Point, c uint32) {
	x, y := pt.X, pt.Y
	for _, r := range text {
		if r == '\n' {
			x = pt.X
			y += LineAdvance
			continue
		}
		if hasGlyph(r) {
			drawGlyph(f, r, x, y, c)
		}
		x += CharAdvance
	}
}

func drawGlyph(f *Frame, r rune, x, y int, c uint32) {
	dot := fixed.P(x, y+face.Ascent)
	dr, mask, maskp, _, ok := face.Glyph(dot, r)
	if !ok {
		return
	}
	for py := dr.Min.Y; py < dr.Max.Y; py++ {
		for px := dr.Min.X; px < dr.Max.X; px++ {
			_, _, _, a := mask.At(maskp.X+px-dr.Min.X, maskp.Y+py-dr.Min.Y).RGBA()
			if a >= 0x8000 {
				f.Set(px, py, c)
			}
		}
	}
}
