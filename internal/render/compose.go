package render

import (
	"fmt"
	"image"
	"strings"

	"github.com/banshee-data/lorentz.report/internal/physics"
	"github.com/banshee-data/lorentz.report/internal/units"
)

// Colours and placement of the frame content.
const (
	Background = 0x00000000
	TextColor  = 0xffffffff
	chartBase  = 0xffff0000
)

// TextOrigin is where the status block starts.
var TextOrigin = image.Pt(4, 4)

// ChartColor returns the colour of a chart point. The value is shifted into
// the low channels so that taller points drift from red toward orange.
func ChartColor(v uint8) uint32 {
	return chartBase + uint32(v)<<2
}

// StatusText formats the status block, two decimals per figure. Non-finite
// values print as NaN or +Inf.
func StatusText(r physics.Reading, unit string, linkDown bool) string {
	var b strings.Builder
	fmt.Fprintf(&b, "v=%.2f%s\n", units.ConvertSpeed(r.Speed, unit), units.Label(unit))
	fmt.Fprintf(&b, "lorentz = %.2f\n", r.Lorentz)
	fmt.Fprintf(&b, "1/lorentz = %.2f\n", r.InverseLorentz)
	fmt.Fprintf(&b, "peak lorentz = %.2f", r.Peak)
	if linkDown {
		b.WriteString("\nlink down")
	}
	return b.String()
}

// Compose clears f, draws the status block and plots values left to right,
// one column per entry. A value v lands on row Height-1-v; values taller than
// the frame are pinned to the top row.
func Compose(f *Frame, status string, values []uint8) {
	f.Clear(Background)
	DrawText(f, status, TextOrigin, TextColor)

	for i, v := range values {
		if i >= f.Width {
			break
		}
		y := f.Height - 1 - int(v)
		if y < 0 {
			y = 0
		}
		f.Set(i, y, ChartColor(v))
	}
}
