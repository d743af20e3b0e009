// Package debugweb exposes the render loop state on the loopback debug mux.
package debugweb

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"tailscale.com/tsweb"

	"github.com/banshee-data/lorentz.report/internal/accel"
	"github.com/banshee-data/lorentz.report/internal/viewer"
)

// SnapshotSource is satisfied by *viewer.Viewer.
type SnapshotSource interface {
	Snapshot() *viewer.Snapshot
}

// Status is the JSON form of a snapshot. Non-finite readings (speed at or
// above c) are reported as null.
type Status struct {
	Tick           uint64       `json:"tick"`
	Velocity       accel.Sample `json:"velocity"`
	Speed          *float64     `json:"speed"`
	Lorentz        *float64     `json:"lorentz"`
	InverseLorentz *float64     `json:"inverse_lorentz"`
	PeakLorentz    *float64     `json:"peak_lorentz"`
	LinkDown       bool         `json:"link_down"`
	Units          string       `json:"units"`
	History        []int        `json:"history"`
}

func finite(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

// NewStatus converts a snapshot for JSON output.
func NewStatus(s *viewer.Snapshot) Status {
	history := make([]int, len(s.History))
	for i, v := range s.History {
		history[i] = int(v)
	}
	return Status{
		Tick:           s.Tick,
		Velocity:       s.Velocity,
		Speed:          finite(s.Reading.Speed),
		Lorentz:        finite(s.Reading.Lorentz),
		InverseLorentz: finite(s.Reading.InverseLorentz),
		PeakLorentz:    finite(s.Reading.Peak),
		LinkDown:       s.LinkDown,
		Units:          s.Units,
		History:        history,
	}
}

// AttachAdminRoutes attaches the status and chart endpoints to the debug mux
// served at /debug/. These routes are only reachable over localhost.
func AttachAdminRoutes(mux *http.ServeMux, src SnapshotSource) {
	debug := tsweb.Debugger(mux)

	debug.Handle("status", "render loop state as JSON", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(NewStatus(src.Snapshot())); err != nil {
			http.Error(w, fmt.Sprintf("failed to encode status: %v", err), http.StatusInternalServerError)
		}
	}))

	debug.Handle("history", "strip chart history (interactive)", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var buf bytes.Buffer
		if err := RenderHistoryChart(&buf, src.Snapshot()); err != nil {
			http.Error(w, fmt.Sprintf("failed to render chart: %v", err), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write(buf.Bytes())
	}))

	debug.Handle("history.png", "strip chart history (PNG)", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var buf bytes.Buffer
		if err := RenderHistoryPNG(&buf, src.Snapshot()); err != nil {
			http.Error(w, fmt.Sprintf("failed to render plot: %v", err), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write(buf.Bytes())
	}))
}

// RenderHistoryChart writes an HTML line chart of the visible history.
func RenderHistoryChart(w io.Writer, s *viewer.Snapshot) error {
	x := make([]int, len(s.History))
	y := make([]opts.LineData, len(s.History))
	for i, v := range s.History {
		x[i] = i
		y[i] = opts.LineData{Value: int(v)}
	}

	subtitle := fmt.Sprintf("tick=%d entries=%d", s.Tick, len(s.History))
	if s.LinkDown {
		subtitle += " link down"
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "Lorentz history", Theme: "dark", Width: "900px", Height: "450px"}),
		charts.WithTitleOpts(opts.Title{Title: "Speed history", Subtitle: subtitle}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Name: "entry", NameLocation: "middle", NameGap: 25}),
		charts.WithYAxisOpts(opts.YAxis{Name: "scaled speed", Min: 0, Max: 255}),
	)
	line.SetXAxis(x).AddSeries("history", y)
	return line.Render(w)
}

// RenderHistoryPNG writes a PNG plot of the visible history.
func RenderHistoryPNG(w io.Writer, s *viewer.Snapshot) error {
	p := plot.New()
	p.Title.Text = fmt.Sprintf("Speed history (tick %d)", s.Tick)
	p.X.Label.Text = "entry"
	p.Y.Label.Text = "scaled speed"
	p.X.Min = 0
	p.X.Max = float64(max(len(s.History)-1, 1))
	p.Y.Min = 0
	p.Y.Max = 255
	p.Add(plotter.NewGrid())

	if len(s.History) > 0 {
		pts := make(plotter.XYs, len(s.History))
		for i, v := range s.History {
			pts[i] = plotter.XY{X: float64(i), Y: float64(v)}
		}
		line, err := plotter.NewLine(pts)
		if err != nil {
			return fmt.Errorf("failed to build history line: %w", err)
		}
		line.Width = vg.Points(1)
		p.Add(line)
	}

	wt, err := p.WriterTo(8*vg.Inch, 3*vg.Inch, "png")
	if err != nil {
		return fmt.Errorf("failed to create png writer: %w", err)
	}
	_, err = wt.WriteTo(w)
	return err
}
