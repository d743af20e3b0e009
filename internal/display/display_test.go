package display

import (
	"context"
	"testing"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/lorentz.report/internal/render"
	"github.com/banshee-data/lorentz.report/internal/timeutil"
)

var epoch = time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)

func TestPacer_CapsRate(t *testing.T) {
	clock := timeutil.NewMockClock(epoch)
	p := NewPacer(clock, 40)
	require.Equal(t, 25*time.Millisecond, p.Interval())

	p.Wait() // first frame is free
	clock.Advance(10 * time.Millisecond)
	p.Wait() // 15ms left in the slot
	clock.Advance(40 * time.Millisecond)
	p.Wait() // late frame: no sleep
	p.Wait() // immediate: full interval

	want := []time.Duration{15 * time.Millisecond, 25 * time.Millisecond}
	if diff := cmp.Diff(want, clock.Sleeps()); diff != "" {
		t.Errorf("sleeps mismatch (-want +got):\n%s", diff)
	}
}

func TestPacer_Disabled(t *testing.T) {
	clock := timeutil.NewMockClock(epoch)
	p := NewPacer(clock, 0)
	for i := 0; i < 5; i++ {
		p.Wait()
	}
	assert.Empty(t, clock.Sleeps())
}

func TestPacer_FortyFramesTakeOneSecond(t *testing.T) {
	clock := timeutil.NewMockClock(epoch)
	p := NewPacer(clock, 40)
	for i := 0; i < 41; i++ {
		p.Wait()
	}
	assert.Equal(t, time.Second, clock.Since(epoch))
}

func TestHeadless(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	clock := timeutil.NewMockClock(epoch)
	h := NewHeadless(ctx, clock, 40)

	assert.True(t, h.IsOpen())
	assert.False(t, h.CancelRequested())
	assert.Nil(t, h.Last())

	f := render.NewFrame(2, 2)
	f.Set(1, 1, 0xffabcdef)
	require.NoError(t, h.Present(f))
	require.NoError(t, h.Present(f))

	assert.Equal(t, uint64(2), h.Frames())
	assert.Equal(t, uint32(0xffabcdef), h.Last().At(1, 1))
	assert.Equal(t, []time.Duration{25 * time.Millisecond}, clock.Sleeps())

	// the kept frame is a copy
	f.Set(1, 1, 0)
	assert.Equal(t, uint32(0xffabcdef), h.Last().At(1, 1))

	cancel()
	assert.False(t, h.IsOpen())
}

func TestHeadless_Close(t *testing.T) {
	h := NewHeadless(context.Background(), timeutil.NewMockClock(epoch), 40)
	require.NoError(t, h.Close())
	assert.False(t, h.IsOpen())
}

func TestFitScale(t *testing.T) {
	tests := []struct {
		name                      string
		width, height, cols, rows int
		want                      int
	}{
		{"fits at full size", 200, 200, 200, 100, 1},
		{"roomy terminal", 200, 200, 300, 120, 1},
		{"classic 80x24", 200, 200, 80, 24, 5},
		{"narrow", 200, 200, 100, 100, 2},
		{"short", 200, 200, 200, 50, 2},
		{"zero size", 200, 200, 0, 0, 200},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, fitScale(tt.width, tt.height, tt.cols, tt.rows))
		})
	}
}

func newSimTerminal(t *testing.T, cols, rows int) (*Terminal, tcell.SimulationScreen, *timeutil.MockClock) {
	t.Helper()
	sim := tcell.NewSimulationScreen("UTF-8")
	require.NoError(t, sim.Init())
	sim.SetSize(cols, rows)
	clock := timeutil.NewMockClock(epoch)
	term := newTerminal(sim, clock, 40)
	t.Cleanup(func() { _ = term.Close() })
	return term, sim, clock
}

func TestTerminal_PresentsHalfBlocks(t *testing.T) {
	term, sim, _ := newSimTerminal(t, 20, 10)

	f := render.NewFrame(4, 4)
	f.Set(0, 0, 0xffff0000)
	f.Set(0, 1, 0xff0000ff)
	require.NoError(t, term.Present(f))

	mainc, _, style, _ := sim.GetContent(0, 0)
	assert.Equal(t, halfBlock, mainc)
	assert.Equal(t, cellStyle(0xffff0000, 0xff0000ff), style)

	_, _, style, _ = sim.GetContent(1, 1)
	assert.Equal(t, cellStyle(0, 0), style)

	// outside the 2x2 cell block nothing is drawn
	mainc, _, _, _ = sim.GetContent(5, 5)
	assert.NotEqual(t, halfBlock, mainc)
}

func TestTerminal_Downscales(t *testing.T) {
	term, sim, _ := newSimTerminal(t, 2, 1)

	f := render.NewFrame(4, 4)
	f.Set(2, 0, 0xff00ff00)
	f.Set(2, 2, 0xff0000ff)
	require.NoError(t, term.Present(f))

	// scale 2: cell (1,0) samples pixels (2,0) and (2,2)
	_, _, style, _ := sim.GetContent(1, 0)
	assert.Equal(t, cellStyle(0xff00ff00, 0xff0000ff), style)
}

func TestTerminal_EscapeRequestsCancel(t *testing.T) {
	term, sim, _ := newSimTerminal(t, 20, 10)
	assert.False(t, term.CancelRequested())

	sim.InjectKey(tcell.KeyEscape, 0, tcell.ModNone)

	assert.Eventually(t, term.CancelRequested, time.Second, 5*time.Millisecond)
	assert.True(t, term.IsOpen(), "cancel does not close the surface by itself")
}

func TestTerminal_QRequestsCancel(t *testing.T) {
	term, sim, _ := newSimTerminal(t, 20, 10)
	sim.InjectKey(tcell.KeyRune, 'q', tcell.ModNone)
	assert.Eventually(t, term.CancelRequested, time.Second, 5*time.Millisecond)
}

func TestTerminal_Close(t *testing.T) {
	term, _, _ := newSimTerminal(t, 20, 10)
	require.NoError(t, term.Close())
	assert.False(t, term.IsOpen())
	assert.Error(t, term.Present(render.NewFrame(1, 1)))
	// second close is a no-op
	require.NoError(t, term.Close())
}

func TestTerminal_Paced(t *testing.T) {
	term, _, clock := newSimTerminal(t, 20, 10)
	f := render.NewFrame(2, 2)
	for i := 0; i < 3; i++ {
		require.NoError(t, term.Present(f))
	}
	assert.Equal(t, []time.Duration{25 * time.Millisecond, 25 * time.Millisecond}, clock.Sleeps())
}
