package debugweb

import (
	"bytes"
	"encoding/json"
	"image/png"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/lorentz.report/internal/accel"
	"github.com/banshee-data/lorentz.report/internal/physics"
	"github.com/banshee-data/lorentz.report/internal/testutil"
	"github.com/banshee-data/lorentz.report/internal/viewer"
)

type staticSource struct{ snap *viewer.Snapshot }

func (s staticSource) Snapshot() *viewer.Snapshot { return s.snap }

func sampleSnapshot() *viewer.Snapshot {
	return &viewer.Snapshot{
		Tick:     3,
		Velocity: accel.Sample{X: 60},
		Reading:  physics.Reading{Speed: 60, Lorentz: 1.25, InverseLorentz: 0.8, Peak: 1.25},
		History:  []uint8{0, 255, 128},
		Units:    "mps",
	}
}

func serve(t *testing.T, src SnapshotSource, path string) *httptest.ResponseRecorder {
	t.Helper()
	mux := http.NewServeMux()
	AttachAdminRoutes(mux, src)
	return testutil.ServeDebug(mux, path)
}

func TestStatusRoute(t *testing.T) {
	rec := serve(t, staticSource{sampleSnapshot()}, "/debug/status")
	testutil.AssertStatusCode(t, rec.Code, http.StatusOK)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var got map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, 3.0, got["tick"])
	assert.Equal(t, 1.25, got["lorentz"])
	assert.Equal(t, 0.8, got["inverse_lorentz"])
	assert.Equal(t, false, got["link_down"])
	assert.Equal(t, map[string]any{"x": 60.0, "y": 0.0, "z": 0.0}, got["velocity"])
	assert.Equal(t, []any{0.0, 255.0, 128.0}, got["history"])
}

func TestNewStatus_NonFinite(t *testing.T) {
	snap := sampleSnapshot()
	snap.Reading = physics.Reading{Speed: 150, Lorentz: math.NaN(), InverseLorentz: math.NaN(), Peak: math.Inf(1)}
	snap.LinkDown = true

	st := NewStatus(snap)
	assert.Nil(t, st.Lorentz)
	assert.Nil(t, st.InverseLorentz)
	assert.Nil(t, st.PeakLorentz)
	require.NotNil(t, st.Speed)
	assert.Equal(t, 150.0, *st.Speed)

	b, err := json.Marshal(st)
	require.NoError(t, err)
	assert.Contains(t, string(b), `"lorentz":null`)
	assert.Contains(t, string(b), `"link_down":true`)
}

func TestNewStatus_History(t *testing.T) {
	st := NewStatus(sampleSnapshot())
	if diff := cmp.Diff([]int{0, 255, 128}, st.History); diff != "" {
		t.Errorf("history mismatch (-want +got):\n%s", diff)
	}
}

func TestHistoryRoute(t *testing.T) {
	rec := serve(t, staticSource{sampleSnapshot()}, "/debug/history")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.HasPrefix(rec.Header().Get("Content-Type"), "text/html"))
	assert.Contains(t, rec.Body.String(), "Speed history")
	assert.Contains(t, rec.Body.String(), "tick=3 entries=3")
}

func TestHistoryPNGRoute(t *testing.T) {
	rec := serve(t, staticSource{sampleSnapshot()}, "/debug/history.png")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))

	img, err := png.Decode(bytes.NewReader(rec.Body.Bytes()))
	require.NoError(t, err)
	assert.Positive(t, img.Bounds().Dx())
}

func TestRenderHistoryPNG_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, RenderHistoryPNG(&buf, &viewer.Snapshot{}))
	_, err := png.Decode(&buf)
	assert.NoError(t, err)
}

func TestRoutes_LiveViewer(t *testing.T) {
	samples := make(chan accel.Sample, 1)
	v := viewer.New(viewer.Options{}, samples)
	samples <- accel.Sample{X: 3, Y: 4}
	v.Tick()
	close(samples)
	v.Tick()

	rec := serve(t, v, "/debug/status")
	require.Equal(t, http.StatusOK, rec.Code)
	var st Status
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &st))
	assert.Equal(t, uint64(2), st.Tick)
	assert.True(t, st.LinkDown)
	assert.Equal(t, []int{50, 0}, st.History)
}

func TestRoutes_RemoteDenied(t *testing.T) {
	mux := http.NewServeMux()
	AttachAdminRoutes(mux, staticSource{sampleSnapshot()})
	req := httptest.NewRequest(http.MethodGet, "/debug/status", nil)
	req.RemoteAddr = "203.0.113.9:4000"
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}
