package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/lorentz.report/internal/config"
)

func TestParseFlags_Defaults(t *testing.T) {
	f, err := parseFlags(nil)
	require.NoError(t, err)

	cfg, err := f.resolveConfig()
	require.NoError(t, err)
	assert.Equal(t, config.Empty(), cfg, "unset flags leave every field to its default")
	assert.Equal(t, "127.0.0.1:3005", cfg.GetListen())
	assert.Equal(t, 100.0, cfg.GetSpeedOfLight())
	assert.Equal(t, 40, cfg.GetFrameRate())
	assert.Equal(t, 1, cfg.GetQueueDepth())
	assert.False(t, cfg.GetReaccept())
}

func TestParseFlags_Explicit(t *testing.T) {
	f, err := parseFlags([]string{
		"--listen", "127.0.0.1:4000",
		"--c", "50",
		"--fps", "60",
		"--reaccept",
		"--units", "kph",
		"--queue-depth", "4",
		"--serial", "/dev/ttyUSB0",
		"--debug-listen", "127.0.0.1:8081",
		"--headless",
	})
	require.NoError(t, err)
	assert.True(t, f.headless)

	cfg, err := f.resolveConfig()
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:4000", cfg.GetListen())
	assert.Equal(t, 50.0, cfg.GetSpeedOfLight())
	assert.Equal(t, 60, cfg.GetFrameRate())
	assert.True(t, cfg.GetReaccept())
	assert.Equal(t, "kph", cfg.GetUnits())
	assert.Equal(t, 4, cfg.GetQueueDepth())
	assert.Equal(t, "/dev/ttyUSB0", cfg.GetSerialPort())
	assert.Equal(t, "127.0.0.1:8081", cfg.GetDebugListen())
}

func TestParseFlags_FlagsOverrideFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "viewer.jsonc")
	body := `{
		// slow light
		"speed_of_light": 20,
		"frame_rate": 30,
		"units": "mph"
	}`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

	f, err := parseFlags([]string{"--config", path, "--fps", "10"})
	require.NoError(t, err)
	cfg, err := f.resolveConfig()
	require.NoError(t, err)

	assert.Equal(t, 20.0, cfg.GetSpeedOfLight(), "file value kept")
	assert.Equal(t, "mph", cfg.GetUnits(), "file value kept")
	assert.Equal(t, 10, cfg.GetFrameRate(), "explicit flag wins")
}

func TestParseFlags_Invalid(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"bad units", []string{"--units", "furlongs"}},
		{"zero c", []string{"--c", "0"}},
		{"zero queue", []string{"--queue-depth", "0"}},
		{"negative fps", []string{"--fps", "-1"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := parseFlags(tt.args)
			require.NoError(t, err)
			_, err = f.resolveConfig()
			assert.Error(t, err)
		})
	}
}

func TestParseFlags_Errors(t *testing.T) {
	_, err := parseFlags([]string{"--no-such-flag"})
	assert.Error(t, err)

	_, err = parseFlags([]string{"stray"})
	assert.Error(t, err)

	f, err := parseFlags([]string{"--config", "missing.json"})
	require.NoError(t, err)
	_, err = f.resolveConfig()
	assert.Error(t, err)
}

func TestRun_Version(t *testing.T) {
	require.NoError(t, run([]string{"--version"}))
}
