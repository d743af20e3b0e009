// Package config loads the optional viewer configuration file. Every field is
// optional: a nil pointer means "use the built-in default", which is how the
// viewer behaves when no file is given at all.
package config

import (
	"encoding/json"
	"fmt"
	"math"
	"path/filepath"

	"github.com/tidwall/jsonc"

	"github.com/banshee-data/lorentz.report/internal/fsutil"
	"github.com/banshee-data/lorentz.report/internal/units"
)

// Built-in defaults.
const (
	DefaultListen        = "127.0.0.1:3005"
	DefaultSpeedOfLight  = 100.0
	DefaultFrameRate     = 40
	DefaultHistoryScale  = 10.0
	DefaultHistoryRetain = 800
	DefaultQueueDepth    = 1
	DefaultUnits         = units.MPS
	DefaultSerialBaud    = 115200
)

const maxFileSize = 1 * 1024 * 1024 // 1MB

// Config is the root configuration document. Comments are allowed in the file
// (JSONC); they are stripped before decoding.
type Config struct {
	// Ingestion
	Listen     *string `json:"listen,omitempty"`
	Reaccept   *bool   `json:"reaccept,omitempty"`
	QueueDepth *int    `json:"queue_depth,omitempty"`
	SerialPort *string `json:"serial_port,omitempty"`
	SerialBaud *int    `json:"serial_baud,omitempty"`

	// Physics and display
	SpeedOfLight  *float64 `json:"speed_of_light,omitempty"`
	FrameRate     *int     `json:"frame_rate,omitempty"`
	HistoryScale  *float64 `json:"history_scale,omitempty"`
	HistoryRetain *int     `json:"history_retain,omitempty"`
	Units         *string  `json:"units,omitempty"`

	// Debug HTTP routes; empty disables them.
	DebugListen *string `json:"debug_listen,omitempty"`
}

// Empty returns a Config with every field unset.
func Empty() *Config {
	return &Config{}
}

// Load reads a Config from a .json or .jsonc file. Fields omitted from the
// file keep their defaults, so partial configs are safe.
func Load(path string) (*Config, error) {
	return LoadFS(fsutil.OSFileSystem{}, path)
}

// LoadFS is Load reading through fsys.
func LoadFS(fsys fsutil.FileSystem, path string) (*Config, error) {
	cleanPath := filepath.Clean(path)
	switch ext := filepath.Ext(cleanPath); ext {
	case ".json", ".jsonc":
	default:
		return nil, fmt.Errorf("config file must have .json or .jsonc extension, got %q", ext)
	}

	fileInfo, err := fsys.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := fsys.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Empty()
	if err := json.Unmarshal(jsonc.ToJSON(data), cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Validate checks that the set values are usable.
func (c *Config) Validate() error {
	if c.SpeedOfLight != nil {
		v := *c.SpeedOfLight
		if math.IsNaN(v) || math.IsInf(v, 0) || v <= 0 {
			return fmt.Errorf("speed_of_light must be a positive finite number, got %v", v)
		}
	}
	if c.FrameRate != nil && (*c.FrameRate < 1 || *c.FrameRate > 1000) {
		return fmt.Errorf("frame_rate must be between 1 and 1000, got %d", *c.FrameRate)
	}
	if c.HistoryScale != nil && !(*c.HistoryScale > 0) {
		return fmt.Errorf("history_scale must be positive, got %v", *c.HistoryScale)
	}
	if c.HistoryRetain != nil && *c.HistoryRetain < 0 {
		return fmt.Errorf("history_retain must be non-negative, got %d", *c.HistoryRetain)
	}
	if c.QueueDepth != nil && *c.QueueDepth < 1 {
		return fmt.Errorf("queue_depth must be at least 1, got %d", *c.QueueDepth)
	}
	if c.Units != nil && !units.IsValid(*c.Units) {
		return fmt.Errorf("units must be one of %s, got %q", units.GetValidUnitsString(), *c.Units)
	}
	if c.SerialBaud != nil && *c.SerialBaud < 0 {
		return fmt.Errorf("serial_baud must be non-negative, got %d", *c.SerialBaud)
	}
	return nil
}

// GetListen returns the websocket listen address.
func (c *Config) GetListen() string {
	if c.Listen == nil || *c.Listen == "" {
		return DefaultListen
	}
	return *c.Listen
}

// GetReaccept reports whether the ingestion server keeps accepting after the
// first peer closes. Default false: single-shot.
func (c *Config) GetReaccept() bool {
	if c.Reaccept == nil {
		return false
	}
	return *c.Reaccept
}

// GetQueueDepth returns the sample channel capacity.
func (c *Config) GetQueueDepth() int {
	if c.QueueDepth == nil || *c.QueueDepth < 1 {
		return DefaultQueueDepth
	}
	return *c.QueueDepth
}

// GetSerialPort returns the serial device path, or "" for websocket ingestion.
func (c *Config) GetSerialPort() string {
	if c.SerialPort == nil {
		return ""
	}
	return *c.SerialPort
}

// GetSerialBaud returns the serial baud rate.
func (c *Config) GetSerialBaud() int {
	if c.SerialBaud == nil || *c.SerialBaud == 0 {
		return DefaultSerialBaud
	}
	return *c.SerialBaud
}

// GetSpeedOfLight returns the light-speed constant c.
func (c *Config) GetSpeedOfLight() float64 {
	if c.SpeedOfLight == nil {
		return DefaultSpeedOfLight
	}
	return *c.SpeedOfLight
}

// GetFrameRate returns the presentation cap in frames per second.
func (c *Config) GetFrameRate() int {
	if c.FrameRate == nil {
		return DefaultFrameRate
	}
	return *c.FrameRate
}

// GetHistoryScale returns the factor applied to speed before it is stored as
// a chart byte.
func (c *Config) GetHistoryScale() float64 {
	if c.HistoryScale == nil {
		return DefaultHistoryScale
	}
	return *c.HistoryScale
}

// GetHistoryRetain returns how many history entries are kept in memory.
func (c *Config) GetHistoryRetain() int {
	if c.HistoryRetain == nil || *c.HistoryRetain == 0 {
		return DefaultHistoryRetain
	}
	return *c.HistoryRetain
}

// GetUnits returns the display unit for speed.
func (c *Config) GetUnits() string {
	if c.Units == nil {
		return DefaultUnits
	}
	return *c.Units
}

// GetDebugListen returns the debug listen address, "" when disabled.
func (c *Config) GetDebugListen() string {
	if c.DebugListen == nil {
		return ""
	}
	return *c.DebugListen
}
