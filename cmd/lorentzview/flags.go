package main

import (
	"fmt"

	"github.com/spf13/pflag"

	"github.com/banshee-data/lorentz.report/internal/config"
	"github.com/banshee-data/lorentz.report/internal/units"
)

// cliFlags holds the parsed command line. Values only override the config
// file when the flag was given explicitly.
type cliFlags struct {
	fs *pflag.FlagSet

	listen        string
	c             float64
	fps           int
	historyScale  float64
	historyRetain int
	queueDepth    int
	reaccept      bool
	units         string
	headless      bool
	serial        string
	serialBaud    int
	debugListen   string
	configPath    string
	version       bool
	quiet         bool
	debug         bool
}

func parseFlags(args []string) (*cliFlags, error) {
	f := &cliFlags{fs: pflag.NewFlagSet("lorentzview", pflag.ContinueOnError)}
	fs := f.fs
	fs.StringVar(&f.listen, "listen", config.DefaultListen, "websocket listen address")
	fs.Float64Var(&f.c, "c", config.DefaultSpeedOfLight, "speed of light in m/s")
	fs.IntVar(&f.fps, "fps", config.DefaultFrameRate, "frame rate cap")
	fs.Float64Var(&f.historyScale, "history-scale", config.DefaultHistoryScale, "speed to chart-pixel factor")
	fs.IntVar(&f.historyRetain, "history-retain", config.DefaultHistoryRetain, "history entries kept in memory")
	fs.IntVar(&f.queueDepth, "queue-depth", config.DefaultQueueDepth, "sample channel capacity")
	fs.BoolVar(&f.reaccept, "reaccept", false, "keep accepting clients after the first disconnects")
	fs.StringVar(&f.units, "units", config.DefaultUnits, "speed units ("+units.GetValidUnitsString()+")")
	fs.BoolVar(&f.headless, "headless", false, "run without a terminal display")
	fs.StringVar(&f.serial, "serial", "", "read samples from this serial device instead of the websocket")
	fs.IntVar(&f.serialBaud, "serial-baud", config.DefaultSerialBaud, "serial baud rate")
	fs.StringVar(&f.debugListen, "debug-listen", "", "serve /debug/ routes on this address")
	fs.StringVar(&f.configPath, "config", "", "path to a .json or .jsonc config file")
	fs.BoolVar(&f.version, "version", false, "print version and exit")
	fs.BoolVar(&f.quiet, "quiet", false, "disable logging")
	fs.BoolVar(&f.debug, "debug", false, "log per-frame diagnostics such as dropped samples")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() > 0 {
		return nil, fmt.Errorf("unexpected arguments: %v", fs.Args())
	}
	return f, nil
}

// resolveConfig loads the config file, if any, and applies explicit flags on
// top of it.
func (f *cliFlags) resolveConfig() (*config.Config, error) {
	cfg := config.Empty()
	if f.configPath != "" {
		loaded, err := config.Load(f.configPath)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	set := f.fs.Changed
	if set("listen") {
		cfg.Listen = &f.listen
	}
	if set("c") {
		cfg.SpeedOfLight = &f.c
	}
	if set("fps") {
		cfg.FrameRate = &f.fps
	}
	if set("history-scale") {
		cfg.HistoryScale = &f.historyScale
	}
	if set("history-retain") {
		cfg.HistoryRetain = &f.historyRetain
	}
	if set("queue-depth") {
		cfg.QueueDepth = &f.queueDepth
	}
	if set("reaccept") {
		cfg.Reaccept = &f.reaccept
	}
	if set("units") {
		cfg.Units = &f.units
	}
	if set("serial") {
		cfg.SerialPort = &f.serial
	}
	if set("serial-baud") {
		cfg.SerialBaud = &f.serialBaud
	}
	if set("debug-listen") {
		cfg.DebugListen = &f.debugListen
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid flags: %w", err)
	}
	return cfg, nil
}
