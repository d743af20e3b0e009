// lorentzview shows the speed of a streamed acceleration sample as a
// Lorentz factor, against a deliberately small speed of light, with a
// scrolling strip chart of recent speeds.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"github.com/banshee-data/lorentz.report/internal/accel"
	"github.com/banshee-data/lorentz.report/internal/config"
	"github.com/banshee-data/lorentz.report/internal/debugweb"
	"github.com/banshee-data/lorentz.report/internal/display"
	"github.com/banshee-data/lorentz.report/internal/ingest"
	"github.com/banshee-data/lorentz.report/internal/monitoring"
	"github.com/banshee-data/lorentz.report/internal/serialfeed"
	"github.com/banshee-data/lorentz.report/internal/timeutil"
	"github.com/banshee-data/lorentz.report/internal/version"
	"github.com/banshee-data/lorentz.report/internal/viewer"
)

const logFile = "lorentzview.log"

func main() {
	if err := run(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	flags, err := parseFlags(args)
	if err != nil {
		return err
	}
	if flags.version {
		fmt.Println(version.String())
		return nil
	}

	cfg, err := flags.resolveConfig()
	if err != nil {
		return err
	}

	if flags.quiet {
		monitoring.SetLogger(nil)
	}
	monitoring.SetDebug(flags.debug)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var sink display.Sink
	if flags.headless {
		sink = display.NewHeadless(ctx, timeutil.RealClock{}, cfg.GetFrameRate())
	} else {
		// the terminal belongs to the display from here on
		if !flags.quiet {
			closer, err := monitoring.RedirectToFile(logFile)
			if err != nil {
				return err
			}
			defer closer.Close()
		}
		term, err := display.NewTerminal(timeutil.RealClock{}, cfg.GetFrameRate())
		if err != nil {
			return err
		}
		sink = term
	}
	defer sink.Close()

	monitoring.Logf("starting %s", version.String())

	samples := make(chan accel.Sample, cfg.GetQueueDepth())
	v := viewer.New(viewer.Options{
		C:             cfg.GetSpeedOfLight(),
		HistoryScale:  cfg.GetHistoryScale(),
		HistoryRetain: cfg.GetHistoryRetain(),
		Units:         cfg.GetUnits(),
	}, samples)

	if addr := cfg.GetDebugListen(); addr != "" {
		go serveDebug(ctx, addr, v)
	}

	// The ingestion goroutine is the only sender; the channel is closed once
	// it is done, which the viewer shows as "link down". It is not waited
	// for on exit.
	go func() {
		defer close(samples)
		if err := ingestSamples(ctx, cfg, samples); err != nil && !errors.Is(err, context.Canceled) {
			monitoring.Logf("ingestion stopped: %v", err)
			return
		}
		monitoring.Logf("ingestion finished")
	}()

	if err := v.Run(ctx, sink); err != nil {
		return err
	}
	monitoring.Logf("render loop finished after %d ticks", v.Snapshot().Tick)
	return nil
}

// ingestSamples runs the configured sample source until it ends.
func ingestSamples(ctx context.Context, cfg *config.Config, samples chan<- accel.Sample) error {
	if path := cfg.GetSerialPort(); path != "" {
		feed, err := serialfeed.Open(path, serialfeed.PortOptions{BaudRate: cfg.GetSerialBaud()}, samples)
		if err != nil {
			return err
		}
		defer feed.Close()
		return feed.Monitor(ctx)
	}

	srv := ingest.NewServer(samples, ingest.Options{Reaccept: cfg.GetReaccept()})
	return srv.ListenAndServe(ctx, cfg.GetListen())
}

func serveDebug(ctx context.Context, addr string, v *viewer.Viewer) {
	mux := http.NewServeMux()
	debugweb.AttachAdminRoutes(mux, v)

	server := &http.Server{
		Addr:    addr,
		Handler: mux,
	}
	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			monitoring.Logf("failed to start debug server: %v", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		monitoring.Logf("debug server shutdown error: %v", err)
	}
}
