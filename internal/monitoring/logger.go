// Package monitoring holds the process-wide diagnostic loggers.
package monitoring

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
)

// Logf is the package-level diagnostic logger. It defaults to log.Printf but may
// be replaced by SetLogger. Tests or production code can redirect or mute it.
var Logf func(format string, v ...interface{}) = log.Printf

// Debugf receives per-frame chatter such as dropped samples. It is muted until
// SetDebug(true) is called.
var Debugf func(format string, v ...interface{}) = noop

func noop(string, ...interface{}) {}

// SetLogger replaces the package logger. Passing nil will set a no-op logger.
func SetLogger(f func(format string, v ...interface{})) {
	if f == nil {
		Logf = noop
		return
	}
	Logf = f
}

// SetDebug routes Debugf through Logf when on, and mutes it otherwise.
func SetDebug(on bool) {
	if !on {
		Debugf = noop
		return
	}
	Debugf = func(format string, v ...interface{}) {
		Logf("[debug] "+format, v...)
	}
}

// RedirectToFile points the standard logger at path (appending) so that log
// lines do not land on a terminal the display sink is drawing into. The
// returned closer restores stderr output.
func RedirectToFile(path string) (io.Closer, error) {
	f, err := os.OpenFile(filepath.Clean(path), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	log.SetOutput(f)
	return restoreCloser{f}, nil
}

type restoreCloser struct {
	f *os.File
}

func (r restoreCloser) Close() error {
	log.SetOutput(os.Stderr)
	return r.f.Close()
}
