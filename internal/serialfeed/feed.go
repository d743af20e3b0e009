// Package serialfeed reads newline-delimited JSON samples from a
// serial-attached accelerometer.
package serialfeed

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"sync/atomic"

	"go.bug.st/serial"

	"github.com/banshee-data/lorentz.report/internal/accel"
	"github.com/banshee-data/lorentz.report/internal/monitoring"
)

// Port is the part of a serial port the feed needs.
type Port interface {
	io.Reader
	io.Closer
}

// Feed decodes one sample per line from a port and forwards it.
type Feed struct {
	port    Port
	samples chan<- accel.Sample
	dropped atomic.Uint64
}

// New wraps an already open port.
func New(port Port, samples chan<- accel.Sample) *Feed {
	return &Feed{port: port, samples: samples}
}

// Open opens the serial device at path.
func Open(path string, opts PortOptions, samples chan<- accel.Sample) (*Feed, error) {
	mode, err := opts.SerialMode()
	if err != nil {
		return nil, err
	}
	port, err := serial.Open(path, mode)
	if err != nil {
		return nil, fmt.Errorf("failed to open serial port %s: %w", path, err)
	}
	monitoring.Logf("serialfeed: opened %s at %d baud", path, mode.BaudRate)
	return New(port, samples), nil
}

// Dropped returns how many non-empty lines failed to decode.
func (f *Feed) Dropped() uint64 {
	return f.dropped.Load()
}

// Monitor reads lines until the port reaches EOF, fails or ctx is done.
// Malformed lines are dropped. Samples are sent with a blocking send, and
// none is sent after Monitor returns.
func (f *Feed) Monitor(ctx context.Context) error {
	scan := bufio.NewScanner(f.port)

	lineChan := make(chan []byte)
	scanErrChan := make(chan error, 1)

	// the blocking scan.Scan runs apart from the select loop below so that
	// cancellation is noticed while the port is idle
	go func() {
		defer close(lineChan)
		for scan.Scan() {
			line := bytes.Clone(scan.Bytes())
			select {
			case lineChan <- line:
			case <-ctx.Done():
				return
			}
		}
		if err := scan.Err(); err != nil {
			scanErrChan <- err
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case err := <-scanErrChan:
			return fmt.Errorf("failed to read serial port: %w", err)

		case line, ok := <-lineChan:
			if !ok {
				select {
				case err := <-scanErrChan:
					return fmt.Errorf("failed to read serial port: %w", err)
				default:
					return nil
				}
			}
			line = bytes.TrimSpace(line)
			if len(line) == 0 {
				continue
			}
			sample, err := accel.Decode(line)
			if err != nil {
				f.dropped.Add(1)
				monitoring.Debugf("serialfeed: dropped line %q: %v", line, err)
				continue
			}
			select {
			case f.samples <- sample:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
}

// Close closes the port, which also unblocks a pending read.
func (f *Feed) Close() error {
	return f.port.Close()
}
