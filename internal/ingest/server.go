// Package ingest accepts a streaming websocket client and forwards the
// acceleration samples it sends to the render loop.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/banshee-data/lorentz.report/internal/accel"
	"github.com/banshee-data/lorentz.report/internal/monitoring"
)

// DefaultAddr is the loopback address the sample stream is served on.
const DefaultAddr = "127.0.0.1:3005"

var (
	ErrAccept = errors.New("failed to accept websocket connection")
	ErrRead   = errors.New("failed to read websocket frame")
	ErrSend   = errors.New("failed to send websocket frame")
)

// Options controls session handling.
type Options struct {
	// Reaccept keeps serving after a client disconnects or a session fails.
	// When false the first session to end, for any reason, ends Serve.
	Reaccept bool
}

// Server services one websocket session at a time. Text frames carrying a
// sample are decoded and sent on the samples channel; control frames are
// answered and everything else is echoed back to the peer.
type Server struct {
	samples  chan<- accel.Sample
	opts     Options
	upgrader websocket.Upgrader

	// slot holds a token while a session is being serviced.
	slot chan struct{}

	quit     chan struct{}
	quitOnce sync.Once
	err      error

	mu      sync.Mutex
	stopped bool
	conns   map[*websocket.Conn]struct{}
	wg      sync.WaitGroup
}

// NewServer returns a server that sends decoded samples on samples. The
// caller keeps ownership of the channel and may close it once Serve returns.
func NewServer(samples chan<- accel.Sample, opts Options) *Server {
	return &Server{
		samples: samples,
		opts:    opts,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(*http.Request) bool { return true },
		},
		slot:  make(chan struct{}, 1),
		quit:  make(chan struct{}),
		conns: make(map[*websocket.Conn]struct{}),
	}
}

// ListenAndServe binds addr and serves on it until Serve returns.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until the context is cancelled, the
// listener fails, or (without Reaccept) the first session ends. A session
// closed by the peer returns nil; failures return an error wrapping ErrAccept,
// ErrRead or ErrSend. Serve waits for every session goroutine before it
// returns, so no sample is sent after that point.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{Handler: s}
	monitoring.Logf("ingest: listening on %s", ln.Addr())

	errc := make(chan error, 1)
	go func() {
		errc <- srv.Serve(ln)
	}()

	select {
	case <-ctx.Done():
		s.finish(ctx.Err())
	case err := <-errc:
		s.finish(fmt.Errorf("%w: %v", ErrAccept, err))
	case <-s.quit:
	}

	srv.Close()
	s.closeSessions()
	s.wg.Wait()
	return s.err
}

// finish records the result of Serve; only the first call counts.
func (s *Server) finish(err error) {
	s.quitOnce.Do(func() {
		s.err = err
		close(s.quit)
	})
}

func (s *Server) stopping() bool {
	select {
	case <-s.quit:
		return true
	default:
		return false
	}
}

func (s *Server) closeSessions() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopped = true
	for conn := range s.conns {
		conn.Close()
	}
}

// begin registers a session goroutine unless Serve is already shutting down.
func (s *Server) begin() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return false
	}
	s.wg.Add(1)
	return true
}

func (s *Server) track(conn *websocket.Conn) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return false
	}
	s.conns[conn] = struct{}{}
	return true
}

func (s *Server) untrack(conn *websocket.Conn) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.conns, conn)
}

// ServeHTTP upgrades the request and services the session once the slot is
// free. Requests that are not websocket handshakes are refused.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !websocket.IsWebSocketUpgrade(r) {
		http.Error(w, "websocket upgrade required", http.StatusBadRequest)
		return
	}

	select {
	case s.slot <- struct{}{}:
	case <-s.quit:
		http.Error(w, "server shutting down", http.StatusServiceUnavailable)
		return
	case <-r.Context().Done():
		return
	}
	defer func() { <-s.slot }()

	if !s.begin() {
		http.Error(w, "server shutting down", http.StatusServiceUnavailable)
		return
	}
	defer s.wg.Done()

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.end(fmt.Errorf("%w: %v", ErrAccept, err))
		return
	}
	defer conn.Close()
	if !s.track(conn) {
		return
	}
	defer s.untrack(conn)

	s.end(s.session(conn))
}

// end decides what a finished session means for the server.
func (s *Server) end(err error) {
	if s.stopping() {
		return
	}
	if s.opts.Reaccept {
		if err != nil {
			monitoring.Logf("ingest: session failed: %v", err)
		}
		return
	}
	s.finish(err)
}

// session reads frames until the peer closes or an error occurs. A nil
// return means the peer closed the connection or the server is stopping.
func (s *Server) session(conn *websocket.Conn) error {
	id := uuid.NewString()
	monitoring.Logf("ingest: session %s connected from %s", id, conn.RemoteAddr())

	var (
		closed  bool
		sendErr error
	)
	reply := func(messageType int, data []byte) error {
		if err := conn.WriteControl(messageType, data, time.Time{}); err != nil {
			sendErr = err
			return err
		}
		return nil
	}
	conn.SetPingHandler(func(data string) error {
		return reply(websocket.PongMessage, []byte(data))
	})
	conn.SetPongHandler(func(data string) error {
		return reply(websocket.PongMessage, []byte(data))
	})
	conn.SetCloseHandler(func(code int, text string) error {
		closed = true
		return reply(websocket.CloseMessage, []byte{})
	})

	for {
		messageType, payload, err := conn.ReadMessage()
		if err != nil {
			switch {
			case s.stopping():
				return nil
			case sendErr != nil:
				return fmt.Errorf("%w: session %s: %v", ErrSend, id, sendErr)
			case closed:
				monitoring.Logf("ingest: session %s disconnected", id)
				return nil
			default:
				return fmt.Errorf("%w: session %s: %v", ErrRead, id, err)
			}
		}

		if messageType != websocket.TextMessage {
			if err := conn.WriteMessage(messageType, payload); err != nil {
				return fmt.Errorf("%w: session %s: %v", ErrSend, id, err)
			}
			continue
		}

		sample, err := accel.Decode(payload)
		if err != nil {
			monitoring.Debugf("ingest: session %s dropped frame: %v", id, err)
			continue
		}
		select {
		case s.samples <- sample:
		case <-s.quit:
			return nil
		}
	}
}
