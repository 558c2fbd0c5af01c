// Package engine wraps a raw net.Listener accept loop that spawns one
// connsession.Session per accepted connection, with Start/Stop/Run
// lifecycle management. Grounded directly on core/server.Server's
// Start/Stop/Run shape — generalized from wrapping net/http.Server to
// wrapping a net.Listener, since this module's Session drives its own
// read/dispatch/write cycle instead of delegating to net/http's handler
// model.
package engine

import (
	"context"
	"crypto/tls"
	"errors"
	"io"
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/dmitrymomot/httprelay/conn"
	"github.com/dmitrymomot/httprelay/connlimit"
	"github.com/dmitrymomot/httprelay/connsession"
	"github.com/dmitrymomot/httprelay/router"
)

// ErrServerAlreadyRunning mirrors core/server's guard against a double Start.
var ErrServerAlreadyRunning = errors.New("engine: server already running")

// Server accepts connections on a net.Listener and drives each one through
// a connsession.Session bound to table. Safe for concurrent use.
type Server struct {
	mu       sync.RWMutex
	addr     string
	table    *router.Table
	listener net.Listener
	logger   *slog.Logger
	shutdown time.Duration
	tlsCfg   *tls.Config
	running  bool

	sessionOpts []connsession.Option
	limiter     *connlimit.Limiter

	wg sync.WaitGroup
}

// Option configures a Server at construction time.
type Option func(*Server)

// WithLogger sets the logger used for accept-loop and shutdown messages.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) { s.logger = logger }
}

// WithShutdownTimeout bounds how long Stop waits for the accept loop's
// per-connection start goroutines before returning. It does not bound, or
// wait for, the sessions themselves.
func WithShutdownTimeout(d time.Duration) Option {
	return func(s *Server) { s.shutdown = d }
}

// WithTLS wraps every accepted connection in TLS using cfg before handing
// it to connsession.Recv.
func WithTLS(cfg *tls.Config) Option {
	return func(s *Server) { s.tlsCfg = cfg }
}

// WithSessionOptions passes opts through to every connsession.Recv call,
// e.g. WithIdleTimeout, WithErrorSink, WithAuditStore.
func WithSessionOptions(opts ...connsession.Option) Option {
	return func(s *Server) { s.sessionOpts = append(s.sessionOpts, opts...) }
}

// WithRateLimiter rejects a newly-accepted connection (closing it
// immediately, before any Session or handshake exists) once its remote
// address has exhausted limiter's token bucket.
func WithRateLimiter(limiter *connlimit.Limiter) Option {
	return func(s *Server) { s.limiter = limiter }
}

// New builds a Server listening on addr (not yet bound — binding happens
// in Start) and routing accepted connections through table.
func New(addr string, table *router.Table, opts ...Option) *Server {
	s := &Server{
		addr:     addr,
		table:    table,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		shutdown: 30 * time.Second,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start binds addr and accepts connections until ctx is canceled or the
// listener errors. Each accepted connection gets its own
// connsession.Session goroutine; Start itself blocks the caller.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return ErrServerAlreadyRunning
	}

	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		s.mu.Unlock()
		return err
	}
	s.listener = ln
	s.running = true
	s.mu.Unlock()

	s.logger.InfoContext(ctx, "engine listening", slog.String("addr", s.addr))

	errCh := make(chan error, 1)
	go func() { errCh <- s.acceptLoop() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		_ = s.Stop()
		<-errCh
		return ctx.Err()
	}
}

func (s *Server) acceptLoop() error {
	for {
		raw, err := s.listener.Accept()
		if err != nil {
			s.mu.RLock()
			stopping := !s.running
			s.mu.RUnlock()
			if stopping {
				return nil
			}
			return err
		}

		if s.limiter != nil && !s.limiter.Allow(raw.RemoteAddr().String()) {
			s.logger.Warn("connection rejected by rate limiter", slog.String("remote", raw.RemoteAddr().String()))
			_ = raw.Close()
			continue
		}

		c := conn.New(raw)
		if s.tlsCfg != nil {
			c = conn.NewTLS(raw, s.tlsCfg)
		}

		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			if _, err := connsession.Recv(c, s.table, s.sessionOpts...); err != nil {
				s.logger.Error("session start failed", slog.Any("error", err))
			}
		}()
	}
}

// Stop closes the listener and waits, up to the configured shutdown
// timeout, for the goroutines that start each accepted connection's
// session. Those return as soon as connsession.Recv has started the
// session, so Stop does not wait for sessions to finish and does not
// sever them: they keep running until their connections close or
// idle-timeout.
func (s *Server) Stop() error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = false
	ln := s.listener
	s.mu.Unlock()

	if ln != nil {
		_ = ln.Close()
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("engine shutdown complete")
		return nil
	case <-time.After(s.shutdown):
		s.logger.Warn("engine shutdown timeout exceeded, sessions may still be draining")
		return nil
	}
}

// Run adapts Start/Stop to the errgroup-compatible shape used throughout
// the teacher's core packages (core/server.Server.Run, core/queue.Worker.Run).
func (s *Server) Run(ctx context.Context) func() error {
	return func() error {
		errCh := make(chan error, 1)
		go func() { errCh <- s.Start(ctx) }()

		select {
		case <-ctx.Done():
			if err := s.Stop(); err != nil {
				s.logger.Error("engine stop error", slog.Any("error", err))
			}
			<-errCh
			return nil
		case err := <-errCh:
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil
			}
			return err
		}
	}
}
