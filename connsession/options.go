package connsession

import (
	"io"
	"log/slog"
	"time"

	"github.com/dmitrymomot/httprelay/connaudit"
	"github.com/dmitrymomot/httprelay/router"
	"github.com/dmitrymomot/httprelay/wire"
)

type options struct {
	sink             router.ErrorSink
	logger           *slog.Logger
	idleTimeout      time.Duration
	handshakeTimeout time.Duration
	maxPending       int
	parser           wire.Parser
	serializer       wire.Serializer
	audit            connaudit.Store
}

// Option configures a Session at construction time, following the
// functional-options convention used throughout the teacher's core
// packages (core/queue.WorkerOption, core/server.Option, ...).
type Option func(*options)

func defaultOptions(isRequest bool) *options {
	return &options{
		sink:             router.NopErrorSink,
		logger:           slog.New(slog.NewTextHandler(io.Discard, nil)),
		idleTimeout:      0, // disabled unless WithIdleTimeout is given
		handshakeTimeout: 10 * time.Second,
		maxPending:       64,
		parser:           wire.HTTP1{IsRequest: isRequest},
		serializer:       wire.HTTP1{IsRequest: isRequest},
	}
}

// WithErrorSink routes every non-fatal I/O/handshake/handler error this
// session observes to sink, keyed by router.ErrorKind (spec.md §6/§7).
func WithErrorSink(sink router.ErrorSink) Option {
	return func(o *options) {
		if sink != nil {
			o.sink = sink
		}
	}
}

// WithLogger attaches a structured logger for session lifecycle events
// (handshake failures, panics recovered at the completion boundary, idle
// timeouts). Defaults to a discarding logger, matching core/queue.Worker's
// no-op default.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithIdleTimeout arms an inactivity timeout (component C2, conntimer):
// if no read or write completes within d, the session is closed and
// router.KindTimedOut is reported to the error sink. Zero (the default)
// disables the idle timer entirely.
func WithIdleTimeout(d time.Duration) Option {
	return func(o *options) { o.idleTimeout = d }
}

// WithHandshakeTimeout bounds conn.Conn.Handshake with the same conntimer
// deadline machinery as WithIdleTimeout: if the handshake hasn't completed
// within d, it's cancelled and router.KindHandshakeFailure is reported with
// ErrHandshakeTimeout. Defaults to 10s; zero disables the bound entirely
// (the handshake can then block forever, matching the pre-timeout behavior).
func WithHandshakeTimeout(d time.Duration) Option {
	return func(o *options) { o.handshakeTimeout = d }
}

// WithMaxPendingWrites sets the buffer size of the session's command
// channel (default 64): once n Send/Recv commands are waiting for the run
// loop to pick them up, further calls block the caller's goroutine until
// the run loop takes one. Messages the run loop has already taken wait in
// the write queue (component C3), which this option does not bound.
func WithMaxPendingWrites(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.maxPending = n
		}
	}
}

// WithAuditStore records every handshake/shutdown transition of this
// Session as a connaudit.ConnectionRecord — an opt-in connection-level
// audit trail, not an authentication mechanism (see SPEC_FULL.md Non-goals).
func WithAuditStore(store connaudit.Store) Option {
	return func(o *options) { o.audit = store }
}

// WithCodec overrides the default HTTP/1.x wire.Parser/wire.Serializer
// pair, e.g. to plug in a test double or a future HTTP/2 adapter.
func WithCodec(p wire.Parser, s wire.Serializer) Option {
	return func(o *options) {
		if p != nil {
			o.parser = p
		}
		if s != nil {
			o.serializer = s
		}
	}
}
