// Package connsession implements the spec's Session (component C7): the
// per-connection state machine that owns a Connection, a read/write cycle,
// an idle timer, and the one Context it ever hands to handler chains. Each
// Session runs its own goroutine ("the strand") — all state in this
// package is touched exclusively from that goroutine, except for the
// handful of fields explicitly called out as safe for concurrent access
// (the closed flag, the user-data slot, the command channel itself).
package connsession

import (
	"context"
	"crypto/tls"
	"log/slog"
	"net"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dmitrymomot/httprelay/conn"
	"github.com/dmitrymomot/httprelay/connaudit"
	"github.com/dmitrymomot/httprelay/router"
	"github.com/dmitrymomot/httprelay/wire"
	"github.com/google/uuid"
)

// command is the closed set of operations a Context (or the session's own
// constructor) can post onto the run loop. Kept as a small interface
// rather than a channel-per-verb so the select loop has exactly one
// cross-goroutine case to service.
type command interface{ isCommand() }

type cmdSend struct{ msg wire.Message }
type cmdRecv struct{}
type cmdClose struct{}

func (cmdSend) isCommand()  {}
func (cmdRecv) isCommand()  {}
func (cmdClose) isCommand() {}

type readResult struct {
	msg wire.Message
	err error
}

type writeResult struct {
	n       int64
	needEOF bool
	err     error
}

// Session is the heart of the engine: one instance per accepted or dialed
// connection, driving a single conn.Conn through handshake, read/dispatch,
// and write cycles until it closes.
type Session struct {
	conn   conn.Conn
	raw    net.Conn
	table  *router.Table
	opts   *options
	isReq  bool // true: server role (reads requests); false: client role (sends a request, reads a response)
	role   conn.Role

	cmds      chan command
	readDone  chan readResult
	writeDone chan writeResult

	reading bool
	writing bool
	wq      []wire.Message // run-loop-owned, no mutex: only the run loop ever touches it

	timer *timerHandle

	closed   atomic.Bool
	closeOne sync.Once
	closeCh  chan struct{}

	mu       sync.Mutex // guards userData only; see context.go
	userData any

	auditID uuid.UUID // zero value when no audit store is configured

	ctx *ctxHandle
}

// Recv starts a server-role Session: it waits for an inbound request,
// dispatches it through table, and leaves subsequent reads to whatever
// handler calls ctx.Recv() again (or lets the connection idle-timeout and
// close). The returned ctxHandle is the one Context this Session will ever
// hand to a handler chain.
func Recv(c conn.Conn, table *router.Table, opts ...Option) (*ctxHandle, error) {
	return newSession(c, table, true, conn.RoleServer, opts)
}

// Send starts a client-role Session: it writes req immediately, then waits
// for exactly one response message, dispatched through table's not-found
// slot (the client table's single response handler per spec.md §4.6).
func Send(c conn.Conn, req wire.Message, table *router.Table, opts ...Option) (*ctxHandle, error) {
	h, err := newSession(c, table, false, conn.RoleClient, opts)
	if err != nil {
		return nil, err
	}
	h.session.post(cmdSend{msg: req})
	return h, nil
}

// RecvTLS is Recv over a TLS-wrapped connection: cfg drives the server-side
// handshake conn.Conn.Handshake performs before the first read is attempted.
func RecvTLS(rawConn net.Conn, cfg *tls.Config, table *router.Table, opts ...Option) (*ctxHandle, error) {
	return Recv(conn.NewTLS(rawConn, cfg), table, opts...)
}

// SendTLS is Send over a TLS-wrapped connection: cfg drives the client-side
// handshake before req is written.
func SendTLS(rawConn net.Conn, cfg *tls.Config, req wire.Message, table *router.Table, opts ...Option) (*ctxHandle, error) {
	return Send(conn.NewTLS(rawConn, cfg), req, table, opts...)
}

func newSession(c conn.Conn, table *router.Table, isReq bool, role conn.Role, opts []Option) (*ctxHandle, error) {
	if c == nil {
		return nil, ErrNilConn
	}
	if table == nil {
		return nil, ErrNilTable
	}

	o := defaultOptions(isReq)
	for _, opt := range opts {
		opt(o)
	}

	s := &Session{
		conn:      c,
		raw:       c.Raw(),
		table:     table,
		opts:      o,
		isReq:     isReq,
		role:      role,
		cmds:      make(chan command, o.maxPending),
		readDone:  make(chan readResult, 1),
		writeDone: make(chan writeResult, 1),
		closeCh:   make(chan struct{}),
		timer:     newTimerHandle(o.idleTimeout),
	}
	s.ctx = &ctxHandle{session: s}

	go s.run()

	if isReq {
		s.post(cmdRecv{})
	}

	return s.ctx, nil
}

// post enqueues a command for the run loop. Safe from any goroutine; a
// full queue (bounded by WithMaxPendingWrites) applies backpressure by
// blocking the caller, and a closed session silently discards the
// command instead of panicking on a closed channel.
func (s *Session) post(c command) {
	if s.closed.Load() {
		return
	}
	select {
	case s.cmds <- c:
	case <-s.closeCh:
	}
}

func (s *Session) isOpen() bool { return !s.closed.Load() }

// run is the session's single dispatch goroutine — the Go translation of
// the spec's strand. Every piece of mutable session state (wq, reading,
// writing, the conn itself) is touched only here.
func (s *Session) run() {
	defer s.teardown()

	if err := s.handshake(); err != nil {
		s.report(router.KindHandshakeFailure, err.Error())
		return
	}
	s.auditOpen()

	for {
		select {
		case c := <-s.cmds:
			s.handleCommand(c)
		case r := <-s.readDone:
			s.reading = false
			s.timer.touch()
			s.handleRead(r)
		case r := <-s.writeDone:
			s.writing = false
			s.timer.touch()
			s.handleWrite(r)
		case <-s.timer.fired():
			s.report(router.KindTimedOut, "idle timeout")
			return
		case <-s.closeCh:
			return
		}

		if s.closed.Load() {
			return
		}
	}
}

// handshake drives conn.Conn.Handshake on its own goroutine and bounds it
// with the same timerHandle/conntimer machinery the idle timer uses
// (WithHandshakeTimeout): a hung TLS handshake gets cancelled and reported
// as ErrHandshakeTimeout instead of blocking the session forever.
func (s *Session) handshake() error {
	hctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- s.conn.Handshake(hctx, s.role) }()

	deadline := newTimerHandle(s.opts.handshakeTimeout)
	defer deadline.stop()

	select {
	case err := <-done:
		return err
	case <-deadline.fired():
		cancel()
		<-done
		return ErrHandshakeTimeout
	}
}

func (s *Session) handleCommand(c command) {
	switch v := c.(type) {
	case cmdSend:
		s.wq = append(s.wq, v.msg)
		s.startWrite()
	case cmdRecv:
		s.startRead()
	case cmdClose:
		s.closeNow()
	}
}

func (s *Session) startRead() {
	if s.reading || s.closed.Load() {
		return
	}
	s.reading = true
	go func() {
		msg, err := s.conn.ReadMessage(context.Background(), s.opts.parser)
		s.readDone <- readResult{msg: msg, err: err}
	}()
}

func (s *Session) startWrite() {
	if s.writing || s.closed.Load() || len(s.wq) == 0 {
		return
	}
	msg := s.wq[0]
	s.wq = s.wq[1:]
	s.writing = true
	go func() {
		n, needEOF, err := s.conn.WriteMessage(context.Background(), msg, s.opts.serializer)
		s.writeDone <- writeResult{n: n, needEOF: needEOF, err: err}
	}()
}

func (s *Session) handleRead(r readResult) {
	if r.err != nil {
		// A clean peer close shuts the session down without a report.
		if r.err != wire.ErrEndOfStream {
			s.report(router.KindReadFailure, r.err.Error())
		}
		s.closeNow()
		return
	}

	s.dispatch(r.msg)
}

func (s *Session) dispatch(msg wire.Message) {
	defer func() {
		if p := recover(); p != nil {
			stack := debug.Stack()
			err := router.NewHandlerFault(p, stack)
			s.opts.logger.Error("handler panic recovered",
				slog.Any("value", p), slog.String("stack", string(stack)))
			s.report(router.KindHandlerFault, err.Error())
		}
	}()

	s.table.Dispatch(msg, s.ctx, s.opts.sink)
}

func (s *Session) handleWrite(r writeResult) {
	if r.err != nil {
		s.report(router.KindWriteFailure, r.err.Error())
		s.closeNow()
		return
	}
	if r.needEOF {
		s.closeNow()
		return
	}
	if !s.isReq {
		// Client role: the request just finished sending, now await the
		// one response message (spec.md §4.6's response branch).
		s.startRead()
	}
	s.startWrite() // drain any further queued messages
}

func (s *Session) report(kind router.ErrorKind, msg string) {
	if s.opts.sink != nil {
		s.opts.sink(kind, msg)
	}
}

func (s *Session) closeNow() {
	s.closeOne.Do(func() {
		s.closed.Store(true)
		close(s.closeCh)
	})
}

func (s *Session) teardown() {
	s.closeNow()
	s.timer.stop()
	_ = s.conn.Shutdown(conn.ShutBoth)
	_ = s.conn.Close()
	s.auditClose()
}

func (s *Session) auditOpen() {
	if s.opts.audit == nil {
		return
	}
	s.auditID = uuid.New()
	remote := ""
	if s.raw != nil {
		remote = s.raw.RemoteAddr().String()
	}
	_ = s.opts.audit.Open(context.Background(), connaudit.ConnectionRecord{
		ID:         s.auditID,
		RemoteAddr: remote,
		OpenedAt:   time.Now(),
	})
}

func (s *Session) auditClose() {
	if s.opts.audit == nil || s.auditID == uuid.Nil {
		return
	}
	_ = s.opts.audit.Close(context.Background(), s.auditID, time.Now())
}
