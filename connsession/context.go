package connsession

import (
	"net"

	"github.com/dmitrymomot/httprelay/handler"
	"github.com/dmitrymomot/httprelay/wire"
)

// ctxHandle is the concrete handler.Context every Session hands out — one
// per Session, shared with every handler chain that session ever invokes.
// It never holds session state itself; every call is forwarded to the
// owning Session, which is the only goroutine allowed to touch that state.
// The handle stays valid after the session closes (Go's GC keeps it and
// its Session alive together); every method simply becomes a safe no-op.
type ctxHandle struct {
	session *Session
}

var _ handler.Context = (*ctxHandle)(nil)

// Send enqueues msg on the session's write queue. Safe to call from any
// goroutine, including from inside a handler running on the session's own
// dispatch goroutine (the common case) or from a goroutine the handler
// spawned to push a later message (e.g. a server-push style notifier).
func (h *ctxHandle) Send(msg wire.Message) {
	h.session.post(cmdSend{msg: msg})
}

// Recv schedules the session's next read cycle. The engine never
// auto-re-arms reads on the server side (spec.md §9's resolved Open
// Question): a handler that wants to keep a connection alive for another
// request must call Recv explicitly, typically as the last thing it does.
func (h *ctxHandle) Recv() {
	h.session.post(cmdRecv{})
}

// IsOpen reports whether the underlying connection is still open. Reads
// an atomic flag directly; never blocks and never touches the run loop.
func (h *ctxHandle) IsOpen() bool {
	return h.session.isOpen()
}

// Stream returns the raw net.Conn for advanced/escape-hatch use (e.g.
// inspecting TLS connection state). Never nil, even after the session has
// closed — it simply stops being usable for I/O at that point.
func (h *ctxHandle) Stream() net.Conn {
	return h.session.conn.Raw()
}

// setUserData/getUserData back handler.SetUserData[T]/GetUserData[T] (the
// free-function translation of the spec's generic user-data slot; see
// handler/context.go). Guarded by the session's own state mutex since,
// unlike Send/Recv/IsOpen, a caller may legitimately read user data from a
// goroutine other than the dispatch loop (e.g. after handing a Context to
// a background task).
func (h *ctxHandle) setUserData(v any) {
	h.session.mu.Lock()
	h.session.userData = v
	h.session.mu.Unlock()
}

func (h *ctxHandle) getUserData() (any, bool) {
	h.session.mu.Lock()
	defer h.session.mu.Unlock()
	if h.session.userData == nil {
		return nil, false
	}
	return h.session.userData, true
}
