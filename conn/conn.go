// Package conn implements the spec's Connection abstraction (component C1):
// a uniform operation set over a plain or TLS-wrapped byte stream, so
// Session code never branches on connection kind: it always calls
// Handshake, which is a no-op on a plain connection.
package conn

import (
	"bufio"
	"context"
	"errors"
	"net"
	"sync"
	"time"

	"github.com/dmitrymomot/httprelay/wire"
)

// Direction selects which half of a full-duplex stream Shutdown closes.
type Direction int

const (
	ShutRead Direction = iota
	ShutWrite
	ShutBoth
)

// Role selects which side of a handshake this Conn performs: server
// (accept/respond) or client (initiate).
type Role int

const (
	RoleServer Role = iota
	RoleClient
)

var ErrClosed = errors.New("conn: use of closed connection")

// Conn is the uniform contract both plain and TLS connections satisfy.
// Handshake is present on every Conn (not just TLS ones) because Go has no
// compile-time specialization on a type tag the way the spec's source
// language does; plainConn's Handshake is simply a documented no-op, so
// Session code never needs a type switch to decide whether to call it.
type Conn interface {
	ReadMessage(ctx context.Context, p wire.Parser) (wire.Message, error)
	WriteMessage(ctx context.Context, m wire.Message, s wire.Serializer) (n int64, needEOF bool, err error)
	Handshake(ctx context.Context, role Role) error
	Shutdown(dir Direction) error
	Close() error
	IsOpen() bool
	Release() net.Conn

	// Raw returns the underlying net.Conn without affecting open/closed
	// state, for callers that only need escape-hatch access (e.g. the
	// Context.Stream() accessor) and must not accidentally detach
	// ownership the way Release does.
	Raw() net.Conn
}

// plainConn wraps a net.Conn with no transport security.
type plainConn struct {
	mu     sync.Mutex
	nc     net.Conn
	buf    *bufio.Reader
	open   bool
	closed bool
}

// New wraps an already-connected net.Conn (accepted by a listener or
// returned by a dialer — both external collaborators per spec.md §1) as a
// plain Conn.
func New(nc net.Conn) Conn {
	return &plainConn{nc: nc, buf: bufio.NewReader(nc), open: true}
}

func (c *plainConn) ReadMessage(ctx context.Context, p wire.Parser) (wire.Message, error) {
	if dl, ok := ctx.Deadline(); ok {
		_ = c.nc.SetReadDeadline(dl)
	} else {
		_ = c.nc.SetReadDeadline(time.Time{})
	}
	return p.Read(c.buf)
}

func (c *plainConn) WriteMessage(ctx context.Context, m wire.Message, s wire.Serializer) (int64, bool, error) {
	if dl, ok := ctx.Deadline(); ok {
		_ = c.nc.SetWriteDeadline(dl)
	} else {
		_ = c.nc.SetWriteDeadline(time.Time{})
	}
	return s.Write(c.nc, m)
}

// Handshake is a no-op for a plain connection: there is no TLS layer to
// negotiate. Session always calls Handshake unconditionally; for a plain
// Conn this simply returns immediately with no error.
func (c *plainConn) Handshake(ctx context.Context, role Role) error { return nil }

func (c *plainConn) Shutdown(dir Direction) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.open {
		return nil
	}
	tcp, ok := c.nc.(*net.TCPConn)
	if !ok {
		// Non-TCP net.Conn (e.g. net.Pipe() in tests): there is no
		// half-close, so Shutdown(Both) degrades to a full Close.
		if dir == ShutBoth {
			c.open = false
			return c.nc.Close()
		}
		return nil
	}
	var err error
	switch dir {
	case ShutRead:
		err = tcp.CloseRead()
	case ShutWrite:
		err = tcp.CloseWrite()
	case ShutBoth:
		c.open = false
		err = tcp.Close()
	}
	return err
}

func (c *plainConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	c.open = false
	return c.nc.Close()
}

func (c *plainConn) IsOpen() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.open
}

func (c *plainConn) Release() net.Conn {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.open = false
	return c.nc
}

func (c *plainConn) Raw() net.Conn {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.nc
}
