package conn

import (
	"bufio"
	"context"
	"crypto/tls"
	"net"
	"sync"
	"time"

	"github.com/dmitrymomot/httprelay/wire"
)

// tlsConn is the TLS-wrapped Conn variant. It presents the exact same
// operation set as plainConn; the only behavioral difference is that
// Handshake actually negotiates TLS instead of being a no-op.
type tlsConn struct {
	mu     sync.Mutex
	tc     *tls.Conn
	cfg    *tls.Config
	buf    *bufio.Reader
	open   bool
	closed bool
}

// NewTLS wraps an already-connected raw net.Conn in TLS using cfg. The
// handshake itself does not run until Handshake is called (so Session
// controls exactly when it happens, per spec.md §4.7's do_handshake step).
func NewTLS(raw net.Conn, cfg *tls.Config) Conn {
	tc := tls.Client(raw, cfg) // re-wrapped as server below if needed
	return &tlsConn{tc: tc, cfg: cfg, buf: bufio.NewReader(tc), open: true}
}

func (c *tlsConn) Handshake(ctx context.Context, role Role) error {
	c.mu.Lock()
	raw := c.tc.NetConn()
	cfg := c.cfg
	c.mu.Unlock()

	if dl, ok := ctx.Deadline(); ok {
		_ = raw.SetDeadline(dl)
		defer raw.SetDeadline(time.Time{})
	}

	c.mu.Lock()
	switch role {
	case RoleServer:
		c.tc = tls.Server(raw, cfg)
	case RoleClient:
		c.tc = tls.Client(raw, cfg)
	}
	tc := c.tc
	c.buf = bufio.NewReader(tc)
	c.mu.Unlock()

	return tc.HandshakeContext(ctx)
}

func (c *tlsConn) ReadMessage(ctx context.Context, p wire.Parser) (wire.Message, error) {
	c.mu.Lock()
	tc, buf := c.tc, c.buf
	c.mu.Unlock()
	if dl, ok := ctx.Deadline(); ok {
		_ = tc.SetReadDeadline(dl)
	} else {
		_ = tc.SetReadDeadline(time.Time{})
	}
	return p.Read(buf)
}

func (c *tlsConn) WriteMessage(ctx context.Context, m wire.Message, s wire.Serializer) (int64, bool, error) {
	c.mu.Lock()
	tc := c.tc
	c.mu.Unlock()
	if dl, ok := ctx.Deadline(); ok {
		_ = tc.SetWriteDeadline(dl)
	} else {
		_ = tc.SetWriteDeadline(time.Time{})
	}
	return s.Write(tc, m)
}

func (c *tlsConn) Shutdown(dir Direction) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.open {
		return nil
	}
	// TLS has no meaningful half-close; any Shutdown direction closes the
	// whole connection, matching the spec's "destruction while open issues
	// shutdown(both) for both directions" for the TLS case.
	c.open = false
	return c.tc.Close()
}

func (c *tlsConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	c.open = false
	return c.tc.Close()
}

func (c *tlsConn) IsOpen() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.open
}

func (c *tlsConn) Release() net.Conn {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.open = false
	return c.tc
}

func (c *tlsConn) Raw() net.Conn {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.tc
}
