package conn_test

import (
	"context"
	"net"
	"testing"

	"github.com/dmitrymomot/httprelay/conn"
	"github.com/dmitrymomot/httprelay/wire"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlainConn_WriteThenRead_RoundTrip(t *testing.T) {
	server, client := net.Pipe()
	defer server.Close()
	defer client.Close()

	sc := conn.New(server)
	cc := conn.New(client)

	done := make(chan struct{})
	go func() {
		defer close(done)
		msg, err := sc.ReadMessage(context.Background(), wire.HTTP1{IsRequest: true})
		require.NoError(t, err)
		assert.Equal(t, "GET", msg.Method)
		assert.Equal(t, "/hello", msg.Target)
	}()

	req := wire.NewRequest("GET", "/hello", "HTTP/1.1", nil, nil)
	_, _, err := cc.WriteMessage(context.Background(), req, wire.HTTP1{})
	require.NoError(t, err)
	<-done
}

func TestPlainConn_Shutdown_Idempotent(t *testing.T) {
	// Invariant 8: shutdown(both) is idempotent.
	server, client := net.Pipe()
	defer client.Close()

	sc := conn.New(server)
	assert.True(t, sc.IsOpen())
	require.NoError(t, sc.Shutdown(conn.ShutBoth))
	assert.False(t, sc.IsOpen())
	require.NoError(t, sc.Shutdown(conn.ShutBoth)) // second call: no error
}

func TestPlainConn_Handshake_IsNoOp(t *testing.T) {
	server, client := net.Pipe()
	defer server.Close()
	defer client.Close()

	sc := conn.New(server)
	assert.NoError(t, sc.Handshake(context.Background(), conn.RoleServer))
}

func TestPlainConn_Release(t *testing.T) {
	server, client := net.Pipe()
	defer client.Close()

	sc := conn.New(server)
	raw := sc.Release()
	assert.NotNil(t, raw)
	assert.False(t, sc.IsOpen())
}
