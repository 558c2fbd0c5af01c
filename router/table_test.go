package router_test

import (
	"net"
	"testing"

	"github.com/dmitrymomot/httprelay/handler"
	"github.com/dmitrymomot/httprelay/router"
	"github.com/dmitrymomot/httprelay/wire"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingContext is a minimal handler.Context fake used only to observe
// what a chain sends, for dispatch-level tests.
type recordingContext struct {
	sent []wire.Message
}

func (c *recordingContext) Send(m wire.Message) { c.sent = append(c.sent, m) }
func (c *recordingContext) Recv()               {}
func (c *recordingContext) IsOpen() bool        { return true }
func (c *recordingContext) Stream() net.Conn    { return nil }

func TestTable_ServerMode_AutoInstallsNotFound(t *testing.T) {
	tbl := router.NewTable()
	ctx := &recordingContext{}

	handled := tbl.Dispatch(wire.NewRequest("GET", "/anything", "HTTP/1.1", nil, nil), ctx, nil)
	assert.True(t, handled)
	require.Len(t, ctx.sent, 1)
	assert.Equal(t, 404, ctx.sent[0].StatusCode)
}

func TestTable_ClientMode_NoAutoNotFound(t *testing.T) {
	tbl := router.NewTable(router.ClientMode())
	ctx := &recordingContext{}

	// Response dispatch with nothing bound: dropped, not handled.
	handled := tbl.Dispatch(wire.NewResponse(200, nil, nil), ctx, nil)
	assert.False(t, handled)
	assert.Empty(t, ctx.sent)
}

func TestTable_Bind_FullMatchSemantics(t *testing.T) {
	tbl := router.NewTable()
	var calledWith string
	require.NoError(t, tbl.Bind(handler.MethodGet, "/foo", handler.MustChain(func(ctx handler.Context, req handler.Request) {
		calledWith = req.Target
	})))

	ctx := &recordingContext{}
	handled := tbl.Dispatch(wire.NewRequest("GET", "/foo", "HTTP/1.1", nil, nil), ctx, nil)
	assert.True(t, handled)
	assert.Equal(t, "/foo", calledWith)

	// "/foobar" must NOT match pattern "/foo" under full-match semantics.
	calledWith = ""
	ctx2 := &recordingContext{}
	handled = tbl.Dispatch(wire.NewRequest("GET", "/foobar", "HTTP/1.1", nil, nil), ctx2, nil)
	assert.True(t, handled) // falls through to not-found, which IS handled
	assert.Empty(t, calledWith)
	assert.Equal(t, 404, ctx2.sent[0].StatusCode)
}

func TestTable_Rebind_ReplacesChain(t *testing.T) {
	tbl := router.NewTable()
	require.NoError(t, tbl.Bind(handler.MethodGet, "/x", handler.MustChain(func(ctx handler.Context) {
		ctx.Send(wire.NewTextResponse(200, "old"))
	})))
	require.NoError(t, tbl.Bind(handler.MethodGet, "/x", handler.MustChain(func(ctx handler.Context) {
		ctx.Send(wire.NewTextResponse(200, "new"))
	})))

	ctx := &recordingContext{}
	tbl.Dispatch(wire.NewRequest("GET", "/x", "HTTP/1.1", nil, nil), ctx, nil)
	require.Len(t, ctx.sent, 1)

	body, _ := readAll(ctx.sent[0])
	assert.Equal(t, "new", body)
}

func TestTable_InsertionOrderDispatch(t *testing.T) {
	tbl := router.NewTable()
	var order []int
	require.NoError(t, tbl.Bind(handler.MethodGet, "/a", handler.MustChain(func(handler.Context) bool {
		order = append(order, 1)
		return true
	})))
	require.NoError(t, tbl.Bind(handler.MethodGet, ".*", handler.MustChain(func(handler.Context) bool {
		order = append(order, 2)
		return true
	})))

	ctx := &recordingContext{}
	tbl.Dispatch(wire.NewRequest("GET", "/a", "HTTP/1.1", nil, nil), ctx, nil)
	assert.Equal(t, []int{1, 2}, order)
}

func TestTable_ShortCircuit_DoesNotSkipOtherChains(t *testing.T) {
	// Scenario E3 plus invariant 11: a false return inside one chain
	// must not block a *different* matching chain under another pattern.
	tbl := router.NewTable()
	thirdRan := false
	require.NoError(t, tbl.Bind(handler.MethodGet, "/stop", handler.MustChain(
		func(handler.Context) bool { return true },
		func(handler.Context) bool { return false },
		func(handler.Context) { thirdRan = true },
	)))
	otherRan := false
	require.NoError(t, tbl.Bind(handler.MethodGet, ".*", handler.MustChain(func(handler.Context) bool {
		otherRan = true
		return true
	})))

	ctx := &recordingContext{}
	handled := tbl.Dispatch(wire.NewRequest("GET", "/stop", "HTTP/1.1", nil, nil), ctx, nil)

	assert.False(t, thirdRan, "handler after false return must not run")
	assert.True(t, otherRan, "a different matching chain must still run")
	assert.True(t, handled)
}

func TestTable_NotFoundPatternUnreachableViaNormalDispatch(t *testing.T) {
	// Invariant 10: the not-found slot's pattern "" matches nothing in
	// normal dispatch; it's reachable only through the UNKNOWN-method key.
	tbl := router.NewTable()
	ctx := &recordingContext{}
	handled := tbl.Dispatch(wire.NewRequest("GET", "", "HTTP/1.1", nil, nil), ctx, nil)
	// GET has no bound chains at all, so this falls through to not-found
	// regardless -- proving "" is never matched as a GET route.
	assert.True(t, handled)
	assert.Equal(t, 404, ctx.sent[0].StatusCode)
}

func TestTable_HandlerErrorRoutesToSinkAndContinues(t *testing.T) {
	tbl := router.NewTable()
	require.NoError(t, tbl.Bind(handler.MethodGet, "/err", handler.MustChain(func(handler.Context) error {
		return assertErr
	})))
	require.NoError(t, tbl.Bind(handler.MethodGet, ".*", handler.MustChain(func(ctx handler.Context) {
		ctx.Send(wire.NewTextResponse(200, "fallback"))
	})))

	var gotKind router.ErrorKind
	sink := func(kind router.ErrorKind, _ string) { gotKind = kind }

	ctx := &recordingContext{}
	handled := tbl.Dispatch(wire.NewRequest("GET", "/err", "HTTP/1.1", nil, nil), ctx, sink)

	assert.True(t, handled)
	assert.Equal(t, router.KindHandlerFault, gotKind)
	require.Len(t, ctx.sent, 1)
}

func TestConfigFirstMatchWins(t *testing.T) {
	tbl := router.NewTable(router.ConfigFirstMatchWins(true))
	secondRan := false
	require.NoError(t, tbl.Bind(handler.MethodGet, "/a", handler.MustChain(func(handler.Context) bool { return true })))
	require.NoError(t, tbl.Bind(handler.MethodGet, ".*", handler.MustChain(func(handler.Context) bool {
		secondRan = true
		return true
	})))

	ctx := &recordingContext{}
	tbl.Dispatch(wire.NewRequest("GET", "/a", "HTTP/1.1", nil, nil), ctx, nil)
	assert.False(t, secondRan, "first-match-wins must stop after the first handled chain")
}

var assertErr = errAssert("boom")

type errAssert string

func (e errAssert) Error() string { return string(e) }

func readAll(m wire.Message) (string, error) {
	if m.Body == nil {
		return "", nil
	}
	defer m.Body.Close()
	buf := make([]byte, 0, 64)
	tmp := make([]byte, 64)
	for {
		n, err := m.Body.Read(tmp)
		buf = append(buf, tmp[:n]...)
		if err != nil {
			break
		}
	}
	return string(buf), nil
}
