package router_test

import (
	"sync"
	"testing"
	"time"

	"github.com/dmitrymomot/httprelay/handler"
	"github.com/dmitrymomot/httprelay/router"
	"github.com/dmitrymomot/httprelay/wire"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestTable_ConcurrentReadersDoNotBlockEachOther exercises invariant 6:
// concurrent dispatches (readers) may proceed in parallel.
func TestTable_ConcurrentReadersDoNotBlockEachOther(t *testing.T) {
	tbl := router.NewTable()
	require.NoError(t, tbl.Bind(handler.MethodGet, "/slow", handler.MustChain(func(ctx handler.Context) {
		time.Sleep(20 * time.Millisecond)
		ctx.Send(wire.NewTextResponse(200, "ok"))
	})))

	const n = 8
	var wg sync.WaitGroup
	start := time.Now()
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ctx := &recordingContext{}
			tbl.Dispatch(wire.NewRequest("GET", "/slow", "HTTP/1.1", nil, nil), ctx, nil)
		}()
	}
	wg.Wait()
	elapsed := time.Since(start)

	// If readers serialized, n dispatches of 20ms would take >= n*20ms.
	// In parallel, it should complete well under that.
	assert.Less(t, elapsed, time.Duration(n)*20*time.Millisecond)
}

func TestRouter_Facade_MethodsBindCorrectly(t *testing.T) {
	r := router.New()
	var got string
	require.NoError(t, r.Get("/g", func(handler.Context) { got = "GET" }))
	require.NoError(t, r.Post("/p", func(handler.Context) { got = "POST" }))
	require.NoError(t, r.Delete("/d", func(handler.Context) { got = "DELETE" }))

	ctx := &recordingContext{}
	r.Table.Dispatch(wire.NewRequest("GET", "/g", "HTTP/1.1", nil, nil), ctx, nil)
	assert.Equal(t, "GET", got)

	r.Table.Dispatch(wire.NewRequest("POST", "/p", "HTTP/1.1", nil, nil), ctx, nil)
	assert.Equal(t, "POST", got)

	r.Table.Dispatch(wire.NewRequest("DELETE", "/d", "HTTP/1.1", nil, nil), ctx, nil)
	assert.Equal(t, "DELETE", got)
}

func TestRouter_NotFound_Override(t *testing.T) {
	r := router.New()
	require.NoError(t, r.NotFound(func(ctx handler.Context) {
		ctx.Send(wire.NewTextResponse(410, "gone"))
	}))

	ctx := &recordingContext{}
	r.Table.Dispatch(wire.NewRequest("GET", "/missing", "HTTP/1.1", nil, nil), ctx, nil)
	require.Len(t, ctx.sent, 1)
	assert.Equal(t, 410, ctx.sent[0].StatusCode)
}
