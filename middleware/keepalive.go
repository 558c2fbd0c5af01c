// Package middleware adapts the teacher's root-level Middleware[C]
// convention (a function wrapping a handler in another handler of the
// same shape) to this module's handler-chain arity model.
package middleware

import "github.com/dmitrymomot/httprelay/handler"

// KeepAlive wraps fn so that, once it returns (and the chain has not
// already short-circuited before reaching it), the session's next read
// cycle is armed automatically via ctx.Recv() — without fn having to
// remember to call it.
//
// The spec's resolved Open Question ("keep-alive re-arm") leaves this to
// the handler by default; KeepAlive is the opt-in one-line helper for
// callers who'd rather not repeat `ctx.Recv()` at the end of every
// keep-alive handler. It accepts the three void-returning handler arities
// accepted by handler.NewChain and panics on any other shape — mirroring
// handler.MustChain's construction-time-error convention, since a wrapped
// handler with an unsupported signature is a programmer error caught at
// route-registration time, not a runtime condition to recover from.
func KeepAlive(fn any) any {
	switch h := fn.(type) {
	case func(handler.Context):
		return func(ctx handler.Context) {
			h(ctx)
			ctx.Recv()
		}
	case func(handler.Context, handler.Request):
		return func(ctx handler.Context, req handler.Request) {
			h(ctx, req)
			ctx.Recv()
		}
	case func(handler.Context, handler.Request, handler.Match):
		return func(ctx handler.Context, req handler.Request, m handler.Match) {
			h(ctx, req, m)
			ctx.Recv()
		}
	default:
		panic(handler.ErrUnsupportedHandlerSignature)
	}
}
