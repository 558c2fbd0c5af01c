package handler

// adapted is the normal form every handler arity is adapted to: given the
// full (request, context, match) triple, run the handler and report
// whether the chain should continue (true) or short-circuit (false), plus
// any error to route to the error sink.
type adapted func(ctx Context, req Request, m Match) (bool, error)

// Chain is an ordered sequence of adapted handlers bound to one
// (method, pattern) pair. Execution is sequential with short-circuit: the
// first handler to return false (or a non-nil error) stops the chain.
type Chain struct {
	adapters []adapted
}

// NewChain builds a Chain from one or more handler functions. Each fn must
// be one of the twelve supported signatures (three arities — (Context),
// (Context, Request), (Context, Request, Match) — crossed with {bool, void,
// error, (bool, error)} return shapes). Missing parameters are silently
// dropped at adaptation time, matching the spec's tri-arity handler model;
// a `void` return is treated as "continue" (true, nil).
//
// NewChain returns ErrEmptyChain for zero handlers and
// ErrUnsupportedHandlerSignature for any fn outside the supported set —
// idiomatic Go prefers an error return here over the source's
// construction-time exception.
func NewChain(fns ...any) (*Chain, error) {
	if len(fns) == 0 {
		return nil, ErrEmptyChain
	}

	adapters := make([]adapted, 0, len(fns))
	for _, fn := range fns {
		a, err := adapt(fn)
		if err != nil {
			return nil, err
		}
		adapters = append(adapters, a)
	}
	return &Chain{adapters: adapters}, nil
}

// MustChain is like NewChain but panics on error. Intended for route
// registration call sites where a malformed handler list is a programmer
// error caught at startup, mirroring the teacher's Must-prefixed
// convenience constructors (e.g. core/config.MustLoad).
func MustChain(fns ...any) *Chain {
	c, err := NewChain(fns...)
	if err != nil {
		panic(err)
	}
	return c
}

// Execute runs the chain in construction order, stopping at the first
// handler that returns false or a non-nil error. handled reports whether
// every handler ran to completion returning true — the signal the
// Dispatcher uses to decide whether the not-found chain should also run.
func (c *Chain) Execute(ctx Context, req Request, m Match) (handled bool, err error) {
	for _, a := range c.adapters {
		cont, aerr := a(ctx, req, m)
		if aerr != nil {
			return false, aerr
		}
		if !cont {
			return false, nil
		}
	}
	return true, nil
}

// Len returns the number of handlers in the chain.
func (c *Chain) Len() int { return len(c.adapters) }

func adapt(fn any) (adapted, error) {
	switch h := fn.(type) {
	// (Context) forms
	case func(Context) bool:
		return func(ctx Context, _ Request, _ Match) (bool, error) { return h(ctx), nil }, nil
	case func(Context):
		return func(ctx Context, _ Request, _ Match) (bool, error) { h(ctx); return true, nil }, nil
	case func(Context) error:
		return func(ctx Context, _ Request, _ Match) (bool, error) { return true, h(ctx) }, nil
	case func(Context) (bool, error):
		return func(ctx Context, _ Request, _ Match) (bool, error) { return h(ctx) }, nil

	// (Context, Request) forms
	case func(Context, Request) bool:
		return func(ctx Context, req Request, _ Match) (bool, error) { return h(ctx, req), nil }, nil
	case func(Context, Request):
		return func(ctx Context, req Request, _ Match) (bool, error) { h(ctx, req); return true, nil }, nil
	case func(Context, Request) error:
		return func(ctx Context, req Request, _ Match) (bool, error) { return true, h(ctx, req) }, nil
	case func(Context, Request) (bool, error):
		return func(ctx Context, req Request, _ Match) (bool, error) { return h(ctx, req) }, nil

	// (Context, Request, Match) forms
	case func(Context, Request, Match) bool:
		return func(ctx Context, req Request, m Match) (bool, error) { return h(ctx, req, m), nil }, nil
	case func(Context, Request, Match):
		return func(ctx Context, req Request, m Match) (bool, error) { h(ctx, req, m); return true, nil }, nil
	case func(Context, Request, Match) error:
		return func(ctx Context, req Request, m Match) (bool, error) { return true, h(ctx, req, m) }, nil
	case func(Context, Request, Match) (bool, error):
		return h, nil

	default:
		return nil, ErrUnsupportedHandlerSignature
	}
}
