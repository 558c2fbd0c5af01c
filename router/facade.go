package router

import "github.com/dmitrymomot/httprelay/handler"

// Router is the ergonomic façade over Table (component C9), giving callers
// get/put/post/delete_-style accessors instead of calling Table.Bind
// directly with a handler.Method constant.
type Router struct {
	Table *Table
}

// New builds a Router around a fresh Table.
func New(opts ...TableOption) *Router {
	return &Router{Table: NewTable(opts...)}
}

func (r *Router) bind(method handler.Method, pattern string, hs ...any) error {
	chain, err := handler.NewChain(hs...)
	if err != nil {
		return err
	}
	return r.Table.Bind(method, pattern, chain)
}

// Get registers hs under GET and pattern.
func (r *Router) Get(pattern string, hs ...any) error { return r.bind(handler.MethodGet, pattern, hs...) }

// Put registers hs under PUT and pattern.
func (r *Router) Put(pattern string, hs ...any) error { return r.bind(handler.MethodPut, pattern, hs...) }

// Post registers hs under POST and pattern.
func (r *Router) Post(pattern string, hs ...any) error {
	return r.bind(handler.MethodPost, pattern, hs...)
}

// Delete registers hs under DELETE and pattern.
// Named Delete, not delete_, since Go has no reserved "delete" identifier
// clash at the method-name position (unlike the source's delete_).
func (r *Router) Delete(pattern string, hs ...any) error {
	return r.bind(handler.MethodDelete, pattern, hs...)
}

// Head registers hs under HEAD and pattern.
func (r *Router) Head(pattern string, hs ...any) error {
	return r.bind(handler.MethodHead, pattern, hs...)
}

// Options registers hs under OPTIONS and pattern.
func (r *Router) Options(pattern string, hs ...any) error {
	return r.bind(handler.MethodOptions, pattern, hs...)
}

// Patch registers hs under PATCH and pattern.
func (r *Router) Patch(pattern string, hs ...any) error {
	return r.bind(handler.MethodPatch, pattern, hs...)
}

// Connect registers hs under CONNECT and pattern.
func (r *Router) Connect(pattern string, hs ...any) error {
	return r.bind(handler.MethodConnect, pattern, hs...)
}

// Trace registers hs under TRACE and pattern.
func (r *Router) Trace(pattern string, hs ...any) error {
	return r.bind(handler.MethodTrace, pattern, hs...)
}

// NotFound replaces the fallback chain run when no bound chain handles a
// request (or, client-side, the chain that handles every response).
func (r *Router) NotFound(hs ...any) error {
	chain, err := handler.NewChain(hs...)
	if err != nil {
		return err
	}
	r.Table.NotFound(chain)
	return nil
}
