// Package router implements the spec's RoutingTable and Dispatcher
// (components C5/C6/C9): a method x regex-path -> HandlerChain map with
// concurrent-read / exclusive-write discipline, plus the Router façade.
package router

import (
	"net/http"
	"regexp"
	"sync"

	"github.com/dmitrymomot/httprelay/handler"
	"github.com/dmitrymomot/httprelay/wire"
)

// boundChain pairs a registered pattern with its pre-compiled, anchored
// regexp and the handler chain it dispatches to. Compiling once at Bind
// time (rather than per dispatch attempt) is an explicit SHOULD from the
// spec's design notes ("Regex caching").
type boundChain struct {
	pattern string
	re      *regexp.Regexp
	chain   *handler.Chain
}

// methodRoutes holds every boundChain registered under one Method, in
// insertion order — the order in which Dispatch tries them.
type methodRoutes struct {
	chains []*boundChain
}

// Table is the spec's RoutingTable: Map<Method, OrderedMap<Pattern, Chain>>.
// Shared across all sessions of one server; protected by a reader/writer
// lock so Bind/NotFound (writers) exclude Dispatch (readers), while
// concurrent dispatches never block each other.
type Table struct {
	mu         sync.RWMutex
	methods    map[handler.Method]*methodRoutes
	serverMode bool
	firstMatch bool
}

// TableOption configures a Table at construction time.
type TableOption func(*Table)

// ServerMode (the default) auto-installs a default 404 not-found chain so
// an unconfigured server never hangs a client, per spec.md §4.5.
func ServerMode() TableOption {
	return func(t *Table) { t.serverMode = true }
}

// ClientMode skips the default not-found chain: a client-role table has no
// routes of its own, and an unmatched response is simply dropped
// (spec.md §4.6 edge cases).
func ClientMode() TableOption {
	return func(t *Table) { t.serverMode = false }
}

// ConfigFirstMatchWins resolves the Open Question in spec.md §9: by
// default (false) Dispatch iterates every matching chain under a method
// and ORs their `handled` results together, faithfully reproducing the
// source's behavior. Setting it true stops at the first chain that
// reports handled.
func ConfigFirstMatchWins(v bool) TableOption {
	return func(t *Table) { t.firstMatch = v }
}

// NewTable builds an empty Table. ServerMode() is implied unless
// ClientMode() is passed explicitly.
func NewTable(opts ...TableOption) *Table {
	t := &Table{
		methods:    make(map[handler.Method]*methodRoutes),
		serverMode: true,
	}
	for _, opt := range opts {
		opt(t)
	}
	if t.serverMode {
		t.NotFound(handler.MustChain(defaultNotFoundHandler))
	}
	return t
}

// Bind compiles pattern as a fully-anchored regexp (so MatchString behaves
// like the spec's regex_match, not regex_search) and registers chain under
// method, preserving insertion order. Re-binding an existing
// (method, pattern) pair replaces the chain in place, per spec invariant.
func (t *Table) Bind(method handler.Method, pattern string, chain *handler.Chain) error {
	if chain == nil {
		return ErrNilChain
	}
	re, err := compileAnchored(pattern)
	if err != nil {
		return err
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	mr, ok := t.methods[method]
	if !ok {
		mr = &methodRoutes{}
		t.methods[method] = mr
	}
	for _, bc := range mr.chains {
		if bc.pattern == pattern {
			bc.chain = chain
			bc.re = re
			return nil
		}
	}
	mr.chains = append(mr.chains, &boundChain{pattern: pattern, re: re, chain: chain})
	return nil
}

// NotFound replaces the fallback chain bound to MethodUnknown -> "". At
// most one chain may exist there; NotFound always overwrites it.
func (t *Table) NotFound(chain *handler.Chain) {
	if chain == nil {
		return
	}
	re, _ := compileAnchored(regexp.QuoteMeta(""))

	t.mu.Lock()
	defer t.mu.Unlock()

	t.methods[handler.MethodUnknown] = &methodRoutes{
		chains: []*boundChain{{pattern: "", re: re, chain: chain}},
	}
}

// lookup returns the ordered chains bound to method, or (nil, false).
// Caller must hold at least the read lock.
func (t *Table) lookup(method handler.Method) ([]*boundChain, bool) {
	mr, ok := t.methods[method]
	if !ok {
		return nil, false
	}
	return mr.chains, true
}

// notFoundChain returns the not-found boundChain, or nil.
// Caller must hold at least the read lock.
func (t *Table) notFoundChain() *boundChain {
	mr, ok := t.methods[handler.MethodUnknown]
	if !ok || len(mr.chains) == 0 {
		return nil
	}
	return mr.chains[0]
}

// compileAnchored wraps pattern so Go's leftmost-substring MatchString
// semantics become the spec's contractual full match on the target:
// "^/foo$" and "/foo" behave identically.
func compileAnchored(pattern string) (*regexp.Regexp, error) {
	re, err := regexp.Compile(`^(?:` + pattern + `)$`)
	if err != nil {
		return nil, ErrInvalidPattern
	}
	return re, nil
}

func defaultNotFoundHandler(ctx handler.Context) {
	ctx.Send(notFoundResponse())
}

// notFoundResponse is the default 404 response a server-mode Table sends
// when nothing matches, so an unconfigured server never hangs a client
// waiting for a reply (spec.md §4.5).
func notFoundResponse() wire.Message {
	return wire.NewResponse(http.StatusNotFound, nil, nil)
}
