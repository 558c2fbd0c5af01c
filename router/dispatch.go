package router

import (
	"github.com/dmitrymomot/httprelay/handler"
	"github.com/dmitrymomot/httprelay/wire"
)

// Dispatch implements the spec's Dispatcher.process(message, session)
// (spec.md §4.6). It acquires the table's read lock for the full duration
// of the call, including handler execution — the same lock discipline the
// spec mandates for the "reader" side of the RoutingTable's reader/writer
// lock.
//
// Request messages: each chain bound under the message's method is tried
// in insertion order; a regexp full match on the target selects a chain,
// which is executed. By default (ConfigFirstMatchWins(false), the
// source-faithful setting) every matching chain is tried regardless of
// whether an earlier one reported handled or short-circuited — short-circuit
// terminates the chain, not the dispatch loop. If, after the loop, no chain
// reported handled, the not-found chain runs with an empty Match.
//
// Response messages (client role): the not-found chain (the slot a client
// table uses for its one response handler) runs directly; there is no
// method/pattern matching on the client side.
//
// Any handler error is routed to sink and does not abort the loop — other
// matching chains still get a chance, mirroring "handler exceptions
// propagate to the completion boundary" translated to Go's error idiom.
func (t *Table) Dispatch(msg wire.Message, ctx handler.Context, sink ErrorSink) (handled bool) {
	if sink == nil {
		sink = NopErrorSink
	}

	t.mu.RLock()
	defer t.mu.RUnlock()

	if msg.Kind == wire.KindResponse {
		nf := t.notFoundChain()
		if nf == nil {
			return false
		}
		h, err := nf.chain.Execute(ctx, handler.Request{}, handler.Match{})
		if err != nil {
			sink(KindHandlerFault, err.Error())
		}
		return h
	}

	req := handler.Request{
		Method:  handler.ParseMethod(msg.Method),
		Target:  msg.Target,
		Version: msg.Version,
		Header:  msg.Header,
		Body:    msg.Body,
	}

	chains, ok := t.lookup(req.Method)
	if ok {
		for _, bc := range chains {
			groups := bc.re.FindStringSubmatch(req.Target)
			if groups == nil {
				continue
			}
			h, err := bc.chain.Execute(ctx, req, handler.Match{Groups: groups})
			if err != nil {
				sink(KindHandlerFault, err.Error())
			}
			if h {
				handled = true
			}
			if handled && t.firstMatch {
				return true
			}
		}
	}

	if handled {
		return true
	}

	nf := t.notFoundChain()
	if nf == nil {
		return false
	}
	h, err := nf.chain.Execute(ctx, req, handler.Match{})
	if err != nil {
		sink(KindHandlerFault, err.Error())
	}
	return h
}
