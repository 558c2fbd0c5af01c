package handler

import (
	"net"

	"github.com/dmitrymomot/httprelay/wire"
)

// Context is the user-facing handle passed to handler chains. It is cheap
// to copy (a pointer wrapper around the owning session) and safe to retain
// beyond a single dispatch — calls against a closed session become no-ops,
// per the spec's stale-Context safety requirement.
//
// The concrete implementation lives in package connsession (it needs to
// reach back into the owning Session); handler only depends on the
// interface shape so that router and handler stay free of a dependency on
// the session engine.
type Context interface {
	// Send enqueues msg on the owning session's write queue. Safe to call
	// from any goroutine; internally it is always funneled onto the
	// session's single dispatch goroutine before any state is touched.
	Send(msg wire.Message)

	// Recv schedules the next read cycle on the owning session.
	Recv()

	// IsOpen reports whether the underlying connection is still open.
	IsOpen() bool

	// Stream returns the raw net.Conn for advanced/escape-hatch use. Never
	// nil, even after shutdown (it simply stops being usable).
	Stream() net.Conn
}

// SetUserData stores v on ctx's per-context user-data slot, replacing any
// earlier value. The slot takes the type of the value most recently
// stored; a call with a different type from the previous one is not
// rejected. See GetUserData.
//
// Implemented as a free function, not an interface method, because Go
// cannot express a generic method on an interface type — this is the
// idiomatic translation of the spec's set_user_data<T>()/get_user_data<T>()
// template members (see SPEC_FULL.md §4.8).
func SetUserData[T any](ctx Context, v T) {
	if s, ok := ctx.(userDataSetter); ok {
		s.setUserData(v)
	}
}

// GetUserData retrieves the value previously stored by SetUserData[T].
// ok is false if no value was ever set, or if T is not the type of the
// value currently stored.
func GetUserData[T any](ctx Context) (v T, ok bool) {
	if g, isOk := ctx.(userDataGetter); isOk {
		if raw, found := g.getUserData(); found {
			if typed, match := raw.(T); match {
				return typed, true
			}
		}
	}
	return v, false
}

// userDataSetter/userDataGetter are satisfied by connsession's concrete
// Context implementation; handler never needs to know the storage
// representation.
type userDataSetter interface {
	setUserData(v any)
}

type userDataGetter interface {
	getUserData() (any, bool)
}
