package handler

import "errors"

var (
	// ErrEmptyChain is returned by NewChain when called with zero handlers.
	// The spec's invariant is that a chain has >= 1 handler; empty chains
	// cannot be constructed.
	ErrEmptyChain = errors.New("handler: chain must have at least one handler")

	// ErrUnsupportedHandlerSignature is returned by NewChain when a handler
	// does not match one of the arities NewChain knows how to adapt.
	ErrUnsupportedHandlerSignature = errors.New("handler: unsupported handler signature")
)
