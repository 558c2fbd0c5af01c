package connsession

import "errors"

var (
	// ErrSessionClosed names the state of a session that has already torn
	// down. Context calls never return it (they degrade to silent no-ops
	// per the spec's stale-Context safety requirement), and no function in
	// this package returns it.
	ErrSessionClosed = errors.New("connsession: session closed")

	// ErrNilConn/ErrNilTable guard the two required constructor arguments.
	ErrNilConn  = errors.New("connsession: nil conn")
	ErrNilTable = errors.New("connsession: nil table")

	// ErrHandshakeTimeout is reported (router.KindHandshakeFailure) when a
	// handshake doesn't complete within WithHandshakeTimeout's deadline.
	ErrHandshakeTimeout = errors.New("connsession: handshake timed out")
)
