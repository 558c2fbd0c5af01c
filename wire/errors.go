package wire

import "errors"

// ErrEndOfStream signals a clean peer close encountered while reading: the
// connection produced no bytes for a new message because the peer shut its
// write side down. HTTP1 also returns it when the peer closes partway
// through a message (io.ErrUnexpectedEOF). The session engine treats this
// as a normal shutdown, not a reportable error, per the spec's PeerClosed
// error kind.
var ErrEndOfStream = errors.New("wire: end of stream")

// ErrPartial signals the parser read a well-formed prefix but needs more
// bytes to complete the message. Session-level callers never see this
// directly: Parser implementations loop internally until a full message or
// a terminal error is available.
var ErrPartial = errors.New("wire: partial message")

// ErrProtocol signals the byte stream violates the wire protocol.
var ErrProtocol = errors.New("wire: protocol error")
