package wire

import (
	"bufio"
	"io"
)

// Parser reads exactly one Message from stream, using buf to retain any
// look-ahead bytes across calls (a single *bufio.Reader per connection,
// reused call to call). Distinguishes ErrEndOfStream from ErrPartial and
// ErrProtocol per the spec; all other errors are treated as protocol
// errors by callers.
type Parser interface {
	Read(buf *bufio.Reader) (Message, error)
}

// Serializer writes one Message to w and reports the number of bytes
// written. The returned needEOF mirrors Message.NeedEOF() and is
// authoritative: a Serializer may decide a message needs EOF for reasons the
// Message itself didn't carry (e.g. it had to downgrade to HTTP/1.0).
type Serializer interface {
	Write(w io.Writer, m Message) (n int64, needEOF bool, err error)
}
