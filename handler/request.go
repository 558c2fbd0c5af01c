package handler

import (
	"io"
	"net/http"
)

// Request is the parsed representation of an inbound HTTP request handed to
// a handler chain by the Dispatcher. It mirrors the wire-level fields a
// handler actually needs without coupling the routing layer to a concrete
// parser implementation.
type Request struct {
	Method  Method
	Target  string // opaque byte string: usually URI path+query, matched verbatim
	Version string
	Header  http.Header
	Body    io.ReadCloser
}

// Match carries the regexp submatches produced while locating the handler
// chain bound to this request's target. Match is the empty value (nil
// Groups) when a chain was reached without a regexp match, e.g. the
// not-found fallback.
type Match struct {
	// Groups holds regexp.FindStringSubmatch's result: Groups[0] is the
	// whole match, Groups[1:] are capture groups. Nil when there is no match.
	Groups []string
}

// Group returns the i'th capture group, or "" if it does not exist.
// Group(0) returns the whole matched target.
func (m Match) Group(i int) string {
	if i < 0 || i >= len(m.Groups) {
		return ""
	}
	return m.Groups[i]
}
