// Package wire defines the black-box contract between the session engine
// and an HTTP/1.x parser/serializer. The engine never parses or serializes
// bytes itself; it only calls Parser.Read and Serializer.Write and reacts to
// the typed Message and Error values they produce. See wire/http1.go for the
// default implementation built on net/http's wire primitives.
package wire

import (
	"io"
	"net/http"
)

// Kind discriminates the tagged union Message represents.
type Kind int

const (
	KindRequest Kind = iota
	KindResponse
)

// Message is the tagged union {Request | Response} the core engine exchanges
// with the parser/serializer black box.
type Message struct {
	Kind Kind

	// Request fields, valid when Kind == KindRequest.
	Method  string
	Target  string
	Version string

	// Response fields, valid when Kind == KindResponse.
	StatusCode int
	Status     string

	Header http.Header
	Body   io.ReadCloser

	// needEOF, when true, signals the protocol requires closing the
	// connection after this message has been sent. Set by the parser
	// (from the message's Connection semantics) or by WithNeedEOF, and
	// read back via NeedEOF; NewResponse/NewRequest leave it false.
	needEOF bool
}

// NeedEOF reports whether the serializer determined that the connection
// must be closed after this message is sent.
func (m Message) NeedEOF() bool { return m.needEOF }

// WithNeedEOF returns a copy of m with its need-eof flag set. Used by
// handlers that want to force connection closure after a response
// (e.g. HTTP/1.0 clients, or an explicit "Connection: close").
func (m Message) WithNeedEOF(v bool) Message {
	m.needEOF = v
	return m
}

// NewRequest builds a request-kind Message.
func NewRequest(method, target, version string, header http.Header, body io.ReadCloser) Message {
	if header == nil {
		header = make(http.Header)
	}
	return Message{
		Kind:    KindRequest,
		Method:  method,
		Target:  target,
		Version: version,
		Header:  header,
		Body:    body,
	}
}

// NewResponse builds a response-kind Message.
func NewResponse(status int, header http.Header, body io.ReadCloser) Message {
	if header == nil {
		header = make(http.Header)
	}
	return Message{
		Kind:       KindResponse,
		StatusCode: status,
		Status:     http.StatusText(status),
		Version:    "HTTP/1.1",
		Header:     header,
		Body:       body,
	}
}
