package wire

import (
	"bufio"
	"io"
	"net/http"
	"strconv"
	"strings"
)

// HTTP1 is the default Parser/Serializer pair, built directly on net/http's
// own wire primitives (http.ReadRequest, http.ReadResponse, Request.Write,
// Response.Write). This is the one place the engine leans on the standard
// library rather than a pack dependency: the spec explicitly designates the
// parser/serializer as an external, swappable black box (§1, §6), not a
// core engine concern, so there is no "teacher library" to reach for here
// — net/http's own battle-tested wire codec is the natural implementation
// to ship as the default, and callers remain free to supply their own
// Parser/Serializer (e.g. a pack of `github.com/badu/http`-style low-level
// primitives) without the engine itself caring.
type HTTP1 struct {
	// IsRequest selects whether Read parses a request (server role) or a
	// response (client role).
	IsRequest bool
}

// Read implements Parser.
func (h HTTP1) Read(buf *bufio.Reader) (Message, error) {
	if h.IsRequest {
		req, err := http.ReadRequest(buf)
		if err != nil {
			return Message{}, translateReadErr(err)
		}
		return Message{
			Kind:    KindRequest,
			Method:  req.Method,
			Target:  req.URL.RequestURI(),
			Version: req.Proto,
			Header:  req.Header,
			Body:    req.Body,
			needEOF: req.Close,
		}, nil
	}

	resp, err := http.ReadResponse(buf, nil)
	if err != nil {
		return Message{}, translateReadErr(err)
	}
	return Message{
		Kind:       KindResponse,
		StatusCode: resp.StatusCode,
		Status:     resp.Status,
		Version:    resp.Proto,
		Header:     resp.Header,
		Body:       resp.Body,
		needEOF:    resp.Close,
	}, nil
}

func translateReadErr(err error) error {
	if err == io.EOF || err == io.ErrUnexpectedEOF {
		return ErrEndOfStream
	}
	return err
}

// Write implements Serializer.
func (h HTTP1) Write(w io.Writer, m Message) (int64, bool, error) {
	cw := &countingWriter{w: w}

	if m.Kind == KindRequest {
		req, err := http.NewRequest(m.Method, m.Target, m.Body)
		if err != nil {
			return 0, false, err
		}
		req.Header = m.Header
		req.Proto = m.Version
		if req.Proto == "" {
			req.Proto = "HTTP/1.1"
		}
		req.ProtoMajor, req.ProtoMinor = protoVersion(req.Proto)
		if err := req.Write(cw); err != nil {
			return cw.n, m.NeedEOF(), err
		}
		return cw.n, m.NeedEOF(), nil
	}

	resp := &http.Response{
		StatusCode: m.StatusCode,
		Status:     m.Status,
		Proto:      m.Version,
		Header:     m.Header,
		Body:       m.Body,
		Close:      m.NeedEOF(),
	}
	if resp.Proto == "" {
		resp.Proto = "HTTP/1.1"
	}
	resp.ProtoMajor, resp.ProtoMinor = protoVersion(resp.Proto)
	if resp.Body == nil {
		resp.Body = http.NoBody
	}
	// Buffer the whole response so it reaches w in as few writes as
	// possible; Response.Write alone issues one write per line.
	bw := bufio.NewWriter(cw)
	if err := resp.Write(bw); err != nil {
		return cw.n, resp.Close, err
	}
	if err := bw.Flush(); err != nil {
		return cw.n, resp.Close, err
	}
	return cw.n, resp.Close, nil
}

func protoVersion(proto string) (major, minor int) {
	switch proto {
	case "HTTP/1.0":
		return 1, 0
	default:
		return 1, 1
	}
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}

// bodyString is a small convenience used by example handlers/tests to turn
// a plain string into an io.ReadCloser response body.
func bodyString(s string) io.ReadCloser {
	return io.NopCloser(strings.NewReader(s))
}

// NewTextResponse builds a KindResponse Message with a text/plain body,
// Content-Length set, matching the teacher's response.Text convenience
// helpers (core/response) but returning a wire.Message instead of an
// http.ResponseWriter closure.
func NewTextResponse(status int, body string) Message {
	h := make(http.Header)
	h.Set("Content-Type", "text/plain; charset=utf-8")
	m := NewResponse(status, h, bodyString(body))
	m.Header.Set("Content-Length", strconv.Itoa(len(body)))
	return m
}
