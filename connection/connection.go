package connection

import (
	"net/http"
)

// HeaderPair is one request header. Pairs with the same name are all sent.
type HeaderPair struct {
	Name  string
	Value string
}

// Connection is the blocking request/response contract. A request cycle
// is InitiateRequest, any number of Write and Flush calls, then
// InitiateResponse, after which the status, headers and body of the
// response can be read until the next InitiateRequest.
//
// Calls made out of order return an error; none of them panic.
// Implementations are not safe for concurrent use.
type Connection interface {
	InitiateRequest(method Method, uri string, headers []HeaderPair) error
	IsRequestInitiated() bool
	Write(p []byte) (int, error)
	Flush() error

	InitiateResponse() error
	IsResponseInitiated() bool
	Status() (int, error)
	StatusMessage() (string, bool)
	Header(name string) (string, bool)
	Read(p []byte) (int, error)

	// Split returns the response head and the body reader as separate
	// values that can be used independently.
	Split() (*ResponseHead, *BodyReader, error)
}

// ResponseHead is the status line and header block of a response. It does
// not change once the response has been received.
type ResponseHead struct {
	statusCode int
	proto      string
	header     http.Header
}

func newResponseHead(statusCode int, proto string, header http.Header) *ResponseHead {
	return &ResponseHead{statusCode: statusCode, proto: proto, header: header}
}

// Status returns the status code.
func (h *ResponseHead) Status() int {
	return h.statusCode
}

// StatusMessage returns the canonical reason phrase for the status code.
// It is absent for codes net/http has no text for.
func (h *ResponseHead) StatusMessage() (string, bool) {
	text := http.StatusText(h.statusCode)
	return text, text != ""
}

// Header returns the first value of the named header. Lookup is
// case-insensitive.
func (h *ResponseHead) Header(name string) (string, bool) {
	values := h.header.Values(name)
	if len(values) == 0 {
		return "", false
	}
	return values[0], true
}

// Headers returns a copy of the full header multimap.
func (h *ResponseHead) Headers() http.Header {
	return h.header.Clone()
}

// Proto returns the protocol the response arrived over, e.g. "HTTP/1.1".
func (h *ResponseHead) Proto() string {
	return h.proto
}
