package connection

import (
	"errors"
	"fmt"
)

// ErrorCode classifies connection errors.
type ErrorCode int

const (
	// ErrCodeIO indicates a failure while reading the response body.
	ErrCodeIO ErrorCode = iota
	// ErrCodeHTTP indicates a request that could not be constructed, such
	// as a malformed URI.
	ErrCodeHTTP
	// ErrCodeClient indicates a transport failure reported by the async client.
	ErrCodeClient
	// ErrCodeRuntimeCreation indicates the bridge executor or client could not be built.
	ErrCodeRuntimeCreation
	// ErrCodeUnsupportedMethod indicates a method outside the sendable set.
	ErrCodeUnsupportedMethod
	// ErrCodeNoResponse indicates a response accessor called without a response.
	ErrCodeNoResponse
	// ErrCodeNoRequest indicates a write, flush or submit without a pending request.
	ErrCodeNoRequest
	// ErrCodeInvalidHeaderName indicates a header name that is not a valid token.
	ErrCodeInvalidHeaderName
	// ErrCodeInvalidHeaderValue indicates a header value with forbidden bytes.
	ErrCodeInvalidHeaderValue
)

// String returns the error code name.
func (c ErrorCode) String() string {
	switch c {
	case ErrCodeIO:
		return "io"
	case ErrCodeHTTP:
		return "http"
	case ErrCodeClient:
		return "client"
	case ErrCodeRuntimeCreation:
		return "runtime_creation"
	case ErrCodeUnsupportedMethod:
		return "unsupported_method"
	case ErrCodeNoResponse:
		return "no_response"
	case ErrCodeNoRequest:
		return "no_request"
	case ErrCodeInvalidHeaderName:
		return "invalid_header_name"
	case ErrCodeInvalidHeaderValue:
		return "invalid_header_value"
	default:
		return "unknown"
	}
}

// Kind is the coarse classification seen by code written against the
// Connection contract.
type Kind int

const (
	KindOther Kind = iota
	KindUnsupported
	KindInvalidInput
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindUnsupported:
		return "unsupported"
	case KindInvalidInput:
		return "invalid_input"
	default:
		return "other"
	}
}

// Error is a structured connection error.
type Error struct {
	// Code classifies the error.
	Code ErrorCode
	// Message describes the error.
	Message string
	// Err is the underlying error.
	Err error
}

// Sentinels for errors.Is checks. Matching is by code.
var (
	ErrNoRequest  = &Error{Code: ErrCodeNoRequest, Message: "no request initiated"}
	ErrNoResponse = &Error{Code: ErrCodeNoResponse, Message: "no response initiated"}
)

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Err != nil && e.Message != e.Err.Error() {
		return fmt.Sprintf("connection: %s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("connection: %s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is an *Error with the same code.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
}

// Kind collapses the code to the contract's error kinds.
func (e *Error) Kind() Kind {
	switch e.Code {
	case ErrCodeUnsupportedMethod:
		return KindUnsupported
	case ErrCodeInvalidHeaderName, ErrCodeInvalidHeaderValue:
		return KindInvalidInput
	default:
		return KindOther
	}
}

// NewIOError creates a body read error.
func NewIOError(err error) *Error {
	return &Error{Code: ErrCodeIO, Message: err.Error(), Err: err}
}

// NewHTTPError creates a malformed request error.
func NewHTTPError(msg string, err error) *Error {
	return &Error{Code: ErrCodeHTTP, Message: msg, Err: err}
}

// NewClientError creates a transport error.
func NewClientError(err error) *Error {
	return &Error{Code: ErrCodeClient, Message: err.Error(), Err: err}
}

// NewRuntimeCreationError creates an error for a bridge that could not be built.
func NewRuntimeCreationError(err error) *Error {
	return &Error{Code: ErrCodeRuntimeCreation, Message: err.Error(), Err: err}
}

// NewUnsupportedMethodError creates an error naming the rejected method.
func NewUnsupportedMethodError(m Method) *Error {
	return &Error{Code: ErrCodeUnsupportedMethod, Message: m.String()}
}

// NewInvalidHeaderNameError creates an error for a malformed header name.
func NewInvalidHeaderNameError(name string) *Error {
	return &Error{Code: ErrCodeInvalidHeaderName, Message: fmt.Sprintf("%q", name)}
}

// NewInvalidHeaderValueError creates an error for a malformed value of header name.
func NewInvalidHeaderValueError(name string) *Error {
	return &Error{Code: ErrCodeInvalidHeaderValue, Message: fmt.Sprintf("value of %q", name)}
}

// KindOf returns the kind of err, or KindOther if it is not an *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind()
	}
	return KindOther
}

func hasCode(err error, code ErrorCode) bool {
	var e *Error
	return errors.As(err, &e) && e.Code == code
}

// IsIO checks if an error is a body read error.
func IsIO(err error) bool { return hasCode(err, ErrCodeIO) }

// IsHTTP checks if an error is a malformed request error.
func IsHTTP(err error) bool { return hasCode(err, ErrCodeHTTP) }

// IsClient checks if an error is a transport error.
func IsClient(err error) bool { return hasCode(err, ErrCodeClient) }

// IsRuntimeCreation checks if an error came from building the bridge.
func IsRuntimeCreation(err error) bool { return hasCode(err, ErrCodeRuntimeCreation) }

// IsUnsupportedMethod checks if an error is an unsupported method error.
func IsUnsupportedMethod(err error) bool { return hasCode(err, ErrCodeUnsupportedMethod) }

// IsNoRequest checks if an error is a missing request error.
func IsNoRequest(err error) bool { return hasCode(err, ErrCodeNoRequest) }

// IsNoResponse checks if an error is a missing response error.
func IsNoResponse(err error) bool { return hasCode(err, ErrCodeNoResponse) }

// IsInvalidHeader checks if an error is a header name or value error.
func IsInvalidHeader(err error) bool {
	return hasCode(err, ErrCodeInvalidHeaderName) || hasCode(err, ErrCodeInvalidHeaderValue)
}
