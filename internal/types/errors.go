package types

import (
	"encoding/json"
	"errors"
	"net/http"
)

// Sentinel errors shared by the relay and the upstream client.
var (
	// ErrNoCredential is returned when the upstream credential is not configured.
	ErrNoCredential = errors.New("upstream credential not configured")

	// ErrMissingSessionID is returned when a stream request carries no session_id.
	ErrMissingSessionID = errors.New("session_id is required")

	// ErrNoSessionID is returned when the bootstrap reply has no session_id field.
	ErrNoSessionID = errors.New("upstream response has no session_id")
)

// MaxDetailBytes caps the diagnostic text copied into an error envelope.
const MaxDetailBytes = 4 << 10

// ErrorKind classifies relay failures.
type ErrorKind int

// Error kinds
const (
	KindInternal ErrorKind = iota
	KindClientInput
	KindMisconfiguration
	KindUpstreamFailure
	KindUpstreamUnreachable
	KindInvalidUpstreamResponse
	KindUpstreamTimeout
	KindStreamTransport
)

var kindNames = map[ErrorKind]string{
	KindInternal:                "internal",
	KindClientInput:             "client_input",
	KindMisconfiguration:        "misconfiguration",
	KindUpstreamFailure:         "upstream_failure",
	KindUpstreamUnreachable:     "upstream_unreachable",
	KindInvalidUpstreamResponse: "invalid_upstream_response",
	KindUpstreamTimeout:         "upstream_timeout",
	KindStreamTransport:         "stream_transport",
}

func (k ErrorKind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "unknown"
}

// RelayError is the JSON envelope written for locally generated failures.
type RelayError struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
	Status  int    `json:"status"`
}

// Error is a classified relay failure carrying the HTTP status to report.
type Error struct {
	Kind    ErrorKind
	Status  int
	Message string
	Details string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Envelope converts the error into its wire representation.
func (e *Error) Envelope() *RelayError {
	return &RelayError{
		Error:   e.Message,
		Details: e.Details,
		Status:  e.Status,
	}
}

// WriteError writes err as a RelayError envelope with its status code.
func WriteError(w http.ResponseWriter, err *Error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(err.Status)
	json.NewEncoder(w).Encode(err.Envelope())
}

// Common error constructors

// ErrClientInput creates a 400 error for a missing or malformed request field.
func ErrClientInput(message string, cause error) *Error {
	e := &Error{Kind: KindClientInput, Status: http.StatusBadRequest, Message: message, Err: cause}
	if cause != nil {
		e.Details = cause.Error()
	}
	return e
}

// ErrMisconfiguration creates a 500 error for missing server configuration.
func ErrMisconfiguration(cause error) *Error {
	return &Error{
		Kind:    KindMisconfiguration,
		Status:  http.StatusInternalServerError,
		Message: "relay is not configured",
		Details: cause.Error(),
		Err:     cause,
	}
}

// ErrUpstreamFailure creates an error that carries the upstream status code.
func ErrUpstreamFailure(status int, message string, body []byte) *Error {
	return &Error{
		Kind:    KindUpstreamFailure,
		Status:  status,
		Message: message,
		Details: Truncate(body),
	}
}

// ErrUpstreamUnreachable creates a 502 error for transport failures.
func ErrUpstreamUnreachable(cause error) *Error {
	return &Error{
		Kind:    KindUpstreamUnreachable,
		Status:  http.StatusBadGateway,
		Message: "upstream unreachable",
		Details: cause.Error(),
		Err:     cause,
	}
}

// ErrInvalidUpstreamResponse creates a 502 error for unusable upstream replies.
func ErrInvalidUpstreamResponse(cause error, body []byte) *Error {
	return &Error{
		Kind:    KindInvalidUpstreamResponse,
		Status:  http.StatusBadGateway,
		Message: "invalid upstream response",
		Details: Truncate(body),
		Err:     cause,
	}
}

// ErrUpstreamTimeout creates a 504 error.
func ErrUpstreamTimeout(cause error) *Error {
	return &Error{
		Kind:    KindUpstreamTimeout,
		Status:  http.StatusGatewayTimeout,
		Message: "gateway timeout",
		Err:     cause,
	}
}

// ErrStreamTransport classifies a failure after the event stream has started.
// It is never written to the client.
func ErrStreamTransport(cause error) *Error {
	return &Error{
		Kind:    KindStreamTransport,
		Status:  http.StatusBadGateway,
		Message: "stream interrupted",
		Err:     cause,
	}
}

// ErrInternal creates a 500 error.
func ErrInternal(message string, cause error) *Error {
	e := &Error{Kind: KindInternal, Status: http.StatusInternalServerError, Message: message, Err: cause}
	if cause != nil {
		e.Details = cause.Error()
	}
	return e
}

// Truncate returns body as text capped at MaxDetailBytes.
func Truncate(body []byte) string {
	if len(body) > MaxDetailBytes {
		return string(body[:MaxDetailBytes]) + "...(truncated)"
	}
	return string(body)
}
