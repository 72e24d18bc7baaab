package client

import (
	"errors"
	"fmt"
)

// maxErrBodySize caps the amount of response body read when
// building an error for a non-2xx status. This prevents
// unbounded memory usage when a large response arrives with a
// failing status.
const maxErrBodySize = 64 << 10 // 64KB

var (
	// ErrMissingEndpointConfig is wrapped by [ConfigError] when host, name or version is empty.
	ErrMissingEndpointConfig = errors.New("missing endpoint config")
	// ErrMissingCredentials is wrapped by [ConfigError] when user or apiKey is empty.
	ErrMissingCredentials = errors.New("missing credentials")
	// ErrInvalidConfig is wrapped by [ConfigError] for any other invalid setting.
	ErrInvalidConfig = errors.New("invalid config")

	// ErrNotConfigured is returned when executing on a client that was not built with [Build].
	ErrNotConfigured = errors.New("client not configured")
	// ErrUnsupportedMethod is returned for methods other than GET, POST, PUT and DELETE.
	ErrUnsupportedMethod = errors.New("unsupported method")

	// ErrTransport is the sentinel error wrapped by [TransportError].
	ErrTransport = errors.New("transport failure")
	// ErrUnexpectedStatusCode is the sentinel error wrapped by [StatusError].
	ErrUnexpectedStatusCode = errors.New("unexpected status code")
	// ErrAuthFailure is joined with [ErrUnexpectedStatusCode] when the server
	// responds with 401 Unauthorized or 403 Forbidden.
	ErrAuthFailure = errors.New("auth failure")
	// ErrDecode is the sentinel error wrapped by [DecodeError].
	ErrDecode = errors.New("decoding response body")
	// ErrNoBody is returned by [Response.Decode] when there is nothing to decode.
	ErrNoBody = errors.New("response has no body")
)

// ConfigError is returned by [Build] when the configuration is unusable.
type ConfigError struct {
	Err    error
	Fields FieldErrors
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("%v: %v", e.Err, e.Fields)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

// TransportError is returned when the HTTP exchange itself fails.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%v: %v", ErrTransport, e.Err)
}

func (e *TransportError) Unwrap() []error {
	return []error{ErrTransport, e.Err}
}

// StatusError is returned when the response status is outside 200-299.
// Body holds the decoded JSON error document when the client format is json
// and the body parsed, otherwise the raw body string.
type StatusError struct {
	StatusCode int
	Body       any
	Raw        string
	Err        error
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%v: %d, body: %s", e.Err, e.StatusCode, e.Raw)
}

func (e *StatusError) Unwrap() error {
	return e.Err
}

// DecodeError is returned when a response body is not valid for the
// configured format.
type DecodeError struct {
	Raw string
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("%v: %v", ErrDecode, e.Err)
}

func (e *DecodeError) Unwrap() []error {
	return []error{ErrDecode, e.Err}
}
