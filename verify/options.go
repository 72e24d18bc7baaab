package verify

import (
	"errors"
	"log/slog"
	"time"
)

// Option is a functional option for configuring a [Verifier] via [New].
type Option func(*options) error
type options struct {
	scheme      string
	maxSkew     *time.Duration
	now         func() time.Time
	logger      *slog.Logger
	maxBodySize *int64
}

// WithScheme fixes the scheme used to rebuild the signed URL, for servers
// running behind a TLS-terminating proxy. By default it is derived from the
// request.
func WithScheme(scheme string) Option {
	return func(o *options) error {
		if scheme != "http" && scheme != "https" {
			return errors.New("scheme must be http or https")
		}
		o.scheme = scheme
		return nil
	}
}

// WithMaxSkew sets how far a request timestamp may drift from the server clock.
// Zero disables the check.
func WithMaxSkew(d time.Duration) Option {
	return func(o *options) error {
		if d < 0 {
			return errors.New("max skew must not be negative")
		}
		o.maxSkew = &d
		return nil
	}
}

// WithClock overrides the server time source.
func WithClock(now func() time.Time) Option {
	return func(o *options) error {
		if now == nil {
			return errors.New("clock must not be nil")
		}
		o.now = now
		return nil
	}
}

// WithLogger injects a custom [slog.Logger] into the [Verifier].
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) error {
		o.logger = logger
		return nil
	}
}

// WithMaxBodySize caps how much of a request body is read for signing.
func WithMaxBodySize(n int64) Option {
	return func(o *options) error {
		if n <= 0 {
			return errors.New("max body size must be greater than zero")
		}
		o.maxBodySize = &n
		return nil
	}
}
