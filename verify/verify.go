package verify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/adamwoolhether/llnw/client/signer"
)

const (
	defaultMaxSkew     = 5 * time.Minute
	defaultMaxBodySize = 1 << 20 // 1MB
)

var (
	ErrMissingHeader     = errors.New("missing security header")
	ErrBadTimestamp      = errors.New("malformed timestamp")
	ErrStaleTimestamp    = errors.New("timestamp outside allowed skew")
	ErrUnknownPrincipal  = errors.New("unknown principal")
	ErrBodyTooLarge      = errors.New("request body too large")
	ErrSignatureMismatch = signer.ErrSignatureMismatch
)

// KeyStore resolves the signing key of a principal.
type KeyStore interface {
	Key(principal string) (signer.Key, error)
}

// StaticKeys maps principals to hex-encoded keys.
type StaticKeys map[string]string

// Key implements KeyStore.
func (s StaticKeys) Key(principal string) (signer.Key, error) {
	hexKey, ok := s[principal]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownPrincipal, principal)
	}

	return signer.ParseKey(hexKey)
}

// Verifier checks signed requests.
type Verifier struct {
	keys        KeyStore
	scheme      string
	maxSkew     time.Duration
	now         func() time.Time
	logger      *slog.Logger
	maxBodySize int64
}

// New returns a Verifier resolving keys from keys.
func New(keys KeyStore, optFns ...Option) (*Verifier, error) {
	if keys == nil {
		return nil, errors.New("key store must not be nil")
	}

	var opts options
	for _, opt := range optFns {
		if err := opt(&opts); err != nil {
			return nil, fmt.Errorf("applying verifier option: %w", err)
		}
	}

	v := &Verifier{
		keys:        keys,
		scheme:      opts.scheme,
		maxSkew:     defaultMaxSkew,
		now:         time.Now,
		logger:      slog.Default(),
		maxBodySize: defaultMaxBodySize,
	}
	if opts.maxSkew != nil {
		v.maxSkew = *opts.maxSkew
	}
	if opts.now != nil {
		v.now = opts.now
	}
	if opts.logger != nil {
		v.logger = opts.logger
	}
	if opts.maxBodySize != nil {
		v.maxBodySize = *opts.maxBodySize
	}

	return v, nil
}

// Verify authenticates r and returns its principal. The request body is
// read and replaced so later handlers can still consume it.
func (v *Verifier) Verify(r *http.Request) (string, error) {
	principal := r.Header.Get(signer.HeaderPrincipal)
	rawTS := r.Header.Get(signer.HeaderTimestamp)
	token := r.Header.Get(signer.HeaderToken)

	switch {
	case principal == "":
		return "", fmt.Errorf("%w: %s", ErrMissingHeader, signer.HeaderPrincipal)
	case rawTS == "":
		return "", fmt.Errorf("%w: %s", ErrMissingHeader, signer.HeaderTimestamp)
	case token == "":
		return "", fmt.Errorf("%w: %s", ErrMissingHeader, signer.HeaderToken)
	}

	ts, err := strconv.ParseInt(rawTS, 10, 64)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrBadTimestamp, err)
	}

	if v.maxSkew > 0 {
		drift := v.now().Sub(time.UnixMilli(ts))
		if drift < -v.maxSkew || drift > v.maxSkew {
			return "", fmt.Errorf("%w: drift %s", ErrStaleTimestamp, drift)
		}
	}

	key, err := v.keys.Key(principal)
	if err != nil {
		return "", err
	}

	body, err := v.readBody(r)
	if err != nil {
		return "", err
	}

	canonical := signer.Canonicalize(r.Method, v.signedURL(r), v.signedQuery(r), body, ts)
	if err := signer.Verify(key, canonical, token); err != nil {
		return "", err
	}

	return principal, nil
}

// Middleware rejects requests that fail verification with 401 and a JSON
// error document; verified requests carry their principal in the context.
func (v *Verifier) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		principal, err := v.Verify(r)
		if err != nil {
			v.logger.Error("request verification failed", "method", r.Method, "path", r.URL.Path, "error", err)
			respondError(w, http.StatusUnauthorized, err)
			return
		}

		next.ServeHTTP(w, r.WithContext(setPrincipal(r.Context(), principal)))
	})
}

func (v *Verifier) signedURL(r *http.Request) string {
	scheme := v.scheme
	if scheme == "" {
		scheme = "http"
		if r.TLS != nil {
			scheme = "https"
		}
	}

	return scheme + "://" + r.Host + r.URL.EscapedPath()
}

// signedQuery mirrors the client: only GET requests sign a query.
func (v *Verifier) signedQuery(r *http.Request) url.Values {
	if r.Method != http.MethodGet {
		return nil
	}
	return r.URL.Query()
}

// readBody returns the body signed by POST and PUT requests.
func (v *Verifier) readBody(r *http.Request) (string, error) {
	if r.Method != http.MethodPost && r.Method != http.MethodPut {
		return "", nil
	}
	if r.Body == nil {
		return "", nil
	}

	b, err := io.ReadAll(io.LimitReader(r.Body, v.maxBodySize+1))
	if err != nil {
		return "", fmt.Errorf("reading body: %w", err)
	}
	if int64(len(b)) > v.maxBodySize {
		return "", ErrBodyTooLarge
	}

	r.Body = io.NopCloser(bytes.NewReader(b))

	return string(b), nil
}

type errorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func respondError(w http.ResponseWriter, code int, err error) {
	data, jerr := json.Marshal(errorResponse{Code: code, Message: err.Error()})
	if jerr != nil {
		w.WriteHeader(code)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_, _ = w.Write(data)
}

type ctxKey int

const principalKey ctxKey = iota + 1

func setPrincipal(ctx context.Context, principal string) context.Context {
	return context.WithValue(ctx, principalKey, principal)
}

// Principal returns the verified principal stored by [Verifier.Middleware].
func Principal(ctx context.Context) (string, bool) {
	p, ok := ctx.Value(principalKey).(string)
	return p, ok
}
