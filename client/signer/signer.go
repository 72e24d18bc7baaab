package signer

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"time"
)

// Header names carried by every signed request.
const (
	HeaderPrincipal = "X-LLNW-Security-Principal"
	HeaderTimestamp = "X-LLNW-Security-Timestamp"
	HeaderToken     = "X-LLNW-Security-Token"
)

var (
	ErrInvalidKey        = errors.New("invalid signing key")
	ErrInvalidToken      = errors.New("invalid token encoding")
	ErrSignatureMismatch = errors.New("signature mismatch")
)

// Key is the raw HMAC key decoded from the hex API key.
type Key []byte

// ParseKey decodes a hex-encoded API key.
func ParseKey(hexKey string) (Key, error) {
	if hexKey == "" {
		return nil, fmt.Errorf("%w: empty", ErrInvalidKey)
	}

	b, err := hex.DecodeString(hexKey)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidKey, err)
	}

	return Key(b), nil
}

// Timestamp returns t as milliseconds since the unix epoch.
func Timestamp(t time.Time) int64 {
	return t.UnixMilli()
}

// Canonicalize builds the byte string that is signed for a request.
// A nil query is omitted entirely; a non-nil query is encoded with its keys
// sorted, so an empty one contributes nothing. An empty body is omitted.
//
// The query uses [url.Values.Encode], which writes a space as "+". Signers
// that follow RFC 3986 write "%20" instead, so values containing spaces only
// verify between peers that share this encoding.
func Canonicalize(method, uri string, query url.Values, body string, timestamp int64) []byte {
	b := make([]byte, 0, len(method)+len(uri)+len(body)+32)
	b = append(b, method...)
	b = append(b, uri...)
	if query != nil {
		b = append(b, query.Encode()...)
	}
	b = strconv.AppendInt(b, timestamp, 10)
	if body != "" {
		b = append(b, body...)
	}

	return b
}

// Sign returns the lowercase hex HMAC-SHA256 of canonical keyed by key.
func Sign(key Key, canonical []byte) string {
	mac := hmac.New(sha256.New, key)
	_, _ = mac.Write(canonical)

	return hex.EncodeToString(mac.Sum(nil))
}

// Verify reports whether token is the signature of canonical under key.
// The comparison runs in constant time.
func Verify(key Key, canonical []byte, token string) error {
	got, err := hex.DecodeString(token)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}

	mac := hmac.New(sha256.New, key)
	_, _ = mac.Write(canonical)

	if !hmac.Equal(got, mac.Sum(nil)) {
		return ErrSignatureMismatch
	}

	return nil
}
