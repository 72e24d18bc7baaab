// Package signer implements the HMAC-SHA256 request signing scheme used by
// the LLNW REST APIs.
//
// # Canonical String
//
// A request is reduced to a canonical byte string by [Canonicalize]:
//
//	METHOD + URL [+ encoded query] + TIMESTAMP [+ body]
//
// The query is present only when the request carries one (GET requests always
// do, even if empty) and is encoded with sorted keys. The body is appended only
// when it is non-empty.
//
// # Signing
//
// The canonical string is signed with [Sign] using the raw bytes of the
// hex-encoded API key returned by [ParseKey]:
//
//	key, err := signer.ParseKey("deadbeef")
//	token := signer.Sign(key, signer.Canonicalize(http.MethodGet, uri, query, "", ts))
//
// Servers check tokens with [Verify].
package signer
