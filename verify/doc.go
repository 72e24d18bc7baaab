// Package verify authenticates requests signed with the scheme implemented by
// [github.com/adamwoolhether/llnw/client/signer].
//
// It is the server half of the client package: a [Verifier] recomputes the
// canonical string of an incoming request, checks the token against the
// principal's key, and rejects timestamps outside the allowed skew.
//
//	v, err := verify.New(verify.StaticKeys{"alice": "deadbeef"},
//		verify.WithMaxSkew(time.Minute),
//	)
//	http.Handle("/svc/v1/", v.Middleware(apiHandler))
package verify
