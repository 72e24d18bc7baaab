// Package client signs and dispatches requests against LLNW-style REST APIs
// that authenticate callers with an HMAC-SHA256 token.
//
// # Building a Client
//
// Use [Build] with a [Config] and optional functional options:
//
//	c, err := client.Build(client.Config{
//		Host:    "api.example.com",
//		Name:    "svc",
//		Version: "1",
//		User:    "alice",
//		APIKey:  "deadbeef",
//	}, client.WithTimeout(10*time.Second))
//
// Missing host, name or version fails with [ErrMissingEndpointConfig];
// missing user or apiKey fails with [ErrMissingCredentials]. Both are
// logged and returned as a *[ConfigError].
//
// # Making Requests
//
// [Client.Execute] builds and signs the request immediately and returns a
// future that settles once the exchange completes:
//
//	f := c.Execute(ctx, client.Params{
//		Endpoint: "things",
//		Query:    url.Values{"x": {"1"}},
//	})
//	resp, err := f.Get()
//
// Non-2xx responses fail with a *[StatusError], transport failures with a
// *[TransportError], and malformed JSON with a *[DecodeError].
//
// # Dry Runs
//
// With [Config.DryRun] set, no request is sent. The future resolves with a
// [Response] whose Request field holds the signed [Descriptor].
//
// For the signing scheme itself see the
// [github.com/adamwoolhether/llnw/client/signer] package.
package client
