// Package llnw exposes the signed API client builder.
package llnw

import (
	"github.com/adamwoolhether/llnw/client"
)

// NewClient instantiates a new *client.Client for cfg with the provided options.
// If not specified, a fresh http.Client over http.DefaultTransport is used.
func NewClient(cfg client.Config, opts ...client.Option) (*client.Client, error) {
	return client.Build(cfg, opts...)
}
