package client

import (
	"bytes"
	"context"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"slices"
	"strings"
)

// Params describes a single API call.
//
// Query is sent as the query string of GET requests; Body is sent as the
// payload of POST and PUT requests. Neither is sent with DELETE.
type Params struct {
	Endpoint string
	Method   string
	Query    url.Values
	Body     string
}

// Descriptor is the fully built and signed request. In dry-run mode it is
// what the call resolves with; otherwise it is what goes on the wire.
type Descriptor struct {
	Method    string
	URI       string
	Query     url.Values
	Body      string
	Headers   http.Header
	Timestamp int64
	RequestID string
}

// URL returns URI with the encoded query appended, if any.
func (d *Descriptor) URL() string {
	if len(d.Query) == 0 {
		return d.URI
	}
	return d.URI + "?" + d.Query.Encode()
}

// httpRequest converts the descriptor into an *http.Request.
func (d *Descriptor) httpRequest(ctx context.Context) (*http.Request, error) {
	var body io.Reader
	if d.Body != "" {
		body = strings.NewReader(d.Body)
	}

	req, err := http.NewRequestWithContext(ctx, d.Method, d.URL(), body)
	if err != nil {
		return nil, fmt.Errorf("instantiating request: %w", err)
	}

	req.Header = d.Headers.Clone()

	return req, nil
}

func cloneValues(v url.Values) url.Values {
	out := make(url.Values, len(v))
	for k, vals := range v {
		out[k] = slices.Clone(vals)
	}
	return out
}

// Response is the outcome of a successful call.
type Response struct {
	// StatusCode is zero for dry runs.
	StatusCode int
	// Body is the decoded JSON document for the json format, the raw body
	// string for xml, and nil when the response was empty.
	Body any
	// Raw is the undecoded response body.
	Raw string
	// Request is the signed descriptor that produced this response.
	Request *Descriptor

	format Format
}

// DryRun reports whether the response was produced without network I/O.
func (r *Response) DryRun() bool {
	return r.StatusCode == 0
}

// Decode unmarshals the raw body into dest according to the client format.
// dest must be a pointer.
func (r *Response) Decode(dest any) error {
	if r.Raw == "" {
		return ErrNoBody
	}

	var err error
	switch r.format {
	case FormatXML:
		err = xml.NewDecoder(bytes.NewReader([]byte(r.Raw))).Decode(dest)
	default:
		err = json.Unmarshal([]byte(r.Raw), dest)
	}
	if err != nil {
		return &DecodeError{Raw: r.Raw, Err: err}
	}

	return nil
}
