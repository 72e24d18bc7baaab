package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/adamwoolhether/llnw/client/future"
	"github.com/adamwoolhether/llnw/client/metrics"
	"github.com/adamwoolhether/llnw/client/signer"
)

// Client signs and dispatches requests against a single API base URL.
// All fields are set by [Build] and never change afterwards, so a Client
// is safe for concurrent use.
type Client struct {
	c          *http.Client
	logger     Logger
	tracer     trace.Tracer
	metrics    *metrics.Collector
	now        func() time.Time
	useJSONNum bool

	user    string
	key     signer.Key
	format  Format
	debug   bool
	dryRun  bool
	baseURL string
}

// Build validates cfg and returns a ready Client. Validation failures are
// logged and returned as a *[ConfigError]; no Client is returned with them.
func Build(cfg Config, optFns ...Option) (*Client, error) {
	var opts options
	for _, opt := range optFns {
		if err := opt(&opts); err != nil {
			return nil, fmt.Errorf("applying client option: %w", err)
		}
	}

	client := &Client{
		c:          &http.Client{},
		logger:     opts.logger,
		tracer:     opts.tracer,
		metrics:    opts.metrics,
		now:        opts.now,
		useJSONNum: opts.useJSONNum,
	}
	if client.logger == nil {
		client.logger = NewDefaultLogger(cfg.Debug)
	}
	if client.tracer == nil {
		client.tracer = noop.NewTracerProvider().Tracer("no-op tracer")
	}
	if client.now == nil {
		client.now = time.Now
	}

	if err := cfg.Validate(); err != nil {
		client.logger.Error("invalid client config", "error", err)
		return nil, err
	}

	key, err := signer.ParseKey(cfg.APIKey)
	if err != nil {
		cerr := &ConfigError{Err: ErrInvalidConfig, Fields: FieldErrors{{Field: "apiKey", Err: err.Error()}}}
		client.logger.Error("invalid client config", "error", cerr)
		return nil, cerr
	}

	cfg = cfg.withDefaults()
	client.user = cfg.User
	client.key = key
	client.format = cfg.Format
	client.debug = cfg.Debug
	client.dryRun = cfg.DryRun
	client.baseURL = cfg.BaseURL()

	if opts.client != nil {
		client.c = opts.client
	}

	if opts.timeout != nil {
		client.c.Timeout = *opts.timeout
	}

	if opts.noFollowRedirects {
		client.c.CheckRedirect = func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		}
	}

	var transport http.RoundTripper
	switch {
	case opts.rt != nil:
		transport = opts.rt
	case opts.client != nil && opts.client.Transport != nil:
		transport = opts.client.Transport
	default:
		transport = http.DefaultTransport
	}
	if opts.userAgent != "" {
		transport = userAgent{value: opts.userAgent, base: transport}
	}
	client.c.Transport = transport

	return client, nil
}

// BaseURL returns the protocol://host/name/vVERSION/ prefix of every call.
func (c *Client) BaseURL() string {
	if c == nil {
		return ""
	}
	return c.baseURL
}

// Execute signs p and dispatches it. The request is built and signed before
// Execute returns; the exchange runs in the background and settles the
// returned future exactly once. Errors are only ever reported through the
// future. In dry-run mode the future is already resolved with the descriptor.
func (c *Client) Execute(ctx context.Context, p Params) *future.Future[*Response] {
	if c == nil || c.baseURL == "" {
		return future.Rejected[*Response](ErrNotConfigured)
	}

	d, err := c.describe(p)
	if err != nil {
		c.logger.Error("building request", "endpoint", p.Endpoint, "error", err)
		c.metrics.RecordOutcome(unsupportedMethodLabel, metrics.OutcomeRejected)
		return future.Rejected[*Response](err)
	}

	if c.dryRun {
		c.debugLog("dry run", "requestID", d.RequestID, "method", d.Method, "uri", d.URI)
		c.metrics.RecordOutcome(d.Method, metrics.OutcomeDryRun)
		return future.Resolved(&Response{Request: d, format: c.format})
	}

	return future.Go(ctx, func(ctx context.Context) (*Response, error) {
		return c.exec(ctx, d)
	})
}

// ExecuteAll issues every call concurrently and returns a group tracking them.
// The futures in the group are in the same order as params.
func (c *Client) ExecuteAll(ctx context.Context, params ...Params) *future.Group[*Response] {
	var g future.Group[*Response]
	for _, p := range params {
		g.Add(c.Execute(ctx, p))
	}

	return &g
}

// unsupportedMethodLabel is the metrics method label for calls rejected
// before a method was accepted.
const unsupportedMethodLabel = "unsupported"

// describe builds and signs the descriptor for p. The timestamp is read once
// and used for both the header and the signature.
func (c *Client) describe(p Params) (*Descriptor, error) {
	method := strings.ToUpper(p.Method)
	if method == "" {
		method = http.MethodGet
	}

	switch method {
	case http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete:
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedMethod, p.Method)
	}

	uri := c.baseURL + p.Endpoint
	c.debugLog("API base", "uri", uri)

	ts := signer.Timestamp(c.now())

	d := &Descriptor{
		Method:    method,
		URI:       uri,
		Headers:   make(http.Header),
		Timestamp: ts,
		RequestID: uuid.NewString(),
	}

	d.Headers.Set(signer.HeaderPrincipal, c.user)
	d.Headers.Set(signer.HeaderTimestamp, strconv.FormatInt(ts, 10))
	d.Headers.Set("Content-Type", c.format.mediaType())
	d.Headers.Set("Accept", c.format.mediaType())

	switch method {
	case http.MethodGet:
		d.Query = cloneValues(p.Query)
	case http.MethodPost, http.MethodPut:
		d.Body = p.Body
	}

	canonical := signer.Canonicalize(d.Method, d.URI, d.Query, d.Body, ts)
	d.Headers.Set(signer.HeaderToken, signer.Sign(c.key, canonical))

	return d, nil
}

// exec performs the exchange for d and normalizes the outcome.
func (c *Client) exec(ctx context.Context, d *Descriptor) (*Response, error) {
	ctx, span := c.tracer.Start(ctx, "llnw.execute", trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()
	span.SetAttributes(
		attribute.String("http.method", d.Method),
		attribute.String("http.url", d.URI),
		attribute.String("llnw.request_id", d.RequestID),
	)

	req, err := d.httpRequest(ctx)
	if err != nil {
		terr := &TransportError{Err: err}
		span.RecordError(err)
		span.SetStatus(codes.Error, ErrTransport.Error())
		c.logger.Error("building http request", "requestID", d.RequestID, "uri", d.URI, "error", err)
		c.metrics.RecordOutcome(d.Method, metrics.OutcomeRejected)
		return nil, terr
	}
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))

	c.debugLog("request headers", "requestID", d.RequestID, "headers", formatHeaders(req.Header))

	start := time.Now()
	c.metrics.RecordStart(d.Method)

	outcome := metrics.OutcomeSuccess
	defer func() {
		c.metrics.RecordEnd(d.Method, outcome, time.Since(start))
	}()

	resp, err := c.c.Do(req)
	if err != nil {
		outcome = metrics.OutcomeTransport
		terr := &TransportError{Err: err}
		span.RecordError(err)
		span.SetStatus(codes.Error, ErrTransport.Error())
		c.logger.Error("exec http do", "requestID", d.RequestID, "error", err)
		return nil, terr
	}

	defer func() {
		if _, err := io.Copy(io.Discard, resp.Body); err != nil {
			c.logger.Error("failed to discard unused body", "error", err)
		}
		if err := resp.Body.Close(); err != nil {
			c.logger.Error("failed to close response body", "error", err)
		}
	}()

	c.metrics.RecordStatus(d.Method, resp.StatusCode)
	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		outcome = metrics.OutcomeStatus
		serr := c.statusError(resp)
		span.SetStatus(codes.Error, serr.Err.Error())
		c.logger.Error("request failed", "requestID", d.RequestID, "status", resp.StatusCode, "body", serr.Raw)
		return nil, serr
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		outcome = metrics.OutcomeTransport
		terr := &TransportError{Err: fmt.Errorf("reading body: %w", err)}
		span.RecordError(err)
		c.logger.Error("reading response body", "requestID", d.RequestID, "error", err)
		return nil, terr
	}

	out := &Response{
		StatusCode: resp.StatusCode,
		Raw:        string(raw),
		Request:    d,
		format:     c.format,
	}

	if c.format != FormatJSON {
		if len(raw) > 0 {
			out.Body = out.Raw
		}
		c.debugLog("Response: "+out.Raw, "requestID", d.RequestID)
		return out, nil
	}

	body, err := c.decodeJSON(raw)
	if err != nil {
		outcome = metrics.OutcomeDecode
		derr := &DecodeError{Raw: out.Raw, Err: err}
		span.RecordError(derr)
		span.SetStatus(codes.Error, ErrDecode.Error())
		c.logger.Error("decoding response", "requestID", d.RequestID, "error", err)
		return nil, derr
	}
	out.Body = body

	if c.debug {
		pretty, _ := json.MarshalIndent(body, "", "    ")
		c.debugLog("Response: "+string(pretty), "requestID", d.RequestID)
	}

	return out, nil
}

// statusError reads a capped error body and builds a *StatusError from it.
func (c *Client) statusError(resp *http.Response) *StatusError {
	b, err := io.ReadAll(io.LimitReader(resp.Body, maxErrBodySize))
	if err != nil {
		b = []byte("unable to read body")
	}

	serr := &StatusError{
		StatusCode: resp.StatusCode,
		Raw:        string(b),
		Err:        ErrUnexpectedStatusCode,
	}
	if len(b) > 0 {
		serr.Body = serr.Raw
	}

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		serr.Err = fmt.Errorf("%w: %w", ErrAuthFailure, ErrUnexpectedStatusCode)
	}

	if c.format == FormatJSON && err == nil {
		body, derr := c.decodeJSON(b)
		if derr != nil {
			serr.Err = errors.Join(serr.Err, &DecodeError{Raw: serr.Raw, Err: derr})
		} else {
			serr.Body = body
		}
	}

	return serr
}

// decodeJSON parses raw into a generic value. An empty body decodes to nil.
func (c *Client) decodeJSON(raw []byte) (any, error) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, nil
	}

	d := json.NewDecoder(bytes.NewReader(raw))
	if c.useJSONNum {
		d.UseNumber()
	}

	var v any
	if err := d.Decode(&v); err != nil {
		return nil, err
	}
	if d.More() {
		return nil, errors.New("unexpected data after top-level value")
	}

	return v, nil
}

// debugLog emits msg only when the client was configured with Debug.
func (c *Client) debugLog(msg string, args ...any) {
	if !c.debug {
		return
	}
	c.logger.Debug(msg, args...)
}

func formatHeaders(h http.Header) string {
	b, err := json.MarshalIndent(h, "", "    ")
	if err != nil {
		return fmt.Sprint(h)
	}
	return string(b)
}
