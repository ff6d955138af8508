package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/fyrsmithlabs/taskflow/internal/config"
	"github.com/fyrsmithlabs/taskflow/internal/logging"
)

const (
	// HeaderRequestID carries the per-call request id.
	HeaderRequestID = "X-Request-ID"

	// maxBodySize bounds how much of a response is read.
	maxBodySize = 8 << 20
)

// Client calls the remote service. It is safe for concurrent use.
type Client struct {
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
	logger  *logging.Logger
	tracer  trace.Tracer
	meters  metric.MeterProvider
	metrics *clientMetrics
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets the underlying HTTP client. Its transport is where
// the session credential is attached.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithRateLimit limits outbound calls to r per second with the given burst.
// A non-positive r disables limiting.
func WithRateLimit(r float64, burst int) Option {
	return func(c *Client) {
		if r <= 0 {
			c.limiter = rate.NewLimiter(rate.Inf, 0)
			return
		}
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(r), burst)
	}
}

// WithLogger sets the client logger.
func WithLogger(l *logging.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithTracerProvider sets where spans are recorded.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(c *Client) {
		if tp != nil {
			c.tracer = tp.Tracer(instrumentationName)
		}
	}
}

// WithMeterProvider sets where request metrics are recorded.
func WithMeterProvider(mp metric.MeterProvider) Option {
	return func(c *Client) {
		c.meters = mp
	}
}

// New creates a client for the service rooted at baseURL.
func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid base URL %q: scheme must be http or https", baseURL)
	}

	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: config.DefaultTimeout},
		limiter: rate.NewLimiter(rate.Limit(config.DefaultRateLimit), config.DefaultBurst),
		logger:  logging.Nop(),
		tracer:  otel.Tracer(instrumentationName),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.metrics = newClientMetrics(c.meters, c.logger)
	return c, nil
}

// NewFromConfig creates a client from the api config section. transport
// wraps the default transport, typically a session.Transport.
func NewFromConfig(cfg config.APIConfig, transport http.RoundTripper, opts ...Option) (*Client, error) {
	base := []Option{
		WithHTTPClient(&http.Client{Timeout: cfg.Timeout.Duration(), Transport: transport}),
		WithRateLimit(cfg.RateLimit, cfg.Burst),
	}
	return New(cfg.BaseURL, append(base, opts...)...)
}

// BaseURL returns the service root.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// do sends in as JSON and decodes the response into out when out is non-nil.
func (c *Client) do(ctx context.Context, op, method, path string, in, out any) error {
	body, err := c.send(ctx, op, method, path, in)
	if err != nil {
		return err
	}
	if out == nil || len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return &Error{Kind: KindUnknown, Op: op, Err: fmt.Errorf("decoding response: %w", err)}
	}
	return nil
}

// send performs one call and returns the raw 2xx body.
func (c *Client) send(ctx context.Context, op, method, path string, in any) (_ []byte, err error) {
	requestID := uuid.NewString()
	ctx = logging.WithRequestID(logging.WithOperation(ctx, op), requestID)

	ctx, span := c.tracer.Start(ctx, "api."+op, trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()
	span.SetAttributes(
		attribute.String("http.request.method", method),
		attribute.String("url.path", path),
		attribute.String("request.id", requestID),
	)

	start := time.Now()
	c.metrics.begin(ctx)
	status := 0
	defer func() {
		outcome := "ok"
		var e *Error
		if errors.As(err, &e) {
			outcome = e.Kind.String()
			span.RecordError(err)
			span.SetStatus(codes.Error, outcome)
		}
		c.metrics.end(ctx, op, method, outcome, time.Since(start))
		c.logger.Debug(ctx, "api call",
			zap.String("method", method),
			zap.String("path", path),
			zap.Int("status", status),
			zap.Duration("duration", time.Since(start)),
			zap.String("outcome", outcome),
		)
	}()

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, &Error{Kind: KindNetwork, Op: op, Err: fmt.Errorf("rate limiter: %w", err)}
	}

	var reader io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return nil, &Error{Kind: KindUnknown, Op: op, Err: fmt.Errorf("encoding request: %w", err)}
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, &Error{Kind: KindUnknown, Op: op, Err: fmt.Errorf("creating request: %w", err)}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set(HeaderRequestID, requestID)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &Error{Kind: KindNetwork, Op: op, Err: err}
	}
	defer resp.Body.Close()
	status = resp.StatusCode
	span.SetAttributes(attribute.Int("http.response.status_code", status))

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, &Error{Kind: KindNetwork, Status: status, Op: op, Err: fmt.Errorf("reading response: %w", err)}
	}
	if status < 200 || status > 299 {
		return nil, responseError(op, status, body)
	}
	return body, nil
}
