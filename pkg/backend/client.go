package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const maxResponseBytes = 8 << 20

// ErrUnavailable indicates the backend could not be reached at all.
var ErrUnavailable = errors.New("cannot connect to backend")

var (
	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "peerreview",
		Subsystem: "backend",
		Name:      "requests_total",
		Help:      "Requests sent to the peer review backend API.",
	}, []string{"method", "status"})

	requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "peerreview",
		Subsystem: "backend",
		Name:      "request_duration_seconds",
		Help:      "Latency of requests sent to the peer review backend API.",
		Buckets:   []float64{0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
	}, []string{"method"})
)

// Request is a single call against a backend sub-resource.
type Request struct {
	Method string
	Path   string
	Body   interface{}
}

// Response carries the raw status and body returned by the backend.
type Response struct {
	StatusCode int
	Body       []byte
}

// OK reports whether the backend answered with a 2xx status.
func (r Response) OK() bool {
	return r.StatusCode >= http.StatusOK && r.StatusCode < http.StatusMultipleChoices
}

// Transport sends requests to the backend API.
type Transport interface {
	Do(ctx context.Context, req Request) (Response, error)
}

// Config configures the HTTP transport.
type Config struct {
	BaseURL    string
	Timeout    time.Duration
	HTTPClient *http.Client
	Logger     zerolog.Logger
}

// Client implements Transport over HTTP with JSON bodies.
type Client struct {
	baseURL string
	http    *http.Client
	logger  zerolog.Logger
	tracer  trace.Tracer
}

// New builds a backend client from the given configuration.
func New(cfg Config) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		return nil, fmt.Errorf("backend base url must not be empty")
	}
	parsed, err := url.Parse(base)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return nil, fmt.Errorf("invalid backend base url %q", cfg.BaseURL)
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	return &Client{
		baseURL: base,
		http:    httpClient,
		logger:  cfg.Logger.With().Str("component", "backend_client").Logger(),
		tracer:  otel.Tracer("github.com/noah-isme/peer-review-dashboard/pkg/backend"),
	}, nil
}

// Do sends the request and returns the raw response. Non-2xx statuses are not errors;
// only transport failures are, and those wrap ErrUnavailable.
func (c *Client) Do(parent context.Context, req Request) (Response, error) {
	ctx, span := c.tracer.Start(parent, "backend.request", trace.WithAttributes(
		attribute.String("http.method", req.Method),
		attribute.String("backend.path", req.Path),
	))
	defer span.End()

	var body io.Reader
	if req.Body != nil {
		payload, err := json.Marshal(req.Body)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "encode failed")
			return Response{}, fmt.Errorf("encode request body: %w", err)
		}
		body = bytes.NewReader(payload)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, c.baseURL+req.Path, body)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "build failed")
		return Response{}, fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Accept", "application/json")
	if body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	requestID := RequestIDFromContext(ctx)
	if requestID == "" {
		requestID = uuid.NewString()
	}
	httpReq.Header.Set("X-Request-ID", requestID)

	start := time.Now()
	resp, err := c.http.Do(httpReq)
	requestDuration.WithLabelValues(req.Method).Observe(time.Since(start).Seconds())
	if err != nil {
		requestsTotal.WithLabelValues(req.Method, "error").Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, "transport failed")
		c.logger.Warn().Err(err).Str("method", req.Method).Str("path", req.Path).Str("request_id", requestID).Msg("backend request failed")
		return Response{}, fmt.Errorf("%w: %s %s: %w", ErrUnavailable, req.Method, req.Path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		requestsTotal.WithLabelValues(req.Method, "error").Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, "read failed")
		return Response{}, fmt.Errorf("%w: read response: %w", ErrUnavailable, err)
	}

	requestsTotal.WithLabelValues(req.Method, strconv.Itoa(resp.StatusCode)).Inc()
	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))
	if resp.StatusCode >= http.StatusBadRequest {
		span.SetStatus(codes.Error, http.StatusText(resp.StatusCode))
	}

	c.logger.Debug().
		Str("method", req.Method).
		Str("path", req.Path).
		Int("status", resp.StatusCode).
		Str("request_id", requestID).
		Msg("backend request completed")

	return Response{StatusCode: resp.StatusCode, Body: data}, nil
}

// ErrorMessage extracts a human readable message from a JSON error body.
// It prefers "error", then "message", and returns fallback otherwise.
func ErrorMessage(body []byte, fallback string) string {
	var payload map[string]interface{}
	if err := json.Unmarshal(body, &payload); err != nil {
		return fallback
	}
	for _, key := range []string{"error", "message"} {
		if value, ok := payload[key].(string); ok && strings.TrimSpace(value) != "" {
			return strings.TrimSpace(value)
		}
	}
	return fallback
}

type requestIDKey struct{}

// WithRequestID attaches an id forwarded as X-Request-ID on outgoing calls.
func WithRequestID(ctx context.Context, id string) context.Context {
	if strings.TrimSpace(id) == "" {
		return ctx
	}
	return context.WithValue(ctx, requestIDKey{}, strings.TrimSpace(id))
}

// RequestIDFromContext returns the id set by WithRequestID, if any.
func RequestIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if id, ok := ctx.Value(requestIDKey{}).(string); ok {
		return id
	}
	return ""
}
