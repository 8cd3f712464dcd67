package intervals

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/s0up4200/intervals-mcp/config"
)

const (
	instrumentationName = "github.com/s0up4200/intervals-mcp/intervals"

	// basicAuthUser is the fixed username intervals.icu expects with an API key
	basicAuthUser = "API_KEY"

	// DefaultMaxResponseBytes caps how much of a response body is read
	DefaultMaxResponseBytes = 32 << 20
	maxLoggedBody    = 512
)

// Executor issues one authenticated request per call against intervals.icu
type Executor struct {
	clients  *ClientManager
	logger   zerolog.Logger
	maxBytes int

	tracer   trace.Tracer
	meter    metric.Meter
	requests metric.Int64Counter
}

// NewExecutor creates an executor that borrows its HTTP client from clients
func NewExecutor(clients *ClientManager, logger zerolog.Logger, opts ...ExecutorOption) *Executor {
	e := &Executor{
		clients:  clients,
		logger:   logger,
		maxBytes: DefaultMaxResponseBytes,
		tracer:   otel.Tracer(instrumentationName),
		meter:    otel.Meter(instrumentationName),
	}
	for _, opt := range opts {
		opt(e)
	}

	requests, err := e.meter.Int64Counter(
		"intervals.requests",
		metric.WithDescription("Number of intervals.icu API requests by outcome"),
	)
	if err != nil {
		logger.Warn().Err(err).Msg("Failed to create request counter")
	}
	e.requests = requests

	return e
}

// Execute performs the request described by spec. It never panics or
// returns an error; every outcome is reported through the Result.
func (e *Executor) Execute(ctx context.Context, cfg config.Config, spec RequestSpec) Result {
	method := spec.method()
	requestID := uuid.NewString()
	start := time.Now()

	ctx, span := e.tracer.Start(ctx, "intervals "+method,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.request.method", method),
			attribute.String("intervals.path", spec.Path),
			attribute.String("intervals.request_id", requestID),
		),
	)
	defer span.End()

	logger := e.logger.With().
		Str("request_id", requestID).
		Str("method", method).
		Str("path", spec.Path).
		Logger()

	res, status := e.do(ctx, cfg, spec, method, logger)

	outcome := "success"
	if f := res.Failure(); f != nil {
		outcome = "failure"
		span.SetStatus(codes.Error, f.Message)
		logger.Warn().
			Int("status", status).
			Dur("elapsed", time.Since(start)).
			Str("message", f.Message).
			Msg("intervals.icu request failed")
	} else {
		logger.Debug().
			Int("status", status).
			Dur("elapsed", time.Since(start)).
			Msg("intervals.icu request succeeded")
	}
	if status != 0 {
		span.SetAttributes(attribute.Int("http.response.status_code", status))
	}

	if e.requests != nil {
		e.requests.Add(ctx, 1, metric.WithAttributes(
			attribute.String("method", method),
			attribute.Int("status_code", status),
			attribute.String("outcome", outcome),
		))
	}

	return res
}

// do performs the request and returns the result plus the HTTP status
// received, or 0 when no response arrived.
func (e *Executor) do(ctx context.Context, cfg config.Config, spec RequestSpec, method string, logger zerolog.Logger) (Result, int) {
	apiKey := strings.TrimSpace(spec.APIKey)
	if apiKey == "" {
		apiKey = cfg.Intervals.APIKey
	}

	target, err := buildURL(cfg.Intervals.BaseURL, spec.Path, spec.Query)
	if err != nil {
		logger.Debug().Err(err).Msg("Rejected request")
		return Fail(InvalidInput("%v", err)), 0
	}

	var body io.Reader
	if spec.Body != nil {
		data, err := json.Marshal(spec.Body)
		if err != nil {
			logger.Debug().Err(err).Msg("Failed to encode request body")
			return Fail(InvalidInput("request body could not be encoded as JSON")), 0
		}
		body = bytes.NewReader(data)
	}

	client, err := e.clients.Acquire()
	if err != nil {
		return Fail(failureWithoutStatus("HTTP client is closed: the server is shutting down")), 0
	}

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return Fail(InvalidInput("could not build %s request", method)), 0
	}
	req.SetBasicAuth(basicAuthUser, apiKey)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := client.Do(req)
	if err != nil {
		logger.Debug().Err(err).Msg("Transport error")
		return Fail(failureWithoutStatus(e.describeTransportError(ctx, err))), 0
	}
	defer func() {
		// Drain so the connection can go back to the pool
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, int64(e.maxBytes)))
		resp.Body.Close()
	}()

	data, err := io.ReadAll(io.LimitReader(resp.Body, int64(e.maxBytes)+1))
	if err != nil {
		logger.Debug().Err(err).Msg("Failed to read response body")
		return Fail(failureWithoutStatus(e.describeTransportError(ctx, err))), resp.StatusCode
	}
	if len(data) > e.maxBytes {
		logger.Debug().Int("status", resp.StatusCode).Int("limit", e.maxBytes).Msg("Response body too large")
		return Fail(newFailure(resp.StatusCode, fmt.Sprintf(
			"Response too large: intervals.icu returned more than %d bytes", e.maxBytes))), resp.StatusCode
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		logger.Debug().
			Int("status", resp.StatusCode).
			Str("body", truncate(string(data), maxLoggedBody)).
			Msg("intervals.icu returned an error status")
		return Fail(Classify(resp.StatusCode, string(data))), resp.StatusCode
	}

	if len(bytes.TrimSpace(data)) == 0 {
		return Success(nil), resp.StatusCode
	}

	payload, err := decodePayload(data)
	if err != nil {
		logger.Debug().Err(err).Str("body", truncate(string(data), maxLoggedBody)).Msg("Malformed response body")
		return Fail(newFailure(resp.StatusCode, "Malformed response body: intervals.icu returned data that is not valid JSON")), resp.StatusCode
	}

	return Success(payload), resp.StatusCode
}

// decodePayload decodes a JSON document. Integers that fit in int64 keep
// full precision; every other number becomes a float64.
func decodePayload(data []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var payload any
	if err := dec.Decode(&payload); err != nil {
		return nil, err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, errors.New("unexpected data after JSON value")
	}
	return convertNumbers(payload), nil
}

func convertNumbers(v any) any {
	switch val := v.(type) {
	case map[string]any:
		for k, item := range val {
			val[k] = convertNumbers(item)
		}
		return val
	case []any:
		for i, item := range val {
			val[i] = convertNumbers(item)
		}
		return val
	case json.Number:
		if n, err := val.Int64(); err == nil {
			return n
		}
		if f, err := val.Float64(); err == nil {
			return f
		}
		return val.String()
	default:
		return v
	}
}

// describeTransportError turns a client error into a user-facing message
// without leaking the raw error text.
func (e *Executor) describeTransportError(ctx context.Context, err error) string {
	if errors.Is(ctx.Err(), context.Canceled) {
		return "Request cancelled before intervals.icu responded"
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return fmt.Sprintf("Network error: could not resolve host %s", dnsErr.Name)
	}

	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return fmt.Sprintf("Request timed out after %s waiting for intervals.icu", e.clients.Timeout())
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) && opErr.Op == "dial" {
		return "Network error: could not connect to intervals.icu"
	}

	return "Network error: the request to intervals.icu failed before a response was received"
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
