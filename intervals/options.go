package intervals

import (
	"net/http"
	"time"

	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const (
	// DefaultTimeout bounds connecting and the whole request/response exchange.
	DefaultTimeout = 30 * time.Second
	// DefaultUserAgent identifies the adapter to intervals.icu.
	DefaultUserAgent = "intervals-mcp/1.0"
)

// Option configures a ClientManager.
type Option func(*clientOptions)

// clientOptions holds configuration options for the shared client.
type clientOptions struct {
	timeout   time.Duration
	userAgent string
	transport http.RoundTripper
}

func defaultClientOptions() clientOptions {
	return clientOptions{
		timeout:   DefaultTimeout,
		userAgent: DefaultUserAgent,
	}
}

// WithTimeout sets the HTTP client timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(o *clientOptions) {
		if timeout > 0 {
			o.timeout = timeout
		}
	}
}

// WithUserAgent sets a custom user agent string.
func WithUserAgent(userAgent string) Option {
	return func(o *clientOptions) {
		if userAgent != "" {
			o.userAgent = userAgent
		}
	}
}

// WithTransport replaces the pooled transport, mostly for tests.
func WithTransport(rt http.RoundTripper) Option {
	return func(o *clientOptions) {
		o.transport = rt
	}
}

// ExecutorOption configures an Executor.
type ExecutorOption func(*Executor)

// WithTracer sets the tracer used for request spans.
func WithTracer(tracer trace.Tracer) ExecutorOption {
	return func(e *Executor) {
		e.tracer = tracer
	}
}

// WithMeter sets the meter used for request counters.
func WithMeter(meter metric.Meter) ExecutorOption {
	return func(e *Executor) {
		e.meter = meter
	}
}

// WithMaxResponseBytes caps the response body size; larger bodies fail.
func WithMaxResponseBytes(n int) ExecutorOption {
	return func(e *Executor) {
		if n > 0 {
			e.maxBytes = n
		}
	}
}
