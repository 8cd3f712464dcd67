package intervals

import (
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// ClientManager owns the single pooled HTTP client shared by every request.
type ClientManager struct {
	mu     sync.Mutex
	opts   clientOptions
	client *http.Client
	closed bool
	logger zerolog.Logger
}

// NewClientManager creates a manager. The client itself is built lazily on
// the first Acquire.
func NewClientManager(logger zerolog.Logger, opts ...Option) *ClientManager {
	o := defaultClientOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &ClientManager{
		opts:   o,
		logger: logger,
	}
}

// Acquire returns the shared client, creating it on first use. It fails
// with ErrClientClosed once Release has been called.
func (m *ClientManager) Acquire() (*http.Client, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil, ErrClientClosed
	}
	if m.client != nil {
		return m.client, nil
	}

	base := m.opts.transport
	if base == nil {
		base = newPooledTransport(m.opts.timeout)
	}

	m.client = &http.Client{
		Timeout: m.opts.timeout,
		Transport: &headerTransport{
			base:      base,
			userAgent: m.opts.userAgent,
		},
	}

	m.logger.Debug().
		Dur("timeout", m.opts.timeout).
		Str("user_agent", m.opts.userAgent).
		Msg("Created shared HTTP client")

	return m.client, nil
}

// Release closes the connection pool. Calling it more than once is a no-op.
func (m *ClientManager) Release() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil
	}
	m.closed = true

	if m.client != nil {
		m.client.CloseIdleConnections()
		m.logger.Debug().Msg("Released shared HTTP client")
	}
	return nil
}

// Timeout returns the per-request timeout of the shared client
func (m *ClientManager) Timeout() time.Duration {
	return m.opts.timeout
}

func newPooledTransport(timeout time.Duration) *http.Transport {
	t := http.DefaultTransport.(*http.Transport).Clone()
	t.DialContext = (&net.Dialer{
		Timeout:   timeout,
		KeepAlive: 30 * time.Second,
	}).DialContext
	t.TLSHandshakeTimeout = timeout
	t.MaxIdleConnsPerHost = 10
	return t
}

// headerTransport sets the fixed headers on every outgoing request
type headerTransport struct {
	base      http.RoundTripper
	userAgent string
}

func (t *headerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	if req.Header.Get("User-Agent") == "" {
		req.Header.Set("User-Agent", t.userAgent)
	}
	if req.Header.Get("Accept") == "" {
		req.Header.Set("Accept", "application/json")
	}
	return t.base.RoundTrip(req)
}

func (t *headerTransport) CloseIdleConnections() {
	if c, ok := t.base.(interface{ CloseIdleConnections() }); ok {
		c.CloseIdleConnections()
	}
}
