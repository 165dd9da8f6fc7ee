package connector

import (
	"net/http"
	"time"
)

// settings carries adapter tunables shared across the factory's variants.
type settings struct {
	httpClient   *http.Client
	timeout      time.Duration
	broker       *Broker
	poolMaxConns int32
	bufferSize   int
}

func defaultSettings() settings {
	return settings{
		httpClient:   &http.Client{Timeout: 15 * time.Second},
		timeout:      10 * time.Second,
		poolMaxConns: 4,
		bufferSize:   256,
	}
}

// Option applies a configuration option to an adapter.
type Option func(*settings)

// WithHTTPClient sets the HTTP client used by REST-backed adapters.
func WithHTTPClient(c *http.Client) Option {
	return func(s *settings) {
		if c != nil {
			s.httpClient = c
		}
	}
}

// WithTimeout bounds individual backend calls.
func WithTimeout(d time.Duration) Option {
	return func(s *settings) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// WithBroker attaches the bus adapter to an existing broker. Without it the
// adapter creates a private one.
func WithBroker(b *Broker) Option {
	return func(s *settings) {
		if b != nil {
			s.broker = b
		}
	}
}

// WithPoolMaxConns caps the relational adapter's connection pool.
func WithPoolMaxConns(n int32) Option {
	return func(s *settings) {
		if n > 0 {
			s.poolMaxConns = n
		}
	}
}

// WithBufferSize sets the bus adapter's per-subscription buffer.
func WithBufferSize(n int) Option {
	return func(s *settings) {
		if n > 0 {
			s.bufferSize = n
		}
	}
}
