package httputil

import (
	"net/http"
	"time"
)

// ClientConfig holds standard client configuration used across REST clients.
// This eliminates duplication of client creation logic.
type ClientConfig struct {
	// Timeout is the request timeout. Zero means use default.
	Timeout time.Duration

	// HTTPClient is the base HTTP client to use. If nil, a default client
	// with DefaultTransportWithMinTLS12 is created.
	HTTPClient *http.Client
}

// ClientDefaults holds default values for client configuration.
type ClientDefaults struct {
	Timeout      time.Duration
	MaxBodyBytes int64
}

// DefaultClientDefaults returns standard default values.
func DefaultClientDefaults() ClientDefaults {
	return ClientDefaults{
		Timeout:      30 * time.Second,
		MaxBodyBytes: 1 << 20, // 1MiB
	}
}

// NewClient creates an HTTP client with standardized timeout handling and a
// TLS-1.2-enforcing transport when the caller supplies no HTTPClient.
func NewClient(cfg ClientConfig, defaults ClientDefaults) *http.Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = defaults.Timeout
	}
	forceTimeout := cfg.Timeout != 0

	client := CopyHTTPClientWithTimeout(cfg.HTTPClient, timeout, forceTimeout)
	if cfg.HTTPClient == nil {
		client.Transport = DefaultTransportWithMinTLS12()
	}
	return client
}

// ResolveMaxBodyBytes returns the effective max body size from config and defaults.
func ResolveMaxBodyBytes(cfg int64, defaultBytes int64) int64 {
	if cfg <= 0 {
		return defaultBytes
	}
	return cfg
}
