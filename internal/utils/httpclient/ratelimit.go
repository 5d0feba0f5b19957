package httpclient

import (
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

const (
	// DefaultRateLimit is the default maximum registry requests per second
	DefaultRateLimit = 10.0
	// DefaultTimeout bounds a single outbound request
	DefaultTimeout = 30 * time.Second
)

// Doer is the transport contract consumed by the registry gateway
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// RateLimitedClient wraps an HTTP client with a token bucket limiter
type RateLimitedClient struct {
	client  Doer
	limiter *rate.Limiter
}

// NewRateLimitedClient creates a proxy-aware client limited to requestsPerSecond.
// Non-positive values fall back to DefaultRateLimit and DefaultTimeout.
func NewRateLimitedClient(requestsPerSecond float64, timeout time.Duration, logger *logrus.Logger) *RateLimitedClient {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return WrapRateLimited(NewHTTPClientWithProxy(timeout, logger), requestsPerSecond)
}

// WrapRateLimited applies rate limiting to an existing client
func WrapRateLimited(client Doer, requestsPerSecond float64) *RateLimitedClient {
	if requestsPerSecond <= 0 {
		requestsPerSecond = DefaultRateLimit
	}
	return &RateLimitedClient{
		client:  client,
		limiter: rate.NewLimiter(rate.Limit(requestsPerSecond), 1), // Allow burst of 1
	}
}

// Do waits for the limiter using the request's context, then sends the request
func (c *RateLimitedClient) Do(req *http.Request) (*http.Response, error) {
	if err := c.limiter.Wait(req.Context()); err != nil {
		return nil, err
	}
	return c.client.Do(req)
}
