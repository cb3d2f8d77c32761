// Package http_client provides the HTTP client shared by the task kinds that
// talk to remote services.
package http_client

import (
	"net/http"
	"sync"
	"time"

	"resty.dev/v3"
)

// DefaultTimeout bounds a single request when the task sets no timeout of
// its own.
const DefaultTimeout = 30 * time.Second

var (
	sharedOnce   sync.Once
	sharedClient *resty.Client
)

// New returns a client with pooled connections and the given request timeout.
func New(timeout time.Duration) *resty.Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return resty.New().
		SetTimeout(timeout).
		SetTransport(&http.Transport{
			Proxy:               http.ProxyFromEnvironment,
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
		})
}

// Shared returns a process-wide client so tasks reuse TCP connections.
func Shared() *resty.Client {
	sharedOnce.Do(func() {
		sharedClient = New(DefaultTimeout)
	})
	return sharedClient
}

// Or returns c, or the shared client when c is nil.
func Or(c *resty.Client) *resty.Client {
	if c != nil {
		return c
	}
	return Shared()
}
