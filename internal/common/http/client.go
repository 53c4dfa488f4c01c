// Package http wraps the stdlib client for the engine's outbound calls
// (search provider, composer) and owns the timeout classification those
// callers share.
package http

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strings"
	"time"
)

type Client struct {
	httpClient *http.Client
}

func NewClient(timeout time.Duration) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

func (c *Client) Do(req *http.Request) (*http.Response, error) {
	return c.httpClient.Do(req)
}

// IsTimeout reports whether an error returned by Do is a client-side
// timeout or context deadline, as opposed to a protocol or payload failure.
func IsTimeout(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	// url.Error wrapping loses the net.Error type in some paths; fall back
	// to the messages the stdlib client emits.
	msg := err.Error()
	return strings.Contains(msg, "Client.Timeout") || strings.Contains(msg, "deadline")
}
