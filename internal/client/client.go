package client

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"

	bridgehttp "github.com/aegis-lab/bridge/internal/api/http"
)

// DefaultTimeout covers a trigger that has to launch the target.
const DefaultTimeout = 30 * time.Second

// Client talks to a running bridge.
type Client struct {
	resty *resty.Client
}

// StatusError is a non-2xx answer from the bridge.
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("bridge returned HTTP %d", e.Code)
	}
	return fmt.Sprintf("bridge returned HTTP %d: %s", e.Code, e.Message)
}

// New creates a client for the bridge at baseURL, e.g. http://127.0.0.1:8999.
func New(baseURL string) *Client {
	r := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(DefaultTimeout).
		SetHeader("X-Requested-With", "aegis-bridge-cli").
		SetHeader("Accept", "application/json")
	return &Client{resty: r}
}

// SetTimeout configures the per-request timeout.
func (c *Client) SetTimeout(d time.Duration) *Client {
	c.resty.SetTimeout(d)
	return c
}

// Status calls GET /status.
func (c *Client) Status(ctx context.Context) (bridgehttp.StatusResponse, error) {
	var out bridgehttp.StatusResponse
	err := c.get(ctx, "/status", &out)
	return out, err
}

// Trigger calls GET /print. A reply with Success false is not an error.
func (c *Client) Trigger(ctx context.Context) (bridgehttp.CommandResponse, error) {
	var out bridgehttp.CommandResponse
	err := c.get(ctx, "/print", &out)
	return out, err
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	failure := &bridgehttp.CommandResponse{}
	resp, err := c.resty.R().
		SetContext(ctx).
		SetResult(out).
		SetError(failure).
		Get(path)
	if err != nil {
		return fmt.Errorf("GET %s: %w", path, err)
	}
	if resp.IsError() {
		return &StatusError{Code: resp.StatusCode(), Message: failure.Message}
	}
	return nil
}
