// Package fetch wraps an outbound HTTP client for remote resources the
// gateway needs at print time (logo bitmap, remote order lookup).
package fetch

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
)

// Client downloads remote resources with a bounded timeout and a capped
// redirect chain. InsecureTLS is an explicit development opt-in for
// self-signed endpoints.
type Client struct {
	http *resty.Client
}

// Config tunes the outbound client.
type Config struct {
	Timeout      time.Duration
	MaxRedirects int
	InsecureTLS  bool
}

// New creates a fetch client.
func New(cfg Config) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.MaxRedirects <= 0 {
		cfg.MaxRedirects = 5
	}

	c := resty.New().
		SetTimeout(cfg.Timeout).
		SetRedirectPolicy(resty.FlexibleRedirectPolicy(cfg.MaxRedirects))
	if cfg.InsecureTLS {
		c.SetTLSClientConfig(&tls.Config{InsecureSkipVerify: true})
	}
	return &Client{http: c}
}

// Bytes fetches a resource and returns its body.
func (c *Client) Bytes(ctx context.Context, url string) ([]byte, error) {
	resp, err := c.http.R().SetContext(ctx).Get(url)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", url, err)
	}
	if !resp.IsSuccess() {
		return nil, fmt.Errorf("fetch %s: status %d", url, resp.StatusCode())
	}
	return resp.Body(), nil
}

// JSON fetches a resource and unmarshals its body into out.
func (c *Client) JSON(ctx context.Context, url string, out interface{}) error {
	body, err := c.Bytes(ctx, url)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("fetch %s: decode: %w", url, err)
	}
	return nil
}
