// Package api is the typed endpoint client for the wallshare backend. Every
// call goes through the gateway, so callers here never see raw transport
// errors: failures come back as the gateway's typed errors and the user has
// already been notified by the time they do.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"wallshare/internal/gateway"
	"wallshare/internal/session"
)

// Client issues typed calls against a backend base URL.
type Client struct {
	gw    *gateway.Gateway
	store session.Store
	base  string
}

// New returns a Client. baseURL must be absolute; a trailing slash is
// tolerated.
func New(gw *gateway.Gateway, store session.Store, baseURL string) (*Client, error) {
	if gw == nil {
		return nil, errors.New("api: gateway is required")
	}
	if store == nil {
		return nil, errors.New("api: session store is required")
	}
	baseURL = strings.TrimRight(baseURL, "/")
	if baseURL == "" {
		return nil, errors.New("api: base URL is required")
	}
	return &Client{gw: gw, store: store, base: baseURL}, nil
}

func (c *Client) url(path string) string {
	return c.base + path
}

// postJSON sends a JSON payload and decodes the response into out (when out
// is non-nil and the call succeeded).
func (c *Client) postJSON(ctx context.Context, method, path string, payload, out any) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}

	opts := gateway.Options{
		Method:  method,
		Headers: http.Header{"Content-Type": []string{"application/json"}},
		Body:    bytes.NewReader(raw),
	}
	res := c.gw.FetchResult(ctx, c.url(path), opts)
	if !res.Success {
		return res.Err
	}
	if out == nil || len(res.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(res.Data, out); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}

// getJSON fetches and decodes a JSON endpoint.
func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	res := c.gw.FetchResult(ctx, c.url(path), gateway.Options{})
	if !res.Success {
		return res.Err
	}
	if out == nil || len(res.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(res.Data, out); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}
