package http

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// Client wraps HTTP operations with qobuz-dl defaults: a stable
// User-Agent and a connection timeout suitable for large media
// payloads.
type Client struct {
	httpClient *http.Client
	userAgent  string
}

// NewClient creates a new HTTP client.
func NewClient() *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
		userAgent: "qobuz-dl",
	}
}

// Get performs a GET request and returns the response body as bytes.
// Use this for small payloads (API responses, cover art); stream media
// payloads with Stream instead.
func (c *Client) Get(ctx context.Context, rawURL string) ([]byte, error) {
	return c.GetWithHeaders(ctx, rawURL, nil, nil)
}

// GetWithHeaders performs a GET request with extra query values and
// headers, returning the body bytes. The catalog client uses this for
// authenticated API calls.
func (c *Client) GetWithHeaders(ctx context.Context, rawURL string, query url.Values, headers map[string]string) ([]byte, error) {
	if len(query) > 0 {
		rawURL = rawURL + "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", c.userAgent)
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, resp.Status)
	}

	return io.ReadAll(resp.Body)
}

// Stream opens a streaming GET connection and hands the body back to
// the caller along with the declared content length (-1 when unknown).
// The caller owns the body and must close it.
func (c *Client) Stream(ctx context.Context, rawURL string) (io.ReadCloser, int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, 0, err
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, err
	}

	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, 0, fmt.Errorf("HTTP %d: %s", resp.StatusCode, resp.Status)
	}

	return resp.Body, resp.ContentLength, nil
}
