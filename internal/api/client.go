package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"aidoc/middleware"
	"aidoc/pkg/logger"
)

// Options configures a Client.
type Options struct {
	BaseURL    string
	PathPrefix string
	// Timeout of zero keeps http.Client's default (none).
	Timeout time.Duration
	// Transport is the innermost round tripper; nil means http.DefaultTransport.
	Transport http.RoundTripper
}

// Client talks JSON to the document backend. It is safe for concurrent use.
type Client struct {
	baseURL string
	http    *http.Client
}

// New builds a client whose authenticated calls read their bearer token
// from tokens.
func New(opts Options, tokens middleware.TokenSource) *Client {
	return &Client{
		baseURL: strings.TrimRight(opts.BaseURL, "/") + opts.PathPrefix,
		http: &http.Client{
			Timeout:   opts.Timeout,
			Transport: middleware.Chain(tokens, opts.Transport),
		},
	}
}

// URL resolves a backend path against the base URL and prefix.
func (c *Client) URL(path string) string {
	return c.baseURL + path
}

// Do sends method path with body encoded as JSON (nil for none) and decodes
// a JSON response into out (nil to discard). When auth is set and no token
// is stored the call is not made and an AuthFailure is returned.
func (c *Client) Do(ctx context.Context, method, path string, body any, auth bool, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}
	return c.send(ctx, method, path, "application/json", reader, auth, out)
}

// PostForm sends an unauthenticated form-encoded POST, as the token endpoint
// expects.
func (c *Client) PostForm(ctx context.Context, path string, form url.Values, out any) error {
	return c.send(ctx, http.MethodPost, path, "application/x-www-form-urlencoded",
		strings.NewReader(form.Encode()), false, out)
}

func (c *Client) send(ctx context.Context, method, path, contentType string, body io.Reader, auth bool, out any) error {
	if auth {
		ctx = middleware.WithAuth(ctx)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.URL(path), body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		if errors.Is(err, ErrNoToken) {
			return &RequestError{Kind: KindAuth, Message: "Please log in to continue", Err: err}
		}
		logger.Sugar.Errorf("API call error %s %s: %v", method, path, err)
		return &RequestError{Kind: KindNetwork, Message: "Could not reach the server", Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return &RequestError{Kind: KindNetwork, Status: resp.StatusCode, Message: "Could not read the server response", Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		reqErr := &RequestError{
			Kind:    kindForStatus(resp.StatusCode),
			Status:  resp.StatusCode,
			Message: parseErrorMessage(data),
		}
		logger.Sugar.Infof("API call %s %s failed: %d %s", method, path, resp.StatusCode, reqErr.Message)
		return reqErr
	}

	if resp.StatusCode == http.StatusNoContent || out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return &RequestError{Kind: KindServer, Status: resp.StatusCode, Message: "Unexpected response from server", Err: err}
	}
	return nil
}
