// Package api is the HTTP client for the remote spot service.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/jengzang/spotmap-go/pkg/apperr"
)

// Doer is the outbound-request capability the client is built on.
// *http.Client satisfies it, and AuthTransport decorates it.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client talks to the remote service rooted at baseURL (e.g. http://host/api)
type Client struct {
	baseURL string
	doer    Doer
}

// New creates a client for baseURL using doer for every request
func New(baseURL string, doer Doer) *Client {
	if doer == nil {
		doer = http.DefaultClient
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		doer:    doer,
	}
}

// BaseURL returns the root every endpoint path is appended to
func (c *Client) BaseURL() string {
	return c.baseURL
}

func (c *Client) newRequest(ctx context.Context, method, path string, query url.Values, body any) (*http.Request, error) {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request body: %w", err)
		}
		// bytes.Reader lets http.NewRequest populate GetBody for replays
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return req, nil
}

// do sends req and decodes a JSON answer into out (when out is non-nil)
func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.doer.Do(req)
	if err != nil {
		return apperr.Network(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeError(resp)
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		io.Copy(io.Discard, resp.Body)
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode %s %s response: %w", req.Method, req.URL.Path, err)
	}
	return nil
}

func (c *Client) call(ctx context.Context, method, path string, query url.Values, body, out any) error {
	req, err := c.newRequest(ctx, method, path, query, body)
	if err != nil {
		return err
	}
	return c.do(req, out)
}

// errorBody is the {"detail": ...} shape the service uses for failures.
// detail is a string for most errors and a list for request validation errors.
type errorBody struct {
	Detail json.RawMessage `json:"detail"`
}

func decodeError(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))

	detail := strings.TrimSpace(string(raw))
	var body errorBody
	if json.Unmarshal(raw, &body) == nil && len(body.Detail) > 0 {
		var msg string
		if json.Unmarshal(body.Detail, &msg) == nil {
			detail = msg
		} else {
			detail = string(body.Detail)
		}
	}
	return apperr.FromStatus(resp.StatusCode, detail)
}
