// Package graph is a small client for the Facebook Graph API: connection
// reads with cursor paging, object reads, form posts and deletes.
package graph

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const maxErrorBody = 64 << 10

// Paging holds the cursors of a connection page. Next and Previous are
// opaque URLs that already carry the access token.
type Paging struct {
	Cursors struct {
		Before string `json:"before"`
		After  string `json:"after"`
	} `json:"cursors"`
	Next     string `json:"next"`
	Previous string `json:"previous"`
}

// Page is one page of a connection.
type Page struct {
	Data   json.RawMessage `json:"data"`
	Paging *Paging         `json:"paging,omitempty"`
}

// NextURL returns the URL of the following page, or "" on the last page.
func (p *Page) NextURL() string {
	if p.Paging == nil {
		return ""
	}
	return p.Paging.Next
}

type envelope struct {
	Error   *Error `json:"error"`
	Success *bool  `json:"success"`
}

// Client talks to the Graph API on behalf of one access token.
type Client struct {
	baseURL     string
	accessToken string
	httpClient  *http.Client
}

// NewHTTPClient returns an instrumented HTTP client for Graph calls.
func NewHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout:   timeout,
		Transport: otelhttp.NewTransport(http.DefaultTransport),
	}
}

// NewClient creates a client bound to accessToken. baseURL includes the API
// version, e.g. https://graph.facebook.com/v18.0.
func NewClient(baseURL, accessToken string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		baseURL:     strings.TrimRight(baseURL, "/"),
		accessToken: accessToken,
		httpClient:  httpClient,
	}
}

// GetConnections reads the first page of GET /{id}/{connection}.
func (c *Client) GetConnections(ctx context.Context, id, connection string, params url.Values) (*Page, error) {
	var page Page
	if err := c.do(ctx, http.MethodGet, c.endpoint(id, connection), params, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// GetNext follows an opaque paging.next URL.
func (c *Client) GetNext(ctx context.Context, next string) (*Page, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, next, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build paging request: %w", err)
	}

	var page Page
	if err := c.send(req, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// GetObject reads GET /{id} into out.
func (c *Client) GetObject(ctx context.Context, id string, params url.Values, out any) error {
	return c.do(ctx, http.MethodGet, c.endpoint(id), params, out)
}

// Post sends a form to POST /{path}. Creating an edge uses "{id}/{connection}";
// editing an object uses "{id}". out may be nil.
func (c *Client) Post(ctx context.Context, path string, form url.Values, out any) error {
	return c.do(ctx, http.MethodPost, c.endpoint(path), form, out)
}

// Delete removes the object with the given id.
func (c *Client) Delete(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, c.endpoint(id), nil, nil)
}

func (c *Client) endpoint(parts ...string) string {
	escaped := make([]string, 0, len(parts))
	for _, p := range parts {
		for _, seg := range strings.Split(strings.Trim(p, "/"), "/") {
			escaped = append(escaped, url.PathEscape(seg))
		}
	}
	return c.baseURL + "/" + strings.Join(escaped, "/")
}

func (c *Client) do(ctx context.Context, method, endpoint string, params url.Values, out any) error {
	values := url.Values{}
	for k, v := range params {
		values[k] = v
	}
	values.Set("access_token", c.accessToken)

	var (
		req *http.Request
		err error
	)
	if method == http.MethodPost {
		req, err = http.NewRequestWithContext(ctx, method, endpoint, strings.NewReader(values.Encode()))
		if err == nil {
			req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		}
	} else {
		req, err = http.NewRequestWithContext(ctx, method, endpoint+"?"+values.Encode(), nil)
	}
	if err != nil {
		return fmt.Errorf("failed to build graph request: %w", err)
	}

	return c.send(req, out)
}

func (c *Client) send(req *http.Request, out any) error {
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("graph request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 16<<20))
	if err != nil {
		return fmt.Errorf("failed to read graph response: %w", err)
	}

	var env envelope
	_ = json.Unmarshal(body, &env)

	if env.Error != nil {
		env.Error.HTTPStatus = resp.StatusCode
		return env.Error
	}

	if resp.StatusCode >= http.StatusBadRequest {
		msg := strings.TrimSpace(string(body[:min(len(body), maxErrorBody)]))
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return &Error{Message: msg, HTTPStatus: resp.StatusCode}
	}

	if env.Success != nil && !*env.Success {
		return &Error{Message: "request was not successful", HTTPStatus: resp.StatusCode}
	}

	if out == nil {
		return nil
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to decode graph response: %w", err)
	}
	return nil
}
