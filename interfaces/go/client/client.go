// Package client talks to a running asis-server from Go tests. Responses are
// returned as sent: redirects are not followed and compressed bodies are not
// decoded.
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"time"
)

type Client struct {
	BaseURL string
	HTTP    *http.Client
}

func New(baseURL string) *Client {
	return &Client{
		BaseURL: baseURL,
		HTTP: &http.Client{
			Timeout:   10 * time.Second,
			Transport: &http.Transport{DisableCompression: true},
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
	}
}

// Response is a fetched document with its body read in full.
type Response struct {
	StatusCode int
	Status     string
	Header     http.Header
	Body       []byte
}

// Fetch requests path and reads the whole response.
func (c *Client) Fetch(ctx context.Context, method, path string) (*Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	return &Response{StatusCode: resp.StatusCode, Status: resp.Status, Header: resp.Header, Body: body}, nil
}

// FetchRaw sends a minimal HTTP/1.1 GET over a new connection and returns
// every byte the server wrote until it closed the connection.
func (c *Client) FetchRaw(ctx context.Context, path string) ([]byte, error) {
	u, err := url.Parse(c.BaseURL)
	if err != nil {
		return nil, err
	}
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", u.Host)
	if err != nil {
		return nil, err
	}
	defer conn.Close()
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}
	req := fmt.Sprintf("GET %s HTTP/1.1\r\nHost: %s\r\nConnection: close\r\n\r\n", path, u.Host)
	if _, err := io.WriteString(conn, req); err != nil {
		return nil, err
	}
	return io.ReadAll(conn)
}

// Health returns nil when the server answers its health check.
func (c *Client) Health(ctx context.Context) error {
	resp, err := c.Fetch(ctx, http.MethodGet, "/_asis/healthz")
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check: %s", resp.Status)
	}
	return nil
}

type Version struct {
	Name    string `json:"name"`
	Version string `json:"version"`
	Commit  string `json:"commit"`
}

func (c *Client) Version(ctx context.Context) (Version, error) {
	var v Version
	err := c.getJSON(ctx, "/_asis/version", &v)
	return v, err
}

type Served struct {
	ID          string `json:"id"`
	Method      string `json:"method"`
	Path        string `json:"path"`
	Status      int    `json:"status"`
	Bytes       int    `json:"bytes"`
	Compression string `json:"compression"`
	Charset     string `json:"charset"`
	Error       string `json:"error"`
}

// ListServed returns the most recently served documents, newest first.
func (c *Client) ListServed(ctx context.Context, limit int) ([]Served, int, error) {
	var out struct {
		Items []Served `json:"items"`
		Total int      `json:"total"`
	}
	if err := c.getJSON(ctx, fmt.Sprintf("/_asis/served?limit=%d", limit), &out); err != nil {
		return nil, 0, err
	}
	return out.Items, out.Total, nil
}

func (c *Client) getJSON(ctx context.Context, path string, v any) error {
	resp, err := c.Fetch(ctx, http.MethodGet, path)
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("GET %s: %s", path, resp.Status)
	}
	return json.Unmarshal(resp.Body, v)
}
