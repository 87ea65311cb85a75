// Package web provides a domain-allowlisted HTTP client and the http:get
// and http:post tools built on it.
package web

import (
	gocontext "context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// maxBodyBytes caps how much of a response body is read.
const maxBodyBytes = 10 * 1024 * 1024

// Client performs HTTP requests restricted to an allowlist of hosts.
type Client struct {
	// AllowedDomains lists permitted hostnames. Empty permits all.
	AllowedDomains []string
	HTTP           *http.Client
}

// NewClient creates a client with the given allowlist and request timeout.
// A zero timeout means no timeout.
func NewClient(allowedDomains []string, timeout time.Duration) *Client {
	return &Client{
		AllowedDomains: allowedDomains,
		HTTP:           &http.Client{Timeout: timeout},
	}
}

// Response is a fully read HTTP response.
type Response struct {
	StatusCode int               `json:"status_code"`
	Body       string            `json:"body"`
	Headers    map[string]string `json:"headers"`
}

// Text returns the response body.
func (r Response) Text() string { return r.Body }

// OK reports whether the status code is 2xx.
func (r Response) OK() bool { return r.StatusCode >= 200 && r.StatusCode < 300 }

// Do sends a request after checking the URL's host against the allowlist.
func (c *Client) Do(ctx gocontext.Context, method, rawURL string, body io.Reader, headers map[string]string) (Response, error) {
	if err := CheckAllowedDomain(rawURL, c.AllowedDomains); err != nil {
		return Response{}, err
	}

	req, err := http.NewRequestWithContext(ctx, method, rawURL, body)
	if err != nil {
		return Response{}, fmt.Errorf("create request: %w", err)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	hc := c.HTTP
	if hc == nil {
		hc = http.DefaultClient
	}
	resp, err := hc.Do(req)
	if err != nil {
		return Response{}, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return Response{}, fmt.Errorf("read body: %w", err)
	}

	respHeaders := make(map[string]string, len(resp.Header))
	for k := range resp.Header {
		respHeaders[k] = resp.Header.Get(k)
	}
	return Response{StatusCode: resp.StatusCode, Body: string(data), Headers: respHeaders}, nil
}

// CheckAllowedDomain verifies the URL's host is in the allowlist.
// If no allowed domains are configured, all domains are permitted.
func CheckAllowedDomain(rawURL string, allowedDomains []string) error {
	if len(allowedDomains) == 0 {
		return nil
	}

	parsed, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid URL %q: %w", rawURL, err)
	}

	host := parsed.Hostname()
	for _, d := range allowedDomains {
		if host == d {
			return nil
		}
	}
	return fmt.Errorf("domain %q is not in the allowed list", host)
}
