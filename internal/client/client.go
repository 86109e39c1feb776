package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/hashicorp/go-cleanhttp"
	"github.com/hashicorp/terraform-plugin-log/tflog"
)

const (
	// BasePath is the API prefix appended to the host.
	BasePath = "/api/v2"

	// DefaultHost is used when no host is configured.
	DefaultHost = "app.terraform.io"

	mediaType = "application/vnd.api+json"
)

// Client handles communication with the HCP Terraform / Terraform Enterprise API.
// A Client is safe for concurrent use; its HTTP connection pool is shared by
// every request issued through it.
type Client struct {
	BaseURL    string
	Token      string
	Version    string
	HTTPClient *http.Client

	// LogHTTPClient fetches log-read URLs. Those URLs are pre-authenticated,
	// so requests made with it never carry the API token.
	LogHTTPClient *http.Client
}

// New creates a new API client for the given host (e.g. "app.terraform.io")
func New(host, token, version string) *Client {
	return NewWithBaseURL(BaseURLForHost(host), token, version)
}

// NewWithBaseURL creates a client against an explicit base URL, including the API prefix
func NewWithBaseURL(baseURL, token, version string) *Client {
	httpClient := cleanhttp.DefaultPooledClient()
	httpClient.Timeout = 30 * time.Second

	logClient := cleanhttp.DefaultPooledClient()
	logClient.Timeout = 30 * time.Second

	return &Client{
		BaseURL:       strings.TrimRight(baseURL, "/"),
		Token:         token,
		Version:       version,
		HTTPClient:    httpClient,
		LogHTTPClient: logClient,
	}
}

// BaseURLForHost builds the API base URL for a host. A host that already
// carries a scheme is used as-is.
func BaseURLForHost(host string) string {
	if host == "" {
		host = DefaultHost
	}
	host = strings.TrimRight(host, "/")
	if !strings.Contains(host, "://") {
		host = "https://" + host
	}
	return host + BasePath
}

// doRequest performs a bodiless HTTP request with authentication and logging
func (c *Client) doRequest(ctx context.Context, method, path string) (*http.Response, error) {
	url := c.BaseURL + path
	req, err := http.NewRequestWithContext(ctx, method, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+c.Token)
	req.Header.Set("Content-Type", mediaType)
	req.Header.Set("Accept", mediaType)
	req.Header.Set("User-Agent", fmt.Sprintf("hcpctl/%s", c.Version))

	tflog.Debug(ctx, "Making API request", map[string]any{
		"method": method,
		"url":    url,
	})

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, &APIError{Message: fmt.Sprintf("%s %s", method, path), Err: err}
	}

	tflog.Debug(ctx, "Received API response", map[string]any{
		"status_code": resp.StatusCode,
	})

	return resp, nil
}

// handleResponse processes the HTTP response and unmarshals into target
func (c *Client) handleResponse(ctx context.Context, resp *http.Response, target interface{}) error {
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return &APIError{StatusCode: resp.StatusCode, Message: "failed to read response body", Err: err}
	}

	if resp.StatusCode >= 400 {
		tflog.Error(ctx, "API error response", map[string]any{
			"status_code": resp.StatusCode,
		})
		return &APIError{StatusCode: resp.StatusCode, Message: strings.TrimSpace(string(body))}
	}

	if target != nil && len(body) > 0 {
		if err := json.Unmarshal(body, target); err != nil {
			return &APIError{StatusCode: resp.StatusCode, Message: "failed to unmarshal response", Err: err}
		}
	}

	return nil
}

// get issues a GET and decodes the JSON body into target
func (c *Client) get(ctx context.Context, path string, target interface{}) error {
	resp, err := c.doRequest(ctx, http.MethodGet, path)
	if err != nil {
		return err
	}
	return c.handleResponse(ctx, resp, target)
}

// APIError is returned for any failed exchange with the backend. A zero
// StatusCode means the request never produced an HTTP response.
type APIError struct {
	StatusCode int
	Message    string
	Err        error
}

func (e *APIError) Error() string {
	if e.StatusCode == 0 {
		if e.Err != nil {
			return fmt.Sprintf("request failed: %s: %v", e.Message, e.Err)
		}
		return "request failed: " + e.Message
	}
	if e.Err != nil {
		return fmt.Sprintf("API error (status %d): %s: %v", e.StatusCode, e.Message, e.Err)
	}
	return fmt.Sprintf("API error (status %d): %s", e.StatusCode, e.Message)
}

func (e *APIError) Unwrap() error {
	return e.Err
}

// Transport reports whether the error happened before any HTTP status was received.
func (e *APIError) Transport() bool {
	return e.StatusCode == 0
}

// IsNotFoundError checks if an error is a 404 Not Found error
func IsNotFoundError(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == http.StatusNotFound
	}
	return false
}
