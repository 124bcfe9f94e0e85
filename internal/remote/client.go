// Package remote is the HTTP client for the REST resources under /api/<resource>.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rpggio/localfirst/internal/repository"
)

// StatusError is a non-2xx answer other than access denied.
type StatusError struct {
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("server returned %d", e.StatusCode)
	}
	return fmt.Sprintf("server returned %d: %s", e.StatusCode, e.Message)
}

// Unwrap classifies every status failure as the remote being unavailable.
func (e *StatusError) Unwrap() error {
	if e.StatusCode == http.StatusNotFound {
		return repository.ErrNotFound
	}
	return repository.ErrUnavailable
}

// IsAccessDenied reports whether status means the plan limit was reached.
func IsAccessDenied(status int) bool {
	return status == http.StatusPaymentRequired || status == http.StatusForbidden
}

// Client talks to the REST API.
type Client struct {
	baseURL *url.URL
	token   string
	http    *http.Client
	logger  *slog.Logger
}

// NewClient creates a client for baseURL. A zero timeout keeps the transport
// default.
func NewClient(baseURL, token string, timeout time.Duration, logger *slog.Logger) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("base url %q must be absolute", baseURL)
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Client{
		baseURL: u,
		token:   token,
		http:    &http.Client{Timeout: timeout},
		logger:  logger,
	}, nil
}

// Resource returns a client for one resource. path is the server base path,
// e.g. "/api/projects".
func (c *Client) Resource(name, path string) *Resource {
	return &Resource{client: c, name: name, path: path}
}

type envelope struct {
	Success *bool           `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body any) ([]byte, error) {
	u := c.baseURL.JoinPath(path)
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), reader)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("%w: %v", repository.ErrUnavailable, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %v", repository.ErrUnavailable, err)
	}
	c.logger.Debug("api call", "method", method, "path", u.Path, "status", resp.StatusCode)

	if IsAccessDenied(resp.StatusCode) {
		return nil, fmt.Errorf("%w (%d): %s", repository.ErrAccessDenied, resp.StatusCode, errorMessage(data))
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{StatusCode: resp.StatusCode, Message: errorMessage(data)}
	}

	var env envelope
	if len(bytes.TrimSpace(data)) > 0 && data[0] == '{' {
		if err := json.Unmarshal(data, &env); err == nil && env.Success != nil && !*env.Success {
			return nil, &StatusError{StatusCode: resp.StatusCode, Message: env.Error}
		}
	}
	return data, nil
}

func errorMessage(data []byte) string {
	var env envelope
	if err := json.Unmarshal(data, &env); err == nil && env.Error != "" {
		return env.Error
	}
	return strings.TrimSpace(string(data))
}

// Ping checks GET /health.
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.do(ctx, http.MethodGet, "/health", nil, nil)
	return err
}

// errMalformed wraps undecodable successful answers.
var errMalformed = errors.New("malformed response")
