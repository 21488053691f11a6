// Package api implements the HTTP client for the Cartana accounts backend.
// It attaches the current session token as a bearer credential to every
// request and converts backend error envelopes into the shared sentinel
// taxonomy. Timeout and retry policy belong to the injected http.Client.
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

	"github.com/cartana/accounts/internal/common"
)

// TokenSource returns the current session token, or "" when anonymous.
type TokenSource func() string

// Client talks to the accounts backend. The zero value is not usable;
// construct with New.
type Client struct {
	baseURL        string
	http           *http.Client
	tokenSource    TokenSource
	onUnauthorized func()
}

type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// WithTokenSource installs the session-token source used for bearer auth.
func WithTokenSource(ts TokenSource) Option {
	return func(c *Client) { c.tokenSource = ts }
}

// WithUnauthorizedHook installs a callback invoked once per 401 response to
// a session-authenticated request. The session provider uses it to trigger
// an implicit logout.
func WithUnauthorizedHook(fn func()) Option {
	return func(c *Client) { c.onUnauthorized = fn }
}

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// StatusError describes a non-2xx backend response. Unwrap yields the
// sentinel from internal/common so callers can use errors.Is; Message holds
// display text parsed from the response body, when present.
type StatusError struct {
	StatusCode int
	Message    string
	sentinel   error
}

func (e *StatusError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("backend responded %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("backend responded %d", e.StatusCode)
}

func (e *StatusError) Unwrap() error { return e.sentinel }

// ErrorMessage extracts backend-provided display text from err, or "" if
// err carries none.
func ErrorMessage(err error) string {
	var se *StatusError
	if errors.As(err, &se) {
		return se.Message
	}
	return ""
}

// PostForm sends a form-encoded POST to path. If bearer is non-empty it is
// used instead of the session token (the confirm-reset flow authenticates
// with the reset token).
func (c *Client) PostForm(ctx context.Context, path string, form url.Values, bearer string) ([]byte, error) {
	return c.do(ctx, http.MethodPost, path, strings.NewReader(form.Encode()), "application/x-www-form-urlencoded", bearer)
}

// Get sends a GET to path authenticated by the session token.
func (c *Client) Get(ctx context.Context, path string) ([]byte, error) {
	return c.do(ctx, http.MethodGet, path, nil, "", "")
}

func (c *Client) do(ctx context.Context, method, path string, body io.Reader, contentType, bearer string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, err
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	sessionAuthed := false
	switch {
	case bearer != "":
		req.Header.Set(common.AuthHeaderName, common.BearerScheme+" "+bearer)
	case c.tokenSource != nil:
		if token := c.tokenSource(); token != "" {
			req.Header.Set(common.AuthHeaderName, common.BearerScheme+" "+token)
			sessionAuthed = true
		}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrNetwork, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrNetwork, err)
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return data, nil
	}

	if resp.StatusCode == http.StatusUnauthorized && sessionAuthed && c.onUnauthorized != nil {
		c.onUnauthorized()
	}

	return nil, &StatusError{
		StatusCode: resp.StatusCode,
		Message:    parseErrorBody(data),
		sentinel:   sentinelForStatus(resp.StatusCode),
	}
}

func sentinelForStatus(code int) error {
	switch code {
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return common.ErrValidation
	case http.StatusUnauthorized:
		return common.ErrUnauthorized
	case http.StatusForbidden:
		return common.ErrTokenExpired
	case http.StatusNotFound:
		return common.ErrNotFound
	case http.StatusConflict:
		return common.ErrConflict
	default:
		return common.ErrInternal
	}
}

// parseErrorBody extracts display text from a backend error envelope.
// The backend responds with {"detail": ...} or {"message": ...}; detail may
// be a plain string or a structured value, which is re-serialized verbatim.
func parseErrorBody(data []byte) string {
	if len(data) == 0 {
		return ""
	}

	var envelope struct {
		Detail  json.RawMessage `json:"detail"`
		Message string          `json:"message"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil {
		return strings.TrimSpace(string(data))
	}
	if envelope.Message != "" {
		return envelope.Message
	}
	if len(envelope.Detail) == 0 {
		return ""
	}

	var s string
	if err := json.Unmarshal(envelope.Detail, &s); err == nil {
		return s
	}
	var compact bytes.Buffer
	if err := json.Compact(&compact, envelope.Detail); err != nil {
		return strings.TrimSpace(string(envelope.Detail))
	}
	return compact.String()
}
