// Package client is the Go client for the auth API: an HTTP client that
// keeps the session cookie, an AuthContext holding the current identity,
// and a route guard that consults it.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/cookiejar"
	"strings"
	"time"

	"github.com/samber/oops"
	"github.com/sethvargo/go-retry"
	"golang.org/x/net/publicsuffix"

	"github.com/VJYGOUR/auth-system/internal/models"
)

// ErrUnauthenticated is returned when the server rejects the session.
var ErrUnauthenticated = errors.New("not authenticated")

// APIError is a non-2xx response from the server.
type APIError struct {
	Status  int
	Code    string            `json:"error"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%d %s: %s", e.Status, e.Code, e.Message)
}

// Is lets a 401 match ErrUnauthenticated.
func (e *APIError) Is(target error) bool {
	return target == ErrUnauthenticated && e.Status == http.StatusUnauthorized
}

// Dashboard is the body of GET /api/dashboard.
type Dashboard struct {
	Greeting string            `json:"greeting"`
	User     models.PublicUser `json:"user"`
}

type userEnvelope struct {
	Message string            `json:"message"`
	User    models.PublicUser `json:"user"`
}

// Client calls the auth API and keeps the session cookie in its jar.
type Client struct {
	baseURL string
	http    *http.Client
	backoff func() retry.Backoff
}

// New creates a Client for baseURL. httpClient may be nil; a client
// without a cookie jar gets one.
func New(baseURL string, httpClient *http.Client) (*Client, error) {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	if httpClient.Jar == nil {
		jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
		if err != nil {
			return nil, oops.Code("CLIENT_INIT_FAILED").Wrap(err)
		}
		httpClient.Jar = jar
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    httpClient,
		backoff: func() retry.Backoff {
			return retry.WithMaxRetries(3, retry.NewExponential(200*time.Millisecond))
		},
	}, nil
}

// Session returns the user behind the stored cookie. Network failures and
// 5xx responses are retried with backoff; a 401 is returned at once.
func (c *Client) Session(ctx context.Context) (models.PublicUser, error) {
	var out userEnvelope
	err := retry.Do(ctx, c.backoff(), func(ctx context.Context) error {
		err := c.do(ctx, http.MethodGet, "/api/auth/session", nil, &out)
		if isTransient(err) {
			return retry.RetryableError(err)
		}
		return err
	})
	return out.User, err
}

// Signup registers a user; the server starts a session on success.
func (c *Client) Signup(ctx context.Context, name, email, password string) (models.PublicUser, error) {
	var out userEnvelope
	body := map[string]string{"name": name, "email": email, "password": password}
	err := c.do(ctx, http.MethodPost, "/api/auth/signup", body, &out)
	return out.User, err
}

// Login authenticates and stores the session cookie.
func (c *Client) Login(ctx context.Context, email, password string) (models.PublicUser, error) {
	var out userEnvelope
	body := map[string]string{"email": email, "password": password}
	err := c.do(ctx, http.MethodPost, "/api/auth/login", body, &out)
	return out.User, err
}

// Logout asks the server to clear the session cookie.
func (c *Client) Logout(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/api/auth/logout", nil, nil)
}

// Dashboard fetches the protected sample resource.
func (c *Client) Dashboard(ctx context.Context) (Dashboard, error) {
	var out Dashboard
	err := c.do(ctx, http.MethodGet, "/api/dashboard", nil, &out)
	return out, err
}

// Events fetches the caller's recent audit events.
func (c *Client) Events(ctx context.Context, limit int) ([]models.Event, error) {
	var out struct {
		Events []models.Event `json:"events"`
	}
	err := c.do(ctx, http.MethodGet, fmt.Sprintf("/api/auth/events?limit=%d", limit), nil, &out)
	return out.Events, err
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return oops.Code("CLIENT_ENCODE_FAILED").Wrap(err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return oops.Code("CLIENT_REQUEST_FAILED").Wrap(err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return oops.Code("CLIENT_REQUEST_FAILED").With("path", path).Wrap(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		apiErr := &APIError{Status: resp.StatusCode}
		if err := json.NewDecoder(resp.Body).Decode(apiErr); err != nil {
			apiErr.Message = http.StatusText(resp.StatusCode)
		}
		return apiErr
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return oops.Code("CLIENT_DECODE_FAILED").With("path", path).Wrap(err)
	}
	return nil
}

func isTransient(err error) bool {
	if err == nil {
		return false
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Status >= http.StatusInternalServerError
	}
	var netErr net.Error
	return errors.As(err, &netErr) || errors.Is(err, io.ErrUnexpectedEOF)
}
