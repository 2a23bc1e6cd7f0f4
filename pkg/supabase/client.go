// Package supabase is a small client for the Supabase GoTrue (auth) and
// PostgREST (tables) HTTP APIs.
package supabase

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"heather-backend/internal/domain"
)

const defaultTimeout = 10 * time.Second

// Error is a non-2xx answer from Supabase. Message carries the backend's own
// wording (msg, error_description, message or error, in that order).
type Error struct {
	Status  int
	Code    string
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("supabase: %d %s", e.Status, e.Message)
}

type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
	storage SessionStorage
	log     *slog.Logger
	now     func() time.Time

	// refreshMu serializes token refreshes; GoTrue rotates refresh tokens.
	refreshMu sync.Mutex

	mu         sync.Mutex
	session    *domain.Session
	loaded     bool
	listeners  map[int]domain.AuthStateListener
	nextID     int
	pending    []pendingEvent
	delivering bool
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithStorage persists the session across restarts.
func WithStorage(s SessionStorage) Option {
	return func(c *Client) { c.storage = s }
}

func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.log = l }
}

// New returns a ConfigurationError when the project URL or key is missing.
func New(baseURL, apiKey string, opts ...Option) (*Client, error) {
	var missing []string
	if baseURL == "" {
		missing = append(missing, "SUPABASE_URL")
	}
	if apiKey == "" {
		missing = append(missing, "SUPABASE_KEY")
	}
	if len(missing) > 0 {
		return nil, &domain.ConfigurationError{Missing: missing}
	}

	c := &Client{
		baseURL:   strings.TrimRight(baseURL, "/"),
		apiKey:    apiKey,
		http:      &http.Client{Timeout: defaultTimeout},
		storage:   NewMemoryStorage(),
		log:       slog.Default(),
		now:       time.Now,
		listeners: make(map[int]domain.AuthStateListener),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

type request struct {
	method string
	path   string
	query  url.Values
	body   any
	token  string
	header http.Header
}

// do sends req and decodes a 2xx JSON body into out (if non-nil).
func (c *Client) do(ctx context.Context, req request, out any) error {
	u := c.baseURL + req.path
	if len(req.query) > 0 {
		u += "?" + req.query.Encode()
	}

	var body io.Reader
	if req.body != nil {
		buf, err := json.Marshal(req.body)
		if err != nil {
			return fmt.Errorf("supabase: encode request: %w", err)
		}
		body = bytes.NewReader(buf)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.method, u, body)
	if err != nil {
		return fmt.Errorf("supabase: build request: %w", err)
	}
	httpReq.Header.Set("apikey", c.apiKey)
	httpReq.Header.Set("Accept", "application/json")
	if req.body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	token := req.token
	if token == "" {
		token = c.apiKey
	}
	httpReq.Header.Set("Authorization", "Bearer "+token)
	for k, vs := range req.header {
		for _, v := range vs {
			httpReq.Header.Add(k, v)
		}
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return fmt.Errorf("supabase: %s %s: %w", req.method, req.path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return fmt.Errorf("supabase: read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeError(resp.StatusCode, raw)
	}
	if out == nil || len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("supabase: decode response: %w", err)
	}
	return nil
}

func decodeError(status int, raw []byte) *Error {
	var body struct {
		Msg              string `json:"msg"`
		ErrorDescription string `json:"error_description"`
		Message          string `json:"message"`
		Error            string `json:"error"`
		Code             any    `json:"code"`
		ErrorCode        string `json:"error_code"`
	}
	_ = json.Unmarshal(raw, &body)

	e := &Error{Status: status}
	for _, m := range []string{body.Msg, body.ErrorDescription, body.Message, body.Error} {
		if m != "" {
			e.Message = m
			break
		}
	}
	if e.Message == "" {
		e.Message = strings.TrimSpace(string(raw))
	}
	if e.Message == "" {
		e.Message = http.StatusText(status)
	}

	e.Code = body.ErrorCode
	if e.Code == "" {
		if s, ok := body.Code.(string); ok {
			e.Code = s
		}
	}
	return e
}
