// Package rotation is the client for the remote duty-rotation API.
//
// Each operation is a single request/response with no retries and no
// idempotency key. A retried mutation may advance the rotation twice; the
// API offers no way to detect that.
package rotation

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/kingrea/dutyflow/internal/failure"
)

// DefaultTimeout bounds every request.
const DefaultTimeout = 10 * time.Second

// maxErrorBody caps how much of an error response is read into a message.
const maxErrorBody = 4 << 10

// TokenSource supplies the bearer token attached to each request. An empty
// token sends no Authorization header.
type TokenSource interface {
	Token() string
}

// TokenFunc adapts a function to TokenSource.
type TokenFunc func() string

func (f TokenFunc) Token() string { return f() }

// API is the surface the dashboard depends on.
type API interface {
	FetchStatus(ctx context.Context) (Status, error)
	SendReminder(ctx context.Context, reminder Reminder) error
	SkipTurn(ctx context.Context) error
	AdvanceTurn(ctx context.Context) error
}

// Client talks to the rotation API.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client

	tokens TokenSource
	log    zerolog.Logger
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.HTTPClient = hc
		}
	}
}

// WithTimeout sets the request timeout on a copy of the client's http.Client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			hc := *c.HTTPClient
			hc.Timeout = d
			c.HTTPClient = &hc
		}
	}
}

// WithTokenSource attaches bearer tokens to requests.
func WithTokenSource(ts TokenSource) Option {
	return func(c *Client) {
		c.tokens = ts
	}
}

// WithLogger attaches a logger.
func WithLogger(log zerolog.Logger) Option {
	return func(c *Client) {
		c.log = log
	}
}

// NewClient returns a client rooted at baseURL, e.g.
// "https://bin-reminder-app.vercel.app/api".
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		BaseURL:    strings.TrimSuffix(strings.TrimSpace(baseURL), "/"),
		HTTPClient: &http.Client{Timeout: DefaultTimeout},
		log:        zerolog.Nop(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

// FetchStatus returns who is on duty and who is next.
func (c *Client) FetchStatus(ctx context.Context) (Status, error) {
	var status Status
	if err := c.do(ctx, "rotation: fetch status", http.MethodGet, "/status", nil, &status); err != nil {
		return Status{}, err
	}
	return status, nil
}

// SendReminder notifies the person on duty. The server advances the turn as
// part of the same call; on error the caller must not assume it did.
func (c *Client) SendReminder(ctx context.Context, reminder Reminder) error {
	return c.do(ctx, "rotation: send reminder", http.MethodPost, "/reminder", reminder.body(), nil)
}

// SkipTurn moves past the person on duty without a reminder.
func (c *Client) SkipTurn(ctx context.Context) error {
	return c.do(ctx, "rotation: skip turn", http.MethodPost, "/skip-turn", struct{}{}, nil)
}

// AdvanceTurn performs the same transition as SkipTurn, recorded under a
// different audit label by the server.
func (c *Client) AdvanceTurn(ctx context.Context) error {
	return c.do(ctx, "rotation: advance turn", http.MethodPost, "/advance-turn", struct{}{}, nil)
}

// PublicIssues lists the public issue feed. The API answers with either a
// bare array or an object wrapping it under "issues".
func (c *Client) PublicIssues(ctx context.Context) ([]Issue, error) {
	const op = "rotation: public issues"
	var raw json.RawMessage
	if err := c.do(ctx, op, http.MethodGet, "/issues/public", nil, &raw); err != nil {
		return nil, err
	}
	raw = bytes.TrimSpace(raw)
	var issues []Issue
	if len(raw) > 0 && raw[0] == '{' {
		var wrapped struct {
			Issues []Issue `json:"issues"`
		}
		if err := json.Unmarshal(raw, &wrapped); err != nil {
			return nil, &failure.Error{Kind: failure.KindServer, Op: op, Message: "unparseable response", Err: err}
		}
		issues = wrapped.Issues
	} else if err := json.Unmarshal(raw, &issues); err != nil {
		return nil, &failure.Error{Kind: failure.KindServer, Op: op, Message: "unparseable response", Err: err}
	}
	if issues == nil {
		issues = []Issue{}
	}
	return issues, nil
}

func (c *Client) do(ctx context.Context, op, method, path string, payload, target any) error {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("%s: encode request: %w", op, err)
		}
		body = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, body)
	if err != nil {
		return fmt.Errorf("%s: build request: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.tokens != nil {
		if token := c.tokens.Token(); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	started := time.Now()
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		c.log.Warn().Err(err).Str("op", op).Msg("rotation request failed")
		return failure.Network(op, err)
	}
	c.log.Debug().
		Str("op", op).
		Int("status", resp.StatusCode).
		Dur("elapsed", time.Since(started)).
		Msg("rotation request")
	return decodeJSON(op, resp, target)
}

// decodeJSON reads the body once and either decodes it into target or turns
// it into a Server failure.
func decodeJSON(op string, resp *http.Response, target any) error {
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return failure.Server(op, resp.StatusCode, errorMessage(data))
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return failure.Network(op, err)
	}
	if target == nil {
		return nil
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return failure.Server(op, resp.StatusCode, "empty response")
	}
	if err := json.Unmarshal(data, target); err != nil {
		return &failure.Error{Kind: failure.KindServer, Op: op, Status: resp.StatusCode, Message: "unparseable response", Err: err}
	}
	return nil
}

// errorMessage extracts {"message"} or {"error"} from an error body, falling
// back to the trimmed text.
func errorMessage(data []byte) string {
	var body struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(data, &body); err == nil {
		if body.Message != "" {
			return body.Message
		}
		if body.Error != "" {
			return body.Error
		}
	}
	text := strings.TrimSpace(string(data))
	if strings.HasPrefix(text, "{") || strings.HasPrefix(text, "<") {
		return ""
	}
	if len(text) > 200 {
		text = text[:200]
	}
	return text
}
