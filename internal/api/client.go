package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	DefaultTimeout = 8 * time.Second

	fichaCacheTTL = 10 * time.Minute

	errorKeyNotAuthenticated = "not_authenticated"
)

var (
	ErrTimeout          = errors.New("request timed out")
	ErrNotAuthenticated = errors.New("not authenticated")
)

// TokenSource supplies bearer tokens. Refresh is called at most once per
// request, when the server reports the session expired.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
	Refresh(ctx context.Context) (string, error)
}

type Client struct {
	baseURL    string
	tokens     TokenSource
	timeout    time.Duration
	httpClient *http.Client
	fichas     *ttlCache[[]Ficha]
	logger     *slog.Logger
}

// NewClient creates a client for the attendance API. tokens may be nil for
// unauthenticated endpoints such as login.
func NewClient(baseURL string, tokens TokenSource, timeout time.Duration, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		tokens:     tokens,
		timeout:    timeout,
		httpClient: &http.Client{},
		fichas:     newTTLCache[[]Ficha](fichaCacheTTL),
		logger:     logger,
	}
}

func (c *Client) Get(ctx context.Context, path string, query url.Values) (*Response, error) {
	return c.do(ctx, http.MethodGet, path, query, nil)
}

func (c *Client) Post(ctx context.Context, path string, body any) (*Response, error) {
	return c.do(ctx, http.MethodPost, path, nil, body)
}

func (c *Client) Patch(ctx context.Context, path string, body any) (*Response, error) {
	return c.do(ctx, http.MethodPatch, path, nil, body)
}

func (c *Client) Delete(ctx context.Context, path string) (*Response, error) {
	return c.do(ctx, http.MethodDelete, path, nil, nil)
}

// GetBlob downloads a binary body. Non-2xx responses are decoded as the
// usual JSON envelope and returned as a *ResponseError.
func (c *Client) GetBlob(ctx context.Context, path string, query url.Values) ([]byte, error) {
	raw, err := c.send(ctx, http.MethodGet, path, query, nil)
	if err != nil {
		return nil, err
	}
	if raw.status >= 200 && raw.status < 300 {
		return raw.body, nil
	}
	resp := decodeResponse(raw.status, raw.body)
	return nil, &ResponseError{Status: resp.Status, Message: resp.Message, ErrorKey: resp.ErrorKey}
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body any) (*Response, error) {
	var payload []byte
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshaling request body: %w", err)
		}
		payload = data
	}

	raw, err := c.send(ctx, method, path, query, payload)
	if err != nil {
		return nil, err
	}
	return decodeResponse(raw.status, raw.body), nil
}

type rawResponse struct {
	status int
	body   []byte
}

// send performs the request, refreshing the token and retrying once when the
// server answers not_authenticated.
func (c *Client) send(ctx context.Context, method, path string, query url.Values, payload []byte) (*rawResponse, error) {
	token, err := c.token(ctx)
	if err != nil {
		return nil, err
	}

	raw, err := c.attempt(ctx, method, path, query, payload, token)
	if err != nil {
		return nil, err
	}

	if c.tokens == nil || !needsRefresh(raw) {
		return raw, nil
	}

	c.logger.Debug("session expired, refreshing token", "method", method, "path", path)
	token, err = c.tokens.Refresh(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotAuthenticated, err)
	}
	return c.attempt(ctx, method, path, query, payload, token)
}

func (c *Client) token(ctx context.Context) (string, error) {
	if c.tokens == nil {
		return "", nil
	}
	token, err := c.tokens.Token(ctx)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrNotAuthenticated, err)
	}
	return token, nil
}

func (c *Client) attempt(ctx context.Context, method, path string, query url.Values, payload []byte, token string) (*rawResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var reqBody io.Reader
	if payload != nil {
		reqBody = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.url(path, query), reqBody)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	requestID := uuid.NewString()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", requestID)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	c.logger.Debug("API request", "method", method, "path", path, "request_id", requestID)
	start := time.Now()

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if isTimeout(err) {
			c.logger.Error("API request timed out", "method", method, "path", path, "request_id", requestID, "elapsed", time.Since(start))
			return nil, fmt.Errorf("%s %s: %w", method, path, ErrTimeout)
		}
		c.logger.Error("API request transport error", "method", method, "path", path, "request_id", requestID, "error", err)
		return nil, fmt.Errorf("sending request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		if isTimeout(err) {
			return nil, fmt.Errorf("%s %s: %w", method, path, ErrTimeout)
		}
		return nil, fmt.Errorf("reading response: %w", err)
	}

	c.logger.Debug("API response", "method", method, "path", path, "request_id", requestID,
		"status", resp.StatusCode, "bytes", len(body), "elapsed", time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.Warn("API request failed", "method", method, "path", path, "request_id", requestID,
			"status", resp.StatusCode, "response", truncate(string(body), 200))
	}

	return &rawResponse{status: resp.StatusCode, body: body}, nil
}

func (c *Client) url(path string, query url.Values) string {
	u := c.baseURL + "/" + strings.TrimLeft(path, "/")
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	return u
}

func needsRefresh(raw *rawResponse) bool {
	return decodeResponse(raw.status, raw.body).ErrorKey == errorKeyNotAuthenticated
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
