package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/code-samurai/learner-client/internal/utils"
	"github.com/google/uuid"
)

const (
	// DefaultBaseURL is the address of a locally running server
	DefaultBaseURL = "http://127.0.0.1:8080"
	// DefaultTimeout bounds every request unless overridden
	DefaultTimeout = 10 * time.Second

	maxBodyBytes = 1 << 20
)

// Client talks to the learning server. It holds no session state: the auth
// token is passed to every call that needs it.
type Client struct {
	baseURL   string
	http      *http.Client
	timeout   time.Duration
	logger    utils.Logger
	requestID func() string
}

// Option configures a Client
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithTimeout sets the per-request timeout
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithLogger sets the logger used for outbound request logging
func WithLogger(logger utils.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// NewClient creates a client for baseURL (DefaultBaseURL when empty)
func NewClient(baseURL string, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		baseURL:   strings.TrimRight(baseURL, "/"),
		http:      http.DefaultClient,
		timeout:   DefaultTimeout,
		logger:    utils.NewDiscardLogger(),
		requestID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the server address the client targets
func (c *Client) BaseURL() string {
	return c.baseURL
}

// call describes one HTTP exchange
type call struct {
	op     string
	method string
	path   string
	token  string
	body   interface{}
	want   int
}

// response is a completed exchange with the expected status
type response struct {
	header http.Header
	body   []byte
}

func bearer(token string) string {
	if strings.HasPrefix(token, "Bearer ") {
		return token
	}
	return "Bearer " + token
}

func (c *Client) do(ctx context.Context, in call) (*response, error) {
	var reader io.Reader
	if in.body != nil {
		payload, err := json.Marshal(in.body)
		if err != nil {
			return nil, transportError(in.op, fmt.Errorf("encode request: %w", err))
		}
		reader = bytes.NewReader(payload)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, in.method, c.baseURL+in.path, reader)
	if err != nil {
		return nil, transportError(in.op, err)
	}

	requestID := c.requestID()
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-ID", requestID)
	if in.token != "" {
		req.Header.Set("Authorization", bearer(in.token))
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.LogRequest(in.method, in.path, 0, time.Since(start).String(),
			"op", in.op, "request_id", requestID, "error", err)
		return nil, transportError(in.op, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	c.logger.LogRequest(in.method, in.path, resp.StatusCode, time.Since(start).String(),
		"op", in.op, "request_id", requestID)
	if err != nil {
		return nil, transportError(in.op, fmt.Errorf("read body: %w", err))
	}

	if resp.StatusCode != in.want {
		return nil, statusError(in.op, resp.StatusCode)
	}

	return &response{header: resp.Header, body: body}, nil
}

func decodeJSON(op string, body []byte, dest interface{}) error {
	if err := json.Unmarshal(body, dest); err != nil {
		return decodeError(op, err)
	}
	return nil
}

// Ping checks that the server is reachable
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.do(ctx, call{op: "ping", method: http.MethodGet, path: "/test", want: http.StatusOK})
	return err
}
