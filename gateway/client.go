package gateway

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

	"github.com/MrEthical07/authflow/session"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DefaultMaxBodyBytes caps how much of a response body is read.
const DefaultMaxBodyBytes = 1 << 20

// Client issues calls against one API base URL.
type Client struct {
	base    *url.URL
	http    *http.Client
	jar     *session.Jar
	logger  *zap.Logger
	maxBody int64
}

// Option configures a [Client].
type Option func(*Client)

// WithHTTPClient replaces the default http.Client. Its Jar is ignored;
// credentials are handled through [WithJar].
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithJar sets the cookie jar used for credentialed requests.
func WithJar(jar *session.Jar) Option {
	return func(c *Client) {
		c.jar = jar
	}
}

// WithLogger sets the diagnostic logger.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithMaxBodyBytes overrides [DefaultMaxBodyBytes].
func WithMaxBodyBytes(n int64) Option {
	return func(c *Client) {
		if n > 0 {
			c.maxBody = n
		}
	}
}

// New creates a client for baseURL, which must be absolute.
func New(baseURL string, opts ...Option) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, errors.New("base url must be absolute")
	}

	c := &Client{
		base:    base,
		http:    &http.Client{},
		logger:  zap.NewNop(),
		maxBody: DefaultMaxBodyBytes,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// BaseURL returns the API base the client was built with.
func (c *Client) BaseURL() *url.URL {
	u := *c.base
	return &u
}

// Jar returns the credential jar, or nil.
func (c *Client) Jar() *session.Jar {
	return c.jar
}

// Do performs req once.
func (c *Client) Do(ctx context.Context, req Request) (Result, error) {
	method := req.Method
	if method == "" {
		method = http.MethodPost
	}
	op := method + " " + req.Path

	target := c.base.JoinPath(req.Path)
	if len(req.Query) > 0 {
		target.RawQuery = req.Query.Encode()
	}

	var body io.Reader
	if req.Body != nil {
		payload, err := json.Marshal(req.Body)
		if err != nil {
			return Result{}, &TransportError{Op: op, Err: fmt.Errorf("encode body: %w", err)}
		}
		body = bytes.NewReader(payload)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, target.String(), body)
	if err != nil {
		return Result{}, &TransportError{Op: op, Err: err}
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")

	requestID := RequestIDFromContext(ctx)
	if requestID == "" {
		requestID = uuid.NewString()
	}
	httpReq.Header.Set("X-Request-ID", requestID)

	if req.WithCredentials && c.jar != nil {
		for _, cookie := range c.jar.Cookies(target) {
			httpReq.AddCookie(cookie)
		}
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		c.logger.Debug("gateway call failed",
			zap.String("op", op),
			zap.String("request_id", requestID),
			zap.Error(err),
		)
		return Result{}, &TransportError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	if req.WithCredentials && c.jar != nil {
		if cookies := resp.Cookies(); len(cookies) > 0 {
			c.jar.SetCookies(target, cookies)
			if err := c.jar.Persist(ctx); err != nil {
				c.logger.Warn("session cookies not persisted",
					zap.String("op", op),
					zap.Error(err),
				)
			}
		}
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBody))
	if err != nil {
		return Result{}, &TransportError{Op: op, Status: resp.StatusCode, Err: err}
	}

	result, dropped, err := decodeResult(raw, c.base)
	if err != nil {
		c.logger.Debug("gateway response unusable",
			zap.String("op", op),
			zap.Int("status", resp.StatusCode),
			zap.String("request_id", requestID),
			zap.Error(err),
		)
		return Result{}, &TransportError{Op: op, Status: resp.StatusCode, Err: err}
	}
	for _, field := range dropped {
		c.logger.Warn("gateway dropped response field",
			zap.String("op", op),
			zap.String("field", field),
		)
	}

	result.HTTPStatus = resp.StatusCode
	result.OK = resp.StatusCode >= 200 && resp.StatusCode < 300

	c.logger.Debug("gateway call completed",
		zap.String("op", op),
		zap.Int("status", resp.StatusCode),
		zap.Bool("success", result.Success),
		zap.String("request_id", requestID),
	)
	return result, nil
}
