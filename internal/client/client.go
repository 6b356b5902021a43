// Package client wraps the platform's HTTP APIs: the task service and the
// request router gateway. Both wrappers share one request core with retry,
// backoff, tracing, and error envelope decoding.
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
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/dagknows/dkqa/internal/config"
	"github.com/dagknows/dkqa/internal/observability"
	"github.com/dagknows/dkqa/model"
)

const maxResponseBytes = 10 << 20

// Client is the shared HTTP core used by TaskService and ReqRouter.
type Client struct {
	name       string
	baseURL    string
	token      string
	proxyKey   string
	proxyValue string
	retry      config.RetryConfig
	httpClient *http.Client
	logger     *zap.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithToken sets the bearer token attached to every request.
func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.httpClient.Timeout = d }
}

// WithRetry sets the retry policy.
func WithRetry(r config.RetryConfig) Option {
	return func(c *Client) { c.retry = r }
}

// WithLogger sets the logger used for debug request logging.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// WithProxyParam appends the given query parameter to every request. Some
// deployments route through a fronting proxy selected by query parameter.
func WithProxyParam(key, value string) Option {
	return func(c *Client) {
		c.proxyKey = key
		c.proxyValue = value
	}
}

// WithCookieJar enables a cookie jar so browser-style session endpoints
// (/vlogin, /vlogout) keep their session cookie across calls.
func WithCookieJar() Option {
	return func(c *Client) {
		jar, err := cookiejar.New(nil)
		if err != nil {
			// cookiejar.New only fails on bad options; nil options cannot.
			panic("client: cookiejar: " + err.Error())
		}
		c.httpClient.Jar = jar
	}
}

// New creates a client for one service. The name tags log lines and spans.
func New(name, baseURL string, opts ...Option) *Client {
	c := &Client{
		name:    name,
		baseURL: strings.TrimRight(baseURL, "/"),
		retry: config.RetryConfig{
			MaxAttempts:    1,
			IdempotentOnly: true,
		},
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxConnsPerHost:     50,
				IdleConnTimeout:     90 * time.Second,
				TLSHandshakeTimeout: 10 * time.Second,
			},
		},
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the service base URL the client was built with.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Token returns the bearer token, for handing off to browser flows.
func (c *Client) Token() string {
	return c.token
}

// call performs one logical API call: build URL, attach headers, execute
// with the retry policy, and decode the response into out (when non-nil).
// Non-2xx responses are returned as *model.APIError.
func (c *Client) call(ctx context.Context, op, method, path string, query url.Values, body, out any) error {
	ctx, span := observability.StartCallSpan(ctx, c.name, op)
	defer span.End()

	reqURL, err := c.buildURL(path, query)
	if err != nil {
		observability.RecordCallResult(span, 0, err)
		return err
	}

	var bodyBytes []byte
	if body != nil {
		bodyBytes, err = json.Marshal(body)
		if err != nil {
			err = fmt.Errorf("client: marshal %s body: %w", op, err)
			observability.RecordCallResult(span, 0, err)
			return err
		}
	}
	c.debugLogRequest(ctx, op, method, reqURL, bodyBytes)

	status, respBody, err := c.executeWithRetry(ctx, method, reqURL, bodyBytes)
	observability.RecordCallResult(span, status, err)
	if err != nil {
		return err
	}

	if status < 200 || status > 299 {
		return decodeAPIError(status, respBody)
	}

	if out != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, out); err != nil {
			return fmt.Errorf("client: decode %s response: %w (body: %s)", op, err, truncate(respBody, 512))
		}
	}
	return nil
}

// debugLogRequest logs the outbound request at debug level. Bodies go
// through observability.RedactBody so credentials in sign-in and alert
// payloads never reach the log stream.
func (c *Client) debugLogRequest(ctx context.Context, op, method, reqURL string, bodyBytes []byte) {
	logger := observability.LoggerFrom(ctx, c.logger)
	if !logger.Core().Enabled(zapcore.DebugLevel) {
		return
	}

	fields := []zap.Field{
		zap.String("service", c.name),
		zap.String("operation", op),
		zap.String("method", method),
		zap.String("url", reqURL),
	}
	if len(bodyBytes) > 0 {
		var parsed map[string]any
		if err := json.Unmarshal(bodyBytes, &parsed); err == nil {
			fields = append(fields, zap.Any("body", observability.RedactBody(parsed, nil)))
		}
	}
	logger.Debug("api request", fields...)
}

// executeWithRetry wraps executeOnce with the retry policy and exponential
// backoff. Non-idempotent methods are never retried unless the policy
// explicitly allows it.
func (c *Client) executeWithRetry(ctx context.Context, method, reqURL string, bodyBytes []byte) (int, []byte, error) {
	maxAttempts := c.retry.MaxAttempts
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	canRetry := isIdempotentMethod(method) || !c.retry.IdempotentOnly

	var lastErr error
	var lastStatus int
	var lastBody []byte

	for attempt := 0; attempt < maxAttempts; attempt++ {
		if attempt > 0 {
			delay := calculateBackoff(c.retry, attempt)
			select {
			case <-ctx.Done():
				return 0, nil, ctx.Err()
			case <-time.After(delay):
			}
		}

		status, respBody, err := c.executeOnce(ctx, method, reqURL, bodyBytes)
		if err != nil {
			lastErr = err
			if !canRetry || !isRetryableError(err) {
				return 0, nil, err
			}
			c.logger.Debug("retrying after error",
				zap.String("service", c.name),
				zap.Int("attempt", attempt+1),
				zap.Int("max", maxAttempts),
				zap.Error(err),
			)
			continue
		}

		if isRetryableStatus(status) && canRetry && attempt < maxAttempts-1 {
			lastStatus, lastBody, lastErr = status, respBody, nil
			c.logger.Debug("retrying after status",
				zap.String("service", c.name),
				zap.Int("attempt", attempt+1),
				zap.Int("max", maxAttempts),
				zap.Int("status", status),
			)
			continue
		}

		return status, respBody, nil
	}

	if lastErr != nil {
		return 0, nil, lastErr
	}
	return lastStatus, lastBody, nil
}

// executeOnce performs a single HTTP request.
func (c *Client) executeOnce(ctx context.Context, method, reqURL string, bodyBytes []byte) (int, []byte, error) {
	var body io.Reader
	if bodyBytes != nil {
		body = bytes.NewReader(bodyBytes)
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL, body)
	if err != nil {
		return 0, nil, fmt.Errorf("client: build request: %w", err)
	}
	req.Header = c.buildHeaders(method)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if isConnectionError(err) {
			return 0, nil, model.NewUnavailableError()
		}
		if ctx.Err() != nil {
			return 0, nil, model.NewTimeoutError()
		}
		return 0, nil, fmt.Errorf("client: %s %s: %w", method, reqURL, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return 0, nil, fmt.Errorf("client: read response: %w", err)
	}

	return resp.StatusCode, respBody, nil
}

func (c *Client) buildURL(path string, query url.Values) (string, error) {
	u, err := url.Parse(c.baseURL + path)
	if err != nil {
		return "", fmt.Errorf("client: bad URL %s%s: %w", c.baseURL, path, err)
	}

	q := u.Query()
	for k, vs := range query {
		for _, v := range vs {
			q.Add(k, v)
		}
	}
	if c.proxyKey != "" {
		q.Set(c.proxyKey, c.proxyValue)
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func (c *Client) buildHeaders(method string) http.Header {
	h := make(http.Header)
	h.Set("Accept", "application/json")
	if method == http.MethodPost || method == http.MethodPut || method == http.MethodPatch {
		h.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		h.Set("Authorization", "Bearer "+sanitizeHeader(c.token))
	}
	return h
}

// decodeAPIError turns a non-2xx response into a *model.APIError. Bodies
// that are not envelope-shaped still produce a usable error.
func decodeAPIError(status int, body []byte) error {
	apiErr := &model.APIError{StatusCode: status}
	if len(body) > 0 {
		if err := json.Unmarshal(body, apiErr); err != nil || (apiErr.Code == "" && apiErr.Message == "") {
			apiErr.Message = truncate(body, 512)
		}
	}
	if apiErr.Message == "" {
		apiErr.Message = http.StatusText(status)
	}
	return apiErr
}

// sanitizeHeader strips newlines and carriage returns to prevent header injection.
func sanitizeHeader(s string) string {
	s = strings.ReplaceAll(s, "\r", "")
	s = strings.ReplaceAll(s, "\n", "")
	return s
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}

// --- classification helpers ---

func isIdempotentMethod(method string) bool {
	switch method {
	case http.MethodGet, http.MethodPut, http.MethodDelete,
		http.MethodHead, http.MethodOptions:
		return true
	}
	return false
}

func isRetryableStatus(code int) bool {
	switch code {
	case http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	}
	return false
}

func isRetryableError(err error) bool {
	if err == nil {
		return false
	}
	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Code == model.ErrUnavailable
	}
	return true
}

func isConnectionError(err error) bool {
	if err == nil {
		return false
	}
	var netErr *net.OpError
	if errors.As(err, &netErr) {
		return true
	}
	var dnsErr *net.DNSError
	return errors.As(err, &dnsErr)
}

func calculateBackoff(cfg config.RetryConfig, attempt int) time.Duration {
	if cfg.BackoffInitial <= 0 {
		cfg.BackoffInitial = 100 * time.Millisecond
	}
	if cfg.BackoffMultiplier <= 0 {
		cfg.BackoffMultiplier = 2
	}
	if cfg.BackoffMax <= 0 {
		cfg.BackoffMax = 2 * time.Second
	}

	delay := cfg.BackoffInitial
	for i := 1; i < attempt; i++ {
		delay = time.Duration(float64(delay) * cfg.BackoffMultiplier)
		if delay > cfg.BackoffMax {
			delay = cfg.BackoffMax
			break
		}
	}
	return delay
}
