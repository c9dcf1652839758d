package client

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"portfolio_tracker/internal/domain/entity"
	apitypes "portfolio_tracker/internal/entity"
	"portfolio_tracker/internal/pkg/metrics"

	jsoniter "github.com/json-iterator/go"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Numbers are decoded as json.Number so that prices never pass through float64.
var json = jsoniter.Config{
	EscapeHTML:             true,
	SortMapKeys:            true,
	ValidateJsonRawMessage: true,
	UseNumber:              true,
}.Froze()

const (
	defaultTimeout    = 10 * time.Second
	defaultRetryDelay = 500 * time.Millisecond
)

// Options configures an API client.
type Options struct {
	BaseURL           string
	Timeout           time.Duration
	RequestsPerSecond float64
	Burst             int
	// MaxAttempts bounds the attempts of idempotent GET requests. Values below 1 mean 1.
	MaxAttempts int
	RetryDelay  time.Duration
	Metrics     *metrics.Metrics
}

// apiClient is a small JSON-over-fasthttp client shared by the site and exchange clients.
type apiClient struct {
	client      *fasthttp.Client
	baseURL     string
	timeout     time.Duration
	limiter     *rate.Limiter
	maxAttempts int
	retryDelay  time.Duration
	logger      *zap.Logger
	metrics     *metrics.Metrics
}

func newAPIClient(opts Options, logger *zap.Logger) *apiClient {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	limit := rate.Inf
	if opts.RequestsPerSecond > 0 {
		limit = rate.Limit(opts.RequestsPerSecond)
	}
	burst := opts.Burst
	if burst <= 0 {
		burst = 1
	}
	attempts := opts.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}
	retryDelay := opts.RetryDelay
	if retryDelay <= 0 {
		retryDelay = defaultRetryDelay
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &apiClient{
		client:      &fasthttp.Client{},
		baseURL:     strings.TrimRight(opts.BaseURL, "/"),
		timeout:     timeout,
		limiter:     rate.NewLimiter(limit, burst),
		maxAttempts: attempts,
		retryDelay:  retryDelay,
		logger:      logger,
		metrics:     opts.Metrics,
	}
}

// get performs a GET. With strict set, a 2xx body carrying an "error" field fails.
func (c *apiClient) get(ctx context.Context, path string, out any, strict bool) error {
	var lastErr error
	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		lastErr = c.do(ctx, fasthttp.MethodGet, path, nil, out, strict)
		if lastErr == nil || !isRetryable(lastErr) || attempt == c.maxAttempts {
			break
		}

		delay := c.retryDelay * time.Duration(1<<(attempt-1))
		c.logger.Debug("Retrying request",
			zap.String("path", path),
			zap.Int("attempt", attempt),
			zap.Duration("delay", delay),
			zap.Error(lastErr))

		select {
		case <-ctx.Done():
			return entity.NewServiceError(entity.CategoryTransport, "request cancelled", ctx.Err())
		case <-time.After(delay):
		}
	}
	return lastErr
}

func (c *apiClient) post(ctx context.Context, path string, body any, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to encode request body for %s: %w", path, err)
	}
	return c.do(ctx, fasthttp.MethodPost, path, payload, out, true)
}

func (c *apiClient) delete(ctx context.Context, path string, out any) error {
	return c.do(ctx, fasthttp.MethodDelete, path, nil, out, true)
}

func (c *apiClient) do(ctx context.Context, method, path string, body []byte, out any, strict bool) error {
	requestURL := c.baseURL + path

	if err := c.limiter.Wait(ctx); err != nil {
		return entity.NewServiceError(entity.CategoryTransport, "rate limiter wait aborted", err)
	}

	req := fasthttp.AcquireRequest()
	defer fasthttp.ReleaseRequest(req)
	req.SetRequestURI(requestURL)
	req.Header.SetMethod(method)
	req.Header.Set(fasthttp.HeaderAccept, "application/json")
	if body != nil {
		req.Header.SetContentType("application/json")
		req.SetBody(body)
	}

	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseResponse(resp)

	c.logger.Debug("Sending request", zap.String("method", method), zap.String("url", requestURL))

	var err error
	if deadline, ok := ctx.Deadline(); ok {
		err = c.client.DoDeadline(req, resp, deadline)
	} else {
		err = c.client.DoTimeout(req, resp, c.timeout)
	}
	if err != nil {
		c.metrics.IncUpstream(method, "error")
		c.logger.Error("Failed to execute request", zap.String("method", method), zap.String("url", requestURL), zap.Error(err))
		se := entity.NewServiceError(entity.CategoryTransport, fmt.Sprintf("failed to execute request to %s", requestURL), err)
		se.URL = requestURL
		return se
	}

	status := resp.StatusCode()
	rawBody := resp.Body()
	c.metrics.IncUpstream(method, statusClass(status))

	if status < 200 || status > 299 {
		msg := errorMessage(rawBody)
		if msg == "" {
			msg = fmt.Sprintf("request failed with status %d", status)
		}
		c.logger.Error("API request failed",
			zap.String("url", requestURL),
			zap.Int("statusCode", status),
			zap.ByteString("responseBody", rawBody))
		category := entity.CategoryUpstream
		if status == fasthttp.StatusNotFound {
			category = entity.CategoryNotFound
		}
		return &entity.ServiceError{Category: category, StatusCode: status, Message: msg, URL: requestURL}
	}

	if strict {
		if msg := errorMessage(rawBody); msg != "" {
			c.logger.Warn("API reported an error", zap.String("url", requestURL), zap.String("error", msg))
			return &entity.ServiceError{Category: entity.CategoryService, StatusCode: status, Message: msg, URL: requestURL}
		}
	}

	if out == nil || len(bytes.TrimSpace(rawBody)) == 0 {
		return nil
	}
	if err := json.Unmarshal(rawBody, out); err != nil {
		c.logger.Error("Failed to unmarshal response",
			zap.String("url", requestURL),
			zap.ByteString("responseBody", rawBody),
			zap.Error(err))
		se := entity.NewServiceError(entity.CategoryDecode, fmt.Sprintf("failed to unmarshal response from %s", requestURL), err)
		se.URL = requestURL
		return se
	}
	return nil
}

// errorMessage extracts the "error" field of a JSON object body, if any.
func errorMessage(body []byte) string {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return ""
	}
	var payload apitypes.ErrorResponse
	if err := json.Unmarshal(trimmed, &payload); err != nil || payload.Error == nil {
		return ""
	}
	switch v := payload.Error.(type) {
	case string:
		return strings.TrimSpace(v)
	case bool:
		if !v {
			return ""
		}
		return "unknown error"
	case map[string]any:
		if msg, ok := v["message"].(string); ok && msg != "" {
			return msg
		}
		return fmt.Sprint(v)
	default:
		return fmt.Sprint(v)
	}
}

func isRetryable(err error) bool {
	se, ok := entity.AsServiceError(err)
	if !ok {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	switch se.Category {
	case entity.CategoryTransport:
		return true
	case entity.CategoryUpstream:
		return se.StatusCode >= 500 || se.StatusCode == fasthttp.StatusTooManyRequests
	default:
		return false
	}
}

func statusClass(status int) string {
	return fmt.Sprintf("%dxx", status/100)
}
