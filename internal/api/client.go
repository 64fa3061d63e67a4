package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/singleflight"
)

const (
	DefaultBaseURL    = "http://localhost:8000/api/v1"
	defaultTimeout    = 60 * time.Second
	defaultMaxRetries = 3
	defaultRetryDelay = 500 * time.Millisecond
)

// Config configures a Client
type Config struct {
	BaseURL    string
	Timeout    time.Duration
	MaxRetries int
	RetryDelay time.Duration

	Logger     *slog.Logger
	Registerer prometheus.Registerer
	HTTPClient *http.Client
}

// Client talks to the portal REST API.
// It implements domain.LibraryClient, domain.GenerationClient and domain.SearchClient.
type Client struct {
	baseURL    string
	httpClient *http.Client
	maxRetries int
	retryDelay time.Duration
	logger     *slog.Logger
	metrics    *metrics
	group      singleflight.Group
}

// NewClient creates a new API client
func NewClient(cfg Config) *Client {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	maxRetries := cfg.MaxRetries
	if maxRetries < 0 {
		maxRetries = 0
	}
	retryDelay := cfg.RetryDelay
	if retryDelay <= 0 {
		retryDelay = defaultRetryDelay
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: timeout}
	}

	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
		maxRetries: maxRetries,
		retryDelay: retryDelay,
		logger:     logger,
		metrics:    newMetrics(cfg.Registerer),
	}
}

// BaseURL returns the API root the client talks to
func (c *Client) BaseURL() string {
	return c.baseURL
}

// request describes a single API call
type request struct {
	method   string
	path     string
	endpoint string // metrics label, the path template
	query    url.Values
	body     any
}

// do performs the request and decodes the JSON response into out (nil to skip).
// Idempotent GETs are retried with exponential backoff on network errors and 5xx;
// writes are sent once.
func (c *Client) do(ctx context.Context, r request, out any) error {
	reqURL := c.baseURL + r.path
	if len(r.query) > 0 {
		reqURL = reqURL + "?" + r.query.Encode()
	}

	var payload []byte
	if r.body != nil {
		var err error
		payload, err = json.Marshal(r.body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
	}

	attempts := 1
	if r.method == http.MethodGet {
		attempts += c.maxRetries
	}
	requestID := uuid.NewString()

	var lastErr *Error
	for attempt := 0; attempt < attempts; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		if attempt > 0 {
			delay := c.backoff(attempt)
			c.metrics.retries.WithLabelValues(r.endpoint).Inc()
			c.logger.Debug("retrying request", "attempt", attempt, "delay", delay, "url", reqURL)
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		body, status, err := c.send(ctx, r, reqURL, payload, requestID, attempt)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			lastErr = newNetworkError(err)
			c.metrics.errors.WithLabelValues(string(ClassNetwork)).Inc()
			c.logger.Warn("api request failed", "error", err, "url", reqURL, "attempt", attempt)
			continue
		}

		if status < 200 || status >= 300 {
			lastErr = newStatusError(status, r.path, body)
			c.metrics.errors.WithLabelValues(string(lastErr.Class)).Inc()
			if lastErr.Retryable() && attempt < attempts-1 {
				c.logger.Warn("api server error, will retry",
					"status", status,
					"body", string(body),
					"attempt", attempt,
					"maxRetries", attempts-1,
					"path", r.path,
				)
				continue
			}
			c.logger.Error("api request error", "status", status, "body", string(body), "path", r.path)
			return lastErr
		}

		if out == nil || status == http.StatusNoContent || len(body) == 0 {
			return nil
		}
		if err := json.Unmarshal(body, out); err != nil {
			c.metrics.errors.WithLabelValues(string(ClassDecode)).Inc()
			return newDecodeError(err)
		}
		return nil
	}

	c.logger.Error("api request failed after retries",
		"error", lastErr,
		"url", reqURL,
		"method", r.method,
	)
	return lastErr
}

// send performs one HTTP round trip and returns the raw body and status.
func (c *Client) send(ctx context.Context, r request, reqURL string, payload []byte, requestID string, attempt int) ([]byte, int, error) {
	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, r.method, reqURL, reader)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-ID", requestID)

	c.logger.Debug("api request", "method", r.method, "url", reqURL, "attempt", attempt, "request_id", requestID)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	c.metrics.duration.WithLabelValues(r.endpoint).Observe(time.Since(start).Seconds())
	if err != nil {
		c.metrics.requests.WithLabelValues(r.endpoint, "error").Inc()
		return nil, 0, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	c.metrics.requests.WithLabelValues(r.endpoint, strconv.Itoa(resp.StatusCode)).Inc()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to read response: %w", err)
	}
	return body, resp.StatusCode, nil
}

// backoff returns the delay before the given retry: retryDelay doubled per
// attempt with +/-20% jitter.
func (c *Client) backoff(attempt int) time.Duration {
	base := c.retryDelay * time.Duration(1<<(attempt-1))
	return time.Duration(float64(base) * (0.8 + rand.Float64()*0.4))
}

// getShared runs a GET through singleflight so concurrent callers asking for
// the same resource share one response. The shared fetch is detached from
// any single caller's cancellation; a caller that gives up returns its own
// ctx error and leaves the others waiting.
func getShared[T any](ctx context.Context, c *Client, r request) (*T, error) {
	key := r.path + "?" + r.query.Encode()
	ch := c.group.DoChan(key, func() (any, error) {
		var out T
		if err := c.do(context.WithoutCancel(ctx), r, &out); err != nil {
			return nil, err
		}
		return &out, nil
	})

	var res singleflight.Result
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res = <-ch:
	}
	if res.Shared {
		c.metrics.shared.WithLabelValues(r.endpoint).Inc()
	}
	if res.Err != nil {
		return nil, res.Err
	}
	// Each caller gets its own copy of the top-level value
	out := *(res.Val.(*T))
	return &out, nil
}

// IsOffline reports whether err means the API could not be reached
func IsOffline(err error) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.Class == ClassNetwork
}
