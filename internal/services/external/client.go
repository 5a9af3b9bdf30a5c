package external

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/isida-tgbot-go/internal/config"
	"github.com/isida-tgbot-go/internal/middleware"
	"github.com/isida-tgbot-go/internal/services/cache"
	"github.com/sirupsen/logrus"
)

// ErrNotConfigured is returned when a service has no API key
var ErrNotConfigured = errors.New("service not configured")

// StatusError is a non-200 answer from a remote API
type StatusError struct {
	Service string
	Code    int
	Body    string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s request failed with status %d: %s", e.Service, e.Code, e.Body)
}

// Temporary reports whether a retry may succeed
func (e *StatusError) Temporary() bool {
	return e.Code == http.StatusTooManyRequests || e.Code >= 500
}

// Client calls the weather, currency and image APIs.
// Weather and currency lookups never fail; they fall back to made-up values.
type Client struct {
	cfg        config.ExternalConfig
	httpClient *http.Client
	cache      cache.Service
	logger     *logrus.Logger
	metrics    *middleware.Metrics
	backoff    time.Duration

	mu  sync.Mutex
	rng *rand.Rand
}

// Option customizes a Client
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithBackoff sets the delay before the second attempt; later attempts double it
func WithBackoff(d time.Duration) Option {
	return func(c *Client) { c.backoff = d }
}

// WithRand sets the source for synthetic values
func WithRand(rng *rand.Rand) Option {
	return func(c *Client) { c.rng = rng }
}

// NewClient creates a client for the configured services
func NewClient(cfg config.ExternalConfig, cache cache.Service, logger *logrus.Logger, metrics *middleware.Metrics, opts ...Option) *Client {
	if cfg.Attempts <= 0 {
		cfg.Attempts = 1
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}

	c := &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		cache:      cache,
		logger:     logger,
		metrics:    metrics,
		backoff:    time.Second,
		rng:        rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// getJSON fetches url into out, retrying transport errors and 5xx answers
func (c *Client) getJSON(ctx context.Context, service, target string, out any) error {
	var lastErr error

	for attempt := 1; attempt <= c.cfg.Attempts; attempt++ {
		start := time.Now()
		err := c.fetch(ctx, target, service, out)
		status := "success"
		if err != nil {
			status = "error"
		}
		c.metrics.RecordExternalRequest(service, status, time.Since(start))
		if err == nil {
			return nil
		}

		lastErr = err
		var statusErr *StatusError
		if errors.As(err, &statusErr) && !statusErr.Temporary() {
			return err
		}

		if attempt == c.cfg.Attempts {
			break
		}
		c.logger.WithFields(logrus.Fields{
			"service": service,
			"attempt": attempt,
			"error":   err.Error(),
		}).Warn("External request failed, retrying...")

		wait := c.backoff << uint(attempt-1)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
	}

	return fmt.Errorf("all %d attempts failed: %w", c.cfg.Attempts, lastErr)
}

// fetch never puts the request URL into its errors; the URLs carry API keys
func (c *Client) fetch(ctx context.Context, target, service string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return fmt.Errorf("failed to create %s request", service)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		var urlErr *url.Error
		if errors.As(err, &urlErr) {
			err = urlErr.Err
		}
		return fmt.Errorf("failed to send %s request: %w", service, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return &StatusError{Service: service, Code: resp.StatusCode, Body: string(body)}
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}

func (c *Client) intn(n int) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.rng.Intn(n)
}

func (c *Client) uniform(lo, hi float64) float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return lo + c.rng.Float64()*(hi-lo)
}
