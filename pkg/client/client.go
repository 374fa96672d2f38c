// Package client provides the workflow API transport with bearer auth,
// rate limiting, response caching and retry.
package client

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/Sternrassler/flowdesk/pkg/cache"
	"github.com/Sternrassler/flowdesk/pkg/ratelimit"
	"github.com/Sternrassler/flowdesk/pkg/session"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// HeaderRequestID correlates a request with server-side logs.
const HeaderRequestID = "X-Request-ID"

// Prometheus metrics for API client operations.
var (
	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "flowdesk_requests_total",
		Help: "Total API requests by endpoint and status",
	}, []string{"endpoint", "status"})

	requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "flowdesk_request_duration_seconds",
		Help:    "API request duration in seconds by endpoint",
		Buckets: []float64{0.05, 0.1, 0.5, 1, 2, 5, 10},
	}, []string{"endpoint"})

	errorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "flowdesk_errors_total",
		Help: "Total API errors by class",
	}, []string{"class"})

	retriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "flowdesk_retries_total",
		Help: "Total number of retry attempts by error class",
	}, []string{"error_class"})

	retryBackoffSeconds = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "flowdesk_retry_backoff_seconds",
		Help:    "Backoff duration for retries by error class",
		Buckets: []float64{0.5, 1, 2, 5, 10, 30, 60},
	}, []string{"error_class"})

	retryExhaustedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "flowdesk_retry_exhausted_total",
		Help: "Total number of times retry attempts were exhausted by error class",
	}, []string{"error_class"})
)

// Client is the workflow API client.
type Client struct {
	httpClient  *http.Client
	baseURL     string
	session     *session.Session
	rateLimiter *ratelimit.Tracker
	cache       *cache.Manager
	sem         chan struct{}
	config      Config
	logger      zerolog.Logger
}

// Config holds the client configuration.
type Config struct {
	// BaseURL of the workflow API, e.g. "https://workflow.example.com".
	BaseURL string

	// User-Agent header, e.g. "flowdesk/1.0 (ops@example.com)".
	UserAgent string

	// Session supplies the bearer token. Nil sends anonymous requests.
	Session *session.Session

	// Redis enables the response cache and shares rate limit state.
	// Optional.
	Redis *redis.Client

	// Concurrency
	MaxConcurrency int // Max parallel requests

	// Retry. Zero InitialBackoff uses the per-class profile.
	MaxRetries     int
	InitialBackoff time.Duration

	// Timeout per HTTP attempt.
	Timeout time.Duration
}

// DefaultConfig returns a safe default configuration.
func DefaultConfig(baseURL, userAgent string) Config {
	return Config{
		BaseURL:        baseURL,
		UserAgent:      userAgent,
		MaxConcurrency: 5,
		MaxRetries:     2,
		Timeout:        30 * time.Second,
	}
}

// New creates a new API client.
func New(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("base url is required")
	}

	if !strings.HasPrefix(cfg.BaseURL, "http://") && !strings.HasPrefix(cfg.BaseURL, "https://") {
		return nil, fmt.Errorf("base url must start with http:// or https:// (got %q)", cfg.BaseURL)
	}

	if cfg.UserAgent == "" {
		return nil, fmt.Errorf("user-agent is required")
	}

	if cfg.MaxRetries < 0 {
		return nil, fmt.Errorf("max_retries must be >= 0 (got %d)", cfg.MaxRetries)
	}

	if cfg.MaxConcurrency < 1 {
		return nil, fmt.Errorf("max_concurrency must be >= 1 (got %d)", cfg.MaxConcurrency)
	}

	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}

	logger := log.With().Str("component", "api-client").Logger()

	c := &Client{
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		session:     cfg.Session,
		rateLimiter: ratelimit.NewTracker(cfg.Redis, logger),
		sem:         make(chan struct{}, cfg.MaxConcurrency),
		config:      cfg,
		logger:      logger,
	}
	if cfg.Redis != nil {
		c.cache = cache.NewManager(cfg.Redis)
	}
	return c, nil
}

type anonymousKey struct{}

// WithoutAuth marks ctx so requests made with it carry no bearer token.
// Used for login.
func WithoutAuth(ctx context.Context) context.Context {
	return context.WithValue(ctx, anonymousKey{}, true)
}

func isAnonymous(ctx context.Context) bool {
	v, _ := ctx.Value(anonymousKey{}).(bool)
	return v
}

// Do performs an HTTP request with auth, rate limiting, caching and retry.
// Non-retriable error statuses are returned as a response for the caller
// to inspect; retriable ones that exhaust their attempts are returned as
// an error wrapping ErrRetryExhausted.
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	ctx := req.Context()
	endpoint := req.URL.Path

	startTime := time.Now()
	defer func() {
		requestDuration.WithLabelValues(endpoint).Observe(time.Since(startTime).Seconds())
	}()

	select {
	case c.sem <- struct{}{}:
		defer func() { <-c.sem }()
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	// Step 1: Credential
	principal := ""
	if c.session != nil && !isAnonymous(ctx) {
		token, err := c.session.Token(ctx)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Authorization", "Bearer "+token)
		principal = c.session.Principal(ctx)
	}

	// Step 2: Rate limit
	allowed, err := c.rateLimiter.ShouldAllowRequest(ctx)
	if err != nil {
		c.logger.Error().Err(err).Msg("Rate limit check failed")
		return nil, fmt.Errorf("rate limit check: %w", err)
	}
	if !allowed {
		c.logger.Warn().
			Str("endpoint", endpoint).
			Msg("Request blocked by rate limiter")
		requestsTotal.WithLabelValues(endpoint, "rate_limited").Inc()
		return nil, ErrRateLimited
	}

	// Step 3: Cache lookup for reads
	cacheable := c.cache != nil && req.Method == http.MethodGet
	cacheKey := cache.Key{
		Principal:   principal,
		Endpoint:    endpoint,
		QueryParams: req.URL.Query(),
	}

	var cachedEntry *cache.Entry
	if cacheable {
		cachedEntry, err = c.cache.Get(ctx, cacheKey)
		if err != nil && err != cache.ErrCacheMiss {
			c.logger.Warn().Err(err).Str("endpoint", endpoint).Msg("Cache get error")
		}
	}
	if cachedEntry != nil {
		if !cachedEntry.CanRevalidate() {
			requestsTotal.WithLabelValues(endpoint, "cached").Inc()
			return cache.EntryToResponse(req, cachedEntry), nil
		}
		cache.AddConditionalHeaders(req, cachedEntry)
		cache.ConditionalRequestsSent.Inc()
		c.logger.Debug().
			Str("endpoint", endpoint).
			Str("etag", cachedEntry.ETag).
			Msg("Making conditional request")
	}

	// Step 4: Common headers
	req.Header.Set("User-Agent", c.config.UserAgent)
	if req.Header.Get("Accept") == "" {
		req.Header.Set("Accept", "application/json")
	}
	if req.Header.Get(HeaderRequestID) == "" {
		req.Header.Set(HeaderRequestID, uuid.NewString())
	}

	c.logger.Debug().
		Str("endpoint", endpoint).
		Str("method", req.Method).
		Str("request_id", req.Header.Get(HeaderRequestID)).
		Msg("Executing API request")

	// Step 5: Execute with retry
	var resp *http.Response
	attempt := 0
	retryErr := retryWithBackoff(ctx, c.logger, c.retryConfig, func() error {
		attempt++
		if attempt > 1 {
			// A 429 on the previous attempt may have closed the window.
			allowed, err := c.rateLimiter.ShouldAllowRequest(ctx)
			if err != nil {
				return fmt.Errorf("rate limit check: %w", err)
			}
			if !allowed {
				c.logger.Warn().
					Str("endpoint", endpoint).
					Int("attempt", attempt).
					Msg("Retry blocked by rate limiter")
				requestsTotal.WithLabelValues(endpoint, "rate_limited").Inc()
				return ErrRateLimited
			}
		}
		if attempt > 1 && req.GetBody != nil {
			body, err := req.GetBody()
			if err != nil {
				return fmt.Errorf("rewind request body: %w", err)
			}
			req.Body = body
		}

		var reqErr error
		resp, reqErr = c.httpClient.Do(req)
		if reqErr != nil {
			c.logger.Error().Err(reqErr).Str("endpoint", endpoint).Msg("HTTP request failed")
			errorsTotal.WithLabelValues(string(ErrorClassNetwork)).Inc()
			requestsTotal.WithLabelValues(endpoint, "network_error").Inc()
			return reqErr
		}

		if err := c.rateLimiter.UpdateFromResponse(ctx, resp.StatusCode, resp.Header); err != nil {
			c.logger.Warn().Err(err).Msg("Failed to update rate limit from headers")
		}

		requestsTotal.WithLabelValues(endpoint, strconv.Itoa(resp.StatusCode)).Inc()

		if resp.StatusCode >= 400 {
			errClass := ClassifyStatus(resp.StatusCode)
			errorsTotal.WithLabelValues(string(errClass)).Inc()

			c.logger.Warn().
				Str("endpoint", endpoint).
				Int("status", resp.StatusCode).
				Str("error_class", string(errClass)).
				Msg("API request error")

			if shouldRetry(errClass) {
				resp.Body.Close()
				return &APIError{
					StatusCode: resp.StatusCode,
					Class:      errClass,
					Message:    http.StatusText(resp.StatusCode),
				}
			}
		}
		return nil
	})

	if retryErr != nil {
		return nil, retryErr
	}

	// Step 6: 401 means the stored token is dead
	if resp.StatusCode == http.StatusUnauthorized && c.session != nil && principal != "" {
		if err := c.session.Logout(ctx); err != nil {
			c.logger.Warn().Err(err).Msg("Failed to clear rejected credential")
		} else {
			c.logger.Info().Str("principal", principal).Msg("Credential rejected by API, cleared")
		}
	}

	// Step 7: 304 Not Modified
	if resp.StatusCode == http.StatusNotModified && cachedEntry != nil {
		c.logger.Debug().Str("endpoint", endpoint).Msg("304 Not Modified - using cache")
		cache.NotModifiedResponses.Inc()

		if newExpires, ok := refreshedExpiry(resp.Header); ok {
			if err := c.cache.UpdateTTL(ctx, cacheKey, newExpires); err != nil {
				c.logger.Warn().Err(err).Msg("Failed to update cache TTL")
			}
		}

		resp.Body.Close()
		return cache.EntryToResponse(req, cachedEntry), nil
	}

	// Step 8: Store reads, invalidate on writes
	switch {
	case cacheable && resp.StatusCode == http.StatusOK:
		c.store(ctx, cacheKey, resp)
	case c.cache != nil && isMutating(req.Method) && resp.StatusCode < 300:
		removed, err := c.cache.InvalidateResource(ctx, principal, endpoint)
		if err != nil {
			c.logger.Warn().Err(err).Str("endpoint", endpoint).Msg("Cache invalidation failed")
		} else if removed > 0 {
			c.logger.Debug().
				Str("endpoint", endpoint).
				Int("keys", removed).
				Msg("Invalidated cached reads")
		}
	}

	return resp, nil
}

func (c *Client) store(ctx context.Context, key cache.Key, resp *http.Response) {
	entry, ok, err := cache.ResponseToEntry(resp)
	if err != nil {
		c.logger.Warn().Err(err).Msg("Failed to create cache entry")
		return
	}
	if !ok {
		return
	}
	if err := c.cache.Set(ctx, key, entry); err != nil {
		c.logger.Warn().Err(err).Msg("Failed to cache response")
		return
	}
	c.logger.Debug().
		Str("endpoint", key.Endpoint).
		Dur("ttl", entry.TTL()).
		Msg("Cached response")
}

// retryConfig caps the class profile at the configured number of attempts.
func (c *Client) retryConfig(class ErrorClass) RetryConfig {
	rc := RetryConfigForErrorClass(class)
	rc.MaxAttempts = c.config.MaxRetries + 1
	if c.config.InitialBackoff > 0 {
		rc.InitialBackoff = c.config.InitialBackoff
		if rc.MaxBackoff < rc.InitialBackoff {
			rc.MaxBackoff = rc.InitialBackoff
		}
	}
	return rc
}

func refreshedExpiry(headers http.Header) (time.Time, bool) {
	if headers.Get("Cache-Control") == "" && headers.Get("Expires") == "" {
		return time.Time{}, false
	}
	synthetic := &http.Response{StatusCode: http.StatusOK, Header: headers, Body: http.NoBody}
	entry, ok, err := cache.ResponseToEntry(synthetic)
	if err != nil || !ok {
		return time.Time{}, false
	}
	return entry.Expires, true
}

func isMutating(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	default:
		return false
	}
}

// URL resolves an API path against the base URL.
func (c *Client) URL(path string) string {
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return c.baseURL + path
}

// Session returns the credential accessor, nil for anonymous clients.
func (c *Client) Session() *session.Session {
	return c.session
}

// MaxConcurrency returns the configured request parallelism.
func (c *Client) MaxConcurrency() int {
	return c.config.MaxConcurrency
}

// RateLimitState returns the last observed quota.
func (c *Client) RateLimitState(ctx context.Context) (*ratelimit.State, error) {
	return c.rateLimiter.GetState(ctx)
}

// SetHTTPClient sets a custom HTTP client (for testing).
func (c *Client) SetHTTPClient(client *http.Client) {
	c.httpClient = client
}

// GetCache returns the cache manager, nil without Redis.
func (c *Client) GetCache() *cache.Manager {
	return c.cache
}
