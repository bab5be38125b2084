// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package source implements the registry adapters the resolver units call:
// arXiv, CrossRef, PubMed, PubMed Central, OpenAlex and publisher landing
// pages. Every adapter goes through a Client that rate-limits, caches,
// bounds each call with a timeout, retries 429/503 responses and maps
// failures onto TransportError.
package source

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/pdiddy/paper-resolver/internal/httputil"
	"github.com/pdiddy/paper-resolver/pkg/types"
)

const (
	// DefaultTimeout bounds one adapter call, retries included.
	DefaultTimeout = 10 * time.Second

	// DefaultUserAgent is sent when no user agent is configured.
	DefaultUserAgent = "paper-resolver/0.1"

	maxBody = 16 << 20
)

// Client is a rate-limited, caching HTTP client for one registry.
type Client struct {
	name       string
	httpClient *http.Client
	limiter    *rate.Limiter
	cache      *cache.Cache
	cacheTTL   time.Duration
	timeout    time.Duration
	userAgent  string
	maxRetries int
	log        *zap.Logger
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithRateLimit sets the sustained request rate and burst. A non-positive
// rate disables limiting.
func WithRateLimit(rps float64, burst int) ClientOption {
	return func(c *Client) {
		if rps <= 0 {
			c.limiter = nil
			return
		}
		if burst <= 0 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// WithCacheTTL enables response caching for ttl. Zero disables caching.
func WithCacheTTL(ttl time.Duration) ClientOption {
	return func(c *Client) {
		c.cacheTTL = ttl
		if ttl > 0 {
			c.cache = cache.New(ttl, 2*ttl)
		} else {
			c.cache = nil
		}
	}
}

// WithTimeout sets the per-call timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) ClientOption {
	return func(c *Client) {
		if ua != "" {
			c.userAgent = ua
		}
	}
}

// WithMaxRetries sets the number of 429/503 retries.
func WithMaxRetries(n int) ClientOption {
	return func(c *Client) {
		c.maxRetries = n
	}
}

// WithLogger sets the logger.
func WithLogger(log *zap.Logger) ClientOption {
	return func(c *Client) {
		if log != nil {
			c.log = log
		}
	}
}

// NewClient creates a client for the named registry.
func NewClient(name string, opts ...ClientOption) *Client {
	c := &Client{
		name:       name,
		httpClient: &http.Client{},
		timeout:    DefaultTimeout,
		userAgent:  DefaultUserAgent,
		log:        zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.log = c.log.With(zap.String("source", name))
	return c
}

// NewClientFromConfig creates a client from the shared HTTP settings and a
// registry's own settings.
func NewClientFromConfig(name string, hc types.HTTPConfig, sc types.SourceConfig, log *zap.Logger) *Client {
	timeout := hc.Timeout
	if sc.Timeout > 0 {
		timeout = sc.Timeout
	}
	return NewClient(name,
		WithRateLimit(sc.RateLimit, sc.Burst),
		WithCacheTTL(sc.CacheTTL),
		WithTimeout(timeout),
		WithUserAgent(hc.UserAgent),
		WithMaxRetries(hc.MaxRetries),
		WithLogger(log),
	)
}

// Name returns the registry name.
func (c *Client) Name() string { return c.name }

// Page is a fetched response body and the URL it was finally served from.
type Page struct {
	Body     []byte
	FinalURL string
}

// Get fetches rawURL and returns the body of a 2xx response.
func (c *Client) Get(ctx context.Context, op, rawURL, accept string) ([]byte, error) {
	p, err := c.Fetch(ctx, op, rawURL, accept)
	if err != nil {
		return nil, err
	}
	return p.Body, nil
}

// Fetch fetches rawURL, following redirects, and reports the final URL.
func (c *Client) Fetch(ctx context.Context, op, rawURL, accept string) (*Page, error) {
	key := accept + " " + rawURL
	if c.cache != nil {
		if v, ok := c.cache.Get(key); ok {
			c.log.Debug("cache hit", zap.String("op", op), zap.String("url", rawURL))
			return v.(*Page), nil
		}
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, limiterError(ctx, c.name, op, err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating %s request: %w", c.name, err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	if accept != "" {
		req.Header.Set("Accept", accept)
	}

	start := time.Now()
	resp, err := httputil.DoWithRetry(ctx, c.httpClient, req, c.maxRetries, c.log)
	if err != nil {
		c.log.Debug("request failed", zap.String("op", op), zap.Error(err))
		return nil, wrapTransport(c.name, op, err)
	}
	defer resp.Body.Close()

	c.log.Debug("response",
		zap.String("op", op),
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", time.Since(start)),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, resp.Body)
		return nil, statusError(c.name, op, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return nil, wrapTransport(c.name, op, err)
	}

	p := &Page{Body: body, FinalURL: resp.Request.URL.String()}
	if c.cache != nil {
		c.cache.Set(key, p, c.cacheTTL)
	}
	return p, nil
}
