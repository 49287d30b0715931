package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/niksmo/storefront/internal/core/domain"
	"github.com/niksmo/storefront/internal/core/port"
	"github.com/niksmo/storefront/pkg/metrics"
	"github.com/niksmo/storefront/pkg/retry"
	"github.com/niksmo/storefront/pkg/ttlcache"
	"golang.org/x/sync/singleflight"
)

const (
	DefaultTimeout    = 10 * time.Second
	DefaultMaxRetries = 3
	DefaultRetryDelay = time.Second
	DefaultCacheTTL   = 5 * time.Minute
)

var (
	_ port.ReviewsFetcher  = (*Client)(nil)
	_ port.ProductsFetcher = (*Client)(nil)
	_ port.OrderCreator    = (*Client)(nil)
	_ port.Upstream        = (*Client)(nil)
)

type Doer interface {
	Do(*http.Request) (*http.Response, error)
}

type Opt func(*Client) error

func TimeoutOpt(d time.Duration) Opt {
	return func(c *Client) error {
		if d <= 0 {
			return errors.New("timeout must be positive")
		}
		c.timeout = d
		return nil
	}
}

// RetryOpt sets the number of retries after the first attempt and the base
// delay. The wait before retry n is n × delay.
func RetryOpt(maxRetries int, delay time.Duration) Opt {
	return func(c *Client) error {
		if maxRetries < 0 {
			return errors.New("max retries is negative")
		}
		c.maxRetries = maxRetries
		c.retryDelay = delay
		return nil
	}
}

func CacheOpt(cache *ttlcache.Cache[string, []byte], ttl time.Duration) Opt {
	return func(c *Client) error {
		if cache == nil {
			return errors.New("cache is nil")
		}
		c.cache = cache
		c.ttl = ttl
		return nil
	}
}

func HTTPClientOpt(d Doer) Opt {
	return func(c *Client) error {
		if d == nil {
			return errors.New("http client is nil")
		}
		c.httpClient = d
		return nil
	}
}

func MetricsOpt(m *metrics.ClientMetrics) Opt {
	return func(c *Client) error {
		c.metrics = m
		return nil
	}
}

// A Client calls the product/order API.
//
// Read endpoints are served from the response cache while valid.
// Every attempt is bounded by the timeout; transport failures are retried.
type Client struct {
	baseURL    string
	httpClient Doer
	timeout    time.Duration
	maxRetries int
	retryDelay time.Duration
	ttl        time.Duration
	cache      *ttlcache.Cache[string, []byte]
	flight     singleflight.Group
	metrics    *metrics.ClientMetrics
}

func New(baseURL string, opts ...Opt) (*Client, error) {
	const op = "apiclient.New"

	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, fmt.Errorf("%s: base url is empty", op)
	}

	c := &Client{
		baseURL:    baseURL,
		httpClient: http.DefaultClient,
		timeout:    DefaultTimeout,
		maxRetries: DefaultMaxRetries,
		retryDelay: DefaultRetryDelay,
		ttl:        DefaultCacheTTL,
		cache:      ttlcache.New[string, []byte](),
	}

	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
	}
	return c, nil
}

func (c *Client) GetReviews(ctx context.Context) ([]domain.Review, error) {
	return getJSON[[]domain.Review](ctx, c, "/reviews")
}

func (c *Client) GetProducts(
	ctx context.Context, page, pageSize int,
) (domain.ProductsPage, error) {
	endpoint := fmt.Sprintf("/products?page=%d&page_size=%d", page, pageSize)
	return getJSON[domain.ProductsPage](ctx, c, endpoint)
}

// CreateOrder submits the order. It is never cached.
//
// A rejected order is not an error: inspect [domain.OrderResult.OK].
func (c *Client) CreateOrder(
	ctx context.Context, req domain.OrderRequest,
) (domain.OrderResult, error) {
	const endpoint = "/order"

	body, err := json.Marshal(req)
	if err != nil {
		return domain.OrderResult{}, &Error{Endpoint: endpoint, Err: err}
	}

	data, err := c.Forward(ctx, http.MethodPost, endpoint, body, 0)
	if err != nil {
		return domain.OrderResult{}, err
	}
	return decode[domain.OrderResult](endpoint, data)
}

// HealthCheck reports whether the API answers on /health.
func (c *Client) HealthCheck(ctx context.Context) bool {
	_, err := c.Forward(ctx, http.MethodGet, "/health", nil, 0)
	return err == nil
}

func (c *Client) ClearCache() {
	c.cache.Clear()
	slog.Debug("api cache cleared", "op", "Client.ClearCache")
}

func (c *Client) CacheSize() int {
	return c.cache.Len()
}

// Forward performs the request and returns the validated JSON body.
//
// GET requests with positive ttl are cached under the endpoint and identical
// concurrent calls share one upstream request.
func (c *Client) Forward(
	ctx context.Context, method, endpoint string, body []byte, ttl time.Duration,
) ([]byte, error) {
	const op = "Client.Forward"
	log := slog.With("op", op, "endpoint", endpoint)

	if method != http.MethodGet || ttl <= 0 {
		return c.fetch(ctx, method, endpoint, body)
	}

	if data, ok := c.cache.Get(endpoint); ok {
		log.Debug("returning cached response")
		return data, nil
	}

	// The shared fetch outlives any single caller; attempts stay bounded
	// by the timeout and the retry budget.
	flightCtx := context.WithoutCancel(ctx)
	ch := c.flight.DoChan(endpoint, func() (any, error) {
		data, err := c.fetch(flightCtx, method, endpoint, nil)
		if err != nil {
			return nil, err
		}
		c.cache.Set(endpoint, data, ttl)
		return data, nil
	})

	select {
	case <-ctx.Done():
		log.Debug("caller left shared request", "err", ctx.Err())
		return nil, &Error{Endpoint: endpoint, Err: ctx.Err()}
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.([]byte), nil
	}
}

type response struct {
	status      int
	contentType string
	body        []byte
}

func (c *Client) fetch(
	ctx context.Context, method, endpoint string, body []byte,
) ([]byte, error) {
	const op = "Client.fetch"
	log := slog.With("op", op, "endpoint", endpoint)

	policy := retry.Policy{
		MaxAttempts: c.maxRetries + 1,
		Backoff:     retry.Linear(c.retryDelay),
		Retryable:   transient,
		OnRetry: func(attempt int, err error, wait time.Duration) {
			log.Warn("request failed", "attempt", attempt, "retryIn", wait, "err", err)
		},
	}

	resp, err := retry.Do(ctx, policy, func(ctx context.Context) (response, error) {
		return c.attempt(ctx, method, endpoint, body)
	})
	if err != nil {
		log.Error("request failed", "err", err)
		return nil, err
	}

	data, err := c.validate(endpoint, resp)
	if err != nil {
		log.Error("invalid response", "err", err)
		return nil, err
	}

	log.Debug("request successful")
	return data, nil
}

func (c *Client) attempt(
	ctx context.Context, method, endpoint string, body []byte,
) (resp response, err error) {
	route, _, _ := strings.Cut(endpoint, "?")
	defer func() { c.metrics.Observe(route, outcome(err)) }()

	attemptCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var r io.Reader
	if body != nil {
		r = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(
		attemptCtx, method, c.baseURL+endpoint, r,
	)
	if err != nil {
		return response{}, &Error{Endpoint: endpoint, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := c.httpClient.Do(req)
	if err != nil {
		return response{}, c.transportErr(ctx, attemptCtx, endpoint, err)
	}
	defer res.Body.Close()

	data, err := io.ReadAll(res.Body)
	if err != nil {
		return response{}, c.transportErr(ctx, attemptCtx, endpoint, err)
	}

	if res.StatusCode < 200 || res.StatusCode > 299 {
		return response{}, &Error{
			Status:   res.StatusCode,
			Endpoint: endpoint,
			Err: fmt.Errorf(
				"%w: HTTP %d: %s",
				ErrStatus, res.StatusCode, http.StatusText(res.StatusCode),
			),
		}
	}

	return response{
		status:      res.StatusCode,
		contentType: res.Header.Get("Content-Type"),
		body:        data,
	}, nil
}

func (c *Client) transportErr(
	parent, attemptCtx context.Context, endpoint string, err error,
) error {
	if parent.Err() != nil {
		return &Error{Endpoint: endpoint, Err: parent.Err()}
	}
	if errors.Is(attemptCtx.Err(), context.DeadlineExceeded) {
		return &Error{
			Endpoint: endpoint,
			Err:      fmt.Errorf("%w after %s", ErrTimeout, c.timeout),
		}
	}
	return &Error{Endpoint: endpoint, Err: fmt.Errorf("%w: %w", ErrNetwork, err)}
}

func (c *Client) validate(endpoint string, resp response) ([]byte, error) {
	if !isJSON(resp.contentType) {
		return nil, &Error{
			Status:   resp.status,
			Endpoint: endpoint,
			Err:      fmt.Errorf("%w, got %q", ErrNotJSON, resp.contentType),
		}
	}

	trimmed := bytes.TrimSpace(resp.body)
	if len(trimmed) == 0 {
		return nil, &Error{Status: resp.status, Endpoint: endpoint, Err: ErrEmptyBody}
	}

	if !json.Valid(trimmed) || bytes.Equal(trimmed, []byte("null")) {
		return nil, &Error{Status: resp.status, Endpoint: endpoint, Err: ErrMalformedJSON}
	}
	return trimmed, nil
}

func isJSON(contentType string) bool {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	return mediaType == "application/json" || strings.HasSuffix(mediaType, "+json")
}

func getJSON[T any](ctx context.Context, c *Client, endpoint string) (T, error) {
	data, err := c.Forward(ctx, http.MethodGet, endpoint, nil, c.ttl)
	if err != nil {
		var zero T
		return zero, err
	}
	return decode[T](endpoint, data)
}

func decode[T any](endpoint string, data []byte) (T, error) {
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		var zero T
		return zero, &Error{
			Status:   http.StatusOK,
			Endpoint: endpoint,
			Err:      fmt.Errorf("%w: %w", ErrMalformedJSON, err),
		}
	}
	return v, nil
}
