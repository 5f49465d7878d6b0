package adapter

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/sethvargo/go-retry"
	"golang.org/x/time/rate"

	"econ-curator/internal/domain"
)

const (
	maxRetries       = 3
	retryBaseBackoff = 500 * time.Millisecond
	maxBodyBytes     = 32 << 20 // upstream payloads are bounded; refuse larger
)

// fetchClient is the shared HTTP client for the network adapters. Upstream
// statistical APIs are rate-sensitive, so each source gets its own limiter.
type fetchClient struct {
	http   *http.Client
	rps    float64
	logger *slog.Logger

	mu       sync.Mutex
	limiters map[domain.Source]*rate.Limiter
}

func newFetchClient(timeout time.Duration, rps float64, logger *slog.Logger) *fetchClient {
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	if rps == 0 {
		rps = 2
	}
	return &fetchClient{
		http:     &http.Client{Timeout: timeout},
		rps:      rps,
		logger:   logger,
		limiters: make(map[domain.Source]*rate.Limiter),
	}
}

func (c *fetchClient) limiter(source domain.Source) *rate.Limiter {
	c.mu.Lock()
	defer c.mu.Unlock()
	lim, ok := c.limiters[source]
	if !ok {
		lim = rate.NewLimiter(rate.Limit(c.rps), 1)
		c.limiters[source] = lim
	}
	return lim
}

// get performs a rate-limited GET with backoff on transient failures.
// Transport failures and retry exhaustion surface as SourceUnavailableError.
func (c *fetchClient) get(ctx context.Context, source domain.Source, url string) ([]byte, error) {
	if err := c.limiter(source).Wait(ctx); err != nil {
		return nil, domain.ErrSourceUnavailable("%s: rate limiter: %v", source, err)
	}

	var body []byte
	backoff := retry.WithMaxRetries(maxRetries, retry.NewFibonacci(retryBaseBackoff))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return domain.ErrSourceUnavailable("%s: build request: %v", source, err)
		}
		req.Header.Set("Accept", "application/json")

		resp, err := c.http.Do(req)
		if err != nil {
			return retry.RetryableError(domain.ErrSourceUnavailable("%s: %v", source, err))
		}
		defer resp.Body.Close() //nolint:errcheck

		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			return retry.RetryableError(domain.ErrSourceUnavailable("%s: status %d from %s", source, resp.StatusCode, url))
		}
		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			return domain.ErrSourceUnavailable("%s: status %d from %s", source, resp.StatusCode, url)
		}

		body, err = io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
		if err != nil {
			return retry.RetryableError(domain.ErrSourceUnavailable("%s: read body: %v", source, err))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return body, nil
}

// getJSON fetches url and decodes the payload into v. Malformed payloads
// surface as ParseError.
func (c *fetchClient) getJSON(ctx context.Context, source domain.Source, url string, v interface{}) error {
	body, err := c.get(ctx, source, url)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, v); err != nil {
		return domain.ErrParse("%s: malformed payload from %s: %v", source, url, err)
	}
	return nil
}

// newRawTable builds the provenance-stamped table shared by the adapters.
func newRawTable(source domain.Source, req FetchRequest, columns []string, rows [][]string) *domain.RawTable {
	return &domain.RawTable{
		Source:    source,
		Columns:   columns,
		Rows:      rows,
		FetchedAt: time.Now().UTC(),
		Params:    req.Params(),
	}
}
