package feed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"slices"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/sony/gobreaker"
)

// RetryPolicy bounds retries of idempotent GETs.
type RetryPolicy struct {
	MaxAttempts int
	Base        time.Duration
	Factor      float64
	StatusCodes []int
}

// Delay returns the wait before retry number n (1-based).
func (p RetryPolicy) Delay(n int) time.Duration {
	if n < 1 || p.Base <= 0 {
		return 0
	}
	factor := p.Factor
	if factor < 1 {
		factor = 1
	}
	return time.Duration(float64(p.Base) * math.Pow(factor, float64(n-1)))
}

func (p RetryPolicy) retryable(status int) bool {
	return slices.Contains(p.StatusCodes, status)
}

// StatusError is returned for a non-2xx response.
type StatusError struct {
	StatusCode int
	URL        string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("GET %s: status %d", e.URL, e.StatusCode)
}

type GammaOptions struct {
	BaseURL             string
	Timeout             time.Duration
	Retry               RetryPolicy
	ConsecutiveFailures uint32
	OpenTimeout         time.Duration
	HTTPClient          *http.Client
	Logger              zerolog.Logger
}

// GammaClient reads events from the Gamma REST API.
type GammaClient struct {
	baseURL    string
	timeout    time.Duration
	retry      RetryPolicy
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker
	log        zerolog.Logger
	sleep      func(context.Context, time.Duration) error
}

func NewGammaClient(opts GammaOptions) *GammaClient {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	if opts.Retry.MaxAttempts < 1 {
		opts.Retry.MaxAttempts = 1
	}
	trip := opts.ConsecutiveFailures
	if trip == 0 {
		trip = 5
	}
	st := gobreaker.Settings{Name: "gamma"}
	st.Timeout = opts.OpenTimeout
	st.ReadyToTrip = func(counts gobreaker.Counts) bool {
		return counts.ConsecutiveFailures >= trip
	}
	// A 4xx other than 429 is a bad request, not an unhealthy upstream.
	st.IsSuccessful = func(err error) bool {
		var se *StatusError
		if errors.As(err, &se) {
			return se.StatusCode >= 400 && se.StatusCode < 500 && se.StatusCode != http.StatusTooManyRequests
		}
		return err == nil
	}
	log := opts.Logger
	st.OnStateChange = func(name string, from, to gobreaker.State) {
		log.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("circuit breaker state change")
	}
	return &GammaClient{
		baseURL:    strings.TrimRight(opts.BaseURL, "/"),
		timeout:    opts.Timeout,
		retry:      opts.Retry,
		httpClient: httpClient,
		breaker:    gobreaker.NewCircuitBreaker(st),
		log:        log,
		sleep:      sleepCtx,
	}
}

// Event fetches GET {base}/events/{id}.
func (c *GammaClient) Event(ctx context.Context, id string) (*Event, error) {
	endpoint := c.baseURL + "/events/" + url.PathEscape(id)
	out, err := c.breaker.Execute(func() (interface{}, error) {
		var ev Event
		if err := c.getJSON(ctx, endpoint, &ev); err != nil {
			return nil, err
		}
		return &ev, nil
	})
	if err != nil {
		return nil, fmt.Errorf("fetch event %s: %w", id, err)
	}
	return out.(*Event), nil
}

func (c *GammaClient) getJSON(ctx context.Context, endpoint string, dst any) error {
	var lastErr error
	for attempt := 1; attempt <= c.retry.MaxAttempts; attempt++ {
		if attempt > 1 {
			if err := c.sleep(ctx, c.retry.Delay(attempt-1)); err != nil {
				return err
			}
		}
		body, err := c.get(ctx, endpoint)
		if err == nil {
			if err := json.Unmarshal(body, dst); err != nil {
				return fmt.Errorf("decode %s: %w", endpoint, err)
			}
			return nil
		}
		lastErr = err
		if !c.shouldRetry(ctx, err) {
			return err
		}
		c.log.Debug().Err(err).Int("attempt", attempt).Str("url", endpoint).Msg("retrying request")
	}
	return lastErr
}

func (c *GammaClient) shouldRetry(ctx context.Context, err error) bool {
	if ctx.Err() != nil {
		return false
	}
	var se *StatusError
	if errors.As(err, &se) {
		return c.retry.retryable(se.StatusCode)
	}
	return true
}

func (c *GammaClient) get(ctx context.Context, endpoint string) ([]byte, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, &StatusError{StatusCode: resp.StatusCode, URL: endpoint}
	}
	return io.ReadAll(resp.Body)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
