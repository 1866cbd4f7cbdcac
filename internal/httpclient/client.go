// Package httpclient builds the resty clients used for outbound calls, each guarded by a
// circuit breaker.
package httpclient

import (
	"errors"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

// ErrUnavailable is returned while the breaker is open.
var ErrUnavailable = errors.New("upstream service unavailable")

// Client pairs a resty client with a breaker.
type Client struct {
	http    *resty.Client
	breaker *gobreaker.CircuitBreaker
}

// New returns a client for baseURL. The breaker opens once at least five requests have
// been seen in the current interval and 60% of them failed.
func New(name, baseURL string, timeout time.Duration, log *zap.Logger) *Client {
	http := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetHeader("Accept", "application/json")

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 5 && failureRatio >= 0.6
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn("circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
	})

	return &Client{http: http, breaker: breaker}
}

// Do runs build through the breaker. A non-2xx response counts as a failure.
func (c *Client) Do(build func(r *resty.Request) (*resty.Response, error)) (*resty.Response, error) {
	out, err := c.breaker.Execute(func() (interface{}, error) {
		resp, err := build(c.http.R())
		if err != nil {
			return nil, err
		}
		if resp.IsError() {
			return resp, fmt.Errorf("unexpected status %d: %s", resp.StatusCode(), resp.String())
		}
		return resp, nil
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, fmt.Errorf("%s: %w", c.breaker.Name(), ErrUnavailable)
	}
	if err != nil {
		return nil, err
	}
	return out.(*resty.Response), nil
}

// State reports the breaker state, mainly for tests and health output.
func (c *Client) State() gobreaker.State {
	return c.breaker.State()
}
