package providers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"github.com/i474232898/env-risk-correlator/internal/air"
	"github.com/i474232898/env-risk-correlator/internal/common"
)

// HTTPClientConfig bundles the HTTP client and the outbound call budget
// shared by every request an adapter makes.
type HTTPClientConfig struct {
	Client *http.Client

	// RatePerSecond and Burst bound outbound calls per adapter; a zero
	// RatePerSecond disables limiting.
	RatePerSecond float64
	Burst         int
}

var (
	errUnexpected   = errors.New("unexpected status code")
	errNoHTTPClient = errors.New("http client not configured")
)

// requester executes single HTTP attempts behind a circuit breaker and a
// token-bucket limiter. Failed attempts are never retried.
type requester struct {
	client  *http.Client
	circuit *gobreaker.CircuitBreaker
	limiter *rate.Limiter
}

func newRequester(name string, cfg HTTPClientConfig) *requester {
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Interval:    1 * time.Minute,
		Timeout:     2 * time.Minute,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	})

	var limiter *rate.Limiter
	if cfg.RatePerSecond > 0 {
		burst := cfg.Burst
		if burst <= 0 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.RatePerSecond), burst)
	}

	return &requester{client: cfg.Client, circuit: cb, limiter: limiter}
}

// do sends req and returns the response for any 2xx status. On failure it
// returns the reason the provider should be treated as unavailable.
func (r *requester) do(ctx context.Context, req *http.Request) (*http.Response, air.Reason, error) {
	if r.client == nil {
		return nil, air.ReasonNotConfigured, errNoHTTPClient
	}
	if r.limiter != nil {
		if err := r.limiter.Wait(ctx); err != nil {
			return nil, classifyTransport(err), err
		}
	}

	req = req.WithContext(ctx)

	result, err := r.circuit.Execute(func() (interface{}, error) {
		resp, execErr := r.client.Do(req)
		if execErr != nil {
			return nil, redactURL(execErr)
		}
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			resp.Body.Close()
			return nil, fmt.Errorf("%w: %d", errUnexpected, resp.StatusCode)
		}
		return resp, nil
	})
	if err != nil {
		switch {
		case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
			return nil, air.ReasonCircuitOpen, err
		case errors.Is(err, errUnexpected):
			return nil, air.ReasonHTTPStatus, err
		default:
			return nil, classifyTransport(err), err
		}
	}

	resp, ok := result.(*http.Response)
	if !ok {
		return nil, air.ReasonMalformed, fmt.Errorf("unexpected result type from circuit breaker")
	}
	return resp, "", nil
}

// redactURL drops the query string, which carries API credentials, from
// any *url.Error in err's chain.
func redactURL(err error) error {
	var ue *url.Error
	if errors.As(err, &ue) {
		ue.URL, _, _ = strings.Cut(ue.URL, "?")
	}
	return err
}

func classifyTransport(err error) air.Reason {
	if errors.Is(err, context.DeadlineExceeded) || common.HasAny(err.Error(), "timeout", "deadline exceeded") {
		return air.ReasonTimeout
	}
	return air.ReasonTransport
}
