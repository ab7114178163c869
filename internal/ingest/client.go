// Package ingest loads the unified forecast document the data backend
// publishes, and keeps the rendering session current as new forecast
// cycles appear.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/sony/gobreaker/v2"
)

// Client errors.
var (
	// ErrDocumentUnavailable is returned when the document endpoint is
	// unreachable after all retries, or the circuit breaker is open.
	ErrDocumentUnavailable = errors.New("forecast document unavailable")
)

// ClientConfig holds configuration for the document HTTP client.
type ClientConfig struct {
	// Timeout is the per-request timeout. Default: 30 seconds
	// (documents can be tens of megabytes).
	Timeout time.Duration

	// MaxRetries bounds retry attempts per fetch. Default: 3.
	MaxRetries uint64

	// InitialInterval is the first retry backoff delay. Default: 500ms.
	InitialInterval time.Duration

	// MaxInterval caps the retry backoff delay. Default: 10 seconds.
	MaxInterval time.Duration
}

// Client fetches forecast documents over HTTP with exponential backoff
// and a circuit breaker, so a flapping backend cannot wedge the reload
// loop.
type Client struct {
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker[[]byte]
	cfg        ClientConfig
}

// NewClient creates a document client, filling zero config fields with
// defaults.
func NewClient(cfg ClientConfig) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = 3
	}
	if cfg.InitialInterval <= 0 {
		cfg.InitialInterval = 500 * time.Millisecond
	}
	if cfg.MaxInterval <= 0 {
		cfg.MaxInterval = 10 * time.Second
	}

	breaker := gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:        "forecast-document",
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	})

	return &Client{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		breaker:    breaker,
		cfg:        cfg,
	}
}

// Fetch downloads the document body from the given URL.
func (c *Client) Fetch(ctx context.Context, url string) ([]byte, error) {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = c.cfg.InitialInterval
	bo.MaxInterval = c.cfg.MaxInterval
	bo.MaxElapsedTime = 0

	var body []byte
	operation := func() error {
		b, err := c.breaker.Execute(func() ([]byte, error) {
			return c.get(ctx, url)
		})
		if err != nil {
			if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
				return backoff.Permanent(ErrDocumentUnavailable)
			}
			return err
		}
		body = b
		return nil
	}

	err := backoff.Retry(operation, backoff.WithContext(
		backoff.WithMaxRetries(bo, c.cfg.MaxRetries), ctx))
	if err != nil {
		if errors.Is(err, ErrDocumentUnavailable) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrDocumentUnavailable, err)
	}
	return body, nil
}

func (c *Client) get(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, backoff.Permanent(err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		err := fmt.Errorf("unexpected status %d fetching document", resp.StatusCode)
		if resp.StatusCode >= 400 && resp.StatusCode < 500 {
			// Client errors will not heal on retry.
			return nil, backoff.Permanent(err)
		}
		return nil, err
	}
	return io.ReadAll(resp.Body)
}

// BreakerState returns the circuit breaker state for ops reporting.
func (c *Client) BreakerState() gobreaker.State {
	return c.breaker.State()
}
