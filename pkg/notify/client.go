// Package notify forwards leak detections to an external HTTP sink.
// Requests go through a circuit breaker so a dead sink fails fast instead
// of piling up goroutines behind the simulation.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sony/gobreaker"

	"github.com/opd-ai/go-leaksim/pkg/config"
	"github.com/opd-ai/go-leaksim/pkg/geometry"
	"github.com/opd-ai/go-leaksim/pkg/logging"
)

// ErrUnexpectedStatus is returned when the sink answers with a non-2xx code
var ErrUnexpectedStatus = errors.New("notify: unexpected status")

// Sender delivers a single leak location
type Sender interface {
	Send(ctx context.Context, location geometry.Point) (int, error)
}

// Client posts leak locations to the configured URL
type Client struct {
	url        string
	timeout    time.Duration
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker
	logger     *logging.Logger
}

type payload struct {
	Location [2]float64 `json:"location"`
}

// NewClient creates a client with a circuit breaker configured from cfg.
// A nil logger discards output.
func NewClient(cfg config.NotifierConfig, logger *logging.Logger) *Client {
	if logger == nil {
		logger = logging.Discard()
	}
	logger = logger.WithComponent("notify")

	maxFailures := cfg.BreakerMaxFailures
	if maxFailures == 0 {
		maxFailures = 1
	}

	settings := gobreaker.Settings{
		Name:        "leak-notifier",
		MaxRequests: cfg.BreakerMaxRequests,
		Interval:    cfg.BreakerInterval,
		Timeout:     cfg.BreakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= maxFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Info(context.Background(), "circuit breaker state changed",
				"name", name,
				"from", from.String(),
				"to", to.String(),
			)
		},
	}

	return &Client{
		url:        cfg.URL,
		timeout:    cfg.Timeout,
		httpClient: &http.Client{},
		breaker:    gobreaker.NewCircuitBreaker(settings),
		logger:     logger,
	}
}

// Send posts {"location":[x,y]} once. It never retries; an open breaker
// rejects the call without touching the network.
func (c *Client) Send(ctx context.Context, location geometry.Point) (int, error) {
	body, err := json.Marshal(payload{Location: [2]float64{location.X, location.Y}})
	if err != nil {
		return 0, fmt.Errorf("encode payload: %w", err)
	}

	code, err := c.breaker.Execute(func() (interface{}, error) {
		return c.post(ctx, body)
	})
	status, _ := code.(int)
	if err != nil {
		return status, fmt.Errorf("notify %s: %w", c.url, err)
	}
	return status, nil
}

func (c *Client) post(ctx context.Context, body []byte) (int, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return resp.StatusCode, fmt.Errorf("%w: %d", ErrUnexpectedStatus, resp.StatusCode)
	}
	return resp.StatusCode, nil
}

// State returns the breaker state: "closed", "half-open" or "open"
func (c *Client) State() string {
	return c.breaker.State().String()
}

// Counts returns the breaker's failure and success counters
func (c *Client) Counts() gobreaker.Counts {
	return c.breaker.Counts()
}
