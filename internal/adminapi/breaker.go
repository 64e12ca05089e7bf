package adminapi

import (
	"context"
	"errors"
	"time"

	"github.com/sony/gobreaker"
)

// BreakerConfig tunes the circuit breaker.
type BreakerConfig struct {
	Name        string
	MaxFailures uint32
	OpenTimeout time.Duration
	// OnStateChange is called on every transition, e.g. to export a metric.
	OnStateChange func(name string, from, to string)
}

func newBreaker(cfg BreakerConfig, c *Client) *gobreaker.CircuitBreaker {
	if cfg.Name == "" {
		cfg.Name = "adminapi"
	}
	if cfg.MaxFailures == 0 {
		cfg.MaxFailures = 5
	}
	if cfg.OpenTimeout <= 0 {
		cfg.OpenTimeout = 30 * time.Second
	}
	onChange := cfg.OnStateChange
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: 1,
		Timeout:     cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.MaxFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			c.log.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("admin api breaker state changed")
			if onChange != nil {
				onChange(name, from.String(), to.String())
			}
		},
		IsSuccessful: countsAsSuccess,
	})
}

// countsAsSuccess keeps client-side errors from tripping the breaker.
func countsAsSuccess(err error) bool {
	if err == nil {
		return true
	}
	if errors.Is(err, context.Canceled) {
		return true
	}
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return !statusErr.Temporary()
	}
	return false
}
