package client

import (
	"context"
	"fmt"
	"time"

	"github.com/cuemby/cattle-tools/pkg/log"
	"github.com/cuemby/cattle-tools/pkg/metrics"
	"github.com/cuemby/cattle-tools/pkg/types"
)

// Field is a service attribute a wait can observe
type Field string

const (
	FieldState       Field = "state"
	FieldHealthState Field = "healthState"
)

func (f Field) value(svc *types.Service) string {
	switch f {
	case FieldState:
		return svc.State
	case FieldHealthState:
		return svc.HealthState
	default:
		return ""
	}
}

// waitConfig holds the deadline of a single wait
type waitConfig struct {
	timeout    time.Duration
	hasTimeout bool
}

// WaitOption configures AwaitField
type WaitOption func(*waitConfig)

// WithTimeout bounds the wait. Without it the wait only ends on success or
// when ctx is done. A timeout of zero or less fails immediately unless the
// service already matches.
func WithTimeout(d time.Duration) WaitOption {
	return func(w *waitConfig) {
		w.timeout = d
		w.hasTimeout = true
	}
}

// AwaitActive blocks until svc reports state "active"
func (c *Client) AwaitActive(ctx context.Context, svc *types.Service, opts ...WaitOption) (*types.Service, error) {
	return c.AwaitField(ctx, svc, FieldState, types.StateActive, opts...)
}

// AwaitHealthy blocks until svc reports healthState "healthy"
func (c *Client) AwaitHealthy(ctx context.Context, svc *types.Service, opts ...WaitOption) (*types.Service, error) {
	return c.AwaitField(ctx, svc, FieldHealthState, types.HealthStateHealthy, opts...)
}

// AwaitField re-fetches svc once per poll interval until field equals want
// and returns the matching snapshot. A snapshot that already matches is
// returned as is, without any request.
func (c *Client) AwaitField(ctx context.Context, svc *types.Service, field Field, want string, opts ...WaitOption) (*types.Service, error) {
	var cfg waitConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	start := time.Now()
	var deadline time.Time
	if cfg.hasTimeout {
		deadline = start.Add(cfg.timeout)
	}

	projectID, serviceID := svc.IDs()
	logger := log.WithServiceID(c.logger, projectID, serviceID)

	timer := metrics.NewTimer()
	polls := 0
	for field.value(svc) != want {
		if cfg.hasTimeout && !time.Now().Before(deadline) {
			timer.ObserveDurationVec(metrics.WaitDuration, string(field), "timeout")
			logger.Warn().
				Str("field", string(field)).
				Str("last", field.value(svc)).
				Dur("timeout", cfg.timeout).
				Msg("Gave up waiting for service")
			return nil, fmt.Errorf("%w %s/%s: %s is %q after %s, want %q",
				ErrTimeout, projectID, serviceID, field, field.value(svc), cfg.timeout, want)
		}

		if polls == 0 {
			logger.Info().
				Str("field", string(field)).
				Str("current", field.value(svc)).
				Str("want", want).
				Msg("Waiting for service")
		}

		if err := c.sleep(ctx); err != nil {
			timer.ObserveDurationVec(metrics.WaitDuration, string(field), "canceled")
			return nil, fmt.Errorf("wait for %s/%s %s=%q: %w", projectID, serviceID, field, want, err)
		}

		next, err := c.RefreshService(ctx, svc)
		if err != nil {
			timer.ObserveDurationVec(metrics.WaitDuration, string(field), "error")
			return nil, err
		}
		svc = next
		polls++

		logger.Debug().
			Str("field", string(field)).
			Str("current", field.value(svc)).
			Int("polls", polls).
			Msg("Polled service")
	}

	if polls > 0 {
		timer.ObserveDurationVec(metrics.WaitDuration, string(field), "ok")
		logger.Info().
			Str("field", string(field)).
			Str("value", want).
			Dur("waited", time.Since(start)).
			Msg("Service reached target")
	}
	return svc, nil
}

// sleep pauses for one poll interval or until ctx is done
func (c *Client) sleep(ctx context.Context) error {
	t := time.NewTimer(c.pollInterval)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
