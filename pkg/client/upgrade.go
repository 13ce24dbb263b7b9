package client

import (
	"context"
	"fmt"
	"sort"

	"github.com/cuemby/cattle-tools/pkg/log"
	"github.com/cuemby/cattle-tools/pkg/metrics"
	"github.com/cuemby/cattle-tools/pkg/types"
)

// Service actions dispatched with ?action=
const (
	ActionFinishUpgrade = "finishupgrade"
	ActionUpgrade       = "upgrade"
	ActionRestart       = "restart"
)

// Rolling restart defaults
const (
	DefaultRestartBatchSize      int64 = 1
	DefaultRestartIntervalMillis int64 = 1000
)

// action POSTs a service action and returns the service it yields
func (c *Client) action(ctx context.Context, svc *types.Service, action string, body interface{}) (*types.Service, error) {
	projectID, serviceID := svc.IDs()

	var out types.Service
	if err := c.post(ctx, servicePath(projectID, serviceID), actionParams{Action: action}, body, &out); err != nil {
		return nil, fmt.Errorf("failed to %s service %s/%s: %w", action, projectID, serviceID, err)
	}

	metrics.ServiceMutationsTotal.WithLabelValues(action).Inc()
	return &out, nil
}

// FinishAnyPreviousUpgrade completes an upgrade left in the "upgraded"
// state. Any other service is returned unchanged without a request.
func (c *Client) FinishAnyPreviousUpgrade(ctx context.Context, svc *types.Service) (*types.Service, error) {
	if svc.State != types.StateUpgraded {
		return svc, nil
	}

	out, err := c.action(ctx, svc, ActionFinishUpgrade, nil)
	if err != nil {
		return nil, err
	}

	logger := log.WithServiceID(c.logger, svc.AccountID, svc.ID)
	logger.Info().Msg("Finished previous upgrade")
	return out, nil
}

// UpgradeOptions selects the images to roll out
type UpgradeOptions struct {
	// Image replaces the primary launch config image when set
	Image string

	// SecondaryImages maps sidekick names to their new images
	SecondaryImages map[string]string

	// Wait bounds the wait for the service to become active first
	Wait []WaitOption
}

// upgradeRequest is the body of the upgrade action
type upgradeRequest struct {
	InServiceStrategy inServiceStrategy `json:"inServiceStrategy"`
}

type inServiceStrategy struct {
	LaunchConfig           *types.LaunchConfig  `json:"launchConfig"`
	SecondaryLaunchConfigs []types.LaunchConfig `json:"secondaryLaunchConfigs"`
}

// UpgradeServiceImages rolls svc onto new images. A pending upgrade is
// finished and the service is awaited until active before the new launch
// configs are submitted with an in-service strategy.
func (c *Client) UpgradeServiceImages(ctx context.Context, svc *types.Service, opts UpgradeOptions) (*types.Service, error) {
	current, err := c.FinishAnyPreviousUpgrade(ctx, svc.DeepCopy())
	if err != nil {
		return nil, err
	}

	current, err = c.AwaitActive(ctx, current, opts.Wait...)
	if err != nil {
		return nil, err
	}

	next := current.DeepCopy()
	if next.LaunchConfig == nil {
		next.LaunchConfig = &types.LaunchConfig{}
	}
	if opts.Image != "" {
		next.LaunchConfig.SetImage(opts.Image)
	}

	names := make([]string, 0, len(opts.SecondaryImages))
	for name := range opts.SecondaryImages {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		lc := next.SecondaryLaunchConfig(name)
		if lc == nil {
			return nil, validationErrorf(ErrLaunchConfigNotFound, "%q on service %s", name, next.ID)
		}
		lc.SetImage(opts.SecondaryImages[name])
	}

	secondaries := next.SecondaryLaunchConfigs
	if secondaries == nil {
		secondaries = []types.LaunchConfig{}
	}

	out, err := c.action(ctx, next, ActionUpgrade, upgradeRequest{
		InServiceStrategy: inServiceStrategy{
			LaunchConfig:           next.LaunchConfig,
			SecondaryLaunchConfigs: secondaries,
		},
	})
	if err != nil {
		return nil, err
	}

	logger := log.WithServiceID(c.logger, next.AccountID, next.ID)
	event := logger.Info().Str("image", next.LaunchConfig.Image())
	for _, name := range names {
		event = event.Str("sidekick_"+name, opts.SecondaryImages[name])
	}
	event.Msg("Service upgrade started")

	return out, nil
}

// RestartOptions tunes a rolling restart. A nil field takes its default.
type RestartOptions struct {
	// BatchSize is the number of containers restarted at once (default 1)
	BatchSize *int64

	// IntervalMillis is the pause between batches (default 1000). Zero
	// restarts batches back to back.
	IntervalMillis *int64
}

type restartRequest struct {
	RollingRestartStrategy rollingRestartStrategy `json:"rollingRestartStrategy"`
}

type rollingRestartStrategy struct {
	BatchSize      int64 `json:"batchSize"`
	IntervalMillis int64 `json:"intervalMillis"`
}

// RestartService asks the server for a rolling restart of svc
func (c *Client) RestartService(ctx context.Context, svc *types.Service, opts RestartOptions) (*types.Service, error) {
	strategy := rollingRestartStrategy{
		BatchSize:      DefaultRestartBatchSize,
		IntervalMillis: DefaultRestartIntervalMillis,
	}
	if opts.BatchSize != nil {
		strategy.BatchSize = *opts.BatchSize
	}
	if opts.IntervalMillis != nil {
		strategy.IntervalMillis = *opts.IntervalMillis
	}
	if strategy.BatchSize < 1 {
		return nil, validationErrorf(ErrInvalidOptions, "restart batch size must be at least 1, got %d", strategy.BatchSize)
	}
	if strategy.IntervalMillis < 0 {
		return nil, validationErrorf(ErrInvalidOptions, "restart interval must not be negative, got %dms", strategy.IntervalMillis)
	}

	out, err := c.action(ctx, svc, ActionRestart, restartRequest{RollingRestartStrategy: strategy})
	if err != nil {
		return nil, err
	}

	logger := log.WithServiceID(c.logger, svc.AccountID, svc.ID)
	logger.Info().
		Int64("batch_size", strategy.BatchSize).
		Int64("interval_ms", strategy.IntervalMillis).
		Msg("Service restart started")
	return out, nil
}
