package client

import (
	"context"
	"fmt"

	"github.com/cuemby/cattle-tools/pkg/log"
	"github.com/cuemby/cattle-tools/pkg/metrics"
	"github.com/cuemby/cattle-tools/pkg/types"
)

// describePath renders an optional rule path for messages
func describePath(path *string) string {
	if path == nil {
		return "<none>"
	}
	return fmt.Sprintf("%q", *path)
}

// findPortRule returns the index of the first rule matching sourcePort and
// path, or -1
func findPortRule(lb *types.Service, sourcePort int64, path *string) int {
	if lb.LBConfig == nil {
		return -1
	}
	for i := range lb.LBConfig.PortRules {
		if lb.LBConfig.PortRules[i].Matches(sourcePort, path) {
			return i
		}
	}
	return -1
}

// GetLBTarget fetches the service targeted by the load balancer rule that
// matches sourcePort and path. ErrServiceNotFound is returned when no rule
// matches.
func (c *Client) GetLBTarget(ctx context.Context, lb *types.Service, sourcePort int64, path *string) (*types.Service, error) {
	i := findPortRule(lb, sourcePort, path)
	if i < 0 {
		return nil, fmt.Errorf("%w: no rule on %s for source port %d and path %s",
			ErrServiceNotFound, lb.Name, sourcePort, describePath(path))
	}

	projectID, _ := lb.IDs()
	return c.GetService(ctx, projectID, lb.LBConfig.PortRules[i].ServiceID)
}

// ChangeLBTarget points the first rule matching sourcePort and path at
// targetServiceID and submits the whole lbConfig. Other rules are sent back
// unchanged. When no rule matches a *ValidationError wrapping
// ErrPortRuleNotFound is returned and nothing is written.
func (c *Client) ChangeLBTarget(ctx context.Context, lb *types.Service, sourcePort int64, path *string, targetServiceID string) (*types.Service, error) {
	updated := lb.DeepCopy()

	i := findPortRule(updated, sourcePort, path)
	if i < 0 {
		return nil, validationErrorf(ErrPortRuleNotFound,
			"source port %d and path %s on %s", sourcePort, describePath(path), lb.Name)
	}

	self := updated.Link(types.LinkSelf)
	if self == "" {
		return nil, validationErrorf(ErrMissingLink, "service %s has no %s link", lb.ID, types.LinkSelf)
	}

	rule := &updated.LBConfig.PortRules[i]
	previous := rule.ServiceID
	rule.ServiceID = targetServiceID

	body := struct {
		LBConfig *types.LBConfig `json:"lbConfig"`
	}{updated.LBConfig}

	var out types.Service
	if err := c.put(ctx, self, body, &out); err != nil {
		return nil, fmt.Errorf("failed to update load balancer %s: %w", lb.ID, err)
	}

	metrics.ServiceMutationsTotal.WithLabelValues("lb-target").Inc()
	logger := log.WithServiceID(c.logger, lb.AccountID, lb.ID)
	logger.Info().
		Int64("source_port", sourcePort).
		Str("path", describePath(path)).
		Str("from", previous).
		Str("to", targetServiceID).
		Msg("Load balancer target changed")

	return &out, nil
}
