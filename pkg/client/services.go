package client

import (
	"context"
	"fmt"

	"github.com/cuemby/cattle-tools/pkg/log"
	"github.com/cuemby/cattle-tools/pkg/metrics"
	"github.com/cuemby/cattle-tools/pkg/types"
)

// GetService fetches a service by project and service id. A missing
// service surfaces as an *HTTPError with status 404.
func (c *Client) GetService(ctx context.Context, projectID, serviceID string) (*types.Service, error) {
	var svc types.Service
	if err := c.get(ctx, servicePath(projectID, serviceID), nil, &svc); err != nil {
		return nil, fmt.Errorf("failed to get service %s/%s: %w", projectID, serviceID, err)
	}
	return &svc, nil
}

// RefreshService fetches the latest representation of svc
func (c *Client) RefreshService(ctx context.Context, svc *types.Service) (*types.Service, error) {
	projectID, serviceID := svc.IDs()
	return c.GetService(ctx, projectID, serviceID)
}

// FindStack looks a stack up by exact name. The server-side name filter
// can return near matches, so results are filtered again here. ok is false
// when no stack has exactly that name.
func (c *Client) FindStack(ctx context.Context, projectID, name string) (stack *types.Stack, ok bool, err error) {
	var coll types.Collection[types.Stack]
	if err := c.get(ctx, stacksPath(projectID), nameFilter{Name: name}, &coll); err != nil {
		return nil, false, fmt.Errorf("failed to list stacks in %s: %w", projectID, err)
	}

	for i := range coll.Data {
		if coll.Data[i].Name == name {
			return &coll.Data[i], true, nil
		}
	}

	logger := log.WithProjectID(c.logger, projectID)
	logger.Debug().
		Str("name", name).
		Int("candidates", len(coll.Data)).
		Msg("No stack with exact name")
	return nil, false, nil
}

// GetStackByName is FindStack with a miss reported as ErrStackNotFound
func (c *Client) GetStackByName(ctx context.Context, projectID, name string) (*types.Stack, error) {
	stack, ok, err := c.FindStack(ctx, projectID, name)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: %q in project %s", ErrStackNotFound, name, projectID)
	}
	return stack, nil
}

// FindServiceInStack looks a service up by exact name within a stack
func (c *Client) FindServiceInStack(ctx context.Context, stack *types.Stack, name string) (svc *types.Service, ok bool, err error) {
	link := stack.Link(types.LinkServices)
	if link == "" {
		return nil, false, validationErrorf(ErrMissingLink, "stack %q has no %s link", stack.Name, types.LinkServices)
	}

	var coll types.Collection[types.Service]
	if err := c.get(ctx, link, nameFilter{Name: name}, &coll); err != nil {
		return nil, false, fmt.Errorf("failed to list services in stack %q: %w", stack.Name, err)
	}

	for i := range coll.Data {
		if coll.Data[i].Name == name {
			return &coll.Data[i], true, nil
		}
	}

	logger := log.WithStackName(log.WithProjectID(c.logger, stack.AccountID), stack.Name)
	logger.Debug().
		Str("name", name).
		Int("candidates", len(coll.Data)).
		Msg("No service with exact name")
	return nil, false, nil
}

// GetServiceByStackAndName is FindServiceInStack with a miss reported as
// ErrServiceNotFound
func (c *Client) GetServiceByStackAndName(ctx context.Context, stack *types.Stack, name string) (*types.Service, error) {
	svc, ok, err := c.FindServiceInStack(ctx, stack, name)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: %q in stack %q", ErrServiceNotFound, name, stack.Name)
	}
	return svc, nil
}

// RenameService changes the name of svc
func (c *Client) RenameService(ctx context.Context, svc *types.Service, newName string) (*types.Service, error) {
	self := svc.Link(types.LinkSelf)
	if self == "" {
		return nil, validationErrorf(ErrMissingLink, "service %s has no %s link", svc.ID, types.LinkSelf)
	}

	var out types.Service
	if err := c.put(ctx, self, map[string]string{"name": newName}, &out); err != nil {
		return nil, fmt.Errorf("failed to rename service %s: %w", svc.ID, err)
	}

	metrics.ServiceMutationsTotal.WithLabelValues("rename").Inc()
	logger := log.WithServiceID(c.logger, svc.AccountID, svc.ID)
	logger.Info().Str("from", svc.Name).Str("to", newName).Msg("Service renamed")

	return &out, nil
}

// CreateService creates a brand new service from spec
func (c *Client) CreateService(ctx context.Context, projectID string, spec *ServiceSpec) (*types.Service, error) {
	doc, err := spec.Build()
	if err != nil {
		return nil, err
	}

	var out types.Service
	if err := c.post(ctx, servicesPath(projectID), nil, doc, &out); err != nil {
		return nil, fmt.Errorf("failed to create service %q: %w", spec.Name, err)
	}

	metrics.ServiceMutationsTotal.WithLabelValues("create").Inc()
	logger := log.WithServiceID(c.logger, projectID, out.ID)
	logger.Info().
		Str("name", spec.Name).
		Str("image", spec.Image).
		Str("stack_id", spec.StackID).
		Msg("Service created")

	return &out, nil
}

// CloneOptions adjusts the copy made by CloneService
type CloneOptions struct {
	// Image, when set, replaces the primary image of the clone
	Image string

	Config       types.Overrides
	LaunchConfig types.Overrides
}

// CloneService creates a new service from a copy of svc's full document.
// Identity attributes such as id and created timestamps are submitted as
// they are; the server ignores what is not writable on create. A nil value
// in opts.Config clears an attribute: modelled ones such as id and
// accountId are then left out of the request, unmodelled ones such as
// created are sent as null.
func (c *Client) CloneService(ctx context.Context, svc *types.Service, newName string, opts CloneOptions) (*types.Service, error) {
	if newName == "" {
		return nil, validationErrorf(ErrInvalidSpec, "clone name is required")
	}

	clone := svc.DeepCopy()
	projectID, _ := clone.IDs()

	if err := types.Merge(clone, opts.Config); err != nil {
		return nil, fmt.Errorf("failed to apply config overrides: %w", err)
	}
	if clone.LaunchConfig == nil {
		clone.LaunchConfig = &types.LaunchConfig{}
	}
	if err := types.Merge(clone.LaunchConfig, opts.LaunchConfig); err != nil {
		return nil, fmt.Errorf("failed to apply launch config overrides: %w", err)
	}
	if opts.Image != "" {
		clone.LaunchConfig.SetImage(opts.Image)
	}
	clone.Name = newName

	var out types.Service
	if err := c.post(ctx, servicesPath(projectID), nil, clone, &out); err != nil {
		return nil, fmt.Errorf("failed to clone service %s as %q: %w", svc.ID, newName, err)
	}

	metrics.ServiceMutationsTotal.WithLabelValues("clone").Inc()
	logger := log.WithServiceID(c.logger, projectID, out.ID)
	logger.Info().
		Str("source_id", svc.ID).
		Str("name", newName).
		Str("image", clone.LaunchConfig.Image()).
		Msg("Service cloned")

	return &out, nil
}
