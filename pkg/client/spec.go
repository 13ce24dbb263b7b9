package client

import (
	"fmt"

	"github.com/cuemby/cattle-tools/pkg/types"
)

// Defaults applied to every new service before caller overrides
const (
	DefaultScale         int64 = 1
	DefaultStartOnCreate       = true
	DefaultTTY                 = true
)

// ServiceSpec describes a service to create. Build layers it as follows:
// defaults, then the free-form Config/LaunchConfig overrides, then the named
// fields that are set, and finally the identity fields (type, name, stackId,
// launchConfig and its image), which callers cannot override.
type ServiceSpec struct {
	Name    string
	StackID string
	Image   string

	Scale         *int64
	StartOnCreate *bool
	TTY           *bool

	Config       types.Overrides
	LaunchConfig types.Overrides
}

// NewServiceSpec returns a spec for a service running image in a stack
func NewServiceSpec(name, stackID, image string) *ServiceSpec {
	return &ServiceSpec{
		Name:    name,
		StackID: stackID,
		Image:   image,
	}
}

// WithScale sets the number of containers
func (s *ServiceSpec) WithScale(scale int64) *ServiceSpec {
	s.Scale = &scale
	return s
}

// WithStartOnCreate controls whether the service starts once created
func (s *ServiceSpec) WithStartOnCreate(start bool) *ServiceSpec {
	s.StartOnCreate = &start
	return s
}

// WithTTY controls tty allocation for the primary container
func (s *ServiceSpec) WithTTY(tty bool) *ServiceSpec {
	s.TTY = &tty
	return s
}

// WithConfig adds a service attribute override
func (s *ServiceSpec) WithConfig(key string, value interface{}) *ServiceSpec {
	if s.Config == nil {
		s.Config = make(types.Overrides)
	}
	s.Config[key] = value
	return s
}

// WithLaunchConfig adds a launch config attribute override
func (s *ServiceSpec) WithLaunchConfig(key string, value interface{}) *ServiceSpec {
	if s.LaunchConfig == nil {
		s.LaunchConfig = make(types.Overrides)
	}
	s.LaunchConfig[key] = value
	return s
}

// Validate checks the fields that are always forced into the document
func (s *ServiceSpec) Validate() error {
	switch {
	case s.Name == "":
		return validationErrorf(ErrInvalidSpec, "name is required")
	case s.StackID == "":
		return validationErrorf(ErrInvalidSpec, "stack id is required")
	case s.Image == "":
		return validationErrorf(ErrInvalidSpec, "image is required")
	}
	return nil
}

// Build produces the document submitted on create
func (s *ServiceSpec) Build() (*types.Service, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}

	svc := &types.Service{
		Scale:         types.Int64Ptr(DefaultScale),
		StartOnCreate: types.BoolPtr(DefaultStartOnCreate),
	}
	if err := types.Merge(svc, s.Config); err != nil {
		return nil, fmt.Errorf("failed to apply config overrides: %w", err)
	}
	if s.Scale != nil {
		svc.Scale = types.Int64Ptr(*s.Scale)
	}
	if s.StartOnCreate != nil {
		svc.StartOnCreate = types.BoolPtr(*s.StartOnCreate)
	}

	lc := &types.LaunchConfig{
		TTY: types.BoolPtr(DefaultTTY),
	}
	if err := types.Merge(lc, s.LaunchConfig); err != nil {
		return nil, fmt.Errorf("failed to apply launch config overrides: %w", err)
	}
	if s.TTY != nil {
		lc.TTY = types.BoolPtr(*s.TTY)
	}
	lc.SetImage(s.Image)

	svc.Type = types.ServiceType
	svc.Name = s.Name
	svc.StackID = s.StackID
	svc.LaunchConfig = lc

	return svc, nil
}
