package types

import (
	"bytes"
	"encoding/json"
	"strings"
)

// Service states and health states the client waits on. The server
// defines many more; anything else is treated as "not yet".
const (
	StateActive   = "active"
	StateUpgraded = "upgraded"

	HealthStateHealthy = "healthy"
)

// ServiceType is the resource type submitted on create
const ServiceType = "service"

// ImagePrefix marks an imageUuid as a docker image reference
const ImagePrefix = "docker:"

// Link names used by the client
const (
	LinkSelf     = "self"
	LinkServices = "services"
)

// Collection is the envelope of every list response
type Collection[T any] struct {
	Data []T `json:"data"`
}

// Service is a deployable workload. Only the attributes the client reads
// or writes are modelled; the rest ride along in Extra.
type Service struct {
	ID                     string            `json:"id,omitempty"`
	AccountID              string            `json:"accountId,omitempty"`
	Name                   string            `json:"name,omitempty"`
	Type                   string            `json:"type,omitempty"`
	State                  string            `json:"state,omitempty"`
	HealthState            string            `json:"healthState,omitempty"`
	StackID                string            `json:"stackId,omitempty"`
	Scale                  *int64            `json:"scale,omitempty"`
	StartOnCreate          *bool             `json:"startOnCreate,omitempty"`
	LaunchConfig           *LaunchConfig     `json:"launchConfig,omitempty"`
	SecondaryLaunchConfigs []LaunchConfig    `json:"secondaryLaunchConfigs,omitempty"`
	LBConfig               *LBConfig         `json:"lbConfig,omitempty"`
	Links                  map[string]string `json:"links,omitempty"`
	Actions                map[string]string `json:"actions,omitempty"`

	Extra Fields `json:"-"`
}

func (s *Service) UnmarshalJSON(data []byte) error {
	if isNull(data) {
		return nil
	}
	type plain Service
	var p plain
	extra, err := decodeDocument(data, &p)
	if err != nil {
		return err
	}
	*s = Service(p)
	s.Extra = extra
	return nil
}

func (s Service) MarshalJSON() ([]byte, error) {
	type plain Service
	return encodeDocument(plain(s), s.Extra)
}

// DeepCopy returns an independent copy of s
func (s *Service) DeepCopy() *Service {
	if s == nil {
		return nil
	}
	out := new(Service)
	deepCopyInto(s, out)
	return out
}

// IDs returns the project (account) id and service id that identify s
func (s *Service) IDs() (projectID, serviceID string) {
	return s.AccountID, s.ID
}

// Link returns the named action URL, or "" when the server sent none
func (s *Service) Link(name string) string {
	return s.Links[name]
}

// SecondaryLaunchConfig returns the sidekick launch config with the given
// name. The pointer aliases s.SecondaryLaunchConfigs.
func (s *Service) SecondaryLaunchConfig(name string) *LaunchConfig {
	for i := range s.SecondaryLaunchConfigs {
		if s.SecondaryLaunchConfigs[i].Name == name {
			return &s.SecondaryLaunchConfigs[i]
		}
	}
	return nil
}

// LaunchConfig is the container image and runtime parameters of a service
// or one of its sidekicks
type LaunchConfig struct {
	Name      string `json:"name,omitempty"`
	ImageUUID string `json:"imageUuid,omitempty"`
	TTY       *bool  `json:"tty,omitempty"`

	Extra Fields `json:"-"`
}

func (l *LaunchConfig) UnmarshalJSON(data []byte) error {
	if isNull(data) {
		return nil
	}
	type plain LaunchConfig
	var p plain
	extra, err := decodeDocument(data, &p)
	if err != nil {
		return err
	}
	*l = LaunchConfig(p)
	l.Extra = extra
	return nil
}

func (l LaunchConfig) MarshalJSON() ([]byte, error) {
	type plain LaunchConfig
	return encodeDocument(plain(l), l.Extra)
}

// Image returns the image reference without its docker: prefix
func (l *LaunchConfig) Image() string {
	return strings.TrimPrefix(l.ImageUUID, ImagePrefix)
}

// SetImage points the launch config at a docker image
func (l *LaunchConfig) SetImage(image string) {
	l.ImageUUID = ImageRef(image)
}

// LBConfig is the routing configuration of a load balancer service
type LBConfig struct {
	PortRules []PortRule `json:"portRules"`

	Extra Fields `json:"-"`
}

func (c *LBConfig) UnmarshalJSON(data []byte) error {
	if isNull(data) {
		return nil
	}
	type plain LBConfig
	var p plain
	extra, err := decodeDocument(data, &p)
	if err != nil {
		return err
	}
	*c = LBConfig(p)
	c.Extra = extra
	return nil
}

func (c LBConfig) MarshalJSON() ([]byte, error) {
	type plain LBConfig
	return encodeDocument(plain(c), c.Extra)
}

// PortRule maps a source port and optional path to a target service.
// A nil Path means the rule has no path, which is different from "".
//
// A decoded rule remembers the bytes it came from. While it is unchanged it
// marshals back to exactly those bytes; once edited, only the attributes
// that changed are patched into them.
type PortRule struct {
	SourcePort int64   `json:"sourcePort"`
	Path       *string `json:"path,omitempty"`
	ServiceID  string  `json:"serviceId,omitempty"`

	Extra Fields `json:"-"`

	raw      json.RawMessage
	received []byte
}

func (r *PortRule) UnmarshalJSON(data []byte) error {
	if isNull(data) {
		return nil
	}
	type plain PortRule
	var p plain
	extra, err := decodeDocument(data, &p)
	if err != nil {
		return err
	}
	received, err := encodeDocument(p, extra)
	if err != nil {
		return err
	}
	*r = PortRule(p)
	r.Extra = extra
	r.raw = append(json.RawMessage(nil), data...)
	r.received = received
	return nil
}

func (r PortRule) MarshalJSON() ([]byte, error) {
	type plain PortRule
	current, err := encodeDocument(plain(r), r.Extra)
	if err != nil || r.raw == nil {
		return current, err
	}
	if bytes.Equal(current, r.received) {
		return r.raw, nil
	}
	return patchDocument(r.raw, r.received, current)
}

// Matches reports whether the rule routes sourcePort and path. Paths are
// compared exactly, with nil matching only a rule that has no path.
func (r *PortRule) Matches(sourcePort int64, path *string) bool {
	if r.SourcePort != sourcePort {
		return false
	}
	if r.Path == nil || path == nil {
		return r.Path == nil && path == nil
	}
	return *r.Path == *path
}

// Stack is a named grouping of services
type Stack struct {
	ID        string            `json:"id,omitempty"`
	AccountID string            `json:"accountId,omitempty"`
	Name      string            `json:"name,omitempty"`
	State     string            `json:"state,omitempty"`
	Links     map[string]string `json:"links,omitempty"`

	Extra Fields `json:"-"`
}

func (s *Stack) UnmarshalJSON(data []byte) error {
	if isNull(data) {
		return nil
	}
	type plain Stack
	var p plain
	extra, err := decodeDocument(data, &p)
	if err != nil {
		return err
	}
	*s = Stack(p)
	s.Extra = extra
	return nil
}

func (s Stack) MarshalJSON() ([]byte, error) {
	type plain Stack
	return encodeDocument(plain(s), s.Extra)
}

// Link returns the named URL, or "" when the server sent none
func (s *Stack) Link(name string) string {
	return s.Links[name]
}

// ImageRef turns an image name into an imageUuid
func ImageRef(image string) string {
	return ImagePrefix + image
}

// StringPtr returns a pointer to s
func StringPtr(s string) *string { return &s }

// Int64Ptr returns a pointer to n
func Int64Ptr(n int64) *int64 { return &n }

// BoolPtr returns a pointer to b
func BoolPtr(b bool) *bool { return &b }
