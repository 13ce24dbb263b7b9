/*
Package types defines the Cattle API documents handled by cattle-tools.

Cattle resources are large, loosely structured JSON documents that are
fetched, modified locally and submitted back wholesale. The types here model
only the attributes the client reads or writes (ids, state, launch configs,
load balancer port rules, links). Every other attribute is captured in the
Extra field on decode and emitted again on encode, so a service fetched from
one environment can be cloned or upgraded without losing configuration this
package knows nothing about.

# Copies

Mutating operations never touch the caller's document. They start from
DeepCopy, which copies through the wire form so unmodelled attributes are
duplicated as well:

	clone := svc.DeepCopy()
	clone.LaunchConfig.SetImage("nginx:1.27")

# Overrides

Merge applies a free-form Overrides map with dictionary-update semantics.
A key naming a modelled field replaces it; any other key becomes an
unmodelled attribute:

	err := types.Merge(svc, types.Overrides{
		"scale":       3,
		"description": "canary",
	})

# Port rules

A PortRule path is a *string. A nil path matches only rules without a path,
while a pointer to "" matches only rules whose path is the empty string.
*/
package types
