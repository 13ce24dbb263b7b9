/*
Package client provides a Go client for the Rancher 1.x Cattle v2-beta API.

The client covers the handful of service operations a deployment pipeline
needs: lookups, creation and cloning, image upgrades, rolling restarts,
load balancer rewiring, and waiting for a service to settle. All state
lives on the server; the client holds only its endpoint, keys and an
*http.Client, and is safe for concurrent use.

# Architecture

	┌──────────────────── CALLER (CLI, pipeline) ───────────────────┐
	│  c, _ := client.New(cfg)                                      │
	│  svc, _ := c.GetServiceByStackAndName(ctx, stack, "web")      │
	│  svc, _ = c.UpgradeServiceImages(ctx, svc, opts)              │
	└───────────────────────────┬───────────────────────────────────┘
	                            │
	┌───────────────────────────▼──── pkg/client ───────────────────┐
	│  Service operations                                           │
	│    lookups · create/clone/rename · lb target · upgrade ·      │
	│    restart · AwaitActive / AwaitHealthy                       │
	│                           │                                   │
	│  Do(ctx, method, pathOrURL, params, body, out)                │
	│    basic auth · JSON · query encoding · HTTPError ·           │
	│    request id · metrics                                       │
	└───────────────────────────┬───────────────────────────────────┘
	                            │ HTTPS + JSON
	                            ▼
	              Cattle API  /v2-beta/projects/{id}/...

# Documents

Operations take and return *types.Service and *types.Stack snapshots.
A snapshot is stale as soon as anything writes to the service, so every
mutating call returns the server's new representation. Inputs are never
modified; operations work on a DeepCopy.

# Errors

  - *HTTPError: any non-2xx response, with status and body. Never retried.
  - ErrStackNotFound / ErrServiceNotFound: the server-side name filter
    returned no exact match. Find* variants report this as ok=false instead.
  - ErrTimeout: a wait passed its deadline.
  - *ValidationError: a local precondition failed before anything was
    written (unknown port rule, unknown sidekick, incomplete spec).

IsNotFound folds lookup misses and 404 responses together.

# Waiting

AwaitActive and AwaitHealthy re-fetch the service once per poll interval
(one second by default) until the field matches:

	svc, err := c.AwaitHealthy(ctx, svc, client.WithTimeout(5*time.Minute))
	if errors.Is(err, client.ErrTimeout) {
		// still not healthy
	}

Without WithTimeout the wait is bounded only by ctx.

# Creating services

ServiceSpec layers defaults (scale 1, startOnCreate, tty), caller overrides,
and the identity fields that cannot be overridden:

	spec := client.NewServiceSpec("web", stack.ID, "nginx:1.27").
		WithScale(3).
		WithLaunchConfig("environment", map[string]string{"MODE": "prod"})
	svc, err := c.CreateService(ctx, projectID, spec)
*/
package client
