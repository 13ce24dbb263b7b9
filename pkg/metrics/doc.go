/*
Package metrics exposes Prometheus instruments for cattle-tools.

All instruments live on the default registry and are registered in init:

  - cattle_api_requests_total{method, code}: every API call, by HTTP method
    and status code ("error" when no response arrived)
  - cattle_api_request_duration_seconds{method}: API call latency
  - cattle_wait_duration_seconds{field, result}: time spent in
    AwaitActive/AwaitHealthy, with result "ok", "timeout", "canceled"
    or "error" (a refresh failed)
  - cattle_service_mutations_total{operation}: create, clone, rename,
    lb-target, and the action names finishupgrade, upgrade and restart

The CLI is short-lived, so rather than serving /metrics it can dump the
registry with WriteTextfile for a node_exporter textfile collector.

Timing an operation:

	timer := metrics.NewTimer()
	resp, err := httpClient.Do(req)
	timer.ObserveDurationVec(metrics.APIRequestDuration, req.Method)
*/
package metrics
