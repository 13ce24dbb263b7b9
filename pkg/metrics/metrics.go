package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	// API metrics
	APIRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cattle_api_requests_total",
			Help: "Total number of Cattle API requests by method and status code",
		},
		[]string{"method", "code"},
	)

	APIRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "cattle_api_request_duration_seconds",
			Help:    "Cattle API request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method"},
	)

	// Wait metrics
	WaitDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "cattle_wait_duration_seconds",
			Help:    "Time spent polling a service field until it reached its target",
			Buckets: []float64{1, 2, 5, 10, 30, 60, 120, 300, 600},
		},
		[]string{"field", "result"},
	)

	// Mutation metrics
	ServiceMutationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cattle_service_mutations_total",
			Help: "Total number of submitted service mutations by operation",
		},
		[]string{"operation"},
	)
)

func init() {
	prometheus.MustRegister(APIRequestsTotal)
	prometheus.MustRegister(APIRequestDuration)
	prometheus.MustRegister(WaitDuration)
	prometheus.MustRegister(ServiceMutationsTotal)
}

// WriteTextfile dumps the default registry in the text exposition format,
// for pickup by a node_exporter textfile collector after a CLI run
func WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, prometheus.DefaultGatherer); err != nil {
		return fmt.Errorf("failed to write metrics to %s: %w", path, err)
	}
	return nil
}
