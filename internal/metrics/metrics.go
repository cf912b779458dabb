// Package metrics exposes Prometheus-format counters for the lookup API.
package metrics

import (
	"net/http"
	"time"

	"github.com/VictoriaMetrics/metrics"
)

// Lookup kinds used as label values
const (
	KindSingle = "single"
	KindBulk   = "bulk"
)

var (
	databaseErr   = metrics.NewCounter("farmer_lookup_database_error_total")
	rateLimited   = metrics.NewCounter("http_rate_limited_total")
	limiterErr    = metrics.NewCounter("rate_limiter_error_total")
	farmersFound  = metrics.NewCounter("farmers_found_total")
	addressesSeen = metrics.NewCounter("farmer_lookup_addresses_total")
)

// ObserveLookup records one completed lookup of the given kind
func ObserveLookup(kind string, duration time.Duration) {
	metrics.GetOrCreateCounter(`farmer_lookups_total{kind="` + kind + `"}`).Inc()
	metrics.GetOrCreateHistogram(`farmer_lookup_duration_seconds{kind="` + kind + `"}`).Update(duration.Seconds())
}

// AddAddresses counts addresses submitted for lookup
func AddAddresses(n int) {
	addressesSeen.Add(n)
}

// AddFarmersFound counts addresses that matched the blocklist
func AddFarmersFound(n int) {
	farmersFound.Add(n)
}

// IncDatabaseErr counts failed blocklist queries
func IncDatabaseErr() {
	databaseErr.Inc()
}

// IncRateLimited counts requests rejected with 429
func IncRateLimited() {
	rateLimited.Inc()
}

// IncLimiterErr counts limiter failures that let a request through
func IncLimiterErr() {
	limiterErr.Inc()
}

// Handler writes all registered metrics in Prometheus text format
func Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		metrics.WritePrometheus(w, true)
	})
}

// DefaultServer returns a server exposing /metrics on addr
func DefaultServer(addr string) *http.Server {
	metricsMux := http.NewServeMux()
	metricsMux.Handle("/metrics", Handler())

	return &http.Server{
		Addr:              addr,
		ReadHeaderTimeout: 5 * time.Second,
		Handler:           metricsMux,
	}
}
