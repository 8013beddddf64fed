package obs

import (
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	appInfo = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "staffpayer",
			Subsystem: "app",
			Name:      "info",
			Help:      "Static app info for deployment verification.",
		},
		[]string{"service", "version"},
	)

	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "staffpayer",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests processed.",
		},
		[]string{"method", "route", "code"},
	)
	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "staffpayer",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	runsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "staffpayer",
			Subsystem: "runs",
			Name:      "total",
			Help:      "Total invoicing runs by mode and result.",
		},
		[]string{"mode", "result"},
	)
	runDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "staffpayer",
			Subsystem: "runs",
			Name:      "duration_seconds",
			Help:      "Invoicing run duration in seconds.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
		},
		[]string{"mode"},
	)

	itemsClaimedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "staffpayer",
			Subsystem: "ledger",
			Name:      "items_total",
			Help:      "Work items by commit outcome.",
		},
		[]string{"outcome"},
	)
)

func init() {
	prometheus.MustRegister(appInfo, httpRequestsTotal, httpRequestDuration, runsTotal, runDuration, itemsClaimedTotal)
}

// SetAppInfo publishes the build identity gauge.
func SetAppInfo(service, version string) {
	if strings.TrimSpace(service) == "" {
		service = "staffpayer"
	}
	if strings.TrimSpace(version) == "" {
		version = "dev"
	}
	appInfo.WithLabelValues(service, version).Set(1)
}

// ObserveHTTPRequest records one handled request. Route should be the route
// pattern, not the raw path, to keep cardinality down.
func ObserveHTTPRequest(method, route string, status int, elapsed time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	httpRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	httpRequestDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// RecordRun records one invoicing run.
func RecordRun(mode string, start time.Time, err error, nothingToDo bool) {
	result := "ok"
	switch {
	case err != nil:
		result = "error"
	case nothingToDo:
		result = "nothing_to_do"
	}
	runsTotal.WithLabelValues(mode, result).Inc()
	runDuration.WithLabelValues(mode).Observe(time.Since(start).Seconds())
}

// RecordCommitOutcome records how a commit's items were settled.
func RecordCommitOutcome(invoiced, skipped, retry int) {
	itemsClaimedTotal.WithLabelValues("invoiced").Add(float64(invoiced))
	itemsClaimedTotal.WithLabelValues("skipped").Add(float64(skipped))
	itemsClaimedTotal.WithLabelValues("retry").Add(float64(retry))
}
