package metrics

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Lookup outcomes, one per response class the proxy returns.
const (
	OutcomeOK              = "ok"
	OutcomeInvalidRequest  = "invalid_request"
	OutcomeMethod          = "method_not_allowed"
	OutcomeUpstreamInvalid = "upstream_invalid_json"
	OutcomeError           = "error"
)

// Attempt results for a single upstream call.
const (
	AttemptScored    = "scored"
	AttemptNullScore = "null_score"
	AttemptParseFail = "parse_error"
	AttemptTransport = "transport_error"
)

var (
	lookupsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "scoreproxy",
		Subsystem: "proxy",
		Name:      "lookups_total",
		Help:      "Total score lookups by outcome",
	}, []string{"outcome"})

	lookupDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "scoreproxy",
		Subsystem: "proxy",
		Name:      "lookup_duration_seconds",
		Help:      "Time taken to serve a score lookup, including retries",
		Buckets:   prometheus.DefBuckets,
	}, []string{"outcome"})

	attemptsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "scoreproxy",
		Subsystem: "upstream",
		Name:      "attempts_total",
		Help:      "Total upstream calls by result",
	}, []string{"result"})

	retryWait = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "scoreproxy",
		Subsystem: "upstream",
		Name:      "retry_wait_seconds",
		Help:      "Jittered wait before retrying a null score",
		Buckets:   []float64{0.25, 0.5, 0.75, 1, 1.25, 1.5, 2},
	})

	registerOnce sync.Once
)

// RegisterMetrics registers all Prometheus metrics. Safe to call more than once.
func RegisterMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			lookupsTotal,
			lookupDuration,
			attemptsTotal,
			retryWait,
		)
	})
}

// Handler exposes the registered metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObserveLookup records one finished lookup.
func ObserveLookup(outcome string, d time.Duration) {
	lookupsTotal.WithLabelValues(outcome).Inc()
	lookupDuration.WithLabelValues(outcome).Observe(d.Seconds())
}

// ObserveAttempt records one upstream call.
func ObserveAttempt(result string) {
	attemptsTotal.WithLabelValues(result).Inc()
}

// ObserveRetryWait records the delay taken before a retry.
func ObserveRetryWait(d time.Duration) {
	retryWait.Observe(d.Seconds())
}
