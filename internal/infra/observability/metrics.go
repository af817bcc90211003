package observability

import (
	"time"

	"github.com/boddenberg/eyecare-bfa-go/internal/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	dto "github.com/prometheus/client_model/go"
)

// Submission outcomes recorded by IncrSubmission.
const (
	SubmissionSaved    = "saved"
	SubmissionFailed   = "failed"
	SubmissionRejected = "rejected"
)

// Metrics holds all Prometheus metrics for the API.
type Metrics struct {
	// Registry is the Prometheus registry that owns these metrics.
	// Exposed so the /metrics endpoint can use it.
	Registry *prometheus.Registry

	requestDuration     *prometheus.HistogramVec
	externalErrors      *prometheus.CounterVec
	cacheHits           *prometheus.CounterVec
	cacheMisses         *prometheus.CounterVec
	submissions         *prometheus.CounterVec
	vocabularyAdditions *prometheus.CounterVec
}

// NewMetrics creates a dedicated Prometheus registry and registers all
// application metrics in it. Using a private registry avoids "duplicate
// collector" panics when NewMetrics is called more than once (e.g. in tests).
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		Registry: reg,

		requestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "eyecare_request_duration_seconds",
				Help:    "Duration of requests by operation.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		externalErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "eyecare_external_errors_total",
				Help: "Total errors from the record store.",
			},
			[]string{"service"},
		),
		cacheHits: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "eyecare_cache_hits_total",
				Help: "Total cache hits.",
			},
			[]string{"cache"},
		),
		cacheMisses: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "eyecare_cache_misses_total",
				Help: "Total cache misses.",
			},
			[]string{"cache"},
		),
		submissions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "eyecare_billing_submissions_total",
				Help: "In-patient billing submissions by outcome.",
			},
			[]string{"outcome"},
		),
		vocabularyAdditions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "eyecare_vocabulary_additions_total",
				Help: "New dropdown options persisted, by field.",
			},
			[]string{"field"},
		),
	}
}

// RecordRequestDuration records the duration of an operation.
func (m *Metrics) RecordRequestDuration(operation string, d time.Duration) {
	m.requestDuration.WithLabelValues(operation).Observe(d.Seconds())
}

// IncrExternalError increments the external error counter.
func (m *Metrics) IncrExternalError(service string) {
	m.externalErrors.WithLabelValues(service).Inc()
}

// IncrCacheHit increments the cache hit counter.
func (m *Metrics) IncrCacheHit(cache string) {
	m.cacheHits.WithLabelValues(cache).Inc()
}

// IncrCacheMiss increments the cache miss counter.
func (m *Metrics) IncrCacheMiss(cache string) {
	m.cacheMisses.WithLabelValues(cache).Inc()
}

// IncrSubmission counts an in-patient save attempt by outcome.
func (m *Metrics) IncrSubmission(outcome string) {
	m.submissions.WithLabelValues(outcome).Inc()
}

// IncrVocabularyAddition counts a persisted dropdown option.
func (m *Metrics) IncrVocabularyAddition(field string) {
	m.vocabularyAdditions.WithLabelValues(field).Inc()
}

// GetBillingSnapshot returns a snapshot of billing-related counters for the
// GET /v1/metrics/billing endpoint.
func (m *Metrics) GetBillingSnapshot(fields []string) *domain.BillingMetrics {
	saved := getCounterValue(m.submissions, SubmissionSaved)
	failed := getCounterValue(m.submissions, SubmissionFailed)
	rejected := getCounterValue(m.submissions, SubmissionRejected)
	hits := getCounterValue(m.cacheHits, "vocabulary")
	misses := getCounterValue(m.cacheMisses, "vocabulary")

	var additions float64
	for _, f := range fields {
		additions += getCounterValue(m.vocabularyAdditions, f)
	}

	total := saved + failed + rejected
	failureRate := float64(0)
	if total > 0 {
		failureRate = failed / total
	}
	cacheHitRate := float64(0)
	if hits+misses > 0 {
		cacheHitRate = hits / (hits + misses)
	}

	return &domain.BillingMetrics{
		Submissions:         int64(total),
		FailedSubmissions:   int64(failed),
		RejectedSubmissions: int64(rejected),
		FailureRate:         failureRate,
		VocabularyAdditions: int64(additions),
		CacheHitRate:        cacheHitRate,
		Period:              "all_time",
	}
}

// getCounterValue extracts the current float64 value from a CounterVec for a given label.
func getCounterValue(cv *prometheus.CounterVec, label string) float64 {
	counter := cv.WithLabelValues(label)
	m := &dto.Metric{}
	if err := counter.(prometheus.Metric).Write(m); err != nil {
		return 0
	}
	if m.Counter != nil && m.Counter.Value != nil {
		return *m.Counter.Value
	}
	return 0
}
