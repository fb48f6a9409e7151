// ABOUTME: Prometheus collectors for the email processing pipeline
// ABOUTME: Registered once at startup and shared by summarizer and processor
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics bundles the pipeline's prometheus collectors.
type Metrics struct {
	EmailsProcessed   prometheus.Counter
	EmailsFailed      prometheus.Counter
	BatchesTotal      prometheus.Counter
	FallbackSummaries prometheus.Counter
	BackendDuration   prometheus.Histogram
}

// New registers the pipeline collectors on reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		EmailsProcessed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "maildigest_emails_processed_total",
			Help: "Emails that completed the pipeline.",
		}),
		EmailsFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "maildigest_emails_failed_total",
			Help: "Emails that failed at some pipeline stage.",
		}),
		BatchesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "maildigest_batches_total",
			Help: "Batch runs started.",
		}),
		FallbackSummaries: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "maildigest_fallback_summaries_total",
			Help: "Summaries produced by the fallback path after a failed repair attempt.",
		}),
		BackendDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "maildigest_backend_request_duration_seconds",
			Help:    "Latency of summarization backend requests.",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 12),
		}),
	}

	reg.MustRegister(
		m.EmailsProcessed,
		m.EmailsFailed,
		m.BatchesTotal,
		m.FallbackSummaries,
		m.BackendDuration,
	)

	return m
}
