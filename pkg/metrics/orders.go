package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Finalize outcomes.
const (
	OutcomeFinalized        = "finalized"
	OutcomeAlreadyProcessed = "already_processed"
	OutcomeInFlight         = "in_flight"
	OutcomeFailed           = "failed"
)

// OrderMetrics records order finalization activity. A nil *OrderMetrics is a no-op.
type OrderMetrics struct {
	finalize     *prometheus.CounterVec
	duration     *prometheus.HistogramVec
	emails       *prometheus.CounterVec
	skipped      prometheus.Counter
	attachFailed prometheus.Counter
}

// NewOrderMetrics registers the finalization collectors on reg.
func NewOrderMetrics(reg prometheus.Registerer) *OrderMetrics {
	if reg == nil {
		return &OrderMetrics{}
	}
	finalize := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "order_finalize_total",
		Help: "Order finalization attempts by outcome.",
	}, []string{"outcome"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "order_finalize_duration_seconds",
		Help:    "Duration of order finalization in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"outcome"})
	emails := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "order_emails_sent_total",
		Help: "Order emails dispatched by recipient.",
	}, []string{"recipient"})
	skipped := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "order_digital_items_skipped_total",
		Help: "Digital items left without a download link.",
	})
	attachFailed := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "order_attachments_failed_total",
		Help: "Digital photo attachments that could not be fetched.",
	})
	reg.MustRegister(finalize, duration, emails, skipped, attachFailed)
	return &OrderMetrics{
		finalize:     finalize,
		duration:     duration,
		emails:       emails,
		skipped:      skipped,
		attachFailed: attachFailed,
	}
}

func (m *OrderMetrics) ObserveFinalize(outcome string, took time.Duration) {
	if m == nil || m.finalize == nil {
		return
	}
	outcome = normalizeLabel(outcome)
	m.finalize.WithLabelValues(outcome).Inc()
	m.duration.WithLabelValues(outcome).Observe(took.Seconds())
}

func (m *OrderMetrics) IncEmailSent(recipient string) {
	if m == nil || m.emails == nil {
		return
	}
	m.emails.WithLabelValues(normalizeLabel(recipient)).Inc()
}

func (m *OrderMetrics) IncDigitalSkipped() {
	if m == nil || m.skipped == nil {
		return
	}
	m.skipped.Inc()
}

func (m *OrderMetrics) IncAttachmentFailed() {
	if m == nil || m.attachFailed == nil {
		return
	}
	m.attachFailed.Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
