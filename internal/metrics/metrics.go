package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "tgwallet"

// Metrics is safe to use through a nil pointer, which records nothing.
type Metrics struct {
	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	HTTPRequestsInFlight prometheus.Gauge

	PurchasesTotal        *prometheus.CounterVec
	PurchaseErrors        *prometheus.CounterVec
	TopUpsCredited        prometheus.Counter
	TopUpAmountTotal      prometheus.Counter
	WebhookReplays        prometheus.Counter
	InvoicesCreated       prometheus.Counter
	UpstreamFailures      *prometheus.CounterVec
	AuthFailures          *prometheus.CounterVec
	OutboxPublished       prometheus.Counter
	OutboxFailed          prometheus.Counter
	InvoicesReconciled    *prometheus.CounterVec
	LockWaitDuration      prometheus.Histogram
	ProviderCallDurations *prometheus.HistogramVec
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		HTTPRequestsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "path", "status_code"},
		),
		HTTPRequestDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "Duration of HTTP requests in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "path", "status_code"},
		),
		HTTPRequestsInFlight: f.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "http_requests_in_flight",
				Help:      "Number of HTTP requests currently being served",
			},
		),
		PurchasesTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "purchases_total",
				Help:      "Completed service purchases",
			},
			[]string{"kind"},
		),
		PurchaseErrors: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "purchase_errors_total",
				Help:      "Rejected or failed service purchases",
			},
			[]string{"kind", "code"},
		),
		TopUpsCredited: f.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "topups_credited_total",
				Help:      "Top-ups credited to a balance",
			},
		),
		TopUpAmountTotal: f.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "topup_amount_total",
				Help:      "Sum of credited top-up amounts",
			},
		),
		WebhookReplays: f.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "webhook_replays_total",
				Help:      "Payment notifications for an already credited order",
			},
		),
		InvoicesCreated: f.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "invoices_created_total",
				Help:      "Invoices opened with the payment processor",
			},
		),
		UpstreamFailures: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "upstream_failures_total",
				Help:      "Failed calls to external providers",
			},
			[]string{"provider"},
		),
		AuthFailures: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "auth_failures_total",
				Help:      "Rejected launch payloads",
			},
			[]string{"reason"},
		),
		OutboxPublished: f.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "outbox_published_total",
				Help:      "Ledger events delivered to the broker",
			},
		),
		OutboxFailed: f.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "outbox_failed_total",
				Help:      "Ledger events given up after the retry limit",
			},
		),
		InvoicesReconciled: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "invoices_reconciled_total",
				Help:      "Invoices settled by the reconciliation job",
			},
			[]string{"outcome"},
		),
		LockWaitDuration: f.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "user_lock_wait_seconds",
				Help:      "Time spent waiting for a user's balance lock",
				Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
			},
		),
		ProviderCallDurations: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "provider_call_duration_seconds",
				Help:      "Latency of external provider calls",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"provider"},
		),
	}
}

func (m *Metrics) RecordPurchase(kind string) {
	if m == nil {
		return
	}
	m.PurchasesTotal.WithLabelValues(kind).Inc()
}

func (m *Metrics) RecordPurchaseError(kind, code string) {
	if m == nil {
		return
	}
	m.PurchaseErrors.WithLabelValues(kind, code).Inc()
}

func (m *Metrics) RecordTopUp(amount float64) {
	if m == nil {
		return
	}
	m.TopUpsCredited.Inc()
	m.TopUpAmountTotal.Add(amount)
}

func (m *Metrics) RecordWebhookReplay() {
	if m == nil {
		return
	}
	m.WebhookReplays.Inc()
}

func (m *Metrics) RecordInvoiceCreated() {
	if m == nil {
		return
	}
	m.InvoicesCreated.Inc()
}

func (m *Metrics) RecordUpstreamFailure(provider string) {
	if m == nil {
		return
	}
	m.UpstreamFailures.WithLabelValues(provider).Inc()
}

func (m *Metrics) RecordAuthFailure(reason string) {
	if m == nil {
		return
	}
	m.AuthFailures.WithLabelValues(reason).Inc()
}

func (m *Metrics) RecordOutbox(published bool) {
	if m == nil {
		return
	}
	if published {
		m.OutboxPublished.Inc()
		return
	}
	m.OutboxFailed.Inc()
}

func (m *Metrics) RecordReconciled(outcome string) {
	if m == nil {
		return
	}
	m.InvoicesReconciled.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ObserveLockWait(seconds float64) {
	if m == nil {
		return
	}
	m.LockWaitDuration.Observe(seconds)
}

func (m *Metrics) ObserveProviderCall(provider string, seconds float64) {
	if m == nil {
		return
	}
	m.ProviderCallDurations.WithLabelValues(provider).Observe(seconds)
}
