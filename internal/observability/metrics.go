package observability

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/spec-kit/queue-repair/internal/domain"
)

const namespace = "queuerepair"

// Metrics records ticket, HTTP and scheduled job counters on a Prometheus registerer.
type Metrics struct {
	operations  *prometheus.CounterVec
	tickets     *prometheus.GaugeVec
	requests    *prometheus.CounterVec
	errors      *prometheus.CounterVec
	jobDuration *prometheus.HistogramVec
	jobSuccess  *prometheus.CounterVec
	jobFailure  *prometheus.CounterVec
}

// NewMetrics registers collectors on reg. A nil registerer yields a no-op Metrics.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		return &Metrics{}
	}
	m := &Metrics{
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ticket_operations_total",
			Help:      "Ticket store operations by outcome.",
		}, []string{"operation", "result"}),
		tickets: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "tickets",
			Help:      "Tickets currently held, by status.",
		}, []string{"status"}),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route, method and status.",
		}, []string{"path", "method", "status"}),
		errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_errors_total",
			Help:      "HTTP errors by route, method and error code.",
		}, []string{"path", "method", "code"}),
		jobDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "job_duration_seconds",
			Help:    "Duration of scheduled jobs in seconds.",
			Buckets: prometheus.DefBuckets,
		}, []string{"job"}),
		jobSuccess: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "job_success",
			Help: "Successful scheduled job executions.",
		}, []string{"job"}),
		jobFailure: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "job_failure",
			Help: "Failed scheduled job executions.",
		}, []string{"job"}),
	}
	reg.MustRegister(m.operations, m.tickets, m.requests, m.errors, m.jobDuration, m.jobSuccess, m.jobFailure)
	return m
}

// RecordOperation counts a store operation; err decides the result label.
func (m *Metrics) RecordOperation(op string, err error) {
	if m == nil || m.operations == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.operations.WithLabelValues(op, result).Inc()
}

// SetTicketCounts publishes the per-status gauge.
func (m *Metrics) SetTicketCounts(pending, repaired, canceled int) {
	if m == nil || m.tickets == nil {
		return
	}
	m.tickets.WithLabelValues(string(domain.TicketStatusPending)).Set(float64(pending))
	m.tickets.WithLabelValues(string(domain.TicketStatusRepaired)).Set(float64(repaired))
	m.tickets.WithLabelValues(string(domain.TicketStatusCanceled)).Set(float64(canceled))
}

// RecordRequest increments counters for requests.
func (m *Metrics) RecordRequest(path, method string, status int) {
	if m == nil || m.requests == nil {
		return
	}
	m.requests.WithLabelValues(path, method, strconv.Itoa(status)).Inc()
}

// RecordError increments error counters.
func (m *Metrics) RecordError(path, method, code string) {
	if m == nil || m.errors == nil {
		return
	}
	m.errors.WithLabelValues(path, method, code).Inc()
}

// ObserveJobDuration records the duration for the named job.
func (m *Metrics) ObserveJobDuration(job string, duration time.Duration) {
	if m == nil || m.jobDuration == nil {
		return
	}
	m.jobDuration.WithLabelValues(normalizeLabel(job)).Observe(duration.Seconds())
}

// IncJobSuccess increments the success counter for the named job.
func (m *Metrics) IncJobSuccess(job string) {
	if m == nil || m.jobSuccess == nil {
		return
	}
	m.jobSuccess.WithLabelValues(normalizeLabel(job)).Inc()
}

// IncJobFailure increments the failure counter for the named job.
func (m *Metrics) IncJobFailure(job string) {
	if m == nil || m.jobFailure == nil {
		return
	}
	m.jobFailure.WithLabelValues(normalizeLabel(job)).Inc()
}

func normalizeLabel(job string) string {
	if job == "" {
		return "unknown"
	}
	return job
}
