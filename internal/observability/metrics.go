package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Outcome label values.
const (
	OutcomeOK    = "ok"
	OutcomeError = "error"
)

// Metrics holds the Prometheus registry and the skill's meters.
type Metrics struct {
	Registry         *prometheus.Registry
	DispatchTotal    *prometheus.CounterVec
	DispatchDuration *prometheus.HistogramVec
	ListAPITotal     *prometheus.CounterVec
	RejectedTotal    *prometheus.CounterVec
}

// NewMetrics creates a custom registry with the skill metrics and the Go
// runtime collectors.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()

	dispatchTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "skill_dispatch_total",
		Help: "Requests dispatched, by handler and outcome.",
	}, []string{"handler", "outcome"})

	dispatchDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "skill_dispatch_duration_seconds",
		Help:    "Time spent producing a response, by handler.",
		Buckets: prometheus.DefBuckets,
	}, []string{"handler"})

	listAPITotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "skill_list_api_calls_total",
		Help: "Calls to the household list API, by operation and outcome.",
	}, []string{"operation", "outcome"})

	rejectedTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "skill_requests_rejected_total",
		Help: "Requests rejected before dispatch, by reason.",
	}, []string{"reason"})

	reg.MustRegister(
		dispatchTotal,
		dispatchDuration,
		listAPITotal,
		rejectedTotal,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return &Metrics{
		Registry:         reg,
		DispatchTotal:    dispatchTotal,
		DispatchDuration: dispatchDuration,
		ListAPITotal:     listAPITotal,
		RejectedTotal:    rejectedTotal,
	}
}

// ObserveDispatch records one dispatched request. Safe on a nil receiver.
func (m *Metrics) ObserveDispatch(handler string, err error, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.DispatchTotal.WithLabelValues(handler, outcome(err)).Inc()
	m.DispatchDuration.WithLabelValues(handler).Observe(elapsed.Seconds())
}

// ObserveListCall records one list API call. Safe on a nil receiver.
func (m *Metrics) ObserveListCall(operation string, err error) {
	if m == nil {
		return
	}
	m.ListAPITotal.WithLabelValues(operation, outcome(err)).Inc()
}

// ObserveRejected records a request refused before dispatch. Safe on a nil
// receiver.
func (m *Metrics) ObserveRejected(reason string) {
	if m == nil {
		return
	}
	m.RejectedTotal.WithLabelValues(reason).Inc()
}

func outcome(err error) string {
	if err != nil {
		return OutcomeError
	}
	return OutcomeOK
}
