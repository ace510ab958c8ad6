package metrics

import (
	"errors"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shopspring/decimal"

	"github.com/MrKriegler/go-policy-admin/internal/core"
)

// Metrics counts lifecycle operations and refunds. It satisfies core.LifecycleObserver.
type Metrics struct {
	registry   *prometheus.Registry
	operations *prometheus.CounterVec
	refunds    *prometheus.CounterVec
	refundSum  *prometheus.HistogramVec
}

// New registers all lifecycle metrics on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(prometheus.NewGoCollector(), prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}))
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		operations: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "policy_admin_operations_total",
			Help: "Lifecycle operations by operation and outcome",
		}, []string{"operation", "outcome"}),
		refunds: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "policy_admin_refunds_total",
			Help: "Refunds raised on cancellation by payment type",
		}, []string{"payment_type"}),
		refundSum: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "policy_admin_refund_amount",
			Help:    "Refund amounts raised on cancellation",
			Buckets: []float64{0, 10, 50, 100, 250, 500, 1000, 2500, 5000},
		}, []string{"payment_type"}),
	}
}

func (m *Metrics) ObserveOperation(op core.Operation, err error) {
	m.operations.WithLabelValues(string(op), outcome(err)).Inc()
}

func (m *Metrics) ObserveRefund(amount decimal.Decimal, typ core.PaymentType) {
	m.refunds.WithLabelValues(typ.String()).Inc()
	m.refundSum.WithLabelValues(typ.String()).Observe(amount.InexactFloat64())
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, core.ErrNotFound):
		return "not_found"
	case errors.Is(err, core.ErrValidation), errors.Is(err, core.ErrInvalidState):
		return "rejected"
	default:
		return "error"
	}
}

var _ core.LifecycleObserver = (*Metrics)(nil)
