package dispatch

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	deliveriesTotal   *prometheus.CounterVec
	commandRejections *prometheus.CounterVec
	pendingGauge      prometheus.Gauge
	idleCartsGauge    prometheus.Gauge
	deliveryTicks     prometheus.Histogram
)

// newCollectors creates new metric collectors.
func newCollectors() (*prometheus.CounterVec, *prometheus.CounterVec, prometheus.Gauge, prometheus.Gauge, prometheus.Histogram) {
	deliveries := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "factory_deliveries_total",
			Help: "Delivery lifecycle transitions by action",
		},
		[]string{"action", "type"},
	)
	rejections := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "factory_command_rejections_total",
			Help: "Commands refused before any mutation",
		},
		[]string{"command", "reason"},
	)
	pending := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "factory_pending_deliveries",
			Help: "Deliveries waiting in the queue",
		},
	)
	idle := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "factory_idle_carts",
			Help: "Carts currently idle",
		},
	)
	ticks := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "factory_delivery_duration_ticks",
			Help:    "Ticks between assignment and completion of a delivery",
			Buckets: prometheus.ExponentialBuckets(50, 2, 8),
		},
	)
	return deliveries, rejections, pending, idle, ticks
}

func init() {
	deliveriesTotal, commandRejections, pendingGauge, idleCartsGauge, deliveryTicks = newCollectors()
	MustRegisterMetrics(nil)
}

// MustRegisterMetrics registers dispatch metrics on the provided registry.
// If reg is nil, prometheus.DefaultRegisterer is used.
func MustRegisterMetrics(reg prometheus.Registerer) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(deliveriesTotal, commandRejections, pendingGauge, idleCartsGauge, deliveryTicks)
}

// ResetMetrics reinitializes metrics collectors for testing purposes and
// registers them on the provided registry if not nil.
func ResetMetrics(reg prometheus.Registerer) {
	deliveriesTotal, commandRejections, pendingGauge, idleCartsGauge, deliveryTicks = newCollectors()
	if reg != nil {
		MustRegisterMetrics(reg)
	}
}
