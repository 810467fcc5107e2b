package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	coremetrics "github.com/kilianp07/factorysim/core/metrics"
	"github.com/kilianp07/factorysim/core/model"
)

// PromSink records per cart activity in Prometheus metrics.
type PromSink struct {
	deliveries *prometheus.CounterVec
	leadTime   *prometheus.HistogramVec
	position   *prometheus.GaugeVec
	rejections *prometheus.CounterVec
	tick       prometheus.Gauge
	active     prometheus.Gauge
	running    *prometheus.GaugeVec
}

// NewPromSink registers cart metrics on the default Prometheus registerer.
// The Prometheus server should be started separately using StartPromServer.
func NewPromSink() (coremetrics.MetricsSink, error) {
	return NewPromSinkWithRegistry(prometheus.DefaultRegisterer)
}

// NewPromSinkWithRegistry registers metrics on the provided registerer.
// A nil registerer defaults to the global Prometheus registerer. Collectors
// already registered by a previous sink are reused.
func NewPromSinkWithRegistry(reg prometheus.Registerer) (coremetrics.MetricsSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	s := &PromSink{
		deliveries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "cart_delivery_events_total",
			Help: "Delivery transitions per cart",
		}, []string{"cart_id", "action"}),
		leadTime: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "delivery_lead_time_seconds",
			Help:    "Time between delivery creation and its final state",
			Buckets: prometheus.ExponentialBuckets(1, 2, 10),
		}, []string{"type", "status"}),
		position: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "cart_position",
			Help: "Last reported cart coordinate",
		}, []string{"cart_id", "axis"}),
		rejections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "cart_command_rejections_total",
			Help: "Refused commands per cart",
		}, []string{"cart_id", "reason"}),
		tick: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "simulation_tick",
			Help: "Last simulated tick",
		}),
		active: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "active_deliveries",
			Help: "Deliveries currently carried",
		}),
		running: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "equipment_running",
			Help: "1 when the machine is producing",
		}, []string{"equipment_id", "workshop"}),
	}

	var err error
	if s.deliveries, err = register(reg, s.deliveries); err != nil {
		return nil, err
	}
	if s.leadTime, err = register(reg, s.leadTime); err != nil {
		return nil, err
	}
	if s.position, err = register(reg, s.position); err != nil {
		return nil, err
	}
	if s.rejections, err = register(reg, s.rejections); err != nil {
		return nil, err
	}
	if s.tick, err = register(reg, s.tick); err != nil {
		return nil, err
	}
	if s.active, err = register(reg, s.active); err != nil {
		return nil, err
	}
	if s.running, err = register(reg, s.running); err != nil {
		return nil, err
	}
	return s, nil
}

func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

// RecordDelivery counts the transition and observes lead time on terminal states.
func (s *PromSink) RecordDelivery(ev coremetrics.DeliveryEvent) error {
	cart := ev.CartID
	if cart == "" {
		cart = "none"
	}
	s.deliveries.WithLabelValues(cart, ev.Action).Inc()
	if ev.Delivery.Terminal() {
		if lt := ev.LeadTime(); lt > 0 {
			s.leadTime.WithLabelValues(ev.Delivery.Type, string(ev.Delivery.Status)).Observe(lt.Seconds())
		}
	}
	return nil
}

// RecordCartState updates the position gauges.
func (s *PromSink) RecordCartState(ev coremetrics.CartStateEvent) error {
	s.position.WithLabelValues(ev.Cart.ID, "x").Set(ev.Cart.Position.X)
	s.position.WithLabelValues(ev.Cart.ID, "y").Set(ev.Cart.Position.Y)
	return nil
}

// RecordCommandRejection counts refused commands.
func (s *PromSink) RecordCommandRejection(ev coremetrics.CommandRejectionEvent) error {
	cart := ev.CartID
	if cart == "" {
		cart = "none"
	}
	s.rejections.WithLabelValues(cart, ev.Reason).Inc()
	return nil
}

// RecordTick tracks simulation progress.
func (s *PromSink) RecordTick(sample coremetrics.TickSample) error {
	s.tick.Set(float64(sample.Tick))
	s.active.Set(float64(sample.Active))
	return nil
}

// RecordEquipmentStatus flags running machines.
func (s *PromSink) RecordEquipmentStatus(ev coremetrics.EquipmentStatusEvent) error {
	v := 0.0
	if ev.Equipment.Status == model.EquipmentRunning {
		v = 1
	}
	s.running.WithLabelValues(ev.Equipment.ID, ev.Equipment.Workshop).Set(v)
	return nil
}
