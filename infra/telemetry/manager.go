// Package telemetry bridges the simulation to cart controllers over MQTT:
// it publishes cart states and turns incoming grid commands into dispatcher
// calls.
package telemetry

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/kilianp07/factorysim/config"
	"github.com/kilianp07/factorysim/core/dispatch"
	"github.com/kilianp07/factorysim/core/engine"
	coremetrics "github.com/kilianp07/factorysim/core/metrics"
	coremqtt "github.com/kilianp07/factorysim/core/mqtt"
	"github.com/kilianp07/factorysim/infra/logger"
)

// CommandExecutor applies a grid command. *engine.Runner satisfies it.
type CommandExecutor interface {
	SendGridCommand(ctx context.Context, cmd dispatch.GridCommand) error
}

// Subscriber registers MQTT handlers. *mqtt.PahoClient satisfies it.
type Subscriber interface {
	Subscribe(topic, kind string, handler paho.MessageHandler) error
}

// Manager publishes cart states and serves grid commands.
type Manager struct {
	cfg  config.TelemetryConfig
	pub  coremqtt.Publisher
	sub  Subscriber
	exec CommandExecutor
	sink coremetrics.CartStateRecorder
	log  logger.Logger
	now  func() time.Time

	ctx context.Context

	published   prometheus.Counter
	commands    *prometheus.CounterVec
	lastPublish prometheus.Gauge
	latency     prometheus.Histogram
}

// NewManager prepares the bridge. sub, exec and sink may be nil, which
// disables the matching direction.
func NewManager(cfg config.TelemetryConfig, pub coremqtt.Publisher, sub Subscriber, exec CommandExecutor, sink coremetrics.CartStateRecorder, reg prometheus.Registerer) (*Manager, error) {
	if pub == nil {
		return nil, errors.New("telemetry: publisher is required")
	}
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	m := &Manager{
		cfg:         cfg,
		pub:         pub,
		sub:         sub,
		exec:        exec,
		sink:        sink,
		log:         logger.New("telemetry"),
		now:         time.Now,
		ctx:         context.Background(),
		published:   prometheus.NewCounter(prometheus.CounterOpts{Name: "telemetry_state_messages_total", Help: "Number of cart state messages published"}),
		commands:    prometheus.NewCounterVec(prometheus.CounterOpts{Name: "telemetry_commands_total", Help: "Grid commands received over MQTT by result"}, []string{"result"}),
		lastPublish: prometheus.NewGauge(prometheus.GaugeOpts{Name: "telemetry_last_publish_timestamp_seconds", Help: "Unix timestamp of the last state publication"}),
		latency:     prometheus.NewHistogram(prometheus.HistogramOpts{Name: "telemetry_command_latency_seconds", Help: "Time to apply a grid command", Buckets: prometheus.DefBuckets}),
	}
	var err error
	if m.published, err = register(reg, m.published); err != nil {
		return nil, err
	}
	if m.commands, err = register(reg, m.commands); err != nil {
		return nil, err
	}
	if m.lastPublish, err = register(reg, m.lastPublish); err != nil {
		return nil, err
	}
	if m.latency, err = register(reg, m.latency); err != nil {
		return nil, err
	}
	return m, nil
}

func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

// Start subscribes to cart commands and publishes snapshots until ctx is
// done or the snapshot channel closes.
func (m *Manager) Start(ctx context.Context, snapshots <-chan engine.Snapshot) error {
	m.ctx = ctx
	if m.sub != nil && m.exec != nil {
		topic := coremqtt.CommandWildcard(m.cfg.TopicPrefix)
		if err := m.sub.Subscribe(topic, "command", m.onCommand); err != nil {
			return fmt.Errorf("subscribe %s: %w", topic, err)
		}
		m.log.Infof("listening for cart commands on %s", topic)
	}
	for {
		select {
		case <-ctx.Done():
			return nil
		case snap, ok := <-snapshots:
			if !ok {
				return nil
			}
			if snap.Tick%uint64(m.cfg.IntervalTicks) == 0 {
				m.PublishSnapshot(snap)
			}
		}
	}
}

// PublishSnapshot sends one state message per cart.
func (m *Manager) PublishSnapshot(snap engine.Snapshot) {
	for _, c := range snap.Carts {
		msg := coremqtt.NewStateMessage(c, snap.Tick, snap.Time)
		payload, err := json.Marshal(msg)
		if err != nil {
			m.log.Errorf("encode state %s: %v", c.ID, err)
			continue
		}
		if err := m.pub.Publish(coremqtt.StateTopic(m.cfg.TopicPrefix, c.ID), "state", payload); err != nil {
			m.log.Warnf("publish state %s: %v", c.ID, err)
			continue
		}
		m.published.Inc()
		if m.sink != nil {
			_ = m.sink.RecordCartState(coremetrics.CartStateEvent{Cart: c, Context: "telemetry", Tick: snap.Tick, Time: snap.Time})
		}
	}
	m.lastPublish.SetToCurrentTime()
}

func (m *Manager) onCommand(_ paho.Client, msg paho.Message) {
	m.HandleCommand(m.ctx, msg.Topic(), msg.Payload())
}

// HandleCommand decodes a command payload, applies it and publishes the ack.
func (m *Manager) HandleCommand(ctx context.Context, topic string, payload []byte) {
	cartID, err := coremqtt.ParseCommandTopic(m.cfg.TopicPrefix, topic)
	if err != nil {
		m.log.Warnf("ignoring message: %v", err)
		m.commands.WithLabelValues("bad_topic").Inc()
		return
	}
	start := m.now()
	var cmd coremqtt.CommandMessage
	if err = json.Unmarshal(payload, &cmd); err != nil {
		err = fmt.Errorf("%w: %v", coremqtt.ErrBadPayload, err)
	}
	if cmd.CommandID == "" {
		cmd.CommandID = uuid.NewString()
	}
	if err == nil {
		cctx, cancel := context.WithTimeout(ctx, time.Duration(m.cfg.Timeout())*time.Second)
		err = m.exec.SendGridCommand(cctx, dispatch.GridCommand{CartID: cartID, X: cmd.X, Y: cmd.Y})
		cancel()
		m.latency.Observe(time.Since(start).Seconds())
	}

	ack := coremqtt.AckMessage{CommandID: cmd.CommandID, CartID: cartID, Accepted: err == nil, Timestamp: m.now().UnixMilli()}
	result := "accepted"
	if err != nil {
		ack.Error = err.Error()
		result = dispatch.Reason(err)
		if errors.Is(err, coremqtt.ErrBadPayload) {
			result = "bad_payload"
		}
		m.log.Infof("command %s for %s rejected: %v", cmd.CommandID, cartID, err)
	}
	m.commands.WithLabelValues(result).Inc()

	out, _ := json.Marshal(ack)
	if err := m.pub.Publish(coremqtt.AckTopic(m.cfg.TopicPrefix, cartID), "ack", out); err != nil {
		m.log.Errorf("publish ack %s: %v", cmd.CommandID, err)
	}
}
