package metrics

import (
	"context"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	coremetrics "github.com/kilianp07/factorysim/core/metrics"
	"github.com/kilianp07/factorysim/infra/logger"
)

// InfluxSink writes simulation events to an InfluxDB instance using the official client.
type InfluxSink struct {
	client   influxdb2.Client
	writeAPI api.WriteAPIBlocking
	log      logger.Logger
}

// NewInfluxSink creates a new sink configured for the given InfluxDB endpoint.
func NewInfluxSink(url, token, org, bucket string) *InfluxSink {
	base := strings.TrimSuffix(url, "/api/v2/write")
	client := influxdb2.NewClientWithOptions(base, token,
		influxdb2.DefaultOptions().SetHTTPClient(&http.Client{Timeout: 5 * time.Second}))
	return &InfluxSink{
		client:   client,
		writeAPI: client.WriteAPIBlocking(org, bucket),
		log:      logger.New("influx-sink"),
	}
}

// NewInfluxSinkWithFallback tries to ping the InfluxDB instance and
// returns a NopSink if the health check fails.
func NewInfluxSinkWithFallback(url, token, org, bucket string) coremetrics.MetricsSink {
	sink := NewInfluxSink(url, token, org, bucket)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	health, err := sink.client.Health(ctx)
	if err != nil || health.Status != "pass" {
		if err != nil {
			sink.log.Errorf("influx health check error: %v", err)
		} else {
			sink.log.Errorf("influx health status: %s", health.Status)
		}
		sink.client.Close()
		return coremetrics.NopSink{}
	}
	return sink
}

// Close releases the underlying client.
func (s *InfluxSink) Close() { s.client.Close() }

func (s *InfluxSink) write(p *write.Point) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.writeAPI.WritePoint(ctx, p)
}

// RecordDelivery writes a delivery transition.
func (s *InfluxSink) RecordDelivery(ev coremetrics.DeliveryEvent) error {
	d := ev.Delivery
	p := write.NewPointWithMeasurement("delivery_event").
		AddTag("delivery_id", strconv.FormatInt(d.ID, 10)).
		AddTag("type", d.Type).
		AddTag("action", ev.Action)
	if ev.CartID != "" {
		p = p.AddTag("cart_id", ev.CartID)
	}
	p = p.AddField("from_x", round3(d.From.X)).
		AddField("from_y", round3(d.From.Y)).
		AddField("to_x", round3(d.To.X)).
		AddField("to_y", round3(d.To.Y)).
		AddField("lead_time_s", round3(ev.LeadTime().Seconds())).
		SetTime(ev.Time)
	return s.write(p)
}

// RecordCartState writes a cart snapshot.
func (s *InfluxSink) RecordCartState(ev coremetrics.CartStateEvent) error {
	c := ev.Cart
	p := write.NewPointWithMeasurement("cart_state").
		AddTag("cart_id", c.ID)
	if ev.Context != "" {
		p = p.AddTag("context", ev.Context)
	}
	p = p.AddField("x", round3(c.Position.X)).
		AddField("y", round3(c.Position.Y)).
		AddField("status", string(c.Status)).
		AddField("remaining", round3(c.RemainingDistance())).
		AddField("tick", int64(ev.Tick)).
		SetTime(ev.Time)
	return s.write(p)
}

// RecordCommandRejection writes a refused command.
func (s *InfluxSink) RecordCommandRejection(ev coremetrics.CommandRejectionEvent) error {
	p := write.NewPointWithMeasurement("command_rejected").
		AddTag("command", ev.Command).
		AddTag("reason", ev.Reason)
	if ev.CartID != "" {
		p = p.AddTag("cart_id", ev.CartID)
	}
	p = p.AddField("error", ev.Error).SetTime(ev.Time)
	return s.write(p)
}

// RecordTick writes the pool summary.
func (s *InfluxSink) RecordTick(sample coremetrics.TickSample) error {
	p := write.NewPointWithMeasurement("tick_sample").
		AddField("tick", int64(sample.Tick)).
		AddField("idle", sample.Idle).
		AddField("moving", sample.Moving).
		AddField("pending", sample.Pending).
		AddField("active", sample.Active).
		SetTime(sample.Time)
	return s.write(p)
}

// RecordEquipmentStatus writes a machine status change.
func (s *InfluxSink) RecordEquipmentStatus(ev coremetrics.EquipmentStatusEvent) error {
	e := ev.Equipment
	p := write.NewPointWithMeasurement("equipment_status").
		AddTag("equipment_id", e.ID).
		AddTag("workshop", e.Workshop).
		AddField("status", string(e.Status)).
		AddField("current_production", round3(e.CurrentProduction)).
		AddField("total_produced", round3(e.TotalProduced)).
		SetTime(ev.Time)
	return s.write(p)
}

func round3(f float64) float64 {
	return math.Round(f*1000) / 1000
}
