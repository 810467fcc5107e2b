//go:build !no_containers

package test

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"testing"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/factorysim/config"
	"github.com/kilianp07/factorysim/core/dispatch"
	"github.com/kilianp07/factorysim/core/engine"
	"github.com/kilianp07/factorysim/core/equipment"
	coremetrics "github.com/kilianp07/factorysim/core/metrics"
	"github.com/kilianp07/factorysim/core/model"
	coremqtt "github.com/kilianp07/factorysim/core/mqtt"
	"github.com/kilianp07/factorysim/infra/logger"
	"github.com/kilianp07/factorysim/infra/mqtt"
	"github.com/kilianp07/factorysim/infra/telemetry"
	"github.com/kilianp07/factorysim/test/util"
)

func startRunner(t *testing.T) (*engine.Engine, *engine.Runner) {
	t.Helper()
	carts := []*model.Cart{
		model.NewCart("cart-1", model.Pos(100, 100), 1),
		model.NewCart("cart-2", model.Pos(140, 100), 1),
	}
	equip := equipment.NewMonitor(nil, nil, logger.NopLogger{})
	disp, err := dispatch.NewDispatcher(carts, dispatch.Config{}, equip, nil, nil, logger.NopLogger{})
	require.NoError(t, err)
	eng, err := engine.New(engine.Config{TickIntervalMS: 20, SettleDelayMS: 100, ProductionIntervalMS: 100}, disp, equip, nil, logger.NopLogger{})
	require.NoError(t, err)
	return eng, engine.NewRunner(eng, logger.NopLogger{})
}

func TestTelemetryOverMosquitto(t *testing.T) {
	util.RequireDocker(t)
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	broker, cleanup, err := util.StartMosquitto(ctx)
	if err != nil {
		t.Skipf("mosquitto: %v", err)
	}
	defer cleanup()

	client, err := mqtt.NewPahoClient(mqtt.Config{Broker: broker, ClientID: "factorysim-it"})
	require.NoError(t, err)
	defer client.Disconnect()

	eng, runner := startRunner(t)
	go func() { _ = runner.Run(ctx) }()

	cfg := config.TelemetryConfig{Enabled: true}
	cfg.SetDefaults()
	cfg.IntervalTicks = 1
	mgr, err := telemetry.NewManager(cfg, client, client, runner, coremetrics.NopSink{}, prometheus.NewRegistry())
	require.NoError(t, err)
	snaps := eng.Snapshots().Subscribe()
	go func() { _ = mgr.Start(ctx, snaps) }()

	probe := paho.NewClient(paho.NewClientOptions().AddBroker(broker).SetClientID("probe-it"))
	tok := probe.Connect()
	tok.Wait()
	require.NoError(t, tok.Error())
	defer probe.Disconnect(100)

	var mu sync.Mutex
	states := map[string]coremqtt.StateMessage{}
	acks := make(chan coremqtt.AckMessage, 4)
	tok = probe.Subscribe(coremqtt.StateWildcard(cfg.TopicPrefix), 0, func(_ paho.Client, m paho.Message) {
		var st coremqtt.StateMessage
		if json.Unmarshal(m.Payload(), &st) == nil {
			mu.Lock()
			states[st.CartID] = st
			mu.Unlock()
		}
	})
	tok.Wait()
	require.NoError(t, tok.Error())
	tok = probe.Subscribe(coremqtt.AckTopic(cfg.TopicPrefix, "+"), 1, func(_ paho.Client, m paho.Message) {
		var ack coremqtt.AckMessage
		if json.Unmarshal(m.Payload(), &ack) == nil {
			select {
			case acks <- ack:
			default:
			}
		}
	})
	tok.Wait()
	require.NoError(t, tok.Error())

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(states) == 2
	}, 10*time.Second, 50*time.Millisecond)

	// the manager subscribes asynchronously; retry until an ack arrives
	send := func(id string, x, y float64) coremqtt.AckMessage {
		payload := []byte(fmt.Sprintf(`{"command_id":%q,"x":%g,"y":%g}`, id, x, y))
		deadline := time.After(10 * time.Second)
		for {
			probe.Publish(coremqtt.CommandTopic(cfg.TopicPrefix, "cart-2"), 1, false, payload).Wait()
			select {
			case ack := <-acks:
				if ack.CommandID == id {
					return ack
				}
			case <-time.After(500 * time.Millisecond):
			case <-deadline:
				t.Fatalf("no ack for %s", id)
			}
		}
	}

	ack := send("cmd-ok", 140, 300)
	require.True(t, ack.Accepted, ack.Error)
	require.Equal(t, "cart-2", ack.CartID)

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return states["cart-2"].Status == string(model.CartMoving)
	}, 10*time.Second, 50*time.Millisecond)

	bad := send("cmd-bad", 5000, 0)
	require.False(t, bad.Accepted)
	require.Contains(t, bad.Error, "outside grid bounds")
}
