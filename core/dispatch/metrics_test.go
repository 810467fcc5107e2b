package dispatch

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/kilianp07/factorysim/core/model"
)

func TestMetricsRegistration(t *testing.T) {
	ResetMetrics(nil)
	t.Cleanup(func() { ResetMetrics(nil) })
	reg := prometheus.NewRegistry()
	MustRegisterMetrics(reg)
	// touch metrics so they are exported
	deliveriesTotal.WithLabelValues("created", "goods").Inc()
	commandRejections.WithLabelValues("grid", "cart_busy").Inc()
	pendingGauge.Set(1)
	idleCartsGauge.Set(2)
	deliveryTicks.Observe(120)
	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	names := map[string]bool{}
	for _, mf := range mfs {
		names[*mf.Name] = true
	}
	expected := []string{
		"factory_deliveries_total",
		"factory_command_rejections_total",
		"factory_pending_deliveries",
		"factory_idle_carts",
		"factory_delivery_duration_ticks",
	}
	for _, n := range expected {
		if !names[n] {
			t.Errorf("metric %s not registered", n)
		}
	}
}

func TestMetricsFollowDispatch(t *testing.T) {
	ResetMetrics(nil)
	t.Cleanup(func() { ResetMetrics(nil) })
	d := newTestDispatcher(t, 1)

	if _, err := d.DeployCart(); err != nil {
		t.Fatalf("deploy: %v", err)
	}
	if _, err := d.DeployCart(); err == nil {
		t.Fatal("expected rejection with no idle cart")
	}
	if got := testutil.ToFloat64(deliveriesTotal.WithLabelValues("created", model.CargoGoods)); got != 2 {
		t.Errorf("created = %v, want 2", got)
	}
	if got := testutil.ToFloat64(deliveriesTotal.WithLabelValues("assigned", model.CargoGoods)); got != 1 {
		t.Errorf("assigned = %v, want 1", got)
	}
	if got := testutil.ToFloat64(commandRejections.WithLabelValues(CommandDeploy, "no_available_cart")); got != 1 {
		t.Errorf("rejections = %v, want 1", got)
	}
	if got := testutil.ToFloat64(pendingGauge); got != 1 {
		t.Errorf("pending gauge = %v, want 1", got)
	}
	if got := testutil.ToFloat64(idleCartsGauge); got != 0 {
		t.Errorf("idle gauge = %v, want 0", got)
	}
}
