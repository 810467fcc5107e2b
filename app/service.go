package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	apicarts "github.com/kilianp07/factorysim/api/carts"
	apijournal "github.com/kilianp07/factorysim/api/journal"
	"github.com/kilianp07/factorysim/config"
	"github.com/kilianp07/factorysim/core/cartstatus"
	"github.com/kilianp07/factorysim/core/engine"
	"github.com/kilianp07/factorysim/core/journal"
	coremetrics "github.com/kilianp07/factorysim/core/metrics"
	"github.com/kilianp07/factorysim/core/model"
	coremon "github.com/kilianp07/factorysim/core/monitoring"
	"github.com/kilianp07/factorysim/infra/logger"
	"github.com/kilianp07/factorysim/infra/metrics"
	inframon "github.com/kilianp07/factorysim/infra/monitoring"
	"github.com/kilianp07/factorysim/infra/mqtt"
	"github.com/kilianp07/factorysim/infra/telemetry"
)

// Service orchestrates the simulation loop and its outer surfaces.
type Service struct {
	Sim    *Simulation
	Runner *engine.Runner

	cfg       *config.Config
	sink      coremetrics.MetricsSink
	journal   journal.Store
	status    cartstatus.Store
	tracker   *cartstatus.Tracker
	mqtt      *mqtt.PahoClient
	telemetry *telemetry.Manager
	http      *http.Server
	log       logger.Logger
}

// New creates a Service from the configuration.
func New(cfg *config.Config) (*Service, error) {
	logg := logger.New("service")
	if err := installMonitor(cfg.Sentry, logg); err != nil {
		return nil, err
	}

	sim, err := NewSimulation(cfg, nil)
	if err != nil {
		return nil, err
	}
	svc := &Service{
		Sim:    sim,
		Runner: engine.NewRunner(sim.Engine, logger.New("runner")),
		cfg:    cfg,
		log:    logg,
	}

	sink, err := coremetrics.NewMetricsSink(cfg.Metrics.Sinks)
	if err != nil {
		return nil, fmt.Errorf("metrics sink: %w", err)
	}
	svc.sink = sink
	if rec, ok := sink.(coremetrics.EquipmentRecorder); ok {
		sim.Equipment.OnStatusChange(func(e model.Equipment) {
			if err := rec.RecordEquipmentStatus(coremetrics.EquipmentStatusEvent{Equipment: e, Time: time.Now()}); err != nil {
				logg.Warnf("record equipment %s: %v", e.ID, err)
			}
		})
	}

	if !cfg.Logging.Disabled {
		store, err := journal.Open(cfg.Logging.Journal())
		if err != nil {
			return nil, fmt.Errorf("journal: %w", err)
		}
		svc.journal = store
	}

	if err := svc.openStatus(); err != nil {
		_ = svc.Close()
		return nil, err
	}

	if cfg.Telemetry.Enabled {
		if err := svc.openTelemetry(); err != nil {
			_ = svc.Close()
			return nil, err
		}
	}

	svc.http = &http.Server{
		Addr:              cfg.HTTP.Address,
		Handler:           svc.router(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	return svc, nil
}

func installMonitor(cfg config.SentryConfig, log logger.Logger) error {
	if !cfg.Enabled() {
		coremon.Init(coremon.LogMonitor{Log: logger.New("monitoring")})
		return nil
	}
	m, err := inframon.NewSentryMonitor(cfg)
	if err != nil {
		return fmt.Errorf("sentry: %w", err)
	}
	coremon.Init(m)
	log.Infof("sentry monitoring enabled")
	return nil
}

func (s *Service) openStatus() error {
	switch s.cfg.Status.Backend {
	case "redis":
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		store, err := cartstatus.NewRedisStoreAddr(ctx, s.cfg.Status.RedisAddr)
		if err != nil {
			return fmt.Errorf("status store: %w", err)
		}
		s.status = store
	default:
		s.status = cartstatus.NewMemoryStore()
	}
	s.tracker = cartstatus.NewTracker(s.status, s.Sim.Bus, logger.New("cart-status"))
	return nil
}

func (s *Service) openTelemetry() error {
	client, err := mqtt.NewPahoClient(s.cfg.MQTT)
	if err != nil {
		return fmt.Errorf("mqtt client: %w", err)
	}
	s.mqtt = client
	var rec coremetrics.CartStateRecorder = coremetrics.NopSink{}
	if r, ok := s.sink.(coremetrics.CartStateRecorder); ok {
		rec = r
	}
	mgr, err := telemetry.NewManager(s.cfg.Telemetry, client, client, s.Runner, rec, prometheus.DefaultRegisterer)
	if err != nil {
		return fmt.Errorf("telemetry: %w", err)
	}
	s.telemetry = mgr
	return nil
}

func (s *Service) router() http.Handler {
	opts := apicarts.Options{
		Status:      s.status,
		Snapshots:   s.Sim.Engine.Snapshots(),
		GridSize:    s.cfg.Simulation.GridMax - s.cfg.Simulation.GridMin + 1,
		StreamEvery: s.cfg.HTTP.StreamEveryTicks,
		Log:         logger.New("api"),
	}
	if s.journal != nil && s.cfg.HTTP.Token != "" {
		opts.Journal = apijournal.NewHandler(s.journal, s.cfg.HTTP.Token)
	}
	return apicarts.NewServer(s.Runner, s.Sim.Equipment, opts).Router()
}

// Run starts every component and blocks until the context is cancelled.
func (s *Service) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var done []<-chan struct{}
	done = append(done, metrics.StartEventCollector(ctx, s.Sim.Bus, s.sink))
	if s.journal != nil {
		done = append(done, journal.NewRecorder(s.journal, s.Sim.Bus, logger.New("journal")).Start(ctx))
	}
	snap := s.Sim.Engine.Snapshot()
	if err := s.tracker.Seed(ctx, snap.Carts); err != nil {
		s.log.Warnf("seed cart status: %v", err)
	}
	done = append(done, s.tracker.Start(ctx))

	if addr := s.cfg.Metrics.PrometheusAddr; addr != "" {
		go func() {
			if err := metrics.StartPromServer(ctx, addr); err != nil {
				s.log.Errorf("prom server: %v", err)
			}
		}()
	}

	errc := make(chan error, 3)
	if s.telemetry != nil {
		snaps := s.Sim.Engine.Snapshots().Subscribe()
		defer s.Sim.Engine.Snapshots().Unsubscribe(snaps)
		go func() {
			if err := s.telemetry.Start(ctx, snaps); err != nil {
				errc <- fmt.Errorf("telemetry: %w", err)
			}
		}()
	}
	go func() {
		s.log.Infof("serving api on %s", s.http.Addr)
		if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- fmt.Errorf("http: %w", err)
		}
	}()
	go func() {
		if err := s.Runner.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			errc <- err
		}
	}()

	var runErr error
	select {
	case <-ctx.Done():
	case runErr = <-errc:
		cancel()
	}

	shutdownCtx, stop := context.WithTimeout(context.Background(), 5*time.Second)
	if err := s.http.Shutdown(shutdownCtx); err != nil {
		s.log.Errorf("http shutdown: %v", err)
	}
	stop()
	for _, d := range done {
		<-d
	}
	return runErr
}

// Close releases resources held by the service.
func (s *Service) Close() error {
	var errs []error
	if s.mqtt != nil {
		s.mqtt.Disconnect()
	}
	if s.journal != nil {
		errs = append(errs, s.journal.Close())
	}
	if c, ok := s.status.(io.Closer); ok {
		errs = append(errs, c.Close())
	}
	if c, ok := s.sink.(interface{ Close() }); ok {
		c.Close()
	}
	coremon.Flush(2 * time.Second)
	return errors.Join(errs...)
}
