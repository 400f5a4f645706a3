package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	chargersapi "github.com/kilianp07/wrsn/api/chargers"
	kpiapi "github.com/kilianp07/wrsn/api/kpi"
	traceapi "github.com/kilianp07/wrsn/api/trace"
	"github.com/kilianp07/wrsn/config"
	"github.com/kilianp07/wrsn/core/chargerstatus"
	"github.com/kilianp07/wrsn/core/episode"
	corekpi "github.com/kilianp07/wrsn/core/kpi"
	coremetrics "github.com/kilianp07/wrsn/core/metrics"
	coremon "github.com/kilianp07/wrsn/core/monitoring"
	"github.com/kilianp07/wrsn/core/policy"
	"github.com/kilianp07/wrsn/core/trace"
	infrakpi "github.com/kilianp07/wrsn/infra/kpi"
	"github.com/kilianp07/wrsn/infra/logger"
	"github.com/kilianp07/wrsn/infra/metrics"
	"github.com/kilianp07/wrsn/infra/monitoring"
	"github.com/kilianp07/wrsn/infra/mqtt"
	"github.com/kilianp07/wrsn/internal/eventbus"
)

// Service wires an episode runner to its observers: metrics sinks, the
// trace store, the charger status API and MQTT telemetry.
type Service struct {
	Runner *episode.Runner

	cfg       *config.Config
	bus       *eventbus.Bus[any]
	sink      coremetrics.MetricsSink
	store     trace.Store
	kpis      corekpi.Store
	status    *chargerstatus.MemoryStore
	publisher *mqtt.Publisher
	log       logger.Logger
}

// New creates a Service from the configuration.
func New(cfg *config.Config) (*Service, error) {
	logg := logger.New("service")

	mon, err := monitoring.NewSentryMonitor(cfg.Sentry)
	if err != nil {
		return nil, fmt.Errorf("sentry: %w", err)
	}
	coremon.Init(mon)

	sc, err := cfg.Network.Build()
	if err != nil {
		return nil, fmt.Errorf("scenario: %w", err)
	}
	pol, err := policy.New(cfg.Simulation.Policy)
	if err != nil {
		return nil, fmt.Errorf("policy: %w", err)
	}
	runner, err := episode.NewRunner(sc,
		episode.Fleet{IDs: cfg.Charger.IDs(), Spec: cfg.Charger.Spec},
		pol,
		episode.Options{
			RunID:        uuid.NewString(),
			Duration:     cfg.Simulation.Duration,
			IdleWait:     cfg.Simulation.IdleWait,
			MaxDecisions: cfg.Simulation.MaxDecisions,
			Pace:         time.Duration(cfg.Simulation.PaceMS) * time.Millisecond,
		},
		logger.New("episode"))
	if err != nil {
		return nil, fmt.Errorf("episode: %w", err)
	}

	sink, err := coremetrics.NewMetricsSink(cfg.Metrics.Sinks)
	if err != nil {
		return nil, fmt.Errorf("metrics sink: %w", err)
	}
	kpis, err := openKPIStore(cfg.KPI)
	if err != nil {
		return nil, fmt.Errorf("kpi store: %w", err)
	}
	sink = coremetrics.NewMultiSink(sink, infrakpi.Sink{Store: kpis})
	store, err := trace.Open(cfg.Trace)
	if err != nil {
		_ = kpis.Close()
		return nil, fmt.Errorf("trace store: %w", err)
	}

	svc := &Service{
		Runner: runner,
		cfg:    cfg,
		bus:    eventbus.New[any](),
		sink:   sink,
		store:  store,
		kpis:   kpis,
		status: chargerstatus.NewMemoryStore(),
		log:    logg,
	}
	if cfg.Telemetry.Enabled {
		pub, err := mqtt.NewPublisher(cfg.Telemetry, prometheus.DefaultRegisterer)
		if err != nil {
			_ = store.Close()
			_ = kpis.Close()
			return nil, fmt.Errorf("telemetry: %w", err)
		}
		svc.publisher = pub
	}
	runner.SetBus(svc.bus)
	runner.SetTraceStore(store)
	return svc, nil
}

// Handler serves the charger status and trace endpoints.
func (s *Service) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/api/chargers/status", chargersapi.NewStatusHandler(s.status))
	mux.Handle("/api/trace", traceapi.NewHandler(s.store, s.cfg.API.Token))
	mux.Handle("/api/runs/", kpiapi.NewHandler(s.kpis))
	return mux
}

func openKPIStore(cfg config.KPIConfig) (corekpi.Store, error) {
	if cfg.Path == "" {
		return corekpi.NewMemoryStore(), nil
	}
	st, err := infrakpi.NewSQLiteStore(cfg.Path)
	if err != nil {
		return nil, err
	}
	return st, nil
}

// Run plays the episode and blocks until it is over and every observer has
// drained the bus. With api.keep_serving the HTTP API stays up until ctx is
// canceled.
func (s *Service) Run(ctx context.Context) (episode.Summary, error) {
	defer coremon.RecoverAndReport(map[string]string{"component": "service"})

	obsCtx, stopObservers := context.WithCancel(context.Background())
	defer stopObservers()
	var observers []<-chan struct{}
	observers = append(observers,
		metrics.StartEventCollector(obsCtx, s.bus, s.sink, logger.New("metrics")),
		chargerstatus.Follow(obsCtx, s.bus, s.status),
	)
	if s.publisher != nil {
		observers = append(observers, s.publisher.Start(obsCtx, s.bus))
	}

	srvCtx, stopServers := context.WithCancel(ctx)
	var wg sync.WaitGroup
	if addr := s.cfg.Metrics.PrometheusAddr; addr != "" {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := metrics.StartPromServer(srvCtx, addr, s.log); err != nil {
				s.log.Errorf("prom server: %v", err)
			}
		}()
	}
	if addr := s.cfg.API.Addr; addr != "" {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := s.serveAPI(srvCtx, addr); err != nil {
				s.log.Errorf("api server: %v", err)
			}
		}()
	}

	sum, err := s.Runner.Run(ctx)

	// Closing the bus lets every observer drain what is buffered and exit.
	s.bus.Close()
	for _, done := range observers {
		<-done
	}
	if n := s.bus.Dropped(); n > 0 {
		s.log.Warnf("%d events dropped by slow observers, consider simulation.pace_ms", n)
	}

	if err == nil && s.cfg.API.KeepServing && s.cfg.API.Addr != "" {
		s.log.Infof("episode over, serving API on %s until interrupted", s.cfg.API.Addr)
		<-ctx.Done()
	}
	stopServers()
	wg.Wait()
	return sum, err
}

func (s *Service) serveAPI(ctx context.Context, addr string) error {
	srv := &http.Server{Addr: addr, Handler: s.Handler(), ReadHeaderTimeout: 5 * time.Second}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.log.Errorf("api server shutdown: %v", err)
		}
		cancel()
	}()
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Close releases the stores, the broker connection and the sinks.
func (s *Service) Close() error {
	if s.publisher != nil {
		s.publisher.Close()
	}
	if c, ok := s.sink.(interface{ Close() }); ok {
		c.Close()
	}
	coremon.Flush(2 * time.Second)
	return errors.Join(s.store.Close(), s.kpis.Close())
}
