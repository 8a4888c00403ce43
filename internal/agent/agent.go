package agent

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"snmp-health-agent/internal/collector"
	"snmp-health-agent/internal/config"
	"snmp-health-agent/internal/snmp"
	"snmp-health-agent/internal/store"
)

type Agent struct {
	cfg       config.Config
	logger    *slog.Logger
	backends  *store.Backends
	registry  store.Registry
	prober    *collector.Prober
	scheduler *collector.Scheduler
	health    *HealthStatus
}

func New(ctx context.Context, cfg config.Config, logger *slog.Logger) (*Agent, error) {
	tlsCfg, err := cfg.TLSConfig()
	if err != nil {
		return nil, fmt.Errorf("tls config: %w", err)
	}

	backends, err := store.NewFromConfig(ctx, cfg, tlsCfg, logger)
	if err != nil {
		return nil, fmt.Errorf("backends: %w", err)
	}

	overlap, err := collector.ParseOverlapPolicy(cfg.OverlapPolicy)
	if err != nil {
		_ = backends.Close(ctx)
		return nil, err
	}

	health := NewHealthStatus()
	wrappedStore := &healthStore{store: backends.Store, health: health}
	transport := snmp.NewTransport(logger)
	poller := collector.NewPoller(transport, nil, cfg.DefaultCommunity, logger)
	scheduler := collector.NewScheduler(logger, backends.Registry, wrappedStore, poller, collector.Options{
		Interval:      cfg.PollInterval,
		CycleTimeout:  cfg.CycleTimeout,
		MaxConcurrent: cfg.MaxConcurrentPolls,
		Overlap:       overlap,
		OnCycle:       health.RecordCycle,
	})

	return &Agent{
		cfg:       cfg,
		logger:    logger,
		backends:  backends,
		registry:  backends.Registry,
		prober:    collector.NewProber(transport, cfg.DefaultCommunity),
		scheduler: scheduler,
		health:    health,
	}, nil
}

func (a *Agent) Run(ctx context.Context) error {
	a.logger.Info("starting snmp-health-agent",
		"agent_id", a.cfg.AgentID,
		"version", a.cfg.AgentVersion,
		"registry", a.cfg.RegistryMode,
		"store", a.cfg.StoreMode,
	)
	runCtx, cancelRun := context.WithCancel(ctx)
	defer cancelRun()

	runErrCh := make(chan error, 1)
	go func() {
		runErrCh <- a.run(runCtx)
	}()

	sigCh := make(chan os.Signal, 2)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	var runErr error
	select {
	case runErr = <-runErrCh:
	case sig := <-sigCh:
		a.logger.Info("shutdown signal received, starting graceful shutdown", "signal", sig.String(), "timeout", a.cfg.ShutdownTimeout)
		cancelRun()

		graceTimer := time.NewTimer(a.cfg.ShutdownTimeout)
		defer graceTimer.Stop()

		select {
		case runErr = <-runErrCh:
		case sig2 := <-sigCh:
			a.logger.Warn("second signal received, forcing immediate shutdown", "signal", sig2.String())
			runErr = context.Canceled
		case <-graceTimer.C:
			a.logger.Warn("graceful shutdown timeout reached, forcing shutdown", "timeout", a.cfg.ShutdownTimeout)
			runErr = context.DeadlineExceeded
		}
	}

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancelShutdown()
	a.shutdown(shutdownCtx)

	if runErr != nil && !errors.Is(runErr, context.Canceled) && !errors.Is(runErr, context.DeadlineExceeded) {
		return runErr
	}
	a.logger.Info("snmp-health-agent stopped")
	return nil
}

// Cycle runs a single polling cycle against the configured registry and
// store, without starting the scheduler.
func (a *Agent) Cycle(ctx context.Context) (collector.CycleReport, error) {
	return a.scheduler.ForceCycle(ctx)
}

// Close releases the backends. Run does this itself on exit.
func (a *Agent) Close(ctx context.Context) error {
	return a.backends.Close(ctx)
}

func BuildLogger(cfg config.Config) *slog.Logger {
	level := slog.LevelInfo
	switch cfg.LogLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	hOpts := &slog.HandlerOptions{Level: level}
	if cfg.LogJSON {
		return slog.New(slog.NewJSONHandler(os.Stdout, hOpts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, hOpts))
}
