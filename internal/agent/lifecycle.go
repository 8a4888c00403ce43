package agent

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"
)

func (a *Agent) run(ctx context.Context) error {
	if err := a.backends.Ping(ctx); err != nil {
		a.logger.Warn("initial backend ping failed", "error", err)
	} else {
		a.health.SetStoreConnected(true)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return a.runScheduler(gctx)
	})
	g.Go(func() error {
		return a.runHealthLoop(gctx)
	})
	g.Go(func() error {
		return a.runProbeListener(gctx)
	})
	if a.cfg.AdminListenAddr != "" {
		g.Go(func() error {
			return a.runAdminServer(gctx)
		})
	}

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// runScheduler owns the scheduler for the lifetime of ctx. In-flight cycles
// are allowed to finish before it returns.
func (a *Agent) runScheduler(ctx context.Context) error {
	a.scheduler.Start(ctx)
	a.health.SetSchedulerRunning(true)
	<-ctx.Done()
	a.scheduler.Stop()
	a.scheduler.Wait()
	a.health.SetSchedulerRunning(false)
	return nil
}

func (a *Agent) runHealthLoop(ctx context.Context) error {
	t := time.NewTicker(a.cfg.HealthInterval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-t.C:
			pingCtx, cancel := context.WithTimeout(ctx, a.cfg.StoreWriteTimeout)
			err := a.backends.Ping(pingCtx)
			cancel()
			if err != nil {
				a.logger.Warn("backend health check failed", "error", err)
				a.health.SetStoreConnected(false)
				continue
			}
			a.health.SetStoreConnected(true)
			a.logHealth("ok")
		}
	}
}

func (a *Agent) logHealth(status string) {
	a.logger.Log(context.Background(), slog.LevelDebug, "agent health", "status", status, "snapshot", a.health.Snapshot())
}

func (a *Agent) shutdown(ctx context.Context) {
	if err := a.backends.Close(ctx); err != nil {
		a.logger.Warn("backend close failed", "error", err)
	}
	a.health.SetStoreConnected(false)
}
