package agent

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"

	"snmp-health-agent/internal/agent/version"
	"snmp-health-agent/internal/collector"
	"snmp-health-agent/internal/snmp"
	"snmp-health-agent/internal/store"
)

type CycleRunner interface {
	ForceCycle(ctx context.Context) (collector.CycleReport, error)
}

type HostProber interface {
	Probe(address, community string) (string, error)
}

// AdminDeps is what the admin API needs from the running agent.
type AdminDeps struct {
	Logger    *slog.Logger
	Cycles    CycleRunner
	Prober    HostProber
	Registry  store.Registry
	Health    *HealthStatus
	Version   func() *version.GetVersionResponse
	JWTSecret string
	// ProbeRate bounds POST /v1/probe, which sends SNMP traffic on demand.
	ProbeRate rate.Limit
}

type probeRequest struct {
	Address   string `json:"address" binding:"required"`
	Community string `json:"community"`
}

type probeResponse struct {
	Address           string `json:"address"`
	Reachable         bool   `json:"reachable"`
	SystemDescription string `json:"system_description,omitempty"`
	Error             string `json:"error,omitempty"`
}

type pollResultView struct {
	Address  string   `json:"address"`
	OSFamily string   `json:"os_family,omitempty"`
	Status   string   `json:"status,omitempty"`
	CPU      *float64 `json:"cpu_utilization_pct,omitempty"`
	RAM      *float64 `json:"ram_usage_pct,omitempty"`
	Disk     *float64 `json:"disk_usage_pct,omitempty"`
	Error    string   `json:"error,omitempty"`
}

type cycleView struct {
	StartedAt  time.Time        `json:"started_at"`
	DurationMS int64            `json:"duration_ms"`
	Outcome    string           `json:"outcome"`
	Hosts      int              `json:"hosts"`
	Succeeded  int              `json:"succeeded"`
	Failed     int              `json:"failed"`
	Error      string           `json:"error,omitempty"`
	Results    []pollResultView `json:"results"`
}

func newCycleView(r collector.CycleReport) cycleView {
	v := cycleView{
		StartedAt:  r.StartedAt.UTC(),
		DurationMS: r.Duration.Milliseconds(),
		Outcome:    r.Outcome(),
		Hosts:      r.Hosts(),
		Succeeded:  r.Succeeded(),
		Failed:     r.Failed(),
		Results:    make([]pollResultView, 0, len(r.Results)),
	}
	if r.RegistryErr != nil {
		v.Error = r.RegistryErr.Error()
	}
	for _, res := range r.Results {
		rv := pollResultView{Address: res.Address}
		if res.OSFamily.Known() {
			rv.OSFamily = string(res.OSFamily)
		}
		if res.Err != nil {
			rv.Error = res.Err.Error()
		} else if res.Snapshot != nil {
			rv.Status = string(res.Snapshot.Status)
			snap := *res.Snapshot
			rv.CPU = &snap.CPUUtilizationPct
			rv.RAM = &snap.RAMUsagePct
			rv.Disk = &snap.DiskUsagePct
		}
		v.Results = append(v.Results, rv)
	}
	return v
}

func NewAdminRouter(deps AdminDeps) *gin.Engine {
	if deps.ProbeRate == 0 {
		deps.ProbeRate = rate.Every(time.Second)
	}
	limiter := rate.NewLimiter(deps.ProbeRate, 5)

	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "health": deps.Health.Snapshot()})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := r.Group("/v1")
	if deps.JWTSecret != "" {
		v1.Use(BearerAuth(deps.JWTSecret))
	}
	{
		v1.GET("/version", func(c *gin.Context) {
			c.JSON(http.StatusOK, deps.Version())
		})
		v1.POST("/cycles", func(c *gin.Context) {
			report, err := deps.Cycles.ForceCycle(context.WithoutCancel(c.Request.Context()))
			if errors.Is(err, collector.ErrCycleInProgress) {
				c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
				return
			}
			if err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
				return
			}
			c.JSON(http.StatusOK, newCycleView(report))
		})
		v1.POST("/probe", func(c *gin.Context) {
			if !limiter.Allow() {
				c.JSON(http.StatusTooManyRequests, gin.H{"error": "probe rate limit exceeded"})
				return
			}
			var req probeRequest
			if err := c.ShouldBindJSON(&req); err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			address := strings.TrimSpace(req.Address)
			community := req.Community
			if community == "" && deps.Registry != nil {
				if host, err := deps.Registry.Lookup(c.Request.Context(), address); err == nil {
					community = host.Community
				} else if !errors.Is(err, store.ErrHostNotFound) {
					deps.Logger.Warn("registry lookup failed", "address", address, "error", err)
				}
			}

			descr, err := deps.Prober.Probe(address, community)
			if err != nil {
				deps.Logger.Info("probe failed", "address", address, "error", err)
				c.JSON(probeStatusCode(err), probeResponse{Address: address, Error: err.Error()})
				return
			}
			c.JSON(http.StatusOK, probeResponse{Address: address, Reachable: true, SystemDescription: descr})
		})
	}
	return r
}

func probeStatusCode(err error) int {
	switch {
	case errors.Is(err, snmp.ErrTimeout):
		return http.StatusGatewayTimeout
	case errors.Is(err, snmp.ErrExchange), errors.Is(err, snmp.ErrTransport):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func (a *Agent) runAdminServer(ctx context.Context) error {
	gin.SetMode(gin.ReleaseMode)
	router := NewAdminRouter(AdminDeps{
		Logger:    a.logger,
		Cycles:    a.scheduler,
		Prober:    a.prober,
		Registry:  a.registry,
		Health:    a.health,
		Version:   func() *version.GetVersionResponse { return version.Get(a.cfg, nil) },
		JWTSecret: a.cfg.AdminJWTSecret,
	})
	srv := &http.Server{
		Addr:              a.cfg.AdminListenAddr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("admin api listening", "addr", a.cfg.AdminListenAddr, "auth", a.cfg.AdminJWTSecret != "")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("admin api %s: %w", a.cfg.AdminListenAddr, err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			a.logger.Warn("admin api shutdown failed", "error", err)
		}
		return nil
	}
}
