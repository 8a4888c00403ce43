package collector

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/benbjohnson/clock"
	"golang.org/x/sync/errgroup"

	"snmp-health-agent/internal/model"
	"snmp-health-agent/internal/telemetry"
)

const (
	DefaultInterval      = 30 * time.Second
	DefaultMaxConcurrent = 64
)

// ErrCycleInProgress is returned by ForceCycle when the skip policy is active
// and another cycle is still running.
var ErrCycleInProgress = errors.New("polling cycle already in progress")

type OverlapPolicy string

const (
	// OverlapSkip drops a tick that arrives while a cycle is running.
	OverlapSkip OverlapPolicy = "skip"
	// OverlapAllow lets cycles run concurrently.
	OverlapAllow OverlapPolicy = "allow"
)

func ParseOverlapPolicy(s string) (OverlapPolicy, error) {
	switch OverlapPolicy(s) {
	case "", OverlapSkip:
		return OverlapSkip, nil
	case OverlapAllow:
		return OverlapAllow, nil
	default:
		return "", fmt.Errorf("unknown overlap policy %q", s)
	}
}

// Registry lists the hosts to poll. The community and any cached or forced OS
// family travel on the HostTarget.
type Registry interface {
	ListHosts(ctx context.Context) ([]model.HostTarget, error)
	Lookup(ctx context.Context, address string) (model.HostTarget, error)
}

// Store persists the latest snapshot of a host, replacing the previous one.
type Store interface {
	UpsertSnapshot(ctx context.Context, address string, snap model.MetricSnapshot) error
}

// HostPoller produces a snapshot for one host. *Poller satisfies it.
type HostPoller interface {
	Poll(ctx context.Context, host model.HostTarget) (model.MetricSnapshot, error)
}

type Options struct {
	Interval      time.Duration
	CycleTimeout  time.Duration
	MaxConcurrent int
	Overlap       OverlapPolicy
	Clock         clock.Clock
	// OnCycle, when set, is called after every completed cycle.
	OnCycle func(CycleReport)
}

type Scheduler struct {
	logger   *slog.Logger
	registry Registry
	store    Store
	poller   HostPoller

	interval     time.Duration
	cycleTimeout time.Duration
	limit        int
	overlap      OverlapPolicy
	clock        clock.Clock
	onCycle      func(CycleReport)

	mu      sync.Mutex
	running bool
	stop    chan struct{}
	driver  sync.WaitGroup
	cycles  sync.WaitGroup

	// families remembers the OS family detected per address so hosts the
	// registry reports as unknown are only detected once.
	familyMu sync.Mutex
	families map[string]model.OSFamily

	inFlight atomic.Int32
	skipped  atomic.Uint64
}

func NewScheduler(logger *slog.Logger, registry Registry, store Store, poller HostPoller, opts Options) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.Interval <= 0 {
		opts.Interval = DefaultInterval
	}
	if opts.CycleTimeout <= 0 {
		opts.CycleTimeout = opts.Interval
	}
	if opts.MaxConcurrent <= 0 {
		opts.MaxConcurrent = DefaultMaxConcurrent
	}
	if opts.Overlap == "" {
		opts.Overlap = OverlapSkip
	}
	if opts.Clock == nil {
		opts.Clock = clock.New()
	}
	return &Scheduler{
		logger:       logger,
		registry:     registry,
		store:        store,
		poller:       poller,
		interval:     opts.Interval,
		cycleTimeout: opts.CycleTimeout,
		limit:        opts.MaxConcurrent,
		overlap:      opts.Overlap,
		clock:        opts.Clock,
		onCycle:      opts.OnCycle,
		families:     make(map[string]model.OSFamily),
	}
}

// Start arms the ticker and runs the first cycle right away. Calling it on a
// running scheduler does nothing and returns false. Cancelling ctx stops the
// scheduler like Stop does.
func (s *Scheduler) Start(ctx context.Context) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		s.logger.Warn("scheduler already running")
		return false
	}
	s.running = true
	stop := make(chan struct{})
	s.stop = stop
	ticker := s.clock.Ticker(s.interval)

	s.driver.Add(1)
	go s.drive(ctx, ticker, stop)
	s.logger.Info("scheduler started", "interval", s.interval, "max_concurrent", s.limit, "overlap", s.overlap)
	return true
}

// Stop disarms the ticker. Cycles already running are left to finish; use
// Wait to block until they have.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return
	}
	close(s.stop)
	s.running = false
	s.logger.Info("scheduler stopped")
}

func (s *Scheduler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// Wait blocks until the driver has exited and every in-flight cycle is done.
// It only returns after Stop or after the Start context is cancelled.
func (s *Scheduler) Wait() {
	s.driver.Wait()
	s.cycles.Wait()
}

// Skipped reports how many ticks were dropped by the skip policy.
func (s *Scheduler) Skipped() uint64 {
	return s.skipped.Load()
}

// ForceCycle runs one cycle synchronously, outside the ticker cadence.
// Cancelling ctx does not abort the cycle; it is bounded by the cycle timeout
// like a scheduled one.
func (s *Scheduler) ForceCycle(ctx context.Context) (CycleReport, error) {
	if !s.acquire() {
		return CycleReport{}, ErrCycleInProgress
	}
	defer s.release()
	s.logger.Info("forced polling cycle")
	return s.runCycle(context.WithoutCancel(ctx)), nil
}

func (s *Scheduler) drive(ctx context.Context, ticker *clock.Ticker, stop <-chan struct{}) {
	defer s.driver.Done()
	defer ticker.Stop()
	defer func() {
		s.mu.Lock()
		if s.stop == stop && s.running {
			s.running = false
		}
		s.mu.Unlock()
	}()

	cycleCtx := context.WithoutCancel(ctx)
	s.tick(cycleCtx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-stop:
			return
		case <-ticker.C:
			select {
			case <-stop:
				return
			default:
			}
			s.tick(cycleCtx)
		}
	}
}

func (s *Scheduler) tick(ctx context.Context) {
	if !s.acquire() {
		s.skipped.Add(1)
		telemetry.ObserveCycle("skipped", 0, 0)
		s.logger.Warn("previous cycle still running, tick skipped")
		return
	}
	s.cycles.Add(1)
	go func() {
		defer s.cycles.Done()
		defer s.release()
		s.runCycle(ctx)
	}()
}

func (s *Scheduler) acquire() bool {
	if s.overlap == OverlapAllow {
		s.inFlight.Add(1)
		return true
	}
	return s.inFlight.CompareAndSwap(0, 1)
}

func (s *Scheduler) release() {
	s.inFlight.Add(-1)
}

func (s *Scheduler) runCycle(parent context.Context) (report CycleReport) {
	ctx, cancel := context.WithTimeout(parent, s.cycleTimeout)
	defer cancel()

	report.StartedAt = s.clock.Now()
	defer func() {
		report.Duration = s.clock.Since(report.StartedAt)
		telemetry.ObserveCycle(report.Outcome(), report.Hosts(), report.Duration)
		if s.onCycle != nil {
			s.onCycle(report)
		}
	}()

	hosts, err := s.registry.ListHosts(ctx)
	if err != nil {
		report.RegistryErr = err
		s.logger.Error("list hosts failed", "error", err)
		return report
	}
	if len(hosts) == 0 {
		s.logger.Info("no hosts to poll")
		return report
	}
	s.logger.Info("polling cycle started", "hosts", len(hosts))

	results := make([]PollResult, len(hosts))
	var g errgroup.Group
	g.SetLimit(s.limit)
	for i, host := range hosts {
		i, host := i, host
		g.Go(func() error {
			results[i] = s.pollHost(ctx, host)
			return nil
		})
	}
	_ = g.Wait()
	report.Results = results

	s.logger.Info("polling cycle completed",
		"hosts", report.Hosts(),
		"succeeded", report.Succeeded(),
		"failed", report.Failed(),
		"took", s.clock.Since(report.StartedAt),
	)
	return report
}

// pollHost never returns an error to the group: one host failing must not
// cancel or delay the others.
func (s *Scheduler) pollHost(ctx context.Context, host model.HostTarget) PollResult {
	if !host.OSFamily.Known() {
		host.OSFamily = s.detectedFamily(host.Address)
	}
	res := PollResult{Address: host.Address, OSFamily: host.OSFamily}

	started := s.clock.Now()
	snap, err := s.poller.Poll(ctx, host)
	if err == nil {
		res.OSFamily = snap.OSFamily
		s.rememberFamily(host.Address, snap.OSFamily)
	}
	telemetry.ObservePoll(res.OSFamily.String(), s.clock.Since(started), err)
	if err != nil {
		s.logger.Warn("poll failed", "address", host.Address, "error", err)
		res.Err = err
		return res
	}

	err = s.store.UpsertSnapshot(ctx, host.Address, snap)
	telemetry.ObserveStoreWrite(err)
	if err != nil {
		s.logger.Error("store snapshot failed", "address", host.Address, "error", err)
		res.Err = fmt.Errorf("upsert snapshot: %w", err)
		return res
	}

	res.Snapshot = &snap
	s.logger.Debug("host updated", "address", host.Address, "os_family", snap.OSFamily, "status", snap.Status)
	return res
}

func (s *Scheduler) detectedFamily(address string) model.OSFamily {
	s.familyMu.Lock()
	defer s.familyMu.Unlock()
	return s.families[address]
}

func (s *Scheduler) rememberFamily(address string, family model.OSFamily) {
	if !family.Known() {
		return
	}
	s.familyMu.Lock()
	defer s.familyMu.Unlock()
	s.families[address] = family
}
