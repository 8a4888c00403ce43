package agent

import (
	"context"
	"sync/atomic"
	"time"

	"snmp-health-agent/internal/collector"
	"snmp-health-agent/internal/model"
	"snmp-health-agent/internal/store"
)

type HealthStatus struct {
	storeConnected   atomic.Bool
	schedulerRunning atomic.Bool
	lastCycleAt      atomic.Int64
	lastCycleHosts   atomic.Int64
	lastCycleFailed  atomic.Int64
	lastCycleOutcome atomic.Value
	lastWriteAt      atomic.Int64
}

func NewHealthStatus() *HealthStatus {
	h := &HealthStatus{}
	h.storeConnected.Store(false)
	h.schedulerRunning.Store(false)
	h.lastCycleOutcome.Store("")
	return h
}

func (h *HealthStatus) SetStoreConnected(ok bool) {
	h.storeConnected.Store(ok)
}

func (h *HealthStatus) SetSchedulerRunning(ok bool) {
	h.schedulerRunning.Store(ok)
}

func (h *HealthStatus) MarkWrite(ts time.Time) {
	h.lastWriteAt.Store(ts.UnixNano())
}

func (h *HealthStatus) RecordCycle(r collector.CycleReport) {
	h.lastCycleAt.Store(r.StartedAt.UnixNano())
	h.lastCycleHosts.Store(int64(r.Hosts()))
	h.lastCycleFailed.Store(int64(r.Failed()))
	h.lastCycleOutcome.Store(r.Outcome())
}

func (h *HealthStatus) Snapshot() map[string]any {
	out := map[string]any{
		"store_connected":   h.storeConnected.Load(),
		"scheduler_running": h.schedulerRunning.Load(),
	}
	if v := h.lastCycleAt.Load(); v > 0 {
		out["last_cycle_at"] = time.Unix(0, v).UTC()
		out["last_cycle_hosts"] = h.lastCycleHosts.Load()
		out["last_cycle_failed"] = h.lastCycleFailed.Load()
		out["last_cycle_outcome"] = h.lastCycleOutcome.Load()
	}
	if v := h.lastWriteAt.Load(); v > 0 {
		out["last_write_at"] = time.Unix(0, v).UTC()
	}
	return out
}

// healthStore tracks store connectivity from the outcome of every write.
type healthStore struct {
	store  store.SnapshotStore
	health *HealthStatus
}

func (s *healthStore) UpsertSnapshot(ctx context.Context, address string, snap model.MetricSnapshot) error {
	err := s.store.UpsertSnapshot(ctx, address, snap)
	if err != nil {
		s.health.SetStoreConnected(false)
		return err
	}
	s.health.SetStoreConnected(true)
	s.health.MarkWrite(time.Now())
	return nil
}

func (s *healthStore) Close(ctx context.Context) error {
	return s.store.Close(ctx)
}
