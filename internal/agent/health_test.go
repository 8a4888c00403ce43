package agent

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"snmp-health-agent/internal/collector"
	"snmp-health-agent/internal/model"
	"snmp-health-agent/internal/store"
)

type failingStore struct {
	store.SnapshotStore
	err error
}

func (f failingStore) UpsertSnapshot(context.Context, string, model.MetricSnapshot) error {
	return f.err
}

func TestHealthStoreTracksWrites(t *testing.T) {
	h := NewHealthStatus()
	ok := &healthStore{store: store.NewMemory(), health: h}

	assert.NoError(t, ok.UpsertSnapshot(context.Background(), "10.0.0.1", model.MetricSnapshot{}))
	snap := h.Snapshot()
	assert.Equal(t, true, snap["store_connected"])
	assert.Contains(t, snap, "last_write_at")

	bad := &healthStore{store: failingStore{err: errors.New("server selection timeout")}, health: h}
	assert.Error(t, bad.UpsertSnapshot(context.Background(), "10.0.0.1", model.MetricSnapshot{}))
	assert.Equal(t, false, h.Snapshot()["store_connected"])
}

func TestHealthRecordCycle(t *testing.T) {
	h := NewHealthStatus()
	assert.NotContains(t, h.Snapshot(), "last_cycle_at")

	snap := model.MetricSnapshot{}
	h.RecordCycle(collector.CycleReport{
		StartedAt: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		Results: []collector.PollResult{
			{Address: "10.0.0.1", Snapshot: &snap},
			{Address: "10.0.0.2", Err: errors.New("timeout")},
		},
	})
	out := h.Snapshot()
	assert.Equal(t, int64(2), out["last_cycle_hosts"])
	assert.Equal(t, int64(1), out["last_cycle_failed"])
	assert.Equal(t, "partial", out["last_cycle_outcome"])
}
