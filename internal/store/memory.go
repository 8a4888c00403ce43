package store

import (
	"context"
	"sort"
	"sync"

	"snmp-health-agent/internal/model"
)

// Memory keeps the latest snapshot per address in process. It backs dry runs
// and the one-shot CLI commands.
type Memory struct {
	mu        sync.RWMutex
	snapshots map[string]model.MetricSnapshot
}

func NewMemory() *Memory {
	return &Memory{snapshots: make(map[string]model.MetricSnapshot)}
}

func (m *Memory) UpsertSnapshot(_ context.Context, address string, snap model.MetricSnapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snapshots[address] = snap
	return nil
}

func (m *Memory) Get(address string) (model.MetricSnapshot, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	snap, ok := m.snapshots[address]
	return snap, ok
}

// Addresses returns the stored addresses in sorted order.
func (m *Memory) Addresses() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]string, 0, len(m.snapshots))
	for addr := range m.snapshots {
		out = append(out, addr)
	}
	sort.Strings(out)
	return out
}

func (m *Memory) Close(context.Context) error {
	return nil
}
