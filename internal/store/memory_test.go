package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"snmp-health-agent/internal/model"
)

func TestMemoryUpsertReplaces(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	first := model.MetricSnapshot{CPUUtilizationPct: 10, ObservedAt: time.Unix(100, 0)}
	second := model.MetricSnapshot{CPUUtilizationPct: 90, ObservedAt: time.Unix(130, 0)}

	require.NoError(t, m.UpsertSnapshot(ctx, "10.0.0.2", first))
	require.NoError(t, m.UpsertSnapshot(ctx, "10.0.0.1", first))
	require.NoError(t, m.UpsertSnapshot(ctx, "10.0.0.2", second))

	got, ok := m.Get("10.0.0.2")
	require.True(t, ok)
	assert.Equal(t, second, got)
	assert.Equal(t, []string{"10.0.0.1", "10.0.0.2"}, m.Addresses())

	_, ok = m.Get("10.0.0.3")
	assert.False(t, ok)
	assert.NoError(t, m.Close(ctx))
}
