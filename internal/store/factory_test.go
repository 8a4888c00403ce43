package store

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"snmp-health-agent/internal/config"
)

func TestNewFromConfigWithoutMongo(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	path := writeHostFile(t, "hosts:\n  - address: 10.0.0.5\n")

	cfg := config.Config{
		RegistryMode:     config.RegistryModeFile,
		RegistryFile:     path,
		StoreMode:        config.StoreModeMemory,
		DefaultCommunity: "public",
	}
	b, err := NewFromConfig(context.Background(), cfg, nil, logger)
	require.NoError(t, err)
	assert.IsType(t, &FileRegistry{}, b.Registry)
	assert.IsType(t, &Memory{}, b.Store)
	assert.NoError(t, b.Close(context.Background()))

	cfg.StoreMode = config.StoreModeGRPC
	cfg.BackendGRPCAddr = "127.0.0.1:3001"
	cfg.GRPCUpsertMethod = "/snmphealth.v1.HealthStore/UpsertSnapshot"
	b, err = NewFromConfig(context.Background(), cfg, nil, logger)
	require.NoError(t, err)
	assert.IsType(t, &GRPCClient{}, b.Store)
	assert.NoError(t, b.Close(context.Background()))

	cfg.StoreMode = "redis"
	_, err = NewFromConfig(context.Background(), cfg, nil, logger)
	assert.Error(t, err)
}
