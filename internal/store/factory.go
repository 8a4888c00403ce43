package store

import (
	"context"
	"crypto/tls"
	"fmt"
	"log/slog"

	"github.com/hashicorp/go-multierror"

	"snmp-health-agent/internal/config"
)

// Backends is the registry and snapshot store selected by configuration.
type Backends struct {
	Registry Registry
	Store    SnapshotStore

	closers []func(context.Context) error
	pingers []func(context.Context) error
}

// Ping checks the backends that hold a connection to a database. It returns
// nil when none do.
func (b *Backends) Ping(ctx context.Context) error {
	for _, ping := range b.pingers {
		if err := ping(ctx); err != nil {
			return err
		}
	}
	return nil
}

// Close releases every backend once, even when the registry and the store
// share a Mongo client.
func (b *Backends) Close(ctx context.Context) error {
	var merr *multierror.Error
	for i := len(b.closers) - 1; i >= 0; i-- {
		if err := b.closers[i](ctx); err != nil {
			merr = multierror.Append(merr, err)
		}
	}
	b.closers = nil
	return merr.ErrorOrNil()
}

func NewFromConfig(ctx context.Context, cfg config.Config, tlsCfg *tls.Config, logger *slog.Logger) (*Backends, error) {
	b := &Backends{}

	var mongoBackend *Mongo
	if cfg.UsesMongo() {
		client, err := ConnectMongo(ctx, cfg.MongoURI, cfg.MongoConnectRetries, logger)
		if err != nil {
			return nil, err
		}
		mongoBackend = NewMongo(client, cfg.MongoDatabase, cfg.MongoCollection, cfg.DefaultCommunity, cfg.StoreWriteTimeout, logger)
		b.closers = append(b.closers, mongoBackend.Close)
		b.pingers = append(b.pingers, mongoBackend.Ping)
	}

	switch cfg.RegistryMode {
	case config.RegistryModeMongo:
		b.Registry = mongoBackend
	case config.RegistryModeFile:
		b.Registry = NewFileRegistry(cfg.RegistryFile, cfg.DefaultCommunity)
	default:
		_ = b.Close(ctx)
		return nil, fmt.Errorf("unsupported registry mode %q", cfg.RegistryMode)
	}

	switch cfg.StoreMode {
	case config.StoreModeMongo:
		b.Store = mongoBackend
	case config.StoreModeGRPC:
		c := NewGRPCClient(cfg.BackendGRPCAddr, tlsCfg, cfg.BackendToken, cfg.GRPCUpsertMethod, cfg.StoreWriteTimeout, logger)
		b.Store = c
		b.closers = append(b.closers, c.Close)
	case config.StoreModeWebSocket:
		c := NewWebSocketClient(cfg.BackendWSURL, cfg.BackendToken, tlsCfg, cfg.WebSocketWriteTimeout, cfg.WebSocketPingInterval, logger)
		b.Store = c
		b.closers = append(b.closers, c.Close)
	case config.StoreModeMemory:
		b.Store = NewMemory()
	default:
		_ = b.Close(ctx)
		return nil, fmt.Errorf("unsupported store mode %q", cfg.StoreMode)
	}

	logger.Info("backends ready", "registry", cfg.RegistryMode, "store", cfg.StoreMode)
	return b, nil
}
