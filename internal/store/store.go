// Package store holds the host registries and snapshot stores the scheduler
// reads from and writes to.
package store

import (
	"context"
	"errors"

	"snmp-health-agent/internal/model"
)

// ErrHostNotFound is returned by Lookup for an address the registry does not
// know.
var ErrHostNotFound = errors.New("host not registered")

type Registry interface {
	ListHosts(ctx context.Context) ([]model.HostTarget, error)
	Lookup(ctx context.Context, address string) (model.HostTarget, error)
}

type SnapshotStore interface {
	UpsertSnapshot(ctx context.Context, address string, snap model.MetricSnapshot) error
	Close(ctx context.Context) error
}
