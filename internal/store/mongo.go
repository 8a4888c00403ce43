package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"snmp-health-agent/internal/model"
)

// ConnectMongo connects and pings the server, retrying with exponential
// backoff up to retries extra attempts.
func ConnectMongo(ctx context.Context, uri string, retries int, logger *slog.Logger) (*mongo.Client, error) {
	if retries < 0 {
		retries = 0
	}
	var client *mongo.Client
	attempt := 0
	op := func() error {
		attempt++
		c, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
		if err != nil {
			return fmt.Errorf("connect: %w", err)
		}
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := c.Ping(pingCtx, readpref.Primary()); err != nil {
			_ = c.Disconnect(context.Background())
			logger.Warn("mongo ping failed", "attempt", attempt, "error", err)
			return fmt.Errorf("ping: %w", err)
		}
		client = c
		return nil
	}

	b := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), uint64(retries)), ctx)
	if err := backoff.Retry(op, b); err != nil {
		return nil, fmt.Errorf("mongo %s: %w", redactURI(uri), err)
	}
	logger.Info("mongo connected", "uri", redactURI(uri), "attempts", attempt)
	return client, nil
}

// Mongo is both the host registry and the snapshot store, backed by the
// serverhealths collection.
type Mongo struct {
	client           *mongo.Client
	coll             *mongo.Collection
	defaultCommunity string
	writeTimeout     time.Duration
	now              func() time.Time
	logger           *slog.Logger
}

func NewMongo(client *mongo.Client, database, collection, defaultCommunity string, writeTimeout time.Duration, logger *slog.Logger) *Mongo {
	if writeTimeout <= 0 {
		writeTimeout = 5 * time.Second
	}
	return &Mongo{
		client:           client,
		coll:             client.Database(database).Collection(collection),
		defaultCommunity: defaultCommunity,
		writeTimeout:     writeTimeout,
		now:              time.Now,
		logger:           logger,
	}
}

func (m *Mongo) ListHosts(ctx context.Context) ([]model.HostTarget, error) {
	cur, err := m.coll.Find(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("find hosts: %w", err)
	}
	var docs []serverHealthDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode hosts: %w", err)
	}
	hosts := make([]model.HostTarget, 0, len(docs))
	for _, doc := range docs {
		h := hostFromDoc(doc, m.defaultCommunity)
		if h.Address == "" {
			m.logger.Warn("skipping host document without serverIp")
			continue
		}
		hosts = append(hosts, h)
	}
	return hosts, nil
}

func (m *Mongo) Lookup(ctx context.Context, address string) (model.HostTarget, error) {
	var doc serverHealthDoc
	err := m.coll.FindOne(ctx, addressFilter(address)).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return model.HostTarget{}, fmt.Errorf("%s: %w", address, ErrHostNotFound)
	}
	if err != nil {
		return model.HostTarget{}, fmt.Errorf("find host %s: %w", address, err)
	}
	return hostFromDoc(doc, m.defaultCommunity), nil
}

func (m *Mongo) UpsertSnapshot(ctx context.Context, address string, snap model.MetricSnapshot) error {
	wctx, cancel := context.WithTimeout(ctx, m.writeTimeout)
	defer cancel()
	_, err := m.coll.UpdateOne(wctx, addressFilter(address), snapshotUpdate(snap, m.now()), options.Update().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("upsert %s: %w", address, err)
	}
	return nil
}

func (m *Mongo) Ping(ctx context.Context) error {
	return m.client.Ping(ctx, readpref.Primary())
}

func (m *Mongo) Close(ctx context.Context) error {
	return m.client.Disconnect(ctx)
}

func redactURI(uri string) string {
	scheme, rest, ok := strings.Cut(uri, "://")
	if !ok {
		return uri
	}
	at := strings.LastIndex(rest, "@")
	if at < 0 {
		return uri
	}
	return scheme + "://***@" + rest[at+1:]
}
