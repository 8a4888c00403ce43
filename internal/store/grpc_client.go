package store

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/encoding"
	"google.golang.org/grpc/metadata"

	"snmp-health-agent/internal/model"
)

type jsonCodec struct{}

func (jsonCodec) Name() string {
	return "json"
}

func (jsonCodec) Marshal(v any) ([]byte, error) {
	return json.Marshal(v)
}

func (jsonCodec) Unmarshal(data []byte, v any) error {
	return json.Unmarshal(data, v)
}

func init() {
	encoding.RegisterCodec(jsonCodec{})
}

// GRPCClient upserts snapshots with a unary call on a backend that speaks the
// JSON codec.
type GRPCClient struct {
	mu sync.Mutex

	logger       *slog.Logger
	addr         string
	tlsConfig    *tls.Config
	token        string
	method       string
	callTimeout  time.Duration
	conn         *grpc.ClientConn
	extraDialOpt []grpc.DialOption
}

func NewGRPCClient(addr string, tlsCfg *tls.Config, token, method string, callTimeout time.Duration, logger *slog.Logger) *GRPCClient {
	if callTimeout <= 0 {
		callTimeout = 5 * time.Second
	}
	return &GRPCClient{
		logger:      logger,
		addr:        addr,
		tlsConfig:   tlsCfg,
		token:       token,
		method:      method,
		callTimeout: callTimeout,
	}
}

func (c *GRPCClient) UpsertSnapshot(ctx context.Context, address string, snap model.MetricSnapshot) error {
	conn, err := c.ensureConn()
	if err != nil {
		return err
	}

	callCtx, cancel := context.WithTimeout(c.decorateContext(ctx), c.callTimeout)
	defer cancel()

	frame := NewSnapshotFrame(address, snap)
	var ack UpsertAck
	if err := conn.Invoke(callCtx, c.method, &frame, &ack); err != nil {
		return fmt.Errorf("grpc upsert %s: %w", address, err)
	}
	if !ack.Accepted {
		msg := ack.Message
		if msg == "" {
			msg = "rejected"
		}
		return fmt.Errorf("grpc upsert %s: %w", address, errors.New(msg))
	}
	return nil
}

func (c *GRPCClient) Close(_ context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil {
		return nil
	}
	err := c.conn.Close()
	c.conn = nil
	return err
}

func (c *GRPCClient) ensureConn() (*grpc.ClientConn, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn != nil {
		return c.conn, nil
	}

	var creds credentials.TransportCredentials
	if c.tlsConfig != nil {
		creds = credentials.NewTLS(c.tlsConfig)
	} else {
		creds = insecure.NewCredentials()
	}

	opts := []grpc.DialOption{
		grpc.WithTransportCredentials(creds),
		grpc.WithDefaultCallOptions(grpc.ForceCodec(jsonCodec{}), grpc.CallContentSubtype("json")),
	}
	opts = append(opts, c.extraDialOpt...)
	conn, err := grpc.NewClient(c.addr, opts...)
	if err != nil {
		return nil, fmt.Errorf("grpc client %s: %w", c.addr, err)
	}
	c.conn = conn
	c.logger.Info("grpc health store ready", "addr", c.addr, "method", c.method)
	return conn, nil
}

func (c *GRPCClient) decorateContext(ctx context.Context) context.Context {
	if c.token == "" {
		return ctx
	}
	return metadata.AppendToOutgoingContext(ctx, "authorization", "Bearer "+c.token)
}
