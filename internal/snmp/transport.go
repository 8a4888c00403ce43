// Package snmp performs SNMP v2c GET exchanges against one host at a time.
package snmp

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/gosnmp/gosnmp"

	"snmp-health-agent/internal/model"
)

// Session parameters are fixed for every host.
const (
	DefaultPort    uint16 = 161
	DefaultTimeout        = 5 * time.Second
	DefaultRetries        = 1
)

// Session is an open SNMP session to one host. Close must be called exactly
// once, on every path, after a successful Open.
type Session interface {
	Get(oid string) (any, error)
	GetMany(oids []string) (model.RawReading, error)
	Close() error
}

// Params is what a client needs to reach an agent.
type Params struct {
	Target    string
	Port      uint16
	Community string
	Timeout   time.Duration
	Retries   int
	Logger    gosnmp.Logger
}

type client interface {
	Connect() error
	Get(oids []string) (*gosnmp.SnmpPacket, error)
	Close() error
}

type goSNMPClient struct {
	*gosnmp.GoSNMP
}

func newGoSNMPClient(p Params) client {
	return &goSNMPClient{GoSNMP: &gosnmp.GoSNMP{
		Target:    p.Target,
		Port:      p.Port,
		Transport: "udp",
		Community: p.Community,
		Version:   gosnmp.Version2c,
		Timeout:   p.Timeout,
		Retries:   p.Retries,
		MaxOids:   gosnmp.MaxOids,
		Logger:    p.Logger,
	}}
}

// Connect binds a UDP4 socket; no packet is sent until the first request.
func (c *goSNMPClient) Connect() error {
	return c.GoSNMP.ConnectIPv4()
}

func (c *goSNMPClient) Close() error {
	if c.Conn == nil {
		return nil
	}
	return c.Conn.Close()
}

// Transport opens sessions with the fixed v2c parameters.
type Transport struct {
	logger    *slog.Logger
	port      uint16
	timeout   time.Duration
	retries   int
	newClient func(Params) client
}

func NewTransport(logger *slog.Logger) *Transport {
	if logger == nil {
		logger = slog.Default()
	}
	return &Transport{
		logger:    logger,
		port:      DefaultPort,
		timeout:   DefaultTimeout,
		retries:   DefaultRetries,
		newClient: newGoSNMPClient,
	}
}

// Open prepares a session to address authorized by community. Resolution and
// socket errors are reported as ErrTransport.
func (t *Transport) Open(address, community string) (Session, error) {
	address = strings.TrimSpace(address)
	if address == "" {
		return nil, &RequestError{Kind: ErrTransport, Target: address, Err: fmt.Errorf("empty address")}
	}
	c := t.newClient(Params{
		Target:    address,
		Port:      t.port,
		Community: community,
		Timeout:   t.timeout,
		Retries:   t.retries,
		Logger:    NewLogger(t.logger),
	})
	if err := c.Connect(); err != nil {
		return nil, &RequestError{Kind: ErrTransport, Target: address, Err: err}
	}
	return &session{client: c, target: address, logger: t.logger}, nil
}
