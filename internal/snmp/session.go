package snmp

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/gosnmp/gosnmp"

	"snmp-health-agent/internal/model"
)

type session struct {
	client client
	target string
	logger *slog.Logger

	closeOnce sync.Once
	closeErr  error
}

func (s *session) Get(oid string) (any, error) {
	oid = normalizeOID(oid)
	packet, err := s.client.Get([]string{oid})
	if err != nil {
		return nil, &RequestError{Kind: classify(err), Target: s.target, OID: oid, Err: err}
	}
	s.logPacket(packet)
	if packet.Error != gosnmp.NoError {
		return nil, &RequestError{Kind: ErrExchange, Target: s.target, OID: oid, Err: fmt.Errorf("error status %s (index %d)", packet.Error, packet.ErrorIndex)}
	}
	if len(packet.Variables) == 0 {
		return nil, &RequestError{Kind: ErrExchange, Target: s.target, OID: oid, Err: fmt.Errorf("empty response")}
	}
	pdu := packet.Variables[0]
	v, ok := decodeValue(pdu)
	if !ok {
		return nil, &RequestError{Kind: ErrExchange, Target: s.target, OID: oid, Err: fmt.Errorf("varbind type %s", pdu.Type)}
	}
	return v, nil
}

// GetMany requests every OID in one round trip. Varbinds the agent flagged
// are left out of the result.
func (s *session) GetMany(oids []string) (model.RawReading, error) {
	requested := make([]string, len(oids))
	for i, oid := range oids {
		requested[i] = normalizeOID(oid)
	}
	packet, err := s.client.Get(requested)
	if err != nil {
		return nil, &RequestError{Kind: classify(err), Target: s.target, Err: err}
	}
	s.logPacket(packet)

	failedIndex := -1
	if packet.Error != gosnmp.NoError && packet.ErrorIndex > 0 {
		failedIndex = int(packet.ErrorIndex) - 1
	}

	out := make(model.RawReading, len(packet.Variables))
	for i, pdu := range packet.Variables {
		if i == failedIndex {
			continue
		}
		name := normalizeOID(pdu.Name)
		if name == "" && i < len(requested) {
			name = requested[i]
		}
		v, ok := decodeValue(pdu)
		if !ok {
			continue
		}
		out[name] = v
	}
	return out, nil
}

func (s *session) Close() error {
	s.closeOnce.Do(func() {
		s.closeErr = s.client.Close()
	})
	return s.closeErr
}

func (s *session) logPacket(packet *gosnmp.SnmpPacket) {
	if packet == nil || !s.logger.Enabled(context.Background(), slog.LevelDebug) {
		return
	}
	vars := make([]string, 0, len(packet.Variables))
	for _, pdu := range packet.Variables {
		vars = append(vars, fmt.Sprintf("%s=%v(%s)", normalizeOID(pdu.Name), pdu.Value, pdu.Type))
	}
	s.logger.Debug("snmp response", "target", s.target, "error_status", packet.Error.String(), "error_index", packet.ErrorIndex, "variables", vars)
}

// decodeValue converts a varbind into the scalar stored in a RawReading.
// Exception types and NULL report ok=false.
func decodeValue(pdu gosnmp.SnmpPDU) (any, bool) {
	switch pdu.Type {
	case gosnmp.NoSuchObject, gosnmp.NoSuchInstance, gosnmp.EndOfMibView, gosnmp.Null:
		return nil, false
	case gosnmp.OctetString:
		switch v := pdu.Value.(type) {
		case []byte:
			return string(v), true
		case string:
			return v, true
		default:
			return fmt.Sprint(v), true
		}
	case gosnmp.ObjectIdentifier, gosnmp.IPAddress:
		return fmt.Sprint(pdu.Value), true
	case gosnmp.Counter64:
		return gosnmp.ToBigInt(pdu.Value).Uint64(), true
	case gosnmp.Integer, gosnmp.Counter32, gosnmp.Gauge32, gosnmp.TimeTicks, gosnmp.Uinteger32:
		return gosnmp.ToBigInt(pdu.Value).Int64(), true
	default:
		if pdu.Value == nil {
			return nil, false
		}
		return pdu.Value, true
	}
}

func normalizeOID(oid string) string {
	return strings.TrimPrefix(strings.TrimSpace(oid), ".")
}
