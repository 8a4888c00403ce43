package store

import (
	"encoding/json"

	"snmp-health-agent/internal/model"
)

// SnapshotFrame is the wire body of one upsert for the gRPC and websocket
// backends.
type SnapshotFrame struct {
	Address        string               `json:"address"`
	OSFamily       string               `json:"os_family"`
	ObservedAtUnix int64                `json:"observed_at_unix"`
	Snapshot       model.MetricSnapshot `json:"snapshot"`
}

// UpsertAck is what the gRPC backend answers.
type UpsertAck struct {
	Accepted bool   `json:"accepted"`
	Message  string `json:"message,omitempty"`
}

func NewSnapshotFrame(address string, snap model.MetricSnapshot) SnapshotFrame {
	return SnapshotFrame{
		Address:        address,
		OSFamily:       string(snap.OSFamily),
		ObservedAtUnix: snap.ObservedAt.UTC().Unix(),
		Snapshot:       snap,
	}
}

func NewSnapshotEnvelope(address string, snap model.MetricSnapshot) model.Envelope {
	return model.Envelope{
		Type:      model.PayloadTypeHealthSnapshot,
		Address:   address,
		Timestamp: snap.ObservedAt.UTC(),
		Payload:   NewSnapshotFrame(address, snap),
	}
}

func EncodeEnvelope(e model.Envelope) ([]byte, error) {
	return json.Marshal(e)
}
