package model

import "time"

type PayloadType string

const (
	PayloadTypeHealthSnapshot PayloadType = "health_snapshot"
)

// Envelope is transport-agnostic framing for store payloads.
type Envelope struct {
	Type      PayloadType `json:"type"`
	Address   string      `json:"address"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   any         `json:"payload"`
}
