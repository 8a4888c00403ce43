package model

// HostTarget is one registered host. Address is its identity.
type HostTarget struct {
	Address   string   `json:"address" yaml:"address"`
	Community string   `json:"-" yaml:"community"`
	OSFamily  OSFamily `json:"os_family,omitempty" yaml:"os"`
}

// RawReading maps dotted OIDs (no leading dot) to the scalar an agent returned
// for them: int64, uint64 or string. OIDs the agent flagged are absent.
type RawReading map[string]any
