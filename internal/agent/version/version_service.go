package version

import (
	"time"

	"snmp-health-agent/internal/config"
)

func Get(cfg config.Config, _ *GetVersionRequest) *GetVersionResponse {
	return &GetVersionResponse{
		AgentID:         cfg.AgentID,
		AgentVersion:    cfg.AgentVersion,
		RegistryMode:    string(cfg.RegistryMode),
		StoreMode:       string(cfg.StoreMode),
		PollInterval:    cfg.PollInterval.String(),
		ProbeListenAddr: cfg.ProbeListenAddr,
		CheckedAtUnix:   time.Now().UTC().Unix(),
	}
}
