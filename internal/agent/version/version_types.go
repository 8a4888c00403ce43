package version

type GetVersionRequest struct {
	AgentID string `json:"agent_id"`
}

type GetVersionResponse struct {
	AgentID         string `json:"agent_id"`
	AgentVersion    string `json:"agent_version"`
	RegistryMode    string `json:"registry_mode"`
	StoreMode       string `json:"store_mode"`
	PollInterval    string `json:"poll_interval"`
	ProbeListenAddr string `json:"probe_listen_addr"`
	CheckedAtUnix   int64  `json:"checked_at_unix"`
}
