package config

import (
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type RegistryMode string

const (
	RegistryModeMongo RegistryMode = "mongo"
	RegistryModeFile  RegistryMode = "file"
)

type StoreMode string

const (
	StoreModeMongo     StoreMode = "mongo"
	StoreModeGRPC      StoreMode = "grpc"
	StoreModeWebSocket StoreMode = "websocket"
	StoreModeMemory    StoreMode = "memory"
	HardcodedVersion   string    = "V0.3"
)

type Config struct {
	AgentID               string
	ProbeListenAddr       string
	AdminListenAddr       string
	AdminJWTSecret        string
	PollInterval          time.Duration
	CycleTimeout          time.Duration
	MaxConcurrentPolls    int
	OverlapPolicy         string
	DefaultCommunity      string
	HealthInterval        time.Duration
	ShutdownTimeout       time.Duration
	RegistryMode          RegistryMode
	RegistryFile          string
	StoreMode             StoreMode
	MongoURI              string
	MongoDatabase         string
	MongoCollection       string
	MongoConnectRetries   int
	StoreWriteTimeout     time.Duration
	BackendGRPCAddr       string
	GRPCUpsertMethod      string
	BackendWSURL          string
	BackendToken          string
	AgentVersion          string
	TLSEnabled            bool
	TLSSkipVerify         bool
	TLSCAPath             string
	TLSCertPath           string
	TLSKeyPath            string
	LogJSON               bool
	LogLevel              string
	WebSocketWriteTimeout time.Duration
	WebSocketPingInterval time.Duration
}

func Load() (Config, error) {
	hostname, err := os.Hostname()
	if err != nil {
		hostname = "unknown-host"
	}

	pollInterval := envDuration("SNMPHEALTH_POLL_INTERVAL", 30*time.Second)
	cfg := Config{
		AgentID:               env("SNMPHEALTH_AGENT_ID", hostname),
		ProbeListenAddr:       env("SNMPHEALTH_PROBE_ADDR", "0.0.0.0:7443"),
		AdminListenAddr:       envAllowEmpty("SNMPHEALTH_ADMIN_ADDR", "127.0.0.1:8089"),
		AdminJWTSecret:        env("SNMPHEALTH_ADMIN_JWT_SECRET", ""),
		PollInterval:          pollInterval,
		CycleTimeout:          envDuration("SNMPHEALTH_CYCLE_TIMEOUT", pollInterval),
		MaxConcurrentPolls:    envInt("SNMPHEALTH_MAX_CONCURRENT_POLLS", 64),
		OverlapPolicy:         strings.ToLower(env("SNMPHEALTH_OVERLAP_POLICY", "skip")),
		DefaultCommunity:      env("SNMPHEALTH_DEFAULT_COMMUNITY", "public"),
		HealthInterval:        envDuration("SNMPHEALTH_HEALTH_INTERVAL", 10*time.Second),
		ShutdownTimeout:       envDuration("SNMPHEALTH_SHUTDOWN_TIMEOUT", 20*time.Second),
		RegistryMode:          RegistryMode(strings.ToLower(env("SNMPHEALTH_REGISTRY_MODE", string(RegistryModeMongo)))),
		RegistryFile:          env("SNMPHEALTH_REGISTRY_FILE", "hosts.yaml"),
		StoreMode:             StoreMode(strings.ToLower(env("SNMPHEALTH_STORE_MODE", string(StoreModeMongo)))),
		MongoURI:              env("SNMPHEALTH_MONGO_URI", "mongodb://localhost:27017"),
		MongoDatabase:         env("SNMPHEALTH_MONGO_DATABASE", "myslt_dashboard"),
		MongoCollection:       env("SNMPHEALTH_MONGO_COLLECTION", "serverhealths"),
		MongoConnectRetries:   envInt("SNMPHEALTH_MONGO_CONNECT_RETRIES", 5),
		StoreWriteTimeout:     envDuration("SNMPHEALTH_STORE_WRITE_TIMEOUT", 5*time.Second),
		BackendGRPCAddr:       env("SNMPHEALTH_BACKEND_GRPC_ADDR", "127.0.0.1:3001"),
		GRPCUpsertMethod:      env("SNMPHEALTH_GRPC_UPSERT_METHOD", "/snmphealth.v1.HealthStore/UpsertSnapshot"),
		BackendWSURL:          env("SNMPHEALTH_BACKEND_WS_URL", "ws://127.0.0.1:3001/ws/health"),
		BackendToken:          env("SNMPHEALTH_BACKEND_TOKEN", ""),
		AgentVersion:          HardcodedVersion,
		TLSEnabled:            envBool("SNMPHEALTH_TLS_ENABLED", false),
		TLSSkipVerify:         envBool("SNMPHEALTH_TLS_SKIP_VERIFY", false),
		TLSCAPath:             env("SNMPHEALTH_TLS_CA_PATH", ""),
		TLSCertPath:           env("SNMPHEALTH_TLS_CERT_PATH", ""),
		TLSKeyPath:            env("SNMPHEALTH_TLS_KEY_PATH", ""),
		LogJSON:               envBool("SNMPHEALTH_LOG_JSON", false),
		LogLevel:              strings.ToLower(env("SNMPHEALTH_LOG_LEVEL", "info")),
		WebSocketWriteTimeout: envDuration("SNMPHEALTH_WS_WRITE_TIMEOUT", 5*time.Second),
		WebSocketPingInterval: envDuration("SNMPHEALTH_WS_PING_INTERVAL", 10*time.Second),
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.AgentID) == "" {
		return errors.New("SNMPHEALTH_AGENT_ID is required")
	}
	if strings.TrimSpace(c.AgentVersion) == "" {
		return errors.New("agent version must not be empty")
	}
	if strings.TrimSpace(c.ProbeListenAddr) == "" {
		return errors.New("SNMPHEALTH_PROBE_ADDR is required")
	}
	if c.PollInterval <= 0 {
		return errors.New("SNMPHEALTH_POLL_INTERVAL must be > 0")
	}
	if c.CycleTimeout <= 0 {
		return errors.New("SNMPHEALTH_CYCLE_TIMEOUT must be > 0")
	}
	if c.MaxConcurrentPolls <= 0 {
		return errors.New("SNMPHEALTH_MAX_CONCURRENT_POLLS must be > 0")
	}
	switch c.OverlapPolicy {
	case "skip", "allow":
	default:
		return fmt.Errorf("unsupported overlap policy %q", c.OverlapPolicy)
	}
	if c.HealthInterval <= 0 {
		return errors.New("SNMPHEALTH_HEALTH_INTERVAL must be > 0")
	}
	if c.ShutdownTimeout <= 0 {
		return errors.New("SNMPHEALTH_SHUTDOWN_TIMEOUT must be > 0")
	}
	if c.StoreWriteTimeout <= 0 {
		return errors.New("SNMPHEALTH_STORE_WRITE_TIMEOUT must be > 0")
	}

	switch c.RegistryMode {
	case RegistryModeMongo:
	case RegistryModeFile:
		if strings.TrimSpace(c.RegistryFile) == "" {
			return errors.New("SNMPHEALTH_REGISTRY_FILE is required for file registry")
		}
	default:
		return fmt.Errorf("unsupported registry mode %q", c.RegistryMode)
	}

	switch c.StoreMode {
	case StoreModeMongo, StoreModeMemory:
	case StoreModeGRPC:
		if c.BackendGRPCAddr == "" {
			return errors.New("SNMPHEALTH_BACKEND_GRPC_ADDR is required for grpc mode")
		}
		if strings.TrimSpace(c.GRPCUpsertMethod) == "" {
			return errors.New("SNMPHEALTH_GRPC_UPSERT_METHOD is required for grpc mode")
		}
	case StoreModeWebSocket:
		if c.BackendWSURL == "" {
			return errors.New("SNMPHEALTH_BACKEND_WS_URL is required for websocket mode")
		}
	default:
		return fmt.Errorf("unsupported store mode %q", c.StoreMode)
	}

	if c.UsesMongo() {
		if strings.TrimSpace(c.MongoURI) == "" {
			return errors.New("SNMPHEALTH_MONGO_URI is required for mongo mode")
		}
		if c.MongoDatabase == "" || c.MongoCollection == "" {
			return errors.New("SNMPHEALTH_MONGO_DATABASE and SNMPHEALTH_MONGO_COLLECTION are required for mongo mode")
		}
	}
	return nil
}

// UsesMongo reports whether the registry or the store is backed by MongoDB.
func (c Config) UsesMongo() bool {
	return c.RegistryMode == RegistryModeMongo || c.StoreMode == StoreModeMongo
}

func (c Config) TLSConfig() (*tls.Config, error) {
	if !c.TLSEnabled {
		return nil, nil
	}
	tlsCfg := &tls.Config{MinVersion: tls.VersionTLS12, InsecureSkipVerify: c.TLSSkipVerify}
	if c.TLSCAPath != "" {
		caBytes, err := os.ReadFile(c.TLSCAPath)
		if err != nil {
			return nil, fmt.Errorf("read CA file: %w", err)
		}
		pool := x509.NewCertPool()
		if !pool.AppendCertsFromPEM(caBytes) {
			return nil, errors.New("append CA cert failed")
		}
		tlsCfg.RootCAs = pool
	}
	if c.TLSCertPath != "" || c.TLSKeyPath != "" {
		if c.TLSCertPath == "" || c.TLSKeyPath == "" {
			return nil, errors.New("both TLS cert and key are required")
		}
		crt, err := tls.LoadX509KeyPair(c.TLSCertPath, c.TLSKeyPath)
		if err != nil {
			return nil, fmt.Errorf("load mTLS cert/key: %w", err)
		}
		tlsCfg.Certificates = []tls.Certificate{crt}
	}
	return tlsCfg, nil
}

func env(key, fallback string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	return v
}

// envAllowEmpty distinguishes an unset variable from one set to "", which
// turns the feature off.
func envAllowEmpty(key, fallback string) string {
	v, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	return strings.TrimSpace(v)
}

func envInt(key string, fallback int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return i
}

func envBool(key string, fallback bool) bool {
	v := strings.TrimSpace(strings.ToLower(os.Getenv(key)))
	if v == "" {
		return fallback
	}
	switch v {
	case "1", "true", "yes", "y", "on":
		return true
	case "0", "false", "no", "n", "off":
		return false
	default:
		return fallback
	}
}

func envDuration(key string, fallback time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}
