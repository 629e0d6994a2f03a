package config

import (
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type StreamMode string

const (
	StreamModeNone      StreamMode = "none"
	StreamModeGRPC      StreamMode = "grpc"
	StreamModeWebSocket StreamMode = "websocket"
	HardcodedVersion    string     = "v0.3.0"
)

type Config struct {
	AgentID               string
	Hostname              string
	ListenAddr            string
	PollInterval          time.Duration
	HostInfoInterval      time.Duration
	CommandTimeout        time.Duration
	MaxSubprocesses       int
	PrivilegeBroker       string
	ShutdownTimeout       time.Duration
	StreamMode            StreamMode
	BackendGRPCAddr       string
	BackendWSURL          string
	BackendToken          string
	BackendJWTSecret      string
	BackendJWTTTL         time.Duration
	AgentVersion          string
	TLSEnabled            bool
	TLSSkipVerify         bool
	TLSCAPath             string
	TLSCertPath           string
	TLSKeyPath            string
	LogJSON               bool
	LogLevel              string
	GRPCSnapshotMethod    string
	GRPCHostInfoMethod    string
	WebSocketWriteTimeout time.Duration
	WebSocketPingInterval time.Duration
	HistoryPath           string
	HistoryRetention      time.Duration
	HistoryPruneInterval  time.Duration
	CollectorErrorBackoff time.Duration
	// ConfigFile is the YAML file that was read, empty when none existed.
	ConfigFile string
}

// fileConfig mirrors Config for the optional YAML file. Durations are Go
// duration strings ("1s", "24h").
type fileConfig struct {
	AgentID               string  `yaml:"agent_id"`
	ListenAddr            string  `yaml:"listen_addr"`
	PollInterval          string  `yaml:"poll_interval"`
	HostInfoInterval      string  `yaml:"host_info_interval"`
	CommandTimeout        string  `yaml:"command_timeout"`
	MaxSubprocesses       int     `yaml:"max_subprocesses"`
	PrivilegeBroker       string  `yaml:"privilege_broker"`
	ShutdownTimeout       string  `yaml:"shutdown_timeout"`
	StreamMode            string  `yaml:"stream_mode"`
	BackendGRPCAddr       string  `yaml:"backend_grpc_addr"`
	BackendWSURL          string  `yaml:"backend_ws_url"`
	BackendToken          string  `yaml:"backend_token"`
	BackendJWTSecret      string  `yaml:"backend_jwt_secret"`
	BackendJWTTTL         string  `yaml:"backend_jwt_ttl"`
	TLSEnabled            *bool   `yaml:"tls_enabled"`
	TLSSkipVerify         *bool   `yaml:"tls_skip_verify"`
	TLSCAPath             string  `yaml:"tls_ca_path"`
	TLSCertPath           string  `yaml:"tls_cert_path"`
	TLSKeyPath            string  `yaml:"tls_key_path"`
	LogJSON               *bool   `yaml:"log_json"`
	LogLevel              string  `yaml:"log_level"`
	GRPCSnapshotMethod    string  `yaml:"grpc_snapshot_method"`
	GRPCHostInfoMethod    string  `yaml:"grpc_host_info_method"`
	WebSocketWriteTimeout string  `yaml:"ws_write_timeout"`
	WebSocketPingInterval string  `yaml:"ws_ping_interval"`
	HistoryPath           *string `yaml:"history_path"`
	HistoryRetention      string  `yaml:"history_retention"`
	HistoryPruneInterval  string  `yaml:"history_prune_interval"`
	CollectorErrorBackoff string  `yaml:"collector_error_backoff"`
}

// Load reads configuration from defaults, then the YAML file, then a .env
// file and the process environment. Later sources win.
func Load() (Config, error) {
	// A missing .env is normal outside development.
	_ = godotenv.Load()

	hostname, err := os.Hostname()
	if err != nil {
		hostname = "unknown-host"
	}

	path := env("HOSTPULSE_CONFIG", defaultConfigPath())
	fc, found, err := readFile(path)
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		AgentID:               env("HOSTPULSE_AGENT_ID", or(fc.AgentID, defaultAgentID(hostname))),
		Hostname:              hostname,
		ListenAddr:            env("HOSTPULSE_LISTEN_ADDR", or(fc.ListenAddr, "127.0.0.1:9273")),
		PollInterval:          envDuration("HOSTPULSE_POLL_INTERVAL", fileDuration(fc.PollInterval, 1*time.Second)),
		HostInfoInterval:      envDuration("HOSTPULSE_HOST_INFO_INTERVAL", fileDuration(fc.HostInfoInterval, 10*time.Minute)),
		CommandTimeout:        envDuration("HOSTPULSE_COMMAND_TIMEOUT", fileDuration(fc.CommandTimeout, 30*time.Second)),
		MaxSubprocesses:       envInt("HOSTPULSE_MAX_SUBPROCESSES", orInt(fc.MaxSubprocesses, 4)),
		PrivilegeBroker:       env("HOSTPULSE_PRIVILEGE_BROKER", or(fc.PrivilegeBroker, "pkexec")),
		ShutdownTimeout:       envDuration("HOSTPULSE_SHUTDOWN_TIMEOUT", fileDuration(fc.ShutdownTimeout, 10*time.Second)),
		StreamMode:            StreamMode(strings.ToLower(env("HOSTPULSE_STREAM_MODE", or(fc.StreamMode, string(StreamModeNone))))),
		BackendGRPCAddr:       env("HOSTPULSE_BACKEND_GRPC_ADDR", or(fc.BackendGRPCAddr, "127.0.0.1:3001")),
		BackendWSURL:          env("HOSTPULSE_BACKEND_WS_URL", or(fc.BackendWSURL, "ws://127.0.0.1:3001/ws/metrics")),
		BackendToken:          env("HOSTPULSE_BACKEND_TOKEN", fc.BackendToken),
		BackendJWTSecret:      env("HOSTPULSE_BACKEND_JWT_SECRET", fc.BackendJWTSecret),
		BackendJWTTTL:         envDuration("HOSTPULSE_BACKEND_JWT_TTL", fileDuration(fc.BackendJWTTTL, 5*time.Minute)),
		AgentVersion:          HardcodedVersion,
		TLSEnabled:            envBool("HOSTPULSE_TLS_ENABLED", orBool(fc.TLSEnabled, false)),
		TLSSkipVerify:         envBool("HOSTPULSE_TLS_SKIP_VERIFY", orBool(fc.TLSSkipVerify, false)),
		TLSCAPath:             env("HOSTPULSE_TLS_CA_PATH", fc.TLSCAPath),
		TLSCertPath:           env("HOSTPULSE_TLS_CERT_PATH", fc.TLSCertPath),
		TLSKeyPath:            env("HOSTPULSE_TLS_KEY_PATH", fc.TLSKeyPath),
		LogJSON:               envBool("HOSTPULSE_LOG_JSON", orBool(fc.LogJSON, false)),
		LogLevel:              strings.ToLower(env("HOSTPULSE_LOG_LEVEL", or(fc.LogLevel, "info"))),
		GRPCSnapshotMethod:    env("HOSTPULSE_GRPC_SNAPSHOT_METHOD", or(fc.GRPCSnapshotMethod, "/hostpulse.metrics.v1.MetricsService/StreamSnapshots")),
		GRPCHostInfoMethod:    env("HOSTPULSE_GRPC_HOST_INFO_METHOD", or(fc.GRPCHostInfoMethod, "/hostpulse.metrics.v1.MetricsService/ReportHostInfo")),
		WebSocketWriteTimeout: envDuration("HOSTPULSE_WS_WRITE_TIMEOUT", fileDuration(fc.WebSocketWriteTimeout, 5*time.Second)),
		WebSocketPingInterval: envDuration("HOSTPULSE_WS_PING_INTERVAL", fileDuration(fc.WebSocketPingInterval, 10*time.Second)),
		HistoryPath:           envAllowEmpty("HOSTPULSE_HISTORY_PATH", orPtr(fc.HistoryPath, defaultHistoryPath())),
		HistoryRetention:      envDuration("HOSTPULSE_HISTORY_RETENTION", fileDuration(fc.HistoryRetention, 24*time.Hour)),
		HistoryPruneInterval:  envDuration("HOSTPULSE_HISTORY_PRUNE_INTERVAL", fileDuration(fc.HistoryPruneInterval, 10*time.Minute)),
		CollectorErrorBackoff: envDuration("HOSTPULSE_COLLECTOR_ERROR_BACKOFF", fileDuration(fc.CollectorErrorBackoff, 1500*time.Millisecond)),
	}
	if found {
		cfg.ConfigFile = path
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.AgentID) == "" {
		return errors.New("HOSTPULSE_AGENT_ID is required")
	}
	if strings.TrimSpace(c.AgentVersion) == "" {
		return errors.New("agent version must not be empty")
	}
	if strings.TrimSpace(c.ListenAddr) == "" {
		return errors.New("HOSTPULSE_LISTEN_ADDR is required")
	}
	if c.PollInterval <= 0 {
		return errors.New("HOSTPULSE_POLL_INTERVAL must be > 0")
	}
	if c.HostInfoInterval <= 0 {
		return errors.New("HOSTPULSE_HOST_INFO_INTERVAL must be > 0")
	}
	if c.CommandTimeout <= 0 {
		return errors.New("HOSTPULSE_COMMAND_TIMEOUT must be > 0")
	}
	if c.MaxSubprocesses <= 0 {
		return errors.New("HOSTPULSE_MAX_SUBPROCESSES must be > 0")
	}
	if strings.TrimSpace(c.PrivilegeBroker) == "" {
		return errors.New("HOSTPULSE_PRIVILEGE_BROKER is required")
	}
	if c.ShutdownTimeout <= 0 {
		return errors.New("HOSTPULSE_SHUTDOWN_TIMEOUT must be > 0")
	}
	switch c.StreamMode {
	case StreamModeNone, StreamModeGRPC, StreamModeWebSocket:
	default:
		return fmt.Errorf("unsupported stream mode %q", c.StreamMode)
	}
	if c.StreamMode == StreamModeGRPC {
		if c.BackendGRPCAddr == "" {
			return errors.New("HOSTPULSE_BACKEND_GRPC_ADDR is required for grpc mode")
		}
		if strings.TrimSpace(c.GRPCSnapshotMethod) == "" {
			return errors.New("HOSTPULSE_GRPC_SNAPSHOT_METHOD is required for grpc mode")
		}
		if strings.TrimSpace(c.GRPCHostInfoMethod) == "" {
			return errors.New("HOSTPULSE_GRPC_HOST_INFO_METHOD is required for grpc mode")
		}
	}
	if c.StreamMode == StreamModeWebSocket && c.BackendWSURL == "" {
		return errors.New("HOSTPULSE_BACKEND_WS_URL is required for websocket mode")
	}
	if c.HistoryPath != "" && c.HistoryRetention <= 0 {
		return errors.New("HOSTPULSE_HISTORY_RETENTION must be > 0 when history is enabled")
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("unsupported log level %q", c.LogLevel)
	}
	return nil
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

func readFile(path string) (fileConfig, bool, error) {
	var fc fileConfig
	if path == "" {
		return fc, false, nil
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return fc, false, nil
	}
	if err != nil {
		return fc, false, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fc, false, fmt.Errorf("parse config %s: %w", path, err)
	}
	return fc, true, nil
}

func defaultConfigPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "hostpulse", "config.yaml")
}

func defaultHistoryPath() string {
	if dir := os.Getenv("XDG_STATE_HOME"); dir != "" {
		return filepath.Join(dir, "hostpulse", "history.db")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".local", "state", "hostpulse", "history.db")
}

// defaultAgentID is stable per hostname so restarts keep the same identity.
func defaultAgentID(hostname string) string {
	return uuid.NewSHA1(uuid.NameSpaceDNS, []byte("hostpulse."+hostname)).String()
}

func or(v, fallback string) string {
	if strings.TrimSpace(v) == "" {
		return fallback
	}
	return strings.TrimSpace(v)
}

func orInt(v, fallback int) int {
	if v == 0 {
		return fallback
	}
	return v
}

func orBool(v *bool, fallback bool) bool {
	if v == nil {
		return fallback
	}
	return *v
}

func orPtr(v *string, fallback string) string {
	if v == nil {
		return fallback
	}
	return strings.TrimSpace(*v)
}

func fileDuration(v string, fallback time.Duration) time.Duration {
	v = strings.TrimSpace(v)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}

func env(key, fallback string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	return v
}

// envAllowEmpty treats a set but empty variable as an explicit empty value,
// used to switch history off.
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
