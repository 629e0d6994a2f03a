package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("HOSTPULSE_CONFIG", filepath.Join(dir, "missing.yaml"))
	t.Setenv("XDG_STATE_HOME", dir)
	for _, kv := range os.Environ() {
		key, _, _ := strings.Cut(kv, "=")
		if strings.HasPrefix(key, "HOSTPULSE_") && key != "HOSTPULSE_CONFIG" {
			t.Setenv(key, "")
			os.Unsetenv(key)
		}
	}
	return dir
}

func TestLoadDefaults(t *testing.T) {
	dir := isolate(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.StreamMode != StreamModeNone {
		t.Fatalf("stream mode = %q, want none", cfg.StreamMode)
	}
	if cfg.PollInterval != time.Second {
		t.Fatalf("poll interval = %v", cfg.PollInterval)
	}
	if cfg.PrivilegeBroker != "pkexec" {
		t.Fatalf("broker = %q", cfg.PrivilegeBroker)
	}
	if cfg.HistoryPath != filepath.Join(dir, "hostpulse", "history.db") {
		t.Fatalf("history path = %q", cfg.HistoryPath)
	}
	if cfg.ConfigFile != "" {
		t.Fatalf("config file = %q, want empty", cfg.ConfigFile)
	}
	if cfg.AgentID == "" || cfg.AgentID != defaultAgentID(cfg.Hostname) {
		t.Fatalf("agent id = %q", cfg.AgentID)
	}
}

func TestLoadFileThenEnv(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "config.yaml")
	body := `
agent_id: desk-01
poll_interval: 2s
max_subprocesses: 2
stream_mode: websocket
backend_ws_url: ws://backend/ws
log_json: true
history_path: ""
`
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("HOSTPULSE_CONFIG", path)
	t.Setenv("HOSTPULSE_POLL_INTERVAL", "3s")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.ConfigFile != path {
		t.Fatalf("config file = %q", cfg.ConfigFile)
	}
	if cfg.AgentID != "desk-01" {
		t.Fatalf("agent id = %q", cfg.AgentID)
	}
	if cfg.PollInterval != 3*time.Second {
		t.Fatalf("env should win over file, got %v", cfg.PollInterval)
	}
	if cfg.MaxSubprocesses != 2 || !cfg.LogJSON {
		t.Fatalf("file values not applied: %+v", cfg)
	}
	if cfg.StreamMode != StreamModeWebSocket || cfg.BackendWSURL != "ws://backend/ws" {
		t.Fatalf("stream settings = %q %q", cfg.StreamMode, cfg.BackendWSURL)
	}
	if cfg.HistoryPath != "" {
		t.Fatalf("history should be disabled, got %q", cfg.HistoryPath)
	}
}

func TestLoadRejectsBadYAML(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("poll_interval: [unterminated"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("HOSTPULSE_CONFIG", path)
	if _, err := Load(); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestValidate(t *testing.T) {
	base := Config{
		AgentID:          "a",
		AgentVersion:     HardcodedVersion,
		ListenAddr:       "127.0.0.1:0",
		PollInterval:     time.Second,
		HostInfoInterval: time.Minute,
		CommandTimeout:   time.Second,
		MaxSubprocesses:  1,
		PrivilegeBroker:  "pkexec",
		ShutdownTimeout:  time.Second,
		StreamMode:       StreamModeNone,
		LogLevel:         "info",
	}
	cases := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"ok", func(*Config) {}, ""},
		{"bad mode", func(c *Config) { c.StreamMode = "carrier-pigeon" }, "unsupported stream mode"},
		{"grpc without addr", func(c *Config) { c.StreamMode = StreamModeGRPC }, "GRPC_ADDR"},
		{"ws without url", func(c *Config) { c.StreamMode = StreamModeWebSocket }, "WS_URL"},
		{"zero poll", func(c *Config) { c.PollInterval = 0 }, "POLL_INTERVAL"},
		{"no subprocesses", func(c *Config) { c.MaxSubprocesses = 0 }, "MAX_SUBPROCESSES"},
		{"history without retention", func(c *Config) { c.HistoryPath = "/tmp/h.db" }, "RETENTION"},
		{"bad log level", func(c *Config) { c.LogLevel = "loud" }, "log level"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := base
			tc.mutate(&cfg)
			err := cfg.Validate()
			if tc.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tc.wantErr) {
				t.Fatalf("error = %v, want containing %q", err, tc.wantErr)
			}
		})
	}
}

func TestTLSConfigDisabled(t *testing.T) {
	tlsCfg, err := Config{}.TLSConfig()
	if err != nil || tlsCfg != nil {
		t.Fatalf("TLSConfig = %v, %v", tlsCfg, err)
	}
	_, err = Config{TLSEnabled: true, TLSCertPath: "only-cert.pem"}.TLSConfig()
	if err == nil {
		t.Fatal("expected error for cert without key")
	}
}
