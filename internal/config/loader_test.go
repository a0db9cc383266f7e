package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaults(t *testing.T) {
	cfg := Defaults()

	if cfg.Server.Port != "8080" {
		t.Errorf("expected port 8080, got %s", cfg.Server.Port)
	}
	if cfg.Dispatch.CallTimeout != 30*time.Second {
		t.Errorf("expected call timeout 30s, got %v", cfg.Dispatch.CallTimeout)
	}
	if cfg.Discovery.ProbeTimeout != 5*time.Second {
		t.Errorf("expected probe timeout 5s, got %v", cfg.Discovery.ProbeTimeout)
	}
	if len(cfg.Discovery.Candidates) != 2 {
		t.Fatalf("expected 2 default candidates, got %d", len(cfg.Discovery.Candidates))
	}
	if cfg.NATS.URL != "" {
		t.Errorf("expected NATS disabled by default, got %s", cfg.NATS.URL)
	}
}

func TestLoadYAMLOverride(t *testing.T) {
	dir := t.TempDir()
	yamlPath := filepath.Join(dir, "test.yaml")

	content := `
server:
  port: "9090"
  cors_origin: "http://example.com"
dispatch:
  call_timeout: 5s
discovery:
  candidates:
    - name: "Local Agent"
      url: "http://localhost:13001"
      tools: ["text"]
logging:
  level: "debug"
`
	if err := os.WriteFile(yamlPath, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := Defaults()
	if err := loadYAML(&cfg, yamlPath); err != nil {
		t.Fatal(err)
	}

	if cfg.Server.Port != "9090" {
		t.Errorf("expected port 9090, got %s", cfg.Server.Port)
	}
	if cfg.Server.CORSOrigin != "http://example.com" {
		t.Errorf("expected cors http://example.com, got %s", cfg.Server.CORSOrigin)
	}
	if cfg.Dispatch.CallTimeout != 5*time.Second {
		t.Errorf("expected call timeout 5s, got %v", cfg.Dispatch.CallTimeout)
	}
	if len(cfg.Discovery.Candidates) != 1 || cfg.Discovery.Candidates[0].Name != "Local Agent" {
		t.Errorf("expected candidates replaced by YAML, got %+v", cfg.Discovery.Candidates)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("expected log level debug, got %s", cfg.Logging.Level)
	}
	// Unchanged fields keep defaults
	if cfg.Reasoner.URL != "http://localhost:11434" {
		t.Errorf("expected default reasoner URL, got %s", cfg.Reasoner.URL)
	}
}

func TestLoadYAMLMissing(t *testing.T) {
	cfg := Defaults()
	err := loadYAML(&cfg, "/nonexistent/path.yaml")
	if err != nil {
		t.Errorf("missing YAML should not error, got %v", err)
	}
}

func TestLoadYAMLInvalid(t *testing.T) {
	dir := t.TempDir()
	yamlPath := filepath.Join(dir, "bad.yaml")
	if err := os.WriteFile(yamlPath, []byte("server: [unclosed"), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg := Defaults()
	if err := loadYAML(&cfg, yamlPath); err == nil {
		t.Fatal("expected parse error for invalid YAML")
	}
}

func TestEnvOverride(t *testing.T) {
	cfg := Defaults()

	t.Setenv("AGENTCANVAS_PORT", "7070")
	t.Setenv("AGENTCANVAS_LOG_LEVEL", "warn")
	t.Setenv("AGENTCANVAS_CALL_TIMEOUT", "12s")
	t.Setenv("AGENTCANVAS_BREAKER_TIMEOUT", "1m")
	t.Setenv("NATS_URL", "nats://nats:4222")
	t.Setenv("AGENTCANVAS_AGENT_REMOTES", "http://a:1, ,http://b:2")

	loadEnv(&cfg)

	if cfg.Server.Port != "7070" {
		t.Errorf("expected port 7070, got %s", cfg.Server.Port)
	}
	if cfg.Logging.Level != "warn" {
		t.Errorf("expected log level warn, got %s", cfg.Logging.Level)
	}
	if cfg.Dispatch.CallTimeout != 12*time.Second {
		t.Errorf("expected call timeout 12s, got %v", cfg.Dispatch.CallTimeout)
	}
	if cfg.Breaker.Timeout != time.Minute {
		t.Errorf("expected breaker timeout 1m, got %v", cfg.Breaker.Timeout)
	}
	if cfg.NATS.URL != "nats://nats:4222" {
		t.Errorf("expected NATS URL from env, got %s", cfg.NATS.URL)
	}
	if len(cfg.Agent.RemoteAgents) != 2 || cfg.Agent.RemoteAgents[1] != "http://b:2" {
		t.Errorf("expected 2 remotes, got %v", cfg.Agent.RemoteAgents)
	}
}

func TestEnvInvalidValueIgnored(t *testing.T) {
	cfg := Defaults()
	t.Setenv("AGENTCANVAS_CALL_TIMEOUT", "soon")
	loadEnv(&cfg)
	if cfg.Dispatch.CallTimeout != 30*time.Second {
		t.Errorf("expected default timeout to survive invalid env, got %v", cfg.Dispatch.CallTimeout)
	}
}

func TestValidateRequired(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
		errMsg string
	}{
		{
			name:   "empty port",
			modify: func(c *Config) { c.Server.Port = "" },
			errMsg: "server.port is required",
		},
		{
			name:   "zero call timeout",
			modify: func(c *Config) { c.Dispatch.CallTimeout = 0 },
			errMsg: "dispatch.call_timeout must be > 0",
		},
		{
			name:   "zero discovery concurrency",
			modify: func(c *Config) { c.Discovery.MaxConcurrent = 0 },
			errMsg: "discovery.max_concurrent must be >= 1",
		},
		{
			name:   "candidate without url",
			modify: func(c *Config) { c.Discovery.Candidates = []Candidate{{Name: "x"}} },
			errMsg: "discovery.candidates[0]: name and url are required",
		},
		{
			name:   "zero breaker failures",
			modify: func(c *Config) { c.Breaker.MaxFailures = 0 },
			errMsg: "breaker.max_failures must be >= 1",
		},
		{
			name:   "zero rate burst",
			modify: func(c *Config) { c.Rate.Burst = 0 },
			errMsg: "rate.burst must be >= 1",
		},
		{
			name:   "unknown agent role",
			modify: func(c *Config) { c.Agent.Role = "painter" },
			errMsg: `agent.role "painter" must be search or host`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Defaults()
			tt.modify(&cfg)
			err := validate(&cfg)
			if err == nil {
				t.Fatalf("expected error %q, got nil", tt.errMsg)
			}
			if err.Error() != tt.errMsg {
				t.Errorf("expected %q, got %q", tt.errMsg, err.Error())
			}
		})
	}
}

func TestValidateDefaults(t *testing.T) {
	cfg := Defaults()
	if err := validate(&cfg); err != nil {
		t.Errorf("defaults should validate, got %v", err)
	}
}

func TestParseFlags(t *testing.T) {
	flags, err := ParseFlags([]string{"--port", "9090", "--log-level", "debug"})
	if err != nil {
		t.Fatal(err)
	}

	if flags.Port == nil || *flags.Port != "9090" {
		t.Errorf("expected port 9090, got %v", flags.Port)
	}
	if flags.LogLevel == nil || *flags.LogLevel != "debug" {
		t.Errorf("expected log-level debug, got %v", flags.LogLevel)
	}
	// Unset flags remain nil
	if flags.NatsURL != nil {
		t.Errorf("expected nil NatsURL, got %v", *flags.NatsURL)
	}
	if flags.ConfigPath != nil {
		t.Errorf("expected nil ConfigPath, got %v", *flags.ConfigPath)
	}
}

func TestParseFlagsShorthand(t *testing.T) {
	flags, err := ParseFlags([]string{"-p", "7070", "-c", "custom.yaml"})
	if err != nil {
		t.Fatal(err)
	}

	if flags.Port == nil || *flags.Port != "7070" {
		t.Errorf("expected port 7070, got %v", flags.Port)
	}
	if flags.ConfigPath == nil || *flags.ConfigPath != "custom.yaml" {
		t.Errorf("expected config custom.yaml, got %v", flags.ConfigPath)
	}
}

func TestParseFlagsInvalid(t *testing.T) {
	_, err := ParseFlags([]string{"--unknown-flag"})
	if err == nil {
		t.Error("expected error for unknown flag, got nil")
	}
}

func TestApplyCLINilFlags(t *testing.T) {
	cfg := Defaults()
	original := cfg

	applyCLI(&cfg, CLIFlags{})

	if cfg.Server.Port != original.Server.Port {
		t.Errorf("port changed from %s to %s", original.Server.Port, cfg.Server.Port)
	}
	if cfg.Logging.Level != original.Logging.Level {
		t.Errorf("log level changed from %s to %s", original.Logging.Level, cfg.Logging.Level)
	}
}

func TestCLIOverridesEnv(t *testing.T) {
	t.Setenv("AGENTCANVAS_PORT", "7070")
	t.Setenv("AGENTCANVAS_LOG_LEVEL", "warn")

	flags, err := ParseFlags([]string{"--port", "3333", "--log-level", "error", "-c", filepath.Join(t.TempDir(), "none.yaml")})
	if err != nil {
		t.Fatal(err)
	}

	cfg, _, err := LoadWithCLI(flags)
	if err != nil {
		t.Fatal(err)
	}

	if cfg.Server.Port != "3333" {
		t.Errorf("expected CLI port 3333 to override ENV 7070, got %s", cfg.Server.Port)
	}
	if cfg.Logging.Level != "error" {
		t.Errorf("expected CLI log-level error to override ENV warn, got %s", cfg.Logging.Level)
	}
}

func TestLoadWithCLICustomConfig(t *testing.T) {
	dir := t.TempDir()
	yamlPath := filepath.Join(dir, "custom.yaml")
	content := `
server:
  port: "5555"
`
	if err := os.WriteFile(yamlPath, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	flags, err := ParseFlags([]string{"--config", yamlPath})
	if err != nil {
		t.Fatal(err)
	}

	cfg, resolvedPath, err := LoadWithCLI(flags)
	if err != nil {
		t.Fatal(err)
	}

	if resolvedPath != yamlPath {
		t.Errorf("expected resolved path %s, got %s", yamlPath, resolvedPath)
	}
	if cfg.Server.Port != "5555" {
		t.Errorf("expected port 5555 from custom YAML, got %s", cfg.Server.Port)
	}
}
