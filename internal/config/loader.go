package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is the path checked for YAML configuration.
const DefaultConfigFile = "agentcanvas.yaml"

// Load returns a Config using the hierarchy: defaults < YAML < ENV.
// YAML file is optional; missing file is not an error.
func Load() (*Config, error) {
	path := DefaultConfigFile
	if p := os.Getenv("AGENTCANVAS_CONFIG"); p != "" {
		path = p
	}
	return LoadFrom(path)
}

// LoadFrom returns a Config loaded from the given YAML path using the
// hierarchy: defaults < YAML < ENV. The YAML file is optional.
func LoadFrom(yamlPath string) (*Config, error) {
	cfg := Defaults()

	if err := loadYAML(&cfg, yamlPath); err != nil {
		return nil, fmt.Errorf("config yaml: %w", err)
	}

	loadEnv(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("config validate: %w", err)
	}

	return &cfg, nil
}

// loadYAML reads the YAML file and unmarshals it over cfg.
// Returns nil if the file does not exist.
func loadYAML(cfg *Config, path string) error {
	data, err := os.ReadFile(path) //nolint:gosec // G304: path is operator supplied
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}

	return nil
}

// loadEnv overlays environment variables onto cfg.
// Only non-empty env values override the current config.
func loadEnv(cfg *Config) {
	setString(&cfg.Server.Port, "AGENTCANVAS_PORT")
	setString(&cfg.Server.CORSOrigin, "AGENTCANVAS_CORS_ORIGIN")
	setDuration(&cfg.Server.WSWriteTimeout, "AGENTCANVAS_WS_WRITE_TIMEOUT")
	setInt64(&cfg.Server.BodyLimit, "AGENTCANVAS_BODY_LIMIT")
	setString(&cfg.Logging.Level, "AGENTCANVAS_LOG_LEVEL")
	setString(&cfg.Logging.Service, "AGENTCANVAS_LOG_SERVICE")
	setBool(&cfg.Logging.Async, "AGENTCANVAS_LOG_ASYNC")
	setDuration(&cfg.Dispatch.CallTimeout, "AGENTCANVAS_CALL_TIMEOUT")
	setDuration(&cfg.Discovery.ProbeTimeout, "AGENTCANVAS_PROBE_TIMEOUT")
	setInt64(&cfg.Discovery.MaxConcurrent, "AGENTCANVAS_DISCOVERY_MAX_CONCURRENT")
	setDuration(&cfg.Discovery.CardCacheTTL, "AGENTCANVAS_CARD_CACHE_TTL")
	setBool(&cfg.Discovery.OnStartup, "AGENTCANVAS_DISCOVER_ON_STARTUP")
	setString(&cfg.NATS.URL, "NATS_URL")
	setString(&cfg.OTel.Endpoint, "OTEL_EXPORTER_OTLP_ENDPOINT")
	setString(&cfg.OTel.ServiceName, "OTEL_SERVICE_NAME")
	setBool(&cfg.OTel.Insecure, "AGENTCANVAS_OTEL_INSECURE")
	setFloat64(&cfg.OTel.SampleRate, "AGENTCANVAS_OTEL_SAMPLE_RATE")
	setString(&cfg.Reasoner.URL, "OLLAMA_URL")
	setString(&cfg.Reasoner.Model, "OLLAMA_MODEL")
	setFloat64(&cfg.Reasoner.Temperature, "AGENTCANVAS_REASONER_TEMPERATURE")
	setFloat64(&cfg.Reasoner.TopP, "AGENTCANVAS_REASONER_TOP_P")
	setDuration(&cfg.Reasoner.Timeout, "AGENTCANVAS_REASONER_TIMEOUT")
	setInt(&cfg.Breaker.MaxFailures, "AGENTCANVAS_BREAKER_MAX_FAILURES")
	setDuration(&cfg.Breaker.Timeout, "AGENTCANVAS_BREAKER_TIMEOUT")
	setFloat64(&cfg.Rate.RequestsPerSecond, "AGENTCANVAS_RATE_RPS")
	setInt(&cfg.Rate.Burst, "AGENTCANVAS_RATE_BURST")
	setDuration(&cfg.Rate.CleanupInterval, "AGENTCANVAS_RATE_CLEANUP_INTERVAL")
	setDuration(&cfg.Rate.MaxIdleTime, "AGENTCANVAS_RATE_MAX_IDLE_TIME")

	// Cache
	setInt64(&cfg.Cache.L1MaxSizeMB, "AGENTCANVAS_CACHE_L1_SIZE_MB")
	setString(&cfg.Cache.L2Bucket, "AGENTCANVAS_CACHE_L2_BUCKET")
	setDuration(&cfg.Cache.L2TTL, "AGENTCANVAS_CACHE_L2_TTL")

	setBool(&cfg.MCP.Enabled, "AGENTCANVAS_MCP_ENABLED")

	// Built-in agent
	setString(&cfg.Agent.Role, "AGENTCANVAS_AGENT_ROLE")
	setString(&cfg.Agent.Name, "AGENTCANVAS_AGENT_NAME")
	setString(&cfg.Agent.Description, "AGENTCANVAS_AGENT_DESCRIPTION")
	setString(&cfg.Agent.Endpoint, "AGENTCANVAS_AGENT_ENDPOINT")
	setString(&cfg.Agent.Port, "AGENTCANVAS_AGENT_PORT")
	setString(&cfg.Agent.PublicURL, "AGENTCANVAS_AGENT_PUBLIC_URL")
	setList(&cfg.Agent.RemoteAgents, "AGENTCANVAS_AGENT_REMOTES")
}

func validate(cfg *Config) error {
	if cfg.Server.Port == "" {
		return errors.New("server.port is required")
	}
	if cfg.Dispatch.CallTimeout <= 0 {
		return errors.New("dispatch.call_timeout must be > 0")
	}
	if cfg.Discovery.ProbeTimeout <= 0 {
		return errors.New("discovery.probe_timeout must be > 0")
	}
	if cfg.Discovery.MaxConcurrent < 1 {
		return errors.New("discovery.max_concurrent must be >= 1")
	}
	for i, c := range cfg.Discovery.Candidates {
		if c.Name == "" || c.URL == "" {
			return fmt.Errorf("discovery.candidates[%d]: name and url are required", i)
		}
	}
	if cfg.Breaker.MaxFailures < 1 {
		return errors.New("breaker.max_failures must be >= 1")
	}
	if cfg.Rate.Burst < 1 {
		return errors.New("rate.burst must be >= 1")
	}
	switch cfg.Agent.Role {
	case "search", "host":
	default:
		return fmt.Errorf("agent.role %q must be search or host", cfg.Agent.Role)
	}
	return nil
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setFloat64(dst *float64, key string) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}

func setInt64(dst *int64, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			*dst = n
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setDuration(dst *time.Duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			*dst = d
		}
	}
}

// setList splits a comma-separated env value, dropping blanks.
func setList(dst *[]string, key string) {
	v := os.Getenv(key)
	if v == "" {
		return
	}
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	*dst = out
}
