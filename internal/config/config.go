// Package config provides hierarchical configuration loading for AgentCanvas.
// Precedence: defaults < YAML file < environment variables.
package config

import "time"

// Config holds all runtime configuration for the AgentCanvas coordinator
// and the built-in agent servers.
type Config struct {
	Server    Server    `yaml:"server"`
	Logging   Logging   `yaml:"logging"`
	Dispatch  Dispatch  `yaml:"dispatch"`
	Discovery Discovery `yaml:"discovery"`
	NATS      NATS      `yaml:"nats"`
	OTel      OTel      `yaml:"otel"`
	Reasoner  Reasoner  `yaml:"reasoner"`
	Breaker   Breaker   `yaml:"breaker"`
	Rate      Rate      `yaml:"rate"`
	Cache     Cache     `yaml:"cache"`
	MCP       MCP       `yaml:"mcp"`
	Agent     Agent     `yaml:"agent"`
}

// Server holds HTTP server configuration.
type Server struct {
	Port           string        `yaml:"port"`
	CORSOrigin     string        `yaml:"cors_origin"`
	WSWriteTimeout time.Duration `yaml:"ws_write_timeout"` // Per-connection write bound during broadcast
	BodyLimit      int64         `yaml:"body_limit"`       // Max request body in bytes
}

// Logging holds structured logging configuration.
type Logging struct {
	Level        string `yaml:"level"`
	Service      string `yaml:"service"`
	Async        bool   `yaml:"async"`
	AsyncBuffer  int    `yaml:"async_buffer"`
	AsyncWorkers int    `yaml:"async_workers"`
}

// Dispatch holds fan-out configuration for remote agent calls.
type Dispatch struct {
	CallTimeout         time.Duration `yaml:"call_timeout"`          // Per-send timeout enforced by the connection
	AcceptedOutputModes []string      `yaml:"accepted_output_modes"` // Advertised on every dispatched envelope
}

// Candidate is a well-known agent address probed during discovery.
type Candidate struct {
	Name        string   `yaml:"name"`
	Description string   `yaml:"description"`
	URL         string   `yaml:"url"`
	Color       string   `yaml:"color"`
	Tools       []string `yaml:"tools"`
}

// Discovery holds automatic agent discovery configuration.
type Discovery struct {
	ProbeTimeout  time.Duration `yaml:"probe_timeout"`
	MaxConcurrent int64         `yaml:"max_concurrent"`
	CardCacheTTL  time.Duration `yaml:"card_cache_ttl"`
	OnStartup     bool          `yaml:"on_startup"`
	Candidates    []Candidate   `yaml:"candidates"`
}

// NATS holds optional NATS JetStream configuration. An empty URL disables
// the event mirror and the remote query subject.
type NATS struct {
	URL string `yaml:"url"`
}

// OTel holds OpenTelemetry export configuration. An empty endpoint keeps the
// no-op global providers.
type OTel struct {
	Endpoint    string  `yaml:"endpoint"`
	ServiceName string  `yaml:"service_name"`
	Insecure    bool    `yaml:"insecure"`
	SampleRate  float64 `yaml:"sample_rate"`
}

// Reasoner holds the Ollama-compatible generation backend used by the host agent.
type Reasoner struct {
	URL         string        `yaml:"url"`
	Model       string        `yaml:"model"`
	Temperature float64       `yaml:"temperature"`
	TopP        float64       `yaml:"top_p"`
	Timeout     time.Duration `yaml:"timeout"`
}

// Breaker holds circuit breaker configuration.
type Breaker struct {
	MaxFailures int           `yaml:"max_failures"`
	Timeout     time.Duration `yaml:"timeout"`
}

// Rate holds rate limiter configuration.
type Rate struct {
	RequestsPerSecond float64       `yaml:"requests_per_second"`
	Burst             int           `yaml:"burst"`
	CleanupInterval   time.Duration `yaml:"cleanup_interval"`
	MaxIdleTime       time.Duration `yaml:"max_idle_time"`
}

// Cache holds the tiered agent card cache configuration.
type Cache struct {
	L1MaxSizeMB int64         `yaml:"l1_max_size_mb"`
	L2Bucket    string        `yaml:"l2_bucket"`
	L2TTL       time.Duration `yaml:"l2_ttl"`
}

// MCP holds the Model Context Protocol server configuration.
type MCP struct {
	Enabled bool `yaml:"enabled"`
}

// Agent configures the process when it runs as a built-in A2A agent
// (agentcanvas agent).
type Agent struct {
	Role         string   `yaml:"role"` // "search" | "host"
	Name         string   `yaml:"name"`
	Description  string   `yaml:"description"`
	Endpoint     string   `yaml:"endpoint"`
	Port         string   `yaml:"port"`
	PublicURL    string   `yaml:"public_url"`
	RemoteAgents []string `yaml:"remote_agents"` // Base addresses the host agent may delegate to
}

// Defaults returns a Config with sensible default values for local development.
func Defaults() Config {
	return Config{
		Server: Server{
			Port:           "8080",
			CORSOrigin:     "http://localhost:3000",
			WSWriteTimeout: 5 * time.Second,
			BodyLimit:      1 << 20,
		},
		Logging: Logging{
			Level:        "info",
			Service:      "agentcanvas",
			AsyncBuffer:  10000,
			AsyncWorkers: 4,
		},
		Dispatch: Dispatch{
			CallTimeout:         30 * time.Second,
			AcceptedOutputModes: []string{"text", "text/plain", "image/png"},
		},
		Discovery: Discovery{
			ProbeTimeout:  5 * time.Second,
			MaxConcurrent: 4,
			CardCacheTTL:  30 * time.Second,
			Candidates: []Candidate{
				{
					Name:        "Ollama Host Agent",
					Description: "Coordinates work across agents and plans multi-step tasks",
					URL:         "http://localhost:12001",
					Color:       "#3b82f6",
					Tools:       []string{"coordination", "planning"},
				},
				{
					Name:        "Ollama Search Agent",
					Description: "Answers questions and produces canvas drawings and diagrams",
					URL:         "http://localhost:11001",
					Color:       "#10b981",
					Tools:       []string{"search", "text"},
				},
			},
		},
		OTel: OTel{
			ServiceName: "agentcanvas",
			Insecure:    true,
			SampleRate:  1.0,
		},
		Reasoner: Reasoner{
			URL:         "http://localhost:11434",
			Model:       "llama3.2",
			Temperature: 0.7,
			TopP:        0.9,
			Timeout:     60 * time.Second,
		},
		Breaker: Breaker{
			MaxFailures: 5,
			Timeout:     30 * time.Second,
		},
		Rate: Rate{
			RequestsPerSecond: 10,
			Burst:             100,
			CleanupInterval:   5 * time.Minute,
			MaxIdleTime:       10 * time.Minute,
		},
		Cache: Cache{
			L1MaxSizeMB: 16,
			L2Bucket:    "AGENTCANVAS_CARDS",
			L2TTL:       10 * time.Minute,
		},
		MCP: MCP{
			Enabled: true,
		},
		Agent: Agent{
			Role:     "search",
			Name:     "ollama_simple_search_agent",
			Endpoint: "/ollama_simple_search_agent",
			Port:     "11001",
		},
	}
}
