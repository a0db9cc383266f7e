package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/Strob0t/AgentCanvas/internal/adapter/a2aclient"
	cfhttp "github.com/Strob0t/AgentCanvas/internal/adapter/http"
	"github.com/Strob0t/AgentCanvas/internal/adapter/ollama"
	cfotel "github.com/Strob0t/AgentCanvas/internal/adapter/otel"
	"github.com/Strob0t/AgentCanvas/internal/config"
	"github.com/Strob0t/AgentCanvas/internal/middleware"
	"github.com/Strob0t/AgentCanvas/internal/port/a2a"
	"github.com/Strob0t/AgentCanvas/internal/port/reasoner"
	"github.com/Strob0t/AgentCanvas/internal/resilience"
	"github.com/Strob0t/AgentCanvas/internal/service"
)

type roleDefaults struct {
	name, port, description string
}

var agentRoles = map[string]roleDefaults{
	service.RoleSearch: {
		name:        "ollama_simple_search_agent",
		port:        "11001",
		description: "Answers questions about people, places, events, and general knowledge, and draws on the shared canvas.",
	},
	service.RoleHost: {
		name:        "ollama_host_agent",
		port:        "12001",
		description: "An Ollama-powered agent that orchestrates the decomposition of user requests into tasks that can be performed by child agents.",
	},
}

// parseAgentFlags applies agent flags on top of the loaded config. Choosing
// a role resets name, port and endpoint to that role's defaults unless they
// are given explicitly.
func parseAgentFlags(args []string) (*config.Config, error) {
	fs := flag.NewFlagSet("agentcanvas agent", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	var (
		configPath, role, name, port, endpoint, publicURL, remotes, logLevel, ollamaURL string
	)
	fs.StringVar(&configPath, "config", "", "path to YAML config")
	fs.StringVar(&configPath, "c", "", "path to YAML config (shorthand)")
	fs.StringVar(&role, "role", "", "search|host")
	fs.StringVar(&name, "name", "", "agent name")
	fs.StringVar(&port, "port", "", "listen port")
	fs.StringVar(&endpoint, "endpoint", "", "task endpoint prefix")
	fs.StringVar(&publicURL, "public-url", "", "base URL advertised in the agent card")
	fs.StringVar(&remotes, "remote", "", "comma separated agent addresses the host may delegate to")
	fs.StringVar(&logLevel, "log-level", "", "debug|info|warn|error")
	fs.StringVar(&ollamaURL, "ollama-url", "", "Ollama base URL")
	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("parse flags: %w", err)
	}

	set := map[string]bool{}
	fs.Visit(func(f *flag.Flag) { set[f.Name] = true })

	cli := config.CLIFlags{}
	if set["config"] || set["c"] {
		cli.ConfigPath = &configPath
	}
	if set["log-level"] {
		cli.LogLevel = &logLevel
	}
	if set["ollama-url"] {
		cli.OllamaURL = &ollamaURL
	}
	cfg, _, err := config.LoadWithCLI(cli)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	a := &cfg.Agent
	if set["role"] {
		d, ok := agentRoles[role]
		if !ok {
			return nil, fmt.Errorf("agent role %q must be search or host", role)
		}
		if role != a.Role {
			a.Role, a.Name, a.Port, a.Endpoint, a.Description = role, d.name, d.port, "/"+d.name, ""
		}
	}
	if set["name"] {
		a.Name = name
		if !set["endpoint"] {
			a.Endpoint = "/" + name
		}
	}
	if set["port"] {
		a.Port = port
	}
	if set["endpoint"] {
		a.Endpoint = endpoint
	}
	if set["public-url"] {
		a.PublicURL = publicURL
	}
	if set["remote"] {
		a.RemoteAgents = nil
		for _, r := range strings.Split(remotes, ",") {
			if r = strings.TrimSpace(r); r != "" {
				a.RemoteAgents = append(a.RemoteAgents, r)
			}
		}
	}
	if a.Description == "" {
		a.Description = agentRoles[a.Role].description
	}
	if a.PublicURL == "" {
		a.PublicURL = "http://localhost:" + a.Port
	}
	return cfg, nil
}

func runAgent(args []string) error {
	cfg, err := parseAgentFlags(args)
	if err != nil {
		return err
	}
	cfg.Logging.Service = cfg.Agent.Name
	closer := setupLogging(cfg)
	defer closer.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownOTel, err := cfotel.Setup(ctx, cfg.OTel)
	if err != nil {
		return fmt.Errorf("otel: %w", err)
	}
	defer func() { _ = shutdownOTel(context.Background()) }()

	builtin, err := newBuiltinAgent(ctx, cfg)
	if err != nil {
		return err
	}

	card := a2a.BuildAgentCard(cfg.Agent.Name, cfg.Agent.Description, cfg.Agent.PublicURL, cfg.Agent.Endpoint,
		a2a.Skill{
			ID:          cfg.Agent.Role,
			Name:        cfg.Agent.Name,
			Description: cfg.Agent.Description,
			InputModes:  []string{"text", "text/plain"},
			OutputModes: []string{"text", "text/plain"},
		})

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(cfhttp.Logger)
	r.Use(chimw.Recoverer)
	r.Use(cfotel.HTTPMiddleware(cfg.Agent.Name))
	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(builtin.Health())
	})
	a2a.NewHandler(card, builtin).MountRoutes(r)

	slog.Info("built-in agent ready", "role", cfg.Agent.Role, "name", cfg.Agent.Name, "url", cfg.Agent.PublicURL)
	return serveHTTP(ctx, ":"+cfg.Agent.Port, r)
}

// newBuiltinAgent builds the agent for cfg.Agent.Role. The host gets the
// reasoner and a registry of the remote agents whose cards could be loaded.
func newBuiltinAgent(ctx context.Context, cfg *config.Config) (*service.BuiltinAgent, error) {
	if cfg.Agent.Role != service.RoleHost {
		return service.NewBuiltinAgent(cfg.Agent.Role, cfg.Agent.Name)
	}

	client := ollama.NewClient(cfg.Reasoner.URL, cfg.Reasoner.Model, cfg.Reasoner.Timeout)
	client.SetBreaker(resilience.NewBreaker(cfg.Breaker.MaxFailures, cfg.Breaker.Timeout))

	dialer := a2aclient.NewDialer(cfg.Dispatch.CallTimeout)
	remotes := service.NewAgentRegistry(dialer.Dial, nil)
	loaded := service.LoadRemoteAgents(ctx, remotes, dialer, cfg.Agent.RemoteAgents)
	slog.Info("remote agents loaded", "count", len(loaded), "configured", len(cfg.Agent.RemoteAgents))

	return service.NewBuiltinAgent(service.RoleHost, cfg.Agent.Name,
		service.WithReasoner(client, reasoner.Options{
			Temperature: cfg.Reasoner.Temperature,
			TopP:        cfg.Reasoner.TopP,
		}),
		service.WithDelegation(remotes, service.NewDelegator(remotes, nil, cfg.Dispatch.AcceptedOutputModes)),
	)
}
