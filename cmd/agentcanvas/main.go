package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/Strob0t/AgentCanvas/internal/adapter/a2aclient"
	cfhttp "github.com/Strob0t/AgentCanvas/internal/adapter/http"
	"github.com/Strob0t/AgentCanvas/internal/adapter/mcp"
	cfnats "github.com/Strob0t/AgentCanvas/internal/adapter/nats"
	"github.com/Strob0t/AgentCanvas/internal/adapter/natskv"
	cfotel "github.com/Strob0t/AgentCanvas/internal/adapter/otel"
	"github.com/Strob0t/AgentCanvas/internal/adapter/ristretto"
	"github.com/Strob0t/AgentCanvas/internal/adapter/tiered"
	"github.com/Strob0t/AgentCanvas/internal/adapter/ws"
	"github.com/Strob0t/AgentCanvas/internal/config"
	"github.com/Strob0t/AgentCanvas/internal/logger"
	"github.com/Strob0t/AgentCanvas/internal/middleware"
	"github.com/Strob0t/AgentCanvas/internal/port/broadcast"
	"github.com/Strob0t/AgentCanvas/internal/port/cache"
	"github.com/Strob0t/AgentCanvas/internal/service"
)

const version = "0.1.0"

func main() {
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})))

	args := os.Args[1:]
	cmd := "serve"
	if len(args) > 0 && !strings.HasPrefix(args[0], "-") {
		cmd, args = args[0], args[1:]
	}

	var err error
	switch cmd {
	case "serve":
		err = runServe(args)
	case "agent":
		err = runAgent(args)
	case "send":
		err = runSend(args)
	case "help":
		printHelp()
	default:
		printHelp()
		err = fmt.Errorf("unknown command: %s", cmd)
	}
	if err != nil {
		slog.Error("fatal", "error", err)
		os.Exit(1)
	}
}

func printHelp() {
	fmt.Fprintf(os.Stderr, `Usage: agentcanvas <command> [options]

Commands:
  serve   Run the coordinator (default)
  agent   Run a built-in A2A agent (--role search|host)
  send    Send one task to an agent and print the answer
  help    Show this help message

Examples:
  agentcanvas serve --port 8080 --nats-url nats://localhost:4222
  agentcanvas agent --role host --port 12001 --remote http://localhost:11001
  echo "famous monuments?" | agentcanvas send --url http://localhost:11001
`)
}

// setupLogging installs the configured logger as the default.
func setupLogging(cfg *config.Config) logger.Closer {
	l, closer := logger.New(cfg.Logging)
	slog.SetDefault(l)
	return closer
}

func runServe(args []string) error {
	flags, err := config.ParseFlags(args)
	if err != nil {
		return err
	}
	cfg, path, err := config.LoadWithCLI(flags)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	closer := setupLogging(cfg)
	defer closer.Close()

	slog.Info("config loaded",
		"path", path,
		"port", cfg.Server.Port,
		"log_level", cfg.Logging.Level,
		"nats", cfg.NATS.URL != "",
		"candidates", len(cfg.Discovery.Candidates),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// --- Telemetry ---

	shutdownOTel, err := cfotel.Setup(ctx, cfg.OTel)
	if err != nil {
		return fmt.Errorf("otel: %w", err)
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownOTel(sctx); err != nil {
			slog.Warn("otel shutdown", "error", err)
		}
	}()
	metrics, err := cfotel.NewMetrics()
	if err != nil {
		return fmt.Errorf("metrics: %w", err)
	}

	// --- Infrastructure ---

	var queue *cfnats.Queue
	if cfg.NATS.URL != "" {
		queue, err = cfnats.Connect(ctx, cfg.NATS.URL)
		if err != nil {
			return fmt.Errorf("nats: %w", err)
		}
		defer func() {
			if err := queue.Drain(); err != nil {
				slog.Warn("nats drain", "error", err)
			}
		}()
	}

	l1, err := ristretto.New(cfg.Cache.L1MaxSizeMB)
	if err != nil {
		return fmt.Errorf("card cache: %w", err)
	}
	defer l1.Close()
	var cards cache.Cache = l1
	if queue != nil {
		kv, err := queue.KeyValue(ctx, cfg.Cache.L2Bucket, cfg.Cache.L2TTL)
		if err != nil {
			return fmt.Errorf("card cache kv: %w", err)
		}
		cards = tiered.New(l1, natskv.New(kv), cfg.Discovery.CardCacheTTL)
	}

	// --- Services ---

	hub := ws.NewHub(cfg.Server.WSWriteTimeout)
	hub.SetMetrics(metrics)
	var events broadcast.Broadcaster = hub
	if queue != nil {
		events = service.NewEventMirror(hub, queue)
	}

	dialer := a2aclient.NewDialer(cfg.Dispatch.CallTimeout)
	canvasLog := service.NewCanvasLog()
	registry := service.NewAgentRegistry(dialer.Dial, canvasLog)

	dispatch := service.NewDispatchService(registry, canvasLog, events, cfg.Dispatch.AcceptedOutputModes)
	dispatch.SetMetrics(metrics)

	discovery := service.NewDiscoveryService(registry, dialer, cards, candidates(cfg.Discovery.Candidates), service.DiscoveryConfig{
		ProbeTimeout:  cfg.Discovery.ProbeTimeout,
		MaxConcurrent: cfg.Discovery.MaxConcurrent,
		CardCacheTTL:  cfg.Discovery.CardCacheTTL,
	})
	discovery.SetMetrics(metrics)

	coordinator := service.NewCoordinatorService(registry, canvasLog, dispatch, discovery, events)
	hub.SetInbound(ws.NewRouter(coordinator).Handle)

	if queue != nil {
		cancelQueries, err := service.ServeQueries(ctx, queue, coordinator.QueryResponses)
		if err != nil {
			return fmt.Errorf("query subscriber: %w", err)
		}
		defer cancelQueries()
	}

	if cfg.Discovery.OnStartup {
		go func() {
			added, err := coordinator.DiscoverAgents(ctx)
			if err != nil {
				slog.Warn("startup discovery failed", "error", err)
				return
			}
			slog.Info("startup discovery finished", "discovered", len(added))
		}()
	}

	// --- HTTP ---

	limiter := middleware.NewRateLimiter(cfg.Rate.RequestsPerSecond, cfg.Rate.Burst)
	go limiter.RunCleanup(ctx, cfg.Rate.CleanupInterval, cfg.Rate.MaxIdleTime)

	handlers := &cfhttp.Handlers{
		Coordinator: coordinator,
		Observers:   hub,
		BodyLimit:   cfg.Server.BodyLimit,
		Version:     version,
	}

	r := chi.NewRouter()
	r.Use(cfhttp.CORS(cfg.Server.CORSOrigin))
	r.Use(middleware.RequestID)
	r.Use(cfhttp.Logger)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(cfotel.HTTPMiddleware(cfg.OTel.ServiceName))

	r.Get("/ws", hub.HandleWS)
	r.Group(func(r chi.Router) {
		r.Use(cfhttp.SecurityHeaders)
		r.Use(limiter.Handler)
		cfhttp.MountRoutes(r, handlers)
	})

	if cfg.MCP.Enabled {
		mcpServer := mcp.NewServer(mcp.ServerConfig{Name: "agentcanvas", Version: version}, mcp.ServerDeps{
			Agents:  coordinator,
			Queries: coordinator,
			Canvas:  coordinator,
		})
		r.Mount("/mcp", mcpServer.Handler())
		slog.Info("mcp server mounted", "path", "/mcp")
	}

	return serveHTTP(ctx, ":"+cfg.Server.Port, r)
}

// serveHTTP runs srv until ctx is done, then shuts it down gracefully.
func serveHTTP(ctx context.Context, addr string, h http.Handler) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("starting server", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	slog.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func candidates(in []config.Candidate) []service.Candidate {
	out := make([]service.Candidate, 0, len(in))
	for _, c := range in {
		out = append(out, service.Candidate{
			Name:        c.Name,
			Description: c.Description,
			URL:         c.URL,
			Color:       c.Color,
			Tools:       c.Tools,
		})
	}
	return out
}
