package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	cfotel "github.com/Strob0t/AgentCanvas/internal/adapter/otel"
	"github.com/Strob0t/AgentCanvas/internal/domain"
	"github.com/Strob0t/AgentCanvas/internal/domain/agent"
	"github.com/Strob0t/AgentCanvas/internal/port/a2a"
	"github.com/Strob0t/AgentCanvas/internal/port/cache"
)

// DiscoveredIDPrefix prefixes the ids of automatically registered agents.
const DiscoveredIDPrefix = "auto-"

// Candidate is a well-known agent address probed by discovery.
type Candidate struct {
	Name        string
	Description string
	URL         string
	Color       string
	Tools       []string
}

// DiscoveryConfig bounds discovery.
type DiscoveryConfig struct {
	ProbeTimeout  time.Duration
	MaxConcurrent int64
	CardCacheTTL  time.Duration
}

// DiscoveryService probes candidate addresses and registers the live ones.
type DiscoveryService struct {
	registry   *AgentRegistry
	fetcher    a2a.CardFetcher
	cards      cache.Cache
	candidates []Candidate
	cfg        DiscoveryConfig
	metrics    *cfotel.Metrics
}

// NewDiscoveryService creates a discovery service. cards may be nil to
// probe every time.
func NewDiscoveryService(registry *AgentRegistry, fetcher a2a.CardFetcher, cards cache.Cache, candidates []Candidate, cfg DiscoveryConfig) *DiscoveryService {
	if cfg.ProbeTimeout <= 0 {
		cfg.ProbeTimeout = 5 * time.Second
	}
	if cfg.MaxConcurrent < 1 {
		cfg.MaxConcurrent = 1
	}
	return &DiscoveryService{
		registry:   registry,
		fetcher:    fetcher,
		cards:      cards,
		candidates: candidates,
		cfg:        cfg,
	}
}

// SetMetrics attaches the discovery counter.
func (s *DiscoveryService) SetMetrics(m *cfotel.Metrics) {
	s.metrics = m
}

// Candidates returns the configured candidate list.
func (s *DiscoveryService) Candidates() []Candidate {
	return append([]Candidate(nil), s.candidates...)
}

// Discover probes every candidate and registers the ones that answer.
// Candidates already registered under the same address and name are left
// alone, so repeated runs never duplicate agents. Only newly registered
// agents are returned, in candidate order. Unreachable candidates are
// skipped silently.
func (s *DiscoveryService) Discover(ctx context.Context) ([]agent.Descriptor, error) {
	ctx, span := cfotel.StartDiscoverySpan(ctx, len(s.candidates))
	defer span.End()

	live := make([]bool, len(s.candidates))
	sem := semaphore.NewWeighted(s.cfg.MaxConcurrent)
	g, gctx := errgroup.WithContext(ctx)
	for i, c := range s.candidates {
		g.Go(func() error {
			if err := sem.Acquire(gctx, 1); err != nil {
				return err
			}
			defer sem.Release(1)
			live[i] = s.probe(gctx, c)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var added []agent.Descriptor
	for i, c := range s.candidates {
		if !live[i] {
			continue
		}
		d, created, err := s.registry.Ensure(agent.Descriptor{
			ID:          DiscoveredIDPrefix + agent.Slug(c.Name),
			Name:        c.Name,
			Description: c.Description,
			Color:       c.Color,
			Tools:       c.Tools,
			ServerURL:   strings.TrimRight(c.URL, "/"),
			IsActive:    true,
			Source:      agent.SourceDiscovered,
		})
		switch {
		case errors.Is(err, domain.ErrConflict):
			slog.Warn("discovered agent conflicts with a registered one", "name", c.Name, "url", c.URL, "error", err)
			continue
		case err != nil:
			return added, err
		}
		if created {
			slog.Info("agent discovered", "agent_id", d.ID, "name", d.Name, "url", d.ServerURL)
			added = append(added, d)
		}
	}
	s.metrics.RecordDiscovered(ctx, len(added))
	return added, nil
}

// probe reports whether the candidate serves an agent card. A cached card
// spares the request only for candidates that are already registered, where
// the outcome cannot register anything; every other candidate is probed over
// the network.
func (s *DiscoveryService) probe(ctx context.Context, c Candidate) bool {
	key := "card:" + strings.TrimRight(c.URL, "/")
	if s.cards != nil && s.registry.Registered(c.URL, c.Name) {
		cached, ok, err := cache.GetJSON[a2a.AgentCard](ctx, s.cards, key)
		if err != nil {
			slog.Warn("card cache read failed", "url", c.URL, "error", err)
		}
		if ok && cached.Name != "" {
			return true
		}
	}

	ctx, cancel := context.WithTimeout(ctx, s.cfg.ProbeTimeout)
	defer cancel()
	card, err := s.fetcher.FetchCard(ctx, c.URL)
	if err != nil {
		slog.Debug("discovery probe failed", "url", c.URL, "error", err)
		return false
	}

	if s.cards != nil && s.cfg.CardCacheTTL > 0 {
		if err := cache.SetJSON(ctx, s.cards, key, card, s.cfg.CardCacheTTL); err != nil {
			slog.Warn("card cache set failed", "url", c.URL, "error", err)
		}
	}
	return true
}
