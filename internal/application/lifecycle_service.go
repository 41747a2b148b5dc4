package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/looply-app/looply-agent/internal/domain"
	"github.com/looply-app/looply-agent/internal/ports"
)

// LifecycleService owns the install -> activate -> steady-state lifecycle
// of the agent and the cache version it serves. All operations here are
// serialized against each other by a single mutex; interception paths are
// deliberately not.
type LifecycleService struct {
	mu sync.Mutex

	store     ports.CacheStore
	fetcher   ports.Fetcher
	bus       *BusService
	state     *AgentState
	bootstrap []string
	logger    *slog.Logger
}

func NewLifecycleService(store ports.CacheStore, fetcher ports.Fetcher, bus *BusService, state *AgentState, bootstrap []string, logger *slog.Logger) *LifecycleService {
	if logger == nil {
		logger = slog.Default()
	}
	return &LifecycleService{
		store:     store,
		fetcher:   fetcher,
		bus:       bus,
		state:     state,
		bootstrap: bootstrap,
		logger:    logger.With("component", "lifecycle"),
	}
}

// Install fetches the whole bootstrap set and writes it into the current
// cache version. All-or-nothing: every resource is fetched before anything
// is stored, and a failed store write rolls the new version back, so a
// failed install leaves any previous version untouched.
func (s *LifecycleService) Install(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	version := s.state.Version()
	entries := make([]domain.CacheEntry, 0, len(s.bootstrap))
	for _, path := range s.bootstrap {
		resp, err := s.fetcher.Fetch(ctx, "GET", path, nil)
		if err != nil {
			return fmt.Errorf("fetch bootstrap resource %q: %w", path, err)
		}
		if !domain.CacheableOutcome(resp.Status) {
			return fmt.Errorf("fetch bootstrap resource %q: unexpected status %d", path, resp.Status)
		}
		id, err := domain.NormalizeIdentity("GET", path)
		if err != nil {
			return fmt.Errorf("normalize bootstrap resource %q: %w", path, err)
		}
		entries = append(entries, domain.CacheEntry{Identity: id, Response: resp})
	}

	if err := s.store.Open(ctx, version); err != nil {
		return fmt.Errorf("open cache version %q: %w", version, err)
	}
	for _, entry := range entries {
		if err := s.store.Put(ctx, version, entry); err != nil {
			if rollbackErr := s.store.DeleteVersion(ctx, version); rollbackErr != nil {
				return fmt.Errorf("populate cache version %q and rollback: %w", version, errors.Join(err, rollbackErr))
			}
			return fmt.Errorf("populate cache version %q: %w", version, err)
		}
	}

	s.logger.Info("installed", "version", version, "bootstrap_resources", len(entries))
	return nil
}

// Activate makes the current version the only one: every other stored
// version is deleted unconditionally, then all open clients are claimed so
// this instance serves them without a reload.
func (s *LifecycleService) Activate(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	current := s.state.Version()
	versions, err := s.store.Versions(ctx)
	if err != nil {
		return fmt.Errorf("enumerate cache versions: %w", err)
	}
	for _, version := range versions {
		if version == current {
			continue
		}
		if err := s.store.DeleteVersion(ctx, version); err != nil {
			return fmt.Errorf("evict cache version %q: %w", version, err)
		}
		s.logger.Info("evicted stale cache version", "version", version)
	}

	if s.bus != nil {
		if err := s.bus.Claim(ctx); err != nil {
			return fmt.Errorf("claim clients: %w", err)
		}
	}

	s.logger.Info("activated", "version", current)
	return nil
}

// CacheURLs pre-fetches the listed URLs into the current version. Each URL
// is independent: one failure is logged and does not abort the rest.
func (s *LifecycleService) CacheURLs(ctx context.Context, urls []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	version := s.state.Version()
	if err := s.store.Open(ctx, version); err != nil {
		return fmt.Errorf("open cache version %q: %w", version, err)
	}

	var failed int
	for _, rawURL := range urls {
		if err := s.cacheOne(ctx, version, rawURL); err != nil {
			failed++
			s.logger.Warn("pre-cache url", "url", rawURL, "error", err)
		}
	}
	if failed == len(urls) && len(urls) > 0 {
		return fmt.Errorf("pre-cache: all %d urls failed", failed)
	}
	return nil
}

func (s *LifecycleService) cacheOne(ctx context.Context, version domain.CacheVersion, rawURL string) error {
	if !domain.Cacheable("GET", rawURL) {
		return domain.ErrNotCacheable
	}
	resp, err := s.fetcher.Fetch(ctx, "GET", rawURL, nil)
	if err != nil {
		return fmt.Errorf("fetch: %w", err)
	}
	if !domain.CacheableOutcome(resp.Status) {
		return fmt.Errorf("unexpected status %d", resp.Status)
	}
	id, err := domain.NormalizeIdentity("GET", rawURL)
	if err != nil {
		return err
	}
	if err := s.store.Put(ctx, version, domain.CacheEntry{Identity: id, Response: resp}); err != nil {
		return fmt.Errorf("store: %w", err)
	}
	return nil
}

// ClearAll deletes every stored entry. Superseded versions are removed
// outright; the current version is re-created empty so interception
// write-back keeps repopulating it lazily.
func (s *LifecycleService) ClearAll(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	versions, err := s.store.Versions(ctx)
	if err != nil {
		return fmt.Errorf("enumerate cache versions: %w", err)
	}
	for _, version := range versions {
		if err := s.store.DeleteVersion(ctx, version); err != nil {
			return fmt.Errorf("delete cache version %q: %w", version, err)
		}
	}

	current := s.state.Version()
	if err := s.store.Open(ctx, current); err != nil {
		return fmt.Errorf("reopen cache version %q: %w", current, err)
	}
	s.logger.Info("cleared all cache versions", "deleted", len(versions))
	return nil
}
