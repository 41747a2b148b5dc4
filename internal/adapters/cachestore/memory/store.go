// Package memory holds cache versions in process memory. Used by tests and
// ephemeral runs; nothing survives a restart.
package memory

import (
	"context"
	"maps"
	"sync"

	"github.com/looply-app/looply-agent/internal/domain"
	"github.com/looply-app/looply-agent/internal/ports"
)

type Store struct {
	mu       sync.RWMutex
	versions map[domain.CacheVersion]map[string]domain.CacheEntry
}

var _ ports.CacheStore = (*Store)(nil)

func NewStore() *Store {
	return &Store{versions: make(map[domain.CacheVersion]map[string]domain.CacheEntry)}
}

func (s *Store) Open(ctx context.Context, version domain.CacheVersion) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.versions[version]; !ok {
		s.versions[version] = make(map[string]domain.CacheEntry)
	}
	return nil
}

func (s *Store) Put(ctx context.Context, version domain.CacheVersion, entry domain.CacheEntry) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	entries, ok := s.versions[version]
	if !ok {
		return domain.ErrVersionNotFound
	}
	entries[entry.Identity.Key()] = entry
	return nil
}

func (s *Store) Get(ctx context.Context, version domain.CacheVersion, id domain.RequestIdentity) (domain.CachedResponse, error) {
	if err := ctx.Err(); err != nil {
		return domain.CachedResponse{}, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	entries, ok := s.versions[version]
	if !ok {
		return domain.CachedResponse{}, domain.ErrVersionNotFound
	}
	entry, ok := entries[id.Key()]
	if !ok {
		return domain.CachedResponse{}, domain.ErrCacheEntryNotFound
	}
	return entry.Response, nil
}

func (s *Store) Versions(ctx context.Context) ([]domain.CacheVersion, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	versions := make([]domain.CacheVersion, 0, len(s.versions))
	for version := range maps.Keys(s.versions) {
		versions = append(versions, version)
	}
	return versions, nil
}

func (s *Store) DeleteVersion(ctx context.Context, version domain.CacheVersion) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.versions, version)
	return nil
}
