package ports

import (
	"context"

	"github.com/looply-app/looply-agent/internal/domain"
)

// CacheStore is the versioned response cache. Entries within a version are
// append-only (last write wins on the same key); versions are deleted
// wholesale when superseded.
type CacheStore interface {
	// Open creates the version if it does not exist yet.
	Open(ctx context.Context, version domain.CacheVersion) error
	// Put returns domain.ErrVersionNotFound when the version was never
	// opened (or has since been deleted); it never creates versions.
	Put(ctx context.Context, version domain.CacheVersion, entry domain.CacheEntry) error
	// Get returns domain.ErrCacheEntryNotFound on a miss.
	Get(ctx context.Context, version domain.CacheVersion, id domain.RequestIdentity) (domain.CachedResponse, error)
	Versions(ctx context.Context) ([]domain.CacheVersion, error)
	DeleteVersion(ctx context.Context, version domain.CacheVersion) error
}
