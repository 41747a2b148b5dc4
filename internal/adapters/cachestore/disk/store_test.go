package disk

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/looply-app/looply-agent/internal/domain"
)

const version = domain.CacheVersion("looply-static-v1")

func newTestStore(t *testing.T) *Store {
	t.Helper()

	store, err := NewStore(filepath.Join(t.TempDir(), "cache"))
	require.NoError(t, err)
	return store
}

func entry(t *testing.T, url, body string) domain.CacheEntry {
	t.Helper()

	id, err := domain.NormalizeIdentity("GET", url)
	require.NoError(t, err)
	return domain.CacheEntry{
		Identity: id,
		Response: domain.CachedResponse{
			Status:    200,
			Header:    map[string]string{"Content-Type": "text/html", "ETag": `"abc"`},
			Body:      []byte(body),
			FetchedAt: time.Date(2026, 8, 20, 10, 0, 0, 0, time.UTC),
		},
	}
}

func TestStoreRoundTrip(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, store.Open(ctx, version))

	e := entry(t, "/post/42", "<html>a post</html>")
	require.NoError(t, store.Put(ctx, version, e))

	got, err := store.Get(ctx, version, e.Identity)
	require.NoError(t, err)
	assert.Equal(t, 200, got.Status)
	assert.Equal(t, e.Response.Header, got.Header)
	assert.Equal(t, e.Response.Body, got.Body)
	assert.True(t, e.Response.FetchedAt.Equal(got.FetchedAt))
}

func TestStoreOverwriteSameKey(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, store.Open(ctx, version))

	require.NoError(t, store.Put(ctx, version, entry(t, "/feed", "old")))
	require.NoError(t, store.Put(ctx, version, entry(t, "/feed", "new")))

	id, err := domain.NormalizeIdentity("GET", "/feed")
	require.NoError(t, err)
	got, err := store.Get(ctx, version, id)
	require.NoError(t, err)
	assert.Equal(t, "new", string(got.Body))
}

func TestStoreMisses(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, store.Open(ctx, version))

	id, err := domain.NormalizeIdentity("GET", "/nope")
	require.NoError(t, err)

	_, err = store.Get(ctx, version, id)
	assert.ErrorIs(t, err, domain.ErrCacheEntryNotFound)

	_, err = store.Get(ctx, "unknown-version", id)
	assert.ErrorIs(t, err, domain.ErrVersionNotFound)
}

func TestStorePutIntoMissingVersion(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	err := store.Put(context.Background(), "never-opened", entry(t, "/a", "x"))
	assert.ErrorIs(t, err, domain.ErrVersionNotFound)
}

func TestStoreVersionsAndDelete(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, store.Open(ctx, "v1"))
	require.NoError(t, store.Open(ctx, "v2"))

	versions, err := store.Versions(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []domain.CacheVersion{"v1", "v2"}, versions)

	require.NoError(t, store.DeleteVersion(ctx, "v1"))
	versions, err = store.Versions(ctx)
	require.NoError(t, err)
	assert.Equal(t, []domain.CacheVersion{"v2"}, versions)

	// Deleting an absent version is a no-op.
	require.NoError(t, store.DeleteVersion(ctx, "v1"))
}

func TestStoreVersionTagsWithPathSyntax(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	ctx := context.Background()
	odd := domain.CacheVersion("looply/v1:beta")

	require.NoError(t, store.Open(ctx, odd))
	require.NoError(t, store.Put(ctx, odd, entry(t, "/a", "x")))

	versions, err := store.Versions(ctx)
	require.NoError(t, err)
	assert.Equal(t, []domain.CacheVersion{odd}, versions)

	id, err := domain.NormalizeIdentity("GET", "/a")
	require.NoError(t, err)
	got, err := store.Get(ctx, odd, id)
	require.NoError(t, err)
	assert.Equal(t, "x", string(got.Body))
}

func TestStoreBodiesAreCompressedOnDisk(t *testing.T) {
	t.Parallel()

	root := filepath.Join(t.TempDir(), "cache")
	store, err := NewStore(root)
	require.NoError(t, err)
	ctx := context.Background()
	require.NoError(t, store.Open(ctx, version))
	require.NoError(t, store.Put(ctx, version, entry(t, "/big", string(make([]byte, 64<<10)))))

	objects, err := os.ReadDir(filepath.Join(root, string(version), objectsDir))
	require.NoError(t, err)
	require.Len(t, objects, 1)
	info, err := objects[0].Info()
	require.NoError(t, err)
	assert.Less(t, info.Size(), int64(64<<10))
}

func TestStoreSharedLockAcrossInstances(t *testing.T) {
	t.Parallel()

	root := filepath.Join(t.TempDir(), "cache")
	a, err := NewStore(root)
	require.NoError(t, err)
	b, err := NewStore(root)
	require.NoError(t, err)
	assert.Same(t, a.mu, b.mu)
}
