// Package disk persists cache versions on the filesystem: one directory
// per version holding a TOML index and gzip-compressed response bodies.
// Writes are atomic (temp file then rename) so a killed agent never leaves
// a torn index behind.
package disk

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/klauspost/compress/gzip"
	toml "github.com/pelletier/go-toml/v2"

	"github.com/looply-app/looply-agent/internal/domain"
	"github.com/looply-app/looply-agent/internal/ports"
)

const (
	storeDirMode  = 0o700
	storeFileMode = 0o600

	indexFile  = "index.toml"
	objectsDir = "objects"

	indexTempPattern = ".index-*.toml.tmp"
	bodyTempPattern  = ".body-*.gz.tmp"
)

type Store struct {
	root string
	mu   *sync.RWMutex
}

var _ ports.CacheStore = (*Store)(nil)

// One lock per root path: two Store values pointed at the same directory
// share a mutex, mirroring the on-disk reality.
var (
	lockRegistryMu sync.Mutex
	rootLockMap    = map[string]*sync.RWMutex{}
)

func lockForRoot(root string) *sync.RWMutex {
	lockRegistryMu.Lock()
	defer lockRegistryMu.Unlock()

	if lock, ok := rootLockMap[root]; ok {
		return lock
	}
	lock := &sync.RWMutex{}
	rootLockMap[root] = lock
	return lock
}

func NewStore(root string) (*Store, error) {
	root = filepath.Clean(root)
	if err := os.MkdirAll(root, storeDirMode); err != nil {
		return nil, fmt.Errorf("create cache root: %w", err)
	}
	return &Store{root: root, mu: lockForRoot(root)}, nil
}

func (s *Store) Open(ctx context.Context, version domain.CacheVersion) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	dir, err := s.versionDir(version)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(filepath.Join(dir, objectsDir), storeDirMode); err != nil {
		return fmt.Errorf("create cache version %q: %w", version, err)
	}
	return nil
}

func (s *Store) Put(ctx context.Context, version domain.CacheVersion, entry domain.CacheEntry) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	dir, err := s.versionDir(version)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := os.Stat(dir); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return domain.ErrVersionNotFound
		}
		return fmt.Errorf("stat cache version %q: %w", version, err)
	}

	bodyName := objectName(entry.Identity)
	if err := writeBody(filepath.Join(dir, objectsDir), bodyName, entry.Response.Body); err != nil {
		return fmt.Errorf("write cached body: %w", err)
	}

	index, err := readIndex(dir)
	if err != nil {
		return err
	}
	index.upsert(entry, bodyName)
	if err := writeIndex(dir, index); err != nil {
		return err
	}
	return nil
}

func (s *Store) Get(ctx context.Context, version domain.CacheVersion, id domain.RequestIdentity) (domain.CachedResponse, error) {
	if err := ctx.Err(); err != nil {
		return domain.CachedResponse{}, err
	}

	dir, err := s.versionDir(version)
	if err != nil {
		return domain.CachedResponse{}, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, err := os.Stat(dir); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return domain.CachedResponse{}, domain.ErrVersionNotFound
		}
		return domain.CachedResponse{}, fmt.Errorf("stat cache version %q: %w", version, err)
	}

	index, err := readIndex(dir)
	if err != nil {
		return domain.CachedResponse{}, err
	}
	record, ok := index.lookup(id)
	if !ok {
		return domain.CachedResponse{}, domain.ErrCacheEntryNotFound
	}

	body, err := readBody(filepath.Join(dir, objectsDir, record.BodyFile))
	if err != nil {
		return domain.CachedResponse{}, fmt.Errorf("read cached body: %w", err)
	}

	return domain.CachedResponse{
		Status:    record.Status,
		Header:    record.Headers,
		Body:      body,
		FetchedAt: record.FetchedAt,
	}, nil
}

func (s *Store) Versions(ctx context.Context) ([]domain.CacheVersion, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	dirEntries, err := os.ReadDir(s.root)
	if err != nil {
		return nil, fmt.Errorf("read cache root: %w", err)
	}

	var versions []domain.CacheVersion
	for _, dirEntry := range dirEntries {
		if !dirEntry.IsDir() {
			continue
		}
		name, err := decodeVersionDir(dirEntry.Name())
		if err != nil {
			continue
		}
		versions = append(versions, name)
	}
	return versions, nil
}

func (s *Store) DeleteVersion(ctx context.Context, version domain.CacheVersion) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	dir, err := s.versionDir(version)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("delete cache version %q: %w", version, err)
	}
	return nil
}

func (s *Store) versionDir(version domain.CacheVersion) (string, error) {
	if version == "" {
		return "", fmt.Errorf("empty cache version")
	}
	return filepath.Join(s.root, encodeVersionDir(version)), nil
}

// Version tags are opaque strings; hex-armor anything that could collide
// with path syntax so every tag maps to exactly one directory name.
func encodeVersionDir(version domain.CacheVersion) string {
	safe := true
	for _, r := range version {
		if !(r == '-' || r == '.' || r == '_' ||
			(r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')) {
			safe = false
			break
		}
	}
	if safe && !strings.HasPrefix(string(version), "x-") && version != "." && version != ".." {
		return string(version)
	}
	return "x-" + hex.EncodeToString([]byte(version))
}

func decodeVersionDir(name string) (domain.CacheVersion, error) {
	if encoded, ok := strings.CutPrefix(name, "x-"); ok {
		raw, err := hex.DecodeString(encoded)
		if err != nil {
			return "", fmt.Errorf("decode version directory %q: %w", name, err)
		}
		return domain.CacheVersion(raw), nil
	}
	return domain.CacheVersion(name), nil
}

func objectName(id domain.RequestIdentity) string {
	sum := sha256.Sum256([]byte(id.Key()))
	return hex.EncodeToString(sum[:16]) + ".gz"
}

func writeBody(dir, name string, body []byte) error {
	tmp, err := os.CreateTemp(dir, bodyTempPattern)
	if err != nil {
		return fmt.Errorf("create temp body file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	gz := gzip.NewWriter(tmp)
	if _, err := gz.Write(body); err != nil {
		tmp.Close()
		return fmt.Errorf("compress body: %w", err)
	}
	if err := gz.Close(); err != nil {
		tmp.Close()
		return fmt.Errorf("finish compressed body: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp body file: %w", err)
	}
	if err := os.Chmod(tmpName, storeFileMode); err != nil {
		return fmt.Errorf("chmod temp body file: %w", err)
	}
	if err := os.Rename(tmpName, filepath.Join(dir, name)); err != nil {
		return fmt.Errorf("promote body file: %w", err)
	}
	return nil
}

func readBody(path string) ([]byte, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	gz, err := gzip.NewReader(file)
	if err != nil {
		return nil, fmt.Errorf("open compressed body: %w", err)
	}
	defer gz.Close()

	body, err := io.ReadAll(gz)
	if err != nil {
		return nil, fmt.Errorf("decompress body: %w", err)
	}
	return body, nil
}

func writeIndex(dir string, index *indexSchema) error {
	encoded, err := toml.Marshal(index)
	if err != nil {
		return fmt.Errorf("encode cache index: %w", err)
	}

	tmp, err := os.CreateTemp(dir, indexTempPattern)
	if err != nil {
		return fmt.Errorf("create temp index file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(encoded); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp index file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp index file: %w", err)
	}
	if err := os.Chmod(tmpName, storeFileMode); err != nil {
		return fmt.Errorf("chmod temp index file: %w", err)
	}
	if err := os.Rename(tmpName, filepath.Join(dir, indexFile)); err != nil {
		return fmt.Errorf("promote index file: %w", err)
	}
	return nil
}

func readIndex(dir string) (*indexSchema, error) {
	raw, err := os.ReadFile(filepath.Join(dir, indexFile))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &indexSchema{}, nil
		}
		return nil, fmt.Errorf("read cache index: %w", err)
	}

	var index indexSchema
	if err := toml.Unmarshal(raw, &index); err != nil {
		return nil, fmt.Errorf("decode cache index: %w", err)
	}
	return &index, nil
}
