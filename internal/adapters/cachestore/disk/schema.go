package disk

import (
	"time"

	"github.com/looply-app/looply-agent/internal/domain"
)

// indexSchema is the on-disk TOML shape of one version's entry index.
type indexSchema struct {
	Entries []entryRecord `toml:"entries"`
}

type entryRecord struct {
	Key       string            `toml:"key"`
	Method    string            `toml:"method"`
	URL       string            `toml:"url"`
	Status    int               `toml:"status"`
	Headers   map[string]string `toml:"headers,omitempty"`
	BodyFile  string            `toml:"body_file"`
	FetchedAt time.Time         `toml:"fetched_at"`
	Size      int               `toml:"size"`
}

func (idx *indexSchema) upsert(entry domain.CacheEntry, bodyFile string) {
	record := entryRecord{
		Key:       entry.Identity.Key(),
		Method:    entry.Identity.Method,
		URL:       entry.Identity.URL,
		Status:    entry.Response.Status,
		Headers:   entry.Response.Header,
		BodyFile:  bodyFile,
		FetchedAt: entry.Response.FetchedAt,
		Size:      len(entry.Response.Body),
	}
	for i := range idx.Entries {
		if idx.Entries[i].Key == record.Key {
			idx.Entries[i] = record
			return
		}
	}
	idx.Entries = append(idx.Entries, record)
}

func (idx *indexSchema) lookup(id domain.RequestIdentity) (entryRecord, bool) {
	key := id.Key()
	for _, record := range idx.Entries {
		if record.Key == key {
			return record, true
		}
	}
	return entryRecord{}, false
}
