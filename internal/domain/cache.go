package domain

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

// CacheVersion identifies one generation of the cache. Exactly one version
// is current at any time; superseded versions are deleted wholesale on
// activation.
type CacheVersion string

// RequestIdentity is the normalized cache key for an intercepted request:
// upper-cased method plus the absolute URL with the fragment stripped.
type RequestIdentity struct {
	Method string
	URL    string
}

// Key returns the identity in its canonical string form, suitable as a map
// or index key.
func (id RequestIdentity) Key() string {
	return id.Method + " " + id.URL
}

// NormalizeIdentity canonicalizes a request into its cache identity. The
// fragment never reaches the server, so it is dropped; query strings are
// kept because distinct queries are distinct resources.
func NormalizeIdentity(method, rawURL string) (RequestIdentity, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return RequestIdentity{}, fmt.Errorf("parse request url: %w", err)
	}
	u.Fragment = ""

	return RequestIdentity{
		Method: strings.ToUpper(method),
		URL:    u.String(),
	}, nil
}

// Cacheable reports whether a request may be stored: only safe reads are
// cached, and only over the schemes this agent proxies.
func Cacheable(method, rawURL string) bool {
	m := strings.ToUpper(method)
	if m != "GET" && m != "HEAD" {
		return false
	}
	return Proxyable(rawURL)
}

// Proxyable reports whether the request target is reachable over the
// network protocol the agent manages. Non-network schemes (data:,
// chrome-extension:, file:, ...) are passed through untouched.
func Proxyable(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	switch u.Scheme {
	case "http", "https":
		return true
	case "":
		// Origin-relative path, resolved against the configured origin.
		return strings.HasPrefix(u.Path, "/")
	default:
		return false
	}
}

// CachedResponse is a stored response payload. Freshness is implicit:
// whatever the network last returned successfully.
type CachedResponse struct {
	Status    int
	Header    map[string]string
	Body      []byte
	FetchedAt time.Time
}

// CacheEntry pairs a request identity with its stored response.
type CacheEntry struct {
	Identity RequestIdentity
	Response CachedResponse
}

// CacheableOutcome reports whether a network response should be written
// back into the store. Partial and error responses are never cached.
func CacheableOutcome(status int) bool {
	return status == 200
}
