package ports

import (
	"context"

	"github.com/looply-app/looply-agent/internal/domain"
)

// Fetcher performs the actual network call for an intercepted request.
// A transport-level failure (unreachable, timeout) is an error; an HTTP
// error status is a successful fetch whose Status says so.
type Fetcher interface {
	Fetch(ctx context.Context, method, url string, header map[string]string) (domain.CachedResponse, error)
}
