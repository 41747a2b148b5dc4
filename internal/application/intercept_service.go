package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"

	"github.com/looply-app/looply-agent/internal/domain"
	"github.com/looply-app/looply-agent/internal/ports"
)

// InterceptRequest is one intercepted outbound read request, reduced to
// the fields the caching policy needs.
type InterceptRequest struct {
	Method    string
	URL       string
	Header    map[string]string
	Accept    string
	FetchMode string
	FetchDest string
}

// InterceptService applies the cache-first-with-network-fallback policy to
// every intercepted request. It never lets a call fail silently: failures
// either degrade per request intent or propagate to the caller.
type InterceptService struct {
	store       ports.CacheStore
	fetcher     ports.Fetcher
	state       *AgentState
	offlinePath string
	clock       ports.Clock
	logger      *slog.Logger
}

func NewInterceptService(store ports.CacheStore, fetcher ports.Fetcher, state *AgentState, offlinePath string, clock ports.Clock, logger *slog.Logger) *InterceptService {
	if clock == nil {
		clock = ports.SystemClock{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &InterceptService{
		store:       store,
		fetcher:     fetcher,
		state:       state,
		offlinePath: offlinePath,
		clock:       clock,
		logger:      logger.With("component", "intercept"),
	}
}

// Handle resolves one intercepted request, strict order, short-circuit on
// first success:
//
//  1. non-cacheable requests pass through to the network untouched;
//  2. a cache hit returns immediately with no network attempt;
//  3. a network success is written back to the cache and returned;
//  4. a network failure degrades by intent: navigation gets the offline
//     page, images get a placeholder, everything else propagates.
func (s *InterceptService) Handle(ctx context.Context, req InterceptRequest) (domain.CachedResponse, error) {
	if !domain.Cacheable(req.Method, req.URL) {
		resp, err := s.fetcher.Fetch(ctx, req.Method, req.URL, req.Header)
		if err != nil {
			return domain.CachedResponse{}, fmt.Errorf("pass through %s %s: %w", req.Method, req.URL, err)
		}
		return resp, nil
	}

	id, err := domain.NormalizeIdentity(req.Method, req.URL)
	if err != nil {
		return domain.CachedResponse{}, err
	}
	version := s.state.Version()

	if cached, err := s.store.Get(ctx, version, id); err == nil {
		return cached, nil
	} else if !errors.Is(err, domain.ErrCacheEntryNotFound) && !errors.Is(err, domain.ErrVersionNotFound) {
		s.logger.Warn("cache lookup", "key", id.Key(), "error", err)
	}

	resp, err := s.fetcher.Fetch(ctx, req.Method, req.URL, req.Header)
	if err != nil {
		return s.degrade(ctx, req, version, err)
	}

	if domain.CacheableOutcome(resp.Status) {
		resp.FetchedAt = s.clock.Now()
		if err := s.store.Put(ctx, version, domain.CacheEntry{Identity: id, Response: resp}); err != nil {
			// Cache write failure must not fail the fetch itself.
			s.logger.Warn("cache write-back", "key", id.Key(), "error", err)
		}
	}
	return resp, nil
}

func (s *InterceptService) degrade(ctx context.Context, req InterceptRequest, version domain.CacheVersion, cause error) (domain.CachedResponse, error) {
	intent := domain.ClassifyIntent(req.Method, urlPath(req.URL), req.Accept, req.FetchMode, req.FetchDest)
	switch intent {
	case domain.IntentNavigation:
		s.logger.Info("network down, serving offline page", "url", req.URL)
		return s.offlinePage(ctx, version), nil
	case domain.IntentImage:
		s.logger.Info("network down, serving placeholder image", "url", req.URL)
		return domain.CachedResponse{
			Status:    200,
			Header:    map[string]string{"Content-Type": domain.PlaceholderImageContentType},
			Body:      domain.PlaceholderImage(),
			FetchedAt: s.clock.Now(),
		}, nil
	default:
		return domain.CachedResponse{}, fmt.Errorf("fetch %s %s: %w", req.Method, req.URL, cause)
	}
}

// urlPath strips query and fragment so extension-based classification sees
// the bare path.
func urlPath(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	return u.Path
}

func (s *InterceptService) offlinePage(ctx context.Context, version domain.CacheVersion) domain.CachedResponse {
	if id, err := domain.NormalizeIdentity("GET", s.offlinePath); err == nil {
		if cached, err := s.store.Get(ctx, version, id); err == nil {
			return cached
		}
	}
	return domain.CachedResponse{
		Status:    200,
		Header:    map[string]string{"Content-Type": "text/html; charset=utf-8"},
		Body:      domain.OfflineFallbackDocument(),
		FetchedAt: s.clock.Now(),
	}
}
