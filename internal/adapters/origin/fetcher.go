// Package origin performs real network fetches against the Looply origin
// server on behalf of the interceptor.
package origin

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/looply-app/looply-agent/internal/domain"
	"github.com/looply-app/looply-agent/internal/ports"
)

// maxBodyBytes caps how much of a response the agent will buffer and
// cache. Larger bodies fail the fetch rather than exhausting memory.
const maxBodyBytes = 32 << 20

type Fetcher struct {
	base   *url.URL
	client *http.Client
	logger *slog.Logger
}

var _ ports.Fetcher = (*Fetcher)(nil)

func NewFetcher(baseURL string, timeout time.Duration, logger *slog.Logger) (*Fetcher, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse origin url: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("origin url %q: unsupported scheme %q", baseURL, base.Scheme)
	}
	if logger == nil {
		logger = slog.Default()
	}

	transport := &http.Transport{
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:          32,
		MaxIdleConnsPerHost:   8,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}

	return &Fetcher{
		base:   base,
		client: &http.Client{Transport: transport, Timeout: timeout},
		logger: logger.With("component", "origin"),
	}, nil
}

// Fetch issues the request, resolving origin-relative paths against the
// configured base. Transport failures and timeouts surface as errors; HTTP
// error statuses are returned as responses.
func (f *Fetcher) Fetch(ctx context.Context, method, rawURL string, header map[string]string) (domain.CachedResponse, error) {
	target, err := f.resolve(rawURL)
	if err != nil {
		return domain.CachedResponse{}, err
	}

	req, err := http.NewRequestWithContext(ctx, strings.ToUpper(method), target, nil)
	if err != nil {
		return domain.CachedResponse{}, fmt.Errorf("build origin request: %w", err)
	}
	for name, value := range header {
		req.Header.Set(name, value)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return domain.CachedResponse{}, fmt.Errorf("origin fetch %s %s: %w", method, target, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes+1))
	if err != nil {
		return domain.CachedResponse{}, fmt.Errorf("read origin response: %w", err)
	}
	if len(body) > maxBodyBytes {
		return domain.CachedResponse{}, fmt.Errorf("origin response for %s exceeds %d bytes", target, maxBodyBytes)
	}

	headers := make(map[string]string, len(resp.Header))
	for name := range resp.Header {
		headers[name] = resp.Header.Get(name)
	}

	return domain.CachedResponse{
		Status:    resp.StatusCode,
		Header:    headers,
		Body:      body,
		FetchedAt: time.Now(),
	}, nil
}

func (f *Fetcher) resolve(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("parse fetch url: %w", err)
	}
	if u.Scheme == "" {
		return f.base.ResolveReference(u).String(), nil
	}
	return u.String(), nil
}
