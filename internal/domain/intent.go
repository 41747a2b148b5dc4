package domain

import (
	"path"
	"strings"
)

// RequestIntent classifies an intercepted request for fallback purposes.
// Navigation and image requests degrade gracefully when the network is
// down; everything else must surface the failure.
type RequestIntent int

const (
	IntentOther RequestIntent = iota
	IntentNavigation
	IntentImage
)

func (i RequestIntent) String() string {
	switch i {
	case IntentNavigation:
		return "navigation"
	case IntentImage:
		return "image"
	default:
		return "other"
	}
}

var imageExtensions = map[string]bool{
	".avif": true,
	".gif":  true,
	".ico":  true,
	".jpeg": true,
	".jpg":  true,
	".png":  true,
	".svg":  true,
	".webp": true,
}

// ClassifyIntent determines the request intent from the fetch metadata
// browsers attach to requests, falling back to the Accept header and the
// URL extension when the Sec-Fetch-Dest hint is absent.
func ClassifyIntent(method, urlPath, accept, fetchMode, fetchDest string) RequestIntent {
	if strings.ToUpper(method) != "GET" {
		return IntentOther
	}

	switch fetchDest {
	case "document":
		return IntentNavigation
	case "image":
		return IntentImage
	}
	if fetchMode == "navigate" {
		return IntentNavigation
	}

	if strings.Contains(accept, "text/html") {
		return IntentNavigation
	}
	if strings.HasPrefix(accept, "image/") {
		return IntentImage
	}
	if imageExtensions[strings.ToLower(path.Ext(urlPath))] {
		return IntentImage
	}

	return IntentOther
}

// PlaceholderImageContentType is the media type of PlaceholderImage.
const PlaceholderImageContentType = "image/svg+xml"

// PlaceholderImage returns the degraded response body for image requests
// that cannot reach the network: fixed dimensions, neutral fill, a
// human-readable offline label.
func PlaceholderImage() []byte {
	return []byte(`<svg xmlns="http://www.w3.org/2000/svg" width="400" height="300" viewBox="0 0 400 300">` +
		`<rect width="400" height="300" fill="#E5E7EB"/>` +
		`<text x="200" y="150" text-anchor="middle" dominant-baseline="middle" ` +
		`font-family="sans-serif" font-size="20" fill="#6B7280">Offline</text>` +
		`</svg>`)
}

// OfflineFallbackDocument is served for navigation requests when the
// network is down and no offline page was ever cached. Last resort: the
// cached /offline.html is always preferred.
func OfflineFallbackDocument() []byte {
	return []byte(`<!doctype html><html><head><meta charset="utf-8"><title>Looply - Offline</title></head>` +
		`<body><h1>You are offline</h1><p>Looply needs a network connection for this page. ` +
		`Previously viewed content is still available.</p></body></html>`)
}
