package domain

import "errors"

var (
	ErrCacheEntryNotFound  = errors.New("cache entry not found")
	ErrVersionNotFound     = errors.New("cache version not found")
	ErrNotCacheable        = errors.New("request is not cacheable")
	ErrNotProxyable        = errors.New("request target is not proxyable")
	ErrNoClients           = errors.New("no live clients")
	ErrClientNotFound      = errors.New("client not found")
	ErrUnknownMessageType  = errors.New("unknown control message type")
	ErrNotificationUnknown = errors.New("notification not found")
)
