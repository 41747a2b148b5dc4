package ports

import (
	"context"

	"github.com/looply-app/looply-agent/internal/domain"
)

// ClientKind distinguishes window clients (focusable, navigable) from
// auxiliary ones.
type ClientKind string

const (
	ClientWindow ClientKind = "window"
	ClientWorker ClientKind = "worker"
)

// ClientInfo describes one live foreground client.
type ClientInfo struct {
	ID         string
	Kind       ClientKind
	URL        string
	Controlled bool
}

// ClientBus enumerates live foreground clients and delivers control
// messages to them. Send returns domain.ErrClientNotFound when the client
// has since gone away; enumeration includes clients not yet controlled by
// this agent instance.
type ClientBus interface {
	List(ctx context.Context) ([]ClientInfo, error)
	Send(ctx context.Context, clientID string, msg domain.ControlMessage) error
	// Focus brings a window client to the foreground. Best effort.
	Focus(ctx context.Context, clientID string) error
	// OpenWindow opens a new window client at url. Best effort.
	OpenWindow(ctx context.Context, url string) error
	// Claim takes control of every live client without a reload.
	Claim(ctx context.Context) error
}
