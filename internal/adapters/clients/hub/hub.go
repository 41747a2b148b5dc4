// Package hub tracks live foreground clients and fans control messages out
// to them. Clients register by holding an event stream open against the
// agent; deregistration is implicit when the stream closes.
package hub

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/looply-app/looply-agent/internal/domain"
	"github.com/looply-app/looply-agent/internal/ports"
)

// sendBuffer bounds each client's in-flight message queue. A client that
// stopped draining its stream fails Send instead of blocking the agent.
const sendBuffer = 16

type client struct {
	info ports.ClientInfo
	ch   chan domain.ControlMessage
}

type Hub struct {
	mu      sync.RWMutex
	clients map[string]*client
	opener  func(url string) error
	logger  *slog.Logger
}

var _ ports.ClientBus = (*Hub)(nil)

// New creates a hub. opener is invoked when FocusOrOpen finds no window
// client; nil means opening new windows is unavailable on this host.
func New(opener func(url string) error, logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		clients: make(map[string]*client),
		opener:  opener,
		logger:  logger.With("component", "hub"),
	}
}

// Register adds a client and returns its (possibly minted) identity, the
// message stream to drain, and a deregistration func.
func (h *Hub) Register(info ports.ClientInfo) (ports.ClientInfo, <-chan domain.ControlMessage, func()) {
	if info.ID == "" {
		info.ID = uuid.NewString()
	}
	if info.Kind == "" {
		info.Kind = ports.ClientWindow
	}

	c := &client{info: info, ch: make(chan domain.ControlMessage, sendBuffer)}

	h.mu.Lock()
	h.clients[info.ID] = c
	h.mu.Unlock()

	h.logger.Info("client registered", "client_id", info.ID, "kind", info.Kind, "url", info.URL)

	var once sync.Once
	deregister := func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.clients, info.ID)
			h.mu.Unlock()
			close(c.ch)
			h.logger.Info("client gone", "client_id", info.ID)
		})
	}
	return info, c.ch, deregister
}

func (h *Hub) List(ctx context.Context) ([]ports.ClientInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	infos := make([]ports.ClientInfo, 0, len(h.clients))
	for _, c := range h.clients {
		infos = append(infos, c.info)
	}
	return infos, nil
}

func (h *Hub) Send(ctx context.Context, clientID string, msg domain.ControlMessage) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	h.mu.RLock()
	c, ok := h.clients[clientID]
	h.mu.RUnlock()
	if !ok {
		return domain.ErrClientNotFound
	}

	select {
	case c.ch <- msg:
		if url, ok := navigateTarget(msg); ok {
			// The client routes to the delivered target; track it so
			// later location comparisons see where it was sent.
			h.updateURL(clientID, url)
		}
		return nil
	default:
		return fmt.Errorf("client %s stream is full", clientID)
	}
}

func navigateTarget(msg domain.ControlMessage) (string, bool) {
	if msg.Type != domain.MessageNavigate {
		return "", false
	}
	data, ok := msg.Data.(map[string]any)
	if !ok {
		return "", false
	}
	url, ok := data["url"].(string)
	return url, ok
}

// Focus brings a window client to the foreground. The hub has no window
// manager; the client reacts to being singled out on its stream, so focus
// succeeds as long as the client is still live.
func (h *Hub) Focus(ctx context.Context, clientID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	h.mu.RLock()
	_, ok := h.clients[clientID]
	h.mu.RUnlock()
	if !ok {
		return domain.ErrClientNotFound
	}
	h.logger.Debug("focus client", "client_id", clientID)
	return nil
}

func (h *Hub) OpenWindow(ctx context.Context, url string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if h.opener == nil {
		h.logger.Warn("no window opener configured", "url", url)
		return nil
	}
	if err := h.opener(url); err != nil {
		return fmt.Errorf("open window at %q: %w", url, err)
	}
	return nil
}

// Claim marks every live client as controlled by this agent instance.
func (h *Hub) Claim(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	for _, c := range h.clients {
		c.info.Controlled = true
	}
	return nil
}

func (h *Hub) updateURL(clientID, url string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if c, ok := h.clients[clientID]; ok {
		c.info.URL = url
	}
}
