package application

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/looply-app/looply-agent/internal/domain"
	"github.com/looply-app/looply-agent/internal/ports"
)

// BusService is the client messaging bus: fan-out to live clients,
// focus-or-open, single delivery. Per-client failures are logged and never
// abort delivery to remaining clients.
type BusService struct {
	bus    ports.ClientBus
	logger *slog.Logger
}

func NewBusService(bus ports.ClientBus, logger *slog.Logger) *BusService {
	if logger == nil {
		logger = slog.Default()
	}
	return &BusService{bus: bus, logger: logger.With("component", "bus")}
}

// Broadcast posts msg to every live client, including ones not controlled
// by this agent instance.
func (s *BusService) Broadcast(ctx context.Context, msg domain.ControlMessage) {
	clients, err := s.bus.List(ctx)
	if err != nil {
		s.logger.Error("enumerate clients for broadcast", "type", msg.Type, "error", err)
		return
	}
	for _, client := range clients {
		if err := s.bus.Send(ctx, client.ID, msg); err != nil {
			s.logger.Warn("post message to client", "type", msg.Type, "client_id", client.ID, "error", err)
		}
	}
}

// FocusOrOpen brings an existing window client to url, or opens a new one.
// If the focused client is already at url no navigation is sent; otherwise
// it navigates in place rather than hard-reloading. Best effort.
func (s *BusService) FocusOrOpen(ctx context.Context, url string) {
	clients, err := s.bus.List(ctx)
	if err != nil {
		s.logger.Error("enumerate clients for focus", "url", url, "error", err)
		return
	}

	for _, client := range clients {
		if client.Kind != ports.ClientWindow {
			continue
		}
		if err := s.bus.Focus(ctx, client.ID); err != nil {
			s.logger.Warn("focus client", "client_id", client.ID, "error", err)
		}
		if client.URL != url {
			if err := s.bus.Send(ctx, client.ID, domain.NavigateMessage(url)); err != nil {
				s.logger.Warn("navigate client", "client_id", client.ID, "url", url, "error", err)
			}
		}
		return
	}

	if err := s.bus.OpenWindow(ctx, url); err != nil {
		s.logger.Warn("open window", "url", url, "error", err)
	}
}

// DeliverToFirst posts msg to the first available live client only.
// Returns domain.ErrNoClients when none could take delivery.
func (s *BusService) DeliverToFirst(ctx context.Context, msg domain.ControlMessage) error {
	clients, err := s.bus.List(ctx)
	if err != nil {
		return fmt.Errorf("enumerate clients: %w", err)
	}
	for _, client := range clients {
		if err := s.bus.Send(ctx, client.ID, msg); err != nil {
			s.logger.Warn("deliver to client", "type", msg.Type, "client_id", client.ID, "error", err)
			continue
		}
		return nil
	}
	return domain.ErrNoClients
}

// Claim takes control of all open clients for this agent instance.
func (s *BusService) Claim(ctx context.Context) error {
	return s.bus.Claim(ctx)
}
