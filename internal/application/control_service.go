package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/looply-app/looply-agent/internal/domain"
)

// ControlService dispatches client->agent control messages. Unrecognized
// message types are logged and ignored so newer clients can talk to older
// agents.
type ControlService struct {
	lifecycle *LifecycleService
	bus       *BusService
	logger    *slog.Logger
}

func NewControlService(lifecycle *LifecycleService, bus *BusService, logger *slog.Logger) *ControlService {
	if logger == nil {
		logger = slog.Default()
	}
	return &ControlService{
		lifecycle: lifecycle,
		bus:       bus,
		logger:    logger.With("component", "control"),
	}
}

// Handle decodes and executes one raw control message.
func (s *ControlService) Handle(ctx context.Context, raw []byte) error {
	msg, err := domain.DecodeInbound(raw)
	if err != nil {
		if errors.Is(err, domain.ErrUnknownMessageType) {
			s.logger.Warn("ignoring control message", "error", err)
			return nil
		}
		return err
	}

	switch m := msg.(type) {
	case domain.SkipWaiting:
		if err := s.lifecycle.Activate(ctx); err != nil {
			return fmt.Errorf("skip waiting: %w", err)
		}
	case domain.ClaimClients:
		if err := s.bus.Claim(ctx); err != nil {
			return fmt.Errorf("claim clients: %w", err)
		}
	case domain.CacheURLs:
		if err := s.lifecycle.CacheURLs(ctx, m.URLs); err != nil {
			return fmt.Errorf("cache urls: %w", err)
		}
	case domain.ClearCache:
		if err := s.lifecycle.ClearAll(ctx); err != nil {
			return fmt.Errorf("clear cache: %w", err)
		}
	default:
		// DecodeInbound only returns the kinds above.
		s.logger.Warn("unhandled control message", "type", msg.MessageType())
	}
	return nil
}
