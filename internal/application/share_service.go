package application

import (
	"context"
	"log/slog"

	"github.com/looply-app/looply-agent/internal/domain"
)

// ShareService forwards OS share intents to the foreground application.
// Single delivery, first client wins. Callers complete the share exchange
// regardless of the delivery outcome; the share sheet never sees an error.
type ShareService struct {
	bus    *BusService
	logger *slog.Logger
}

func NewShareService(bus *BusService, logger *slog.Logger) *ShareService {
	if logger == nil {
		logger = slog.Default()
	}
	return &ShareService{bus: bus, logger: logger.With("component", "share")}
}

// Deliver hands the intent to the first available live client.
func (s *ShareService) Deliver(ctx context.Context, intent domain.ShareIntent) error {
	if err := s.bus.DeliverToFirst(ctx, domain.ShareTargetMessage(intent)); err != nil {
		s.logger.Warn("forward share intent", "title", intent.Title, "error", err)
		return err
	}
	s.logger.Info("share intent forwarded", "title", intent.Title, "files", len(intent.Files))
	return nil
}
