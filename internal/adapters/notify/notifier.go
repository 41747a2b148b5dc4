// Package notify surfaces notifications on the host. The shipped adapter
// writes structured log records; the platform-specific display surface
// (desktop toasts, a tray icon) plugs in behind the same port.
package notify

import (
	"context"
	"log/slog"

	"github.com/looply-app/looply-agent/internal/domain"
	"github.com/looply-app/looply-agent/internal/ports"
)

type LogNotifier struct {
	logger *slog.Logger
}

var _ ports.Notifier = (*LogNotifier)(nil)

func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogNotifier{logger: logger.With("component", "notify")}
}

func (n *LogNotifier) Display(ctx context.Context, id string, d domain.NotificationDescriptor) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	n.logger.Info("notification",
		"id", id,
		"title", d.Title,
		"body", d.Body,
		"tag", d.Tag,
		"actions", len(d.Actions),
		"silent", d.Silent,
	)
	return nil
}
