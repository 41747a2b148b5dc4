package ports

import (
	"context"

	"github.com/looply-app/looply-agent/internal/domain"
)

// Notifier surfaces a decoded notification through the platform facility.
// Display must not return before the notification is actually shown; the
// push handler keeps its event alive until then.
type Notifier interface {
	Display(ctx context.Context, id string, descriptor domain.NotificationDescriptor) error
}
