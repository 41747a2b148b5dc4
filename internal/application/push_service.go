package application

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/looply-app/looply-agent/internal/domain"
	"github.com/looply-app/looply-agent/internal/ports"
)

// displayedLimit bounds the held-notification table; oldest entries are
// evicted first. A click on an evicted notification still routes, it just
// loses the echoed data.
const displayedLimit = 256

// PushService decodes inbound push payloads, displays them, and routes
// user interaction with the resulting notifications. Displayed descriptors
// are held until clicked or closed so the interaction callbacks can
// recover the routing data.
type PushService struct {
	notifier ports.Notifier
	bus      *BusService

	mu        sync.Mutex
	displayed map[string]domain.NotificationDescriptor
	order     []string

	logger *slog.Logger
}

func NewPushService(notifier ports.Notifier, bus *BusService, logger *slog.Logger) *PushService {
	if logger == nil {
		logger = slog.Default()
	}
	return &PushService{
		notifier:  notifier,
		bus:       bus,
		displayed: make(map[string]domain.NotificationDescriptor),
		logger:    logger.With("component", "push"),
	}
}

// HandlePush decodes payload (structured first, plain text fallback) and
// displays exactly one notification. It does not return until the display
// has completed; the triggering event stays alive for the duration. A
// payload carrying data.syncTag additionally reports sync completion to
// all clients.
func (s *PushService) HandlePush(ctx context.Context, payload []byte) (string, error) {
	descriptor := domain.DecodePushPayload(payload)
	id := uuid.NewString()

	if err := s.notifier.Display(ctx, id, descriptor); err != nil {
		return "", fmt.Errorf("display notification: %w", err)
	}
	s.remember(id, descriptor)
	s.logger.Info("notification displayed", "id", id, "title", descriptor.Title, "tag", descriptor.Tag)

	if tag := syncTag(descriptor.Data); tag != "" {
		s.bus.Broadcast(ctx, domain.BackgroundSyncMessage(tag))
	}
	return id, nil
}

// HandleClick routes a click or action press: resolve the deep link,
// report the interaction to every live client, then focus or open a window
// at the destination.
func (s *PushService) HandleClick(ctx context.Context, id, actionID string) (domain.RoutingDecision, error) {
	descriptor, ok := s.take(id)
	if !ok {
		s.logger.Warn("click on unknown notification", "id", id)
	}

	decision := domain.ResolveRoute(actionID, descriptor.Data)

	kind := domain.MessageNotificationClick
	if actionID != "" {
		kind = domain.MessageNotificationAction
	}
	s.bus.Broadcast(ctx, domain.NotificationInteractionMessage(kind, actionID, decision.Data))
	s.bus.FocusOrOpen(ctx, decision.URL)

	s.logger.Info("notification interaction routed", "id", id, "action", actionID, "url", decision.URL)
	return decision, nil
}

// HandleClose reports a dismissed notification to all clients.
func (s *PushService) HandleClose(ctx context.Context, id string) {
	descriptor, _ := s.take(id)
	s.bus.Broadcast(ctx, domain.NotificationInteractionMessage(domain.MessageNotificationClose, "", descriptor.Data))
}

func (s *PushService) remember(id string, descriptor domain.NotificationDescriptor) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.displayed[id] = descriptor
	s.order = append(s.order, id)
	for len(s.order) > displayedLimit {
		oldest := s.order[0]
		s.order = s.order[1:]
		delete(s.displayed, oldest)
	}
}

func (s *PushService) take(id string) (domain.NotificationDescriptor, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	descriptor, ok := s.displayed[id]
	if ok {
		delete(s.displayed, id)
	}
	return descriptor, ok
}

func syncTag(data map[string]any) string {
	if data == nil {
		return ""
	}
	if tag, ok := data["syncTag"].(string); ok {
		return tag
	}
	return ""
}
