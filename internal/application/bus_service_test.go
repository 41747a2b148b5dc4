package application

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/looply-app/looply-agent/internal/adapters/clients/hub"
	"github.com/looply-app/looply-agent/internal/domain"
	"github.com/looply-app/looply-agent/internal/ports"
)

func TestBroadcastReachesEveryClientDespiteFailures(t *testing.T) {
	t.Parallel()

	bus := newFakeBus(
		ports.ClientInfo{ID: "c1", Kind: ports.ClientWindow},
		ports.ClientInfo{ID: "c2", Kind: ports.ClientWorker},
		ports.ClientInfo{ID: "c3", Kind: ports.ClientWindow},
	)
	bus.sendErr["c2"] = errors.New("stream closed")
	svc := NewBusService(bus, testLogger())

	svc.Broadcast(context.Background(), domain.NavigateMessage("/feed"))

	assert.Len(t, bus.messagesFor("c1"), 1)
	assert.Empty(t, bus.messagesFor("c2"))
	assert.Len(t, bus.messagesFor("c3"), 1, "one dead client must not abort the rest of the broadcast")
}

func TestFocusOrOpenPrefersExistingWindow(t *testing.T) {
	t.Parallel()

	bus := newFakeBus(
		ports.ClientInfo{ID: "w1", Kind: ports.ClientWorker},
		ports.ClientInfo{ID: "c1", Kind: ports.ClientWindow, URL: "/feed"},
	)
	svc := NewBusService(bus, testLogger())

	svc.FocusOrOpen(context.Background(), "/post/42")

	assert.Equal(t, []string{"c1"}, bus.focused, "worker clients are not focusable")
	messages := bus.messagesFor("c1")
	require.Len(t, messages, 1)
	assert.Equal(t, domain.MessageNavigate, messages[0].Type)
	assert.Empty(t, bus.opened)
}

func TestFocusOrOpenSkipsNavigationWhenAlreadyThere(t *testing.T) {
	t.Parallel()

	bus := newFakeBus(ports.ClientInfo{ID: "c1", Kind: ports.ClientWindow, URL: "/post/42"})
	svc := NewBusService(bus, testLogger())

	svc.FocusOrOpen(context.Background(), "/post/42")

	assert.Equal(t, []string{"c1"}, bus.focused)
	assert.Empty(t, bus.messagesFor("c1"))
}

func TestFocusOrOpenOpensWindowWhenNoneExist(t *testing.T) {
	t.Parallel()

	bus := newFakeBus()
	svc := NewBusService(bus, testLogger())

	svc.FocusOrOpen(context.Background(), "/reels")
	assert.Equal(t, []string{"/reels"}, bus.opened)
}

func TestFocusOrOpenSeesDeliveredNavigations(t *testing.T) {
	t.Parallel()

	h := hub.New(nil, testLogger())
	_, events, deregister := h.Register(ports.ClientInfo{ID: "c1", Kind: ports.ClientWindow, URL: "/feed"})
	defer deregister()
	svc := NewBusService(h, testLogger())

	svc.FocusOrOpen(context.Background(), "/post/42")
	msg := <-events
	require.Equal(t, domain.MessageNavigate, msg.Type)

	// The client is already on its way to /post/42; a second focus at the
	// same target must not navigate again.
	svc.FocusOrOpen(context.Background(), "/post/42")
	select {
	case msg := <-events:
		t.Fatalf("unexpected message after focus at current location: %v", msg.Type)
	default:
	}
}

func TestPendingWorkWaitsForRegisteredWork(t *testing.T) {
	t.Parallel()

	pending := NewPendingWork()
	var mu sync.Mutex
	done := false

	release := make(chan struct{})
	pending.Go(func() {
		<-release
		mu.Lock()
		done = true
		mu.Unlock()
	})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, pending.Wait(ctx), context.DeadlineExceeded)

	close(release)
	require.NoError(t, pending.Wait(context.Background()))
	mu.Lock()
	assert.True(t, done)
	mu.Unlock()
}
