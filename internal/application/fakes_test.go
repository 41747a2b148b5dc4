package application

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/looply-app/looply-agent/internal/domain"
	"github.com/looply-app/looply-agent/internal/ports"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeFetcher serves canned responses keyed by URL and counts network
// attempts. offline makes every fetch fail at the transport level.
type fakeFetcher struct {
	mu        sync.Mutex
	responses map[string]domain.CachedResponse
	offline   bool
	calls     int
}

func newFakeFetcher() *fakeFetcher {
	return &fakeFetcher{responses: make(map[string]domain.CachedResponse)}
}

func (f *fakeFetcher) serve(url string, status int, body string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.responses[url] = domain.CachedResponse{
		Status: status,
		Header: map[string]string{"Content-Type": "text/plain"},
		Body:   []byte(body),
	}
}

func (f *fakeFetcher) Fetch(_ context.Context, method, url string, _ map[string]string) (domain.CachedResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls++
	if f.offline {
		return domain.CachedResponse{}, fmt.Errorf("dial tcp: network is unreachable")
	}
	if resp, ok := f.responses[url]; ok {
		return resp, nil
	}
	return domain.CachedResponse{Status: 404, Body: []byte("not found")}, nil
}

func (f *fakeFetcher) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// fakeBus records every delivery per client.
type fakeBus struct {
	mu      sync.Mutex
	clients []ports.ClientInfo
	sent    map[string][]domain.ControlMessage
	sendErr map[string]error
	opened  []string
	focused []string
	claimed bool
}

func newFakeBus(clients ...ports.ClientInfo) *fakeBus {
	return &fakeBus{
		clients: clients,
		sent:    make(map[string][]domain.ControlMessage),
		sendErr: make(map[string]error),
	}
}

func (b *fakeBus) List(context.Context) ([]ports.ClientInfo, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]ports.ClientInfo(nil), b.clients...), nil
}

func (b *fakeBus) Send(_ context.Context, clientID string, msg domain.ControlMessage) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err := b.sendErr[clientID]; err != nil {
		return err
	}
	b.sent[clientID] = append(b.sent[clientID], msg)
	return nil
}

func (b *fakeBus) Focus(_ context.Context, clientID string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.focused = append(b.focused, clientID)
	return nil
}

func (b *fakeBus) OpenWindow(_ context.Context, url string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.opened = append(b.opened, url)
	return nil
}

func (b *fakeBus) Claim(context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.claimed = true
	return nil
}

func (b *fakeBus) messagesFor(clientID string) []domain.ControlMessage {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]domain.ControlMessage(nil), b.sent[clientID]...)
}

// fakeNotifier records displayed notifications.
type fakeNotifier struct {
	mu        sync.Mutex
	displayed map[string]domain.NotificationDescriptor
	err       error
}

func newFakeNotifier() *fakeNotifier {
	return &fakeNotifier{displayed: make(map[string]domain.NotificationDescriptor)}
}

func (n *fakeNotifier) Display(_ context.Context, id string, d domain.NotificationDescriptor) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.err != nil {
		return n.err
	}
	n.displayed[id] = d
	return nil
}

func (n *fakeNotifier) get(id string) (domain.NotificationDescriptor, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	d, ok := n.displayed[id]
	return d, ok
}
