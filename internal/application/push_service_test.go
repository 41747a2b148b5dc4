package application

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/looply-app/looply-agent/internal/domain"
	"github.com/looply-app/looply-agent/internal/ports"
)

func newPushFixture(bus *fakeBus) (*PushService, *fakeNotifier) {
	notifier := newFakeNotifier()
	svc := NewPushService(notifier, NewBusService(bus, testLogger()), testLogger())
	return svc, notifier
}

func TestHandlePushDisplaysDecodedNotification(t *testing.T) {
	t.Parallel()

	svc, notifier := newPushFixture(newFakeBus())

	id, err := svc.HandlePush(context.Background(), []byte(`{"title":"T","body":"B","data":{"type":"like","postId":"42"}}`))
	require.NoError(t, err)
	require.NotEmpty(t, id)

	displayed, ok := notifier.get(id)
	require.True(t, ok, "the push handler must not return before display completes")
	assert.Equal(t, "T", displayed.Title)
	assert.Equal(t, "B", displayed.Body)
}

func TestHandlePushPlainTextPayload(t *testing.T) {
	t.Parallel()

	svc, notifier := newPushFixture(newFakeBus())

	id, err := svc.HandlePush(context.Background(), []byte("hello"))
	require.NoError(t, err)

	displayed, ok := notifier.get(id)
	require.True(t, ok)
	assert.Equal(t, "hello", displayed.Body)
	assert.Equal(t, domain.DefaultNotificationTitle, displayed.Title)
}

func TestHandlePushDisplayFailurePropagates(t *testing.T) {
	t.Parallel()

	bus := newFakeBus()
	notifier := newFakeNotifier()
	notifier.err = context.DeadlineExceeded
	svc := NewPushService(notifier, NewBusService(bus, testLogger()), testLogger())

	_, err := svc.HandlePush(context.Background(), []byte("hi"))
	require.Error(t, err)
}

func TestHandleClickRoutesAndBroadcasts(t *testing.T) {
	t.Parallel()

	window := ports.ClientInfo{ID: "c1", Kind: ports.ClientWindow, URL: "/feed"}
	bus := newFakeBus(window)
	svc, _ := newPushFixture(bus)

	id, err := svc.HandlePush(context.Background(), []byte(`{"title":"T","body":"B","data":{"type":"like","postId":"42"}}`))
	require.NoError(t, err)

	decision, err := svc.HandleClick(context.Background(), id, "")
	require.NoError(t, err)
	assert.Equal(t, "/post/42", decision.URL)

	messages := bus.messagesFor("c1")
	require.NotEmpty(t, messages)
	assert.Equal(t, domain.MessageNotificationClick, messages[0].Type)
	payload, ok := messages[0].Data.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, map[string]any{"type": "like", "postId": "42"}, payload["data"])

	// The window client was focused and navigated in place.
	assert.Equal(t, []string{"c1"}, bus.focused)
	last := messages[len(messages)-1]
	assert.Equal(t, domain.MessageNavigate, last.Type)
	assert.Empty(t, bus.opened)
}

func TestHandleClickActionUsesActionTable(t *testing.T) {
	t.Parallel()

	bus := newFakeBus(ports.ClientInfo{ID: "c1", Kind: ports.ClientWindow, URL: "/feed"})
	svc, _ := newPushFixture(bus)

	payload := `{"data":{"type":"message","chatId":"c7","userId":"u1"},"actions":[{"action":"view_chat","title":"Open"}]}`
	id, err := svc.HandlePush(context.Background(), []byte(payload))
	require.NoError(t, err)

	decision, err := svc.HandleClick(context.Background(), id, "view_chat")
	require.NoError(t, err)
	assert.Equal(t, "/messages/c7", decision.URL)

	messages := bus.messagesFor("c1")
	require.NotEmpty(t, messages)
	assert.Equal(t, domain.MessageNotificationAction, messages[0].Type)
}

func TestHandleClickOpensWindowWhenNoneLive(t *testing.T) {
	t.Parallel()

	bus := newFakeBus()
	svc, _ := newPushFixture(bus)

	id, err := svc.HandlePush(context.Background(), []byte(`{"data":{"type":"reel"}}`))
	require.NoError(t, err)

	decision, err := svc.HandleClick(context.Background(), id, "")
	require.NoError(t, err)
	assert.Equal(t, "/reels", decision.URL)
	assert.Equal(t, []string{"/reels"}, bus.opened)
}

func TestHandleClickUnknownNotificationStillRoutes(t *testing.T) {
	t.Parallel()

	bus := newFakeBus()
	svc, _ := newPushFixture(bus)

	decision, err := svc.HandleClick(context.Background(), "gone", "")
	require.NoError(t, err)
	assert.Equal(t, "/", decision.URL)
}

func TestHandleCloseBroadcasts(t *testing.T) {
	t.Parallel()

	bus := newFakeBus(ports.ClientInfo{ID: "c1", Kind: ports.ClientWindow})
	svc, _ := newPushFixture(bus)

	id, err := svc.HandlePush(context.Background(), []byte(`{"data":{"type":"like","postId":"1"}}`))
	require.NoError(t, err)

	svc.HandleClose(context.Background(), id)

	messages := bus.messagesFor("c1")
	require.Len(t, messages, 1)
	assert.Equal(t, domain.MessageNotificationClose, messages[0].Type)
}

func TestHandlePushSyncTagReportsCompletion(t *testing.T) {
	t.Parallel()

	bus := newFakeBus(ports.ClientInfo{ID: "c1", Kind: ports.ClientWindow})
	svc, _ := newPushFixture(bus)

	_, err := svc.HandlePush(context.Background(), []byte(`{"body":"synced","data":{"syncTag":"upload-queue"}}`))
	require.NoError(t, err)

	messages := bus.messagesFor("c1")
	require.Len(t, messages, 1)
	assert.Equal(t, domain.MessageBackgroundSync, messages[0].Type)
	assert.Equal(t, map[string]any{"tag": "upload-queue"}, messages[0].Data)
}
