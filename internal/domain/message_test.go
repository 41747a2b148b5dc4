package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeInbound(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		raw  string
		want InboundMessage
	}{
		{name: "skip waiting", raw: `{"type":"SKIP_WAITING"}`, want: SkipWaiting{}},
		{name: "claim clients", raw: `{"type":"CLAIM_CLIENTS"}`, want: ClaimClients{}},
		{name: "clear cache", raw: `{"type":"CLEAR_CACHE","data":null}`, want: ClearCache{}},
		{name: "cache urls", raw: `{"type":"CACHE_URLS","data":{"urls":["/a","/b"]}}`, want: CacheURLs{URLs: []string{"/a", "/b"}}},
		{name: "cache urls without data", raw: `{"type":"CACHE_URLS"}`, want: CacheURLs{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := DecodeInbound([]byte(tt.raw))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDecodeInboundUnknownType(t *testing.T) {
	t.Parallel()

	_, err := DecodeInbound([]byte(`{"type":"TELEPORT","data":{}}`))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnknownMessageType)
}

func TestDecodeInboundMalformed(t *testing.T) {
	t.Parallel()

	_, err := DecodeInbound([]byte(`{"type":`))
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrUnknownMessageType)
}

func TestOutboundMessageWireShape(t *testing.T) {
	t.Parallel()

	encoded, err := json.Marshal(NavigateMessage("/post/42"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"NAVIGATE","data":{"url":"/post/42"}}`, string(encoded))

	encoded, err = json.Marshal(BackgroundSyncMessage("upload-queue"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"BACKGROUND_SYNC","data":{"tag":"upload-queue"}}`, string(encoded))
}

func TestNotificationInteractionMessage(t *testing.T) {
	t.Parallel()

	data := map[string]any{"type": "like", "postId": "42"}

	click := NotificationInteractionMessage(MessageNotificationClick, "", data)
	assert.Equal(t, MessageNotificationClick, click.Type)
	payload, ok := click.Data.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, data, payload["data"])
	_, hasAction := payload["action"]
	assert.False(t, hasAction)

	action := NotificationInteractionMessage(MessageNotificationAction, "like_back", data)
	payload, ok = action.Data.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "like_back", payload["action"])
}

func TestShareTargetMessage(t *testing.T) {
	t.Parallel()

	msg := ShareTargetMessage(ShareIntent{
		Title: "Hi",
		Text:  "World",
		URL:   "http://x",
		Files: []SharedFile{{Name: "a.png", ContentType: "image/png", Data: []byte{1, 2, 3}}},
	})
	assert.Equal(t, MessageShareTarget, msg.Type)

	payload, ok := msg.Data.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "Hi", payload["title"])
	assert.Equal(t, "World", payload["text"])
	assert.Equal(t, "http://x", payload["url"])

	files, ok := payload["files"].([]map[string]any)
	require.True(t, ok)
	require.Len(t, files, 1)
	assert.Equal(t, "a.png", files[0]["name"])
	assert.Equal(t, 3, files[0]["size"])
}
