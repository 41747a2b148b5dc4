package domain

import (
	"encoding/json"
	"fmt"
)

// MessageType enumerates the control message protocol spoken between the
// agent and its foreground clients.
type MessageType string

const (
	// client -> agent
	MessageSkipWaiting  MessageType = "SKIP_WAITING"
	MessageClaimClients MessageType = "CLAIM_CLIENTS"
	MessageCacheURLs    MessageType = "CACHE_URLS"
	MessageClearCache   MessageType = "CLEAR_CACHE"

	// agent -> client
	MessageNavigate           MessageType = "NAVIGATE"
	MessageNotificationClick  MessageType = "NOTIFICATION_CLICK"
	MessageNotificationAction MessageType = "NOTIFICATION_ACTION"
	MessageNotificationClose  MessageType = "NOTIFICATION_CLOSE"
	MessageBackgroundSync     MessageType = "BACKGROUND_SYNC"
	MessageShareTarget        MessageType = "SHARE_TARGET"
)

// ControlMessage is the wire form of one agent->client event:
// {"type": ..., "data": ...}. Fire-and-forget, never persisted.
type ControlMessage struct {
	Type MessageType `json:"type"`
	Data any         `json:"data,omitempty"`
}

// NavigateMessage asks a client to route to url in place, without a hard
// reload.
func NavigateMessage(url string) ControlMessage {
	return ControlMessage{Type: MessageNavigate, Data: map[string]any{"url": url}}
}

// NotificationInteractionMessage reports a click, action press or close,
// echoing the original notification data.
func NotificationInteractionMessage(kind MessageType, actionID string, data map[string]any) ControlMessage {
	payload := map[string]any{"data": data}
	if actionID != "" {
		payload["action"] = actionID
	}
	return ControlMessage{Type: kind, Data: payload}
}

// BackgroundSyncMessage reports completion of a deferred sync tag.
func BackgroundSyncMessage(tag string) ControlMessage {
	return ControlMessage{Type: MessageBackgroundSync, Data: map[string]any{"tag": tag}}
}

// ShareTargetMessage delivers a received ShareIntent to a client.
func ShareTargetMessage(intent ShareIntent) ControlMessage {
	files := make([]map[string]any, 0, len(intent.Files))
	for _, f := range intent.Files {
		files = append(files, map[string]any{
			"name":        f.Name,
			"contentType": f.ContentType,
			"size":        len(f.Data),
		})
	}
	return ControlMessage{Type: MessageShareTarget, Data: map[string]any{
		"title": intent.Title,
		"text":  intent.Text,
		"url":   intent.URL,
		"files": files,
	}}
}

// InboundMessage is the decoded form of one client->agent control message.
// The payload shape varies by type, so each kind carries its own struct.
type InboundMessage interface {
	MessageType() MessageType
}

type SkipWaiting struct{}

func (SkipWaiting) MessageType() MessageType { return MessageSkipWaiting }

type ClaimClients struct{}

func (ClaimClients) MessageType() MessageType { return MessageClaimClients }

// CacheURLs requests bulk population of the current cache version.
type CacheURLs struct {
	URLs []string
}

func (CacheURLs) MessageType() MessageType { return MessageCacheURLs }

type ClearCache struct{}

func (ClearCache) MessageType() MessageType { return MessageClearCache }

type inboundEnvelope struct {
	Type MessageType     `json:"type"`
	Data json.RawMessage `json:"data"`
}

// DecodeInbound parses one client->agent message. Unrecognized types
// return ErrUnknownMessageType so the dispatcher can log and ignore them.
func DecodeInbound(raw []byte) (InboundMessage, error) {
	var env inboundEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("decode control message: %w", err)
	}

	switch env.Type {
	case MessageSkipWaiting:
		return SkipWaiting{}, nil
	case MessageClaimClients:
		return ClaimClients{}, nil
	case MessageClearCache:
		return ClearCache{}, nil
	case MessageCacheURLs:
		var data struct {
			URLs []string `json:"urls"`
		}
		if len(env.Data) > 0 {
			if err := json.Unmarshal(env.Data, &data); err != nil {
				return nil, fmt.Errorf("decode %s data: %w", env.Type, err)
			}
		}
		return CacheURLs{URLs: data.URLs}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownMessageType, env.Type)
	}
}
