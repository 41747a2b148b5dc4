package domain

import (
	"encoding/json"
	"strings"
)

// Defaults applied when a push payload omits fields or cannot be decoded
// at all. Visibility outranks precision: a malformed payload still yields
// a displayed notification.
const (
	DefaultNotificationTitle = "Looply"
	DefaultNotificationBody  = "You have a new notification"
	DefaultNotificationIcon  = "/icons/icon-192x192.png"
	DefaultNotificationBadge = "/icons/badge-72x72.png"
)

// NotificationAction is one button on a displayed notification. The wire
// names follow the web push convention.
type NotificationAction struct {
	ID    string `json:"action"`
	Label string `json:"title"`
}

// NotificationDescriptor is the normalized form of a push payload, carrying
// everything the platform notification facility and the action router need.
// Data must hold the routing fields (type plus type-specific ids) so a
// click can be resolved without any external lookup.
type NotificationDescriptor struct {
	Title              string
	Body               string
	Icon               string
	Badge              string
	Tag                string
	Data               map[string]any
	Actions            []NotificationAction
	RequireInteraction bool
	Silent             bool
	Vibration          []int
}

type pushPayload struct {
	Title              string               `json:"title"`
	Body               string               `json:"body"`
	Icon               string               `json:"icon"`
	Badge              string               `json:"badge"`
	Tag                string               `json:"tag"`
	Data               map[string]any       `json:"data"`
	Actions            []NotificationAction `json:"actions"`
	RequireInteraction bool                 `json:"requireInteraction"`
	Silent             bool                 `json:"silent"`
	Vibrate            []int                `json:"vibrate"`
}

// DecodePushPayload turns an opaque push payload into a displayable
// descriptor. Two tiers: structured JSON first; anything that fails to
// decode is treated as plain text and becomes the body. This never fails.
func DecodePushPayload(payload []byte) NotificationDescriptor {
	d := NotificationDescriptor{
		Title: DefaultNotificationTitle,
		Body:  DefaultNotificationBody,
		Icon:  DefaultNotificationIcon,
		Badge: DefaultNotificationBadge,
	}

	trimmed := strings.TrimSpace(string(payload))
	if trimmed == "" {
		return d
	}

	var decoded pushPayload
	if err := json.Unmarshal(payload, &decoded); err != nil {
		d.Body = trimmed
		return d
	}

	if decoded.Title != "" {
		d.Title = decoded.Title
	}
	if decoded.Body != "" {
		d.Body = decoded.Body
	}
	if decoded.Icon != "" {
		d.Icon = decoded.Icon
	}
	if decoded.Badge != "" {
		d.Badge = decoded.Badge
	}
	d.Tag = decoded.Tag
	d.Data = decoded.Data
	d.Actions = decoded.Actions
	d.RequireInteraction = decoded.RequireInteraction
	d.Silent = decoded.Silent
	d.Vibration = decoded.Vibrate

	return d
}
