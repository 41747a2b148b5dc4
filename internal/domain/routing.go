package domain

import "fmt"

// RoutingDecision is the resolved deep-link target for a notification
// interaction, echoing the data payload it was derived from so clients can
// reconstruct context.
type RoutingDecision struct {
	URL  string
	Data map[string]any
}

// Action-id and notification-type lookups are two distinct ordered passes
// over disjoint tables: an explicit action wins over the fallback route
// derived from the notification type.
var actionRoutes = map[string]func(data map[string]any) string{
	"view_post":    func(d map[string]any) string { return "/post/" + dataString(d, "postId") },
	"view_profile": func(d map[string]any) string { return "/profile/" + dataString(d, "userId") },
	"reply_message": func(d map[string]any) string {
		return "/messages/" + dataString(d, "chatId")
	},
	"view_chat": func(d map[string]any) string { return "/messages/" + dataString(d, "chatId") },
	"like_back": func(d map[string]any) string { return "/" + dataString(d, "redirectTo") },
	"follow_back": func(d map[string]any) string {
		return "/" + dataString(d, "redirectTo")
	},
	"reply": func(d map[string]any) string { return "/" + dataString(d, "redirectTo") },
}

var typeRoutes = map[string]func(data map[string]any) string{
	"like":      func(d map[string]any) string { return "/post/" + dataString(d, "postId") },
	"comment":   func(d map[string]any) string { return "/post/" + dataString(d, "postId") },
	"follow":    func(d map[string]any) string { return "/profile/" + dataString(d, "userId") },
	"message":   func(d map[string]any) string { return "/messages/" + dataString(d, "chatId") },
	"community": func(d map[string]any) string { return "/communities/" + dataString(d, "communityId") },
	"reel":      func(d map[string]any) string { return "/reels" },
}

// ResolveRoute maps a notification interaction to its destination. The
// action id (when the user pressed a specific button) is consulted first,
// then the notification type carried in data; anything unmatched lands on
// the application root. Missing ids interpolate as empty strings rather
// than failing: a near-miss route beats no route.
func ResolveRoute(actionID string, data map[string]any) RoutingDecision {
	if route, ok := actionRoutes[actionID]; ok {
		return RoutingDecision{URL: route(data), Data: data}
	}
	if route, ok := typeRoutes[dataString(data, "type")]; ok {
		return RoutingDecision{URL: route(data), Data: data}
	}
	return RoutingDecision{URL: "/", Data: data}
}

func dataString(data map[string]any, key string) string {
	if data == nil {
		return ""
	}
	switch v := data[key].(type) {
	case string:
		return v
	case nil:
		return ""
	case float64:
		// JSON numbers decode as float64; ids are integral in practice.
		return fmt.Sprintf("%.0f", v)
	default:
		return fmt.Sprintf("%v", v)
	}
}
