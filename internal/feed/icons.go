package feed

import (
	"strconv"

	"github.com/preston-bernstein/homefeed-service/internal/providers"
)

const defaultIcon = "📬"

var kindIcons = map[string]string{
	// moderation
	"content_deleted":  "🗑️",
	"banned":           "🔨",
	"unbanned":         "✅",
	"warning":          "⚠️",
	"report_resolved":  "✓",
	"report_dismissed": "✗",
	// engagement
	"reply":            "💬",
	"upvote":           "⬆️",
	"upvote_milestone": "👍",
	"review_featured":  "⭐",
	// system
	"system_update": "🔔",
	"announcement":  "📢",
	"maintenance":   "🔧",
}

// IconFor returns the display icon for a community notification kind.
func IconFor(kind string) string {
	if icon, ok := kindIcons[kind]; ok {
		return icon
	}
	return defaultIcon
}

// LinkTarget derives the navigation target for a community notification.
// A game reference takes precedence over a review reference.
func LinkTarget(refs *providers.NotificationRefs) string {
	if refs == nil {
		return ""
	}
	if refs.GameID != 0 {
		return "#game-detail?id=" + strconv.FormatInt(int64(refs.GameID), 10)
	}
	if refs.ReviewID != 0 {
		return "#reviews"
	}
	return ""
}
