// Package format provides message formatting helpers for Discord output.
package format

import (
	"fmt"
	"time"
)

// Suggestion status emoji mappings.
const (
	EmojiPending  = "⏳"       // ⏳ Awaiting moderation
	EmojiApproved = "✅"       // ✅ Approved
	EmojiRejected = "❌"       // ❌ Rejected
	EmojiUnknown  = "\U0001F4EF"   // 📯 Unknown state (postal horn)
)

// Discord embed field limits.
const (
	MaxEmbedTitle       = 256
	MaxEmbedDescription = 4096
	MaxEmbedFieldValue  = 1024
)

// StatusEmoji returns the emoji for a suggestion status string.
func StatusEmoji(status string) string {
	switch status {
	case "pending":
		return EmojiPending
	case "approved":
		return EmojiApproved
	case "rejected":
		return EmojiRejected
	default:
		return EmojiUnknown
	}
}

// Duration renders a song duration as m:ss or h:mm:ss. A zero duration
// renders as "live".
func Duration(d time.Duration) string {
	if d <= 0 {
		return "live"
	}
	total := int(d.Round(time.Second).Seconds())
	h := total / 3600
	m := (total % 3600) / 60
	s := total % 60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}

// Truncate truncates a string to maxLen, adding "..." if truncated.
func Truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}
