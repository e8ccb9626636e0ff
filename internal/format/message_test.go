package format

import (
	"testing"
	"time"
)

func TestTruncate(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		maxLen int
		want   string
	}{
		{"no truncation needed", "hello", 10, "hello"},
		{"exact length", "hello", 5, "hello"},
		{"needs truncation", "hello world", 8, "hello..."},
		{"very short max", "hello", 2, "he"},
		{"max 3", "hello", 3, "hel"},
		{"max 4", "hello", 4, "h..."},
		{"empty string", "", 10, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Truncate(tt.input, tt.maxLen)
			if got != tt.want {
				t.Errorf("Truncate(%q, %d) = %q, want %q", tt.input, tt.maxLen, got, tt.want)
			}
			if len(got) > tt.maxLen {
				t.Errorf("Truncate(%q, %d) length = %d, want <= %d", tt.input, tt.maxLen, len(got), tt.maxLen)
			}
		})
	}
}

func TestStatusEmoji(t *testing.T) {
	tests := []struct {
		status string
		want   string
	}{
		{"pending", EmojiPending},
		{"approved", EmojiApproved},
		{"rejected", EmojiRejected},
		{"garbage", EmojiUnknown},
		{"", EmojiUnknown},
	}

	for _, tt := range tests {
		if got := StatusEmoji(tt.status); got != tt.want {
			t.Errorf("StatusEmoji(%q) = %q, want %q", tt.status, got, tt.want)
		}
	}
}

func TestDuration(t *testing.T) {
	tests := []struct {
		name string
		d    time.Duration
		want string
	}{
		{"zero is live", 0, "live"},
		{"seconds only", 42 * time.Second, "0:42"},
		{"minutes", 3*time.Minute + 7*time.Second, "3:07"},
		{"hours", time.Hour + 2*time.Minute + 3*time.Second, "1:02:03"},
		{"negative is live", -time.Second, "live"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Duration(tt.d); got != tt.want {
				t.Errorf("Duration(%v) = %q, want %q", tt.d, got, tt.want)
			}
		})
	}
}
