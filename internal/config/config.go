// Package config loads server configuration from the environment.
package config

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/codeGROOVE-dev/gsm"
)

// Defaults for tunable settings.
const (
	defaultPort              = "9119"
	defaultVoicePollInterval = 10 * time.Second
	defaultVoiceGracePeriod  = time.Minute
	defaultMessagesPath      = "config/messages.yml"
)

// ServerConfig holds server configuration from environment variables.
type ServerConfig struct {
	DiscordBotToken     string
	GuildID             string
	SuggestionsChannel  string
	SuggestionResults   string
	WelcomeChannel      string
	TicketCategoryID    string
	VoiceCategoryID     string
	StaffRoleIDs        []string
	VoicePollInterval   time.Duration
	VoiceGracePeriod    time.Duration
	MessagesPath        string
	StateBackend        string // "memory" or "cloudrun"
	Port                string
}

// Load reads configuration from environment variables. The bot token may
// also come from Google Secret Manager when not set in the environment.
func Load(ctx context.Context) (ServerConfig, error) {
	// Environment variables take precedence, then Secret Manager.
	getSecret := func(name string) string {
		if v := os.Getenv(name); v != "" {
			slog.Debug("using environment variable", "name", name)
			return v
		}
		value, err := gsm.Fetch(ctx, name)
		if err != nil {
			slog.Debug("secret not found in Secret Manager", "name", name, "error", err)
			return ""
		}
		if value != "" {
			slog.Info("loaded secret from Secret Manager", "name", name)
		}
		return value
	}

	cfg := ServerConfig{
		DiscordBotToken:    getSecret("DISCORD_BOT_TOKEN"),
		GuildID:            os.Getenv("GUILD_ID"),
		SuggestionsChannel: os.Getenv("SUGGESTIONS_CHANNEL_ID"),
		SuggestionResults:  os.Getenv("SUGGESTIONS_RESULTS_CHANNEL_ID"),
		WelcomeChannel:     os.Getenv("WELCOME_CHANNEL_ID"),
		TicketCategoryID:   os.Getenv("TICKET_CATEGORY_ID"),
		VoiceCategoryID:    os.Getenv("VOICE_CATEGORY_ID"),
		StaffRoleIDs:       splitIDs(os.Getenv("STAFF_ROLE_IDS")),
		VoicePollInterval:  getDuration("VOICE_POLL_INTERVAL", defaultVoicePollInterval),
		VoiceGracePeriod:   getDuration("VOICE_GRACE_PERIOD", defaultVoiceGracePeriod),
		MessagesPath:       getEnv("MESSAGES_PATH", defaultMessagesPath),
		StateBackend:       getEnv("STATE_BACKEND", "memory"),
		Port:               getEnv("PORT", defaultPort),
	}

	if cfg.DiscordBotToken == "" {
		return cfg, errors.New("DISCORD_BOT_TOKEN environment variable is required")
	}
	if cfg.GuildID == "" {
		return cfg, errors.New("GUILD_ID environment variable is required")
	}
	if cfg.StateBackend != "memory" && cfg.StateBackend != "cloudrun" {
		return cfg, fmt.Errorf("STATE_BACKEND must be memory or cloudrun, got %q", cfg.StateBackend)
	}

	return cfg, nil
}

// splitIDs parses a comma-separated id list, trimming whitespace and
// dropping empties.
func splitIDs(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(s, ",") {
		if id := strings.TrimSpace(part); id != "" {
			out = append(out, id)
		}
	}
	return out
}

func getEnv(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		slog.Warn("invalid duration, using default",
			"name", key,
			"value", v,
			"default", defaultValue)
		return defaultValue
	}
	return d
}
