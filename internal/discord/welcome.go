package discord

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/bwmarrin/discordgo"
)

// welcomeTimeout bounds the REST call made from the gateway handler.
const welcomeTimeout = 10 * time.Second

// PostWelcome greets a new member in the configured welcome channel.
// Returns errNoDestination when no welcome channel is configured.
func (c *Client) PostWelcome(ctx context.Context, userID string) error {
	if c.cfg.WelcomeChannel == "" {
		return fmt.Errorf("post welcome: %w", errNoDestination)
	}

	msg := c.catalog.Get("welcome.message", map[string]string{
		"user": mention(userID),
	})

	err := retryableCtx(ctx, func() error {
		_, sendErr := c.session.ChannelMessageSend(c.cfg.WelcomeChannel, msg)
		return sendErr
	})
	if err != nil {
		return fmt.Errorf("post welcome: %w", err)
	}
	return nil
}

// SetupMemberHandler attaches the member-join listener to the session.
func (c *Client) SetupMemberHandler() {
	c.session.AddHandler(c.handleMemberJoin)
}

func (c *Client) handleMemberJoin(_ *discordgo.Session, m *discordgo.GuildMemberAdd) {
	if m.GuildID != c.cfg.GuildID || m.User == nil {
		return
	}
	if c.cfg.WelcomeChannel == "" {
		slog.Warn("welcome channel not configured, skipping welcome message")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), welcomeTimeout)
	defer cancel()

	if err := c.PostWelcome(ctx, m.User.ID); err != nil {
		slog.Error("failed to send welcome message",
			"user_id", m.User.ID,
			"error", err)
		return
	}

	slog.Info("welcome message sent",
		"user_id", m.User.ID,
		"username", m.User.Username,
		"guild_id", m.GuildID)
}
