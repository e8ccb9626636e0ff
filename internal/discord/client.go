// Package discord provides Discord API client functionality.
package discord

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/codeGROOVE-dev/retry"

	"github.com/procyoon/procbot/internal/messages"
)

// Config holds the guild surface the client operates on.
type Config struct {
	GuildID            string
	SuggestionsChannel string
	SuggestionResults  string
	WelcomeChannel     string
	TicketCategoryID   string
	VoiceCategoryID    string
	StaffRoleIDs       []string
}

// Client wraps discordgo.Session with a clean interface for bot operations.
// It implements the collaborator contracts of the suggest, voice, and ticket
// registries.
type Client struct {
	session *discordgo.Session
	catalog *messages.Catalog
	cfg     Config
}

// New creates a new Discord client for a specific guild.
func New(token string, cfg Config, catalog *messages.Catalog) (*Client, error) {
	session, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, err
	}

	session.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildMessages |
		discordgo.IntentsGuildMembers |
		discordgo.IntentsGuildVoiceStates |
		discordgo.IntentsGuildBans

	return &Client{
		session: session,
		catalog: catalog,
		cfg:     cfg,
	}, nil
}

// retryableCtx wraps a function with standard retry configuration.
func retryableCtx(ctx context.Context, fn func() error) error {
	return retry.Do(
		fn,
		retry.Context(ctx),
		retry.Attempts(3),
		retry.Delay(500*time.Millisecond),
		retry.MaxDelay(5*time.Second),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.RetryIf(func(err error) bool {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return false
			}
			// 404s are terminal: retrying an unknown entity never helps.
			var restErr *discordgo.RESTError
			if errors.As(err, &restErr) && restErr.Response != nil && restErr.Response.StatusCode == 404 {
				return false
			}
			return true
		}),
	)
}

// openTimeout is the maximum time to wait for Discord connection.
const openTimeout = 30 * time.Second

// Open opens the WebSocket connection to Discord with a timeout.
func (c *Client) Open() error {
	done := make(chan error, 1)
	go func() {
		done <- c.session.Open()
	}()

	select {
	case err := <-done:
		return err
	case <-time.After(openTimeout):
		c.session.Close() //nolint:errcheck,gosec // best-effort close on timeout
		return errors.New("timeout waiting for Discord connection")
	}
}

// Close closes the WebSocket connection.
func (c *Client) Close() error {
	return c.session.Close()
}

// Session returns the underlying discordgo session.
func (c *Client) Session() *discordgo.Session {
	return c.session
}

// GuildID returns the configured guild id.
func (c *Client) GuildID() string {
	return c.cfg.GuildID
}

// isDiscordErrCode reports whether err is a Discord REST error with the
// given JSON error code.
func isDiscordErrCode(err error, code int) bool {
	var restErr *discordgo.RESTError
	if !errors.As(err, &restErr) {
		return false
	}
	return restErr.Message != nil && restErr.Message.Code == code
}
