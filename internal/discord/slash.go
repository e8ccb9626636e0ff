package discord

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/procyoon/procbot/internal/music"
	"github.com/procyoon/procbot/internal/state"
	"github.com/procyoon/procbot/internal/suggest"
	"github.com/procyoon/procbot/internal/ticket"
	"github.com/procyoon/procbot/internal/voice"
)

// dedupTTL is how long handled interaction ids are remembered. The gateway
// can redeliver an interaction on reconnect within this window.
const dedupTTL = time.Hour

// InteractionHandler routes slash commands, component presses, and modal
// submissions to the domain registries.
type InteractionHandler struct {
	client      *Client
	staff       suggest.AuthorizationChecker
	suggestions *suggest.Registry
	voice       *voice.Registry
	tickets     *ticket.Registry
	music       *music.Manager
	store       state.Store
	logger      *slog.Logger
}

// NewInteractionHandler creates an interaction handler bound to the given
// registries.
func NewInteractionHandler(
	client *Client,
	suggestions *suggest.Registry,
	voiceReg *voice.Registry,
	tickets *ticket.Registry,
	musicMgr *music.Manager,
	store state.Store,
	logger *slog.Logger,
) *InteractionHandler {
	if logger == nil {
		logger = slog.Default()
	}

	return &InteractionHandler{
		client:      client,
		staff:       client,
		suggestions: suggestions,
		voice:       voiceReg,
		tickets:     tickets,
		music:       musicMgr,
		store:       store,
		logger:      logger,
	}
}

// commandDefinitions returns the guild slash commands this bot registers.
func commandDefinitions() []*discordgo.ApplicationCommand {
	return []*discordgo.ApplicationCommand{
		{
			Name:        "suggest",
			Description: "Submit a suggestion for the community",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "content",
					Description: "Your suggestion",
					Required:    true,
				},
			},
		},
		{
			Name:        "approve",
			Description: "Approve a suggestion (staff only)",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "id",
					Description: "Suggestion id, e.g. 0042",
					Required:    true,
				},
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "reason",
					Description: "Reason for the decision",
				},
			},
		},
		{
			Name:        "reject",
			Description: "Reject a suggestion (staff only)",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "id",
					Description: "Suggestion id, e.g. 0042",
					Required:    true,
				},
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "reason",
					Description: "Reason for the decision",
				},
			},
		},
		{
			Name:        "voice",
			Description: "Ephemeral voice channels",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "setup",
					Description: "Post the voice channel creation panel here (staff only)",
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "stats",
					Description: "Show ephemeral voice channel statistics",
				},
			},
		},
		{
			Name:        "tickets",
			Description: "Support tickets",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "setup",
					Description: "Post the ticket creation panel here (staff only)",
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "stats",
					Description: "Show ticket statistics",
				},
			},
		},
		{
			Name:        "music",
			Description: "Music queue",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "play",
					Description: "Add a song to the queue",
					Options: []*discordgo.ApplicationCommandOption{
						{
							Type:        discordgo.ApplicationCommandOptionString,
							Name:        "url",
							Description: "Song URL or title",
							Required:    true,
						},
					},
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "skip",
					Description: "Skip the current song",
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "stop",
					Description: "Stop playback and clear the queue",
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "pause",
					Description: "Pause playback",
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "resume",
					Description: "Resume playback",
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "queue",
					Description: "Show the queue",
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "nowplaying",
					Description: "Show the current song",
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "loop",
					Description: "Toggle loop mode",
					Options: []*discordgo.ApplicationCommandOption{
						{
							Type:        discordgo.ApplicationCommandOptionBoolean,
							Name:        "enabled",
							Description: "Whether to loop the current song",
							Required:    true,
						},
					},
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "clear",
					Description: "Clear the queue without stopping the current song",
				},
			},
		},
		{
			Name:        "unban",
			Description: "Lift a ban (staff only)",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "user_id",
					Description: "The banned user's id",
					Required:    true,
				},
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "reason",
					Description: "Audit log reason",
				},
			},
		},
		{
			Name:        "unban-all",
			Description: "Lift every ban on this server (staff only)",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "reason",
					Description: "Audit log reason",
				},
			},
		},
		{
			Name:        "message",
			Description: "Post an announcement as the bot (staff only)",
		},
	}
}

// RegisterCommands registers the guild slash commands with Discord.
func (h *InteractionHandler) RegisterCommands(guildID string) error {
	for _, cmd := range commandDefinitions() {
		_, err := h.client.session.ApplicationCommandCreate(h.client.session.State.User.ID, guildID, cmd)
		if err != nil {
			return fmt.Errorf("create command %s: %w", cmd.Name, err)
		}
		h.logger.Info("registered slash command",
			"command", cmd.Name,
			"guild_id", guildID)
	}
	return nil
}

// RemoveCommands removes all registered commands for a guild.
func (h *InteractionHandler) RemoveCommands(guildID string) error {
	commands, err := h.client.session.ApplicationCommands(h.client.session.State.User.ID, guildID)
	if err != nil {
		return fmt.Errorf("list commands: %w", err)
	}

	for _, cmd := range commands {
		if err := h.client.session.ApplicationCommandDelete(h.client.session.State.User.ID, guildID, cmd.ID); err != nil {
			h.logger.Warn("failed to delete command",
				"command", cmd.Name,
				"error", err)
		}
	}
	return nil
}

// SetupHandler attaches the interaction handler to the session.
func (h *InteractionHandler) SetupHandler() {
	h.client.session.AddHandler(h.handleInteraction)
}

func (h *InteractionHandler) handleInteraction(s *discordgo.Session, i *discordgo.InteractionCreate) {
	ctx := context.Background()

	// The gateway may redeliver an interaction after a reconnect; act once.
	if h.store.WasHandled(ctx, i.ID) {
		h.logger.Info("skipping duplicate interaction", "interaction_id", i.ID)
		return
	}
	if err := h.store.MarkHandled(ctx, i.ID, dedupTTL); err != nil {
		h.logger.Warn("failed to mark interaction handled", "interaction_id", i.ID, "error", err)
	}

	switch i.Type {
	case discordgo.InteractionApplicationCommand:
		h.handleCommand(s, i)
	case discordgo.InteractionMessageComponent:
		h.handleComponent(s, i)
	case discordgo.InteractionModalSubmit:
		h.handleModal(s, i)
	default:
	}
}

func (h *InteractionHandler) handleCommand(s *discordgo.Session, i *discordgo.InteractionCreate) {
	data := i.ApplicationCommandData()

	switch data.Name {
	case "suggest":
		h.handleSuggest(s, i, data)
	case "approve":
		h.handleModerate(s, i, data, suggest.StatusApproved)
	case "reject":
		h.handleModerate(s, i, data, suggest.StatusRejected)
	case "voice":
		h.handleVoiceCommand(s, i, data)
	case "tickets":
		h.handleTicketsCommand(s, i, data)
	case "music":
		h.handleMusicCommand(s, i, data)
	case "unban":
		h.handleUnban(s, i, data)
	case "unban-all":
		h.handleUnbanAll(s, i, data)
	case "message":
		h.handleAnnounceCommand(s, i)
	default:
		h.respondError(s, i, "Unknown command")
	}
}

func (h *InteractionHandler) handleSuggest(
	s *discordgo.Session,
	i *discordgo.InteractionCreate,
	data discordgo.ApplicationCommandInteractionData,
) {
	ctx := context.Background()
	content := strings.TrimSpace(optString(data.Options, "content"))

	id, err := h.suggestions.Submit(ctx, i.Member.User.ID, i.Member.User.Username, content)
	if err != nil {
		if errors.Is(err, suggest.ErrInvalidInput) {
			h.respondError(s, i, h.client.catalog.Get("suggestions.errors.empty", nil))
			return
		}
		h.logger.Error("suggestion submit failed", "error", err, "user_id", i.Member.User.ID)
		h.respondError(s, i, h.client.catalog.Get("suggestions.errors.post_failed", nil))
		return
	}

	h.respond(s, i, h.client.catalog.Get("suggestions.submitted", map[string]string{"id": id}), nil)
}

func (h *InteractionHandler) handleModerate(
	s *discordgo.Session,
	i *discordgo.InteractionCreate,
	data discordgo.ApplicationCommandInteractionData,
	decision suggest.Status,
) {
	ctx := context.Background()
	if !h.requireStaff(ctx, s, i) {
		return
	}

	id := strings.TrimSpace(optString(data.Options, "id"))
	reason := strings.TrimSpace(optString(data.Options, "reason"))

	applied, err := h.suggestions.Moderate(ctx, id, i.Member.User.ID, reason, decision)
	switch {
	case errors.Is(err, suggest.ErrNotFound):
		h.respondError(s, i, h.client.catalog.Get("suggestions.errors.unknown_id", map[string]string{"id": id}))
		return
	case err != nil:
		h.logger.Error("moderation failed", "error", err, "id", id)
		h.respondError(s, i, h.client.catalog.Get("suggestions.errors.moderate_failed", nil))
		return
	case !applied:
		h.respondError(s, i, h.client.catalog.Get("suggestions.errors.already_decided", map[string]string{"id": id}))
		return
	}

	h.respond(s, i, h.client.catalog.Get("suggestions.moderated", map[string]string{
		"id":       id,
		"decision": string(decision),
	}), nil)
}

func (h *InteractionHandler) handleVoiceCommand(
	s *discordgo.Session,
	i *discordgo.InteractionCreate,
	data discordgo.ApplicationCommandInteractionData,
) {
	if len(data.Options) == 0 {
		h.respondError(s, i, "Please specify a subcommand: /voice setup or /voice stats")
		return
	}

	switch data.Options[0].Name {
	case "setup":
		h.handleVoiceSetup(s, i)
	case "stats":
		stats := h.voice.Stats()
		h.respond(s, i, "", &discordgo.MessageEmbed{
			Title: "Voice Channels",
			Color: colorBlue,
			Fields: []*discordgo.MessageEmbedField{
				{Name: "Active", Value: strconv.Itoa(stats.ActiveChannels), Inline: true},
			},
		})
	default:
		h.respondError(s, i, "Unknown subcommand")
	}
}

func (h *InteractionHandler) handleVoiceSetup(s *discordgo.Session, i *discordgo.InteractionCreate) {
	ctx := context.Background()
	if !h.requireStaff(ctx, s, i) {
		return
	}

	_, err := s.ChannelMessageSendComplex(i.ChannelID, &discordgo.MessageSend{
		Embeds: []*discordgo.MessageEmbed{{
			Title:       h.client.catalog.Get("voice.panel.title", nil),
			Description: h.client.catalog.Get("voice.panel.description", nil),
			Color:       colorBlue,
		}},
		Components: []discordgo.MessageComponent{
			discordgo.ActionsRow{
				Components: []discordgo.MessageComponent{
					discordgo.Button{
						Label:    h.client.catalog.Get("voice.panel.button", nil),
						Style:    discordgo.PrimaryButton,
						CustomID: customIDCreateVoice,
					},
				},
			},
		},
	})
	if err != nil {
		h.logger.Error("failed to post voice panel", "error", err, "channel_id", i.ChannelID)
		h.respondError(s, i, "Failed to post the panel")
		return
	}

	h.respond(s, i, "Voice panel posted.", nil)
}

func (h *InteractionHandler) handleTicketsCommand(
	s *discordgo.Session,
	i *discordgo.InteractionCreate,
	data discordgo.ApplicationCommandInteractionData,
) {
	if len(data.Options) == 0 {
		h.respondError(s, i, "Please specify a subcommand: /tickets setup or /tickets stats")
		return
	}

	switch data.Options[0].Name {
	case "setup":
		h.handleTicketsSetup(s, i)
	case "stats":
		stats := h.tickets.Stats()
		h.respond(s, i, "", &discordgo.MessageEmbed{
			Title: "Tickets",
			Color: colorBlue,
			Fields: []*discordgo.MessageEmbedField{
				{Name: "Open", Value: strconv.Itoa(stats.ActiveTickets), Inline: true},
			},
		})
	default:
		h.respondError(s, i, "Unknown subcommand")
	}
}

func (h *InteractionHandler) handleTicketsSetup(s *discordgo.Session, i *discordgo.InteractionCreate) {
	ctx := context.Background()
	if !h.requireStaff(ctx, s, i) {
		return
	}

	_, err := s.ChannelMessageSendComplex(i.ChannelID, &discordgo.MessageSend{
		Embeds: []*discordgo.MessageEmbed{{
			Title:       h.client.catalog.Get("tickets.panel.title", nil),
			Description: h.client.catalog.Get("tickets.panel.description", nil),
			Color:       colorBlue,
		}},
		Components: []discordgo.MessageComponent{
			discordgo.ActionsRow{
				Components: []discordgo.MessageComponent{
					discordgo.Button{
						Label:    h.client.catalog.Get("tickets.panel.button", nil),
						Style:    discordgo.PrimaryButton,
						CustomID: customIDCreateTicket,
					},
				},
			},
		},
	})
	if err != nil {
		h.logger.Error("failed to post ticket panel", "error", err, "channel_id", i.ChannelID)
		h.respondError(s, i, "Failed to post the panel")
		return
	}

	h.respond(s, i, "Ticket panel posted.", nil)
}

func (h *InteractionHandler) handleUnban(
	s *discordgo.Session,
	i *discordgo.InteractionCreate,
	data discordgo.ApplicationCommandInteractionData,
) {
	ctx := context.Background()
	if !h.requireStaff(ctx, s, i) {
		return
	}

	userID := strings.TrimSpace(optString(data.Options, "user_id"))
	reason := strings.TrimSpace(optString(data.Options, "reason"))
	if reason == "" {
		reason = "unbanned by " + i.Member.User.Username
	}

	if err := h.client.Unban(ctx, i.GuildID, userID, reason); err != nil {
		h.logger.Error("unban failed", "error", err, "user_id", userID)
		h.respondError(s, i, "Failed to unban "+userID)
		return
	}

	h.respond(s, i, "Unbanned "+mention(userID), nil)
}

func (h *InteractionHandler) handleUnbanAll(
	s *discordgo.Session,
	i *discordgo.InteractionCreate,
	data discordgo.ApplicationCommandInteractionData,
) {
	ctx := context.Background()
	if !h.requireStaff(ctx, s, i) {
		return
	}

	reason := strings.TrimSpace(optString(data.Options, "reason"))
	if reason == "" {
		reason = "mass unban by " + i.Member.User.Username
	}

	// Paging through the full ban list can exceed the 3 second
	// acknowledgement window.
	if err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Flags: discordgo.MessageFlagsEphemeral,
		},
	}); err != nil {
		h.logger.Error("failed to defer response", "error", err)
		return
	}

	go func() {
		removed, err := h.client.UnbanAll(ctx, i.GuildID, reason)
		if err != nil {
			h.logger.Error("mass unban failed", "error", err, "removed", removed)
			h.editResponse(s, i, fmt.Sprintf("Mass unban failed after %d removals.", removed), nil)
			return
		}
		h.editResponse(s, i, fmt.Sprintf("Lifted %d bans.", removed), nil)
	}()
}

// optString returns the string value of the named option, or "".
func optString(opts []*discordgo.ApplicationCommandInteractionDataOption, name string) string {
	for _, opt := range opts {
		if opt.Name == name {
			return opt.StringValue()
		}
	}
	return ""
}

// optBool returns the boolean value of the named option, or false.
func optBool(opts []*discordgo.ApplicationCommandInteractionDataOption, name string) bool {
	for _, opt := range opts {
		if opt.Name == name {
			return opt.BoolValue()
		}
	}
	return false
}

// requireStaff responds with a denial and returns false when the invoking
// member holds no staff role.
func (h *InteractionHandler) requireStaff(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate) bool {
	if h.staff.IsStaff(ctx, i.GuildID, i.Member.User.ID) {
		return true
	}
	h.respondError(s, i, h.client.catalog.Get("errors.not_staff", nil))
	return false
}

func (h *InteractionHandler) respond(
	s *discordgo.Session,
	i *discordgo.InteractionCreate,
	content string,
	embed *discordgo.MessageEmbed,
) {
	var embeds []*discordgo.MessageEmbed
	if embed != nil {
		embeds = []*discordgo.MessageEmbed{embed}
	}

	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: content,
			Embeds:  embeds,
			Flags:   discordgo.MessageFlagsEphemeral, // Only visible to the user
		},
	})
	if err != nil {
		h.logger.Error("failed to respond to interaction", "error", err)
	}
}

func (h *InteractionHandler) editResponse(
	s *discordgo.Session,
	i *discordgo.InteractionCreate,
	content string,
	embed *discordgo.MessageEmbed,
) {
	var embeds []*discordgo.MessageEmbed
	if embed != nil {
		embeds = []*discordgo.MessageEmbed{embed}
	}

	_, err := s.InteractionResponseEdit(i.Interaction, &discordgo.WebhookEdit{
		Content: &content,
		Embeds:  &embeds,
	})
	if err != nil {
		h.logger.Error("failed to edit response", "error", err)
	}
}

func (h *InteractionHandler) respondError(
	s *discordgo.Session,
	i *discordgo.InteractionCreate,
	message string,
) {
	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: message,
			Flags:   discordgo.MessageFlagsEphemeral,
		},
	})
	if err != nil {
		h.logger.Error("failed to respond with error", "error", err)
	}
}
