package discord

import (
	"context"
	"errors"
	"log/slog"

	"github.com/bwmarrin/discordgo"

	"github.com/procyoon/procbot/internal/suggest"
	"github.com/procyoon/procbot/internal/ticket"
	"github.com/procyoon/procbot/internal/voice"
)

// Component and modal custom ids.
const (
	customIDCreateVoice   = "create_voice_channel"
	customIDCreateTicket  = "create_ticket"
	customIDCloseTicket   = "close_ticket"
	customIDConfirmClose  = "confirm_close_ticket"
	customIDCancelClose   = "cancel_close_ticket"
	customIDVoiceModal    = "voice_limit_modal"
	customIDVoiceLimit    = "voice_limit"
	customIDAnnounceModal = "announce_modal"
	customIDAnnounceBody  = "announce_body"
)

func (h *InteractionHandler) handleComponent(s *discordgo.Session, i *discordgo.InteractionCreate) {
	customID := i.MessageComponentData().CustomID

	if id, dir, ok := ParseVoteCustomID(customID); ok {
		h.handleVote(s, i, id, dir)
		return
	}

	switch customID {
	case customIDCreateTicket:
		h.handleCreateTicket(s, i)
	case customIDCloseTicket:
		h.handleCloseTicketPrompt(s, i)
	case customIDConfirmClose:
		h.handleConfirmClose(s, i)
	case customIDCancelClose:
		h.respond(s, i, h.client.catalog.Get("tickets.close_cancelled", nil), nil)
	case customIDCreateVoice:
		h.handleVoiceModalPrompt(s, i)
	default:
		h.logger.Warn("unknown component", "custom_id", customID)
	}
}

func (h *InteractionHandler) handleVote(s *discordgo.Session, i *discordgo.InteractionCreate, id string, dir suggest.Direction) {
	ctx := context.Background()

	applied, err := h.suggestions.Vote(ctx, id, i.Member.User.ID, dir)
	switch {
	case errors.Is(err, suggest.ErrNotFound):
		h.respondError(s, i, h.client.catalog.Get("suggestions.errors.unknown_id", map[string]string{"id": id}))
		return
	case err != nil:
		h.logger.Error("vote failed", "error", err, "id", id, "voter_id", i.Member.User.ID)
		h.respondError(s, i, h.client.catalog.Get("suggestions.errors.vote_failed", nil))
		return
	case !applied:
		h.respondError(s, i, h.client.catalog.Get("suggestions.errors.voting_closed", map[string]string{"id": id}))
		return
	}

	// The registry already refreshed the card counts; a silent
	// acknowledgement avoids cluttering the channel.
	if err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredMessageUpdate,
	}); err != nil {
		h.logger.Error("failed to acknowledge vote", "error", err)
	}
}

func (h *InteractionHandler) handleCreateTicket(s *discordgo.Session, i *discordgo.InteractionCreate) {
	ctx := context.Background()
	user := i.Member.User

	t, err := h.tickets.Open(ctx, user.ID, user.Username)
	if err != nil {
		if errors.Is(err, ticket.ErrAlreadyOpen) {
			h.respondError(s, i, h.client.catalog.Get("tickets.errors.already_open", map[string]string{
				"channel": channelMention(t.ChannelID),
			}))
			return
		}
		h.logger.Error("ticket open failed", "error", err, "user_id", user.ID)
		h.respondError(s, i, h.client.catalog.Get("tickets.errors.open_failed", nil))
		return
	}

	h.postTicketWelcome(s, t.ChannelID, user.ID)
	h.respond(s, i, h.client.catalog.Get("tickets.opened", map[string]string{
		"channel": channelMention(t.ChannelID),
	}), nil)
}

// postTicketWelcome posts the greeting and close button into a fresh ticket
// channel.
func (h *InteractionHandler) postTicketWelcome(s *discordgo.Session, channelID, ownerID string) {
	_, err := s.ChannelMessageSendComplex(channelID, &discordgo.MessageSend{
		Content: h.client.catalog.Get("tickets.welcome", map[string]string{"user": mention(ownerID)}),
		Components: []discordgo.MessageComponent{
			discordgo.ActionsRow{
				Components: []discordgo.MessageComponent{
					discordgo.Button{
						Label:    h.client.catalog.Get("tickets.close_button", nil),
						Style:    discordgo.DangerButton,
						CustomID: customIDCloseTicket,
					},
				},
			},
		},
	})
	if err != nil {
		h.logger.Warn("failed to post ticket welcome", "channel_id", channelID, "error", err)
	}
}

func (h *InteractionHandler) handleCloseTicketPrompt(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if !h.tickets.IsTicketChannel(i.ChannelID) {
		h.respondError(s, i, h.client.catalog.Get("tickets.errors.not_ticket_channel", nil))
		return
	}

	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: h.client.catalog.Get("tickets.close_confirm", nil),
			Flags:   discordgo.MessageFlagsEphemeral,
			Components: []discordgo.MessageComponent{
				discordgo.ActionsRow{
					Components: []discordgo.MessageComponent{
						discordgo.Button{
							Label:    h.client.catalog.Get("tickets.confirm_button", nil),
							Style:    discordgo.DangerButton,
							CustomID: customIDConfirmClose,
						},
						discordgo.Button{
							Label:    h.client.catalog.Get("tickets.cancel_button", nil),
							Style:    discordgo.SecondaryButton,
							CustomID: customIDCancelClose,
						},
					},
				},
			},
		},
	})
	if err != nil {
		h.logger.Error("failed to prompt close confirmation", "error", err)
	}
}

func (h *InteractionHandler) handleConfirmClose(s *discordgo.Session, i *discordgo.InteractionCreate) {
	ctx := context.Background()
	user := i.Member.User

	ownerID, known := h.tickets.OwnerOf(i.ChannelID)
	if !known {
		h.respondError(s, i, h.client.catalog.Get("tickets.errors.not_ticket_channel", nil))
		return
	}

	canManage := user.ID != ownerID && h.staff.IsStaff(ctx, i.GuildID, user.ID)
	closed, err := h.tickets.Close(ctx, i.ChannelID, user.ID, canManage)
	if err != nil {
		h.logger.Error("ticket close failed", "error", err, "channel_id", i.ChannelID)
		h.respondError(s, i, h.client.catalog.Get("tickets.errors.close_failed", nil))
		return
	}
	if !closed {
		h.respondError(s, i, h.client.catalog.Get("tickets.errors.close_denied", nil))
		return
	}

	h.respond(s, i, h.client.catalog.Get("tickets.closed", nil), nil)

	// Farewell goes to the channel so everyone in the ticket sees it before
	// the delayed deletion fires.
	if _, err := s.ChannelMessageSend(i.ChannelID, h.client.catalog.Get("tickets.farewell", map[string]string{
		"user": mention(user.ID),
	})); err != nil {
		h.logger.Warn("failed to post farewell", "channel_id", i.ChannelID, "error", err)
	}
}

func (h *InteractionHandler) handleVoiceModalPrompt(s *discordgo.Session, i *discordgo.InteractionCreate) {
	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseModal,
		Data: &discordgo.InteractionResponseData{
			CustomID: customIDVoiceModal,
			Title:    h.client.catalog.Get("voice.modal.title", nil),
			Components: []discordgo.MessageComponent{
				discordgo.ActionsRow{
					Components: []discordgo.MessageComponent{
						discordgo.TextInput{
							CustomID:    customIDVoiceLimit,
							Label:       h.client.catalog.Get("voice.modal.limit_label", nil),
							Style:       discordgo.TextInputShort,
							Placeholder: "1-99",
							Required:    true,
							MaxLength:   2,
						},
					},
				},
			},
		},
	})
	if err != nil {
		h.logger.Error("failed to open voice modal", "error", err)
	}
}

func (h *InteractionHandler) handleModal(s *discordgo.Session, i *discordgo.InteractionCreate) {
	data := i.ModalSubmitData()

	switch data.CustomID {
	case customIDVoiceModal:
		h.handleVoiceModalSubmit(s, i, data)
	case customIDAnnounceModal:
		h.handleAnnounceSubmit(s, i, data)
	default:
		h.logger.Warn("unknown modal", "custom_id", data.CustomID)
	}
}

func (h *InteractionHandler) handleVoiceModalSubmit(
	s *discordgo.Session,
	i *discordgo.InteractionCreate,
	data discordgo.ModalSubmitInteractionData,
) {
	ctx := context.Background()
	user := i.Member.User

	raw := modalInput(data, customIDVoiceLimit)
	limit, ok := voice.ValidateUserLimit(raw)
	if !ok {
		h.respondError(s, i, h.client.catalog.Get("voice.errors.bad_limit", map[string]string{"value": raw}))
		return
	}

	channelID, err := h.voice.Provision(ctx, user.ID, user.Username, limit)
	if err != nil {
		h.logger.Error("voice provision failed", "error", err, "owner_id", user.ID)
		h.respondError(s, i, h.client.catalog.Get("voice.errors.create_failed", nil))
		return
	}

	h.respond(s, i, h.client.catalog.Get("voice.created", map[string]string{
		"channel": channelMention(channelID),
	}), nil)
}

// handleAnnounceCommand opens the announcement modal for staff.
func (h *InteractionHandler) handleAnnounceCommand(s *discordgo.Session, i *discordgo.InteractionCreate) {
	ctx := context.Background()
	if !h.requireStaff(ctx, s, i) {
		return
	}

	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseModal,
		Data: &discordgo.InteractionResponseData{
			CustomID: customIDAnnounceModal,
			Title:    h.client.catalog.Get("announce.modal.title", nil),
			Components: []discordgo.MessageComponent{
				discordgo.ActionsRow{
					Components: []discordgo.MessageComponent{
						discordgo.TextInput{
							CustomID:  customIDAnnounceBody,
							Label:     h.client.catalog.Get("announce.modal.body_label", nil),
							Style:     discordgo.TextInputParagraph,
							Required:  true,
							MaxLength: 2000,
						},
					},
				},
			},
		},
	})
	if err != nil {
		h.logger.Error("failed to open announce modal", "error", err)
	}
}

func (h *InteractionHandler) handleAnnounceSubmit(
	s *discordgo.Session,
	i *discordgo.InteractionCreate,
	data discordgo.ModalSubmitInteractionData,
) {
	body := modalInput(data, customIDAnnounceBody)
	if body == "" {
		h.respondError(s, i, h.client.catalog.Get("announce.errors.empty", nil))
		return
	}

	if _, err := s.ChannelMessageSend(i.ChannelID, body); err != nil {
		h.logger.Error("failed to post announcement", "error", err, "channel_id", i.ChannelID)
		h.respondError(s, i, h.client.catalog.Get("announce.errors.post_failed", nil))
		return
	}

	slog.Info("announcement posted", "channel_id", i.ChannelID, "by", i.Member.User.ID)
	h.respond(s, i, h.client.catalog.Get("announce.posted", nil), nil)
}

// modalInput extracts the value of a text input from a modal submission.
func modalInput(data discordgo.ModalSubmitInteractionData, customID string) string {
	for _, row := range data.Components {
		actionsRow, ok := row.(*discordgo.ActionsRow)
		if !ok {
			continue
		}
		for _, comp := range actionsRow.Components {
			input, ok := comp.(*discordgo.TextInput)
			if !ok {
				continue
			}
			if input.CustomID == customID {
				return input.Value
			}
		}
	}
	return ""
}

// channelMention formats a clickable channel reference.
func channelMention(channelID string) string {
	return "<#" + channelID + ">"
}
