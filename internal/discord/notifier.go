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

	"github.com/procyoon/procbot/internal/format"
	"github.com/procyoon/procbot/internal/suggest"
)

// Embed colors.
const (
	colorBlue   = 0x3498db
	colorGreen  = 0x2ecc71
	colorRed    = 0xe74c3c
	colorPurple = 0x9b59b6
	colorOrange = 0xe67e22
)

// Custom id prefixes for the suggestion vote buttons.
const (
	voteUpPrefix   = "vote_up_"
	voteDownPrefix = "vote_down_"
)

// errNoDestination marks a missing configured destination channel.
var errNoDestination = errors.New("destination channel not configured")

// ParseVoteCustomID extracts the suggestion id and vote direction from a
// button custom id. Returns false for non-vote custom ids.
func ParseVoteCustomID(customID string) (id string, dir suggest.Direction, ok bool) {
	switch {
	case strings.HasPrefix(customID, voteUpPrefix):
		return strings.TrimPrefix(customID, voteUpPrefix), suggest.VoteUp, true
	case strings.HasPrefix(customID, voteDownPrefix):
		return strings.TrimPrefix(customID, voteDownPrefix), suggest.VoteDown, true
	default:
		return "", "", false
	}
}

// voteButtons builds the vote control row for a suggestion card.
func voteButtons(id string, up, down int) discordgo.ActionsRow {
	return discordgo.ActionsRow{
		Components: []discordgo.MessageComponent{
			discordgo.Button{
				CustomID: voteUpPrefix + id,
				Label:    strconv.Itoa(up),
				Style:    discordgo.SuccessButton,
				Emoji:    &discordgo.ComponentEmoji{Name: "\U0001F44D"}, // 👍
			},
			discordgo.Button{
				CustomID: voteDownPrefix + id,
				Label:    strconv.Itoa(down),
				Style:    discordgo.DangerButton,
				Emoji:    &discordgo.ComponentEmoji{Name: "\U0001F44E"}, // 👎
			},
		},
	}
}

// RenderCard posts the suggestion card to the suggestions channel.
func (c *Client) RenderCard(ctx context.Context, id, authorID, authorTag, content string) (suggest.CardRef, error) {
	if c.cfg.SuggestionsChannel == "" {
		return suggest.CardRef{}, fmt.Errorf("render card: %w", errNoDestination)
	}

	embed := &discordgo.MessageEmbed{
		Color: colorBlue,
		Author: &discordgo.MessageEmbedAuthor{
			Name: c.catalog.Get("suggestions.embed.author_text", nil),
		},
		Title: c.catalog.Get("suggestions.embed.title", map[string]string{
			"user": authorTag,
		}),
		Description: c.catalog.Get("suggestions.embed.description", map[string]string{
			"suggestion": format.Truncate(content, format.MaxEmbedDescription),
		}),
		Footer: &discordgo.MessageEmbedFooter{
			Text: c.catalog.Get("suggestions.embed.footer", map[string]string{
				"id": id,
			}),
		},
		Timestamp: time.Now().Format(time.RFC3339),
	}

	var msg *discordgo.Message
	err := retryableCtx(ctx, func() error {
		var sendErr error
		msg, sendErr = c.session.ChannelMessageSendComplex(c.cfg.SuggestionsChannel, &discordgo.MessageSend{
			Embeds:     []*discordgo.MessageEmbed{embed},
			Components: []discordgo.MessageComponent{voteButtons(id, 0, 0)},
		})
		return sendErr
	})
	if err != nil {
		return suggest.CardRef{}, fmt.Errorf("send suggestion card: %w", err)
	}

	slog.Info("posted suggestion card",
		"suggestion_id", id,
		"channel_id", c.cfg.SuggestionsChannel,
		"message_id", msg.ID,
		"author_id", authorID)

	return suggest.CardRef{ChannelID: c.cfg.SuggestionsChannel, MessageID: msg.ID}, nil
}

// UpdateVoteCounts re-renders the vote button labels on an existing card.
func (c *Client) UpdateVoteCounts(ctx context.Context, ref suggest.CardRef, id string, up, down int) error {
	components := []discordgo.MessageComponent{voteButtons(id, up, down)}

	err := retryableCtx(ctx, func() error {
		_, editErr := c.session.ChannelMessageEditComplex(&discordgo.MessageEdit{
			ID:         ref.MessageID,
			Channel:    ref.ChannelID,
			Components: &components,
		})
		return editErr
	})
	if err != nil {
		return fmt.Errorf("update vote counts: %w", err)
	}
	return nil
}

// DeleteCard removes a suggestion card. An already-deleted card is success.
func (c *Client) DeleteCard(ctx context.Context, ref suggest.CardRef) error {
	err := retryableCtx(ctx, func() error {
		return c.session.ChannelMessageDelete(ref.ChannelID, ref.MessageID)
	})
	if err != nil {
		if isDiscordErrCode(err, discordgo.ErrCodeUnknownMessage) {
			return nil
		}
		return fmt.Errorf("delete suggestion card: %w", err)
	}
	return nil
}

// PostResult posts the moderation outcome to the results channel. Silently
// skipped when no results channel is configured.
func (c *Client) PostResult(ctx context.Context, s suggest.Suggestion) error {
	if c.cfg.SuggestionResults == "" {
		return nil
	}

	title := c.catalog.Get("suggestions.results.rejected_title", nil)
	color := colorRed
	if s.Status == suggest.StatusApproved {
		title = c.catalog.Get("suggestions.results.approved_title", nil)
		color = colorGreen
	}
	title = format.StatusEmoji(string(s.Status)) + " " + title

	reason := s.ModerationReason
	if reason == "" {
		reason = c.catalog.Get("suggestions.results.no_reason", nil)
	}

	embed := &discordgo.MessageEmbed{
		Color: color,
		Title: title,
		Description: c.catalog.Get("suggestions.results.original_suggestion", map[string]string{
			"suggestion": format.Truncate(s.Content, format.MaxEmbedDescription),
		}),
		Fields: []*discordgo.MessageEmbedField{
			{
				Name:   c.catalog.Get("suggestions.results.author_field", nil),
				Value:  s.AuthorTag,
				Inline: true,
			},
			{
				Name:   c.catalog.Get("suggestions.results.decision_by_field", nil),
				Value:  mention(s.ModeratedBy),
				Inline: true,
			},
			{
				Name:   c.catalog.Get("suggestions.results.votes_field", nil),
				Value:  fmt.Sprintf("\U0001F44D %d | \U0001F44E %d", s.UpCount(), s.DownCount()),
				Inline: true,
			},
			{
				Name:  c.catalog.Get("suggestions.results.reason_field", nil),
				Value: reason,
			},
		},
		Footer: &discordgo.MessageEmbedFooter{
			Text: "ID: " + s.ID,
		},
		Timestamp: time.Now().Format(time.RFC3339),
	}

	err := retryableCtx(ctx, func() error {
		_, sendErr := c.session.ChannelMessageSendEmbed(c.cfg.SuggestionResults, embed)
		return sendErr
	})
	if err != nil {
		return fmt.Errorf("post suggestion result: %w", err)
	}
	return nil
}

// mention formats a user id as a Discord mention.
func mention(userID string) string {
	return "<@" + userID + ">"
}
