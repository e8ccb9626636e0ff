package discord

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	"github.com/bwmarrin/discordgo"
)

// Permission sets for provisioned channels.
const (
	voiceMemberPerms = discordgo.PermissionViewChannel |
		discordgo.PermissionVoiceConnect |
		discordgo.PermissionVoiceSpeak |
		discordgo.PermissionVoiceUseVAD

	ticketOwnerPerms = discordgo.PermissionViewChannel |
		discordgo.PermissionSendMessages |
		discordgo.PermissionReadMessageHistory |
		discordgo.PermissionAttachFiles |
		discordgo.PermissionEmbedLinks

	ticketStaffPerms = ticketOwnerPerms |
		discordgo.PermissionManageMessages |
		discordgo.PermissionUseExternalEmojis
)

// Create provisions a voice channel under the configured voice category with
// connect/speak granted to the general membership. Implements
// voice.ChannelProvisioner.
func (c *Client) Create(ctx context.Context, name string, userLimit int) (string, error) {
	if c.cfg.VoiceCategoryID == "" {
		return "", fmt.Errorf("create voice channel: %w", errNoDestination)
	}

	data := discordgo.GuildChannelCreateData{
		Name:      name,
		Type:      discordgo.ChannelTypeGuildVoice,
		ParentID:  c.cfg.VoiceCategoryID,
		UserLimit: userLimit,
		PermissionOverwrites: []*discordgo.PermissionOverwrite{
			{
				// The @everyone role shares the guild id.
				ID:    c.cfg.GuildID,
				Type:  discordgo.PermissionOverwriteTypeRole,
				Allow: voiceMemberPerms,
			},
		},
	}

	var ch *discordgo.Channel
	err := retryableCtx(ctx, func() error {
		var createErr error
		ch, createErr = c.session.GuildChannelCreateComplex(c.cfg.GuildID, data)
		return createErr
	})
	if err != nil {
		return "", fmt.Errorf("create voice channel: %w", err)
	}

	slog.Info("created voice channel",
		"channel_id", ch.ID,
		"name", name,
		"user_limit", userLimit)

	return ch.ID, nil
}

// Delete removes a channel. Already-deleted channels are success. Implements
// both voice.ChannelProvisioner and the ticket channel deletion path.
func (c *Client) Delete(ctx context.Context, channelID, reason string) error {
	err := retryableCtx(ctx, func() error {
		_, delErr := c.session.ChannelDelete(channelID, discordgo.WithAuditLogReason(reason))
		return delErr
	})
	if err != nil {
		if isDiscordErrCode(err, discordgo.ErrCodeUnknownChannel) {
			return nil
		}
		return fmt.Errorf("delete channel %s: %w", channelID, err)
	}
	return nil
}

// LiveMemberCount returns the current voice occupancy of a channel. The
// second return is false when the channel no longer exists.
func (c *Client) LiveMemberCount(ctx context.Context, channelID string) (int, bool) {
	// Existence check goes to the REST API: the state cache can lag behind
	// out-of-band deletions.
	err := retryableCtx(ctx, func() error {
		_, chErr := c.session.Channel(channelID)
		return chErr
	})
	if err != nil {
		if isDiscordErrCode(err, discordgo.ErrCodeUnknownChannel) {
			return 0, false
		}
		// Transient failure: report occupied so the grace timer resets
		// rather than deleting a channel we could not observe.
		slog.Warn("occupancy check failed", "channel_id", channelID, "error", err)
		return 1, true
	}

	guild, err := c.session.State.Guild(c.cfg.GuildID)
	if err != nil {
		slog.Warn("guild not in state cache", "guild_id", c.cfg.GuildID, "error", err)
		return 1, true
	}

	count := 0
	for _, vs := range guild.VoiceStates {
		if vs.ChannelID == channelID {
			count++
		}
	}
	return count, true
}

// CreateTicketChannel provisions a private text channel visible to the owner
// and staff. Implements ticket.ChannelFactory.
func (c *Client) CreateTicketChannel(ctx context.Context, name, ownerID string) (string, error) {
	if c.cfg.TicketCategoryID == "" {
		return "", fmt.Errorf("create ticket channel: %w", errNoDestination)
	}

	overwrites := []*discordgo.PermissionOverwrite{
		{
			ID:   c.cfg.GuildID,
			Type: discordgo.PermissionOverwriteTypeRole,
			Deny: discordgo.PermissionViewChannel,
		},
		{
			ID:    ownerID,
			Type:  discordgo.PermissionOverwriteTypeMember,
			Allow: ticketOwnerPerms,
		},
	}
	for _, roleID := range c.cfg.StaffRoleIDs {
		overwrites = append(overwrites, &discordgo.PermissionOverwrite{
			ID:    roleID,
			Type:  discordgo.PermissionOverwriteTypeRole,
			Allow: ticketStaffPerms,
		})
	}

	data := discordgo.GuildChannelCreateData{
		Name:                 name,
		Type:                 discordgo.ChannelTypeGuildText,
		ParentID:             c.cfg.TicketCategoryID,
		PermissionOverwrites: overwrites,
	}

	var ch *discordgo.Channel
	err := retryableCtx(ctx, func() error {
		var createErr error
		ch, createErr = c.session.GuildChannelCreateComplex(c.cfg.GuildID, data)
		return createErr
	})
	if err != nil {
		return "", fmt.Errorf("create ticket channel: %w", err)
	}

	slog.Info("created ticket channel",
		"channel_id", ch.ID,
		"name", name,
		"owner_id", ownerID)

	return ch.ID, nil
}

// DeleteChannel implements ticket.ChannelFactory.
func (c *Client) DeleteChannel(ctx context.Context, channelID, reason string) error {
	return c.Delete(ctx, channelID, reason)
}

// IsStaff reports whether the user holds any configured staff role. The
// result is computed fresh on every call. Implements
// suggest.AuthorizationChecker.
func (c *Client) IsStaff(ctx context.Context, guildID, userID string) bool {
	var member *discordgo.Member
	err := retryableCtx(ctx, func() error {
		var memberErr error
		member, memberErr = c.session.GuildMember(guildID, userID)
		return memberErr
	})
	if err != nil {
		slog.Warn("staff check failed", "guild_id", guildID, "user_id", userID, "error", err)
		return false
	}

	for _, roleID := range member.Roles {
		if slices.Contains(c.cfg.StaffRoleIDs, roleID) {
			return true
		}
	}
	return false
}
