package discord

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/bwmarrin/discordgo"
)

// banPageSize is the maximum page the ban list endpoint returns.
const banPageSize = 1000

// Unban lifts a single ban.
func (c *Client) Unban(ctx context.Context, guildID, userID, reason string) error {
	err := retryableCtx(ctx, func() error {
		return c.session.GuildBanDelete(guildID, userID, discordgo.WithAuditLogReason(reason))
	})
	if err != nil {
		return fmt.Errorf("unban %s: %w", userID, err)
	}
	slog.Info("unbanned user", "guild_id", guildID, "user_id", userID, "reason", reason)
	return nil
}

// UnbanAll lifts every ban on the guild, paging through the full ban list.
// Returns the number of bans removed. A failure partway through returns the
// count removed so far alongside the error.
func (c *Client) UnbanAll(ctx context.Context, guildID, reason string) (int, error) {
	removed := 0
	after := ""
	for {
		var bans []*discordgo.GuildBan
		err := retryableCtx(ctx, func() error {
			var listErr error
			bans, listErr = c.session.GuildBans(guildID, banPageSize, "", after)
			return listErr
		})
		if err != nil {
			return removed, fmt.Errorf("list bans: %w", err)
		}
		if len(bans) == 0 {
			break
		}

		for _, ban := range bans {
			if err := c.Unban(ctx, guildID, ban.User.ID, reason); err != nil {
				return removed, err
			}
			removed++
		}

		if len(bans) < banPageSize {
			break
		}
		after = bans[len(bans)-1].User.ID
	}

	slog.Info("mass unban complete", "guild_id", guildID, "removed", removed)
	return removed, nil
}
