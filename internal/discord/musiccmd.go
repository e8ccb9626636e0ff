package discord

import (
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"

	"github.com/procyoon/procbot/internal/format"
	"github.com/procyoon/procbot/internal/music"
)

// songTitleLimit keeps queue listings within a single embed field.
const songTitleLimit = 80

// queueDisplayLimit caps how many queued songs the /music queue embed lists.
const queueDisplayLimit = 10

func (h *InteractionHandler) handleMusicCommand(
	s *discordgo.Session,
	i *discordgo.InteractionCreate,
	data discordgo.ApplicationCommandInteractionData,
) {
	if len(data.Options) == 0 {
		h.respondError(s, i, "Please specify a subcommand, e.g. /music play")
		return
	}

	sub := data.Options[0]
	guildID := i.GuildID

	switch sub.Name {
	case "play":
		url := strings.TrimSpace(optString(sub.Options, "url"))
		if url == "" {
			h.respondError(s, i, h.client.catalog.Get("music.errors.empty_url", nil))
			return
		}
		song := music.Song{
			Title:       url,
			URL:         url,
			RequestedBy: i.Member.User.ID,
		}
		pos := h.music.Enqueue(guildID, song)
		if _, playing := h.music.NowPlaying(guildID); !playing {
			now, _ := h.music.Advance(guildID)
			h.respond(s, i, h.client.catalog.Get("music.now_playing", map[string]string{"title": now.Title}), nil)
			return
		}
		h.respond(s, i, h.client.catalog.Get("music.queued", map[string]string{
			"title":    song.Title,
			"position": fmt.Sprintf("%d", pos),
		}), nil)

	case "skip":
		next, ok := h.music.Skip(guildID)
		if !ok {
			h.respond(s, i, h.client.catalog.Get("music.queue_empty", nil), nil)
			return
		}
		h.respond(s, i, h.client.catalog.Get("music.now_playing", map[string]string{"title": next.Title}), nil)

	case "stop":
		if !h.music.Stop(guildID) {
			h.respond(s, i, h.client.catalog.Get("music.nothing_playing", nil), nil)
			return
		}
		h.respond(s, i, h.client.catalog.Get("music.stopped", nil), nil)

	case "pause":
		if !h.music.Pause(guildID) {
			h.respond(s, i, h.client.catalog.Get("music.nothing_playing", nil), nil)
			return
		}
		h.respond(s, i, h.client.catalog.Get("music.paused", nil), nil)

	case "resume":
		if !h.music.Resume(guildID) {
			h.respond(s, i, h.client.catalog.Get("music.not_paused", nil), nil)
			return
		}
		h.respond(s, i, h.client.catalog.Get("music.resumed", nil), nil)

	case "queue":
		h.respond(s, i, "", h.queueEmbed(guildID))

	case "nowplaying":
		now, ok := h.music.NowPlaying(guildID)
		if !ok {
			h.respond(s, i, h.client.catalog.Get("music.nothing_playing", nil), nil)
			return
		}
		h.respond(s, i, h.client.catalog.Get("music.now_playing", map[string]string{"title": now.Title}), nil)

	case "loop":
		enabled := optBool(sub.Options, "enabled")
		if !h.music.SetLoop(guildID, enabled) {
			h.respond(s, i, h.client.catalog.Get("music.nothing_playing", nil), nil)
			return
		}
		key := "music.loop_off"
		if enabled {
			key = "music.loop_on"
		}
		h.respond(s, i, h.client.catalog.Get(key, nil), nil)

	case "clear":
		dropped := h.music.Clear(guildID)
		h.respond(s, i, h.client.catalog.Get("music.cleared", map[string]string{
			"count": fmt.Sprintf("%d", dropped),
		}), nil)

	default:
		h.respondError(s, i, "Unknown subcommand")
	}
}

func (h *InteractionHandler) queueEmbed(guildID string) *discordgo.MessageEmbed {
	embed := &discordgo.MessageEmbed{
		Title: h.client.catalog.Get("music.queue_title", nil),
		Color: colorPurple,
	}

	if now, ok := h.music.NowPlaying(guildID); ok {
		value := format.Truncate(now.Title, songTitleLimit)
		if now.Duration > 0 {
			value += " [" + format.Duration(now.Duration) + "]"
		}
		if h.music.Paused(guildID) {
			value += " (paused)"
		}
		if h.music.Loop(guildID) {
			value += " (looping)"
		}
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:  "Now Playing",
			Value: value,
		})
	}

	songs := h.music.List(guildID)
	if len(songs) == 0 && len(embed.Fields) == 0 {
		embed.Description = h.client.catalog.Get("music.queue_empty", nil)
		return embed
	}

	var b strings.Builder
	for n, song := range songs {
		if n == queueDisplayLimit {
			fmt.Fprintf(&b, "... and %d more\n", len(songs)-queueDisplayLimit)
			break
		}
		fmt.Fprintf(&b, "%d. %s (requested by %s)\n",
			n+1, format.Truncate(song.Title, songTitleLimit), mention(song.RequestedBy))
	}
	if b.Len() > 0 {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:  fmt.Sprintf("Up Next (%d)", len(songs)),
			Value: b.String(),
		})
	}
	return embed
}
