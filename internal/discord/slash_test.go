package discord

import (
	"testing"

	"github.com/bwmarrin/discordgo"

	"github.com/procyoon/procbot/internal/suggest"
)

func TestParseVoteCustomID(t *testing.T) {
	tests := []struct {
		name     string
		customID string
		wantID   string
		wantDir  suggest.Direction
		wantOK   bool
	}{
		{"upvote", "vote_up_0042", "0042", suggest.VoteUp, true},
		{"downvote", "vote_down_0042", "0042", suggest.VoteDown, true},
		{"unrelated button", "create_ticket", "", "", false},
		{"empty", "", "", "", false},
		{"prefix only", "vote_up_", "", suggest.VoteUp, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, dir, ok := ParseVoteCustomID(tt.customID)
			if ok != tt.wantOK {
				t.Fatalf("ParseVoteCustomID(%q) ok = %v, want %v", tt.customID, ok, tt.wantOK)
			}
			if !ok {
				return
			}
			if id != tt.wantID || dir != tt.wantDir {
				t.Errorf("ParseVoteCustomID(%q) = (%q, %q), want (%q, %q)",
					tt.customID, id, dir, tt.wantID, tt.wantDir)
			}
		})
	}
}

func TestVoteButtonsRoundTrip(t *testing.T) {
	row := voteButtons("0007", 3, 1)

	if len(row.Components) != 2 {
		t.Fatalf("voteButtons row has %d components, want 2", len(row.Components))
	}

	up, ok := row.Components[0].(discordgo.Button)
	if !ok {
		t.Fatalf("first component is %T, want Button", row.Components[0])
	}
	down, ok := row.Components[1].(discordgo.Button)
	if !ok {
		t.Fatalf("second component is %T, want Button", row.Components[1])
	}

	id, dir, ok := ParseVoteCustomID(up.CustomID)
	if !ok || id != "0007" || dir != suggest.VoteUp {
		t.Errorf("up button custom id %q did not round-trip", up.CustomID)
	}
	id, dir, ok = ParseVoteCustomID(down.CustomID)
	if !ok || id != "0007" || dir != suggest.VoteDown {
		t.Errorf("down button custom id %q did not round-trip", down.CustomID)
	}

	if up.Label != "3" {
		t.Errorf("up button label = %q, want %q", up.Label, "3")
	}
	if down.Label != "1" {
		t.Errorf("down button label = %q, want %q", down.Label, "1")
	}
}

func TestCommandDefinitions(t *testing.T) {
	defs := commandDefinitions()

	want := map[string]bool{
		"suggest": false, "approve": false, "reject": false,
		"voice": false, "tickets": false, "music": false,
		"unban": false, "unban-all": false, "message": false,
	}
	for _, cmd := range defs {
		if _, known := want[cmd.Name]; !known {
			t.Errorf("unexpected command %q", cmd.Name)
			continue
		}
		want[cmd.Name] = true
		if cmd.Description == "" {
			t.Errorf("command %q has no description", cmd.Name)
		}
	}
	for name, seen := range want {
		if !seen {
			t.Errorf("command %q not defined", name)
		}
	}
}

func TestOptionHelpers(t *testing.T) {
	opts := []*discordgo.ApplicationCommandInteractionDataOption{
		{Name: "id", Type: discordgo.ApplicationCommandOptionString, Value: "0042"},
		{Name: "enabled", Type: discordgo.ApplicationCommandOptionBoolean, Value: true},
	}

	if got := optString(opts, "id"); got != "0042" {
		t.Errorf("optString(id) = %q, want %q", got, "0042")
	}
	if got := optString(opts, "missing"); got != "" {
		t.Errorf("optString(missing) = %q, want empty", got)
	}
	if !optBool(opts, "enabled") {
		t.Error("optBool(enabled) = false, want true")
	}
	if optBool(opts, "missing") {
		t.Error("optBool(missing) = true, want false")
	}
}

func TestChannelMention(t *testing.T) {
	if got := channelMention("123"); got != "<#123>" {
		t.Errorf("channelMention = %q, want %q", got, "<#123>")
	}
	if got := mention("456"); got != "<@456>" {
		t.Errorf("mention = %q, want %q", got, "<@456>")
	}
}
