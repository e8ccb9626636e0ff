package discord

import (
	"errors"
	"fmt"
	"testing"

	"github.com/bwmarrin/discordgo"
)

func TestIsDiscordErrCode(t *testing.T) {
	unknownMessage := &discordgo.RESTError{
		Message: &discordgo.APIErrorMessage{Code: discordgo.ErrCodeUnknownMessage},
	}

	tests := []struct {
		name string
		err  error
		code int
		want bool
	}{
		{"matching code", unknownMessage, discordgo.ErrCodeUnknownMessage, true},
		{"wrapped matching code", fmt.Errorf("delete: %w", unknownMessage), discordgo.ErrCodeUnknownMessage, true},
		{"different code", unknownMessage, discordgo.ErrCodeUnknownChannel, false},
		{"plain error", errors.New("boom"), discordgo.ErrCodeUnknownMessage, false},
		{"nil message", &discordgo.RESTError{}, discordgo.ErrCodeUnknownMessage, false},
		{"nil error", nil, discordgo.ErrCodeUnknownMessage, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isDiscordErrCode(tt.err, tt.code); got != tt.want {
				t.Errorf("isDiscordErrCode(%v, %d) = %v, want %v", tt.err, tt.code, got, tt.want)
			}
		})
	}
}

func TestModalInput(t *testing.T) {
	data := discordgo.ModalSubmitInteractionData{
		CustomID: customIDVoiceModal,
		Components: []discordgo.MessageComponent{
			&discordgo.ActionsRow{
				Components: []discordgo.MessageComponent{
					&discordgo.TextInput{CustomID: customIDVoiceLimit, Value: "25"},
				},
			},
		},
	}

	if got := modalInput(data, customIDVoiceLimit); got != "25" {
		t.Errorf("modalInput = %q, want %q", got, "25")
	}
	if got := modalInput(data, "other_field"); got != "" {
		t.Errorf("modalInput(other_field) = %q, want empty", got)
	}
}
