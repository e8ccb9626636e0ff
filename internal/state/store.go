// Package state provides persistent state management for the bot.
package state

import (
	"context"
	"time"
)

// SuggestionRecord is the archived form of a decided suggestion.
type SuggestionRecord struct {
	CreatedAt        time.Time `json:"created_at"`
	DecidedAt        time.Time `json:"decided_at"`
	ID               string    `json:"id"`
	AuthorID         string    `json:"author_id"`
	AuthorTag        string    `json:"author_tag"`
	Content          string    `json:"content"`
	Status           string    `json:"status"` // "approved" or "rejected"
	ModeratedBy      string    `json:"moderated_by"`
	ModerationReason string    `json:"moderation_reason"`
	UpVotes          int       `json:"up_votes"`
	DownVotes        int       `json:"down_votes"`
}

// TicketRecord is the archived form of a closed support ticket.
type TicketRecord struct {
	OpenedAt  time.Time `json:"opened_at"`
	ClosedAt  time.Time `json:"closed_at"`
	ID        string    `json:"id"`
	OwnerID   string    `json:"owner_id"`
	ChannelID string    `json:"channel_id"`
	ClosedBy  string    `json:"closed_by"`
}

// Store provides persistent state operations. Live registries keep their
// working state in-memory; the store only holds decided/closed records and
// short-lived interaction dedup keys.
type Store interface {
	// Decided suggestion archive
	ArchiveSuggestion(ctx context.Context, rec SuggestionRecord) error
	Suggestion(ctx context.Context, id string) (SuggestionRecord, bool)

	// Closed ticket archive
	ArchiveTicket(ctx context.Context, rec TicketRecord) error

	// Interaction deduplication - guards against duplicate gateway deliveries
	WasHandled(ctx context.Context, interactionKey string) bool
	MarkHandled(ctx context.Context, interactionKey string, ttl time.Duration) error

	// Lifecycle
	Cleanup(ctx context.Context) error
	Close() error
}
