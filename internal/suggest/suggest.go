// Package suggest implements the community suggestion lifecycle: sequential
// id allocation, per-voter vote tracking, and a single-shot moderation state
// machine. The Discord rendering side lives behind the Notifier interface.
package suggest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/procyoon/procbot/internal/state"
)

// Status is the moderation state of a suggestion. Once a suggestion leaves
// StatusPending it never returns.
type Status string

// Suggestion states.
const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

// Direction is a vote direction.
type Direction string

// Vote directions.
const (
	VoteUp   Direction = "up"
	VoteDown Direction = "down"
)

// Sentinel errors returned by registry operations.
var (
	ErrNotFound     = errors.New("suggestion not found")
	ErrInvalidInput = errors.New("invalid input")
)

// CardRef identifies the rendered suggestion card on the chat surface.
type CardRef struct {
	ChannelID string
	MessageID string
}

// Suggestion is a single community suggestion and its vote/moderation state.
type Suggestion struct {
	CreatedAt        time.Time
	Up               map[string]bool
	Down             map[string]bool
	ID               string
	AuthorID         string
	AuthorTag        string
	Content          string
	ModeratedBy      string
	ModerationReason string
	Card             CardRef
	Status           Status
}

// UpCount returns the number of upvotes.
func (s *Suggestion) UpCount() int { return len(s.Up) }

// DownCount returns the number of downvotes.
func (s *Suggestion) DownCount() int { return len(s.Down) }

// Notifier renders suggestion state onto the chat surface.
type Notifier interface {
	// RenderCard posts the suggestion card with both vote controls at zero
	// and returns a reference to the posted message.
	RenderCard(ctx context.Context, id, authorID, authorTag, content string) (CardRef, error)
	// UpdateVoteCounts re-renders the vote-count labels on an existing card.
	UpdateVoteCounts(ctx context.Context, ref CardRef, id string, up, down int) error
	// DeleteCard removes the card. Deleting an already-deleted card is not an error.
	DeleteCard(ctx context.Context, ref CardRef) error
	// PostResult posts the moderation outcome to the results destination.
	// Implementations silently skip when no results destination is configured.
	PostResult(ctx context.Context, s Suggestion) error
}

// AuthorizationChecker reports whether a user holds a privileged role.
// Results are never cached by callers.
type AuthorizationChecker interface {
	IsStaff(ctx context.Context, guildID, userID string) bool
}

// Archiver persists decided suggestions. Archival is best-effort: the
// in-memory record remains authoritative for the process lifetime.
type Archiver interface {
	ArchiveSuggestion(ctx context.Context, rec state.SuggestionRecord) error
}

// Stats holds suggestion counts partitioned by status.
type Stats struct {
	Total    int
	Pending  int
	Approved int
	Rejected int
}

// Registry owns all suggestion records for the process. Construct one at
// startup and pass it by reference; there are no package-level singletons.
type Registry struct {
	notifier    Notifier
	archive     Archiver
	logger      *slog.Logger
	suggestions map[string]*Suggestion
	counter     int
	mu          sync.Mutex
}

// Option configures a Registry.
type Option func(*Registry)

// WithArchiver sets the archival store for decided suggestions.
func WithArchiver(a Archiver) Option {
	return func(r *Registry) { r.archive = a }
}

// WithLogger sets the registry logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Registry) { r.logger = logger }
}

// New creates a suggestion registry.
func New(notifier Notifier, opts ...Option) *Registry {
	r := &Registry{
		notifier:    notifier,
		logger:      slog.Default(),
		suggestions: make(map[string]*Suggestion),
		counter:     1,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Submit allocates the next suggestion id, renders the card, and stores a
// pending record. Empty content is rejected before any id is allocated. The
// counter advances even if rendering fails, so ids are never reused; a failed
// render leaves a permanent gap.
func (r *Registry) Submit(ctx context.Context, authorID, authorTag, content string) (string, error) {
	if strings.TrimSpace(content) == "" {
		return "", fmt.Errorf("%w: empty content", ErrInvalidInput)
	}

	r.mu.Lock()
	id := fmt.Sprintf("%04d", r.counter)
	r.counter++
	r.mu.Unlock()

	ref, err := r.notifier.RenderCard(ctx, id, authorID, authorTag, content)
	if err != nil {
		return "", fmt.Errorf("render suggestion card: %w", err)
	}

	r.mu.Lock()
	r.suggestions[id] = &Suggestion{
		ID:        id,
		AuthorID:  authorID,
		AuthorTag: authorTag,
		Content:   content,
		Card:      ref,
		CreatedAt: time.Now(),
		Status:    StatusPending,
		Up:        make(map[string]bool),
		Down:      make(map[string]bool),
	}
	r.mu.Unlock()

	r.logger.Info("suggestion created",
		"id", id,
		"author_id", authorID,
		"channel_id", ref.ChannelID,
		"message_id", ref.MessageID)

	return id, nil
}

// Vote records a vote. Repeated votes by the same voter are last-write-wins:
// the voter ends up in exactly one of the up/down sets. Returns false without
// error when the suggestion is no longer pending.
func (r *Registry) Vote(ctx context.Context, id, voterID string, dir Direction) (bool, error) {
	if dir != VoteUp && dir != VoteDown {
		return false, fmt.Errorf("%w: vote direction %q", ErrInvalidInput, dir)
	}

	r.mu.Lock()
	s, ok := r.suggestions[id]
	if !ok {
		r.mu.Unlock()
		return false, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if s.Status != StatusPending {
		r.mu.Unlock()
		return false, nil
	}

	delete(s.Up, voterID)
	delete(s.Down, voterID)
	if dir == VoteUp {
		s.Up[voterID] = true
	} else {
		s.Down[voterID] = true
	}
	ref := s.Card
	up, down := len(s.Up), len(s.Down)
	r.mu.Unlock()

	// The vote is committed; the card refresh is at-least-once.
	if err := r.notifier.UpdateVoteCounts(ctx, ref, id, up, down); err != nil {
		r.logger.Warn("failed to update vote counts on card",
			"id", id,
			"error", err)
	}

	return true, nil
}

// Moderate transitions a pending suggestion to approved or rejected. The
// transition is single-shot: a second call returns false and leaves the first
// decision intact. Card deletion and the result post are best-effort.
func (r *Registry) Moderate(ctx context.Context, id, moderatorID, reason string, decision Status) (bool, error) {
	if decision != StatusApproved && decision != StatusRejected {
		return false, fmt.Errorf("%w: decision %q", ErrInvalidInput, decision)
	}

	r.mu.Lock()
	s, ok := r.suggestions[id]
	if !ok {
		r.mu.Unlock()
		return false, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if s.Status != StatusPending {
		r.mu.Unlock()
		return false, nil
	}

	s.Status = decision
	s.ModeratedBy = moderatorID
	s.ModerationReason = reason
	snapshot := r.snapshotLocked(s)
	r.mu.Unlock()

	r.logger.Info("suggestion moderated",
		"id", id,
		"decision", string(decision),
		"moderator_id", moderatorID)

	if err := r.notifier.DeleteCard(ctx, snapshot.Card); err != nil {
		r.logger.Warn("failed to delete suggestion card", "id", id, "error", err)
	}
	if err := r.notifier.PostResult(ctx, snapshot); err != nil {
		r.logger.Warn("failed to post suggestion result", "id", id, "error", err)
	}

	if r.archive != nil {
		rec := state.SuggestionRecord{
			ID:               snapshot.ID,
			AuthorID:         snapshot.AuthorID,
			AuthorTag:        snapshot.AuthorTag,
			Content:          snapshot.Content,
			CreatedAt:        snapshot.CreatedAt,
			DecidedAt:        time.Now(),
			Status:           string(snapshot.Status),
			ModeratedBy:      snapshot.ModeratedBy,
			ModerationReason: snapshot.ModerationReason,
			UpVotes:          snapshot.UpCount(),
			DownVotes:        snapshot.DownCount(),
		}
		if err := r.archive.ArchiveSuggestion(ctx, rec); err != nil {
			r.logger.Warn("failed to archive suggestion", "id", id, "error", err)
		}
	}

	return true, nil
}

// Get returns a copy of the suggestion with the given id.
func (r *Registry) Get(id string) (Suggestion, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.suggestions[id]
	if !ok {
		return Suggestion{}, false
	}
	return r.snapshotLocked(s), true
}

// Exists reports whether a suggestion with the given id exists.
func (r *Registry) Exists(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, ok := r.suggestions[id]
	return ok
}

// Stats returns suggestion counts partitioned by status.
func (r *Registry) Stats() Stats {
	r.mu.Lock()
	defer r.mu.Unlock()

	st := Stats{Total: len(r.suggestions)}
	for _, s := range r.suggestions {
		switch s.Status {
		case StatusPending:
			st.Pending++
		case StatusApproved:
			st.Approved++
		case StatusRejected:
			st.Rejected++
		}
	}
	return st
}

// snapshotLocked returns a deep copy safe to use outside the lock.
func (*Registry) snapshotLocked(s *Suggestion) Suggestion {
	out := *s
	out.Up = make(map[string]bool, len(s.Up))
	for k := range s.Up {
		out.Up[k] = true
	}
	out.Down = make(map[string]bool, len(s.Down))
	for k := range s.Down {
		out.Down[k] = true
	}
	return out
}
