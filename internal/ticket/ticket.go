// Package ticket manages support tickets: one private channel per user,
// opened on request and torn down when the owner or staff closes it.
package ticket

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/procyoon/procbot/internal/state"
)

// closeDelay is how long the farewell message stays visible before the
// channel is removed.
const defaultCloseDelay = 5 * time.Second

// Sentinel errors returned by registry operations.
var (
	// ErrAlreadyOpen is returned when the user already has an open ticket.
	ErrAlreadyOpen = errors.New("user already has an open ticket")
)

// Ticket is one open support ticket.
type Ticket struct {
	CreatedAt time.Time
	ID        string
	OwnerID   string
	ChannelID string
}

// ChannelFactory creates and destroys ticket channels on the chat platform.
type ChannelFactory interface {
	// CreateTicketChannel provisions a private text channel visible to the
	// owner and staff only, and returns its id.
	CreateTicketChannel(ctx context.Context, name, ownerID string) (string, error)
	// DeleteChannel removes a channel. Already-deleted channels are not an
	// error.
	DeleteChannel(ctx context.Context, channelID, reason string) error
}

// Archiver persists closed tickets.
type Archiver interface {
	ArchiveTicket(ctx context.Context, rec state.TicketRecord) error
}

// Stats holds ticket registry statistics.
type Stats struct {
	ActiveTickets int
}

// Registry owns all open tickets for the process.
type Registry struct {
	factory    ChannelFactory
	archive    Archiver
	logger     *slog.Logger
	byOwner    map[string]*Ticket // ownerID -> ticket
	byChannel  map[string]string  // channelID -> ownerID
	closeDelay time.Duration
	mu         sync.Mutex
	wg         sync.WaitGroup
}

// Option configures a Registry.
type Option func(*Registry)

// WithArchiver sets the archival store for closed tickets.
func WithArchiver(a Archiver) Option {
	return func(r *Registry) { r.archive = a }
}

// WithCloseDelay sets the delay between closing and channel removal.
func WithCloseDelay(d time.Duration) Option {
	return func(r *Registry) { r.closeDelay = d }
}

// WithLogger sets the registry logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Registry) { r.logger = logger }
}

// New creates a ticket registry.
func New(factory ChannelFactory, opts ...Option) *Registry {
	r := &Registry{
		factory:    factory,
		logger:     slog.Default(),
		byOwner:    make(map[string]*Ticket),
		byChannel:  make(map[string]string),
		closeDelay: defaultCloseDelay,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// ChannelNameFor builds the ticket channel name for a username. Discord
// channel names are lowercase with a restricted character set.
func ChannelNameFor(username string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(username) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	name := b.String()
	if name == "" {
		name = "user"
	}
	return "ticket-" + name
}

// Open creates a ticket for the user. Returns ErrAlreadyOpen (with the
// existing ticket) when one is already active.
func (r *Registry) Open(ctx context.Context, ownerID, username string) (Ticket, error) {
	r.mu.Lock()
	if existing, ok := r.byOwner[ownerID]; ok {
		t := *existing
		r.mu.Unlock()
		return t, fmt.Errorf("%w: channel %s", ErrAlreadyOpen, t.ChannelID)
	}
	r.mu.Unlock()

	channelID, err := r.factory.CreateTicketChannel(ctx, ChannelNameFor(username), ownerID)
	if err != nil {
		return Ticket{}, fmt.Errorf("create ticket channel: %w", err)
	}

	t := &Ticket{
		ID:        uuid.New().String(),
		OwnerID:   ownerID,
		ChannelID: channelID,
		CreatedAt: time.Now(),
	}

	r.mu.Lock()
	// A second Open for the same user may have raced the channel creation.
	if existing, ok := r.byOwner[ownerID]; ok {
		winner := *existing
		r.mu.Unlock()
		if err := r.factory.DeleteChannel(ctx, channelID, "duplicate ticket"); err != nil {
			r.logger.Warn("failed to remove duplicate ticket channel",
				"channel_id", channelID, "error", err)
		}
		return winner, fmt.Errorf("%w: channel %s", ErrAlreadyOpen, winner.ChannelID)
	}
	r.byOwner[ownerID] = t
	r.byChannel[channelID] = ownerID
	r.mu.Unlock()

	r.logger.Info("ticket opened",
		"ticket_id", t.ID,
		"owner_id", ownerID,
		"channel_id", channelID)

	return *t, nil
}

// Close closes the ticket owning the given channel. Only the ticket owner or
// a caller with manage permission may close it. The channel itself is removed
// after a short delay so the farewell message stays visible.
func (r *Registry) Close(ctx context.Context, channelID, closerID string, canManage bool) (bool, error) {
	r.mu.Lock()
	ownerID, ok := r.byChannel[channelID]
	if !ok {
		r.mu.Unlock()
		return false, nil
	}
	if closerID != ownerID && !canManage {
		r.mu.Unlock()
		return false, nil
	}
	t := r.byOwner[ownerID]
	delete(r.byOwner, ownerID)
	delete(r.byChannel, channelID)
	closed := *t
	r.mu.Unlock()

	r.logger.Info("ticket closed",
		"ticket_id", closed.ID,
		"owner_id", ownerID,
		"closed_by", closerID)

	if r.archive != nil {
		rec := state.TicketRecord{
			ID:        closed.ID,
			OwnerID:   closed.OwnerID,
			ChannelID: closed.ChannelID,
			OpenedAt:  closed.CreatedAt,
			ClosedAt:  time.Now(),
			ClosedBy:  closerID,
		}
		if err := r.archive.ArchiveTicket(ctx, rec); err != nil {
			r.logger.Warn("failed to archive ticket", "ticket_id", closed.ID, "error", err)
		}
	}

	r.wg.Add(1)
	time.AfterFunc(r.closeDelay, func() {
		defer r.wg.Done()
		delCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := r.factory.DeleteChannel(delCtx, channelID, "ticket closed"); err != nil {
			r.logger.Warn("failed to delete ticket channel",
				"channel_id", channelID, "error", err)
		}
	})

	return true, nil
}

// HasActiveTicket reports whether the user has an open ticket.
func (r *Registry) HasActiveTicket(ownerID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, ok := r.byOwner[ownerID]
	return ok
}

// UserTicketChannel returns the channel id of the user's open ticket.
func (r *Registry) UserTicketChannel(ownerID string) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.byOwner[ownerID]
	if !ok {
		return "", false
	}
	return t.ChannelID, true
}

// IsTicketChannel reports whether the channel belongs to an open ticket.
func (r *Registry) IsTicketChannel(channelID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, ok := r.byChannel[channelID]
	return ok
}

// OwnerOf returns the owner of the ticket in the given channel.
func (r *Registry) OwnerOf(channelID string) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	ownerID, ok := r.byChannel[channelID]
	return ownerID, ok
}

// Stats returns ticket registry statistics.
func (r *Registry) Stats() Stats {
	r.mu.Lock()
	defer r.mu.Unlock()

	return Stats{ActiveTickets: len(r.byOwner)}
}

// Wait blocks until pending channel removals finish. Used on shutdown and in
// tests.
func (r *Registry) Wait() {
	r.wg.Wait()
}
