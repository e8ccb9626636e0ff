package state

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/codeGROOVE-dev/fido"
	"github.com/codeGROOVE-dev/fido/pkg/store/cloudrun"
)

// TTLs for different data types.
const (
	suggestionTTL = 365 * 24 * time.Hour // Decided suggestions are the audit trail
	ticketTTL     = 90 * 24 * time.Hour  // 90 days of closed ticket history
)

// FidoStore implements Store using fido with CloudRun backend.
//
// Requires these Datastore databases (must be created before use):
//   - procbot-suggestions: decided suggestion archive
//   - procbot-tickets: closed ticket archive
//
// Interaction deduplication is in-memory only (short TTL, not worth persisting).
type FidoStore struct {
	suggestions *fido.TieredCache[string, SuggestionRecord]
	tickets     *fido.TieredCache[string, TicketRecord]

	handled   map[string]time.Time
	handledMu sync.RWMutex
}

// FidoStoreOption configures a FidoStore.
type FidoStoreOption func(*fidoStoreOptions)

type fidoStoreOptions struct {
	suggestionStore fido.Store[string, SuggestionRecord]
	ticketStore     fido.Store[string, TicketRecord]
}

// WithSuggestionStore sets a custom store for suggestion archives.
func WithSuggestionStore(s fido.Store[string, SuggestionRecord]) FidoStoreOption {
	return func(o *fidoStoreOptions) { o.suggestionStore = s }
}

// WithTicketStore sets a custom store for ticket archives.
func WithTicketStore(s fido.Store[string, TicketRecord]) FidoStoreOption {
	return func(o *fidoStoreOptions) { o.ticketStore = s }
}

// NewFidoStore creates a new fido-backed store.
// Uses CloudRun backend which auto-detects environment.
// Use WithSuggestionStore / WithTicketStore to inject custom stores for testing.
func NewFidoStore(ctx context.Context, opts ...FidoStoreOption) (*FidoStore, error) {
	var o fidoStoreOptions
	for _, opt := range opts {
		opt(&o)
	}

	suggestionStore := o.suggestionStore
	if suggestionStore == nil {
		var err error
		suggestionStore, err = cloudrun.New[string, SuggestionRecord](ctx, "procbot-suggestions")
		if err != nil {
			return nil, fmt.Errorf("create suggestion store: %w", err)
		}
	}

	ticketStore := o.ticketStore
	if ticketStore == nil {
		var err error
		ticketStore, err = cloudrun.New[string, TicketRecord](ctx, "procbot-tickets")
		if err != nil {
			return nil, fmt.Errorf("create ticket store: %w", err)
		}
	}

	suggestions, err := fido.NewTiered(suggestionStore, fido.TTL(suggestionTTL))
	if err != nil {
		return nil, fmt.Errorf("create suggestion cache: %w", err)
	}

	tickets, err := fido.NewTiered(ticketStore, fido.TTL(ticketTTL))
	if err != nil {
		return nil, fmt.Errorf("create ticket cache: %w", err)
	}

	slog.Info("initialized fido store")
	return &FidoStore{
		suggestions: suggestions,
		tickets:     tickets,
		handled:     make(map[string]time.Time),
	}, nil
}

// ArchiveSuggestion stores a decided suggestion.
func (s *FidoStore) ArchiveSuggestion(ctx context.Context, rec SuggestionRecord) error {
	return s.suggestions.Set(ctx, rec.ID, rec)
}

// Suggestion returns an archived suggestion by id.
func (s *FidoStore) Suggestion(ctx context.Context, id string) (SuggestionRecord, bool) {
	rec, found, err := s.suggestions.Get(ctx, id)
	if err != nil {
		slog.Debug("suggestion archive lookup error", "id", id, "error", err)
		return SuggestionRecord{}, false
	}
	return rec, found
}

// ArchiveTicket stores a closed ticket.
func (s *FidoStore) ArchiveTicket(ctx context.Context, rec TicketRecord) error {
	return s.tickets.Set(ctx, rec.ID, rec)
}

// WasHandled checks if an interaction was already handled.
func (s *FidoStore) WasHandled(_ context.Context, interactionKey string) bool {
	s.handledMu.RLock()
	expiry, found := s.handled[interactionKey]
	s.handledMu.RUnlock()

	if !found {
		return false
	}
	return time.Now().Before(expiry)
}

// MarkHandled marks an interaction as handled.
func (s *FidoStore) MarkHandled(_ context.Context, interactionKey string, ttl time.Duration) error {
	s.handledMu.Lock()
	s.handled[interactionKey] = time.Now().Add(ttl)
	s.handledMu.Unlock()
	return nil
}

// Cleanup removes expired dedup keys.
func (s *FidoStore) Cleanup(_ context.Context) error {
	s.handledMu.Lock()
	defer s.handledMu.Unlock()

	now := time.Now()
	for key, expiry := range s.handled {
		if now.After(expiry) {
			delete(s.handled, key)
		}
	}
	return nil
}

// Close releases resources.
func (s *FidoStore) Close() error {
	var errs []error

	if err := s.suggestions.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close suggestions: %w", err))
	}
	if err := s.tickets.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close tickets: %w", err))
	}

	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}
