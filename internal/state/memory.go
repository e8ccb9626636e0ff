package state

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// MemoryStore provides an in-memory implementation of Store.
type MemoryStore struct {
	suggestions  map[string]SuggestionRecord
	tickets      map[string]TicketRecord
	handled      map[string]time.Time
	mu           sync.RWMutex
	ticketRetain time.Duration
	dedupRetain  time.Duration
}

// NewMemoryStore creates a new in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		suggestions:  make(map[string]SuggestionRecord),
		tickets:      make(map[string]TicketRecord),
		handled:      make(map[string]time.Time),
		ticketRetain: 90 * 24 * time.Hour, // 90 days
		dedupRetain:  time.Hour,
	}
}

// ArchiveSuggestion stores a decided suggestion.
func (s *MemoryStore) ArchiveSuggestion(_ context.Context, rec SuggestionRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.suggestions[rec.ID] = rec
	return nil
}

// Suggestion returns an archived suggestion by id.
func (s *MemoryStore) Suggestion(_ context.Context, id string) (SuggestionRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, exists := s.suggestions[id]
	return rec, exists
}

// ArchiveTicket stores a closed ticket.
func (s *MemoryStore) ArchiveTicket(_ context.Context, rec TicketRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.tickets[rec.ID] = rec
	return nil
}

// WasHandled checks if an interaction was already handled.
func (s *MemoryStore) WasHandled(_ context.Context, interactionKey string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	expiry, exists := s.handled[interactionKey]
	if !exists {
		return false
	}
	return time.Now().Before(expiry)
}

// MarkHandled marks an interaction as handled.
func (s *MemoryStore) MarkHandled(_ context.Context, interactionKey string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if ttl <= 0 {
		ttl = s.dedupRetain
	}
	s.handled[interactionKey] = time.Now().Add(ttl)
	return nil
}

// Cleanup removes expired entries from the store.
func (s *MemoryStore) Cleanup(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	var ticketsCleaned, keysCleaned int

	for id, rec := range s.tickets {
		if now.Sub(rec.ClosedAt) > s.ticketRetain {
			delete(s.tickets, id)
			ticketsCleaned++
		}
	}

	for key, expiry := range s.handled {
		if now.After(expiry) {
			delete(s.handled, key)
			keysCleaned++
		}
	}

	// Suggestion archive is retained for the process lifetime: the registry
	// contract guarantees ids are never reused.
	if ticketsCleaned > 0 || keysCleaned > 0 {
		slog.Info("cleaned up old state entries",
			"tickets", ticketsCleaned,
			"dedup_keys", keysCleaned)
	}
	return nil
}

// Close closes the store (no-op for memory store).
func (*MemoryStore) Close() error {
	return nil
}

// StoreStats contains store statistics.
type StoreStats struct {
	Suggestions int
	Tickets     int
	DedupKeys   int
}

// Stats returns current store statistics.
func (s *MemoryStore) Stats() StoreStats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return StoreStats{
		Suggestions: len(s.suggestions),
		Tickets:     len(s.tickets),
		DedupKeys:   len(s.handled),
	}
}
