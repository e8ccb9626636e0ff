package state

import (
	"context"
	"testing"
	"time"
)

func TestMemoryStore_SuggestionArchive(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	if _, ok := store.Suggestion(ctx, "0001"); ok {
		t.Error("Suggestion() should return false before archiving")
	}

	rec := SuggestionRecord{
		ID:          "0001",
		AuthorID:    "user1",
		Status:      "approved",
		ModeratedBy: "mod1",
		UpVotes:     3,
		DownVotes:   1,
		DecidedAt:   time.Now(),
	}
	if err := store.ArchiveSuggestion(ctx, rec); err != nil {
		t.Fatalf("ArchiveSuggestion() error = %v", err)
	}

	got, ok := store.Suggestion(ctx, "0001")
	if !ok {
		t.Fatal("Suggestion() should find archived record")
	}
	if got.Status != "approved" || got.UpVotes != 3 {
		t.Errorf("Suggestion() = %+v, want archived values", got)
	}
}

func TestMemoryStore_Dedup(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	if store.WasHandled(ctx, "interaction-1") {
		t.Error("WasHandled() = true for unseen key")
	}

	if err := store.MarkHandled(ctx, "interaction-1", time.Minute); err != nil {
		t.Fatalf("MarkHandled() error = %v", err)
	}
	if !store.WasHandled(ctx, "interaction-1") {
		t.Error("WasHandled() = false for marked key")
	}

	// Expired keys read as unhandled and are swept by Cleanup.
	if err := store.MarkHandled(ctx, "interaction-2", -time.Second); err != nil {
		t.Fatalf("MarkHandled() error = %v", err)
	}
	if store.WasHandled(ctx, "interaction-2") {
		t.Error("WasHandled() = true for expired key")
	}

	if err := store.Cleanup(ctx); err != nil {
		t.Fatalf("Cleanup() error = %v", err)
	}
	if got := store.Stats().DedupKeys; got != 1 {
		t.Errorf("DedupKeys after cleanup = %d, want 1", got)
	}
}

func TestMemoryStore_TicketRetention(t *testing.T) {
	store := NewMemoryStore()
	store.ticketRetain = time.Hour
	ctx := context.Background()

	old := TicketRecord{ID: "t-old", ClosedAt: time.Now().Add(-2 * time.Hour)}
	fresh := TicketRecord{ID: "t-new", ClosedAt: time.Now()}
	if err := store.ArchiveTicket(ctx, old); err != nil {
		t.Fatal(err)
	}
	if err := store.ArchiveTicket(ctx, fresh); err != nil {
		t.Fatal(err)
	}

	if err := store.Cleanup(ctx); err != nil {
		t.Fatalf("Cleanup() error = %v", err)
	}
	if got := store.Stats().Tickets; got != 1 {
		t.Errorf("Tickets after cleanup = %d, want 1", got)
	}
}

func TestMemoryStore_Close(t *testing.T) {
	store := NewMemoryStore()
	if err := store.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
}
