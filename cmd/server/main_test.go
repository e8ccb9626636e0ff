package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/procyoon/procbot/internal/discord"
	"github.com/procyoon/procbot/internal/state"
	"github.com/procyoon/procbot/internal/suggest"
	"github.com/procyoon/procbot/internal/ticket"
	"github.com/procyoon/procbot/internal/voice"
)

func TestHealthHandler(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()

	healthHandler(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if body := rec.Body.String(); body != "ok\n" {
		t.Errorf("body = %q, want %q", body, "ok\n")
	}
}

func TestHealthzHandler(t *testing.T) {
	suggestions := suggest.New(noopNotifier{})
	voiceReg := voice.New(noopProvisioner{})
	tickets := ticket.New(noopFactory{})

	handler := makeHealthzHandler(suggestions, voiceReg, tickets)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	handler(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if body := rec.Body.String(); !strings.HasPrefix(body, "ok - ") {
		t.Errorf("body = %q, want ok prefix with counts", body)
	}
}

func TestSecurityHeadersMiddleware(t *testing.T) {
	inner := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	handler := securityHeadersMiddleware(inner)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	want := map[string]string{
		"X-Content-Type-Options": "nosniff",
		"X-Frame-Options":        "DENY",
	}
	for header, value := range want {
		if got := rec.Header().Get(header); got != value {
			t.Errorf("%s = %q, want %q", header, got, value)
		}
	}
}

func TestNewStore(t *testing.T) {
	ctx := context.Background()

	store, err := newStore(ctx, "memory")
	if err != nil {
		t.Fatalf("newStore(memory) error: %v", err)
	}
	if _, ok := store.(*state.MemoryStore); !ok {
		t.Errorf("newStore(memory) = %T, want *state.MemoryStore", store)
	}

	if _, err := newStore(ctx, "bogus"); err == nil {
		t.Error("newStore(bogus) should fail")
	}
}

// Compile-time checks that the Discord client and state stores satisfy the
// registry collaborator contracts.
func TestInterfaceCompliance(t *testing.T) {
	var _ suggest.Notifier = (*discord.Client)(nil)
	var _ suggest.AuthorizationChecker = (*discord.Client)(nil)
	var _ voice.ChannelProvisioner = (*discord.Client)(nil)
	var _ ticket.ChannelFactory = (*discord.Client)(nil)

	var _ suggest.Archiver = (*state.MemoryStore)(nil)
	var _ ticket.Archiver = (*state.MemoryStore)(nil)
	var _ state.Store = (*state.MemoryStore)(nil)
	var _ state.Store = (*state.FidoStore)(nil)
}

type noopNotifier struct{}

func (noopNotifier) RenderCard(_ context.Context, id, _, _, _ string) (suggest.CardRef, error) {
	return suggest.CardRef{ChannelID: "c", MessageID: id}, nil
}
func (noopNotifier) UpdateVoteCounts(context.Context, suggest.CardRef, string, int, int) error {
	return nil
}
func (noopNotifier) DeleteCard(context.Context, suggest.CardRef) error    { return nil }
func (noopNotifier) PostResult(context.Context, suggest.Suggestion) error { return nil }

type noopProvisioner struct{}

func (noopProvisioner) Create(context.Context, string, int) (string, error) { return "v", nil }
func (noopProvisioner) Delete(context.Context, string, string) error        { return nil }
func (noopProvisioner) LiveMemberCount(context.Context, string) (int, bool) { return 0, true }

type noopFactory struct{}

func (noopFactory) CreateTicketChannel(context.Context, string, string) (string, error) {
	return "t", nil
}
func (noopFactory) DeleteChannel(context.Context, string, string) error { return nil }
