package suggest

import (
	"context"
	"sync"

	"github.com/procyoon/procbot/internal/state"
)

// mockNotifier is a programmable mock for Notifier.
type mockNotifier struct {
	mu sync.Mutex

	renderErr  error
	updateErr  error
	deleteErr  error
	resultErr  error
	nextCardID int

	rendered     []renderedCard
	countUpdates []countUpdate
	deleted      []CardRef
	results      []Suggestion
}

type renderedCard struct {
	id        string
	authorID  string
	authorTag string
	content   string
}

type countUpdate struct {
	ref  CardRef
	id   string
	up   int
	down int
}

func newMockNotifier() *mockNotifier {
	return &mockNotifier{}
}

func (m *mockNotifier) RenderCard(_ context.Context, id, authorID, authorTag, content string) (CardRef, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.renderErr != nil {
		return CardRef{}, m.renderErr
	}
	m.rendered = append(m.rendered, renderedCard{id, authorID, authorTag, content})
	m.nextCardID++
	return CardRef{ChannelID: "suggestions", MessageID: "msg-" + id}, nil
}

func (m *mockNotifier) UpdateVoteCounts(_ context.Context, ref CardRef, id string, up, down int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.updateErr != nil {
		return m.updateErr
	}
	m.countUpdates = append(m.countUpdates, countUpdate{ref, id, up, down})
	return nil
}

func (m *mockNotifier) DeleteCard(_ context.Context, ref CardRef) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.deleteErr != nil {
		return m.deleteErr
	}
	m.deleted = append(m.deleted, ref)
	return nil
}

func (m *mockNotifier) PostResult(_ context.Context, s Suggestion) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.resultErr != nil {
		return m.resultErr
	}
	m.results = append(m.results, s)
	return nil
}

// mockArchiver records archived suggestions.
type mockArchiver struct {
	mu       sync.Mutex
	archived []state.SuggestionRecord
	err      error
}

func (m *mockArchiver) ArchiveSuggestion(_ context.Context, rec state.SuggestionRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.err != nil {
		return m.err
	}
	m.archived = append(m.archived, rec)
	return nil
}
