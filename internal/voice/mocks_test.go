package voice

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// mockProvisioner is a programmable mock for ChannelProvisioner.
type mockProvisioner struct {
	mu sync.Mutex

	createErr error
	nextID    int

	// Per-channel occupancy. Channels absent from the map report as gone.
	occupancy map[string]int

	created []createdChannel
	deleted []deletedChannel
}

type createdChannel struct {
	name  string
	limit int
}

type deletedChannel struct {
	id     string
	reason string
}

func newMockProvisioner() *mockProvisioner {
	return &mockProvisioner{occupancy: make(map[string]int)}
}

func (m *mockProvisioner) Create(_ context.Context, name string, userLimit int) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.createErr != nil {
		return "", m.createErr
	}
	m.nextID++
	id := fmt.Sprintf("vc-%d", m.nextID)
	m.created = append(m.created, createdChannel{name, userLimit})
	m.occupancy[id] = 0
	return id, nil
}

func (m *mockProvisioner) Delete(_ context.Context, channelID, reason string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.deleted = append(m.deleted, deletedChannel{channelID, reason})
	delete(m.occupancy, channelID)
	return nil
}

func (m *mockProvisioner) LiveMemberCount(_ context.Context, channelID string) (int, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	count, alive := m.occupancy[channelID]
	return count, alive
}

func (m *mockProvisioner) setOccupancy(channelID string, count int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.occupancy[channelID] = count
}

func (m *mockProvisioner) markGone(channelID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.occupancy, channelID)
}

func (m *mockProvisioner) createdCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.created)
}

func (m *mockProvisioner) deletedCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.deleted)
}

var errCategoryMissing = errors.New("parent category not found")
