// Package music tracks per-guild playback queues. Ordering is plain FIFO
// with an optional loop flag; the audio pipeline itself lives behind the
// command layer and is not modeled here.
package music

import (
	"sync"
	"time"
)

// Song is one queued item.
type Song struct {
	Duration    time.Duration
	Title       string
	URL         string
	Thumbnail   string
	RequestedBy string
}

// queue holds playback state for a single guild.
type queue struct {
	songs   []Song
	current *Song
	loop    bool
	paused  bool
}

// Manager tracks one queue per guild.
type Manager struct {
	queues map[string]*queue
	mu     sync.Mutex
}

// NewManager creates a queue manager.
func NewManager() *Manager {
	return &Manager{queues: make(map[string]*queue)}
}

func (m *Manager) queueFor(guildID string) *queue {
	q, ok := m.queues[guildID]
	if !ok {
		q = &queue{}
		m.queues[guildID] = q
	}
	return q
}

// Enqueue appends a song and returns its queue position (1-based, counting
// the currently playing song as position 0).
func (m *Manager) Enqueue(guildID string, s Song) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	q := m.queueFor(guildID)
	q.songs = append(q.songs, s)
	return len(q.songs)
}

// advanceLocked pops the next song and makes it current. With loop enabled
// the finished song is re-appended to the tail. Caller holds m.mu.
func advanceLocked(q *queue) (Song, bool) {
	if q.loop && q.current != nil {
		q.songs = append(q.songs, *q.current)
	}
	if len(q.songs) == 0 {
		q.current = nil
		return Song{}, false
	}
	next := q.songs[0]
	q.songs = q.songs[1:]
	q.current = &next
	q.paused = false
	return next, true
}

// Advance pops the next song and makes it current. Returns false when the
// queue is exhausted.
func (m *Manager) Advance(guildID string) (Song, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	return advanceLocked(m.queueFor(guildID))
}

// Skip drops the current song and advances in one step. Returns false when
// nothing was playing.
func (m *Manager) Skip(guildID string) (Song, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	q := m.queueFor(guildID)
	if q.current == nil {
		return Song{}, false
	}
	return advanceLocked(q)
}

// Stop clears the queue and current song and disables looping. Returns false
// when there was nothing to stop.
func (m *Manager) Stop(guildID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	q, ok := m.queues[guildID]
	if !ok || (q.current == nil && len(q.songs) == 0) {
		return false
	}
	delete(m.queues, guildID)
	return true
}

// Clear empties the pending queue, leaving the current song playing.
func (m *Manager) Clear(guildID string) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	q := m.queueFor(guildID)
	n := len(q.songs)
	q.songs = nil
	return n
}

// Pause marks playback paused. Returns false when nothing is playing.
func (m *Manager) Pause(guildID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	q := m.queueFor(guildID)
	if q.current == nil || q.paused {
		return false
	}
	q.paused = true
	return true
}

// Resume clears the paused flag. Returns false when nothing is paused.
func (m *Manager) Resume(guildID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	q := m.queueFor(guildID)
	if q.current == nil || !q.paused {
		return false
	}
	q.paused = false
	return true
}

// SetLoop toggles loop mode. Returns false when nothing is playing.
func (m *Manager) SetLoop(guildID string, loop bool) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	q := m.queueFor(guildID)
	if q.current == nil {
		return false
	}
	q.loop = loop
	return true
}

// Loop reports whether loop mode is enabled.
func (m *Manager) Loop(guildID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.queueFor(guildID).loop
}

// NowPlaying returns the current song.
func (m *Manager) NowPlaying(guildID string) (Song, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	q := m.queueFor(guildID)
	if q.current == nil {
		return Song{}, false
	}
	return *q.current, true
}

// Paused reports whether playback is paused.
func (m *Manager) Paused(guildID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.queueFor(guildID).paused
}

// List returns the pending songs in play order.
func (m *Manager) List(guildID string) []Song {
	m.mu.Lock()
	defer m.mu.Unlock()

	q := m.queueFor(guildID)
	out := make([]Song, len(q.songs))
	copy(out, q.songs)
	return out
}
