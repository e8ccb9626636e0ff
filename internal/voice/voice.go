// Package voice manages ephemeral voice channels: provisioning, per-channel
// occupancy monitoring, and deletion after a sustained-emptiness grace period.
package voice

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"
)

// Defaults for the occupancy monitor. Both are tunable via options; tests use
// much shorter values.
const (
	defaultPollInterval = 10 * time.Second
	defaultGracePeriod  = time.Minute
	pollTimeout         = 5 * time.Second

	// User limit bounds imposed by the voice channel surface.
	minUserLimit = 1
	maxUserLimit = 99
)

// Sentinel errors returned by registry operations.
var (
	ErrInvalidLimit = errors.New("user limit out of range")
)

// ChannelProvisioner creates and destroys voice channels on the chat platform.
type ChannelProvisioner interface {
	// Create provisions a voice channel under the configured parent category
	// and returns its id.
	Create(ctx context.Context, name string, userLimit int) (string, error)
	// Delete removes a channel. Deleting an already-deleted channel is not an
	// error.
	Delete(ctx context.Context, channelID, reason string) error
	// LiveMemberCount returns the current occupancy. The second return is
	// false when the channel no longer exists.
	LiveMemberCount(ctx context.Context, channelID string) (int, bool)
}

// TempChannel is the registry's view of one ephemeral voice channel.
type TempChannel struct {
	CreatedAt time.Time
	// EmptySince is the wall-clock moment occupancy was last observed to drop
	// to zero. Zero value means the channel is occupied or not yet polled.
	EmptySince time.Time
	ID         string
	OwnerID    string
	OwnerTag   string
	UserLimit  int
}

type tempChannel struct {
	TempChannel
	stop chan struct{}
}

// Stats holds registry statistics. Total-created is not tracked across
// restarts; active count is the only figure reported.
type Stats struct {
	ActiveChannels int
}

// Registry owns all ephemeral voice channels for the process.
type Registry struct {
	provisioner  ChannelProvisioner
	logger       *slog.Logger
	nameFor      func(ownerTag string) string
	channels     map[string]*tempChannel
	pollInterval time.Duration
	gracePeriod  time.Duration
	mu           sync.Mutex
	wg           sync.WaitGroup
}

// Option configures a Registry.
type Option func(*Registry)

// WithPollInterval sets the occupancy poll interval.
func WithPollInterval(d time.Duration) Option {
	return func(r *Registry) { r.pollInterval = d }
}

// WithGracePeriod sets how long a channel must stay empty before deletion.
func WithGracePeriod(d time.Duration) Option {
	return func(r *Registry) { r.gracePeriod = d }
}

// WithNamer sets the channel naming function.
func WithNamer(f func(ownerTag string) string) Option {
	return func(r *Registry) { r.nameFor = f }
}

// WithLogger sets the registry logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Registry) { r.logger = logger }
}

// New creates an ephemeral voice channel registry.
func New(provisioner ChannelProvisioner, opts ...Option) *Registry {
	r := &Registry{
		provisioner:  provisioner,
		logger:       slog.Default(),
		nameFor:      func(ownerTag string) string { return "voice-" + ownerTag },
		channels:     make(map[string]*tempChannel),
		pollInterval: defaultPollInterval,
		gracePeriod:  defaultGracePeriod,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// ValidateUserLimit parses a decimal user-limit string. It returns false for
// non-numeric input and values outside [1, 99].
func ValidateUserLimit(s string) (int, bool) {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, false
	}
	if n < minUserLimit || n > maxUserLimit {
		return 0, false
	}
	return n, true
}

// Provision creates an ephemeral voice channel owned by the given user and
// starts its occupancy monitor. No record is stored when creation fails.
func (r *Registry) Provision(ctx context.Context, ownerID, ownerTag string, userLimit int) (string, error) {
	if userLimit < minUserLimit || userLimit > maxUserLimit {
		return "", fmt.Errorf("%w: %d", ErrInvalidLimit, userLimit)
	}

	id, err := r.provisioner.Create(ctx, r.nameFor(ownerTag), userLimit)
	if err != nil {
		return "", fmt.Errorf("provision voice channel: %w", err)
	}

	ch := &tempChannel{
		TempChannel: TempChannel{
			ID:        id,
			OwnerID:   ownerID,
			OwnerTag:  ownerTag,
			CreatedAt: time.Now(),
			UserLimit: userLimit,
		},
		stop: make(chan struct{}),
	}

	r.mu.Lock()
	r.channels[id] = ch
	r.mu.Unlock()

	r.wg.Add(1)
	go r.monitor(id, ch.stop)

	r.logger.Info("ephemeral voice channel created",
		"channel_id", id,
		"owner_id", ownerID,
		"user_limit", userLimit)

	return id, nil
}

// monitor polls occupancy for a single channel until the channel is removed
// from the registry or its grace period elapses.
func (r *Registry) monitor(id string, stop chan struct{}) {
	defer r.wg.Done()

	ticker := time.NewTicker(r.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			if done := r.poll(id); done {
				return
			}
		}
	}
}

// poll performs one occupancy observation. It returns true when monitoring
// should stop.
func (r *Registry) poll(id string) bool {
	ctx, cancel := context.WithTimeout(context.Background(), pollTimeout)
	defer cancel()

	count, alive := r.provisioner.LiveMemberCount(ctx, id)

	r.mu.Lock()
	ch, ok := r.channels[id]
	if !ok {
		// Explicitly deleted while this poll was in flight.
		r.mu.Unlock()
		return true
	}

	if !alive {
		// Deleted out-of-band: drop the record, nothing left to delete.
		delete(r.channels, id)
		r.mu.Unlock()
		r.logger.Info("voice channel removed externally", "channel_id", id)
		return true
	}

	if count > 0 {
		ch.EmptySince = time.Time{}
		r.mu.Unlock()
		return false
	}

	now := time.Now()
	if ch.EmptySince.IsZero() {
		ch.EmptySince = now
		r.mu.Unlock()
		return false
	}

	// Level-triggered: measured from the moment emptiness was first observed,
	// not from a poll count.
	emptySince := ch.EmptySince
	if now.Sub(emptySince) < r.gracePeriod {
		r.mu.Unlock()
		return false
	}
	r.mu.Unlock()

	r.logger.Info("voice channel empty past grace period, deleting",
		"channel_id", id,
		"empty_since", emptySince)
	r.DeleteTempChannel(ctx, id)
	return true
}

// DeleteTempChannel deletes an ephemeral channel and removes its record.
// Idempotent: a second call for the same id returns false.
func (r *Registry) DeleteTempChannel(ctx context.Context, id string) bool {
	r.mu.Lock()
	ch, ok := r.channels[id]
	if !ok {
		r.mu.Unlock()
		return false
	}
	delete(r.channels, id)
	r.mu.Unlock()

	// Removal from the map above makes this the sole closer.
	close(ch.stop)

	if err := r.provisioner.Delete(ctx, id, "ephemeral voice channel expired"); err != nil {
		r.logger.Warn("failed to delete voice channel", "channel_id", id, "error", err)
	}

	r.logger.Info("ephemeral voice channel deleted",
		"channel_id", id,
		"owner_id", ch.OwnerID)
	return true
}

// IsManaged reports whether the registry owns the given channel.
func (r *Registry) IsManaged(channelID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, ok := r.channels[channelID]
	return ok
}

// Get returns a copy of the record for the given channel.
func (r *Registry) Get(channelID string) (TempChannel, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	ch, ok := r.channels[channelID]
	if !ok {
		return TempChannel{}, false
	}
	return ch.TempChannel, true
}

// Stats returns registry statistics.
func (r *Registry) Stats() Stats {
	r.mu.Lock()
	defer r.mu.Unlock()

	return Stats{ActiveChannels: len(r.channels)}
}

// Shutdown deletes all managed channels and waits for monitors to exit.
func (r *Registry) Shutdown(ctx context.Context) {
	r.mu.Lock()
	ids := make([]string, 0, len(r.channels))
	for id := range r.channels {
		ids = append(ids, id)
	}
	r.mu.Unlock()

	for _, id := range ids {
		r.DeleteTempChannel(ctx, id)
	}
	r.wg.Wait()
}
