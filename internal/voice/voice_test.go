package voice

import (
	"context"
	"errors"
	"testing"
	"time"
)

// Short intervals so lifecycle tests complete quickly.
const (
	testPoll  = 5 * time.Millisecond
	testGrace = 30 * time.Millisecond
)

func newTestRegistry(p ChannelProvisioner) *Registry {
	return New(p,
		WithPollInterval(testPoll),
		WithGracePeriod(testGrace),
	)
}

// waitFor polls a condition until it holds or the deadline passes.
func waitFor(t *testing.T, timeout time.Duration, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("timed out waiting for: %s", msg)
}

func TestValidateUserLimit(t *testing.T) {
	tests := []struct {
		input  string
		want   int
		wantOK bool
	}{
		{"0", 0, false},
		{"1", 1, true},
		{"50", 50, true},
		{"99", 99, true},
		{"100", 0, false},
		{"-5", 0, false},
		{"abc", 0, false},
		{"", 0, false},
		{"1.5", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, ok := ValidateUserLimit(tt.input)
			if ok != tt.wantOK || got != tt.want {
				t.Errorf("ValidateUserLimit(%q) = %d, %v; want %d, %v",
					tt.input, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestProvision_RejectsOutOfRangeLimit(t *testing.T) {
	p := newMockProvisioner()
	reg := newTestRegistry(p)
	defer reg.Shutdown(context.Background())

	for _, limit := range []int{0, -1, 100, 150} {
		_, err := reg.Provision(context.Background(), "owner", "owner#0001", limit)
		if !errors.Is(err, ErrInvalidLimit) {
			t.Errorf("Provision(limit=%d) error = %v, want ErrInvalidLimit", limit, err)
		}
	}

	// Validation failure must short-circuit before any provisioner call.
	if p.createdCount() != 0 {
		t.Errorf("provisioner called %d times, want 0", p.createdCount())
	}
	if reg.Stats().ActiveChannels != 0 {
		t.Error("no record should exist after rejected provisioning")
	}
}

func TestProvision_NoRecordOnProvisionerFailure(t *testing.T) {
	p := newMockProvisioner()
	p.createErr = errCategoryMissing
	reg := newTestRegistry(p)

	_, err := reg.Provision(context.Background(), "owner", "owner#0001", 5)
	if err == nil {
		t.Fatal("Provision() should fail when channel creation fails")
	}
	if reg.Stats().ActiveChannels != 0 {
		t.Error("no record should be stored on provisioner failure")
	}
}

func TestProvision_StoresRecord(t *testing.T) {
	p := newMockProvisioner()
	reg := newTestRegistry(p)
	defer reg.Shutdown(context.Background())

	id, err := reg.Provision(context.Background(), "owner1", "owner1#0001", 5)
	if err != nil {
		t.Fatalf("Provision() error = %v", err)
	}

	if !reg.IsManaged(id) {
		t.Error("IsManaged() = false for freshly provisioned channel")
	}
	ch, ok := reg.Get(id)
	if !ok {
		t.Fatal("Get() = false for freshly provisioned channel")
	}
	if ch.OwnerID != "owner1" || ch.UserLimit != 5 {
		t.Errorf("record = %+v, want owner1 with limit 5", ch)
	}
	if !ch.EmptySince.IsZero() {
		t.Error("EmptySince should start unset")
	}
}

func TestMonitor_DeletesAfterSustainedEmptiness(t *testing.T) {
	p := newMockProvisioner()
	reg := newTestRegistry(p)

	id, err := reg.Provision(context.Background(), "owner", "owner#0001", 5)
	if err != nil {
		t.Fatalf("Provision() error = %v", err)
	}

	// Channel starts empty; grace period should elapse and delete it.
	waitFor(t, time.Second, func() bool { return !reg.IsManaged(id) },
		"empty channel deleted after grace period")

	if p.deletedCount() != 1 {
		t.Errorf("provisioner deletions = %d, want 1", p.deletedCount())
	}
	reg.wg.Wait()
}

func TestMonitor_OccupancyResetsGraceTimer(t *testing.T) {
	p := newMockProvisioner()
	reg := newTestRegistry(p)
	defer reg.Shutdown(context.Background())

	id, err := reg.Provision(context.Background(), "owner", "owner#0001", 5)
	if err != nil {
		t.Fatalf("Provision() error = %v", err)
	}

	// Let the monitor observe emptiness first.
	waitFor(t, time.Second, func() bool {
		ch, ok := reg.Get(id)
		return ok && !ch.EmptySince.IsZero()
	}, "emptiness observed")

	// Someone joins before the grace period elapses.
	p.setOccupancy(id, 2)
	waitFor(t, time.Second, func() bool {
		ch, ok := reg.Get(id)
		return ok && ch.EmptySince.IsZero()
	}, "EmptySince cleared on nonzero occupancy")

	// Hold occupancy well past the original grace window: no deletion.
	time.Sleep(2 * testGrace)
	if !reg.IsManaged(id) {
		t.Fatal("occupied channel must not be deleted")
	}
	if p.deletedCount() != 0 {
		t.Errorf("provisioner deletions = %d, want 0", p.deletedCount())
	}
}

func TestMonitor_StopsWhenChannelGoneExternally(t *testing.T) {
	p := newMockProvisioner()
	reg := newTestRegistry(p)

	id, err := reg.Provision(context.Background(), "owner", "owner#0001", 5)
	if err != nil {
		t.Fatalf("Provision() error = %v", err)
	}
	p.setOccupancy(id, 3) // keep it alive

	// Channel disappears out-of-band.
	p.markGone(id)

	waitFor(t, time.Second, func() bool { return !reg.IsManaged(id) },
		"record removed after external deletion")

	// No delete attempt for a channel that is already gone.
	if p.deletedCount() != 0 {
		t.Errorf("provisioner deletions = %d, want 0", p.deletedCount())
	}
	reg.wg.Wait()
}

func TestDeleteTempChannel_Idempotent(t *testing.T) {
	p := newMockProvisioner()
	reg := newTestRegistry(p)

	id, err := reg.Provision(context.Background(), "owner", "owner#0001", 5)
	if err != nil {
		t.Fatalf("Provision() error = %v", err)
	}

	if !reg.DeleteTempChannel(context.Background(), id) {
		t.Fatal("first DeleteTempChannel() = false, want true")
	}
	if reg.DeleteTempChannel(context.Background(), id) {
		t.Error("second DeleteTempChannel() = true, want false")
	}
	if reg.IsManaged(id) {
		t.Error("record should be gone after deletion")
	}
	reg.wg.Wait()
}

func TestShutdown_DeletesAllChannels(t *testing.T) {
	p := newMockProvisioner()
	reg := newTestRegistry(p)
	ctx := context.Background()

	for range 3 {
		if _, err := reg.Provision(ctx, "owner", "owner#0001", 5); err != nil {
			t.Fatalf("Provision() error = %v", err)
		}
	}

	reg.Shutdown(ctx)

	if got := reg.Stats().ActiveChannels; got != 0 {
		t.Errorf("ActiveChannels after Shutdown() = %d, want 0", got)
	}
	if p.deletedCount() != 3 {
		t.Errorf("provisioner deletions = %d, want 3", p.deletedCount())
	}
}
