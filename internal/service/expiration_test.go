package service

import (
	"context"
	"testing"
	"time"
)

func intPtr(v int) *int { return &v }

func TestDeletionTime(t *testing.T) {
	now := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name   string
		offset *int
		want   time.Time
	}{
		{"no offset", nil, now.Add(3 * time.Hour)},
		{"positive offset", intPtr(120), now.Add(5 * time.Hour)},
		{"negative offset", intPtr(-300), now.Add(-2 * time.Hour)},
		{"clamped high", intPtr(2000), now.Add(3*time.Hour + 14*time.Hour)},
		{"clamped low", intPtr(-2000), now.Add(3*time.Hour - 12*time.Hour)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DeletionTime(now, tt.offset)
			if !got.Equal(tt.want) {
				t.Errorf("DeletionTime = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRefreshOnActivitySlides(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	j := env.createJourney(t, CreateJourneyParams{})
	expiry := NewExpirationService(env.store, env.notifier)

	before := time.Now()
	if err := expiry.RefreshOnActivity(ctx, j.ID); err != nil {
		t.Fatalf("RefreshOnActivity failed: %v", err)
	}

	got, _ := env.store.GetJourney(ctx, j.ID)
	if got.ExpireAt == nil {
		t.Fatal("expected a sliding expire_at")
	}
	want := before.Add(5 * 24 * time.Hour)
	if diff := got.ExpireAt.Sub(want); diff < -time.Minute || diff > time.Minute {
		t.Errorf("expire_at = %v, want ~%v", got.ExpireAt, want)
	}
}

func TestRefreshOnActivityAfterLeaderDeparture(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	j := env.createJourney(t, CreateJourneyParams{})
	expiry := NewExpirationService(env.store, env.notifier)

	if err := expiry.ScheduleLeaderDeparture(ctx, j.ID, nil); err != nil {
		t.Fatalf("ScheduleLeaderDeparture failed: %v", err)
	}
	scheduled, _ := env.store.GetJourney(ctx, j.ID)
	if scheduled.ExpireAt == nil {
		t.Fatal("expected a departure expire_at")
	}

	// A departed journey is past scheduling; activity must not push the
	// deletion out.
	if err := expiry.RefreshOnActivity(ctx, j.ID); err != nil {
		t.Fatalf("RefreshOnActivity failed: %v", err)
	}
	after, _ := env.store.GetJourney(ctx, j.ID)
	if !after.ExpireAt.Equal(*scheduled.ExpireAt) {
		t.Errorf("expire_at moved from %v to %v after departure", scheduled.ExpireAt, after.ExpireAt)
	}
}

func TestRefreshOnActivityPinnedByEndDate(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	endDate := time.Now().Add(10 * 24 * time.Hour).Truncate(time.Second)
	j := env.createJourney(t, CreateJourneyParams{EndDate: &endDate})
	expiry := NewExpirationService(env.store, env.notifier)

	if err := expiry.RefreshOnActivity(ctx, j.ID); err != nil {
		t.Fatalf("RefreshOnActivity failed: %v", err)
	}
	got, _ := env.store.GetJourney(ctx, j.ID)
	pinned := endDate.Add(5 * 24 * time.Hour)
	if got.ExpireAt == nil || !got.ExpireAt.Equal(pinned) {
		t.Fatalf("expire_at = %v, want pinned %v", got.ExpireAt, pinned)
	}

	// Further activity does not move a pinned schedule.
	if err := expiry.RefreshOnActivity(ctx, j.ID); err != nil {
		t.Fatalf("second RefreshOnActivity failed: %v", err)
	}
	again, _ := env.store.GetJourney(ctx, j.ID)
	if !again.ExpireAt.Equal(pinned) {
		t.Errorf("pinned expire_at moved to %v", again.ExpireAt)
	}
}
