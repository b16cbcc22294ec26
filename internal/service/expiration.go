package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/journeyhub/journeyhub/internal/metrics"
	"github.com/journeyhub/journeyhub/internal/models"
	"github.com/journeyhub/journeyhub/internal/notify"
	"github.com/journeyhub/journeyhub/internal/storage"
)

const (
	// leaderDepartureGrace is how long a journey and its dependents live
	// after the leader departs.
	leaderDepartureGrace = 3 * time.Hour

	// slidingWindow is how long an active journey without a fixed end
	// date lives past its most recent qualifying activity, and how long a
	// journey with an end date lives past that date.
	slidingWindow = 5 * 24 * time.Hour

	// Offsets outside the real range of UTC offsets are clamped.
	minTZOffset = -12 * 60
	maxTZOffset = 14 * 60
)

// ExpirationService computes deletion timestamps and propagates them to a
// journey and its dependents (expenses and guest members). The actual
// deletion is an external sweep over expire_at; this service only
// schedules it.
type ExpirationService struct {
	store    storage.Store
	notifier notify.Notifier
}

// NewExpirationService creates an ExpirationService.
func NewExpirationService(store storage.Store, notifier notify.Notifier) *ExpirationService {
	return &ExpirationService{store: store, notifier: notifier}
}

// ScheduleLeaderDeparture sets the journey's deletion time to UTC now
// plus the departure grace, shifted by the leader's clamped timezone
// offset when one is supplied. The shift deliberately biases the deletion
// moment toward the leader's local wall clock; see DeletionTime for the
// caveat.
func (s *ExpirationService) ScheduleLeaderDeparture(ctx context.Context, journeyID string, tzOffsetMinutes *int) error {
	deletionTime := DeletionTime(time.Now(), tzOffsetMinutes)
	if err := s.store.CascadeExpiry(ctx, journeyID, deletionTime); err != nil {
		return err
	}
	// The expiring status is terminal for scheduling: later activity must
	// not slide the deletion forward.
	if err := s.store.SetStatus(ctx, journeyID, models.JourneyExpiring); err != nil {
		return err
	}

	metrics.ExpiryCascades.WithLabelValues("leader_departure").Inc()
	slog.Info("journey scheduled for deletion after leader departure",
		"journey_id", journeyID, "expire_at", deletionTime)
	s.notifyBestEffort(ctx, journeyID)
	return nil
}

// RefreshOnActivity updates the journey's expiration on qualifying
// activity (joins, expense changes). A journey with a fixed end date is
// pinned at endDate + slidingWindow, computed once and never refreshed;
// without one the expiration slides to now + slidingWindow on every call.
// A journey the leader has departed is past scheduling: nothing moves its
// deletion time.
func (s *ExpirationService) RefreshOnActivity(ctx context.Context, journeyID string) error {
	j, err := s.store.GetJourney(ctx, journeyID)
	if err != nil {
		return notFoundOr(err, "journey %s", journeyID)
	}

	if j.Status == models.JourneyExpiring {
		return nil
	}

	if j.EndDate != nil {
		if j.ExpireAt != nil {
			// Fixed schedule already computed; activity does not move it.
			return nil
		}
		pinned := j.EndDate.Add(slidingWindow)
		if err := s.store.CascadeExpiry(ctx, journeyID, pinned); err != nil {
			return err
		}
		metrics.ExpiryCascades.WithLabelValues("end_date").Inc()
		slog.Info("journey expiry pinned to end date", "journey_id", journeyID, "expire_at", pinned)
		s.notifyBestEffort(ctx, journeyID)
		return nil
	}

	slid := time.Now().UTC().Add(slidingWindow)
	if err := s.store.CascadeExpiry(ctx, journeyID, slid); err != nil {
		return err
	}
	metrics.ExpiryCascades.WithLabelValues("activity").Inc()
	slog.Debug("journey expiry slid forward on activity", "journey_id", journeyID, "expire_at", slid)
	return nil
}

// DeletionTime computes the post-departure deletion instant: UTC now plus
// the grace period, plus the caller's timezone offset (minutes east of
// UTC, clamped to [-12h, +14h]) when given.
//
// Interpreting "leader-local now + 3h" as a UTC instant shifts the real
// deletion moment by up to the offset itself, which is almost certainly
// not the intended wall-clock behavior. The calculation is kept as the
// product defined it pending clarification.
func DeletionTime(now time.Time, tzOffsetMinutes *int) time.Time {
	t := now.UTC().Add(leaderDepartureGrace)
	if tzOffsetMinutes != nil {
		offset := *tzOffsetMinutes
		if offset < minTZOffset {
			offset = minTZOffset
		}
		if offset > maxTZOffset {
			offset = maxTZOffset
		}
		t = t.Add(time.Duration(offset) * time.Minute)
	}
	return t
}

func (s *ExpirationService) notifyBestEffort(ctx context.Context, journeyID string) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.NotifyJourneyUpdate(ctx, journeyID); err != nil {
		metrics.NotifyFailures.Inc()
		slog.Warn("journey update notification failed", "journey_id", journeyID, "error", err)
	}
}
