package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/journeyhub/journeyhub/internal/auth"
	"github.com/journeyhub/journeyhub/internal/journey"
	"github.com/journeyhub/journeyhub/internal/metrics"
	"github.com/journeyhub/journeyhub/internal/models"
	"github.com/journeyhub/journeyhub/internal/notify"
	"github.com/journeyhub/journeyhub/internal/storage"
)

// AdmissionService is the entry point for journey membership: token
// issuance and redemption, the pending/approved/rejected state machine,
// member removal, and departure. It composes the token manager, the
// store's conditional updates, and the expiration scheduler.
type AdmissionService struct {
	store    storage.Store
	tokens   *auth.TokenManager
	notifier notify.Notifier
	expiry   *ExpirationService
}

// NewAdmissionService creates an AdmissionService over the given
// collaborators.
func NewAdmissionService(store storage.Store, tokens *auth.TokenManager, notifier notify.Notifier, expiry *ExpirationService) *AdmissionService {
	return &AdmissionService{
		store:    store,
		tokens:   tokens,
		notifier: notifier,
		expiry:   expiry,
	}
}

// JoinResult is the outcome of a successful redemption.
type JoinResult struct {
	// SessionToken is a long-lived credential bound to the resolved user,
	// so a retrying client carries its identity instead of re-deriving it
	// from the (by then consumed) join token.
	SessionToken string
	User         *models.User
	JourneyID    string
	JourneySlug  string
	// IsPending is true when the journey requires approval and the user
	// was queued instead of admitted.
	IsPending bool
}

// GenerateJoinToken mints a fresh single-use join token for the journey
// and persists its jti and expiry, which silently invalidates any
// previously issued, unredeemed token: there is at most one live token
// per journey. Only members may issue tokens.
func (s *AdmissionService) GenerateJoinToken(ctx context.Context, journeyID, callerID string) (string, error) {
	j, err := s.store.GetJourney(ctx, journeyID)
	if err != nil {
		return "", notFoundOr(err, "journey %s", journeyID)
	}

	status, err := s.store.MembershipStatus(ctx, j.ID, callerID)
	if err != nil {
		return "", err
	}
	if status != journey.StatusMember {
		return "", journey.Errf(journey.CodeUnauthorized, "only members can issue join tokens")
	}

	tokenString, jti, expiresAt, err := s.tokens.GenerateJoin(j.ID)
	if err != nil {
		return "", err
	}
	if err := s.store.SetJoinToken(ctx, j.ID, jti, expiresAt); err != nil {
		return "", notFoundOr(err, "journey %s", journeyID)
	}

	metrics.JoinTokensIssued.Inc()
	slog.Info("join token issued", "journey_id", j.ID, "expires_at", expiresAt)
	// No notification: issuing a token is not a membership change.
	return tokenString, nil
}

// Redeem runs the membership state machine for a presented join
// credential. callerID may be empty (guest path); suppliedName is
// required then. The ordering matters:
//
//  1. decode (signed form first, bare jti fallback)
//  2. resolve the journey
//  3. idempotency short-circuit for callers already member/pending, and
//     the loud failure for rejected callers
//  4. lock and password gates; a failed password never burns the token
//  5. guest resolution (name-uniqueness check, guest creation)
//  6. the atomic token consume, the only defense against the
//     double-join race; exactly one concurrent caller can win it
//  7. membership insert, notification, session credential
func (s *AdmissionService) Redeem(ctx context.Context, tokenOrJTI, callerID, suppliedName, suppliedPassword string) (*JoinResult, error) {
	dec, err := s.tokens.DecodeJoin(tokenOrJTI)
	if err != nil {
		metrics.Redemptions.WithLabelValues("invalid_token").Inc()
		return nil, journey.Errf(journey.CodeInvalidOrUsedToken, "join token not recognized")
	}

	j, err := s.resolveJourney(ctx, dec)
	if err != nil {
		metrics.Redemptions.WithLabelValues("invalid_token").Inc()
		return nil, err
	}

	// Idempotent re-entry: a caller who already holds a session from a
	// prior redemption must not consume the token again, re-queue, or
	// trigger another notification.
	if callerID != "" {
		result, done, err := s.shortCircuit(ctx, j, callerID)
		if err != nil || done {
			return result, err
		}
	}

	now := time.Now()
	if !j.JoinTokenValid(dec.JTI, now) {
		metrics.Redemptions.WithLabelValues("invalid_token").Inc()
		return nil, journey.Errf(journey.CodeInvalidOrUsedToken, "join token expired or already used")
	}

	if j.IsLocked {
		metrics.Redemptions.WithLabelValues("locked").Inc()
		return nil, journey.Errf(journey.CodeJourneyLocked, "journey %s is not accepting new members", j.ID)
	}

	// Password gate runs before the consume so a wrong password leaves
	// the token redeemable.
	if j.HasPassword() {
		if suppliedPassword == "" {
			metrics.Redemptions.WithLabelValues("password_required").Inc()
			return nil, journey.Errf(journey.CodePasswordRequired, "journey %s requires a password", j.ID)
		}
		if err := auth.CheckPassword(j.PasswordHash, suppliedPassword); err != nil {
			metrics.Redemptions.WithLabelValues("invalid_password").Inc()
			return nil, journey.Errf(journey.CodeInvalidPassword, "wrong password for journey %s", j.ID)
		}
	}

	user, createdGuest, err := s.resolveIdentity(ctx, j, callerID, suppliedName)
	if err != nil {
		return nil, err
	}

	won, err := s.store.ConsumeJoinToken(ctx, j.ID, dec.JTI, now)
	if err != nil {
		return nil, err
	}
	if !won {
		// Lost the conditional update, either to a concurrent redemption
		// or because the token was reissued meanwhile. Don't strand a
		// guest record we just created for nothing.
		if createdGuest {
			if delErr := s.store.DeleteUser(ctx, user.ID); delErr != nil {
				slog.Warn("failed to clean up guest after lost redemption race",
					"user_id", user.ID, "error", delErr)
			}
		}
		metrics.Redemptions.WithLabelValues("lost_race").Inc()
		return nil, journey.Errf(journey.CodeInvalidOrUsedToken, "join token expired or already used")
	}

	target := journey.StatusMember
	if j.RequireApproval {
		target = journey.StatusPending
	}
	inserted, err := s.store.AddMember(ctx, j.ID, user.ID, target)
	if err != nil {
		return nil, err
	}
	if !inserted {
		// The pair already had a status; behave exactly like the
		// short-circuit path instead of clobbering it. If the status
		// vanished again between the insert and the re-check, the token is
		// burned and the caller has nothing to show for it.
		result, done, err := s.shortCircuit(ctx, j, user.ID)
		if err != nil {
			return nil, err
		}
		if !done {
			metrics.Redemptions.WithLabelValues("lost_race").Inc()
			return nil, journey.Errf(journey.CodeInvalidOrUsedToken, "join token expired or already used")
		}
		return result, nil
	}

	s.notifyBestEffort(ctx, j.ID)
	if s.expiry != nil {
		if err := s.expiry.RefreshOnActivity(ctx, j.ID); err != nil {
			slog.Warn("failed to refresh journey expiry on join", "journey_id", j.ID, "error", err)
		}
	}

	sessionToken, err := s.tokens.GenerateSession(user.ID, user.IsGuest)
	if err != nil {
		return nil, err
	}

	outcome := "admitted"
	if target == journey.StatusPending {
		outcome = "pending"
	}
	metrics.Redemptions.WithLabelValues(outcome).Inc()
	slog.Info("join token redeemed",
		"journey_id", j.ID, "user_id", user.ID, "pending", target == journey.StatusPending)

	return &JoinResult{
		SessionToken: sessionToken,
		User:         user,
		JourneyID:    j.ID,
		JourneySlug:  j.Slug,
		IsPending:    target == journey.StatusPending,
	}, nil
}

// resolveJourney finds the journey a credential refers to. The signed
// form names its journey directly; the bare jti form can only resolve
// while the token is still live on some journey record.
func (s *AdmissionService) resolveJourney(ctx context.Context, dec *auth.DecodedJoin) (*models.Journey, error) {
	if dec.JourneyID != "" {
		j, err := s.store.GetJourney(ctx, dec.JourneyID)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				return nil, journey.Errf(journey.CodeInvalidOrUsedToken, "join token refers to a deleted journey")
			}
			return nil, err
		}
		return j, nil
	}
	j, err := s.store.GetJourneyByJoinTokenJTI(ctx, dec.JTI)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, journey.Errf(journey.CodeInvalidOrUsedToken, "join token expired or already used")
		}
		return nil, err
	}
	return j, nil
}

// shortCircuit implements the idempotent retry semantics for a caller
// with a known identity. done is true when the caller's existing status
// fully answers the redemption.
func (s *AdmissionService) shortCircuit(ctx context.Context, j *models.Journey, userID string) (*JoinResult, bool, error) {
	status, err := s.store.MembershipStatus(ctx, j.ID, userID)
	if err != nil {
		return nil, false, err
	}
	switch status {
	case journey.StatusMember, journey.StatusPending:
		user, err := s.store.GetUser(ctx, userID)
		if err != nil {
			return nil, false, notFoundOr(err, "user %s", userID)
		}
		sessionToken, err := s.tokens.GenerateSession(user.ID, user.IsGuest)
		if err != nil {
			return nil, false, err
		}
		metrics.Redemptions.WithLabelValues("idempotent").Inc()
		return &JoinResult{
			SessionToken: sessionToken,
			User:         user,
			JourneyID:    j.ID,
			JourneySlug:  j.Slug,
			IsPending:    status == journey.StatusPending,
		}, true, nil
	case journey.StatusRejected:
		metrics.Redemptions.WithLabelValues("rejected").Inc()
		return nil, true, journey.Errf(journey.CodeRejected, "user %s was rejected from journey %s", userID, j.ID)
	default:
		return nil, false, nil
	}
}

// resolveIdentity loads the caller's user record, or creates a guest from
// the supplied name. createdGuest tells the caller it owns cleanup if the
// redemption subsequently fails.
func (s *AdmissionService) resolveIdentity(ctx context.Context, j *models.Journey, callerID, suppliedName string) (user *models.User, createdGuest bool, err error) {
	if callerID != "" {
		user, err = s.store.GetUser(ctx, callerID)
		if err != nil {
			return nil, false, notFoundOr(err, "user %s", callerID)
		}
		return user, false, nil
	}

	if suppliedName == "" {
		return nil, false, fmt.Errorf("display name required for guest join")
	}
	taken, err := s.store.NameTakenInJourney(ctx, j.ID, suppliedName)
	if err != nil {
		return nil, false, err
	}
	if taken {
		return nil, false, journey.Errf(journey.CodeNameTaken, "name %q is already used in this journey", suppliedName)
	}

	user = &models.User{Name: suppliedName, IsGuest: true}
	if err := s.store.CreateUser(ctx, user); err != nil {
		return nil, false, err
	}
	return user, true, nil
}

// Approve moves a pending user into the members set. Leader-only.
// Approving a user who is not pending is NotFound, surfacing stale UI
// instead of silently succeeding.
func (s *AdmissionService) Approve(ctx context.Context, journeyID, callerID, userID string) (*models.Journey, error) {
	return s.decidePending(ctx, journeyID, callerID, userID, journey.StatusMember)
}

// Reject moves a pending user into the rejected set, from which retried
// redemptions fail loudly. Leader-only.
func (s *AdmissionService) Reject(ctx context.Context, journeyID, callerID, userID string) (*models.Journey, error) {
	return s.decidePending(ctx, journeyID, callerID, userID, journey.StatusRejected)
}

func (s *AdmissionService) decidePending(ctx context.Context, journeyID, callerID, userID string, to journey.MembershipStatus) (*models.Journey, error) {
	j, err := s.store.GetJourney(ctx, journeyID)
	if err != nil {
		return nil, notFoundOr(err, "journey %s", journeyID)
	}
	if j.LeaderID != callerID {
		return nil, journey.Errf(journey.CodeUnauthorized, "only the journey leader can decide join requests")
	}

	moved, err := s.store.TransitionMember(ctx, j.ID, userID, journey.StatusPending, to)
	if err != nil {
		return nil, err
	}
	if !moved {
		return nil, journey.Errf(journey.CodeNotFound, "user %s has no pending join request", userID)
	}

	s.notifyBestEffort(ctx, j.ID)
	slog.Info("join request decided", "journey_id", j.ID, "user_id", userID, "status", to)
	return j, nil
}

// RemoveMember forcibly removes a member. Leader-only, and the leader
// can never be the target.
func (s *AdmissionService) RemoveMember(ctx context.Context, journeyID, callerID, memberID string) (*models.Journey, error) {
	j, err := s.store.GetJourney(ctx, journeyID)
	if err != nil {
		return nil, notFoundOr(err, "journey %s", journeyID)
	}
	if j.LeaderID != callerID {
		return nil, journey.Errf(journey.CodeUnauthorized, "only the journey leader can remove members")
	}
	if memberID == j.LeaderID {
		return nil, journey.Errf(journey.CodeCannotRemoveLeader, "the journey leader cannot be removed")
	}

	if err := s.store.RemoveMember(ctx, j.ID, memberID); err != nil {
		return nil, notFoundOr(err, "member %s", memberID)
	}

	s.notifyBestEffort(ctx, j.ID)
	slog.Info("member removed", "journey_id", j.ID, "user_id", memberID)
	return j, nil
}

// Leave handles voluntary departure. A non-leader is removed from the
// members set; a guest additionally has their user record deleted outright,
// since a departed guest identity has no value. The leader is never
// removed from the members set: leader departure
// instead schedules the whole journey for deletion via the expiration
// cascade, biased by the leader's local timezone offset when supplied.
func (s *AdmissionService) Leave(ctx context.Context, journeyID, callerID string, tzOffsetMinutes *int) (*models.Journey, error) {
	j, err := s.store.GetJourney(ctx, journeyID)
	if err != nil {
		return nil, notFoundOr(err, "journey %s", journeyID)
	}

	if callerID == j.LeaderID {
		if err := s.expiry.ScheduleLeaderDeparture(ctx, j.ID, tzOffsetMinutes); err != nil {
			return nil, err
		}
		return s.store.GetJourney(ctx, j.ID)
	}

	status, err := s.store.MembershipStatus(ctx, j.ID, callerID)
	if err != nil {
		return nil, err
	}
	if status != journey.StatusMember {
		return nil, journey.Errf(journey.CodeNotFound, "user %s is not a member of journey %s", callerID, j.ID)
	}

	if err := s.store.RemoveMember(ctx, j.ID, callerID); err != nil {
		return nil, err
	}

	user, err := s.store.GetUser(ctx, callerID)
	if err == nil && user.IsGuest {
		if err := s.store.DeleteUser(ctx, user.ID); err != nil {
			slog.Warn("failed to delete departing guest", "user_id", user.ID, "error", err)
		}
	}

	s.notifyBestEffort(ctx, j.ID)
	slog.Info("member left", "journey_id", j.ID, "user_id", callerID)
	return j, nil
}

// SetRequireApproval toggles host-approval queuing. Leader-only.
func (s *AdmissionService) SetRequireApproval(ctx context.Context, journeyID, callerID string, require bool) (*models.Journey, error) {
	j, err := s.store.GetJourney(ctx, journeyID)
	if err != nil {
		return nil, notFoundOr(err, "journey %s", journeyID)
	}
	if j.LeaderID != callerID {
		return nil, journey.Errf(journey.CodeUnauthorized, "only the journey leader can change the approval requirement")
	}
	if err := s.store.SetRequireApproval(ctx, j.ID, require); err != nil {
		return nil, err
	}
	j.RequireApproval = require
	s.notifyBestEffort(ctx, j.ID)
	return j, nil
}

// SetLocked toggles the invitation lock. Leader-only.
func (s *AdmissionService) SetLocked(ctx context.Context, journeyID, callerID string, locked bool) (*models.Journey, error) {
	j, err := s.store.GetJourney(ctx, journeyID)
	if err != nil {
		return nil, notFoundOr(err, "journey %s", journeyID)
	}
	if j.LeaderID != callerID {
		return nil, journey.Errf(journey.CodeUnauthorized, "only the journey leader can lock the journey")
	}
	if err := s.store.SetLocked(ctx, j.ID, locked); err != nil {
		return nil, err
	}
	j.IsLocked = locked
	s.notifyBestEffort(ctx, j.ID)
	return j, nil
}

// SetInputLocked toggles the expense-mutation lock. Leader-only.
func (s *AdmissionService) SetInputLocked(ctx context.Context, journeyID, callerID string, locked bool) (*models.Journey, error) {
	j, err := s.store.GetJourney(ctx, journeyID)
	if err != nil {
		return nil, notFoundOr(err, "journey %s", journeyID)
	}
	if j.LeaderID != callerID {
		return nil, journey.Errf(journey.CodeUnauthorized, "only the journey leader can lock expense input")
	}
	if err := s.store.SetInputLocked(ctx, j.ID, locked); err != nil {
		return nil, err
	}
	j.IsInputLocked = locked
	s.notifyBestEffort(ctx, j.ID)
	return j, nil
}

// SetPassword sets or clears the journey's password gate. Leader-only.
func (s *AdmissionService) SetPassword(ctx context.Context, journeyID, callerID, password string) error {
	j, err := s.store.GetJourney(ctx, journeyID)
	if err != nil {
		return notFoundOr(err, "journey %s", journeyID)
	}
	if j.LeaderID != callerID {
		return journey.Errf(journey.CodeUnauthorized, "only the journey leader can change the password")
	}

	hash := ""
	if password != "" {
		hash, err = auth.HashPassword(password)
		if err != nil {
			return err
		}
	}
	return s.store.SetPasswordHash(ctx, j.ID, hash)
}

// notifyBestEffort dispatches a journey-updated event; delivery problems
// are logged and counted, never raised.
func (s *AdmissionService) notifyBestEffort(ctx context.Context, journeyID string) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.NotifyJourneyUpdate(ctx, journeyID); err != nil {
		metrics.NotifyFailures.Inc()
		slog.Warn("journey update notification failed", "journey_id", journeyID, "error", err)
	}
}

// notFoundOr maps the store's ErrNotFound to the domain code and passes
// everything else through untouched.
func notFoundOr(err error, format string, args ...any) error {
	if errors.Is(err, storage.ErrNotFound) {
		return journey.Errf(journey.CodeNotFound, format+" not found", args...)
	}
	return err
}
