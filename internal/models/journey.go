package models

import "time"

// JourneyStatus marks where a journey is in its life.
type JourneyStatus string

const (
	JourneyActive   JourneyStatus = "active"
	JourneyComplete JourneyStatus = "complete"

	// JourneyExpiring means the leader departed and the journey is counting
	// down to deletion. There is no transition back: activity that would
	// normally slide the expiration forward does not apply.
	JourneyExpiring JourneyStatus = "expiring"
)

// Journey represents a shared trip whose members split expenses.
// It is the aggregate root for membership and join-token state: every
// admission operation reads and mutates this record, and the database's
// conditional update on its token fields is the only cross-request
// coordination point.
type Journey struct {
	// ID is the unique identifier for the journey (UUID format).
	ID string

	// Slug is a human-readable, globally unique identifier derived from
	// the journey name plus a random suffix. Used in shareable URLs.
	Slug string

	// Name is the display name of the journey (e.g., "Lisbon 2026").
	Name string

	// LeaderID is the user who created the journey. The leader is always
	// a member and can never be removed through the member-removal paths;
	// leader departure instead schedules the journey for deletion.
	LeaderID string

	// StartDate and EndDate optionally bound the trip. A set EndDate pins
	// the expiration schedule; without one the schedule slides on activity.
	StartDate *time.Time
	EndDate   *time.Time

	Status JourneyStatus

	// IsLocked blocks all new admissions regardless of approval mode.
	IsLocked bool

	// IsInputLocked blocks expense mutation while leaving membership
	// operations available.
	IsInputLocked bool

	// RequireApproval routes redeemed joins into the pending queue
	// instead of admitting them directly.
	RequireApproval bool

	// PasswordHash is the bcrypt hash gating this journey, empty when the
	// journey has no password.
	PasswordHash string

	// JoinTokenJTI identifies the currently active single-use join token.
	// Empty when no token is live. Issuing a new token overwrites it,
	// which invalidates any previously issued token.
	JoinTokenJTI string

	// JoinTokenExpiresAt is when the active join token stops being
	// redeemable. Nil when no token is live.
	JoinTokenExpiresAt *time.Time

	// JoinTokenUsed is set atomically when a redemption consumes the
	// active token.
	JoinTokenUsed bool

	// ExpireAt is the scheduled deletion time. Nil means no deletion is
	// scheduled. The actual delete is an external sweep; this record only
	// carries the timestamp.
	ExpireAt *time.Time

	// CreatedAt is the Unix timestamp when the journey was created.
	CreatedAt int64
}

// HasPassword reports whether admissions are password-gated.
func (j *Journey) HasPassword() bool {
	return j.PasswordHash != ""
}

// JoinTokenValid reports whether the stored token state would accept the
// given jti at time now. The authoritative check is the store's conditional
// update; this is the read-side mirror of the same predicate.
func (j *Journey) JoinTokenValid(jti string, now time.Time) bool {
	return j.JoinTokenJTI != "" &&
		j.JoinTokenJTI == jti &&
		!j.JoinTokenUsed &&
		j.JoinTokenExpiresAt != nil &&
		j.JoinTokenExpiresAt.After(now)
}
