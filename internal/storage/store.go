// Package storage provides abstractions for persistent data storage.
package storage

import (
	"context"
	"errors"
	"time"

	"github.com/journeyhub/journeyhub/internal/journey"
	"github.com/journeyhub/journeyhub/internal/models"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("record not found")

// Membership pairs a user with their status in a journey.
type Membership struct {
	UserID string
	Status journey.MembershipStatus
}

// Store defines the interface for journey, user, and expense persistence.
// This abstraction allows swapping storage backends (SQLite, PostgreSQL,
// etc.) without changing the service layer.
//
// Conditional operations (ConsumeJoinToken, TransitionMember, AddMember)
// must be atomic find-and-modify style updates: the filter and the write
// happen in one statement, never read-then-write in separate round trips.
// They are the only cross-request coordination the admission flow relies on.
type Store interface {
	// CreateJourney persists a new journey. The ID and CreatedAt fields
	// will be populated by the store if unset.
	CreateJourney(ctx context.Context, j *models.Journey) error

	// GetJourney retrieves a journey by its ID.
	// Returns ErrNotFound if the journey does not exist.
	GetJourney(ctx context.Context, journeyID string) (*models.Journey, error)

	// GetJourneyByJoinTokenJTI retrieves the journey holding the given
	// active join-token jti. Consumption clears the stored jti, so a
	// consumed token no longer resolves. Returns ErrNotFound otherwise.
	GetJourneyByJoinTokenJTI(ctx context.Context, jti string) (*models.Journey, error)

	// SetJoinToken overwrites the journey's active join token with the
	// given jti and expiry and resets the used flag. Any previously
	// issued token is thereby invalidated.
	SetJoinToken(ctx context.Context, journeyID, jti string, expiresAt time.Time) error

	// ConsumeJoinToken atomically marks the journey's join token used and
	// clears the jti/expiry fields, but only if the stored jti matches,
	// the token is unused, and it has not expired at time now. Returns
	// true if this call won the update; false means the token was
	// invalid, already consumed, or lost a concurrent race.
	ConsumeJoinToken(ctx context.Context, journeyID, jti string, now time.Time) (bool, error)

	// SetRequireApproval toggles the journey's approval gate.
	SetRequireApproval(ctx context.Context, journeyID string, require bool) error

	// SetLocked toggles the invitation lock: a locked journey admits
	// nobody regardless of approval mode.
	SetLocked(ctx context.Context, journeyID string, locked bool) error

	// SetInputLocked toggles the expense-mutation lock.
	SetInputLocked(ctx context.Context, journeyID string, locked bool) error

	// SetPasswordHash replaces the journey's password hash; an empty hash
	// removes the password gate.
	SetPasswordHash(ctx context.Context, journeyID, hash string) error

	// SetStatus updates the journey's lifecycle status.
	SetStatus(ctx context.Context, journeyID string, status models.JourneyStatus) error

	// AddMember inserts a (journey, user) membership with the given
	// status. Returns false without error if the pair already has a
	// status, leaving it untouched.
	AddMember(ctx context.Context, journeyID, userID string, status journey.MembershipStatus) (bool, error)

	// MembershipStatus returns the user's status in the journey, or
	// StatusNone when the pair has no record.
	MembershipStatus(ctx context.Context, journeyID, userID string) (journey.MembershipStatus, error)

	// TransitionMember atomically moves a membership from one status to
	// another. Returns false if the pair was not in the expected from
	// status.
	TransitionMember(ctx context.Context, journeyID, userID string, from, to journey.MembershipStatus) (bool, error)

	// RemoveMember deletes the membership record outright.
	RemoveMember(ctx context.Context, journeyID, userID string) error

	// ListMemberships returns all membership records for a journey.
	ListMemberships(ctx context.Context, journeyID string) ([]Membership, error)

	// CreateUser persists a new user. ID and CreatedAt are populated by
	// the store if unset.
	CreateUser(ctx context.Context, u *models.User) error

	// GetUser retrieves a user by ID. Returns ErrNotFound if missing.
	GetUser(ctx context.Context, userID string) (*models.User, error)

	// DeleteUser removes a user record outright (voluntary guest leave).
	DeleteUser(ctx context.Context, userID string) error

	// NameTakenInJourney reports whether any member or pending member of
	// the journey already uses the given display name.
	NameTakenInJourney(ctx context.Context, journeyID, name string) (bool, error)

	// CreateExpense persists a new expense. ID and CreatedAt are
	// populated by the store if unset.
	CreateExpense(ctx context.Context, e *models.Expense) error

	// ListExpensesByJourney returns the journey's expenses, newest first.
	ListExpensesByJourney(ctx context.Context, journeyID string) ([]*models.Expense, error)

	// CascadeExpiry sets expireAt on the journey, on every expense of the
	// journey, and on every guest user currently holding member status,
	// in a single transaction. Registered members are never touched.
	CascadeExpiry(ctx context.Context, journeyID string, expireAt time.Time) error

	// Close releases any resources held by the store.
	Close() error
}
