package models

import "time"

// User represents an account that can belong to journeys.
//
// Two kinds exist: registered users with a durable account and an email,
// and guests created implicitly during join-token redemption when no
// authenticated identity is present. Guests are ephemeral: deleted
// outright when they voluntarily leave, and TTL-expired together with
// their journey when the leader departs.
type User struct {
	// ID is the unique identifier for the user (UUID format).
	ID string

	// Name is the display name. For guests it is the name supplied at
	// redemption, unique within the journey they joined.
	Name string

	// Email is set only for registered users (unique when present).
	Email string

	// IsGuest marks an ephemeral identity tied to a journey's lifecycle.
	IsGuest bool

	// ExpireAt is set only for guests whose journey is scheduled for
	// deletion; registered users are never expired.
	ExpireAt *time.Time

	// CreatedAt is the Unix timestamp when the user was created.
	CreatedAt int64
}

