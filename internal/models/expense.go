package models

import "time"

// Expense is a cost entry attached to a journey. The splitting arithmetic
// lives with the caller; the server stores entries and keeps their
// expiration in lockstep with the journey's schedule.
type Expense struct {
	// ID is the unique identifier for the expense (UUID format).
	ID string

	// JourneyID is the journey this expense belongs to.
	JourneyID string

	// PayerID is the member who paid.
	PayerID string

	// Title describes the expense (e.g., "Dinner", "Fuel").
	Title string

	// Amount is the total paid, in the journey's currency.
	Amount float64

	// ExpireAt mirrors the journey's scheduled deletion time.
	ExpireAt *time.Time

	// CreatedAt is the Unix timestamp when the expense was recorded.
	CreatedAt int64
}
