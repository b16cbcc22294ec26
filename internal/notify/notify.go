// Package notify delivers best-effort "journey changed" events to
// connected clients. Delivery is fire-and-forget: a missing or slow
// subscriber never blocks or fails the admission operation that triggered
// the event.
package notify

import "context"

// Notifier is the capability the admission services hold. Implementations
// must swallow transport problems; the error return exists only so
// callers can log it.
type Notifier interface {
	// NotifyJourneyUpdate tells watchers of the journey that its state
	// changed.
	NotifyJourneyUpdate(ctx context.Context, journeyID string) error
}

// Noop discards all notifications. Used in tests and when no client
// transport is configured.
type Noop struct{}

func (Noop) NotifyJourneyUpdate(context.Context, string) error { return nil }
