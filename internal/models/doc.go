// Package models defines the core domain models for JourneyHub.
//
// # Models
//
//   - Journey: the shared trip aggregate; membership sets, join-token
//     state, and the expiration schedule all live on (or hang off) this record
//   - User: a registered account or an ephemeral guest created during
//     token redemption
//   - Expense: a cost entry attached to a journey; expenses follow their
//     journey's expiration schedule
//
// # Design Principles
//
//  1. **ID strings, not pointers**: relationships are expressed as ID
//     strings to avoid circular references between models
//  2. **Nullable time fields are *time.Time**: a nil ExpireAt means "no
//     expiration scheduled"; immutable creation timestamps are Unix seconds
//  3. **Membership is a status, not three lists**: a (journey, user) pair
//     has at most one membership status, which keeps the member, pending,
//     and rejected sets disjoint by construction
package models
