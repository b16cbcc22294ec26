package journey

// MembershipStatus is the state of a (journey, user) pair. A pair has at
// most one status at a time, which keeps the member, pending, and rejected
// sets disjoint.
//
// Transitions:
//
//	(none)   -> Member    direct admission (approval off)
//	(none)   -> Pending   admission with approval on
//	Pending  -> Member    leader approves
//	Pending  -> Rejected  leader rejects
//	Member   -> (none)    removal or voluntary leave (never the leader)
//
// Rejected is absorbing: a rejected user redeeming a fresh token fails
// loudly instead of being re-queued.
type MembershipStatus string

const (
	StatusNone     MembershipStatus = ""
	StatusMember   MembershipStatus = "member"
	StatusPending  MembershipStatus = "pending"
	StatusRejected MembershipStatus = "rejected"
)
