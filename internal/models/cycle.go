package models

import "time"

// Cycle is one full rotation period of a savings group.
//
// A group has at most one open cycle at a time: open means the latest cycle's
// EndDate is nil or has not yet passed. A new cycle may only be opened once
// the previous one has closed.
type Cycle struct {
	// ID is the unique identifier for the cycle (UUID format).
	ID string

	// GroupID is the group this cycle belongs to.
	GroupID string

	// CycleNumber is monotonic per group, starting at 1.
	CycleNumber int

	// StartDate is the first day of the cycle (UTC midnight).
	StartDate time.Time

	// EndDate is derived: StartDate + 7 days per member at computation time.
	// Recomputed whenever membership count changes while the cycle is open.
	EndDate *time.Time

	// NextSavingDate is the next day the collect-savings sweep should charge
	// this cycle's members. Nil once the collection phase has finished.
	NextSavingDate *time.Time
}

// PaymentListEntry is one slot in a cycle's rotating payout order.
// Orders within a (group, cycle) form a contiguous 1..N sequence.
type PaymentListEntry struct {
	// ID is the unique identifier for the entry (UUID format).
	ID string

	GroupID string
	CycleID string
	UserID  string

	// Order is the 1-based rank, unique per (group, cycle).
	Order int

	// PaymentDate is when this member is due the pooled disbursement:
	// cycle start + Order months.
	PaymentDate time.Time

	// TransactionID references the disbursement transaction once settled.
	// Nil means not yet paid out.
	TransactionID *string
}

// SavingsListEntry records one contribution charge attempt, successful or
// not, so that failures stay auditable.
type SavingsListEntry struct {
	// ID is the unique identifier for the entry (UUID format).
	ID string

	GroupID       string
	CycleID       string
	UserID        string
	TransactionID string

	// CreatedAt is the Unix timestamp when the charge was attempted.
	CreatedAt int64
}
