// Package schedule holds the pure date and ordering math of the cycle
// engine: end-date derivation, payout-order generation and the saving and
// payment cadences. It touches no storage and no clock.
package schedule

import (
	"fmt"
	"math/rand/v2"
	"time"
)

const (
	// savingIntervalDays is the gap between contribution charges.
	savingIntervalDays = 7
)

// EndDate derives a cycle's end date from its start date and the group's
// member count: one saving week per member.
func EndDate(start time.Time, memberCount int) time.Time {
	return start.AddDate(0, 0, savingIntervalDays*memberCount)
}

// NextSavingDate advances the collection cadence by one week.
func NextSavingDate(current time.Time) time.Time {
	return current.AddDate(0, 0, savingIntervalDays)
}

// NextPaymentDate advances a payout date by one month.
func NextPaymentDate(previous time.Time) time.Time {
	return previous.AddDate(0, 1, 0)
}

// Slot is one assigned rank in a payout order.
type Slot struct {
	UserID string
	// Order is the 1-based rank.
	Order int
	// PaymentDate is start + Order months.
	PaymentDate time.Time
}

// BuildPayoutOrder assigns every user a rank 1..N uniformly at random and
// derives each rank's payout date: the first disbursement lands one month
// after the cycle start, then monthly.
func BuildPayoutOrder(start time.Time, userIDs []string) ([]Slot, error) {
	if len(userIDs) == 0 {
		return nil, fmt.Errorf("payout order needs at least one member")
	}

	slots := make([]Slot, len(userIDs))
	for i, j := range rand.Perm(len(userIDs)) {
		slots[i] = Slot{
			UserID:      userIDs[j],
			Order:       i + 1,
			PaymentDate: start.AddDate(0, i+1, 0),
		}
	}
	return slots, nil
}

// DateOnly truncates t to a calendar date at UTC midnight. All scheduling
// comparisons in the engine happen on these.
func DateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
