// Package storage provides abstractions for persistent data storage.
package storage

import (
	"context"
	"time"

	"github.com/esusuhq/esusu/internal/models"
)

// Store defines the persistence interface for the cycle engine.
// This abstraction allows swapping storage backends (SQLite, PostgreSQL, etc.)
// without changing the service layer.
//
// Lookups return *apperror.NotFoundError when the row does not exist; callers
// branch with errors.As rather than inspecting messages.
type Store interface {
	// CreateUser persists a new user. The ID field is populated if unset.
	CreateUser(ctx context.Context, user *models.User) error

	// GetUser retrieves a user by ID.
	GetUser(ctx context.Context, userID string) (*models.User, error)

	// GetUserByEmail retrieves a user by email.
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)

	// CreateGroup persists a new group, populating ID, CreatedAt and the
	// unique share token when unset.
	CreateGroup(ctx context.Context, group *models.Group) error

	// GetGroup retrieves a group by ID.
	GetGroup(ctx context.Context, groupID string) (*models.Group, error)

	// GetGroupByToken retrieves a group by its share token.
	GetGroupByToken(ctx context.Context, token string) (*models.Group, error)

	// CreateMembership persists a new membership.
	CreateMembership(ctx context.Context, membership *models.Membership) error

	// CreateMembershipsBulk persists all memberships in one transaction;
	// any failure rolls the whole batch back.
	CreateMembershipsBulk(ctx context.Context, memberships []*models.Membership) error

	// GetMembership retrieves the membership for a (user, group) pair.
	GetMembership(ctx context.Context, userID, groupID string) (*models.Membership, error)

	// DeleteMembership removes the membership for a (user, group) pair.
	DeleteMembership(ctx context.Context, userID, groupID string) error

	// ListMemberships returns a group's memberships in creation order.
	ListMemberships(ctx context.Context, groupID string) ([]*models.Membership, error)

	// CountMemberships returns how many members a group has.
	CountMemberships(ctx context.Context, groupID string) (int, error)

	// CreateCycle persists a new cycle, assigning cycle_number = previous
	// max + 1 and setting the group's current_cycle_number in the same
	// transaction.
	CreateCycle(ctx context.Context, cycle *models.Cycle) error

	// LatestCycle returns the group's highest-numbered cycle.
	LatestCycle(ctx context.Context, groupID string) (*models.Cycle, error)

	// GetCycleByNumber retrieves a cycle by (group, cycle_number).
	GetCycleByNumber(ctx context.Context, groupID string, cycleNumber int) (*models.Cycle, error)

	// SetCycleEndDate updates a cycle's derived end date.
	SetCycleEndDate(ctx context.Context, cycleID string, endDate *time.Time) error

	// SetCycleNextSavingDate advances or clears a cycle's saving cadence.
	SetCycleNextSavingDate(ctx context.Context, cycleID string, next *time.Time) error

	// CyclesDueForSaving returns every cycle whose next_saving_date equals
	// the given date.
	CyclesDueForSaving(ctx context.Context, date time.Time) ([]*models.Cycle, error)

	// CreatePaymentEntries bulk-inserts a cycle's payout order. All entries
	// are written or none; a failed batch surfaces ConsistencyError.
	CreatePaymentEntries(ctx context.Context, entries []*models.PaymentListEntry) error

	// LastPaymentEntry returns the highest-order entry for a (group, cycle).
	LastPaymentEntry(ctx context.Context, groupID, cycleID string) (*models.PaymentListEntry, error)

	// CreatePaymentEntry appends a single payout slot.
	CreatePaymentEntry(ctx context.Context, entry *models.PaymentListEntry) error

	// DeletePaymentEntryAndRenumber removes a member's payout slot and
	// shifts every higher order down by one, keeping 1..N dense, in one
	// transaction.
	DeletePaymentEntryAndRenumber(ctx context.Context, groupID, cycleID, userID string) error

	// ListPaymentEntries returns a cycle's payout order by rank.
	ListPaymentEntries(ctx context.Context, groupID, cycleID string) ([]*models.PaymentListEntry, error)

	// PaymentEntriesDue returns every entry whose payment_date equals the
	// given date.
	PaymentEntriesDue(ctx context.Context, date time.Time) ([]*models.PaymentListEntry, error)

	// AttachTransactionToPaymentEntry marks a payout slot settled.
	AttachTransactionToPaymentEntry(ctx context.Context, entryID, transactionID string) error

	// CreateSavingsEntry records a contribution charge attempt.
	CreateSavingsEntry(ctx context.Context, entry *models.SavingsListEntry) error

	// CreateTransaction persists a gateway transaction record.
	CreateTransaction(ctx context.Context, tx *models.Transaction) error

	// UpdateTransactionStatus updates the transaction with the given
	// gateway reference. Unknown references are a NotFoundError.
	UpdateTransactionStatus(ctx context.Context, reference string, status models.TransactionStatus) error

	// CreateBank persists a verified transfer destination.
	CreateBank(ctx context.Context, bank *models.Bank) error

	// GetBankByUser returns the user's transfer destination, preferring the
	// default account.
	GetBankByUser(ctx context.Context, userID string) (*models.Bank, error)

	// CountBanksByAccount counts registrations of an (account, bank code)
	// pair across all users.
	CountBanksByAccount(ctx context.Context, accountNumber, bankCode string) (int, error)

	// UpsertCard creates or refreshes a saved card, keyed by
	// (user, signature).
	UpsertCard(ctx context.Context, card *models.Card) error

	// GetCardByUser returns the user's saved payment instrument.
	GetCardByUser(ctx context.Context, userID string) (*models.Card, error)

	// Close releases any resources held by the store.
	Close() error
}
