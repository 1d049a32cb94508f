package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/esusuhq/esusu/internal/apperror"
	"github.com/esusuhq/esusu/internal/models"
)

const paymentColumns = "id, group_id, cycle_id, user_id, rank, payment_date, transaction_id"

// CreatePaymentEntries bulk-inserts a cycle's payout order. All entries are
// written or none; any row failure rolls the batch back and surfaces a
// ConsistencyError so a gapped order can never be committed.
func (s *SQLiteStore) CreatePaymentEntries(ctx context.Context, entries []*models.PaymentListEntry) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, entry := range entries {
		if entry.ID == "" {
			entry.ID = uuid.New().String()
		}

		_, err := tx.ExecContext(ctx,
			`INSERT INTO payment_list (id, group_id, cycle_id, user_id, rank, payment_date, transaction_id)
			 VALUES (?, ?, ?, ?, ?, ?, NULL)`,
			entry.ID, entry.GroupID, entry.CycleID, entry.UserID, entry.Order, formatDate(entry.PaymentDate),
		)
		if err != nil {
			return &apperror.ConsistencyError{
				Msg: fmt.Sprintf("payout order build failed at rank %d", entry.Order),
				Err: err,
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return &apperror.ConsistencyError{Msg: "payout order build failed to commit", Err: err}
	}

	return nil
}

// CreatePaymentEntry appends a single payout slot.
func (s *SQLiteStore) CreatePaymentEntry(ctx context.Context, entry *models.PaymentListEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO payment_list (id, group_id, cycle_id, user_id, rank, payment_date, transaction_id)
		 VALUES (?, ?, ?, ?, ?, ?, NULL)`,
		entry.ID, entry.GroupID, entry.CycleID, entry.UserID, entry.Order, formatDate(entry.PaymentDate),
	)
	if err != nil {
		return fmt.Errorf("failed to insert payment entry: %w", err)
	}

	return nil
}

// LastPaymentEntry returns the highest-order entry for a (group, cycle).
func (s *SQLiteStore) LastPaymentEntry(ctx context.Context, groupID, cycleID string) (*models.PaymentListEntry, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+paymentColumns+" FROM payment_list WHERE group_id = ? AND cycle_id = ? ORDER BY rank DESC LIMIT 1",
		groupID, cycleID,
	)
	entry, err := scanPaymentEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.NotFound("no payment list for group %s cycle %s", groupID, cycleID)
	}
	return entry, err
}

// DeletePaymentEntryAndRenumber removes a member's payout slot and shifts
// every higher rank down by one inside a single transaction, keeping the
// 1..N sequence dense.
func (s *SQLiteStore) DeletePaymentEntryAndRenumber(ctx context.Context, groupID, cycleID, userID string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var removedRank int
	err = tx.QueryRowContext(ctx,
		"SELECT rank FROM payment_list WHERE group_id = ? AND cycle_id = ? AND user_id = ?",
		groupID, cycleID, userID,
	).Scan(&removedRank)
	if errors.Is(err, sql.ErrNoRows) {
		return apperror.NotFound("no payment entry for user %s in group %s cycle %s", userID, groupID, cycleID)
	}
	if err != nil {
		return fmt.Errorf("failed to find payment entry: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		"DELETE FROM payment_list WHERE group_id = ? AND cycle_id = ? AND user_id = ?",
		groupID, cycleID, userID,
	)
	if err != nil {
		return fmt.Errorf("failed to delete payment entry: %w", err)
	}

	// Shift in two steps so the unique (group, cycle, rank) index never sees
	// a transient duplicate mid-update.
	_, err = tx.ExecContext(ctx,
		"UPDATE payment_list SET rank = -(rank - 1) WHERE group_id = ? AND cycle_id = ? AND rank > ?",
		groupID, cycleID, removedRank,
	)
	if err != nil {
		return &apperror.ConsistencyError{Msg: "payout order renumbering failed", Err: err}
	}
	_, err = tx.ExecContext(ctx,
		"UPDATE payment_list SET rank = -rank WHERE group_id = ? AND cycle_id = ? AND rank < 0",
		groupID, cycleID,
	)
	if err != nil {
		return &apperror.ConsistencyError{Msg: "payout order renumbering failed", Err: err}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// ListPaymentEntries returns a cycle's payout order by rank.
func (s *SQLiteStore) ListPaymentEntries(ctx context.Context, groupID, cycleID string) ([]*models.PaymentListEntry, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+paymentColumns+" FROM payment_list WHERE group_id = ? AND cycle_id = ? ORDER BY rank",
		groupID, cycleID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list payment entries: %w", err)
	}
	defer rows.Close()

	return collectPaymentEntries(rows)
}

// PaymentEntriesDue returns every entry whose payment_date equals date.
func (s *SQLiteStore) PaymentEntriesDue(ctx context.Context, date time.Time) ([]*models.PaymentListEntry, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+paymentColumns+" FROM payment_list WHERE payment_date = ?",
		formatDate(date),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query due payment entries: %w", err)
	}
	defer rows.Close()

	return collectPaymentEntries(rows)
}

// AttachTransactionToPaymentEntry marks a payout slot settled.
func (s *SQLiteStore) AttachTransactionToPaymentEntry(ctx context.Context, entryID, transactionID string) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE payment_list SET transaction_id = ? WHERE id = ?",
		transactionID, entryID,
	)
	if err != nil {
		return fmt.Errorf("failed to attach transaction to payment entry: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check payment entry update: %w", err)
	}
	if affected == 0 {
		return apperror.NotFound("payment entry not found: %s", entryID)
	}

	return nil
}

// CreateSavingsEntry records a contribution charge attempt.
func (s *SQLiteStore) CreateSavingsEntry(ctx context.Context, entry *models.SavingsListEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}
	if entry.CreatedAt == 0 {
		entry.CreatedAt = time.Now().Unix()
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO savings_list (id, group_id, cycle_id, user_id, transaction_id, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		entry.ID, entry.GroupID, entry.CycleID, entry.UserID, entry.TransactionID, entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert savings entry: %w", err)
	}

	return nil
}

func collectPaymentEntries(rows *sql.Rows) ([]*models.PaymentListEntry, error) {
	var entries []*models.PaymentListEntry
	for rows.Next() {
		entry, err := scanPaymentEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate payment entries: %w", err)
	}

	return entries, nil
}

func scanPaymentEntry(row scanner) (*models.PaymentListEntry, error) {
	entry := &models.PaymentListEntry{}
	var (
		paymentDate   string
		transactionID sql.NullString
	)

	err := row.Scan(&entry.ID, &entry.GroupID, &entry.CycleID, &entry.UserID,
		&entry.Order, &paymentDate, &transactionID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan payment entry: %w", err)
	}

	date, err := parseDate(paymentDate)
	if err != nil {
		return nil, err
	}
	entry.PaymentDate = date

	if transactionID.Valid {
		entry.TransactionID = &transactionID.String
	}

	return entry, nil
}
