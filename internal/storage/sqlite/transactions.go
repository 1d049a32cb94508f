package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/esusuhq/esusu/internal/apperror"
	"github.com/esusuhq/esusu/internal/models"
)

// CreateTransaction persists a gateway transaction record.
func (s *SQLiteStore) CreateTransaction(ctx context.Context, tx *models.Transaction) error {
	if tx.ID == "" {
		tx.ID = uuid.New().String()
	}
	if tx.CreatedAt == 0 {
		tx.CreatedAt = time.Now().Unix()
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO transactions (id, reference, amount, currency, type, status, user_id, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		tx.ID, tx.Reference, tx.Amount.Amount.String(), tx.Amount.Currency,
		string(tx.Type), string(tx.Status), tx.UserID, tx.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert transaction: %w", err)
	}

	return nil
}

// UpdateTransactionStatus updates the transaction with the given gateway
// reference, as reported by the gateway's webhook.
func (s *SQLiteStore) UpdateTransactionStatus(ctx context.Context, reference string, status models.TransactionStatus) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE transactions SET status = ? WHERE reference = ?",
		string(status), reference,
	)
	if err != nil {
		return fmt.Errorf("failed to update transaction status: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check transaction update: %w", err)
	}
	if affected == 0 {
		return apperror.NotFound("transaction not found: %s", reference)
	}

	return nil
}
