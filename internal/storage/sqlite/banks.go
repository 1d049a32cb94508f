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

// CreateBank persists a verified transfer destination.
func (s *SQLiteStore) CreateBank(ctx context.Context, bank *models.Bank) error {
	if bank.ID == "" {
		bank.ID = uuid.New().String()
	}
	if bank.CreatedAt == 0 {
		bank.CreatedAt = time.Now().Unix()
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO banks (id, user_id, account_name, account_number, bank_code, bank_name, recipient_code, is_default, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		bank.ID, bank.UserID, bank.AccountName, bank.AccountNumber, bank.BankCode,
		bank.BankName, bank.RecipientCode, bank.IsDefault, bank.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert bank: %w", err)
	}

	return nil
}

// GetBankByUser returns the user's transfer destination, preferring the
// default account, then the earliest registered.
func (s *SQLiteStore) GetBankByUser(ctx context.Context, userID string) (*models.Bank, error) {
	bank := &models.Bank{}
	err := s.db.QueryRowContext(ctx,
		`SELECT id, user_id, account_name, account_number, bank_code, bank_name, recipient_code, is_default, created_at
		 FROM banks WHERE user_id = ? ORDER BY is_default DESC, created_at LIMIT 1`,
		userID,
	).Scan(&bank.ID, &bank.UserID, &bank.AccountName, &bank.AccountNumber, &bank.BankCode,
		&bank.BankName, &bank.RecipientCode, &bank.IsDefault, &bank.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.NotFound("no bank for user %s", userID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get bank: %w", err)
	}

	return bank, nil
}

// CountBanksByAccount counts registrations of an (account, bank code) pair.
func (s *SQLiteStore) CountBanksByAccount(ctx context.Context, accountNumber, bankCode string) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM banks WHERE account_number = ? AND bank_code = ?",
		accountNumber, bankCode,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count banks: %w", err)
	}

	return count, nil
}

// UpsertCard creates or refreshes a saved card keyed by (user, signature),
// so re-capturing the same physical card never duplicates it.
func (s *SQLiteStore) UpsertCard(ctx context.Context, card *models.Card) error {
	if card.ID == "" {
		card.ID = uuid.New().String()
	}
	if card.CreatedAt == 0 {
		card.CreatedAt = time.Now().Unix()
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO cards (id, user_id, authorization_code, signature, last4, exp_month, exp_year, email, reference, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (user_id, signature) DO UPDATE SET
		     authorization_code = excluded.authorization_code,
		     last4 = excluded.last4,
		     exp_month = excluded.exp_month,
		     exp_year = excluded.exp_year,
		     email = excluded.email,
		     reference = excluded.reference`,
		card.ID, card.UserID, card.AuthorizationCode, card.Signature, card.Last4,
		card.ExpMonth, card.ExpYear, card.Email, card.Reference, card.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert card: %w", err)
	}

	// A refresh keeps the original row; read back its identity.
	err = s.db.QueryRowContext(ctx,
		"SELECT id, created_at FROM cards WHERE user_id = ? AND signature = ?",
		card.UserID, card.Signature,
	).Scan(&card.ID, &card.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to read back card: %w", err)
	}

	return nil
}

// GetCardByUser returns the user's saved payment instrument.
func (s *SQLiteStore) GetCardByUser(ctx context.Context, userID string) (*models.Card, error) {
	card := &models.Card{}
	err := s.db.QueryRowContext(ctx,
		`SELECT id, user_id, authorization_code, signature, last4, exp_month, exp_year, email, reference, created_at
		 FROM cards WHERE user_id = ? ORDER BY created_at LIMIT 1`,
		userID,
	).Scan(&card.ID, &card.UserID, &card.AuthorizationCode, &card.Signature, &card.Last4,
		&card.ExpMonth, &card.ExpYear, &card.Email, &card.Reference, &card.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.NotFound("no card for user %s", userID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get card: %w", err)
	}

	return card, nil
}
