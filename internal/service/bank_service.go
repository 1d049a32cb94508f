package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/esusuhq/esusu/internal/apperror"
	"github.com/esusuhq/esusu/internal/gateway"
	"github.com/esusuhq/esusu/internal/models"
	"github.com/esusuhq/esusu/internal/storage"
)

// BankService registers members' transfer destinations.
type BankService struct {
	store    storage.Store
	gw       gateway.Gateway
	currency string
}

// NewBankService creates a BankService. currency is the currency transfer
// recipients are created in.
func NewBankService(store storage.Store, gw gateway.Gateway, currency string) *BankService {
	return &BankService{store: store, gw: gw, currency: currency}
}

// AddBank verifies an account number against its bank code, rejects accounts
// already registered by any member, registers the account as a transfer
// recipient and stores the result. The account name comes from the gateway,
// never from the caller.
func (s *BankService) AddBank(ctx context.Context, userID, accountNumber, bankCode, bankName string) (*models.Bank, error) {
	verification, err := s.gw.VerifyAccount(ctx, accountNumber, bankCode)
	if err != nil {
		var gwErr *apperror.GatewayError
		if errors.As(err, &gwErr) && !gwErr.Transient {
			return nil, apperror.Validation("could not verify account: %s", gwErr.Msg)
		}
		return nil, fmt.Errorf("failed to verify account: %w", err)
	}

	existing, err := s.store.CountBanksByAccount(ctx, accountNumber, bankCode)
	if err != nil {
		return nil, err
	}
	if existing > 0 {
		return nil, apperror.Conflict("account %s is already registered", accountNumber)
	}

	recipient, err := s.gw.CreateTransferRecipient(ctx, verification.AccountName, accountNumber, bankCode, s.currency)
	if err != nil {
		return nil, fmt.Errorf("failed to create transfer recipient: %w", err)
	}

	bank := &models.Bank{
		UserID:        userID,
		AccountName:   verification.AccountName,
		AccountNumber: accountNumber,
		BankCode:      bankCode,
		BankName:      bankName,
		RecipientCode: recipient.RecipientCode,
	}
	if recipient.BankName != "" {
		bank.BankName = recipient.BankName
	}
	if err := s.store.CreateBank(ctx, bank); err != nil {
		return nil, err
	}

	slog.Info("Bank account registered",
		"user_id", userID, "bank_code", bankCode, "bank_id", bank.ID)

	return bank, nil
}

// GetBank returns the account disbursements to userID go to.
func (s *BankService) GetBank(ctx context.Context, userID string) (*models.Bank, error) {
	return s.store.GetBankByUser(ctx, userID)
}
