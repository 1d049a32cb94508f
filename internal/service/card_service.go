package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/esusuhq/esusu/internal/apperror"
	"github.com/esusuhq/esusu/internal/gateway"
	"github.com/esusuhq/esusu/internal/models"
	"github.com/esusuhq/esusu/internal/storage"
)

// CardService captures members' reusable payment instruments from verified
// gateway transactions.
type CardService struct {
	store storage.Store
	gw    gateway.Gateway
}

// NewCardService creates a CardService.
func NewCardService(store storage.Store, gw gateway.Gateway) *CardService {
	return &CardService{store: store, gw: gw}
}

// SaveCard verifies the charge behind reference and stores the authorization
// it carries so the collect-savings sweep can charge the card later.
// Capturing a card the member already saved refreshes the stored
// authorization instead of creating a second record. The verification charge
// is refunded on a best-effort basis; a failed refund never fails the
// capture.
func (s *CardService) SaveCard(ctx context.Context, userID, reference string) (*models.Card, error) {
	verification, err := s.gw.VerifyTransaction(ctx, reference)
	if err != nil {
		return nil, fmt.Errorf("failed to verify transaction: %w", err)
	}
	if verification.Status != "success" {
		return nil, apperror.Validation("unable to save card: transaction %s is %s", reference, verification.Status)
	}

	email := verification.CustomerEmail
	if email == "" {
		user, err := s.store.GetUser(ctx, userID)
		if err != nil {
			return nil, err
		}
		email = user.Email
	}

	auth := verification.Authorization
	card := &models.Card{
		UserID:            userID,
		AuthorizationCode: auth.AuthorizationCode,
		Signature:         auth.Signature,
		Last4:             auth.Last4,
		ExpMonth:          auth.ExpMonth,
		ExpYear:           auth.ExpYear,
		Email:             email,
		Reference:         verification.Reference,
	}
	if err := s.store.UpsertCard(ctx, card); err != nil {
		return nil, err
	}

	if err := s.gw.Refund(ctx, reference); err != nil {
		slog.Warn("Failed to refund card verification charge",
			"user_id", userID, "reference", reference, "error", err)
	}

	slog.Info("Card saved", "user_id", userID, "card_id", card.ID, "last4", card.Last4)

	return card, nil
}
