package service

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/esusuhq/esusu/internal/gateway"
	"github.com/esusuhq/esusu/internal/locker"
	"github.com/esusuhq/esusu/internal/models"
	"github.com/esusuhq/esusu/internal/storage"
	"github.com/esusuhq/esusu/internal/storage/sqlite"
)

func newTestStore(t *testing.T) storage.Store {
	t.Helper()

	tempDir, err := os.MkdirTemp("", "esusu-service-test-*")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}
	t.Cleanup(func() { os.RemoveAll(tempDir) })

	store, err := sqlite.New(filepath.Join(tempDir, "test.db"))
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	return store
}

func mustUser(t *testing.T, store storage.Store, name, email string) *models.User {
	t.Helper()
	user := &models.User{Name: name, Email: email}
	if err := store.CreateUser(context.Background(), user); err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}
	return user
}

func mustGroup(t *testing.T, store storage.Store, owner *models.User, capacity int) *models.Group {
	t.Helper()
	amount, _ := models.NewMoney("5000", "NGN")
	group := &models.Group{
		Name:         "Lagos Savers",
		MaxCapacity:  capacity,
		AmountToSave: amount,
		OwnerID:      owner.ID,
	}
	if err := store.CreateGroup(context.Background(), group); err != nil {
		t.Fatalf("CreateGroup failed: %v", err)
	}
	return group
}

func mustMember(t *testing.T, store storage.Store, group *models.Group, user *models.User) *models.Membership {
	t.Helper()
	m := &models.Membership{UserID: user.ID, GroupID: group.ID}
	if err := store.CreateMembership(context.Background(), m); err != nil {
		t.Fatalf("CreateMembership failed: %v", err)
	}
	return m
}

func mustCard(t *testing.T, store storage.Store, user *models.User) *models.Card {
	t.Helper()
	card := &models.Card{
		UserID:            user.ID,
		AuthorizationCode: "AUTH_" + user.Name,
		Signature:         "SIG_" + user.Name,
		Last4:             "4081",
		ExpMonth:          "12",
		ExpYear:           "2030",
		Email:             user.Email,
		Reference:         "ref-card-" + user.Name,
	}
	if err := store.UpsertCard(context.Background(), card); err != nil {
		t.Fatalf("UpsertCard failed: %v", err)
	}
	return card
}

func mustBank(t *testing.T, store storage.Store, user *models.User) *models.Bank {
	t.Helper()
	bank := &models.Bank{
		UserID:        user.ID,
		AccountName:   user.Name,
		AccountNumber: "00000" + user.ID[:5],
		BankCode:      "058",
		BankName:      "GTBank",
		RecipientCode: "RCP_" + user.Name,
		IsDefault:     true,
	}
	if err := store.CreateBank(context.Background(), bank); err != nil {
		t.Fatalf("CreateBank failed: %v", err)
	}
	return bank
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// fakeGateway implements gateway.Gateway with overridable behavior per call.
// The zero value succeeds on everything.
type fakeGateway struct {
	chargeFn   func(authCode, email string, amountMinor int64) (*gateway.ChargeResult, error)
	transferFn func(recipientCode string, amountMinor int64) (*gateway.TransferResult, error)
	verifyAcct func(accountNumber, bankCode string) (*gateway.AccountVerification, error)
	verifyTxn  func(reference string) (*gateway.TransactionVerification, error)

	charges   int
	transfers int
	refunds   []string
}

var _ gateway.Gateway = (*fakeGateway)(nil)

func (f *fakeGateway) VerifyAccount(_ context.Context, accountNumber, bankCode string) (*gateway.AccountVerification, error) {
	if f.verifyAcct != nil {
		return f.verifyAcct(accountNumber, bankCode)
	}
	return &gateway.AccountVerification{AccountName: "ADAEZE OBI"}, nil
}

func (f *fakeGateway) CreateTransferRecipient(_ context.Context, name, accountNumber, bankCode, currency string) (*gateway.TransferRecipient, error) {
	return &gateway.TransferRecipient{
		RecipientCode: "RCP_" + accountNumber,
		AccountName:   name,
		BankName:      "Guaranty Trust Bank",
	}, nil
}

func (f *fakeGateway) VerifyTransaction(_ context.Context, reference string) (*gateway.TransactionVerification, error) {
	if f.verifyTxn != nil {
		return f.verifyTxn(reference)
	}
	return &gateway.TransactionVerification{
		Status:        "success",
		Reference:     reference,
		AmountMinor:   5000,
		CustomerEmail: "cardholder@example.com",
		Authorization: gateway.CardAuthorization{
			AuthorizationCode: "AUTH_verified",
			Signature:         "SIG_verified",
			Last4:             "4081",
			ExpMonth:          "12",
			ExpYear:           "2030",
		},
	}, nil
}

func (f *fakeGateway) ChargeSavedInstrument(_ context.Context, authCode, email string, amountMinor int64) (*gateway.ChargeResult, error) {
	f.charges++
	if f.chargeFn != nil {
		return f.chargeFn(authCode, email, amountMinor)
	}
	return &gateway.ChargeResult{
		Status:      "success",
		Reference:   fmt.Sprintf("charge-%d", f.charges),
		AmountMinor: amountMinor,
	}, nil
}

func (f *fakeGateway) InitiateTransfer(_ context.Context, recipientCode string, amountMinor int64) (*gateway.TransferResult, error) {
	f.transfers++
	if f.transferFn != nil {
		return f.transferFn(recipientCode, amountMinor)
	}
	return &gateway.TransferResult{
		Status:      "pending",
		Reference:   fmt.Sprintf("transfer-%d", f.transfers),
		AmountMinor: amountMinor,
	}, nil
}

func (f *fakeGateway) Refund(_ context.Context, reference string) error {
	f.refunds = append(f.refunds, reference)
	return nil
}

// fixture wires the full service graph against a temp store and fake gateway.
type fixture struct {
	store       storage.Store
	gw          *fakeGateway
	cycles      *CycleService
	payouts     *PayoutService
	memberships *MembershipService
	settlement  *SettlementService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	store := newTestStore(t)
	gw := &fakeGateway{}
	locks := locker.New()

	payouts := NewPayoutService(store)
	cycles := NewCycleService(store, locks, payouts)
	memberships := NewMembershipService(store, locks, cycles, payouts)
	settlement := NewSettlementService(store, gw)

	return &fixture{
		store:       store,
		gw:          gw,
		cycles:      cycles,
		payouts:     payouts,
		memberships: memberships,
		settlement:  settlement,
	}
}
