// Package gateway defines the contract with the external payment processor.
//
// The processor is opaque: this service only verifies accounts, creates
// transfer recipients, charges saved instruments, initiates transfers and
// refunds verification charges. All amounts cross this boundary in minor
// currency units. Calls fail either transiently (network, timeout) or with a
// business rejection; both surface as *apperror.GatewayError with Transient
// set accordingly.
package gateway

import "context"

// AccountVerification is the result of resolving an account number.
type AccountVerification struct {
	AccountName string
}

// TransferRecipient is the gateway handle for a verified transfer target.
type TransferRecipient struct {
	RecipientCode string
	BankName      string
	AccountName   string
}

// CardAuthorization is the reusable charge authorization captured from a
// verified transaction.
type CardAuthorization struct {
	AuthorizationCode string
	Signature         string
	Last4             string
	ExpMonth          string
	ExpYear           string
}

// TransactionVerification is the gateway's view of a transaction reference.
type TransactionVerification struct {
	Status        string
	Reference     string
	AmountMinor   int64
	CustomerEmail string
	Authorization CardAuthorization
}

// ChargeResult reports the outcome of charging a saved instrument.
type ChargeResult struct {
	Status      string
	Reference   string
	AmountMinor int64
}

// TransferResult reports the outcome of an initiated transfer.
type TransferResult struct {
	Status      string
	Reference   string
	AmountMinor int64
}

// Gateway is the boundary to the external payment processor.
type Gateway interface {
	// VerifyAccount resolves an account number against a bank code.
	VerifyAccount(ctx context.Context, accountNumber, bankCode string) (*AccountVerification, error)

	// CreateTransferRecipient registers a transfer target and returns its
	// recipient code.
	CreateTransferRecipient(ctx context.Context, name, accountNumber, bankCode, currency string) (*TransferRecipient, error)

	// VerifyTransaction confirms the status of a transaction reference and
	// returns the card authorization it carries.
	VerifyTransaction(ctx context.Context, reference string) (*TransactionVerification, error)

	// ChargeSavedInstrument charges a saved card authorization.
	ChargeSavedInstrument(ctx context.Context, authorizationCode, email string, amountMinor int64) (*ChargeResult, error)

	// InitiateTransfer sends amountMinor to a transfer recipient.
	InitiateTransfer(ctx context.Context, recipientCode string, amountMinor int64) (*TransferResult, error)

	// Refund reverses the transaction behind reference.
	Refund(ctx context.Context, reference string) error
}
