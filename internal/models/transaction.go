package models

// TransactionType distinguishes contribution charges from disbursements.
type TransactionType string

const (
	TransactionSavings TransactionType = "savings"
	TransactionPayment TransactionType = "payment"
)

// TransactionStatus mirrors the gateway's transaction lifecycle.
type TransactionStatus string

const (
	StatusPending   TransactionStatus = "pending"
	StatusSuccess   TransactionStatus = "success"
	StatusReversed  TransactionStatus = "reversed"
	StatusAbandoned TransactionStatus = "abandoned"
	StatusFailed    TransactionStatus = "failed"
)

// Transaction is a gateway-backed money movement. A Transaction is referenced
// by at most one list entry; it is never owned by one.
type Transaction struct {
	// ID is the unique identifier for the transaction (UUID format).
	ID string

	// Reference is the gateway-issued reference, unique across transactions.
	// Charge attempts that never reached the gateway carry a locally
	// generated reference so the attempt is still auditable.
	Reference string

	Amount Money
	Type   TransactionType
	Status TransactionStatus

	// UserID is the member the money moved for.
	UserID string

	// CreatedAt is the Unix timestamp when the transaction was recorded.
	CreatedAt int64
}

// Owner implements Ownable.
func (t *Transaction) Owner() string { return t.UserID }
