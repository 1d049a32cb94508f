package models

// Bank is a member's verified transfer destination. AccountName, BankName and
// RecipientCode are resolved by the gateway at registration, never supplied
// by the member.
type Bank struct {
	// ID is the unique identifier for the bank record (UUID format).
	ID string

	UserID string

	AccountName   string
	AccountNumber string
	BankCode      string
	BankName      string

	// RecipientCode is the gateway's transfer-recipient handle used when
	// disbursing to this account.
	RecipientCode string

	// IsDefault marks the account disbursements go to when a member has
	// registered more than one.
	IsDefault bool

	// CreatedAt is the Unix timestamp when the bank was registered.
	CreatedAt int64
}

// Owner implements Ownable.
func (b *Bank) Owner() string { return b.UserID }

// Card is a member's saved payment instrument, captured from a verified
// gateway transaction. The collect-savings sweep charges it by
// AuthorizationCode.
type Card struct {
	// ID is the unique identifier for the card record (UUID format).
	ID string

	UserID string

	AuthorizationCode string

	// Signature uniquely identifies the physical card at the gateway.
	// Re-capturing the same card updates the existing record.
	Signature string

	Last4    string
	ExpMonth string
	ExpYear  string

	// Email is the cardholder email the gateway requires on charges.
	Email string

	// Reference is the verification transaction the card was captured from.
	Reference string

	// CreatedAt is the Unix timestamp when the card was first saved.
	CreatedAt int64
}

// Owner implements Ownable.
func (c *Card) Owner() string { return c.UserID }
