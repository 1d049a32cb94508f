package models

// User is a registered member identity. Registration and authentication live
// outside this service; users arrive here already provisioned.
type User struct {
	// ID is the unique identifier for the user (UUID format).
	ID string

	// Name is the display name of the user.
	Name string

	// Email is the user's email address (unique). The gateway requires it
	// when charging a saved card.
	Email string

	// CreatedAt is the Unix timestamp when the user record was created.
	CreatedAt int64
}
