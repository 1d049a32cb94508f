package models

// Group represents a rotating savings group. Members contribute
// AmountToSave on the group's saving cadence, and each period one member
// receives the pooled funds according to the cycle's payout order.
type Group struct {
	// ID is the unique identifier for the group (UUID format).
	ID string

	// Name is the display name of the group.
	Name string

	// Description is optional free text.
	Description string

	// MaxCapacity caps how many members the group accepts.
	MaxCapacity int

	// AmountToSave is the fixed contribution each member is charged per
	// saving period.
	AmountToSave Money

	// CurrentCycleNumber is the number of the group's open cycle.
	// Nil while no cycle is open.
	CurrentCycleNumber *int

	// Token is the group's unique share token. Members can join by token
	// instead of group ID.
	Token string

	// OwnerID is the user who created the group. Empty if the owner
	// account was removed.
	OwnerID string

	// IsSearchable controls whether the group appears in public listings.
	IsSearchable bool

	// CreatedAt is the Unix timestamp when the group was created.
	CreatedAt int64
}

// Owner implements Ownable.
func (g *Group) Owner() string { return g.OwnerID }

// Membership ties a user to a group. A user belongs to a group at most once.
type Membership struct {
	// ID is the unique identifier for the membership (UUID format).
	ID string

	// UserID and GroupID form the unique (user, group) pair.
	UserID  string
	GroupID string

	// IsAdmin marks group administrators.
	IsAdmin bool

	// CreatedAt is the Unix timestamp when the membership was created.
	// It is the stable tie-break for append order.
	CreatedAt int64
}

// Owner implements Ownable.
func (m *Membership) Owner() string { return m.UserID }
