package models

// Ownable is the capability for models that belong to a single user.
// Authorization checks resolve ownership through this accessor instead of
// inspecting concrete types.
type Ownable interface {
	// Owner returns the owning user's ID, or empty if unowned.
	Owner() string
}
