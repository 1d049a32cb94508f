package service

import "context"

// MembershipEventKind says what happened to a membership.
type MembershipEventKind int

const (
	MemberAdded MembershipEventKind = iota
	MemberRemoved
)

// MembershipEvent describes one membership mutation.
type MembershipEvent struct {
	Kind    MembershipEventKind
	GroupID string
	UserID  string
}

// MembershipListener reacts to membership mutations. Listeners are invoked
// synchronously by MembershipService after the mutation commits, replacing
// the implicit save-hook style of keeping cycle state in sync.
type MembershipListener interface {
	OnMembershipChange(ctx context.Context, ev MembershipEvent) error
}
