package service

import (
	"context"
	"log/slog"

	"github.com/esusuhq/esusu/internal/apperror"
	"github.com/esusuhq/esusu/internal/locker"
	"github.com/esusuhq/esusu/internal/models"
	"github.com/esusuhq/esusu/internal/storage"
)

// MembershipService mutates group membership and keeps the cycle engine
// informed through its listeners. Mutations for a group are serialized with
// cycle opening via the group's advisory lock.
type MembershipService struct {
	store     storage.Store
	locks     *locker.Locker
	listeners []MembershipListener
}

// NewMembershipService creates a MembershipService. Listener order matters:
// listeners run synchronously after each committed mutation, in the order
// given.
func NewMembershipService(store storage.Store, locks *locker.Locker, listeners ...MembershipListener) *MembershipService {
	return &MembershipService{store: store, locks: locks, listeners: listeners}
}

// AddMember joins a user to a group. Duplicate membership is a
// ConflictError; a full group is a ValidationError.
func (s *MembershipService) AddMember(ctx context.Context, groupID, userID string, isAdmin bool) (*models.Membership, error) {
	unlock := s.locks.Lock(groupID)
	defer unlock()

	return s.addMemberLocked(ctx, groupID, userID, isAdmin)
}

// AddMemberByToken joins a user to the group behind a share token.
func (s *MembershipService) AddMemberByToken(ctx context.Context, token, userID string) (*models.Membership, error) {
	group, err := s.store.GetGroupByToken(ctx, token)
	if err != nil {
		return nil, err
	}

	unlock := s.locks.Lock(group.ID)
	defer unlock()

	return s.addMemberLocked(ctx, group.ID, userID, false)
}

func (s *MembershipService) addMemberLocked(ctx context.Context, groupID, userID string, isAdmin bool) (*models.Membership, error) {
	group, err := s.store.GetGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}
	user, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	if _, err := s.store.GetMembership(ctx, userID, groupID); err == nil {
		return nil, apperror.Conflict("user %s is already a member of group %s", userID, groupID)
	} else if !apperror.IsNotFound(err) {
		return nil, err
	}

	count, err := s.store.CountMemberships(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if group.MaxCapacity > 0 && count >= group.MaxCapacity {
		return nil, apperror.Validation("group %s is full (%d members)", groupID, group.MaxCapacity)
	}

	membership := &models.Membership{UserID: userID, GroupID: groupID, IsAdmin: isAdmin}
	if err := s.store.CreateMembership(ctx, membership); err != nil {
		return nil, err
	}

	slog.Info("Member added", "group_id", groupID, "user_id", userID)

	if err := s.notify(ctx, MembershipEvent{Kind: MemberAdded, GroupID: groupID, UserID: user.ID}); err != nil {
		return nil, err
	}

	return membership, nil
}

// AddMembersBulk resolves each email to a user and joins them all in one
// transaction. Any unknown email fails the whole batch with NotFoundError
// before a single row is written.
func (s *MembershipService) AddMembersBulk(ctx context.Context, groupID string, emails []string) ([]*models.Membership, error) {
	users := make([]*models.User, 0, len(emails))
	for _, email := range emails {
		user, err := s.store.GetUserByEmail(ctx, email)
		if apperror.IsNotFound(err) {
			return nil, apperror.NotFound("%s does not exist", email)
		}
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}

	unlock := s.locks.Lock(groupID)
	defer unlock()

	group, err := s.store.GetGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}

	count, err := s.store.CountMemberships(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if group.MaxCapacity > 0 && count+len(users) > group.MaxCapacity {
		return nil, apperror.Validation("group %s cannot fit %d more members", groupID, len(users))
	}

	for _, user := range users {
		if _, err := s.store.GetMembership(ctx, user.ID, groupID); err == nil {
			return nil, apperror.Conflict("user %s is already a member of group %s", user.ID, groupID)
		} else if !apperror.IsNotFound(err) {
			return nil, err
		}
	}

	memberships := make([]*models.Membership, len(users))
	for i, user := range users {
		memberships[i] = &models.Membership{UserID: user.ID, GroupID: groupID}
	}
	if err := s.store.CreateMembershipsBulk(ctx, memberships); err != nil {
		return nil, err
	}

	slog.Info("Members added in bulk", "group_id", groupID, "count", len(memberships))

	for _, m := range memberships {
		if err := s.notify(ctx, MembershipEvent{Kind: MemberAdded, GroupID: groupID, UserID: m.UserID}); err != nil {
			return nil, err
		}
	}

	return memberships, nil
}

// RemoveMember removes a user from a group. Unknown membership is a
// NotFoundError.
func (s *MembershipService) RemoveMember(ctx context.Context, groupID, userID string) error {
	unlock := s.locks.Lock(groupID)
	defer unlock()

	if err := s.store.DeleteMembership(ctx, userID, groupID); err != nil {
		return err
	}

	slog.Info("Member removed", "group_id", groupID, "user_id", userID)

	return s.notify(ctx, MembershipEvent{Kind: MemberRemoved, GroupID: groupID, UserID: userID})
}

func (s *MembershipService) notify(ctx context.Context, ev MembershipEvent) error {
	for _, l := range s.listeners {
		if err := l.OnMembershipChange(ctx, ev); err != nil {
			return err
		}
	}
	return nil
}
