package service

import (
	"context"
	"log/slog"

	"github.com/esusuhq/esusu/internal/models"
	"github.com/esusuhq/esusu/internal/schedule"
	"github.com/esusuhq/esusu/internal/storage"
)

// PayoutService generates and maintains a cycle's rotating payout order.
type PayoutService struct {
	store storage.Store
}

// Ensure the service can act as a membership listener.
var _ MembershipListener = (*PayoutService)(nil)

// NewPayoutService creates a PayoutService.
func NewPayoutService(store storage.Store) *PayoutService {
	return &PayoutService{store: store}
}

// Build shuffles the members into a fresh payout order for the cycle and
// persists it in one atomic batch: ranks 1..N with payout dates one month
// apart starting a month after the cycle start. Every member is equally
// likely to draw any rank.
func (s *PayoutService) Build(ctx context.Context, group *models.Group, cycle *models.Cycle, members []*models.Membership) ([]*models.PaymentListEntry, error) {
	userIDs := make([]string, len(members))
	for i, m := range members {
		userIDs[i] = m.UserID
	}

	slots, err := schedule.BuildPayoutOrder(cycle.StartDate, userIDs)
	if err != nil {
		return nil, err
	}

	entries := make([]*models.PaymentListEntry, len(slots))
	for i, slot := range slots {
		entries[i] = &models.PaymentListEntry{
			GroupID:     group.ID,
			CycleID:     cycle.ID,
			UserID:      slot.UserID,
			Order:       slot.Order,
			PaymentDate: slot.PaymentDate,
		}
	}

	if err := s.store.CreatePaymentEntries(ctx, entries); err != nil {
		return nil, err
	}

	slog.Info("Payout order built",
		"group_id", group.ID,
		"cycle_number", cycle.CycleNumber,
		"entries", len(entries),
	)

	return entries, nil
}

// AppendMember adds a user to the tail of an existing payout order: rank
// max+1, payout date one month after the current last entry's. It fails with
// NotFoundError when the cycle has no payout order yet, since there is no
// base to derive the rank and date from.
func (s *PayoutService) AppendMember(ctx context.Context, groupID, cycleID, userID string) (*models.PaymentListEntry, error) {
	last, err := s.store.LastPaymentEntry(ctx, groupID, cycleID)
	if err != nil {
		return nil, err
	}

	entry := &models.PaymentListEntry{
		GroupID:     groupID,
		CycleID:     cycleID,
		UserID:      userID,
		Order:       last.Order + 1,
		PaymentDate: schedule.NextPaymentDate(last.PaymentDate),
	}
	if err := s.store.CreatePaymentEntry(ctx, entry); err != nil {
		return nil, err
	}

	return entry, nil
}

// RemoveMember deletes the user's payout slot and renumbers the remaining
// entries so ranks stay dense.
func (s *PayoutService) RemoveMember(ctx context.Context, groupID, cycleID, userID string) error {
	return s.store.DeletePaymentEntryAndRenumber(ctx, groupID, cycleID, userID)
}

// OnMembershipChange keeps the open cycle's payout order in step with
// membership: joins append to the tail, departures remove and renumber.
// Without an open cycle there is no order to maintain.
func (s *PayoutService) OnMembershipChange(ctx context.Context, ev MembershipEvent) error {
	group, err := s.store.GetGroup(ctx, ev.GroupID)
	if err != nil {
		return err
	}
	if group.CurrentCycleNumber == nil {
		return nil
	}

	cycle, err := s.store.GetCycleByNumber(ctx, ev.GroupID, *group.CurrentCycleNumber)
	if err != nil {
		return err
	}

	switch ev.Kind {
	case MemberAdded:
		_, err = s.AppendMember(ctx, ev.GroupID, cycle.ID, ev.UserID)
	case MemberRemoved:
		err = s.RemoveMember(ctx, ev.GroupID, cycle.ID, ev.UserID)
	}
	return err
}
