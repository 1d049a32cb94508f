package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/esusuhq/esusu/internal/apperror"
	"github.com/esusuhq/esusu/internal/locker"
	"github.com/esusuhq/esusu/internal/models"
	"github.com/esusuhq/esusu/internal/schedule"
	"github.com/esusuhq/esusu/internal/storage"
)

// CycleService owns the cycle lifecycle: opening a cycle, keeping its
// derived end date in sync with group size, and ending its collection phase.
type CycleService struct {
	store   storage.Store
	locks   *locker.Locker
	payouts *PayoutService

	now func() time.Time
}

// Ensure the service can act as a membership listener.
var _ MembershipListener = (*CycleService)(nil)

// NewCycleService creates a CycleService.
func NewCycleService(store storage.Store, locks *locker.Locker, payouts *PayoutService) *CycleService {
	return &CycleService{
		store:   store,
		locks:   locks,
		payouts: payouts,
		now:     time.Now,
	}
}

// OpenCycle starts a new cycle for the group and builds its payout order.
//
// It fails with ConflictError while the group still has an open cycle: no
// prior closed cycle, or the latest cycle's end date is unset or has not yet
// passed. The new cycle gets cycle_number = previous max + 1, an end date
// derived from the current member count, and a saving cadence starting on the
// start date itself. The group is locked for the whole transition so a
// concurrent bulk membership insert cannot race the derived state.
func (s *CycleService) OpenCycle(ctx context.Context, groupID string, startDate time.Time) (*models.Cycle, error) {
	unlock := s.locks.Lock(groupID)
	defer unlock()

	group, err := s.store.GetGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}

	today := schedule.DateOnly(s.now())
	latest, err := s.store.LatestCycle(ctx, groupID)
	if err != nil && !apperror.IsNotFound(err) {
		return nil, err
	}
	if latest != nil && cycleOpen(latest, today) {
		return nil, apperror.Conflict("group %s already has an open cycle (number %d)", groupID, latest.CycleNumber)
	}

	members, err := s.store.ListMemberships(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if len(members) == 0 {
		return nil, apperror.Validation("cannot open a cycle for a group with no members")
	}

	start := schedule.DateOnly(startDate)
	end := schedule.EndDate(start, len(members))
	cycle := &models.Cycle{
		GroupID:        groupID,
		StartDate:      start,
		EndDate:        &end,
		NextSavingDate: &start,
	}

	if err := s.store.CreateCycle(ctx, cycle); err != nil {
		return nil, fmt.Errorf("failed to open cycle: %w", err)
	}

	if _, err := s.payouts.Build(ctx, group, cycle, members); err != nil {
		return nil, err
	}

	slog.Info("Cycle opened",
		"group_id", groupID,
		"cycle_number", cycle.CycleNumber,
		"start_date", start.Format(time.DateOnly),
		"end_date", end.Format(time.DateOnly),
		"members", len(members),
	)

	return cycle, nil
}

// RecomputeEndDate re-derives the open cycle's end date from the group's
// current member count. It is a no-op when the group has no open cycle.
func (s *CycleService) RecomputeEndDate(ctx context.Context, groupID string) error {
	group, err := s.store.GetGroup(ctx, groupID)
	if err != nil {
		return err
	}
	if group.CurrentCycleNumber == nil {
		return nil
	}

	cycle, err := s.store.GetCycleByNumber(ctx, groupID, *group.CurrentCycleNumber)
	if err != nil {
		return err
	}

	count, err := s.store.CountMemberships(ctx, groupID)
	if err != nil {
		return err
	}

	end := schedule.EndDate(cycle.StartDate, count)
	if err := s.store.SetCycleEndDate(ctx, cycle.ID, &end); err != nil {
		return err
	}

	slog.Debug("Cycle end date recomputed",
		"group_id", groupID,
		"cycle_number", cycle.CycleNumber,
		"members", count,
		"end_date", end.Format(time.DateOnly),
	)

	return nil
}

// CloseSavingsPhase clears the cycle's saving cadence, signaling the
// collect-savings sweep to stop considering it.
func (s *CycleService) CloseSavingsPhase(ctx context.Context, cycleID string) error {
	return s.store.SetCycleNextSavingDate(ctx, cycleID, nil)
}

// OnMembershipChange keeps the open cycle's end date in step with group size.
func (s *CycleService) OnMembershipChange(ctx context.Context, ev MembershipEvent) error {
	return s.RecomputeEndDate(ctx, ev.GroupID)
}

// cycleOpen reports whether the cycle still counts as open on the given day:
// its end date is unset or has not yet passed.
func cycleOpen(c *models.Cycle, today time.Time) bool {
	return c.EndDate == nil || !c.EndDate.Before(today)
}
