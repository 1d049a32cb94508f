package service

import (
	"context"
	"testing"
	"time"

	"github.com/esusuhq/esusu/internal/apperror"
	"github.com/esusuhq/esusu/internal/models"
)

func TestOpenCycle(t *testing.T) {
	ctx := context.Background()

	t.Run("opens cycle with derived end date and payout order", func(t *testing.T) {
		f := newFixture(t)
		owner := mustUser(t, f.store, "Ada", "ada@example.com")
		group := mustGroup(t, f.store, owner, 10)
		users := []*models.User{
			owner,
			mustUser(t, f.store, "Bisi", "bisi@example.com"),
			mustUser(t, f.store, "Chidi", "chidi@example.com"),
		}
		for _, u := range users {
			mustMember(t, f.store, group, u)
		}

		start := date(2024, time.January, 1)
		cycle, err := f.cycles.OpenCycle(ctx, group.ID, start)
		if err != nil {
			t.Fatalf("OpenCycle failed: %v", err)
		}

		if cycle.CycleNumber != 1 {
			t.Errorf("Expected cycle number 1, got %d", cycle.CycleNumber)
		}
		want := date(2024, time.January, 22)
		if cycle.EndDate == nil || !cycle.EndDate.Equal(want) {
			t.Errorf("Expected end date %v, got %v", want, cycle.EndDate)
		}
		if cycle.NextSavingDate == nil || !cycle.NextSavingDate.Equal(start) {
			t.Errorf("Expected first saving date %v, got %v", start, cycle.NextSavingDate)
		}

		entries, err := f.store.ListPaymentEntries(ctx, group.ID, cycle.ID)
		if err != nil {
			t.Fatalf("ListPaymentEntries failed: %v", err)
		}
		if len(entries) != len(users) {
			t.Fatalf("Expected %d payout entries, got %d", len(users), len(entries))
		}
		for i, e := range entries {
			if e.Order != i+1 {
				t.Errorf("Entry %d: expected order %d, got %d", i, i+1, e.Order)
			}
			wantDate := start.AddDate(0, e.Order, 0)
			if !e.PaymentDate.Equal(wantDate) {
				t.Errorf("Order %d: expected payment date %v, got %v", e.Order, wantDate, e.PaymentDate)
			}
		}

		updated, err := f.store.GetGroup(ctx, group.ID)
		if err != nil {
			t.Fatalf("GetGroup failed: %v", err)
		}
		if updated.CurrentCycleNumber == nil || *updated.CurrentCycleNumber != 1 {
			t.Errorf("Expected group current cycle 1, got %v", updated.CurrentCycleNumber)
		}
	})

	t.Run("rejects second cycle while one is open", func(t *testing.T) {
		f := newFixture(t)
		owner := mustUser(t, f.store, "Ada", "ada@example.com")
		group := mustGroup(t, f.store, owner, 10)
		mustMember(t, f.store, group, owner)

		f.cycles.now = func() time.Time { return date(2024, time.January, 2) }

		if _, err := f.cycles.OpenCycle(ctx, group.ID, date(2024, time.January, 1)); err != nil {
			t.Fatalf("First OpenCycle failed: %v", err)
		}
		_, err := f.cycles.OpenCycle(ctx, group.ID, date(2024, time.January, 2))
		if !apperror.IsConflict(err) {
			t.Errorf("Expected ConflictError, got %v", err)
		}
	})

	t.Run("opens next cycle once the previous one has ended", func(t *testing.T) {
		f := newFixture(t)
		owner := mustUser(t, f.store, "Ada", "ada@example.com")
		group := mustGroup(t, f.store, owner, 10)
		mustMember(t, f.store, group, owner)

		f.cycles.now = func() time.Time { return date(2024, time.January, 2) }
		if _, err := f.cycles.OpenCycle(ctx, group.ID, date(2024, time.January, 1)); err != nil {
			t.Fatalf("First OpenCycle failed: %v", err)
		}

		// One member, so the first cycle ends January 8.
		f.cycles.now = func() time.Time { return date(2024, time.January, 9) }
		cycle, err := f.cycles.OpenCycle(ctx, group.ID, date(2024, time.January, 9))
		if err != nil {
			t.Fatalf("Second OpenCycle failed: %v", err)
		}
		if cycle.CycleNumber != 2 {
			t.Errorf("Expected cycle number 2, got %d", cycle.CycleNumber)
		}
	})

	t.Run("rejects group with no members", func(t *testing.T) {
		f := newFixture(t)
		owner := mustUser(t, f.store, "Ada", "ada@example.com")
		group := mustGroup(t, f.store, owner, 10)

		_, err := f.cycles.OpenCycle(ctx, group.ID, date(2024, time.January, 1))
		if !apperror.IsValidation(err) {
			t.Errorf("Expected ValidationError, got %v", err)
		}
	})

	t.Run("unknown group is not found", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.cycles.OpenCycle(ctx, "missing", date(2024, time.January, 1))
		if !apperror.IsNotFound(err) {
			t.Errorf("Expected NotFoundError, got %v", err)
		}
	})
}

func TestMembershipChangesDuringOpenCycle(t *testing.T) {
	ctx := context.Background()

	setup := func(t *testing.T) (*fixture, *models.Group, *models.Cycle) {
		f := newFixture(t)
		owner := mustUser(t, f.store, "Ada", "ada@example.com")
		group := mustGroup(t, f.store, owner, 10)
		mustMember(t, f.store, group, owner)
		mustMember(t, f.store, group, mustUser(t, f.store, "Bisi", "bisi@example.com"))
		mustMember(t, f.store, group, mustUser(t, f.store, "Chidi", "chidi@example.com"))

		f.cycles.now = func() time.Time { return date(2024, time.January, 2) }
		cycle, err := f.cycles.OpenCycle(ctx, group.ID, date(2024, time.January, 1))
		if err != nil {
			t.Fatalf("OpenCycle failed: %v", err)
		}
		return f, group, cycle
	}

	t.Run("joining extends end date and appends payout slot", func(t *testing.T) {
		f, group, cycle := setup(t)
		dayo := mustUser(t, f.store, "Dayo", "dayo@example.com")

		if _, err := f.memberships.AddMember(ctx, group.ID, dayo.ID, false); err != nil {
			t.Fatalf("AddMember failed: %v", err)
		}

		updated, err := f.store.GetCycleByNumber(ctx, group.ID, cycle.CycleNumber)
		if err != nil {
			t.Fatalf("GetCycleByNumber failed: %v", err)
		}
		want := date(2024, time.January, 29)
		if updated.EndDate == nil || !updated.EndDate.Equal(want) {
			t.Errorf("Expected end date %v after join, got %v", want, updated.EndDate)
		}

		entries, err := f.store.ListPaymentEntries(ctx, group.ID, cycle.ID)
		if err != nil {
			t.Fatalf("ListPaymentEntries failed: %v", err)
		}
		last := entries[len(entries)-1]
		if last.UserID != dayo.ID || last.Order != 4 {
			t.Errorf("Expected new member at order 4, got user %s order %d", last.UserID, last.Order)
		}
		wantDate := entries[len(entries)-2].PaymentDate.AddDate(0, 1, 0)
		if !last.PaymentDate.Equal(wantDate) {
			t.Errorf("Expected payment date %v, got %v", wantDate, last.PaymentDate)
		}
	})

	t.Run("leaving shrinks end date and renumbers payout order", func(t *testing.T) {
		f, group, cycle := setup(t)

		entries, err := f.store.ListPaymentEntries(ctx, group.ID, cycle.ID)
		if err != nil {
			t.Fatalf("ListPaymentEntries failed: %v", err)
		}
		leaving := entries[1].UserID

		if err := f.memberships.RemoveMember(ctx, group.ID, leaving); err != nil {
			t.Fatalf("RemoveMember failed: %v", err)
		}

		updated, err := f.store.GetCycleByNumber(ctx, group.ID, cycle.CycleNumber)
		if err != nil {
			t.Fatalf("GetCycleByNumber failed: %v", err)
		}
		want := date(2024, time.January, 15)
		if updated.EndDate == nil || !updated.EndDate.Equal(want) {
			t.Errorf("Expected end date %v after departure, got %v", want, updated.EndDate)
		}

		remaining, err := f.store.ListPaymentEntries(ctx, group.ID, cycle.ID)
		if err != nil {
			t.Fatalf("ListPaymentEntries failed: %v", err)
		}
		if len(remaining) != 2 {
			t.Fatalf("Expected 2 entries after removal, got %d", len(remaining))
		}
		for i, e := range remaining {
			if e.Order != i+1 {
				t.Errorf("Entry %d: expected dense order %d, got %d", i, i+1, e.Order)
			}
			if e.UserID == leaving {
				t.Errorf("Departed member %s still in payout order", leaving)
			}
		}
	})

	t.Run("membership change without open cycle leaves no payout order", func(t *testing.T) {
		f := newFixture(t)
		owner := mustUser(t, f.store, "Ada", "ada@example.com")
		group := mustGroup(t, f.store, owner, 10)
		mustMember(t, f.store, group, owner)

		bisi := mustUser(t, f.store, "Bisi", "bisi@example.com")
		if _, err := f.memberships.AddMember(ctx, group.ID, bisi.ID, false); err != nil {
			t.Fatalf("AddMember failed: %v", err)
		}
	})
}
