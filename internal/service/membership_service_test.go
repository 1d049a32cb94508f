package service

import (
	"context"
	"strings"
	"testing"

	"github.com/esusuhq/esusu/internal/apperror"
)

func TestAddMember(t *testing.T) {
	ctx := context.Background()

	t.Run("duplicate membership is a conflict", func(t *testing.T) {
		f := newFixture(t)
		owner := mustUser(t, f.store, "Ada", "ada@example.com")
		group := mustGroup(t, f.store, owner, 10)
		mustMember(t, f.store, group, owner)

		_, err := f.memberships.AddMember(ctx, group.ID, owner.ID, false)
		if !apperror.IsConflict(err) {
			t.Errorf("Expected ConflictError, got %v", err)
		}
	})

	t.Run("full group rejects new members", func(t *testing.T) {
		f := newFixture(t)
		owner := mustUser(t, f.store, "Ada", "ada@example.com")
		group := mustGroup(t, f.store, owner, 1)
		mustMember(t, f.store, group, owner)

		bisi := mustUser(t, f.store, "Bisi", "bisi@example.com")
		_, err := f.memberships.AddMember(ctx, group.ID, bisi.ID, false)
		if !apperror.IsValidation(err) {
			t.Errorf("Expected ValidationError, got %v", err)
		}
	})

	t.Run("joins by share token", func(t *testing.T) {
		f := newFixture(t)
		owner := mustUser(t, f.store, "Ada", "ada@example.com")
		group := mustGroup(t, f.store, owner, 10)
		bisi := mustUser(t, f.store, "Bisi", "bisi@example.com")

		m, err := f.memberships.AddMemberByToken(ctx, group.Token, bisi.ID)
		if err != nil {
			t.Fatalf("AddMemberByToken failed: %v", err)
		}
		if m.GroupID != group.ID {
			t.Errorf("Expected membership in group %s, got %s", group.ID, m.GroupID)
		}
	})

	t.Run("unknown token is not found", func(t *testing.T) {
		f := newFixture(t)
		bisi := mustUser(t, f.store, "Bisi", "bisi@example.com")

		_, err := f.memberships.AddMemberByToken(ctx, "NOSUCHTOKEN", bisi.ID)
		if !apperror.IsNotFound(err) {
			t.Errorf("Expected NotFoundError, got %v", err)
		}
	})
}

func TestAddMembersBulk(t *testing.T) {
	ctx := context.Background()

	t.Run("adds all resolved members", func(t *testing.T) {
		f := newFixture(t)
		owner := mustUser(t, f.store, "Ada", "ada@example.com")
		group := mustGroup(t, f.store, owner, 10)
		mustUser(t, f.store, "Bisi", "bisi@example.com")
		mustUser(t, f.store, "Chidi", "chidi@example.com")

		members, err := f.memberships.AddMembersBulk(ctx, group.ID, []string{"bisi@example.com", "chidi@example.com"})
		if err != nil {
			t.Fatalf("AddMembersBulk failed: %v", err)
		}
		if len(members) != 2 {
			t.Fatalf("Expected 2 memberships, got %d", len(members))
		}

		count, err := f.store.CountMemberships(ctx, group.ID)
		if err != nil {
			t.Fatalf("CountMemberships failed: %v", err)
		}
		if count != 2 {
			t.Errorf("Expected 2 members, got %d", count)
		}
	})

	t.Run("unknown email aborts the whole batch", func(t *testing.T) {
		f := newFixture(t)
		owner := mustUser(t, f.store, "Ada", "ada@example.com")
		group := mustGroup(t, f.store, owner, 10)
		mustUser(t, f.store, "Bisi", "bisi@example.com")

		_, err := f.memberships.AddMembersBulk(ctx, group.ID, []string{"bisi@example.com", "ghost@example.com"})
		if !apperror.IsNotFound(err) {
			t.Fatalf("Expected NotFoundError, got %v", err)
		}
		if !strings.Contains(err.Error(), "ghost@example.com") {
			t.Errorf("Expected error to name the unknown email, got %q", err.Error())
		}

		count, err := f.store.CountMemberships(ctx, group.ID)
		if err != nil {
			t.Fatalf("CountMemberships failed: %v", err)
		}
		if count != 0 {
			t.Errorf("Expected no members after aborted batch, got %d", count)
		}
	})

	t.Run("batch past capacity is rejected", func(t *testing.T) {
		f := newFixture(t)
		owner := mustUser(t, f.store, "Ada", "ada@example.com")
		group := mustGroup(t, f.store, owner, 2)
		mustMember(t, f.store, group, owner)
		mustUser(t, f.store, "Bisi", "bisi@example.com")
		mustUser(t, f.store, "Chidi", "chidi@example.com")

		_, err := f.memberships.AddMembersBulk(ctx, group.ID, []string{"bisi@example.com", "chidi@example.com"})
		if !apperror.IsValidation(err) {
			t.Errorf("Expected ValidationError, got %v", err)
		}
	})
}

func TestRemoveMember(t *testing.T) {
	ctx := context.Background()

	t.Run("unknown membership is not found", func(t *testing.T) {
		f := newFixture(t)
		owner := mustUser(t, f.store, "Ada", "ada@example.com")
		group := mustGroup(t, f.store, owner, 10)

		err := f.memberships.RemoveMember(ctx, group.ID, owner.ID)
		if !apperror.IsNotFound(err) {
			t.Errorf("Expected NotFoundError, got %v", err)
		}
	})
}
