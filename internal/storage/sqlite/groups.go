package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/esusuhq/esusu/internal/apperror"
	"github.com/esusuhq/esusu/internal/models"
)

// CreateGroup persists a new group to the database.
// ID, CreatedAt and the unique share token are generated when unset.
func (s *SQLiteStore) CreateGroup(ctx context.Context, group *models.Group) error {
	if group.ID == "" {
		group.ID = uuid.New().String()
	}
	if group.CreatedAt == 0 {
		group.CreatedAt = time.Now().Unix()
	}
	if group.Token == "" {
		token, err := newShareToken()
		if err != nil {
			return err
		}
		group.Token = token
	}

	var description any
	if group.Description != "" {
		description = group.Description
	}
	var owner any
	if group.OwnerID != "" {
		owner = group.OwnerID
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO groups (id, name, description, max_capacity, amount_to_save, currency, current_cycle_number, token, owner_id, is_searchable, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, NULL, ?, ?, ?, ?)`,
		group.ID, group.Name, description, group.MaxCapacity,
		group.AmountToSave.Amount.String(), group.AmountToSave.Currency,
		group.Token, owner, group.IsSearchable, group.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert group: %w", err)
	}

	return nil
}

// GetGroup retrieves a group by ID.
func (s *SQLiteStore) GetGroup(ctx context.Context, groupID string) (*models.Group, error) {
	return s.getGroup(ctx, "id", groupID)
}

// GetGroupByToken retrieves a group by its share token.
func (s *SQLiteStore) GetGroupByToken(ctx context.Context, token string) (*models.Group, error) {
	return s.getGroup(ctx, "token", token)
}

func (s *SQLiteStore) getGroup(ctx context.Context, column, value string) (*models.Group, error) {
	group := &models.Group{}
	var (
		description  sql.NullString
		amount       string
		currency     string
		currentCycle sql.NullInt64
		owner        sql.NullString
	)

	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, description, max_capacity, amount_to_save, currency, current_cycle_number, token, owner_id, is_searchable, created_at
		 FROM groups WHERE `+column+` = ?`,
		value,
	).Scan(&group.ID, &group.Name, &description, &group.MaxCapacity, &amount, &currency,
		&currentCycle, &group.Token, &owner, &group.IsSearchable, &group.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.NotFound("group not found: %s", value)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get group: %w", err)
	}

	money, err := models.NewMoney(amount, currency)
	if err != nil {
		return nil, fmt.Errorf("failed to read group amount: %w", err)
	}
	group.AmountToSave = money

	if description.Valid {
		group.Description = description.String
	}
	if owner.Valid {
		group.OwnerID = owner.String
	}
	if currentCycle.Valid {
		n := int(currentCycle.Int64)
		group.CurrentCycleNumber = &n
	}

	return group, nil
}

// CreateMembership persists a new membership.
func (s *SQLiteStore) CreateMembership(ctx context.Context, membership *models.Membership) error {
	prepareMembership(membership)

	_, err := s.db.ExecContext(ctx,
		"INSERT INTO memberships (id, user_id, group_id, is_admin, created_at) VALUES (?, ?, ?, ?, ?)",
		membership.ID, membership.UserID, membership.GroupID, membership.IsAdmin, membership.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert membership: %w", err)
	}

	return nil
}

// CreateMembershipsBulk persists all memberships in a single transaction.
func (s *SQLiteStore) CreateMembershipsBulk(ctx context.Context, memberships []*models.Membership) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, membership := range memberships {
		prepareMembership(membership)

		_, err := tx.ExecContext(ctx,
			"INSERT INTO memberships (id, user_id, group_id, is_admin, created_at) VALUES (?, ?, ?, ?, ?)",
			membership.ID, membership.UserID, membership.GroupID, membership.IsAdmin, membership.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to insert membership for user %s: %w", membership.UserID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

func prepareMembership(m *models.Membership) {
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	if m.CreatedAt == 0 {
		m.CreatedAt = time.Now().Unix()
	}
}

// GetMembership retrieves the membership for a (user, group) pair.
func (s *SQLiteStore) GetMembership(ctx context.Context, userID, groupID string) (*models.Membership, error) {
	membership := &models.Membership{}
	err := s.db.QueryRowContext(ctx,
		"SELECT id, user_id, group_id, is_admin, created_at FROM memberships WHERE user_id = ? AND group_id = ?",
		userID, groupID,
	).Scan(&membership.ID, &membership.UserID, &membership.GroupID, &membership.IsAdmin, &membership.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.NotFound("membership not found: user %s in group %s", userID, groupID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get membership: %w", err)
	}

	return membership, nil
}

// DeleteMembership removes the membership for a (user, group) pair.
func (s *SQLiteStore) DeleteMembership(ctx context.Context, userID, groupID string) error {
	res, err := s.db.ExecContext(ctx,
		"DELETE FROM memberships WHERE user_id = ? AND group_id = ?",
		userID, groupID,
	)
	if err != nil {
		return fmt.Errorf("failed to delete membership: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check deleted membership: %w", err)
	}
	if affected == 0 {
		return apperror.NotFound("membership not found: user %s in group %s", userID, groupID)
	}

	return nil
}

// ListMemberships returns a group's memberships in creation order, the
// stable append order for the payout list.
func (s *SQLiteStore) ListMemberships(ctx context.Context, groupID string) ([]*models.Membership, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, user_id, group_id, is_admin, created_at FROM memberships WHERE group_id = ? ORDER BY created_at, id",
		groupID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list memberships: %w", err)
	}
	defer rows.Close()

	var memberships []*models.Membership
	for rows.Next() {
		m := &models.Membership{}
		if err := rows.Scan(&m.ID, &m.UserID, &m.GroupID, &m.IsAdmin, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan membership: %w", err)
		}
		memberships = append(memberships, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate memberships: %w", err)
	}

	return memberships, nil
}

// CountMemberships returns how many members a group has.
func (s *SQLiteStore) CountMemberships(ctx context.Context, groupID string) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM memberships WHERE group_id = ?",
		groupID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count memberships: %w", err)
	}

	return count, nil
}
