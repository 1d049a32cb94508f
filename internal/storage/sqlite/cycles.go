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

const cycleColumns = "id, group_id, cycle_number, start_date, end_date, next_saving_date"

// CreateCycle persists a new cycle. Assigning cycle_number = previous max + 1
// and setting the group's current_cycle_number happen in the same transaction
// so the open-cycle transition is atomic.
func (s *SQLiteStore) CreateCycle(ctx context.Context, cycle *models.Cycle) error {
	if cycle.ID == "" {
		cycle.ID = uuid.New().String()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var maxNumber int
	err = tx.QueryRowContext(ctx,
		"SELECT COALESCE(MAX(cycle_number), 0) FROM cycles WHERE group_id = ?",
		cycle.GroupID,
	).Scan(&maxNumber)
	if err != nil {
		return fmt.Errorf("failed to read latest cycle number: %w", err)
	}
	cycle.CycleNumber = maxNumber + 1

	_, err = tx.ExecContext(ctx,
		`INSERT INTO cycles (id, group_id, cycle_number, start_date, end_date, next_saving_date)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		cycle.ID, cycle.GroupID, cycle.CycleNumber,
		formatDate(cycle.StartDate), formatDatePtr(cycle.EndDate), formatDatePtr(cycle.NextSavingDate),
	)
	if err != nil {
		return fmt.Errorf("failed to insert cycle: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		"UPDATE groups SET current_cycle_number = ? WHERE id = ?",
		cycle.CycleNumber, cycle.GroupID,
	)
	if err != nil {
		return fmt.Errorf("failed to update group current cycle: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// LatestCycle returns the group's highest-numbered cycle.
func (s *SQLiteStore) LatestCycle(ctx context.Context, groupID string) (*models.Cycle, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+cycleColumns+" FROM cycles WHERE group_id = ? ORDER BY cycle_number DESC LIMIT 1",
		groupID,
	)
	cycle, err := scanCycle(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.NotFound("no cycles for group %s", groupID)
	}
	return cycle, err
}

// GetCycleByNumber retrieves a cycle by (group, cycle_number).
func (s *SQLiteStore) GetCycleByNumber(ctx context.Context, groupID string, cycleNumber int) (*models.Cycle, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+cycleColumns+" FROM cycles WHERE group_id = ? AND cycle_number = ?",
		groupID, cycleNumber,
	)
	cycle, err := scanCycle(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.NotFound("cycle %d not found for group %s", cycleNumber, groupID)
	}
	return cycle, err
}

// SetCycleEndDate updates a cycle's derived end date.
func (s *SQLiteStore) SetCycleEndDate(ctx context.Context, cycleID string, endDate *time.Time) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE cycles SET end_date = ? WHERE id = ?",
		formatDatePtr(endDate), cycleID,
	)
	if err != nil {
		return fmt.Errorf("failed to update cycle end date: %w", err)
	}
	return requireCycleUpdated(res, cycleID)
}

// SetCycleNextSavingDate advances or clears a cycle's saving cadence.
func (s *SQLiteStore) SetCycleNextSavingDate(ctx context.Context, cycleID string, next *time.Time) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE cycles SET next_saving_date = ? WHERE id = ?",
		formatDatePtr(next), cycleID,
	)
	if err != nil {
		return fmt.Errorf("failed to update cycle next saving date: %w", err)
	}
	return requireCycleUpdated(res, cycleID)
}

func requireCycleUpdated(res sql.Result, cycleID string) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check cycle update: %w", err)
	}
	if affected == 0 {
		return apperror.NotFound("cycle not found: %s", cycleID)
	}
	return nil
}

// CyclesDueForSaving returns every cycle whose next_saving_date equals date.
func (s *SQLiteStore) CyclesDueForSaving(ctx context.Context, date time.Time) ([]*models.Cycle, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+cycleColumns+" FROM cycles WHERE next_saving_date = ?",
		formatDate(date),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query due cycles: %w", err)
	}
	defer rows.Close()

	var cycles []*models.Cycle
	for rows.Next() {
		cycle, err := scanCycle(rows)
		if err != nil {
			return nil, err
		}
		cycles = append(cycles, cycle)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate due cycles: %w", err)
	}

	return cycles, nil
}

// scanner covers both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanCycle(row scanner) (*models.Cycle, error) {
	cycle := &models.Cycle{}
	var (
		start      string
		end        sql.NullString
		nextSaving sql.NullString
	)

	if err := row.Scan(&cycle.ID, &cycle.GroupID, &cycle.CycleNumber, &start, &end, &nextSaving); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan cycle: %w", err)
	}

	startDate, err := parseDate(start)
	if err != nil {
		return nil, err
	}
	cycle.StartDate = startDate

	if cycle.EndDate, err = parseDatePtr(end); err != nil {
		return nil, err
	}
	if cycle.NextSavingDate, err = parseDatePtr(nextSaving); err != nil {
		return nil, err
	}

	return cycle, nil
}
