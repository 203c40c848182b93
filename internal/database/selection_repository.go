package database

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jasselhoff/festival-planner/internal/domain"
)

// selectionColumns must match the Scan order in scanSelection.
const selectionColumns = `user_id, group_id, act_id, priority, created_at`

// SelectionRepo implements domain.SelectionRepository backed by PostgreSQL.
type SelectionRepo struct {
	pool *pgxpool.Pool
}

func NewSelectionRepo(pool *pgxpool.Pool) *SelectionRepo {
	return &SelectionRepo{pool: pool}
}

func scanSelection(row pgx.Row) (*domain.Selection, error) {
	var sel domain.Selection
	if err := row.Scan(&sel.UserID, &sel.GroupID, &sel.ActID, &sel.Priority, &sel.CreatedAt); err != nil {
		return nil, err
	}
	return &sel, nil
}

// Upsert only replaces priority on conflict, keeping the original created_at
// so a group's selection order stays stable across priority changes.
func (r *SelectionRepo) Upsert(ctx context.Context, userID, groupID, actID uuid.UUID, priority int) (*domain.Selection, error) {
	sel, err := scanSelection(r.pool.QueryRow(ctx,
		`INSERT INTO selections (user_id, group_id, act_id, priority)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id, group_id, act_id) DO UPDATE SET priority = EXCLUDED.priority
		RETURNING `+selectionColumns,
		userID, groupID, actID, priority))
	if err != nil {
		return nil, fmt.Errorf("failed to upsert selection: %w", err)
	}
	return sel, nil
}

func (r *SelectionRepo) Delete(ctx context.Context, userID, groupID, actID uuid.UUID) error {
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM selections WHERE user_id = $1 AND group_id = $2 AND act_id = $3`,
		userID, groupID, actID)
	if err != nil {
		return fmt.Errorf("failed to delete selection: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrSelectionNotFound
	}
	return nil
}

func (r *SelectionRepo) ListByGroup(ctx context.Context, groupID uuid.UUID) ([]domain.Selection, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+selectionColumns+` FROM selections WHERE group_id = $1 ORDER BY created_at, act_id`,
		groupID)
	if err != nil {
		return nil, fmt.Errorf("failed to list selections: %w", err)
	}
	defer rows.Close()

	var selections []domain.Selection
	for rows.Next() {
		var sel domain.Selection
		if err := rows.Scan(&sel.UserID, &sel.GroupID, &sel.ActID, &sel.Priority, &sel.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan selection: %w", err)
		}
		selections = append(selections, sel)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list selections: %w", err)
	}
	return selections, nil
}

// ListEntries returns the selections x acts join the conflict detector
// consumes, in selection insertion order.
func (r *SelectionRepo) ListEntries(ctx context.Context, groupID uuid.UUID) ([]domain.SelectionEntry, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT s.user_id, a.day_id, s.act_id, a.stage_id, a.name, a.start_time, a.end_time
		FROM selections s
		JOIN acts a ON a.id = s.act_id
		WHERE s.group_id = $1
		ORDER BY s.created_at, s.act_id`, groupID)
	if err != nil {
		return nil, fmt.Errorf("failed to list selection entries: %w", err)
	}
	defer rows.Close()

	var entries []domain.SelectionEntry
	for rows.Next() {
		var e domain.SelectionEntry
		if err := rows.Scan(&e.UserID, &e.DayID, &e.ActID, &e.StageID, &e.ActName, &e.StartTime, &e.EndTime); err != nil {
			return nil, fmt.Errorf("failed to scan selection entry: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list selection entries: %w", err)
	}
	return entries, nil
}
