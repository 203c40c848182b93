package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jasselhoff/festival-planner/internal/domain"
)

// Column lists must match the Scan order of their scan helpers.
const (
	eventColumns = `id, name, venue, created_at`
	dayColumns   = `id, event_id, label, date`
	stageColumns = `id, event_id, name`
	actColumns   = `id, day_id, stage_id, name, start_time, end_time`
)

// EventRepo implements domain.EventRepository backed by PostgreSQL.
type EventRepo struct {
	pool *pgxpool.Pool
}

func NewEventRepo(pool *pgxpool.Pool) *EventRepo {
	return &EventRepo{pool: pool}
}

func scanEvent(row pgx.Row) (*domain.Event, error) {
	var event domain.Event
	if err := row.Scan(&event.ID, &event.Name, &event.Venue, &event.CreatedAt); err != nil {
		return nil, err
	}
	return &event, nil
}

func scanDay(row pgx.Row) (*domain.Day, error) {
	var day domain.Day
	if err := row.Scan(&day.ID, &day.EventID, &day.Label, &day.Date); err != nil {
		return nil, err
	}
	return &day, nil
}

func scanStage(row pgx.Row) (*domain.Stage, error) {
	var stage domain.Stage
	if err := row.Scan(&stage.ID, &stage.EventID, &stage.Name); err != nil {
		return nil, err
	}
	return &stage, nil
}

func scanAct(row pgx.Row) (*domain.Act, error) {
	var act domain.Act
	if err := row.Scan(&act.ID, &act.DayID, &act.StageID, &act.Name, &act.StartTime, &act.EndTime); err != nil {
		return nil, err
	}
	return &act, nil
}

func (r *EventRepo) Create(ctx context.Context, name, venue string) (*domain.Event, error) {
	event, err := scanEvent(r.pool.QueryRow(ctx,
		`INSERT INTO events (name, venue) VALUES ($1, $2) RETURNING `+eventColumns,
		name, venue))
	if err != nil {
		return nil, fmt.Errorf("failed to create event: %w", err)
	}
	return event, nil
}

func (r *EventRepo) GetByID(ctx context.Context, eventID uuid.UUID) (*domain.Event, error) {
	event, err := scanEvent(r.pool.QueryRow(ctx,
		`SELECT `+eventColumns+` FROM events WHERE id = $1`, eventID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrEventNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get event: %w", err)
	}
	return event, nil
}

func (r *EventRepo) List(ctx context.Context) ([]domain.Event, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+eventColumns+` FROM events ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}
	defer rows.Close()

	var events []domain.Event
	for rows.Next() {
		var event domain.Event
		if err := rows.Scan(&event.ID, &event.Name, &event.Venue, &event.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}
	return events, nil
}

func (r *EventRepo) AddDay(ctx context.Context, eventID uuid.UUID, label string, date time.Time) (*domain.Day, error) {
	day, err := scanDay(r.pool.QueryRow(ctx,
		`INSERT INTO days (event_id, label, date) VALUES ($1, $2, $3) RETURNING `+dayColumns,
		eventID, label, date))
	if err != nil {
		return nil, fmt.Errorf("failed to add day: %w", err)
	}
	return day, nil
}

func (r *EventRepo) AddStage(ctx context.Context, eventID uuid.UUID, name string) (*domain.Stage, error) {
	stage, err := scanStage(r.pool.QueryRow(ctx,
		`INSERT INTO stages (event_id, name) VALUES ($1, $2) RETURNING `+stageColumns,
		eventID, name))
	if err != nil {
		return nil, fmt.Errorf("failed to add stage: %w", err)
	}
	return stage, nil
}

func (r *EventRepo) AddAct(ctx context.Context, dayID, stageID uuid.UUID, name, startTime, endTime string) (*domain.Act, error) {
	act, err := scanAct(r.pool.QueryRow(ctx,
		`INSERT INTO acts (day_id, stage_id, name, start_time, end_time)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING `+actColumns,
		dayID, stageID, name, startTime, endTime))
	if err != nil {
		return nil, fmt.Errorf("failed to add act: %w", err)
	}
	return act, nil
}

func (r *EventRepo) GetDay(ctx context.Context, dayID uuid.UUID) (*domain.Day, error) {
	day, err := scanDay(r.pool.QueryRow(ctx,
		`SELECT `+dayColumns+` FROM days WHERE id = $1`, dayID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrDayNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get day: %w", err)
	}
	return day, nil
}

func (r *EventRepo) GetStage(ctx context.Context, stageID uuid.UUID) (*domain.Stage, error) {
	stage, err := scanStage(r.pool.QueryRow(ctx,
		`SELECT `+stageColumns+` FROM stages WHERE id = $1`, stageID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrStageNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get stage: %w", err)
	}
	return stage, nil
}

func (r *EventRepo) GetAct(ctx context.Context, actID uuid.UUID) (*domain.Act, error) {
	act, err := scanAct(r.pool.QueryRow(ctx,
		`SELECT `+actColumns+` FROM acts WHERE id = $1`, actID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrActNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get act: %w", err)
	}
	return act, nil
}

// GetLineup fetches the event together with all its days, stages and acts.
// Slices are initialized so an empty lineup serializes as [] rather than null.
func (r *EventRepo) GetLineup(ctx context.Context, eventID uuid.UUID) (*domain.Lineup, error) {
	event, err := r.GetByID(ctx, eventID)
	if err != nil {
		return nil, err
	}

	lineup := &domain.Lineup{
		Event:  *event,
		Days:   []domain.Day{},
		Stages: []domain.Stage{},
		Acts:   []domain.Act{},
	}

	dayRows, err := r.pool.Query(ctx,
		`SELECT `+dayColumns+` FROM days WHERE event_id = $1 ORDER BY date, label`, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to list days: %w", err)
	}
	defer dayRows.Close()
	for dayRows.Next() {
		var day domain.Day
		if err := dayRows.Scan(&day.ID, &day.EventID, &day.Label, &day.Date); err != nil {
			return nil, fmt.Errorf("failed to scan day: %w", err)
		}
		lineup.Days = append(lineup.Days, day)
	}
	if err := dayRows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list days: %w", err)
	}

	stageRows, err := r.pool.Query(ctx,
		`SELECT `+stageColumns+` FROM stages WHERE event_id = $1 ORDER BY name`, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to list stages: %w", err)
	}
	defer stageRows.Close()
	for stageRows.Next() {
		var stage domain.Stage
		if err := stageRows.Scan(&stage.ID, &stage.EventID, &stage.Name); err != nil {
			return nil, fmt.Errorf("failed to scan stage: %w", err)
		}
		lineup.Stages = append(lineup.Stages, stage)
	}
	if err := stageRows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list stages: %w", err)
	}

	actRows, err := r.pool.Query(ctx,
		`SELECT a.id, a.day_id, a.stage_id, a.name, a.start_time, a.end_time
		FROM acts a
		JOIN days d ON d.id = a.day_id
		WHERE d.event_id = $1
		ORDER BY a.start_time, a.name`, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to list acts: %w", err)
	}
	defer actRows.Close()
	for actRows.Next() {
		var act domain.Act
		if err := actRows.Scan(&act.ID, &act.DayID, &act.StageID, &act.Name, &act.StartTime, &act.EndTime); err != nil {
			return nil, fmt.Errorf("failed to scan act: %w", err)
		}
		lineup.Acts = append(lineup.Acts, act)
	}
	if err := actRows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list acts: %w", err)
	}

	return lineup, nil
}
