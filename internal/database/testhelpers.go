package database

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"

	"github.com/jasselhoff/festival-planner/internal/domain"
)

// CreateTestUser is a helper that creates a user with default values for testing.
// Returns the created user.
func CreateTestUser(t *testing.T, pool *pgxpool.Pool) *domain.User {
	t.Helper()

	repo := NewUserRepo(pool)
	ctx := context.Background()

	userID := uuid.New()
	short := userID.String()[:8]
	user, err := repo.Upsert(ctx, userID, "testuser_"+short, short+"@example.com")
	require.NoError(t, err)
	require.Equal(t, userID, user.ID)

	return user
}

// CreateTestEvent creates an event for testing.
func CreateTestEvent(t *testing.T, pool *pgxpool.Pool, name string) *domain.Event {
	t.Helper()

	repo := NewEventRepo(pool)
	event, err := repo.Create(context.Background(), name, "Test Grounds")
	require.NoError(t, err)
	require.NotEqual(t, uuid.Nil, event.ID)

	return event
}

// CreateTestDay adds a day to an event for testing.
func CreateTestDay(t *testing.T, pool *pgxpool.Pool, eventID uuid.UUID, label string) *domain.Day {
	t.Helper()

	repo := NewEventRepo(pool)
	date := time.Date(2026, time.July, 17, 0, 0, 0, 0, time.UTC)
	day, err := repo.AddDay(context.Background(), eventID, label, date)
	require.NoError(t, err)

	return day
}

// CreateTestStage adds a stage to an event for testing.
func CreateTestStage(t *testing.T, pool *pgxpool.Pool, eventID uuid.UUID, name string) *domain.Stage {
	t.Helper()

	repo := NewEventRepo(pool)
	stage, err := repo.AddStage(context.Background(), eventID, name)
	require.NoError(t, err)

	return stage
}

// CreateTestAct adds an act with the given time window for testing.
func CreateTestAct(t *testing.T, pool *pgxpool.Pool, dayID, stageID uuid.UUID, name, startTime, endTime string) *domain.Act {
	t.Helper()

	repo := NewEventRepo(pool)
	act, err := repo.AddAct(context.Background(), dayID, stageID, name, startTime, endTime)
	require.NoError(t, err)

	return act
}

// CreateTestGroup creates a group whose owner is already a member.
func CreateTestGroup(t *testing.T, pool *pgxpool.Pool, eventID, ownerID uuid.UUID, name string) *domain.Group {
	t.Helper()

	repo := NewGroupRepo(pool)
	group, err := repo.Create(context.Background(), eventID, ownerID, name)
	require.NoError(t, err)

	return group
}
