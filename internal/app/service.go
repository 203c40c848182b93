package app

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"golang.org/x/sync/singleflight"

	"github.com/jasselhoff/festival-planner/internal/domain"
)

// Service is the application layer — the only component that references
// multiple domain components. It orchestrates all use cases.
type Service struct {
	users      domain.UserRepository
	events     domain.EventRepository
	groups     domain.GroupRepository
	selections domain.SelectionRepository
	invites    domain.InviteStore
	rooms      domain.SelectionBroadcaster
	presence   domain.PresenceSource
	playlists  domain.PlaylistCreator
	clock      clockwork.Clock
	inviteTTL  time.Duration
	buildGroup singleflight.Group
}

var _ domain.AppService = (*Service)(nil)

// NewService creates the application layer service.
// playlists may be nil if no external music provider is configured.
func NewService(
	users domain.UserRepository,
	events domain.EventRepository,
	groups domain.GroupRepository,
	selections domain.SelectionRepository,
	invites domain.InviteStore,
	rooms domain.SelectionBroadcaster,
	presence domain.PresenceSource,
	playlists domain.PlaylistCreator,
	clock clockwork.Clock,
	inviteTTL time.Duration,
) *Service {
	return &Service{
		users:      users,
		events:     events,
		groups:     groups,
		selections: selections,
		invites:    invites,
		rooms:      rooms,
		presence:   presence,
		playlists:  playlists,
		clock:      clock,
		inviteTTL:  inviteTTL,
	}
}

// ensureUser persists the caller's identity. Users are provisioned lazily on
// their first write so a row exists before any foreign key references it.
func (s *Service) ensureUser(ctx context.Context, caller domain.Identity) error {
	_, err := s.users.Upsert(ctx, caller.UserID, caller.DisplayName, caller.Email)
	return err
}

// memberGroup loads the group and verifies the caller belongs to it.
func (s *Service) memberGroup(ctx context.Context, callerID, groupID uuid.UUID) (*domain.Group, error) {
	group, err := s.groups.GetByID(ctx, groupID)
	if err != nil {
		return nil, err
	}

	ok, err := s.groups.IsMember(ctx, groupID, callerID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, domain.ErrNotGroupMember
	}

	return group, nil
}

// CreateEvent registers a new festival event.
func (s *Service) CreateEvent(ctx context.Context, name, venue string) (*domain.Event, error) {
	event, err := s.events.Create(ctx, name, venue)
	if err != nil {
		return nil, err
	}

	slog.Info("Event created", "event_id", event.ID.String(), "name", event.Name)
	return event, nil
}

// GetEvent retrieves a single event by ID.
func (s *Service) GetEvent(ctx context.Context, eventID uuid.UUID) (*domain.Event, error) {
	return s.events.GetByID(ctx, eventID)
}

// ListEvents returns all events, newest first.
func (s *Service) ListEvents(ctx context.Context) ([]domain.Event, error) {
	return s.events.List(ctx)
}

// AddDay appends a festival day to an event.
func (s *Service) AddDay(ctx context.Context, eventID uuid.UUID, label string, date time.Time) (*domain.Day, error) {
	if _, err := s.events.GetByID(ctx, eventID); err != nil {
		return nil, err
	}
	return s.events.AddDay(ctx, eventID, label, date)
}

// AddStage appends a stage to an event.
func (s *Service) AddStage(ctx context.Context, eventID uuid.UUID, name string) (*domain.Stage, error) {
	if _, err := s.events.GetByID(ctx, eventID); err != nil {
		return nil, err
	}
	return s.events.AddStage(ctx, eventID, name)
}

// AddAct places an act on a stage for a day. The day and stage must both
// belong to the given event.
func (s *Service) AddAct(ctx context.Context, eventID, dayID, stageID uuid.UUID, name, startTime, endTime string) (*domain.Act, error) {
	day, err := s.events.GetDay(ctx, dayID)
	if err != nil {
		return nil, err
	}

	stage, err := s.events.GetStage(ctx, stageID)
	if err != nil {
		return nil, err
	}

	if day.EventID != eventID || stage.EventID != eventID {
		return nil, domain.ErrLineupMismatch
	}

	return s.events.AddAct(ctx, dayID, stageID, name, startTime, endTime)
}

// GetLineup returns the event with all of its days, stages and acts.
func (s *Service) GetLineup(ctx context.Context, eventID uuid.UUID) (*domain.Lineup, error) {
	return s.events.GetLineup(ctx, eventID)
}
