package app

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jasselhoff/festival-planner/internal/domain"
)

// --- Mock implementations ---

type mockUserRepo struct {
	mu          sync.Mutex
	upserted    []domain.Identity
	getByIDFn   func(ctx context.Context, userID uuid.UUID) (*domain.User, error)
	upsertErrFn func() error
}

func (m *mockUserRepo) GetByID(ctx context.Context, userID uuid.UUID) (*domain.User, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, userID)
	}
	return nil, fmt.Errorf("not implemented")
}

func (m *mockUserRepo) Upsert(ctx context.Context, userID uuid.UUID, displayName, email string) (*domain.User, error) {
	if m.upsertErrFn != nil {
		if err := m.upsertErrFn(); err != nil {
			return nil, err
		}
	}
	m.mu.Lock()
	m.upserted = append(m.upserted, domain.Identity{UserID: userID, DisplayName: displayName, Email: email})
	m.mu.Unlock()
	return &domain.User{ID: userID, DisplayName: displayName, Email: email}, nil
}

func (m *mockUserRepo) upsertCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.upserted)
}

type mockEventRepo struct {
	createFn    func(ctx context.Context, name, venue string) (*domain.Event, error)
	getByIDFn   func(ctx context.Context, eventID uuid.UUID) (*domain.Event, error)
	listFn      func(ctx context.Context) ([]domain.Event, error)
	addDayFn    func(ctx context.Context, eventID uuid.UUID, label string, date time.Time) (*domain.Day, error)
	addStageFn  func(ctx context.Context, eventID uuid.UUID, name string) (*domain.Stage, error)
	addActFn    func(ctx context.Context, dayID, stageID uuid.UUID, name, startTime, endTime string) (*domain.Act, error)
	getDayFn    func(ctx context.Context, dayID uuid.UUID) (*domain.Day, error)
	getStageFn  func(ctx context.Context, stageID uuid.UUID) (*domain.Stage, error)
	getActFn    func(ctx context.Context, actID uuid.UUID) (*domain.Act, error)
	getLineupFn func(ctx context.Context, eventID uuid.UUID) (*domain.Lineup, error)
}

func (m *mockEventRepo) Create(ctx context.Context, name, venue string) (*domain.Event, error) {
	if m.createFn != nil {
		return m.createFn(ctx, name, venue)
	}
	return nil, fmt.Errorf("not implemented")
}

func (m *mockEventRepo) GetByID(ctx context.Context, eventID uuid.UUID) (*domain.Event, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, eventID)
	}
	return &domain.Event{ID: eventID}, nil
}

func (m *mockEventRepo) List(ctx context.Context) ([]domain.Event, error) {
	if m.listFn != nil {
		return m.listFn(ctx)
	}
	return nil, fmt.Errorf("not implemented")
}

func (m *mockEventRepo) AddDay(ctx context.Context, eventID uuid.UUID, label string, date time.Time) (*domain.Day, error) {
	if m.addDayFn != nil {
		return m.addDayFn(ctx, eventID, label, date)
	}
	return nil, fmt.Errorf("not implemented")
}

func (m *mockEventRepo) AddStage(ctx context.Context, eventID uuid.UUID, name string) (*domain.Stage, error) {
	if m.addStageFn != nil {
		return m.addStageFn(ctx, eventID, name)
	}
	return nil, fmt.Errorf("not implemented")
}

func (m *mockEventRepo) AddAct(ctx context.Context, dayID, stageID uuid.UUID, name, startTime, endTime string) (*domain.Act, error) {
	if m.addActFn != nil {
		return m.addActFn(ctx, dayID, stageID, name, startTime, endTime)
	}
	return nil, fmt.Errorf("not implemented")
}

func (m *mockEventRepo) GetDay(ctx context.Context, dayID uuid.UUID) (*domain.Day, error) {
	if m.getDayFn != nil {
		return m.getDayFn(ctx, dayID)
	}
	return nil, fmt.Errorf("not implemented")
}

func (m *mockEventRepo) GetStage(ctx context.Context, stageID uuid.UUID) (*domain.Stage, error) {
	if m.getStageFn != nil {
		return m.getStageFn(ctx, stageID)
	}
	return nil, fmt.Errorf("not implemented")
}

func (m *mockEventRepo) GetAct(ctx context.Context, actID uuid.UUID) (*domain.Act, error) {
	if m.getActFn != nil {
		return m.getActFn(ctx, actID)
	}
	return nil, fmt.Errorf("not implemented")
}

func (m *mockEventRepo) GetLineup(ctx context.Context, eventID uuid.UUID) (*domain.Lineup, error) {
	if m.getLineupFn != nil {
		return m.getLineupFn(ctx, eventID)
	}
	return nil, fmt.Errorf("not implemented")
}

type mockGroupRepo struct {
	createFn      func(ctx context.Context, eventID, ownerID uuid.UUID, name string) (*domain.Group, error)
	getByIDFn     func(ctx context.Context, groupID uuid.UUID) (*domain.Group, error)
	listByUserFn  func(ctx context.Context, userID uuid.UUID) ([]domain.Group, error)
	addMemberFn   func(ctx context.Context, groupID, userID uuid.UUID) error
	isMemberFn    func(ctx context.Context, groupID, userID uuid.UUID) (bool, error)
	listMembersFn func(ctx context.Context, groupID uuid.UUID) ([]domain.Member, error)
}

func (m *mockGroupRepo) Create(ctx context.Context, eventID, ownerID uuid.UUID, name string) (*domain.Group, error) {
	if m.createFn != nil {
		return m.createFn(ctx, eventID, ownerID, name)
	}
	return nil, fmt.Errorf("not implemented")
}

func (m *mockGroupRepo) GetByID(ctx context.Context, groupID uuid.UUID) (*domain.Group, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, groupID)
	}
	return &domain.Group{ID: groupID}, nil
}

func (m *mockGroupRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]domain.Group, error) {
	if m.listByUserFn != nil {
		return m.listByUserFn(ctx, userID)
	}
	return nil, fmt.Errorf("not implemented")
}

func (m *mockGroupRepo) AddMember(ctx context.Context, groupID, userID uuid.UUID) error {
	if m.addMemberFn != nil {
		return m.addMemberFn(ctx, groupID, userID)
	}
	return nil
}

func (m *mockGroupRepo) IsMember(ctx context.Context, groupID, userID uuid.UUID) (bool, error) {
	if m.isMemberFn != nil {
		return m.isMemberFn(ctx, groupID, userID)
	}
	return true, nil
}

func (m *mockGroupRepo) ListMembers(ctx context.Context, groupID uuid.UUID) ([]domain.Member, error) {
	if m.listMembersFn != nil {
		return m.listMembersFn(ctx, groupID)
	}
	return nil, fmt.Errorf("not implemented")
}

type mockSelectionRepo struct {
	upsertFn      func(ctx context.Context, userID, groupID, actID uuid.UUID, priority int) (*domain.Selection, error)
	deleteFn      func(ctx context.Context, userID, groupID, actID uuid.UUID) error
	listByGroupFn func(ctx context.Context, groupID uuid.UUID) ([]domain.Selection, error)
	listEntriesFn func(ctx context.Context, groupID uuid.UUID) ([]domain.SelectionEntry, error)
}

func (m *mockSelectionRepo) Upsert(ctx context.Context, userID, groupID, actID uuid.UUID, priority int) (*domain.Selection, error) {
	if m.upsertFn != nil {
		return m.upsertFn(ctx, userID, groupID, actID, priority)
	}
	return nil, fmt.Errorf("not implemented")
}

func (m *mockSelectionRepo) Delete(ctx context.Context, userID, groupID, actID uuid.UUID) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, userID, groupID, actID)
	}
	return nil
}

func (m *mockSelectionRepo) ListByGroup(ctx context.Context, groupID uuid.UUID) ([]domain.Selection, error) {
	if m.listByGroupFn != nil {
		return m.listByGroupFn(ctx, groupID)
	}
	return nil, fmt.Errorf("not implemented")
}

func (m *mockSelectionRepo) ListEntries(ctx context.Context, groupID uuid.UUID) ([]domain.SelectionEntry, error) {
	if m.listEntriesFn != nil {
		return m.listEntriesFn(ctx, groupID)
	}
	return nil, fmt.Errorf("not implemented")
}

// mockInviteStore keeps invites in a map, ignoring TTL.
type mockInviteStore struct {
	mu      sync.Mutex
	invites map[string]domain.Invite
	lastTTL time.Duration
	putErr  error
}

func newMockInviteStore() *mockInviteStore {
	return &mockInviteStore{invites: make(map[string]domain.Invite)}
}

func (m *mockInviteStore) Put(ctx context.Context, invite domain.Invite, ttl time.Duration) error {
	if m.putErr != nil {
		return m.putErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.invites[invite.Code] = invite
	m.lastTTL = ttl
	return nil
}

func (m *mockInviteStore) Get(ctx context.Context, code string) (*domain.Invite, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	invite, ok := m.invites[code]
	if !ok {
		return nil, domain.ErrInviteNotFound
	}
	return &invite, nil
}

type broadcastCall struct {
	groupID uuid.UUID
	event   any
	exclude uuid.UUID
}

// recordingBroadcaster captures broadcast calls for assertions.
type recordingBroadcaster struct {
	mu    sync.Mutex
	calls []broadcastCall
}

func (b *recordingBroadcaster) Broadcast(groupID uuid.UUID, event any, excludeUserID uuid.UUID) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.calls = append(b.calls, broadcastCall{groupID: groupID, event: event, exclude: excludeUserID})
}

func (b *recordingBroadcaster) recorded() []broadcastCall {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]broadcastCall(nil), b.calls...)
}

type mockPresence struct {
	presenceFn func(groupID uuid.UUID) []uuid.UUID
}

func (m *mockPresence) Presence(groupID uuid.UUID) []uuid.UUID {
	if m.presenceFn != nil {
		return m.presenceFn(groupID)
	}
	return nil
}

type mockPlaylistCreator struct {
	createFn func(ctx context.Context, name string, artists []string) (*domain.PlaylistRef, error)
}

func (m *mockPlaylistCreator) CreatePlaylist(ctx context.Context, name string, artists []string) (*domain.PlaylistRef, error) {
	if m.createFn != nil {
		return m.createFn(ctx, name, artists)
	}
	return nil, fmt.Errorf("not implemented")
}

// --- Test fixture ---

const testInviteTTL = 72 * time.Hour

type testDeps struct {
	users      *mockUserRepo
	events     *mockEventRepo
	groups     *mockGroupRepo
	selections *mockSelectionRepo
	invites    *mockInviteStore
	rooms      *recordingBroadcaster
	presence   *mockPresence
	playlists  domain.PlaylistCreator
	clock      *clockwork.FakeClock
}

func newTestDeps() *testDeps {
	return &testDeps{
		users:      &mockUserRepo{},
		events:     &mockEventRepo{},
		groups:     &mockGroupRepo{},
		selections: &mockSelectionRepo{},
		invites:    newMockInviteStore(),
		rooms:      &recordingBroadcaster{},
		presence:   &mockPresence{},
		clock:      clockwork.NewFakeClock(),
	}
}

func (d *testDeps) service() *Service {
	return NewService(d.users, d.events, d.groups, d.selections, d.invites, d.rooms, d.presence, d.playlists, d.clock, testInviteTTL)
}

func testCaller() domain.Identity {
	return domain.Identity{UserID: uuid.New(), DisplayName: "ada", Email: "ada@example.com"}
}

// --- Event operations ---

func TestCreateEvent_Delegates(t *testing.T) {
	deps := newTestDeps()
	want := &domain.Event{ID: uuid.New(), Name: "Roskilde 2026", Venue: "Roskilde"}
	deps.events.createFn = func(ctx context.Context, name, venue string) (*domain.Event, error) {
		assert.Equal(t, "Roskilde 2026", name)
		assert.Equal(t, "Roskilde", venue)
		return want, nil
	}

	got, err := deps.service().CreateEvent(context.Background(), "Roskilde 2026", "Roskilde")

	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestAddDay_EventNotFound(t *testing.T) {
	deps := newTestDeps()
	deps.events.getByIDFn = func(ctx context.Context, eventID uuid.UUID) (*domain.Event, error) {
		return nil, domain.ErrEventNotFound
	}

	day, err := deps.service().AddDay(context.Background(), uuid.New(), "Friday", time.Now())

	assert.ErrorIs(t, err, domain.ErrEventNotFound)
	assert.Nil(t, day)
}

func TestAddAct_Success(t *testing.T) {
	deps := newTestDeps()
	eventID := uuid.New()
	dayID := uuid.New()
	stageID := uuid.New()

	deps.events.getDayFn = func(ctx context.Context, id uuid.UUID) (*domain.Day, error) {
		return &domain.Day{ID: id, EventID: eventID}, nil
	}
	deps.events.getStageFn = func(ctx context.Context, id uuid.UUID) (*domain.Stage, error) {
		return &domain.Stage{ID: id, EventID: eventID}, nil
	}
	deps.events.addActFn = func(ctx context.Context, d, s uuid.UUID, name, start, end string) (*domain.Act, error) {
		return &domain.Act{ID: uuid.New(), DayID: d, StageID: s, Name: name, StartTime: start, EndTime: end}, nil
	}

	act, err := deps.service().AddAct(context.Background(), eventID, dayID, stageID, "The Hives", "21:30", "22:45")

	require.NoError(t, err)
	assert.Equal(t, "The Hives", act.Name)
	assert.Equal(t, dayID, act.DayID)
	assert.Equal(t, stageID, act.StageID)
}

func TestAddAct_StageFromAnotherEvent(t *testing.T) {
	deps := newTestDeps()
	eventID := uuid.New()

	deps.events.getDayFn = func(ctx context.Context, id uuid.UUID) (*domain.Day, error) {
		return &domain.Day{ID: id, EventID: eventID}, nil
	}
	deps.events.getStageFn = func(ctx context.Context, id uuid.UUID) (*domain.Stage, error) {
		return &domain.Stage{ID: id, EventID: uuid.New()}, nil
	}
	deps.events.addActFn = func(ctx context.Context, d, s uuid.UUID, name, start, end string) (*domain.Act, error) {
		t.Fatal("AddAct should not reach the repository on a lineup mismatch")
		return nil, nil
	}

	act, err := deps.service().AddAct(context.Background(), eventID, uuid.New(), uuid.New(), "The Hives", "21:30", "22:45")

	assert.ErrorIs(t, err, domain.ErrLineupMismatch)
	assert.Nil(t, act)
}

func TestAddAct_DayNotFound(t *testing.T) {
	deps := newTestDeps()
	deps.events.getDayFn = func(ctx context.Context, id uuid.UUID) (*domain.Day, error) {
		return nil, domain.ErrDayNotFound
	}

	_, err := deps.service().AddAct(context.Background(), uuid.New(), uuid.New(), uuid.New(), "The Hives", "21:30", "22:45")

	assert.ErrorIs(t, err, domain.ErrDayNotFound)
}
