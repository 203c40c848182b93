package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"

	"github.com/jasselhoff/festival-planner/internal/auth"
	"github.com/jasselhoff/festival-planner/internal/config"
	"github.com/jasselhoff/festival-planner/internal/domain"
	"github.com/jasselhoff/festival-planner/internal/hub"
)

const testSecret = "0123456789abcdef0123456789abcdef"

var errNotImplemented = errors.New("not implemented")

// mockAppService implements domain.AppService with overridable hooks. Unset
// hooks fail loudly so tests only exercise the paths they configure.
type mockAppService struct {
	createEventFn     func(ctx context.Context, name, venue string) (*domain.Event, error)
	getEventFn        func(ctx context.Context, eventID uuid.UUID) (*domain.Event, error)
	listEventsFn      func(ctx context.Context) ([]domain.Event, error)
	addDayFn          func(ctx context.Context, eventID uuid.UUID, label string, date time.Time) (*domain.Day, error)
	addStageFn        func(ctx context.Context, eventID uuid.UUID, name string) (*domain.Stage, error)
	addActFn          func(ctx context.Context, eventID, dayID, stageID uuid.UUID, name, startTime, endTime string) (*domain.Act, error)
	getLineupFn       func(ctx context.Context, eventID uuid.UUID) (*domain.Lineup, error)
	createGroupFn     func(ctx context.Context, caller domain.Identity, eventID uuid.UUID, name string) (*domain.Group, error)
	getGroupFn        func(ctx context.Context, callerID, groupID uuid.UUID) (*domain.Group, []domain.Member, error)
	listGroupsFn      func(ctx context.Context, callerID uuid.UUID) ([]domain.Group, error)
	createInviteFn    func(ctx context.Context, callerID, groupID uuid.UUID) (*domain.Invite, error)
	redeemInviteFn    func(ctx context.Context, caller domain.Identity, code string) (*domain.Group, error)
	putSelectionFn    func(ctx context.Context, caller domain.Identity, groupID, actID uuid.UUID, priority int) (*domain.Selection, error)
	removeSelectionFn func(ctx context.Context, callerID, groupID, actID uuid.UUID) error
	listSelectionsFn  func(ctx context.Context, callerID, groupID uuid.UUID) ([]domain.Selection, error)
	groupConflictsFn  func(ctx context.Context, callerID, groupID uuid.UUID) ([]domain.Conflict, error)
	groupPresenceFn   func(ctx context.Context, callerID, groupID uuid.UUID) ([]uuid.UUID, error)
	buildPlaylistFn   func(ctx context.Context, callerID, groupID uuid.UUID, name string) (*domain.Playlist, error)
}

func (m *mockAppService) CreateEvent(ctx context.Context, name, venue string) (*domain.Event, error) {
	if m.createEventFn != nil {
		return m.createEventFn(ctx, name, venue)
	}
	return nil, errNotImplemented
}

func (m *mockAppService) GetEvent(ctx context.Context, eventID uuid.UUID) (*domain.Event, error) {
	if m.getEventFn != nil {
		return m.getEventFn(ctx, eventID)
	}
	return nil, errNotImplemented
}

func (m *mockAppService) ListEvents(ctx context.Context) ([]domain.Event, error) {
	if m.listEventsFn != nil {
		return m.listEventsFn(ctx)
	}
	return nil, errNotImplemented
}

func (m *mockAppService) AddDay(ctx context.Context, eventID uuid.UUID, label string, date time.Time) (*domain.Day, error) {
	if m.addDayFn != nil {
		return m.addDayFn(ctx, eventID, label, date)
	}
	return nil, errNotImplemented
}

func (m *mockAppService) AddStage(ctx context.Context, eventID uuid.UUID, name string) (*domain.Stage, error) {
	if m.addStageFn != nil {
		return m.addStageFn(ctx, eventID, name)
	}
	return nil, errNotImplemented
}

func (m *mockAppService) AddAct(ctx context.Context, eventID, dayID, stageID uuid.UUID, name, startTime, endTime string) (*domain.Act, error) {
	if m.addActFn != nil {
		return m.addActFn(ctx, eventID, dayID, stageID, name, startTime, endTime)
	}
	return nil, errNotImplemented
}

func (m *mockAppService) GetLineup(ctx context.Context, eventID uuid.UUID) (*domain.Lineup, error) {
	if m.getLineupFn != nil {
		return m.getLineupFn(ctx, eventID)
	}
	return nil, errNotImplemented
}

func (m *mockAppService) CreateGroup(ctx context.Context, caller domain.Identity, eventID uuid.UUID, name string) (*domain.Group, error) {
	if m.createGroupFn != nil {
		return m.createGroupFn(ctx, caller, eventID, name)
	}
	return nil, errNotImplemented
}

func (m *mockAppService) GetGroup(ctx context.Context, callerID, groupID uuid.UUID) (*domain.Group, []domain.Member, error) {
	if m.getGroupFn != nil {
		return m.getGroupFn(ctx, callerID, groupID)
	}
	return nil, nil, errNotImplemented
}

func (m *mockAppService) ListGroups(ctx context.Context, callerID uuid.UUID) ([]domain.Group, error) {
	if m.listGroupsFn != nil {
		return m.listGroupsFn(ctx, callerID)
	}
	return nil, errNotImplemented
}

func (m *mockAppService) CreateInvite(ctx context.Context, callerID, groupID uuid.UUID) (*domain.Invite, error) {
	if m.createInviteFn != nil {
		return m.createInviteFn(ctx, callerID, groupID)
	}
	return nil, errNotImplemented
}

func (m *mockAppService) RedeemInvite(ctx context.Context, caller domain.Identity, code string) (*domain.Group, error) {
	if m.redeemInviteFn != nil {
		return m.redeemInviteFn(ctx, caller, code)
	}
	return nil, errNotImplemented
}

func (m *mockAppService) PutSelection(ctx context.Context, caller domain.Identity, groupID, actID uuid.UUID, priority int) (*domain.Selection, error) {
	if m.putSelectionFn != nil {
		return m.putSelectionFn(ctx, caller, groupID, actID, priority)
	}
	return nil, errNotImplemented
}

func (m *mockAppService) RemoveSelection(ctx context.Context, callerID, groupID, actID uuid.UUID) error {
	if m.removeSelectionFn != nil {
		return m.removeSelectionFn(ctx, callerID, groupID, actID)
	}
	return errNotImplemented
}

func (m *mockAppService) ListSelections(ctx context.Context, callerID, groupID uuid.UUID) ([]domain.Selection, error) {
	if m.listSelectionsFn != nil {
		return m.listSelectionsFn(ctx, callerID, groupID)
	}
	return nil, errNotImplemented
}

func (m *mockAppService) GroupConflicts(ctx context.Context, callerID, groupID uuid.UUID) ([]domain.Conflict, error) {
	if m.groupConflictsFn != nil {
		return m.groupConflictsFn(ctx, callerID, groupID)
	}
	return nil, errNotImplemented
}

func (m *mockAppService) GroupPresence(ctx context.Context, callerID, groupID uuid.UUID) ([]uuid.UUID, error) {
	if m.groupPresenceFn != nil {
		return m.groupPresenceFn(ctx, callerID, groupID)
	}
	return nil, errNotImplemented
}

func (m *mockAppService) BuildPlaylist(ctx context.Context, callerID, groupID uuid.UUID, name string) (*domain.Playlist, error) {
	if m.buildPlaylistFn != nil {
		return m.buildPlaylistFn(ctx, callerID, groupID, name)
	}
	return nil, errNotImplemented
}

// --- Test server setup ---

func testConfig() *config.Config {
	return &config.Config{
		AppEnv:                  "test",
		Port:                    "0",
		JWTSecret:               testSecret,
		HeartbeatInterval:       time.Minute,
		SendBufferSize:          16,
		InviteTTL:               72 * time.Hour,
		MaxWebSocketConnections: 100,
		MaxConnectionsPerIP:     100,
		ConnectionRatePerIP:     1000,
		ConnectionBurstPerIP:    1000,
	}
}

func newTestServer(t *testing.T, app domain.AppService, checks ...HealthCheck) *Server {
	t.Helper()

	h := hub.New(clockwork.NewRealClock(), time.Minute, 16)
	t.Cleanup(h.Stop)

	return NewServer(testConfig(), app, auth.NewVerifier(testSecret), h, checks)
}

// mintToken signs a test JWT the server's verifier accepts.
func mintToken(t *testing.T, userID uuid.UUID, name string, expiresAt time.Time) string {
	t.Helper()

	claims := jwt.MapClaims{
		"sub":   userID.String(),
		"name":  name,
		"email": name + "@example.com",
		"exp":   expiresAt.Unix(),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return signed
}

func freshToken(t *testing.T, userID uuid.UUID) string {
	t.Helper()
	return mintToken(t, userID, "tester", time.Now().Add(time.Hour))
}

// doRequest sends a request through the full middleware chain and routing.
func doRequest(t *testing.T, srv *Server, method, target, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(encoded)
	}

	req := httptest.NewRequest(method, target, reader)
	if body != nil {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	srv.echo.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var result T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	return result
}
