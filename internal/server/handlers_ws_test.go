package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	ws "github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jasselhoff/festival-planner/internal/auth"
	"github.com/jasselhoff/festival-planner/internal/domain"
	"github.com/jasselhoff/festival-planner/internal/hub"
)

// wsTestServer exposes the full server over a real listener so tests dial
// genuine WebSocket connections through the upgrade handler.
func wsTestServer(t *testing.T, srv *Server) string {
	t.Helper()
	ts := httptest.NewServer(srv.echo)
	t.Cleanup(ts.Close)
	return "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
}

func dialWS(t *testing.T, wsURL, token string) (*ws.Conn, *http.Response, error) {
	t.Helper()
	url := wsURL
	if token != "" {
		url += "?token=" + token
	}
	conn, resp, err := ws.DefaultDialer.Dial(url, nil)
	if conn != nil {
		t.Cleanup(func() { conn.Close() })
	}
	return conn, resp, err
}

// expectClose asserts the next read fails with the given close code.
func expectClose(t *testing.T, conn *ws.Conn, code int) {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err := conn.ReadMessage()
	var closeErr *ws.CloseError
	require.ErrorAs(t, err, &closeErr)
	assert.Equal(t, code, closeErr.Code)
}

func TestHandleWebSocket_MissingToken(t *testing.T) {
	srv := newTestServer(t, &mockAppService{})
	wsURL := wsTestServer(t, srv)

	conn, _, err := dialWS(t, wsURL, "")
	require.NoError(t, err)
	expectClose(t, conn, closeCodeMissingToken)
}

func TestHandleWebSocket_InvalidToken(t *testing.T) {
	srv := newTestServer(t, &mockAppService{})
	wsURL := wsTestServer(t, srv)

	conn, _, err := dialWS(t, wsURL, "garbage")
	require.NoError(t, err)
	expectClose(t, conn, closeCodeInvalidToken)
}

func TestHandleWebSocket_ExpiredToken(t *testing.T) {
	srv := newTestServer(t, &mockAppService{})
	wsURL := wsTestServer(t, srv)

	expired := mintToken(t, uuid.New(), "tester", time.Now().Add(-time.Hour))
	conn, _, err := dialWS(t, wsURL, expired)
	require.NoError(t, err)
	expectClose(t, conn, closeCodeExpiredToken)
}

func TestHandleWebSocket_RateLimited(t *testing.T) {
	cfg := testConfig()
	cfg.ConnectionRatePerIP = 1
	cfg.ConnectionBurstPerIP = 1

	h := hub.New(clockwork.NewRealClock(), time.Minute, 16)
	t.Cleanup(h.Stop)
	srv := NewServer(cfg, &mockAppService{}, auth.NewVerifier(testSecret), h, nil)
	wsURL := wsTestServer(t, srv)

	token := freshToken(t, uuid.New())
	_, _, err := dialWS(t, wsURL, token)
	require.NoError(t, err)

	_, resp, err := dialWS(t, wsURL, token)
	require.ErrorIs(t, err, ws.ErrBadHandshake)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
}

func TestHandleWebSocket_PerIPLimit(t *testing.T) {
	cfg := testConfig()
	cfg.MaxConnectionsPerIP = 1

	h := hub.New(clockwork.NewRealClock(), time.Minute, 16)
	t.Cleanup(h.Stop)
	srv := NewServer(cfg, &mockAppService{}, auth.NewVerifier(testSecret), h, nil)
	wsURL := wsTestServer(t, srv)

	token := freshToken(t, uuid.New())
	_, _, err := dialWS(t, wsURL, token)
	require.NoError(t, err)

	_, resp, err := dialWS(t, wsURL, token)
	require.ErrorIs(t, err, ws.ErrBadHandshake)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

// readFrame reads the next non-ping frame before the deadline.
func readFrame(t *testing.T, conn *ws.Conn, timeout time.Duration) map[string]any {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for {
		require.NoError(t, conn.SetReadDeadline(deadline))
		_, data, err := conn.ReadMessage()
		require.NoError(t, err)

		var frame map[string]any
		require.NoError(t, json.Unmarshal(data, &frame))
		if frame["type"] != "ping" {
			return frame
		}
	}
}

// assertSilent asserts no non-ping frame arrives within the window.
func assertSilent(t *testing.T, conn *ws.Conn, window time.Duration) {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(window)))
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			var netErr interface{ Timeout() bool }
			require.True(t, errors.As(err, &netErr) && netErr.Timeout(), "expected read timeout, got %v", err)
			return
		}

		var frame map[string]any
		require.NoError(t, json.Unmarshal(data, &frame))
		require.Equal(t, "ping", frame["type"], "unexpected frame %v", frame)
	}
}

func TestHandleWebSocket_EndToEndBroadcast(t *testing.T) {
	srv := newTestServer(t, &mockAppService{})
	wsURL := wsTestServer(t, srv)

	userA := uuid.New()
	userB := uuid.New()
	groupID := uuid.New()

	connA, _, err := dialWS(t, wsURL, freshToken(t, userA))
	require.NoError(t, err)
	connB, _, err := dialWS(t, wsURL, freshToken(t, userB))
	require.NoError(t, err)

	join := map[string]string{"type": "join_group", "groupId": groupID.String()}
	require.NoError(t, connA.WriteJSON(join))
	require.NoError(t, connB.WriteJSON(join))

	require.Eventually(t, func() bool {
		return srv.hub.RoomCount(groupID) == 2
	}, 2*time.Second, 10*time.Millisecond)

	event := domain.NewSelectionAddedEvent(domain.Selection{
		UserID:   userA,
		GroupID:  groupID,
		ActID:    uuid.New(),
		Priority: 1,
	}, "ana")
	srv.hub.Broadcast(groupID, event, userA)

	frame := readFrame(t, connB, 2*time.Second)
	assert.Equal(t, "selection_added", frame["type"])
	assert.Equal(t, userA.String(), frame["userId"])
	assert.Equal(t, "ana", frame["userName"])

	// The sender's own connection stays quiet.
	assertSilent(t, connA, 300*time.Millisecond)
}
