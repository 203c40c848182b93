package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jasselhoff/festival-planner/internal/correlation"
	"github.com/jasselhoff/festival-planner/internal/domain"
)

func TestRequireAuth_MissingHeader(t *testing.T) {
	srv := newTestServer(t, &mockAppService{})

	rec := doRequest(t, srv, http.MethodGet, "/api/v1/events", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireAuth_MalformedHeader(t *testing.T) {
	srv := newTestServer(t, &mockAppService{})

	for _, header := range []string{"Basic abc", "Bearer", "Bearer "} {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/events", nil)
		req.Header.Set("Authorization", header)
		rec := httptest.NewRecorder()
		srv.echo.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code, "header %q", header)
	}
}

func TestRequireAuth_InvalidToken(t *testing.T) {
	srv := newTestServer(t, &mockAppService{})

	rec := doRequest(t, srv, http.MethodGet, "/api/v1/events", "not-a-jwt", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	body := decodeBody[map[string]any](t, rec)
	errBody, ok := body["error"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "unauthorized", errBody["type"])
}

func TestRequireAuth_ExpiredToken(t *testing.T) {
	srv := newTestServer(t, &mockAppService{})
	token := mintToken(t, uuid.New(), "tester", time.Now().Add(-time.Hour))

	rec := doRequest(t, srv, http.MethodGet, "/api/v1/events", token, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireAuth_ValidTokenReachesHandler(t *testing.T) {
	userID := uuid.New()
	var seenCaller uuid.UUID
	app := &mockAppService{
		listGroupsFn: func(_ context.Context, callerID uuid.UUID) ([]domain.Group, error) {
			seenCaller = callerID
			return []domain.Group{}, nil
		},
	}
	srv := newTestServer(t, app)

	rec := doRequest(t, srv, http.MethodGet, "/api/v1/groups", freshToken(t, userID), nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, userID, seenCaller)
}

func TestCorrelationMiddleware_GeneratesID(t *testing.T) {
	srv := newTestServer(t, &mockAppService{})

	rec := doRequest(t, srv, http.MethodGet, "/health/live", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, rec.Header().Get(correlation.HeaderName), 8)
}

func TestCorrelationMiddleware_PropagatesIncomingID(t *testing.T) {
	srv := newTestServer(t, &mockAppService{})

	req := httptest.NewRequest(http.MethodGet, "/health/live", nil)
	req.Header.Set(correlation.HeaderName, "abcd1234")
	rec := httptest.NewRecorder()
	srv.echo.ServeHTTP(rec, req)

	assert.Equal(t, "abcd1234", rec.Header().Get(correlation.HeaderName))
}
