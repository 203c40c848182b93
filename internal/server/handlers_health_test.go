package server

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jasselhoff/festival-planner/internal/version"
)

func TestHandleLiveness(t *testing.T) {
	srv := newTestServer(t, &mockAppService{})

	rec := doRequest(t, srv, http.MethodGet, "/health/live", "", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody[map[string]any](t, rec)
	assert.Equal(t, "ok", body["status"])
	assert.Contains(t, body, "uptime")
}

func TestHandleReadiness_AllChecksPass(t *testing.T) {
	srv := newTestServer(t, &mockAppService{},
		HealthCheck{Name: "postgres", Check: func(context.Context) error { return nil }},
		HealthCheck{Name: "redis", Check: func(context.Context) error { return nil }},
	)

	rec := doRequest(t, srv, http.MethodGet, "/health/ready", "", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody[map[string]string](t, rec)
	assert.Equal(t, "ready", body["status"])
}

func TestHandleReadiness_FailingCheck(t *testing.T) {
	srv := newTestServer(t, &mockAppService{},
		HealthCheck{Name: "postgres", Check: func(context.Context) error { return nil }},
		HealthCheck{Name: "redis", Check: func(context.Context) error { return errors.New("connection refused") }},
	)

	rec := doRequest(t, srv, http.MethodGet, "/health/ready", "", nil)

	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	body := decodeBody[map[string]any](t, rec)
	assert.Equal(t, "unhealthy", body["status"])
	assert.Equal(t, "redis", body["failed_check"])
}

func TestHandleVersion(t *testing.T) {
	srv := newTestServer(t, &mockAppService{})

	rec := doRequest(t, srv, http.MethodGet, "/version", "", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	info := decodeBody[version.Info](t, rec)
	assert.NotEmpty(t, info.Version)
	assert.NotEmpty(t, info.GoVersion)
}
