package logging

import (
	"bytes"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitLogger_SetsDefault(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	InitLogger("debug", "json")

	require.NotNil(t, Logger)
	assert.Same(t, Logger, slog.Default())
}

func TestFieldHelpers(t *testing.T) {
	var buf bytes.Buffer
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })
	slog.SetDefault(slog.New(slog.NewTextHandler(&buf, nil)))

	WithGroup("group-1").Info("group message")
	WithUser("user-1").Info("user message")
	WithError(errors.New("boom")).Error("error message")

	out := buf.String()
	assert.Contains(t, out, "group_id=group-1")
	assert.Contains(t, out, "user_id=user-1")
	assert.Contains(t, out, "error=boom")
}
