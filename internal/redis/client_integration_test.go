package redis

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewClient_InvalidURL(t *testing.T) {
	_, err := NewClient(context.Background(), "://not-a-url")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse redis URL")
}

func TestNewClient_RoundtripThroughHooks(t *testing.T) {
	client := setupTestClient(t)
	ctx := context.Background()

	// Commands pass through the metrics and circuit breaker hooks
	require.NoError(t, client.Set(ctx, "greeting", "hello", 0).Err())

	val, err := client.Get(ctx, "greeting").Result()
	require.NoError(t, err)
	assert.Equal(t, "hello", val)
}
