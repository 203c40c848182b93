package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jasselhoff/festival-planner/internal/domain"
	goredis "github.com/redis/go-redis/v9"
)

// InviteStore keeps invite codes in Redis. The key TTL is the single source
// of expiry; ExpiresAt on the invite is informational for clients. Invites
// are never persisted to Postgres.
type InviteStore struct {
	rdb *goredis.Client
}

var _ domain.InviteStore = (*InviteStore)(nil)

func NewInviteStore(rdb *goredis.Client) *InviteStore {
	return &InviteStore{rdb: rdb}
}

// Put stores an invite under its code for ttl.
func (s *InviteStore) Put(ctx context.Context, invite domain.Invite, ttl time.Duration) error {
	payload, err := json.Marshal(invite)
	if err != nil {
		return fmt.Errorf("failed to marshal invite: %w", err)
	}

	if err := s.rdb.Set(ctx, inviteKey(invite.Code), payload, ttl).Err(); err != nil {
		return fmt.Errorf("failed to store invite: %w", err)
	}
	return nil
}

// Get returns the invite stored under code. A key that expired or never
// existed yields domain.ErrInviteNotFound.
func (s *InviteStore) Get(ctx context.Context, code string) (*domain.Invite, error) {
	result, err := s.rdb.Get(ctx, inviteKey(code)).Result()
	if errors.Is(err, goredis.Nil) {
		return nil, domain.ErrInviteNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load invite: %w", err)
	}

	var invite domain.Invite
	if err := json.Unmarshal([]byte(result), &invite); err != nil {
		return nil, fmt.Errorf("failed to unmarshal invite: %w", err)
	}
	return &invite, nil
}

func inviteKey(code string) string {
	return "invite:" + code
}
