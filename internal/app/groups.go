package app

import (
	"context"
	"crypto/rand"
	"encoding/base32"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"

	"github.com/jasselhoff/festival-planner/internal/domain"
	"github.com/jasselhoff/festival-planner/internal/logging"
	"github.com/jasselhoff/festival-planner/internal/metrics"
)

// inviteCodeBytes gives 80 bits of entropy, 16 base32 characters.
const inviteCodeBytes = 10

// CreateGroup creates a group for an event with the caller as owner and
// first member.
func (s *Service) CreateGroup(ctx context.Context, caller domain.Identity, eventID uuid.UUID, name string) (*domain.Group, error) {
	if err := s.ensureUser(ctx, caller); err != nil {
		return nil, err
	}

	if _, err := s.events.GetByID(ctx, eventID); err != nil {
		return nil, err
	}

	group, err := s.groups.Create(ctx, eventID, caller.UserID, name)
	if err != nil {
		return nil, err
	}

	logging.WithGroup(group.ID.String()).Info("Group created", "event_id", eventID.String(), "owner_id", caller.UserID.String())
	return group, nil
}

// GetGroup returns a group and its member list. The caller must be a member.
func (s *Service) GetGroup(ctx context.Context, callerID, groupID uuid.UUID) (*domain.Group, []domain.Member, error) {
	group, err := s.memberGroup(ctx, callerID, groupID)
	if err != nil {
		return nil, nil, err
	}

	members, err := s.groups.ListMembers(ctx, groupID)
	if err != nil {
		return nil, nil, err
	}

	return group, members, nil
}

// ListGroups returns every group the caller belongs to.
func (s *Service) ListGroups(ctx context.Context, callerID uuid.UUID) ([]domain.Group, error) {
	return s.groups.ListByUser(ctx, callerID)
}

// CreateInvite mints a redeemable invite code for a group. The code lives in
// the invite store for the configured TTL and is never persisted elsewhere.
func (s *Service) CreateInvite(ctx context.Context, callerID, groupID uuid.UUID) (*domain.Invite, error) {
	if _, err := s.memberGroup(ctx, callerID, groupID); err != nil {
		return nil, err
	}

	code, err := newInviteCode()
	if err != nil {
		return nil, err
	}

	invite := domain.Invite{
		Code:      code,
		GroupID:   groupID,
		CreatedBy: callerID,
		ExpiresAt: s.clock.Now().Add(s.inviteTTL).UTC(),
	}

	if err := s.invites.Put(ctx, invite, s.inviteTTL); err != nil {
		return nil, err
	}

	metrics.InvitesCreatedTotal.Inc()
	logging.WithGroup(groupID.String()).Info("Invite created", "created_by", callerID.String())
	return &invite, nil
}

// RedeemInvite joins the caller to the group behind an invite code. Redeeming
// the same code twice is harmless; membership insertion is idempotent.
func (s *Service) RedeemInvite(ctx context.Context, caller domain.Identity, code string) (*domain.Group, error) {
	if err := s.ensureUser(ctx, caller); err != nil {
		return nil, err
	}

	invite, err := s.invites.Get(ctx, code)
	if err != nil {
		if errors.Is(err, domain.ErrInviteNotFound) {
			metrics.InviteRedemptionsTotal.WithLabelValues("not_found").Inc()
		} else {
			metrics.InviteRedemptionsTotal.WithLabelValues("error").Inc()
		}
		return nil, err
	}

	if err := s.groups.AddMember(ctx, invite.GroupID, caller.UserID); err != nil {
		metrics.InviteRedemptionsTotal.WithLabelValues("error").Inc()
		return nil, err
	}

	group, err := s.groups.GetByID(ctx, invite.GroupID)
	if err != nil {
		metrics.InviteRedemptionsTotal.WithLabelValues("error").Inc()
		return nil, err
	}

	metrics.InviteRedemptionsTotal.WithLabelValues("success").Inc()
	logging.WithGroup(group.ID.String()).Info("Invite redeemed", "user_id", caller.UserID.String())
	return group, nil
}

func newInviteCode() (string, error) {
	buf := make([]byte, inviteCodeBytes)
	if _, err := io.ReadFull(rand.Reader, buf); err != nil {
		return "", fmt.Errorf("failed to generate invite code: %w", err)
	}
	return strings.ToLower(base32.StdEncoding.EncodeToString(buf)), nil
}
