package app

import (
	"context"

	"github.com/google/uuid"

	"github.com/jasselhoff/festival-planner/internal/domain"
	"github.com/jasselhoff/festival-planner/internal/metrics"
)

// PutSelection stores (or re-prioritizes) the caller's pick of an act and
// announces it to the group's room, excluding the caller's own connections.
// The act must belong to the event the group is attached to.
func (s *Service) PutSelection(ctx context.Context, caller domain.Identity, groupID, actID uuid.UUID, priority int) (*domain.Selection, error) {
	if err := s.ensureUser(ctx, caller); err != nil {
		return nil, err
	}

	group, err := s.memberGroup(ctx, caller.UserID, groupID)
	if err != nil {
		return nil, err
	}

	act, err := s.events.GetAct(ctx, actID)
	if err != nil {
		return nil, err
	}

	day, err := s.events.GetDay(ctx, act.DayID)
	if err != nil {
		return nil, err
	}
	if day.EventID != group.EventID {
		return nil, domain.ErrLineupMismatch
	}

	selection, err := s.selections.Upsert(ctx, caller.UserID, groupID, actID, priority)
	if err != nil {
		return nil, err
	}

	metrics.SelectionsTotal.WithLabelValues("added").Inc()
	s.rooms.Broadcast(groupID, domain.NewSelectionAddedEvent(*selection, caller.DisplayName), caller.UserID)
	return selection, nil
}

// RemoveSelection deletes the caller's pick of an act and announces the
// removal to the group's room, excluding the caller's own connections.
func (s *Service) RemoveSelection(ctx context.Context, callerID, groupID, actID uuid.UUID) error {
	if _, err := s.memberGroup(ctx, callerID, groupID); err != nil {
		return err
	}

	if err := s.selections.Delete(ctx, callerID, groupID, actID); err != nil {
		return err
	}

	metrics.SelectionsTotal.WithLabelValues("removed").Inc()
	s.rooms.Broadcast(groupID, domain.NewSelectionRemovedEvent(callerID, groupID, actID), callerID)
	return nil
}

// ListSelections returns all members' selections in insertion order.
func (s *Service) ListSelections(ctx context.Context, callerID, groupID uuid.UUID) ([]domain.Selection, error) {
	if _, err := s.memberGroup(ctx, callerID, groupID); err != nil {
		return nil, err
	}
	return s.selections.ListByGroup(ctx, groupID)
}

// GroupConflicts recomputes the overlap report for a group's selections.
// Conflicts are derived on demand and never cached.
func (s *Service) GroupConflicts(ctx context.Context, callerID, groupID uuid.UUID) ([]domain.Conflict, error) {
	if _, err := s.memberGroup(ctx, callerID, groupID); err != nil {
		return nil, err
	}

	entries, err := s.selections.ListEntries(ctx, groupID)
	if err != nil {
		return nil, err
	}

	conflicts := domain.DetectConflicts(entries)

	metrics.ConflictChecksTotal.Inc()
	metrics.ConflictsFoundTotal.Add(float64(len(conflicts)))
	return conflicts, nil
}

// GroupPresence returns the user IDs currently connected to the group's room.
func (s *Service) GroupPresence(ctx context.Context, callerID, groupID uuid.UUID) ([]uuid.UUID, error) {
	if _, err := s.memberGroup(ctx, callerID, groupID); err != nil {
		return nil, err
	}
	return s.presence.Presence(groupID), nil
}
