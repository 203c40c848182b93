package server

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/jasselhoff/festival-planner/internal/domain"
	apperrors "github.com/jasselhoff/festival-planner/internal/errors"
)

type putSelectionRequest struct {
	Priority int `json:"priority"`
}

func (s *Server) handlePutSelection(c echo.Context) error {
	caller, err := callerIdentity(c)
	if err != nil {
		return err
	}

	groupID, err := pathUUID(c, "groupID")
	if err != nil {
		return err
	}
	actID, err := pathUUID(c, "actID")
	if err != nil {
		return err
	}

	var req putSelectionRequest
	if err := c.Bind(&req); err != nil {
		return apperrors.ValidationError("invalid request body")
	}
	if req.Priority < 0 {
		return apperrors.ValidationError("priority must not be negative")
	}

	selection, err := s.app.PutSelection(c.Request().Context(), caller, groupID, actID, req.Priority)
	if err != nil {
		return mapDomainError(err, "failed to store selection")
	}
	return jsonResponse(c, http.StatusOK, selection)
}

func (s *Server) handleRemoveSelection(c echo.Context) error {
	caller, err := callerIdentity(c)
	if err != nil {
		return err
	}

	groupID, err := pathUUID(c, "groupID")
	if err != nil {
		return err
	}
	actID, err := pathUUID(c, "actID")
	if err != nil {
		return err
	}

	if err := s.app.RemoveSelection(c.Request().Context(), caller.UserID, groupID, actID); err != nil {
		return mapDomainError(err, "failed to remove selection")
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) handleListSelections(c echo.Context) error {
	caller, err := callerIdentity(c)
	if err != nil {
		return err
	}

	groupID, err := pathUUID(c, "groupID")
	if err != nil {
		return err
	}

	selections, err := s.app.ListSelections(c.Request().Context(), caller.UserID, groupID)
	if err != nil {
		return mapDomainError(err, "failed to list selections")
	}
	return jsonResponse(c, http.StatusOK, selections)
}

// userConflicts groups one member's overlap reports for the response body.
type userConflicts struct {
	UserID    uuid.UUID         `json:"userId"`
	Conflicts []domain.Conflict `json:"conflicts"`
}

func (s *Server) handleGroupConflicts(c echo.Context) error {
	caller, err := callerIdentity(c)
	if err != nil {
		return err
	}

	groupID, err := pathUUID(c, "groupID")
	if err != nil {
		return err
	}

	conflicts, err := s.app.GroupConflicts(c.Request().Context(), caller.UserID, groupID)
	if err != nil {
		return mapDomainError(err, "failed to compute conflicts")
	}
	return jsonResponse(c, http.StatusOK, groupConflictsByUser(conflicts))
}

// groupConflictsByUser buckets a flat conflict list per user, preserving the
// detector's output order both across and within users.
func groupConflictsByUser(conflicts []domain.Conflict) []userConflicts {
	order := make([]uuid.UUID, 0, len(conflicts))
	byUser := make(map[uuid.UUID][]domain.Conflict)
	for _, conflict := range conflicts {
		if _, seen := byUser[conflict.UserID]; !seen {
			order = append(order, conflict.UserID)
		}
		byUser[conflict.UserID] = append(byUser[conflict.UserID], conflict)
	}

	grouped := make([]userConflicts, 0, len(order))
	for _, userID := range order {
		grouped = append(grouped, userConflicts{UserID: userID, Conflicts: byUser[userID]})
	}
	return grouped
}

func (s *Server) handleGroupPresence(c echo.Context) error {
	caller, err := callerIdentity(c)
	if err != nil {
		return err
	}

	groupID, err := pathUUID(c, "groupID")
	if err != nil {
		return err
	}

	users, err := s.app.GroupPresence(c.Request().Context(), caller.UserID, groupID)
	if err != nil {
		return mapDomainError(err, "failed to read presence")
	}
	if users == nil {
		users = []uuid.UUID{}
	}
	return jsonResponse(c, http.StatusOK, map[string]any{"userIds": users})
}

type buildPlaylistRequest struct {
	Name string `json:"name"`
}

func (s *Server) handleBuildPlaylist(c echo.Context) error {
	caller, err := callerIdentity(c)
	if err != nil {
		return err
	}

	groupID, err := pathUUID(c, "groupID")
	if err != nil {
		return err
	}

	var req buildPlaylistRequest
	if err := c.Bind(&req); err != nil {
		return apperrors.ValidationError("invalid request body")
	}

	playlist, err := s.app.BuildPlaylist(c.Request().Context(), caller.UserID, groupID, req.Name)
	if err != nil {
		return mapDomainError(err, "failed to build playlist")
	}
	return jsonResponse(c, http.StatusCreated, playlist)
}
