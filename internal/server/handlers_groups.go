package server

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/jasselhoff/festival-planner/internal/domain"
	apperrors "github.com/jasselhoff/festival-planner/internal/errors"
)

type createGroupRequest struct {
	EventID uuid.UUID `json:"eventId"`
	Name    string    `json:"name"`
}

func (s *Server) handleCreateGroup(c echo.Context) error {
	caller, err := callerIdentity(c)
	if err != nil {
		return err
	}

	var req createGroupRequest
	if err := c.Bind(&req); err != nil {
		return apperrors.ValidationError("invalid request body")
	}
	if req.Name == "" {
		return apperrors.ValidationError("group name is required")
	}
	if req.EventID == uuid.Nil {
		return apperrors.ValidationError("eventId is required")
	}

	group, err := s.app.CreateGroup(c.Request().Context(), caller, req.EventID, req.Name)
	if err != nil {
		return mapDomainError(err, "failed to create group")
	}
	return jsonResponse(c, http.StatusCreated, group)
}

func (s *Server) handleListGroups(c echo.Context) error {
	caller, err := callerIdentity(c)
	if err != nil {
		return err
	}

	groups, err := s.app.ListGroups(c.Request().Context(), caller.UserID)
	if err != nil {
		return mapDomainError(err, "failed to list groups")
	}
	return jsonResponse(c, http.StatusOK, groups)
}

// groupResponse is a group with its member list, returned by the detail
// endpoint only.
type groupResponse struct {
	domain.Group
	Members []domain.Member `json:"members"`
}

func (s *Server) handleGetGroup(c echo.Context) error {
	caller, err := callerIdentity(c)
	if err != nil {
		return err
	}

	groupID, err := pathUUID(c, "groupID")
	if err != nil {
		return err
	}

	group, members, err := s.app.GetGroup(c.Request().Context(), caller.UserID, groupID)
	if err != nil {
		return mapDomainError(err, "failed to load group")
	}
	return jsonResponse(c, http.StatusOK, groupResponse{Group: *group, Members: members})
}

func (s *Server) handleCreateInvite(c echo.Context) error {
	caller, err := callerIdentity(c)
	if err != nil {
		return err
	}

	groupID, err := pathUUID(c, "groupID")
	if err != nil {
		return err
	}

	invite, err := s.app.CreateInvite(c.Request().Context(), caller.UserID, groupID)
	if err != nil {
		return mapDomainError(err, "failed to create invite")
	}
	return jsonResponse(c, http.StatusCreated, invite)
}

func (s *Server) handleRedeemInvite(c echo.Context) error {
	caller, err := callerIdentity(c)
	if err != nil {
		return err
	}

	code := c.Param("code")
	if code == "" {
		return apperrors.ValidationError("invite code is required")
	}

	group, err := s.app.RedeemInvite(c.Request().Context(), caller, code)
	if err != nil {
		return mapDomainError(err, "failed to redeem invite")
	}
	return jsonResponse(c, http.StatusOK, group)
}
