package server

import (
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/jasselhoff/festival-planner/internal/domain"
	apperrors "github.com/jasselhoff/festival-planner/internal/errors"
)

const dateLayout = "2006-01-02"

type createEventRequest struct {
	Name  string `json:"name"`
	Venue string `json:"venue"`
}

func (s *Server) handleCreateEvent(c echo.Context) error {
	var req createEventRequest
	if err := c.Bind(&req); err != nil {
		return apperrors.ValidationError("invalid request body")
	}
	if req.Name == "" {
		return apperrors.ValidationError("event name is required")
	}

	event, err := s.app.CreateEvent(c.Request().Context(), req.Name, req.Venue)
	if err != nil {
		return mapDomainError(err, "failed to create event")
	}

	return jsonResponse(c, http.StatusCreated, event)
}

func (s *Server) handleListEvents(c echo.Context) error {
	events, err := s.app.ListEvents(c.Request().Context())
	if err != nil {
		return mapDomainError(err, "failed to list events")
	}
	return jsonResponse(c, http.StatusOK, events)
}

func (s *Server) handleGetEvent(c echo.Context) error {
	eventID, err := pathUUID(c, "eventID")
	if err != nil {
		return err
	}

	event, err := s.app.GetEvent(c.Request().Context(), eventID)
	if err != nil {
		return mapDomainError(err, "failed to load event")
	}
	return jsonResponse(c, http.StatusOK, event)
}

type addDayRequest struct {
	Label string `json:"label"`
	Date  string `json:"date"`
}

func (s *Server) handleAddDay(c echo.Context) error {
	eventID, err := pathUUID(c, "eventID")
	if err != nil {
		return err
	}

	var req addDayRequest
	if err := c.Bind(&req); err != nil {
		return apperrors.ValidationError("invalid request body")
	}
	if req.Label == "" {
		return apperrors.ValidationError("day label is required")
	}

	date, err := time.Parse(dateLayout, req.Date)
	if err != nil {
		return apperrors.ValidationError("date must be formatted YYYY-MM-DD").WithField("date", req.Date)
	}

	day, err := s.app.AddDay(c.Request().Context(), eventID, req.Label, date)
	if err != nil {
		return mapDomainError(err, "failed to add day")
	}
	return jsonResponse(c, http.StatusCreated, day)
}

type addStageRequest struct {
	Name string `json:"name"`
}

func (s *Server) handleAddStage(c echo.Context) error {
	eventID, err := pathUUID(c, "eventID")
	if err != nil {
		return err
	}

	var req addStageRequest
	if err := c.Bind(&req); err != nil {
		return apperrors.ValidationError("invalid request body")
	}
	if req.Name == "" {
		return apperrors.ValidationError("stage name is required")
	}

	stage, err := s.app.AddStage(c.Request().Context(), eventID, req.Name)
	if err != nil {
		return mapDomainError(err, "failed to add stage")
	}
	return jsonResponse(c, http.StatusCreated, stage)
}

type addActRequest struct {
	DayID     uuid.UUID `json:"dayId"`
	StageID   uuid.UUID `json:"stageId"`
	Name      string    `json:"name"`
	StartTime string    `json:"startTime"`
	EndTime   string    `json:"endTime"`
}

func (s *Server) handleAddAct(c echo.Context) error {
	eventID, err := pathUUID(c, "eventID")
	if err != nil {
		return err
	}

	var req addActRequest
	if err := c.Bind(&req); err != nil {
		return apperrors.ValidationError("invalid request body")
	}
	if req.Name == "" {
		return apperrors.ValidationError("act name is required")
	}
	if req.DayID == uuid.Nil || req.StageID == uuid.Nil {
		return apperrors.ValidationError("dayId and stageId are required")
	}
	if !domain.ValidTimeToken(req.StartTime) {
		return apperrors.ValidationError("startTime must be an HH:MM token between 00:00 and 29:59").WithField("startTime", req.StartTime)
	}
	if !domain.ValidTimeToken(req.EndTime) {
		return apperrors.ValidationError("endTime must be an HH:MM token between 00:00 and 29:59").WithField("endTime", req.EndTime)
	}
	if req.StartTime >= req.EndTime {
		return apperrors.ValidationError("startTime must be before endTime")
	}

	act, err := s.app.AddAct(c.Request().Context(), eventID, req.DayID, req.StageID, req.Name, req.StartTime, req.EndTime)
	if err != nil {
		return mapDomainError(err, "failed to add act")
	}
	return jsonResponse(c, http.StatusCreated, act)
}

func (s *Server) handleGetLineup(c echo.Context) error {
	eventID, err := pathUUID(c, "eventID")
	if err != nil {
		return err
	}

	lineup, err := s.app.GetLineup(c.Request().Context(), eventID)
	if err != nil {
		return mapDomainError(err, "failed to load lineup")
	}
	return jsonResponse(c, http.StatusOK, lineup)
}

func jsonResponse(c echo.Context, status int, body any) error {
	if err := c.JSON(status, body); err != nil {
		return fmt.Errorf("failed to send JSON response: %w", err)
	}
	return nil
}
