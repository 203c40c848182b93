package server

import (
	"errors"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/jasselhoff/festival-planner/internal/domain"
	apperrors "github.com/jasselhoff/festival-planner/internal/errors"
)

// pathUUID parses a UUID path parameter, failing with a validation error
// naming the offending parameter.
func pathUUID(c echo.Context, name string) (uuid.UUID, error) {
	raw := c.Param(name)
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, apperrors.ValidationError("invalid UUID format").WithField(name, raw)
	}
	return id, nil
}

// mapDomainError translates domain sentinel errors into structured errors at
// the handler boundary. Anything unrecognized is an internal error.
func mapDomainError(err error, message string) error {
	switch {
	case errors.Is(err, domain.ErrEventNotFound),
		errors.Is(err, domain.ErrDayNotFound),
		errors.Is(err, domain.ErrStageNotFound),
		errors.Is(err, domain.ErrActNotFound),
		errors.Is(err, domain.ErrGroupNotFound),
		errors.Is(err, domain.ErrSelectionNotFound),
		errors.Is(err, domain.ErrUserNotFound),
		errors.Is(err, domain.ErrInviteNotFound):
		return apperrors.NotFoundError(err.Error())
	case errors.Is(err, domain.ErrNotGroupMember):
		return apperrors.ForbiddenError(err.Error())
	case errors.Is(err, domain.ErrLineupMismatch):
		return apperrors.ValidationError(err.Error())
	default:
		return apperrors.InternalError(message, err)
	}
}
