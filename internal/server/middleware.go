package server

import (
	"errors"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/jasselhoff/festival-planner/internal/correlation"
	"github.com/jasselhoff/festival-planner/internal/domain"
	apperrors "github.com/jasselhoff/festival-planner/internal/errors"
)

// Context keys set by requireAuth for downstream handlers.
const (
	contextKeyUserID   = "userID"
	contextKeyIdentity = "identity"
)

// correlationMiddleware assigns each request a correlation ID, threads it
// through the request context for logging, and echoes it back in the
// response header.
func correlationMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		id := c.Request().Header.Get(correlation.HeaderName)
		if id == "" {
			id = correlation.NewID()
		}

		ctx := correlation.WithID(c.Request().Context(), id)
		c.SetRequest(c.Request().WithContext(ctx))
		c.Response().Header().Set(correlation.HeaderName, id)
		return next(c)
	}
}

// requireAuth validates the Authorization bearer token and stores the
// verified identity in the request context.
func (s *Server) requireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		header := c.Request().Header.Get(echo.HeaderAuthorization)
		if header == "" {
			return apperrors.UnauthorizedError("missing bearer token")
		}

		token, found := strings.CutPrefix(header, "Bearer ")
		if !found || token == "" {
			return apperrors.UnauthorizedError("malformed authorization header")
		}

		identity, err := s.verifier.Verify(token)
		if err != nil {
			switch {
			case errors.Is(err, domain.ErrTokenExpired):
				return apperrors.UnauthorizedError("expired token")
			default:
				return apperrors.UnauthorizedError("invalid token")
			}
		}

		c.Set(contextKeyUserID, identity.UserID)
		c.Set(contextKeyIdentity, identity)
		return next(c)
	}
}

// callerIdentity returns the verified identity stored by requireAuth.
func callerIdentity(c echo.Context) (domain.Identity, error) {
	identity, ok := c.Get(contextKeyIdentity).(domain.Identity)
	if !ok {
		return domain.Identity{}, apperrors.InternalError("missing identity in request context", nil)
	}
	return identity, nil
}
