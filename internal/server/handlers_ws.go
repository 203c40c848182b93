package server

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"github.com/jasselhoff/festival-planner/internal/domain"
	"github.com/jasselhoff/festival-planner/internal/metrics"
)

// Application close codes distinguishing authentication failures. Clients
// must reconnect with a valid credential; the hub never retries.
const (
	closeCodeMissingToken = 4001
	closeCodeInvalidToken = 4002
	closeCodeExpiredToken = 4003
)

const closeWriteTimeout = 5 * time.Second

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Bearer tokens carry the authentication; cookies play no role, so
		// cross-origin upgrades are not a CSRF vector here.
		return true
	},
}

// handleWebSocket upgrades the connection, authenticates it via the token
// query parameter and hands it to the hub. Blocks for the connection's
// lifetime.
func (s *Server) handleWebSocket(c echo.Context) error {
	ip := c.RealIP()
	allowed, reason := s.limits.Acquire(ip)
	if !allowed {
		metrics.WebSocketConnectionsRejected.WithLabelValues(string(reason)).Inc()
		slog.Warn("WebSocket connection rejected", "ip", ip, "reason", reason)
		if reason == LimitReasonRate {
			return c.NoContent(http.StatusTooManyRequests)
		}
		return c.NoContent(http.StatusServiceUnavailable)
	}
	defer func() {
		s.limits.Release(ip)
		s.updateLimitGauges()
	}()
	s.updateLimitGauges()

	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		// Upgrade has already written its own error response.
		slog.Debug("WebSocket upgrade failed", "ip", ip, "error", err)
		return nil
	}

	identity, err := s.authenticateConn(conn, c.QueryParam("token"))
	if err != nil {
		return nil
	}

	metrics.HubConnectionsTotal.WithLabelValues("success").Inc()
	s.hub.ServeConn(conn, identity)
	return nil
}

// authenticateConn verifies the handshake credential and closes the
// connection with a distinguishing close code when it is missing or
// rejected.
func (s *Server) authenticateConn(conn *websocket.Conn, token string) (domain.Identity, error) {
	identity, err := s.verifier.Verify(token)
	if err == nil {
		return identity, nil
	}

	var code int
	var result string
	switch {
	case errors.Is(err, domain.ErrTokenMissing):
		code, result = closeCodeMissingToken, "auth_missing"
	case errors.Is(err, domain.ErrTokenExpired):
		code, result = closeCodeExpiredToken, "auth_expired"
	default:
		code, result = closeCodeInvalidToken, "auth_invalid"
	}

	metrics.HubConnectionsTotal.WithLabelValues(result).Inc()
	slog.Info("WebSocket authentication failed", "result", result)

	closeMsg := websocket.FormatCloseMessage(code, err.Error())
	_ = conn.SetWriteDeadline(time.Now().Add(closeWriteTimeout))
	_ = conn.WriteMessage(websocket.CloseMessage, closeMsg)
	_ = conn.Close()
	return domain.Identity{}, err
}

func (s *Server) updateLimitGauges() {
	metrics.WebSocketConnectionCapacity.Set(s.limits.Global().CapacityPct())
	metrics.WebSocketUniqueIPs.Set(float64(s.limits.PerIP().UniqueIPs()))
}
