package hub

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"

	"github.com/jasselhoff/festival-planner/internal/domain"
	"github.com/jasselhoff/festival-planner/internal/logging"
	"github.com/jasselhoff/festival-planner/internal/metrics"
)

const (
	commandBufferSize = 256
	commandTimeout    = 5 * time.Second
	stopTimeout       = 10 * time.Second
)

// liveness is the per-session heartbeat state. A session is responsive until
// probed; if it fails to answer before the next sweep it is evicted.
type liveness int

const (
	livenessResponsive liveness = iota
	livenessAwaitingProbe
)

// --- Commands ---

// hubCmd is the command interface for the Hub actor.
type hubCmd interface{ isHubCmd() }

type baseHubCmd struct{}

func (baseHubCmd) isHubCmd() {}

type attachCmd struct {
	baseHubCmd
	session *Session
}

type detachCmd struct {
	baseHubCmd
	session *Session
}

type joinCmd struct {
	baseHubCmd
	session *Session
	groupID uuid.UUID
}

type leaveCmd struct {
	baseHubCmd
	session *Session
	groupID uuid.UUID
}

type broadcastCmd struct {
	baseHubCmd
	groupID       uuid.UUID
	data          []byte
	excludeUserID uuid.UUID
}

type ackCmd struct {
	baseHubCmd
	session *Session
}

type roomCountCmd struct {
	baseHubCmd
	groupID      uuid.UUID
	replyChannel chan int
}

type presenceCmd struct {
	baseHubCmd
	groupID      uuid.UUID
	replyChannel chan []uuid.UUID
}

type snapshotCmd struct {
	baseHubCmd
	replyChannel chan hubSnapshot
}

type stopCmd struct {
	baseHubCmd
}

// hubSnapshot is a consistent view of hub state used by tests and health
// reporting.
type hubSnapshot struct {
	sessionCount int
	roomSizes    map[uuid.UUID]int
	orphaned     int
}

// --- Hub ---

// Hub owns all rooms and sessions. A single goroutine consumes commands so
// state is never shared across goroutines.
type Hub struct {
	cmdCh             chan hubCmd
	clock             clockwork.Clock
	heartbeatInterval time.Duration
	sendBufferSize    int
	sessions          map[*Session]liveness
	rooms             map[uuid.UUID]map[*Session]struct{}
	sessionRooms      map[*Session]map[uuid.UUID]struct{}
	done              chan struct{}
}

// New creates a hub and starts its actor goroutine. heartbeatInterval drives
// the probe/evict cycle; sendBufferSize bounds each session's outbound queue.
func New(clock clockwork.Clock, heartbeatInterval time.Duration, sendBufferSize int) *Hub {
	h := &Hub{
		cmdCh:             make(chan hubCmd, commandBufferSize),
		clock:             clock,
		heartbeatInterval: heartbeatInterval,
		sendBufferSize:    sendBufferSize,
		sessions:          make(map[*Session]liveness),
		rooms:             make(map[uuid.UUID]map[*Session]struct{}),
		sessionRooms:      make(map[*Session]map[uuid.UUID]struct{}),
		done:              make(chan struct{}),
	}
	go h.run()
	return h
}

func (h *Hub) run() {
	defer close(h.done)
	defer func() {
		if r := recover(); r != nil {
			slog.Error("Hub panic recovered", "panic", r)
			h.closeAllSessions("hub failure")
		}
	}()

	ticker := h.clock.NewTicker(h.heartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case cmd := <-h.cmdCh:
			switch c := cmd.(type) {
			case attachCmd:
				h.handleAttach(c.session)
			case detachCmd:
				h.handleDetach(c.session)
			case joinCmd:
				h.handleJoin(c)
			case leaveCmd:
				h.removeFromRoom(c.session, c.groupID)
			case broadcastCmd:
				h.handleBroadcast(c)
			case ackCmd:
				h.handleAck(c.session)
			case roomCountCmd:
				c.replyChannel <- len(h.rooms[c.groupID])
			case presenceCmd:
				c.replyChannel <- h.presentUsers(c.groupID)
			case snapshotCmd:
				c.replyChannel <- h.snapshot()
			case stopCmd:
				h.handleStop()
				return
			default:
				slog.Warn("Hub received unknown command type", "command_type", fmt.Sprintf("%T", cmd))
			}
		case <-ticker.Chan():
			h.handleHeartbeatTick()
		}
	}
}

// --- Public API ---

// ServeConn attaches an authenticated connection and runs its read loop.
// It blocks until the peer disconnects or the hub evicts the session, then
// vacates every room the session joined.
func (h *Hub) ServeConn(connection *websocket.Conn, identity domain.Identity) {
	session := newSession(connection, identity, h.clock, h.sendBufferSize)
	h.cmdCh <- attachCmd{session: session}

	start := h.clock.Now()
	defer func() {
		h.cmdCh <- detachCmd{session: session}
		metrics.WebSocketConnectionDuration.Observe(h.clock.Since(start).Seconds())
	}()

	h.readLoop(session)
}

// Broadcast fans an event out to a group's room, skipping every session that
// belongs to excludeUserID. It never blocks: a full hub or session buffer
// drops the frame, and an absent room is a no-op.
func (h *Hub) Broadcast(groupID uuid.UUID, event any, excludeUserID uuid.UUID) {
	data, err := json.Marshal(event)
	if err != nil {
		logging.WithError(err).Error("Failed to marshal broadcast event", "group_id", groupID.String())
		return
	}

	select {
	case h.cmdCh <- broadcastCmd{groupID: groupID, data: data, excludeUserID: excludeUserID}:
	default:
		metrics.HubFramesDropped.Inc()
		slog.Warn("Hub command buffer full, dropping broadcast", "group_id", groupID.String())
	}
}

// RoomCount returns the number of sessions in a group's room.
// Returns -1 if the command times out.
func (h *Hub) RoomCount(groupID uuid.UUID) int {
	replyCh := make(chan int, 1)
	h.cmdCh <- roomCountCmd{groupID: groupID, replyChannel: replyCh}

	timer := h.clock.NewTimer(commandTimeout)
	defer timer.Stop()

	select {
	case count := <-replyCh:
		return count
	case <-timer.Chan():
		slog.Warn("RoomCount timed out", "timeout", commandTimeout)
		return -1
	}
}

// Presence returns the distinct users holding a live session in a group's
// room, ordered by user ID. Returns nil if the command times out.
func (h *Hub) Presence(groupID uuid.UUID) []uuid.UUID {
	replyCh := make(chan []uuid.UUID, 1)
	h.cmdCh <- presenceCmd{groupID: groupID, replyChannel: replyCh}

	timer := h.clock.NewTimer(commandTimeout)
	defer timer.Stop()

	select {
	case users := <-replyCh:
		return users
	case <-timer.Chan():
		slog.Warn("Presence timed out", "timeout", commandTimeout)
		return nil
	}
}

// Stop shuts the hub down, closing every session with a going-away frame.
// Blocks until the actor goroutine has exited or the stop timeout is reached.
func (h *Hub) Stop() {
	h.cmdCh <- stopCmd{}

	timeout := h.clock.NewTimer(stopTimeout)
	defer timeout.Stop()

	select {
	case <-h.done:
		slog.Info("Hub stopped gracefully")
	case <-timeout.Chan():
		slog.Warn("Hub stop timeout exceeded", "timeout", stopTimeout)
	}
}

// membershipSnapshot is a test hook exposing a consistent view of hub state.
func (h *Hub) membershipSnapshot() hubSnapshot {
	replyCh := make(chan hubSnapshot, 1)
	h.cmdCh <- snapshotCmd{replyChannel: replyCh}
	return <-replyCh
}

// --- Read loop ---

func (h *Hub) readLoop(session *Session) {
	for {
		_, data, err := session.connection.ReadMessage()
		if err != nil {
			return
		}

		msg, err := parseInbound(data)
		if err != nil {
			metrics.HubMalformedMessages.Inc()
			slog.Debug("Ignoring malformed message", "user_id", session.userID.String(), "error", err)
			continue
		}

		switch msg.Type {
		case messageJoinGroup:
			h.cmdCh <- joinCmd{session: session, groupID: msg.GroupID}
		case messageLeaveGroup:
			h.cmdCh <- leaveCmd{session: session, groupID: msg.GroupID}
		case messagePong:
			h.cmdCh <- ackCmd{session: session}
		}
	}
}

// --- Command handlers (actor goroutine only) ---

func (h *Hub) handleAttach(session *Session) {
	h.sessions[session] = livenessResponsive
	metrics.HubConnectedSessions.Set(float64(len(h.sessions)))
	slog.Debug("Session attached", "user_id", session.userID.String(), "total_sessions", len(h.sessions))
}

func (h *Hub) handleDetach(session *Session) {
	if _, attached := h.sessions[session]; !attached {
		return
	}

	for groupID := range h.sessionRooms[session] {
		h.removeFromRoom(session, groupID)
	}

	delete(h.sessions, session)
	session.stop()

	metrics.HubConnectedSessions.Set(float64(len(h.sessions)))
	slog.Debug("Session detached", "user_id", session.userID.String(), "total_sessions", len(h.sessions))
}

func (h *Hub) handleJoin(c joinCmd) {
	if _, attached := h.sessions[c.session]; !attached {
		return
	}

	room, exists := h.rooms[c.groupID]
	if !exists {
		room = make(map[*Session]struct{})
		h.rooms[c.groupID] = room
		metrics.HubRoomsCurrent.Set(float64(len(h.rooms)))
	}

	// Joining a room twice is a no-op
	if _, member := room[c.session]; member {
		return
	}
	room[c.session] = struct{}{}

	joined, exists := h.sessionRooms[c.session]
	if !exists {
		joined = make(map[uuid.UUID]struct{})
		h.sessionRooms[c.session] = joined
	}
	joined[c.groupID] = struct{}{}

	slog.Debug("Session joined room", "user_id", c.session.userID.String(), "group_id", c.groupID.String(), "room_size", len(room))
}

// removeFromRoom drops a session's membership. Leaving a room the session
// never joined is a no-op; the last member's exit deletes the room.
func (h *Hub) removeFromRoom(session *Session, groupID uuid.UUID) {
	room, exists := h.rooms[groupID]
	if !exists {
		return
	}
	if _, member := room[session]; !member {
		return
	}

	delete(room, session)
	if joined, ok := h.sessionRooms[session]; ok {
		delete(joined, groupID)
		if len(joined) == 0 {
			delete(h.sessionRooms, session)
		}
	}

	if len(room) == 0 {
		delete(h.rooms, groupID)
		metrics.HubRoomsCurrent.Set(float64(len(h.rooms)))
		slog.Debug("Room emptied", "group_id", groupID.String())
	} else {
		slog.Debug("Session left room", "user_id", session.userID.String(), "group_id", groupID.String(), "room_size", len(room))
	}
}

func (h *Hub) handleBroadcast(c broadcastCmd) {
	metrics.HubBroadcastsTotal.Inc()

	room, exists := h.rooms[c.groupID]
	if !exists {
		return
	}

	for session := range room {
		if session.userID == c.excludeUserID {
			continue
		}
		if session.trySend(c.data) {
			metrics.HubMessagesSentTotal.Inc()
		} else {
			metrics.HubFramesDropped.Inc()
			slog.Warn("Dropping frame for slow session", "user_id", session.userID.String(), "group_id", c.groupID.String())
		}
	}
}

func (h *Hub) handleAck(session *Session) {
	if _, attached := h.sessions[session]; attached {
		h.sessions[session] = livenessResponsive
	}
}

// handleHeartbeatTick probes every responsive session and evicts those that
// never answered the previous probe.
func (h *Hub) handleHeartbeatTick() {
	var expired []*Session
	for session, state := range h.sessions {
		if state == livenessAwaitingProbe {
			expired = append(expired, session)
			continue
		}
		h.sessions[session] = livenessAwaitingProbe
		if !session.trySend(pingFrame) {
			metrics.HubFramesDropped.Inc()
		}
	}

	for _, session := range expired {
		logging.WithUser(session.userID.String()).Info("Evicting unresponsive session")
		metrics.HubHeartbeatEvictions.Inc()
		h.handleDetach(session)
	}
}

func (h *Hub) presentUsers(groupID uuid.UUID) []uuid.UUID {
	room := h.rooms[groupID]

	seen := make(map[uuid.UUID]struct{}, len(room))
	users := make([]uuid.UUID, 0, len(room))
	for session := range room {
		if _, dup := seen[session.userID]; dup {
			continue
		}
		seen[session.userID] = struct{}{}
		users = append(users, session.userID)
	}

	slices.SortFunc(users, func(a, b uuid.UUID) int {
		return strings.Compare(a.String(), b.String())
	})
	return users
}

func (h *Hub) snapshot() hubSnapshot {
	snap := hubSnapshot{
		sessionCount: len(h.sessions),
		roomSizes:    make(map[uuid.UUID]int, len(h.rooms)),
	}
	for groupID, room := range h.rooms {
		snap.roomSizes[groupID] = len(room)
		for session := range room {
			if _, attached := h.sessions[session]; !attached {
				snap.orphaned++
			}
		}
	}
	return snap
}

func (h *Hub) handleStop() {
	total := len(h.sessions)
	slog.Info("Hub shutting down", "sessions", total, "rooms", len(h.rooms))

	h.closeAllSessions("server shutting down")

	slog.Info("Hub shutdown complete", "disconnected_sessions", total)
}

// closeAllSessions closes every session with the given reason. Used during
// graceful shutdown and panic recovery.
func (h *Hub) closeAllSessions(reason string) {
	for session := range h.sessions {
		session.stopGraceful(reason)
		delete(h.sessions, session)
		delete(h.sessionRooms, session)
	}
	for groupID := range h.rooms {
		delete(h.rooms, groupID)
	}
	metrics.HubConnectedSessions.Set(0)
	metrics.HubRoomsCurrent.Set(0)
}
