package hub

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"

	"github.com/jasselhoff/festival-planner/internal/domain"
)

const writeDeadline = 5 * time.Second

// Session is one authenticated WebSocket connection. Frames are written by a
// dedicated goroutine so the hub never blocks on a slow peer.
type Session struct {
	connection  *websocket.Conn
	userID      uuid.UUID
	userName    string
	clock       clockwork.Clock
	sendChannel chan []byte
	doneChannel chan struct{}
	stopOnce    sync.Once
	wg          sync.WaitGroup
}

func newSession(connection *websocket.Conn, identity domain.Identity, clock clockwork.Clock, bufferSize int) *Session {
	s := &Session{
		connection:  connection,
		userID:      identity.UserID,
		userName:    identity.DisplayName,
		clock:       clock,
		sendChannel: make(chan []byte, bufferSize),
		doneChannel: make(chan struct{}),
	}
	s.wg.Add(1)
	go s.writePump()
	return s
}

func (s *Session) writePump() {
	defer s.wg.Done()

	for {
		select {
		case msg, ok := <-s.sendChannel:
			if !ok {
				return
			}
			_ = s.connection.SetWriteDeadline(s.clock.Now().Add(writeDeadline))
			if err := s.connection.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-s.doneChannel:
			return
		}
	}
}

// trySend queues a frame without blocking. Reports whether the frame was
// accepted; a full buffer means the frame is dropped.
func (s *Session) trySend(data []byte) bool {
	select {
	case s.sendChannel <- data:
		return true
	default:
		return false
	}
}

func (s *Session) stop() {
	s.stopOnce.Do(func() {
		close(s.doneChannel)
		_ = s.connection.Close()
	})
	s.wg.Wait()
}

// stopGraceful sends a WebSocket close frame with reason before closing.
func (s *Session) stopGraceful(reason string) {
	s.stopOnce.Do(func() {
		// Signal the write goroutine to exit first so the close frame is
		// not interleaved with a concurrent write.
		close(s.doneChannel)
		s.wg.Wait()

		closeMsg := websocket.FormatCloseMessage(websocket.CloseGoingAway, reason)
		_ = s.connection.SetWriteDeadline(s.clock.Now().Add(writeDeadline))
		_ = s.connection.WriteMessage(websocket.CloseMessage, closeMsg)
		_ = s.connection.Close()
	})
}
