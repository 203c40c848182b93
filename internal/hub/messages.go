package hub

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// Inbound message types accepted from clients. Anything else is counted and
// ignored; a bad frame never terminates the connection.
const (
	messageJoinGroup  = "join_group"
	messageLeaveGroup = "leave_group"
	messagePong       = "pong"
)

// pingFrame is the liveness probe sent to every responsive session once per
// heartbeat interval. Clients answer with {"type":"pong"}.
var pingFrame = []byte(`{"type":"ping"}`)

// inboundMessage is the envelope for client-to-server frames.
type inboundMessage struct {
	Type    string    `json:"type"`
	GroupID uuid.UUID `json:"groupId"`
}

// parseInbound decodes and validates a client frame against the closed set of
// accepted message types.
func parseInbound(data []byte) (inboundMessage, error) {
	var msg inboundMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return inboundMessage{}, fmt.Errorf("invalid message: %w", err)
	}

	switch msg.Type {
	case messageJoinGroup, messageLeaveGroup:
		if msg.GroupID == uuid.Nil {
			return inboundMessage{}, fmt.Errorf("message %q requires a groupId", msg.Type)
		}
	case messagePong:
	default:
		return inboundMessage{}, fmt.Errorf("unknown message type %q", msg.Type)
	}

	return msg, nil
}
