// Package hub implements the room-based WebSocket fan-out using the actor pattern.
//
// One goroutine owns all room and session state and consumes a command channel
// (no mutexes). Each session gets a dedicated write goroutine with a bounded
// buffer; frames for slow peers are dropped rather than blocking the hub.
// Liveness is tracked with an application-level ping/pong cycle driven by a
// clockwork ticker.
package hub
