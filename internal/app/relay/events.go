/*
Package relay contains the core logic of the chat relay: the in-memory room
registry, the per-connection session, and the engine driving the join, post,
and fan-out protocol.

This file defines the wire protocol envelope and the event payload types
exchanged with clients.
*/
package relay

import (
	"encoding/json"

	"relaychat/internal/app/message"
)

// Event names used on the WebSocket wire in both directions.
const (
	// EventJoin is sent by a client to enter a room. Payload: room name string.
	EventJoin = "join"

	// EventMessage carries a chat message: inbound as a post, outbound as a broadcast.
	EventMessage = "message"

	// EventMessages carries the room history batch sent privately to a joining session.
	EventMessages = "messages"

	// EventHello is the diagnostic liveness broadcast. Payload: the constant "world".
	EventHello = "hello"

	// EventError reports a rejected event back to the offending session only.
	EventError = "error"
)

// Envelope is the framing for every WebSocket message: an event name plus a
// JSON payload whose shape depends on the event.
type Envelope struct {
	Event   string          `json:"event"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// HistoryPayload is the payload of an EventMessages frame: the room's persisted
// messages in storage order, oldest first.
type HistoryPayload struct {
	Messages []message.Message `json:"messages"`
}

// ErrorPayload is the payload of an EventError frame.
type ErrorPayload struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// encodeFrame marshals an outbound event into its wire form.
func encodeFrame(event string, payload any) ([]byte, error) {
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	return json.Marshal(Envelope{
		Event:   event,
		Payload: payloadBytes,
	})
}
