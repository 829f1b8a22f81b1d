/*
Package relay contains the core logic of the chat relay.

This file defines the Session struct, representing one live WebSocket connection.
It manages the connection lifecycle, the message communication loops (ReadPump and
WritePump), and the delivery primitive used by the engine's fan-out.
*/
package relay

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"relaychat/internal/pkg/errs"
	"relaychat/internal/pkg/logx"
)

const (
	// timeout duration for writing to the WebSocket connection.
	writeWait = 10 * time.Second

	// maximum time allowed for the server to wait for a Pong message from the client.
	pongWait = 60 * time.Second

	// frequency at which the server sends a Ping message.
	pingPeriod = (pongWait * 9) / 10

	// maximum allowed size (in bytes) of a frame sent by the client.
	maxFrameSize = 8192

	// capacity of the per-session outbound queue.
	sendQueueSize = 256

	// SenderPrefix is prepended to the session ID to form the server-assigned
	// sender label. Identity is bound to the connection, never to the payload.
	SenderPrefix = "anon-"
)

// Session represents one live client connection and its relay-side state.
type Session struct {
	// unique identifier assigned at connect time, stable for the connection's lifetime.
	id string

	// underlying WebSocket connection object.
	conn *websocket.Conn

	// the engine this session dispatches inbound events to.
	engine *Engine

	// a buffered channel used to queue frames waiting to be sent to the client.
	send chan []byte

	// closeOnce guards the send channel so it is closed exactly once.
	closeOnce sync.Once

	// structured logger with session context.
	logger zerolog.Logger
}

// NewSession constructs a Session for an upgraded connection. The caller is
// expected to register it with the engine and start both pumps.
func NewSession(engine *Engine, conn *websocket.Conn, id string) *Session {
	sessionLogger := logx.Logger().With().
		Str("session_id", id).
		Logger()

	return &Session{
		id:     id,
		conn:   conn,
		engine: engine,
		send:   make(chan []byte, sendQueueSize),
		logger: sessionLogger,
	}
}

// ID returns the session's connection-scoped identifier.
func (s *Session) ID() string {
	return s.id
}

// Sender returns the server-assigned sender label for messages posted by this session.
func (s *Session) Sender() string {
	return SenderPrefix + s.id
}

// CurrentRoom returns the room this session currently occupies, or "" when it
// has not joined one.
func (s *Session) CurrentRoom() string {
	room, _ := s.engine.registry.CurrentRoom(s)
	return room
}

// Send encodes one event frame and queues it for delivery. The enqueue never
// blocks: a full or closed queue is reported as an error so the caller can
// treat it as a delivery failure for this one recipient.
func (s *Session) Send(event string, payload any) error {
	frame, err := encodeFrame(event, payload)
	if err != nil {
		s.logger.Error().Err(err).Str("event", event).Msg("Error encoding frame for session")
		return err
	}

	return s.enqueue(frame)
}

// enqueue places a frame on the outbound queue without blocking.
func (s *Session) enqueue(frame []byte) (err error) {
	// Sending on a closed channel panics; a session racing its own teardown
	// is a delivery failure, not a crash.
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("session %s closed", s.id)
		}
	}()

	select {
	case s.send <- frame:
		return nil
	default:
		s.logger.Warn().Int("queue_len", len(s.send)).Msg("Session send queue full, dropping frame")
		return fmt.Errorf("session %s send queue full", s.id)
	}
}

// SendError reports a rejected event back to this session only.
func (s *Session) SendError(err error) {
	var code int
	var msg string

	var customErr *errs.CustomError
	if errors.As(err, &customErr) {
		code = customErr.Code
		msg = customErr.Message
	} else {
		code = errs.ErrUnknown
		msg = "Internal server error."
	}

	if sendErr := s.Send(EventError, ErrorPayload{Code: code, Message: msg}); sendErr != nil {
		s.logger.Error().Err(sendErr).Int("code", code).Msg("Failed to queue error frame")
	}
}

// Close shuts the outbound queue down, which makes the WritePump send a close
// frame and exit. Safe to call more than once.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		close(s.send)
	})
}

// ReadPump reads frames from the WebSocket connection and dispatches them to
// the engine. It handles heartbeats (Pong) and performs cleanup when the
// connection drops.
func (s *Session) ReadPump() {
	defer s.cleanupOnDisconnect()

	s.conn.SetReadLimit(maxFrameSize)

	if err := s.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		s.logger.Error().Err(err).Msg("Failed to set read deadline")
		return
	}

	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, frameBytes, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.logger.Info().Err(err).Msg("Error reading frame (client close/going away)")
			}
			break
		}

		s.processInboundFrame(frameBytes)
	}
}

// cleanupOnDisconnect retires the session when its ReadPump terminates.
// Disconnect is the only cancellation signal: broadcasts already holding a
// membership snapshot may still attempt delivery, and simply fail harmlessly.
func (s *Session) cleanupOnDisconnect() {
	s.logger.Info().Msg("Session connection cleanup starting.")

	s.engine.HandleDisconnect(s)
	s.Close()

	if err := s.conn.Close(); err != nil {
		s.logger.Debug().Err(err).Msg("Session connection close error")
	}
}

// processInboundFrame decodes one envelope and routes it to the engine.
// A malformed frame rejects only that frame, never the connection.
func (s *Session) processInboundFrame(frameBytes []byte) {
	var env Envelope
	if err := json.Unmarshal(frameBytes, &env); err != nil {
		s.logger.Warn().Err(err).
			Bytes("frame_bytes", frameBytes).
			Msg("Session sent invalid JSON")
		s.SendError(errs.NewError(errs.ErrInvalidJSONFormat))
		return
	}

	switch env.Event {
	case EventJoin:
		var room string
		if err := json.Unmarshal(env.Payload, &room); err != nil {
			s.logger.Warn().Err(err).Msg("Session sent invalid JOIN payload")
			s.SendError(errs.NewError(errs.ErrInvalidJSONFormat))
			return
		}
		s.engine.HandleJoin(s, room)

	case EventMessage:
		s.engine.HandlePost(s, env.Payload)

	default:
		s.logger.Warn().Str("event", env.Event).Msg("Session sent unsupported event")
		s.SendError(errs.NewError(errs.ErrUnsupportedEvent))
	}
}

// WritePump writes frames from the send queue to the WebSocket connection and
// keeps the heartbeat alive. One WritePump runs per session; it owns all writes.
func (s *Session) WritePump() {
	ticker := time.NewTicker(pingPeriod)

	defer func() {
		ticker.Stop()

		if err := s.conn.Close(); err != nil {
			s.logger.Debug().Err(err).Msg("Session connection close error in WritePump")
		}
	}()

	for {
		select {
		case frame, ok := <-s.send:
			if !s.writeQueuedFrame(frame, ok) {
				return
			}

		case <-ticker.C:
			if !s.writePingMessage() {
				return
			}
		}
	}
}

// writeQueuedFrame writes one frame pulled from the send queue to the WebSocket.
// Returns true if the WritePump loop should continue, false if it should terminate.
func (s *Session) writeQueuedFrame(frame []byte, ok bool) bool {
	if err := s.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		s.logger.Error().Err(err).Msg("Failed to set write deadline")
		return false
	}

	if !ok {
		if err := s.conn.WriteMessage(websocket.CloseMessage, []byte{}); err != nil {
			s.logger.Debug().Err(err).Msg("Error writing close message")
		}
		return false
	}

	if err := s.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
		s.logger.Error().Err(err).Msg("Error writing frame")
		return false
	}

	return true
}

// writePingMessage sends a periodic WebSocket Ping message to maintain the connection heartbeat.
// Returns false if the WritePump loop should terminate due to write failure.
func (s *Session) writePingMessage() bool {
	if err := s.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		s.logger.Error().Err(err).Msg("Failed to set write deadline on ping")
		return false
	}

	if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
		s.logger.Error().Err(err).Msg("Error writing ping")
		return false
	}

	return true
}
