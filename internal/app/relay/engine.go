/*
Package relay contains the core logic of the chat relay.

This file defines the Engine, the protocol state machine driving each session's
interaction: join with private history catch-up, post with persist-and-broadcast
fan-out, the hello liveness broadcast, and disconnect handling.
*/
package relay

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rs/zerolog"

	"relaychat/internal/app/message"
	"relaychat/internal/app/metrics"
	"relaychat/internal/app/store"
	"relaychat/internal/pkg/errs"
	"relaychat/internal/pkg/logx"
)

// helloPayload is the constant payload of the hello liveness broadcast.
const helloPayload = "world"

// Engine orchestrates join, post, and disconnect operations across the
// Registry and the message store, and drives fan-out to sessions.
//
// Persistence and broadcast are independent side effects with their own
// failure domains: a store failure is logged and counted but never blocks
// the broadcast, so the relay degrades to live-only operation when the
// store is unavailable.
type Engine struct {
	registry *Registry
	store    store.Store

	// historyLimit caps the number of messages fetched on join.
	historyLimit int

	// historyTimeout bounds store reads and writes so a stalled store
	// cannot stall a session. A timed-out history fetch joins with an
	// empty batch.
	historyTimeout time.Duration

	// structured logger with Engine context.
	logger zerolog.Logger
}

// NewEngine constructs an Engine over the given store.
func NewEngine(st store.Store, historyLimit int, historyTimeout time.Duration) *Engine {
	engineLogger := logx.Logger().With().Str("component", "Engine").Logger()

	return &Engine{
		registry:       NewRegistry(),
		store:          st,
		historyLimit:   historyLimit,
		historyTimeout: historyTimeout,
		logger:         engineLogger,
	}
}

// Registry exposes the engine's room registry.
func (e *Engine) Registry() *Registry {
	return e.registry
}

// HandleConnect registers a newly upgraded session with the relay.
func (e *Engine) HandleConnect(s *Session) {
	e.registry.Register(s)
	metrics.ConnectionsActive.Inc()

	e.logger.Info().Str("session_id", s.ID()).Msg("Session connected.")
}

// HandleDisconnect retires a session's membership. It is idempotent and never
// errors; a session that was already retired is ignored.
func (e *Engine) HandleDisconnect(s *Session) {
	if !e.registry.Unregister(s) {
		return
	}

	metrics.ConnectionsActive.Dec()
	e.logger.Info().Str("session_id", s.ID()).Msg("Session disconnected.")
}

// HandleJoin moves a session into a room and delivers the room's persisted
// history privately to the joiner. Existing members are not notified: the
// catch-up batch is the only join acknowledgment.
//
// A blank room name is rejected with a validation error and produces no
// membership change.
func (e *Engine) HandleJoin(s *Session, room string) {
	if !message.ValidRoomName(room) {
		e.logger.Warn().Str("session_id", s.ID()).Msg("Join rejected: blank room name")
		s.SendError(errs.NewError(errs.ErrRoomNameRequired))
		return
	}

	e.registry.Join(s, room)

	ctx, cancel := context.WithTimeout(context.Background(), e.historyTimeout)
	defer cancel()

	history, err := e.store.ListByRoom(ctx, room, e.historyLimit)
	if err != nil {
		// Join still succeeds; the client just catches up with nothing.
		e.logger.Error().Err(err).
			Str("session_id", s.ID()).
			Str("room", room).
			Msg("History fetch failed, joining with empty history")
		metrics.StoreFailuresTotal.WithLabelValues("list").Inc()
		history = nil
	}

	if history == nil {
		history = []message.Message{}
	}

	if err := s.Send(EventMessages, HistoryPayload{Messages: history}); err != nil {
		e.logger.Warn().Err(err).
			Str("session_id", s.ID()).
			Str("room", room).
			Msg("Failed to deliver history batch")
		metrics.MessagesTotal.WithLabelValues("dropped").Inc()
	}
}

// HandlePost validates a posted payload, constructs the authoritative Message,
// broadcasts it to the sender's current room, and persists it.
//
// The sender label and the target room are derived from the session, never
// from the payload; a post from a session that has not joined a room is
// rejected. Broadcast proceeds regardless of the store outcome.
func (e *Engine) HandlePost(s *Session, payload json.RawMessage) {
	var in message.Inbound
	if err := json.Unmarshal(payload, &in); err != nil {
		e.logger.Warn().Err(err).Str("session_id", s.ID()).Msg("Post rejected: invalid payload JSON")
		s.SendError(errs.NewError(errs.ErrInvalidJSONFormat))
		metrics.MessagesTotal.WithLabelValues("rejected").Inc()
		return
	}

	if customErr := message.ValidateInbound(in); customErr != nil {
		e.logger.Warn().
			Str("session_id", s.ID()).
			Int("code", customErr.Code).
			Msg("Post rejected: payload validation failed")
		s.SendError(customErr)
		metrics.MessagesTotal.WithLabelValues("rejected").Inc()
		return
	}

	room, ok := e.registry.CurrentRoom(s)
	if !ok {
		e.logger.Warn().Str("session_id", s.ID()).Msg("Post rejected: session not in a room")
		s.SendError(errs.NewError(errs.ErrNotInRoom))
		metrics.MessagesTotal.WithLabelValues("rejected").Inc()
		return
	}

	msg := message.New(s.Sender(), room, in)

	e.broadcast(room, msg)
	e.persist(msg)
}

// broadcast delivers one message to every current member of a room, the
// sender included, so recipients can confirm delivery of their own posts.
// Each delivery is an independent attempt: one full or closed recipient
// queue never affects the others.
func (e *Engine) broadcast(room string, msg message.Message) {
	members := e.registry.Members(room)
	metrics.FanoutSize.Observe(float64(len(members)))

	for _, member := range members {
		if err := member.Send(EventMessage, msg); err != nil {
			e.logger.Warn().Err(err).
				Str("recipient_id", member.ID()).
				Str("message_id", msg.ID).
				Str("room", room).
				Msg("Delivery failed for one recipient")
			metrics.MessagesTotal.WithLabelValues("dropped").Inc()
			continue
		}
		metrics.MessagesTotal.WithLabelValues("delivered").Inc()
	}
}

// persist appends one message to the store. Failures degrade the relay to
// broadcast-only: they are logged and counted, nothing else.
func (e *Engine) persist(msg message.Message) {
	ctx, cancel := context.WithTimeout(context.Background(), e.historyTimeout)
	defer cancel()

	if err := e.store.Append(ctx, msg); err != nil {
		e.logger.Error().Err(err).
			Str("message_id", msg.ID).
			Str("room", msg.Room).
			Msg("Failed to persist message")
		metrics.StoreFailuresTotal.WithLabelValues("append").Inc()
	}
}

// HandleHello broadcasts the constant hello payload to every connected
// session, in a room or not. Purely diagnostic: no state effect.
func (e *Engine) HandleHello() int {
	sessions := e.registry.Sessions()

	for _, s := range sessions {
		if err := s.Send(EventHello, helloPayload); err != nil {
			e.logger.Warn().Err(err).Str("session_id", s.ID()).Msg("Hello delivery failed for one session")
		}
	}

	return len(sessions)
}

// Shutdown closes every connected session's outbound queue, which makes each
// WritePump send a close frame and exit.
func (e *Engine) Shutdown() {
	e.logger.Info().Msg("Shutting down engine, closing all sessions...")

	for _, s := range e.registry.Sessions() {
		s.Close()
	}

	e.logger.Info().Msg("Engine shutdown complete.")
}
