/*
Package relay contains the core logic of the chat relay.

This file defines the Registry, the single source of truth for room membership.
It maps room names to member sets and tracks every connected session, and it is
the only shared mutable state between session goroutines.
*/
package relay

import (
	"fmt"
	"sync"

	"github.com/rs/zerolog"
	"github.com/samber/lo"

	"relaychat/internal/app/metrics"
	"relaychat/internal/pkg/logx"
)

// Registry maintains the mapping from room name to the set of member sessions.
//
// Membership sets are the sole determinant of broadcast recipients. A session
// is a member of at most one room at any time; Join enforces this by leaving
// the previous room first. Rooms exist only as keys of the membership map:
// they are created lazily on first join and deleted when the last member
// leaves, so Members on an unknown room simply yields an empty snapshot.
type Registry struct {
	// mu serializes all membership mutations.
	mu sync.RWMutex

	// rooms maps room name to its member set.
	rooms map[string]map[*Session]struct{}

	// current maps each session to the room it occupies, if any.
	current map[*Session]string

	// sessions is the set of all connected sessions, in a room or not.
	sessions map[*Session]struct{}

	// structured logger with Registry context.
	logger zerolog.Logger
}

// NewRegistry constructs an empty Registry.
func NewRegistry() *Registry {
	registryLogger := logx.Logger().With().Str("component", "Registry").Logger()

	return &Registry{
		rooms:    make(map[string]map[*Session]struct{}),
		current:  make(map[*Session]string),
		sessions: make(map[*Session]struct{}),
		logger:   registryLogger,
	}
}

// Register adds a newly connected session to the connection set.
// The session is not a member of any room until it joins one.
func (r *Registry) Register(s *Session) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.sessions[s] = struct{}{}
}

// Unregister removes a session from the connection set and from any room it
// occupies. It reports whether the session was still registered, so callers
// can keep disconnect handling idempotent.
func (r *Registry) Unregister(s *Session) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.sessions[s]; !ok {
		return false
	}

	r.leaveLocked(s)
	delete(r.sessions, s)
	return true
}

// Join moves a session into a room, leaving its previous room first.
// Joining the room the session already occupies is a no-op.
func (r *Registry) Join(s *Session, room string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if cur, ok := r.current[s]; ok && cur == room {
		return
	}

	r.leaveLocked(s)

	set, ok := r.rooms[room]
	if !ok {
		set = make(map[*Session]struct{})
		r.rooms[room] = set
		metrics.RoomsActive.Set(float64(len(r.rooms)))
	}

	set[s] = struct{}{}
	r.current[s] = room

	r.logger.Debug().
		Str("session_id", s.ID()).
		Str("room", room).
		Int("members", len(set)).
		Msg("Session joined room.")
}

// LeaveAll removes a session from whatever room it occupies.
// It is a no-op when the session is not a member of any room.
func (r *Registry) LeaveAll(s *Session) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.leaveLocked(s)
}

// leaveLocked removes s from its current room under the registry lock.
// A cross-index mismatch between current and rooms means the single-room
// invariant was broken, which is a programming error and fatal.
func (r *Registry) leaveLocked(s *Session) {
	room, ok := r.current[s]
	if !ok {
		return
	}

	set, ok := r.rooms[room]
	if !ok {
		panic(fmt.Sprintf("registry invariant violated: session %s tracked in unknown room %q", s.ID(), room))
	}
	if _, ok := set[s]; !ok {
		panic(fmt.Sprintf("registry invariant violated: session %s missing from member set of room %q", s.ID(), room))
	}

	delete(set, s)
	delete(r.current, s)

	if len(set) == 0 {
		delete(r.rooms, room)
		metrics.RoomsActive.Set(float64(len(r.rooms)))
	}
}

// Members returns a snapshot of the sessions currently in a room.
// Unknown and emptied rooms both yield an empty slice, never an error.
func (r *Registry) Members(room string) []*Session {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return lo.Keys(r.rooms[room])
}

// Sessions returns a snapshot of every connected session.
func (r *Registry) Sessions() []*Session {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return lo.Keys(r.sessions)
}

// CurrentRoom returns the room a session occupies and whether it occupies one.
func (r *Registry) CurrentRoom(s *Session) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	room, ok := r.current[s]
	return room, ok
}

// RoomCount returns the number of rooms with at least one member.
func (r *Registry) RoomCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.rooms)
}
