package relay

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
)

func newTestSession(id string) *Session {
	// Pumps are never started in registry tests, so no conn is needed.
	return NewSession(nil, nil, id)
}

func membershipCount(r *Registry, s *Session, rooms []string) int {
	count := 0
	for _, room := range rooms {
		for _, member := range r.Members(room) {
			if member == s {
				count++
			}
		}
	}
	return count
}

func TestJoinMovesSessionBetweenRooms(t *testing.T) {
	req := require.New(t)

	r := NewRegistry()
	s := newTestSession("s1")
	r.Register(s)

	r.Join(s, "general")
	room, ok := r.CurrentRoom(s)
	req.True(ok)
	req.Equal("general", room)
	req.Len(r.Members("general"), 1)

	// A re-join is a single observable hop: the previous membership is gone.
	r.Join(s, "random")
	room, ok = r.CurrentRoom(s)
	req.True(ok)
	req.Equal("random", room)
	req.Empty(r.Members("general"))
	req.Len(r.Members("random"), 1)
}

func TestDuplicateJoinKeepsMembershipUnchanged(t *testing.T) {
	req := require.New(t)

	r := NewRegistry()
	s1 := newTestSession("s1")
	s2 := newTestSession("s2")
	r.Register(s1)
	r.Register(s2)

	r.Join(s1, "general")
	r.Join(s2, "general")
	req.Len(r.Members("general"), 2)

	r.Join(s1, "general")
	req.Len(r.Members("general"), 2)
}

func TestLeaveAllRemovesMembership(t *testing.T) {
	req := require.New(t)

	r := NewRegistry()
	s := newTestSession("s1")
	r.Register(s)
	r.Join(s, "general")

	r.LeaveAll(s)

	req.Empty(r.Members("general"))
	_, ok := r.CurrentRoom(s)
	req.False(ok)

	// Leaving again is a no-op, not an error.
	r.LeaveAll(s)
}

func TestMembersOfUnknownRoomIsEmpty(t *testing.T) {
	req := require.New(t)

	r := NewRegistry()
	req.Empty(r.Members("never-created"))

	// An emptied room behaves the same as one that never existed.
	s := newTestSession("s1")
	r.Register(s)
	r.Join(s, "general")
	r.LeaveAll(s)
	req.Empty(r.Members("general"))
	req.Zero(r.RoomCount())
}

func TestUnregisterRetiresMembershipAndIsIdempotent(t *testing.T) {
	req := require.New(t)

	r := NewRegistry()
	s := newTestSession("s1")
	r.Register(s)
	r.Join(s, "general")

	req.True(r.Unregister(s))
	req.Empty(r.Members("general"))
	req.Empty(r.Sessions())

	req.False(r.Unregister(s))
}

// TestRandomizedJoinLeaveInvariant drives the registry through a randomized
// join/leave sequence and checks after every step that no session is counted
// as a member of more than one room.
func TestRandomizedJoinLeaveInvariant(t *testing.T) {
	req := require.New(t)

	rng := rand.New(rand.NewSource(1))
	r := NewRegistry()

	rooms := []string{"alpha", "beta", "gamma", "delta", "epsilon"}
	sessions := make([]*Session, 10)
	for i := range sessions {
		sessions[i] = newTestSession(fmt.Sprintf("s%d", i))
		r.Register(sessions[i])
	}

	for step := 0; step < 1000; step++ {
		s := sessions[rng.Intn(len(sessions))]

		switch rng.Intn(3) {
		case 0, 1:
			r.Join(s, rooms[rng.Intn(len(rooms))])
		case 2:
			r.LeaveAll(s)
		}

		for _, candidate := range sessions {
			count := membershipCount(r, candidate, rooms)
			req.LessOrEqual(count, 1, "step %d: session %s in %d rooms", step, candidate.ID(), count)

			room, ok := r.CurrentRoom(candidate)
			if ok {
				req.Equal(1, count, "step %d: session %s tracked in %q but found in %d member sets", step, candidate.ID(), room, count)
			} else {
				req.Zero(count)
			}
		}
	}
}
