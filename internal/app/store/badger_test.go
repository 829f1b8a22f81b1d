package store

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"relaychat/internal/app/message"
)

func newTestBadgerStore(t *testing.T) *BadgerStore {
	t.Helper()

	st, err := NewBadgerStore(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, st.Close())
	})

	return st
}

func testMessage(room string, n int) message.Message {
	return message.Message{
		ID:        fmt.Sprintf("id-%d", n),
		Sender:    "anon-test",
		User:      "alice",
		Room:      room,
		Text:      fmt.Sprintf("message %d", n),
		Timestamp: int64(1000 + n),
	}
}

func TestBadgerAppendAndListInArrivalOrder(t *testing.T) {
	req := require.New(t)
	st := newTestBadgerStore(t)
	ctx := context.Background()

	for n := 1; n <= 3; n++ {
		req.NoError(st.Append(ctx, testMessage("general", n)))
	}

	messages, err := st.ListByRoom(ctx, "general", 50)
	req.NoError(err)
	req.Len(messages, 3)
	req.Equal("message 1", messages[0].Text)
	req.Equal("message 2", messages[1].Text)
	req.Equal("message 3", messages[2].Text)
}

func TestBadgerListHonorsLimitKeepingMostRecent(t *testing.T) {
	req := require.New(t)
	st := newTestBadgerStore(t)
	ctx := context.Background()

	for n := 1; n <= 10; n++ {
		req.NoError(st.Append(ctx, testMessage("general", n)))
	}

	messages, err := st.ListByRoom(ctx, "general", 4)
	req.NoError(err)
	req.Len(messages, 4)

	// The most recent four, still oldest-first.
	req.Equal("message 7", messages[0].Text)
	req.Equal("message 10", messages[3].Text)
}

func TestBadgerRoomsAreIsolated(t *testing.T) {
	req := require.New(t)
	st := newTestBadgerStore(t)
	ctx := context.Background()

	req.NoError(st.Append(ctx, testMessage("general", 1)))
	req.NoError(st.Append(ctx, testMessage("random", 2)))

	general, err := st.ListByRoom(ctx, "general", 50)
	req.NoError(err)
	req.Len(general, 1)
	req.Equal("general", general[0].Room)

	random, err := st.ListByRoom(ctx, "random", 50)
	req.NoError(err)
	req.Len(random, 1)
	req.Equal("random", random[0].Room)
}

func TestBadgerUnknownRoomYieldsEmpty(t *testing.T) {
	req := require.New(t)
	st := newTestBadgerStore(t)

	messages, err := st.ListByRoom(context.Background(), "never-used", 50)
	req.NoError(err)
	req.Empty(messages)
}

func TestBadgerRoundTripsAllFields(t *testing.T) {
	req := require.New(t)
	st := newTestBadgerStore(t)
	ctx := context.Background()

	original := message.Message{
		ID:        "id-1",
		Sender:    "anon-xyz",
		User:      "bob",
		Room:      "general",
		Text:      "hello there",
		Subroom:   "thread-9",
		Timestamp: 1234567890,
	}
	req.NoError(st.Append(ctx, original))

	messages, err := st.ListByRoom(ctx, "general", 1)
	req.NoError(err)
	req.Len(messages, 1)
	req.Equal(original, messages[0])
}
