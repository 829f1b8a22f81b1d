package message

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"relaychat/internal/pkg/errs"
)

func TestValidateInbound(t *testing.T) {
	valid := Inbound{User: "alice", Room: "general", Text: "hi"}

	tests := []struct {
		name     string
		mutate   func(in *Inbound)
		wantCode int
	}{
		{name: "valid payload", mutate: func(in *Inbound) {}, wantCode: 0},
		{name: "missing user", mutate: func(in *Inbound) { in.User = "" }, wantCode: errs.ErrMessageInvalid},
		{name: "missing room", mutate: func(in *Inbound) { in.Room = "" }, wantCode: errs.ErrMessageInvalid},
		{name: "missing text", mutate: func(in *Inbound) { in.Text = "" }, wantCode: errs.ErrMessageInvalid},
		{name: "whitespace-only text", mutate: func(in *Inbound) { in.Text = " \t\n" }, wantCode: errs.ErrMessageInvalid},
		{name: "whitespace-only room", mutate: func(in *Inbound) { in.Room = "   " }, wantCode: errs.ErrMessageInvalid},
		{name: "text too long", mutate: func(in *Inbound) { in.Text = strings.Repeat("x", MaxTextBytes+1) }, wantCode: errs.ErrMessageContentTooLong},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := require.New(t)

			in := valid
			tt.mutate(&in)

			customErr := ValidateInbound(in)
			if tt.wantCode == 0 {
				req.Nil(customErr)
				return
			}

			req.NotNil(customErr)
			req.Equal(tt.wantCode, customErr.Code)
		})
	}
}

func TestValidRoomName(t *testing.T) {
	req := require.New(t)

	req.True(ValidRoomName("general"))
	req.True(ValidRoomName("room with spaces"))
	req.False(ValidRoomName(""))
	req.False(ValidRoomName("   "))
	req.False(ValidRoomName("\t\n"))
}

func TestNewAssignsServerControlledFields(t *testing.T) {
	req := require.New(t)

	msg := New("anon-abc", "general", Inbound{User: "alice", Room: "ignored", Text: "hi", Subroom: "thread-1"})

	req.NotEmpty(msg.ID)
	req.Equal("anon-abc", msg.Sender)
	req.Equal("alice", msg.User)
	req.Equal("general", msg.Room, "the room comes from the session, not the payload")
	req.Equal("hi", msg.Text)
	req.Equal("thread-1", msg.Subroom)
	req.NotZero(msg.Timestamp)
}

func TestNewHonorsClientSuppliedID(t *testing.T) {
	req := require.New(t)

	msg := New("anon-abc", "general", Inbound{ID: "client-7", User: "alice", Room: "general", Text: "hi"})
	req.Equal("client-7", msg.ID)
}
