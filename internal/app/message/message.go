/*
Package message contains the core data structures for chat messages.

It defines the immutable Message value relayed to room members and persisted to the
message store, the Inbound payload shape accepted from clients, and the validation
rules applied before a post is accepted.
*/
package message

import (
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"relaychat/internal/pkg/errs"
	"relaychat/internal/pkg/randx"
)

// MaxTextBytes is the maximum allowed size (in bytes) for message text.
const MaxTextBytes = 5000

// Message is the immutable value relayed to room members and persisted per room.
// Field names on the wire follow the relay protocol: the sender label is assigned
// by the server from the session identity and is never taken from the client.
type Message struct {
	// ID uniquely identifies the message within its room.
	ID string `json:"id"`

	// Sender is the server-assigned identity label of the posting session.
	Sender string `json:"sender"`

	// User is the client-asserted display name.
	User string `json:"user"`

	// Room is the broadcast domain the message was posted to.
	Room string `json:"room"`

	// Text is the message body.
	Text string `json:"text"`

	// Subroom is an optional sub-partition within the room.
	Subroom string `json:"subroom,omitempty"`

	// Timestamp is the server receipt time in Unix milliseconds.
	Timestamp int64 `json:"date"`
}

// Inbound is the payload shape of a client "message" event.
// ID and Date are optional: the server assigns both when absent.
type Inbound struct {
	ID      string `json:"id,omitempty"`
	User    string `json:"user" validate:"required,notblank"`
	Room    string `json:"room" validate:"required,notblank"`
	Text    string `json:"text" validate:"required,notblank"`
	Subroom string `json:"subroom,omitempty"`
	Date    string `json:"date,omitempty"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	// "required" alone accepts whitespace-only strings.
	_ = v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})

	return v
}

// ValidateInbound checks an inbound post payload against the protocol rules:
// user, room, and text must be present and non-blank, and text must not exceed
// MaxTextBytes. It returns nil when the payload is acceptable.
func ValidateInbound(in Inbound) *errs.CustomError {
	if err := validate.Struct(in); err != nil {
		return errs.NewError(errs.ErrMessageInvalid)
	}

	if len(in.Text) > MaxTextBytes {
		return errs.NewError(errs.ErrMessageContentTooLong)
	}

	return nil
}

// ValidRoomName reports whether name is usable as a room identifier.
// Empty and whitespace-only names are rejected.
func ValidRoomName(name string) bool {
	return strings.TrimSpace(name) != ""
}

// New constructs a Message from a validated inbound payload. The sender label
// comes from the session, never from the payload; the ID is honored when the
// client supplied one, otherwise a fresh UUID is assigned; the timestamp is
// always the server clock.
func New(sender string, room string, in Inbound) Message {
	id := in.ID
	if id == "" {
		id = randx.MessageID()
	}

	return Message{
		ID:        id,
		Sender:    sender,
		User:      in.User,
		Room:      room,
		Text:      in.Text,
		Subroom:   in.Subroom,
		Timestamp: time.Now().UnixMilli(),
	}
}
