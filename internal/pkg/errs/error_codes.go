/*
Package errs provides custom error types and application-level error code constants.

These error codes are used to clearly identify specific business or system errors
both internally within the server and in communication with clients.
*/
package errs

// 1xxx: General Request Handling Errors
const (
	// ErrInvalidParams indicates that request parameter validation failed.
	ErrInvalidParams = 1001

	// ErrInvalidJSONFormat indicates that an inbound frame or request body was not valid JSON.
	ErrInvalidJSONFormat = 1002

	// ErrUnsupportedEvent indicates that the client sent an event name the relay does not handle.
	ErrUnsupportedEvent = 1003

	// ErrRateLimitExceeded indicates that the request rate has exceeded the set limit.
	ErrRateLimitExceeded = 1004
)

// 2xxx: Room and Message Business Logic Errors
const (
	// ErrRoomNameRequired indicates that a join was attempted with an empty or blank room name.
	ErrRoomNameRequired = 2101

	// ErrNotInRoom indicates that a message was posted by a session that has not joined any room.
	ErrNotInRoom = 2102

	// ErrMessageInvalid indicates that a posted message payload failed validation.
	ErrMessageInvalid = 2201

	// ErrMessageContentTooLong indicates that the message text exceeded the maximum length limit.
	ErrMessageContentTooLong = 2202
)

// 3xxx: Delivery Errors
const (
	// ErrDeliveryFailed indicates that a message could not be queued for one recipient.
	ErrDeliveryFailed = 3001
)

// 4xxx: Store Errors
const (
	// ErrStoreUnavailable indicates that the message store could not serve a read or write.
	ErrStoreUnavailable = 4001
)

// 5xxx: Internal System Errors
const (
	// ErrUnknown represents an unclassified, general server internal error.
	ErrUnknown = 5000
)
