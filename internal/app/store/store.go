/*
Package store provides the durable message store consumed by the relay engine.

The store is an append-only record of messages keyed by room. Two backends are
available: PostgreSQL (pgx) for deployments with a database, and an embedded
Badger store as the zero-dependency default. Both satisfy the same narrow
interface; the relay never needs update or delete.
*/
package store

import (
	"context"

	"relaychat/internal/app/message"
)

// Store is the narrow persistence interface consumed by the relay engine.
// Append and ListByRoom are independent failure domains: a failing store
// degrades the relay to broadcast-only operation, it never aborts fan-out.
type Store interface {
	// Append durably records one message under its room.
	Append(ctx context.Context, msg message.Message) error

	// ListByRoom returns up to limit of the most recent messages for a room
	// in storage (arrival) order, oldest first. An unknown room yields an
	// empty slice, not an error.
	ListByRoom(ctx context.Context, room string, limit int) ([]message.Message, error)

	// Close releases the backend's resources.
	Close() error
}
