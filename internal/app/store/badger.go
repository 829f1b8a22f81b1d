package store

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/dgraph-io/badger/v4"
	"github.com/rs/zerolog"

	"relaychat/internal/app/message"
	"relaychat/internal/pkg/logx"
)

// keyPrefix namespaces message keys inside the Badger keyspace.
const keyPrefix = "msg:"

// BadgerStore persists messages to an embedded Badger key-value store.
//
// Keys are formatted as "msg:<room>:<timestamp_padded>:<id>" so that a plain
// prefix scan over a room yields arrival order: the 19-digit zero padding makes
// lexicographic order match chronological order, and the message ID breaks ties
// when two messages land on the same millisecond.
type BadgerStore struct {
	db     *badger.DB
	logger zerolog.Logger
}

// NewBadgerStore opens (or creates) a Badger database under dir.
func NewBadgerStore(dir string) (*BadgerStore, error) {
	opts := badger.DefaultOptions(dir).WithLogger(nil)

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("store: open badger at %s: %w", dir, err)
	}

	storeLogger := logx.Logger().With().Str("component", "BadgerStore").Logger()

	return &BadgerStore{db: db, logger: storeLogger}, nil
}

// roomSegment escapes a room name for use inside a key, so a room name
// containing ":" cannot collide with another room's prefix.
func roomSegment(room string) string {
	return url.QueryEscape(room)
}

// messageKey builds the sortable key for one message.
func messageKey(msg message.Message) []byte {
	return fmt.Appendf(nil, "%s%s:%019d:%s", keyPrefix, roomSegment(msg.Room), msg.Timestamp, msg.ID)
}

// Append records one message under its room.
func (s *BadgerStore) Append(ctx context.Context, msg message.Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	value, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("store: encode message %s: %w", msg.ID, err)
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(messageKey(msg), value)
	})
	if err != nil {
		return fmt.Errorf("store: append message %s: %w", msg.ID, err)
	}
	return nil
}

// ListByRoom returns the most recent limit messages for a room in arrival
// order, oldest first. It walks the room prefix newest-first to honor the
// limit, then reverses the collected batch.
func (s *BadgerStore) ListByRoom(ctx context.Context, room string, limit int) ([]message.Message, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var raw [][]byte

	err := s.db.View(func(txn *badger.Txn) error {
		prefix := []byte(keyPrefix + roomSegment(room) + ":")

		options := badger.DefaultIteratorOptions
		options.Reverse = true
		it := txn.NewIterator(options)
		defer it.Close()

		// Seek past the newest possible key for this room, then walk backwards.
		seekKey := append(append([]byte{}, prefix...), []byte("9999999999999999999")...)

		for it.Seek(seekKey); it.ValidForPrefix(prefix); it.Next() {
			if len(raw) == limit {
				break
			}

			err := it.Item().Value(func(value []byte) error {
				raw = append(raw, append([]byte{}, value...))
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("store: list messages for room %q: %w", room, err)
	}

	messages := make([]message.Message, 0, len(raw))
	for i := len(raw) - 1; i >= 0; i-- {
		var m message.Message
		if err := json.Unmarshal(raw[i], &m); err != nil {
			return nil, fmt.Errorf("store: decode message: %w", err)
		}
		messages = append(messages, m)
	}

	return messages, nil
}

// Close flushes and closes the underlying database.
func (s *BadgerStore) Close() error {
	return s.db.Close()
}
