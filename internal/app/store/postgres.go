package store

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"github.com/rs/zerolog"

	"relaychat/internal/app/message"
	"relaychat/internal/pkg/logx"
)

//go:embed migrations/*.sql
var embedMigrations embed.FS

// PostgresStore persists messages to a PostgreSQL messages table.
// Arrival order is the bigserial seq column, so reads by room are totally
// ordered regardless of client-supplied timestamps.
type PostgresStore struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewPostgresStore initializes a PostgreSQL connection pool, runs pending
// migrations, and returns the store.
func NewPostgresStore(dsn string) (*PostgresStore, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	config, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database DSN: %w", err)
	}

	config.MaxConns = 25
	config.MinConns = 5
	config.MaxConnLifetime = 30 * time.Minute
	config.MaxConnIdleTime = 5 * time.Minute
	config.HealthCheckPeriod = 1 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	sqlDB := stdlib.OpenDB(*pool.Config().ConnConfig)
	defer sqlDB.Close()

	if err := runMigrations(sqlDB); err != nil {
		pool.Close()
		return nil, err
	}

	storeLogger := logx.Logger().With().Str("component", "PostgresStore").Logger()

	return &PostgresStore{pool: pool, logger: storeLogger}, nil
}

// runMigrations applies all pending migrations from the embedded file system.
func runMigrations(db *sql.DB) error {
	goose.SetBaseFS(embedMigrations)

	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}

	if err := goose.Up(db, "migrations"); err != nil {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}

	logx.Info("Database migrations applied successfully.")
	return nil
}

// Append inserts one message row.
func (s *PostgresStore) Append(ctx context.Context, msg message.Message) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO messages (id, room, sender, username, text, subroom, date)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		msg.ID, msg.Room, msg.Sender, msg.User, msg.Text, msg.Subroom, msg.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("store: append message %s: %w", msg.ID, err)
	}
	return nil
}

// ListByRoom returns the most recent limit messages for a room in arrival order,
// oldest first.
func (s *PostgresStore) ListByRoom(ctx context.Context, room string, limit int) ([]message.Message, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, room, sender, username, text, subroom, date
		 FROM messages WHERE room = $1
		 ORDER BY seq DESC LIMIT $2`,
		room, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("store: list messages for room %q: %w", room, err)
	}
	defer rows.Close()

	messages := make([]message.Message, 0, limit)
	for rows.Next() {
		var m message.Message
		if err := rows.Scan(&m.ID, &m.Room, &m.Sender, &m.User, &m.Text, &m.Subroom, &m.Timestamp); err != nil {
			return nil, fmt.Errorf("store: scan message row: %w", err)
		}
		messages = append(messages, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: iterate message rows: %w", err)
	}

	// The query walks newest-first for the LIMIT; callers expect oldest-first.
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}

	return messages, nil
}

// Close shuts down the connection pool.
func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}
