package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const notifyChannel = "homestats_config_changed"

const schemaSQL = `
CREATE TABLE IF NOT EXISTS homestats_config (
	key        TEXT PRIMARY KEY,
	data       BYTEA NOT NULL,
	origin     TEXT NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`

// PostgresReplica mirrors the config into a row of homestats_config and
// announces writes with NOTIFY. The payload is the writer's origin id.
type PostgresReplica struct {
	pool   *pgxpool.Pool
	key    string
	origin string
}

// NewPostgresReplica opens a pool, verifies it and ensures the table exists.
func NewPostgresReplica(ctx context.Context, connString, key string) (*PostgresReplica, error) {
	config, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}

	config.MaxConns = 4
	config.MaxConnLifetime = time.Hour
	config.HealthCheckPeriod = 30 * time.Second

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("open postgres pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	if _, err := pool.Exec(ctx, schemaSQL); err != nil {
		pool.Close()
		return nil, fmt.Errorf("create homestats_config table: %w", err)
	}

	if key == "" {
		key = Key
	}
	return &PostgresReplica{pool: pool, key: key, origin: uuid.NewString()}, nil
}

// Load implements Replica.
func (r *PostgresReplica) Load(ctx context.Context) ([]byte, error) {
	var data []byte
	err := r.pool.QueryRow(ctx, `SELECT data FROM homestats_config WHERE key = $1`, r.key).Scan(&data)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("select config: %w", err)
	}
	return data, nil
}

// Save implements Replica.
func (r *PostgresReplica) Save(ctx context.Context, data []byte) error {
	if len(data) > MaxPayloadBytes {
		return ErrQuotaExceeded
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	_, err = tx.Exec(ctx, `
		INSERT INTO homestats_config (key, data, origin, updated_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (key) DO UPDATE SET
			data = EXCLUDED.data,
			origin = EXCLUDED.origin,
			updated_at = EXCLUDED.updated_at`,
		r.key, data, r.origin)
	if err != nil {
		return classifyPgError(err)
	}

	if _, err := tx.Exec(ctx, `SELECT pg_notify($1, $2)`, notifyChannel, r.origin); err != nil {
		return fmt.Errorf("notify: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return classifyPgError(err)
	}
	return nil
}

// Watch implements Replica. It holds one pooled connection for LISTEN.
func (r *PostgresReplica) Watch(ctx context.Context, fn func(ChangeReason)) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire listen connection: %w", err)
	}
	defer conn.Release()

	if _, err := conn.Exec(ctx, "LISTEN "+notifyChannel); err != nil {
		return fmt.Errorf("listen: %w", err)
	}
	fn(ReasonInitialSync)

	for {
		n, err := conn.Conn().WaitForNotification(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("wait for notification: %w", err)
		}
		if n.Payload == r.origin {
			continue
		}
		fn(ReasonServerChange)
	}
}

// Close implements Replica.
func (r *PostgresReplica) Close() error {
	r.pool.Close()
	return nil
}

// classifyPgError maps out-of-space conditions to ErrQuotaExceeded.
func classifyPgError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "53100", "53400", "54000":
			return fmt.Errorf("%w: %s", ErrQuotaExceeded, pgErr.Message)
		}
	}
	return fmt.Errorf("upsert config: %w", err)
}
