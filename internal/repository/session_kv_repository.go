package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DBTX is the subset of *pgxpool.Pool used by repositories.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Ping(ctx context.Context) error
}

// SessionKVRepository persists console session values in console_session_kv.
type SessionKVRepository interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, keys ...string) error
	Ping(ctx context.Context) error
}

type sessionKVRepository struct {
	db DBTX
}

// NewSessionKVRepository constructs repository.
func NewSessionKVRepository(db DBTX) SessionKVRepository {
	return &sessionKVRepository{db: db}
}

func (r *sessionKVRepository) Get(ctx context.Context, key string) (string, bool, error) {
	const query = `
        SELECT value FROM console_session_kv WHERE key=$1`
	var value string
	if err := r.db.QueryRow(ctx, query, key).Scan(&value); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", false, nil
		}
		return "", false, err
	}
	return value, true, nil
}

func (r *sessionKVRepository) Set(ctx context.Context, key, value string) error {
	const query = `
        INSERT INTO console_session_kv (key, value, updated_at)
        VALUES ($1,$2,NOW())
        ON CONFLICT (key) DO UPDATE SET value=EXCLUDED.value, updated_at=NOW()`
	_, err := r.db.Exec(ctx, query, key, value)
	return err
}

func (r *sessionKVRepository) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	const query = `
        DELETE FROM console_session_kv WHERE key = ANY($1)`
	_, err := r.db.Exec(ctx, query, keys)
	return err
}

func (r *sessionKVRepository) Ping(ctx context.Context) error {
	if r.db == nil {
		return errors.New("postgres pool not configured")
	}
	return r.db.Ping(ctx)
}
