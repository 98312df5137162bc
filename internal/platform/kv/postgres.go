package kv

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/odyssey-erp/closeboard/internal/platform/db"
)

const postgresSchema = `CREATE TABLE IF NOT EXISTS closeboard_kv (
	kv_key     TEXT PRIMARY KEY,
	value      BYTEA NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`

const postgresUpsert = `INSERT INTO closeboard_kv (kv_key, value, updated_at) VALUES ($1, $2, now())
ON CONFLICT (kv_key) DO UPDATE SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at`

// Postgres stores values in the closeboard_kv table.
type Postgres struct {
	pool *pgxpool.Pool
}

// NewPostgres ensures the table exists.
func NewPostgres(ctx context.Context, pool *pgxpool.Pool) (*Postgres, error) {
	if pool == nil {
		return nil, errors.New("kv: postgres pool required")
	}
	if _, err := pool.Exec(ctx, postgresSchema); err != nil {
		return nil, fmt.Errorf("kv: postgres schema: %w", err)
	}
	return &Postgres{pool: pool}, nil
}

func (p *Postgres) Load(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	err := p.pool.QueryRow(ctx, `SELECT value FROM closeboard_kv WHERE kv_key = $1`, key).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("kv: postgres load %s: %w", key, err)
	}
	return value, nil
}

func (p *Postgres) Save(ctx context.Context, key string, value []byte) error {
	if _, err := p.pool.Exec(ctx, postgresUpsert, key, value); err != nil {
		return fmt.Errorf("kv: postgres save %s: %w", key, err)
	}
	return nil
}

func (p *Postgres) SaveMany(ctx context.Context, values map[string][]byte) error {
	return db.WithTx(ctx, p.pool, func(tx pgx.Tx) error {
		for k, v := range values {
			if _, err := tx.Exec(ctx, postgresUpsert, k, v); err != nil {
				return fmt.Errorf("kv: postgres save %s: %w", k, err)
			}
		}
		return nil
	})
}

func (p *Postgres) Close() error {
	p.pool.Close()
	return nil
}
