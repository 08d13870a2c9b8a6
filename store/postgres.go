package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// pgConn is the subset of *pgxpool.Pool used by the store.
type pgConn interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

var _ Store = (*Postgres)(nil)

// Postgres keeps every item as a jsonb document in a single (pk, sk) keyed table.
type Postgres struct {
	db    pgConn
	table string
}

// NewPostgres connects a pool to databaseURL and ensures the item table exists.
func NewPostgres(ctx context.Context, databaseURL, table string) (*Postgres, *pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create postgres pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}
	p := NewPostgresWithConn(pool, table)
	if err := p.EnsureSchema(ctx); err != nil {
		pool.Close()
		return nil, nil, err
	}
	return p, pool, nil
}

// NewPostgresWithConn wraps an existing pool or connection.
func NewPostgresWithConn(db pgConn, table string) *Postgres {
	return &Postgres{
		db:    db,
		table: pgx.Identifier{table}.Sanitize(),
	}
}

// EnsureSchema creates the item table if it does not already exist.
// Safe to call repeatedly (idempotent).
func (p *Postgres) EnsureSchema(ctx context.Context) error {
	_, err := p.db.Exec(ctx, `
CREATE TABLE IF NOT EXISTS `+p.table+` (
  pk text NOT NULL,
  sk text NOT NULL,
  item jsonb NOT NULL,
  updated_at timestamptz NOT NULL DEFAULT NOW(),
  PRIMARY KEY (pk, sk)
)`)
	if err != nil {
		return fmt.Errorf("failed to ensure schema: %w", err)
	}
	return nil
}

func (p *Postgres) Get(ctx context.Context, key Key, out any) error {
	if err := key.validate(); err != nil {
		return err
	}
	var data []byte
	err := p.db.QueryRow(ctx, `SELECT item FROM `+p.table+` WHERE pk = $1 AND sk = $2`, key.PK, key.SK).Scan(&data)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to get %s: %w", key, err)
	}
	attrs := Attributes{}
	if err := json.Unmarshal(data, &attrs); err != nil {
		return fmt.Errorf("failed to unmarshal %s: %w", key, err)
	}
	return decode(attrs, out)
}

func (p *Postgres) encode(key Key, item any) ([]byte, error) {
	attrs, err := toAttributes(key, item)
	if err != nil {
		return nil, err
	}
	return json.Marshal(attrs)
}

func (p *Postgres) Put(ctx context.Context, key Key, item any) error {
	if err := key.validate(); err != nil {
		return err
	}
	data, err := p.encode(key, item)
	if err != nil {
		return err
	}
	_, err = p.db.Exec(ctx, `
INSERT INTO `+p.table+` (pk, sk, item) VALUES ($1, $2, $3)
ON CONFLICT (pk, sk) DO UPDATE SET item = EXCLUDED.item, updated_at = NOW()`, key.PK, key.SK, data)
	if err != nil {
		return fmt.Errorf("failed to put %s: %w", key, err)
	}
	return nil
}

func (p *Postgres) PutIfAbsent(ctx context.Context, key Key, item any) error {
	if err := key.validate(); err != nil {
		return err
	}
	data, err := p.encode(key, item)
	if err != nil {
		return err
	}
	tag, err := p.db.Exec(ctx, `
INSERT INTO `+p.table+` (pk, sk, item) VALUES ($1, $2, $3)
ON CONFLICT (pk, sk) DO NOTHING`, key.PK, key.SK, data)
	if err != nil {
		return fmt.Errorf("failed to put %s: %w", key, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrConditionFailed
	}
	return nil
}

func (p *Postgres) Update(ctx context.Context, key Key, fields map[string]any) error {
	if err := key.validate(); err != nil {
		return err
	}
	patch, err := normalize(fields)
	if err != nil {
		return err
	}
	delete(patch, AttrPK)
	delete(patch, AttrSK)
	data, err := json.Marshal(patch)
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", key, err)
	}
	tag, err := p.db.Exec(ctx, `
UPDATE `+p.table+` SET item = item || $3::jsonb, updated_at = NOW()
WHERE pk = $1 AND sk = $2`, key.PK, key.SK, data)
	if err != nil {
		return fmt.Errorf("failed to update %s: %w", key, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (p *Postgres) Delete(ctx context.Context, key Key) error {
	if err := key.validate(); err != nil {
		return err
	}
	if _, err := p.db.Exec(ctx, `DELETE FROM `+p.table+` WHERE pk = $1 AND sk = $2`, key.PK, key.SK); err != nil {
		return fmt.Errorf("failed to delete %s: %w", key, err)
	}
	return nil
}
