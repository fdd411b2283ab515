package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DB is the pgx-backed KV implementation: one JSONB table keyed by
// record name.
type DB struct {
	Pool *pgxpool.Pool
}

func Connect(databaseURL string) (*DB, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		return nil, err
	}
	return &DB{Pool: pool}, nil
}

func (db *DB) Close() {
	db.Pool.Close()
}

func Migrate(db *DB) error {
	_, err := db.Pool.Exec(context.Background(), `
		CREATE TABLE IF NOT EXISTS panel_kv (
			key   TEXT PRIMARY KEY,
			value JSONB NOT NULL
		);
	`)
	return err
}

func (db *DB) Get(ctx context.Context, key string, out any) (bool, error) {
	var raw []byte
	err := db.Pool.QueryRow(ctx, `SELECT value FROM panel_kv WHERE key = $1`, key).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return false, err
	}
	return true, nil
}

func (db *DB) Set(ctx context.Context, key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	_, err = db.Pool.Exec(ctx, `
		INSERT INTO panel_kv (key, value) VALUES ($1, $2)
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value
	`, key, raw)
	return err
}

func (db *DB) Delete(ctx context.Context, key string) error {
	_, err := db.Pool.Exec(ctx, `DELETE FROM panel_kv WHERE key = $1`, key)
	return err
}

// Apply runs every write in one transaction.
func (db *DB) Apply(ctx context.Context, writes []Write) error {
	tx, err := db.Pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	for _, w := range writes {
		if w.Remove {
			if _, err := tx.Exec(ctx, `DELETE FROM panel_kv WHERE key = $1`, w.Key); err != nil {
				return err
			}
			continue
		}
		raw, err := json.Marshal(w.Value)
		if err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, `
			INSERT INTO panel_kv (key, value) VALUES ($1, $2)
			ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value
		`, w.Key, raw); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

// Healthy checks the database connection.
func (db *DB) Healthy(ctx context.Context) error {
	var n int
	return db.Pool.QueryRow(ctx, "SELECT 1").Scan(&n)
}
