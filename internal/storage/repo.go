package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// Repo is the sqlite-backed store. Keys live in namespaces: the empty
// namespace holds process-wide snapshots, visitor ids hold per-visitor keys.
type Repo struct {
	DB *sql.DB
}

func NewRepo(db *sql.DB) *Repo {
	return &Repo{DB: db}
}

// Scope returns the KV view of one namespace.
func (r *Repo) Scope(namespace string) KV {
	return scoped{repo: r, namespace: namespace}
}

func (r *Repo) Get(ctx context.Context, namespace, key string) ([]byte, error) {
	row := r.DB.QueryRowContext(ctx, `
		SELECT value FROM kv WHERE namespace = ? AND key = ?
	`, namespace, key)

	var v []byte
	if err := row.Scan(&v); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get %s/%s: %w", namespace, key, err)
	}
	return v, nil
}

// Set overwrites the value; there is no merge and no versioning.
func (r *Repo) Set(ctx context.Context, namespace, key string, value []byte) error {
	_, err := r.DB.ExecContext(ctx, `
		INSERT INTO kv (namespace, key, value, updated_at)
		VALUES (?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(namespace, key) DO UPDATE SET
			value = excluded.value,
			updated_at = CURRENT_TIMESTAMP
	`, namespace, key, value)
	if err != nil {
		return fmt.Errorf("set %s/%s: %w", namespace, key, err)
	}
	return nil
}

type scoped struct {
	repo      *Repo
	namespace string
}

func (s scoped) Get(ctx context.Context, key string) ([]byte, error) {
	return s.repo.Get(ctx, s.namespace, key)
}

func (s scoped) Set(ctx context.Context, key string, value []byte) error {
	return s.repo.Set(ctx, s.namespace, key, value)
}
