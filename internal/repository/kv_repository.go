package repository

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	"github.com/jengzang/spotmap-go/internal/database"
)

// KVStore is durable client-local string storage, the counterpart of a
// browser's localStorage.
type KVStore interface {
	Get(ctx context.Context, key string) (string, bool, error)
	SetAll(ctx context.Context, values map[string]string) error
	Delete(ctx context.Context, keys ...string) error
}

// SQLiteKV stores key/value pairs in the local_store table
type SQLiteKV struct {
	db *sql.DB
}

// NewSQLiteKV creates a new SQLite-backed key/value store
func NewSQLiteKV(db *sql.DB) *SQLiteKV {
	return &SQLiteKV{db: db}
}

// Get returns the value stored under key
func (r *SQLiteKV) Get(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := r.db.QueryRowContext(ctx, "SELECT value FROM local_store WHERE key = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to read %s: %w", key, err)
	}
	return value, true, nil
}

// SetAll writes every pair in one transaction
func (r *SQLiteKV) SetAll(ctx context.Context, values map[string]string) error {
	return database.Transaction(r.db, func(tx *sql.Tx) error {
		for key, value := range values {
			_, err := tx.ExecContext(ctx, `
				INSERT INTO local_store (key, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
				ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = CURRENT_TIMESTAMP
			`, key, value)
			if err != nil {
				return fmt.Errorf("failed to write %s: %w", key, err)
			}
		}
		return nil
	})
}

// Delete removes the given keys; missing keys are ignored
func (r *SQLiteKV) Delete(ctx context.Context, keys ...string) error {
	return database.Transaction(r.db, func(tx *sql.Tx) error {
		for _, key := range keys {
			if _, err := tx.ExecContext(ctx, "DELETE FROM local_store WHERE key = ?", key); err != nil {
				return fmt.Errorf("failed to delete %s: %w", key, err)
			}
		}
		return nil
	})
}

// MemoryKV is an in-process KVStore for tests and ephemeral sessions
type MemoryKV struct {
	mu     sync.RWMutex
	values map[string]string
}

// NewMemoryKV creates an empty in-memory store
func NewMemoryKV() *MemoryKV {
	return &MemoryKV{values: make(map[string]string)}
}

func (m *MemoryKV) Get(_ context.Context, key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.values[key]
	return v, ok, nil
}

func (m *MemoryKV) SetAll(_ context.Context, values map[string]string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for k, v := range values {
		m.values[k] = v
	}
	return nil
}

func (m *MemoryKV) Delete(_ context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range keys {
		delete(m.values, k)
	}
	return nil
}
