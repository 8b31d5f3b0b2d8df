package database

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"log"
	"path"
	"sort"
	"strconv"
	"strings"
)

// Migration is one numbered SQL script, e.g. "001_create_local_store.sql"
type Migration struct {
	Version int
	Name    string
	SQL     string
}

// Migrator brings the local store schema up to date
type Migrator struct {
	db     *sql.DB
	source fs.FS
}

// NewMigrator reads *.sql scripts from the root of source
func NewMigrator(db *sql.DB, source fs.FS) *Migrator {
	return &Migrator{db: db, source: source}
}

// Applied returns the versions already recorded in schema_migrations
func (m *Migrator) Applied(ctx context.Context) (map[int]bool, error) {
	if _, err := m.db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations (
		version INTEGER PRIMARY KEY,
		name TEXT NOT NULL,
		applied_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	)`); err != nil {
		return nil, fmt.Errorf("failed to create schema_migrations: %w", err)
	}

	rows, err := m.db.QueryContext(ctx, "SELECT version FROM schema_migrations")
	if err != nil {
		return nil, fmt.Errorf("failed to query schema_migrations: %w", err)
	}
	defer rows.Close()

	applied := make(map[int]bool)
	for rows.Next() {
		var v int
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		applied[v] = true
	}
	return applied, rows.Err()
}

// Pending lists the scripts not applied yet, lowest version first
func (m *Migrator) Pending(ctx context.Context) ([]Migration, error) {
	applied, err := m.Applied(ctx)
	if err != nil {
		return nil, err
	}

	names, err := fs.Glob(m.source, "*.sql")
	if err != nil {
		return nil, fmt.Errorf("failed to list migrations: %w", err)
	}

	var pending []Migration
	for _, name := range names {
		base := strings.TrimSuffix(path.Base(name), ".sql")
		prefix, _, _ := strings.Cut(base, "_")
		version, err := strconv.Atoi(prefix)
		if err != nil {
			log.Printf("[database] skipping migration with invalid name: %s", name)
			continue
		}
		if applied[version] {
			continue
		}

		script, err := fs.ReadFile(m.source, name)
		if err != nil {
			return nil, fmt.Errorf("failed to read migration %s: %w", name, err)
		}
		pending = append(pending, Migration{Version: version, Name: base, SQL: string(script)})
	}

	sort.Slice(pending, func(i, j int) bool { return pending[i].Version < pending[j].Version })
	return pending, nil
}

// Up applies every pending script, each in its own transaction
func (m *Migrator) Up(ctx context.Context) error {
	pending, err := m.Pending(ctx)
	if err != nil {
		return err
	}

	for _, mig := range pending {
		err := Transaction(m.db, func(tx *sql.Tx) error {
			if _, err := tx.ExecContext(ctx, mig.SQL); err != nil {
				return err
			}
			_, err := tx.ExecContext(ctx, "INSERT INTO schema_migrations (version, name) VALUES (?, ?)", mig.Version, mig.Name)
			return err
		})
		if err != nil {
			return fmt.Errorf("migration %s: %w", mig.Name, err)
		}
		log.Printf("[database] applied migration %s", mig.Name)
	}
	return nil
}
