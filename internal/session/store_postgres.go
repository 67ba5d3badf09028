package session

import (
	"database/sql"
	"fmt"
	"sort"
	"strings"
)

// PostgresStore keeps slots in a shared table, one row per (profile, slot).
type PostgresStore struct {
	db      *sql.DB
	profile string
}

func NewPostgresStore(db *sql.DB, profile string) (*PostgresStore, error) {
	if db == nil {
		return nil, fmt.Errorf("database is required")
	}
	profile = strings.TrimSpace(profile)
	if profile == "" {
		return nil, fmt.Errorf("session profile is required")
	}
	s := &PostgresStore{db: db, profile: profile}
	if err := s.ensureSchema(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *PostgresStore) ensureSchema() error {
	const q = `
CREATE TABLE IF NOT EXISTS console_session_slots (
	profile TEXT NOT NULL,
	name TEXT NOT NULL,
	value TEXT NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	PRIMARY KEY (profile, name)
)`
	if _, err := s.db.Exec(q); err != nil {
		return fmt.Errorf("ensure console_session_slots schema: %w", err)
	}
	return nil
}

func (s *PostgresStore) Load() (map[string]string, error) {
	const q = `
SELECT name, value
FROM console_session_slots
WHERE profile = $1`
	rows, err := s.db.Query(q, s.profile)
	if err != nil {
		return nil, fmt.Errorf("query session slots: %w", err)
	}
	defer rows.Close()

	out := make(map[string]string)
	for rows.Next() {
		var name, value string
		if err := rows.Scan(&name, &value); err != nil {
			return nil, fmt.Errorf("scan session slot: %w", err)
		}
		out[name] = value
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate session slots: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) Save(values map[string]string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM console_session_slots WHERE profile = $1`, s.profile); err != nil {
		return fmt.Errorf("clear session slots: %w", err)
	}

	names := make([]string, 0, len(values))
	for name := range values {
		names = append(names, name)
	}
	sort.Strings(names)

	const q = `
INSERT INTO console_session_slots (profile, name, value, updated_at)
VALUES ($1, $2, $3, NOW())`
	for _, name := range names {
		if _, err := tx.Exec(q, s.profile, name, values[name]); err != nil {
			return fmt.Errorf("insert session slot: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit session tx: %w", err)
	}
	return nil
}
