// Package storage persists training and exam attempts in SQLite.
package storage

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// CurrentSchemaVersion is the latest schema version.
const CurrentSchemaVersion = 2

// columns added after the first release; migration 2 adds whichever are missing
var extraColumns = []struct{ name, typ string }{
	{"checklist_score", "INTEGER"},
	{"checklist_json", "TEXT"},
	{"customer_type", "TEXT"},
	{"emotion_level", "INTEGER"},
}

// Store wraps the attempts database.
type Store struct {
	db *sql.DB
}

// Open creates (if needed) and migrates the database at path.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
	}

	dsn := path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := migrate(db); err != nil {
		db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error { return s.db.Close() }

func migrate(db *sql.DB) error {
	version, err := userVersion(db)
	if err != nil {
		return err
	}

	if version < 1 {
		schema := `
		CREATE TABLE IF NOT EXISTS attempts (
		  id           INTEGER PRIMARY KEY AUTOINCREMENT,
		  created_at   TEXT NOT NULL,
		  user_email   TEXT NOT NULL,
		  mode         TEXT NOT NULL,
		  level        TEXT NOT NULL,
		  transcript   TEXT NOT NULL,
		  score        INTEGER,
		  passed       INTEGER,
		  summary      TEXT,
		  strengths    TEXT,
		  improvements TEXT
		);

		CREATE INDEX IF NOT EXISTS idx_attempts_mode_level
		ON attempts(mode, level);
		`
		if _, err := db.Exec(schema); err != nil {
			return fmt.Errorf("migration 1 failed: %w", err)
		}
		if err := setUserVersion(db, 1); err != nil {
			return err
		}
	}

	if version < 2 {
		have, err := tableColumns(db, "attempts")
		if err != nil {
			return fmt.Errorf("migration 2 failed: %w", err)
		}
		for _, c := range extraColumns {
			if have[c.name] {
				continue
			}
			if _, err := db.Exec(fmt.Sprintf("ALTER TABLE attempts ADD COLUMN %s %s", c.name, c.typ)); err != nil {
				return fmt.Errorf("migration 2 failed: add %s: %w", c.name, err)
			}
		}
		if err := setUserVersion(db, 2); err != nil {
			return err
		}
	}

	return nil
}

func tableColumns(db *sql.DB, table string) (map[string]bool, error) {
	rows, err := db.Query(fmt.Sprintf("PRAGMA table_info(%s)", table))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	cols := map[string]bool{}
	for rows.Next() {
		var (
			cid     int
			name    string
			typ     string
			notNull int
			dflt    sql.NullString
			pk      int
		)
		if err := rows.Scan(&cid, &name, &typ, &notNull, &dflt, &pk); err != nil {
			return nil, err
		}
		cols[name] = true
	}
	return cols, rows.Err()
}

func userVersion(db *sql.DB) (int, error) {
	var version int
	if err := db.QueryRow("PRAGMA user_version;").Scan(&version); err != nil {
		return 0, fmt.Errorf("failed to get user_version: %w", err)
	}
	return version, nil
}

func setUserVersion(db *sql.DB, version int) error {
	if _, err := db.Exec(fmt.Sprintf("PRAGMA user_version=%d", version)); err != nil {
		return fmt.Errorf("failed to set user_version: %w", err)
	}
	return nil
}
