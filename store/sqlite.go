package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/agroshield/agroi18n"
	_ "modernc.org/sqlite"
)

// CurrentSchemaVersion is the latest schema version.
// Bump this when adding migrations.
const CurrentSchemaVersion = 3

// SQLiteStore is the durable on-device store. It survives restarts within
// the same data directory and tolerates being reopened at a higher schema
// version: missing collections are created in place, existing rows are left
// untouched.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens (or creates) the store at path and migrates it to the
// current schema version.
func OpenSQLite(path string) (*SQLiteStore, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, fmt.Errorf("failed to create store directory: %w", err)
		}
	}

	db, err := openDatabase(path)
	if err != nil {
		return nil, err
	}

	if err := migrate(db, CurrentSchemaVersion); err != nil {
		db.Close()
		return nil, err
	}

	return &SQLiteStore{db: db}, nil
}

// openDatabase opens the SQLite file with WAL and a busy timeout so several
// page contexts can share the store without additional locking.
func openDatabase(path string) (*sql.DB, error) {
	dsn := path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return db, nil
}

// migrate applies schema migrations up to target based on user_version.
// Each step only adds a collection; earlier collections are never touched.
func migrate(db *sql.DB, target int) error {
	version, err := getUserVersion(db)
	if err != nil {
		return err
	}

	// 0 -> 1: translation bundles keyed by bare language code.
	if version < 1 && target >= 1 {
		schema := `
		CREATE TABLE IF NOT EXISTS bundles (
		  lang       TEXT PRIMARY KEY,
		  data       TEXT NOT NULL,
		  updated_at INTEGER NOT NULL
		);
		`
		if _, err := db.Exec(schema); err != nil {
			return fmt.Errorf("migration 1 failed: %w", err)
		}
		if err := setUserVersion(db, 1); err != nil {
			return err
		}
	}

	// 1 -> 2: disease descriptions keyed by lang:diseaseID.
	if version < 2 && target >= 2 {
		schema := `
		CREATE TABLE IF NOT EXISTS descriptions (
		  key        TEXT PRIMARY KEY,
		  lang       TEXT NOT NULL,
		  disease_id TEXT NOT NULL,
		  data       TEXT NOT NULL,
		  updated_at INTEGER NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_descriptions_lang
		ON descriptions(lang);
		`
		if _, err := db.Exec(schema); err != nil {
			return fmt.Errorf("migration 2 failed: %w", err)
		}
		if err := setUserVersion(db, 2); err != nil {
			return err
		}
	}

	// 2 -> 3: user preferences (active language).
	if version < 3 && target >= 3 {
		schema := `
		CREATE TABLE IF NOT EXISTS prefs (
		  name  TEXT PRIMARY KEY,
		  value TEXT NOT NULL
		);
		`
		if _, err := db.Exec(schema); err != nil {
			return fmt.Errorf("migration 3 failed: %w", err)
		}
		if err := setUserVersion(db, 3); err != nil {
			return err
		}
	}

	return nil
}

func getUserVersion(db *sql.DB) (int, error) {
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

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// PutBundle writes a bundle under lang, replacing any prior value. The
// single upsert statement makes the write atomic per key.
func (s *SQLiteStore) PutBundle(lang string, b agroi18n.Bundle) error {
	data, err := json.Marshal(b)
	if err != nil {
		return &agroi18n.StoreError{Op: "put", Collection: "bundles", Cause: err}
	}

	_, err = s.db.Exec(`
		INSERT INTO bundles (lang, data, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(lang) DO UPDATE SET data=excluded.data, updated_at=excluded.updated_at`,
		lang, string(data), time.Now().Unix())
	if err != nil {
		return &agroi18n.StoreError{Op: "put", Collection: "bundles", Cause: err}
	}
	return nil
}

// GetBundle returns the stored bundle for lang. Any failure, including a
// corrupt row, reads as a miss.
func (s *SQLiteStore) GetBundle(lang string) (agroi18n.Bundle, bool) {
	var data string
	err := s.db.QueryRow(`SELECT data FROM bundles WHERE lang = ?`, lang).Scan(&data)
	if err != nil {
		return nil, false
	}

	var b agroi18n.Bundle
	if err := json.Unmarshal([]byte(data), &b); err != nil {
		return nil, false
	}
	return b, true
}

// PutDescription writes a description under the composite key.
func (s *SQLiteStore) PutDescription(lang, diseaseID string, d agroi18n.DiseaseDescription) error {
	data, err := json.Marshal(d)
	if err != nil {
		return &agroi18n.StoreError{Op: "put", Collection: "descriptions", Cause: err}
	}

	_, err = s.db.Exec(`
		INSERT INTO descriptions (key, lang, disease_id, data, updated_at) VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET data=excluded.data, updated_at=excluded.updated_at`,
		agroi18n.DescriptionKey(lang, diseaseID), lang, diseaseID, string(data), time.Now().Unix())
	if err != nil {
		return &agroi18n.StoreError{Op: "put", Collection: "descriptions", Cause: err}
	}
	return nil
}

// GetDescription returns the stored description for the composite key.
func (s *SQLiteStore) GetDescription(lang, diseaseID string) (agroi18n.DiseaseDescription, bool) {
	var data string
	err := s.db.QueryRow(`SELECT data FROM descriptions WHERE key = ?`,
		agroi18n.DescriptionKey(lang, diseaseID)).Scan(&data)
	if err != nil {
		return agroi18n.DiseaseDescription{}, false
	}

	var d agroi18n.DiseaseDescription
	if err := json.Unmarshal([]byte(data), &d); err != nil {
		return agroi18n.DiseaseDescription{}, false
	}
	return d, true
}

// SavePreferredLanguage records the user's language preference.
func (s *SQLiteStore) SavePreferredLanguage(lang string) error {
	_, err := s.db.Exec(`
		INSERT INTO prefs (name, value) VALUES ('language', ?)
		ON CONFLICT(name) DO UPDATE SET value=excluded.value`, lang)
	if err != nil {
		return &agroi18n.StoreError{Op: "put", Collection: "prefs", Cause: err}
	}
	return nil
}

// PreferredLanguage returns the recorded language preference.
func (s *SQLiteStore) PreferredLanguage() (string, bool) {
	var lang string
	if err := s.db.QueryRow(`SELECT value FROM prefs WHERE name = 'language'`).Scan(&lang); err != nil {
		return "", false
	}
	return lang, true
}

// snapshot reads both collections for export.
func (s *SQLiteStore) snapshot() (map[string]agroi18n.Bundle, map[string]agroi18n.DiseaseDescription, error) {
	bundles := make(map[string]agroi18n.Bundle)

	rows, err := s.db.Query(`SELECT lang, data FROM bundles`)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var lang, data string
		if err := rows.Scan(&lang, &data); err != nil {
			return nil, nil, err
		}
		var b agroi18n.Bundle
		if err := json.Unmarshal([]byte(data), &b); err != nil {
			continue // skip corrupt rows
		}
		bundles[lang] = b
	}
	if err := rows.Err(); err != nil {
		return nil, nil, err
	}

	descs := make(map[string]agroi18n.DiseaseDescription)

	drows, err := s.db.Query(`SELECT key, data FROM descriptions`)
	if err != nil {
		return nil, nil, err
	}
	defer drows.Close()
	for drows.Next() {
		var key, data string
		if err := drows.Scan(&key, &data); err != nil {
			return nil, nil, err
		}
		var d agroi18n.DiseaseDescription
		if err := json.Unmarshal([]byte(data), &d); err != nil {
			continue
		}
		descs[key] = d
	}
	if err := drows.Err(); err != nil {
		return nil, nil, err
	}

	return bundles, descs, nil
}

// Verify SQLiteStore implements Store and the loader's store contract.
var _ Store = (*SQLiteStore)(nil)
var _ agroi18n.Store = (*SQLiteStore)(nil)
