// Package profile provides RemoteProfileClient implementations: a SQLite
// document store for durable local profiles and an in-memory variant for
// tests and throwaway sessions.
package profile

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"

	"github.com/hyperengineering/multipal"
	"github.com/hyperengineering/multipal/internal/profile/migrations"
)

// SQLiteStore persists profile documents in a local SQLite database, one row
// per uid with the cloned sequence stored as a JSON column.
type SQLiteStore struct {
	db *sql.DB

	mu     sync.Mutex
	closed bool
}

// Open creates or opens the profile database at path and applies pending
// migrations.
func Open(path string) (*SQLiteStore, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating profile directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening profile database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("enabling WAL: %w", err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout=5000"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("setting busy timeout: %w", err)
	}

	goose.SetBaseFS(migrations.FS)
	goose.SetLogger(goose.NopLogger())
	if err := goose.SetDialect("sqlite3"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("setting migration dialect: %w", err)
	}
	if err := goose.Up(db, "."); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Close closes the underlying database. Further calls return ErrStoreClosed.
func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.db.Close()
}

func (s *SQLiteStore) guard() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return multipal.ErrStoreClosed
	}
	return nil
}

// Load implements multipal.RemoteProfileClient.
func (s *SQLiteStore) Load(ctx context.Context, uid string) (*multipal.RemoteProfile, error) {
	if err := s.guard(); err != nil {
		return nil, err
	}

	row := s.db.QueryRowContext(ctx, `
		SELECT username, mobile, email, created_at, cloned_apps, theme, last_backup, auto_backup
		FROM profiles WHERE uid = ?`, uid)

	var (
		doc        multipal.RemoteProfile
		createdAt  string
		clonedApps string
		theme      string
		lastBackup sql.NullString
		autoBackup bool
	)
	err := row.Scan(&doc.Username, &doc.Mobile, &doc.Email, &createdAt, &clonedApps, &theme, &lastBackup, &autoBackup)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading profile %s: %w", uid, err)
	}

	doc.UID = uid
	if t, perr := time.Parse(time.RFC3339Nano, createdAt); perr == nil {
		doc.CreatedAt = t
	}
	if err := json.Unmarshal([]byte(clonedApps), &doc.ClonedApps); err != nil {
		return nil, fmt.Errorf("decoding cloned apps for %s: %w", uid, err)
	}
	if doc.ClonedApps == nil {
		doc.ClonedApps = []multipal.ClonedInstance{}
	}
	doc.Settings.Theme = multipal.NormalizeTheme(multipal.Theme(theme))
	doc.Settings.AutoBackup = autoBackup
	if lastBackup.Valid {
		if t, perr := time.Parse(time.RFC3339Nano, lastBackup.String); perr == nil {
			doc.Settings.LastBackup = &t
		}
	}
	return &doc, nil
}

// Patch implements multipal.RemoteProfileClient. A missing document is
// created from defaults with the patch applied, inside the same transaction
// as the read.
func (s *SQLiteStore) Patch(ctx context.Context, uid string, patch multipal.ProfilePatch) error {
	if err := s.guard(); err != nil {
		return err
	}
	if patch.IsZero() {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning patch transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	doc, err := loadTx(ctx, tx, uid)
	if err != nil {
		return err
	}
	if doc == nil {
		doc = multipal.DefaultProfile(uid, time.Now().UTC())
	}
	patch.Apply(doc)

	apps, err := json.Marshal(doc.ClonedApps)
	if err != nil {
		return fmt.Errorf("encoding cloned apps for %s: %w", uid, err)
	}
	var lastBackup any
	if doc.Settings.LastBackup != nil {
		lastBackup = doc.Settings.LastBackup.UTC().Format(time.RFC3339Nano)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO profiles (uid, username, mobile, email, created_at, cloned_apps, theme, last_backup, auto_backup)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(uid) DO UPDATE SET
			username = excluded.username,
			mobile = excluded.mobile,
			email = excluded.email,
			cloned_apps = excluded.cloned_apps,
			theme = excluded.theme,
			last_backup = excluded.last_backup,
			auto_backup = excluded.auto_backup`,
		uid, doc.Username, doc.Mobile, doc.Email,
		doc.CreatedAt.UTC().Format(time.RFC3339Nano),
		string(apps), string(doc.Settings.Theme), lastBackup, doc.Settings.AutoBackup)
	if err != nil {
		return fmt.Errorf("writing profile %s: %w", uid, err)
	}

	return tx.Commit()
}

func loadTx(ctx context.Context, tx *sql.Tx, uid string) (*multipal.RemoteProfile, error) {
	row := tx.QueryRowContext(ctx, `
		SELECT username, mobile, email, created_at, cloned_apps, theme, last_backup, auto_backup
		FROM profiles WHERE uid = ?`, uid)

	var (
		doc        multipal.RemoteProfile
		createdAt  string
		clonedApps string
		theme      string
		lastBackup sql.NullString
		autoBackup bool
	)
	err := row.Scan(&doc.Username, &doc.Mobile, &doc.Email, &createdAt, &clonedApps, &theme, &lastBackup, &autoBackup)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading profile %s: %w", uid, err)
	}

	doc.UID = uid
	if t, perr := time.Parse(time.RFC3339Nano, createdAt); perr == nil {
		doc.CreatedAt = t
	}
	if err := json.Unmarshal([]byte(clonedApps), &doc.ClonedApps); err != nil {
		return nil, fmt.Errorf("decoding cloned apps for %s: %w", uid, err)
	}
	doc.Settings.Theme = multipal.NormalizeTheme(multipal.Theme(theme))
	doc.Settings.AutoBackup = autoBackup
	if lastBackup.Valid {
		if t, perr := time.Parse(time.RFC3339Nano, lastBackup.String); perr == nil {
			doc.Settings.LastBackup = &t
		}
	}
	return &doc, nil
}

// Select opens the SQLite store at cfg.ProfilePath, or returns an in-memory
// store when the path is empty.
func Select(cfg multipal.Config) (multipal.RemoteProfileClient, func() error, error) {
	if cfg.ProfilePath == "" {
		return NewMemory(), func() error { return nil }, nil
	}
	store, err := Open(cfg.ProfilePath)
	if err != nil {
		return nil, nil, err
	}
	return store, store.Close, nil
}
