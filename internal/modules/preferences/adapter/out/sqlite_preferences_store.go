package out

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"time"

	"peerlink/internal/modules/preferences/domain"
	preferencesout "peerlink/internal/modules/preferences/port/out"
	"peerlink/internal/platform/sqlitedb"
)

const (
	keyOffline  = "s21_offline"
	keyRemember = "s21_remember_login"
	keyLanguage = "s21_lang"
	keyTheme    = "s21_theme"
)

type SQLitePreferencesStore struct {
	db *sql.DB
}

func NewSQLitePreferencesStore(dbPath string) (preferencesout.PreferencesStore, error) {
	db, err := sqlitedb.Open(dbPath)
	if err != nil {
		return nil, err
	}
	return NewSQLitePreferencesStoreFromDB(db)
}

// NewSQLitePreferencesStoreFromDB uses a handle owned by the caller.
func NewSQLitePreferencesStoreFromDB(db *sql.DB) (preferencesout.PreferencesStore, error) {
	store := &SQLitePreferencesStore{db: db}
	if err := store.ensureSchema(context.Background()); err != nil {
		return nil, err
	}
	return store, nil
}

func (s *SQLitePreferencesStore) ensureSchema(ctx context.Context) error {
	const ddl = `
CREATE TABLE IF NOT EXISTS preferences (
  key TEXT PRIMARY KEY,
  value TEXT NOT NULL,
  updated_at TEXT NOT NULL
);
`
	if _, err := s.db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("create preferences table: %w", err)
	}
	return nil
}

func (s *SQLitePreferencesStore) Load(ctx context.Context) (domain.Preferences, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT key, value FROM preferences`)
	if err != nil {
		return domain.Preferences{}, fmt.Errorf("query preferences: %w", err)
	}
	defer rows.Close()

	prefs := domain.Defaults()
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return domain.Preferences{}, fmt.Errorf("scan preference: %w", err)
		}
		switch key {
		case keyOffline:
			prefs.OfflineMode, _ = strconv.ParseBool(value)
		case keyRemember:
			prefs.RememberedLogin = value
		case keyLanguage:
			prefs.Language = domain.Language(value)
		case keyTheme:
			prefs.ThemeID = value
		}
	}
	if err := rows.Err(); err != nil {
		return domain.Preferences{}, fmt.Errorf("read preferences: %w", err)
	}
	return prefs, nil
}

func (s *SQLitePreferencesStore) Save(ctx context.Context, prefs domain.Preferences) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin preferences tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	const upsert = `
INSERT INTO preferences (key, value, updated_at) VALUES (?, ?, ?)
ON CONFLICT(key) DO UPDATE SET value=excluded.value, updated_at=excluded.updated_at;
`
	now := time.Now().UTC().Format(time.RFC3339)
	values := map[string]string{
		keyOffline:  strconv.FormatBool(prefs.OfflineMode),
		keyRemember: prefs.RememberedLogin,
		keyLanguage: string(prefs.Language),
		keyTheme:    prefs.ThemeID,
	}
	for key, value := range values {
		if _, err := tx.ExecContext(ctx, upsert, key, value, now); err != nil {
			return fmt.Errorf("save preference %s: %w", key, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit preferences: %w", err)
	}
	return nil
}
