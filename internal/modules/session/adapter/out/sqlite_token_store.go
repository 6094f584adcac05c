package out

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"peerlink/internal/modules/session/domain"
	sessionout "peerlink/internal/modules/session/port/out"
	"peerlink/internal/platform/sqlitedb"
)

const tokenKey = "s21_token"

// SQLiteTokenStore keeps the token in memory and mirrors every change to
// the credentials table. The mutex serializes the memory copy and the write.
type SQLiteTokenStore struct {
	db    *sql.DB
	mu    sync.RWMutex
	token domain.Token
}

func NewSQLiteTokenStore(dbPath string) (sessionout.TokenStore, error) {
	db, err := sqlitedb.Open(dbPath)
	if err != nil {
		return nil, err
	}
	return NewSQLiteTokenStoreFromDB(db)
}

// NewSQLiteTokenStoreFromDB uses a handle owned by the caller.
func NewSQLiteTokenStoreFromDB(db *sql.DB) (sessionout.TokenStore, error) {
	store := &SQLiteTokenStore{db: db}
	ctx := context.Background()
	if err := store.ensureSchema(ctx); err != nil {
		return nil, err
	}
	if err := store.load(ctx); err != nil {
		return nil, err
	}
	return store, nil
}

func (s *SQLiteTokenStore) ensureSchema(ctx context.Context) error {
	const ddl = `
CREATE TABLE IF NOT EXISTS credentials (
  key TEXT PRIMARY KEY,
  value TEXT NOT NULL,
  updated_at TEXT NOT NULL
);
`
	if _, err := s.db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("create credentials table: %w", err)
	}
	return nil
}

func (s *SQLiteTokenStore) load(ctx context.Context) error {
	var value string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM credentials WHERE key = ?`, tokenKey).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("load token: %w", err)
	}
	s.token = domain.Token(value)
	return nil
}

func (s *SQLiteTokenStore) Get() (domain.Token, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token, s.token != ""
}

func (s *SQLiteTokenStore) Set(ctx context.Context, token domain.Token) error {
	if token == "" {
		return s.Clear(ctx)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	const stmt = `
INSERT INTO credentials (key, value, updated_at) VALUES (?, ?, ?)
ON CONFLICT(key) DO UPDATE SET value=excluded.value, updated_at=excluded.updated_at;
`
	if _, err := s.db.ExecContext(ctx, stmt, tokenKey, token.String(), time.Now().UTC().Format(time.RFC3339)); err != nil {
		return fmt.Errorf("save token: %w", err)
	}
	s.token = token
	return nil
}

func (s *SQLiteTokenStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.clearLocked(ctx)
}

func (s *SQLiteTokenStore) ClearIf(ctx context.Context, token domain.Token) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.token == "" || s.token != token {
		return false, nil
	}
	return true, s.clearLocked(ctx)
}

func (s *SQLiteTokenStore) clearLocked(ctx context.Context) error {
	// Forget the in-memory copy even if the write fails; a stale token must
	// not keep being sent.
	s.token = ""
	if _, err := s.db.ExecContext(ctx, `DELETE FROM credentials WHERE key = ?`, tokenKey); err != nil {
		return fmt.Errorf("clear token: %w", err)
	}
	return nil
}
