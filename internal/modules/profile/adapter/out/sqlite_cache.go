package out

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	profileout "peerlink/internal/modules/profile/port/out"
	apperrors "peerlink/internal/platform/errors"
	"peerlink/internal/platform/sqlitedb"
)

type SQLiteProfileCache struct {
	db *sql.DB
}

func NewSQLiteProfileCache(dbPath string) (profileout.ProfileCache, error) {
	db, err := sqlitedb.Open(dbPath)
	if err != nil {
		return nil, err
	}
	return NewSQLiteProfileCacheFromDB(db)
}

// NewSQLiteProfileCacheFromDB uses a handle owned by the caller.
func NewSQLiteProfileCacheFromDB(db *sql.DB) (profileout.ProfileCache, error) {
	cache := &SQLiteProfileCache{db: db}
	if err := cache.ensureSchema(context.Background()); err != nil {
		return nil, err
	}
	return cache, nil
}

func (c *SQLiteProfileCache) ensureSchema(ctx context.Context) error {
	const ddl = `
CREATE TABLE IF NOT EXISTS profile_cache (
  login TEXT PRIMARY KEY,
  payload BLOB NOT NULL,
  loaded_at INTEGER NOT NULL
);
`
	if _, err := c.db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("create profile_cache table: %w", err)
	}
	return nil
}

func (c *SQLiteProfileCache) Load(ctx context.Context, login string) ([]byte, error) {
	var blob []byte
	err := c.db.QueryRowContext(ctx, `SELECT payload FROM profile_cache WHERE login = ?`, login).Scan(&blob)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("load cached profile %s: %w", login, err)
	}
	return blob, nil
}

func (c *SQLiteProfileCache) Store(ctx context.Context, login string, blob []byte, loadedAt time.Time) error {
	const upsert = `
INSERT INTO profile_cache (login, payload, loaded_at) VALUES (?, ?, ?)
ON CONFLICT(login) DO UPDATE SET payload=excluded.payload, loaded_at=excluded.loaded_at;
`
	if _, err := c.db.ExecContext(ctx, upsert, login, blob, loadedAt.UnixMilli()); err != nil {
		return fmt.Errorf("store cached profile %s: %w", login, err)
	}
	return nil
}

func (c *SQLiteProfileCache) Delete(ctx context.Context, login string) (bool, error) {
	res, err := c.db.ExecContext(ctx, `DELETE FROM profile_cache WHERE login = ?`, login)
	if err != nil {
		return false, fmt.Errorf("delete cached profile %s: %w", login, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete cached profile %s: %w", login, err)
	}
	return n > 0, nil
}

func (c *SQLiteProfileCache) Purge(ctx context.Context) (int, error) {
	res, err := c.db.ExecContext(ctx, `DELETE FROM profile_cache`)
	if err != nil {
		return 0, fmt.Errorf("purge profile cache: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("purge profile cache: %w", err)
	}
	return int(n), nil
}
