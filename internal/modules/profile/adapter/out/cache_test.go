package out_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	profileadapter "peerlink/internal/modules/profile/adapter/out"
	profileout "peerlink/internal/modules/profile/port/out"
	apperrors "peerlink/internal/platform/errors"
)

func exerciseCache(t *testing.T, cache profileout.ProfileCache) {
	t.Helper()
	ctx := context.Background()
	loadedAt := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	_, err := cache.Load(ctx, "alice")
	require.ErrorIs(t, err, apperrors.ErrCacheMiss)

	require.NoError(t, cache.Store(ctx, "alice", []byte(`{"login":"alice"}`), loadedAt))
	require.NoError(t, cache.Store(ctx, "bob", []byte(`{"login":"bob"}`), loadedAt))
	require.NoError(t, cache.Store(ctx, "alice", []byte(`{"login":"alice","level":2}`), loadedAt))

	blob, err := cache.Load(ctx, "alice")
	require.NoError(t, err)
	require.JSONEq(t, `{"login":"alice","level":2}`, string(blob))

	removed, err := cache.Delete(ctx, "alice")
	require.NoError(t, err)
	require.True(t, removed)
	removed, err = cache.Delete(ctx, "alice")
	require.NoError(t, err)
	require.False(t, removed)

	require.NoError(t, cache.Store(ctx, "carol", []byte(`{}`), loadedAt))
	n, err := cache.Purge(ctx)
	require.NoError(t, err)
	require.Equal(t, 2, n)
	_, err = cache.Load(ctx, "bob")
	require.ErrorIs(t, err, apperrors.ErrCacheMiss)
}

func TestSQLiteProfileCache(t *testing.T) {
	t.Parallel()
	cache, err := profileadapter.NewSQLiteProfileCache(filepath.Join(t.TempDir(), "peerlink.db"))
	require.NoError(t, err)
	exerciseCache(t, cache)
}

func TestSQLiteProfileCachePersists(t *testing.T) {
	t.Parallel()
	dbPath := filepath.Join(t.TempDir(), "peerlink.db")
	first, err := profileadapter.NewSQLiteProfileCache(dbPath)
	require.NoError(t, err)
	require.NoError(t, first.Store(context.Background(), "dave", []byte(`{"login":"dave"}`), time.Now()))

	second, err := profileadapter.NewSQLiteProfileCache(dbPath)
	require.NoError(t, err)
	blob, err := second.Load(context.Background(), "dave")
	require.NoError(t, err)
	require.JSONEq(t, `{"login":"dave"}`, string(blob))
}

func TestRedisProfileCache(t *testing.T) {
	addr := os.Getenv("PEERLINK_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("PEERLINK_TEST_REDIS_ADDR not set")
	}
	client := redis.NewClient(&redis.Options{Addr: addr})
	t.Cleanup(func() { _ = client.Close() })
	require.NoError(t, client.Ping(context.Background()).Err())

	prefix := "peerlink-test:" + uuid.NewString() + ":"
	exerciseCache(t, profileadapter.NewRedisProfileCacheWithPrefix(client, time.Minute, prefix))
}
