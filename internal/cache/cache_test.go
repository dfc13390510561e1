package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/go-redis/redismock/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// exercise runs the behavior every Cache implementation must share.
func exercise(t *testing.T, c Cache) {
	t.Helper()
	ctx := context.Background()

	_, ok, err := c.Get(ctx, "u1:workout-0-1-bench-p1")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.Set(ctx, "u1:workout-0-1-bench-p1", `{"sets":[]}`))
	require.NoError(t, c.Set(ctx, "u1:workout-0-1-dips-p1", `{"sets":[1]}`))
	require.NoError(t, c.Set(ctx, "u2:workout-0-1-bench-p1", `x`))

	v, ok, err := c.Get(ctx, "u1:workout-0-1-bench-p1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `{"sets":[]}`, v)

	require.NoError(t, c.Set(ctx, "u1:workout-0-1-bench-p1", `{"sets":[2]}`))
	v, _, _ = c.Get(ctx, "u1:workout-0-1-bench-p1")
	assert.Equal(t, `{"sets":[2]}`, v)

	keys, err := c.Keys(ctx, "u1:")
	require.NoError(t, err)
	assert.Equal(t, []string{"u1:workout-0-1-bench-p1", "u1:workout-0-1-dips-p1"}, keys)

	require.NoError(t, c.Remove(ctx, "u1:workout-0-1-bench-p1"))
	require.NoError(t, c.Remove(ctx, "u1:missing"))
	_, ok, _ = c.Get(ctx, "u1:workout-0-1-bench-p1")
	assert.False(t, ok)

	keys, err = c.Keys(ctx, "u1:")
	require.NoError(t, err)
	assert.Equal(t, []string{"u1:workout-0-1-dips-p1"}, keys)
}

func TestMemory(t *testing.T) {
	exercise(t, NewMemory())
}

func TestSQLite(t *testing.T) {
	c, err := OpenSQLite(t.TempDir(), 0)
	require.NoError(t, err)
	defer c.Close()
	exercise(t, c)
}

func TestSQLiteReopenKeepsEntries(t *testing.T) {
	dir := t.TempDir()
	c, err := OpenSQLite(dir, 0)
	require.NoError(t, err)
	require.NoError(t, c.Set(context.Background(), "k", "v"))
	require.NoError(t, c.Close())

	c, err = OpenSQLite(dir, 0)
	require.NoError(t, err)
	defer c.Close()
	v, ok, err := c.Get(context.Background(), "k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "v", v)
}

func TestSQLiteTTL(t *testing.T) {
	c, err := OpenSQLite(t.TempDir(), time.Hour)
	require.NoError(t, err)
	defer c.Close()

	now := time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }
	ctx := context.Background()
	require.NoError(t, c.Set(ctx, "u1:a", "1"))

	now = now.Add(59 * time.Minute)
	_, ok, _ := c.Get(ctx, "u1:a")
	assert.True(t, ok)

	now = now.Add(2 * time.Minute)
	_, ok, _ = c.Get(ctx, "u1:a")
	assert.False(t, ok)
	keys, err := c.Keys(ctx, "u1:")
	require.NoError(t, err)
	assert.Empty(t, keys)

	n, err := c.Purge(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestSQLiteZeroTTLSurvivesPurge(t *testing.T) {
	c, err := OpenSQLite(t.TempDir(), 0)
	require.NoError(t, err)
	defer c.Close()

	now := time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }
	ctx := context.Background()
	require.NoError(t, c.Set(ctx, "u1:a", "1"))

	now = now.AddDate(1, 0, 0)
	n, err := c.Purge(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)

	v, ok, err := c.Get(ctx, "u1:a")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "1", v)
}

func TestRedis(t *testing.T) {
	db, mock := redismock.NewClientMock()
	c := NewRedis(db, 24*time.Hour)
	defer c.Close()
	ctx := context.Background()

	mock.ExpectGet("repcoach::u1:k").RedisNil()
	_, ok, err := c.Get(ctx, "u1:k")
	require.NoError(t, err)
	assert.False(t, ok)

	mock.ExpectSet("repcoach::u1:k", "v", 24*time.Hour).SetVal("OK")
	require.NoError(t, c.Set(ctx, "u1:k", "v"))

	mock.ExpectGet("repcoach::u1:k").SetVal("v")
	v, ok, err := c.Get(ctx, "u1:k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "v", v)

	mock.ExpectScan(0, "repcoach::u1:*", scanBatch).SetVal([]string{"repcoach::u1:k"}, 7)
	mock.ExpectScan(7, "repcoach::u1:*", scanBatch).SetVal([]string{"repcoach::u1:a"}, 0)
	keys, err := c.Keys(ctx, "u1:")
	require.NoError(t, err)
	assert.Equal(t, []string{"u1:a", "u1:k"}, keys)

	mock.ExpectDel("repcoach::u1:k").SetVal(1)
	require.NoError(t, c.Remove(ctx, "u1:k"))

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisError(t *testing.T) {
	db, mock := redismock.NewClientMock()
	c := NewRedis(db, 0)
	defer c.Close()

	boom := errors.New("connection refused")
	mock.ExpectGet("repcoach::k").SetErr(boom)
	_, _, err := c.Get(context.Background(), "k")
	assert.ErrorIs(t, err, boom)
	assert.False(t, errors.Is(err, redis.Nil))
}

func TestEscapeGlob(t *testing.T) {
	assert.Equal(t, `repcoach::u1:workout-0-1-a\*b\?-p1`, escapeGlob("repcoach::u1:workout-0-1-a*b?-p1"))
}
