package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/lovpen/lovpen-server/internal/database/testutil"
)

type manualClock struct{ now time.Time }

func (c *manualClock) Now() time.Time { return c.now }

func (c *manualClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func newTestStore(t *testing.T) (*DatabaseStore, *manualClock) {
	t.Helper()
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	clock := &manualClock{now: time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)}
	return NewDatabaseStore(db, WithStoreClock(clock.Now)), clock
}

func TestNewDatabaseStoreNilDB(t *testing.T) {
	require.Nil(t, NewDatabaseStore(nil))

	var store *DatabaseStore
	_, _, err := store.IncrementWithTTL(context.Background(), "k", time.Minute)
	require.Error(t, err)
}

func TestDatabaseStoreIncrementFixedWindow(t *testing.T) {
	store, clock := newTestStore(t)
	ctx := context.Background()

	count, ttl, err := store.IncrementWithTTL(ctx, "rl:1", time.Minute)
	require.NoError(t, err)
	require.EqualValues(t, 1, count)
	require.Equal(t, time.Minute, ttl)

	clock.Advance(20 * time.Second)
	count, ttl, err = store.IncrementWithTTL(ctx, "rl:1", time.Minute)
	require.NoError(t, err)
	require.EqualValues(t, 2, count)
	require.Equal(t, 40*time.Second, ttl, "later hits keep the original window")

	clock.Advance(41 * time.Second)
	count, ttl, err = store.IncrementWithTTL(ctx, "rl:1", time.Minute)
	require.NoError(t, err)
	require.EqualValues(t, 1, count)
	require.Equal(t, time.Minute, ttl)
}

func TestDatabaseStoreSetGetDelete(t *testing.T) {
	store, clock := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "a", []byte("one"), time.Minute))
	require.NoError(t, store.Set(ctx, "a", []byte("two"), time.Minute))
	require.NoError(t, store.Set(ctx, "forever", []byte("x"), 0))

	value, ok, err := store.Get(ctx, "a")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, []byte("two"), value)

	clock.Advance(2 * time.Minute)
	_, ok, err = store.Get(ctx, "a")
	require.NoError(t, err)
	require.False(t, ok)

	_, ok, err = store.Get(ctx, "forever")
	require.NoError(t, err)
	require.True(t, ok)

	require.NoError(t, store.Delete(ctx, "forever", "missing"))
	_, ok, err = store.Get(ctx, "forever")
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, store.Delete(ctx))
}

func TestDatabaseStorePurgeExpired(t *testing.T) {
	store, clock := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "short", []byte("1"), time.Second))
	require.NoError(t, store.Set(ctx, "long", []byte("1"), time.Hour))
	require.NoError(t, store.Set(ctx, "forever", []byte("1"), 0))

	clock.Advance(time.Minute)
	removed, err := store.PurgeExpired(ctx)
	require.NoError(t, err)
	require.EqualValues(t, 1, removed)

	_, ok, err := store.Get(ctx, "long")
	require.NoError(t, err)
	require.True(t, ok)
	_, ok, err = store.Get(ctx, "forever")
	require.NoError(t, err)
	require.True(t, ok)
}
