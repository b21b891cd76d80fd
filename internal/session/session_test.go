package session

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/jonathan/job-agent/internal/pipeline"
	"github.com/jonathan/job-agent/internal/types/typestest"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedis(t *testing.T, ttl time.Duration) (*RedisCache, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	cache := NewRedisCacheWithClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}), ttl)
	t.Cleanup(func() { _ = cache.Close() })
	return cache, mr
}

func sampleEntry(id string) *Entry {
	turn := pipeline.NewTurn(typestest.DataEngineeringJob())
	turn.FilteredProfile = typestest.DataEngineeringFilteredProfile()
	return &Entry{
		SessionID:       id,
		JobSummary:      typestest.DataEngineeringJob(),
		FilteredProfile: typestest.DataEngineeringFilteredProfile(),
		Turn:            turn,
	}
}

func TestCaches(t *testing.T) {
	redisCache, _ := newRedis(t, time.Hour)
	caches := map[string]Cache{
		"redis":  redisCache,
		"memory": NewMemoryCache(10, time.Hour),
	}

	for name, cache := range caches {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			_, err := cache.Get(ctx, "missing")
			require.ErrorIs(t, err, ErrNotFound)

			entry := sampleEntry(NewID())
			require.NoError(t, cache.Put(ctx, entry))
			assert.False(t, entry.UpdatedAt.IsZero())

			got, err := cache.Get(ctx, entry.SessionID)
			require.NoError(t, err)
			assert.Equal(t, entry.JobSummary, got.JobSummary)
			assert.Equal(t, entry.FilteredProfile, got.FilteredProfile)
			assert.Equal(t, entry.Turn.ID, got.Turn.ID)
			assert.Equal(t, pipeline.StateIdle, got.Turn.State)

			got.Turn.Revisions = 7
			again, err := cache.Get(ctx, entry.SessionID)
			require.NoError(t, err)
			assert.Zero(t, again.Turn.Revisions, "cached entries are copies")

			require.NoError(t, cache.Delete(ctx, entry.SessionID))
			_, err = cache.Get(ctx, entry.SessionID)
			assert.ErrorIs(t, err, ErrNotFound)
			assert.NoError(t, cache.Delete(ctx, entry.SessionID))

			assert.Error(t, cache.Put(ctx, &Entry{}))
		})
	}
}

func TestRedisCache_TTL(t *testing.T) {
	cache, mr := newRedis(t, time.Minute)
	ctx := context.Background()

	require.NoError(t, cache.Put(ctx, sampleEntry("s1")))
	assert.Equal(t, time.Minute, mr.TTL(keyPrefix+"s1"))

	mr.FastForward(2 * time.Minute)
	_, err := cache.Get(ctx, "s1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRedisCache_DefaultTTLAndPing(t *testing.T) {
	cache, mr := newRedis(t, 0)
	ctx := context.Background()

	require.NoError(t, cache.Ping(ctx))
	require.NoError(t, cache.Put(ctx, sampleEntry("s1")))
	assert.Equal(t, DefaultTTL, mr.TTL(keyPrefix+"s1"))

	mr.Close()
	assert.Error(t, cache.Ping(ctx))
}

func TestRedisCache_Lock(t *testing.T) {
	cache, mr := newRedis(t, time.Hour)
	cache.pollInterval = time.Millisecond
	ctx := context.Background()

	unlock, err := cache.Lock(ctx, "s1")
	require.NoError(t, err)
	assert.True(t, mr.Exists(lockPrefix+"s1"))

	waitCtx, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
	defer cancel()
	_, err = cache.Lock(waitCtx, "s1")
	assert.ErrorIs(t, err, context.DeadlineExceeded, "a held lock blocks other holders")

	other, err := cache.Lock(ctx, "s2")
	require.NoError(t, err, "locks are per session")
	other()

	acquired := make(chan func())
	go func() {
		next, err := cache.Lock(ctx, "s1")
		assert.NoError(t, err)
		acquired <- next
	}()
	unlock()
	next := <-acquired
	next()
	assert.False(t, mr.Exists(lockPrefix+"s1"))
}

func TestRedisCache_ReleaseKeepsForeignLock(t *testing.T) {
	cache, mr := newRedis(t, time.Hour)
	ctx := context.Background()

	unlock, err := cache.Lock(ctx, "s1")
	require.NoError(t, err)
	require.NoError(t, mr.Set(lockPrefix+"s1", "someone-else"))

	unlock()
	got, err := mr.Get(lockPrefix + "s1")
	require.NoError(t, err)
	assert.Equal(t, "someone-else", got)
}

func TestMemoryCache_EvictsLeastRecentlyUsed(t *testing.T) {
	ctx := context.Background()
	cache := NewMemoryCache(2, time.Hour)

	for _, id := range []string{"a", "b"} {
		require.NoError(t, cache.Put(ctx, sampleEntry(id)))
	}
	_, err := cache.Get(ctx, "a")
	require.NoError(t, err)

	require.NoError(t, cache.Put(ctx, sampleEntry("c")))
	assert.Equal(t, 2, cache.Len())

	_, err = cache.Get(ctx, "b")
	assert.ErrorIs(t, err, ErrNotFound, "b was least recently used")
	for _, id := range []string{"a", "c"} {
		_, err := cache.Get(ctx, id)
		assert.NoError(t, err, id)
	}
}

func TestMemoryCache_Expiry(t *testing.T) {
	ctx := context.Background()
	cache := NewMemoryCache(0, 200*time.Millisecond)

	require.NoError(t, cache.Put(ctx, sampleEntry("s1")))
	_, err := cache.Get(ctx, "s1")
	require.NoError(t, err)

	assert.Eventually(t, func() bool {
		_, err := cache.Get(ctx, "s1")
		return errors.Is(err, ErrNotFound)
	}, 2*time.Second, 10*time.Millisecond)
	assert.Eventually(t, func() bool { return cache.Len() == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestMemoryCache_PutRefreshesTTL(t *testing.T) {
	ctx := context.Background()
	cache := NewMemoryCache(0, 600*time.Millisecond)

	require.NoError(t, cache.Put(ctx, sampleEntry("s1")))
	time.Sleep(400 * time.Millisecond)
	require.NoError(t, cache.Put(ctx, sampleEntry("s1")))
	time.Sleep(400 * time.Millisecond)

	_, err := cache.Get(ctx, "s1")
	assert.NoError(t, err, "put refreshes the ttl")
}

func TestMemoryCache_Concurrent(t *testing.T) {
	ctx := context.Background()
	cache := NewMemoryCache(16, time.Hour)

	done := make(chan struct{})
	for w := 0; w < 8; w++ {
		go func(w int) {
			defer func() { done <- struct{}{} }()
			for i := 0; i < 50; i++ {
				id := fmt.Sprintf("s%d", (w+i)%32)
				_ = cache.Put(ctx, sampleEntry(id))
				_, _ = cache.Get(ctx, id)
			}
		}(w)
	}
	for w := 0; w < 8; w++ {
		<-done
	}
	assert.LessOrEqual(t, cache.Len(), 16)
}

func TestNewRedisCacheFromURL(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	cache, err := NewRedisCacheFromURL("redis://"+mr.Addr()+"/0", time.Hour)
	require.NoError(t, err)
	t.Cleanup(func() { _ = cache.Close() })

	ctx := context.Background()
	require.NoError(t, cache.Put(ctx, sampleEntry("s1")))
	got, err := cache.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "s1", got.SessionID)
	assert.Equal(t, 10, cache.client.Options().PoolSize)

	_, err = NewRedisCacheFromURL("http://not-redis", time.Hour)
	assert.Error(t, err)
}
