package notify

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func recv(t *testing.T, ch <-chan Event) Event {
	t.Helper()
	select {
	case e, ok := <-ch:
		require.True(t, ok, "channel closed")
		return e
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for event")
		return Event{}
	}
}

func TestHubFanOut(t *testing.T) {
	h := NewHub(4)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a, err := h.Subscribe(ctx)
	require.NoError(t, err)
	b, err := h.Subscribe(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, h.Subscribers())

	e := Event{Kind: KindRecord, Op: OpCreated, ID: "r1", BranchID: "b1"}
	require.NoError(t, h.Publish(ctx, e))

	assert.Equal(t, e, recv(t, a))
	assert.Equal(t, e, recv(t, b))
}

func TestHubDropsWhenFull(t *testing.T) {
	h := NewHub(1)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch, err := h.Subscribe(ctx)
	require.NoError(t, err)

	require.NoError(t, h.Publish(ctx, Event{ID: "first"}))
	require.NoError(t, h.Publish(ctx, Event{ID: "second"}))

	assert.Equal(t, "first", recv(t, ch).ID)
	select {
	case e := <-ch:
		t.Fatalf("unexpected event %v", e)
	default:
	}
}

func TestHubUnsubscribeOnCancel(t *testing.T) {
	h := NewHub(1)
	ctx, cancel := context.WithCancel(context.Background())

	ch, err := h.Subscribe(ctx)
	require.NoError(t, err)
	cancel()

	select {
	case _, ok := <-ch:
		assert.False(t, ok)
	case <-time.After(2 * time.Second):
		t.Fatal("channel not closed after cancel")
	}
	assert.Eventually(t, func() bool { return h.Subscribers() == 0 }, time.Second, 10*time.Millisecond)
}

func TestHubClose(t *testing.T) {
	h := NewHub(1)
	ch, err := h.Subscribe(context.Background())
	require.NoError(t, err)

	require.NoError(t, h.Close())
	_, ok := <-ch
	assert.False(t, ok)

	late, err := h.Subscribe(context.Background())
	require.NoError(t, err)
	_, ok = <-late
	assert.False(t, ok)
}

func newTestRedis(t *testing.T) *RedisBroker {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	b := NewRedisWithClient(client, "branch-risk:test")
	t.Cleanup(func() { b.Close() }) //nolint:errcheck
	return b
}

func TestRedisBrokerRoundTrip(t *testing.T) {
	b := newTestRedis(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch, err := b.Subscribe(ctx)
	require.NoError(t, err)

	at := time.Date(2026, 1, 31, 8, 0, 0, 0, time.UTC)
	e := Event{Kind: KindBranch, Op: OpDeleted, ID: "b1", At: at}
	require.NoError(t, b.Publish(ctx, e))

	got := recv(t, ch)
	assert.Equal(t, KindBranch, got.Kind)
	assert.Equal(t, OpDeleted, got.Op)
	assert.Equal(t, "b1", got.ID)
	assert.True(t, at.Equal(got.At))
}

func TestRedisBrokerSkipsMalformed(t *testing.T) {
	b := newTestRedis(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch, err := b.Subscribe(ctx)
	require.NoError(t, err)

	require.NoError(t, b.client.Publish(ctx, b.channel, "not json").Err())
	require.NoError(t, b.Publish(ctx, Event{Kind: KindRecord, Op: OpUpdated, ID: "r9"}))

	assert.Equal(t, "r9", recv(t, ch).ID)
}

func TestNewRedisUnreachable(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_, err := NewRedis(ctx, RedisConfig{Addr: "127.0.0.1:1", Channel: "x"})
	assert.Error(t, err)
}

func TestWatchReloadsOnEvents(t *testing.T) {
	h := NewHub(8)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var mu sync.Mutex
	loads := 0
	var seen []int

	load := func(context.Context) (int, error) {
		mu.Lock()
		defer mu.Unlock()
		loads++
		return loads, nil
	}
	fn := func(v int) {
		mu.Lock()
		defer mu.Unlock()
		seen = append(seen, v)
	}

	done := make(chan error, 1)
	go func() { done <- Watch(ctx, h, load, fn) }()

	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(seen) == 1
	}, time.Second, 5*time.Millisecond)

	require.NoError(t, h.Publish(ctx, Event{Kind: KindRecord, Op: OpCreated, ID: "r1"}))

	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(seen) >= 2
	}, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("watch did not stop")
	}

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 1, seen[0])
	assert.Equal(t, 2, seen[1])
}

func TestWatchInitialLoadError(t *testing.T) {
	h := NewHub(1)
	err := Watch(context.Background(), h, func(context.Context) (int, error) {
		return 0, errors.New("db down")
	}, func(int) { t.Fatal("fn must not be called") })
	require.Error(t, err)
	assert.Contains(t, err.Error(), "initial load")
}

func TestWatchKeepsRunningAfterReloadError(t *testing.T) {
	h := NewHub(8)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var mu sync.Mutex
	calls := 0
	var seen []int
	load := func(context.Context) (int, error) {
		mu.Lock()
		defer mu.Unlock()
		calls++
		if calls == 2 {
			return 0, errors.New("transient")
		}
		return calls, nil
	}
	fn := func(v int) {
		mu.Lock()
		defer mu.Unlock()
		seen = append(seen, v)
	}

	go Watch(ctx, h, load, fn) //nolint:errcheck

	assert.Eventually(t, func() bool { return h.Subscribers() == 1 }, time.Second, 5*time.Millisecond)
	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(seen) == 1
	}, time.Second, 5*time.Millisecond)

	require.NoError(t, h.Publish(ctx, Event{ID: "a"}))
	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return calls == 2
	}, time.Second, 5*time.Millisecond)

	require.NoError(t, h.Publish(ctx, Event{ID: "b"}))
	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(seen) == 2 && seen[1] == 3
	}, time.Second, 5*time.Millisecond)
}
