package service

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func TestLocalLockerSerialisesKey(t *testing.T) {
	locker := NewLocalLocker()
	ctx := context.Background()

	unlock, err := locker.Lock(ctx, "practice:attempt:a")
	require.NoError(t, err)

	other, err := locker.Lock(ctx, "practice:attempt:b")
	require.NoError(t, err)
	other()

	waitCtx, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
	defer cancel()
	_, err = locker.Lock(waitCtx, "practice:attempt:a")
	require.ErrorIs(t, err, context.DeadlineExceeded)

	acquired := make(chan struct{})
	go func() {
		release, err := locker.Lock(ctx, "practice:attempt:a")
		if err == nil {
			release()
		}
		close(acquired)
	}()

	unlock()
	unlock()
	select {
	case <-acquired:
	case <-time.After(time.Second):
		t.Fatal("waiter was not released")
	}

	locker.mu.Lock()
	defer locker.mu.Unlock()
	require.Empty(t, locker.locks)
}

func TestRedisLockerExcludesAcrossClients(t *testing.T) {
	server, err := miniredis.Run()
	require.NoError(t, err)
	defer server.Close()

	first := redis.NewClient(&redis.Options{Addr: server.Addr()})
	defer first.Close()
	second := redis.NewClient(&redis.Options{Addr: server.Addr()})
	defer second.Close()

	lockerA := NewRedisLocker(first, "test:", time.Minute)
	lockerB := NewRedisLocker(second, "test:", time.Minute)
	ctx := context.Background()

	unlock, err := lockerA.Lock(ctx, "practice:attempt:1")
	require.NoError(t, err)
	require.True(t, server.Exists("test:practice:attempt:1"))

	waitCtx, cancel := context.WithTimeout(ctx, 120*time.Millisecond)
	defer cancel()
	_, err = lockerB.Lock(waitCtx, "practice:attempt:1")
	require.ErrorIs(t, err, context.DeadlineExceeded)

	unlock()
	require.False(t, server.Exists("test:practice:attempt:1"))

	unlockB, err := lockerB.Lock(ctx, "practice:attempt:1")
	require.NoError(t, err)
	unlockB()
}

func TestRedisLockerReleaseKeepsForeignToken(t *testing.T) {
	server, err := miniredis.Run()
	require.NoError(t, err)
	defer server.Close()

	client := redis.NewClient(&redis.Options{Addr: server.Addr()})
	defer client.Close()

	locker := NewRedisLocker(client, "", time.Second)
	unlock, err := locker.Lock(context.Background(), "k")
	require.NoError(t, err)

	server.FastForward(2 * time.Second)
	require.NoError(t, server.Set("k", "someone-else"))

	unlock()
	value, err := server.Get("k")
	require.NoError(t, err)
	require.Equal(t, "someone-else", value)
}
