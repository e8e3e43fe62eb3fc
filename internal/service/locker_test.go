package service

import (
	"context"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalMintLockerSerializes(t *testing.T) {
	locker := NewLocalMintLocker()
	ctx := context.Background()

	unlock, err := locker.Lock(ctx, "mint:alice")
	require.NoError(t, err)

	var acquired int32
	done := make(chan struct{})
	go func() {
		u, err := locker.Lock(ctx, "mint:alice")
		if err == nil {
			atomic.StoreInt32(&acquired, 1)
			u()
		}
		close(done)
	}()

	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, int32(0), atomic.LoadInt32(&acquired))

	// 不同 key 互不影响
	other, err := locker.Lock(ctx, "mint:bob")
	require.NoError(t, err)
	other()

	unlock()
	unlock()
	<-done
	assert.Equal(t, int32(1), atomic.LoadInt32(&acquired))
	assert.Empty(t, locker.slots)
}

func TestLocalMintLockerHonoursContext(t *testing.T) {
	locker := NewLocalMintLocker()
	unlock, err := locker.Lock(context.Background(), "k")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = locker.Lock(ctx, "k")
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	// 超时放弃的等待者不残留 key
	unlock()
	assert.Empty(t, locker.slots)
}

// 需要本地 redis：POLKAEDU_TEST_REDIS=localhost:6379
func TestRedisMintLocker(t *testing.T) {
	addr := os.Getenv("POLKAEDU_TEST_REDIS")
	if addr == "" {
		t.Skip("POLKAEDU_TEST_REDIS not set")
	}
	client := redis.NewClient(&redis.Options{Addr: addr})
	defer client.Close()

	locker := NewRedisMintLocker(client, time.Minute)
	key := "test:" + time.Now().Format(time.RFC3339Nano)

	unlock, err := locker.Lock(context.Background(), key)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()
	_, err = locker.Lock(ctx, key)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	unlock()
	unlock2, err := locker.Lock(context.Background(), key)
	require.NoError(t, err)
	unlock2()
}
