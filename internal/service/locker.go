package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"polkaedu_backend/pkg/logger"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// MintLocker 串行化同一签名账户的铸造，避免 nonce 冲突与 token id 检查-铸造竞争
type MintLocker interface {
	Lock(ctx context.Context, key string) (unlock func(), err error)
}

// LocalMintLocker 单进程内按 key 互斥，空闲的 key 会被回收
type LocalMintLocker struct {
	mu    sync.Mutex
	slots map[string]*lockSlot
}

type lockSlot struct {
	ch   chan struct{}
	refs int
}

func NewLocalMintLocker() *LocalMintLocker {
	return &LocalMintLocker{slots: make(map[string]*lockSlot)}
}

func (l *LocalMintLocker) acquire(key string) *lockSlot {
	l.mu.Lock()
	defer l.mu.Unlock()
	slot, ok := l.slots[key]
	if !ok {
		slot = &lockSlot{ch: make(chan struct{}, 1)}
		l.slots[key] = slot
	}
	slot.refs++
	return slot
}

func (l *LocalMintLocker) release(key string, slot *lockSlot) {
	l.mu.Lock()
	defer l.mu.Unlock()
	slot.refs--
	if slot.refs == 0 {
		delete(l.slots, key)
	}
}

func (l *LocalMintLocker) Lock(ctx context.Context, key string) (func(), error) {
	slot := l.acquire(key)
	select {
	case slot.ch <- struct{}{}:
		var once sync.Once
		return func() {
			once.Do(func() {
				<-slot.ch
				l.release(key, slot)
			})
		}, nil
	case <-ctx.Done():
		l.release(key, slot)
		return nil, ctx.Err()
	}
}

// 仅当值仍是自己的 token 时才删除
var unlockScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0
`)

// RedisMintLocker 多副本部署时通过 redis SET NX 互斥
type RedisMintLocker struct {
	client *redis.Client
	ttl    time.Duration
	retry  time.Duration
	prefix string
}

func NewRedisMintLocker(client *redis.Client, ttl time.Duration) *RedisMintLocker {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &RedisMintLocker{
		client: client,
		ttl:    ttl,
		retry:  100 * time.Millisecond,
		prefix: "polkaedu:lock:",
	}
}

func (l *RedisMintLocker) Lock(ctx context.Context, key string) (func(), error) {
	redisKey := l.prefix + key
	token := uuid.NewString()

	for {
		ok, err := l.client.SetNX(ctx, redisKey, token, l.ttl).Result()
		if err != nil {
			return nil, err
		}
		if ok {
			break
		}

		timer := time.NewTimer(l.retry)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			// 调用方的 ctx 可能已取消，释放锁使用独立的超时
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := unlockScript.Run(ctx, l.client, []string{redisKey}, token).Err(); err != nil && !errors.Is(err, redis.Nil) {
				logger.Log.Warn("Failed to release mint lock", zap.String("key", redisKey), zap.Error(err))
			}
		})
	}, nil
}
