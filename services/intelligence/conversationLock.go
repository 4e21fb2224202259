package ai

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/go-redsync/redsync/v4"
	"github.com/go-redsync/redsync/v4/redis/goredis/v8"
	"go.uber.org/zap"
)

const conversationLockPrefix = "ai:lock:"

// ErrLockLost means the conversation lock expired or was taken while a turn
// was running. The turn must not be saved.
var ErrLockLost = errors.New("conversation lock lost")

// ConversationLocker serializes message handling per conversation so turns
// are processed one at a time even across replicas.
type ConversationLocker interface {
	// Acquire blocks until the lock is held or ctx is done.
	Acquire(ctx context.Context, companyID, clientID string) (ConversationLease, error)
}

// ConversationLease is a held conversation lock.
type ConversationLease interface {
	// Held reports whether the lock is still owned.
	Held() bool
	// Release frees the lock. It is safe to call more than once.
	Release()
}

// distributedMutex is the part of *redsync.Mutex the lease uses.
type distributedMutex interface {
	LockContext(ctx context.Context) error
	ExtendContext(ctx context.Context) (bool, error)
	UnlockContext(ctx context.Context) (bool, error)
}

// RedisConversationLock implements ConversationLocker with redsync. A held
// lease is extended every ttl/3 until it is released.
type RedisConversationLock struct {
	ttl      time.Duration
	logger   *zap.Logger
	newMutex func(name string) distributedMutex
}

func NewRedisConversationLock(client *redis.Client, ttl time.Duration, logger *zap.Logger) *RedisConversationLock {
	if ttl <= 0 {
		ttl = 2 * time.Minute
	}
	rs := redsync.New(goredis.NewPool(client))
	return &RedisConversationLock{
		ttl:    ttl,
		logger: logger,
		newMutex: func(name string) distributedMutex {
			return rs.NewMutex(name,
				redsync.WithExpiry(ttl),
				// Waiting is bounded by the caller's context.
				redsync.WithTries(math.MaxInt32),
				redsync.WithRetryDelay(100*time.Millisecond),
			)
		},
	}
}

func (l *RedisConversationLock) Acquire(ctx context.Context, companyID, clientID string) (ConversationLease, error) {
	key := conversationLockPrefix + companyID + ":" + clientID
	mu := l.newMutex(key)

	if err := mu.LockContext(ctx); err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("waiting for conversation lock: %w", ctx.Err())
		}
		return nil, fmt.Errorf("failed to acquire conversation lock: %w", err)
	}

	lease := &redisLease{
		mu:     mu,
		every:  l.ttl / 3,
		logger: l.logger.With(zap.String("lock", key)),
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
	}
	lease.held.Store(true)
	go lease.keepAlive()
	return lease, nil
}

type redisLease struct {
	mu     distributedMutex
	every  time.Duration
	logger *zap.Logger
	held   atomic.Bool
	stop   chan struct{}
	done   chan struct{}
	once   sync.Once
}

func (l *redisLease) Held() bool { return l.held.Load() }

func (l *redisLease) keepAlive() {
	defer close(l.done)
	ticker := time.NewTicker(l.every)
	defer ticker.Stop()

	for {
		select {
		case <-l.stop:
			return
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), l.every)
			ok, err := l.mu.ExtendContext(ctx)
			cancel()
			if err != nil || !ok {
				l.held.Store(false)
				l.logger.Warn("conversation lock could not be extended", zap.Error(err))
				return
			}
		}
	}
}

func (l *redisLease) Release() {
	l.once.Do(func() {
		close(l.stop)
		<-l.done
		if !l.held.Swap(false) {
			return
		}
		// The request context may already be cancelled; release anyway.
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if _, err := l.mu.UnlockContext(ctx); err != nil {
			l.logger.Warn("failed to release conversation lock", zap.Error(err))
		}
	})
}

// MemoryConversationLock is a process-local ConversationLocker for tests and
// single-replica development.
type MemoryConversationLock struct {
	mu    sync.Mutex
	locks map[string]chan struct{}
}

func NewMemoryConversationLock() *MemoryConversationLock {
	return &MemoryConversationLock{locks: make(map[string]chan struct{})}
}

func (l *MemoryConversationLock) Acquire(ctx context.Context, companyID, clientID string) (ConversationLease, error) {
	key := companyID + ":" + clientID
	l.mu.Lock()
	ch, ok := l.locks[key]
	if !ok {
		ch = make(chan struct{}, 1)
		l.locks[key] = ch
	}
	l.mu.Unlock()

	select {
	case ch <- struct{}{}:
	case <-ctx.Done():
		return nil, fmt.Errorf("waiting for conversation lock: %w", ctx.Err())
	}
	return &memoryLease{ch: ch}, nil
}

type memoryLease struct {
	ch   chan struct{}
	once sync.Once
	done atomic.Bool
}

func (l *memoryLease) Held() bool { return !l.done.Load() }

func (l *memoryLease) Release() {
	l.once.Do(func() {
		l.done.Store(true)
		<-l.ch
	})
}
