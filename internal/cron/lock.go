package cron

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

const defaultLockTTL = 10 * time.Minute

// Locker hands out exclusive leases so only one worker runs a cycle.
type Locker interface {
	TryAcquire(ctx context.Context) (Lease, bool, error)
}

// Lease is a held lock. Release is safe to call more than once.
type Lease interface {
	Release(ctx context.Context) error
}

type ownedStore interface {
	SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error)
	DeleteIfEqual(ctx context.Context, key, value string) (bool, error)
	ExpireIfEqual(ctx context.Context, key, value string, ttl time.Duration) (bool, error)
}

// RedisLock stores a random owner token under key. A held lease refreshes
// its TTL every third of the TTL until released, so long mirror syncs keep
// the lock while a crashed worker's lock still expires.
type RedisLock struct {
	store ownedStore
	key   string
	ttl   time.Duration
}

func NewRedisLock(store ownedStore, key string, ttl time.Duration) (*RedisLock, error) {
	if store == nil {
		return nil, errors.New("redis store required for lock")
	}
	if key == "" {
		return nil, errors.New("lock key is required")
	}
	if ttl <= 0 {
		ttl = defaultLockTTL
	}
	return &RedisLock{store: store, key: key, ttl: ttl}, nil
}

func (l *RedisLock) TryAcquire(ctx context.Context) (Lease, bool, error) {
	owner := uuid.NewString()
	ok, err := l.store.SetNX(ctx, l.key, owner, l.ttl)
	if err != nil {
		return nil, false, fmt.Errorf("acquire %s: %w", l.key, err)
	}
	if !ok {
		return nil, false, nil
	}

	keepCtx, stop := context.WithCancel(context.WithoutCancel(ctx))
	lease := &redisLease{lock: l, owner: owner, stop: stop, done: make(chan struct{})}
	go lease.keepAlive(keepCtx)
	return lease, true, nil
}

type redisLease struct {
	lock  *RedisLock
	owner string
	stop  context.CancelFunc
	done  chan struct{}
	once  sync.Once
	err   error
}

func (r *redisLease) keepAlive(ctx context.Context) {
	defer close(r.done)
	ticker := time.NewTicker(r.lock.ttl / 3)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			held, err := r.lock.store.ExpireIfEqual(ctx, r.lock.key, r.owner, r.lock.ttl)
			if err == nil && !held {
				return
			}
		}
	}
}

func (r *redisLease) Release(ctx context.Context) error {
	r.once.Do(func() {
		r.stop()
		<-r.done
		if _, err := r.lock.store.DeleteIfEqual(ctx, r.lock.key, r.owner); err != nil {
			r.err = fmt.Errorf("release %s: %w", r.lock.key, err)
		}
	})
	return r.err
}
