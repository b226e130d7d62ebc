package cron

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryLockStore struct {
	mu      sync.Mutex
	values  map[string]string
	extends int
}

func newMemoryLockStore() *memoryLockStore {
	return &memoryLockStore{values: map[string]string{}}
}

func (m *memoryLockStore) SetNX(_ context.Context, key string, value any, _ time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.values[key]; ok {
		return false, nil
	}
	m.values[key] = value.(string)
	return true, nil
}

func (m *memoryLockStore) DeleteIfEqual(_ context.Context, key, value string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.values[key] != value {
		return false, nil
	}
	delete(m.values, key)
	return true, nil
}

func (m *memoryLockStore) ExpireIfEqual(_ context.Context, key, value string, _ time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.values[key] != value {
		return false, nil
	}
	m.extends++
	return true, nil
}

func (m *memoryLockStore) snapshot(key string) (string, int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.values[key], m.extends
}

func TestRedisLockIsExclusive(t *testing.T) {
	store := newMemoryLockStore()
	first, err := NewRedisLock(store, "afx:lock:cron-worker:dev", time.Minute)
	require.NoError(t, err)
	second, err := NewRedisLock(store, "afx:lock:cron-worker:dev", time.Minute)
	require.NoError(t, err)
	ctx := context.Background()

	lease, ok, err := first.TryAcquire(ctx)
	require.NoError(t, err)
	require.True(t, ok)

	_, ok, err = second.TryAcquire(ctx)
	require.NoError(t, err)
	assert.False(t, ok, "second worker must not acquire a held lock")

	require.NoError(t, lease.Release(ctx))
	require.NoError(t, lease.Release(ctx), "release is idempotent")

	again, ok, err := second.TryAcquire(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	require.NoError(t, again.Release(ctx))
}

func TestStaleLeaseCannotReleaseNewOwner(t *testing.T) {
	store := newMemoryLockStore()
	lock, err := NewRedisLock(store, "k", time.Minute)
	require.NoError(t, err)
	ctx := context.Background()

	stale, ok, err := lock.TryAcquire(ctx)
	require.NoError(t, err)
	require.True(t, ok)

	// simulate expiry followed by another worker taking over
	store.mu.Lock()
	store.values["k"] = "someone-else"
	store.mu.Unlock()

	require.NoError(t, stale.Release(ctx))
	owner, _ := store.snapshot("k")
	assert.Equal(t, "someone-else", owner)
}

func TestLeaseKeepsLockAlive(t *testing.T) {
	store := newMemoryLockStore()
	lock, err := NewRedisLock(store, "k", 30*time.Millisecond)
	require.NoError(t, err)
	ctx := context.Background()

	lease, ok, err := lock.TryAcquire(ctx)
	require.NoError(t, err)
	require.True(t, ok)

	assert.Eventually(t, func() bool {
		_, extends := store.snapshot("k")
		return extends >= 2
	}, time.Second, 5*time.Millisecond)
	require.NoError(t, lease.Release(ctx))
}

func TestNewRedisLockValidates(t *testing.T) {
	_, err := NewRedisLock(nil, "k", time.Minute)
	assert.Error(t, err)
	_, err = NewRedisLock(newMemoryLockStore(), "", time.Minute)
	assert.Error(t, err)

	lock, err := NewRedisLock(newMemoryLockStore(), "k", 0)
	require.NoError(t, err)
	assert.Equal(t, defaultLockTTL, lock.ttl)
}
