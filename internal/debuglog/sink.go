package debuglog

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"
)

const DefaultCapacity = 100

// Entry is one client-submitted debug record.
type Entry struct {
	ReceivedAt time.Time       `json:"receivedAt"`
	Data       json.RawMessage `json:"data"`
}

// Sink retains the newest entries up to a fixed capacity.
// Recent returns entries oldest-first.
type Sink interface {
	Append(ctx context.Context, entry Entry) error
	Recent(ctx context.Context, n int) ([]Entry, error)
}

// MemorySink is a process-local ring buffer.
type MemorySink struct {
	mu    sync.Mutex
	buf   []Entry
	start int
	size  int
}

func NewMemorySink(capacity int) *MemorySink {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &MemorySink{buf: make([]Entry, capacity)}
}

func (m *MemorySink) Append(_ context.Context, entry Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	capacity := len(m.buf)
	if m.size < capacity {
		m.buf[(m.start+m.size)%capacity] = entry
		m.size++
		return nil
	}
	m.buf[m.start] = entry
	m.start = (m.start + 1) % capacity
	return nil
}

func (m *MemorySink) Recent(_ context.Context, n int) ([]Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if n <= 0 || n > m.size {
		n = m.size
	}
	out := make([]Entry, 0, n)
	for i := m.size - n; i < m.size; i++ {
		out = append(out, m.buf[(m.start+i)%len(m.buf)])
	}
	return out, nil
}

// listStore is the capped-list surface of pkg/redis.
type listStore interface {
	ListKey(name string) string
	PushCapped(ctx context.Context, key string, value any, capacity int64) error
	Range(ctx context.Context, key string, n int64) ([]string, error)
}

// RedisSink keeps entries in a capped Redis list so they survive restarts.
type RedisSink struct {
	store    listStore
	key      string
	capacity int
}

func NewRedisSink(store listStore, capacity int) (*RedisSink, error) {
	if store == nil {
		return nil, errors.New("redis store is required")
	}
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &RedisSink{store: store, key: store.ListKey("debug_logs"), capacity: capacity}, nil
}

func (r *RedisSink) Append(ctx context.Context, entry Entry) error {
	payload, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	return r.store.PushCapped(ctx, r.key, string(payload), int64(r.capacity))
}

func (r *RedisSink) Recent(ctx context.Context, n int) ([]Entry, error) {
	if n <= 0 || n > r.capacity {
		n = r.capacity
	}
	raw, err := r.store.Range(ctx, r.key, int64(n))
	if err != nil {
		return nil, err
	}
	// the list is newest-first
	out := make([]Entry, 0, len(raw))
	for i := len(raw) - 1; i >= 0; i-- {
		var entry Entry
		if err := json.Unmarshal([]byte(raw[i]), &entry); err != nil {
			continue
		}
		out = append(out, entry)
	}
	return out, nil
}
