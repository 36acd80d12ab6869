package redis

import (
	"context"
	"strconv"
	"sync"
	"time"

	"konsulin-wallet-service/internal/app/contracts"
	"konsulin-wallet-service/internal/pkg/exceptions"

	"github.com/goccy/go-json"
)

type memoryEntry struct {
	value     string
	expiresAt time.Time
}

// memoryRepository mirrors redisRepository's encoding rules in process,
// for the memory storage backend and for tests.
type memoryRepository struct {
	mu       sync.Mutex
	entries  map[string]memoryEntry
	messages map[string][]string
	now      func() time.Time
}

func NewMemoryRepository() contracts.RedisRepository {
	return &memoryRepository{
		entries:  map[string]memoryEntry{},
		messages: map[string][]string{},
		now:      time.Now,
	}
}

func (r *memoryRepository) lookup(key string) (memoryEntry, bool) {
	entry, ok := r.entries[key]
	if !ok {
		return memoryEntry{}, false
	}
	if !entry.expiresAt.IsZero() && !r.now().Before(entry.expiresAt) {
		delete(r.entries, key)
		return memoryEntry{}, false
	}
	return entry, true
}

func (r *memoryRepository) expiry(exp time.Duration) time.Time {
	if exp <= 0 {
		return time.Time{}
	}
	return r.now().Add(exp)
}

func encode(value interface{}) (string, error) {
	jsonValue, err := json.Marshal(value)
	if err != nil {
		return "", exceptions.ErrCannotMarshalJSON(err)
	}
	return string(jsonValue), nil
}

func (r *memoryRepository) Delete(ctx context.Context, key string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.entries, key)
	return nil
}

func (r *memoryRepository) Set(ctx context.Context, key string, value interface{}, exp time.Duration) error {
	encoded, err := encode(value)
	if err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[key] = memoryEntry{value: encoded, expiresAt: r.expiry(exp)}
	return nil
}

func (r *memoryRepository) Get(ctx context.Context, key string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry, _ := r.lookup(key)
	return entry.value, nil
}

func (r *memoryRepository) Increment(ctx context.Context, key string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.lookup(key)
	var count int64
	if ok {
		parsed, err := strconv.ParseInt(entry.value, 10, 64)
		if err != nil {
			return 0, exceptions.ErrRedisCommand(err, "INCR")
		}
		count = parsed
	}
	count++
	entry.value = strconv.FormatInt(count, 10)
	r.entries[key] = entry
	return count, nil
}

func (r *memoryRepository) Expire(ctx context.Context, key string, exp time.Duration) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if entry, ok := r.lookup(key); ok {
		entry.expiresAt = r.expiry(exp)
		r.entries[key] = entry
	}
	return nil
}

func (r *memoryRepository) TrySetNX(ctx context.Context, key string, value interface{}, exp time.Duration) (bool, error) {
	encoded, err := encode(value)
	if err != nil {
		return false, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.lookup(key); ok {
		return false, nil
	}
	r.entries[key] = memoryEntry{value: encoded, expiresAt: r.expiry(exp)}
	return true, nil
}

func (r *memoryRepository) CompareAndDelete(ctx context.Context, key string, value interface{}) (bool, error) {
	encoded, err := encode(value)
	if err != nil {
		return false, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	entry, ok := r.lookup(key)
	if !ok || entry.value != encoded {
		return false, nil
	}
	delete(r.entries, key)
	return true, nil
}

func (r *memoryRepository) CompareAndExpire(ctx context.Context, key string, value interface{}, exp time.Duration) (bool, error) {
	encoded, err := encode(value)
	if err != nil {
		return false, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	entry, ok := r.lookup(key)
	if !ok || entry.value != encoded {
		return false, nil
	}
	entry.expiresAt = r.expiry(exp)
	r.entries[key] = entry
	return true, nil
}

func (r *memoryRepository) Publish(ctx context.Context, channel string, message interface{}) error {
	encoded, err := encode(message)
	if err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages[channel] = append(r.messages[channel], encoded)
	return nil
}
