package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrRedisUnavailable is returned when the Redis backend cannot be reached.
var ErrRedisUnavailable = errors.New("redis unavailable")

// ErrNotFound is returned when no cookies were saved for an origin.
var ErrNotFound = errors.New("session not found")

// Store persists cookie blobs keyed by API origin.
type Store interface {
	Load(ctx context.Context, origin string) (*Blob, error)
	Save(ctx context.Context, blob *Blob) error
	Delete(ctx context.Context, origin string) error
}

// RedisStore keeps blobs in Redis so several CLI hosts can share one login.
type RedisStore struct {
	redis  redis.UniversalClient
	prefix string
	ttl    time.Duration
}

// NewRedisStore creates a [RedisStore]. prefix sets the key namespace; ttl
// bounds how long an unused blob survives (0 keeps it until the longest
// cookie expires).
func NewRedisStore(rdb redis.UniversalClient, prefix string, ttl time.Duration) *RedisStore {
	if prefix == "" {
		prefix = "authflow"
	}
	return &RedisStore{
		redis:  rdb,
		prefix: prefix,
		ttl:    ttl,
	}
}

func (s *RedisStore) key(origin string) string {
	return s.prefix + ":cookies:" + origin
}

// Load reads the blob saved for origin.
//
//	Performance: 1 Redis GET.
func (s *RedisStore) Load(ctx context.Context, origin string) (*Blob, error) {
	data, err := s.redis.Get(ctx, s.key(origin)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return Decode(data)
}

// Save writes blob, dropping expired cookies first. An empty blob deletes
// the key.
//
//	Performance: 1 Redis SET (or DEL).
func (s *RedisStore) Save(ctx context.Context, blob *Blob) error {
	now := time.Now()
	live := &Blob{Origin: blob.Origin, SavedAt: now.Unix(), Cookies: blob.Live(now)}
	if len(live.Cookies) == 0 {
		return s.Delete(ctx, blob.Origin)
	}

	data, err := Encode(live)
	if err != nil {
		return err
	}

	if err := s.redis.Set(ctx, s.key(blob.Origin), data, s.expiry(live, now)).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}

// Delete removes the blob for origin. Deleting a missing key is not an error.
func (s *RedisStore) Delete(ctx context.Context, origin string) error {
	if err := s.redis.Del(ctx, s.key(origin)).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}

// Ping returns a point-in-time Redis availability check and latency.
func (s *RedisStore) Ping(ctx context.Context) (time.Duration, error) {
	start := time.Now()
	if err := s.redis.Ping(ctx).Err(); err != nil {
		return time.Since(start), fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return time.Since(start), nil
}

// expiry picks the key TTL: the configured ttl, capped by the latest cookie
// expiry. Session cookies (no expiry) leave the ttl untouched.
func (s *RedisStore) expiry(b *Blob, now time.Time) time.Duration {
	var latest int64
	for _, c := range b.Cookies {
		if c.Expires == 0 {
			return s.ttl
		}
		if c.Expires > latest {
			latest = c.Expires
		}
	}
	until := time.Unix(latest, 0).Sub(now)
	if s.ttl > 0 && s.ttl < until {
		return s.ttl
	}
	if until < time.Second {
		return time.Second
	}
	return until
}

// MemoryStore is a process-local [Store], used when no Redis is configured.
type MemoryStore struct {
	mu    sync.Mutex
	blobs map[string][]byte
}

// NewMemoryStore creates an empty [MemoryStore].
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{blobs: make(map[string][]byte)}
}

// Load decodes the stored blob; [ErrNotFound] when none is stored.
func (s *MemoryStore) Load(_ context.Context, origin string) (*Blob, error) {
	s.mu.Lock()
	data, ok := s.blobs[origin]
	s.mu.Unlock()
	if !ok {
		return nil, ErrNotFound
	}
	return Decode(data)
}

// Save keeps the live cookies of blob. Nothing live deletes the entry.
func (s *MemoryStore) Save(_ context.Context, blob *Blob) error {
	now := time.Now()
	live := &Blob{Origin: blob.Origin, SavedAt: now.Unix(), Cookies: blob.Live(now)}

	s.mu.Lock()
	defer s.mu.Unlock()
	if len(live.Cookies) == 0 {
		delete(s.blobs, blob.Origin)
		return nil
	}
	data, err := Encode(live)
	if err != nil {
		return err
	}
	s.blobs[blob.Origin] = data
	return nil
}

// Delete forgets the blob for origin.
func (s *MemoryStore) Delete(_ context.Context, origin string) error {
	s.mu.Lock()
	delete(s.blobs, origin)
	s.mu.Unlock()
	return nil
}
