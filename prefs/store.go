package prefs

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/redis/go-redis/v9"
	"gopkg.in/yaml.v3"
)

// ErrNotFound is returned by Load when nothing is stored under the key.
var ErrNotFound = errors.New("preference not found")

// Store persists string preferences.
type Store interface {
	Load(ctx context.Context, key string) (string, error)
	Save(ctx context.Context, key, value string) error
}

// Watcher is implemented by stores that can report changes made by other
// processes. The channel closes when ctx ends.
type Watcher interface {
	Watch(ctx context.Context, key string) (<-chan string, error)
}

// FileStore keeps preferences in a YAML file of key: value pairs.
type FileStore struct {
	path string
	mu   sync.Mutex
}

// NewFileStore keeps preferences in a YAML map at path.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Path returns the backing file.
func (s *FileStore) Path() string {
	return s.path
}

// Load returns [ErrNotFound] when the file or the key is missing.
func (s *FileStore) Load(_ context.Context, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	values, err := s.read()
	if err != nil {
		return "", err
	}
	v, ok := values[key]
	if !ok {
		return "", ErrNotFound
	}
	return v, nil
}

// Save rewrites the file through a temporary sibling so a crash never leaves
// it half written.
func (s *FileStore) Save(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	values, err := s.read()
	if err != nil {
		return err
	}
	values[key] = value

	data, err := yaml.Marshal(values)
	if err != nil {
		return fmt.Errorf("failed to marshal preferences: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("failed to create preferences directory: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write preferences: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("failed to replace preferences: %w", err)
	}
	return nil
}

func (s *FileStore) read() (map[string]string, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("failed to read preferences: %w", err)
	}
	values := map[string]string{}
	if err := yaml.Unmarshal(data, &values); err != nil {
		return nil, fmt.Errorf("failed to parse preferences: %w", err)
	}
	if values == nil {
		values = map[string]string{}
	}
	return values, nil
}

// RedisStore shares preferences between processes. Every Save publishes
// the new value so watchers in other processes see it.
type RedisStore struct {
	redis  redis.UniversalClient
	prefix string
}

// NewRedisStore keeps preferences under prefix+":prefs:" and announces
// changes on prefix+":prefs-changed:".
func NewRedisStore(rdb redis.UniversalClient, prefix string) *RedisStore {
	if prefix == "" {
		prefix = "authflow"
	}
	return &RedisStore{redis: rdb, prefix: prefix}
}

func (s *RedisStore) key(key string) string {
	return s.prefix + ":prefs:" + key
}

func (s *RedisStore) channel(key string) string {
	return s.prefix + ":prefs-changed:" + key
}

// Load returns [ErrNotFound] for a missing key.
func (s *RedisStore) Load(ctx context.Context, key string) (string, error) {
	v, err := s.redis.Get(ctx, s.key(key)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", ErrNotFound
		}
		return "", err
	}
	return v, nil
}

// Save writes value and publishes it to watchers.
func (s *RedisStore) Save(ctx context.Context, key, value string) error {
	if err := s.redis.Set(ctx, s.key(key), value, 0).Err(); err != nil {
		return err
	}
	return s.redis.Publish(ctx, s.channel(key), value).Err()
}

// Watch subscribes to changes of key. The subscription is confirmed before
// Watch returns.
func (s *RedisStore) Watch(ctx context.Context, key string) (<-chan string, error) {
	sub := s.redis.Subscribe(ctx, s.channel(key))
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return nil, err
	}

	out := make(chan string)
	go func() {
		defer close(out)
		defer sub.Close()
		msgs := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				select {
				case out <- msg.Payload:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}
