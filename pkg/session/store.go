package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// MemoryStore keeps the credential in process memory.
type MemoryStore struct {
	mu   sync.RWMutex
	cred *Credential
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (m *MemoryStore) GetCredential(_ context.Context) (*Credential, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.cred == nil {
		return nil, ErrNoCredential
	}
	c := *m.cred
	return &c, nil
}

func (m *MemoryStore) SetCredential(_ context.Context, c *Credential) error {
	if c == nil {
		return fmt.Errorf("credential cannot be nil")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	copied := *c
	m.cred = &copied
	return nil
}

func (m *MemoryStore) ClearCredential(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cred = nil
	return nil
}

// FileStore keeps the credential as JSON in a file readable only by the
// owner.
type FileStore struct {
	path string
}

// NewFileStore creates a FileStore at path.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// DefaultFilePath returns $HOME/.flowdesk/credentials/<profile>.json.
func DefaultFilePath(profile string) (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	return filepath.Join(home, ".flowdesk", "credentials", profile+".json"), nil
}

// Path returns the file location.
func (f *FileStore) Path() string {
	return f.path
}

func (f *FileStore) GetCredential(_ context.Context) (*Credential, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNoCredential
		}
		return nil, fmt.Errorf("read credential file: %w", err)
	}

	var cred Credential
	if err := json.Unmarshal(data, &cred); err != nil {
		return nil, fmt.Errorf("decode credential file: %w", err)
	}
	return &cred, nil
}

func (f *FileStore) SetCredential(_ context.Context, c *Credential) error {
	if c == nil {
		return fmt.Errorf("credential cannot be nil")
	}
	if err := os.MkdirAll(filepath.Dir(f.path), 0o700); err != nil {
		return fmt.Errorf("create credential directory: %w", err)
	}

	data, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("encode credential: %w", err)
	}

	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("write credential file: %w", err)
	}
	if err := os.Rename(tmp, f.path); err != nil {
		return fmt.Errorf("replace credential file: %w", err)
	}
	return nil
}

func (f *FileStore) ClearCredential(_ context.Context) error {
	if err := os.Remove(f.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove credential file: %w", err)
	}
	return nil
}

// RedisKeyPrefix prefixes credential keys in Redis.
const RedisKeyPrefix = "flowdesk:session:"

// RedisStore keeps the credential in Redis with a TTL matching its expiry.
type RedisStore struct {
	redis *redis.Client
	key   string
	now   func() time.Time
}

// NewRedisStore creates a RedisStore for profile.
func NewRedisStore(redisClient *redis.Client, profile string) *RedisStore {
	if redisClient == nil {
		panic("redis client cannot be nil")
	}
	return &RedisStore{
		redis: redisClient,
		key:   RedisKeyPrefix + profile,
		now:   time.Now,
	}
}

// Key returns the Redis key used by this store.
func (r *RedisStore) Key() string {
	return r.key
}

func (r *RedisStore) GetCredential(ctx context.Context) (*Credential, error) {
	data, err := r.redis.Get(ctx, r.key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, ErrNoCredential
		}
		return nil, fmt.Errorf("redis get: %w", err)
	}

	var cred Credential
	if err := json.Unmarshal(data, &cred); err != nil {
		return nil, fmt.Errorf("decode credential: %w", err)
	}
	return &cred, nil
}

func (r *RedisStore) SetCredential(ctx context.Context, c *Credential) error {
	if c == nil {
		return fmt.Errorf("credential cannot be nil")
	}

	ttl := c.TTL(r.now())
	if ttl <= 0 {
		return ErrCredentialExpired
	}

	data, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("encode credential: %w", err)
	}
	if err := r.redis.Set(ctx, r.key, data, ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

func (r *RedisStore) ClearCredential(ctx context.Context) error {
	if err := r.redis.Del(ctx, r.key).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}
