package feishu

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// DefaultRedisPrefix namespaces token keys in a shared Redis.
const DefaultRedisPrefix = "lark2html:token:"

// RedisStore is a TokenStore backed by Redis, letting several processes
// share one tenant token. Entries expire with the token itself.
type RedisStore struct {
	rdb    *goredis.Client
	prefix string
	now    func() time.Time
}

// DialRedis connects to addr and verifies the connection with a PING.
func DialRedis(ctx context.Context, addr string) (*goredis.Client, error) {
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return nil, fmt.Errorf("missing redis address")
	}

	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		DialTimeout: 5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return rdb, nil
}

// NewRedisStore wraps an existing client. An empty prefix selects
// DefaultRedisPrefix.
func NewRedisStore(rdb *goredis.Client, prefix string) *RedisStore {
	if prefix == "" {
		prefix = DefaultRedisPrefix
	}
	return &RedisStore{rdb: rdb, prefix: prefix, now: time.Now}
}

func (s *RedisStore) Get(ctx context.Context, key string) (TokenEntry, bool, error) {
	if s == nil || s.rdb == nil {
		return TokenEntry{}, false, fmt.Errorf("redis token store not initialized")
	}
	raw, err := s.rdb.Get(ctx, s.prefix+key).Bytes()
	if errors.Is(err, goredis.Nil) {
		return TokenEntry{}, false, nil
	}
	if err != nil {
		return TokenEntry{}, false, err
	}
	var entry TokenEntry
	if err := json.Unmarshal(raw, &entry); err != nil {
		return TokenEntry{}, false, fmt.Errorf("decoding cached token: %w", err)
	}
	return entry, true, nil
}

func (s *RedisStore) Set(ctx context.Context, key string, entry TokenEntry) error {
	if s == nil || s.rdb == nil {
		return fmt.Errorf("redis token store not initialized")
	}
	ttl := entry.ExpiresAt.Sub(s.now())
	if ttl <= 0 {
		return nil
	}
	raw, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	return s.rdb.Set(ctx, s.prefix+key, raw, ttl).Err()
}

// Ping checks that the shared cache still answers.
func (s *RedisStore) Ping(ctx context.Context) error {
	if s == nil || s.rdb == nil {
		return fmt.Errorf("redis token store not initialized")
	}
	return s.rdb.Ping(ctx).Err()
}

// Close releases the underlying connection pool.
func (s *RedisStore) Close() error {
	if s == nil || s.rdb == nil {
		return nil
	}
	return s.rdb.Close()
}

var _ TokenStore = (*RedisStore)(nil)
