package feishu

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/alnah/go-lark2html/internal/logger"
)

// refreshBuffer is how long before expiry a cached token stops being
// handed out.
const refreshBuffer = 60 * time.Second

// TokenEntry is a cached tenant access token.
type TokenEntry struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// TokenStore persists token entries between calls. Implementations must
// be safe for concurrent use.
type TokenStore interface {
	Get(ctx context.Context, key string) (TokenEntry, bool, error)
	Set(ctx context.Context, key string, entry TokenEntry) error
}

// CacheKey derives the store key for a credential pair. The secret only
// enters the key through the digest.
func CacheKey(appID, appSecret string) string {
	sum := sha256.Sum256([]byte(appID + "::" + appSecret))
	return hex.EncodeToString(sum[:])
}

// ---------------------------------------------------------------------------
// MemoryStore
// ---------------------------------------------------------------------------

// MemoryStore is a process-local TokenStore.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]TokenEntry
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]TokenEntry)}
}

func (s *MemoryStore) Get(_ context.Context, key string) (TokenEntry, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.entries[key]
	return entry, ok, nil
}

func (s *MemoryStore) Set(_ context.Context, key string, entry TokenEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[key] = entry
	return nil
}

var _ TokenStore = (*MemoryStore)(nil)

// ---------------------------------------------------------------------------
// TokenManager
// ---------------------------------------------------------------------------

// issueFunc fetches a fresh token and its lifetime.
type issueFunc func(ctx context.Context) (token string, ttl time.Duration, err error)

// TokenManager hands out cached tokens and coalesces concurrent refreshes
// of the same key into a single issuance.
type TokenManager struct {
	store TokenStore
	now   func() time.Time
	log   *logger.Logger
	group singleflight.Group
}

// NewTokenManager builds a manager over store. A nil store gets a fresh
// MemoryStore, a nil clock time.Now and a nil logger a no-op one.
func NewTokenManager(store TokenStore, now func() time.Time, log *logger.Logger) *TokenManager {
	if store == nil {
		store = NewMemoryStore()
	}
	if now == nil {
		now = time.Now
	}
	if log == nil {
		log = logger.Nop()
	}
	return &TokenManager{store: store, now: now, log: log}
}

// Get returns a valid token for key, calling issue when the cache has
// none. Store failures degrade to a cache miss.
func (m *TokenManager) Get(ctx context.Context, key string, issue issueFunc) (string, error) {
	if token, ok := m.cached(ctx, key); ok {
		return token, nil
	}

	v, err, _ := m.group.Do(key, func() (any, error) {
		// Another caller may have refreshed while we waited on the group.
		if token, ok := m.cached(ctx, key); ok {
			return token, nil
		}

		token, ttl, err := issue(ctx)
		if err != nil {
			return "", err
		}
		entry := TokenEntry{Token: token, ExpiresAt: m.now().Add(ttl)}
		if err := m.store.Set(ctx, key, entry); err != nil {
			m.log.Warn("token cache write failed", "error", err)
		}
		m.log.Debug("tenant token issued", "expires_at", entry.ExpiresAt)
		return token, nil
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

func (m *TokenManager) cached(ctx context.Context, key string) (string, bool) {
	entry, ok, err := m.store.Get(ctx, key)
	if err != nil {
		m.log.Warn("token cache read failed", "error", err)
		return "", false
	}
	if !ok || entry.Token == "" {
		return "", false
	}
	if !m.now().Add(refreshBuffer).Before(entry.ExpiresAt) {
		return "", false
	}
	m.log.Debug("tenant token reused", "expires_at", entry.ExpiresAt)
	return entry.Token, true
}
