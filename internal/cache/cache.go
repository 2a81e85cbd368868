package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/ppiankov/flagaudit/internal/model"
)

// NoExpiration keeps an entry until it is deleted
const NoExpiration time.Duration = -1

// Cache defines the interface for caching
type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte, ttl time.Duration) error
	Delete(key string) error
	Clear() error
}

// Key derives a cache key from a request URL and the credential it was made with,
// so responses fetched under one token are never served under another
func Key(rawURL, scope string) string {
	hash := sha256.Sum256([]byte(scope + "\x00" + rawURL))
	return "flagaudit:v1:" + hex.EncodeToString(hash[:])
}

// New builds the cache described by cfg: nil when caching is disabled,
// memory-only without a directory, memory over disk otherwise
func New(cfg model.CacheConfig) Cache {
	if !cfg.Enabled() {
		return nil
	}
	if cfg.Dir == "" {
		return NewMemoryCache(cfg.Duration, 10*time.Minute)
	}
	return NewLayeredCache(cfg.Duration, cfg.Dir, cfg.Duration)
}
