package imagesearch

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/sromero1905/scrapping-link/internal/domain"
)

// DefaultCacheTTL bounds how long a provider response is reused.
const DefaultCacheTTL = time.Hour

// Cache stores normalized provider responses by key.
type Cache interface {
	Get(ctx context.Context, key string) ([]domain.ImageCandidate, bool)
	Set(ctx context.Context, key string, candidates []domain.ImageCandidate, ttl time.Duration)
}

// CacheKey identifies a provider response by provider and sorted keyword list.
func CacheKey(provider string, keywords []string) string {
	sorted := make([]string, len(keywords))
	copy(sorted, keywords)
	sort.Strings(sorted)
	return provider + "|" + strings.Join(sorted, ",")
}

type memoryEntry struct {
	candidates []domain.ImageCandidate
	expires    time.Time
}

// MemoryCache is a process-local TTL cache.
type MemoryCache struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	now     func() time.Time
}

var _ Cache = (*MemoryCache)(nil)

// NewMemoryCache returns an empty cache.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{entries: map[string]memoryEntry{}, now: time.Now}
}

// Get returns a copy of a live entry.
func (c *MemoryCache) Get(_ context.Context, key string) ([]domain.ImageCandidate, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if !c.now().Before(entry.expires) {
		delete(c.entries, key)
		return nil, false
	}
	return cloneCandidates(entry.candidates), true
}

// Set stores a copy of candidates until ttl elapses.
func (c *MemoryCache) Set(_ context.Context, key string, candidates []domain.ImageCandidate, ttl time.Duration) {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = memoryEntry{candidates: cloneCandidates(candidates), expires: c.now().Add(ttl)}
}

func cloneCandidates(in []domain.ImageCandidate) []domain.ImageCandidate {
	if in == nil {
		return nil
	}
	out := make([]domain.ImageCandidate, len(in))
	copy(out, in)
	return out
}
