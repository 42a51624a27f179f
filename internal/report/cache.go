package report

import (
	"sync"
	"time"

	cache "github.com/patrickmn/go-cache"
	"github.com/yourusername/edgeboard/internal/metrics"
)

const leaguesKey = "leagues"

// LeaguesCache keeps the distinct league list in memory
type LeaguesCache struct {
	cache     *cache.Cache
	ttl       time.Duration
	mu        sync.RWMutex
	hitCount  uint64
	missCount uint64
}

// NewLeaguesCache creates a new leagues cache. A zero ttl disables caching.
func NewLeaguesCache(ttl time.Duration) *LeaguesCache {
	return &LeaguesCache{
		cache: cache.New(ttl, ttl*2),
		ttl:   ttl,
	}
}

// Get returns the cached leagues
func (lc *LeaguesCache) Get() ([]string, bool) {
	lc.mu.Lock()
	defer lc.mu.Unlock()

	if lc.ttl > 0 {
		if value, found := lc.cache.Get(leaguesKey); found {
			if leagues, ok := value.([]string); ok {
				lc.hitCount++
				metrics.RecordLeaguesCache(true)
				return append([]string(nil), leagues...), true
			}
		}
	}

	lc.missCount++
	metrics.RecordLeaguesCache(false)
	return nil, false
}

// Set stores the league list
func (lc *LeaguesCache) Set(leagues []string) {
	if lc.ttl <= 0 {
		return
	}
	lc.cache.Set(leaguesKey, append([]string(nil), leagues...), lc.ttl)
}

// Invalidate drops the cached list, e.g. after an import adds a league
func (lc *LeaguesCache) Invalidate() {
	lc.cache.Delete(leaguesKey)
}

// Stats returns cache statistics
func (lc *LeaguesCache) Stats() (hits, misses uint64, ratio float64) {
	lc.mu.RLock()
	defer lc.mu.RUnlock()

	hits = lc.hitCount
	misses = lc.missCount
	total := hits + misses
	if total > 0 {
		ratio = float64(hits) / float64(total)
	}
	return
}
