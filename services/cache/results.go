package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"sjsage522/portalevents/internal/events"
	"sjsage522/portalevents/logger"
)

// ResultCache keeps recent extraction results so repeated requests within the TTL do
// not start another browser. A ResultCache without a backend or with a non-positive TTL
// caches nothing.
type ResultCache struct {
	svc CacheService
	ttl time.Duration
	log *logger.Logger
}

// NewResultCache creates a ResultCache; svc may be nil
func NewResultCache(svc CacheService, ttl time.Duration, log *logger.Logger) *ResultCache {
	if log == nil {
		log = logger.Nop()
	}
	return &ResultCache{svc: svc, ttl: ttl, log: log}
}

// Enabled reports whether results are cached at all
func (c *ResultCache) Enabled() bool {
	return c != nil && c.svc != nil && c.ttl > 0
}

// ResultKey derives the cache key of a request. Only the listing, the account and the
// bound take part; the password never does.
func ResultKey(eventsURL, email string, max int) string {
	sum := sha256.Sum256([]byte(eventsURL + "\x00" + email + "\x00" + strconv.Itoa(max)))
	return "portalevents:" + hex.EncodeToString(sum[:16])
}

// Get returns the cached events for key. Backend failures count as misses.
func (c *ResultCache) Get(key string) ([]events.Event, bool) {
	if !c.Enabled() {
		return nil, false
	}

	data, err := c.svc.Get(key)
	if err != nil {
		if !errors.Is(err, ErrMiss) {
			c.log.Warn().Err(err).Msg("Result cache read failed")
		}
		return nil, false
	}

	var list []events.Event
	if err := json.Unmarshal(data, &list); err != nil {
		c.log.Warn().Err(err).Msg("Dropping unreadable cached result")
		_ = c.svc.Delete(key)
		return nil, false
	}
	return list, true
}

// Put stores events under key
func (c *ResultCache) Put(key string, list []events.Event) {
	if !c.Enabled() {
		return
	}

	data, err := json.Marshal(list)
	if err != nil {
		c.log.Warn().Err(err).Msg("Failed to encode result for cache")
		return
	}
	if err := c.svc.Set(key, data, c.ttl); err != nil {
		c.log.Warn().Err(err).Msg("Result cache write failed")
	}
}
