package summary

import (
	"time"

	"github.com/bluele/gcache"
	"github.com/go-redis/redis"
	"wuyrush.io/chronos/common/logging"
	"wuyrush.io/chronos/common/metrics"
)

// Cache stores generated summaries. Caches are best effort: failures are logged and reported as misses.
type Cache interface {
	Get(key string) (string, bool)
	Set(key, text string)
}

// LocalCache is an in-process expiring LRU cache
type LocalCache struct {
	c gcache.Cache
}

func NewLocalCache(size int, expiry time.Duration) *LocalCache {
	return &LocalCache{c: gcache.New(size).LRU().Expiration(expiry).Build()}
}

func (l *LocalCache) Get(key string) (string, bool) {
	v, err := l.c.Get(key)
	if err != nil {
		if err != gcache.KeyNotFoundError {
			logging.WithFuncName().WithError(err).Warn("failed reading local summary cache")
		}
		metrics.OracleCacheLookups.WithLabelValues("local", "miss").Inc()
		return "", false
	}
	metrics.OracleCacheLookups.WithLabelValues("local", "hit").Inc()
	return v.(string), true
}

func (l *LocalCache) Set(key, text string) {
	if err := l.c.Set(key, text); err != nil {
		logging.WithFuncName().WithError(err).Warn("failed writing local summary cache")
	}
}

// RedisCache shares summaries across service instances
type RedisCache struct {
	db     *redis.Client
	expiry time.Duration
}

func NewRedisCache(db *redis.Client, expiry time.Duration) *RedisCache {
	return &RedisCache{db: db, expiry: expiry}
}

func (r *RedisCache) Get(key string) (string, bool) {
	text, err := r.db.Get(key).Result()
	if err != nil {
		if err != redis.Nil {
			logging.WithFuncName().WithError(err).WithField("key", key).Warn("failed reading shared summary cache")
		}
		metrics.OracleCacheLookups.WithLabelValues("shared", "miss").Inc()
		return "", false
	}
	metrics.OracleCacheLookups.WithLabelValues("shared", "hit").Inc()
	return text, true
}

func (r *RedisCache) Set(key, text string) {
	if err := r.db.Set(key, text, r.expiry).Err(); err != nil {
		logging.WithFuncName().WithError(err).WithField("key", key).Warn("failed writing shared summary cache")
	}
}

// TieredCache looks caches up in order, back filling faster tiers on a hit in a slower one
type TieredCache []Cache

func (t TieredCache) Get(key string) (string, bool) {
	for i, c := range t {
		if text, ok := c.Get(key); ok {
			for j := 0; j < i; j++ {
				t[j].Set(key, text)
			}
			return text, true
		}
	}
	return "", false
}

func (t TieredCache) Set(key, text string) {
	for _, c := range t {
		c.Set(key, text)
	}
}
