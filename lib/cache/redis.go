package cache

import (
	"time"

	redisCache "github.com/go-redis/cache"
	"github.com/go-redis/redis"
	"github.com/vmihailenco/msgpack"

	"boscoin.io/dbo/lib/storage"
)

type RedisCacheAdapter struct {
	store *redisCache.Codec
}

type RedisRingOptions redis.RingOptions

func NewRedisCacheAdapter(opt *RedisRingOptions) *RedisCacheAdapter {
	ropt := redis.RingOptions(*opt)
	a := &RedisCacheAdapter{
		&redisCache.Codec{
			Redis: redis.NewRing(&ropt),
			Marshal: func(v interface{}) ([]byte, error) {
				return msgpack.Marshal(v)
			},
			Unmarshal: func(b []byte, v interface{}) error {
				return msgpack.Unmarshal(b, v)
			},
		},
	}
	return a
}

func (a *RedisCacheAdapter) Get(key string) (*storage.Record, bool) {
	var record storage.Record
	if err := a.store.Get(key, &record); err != nil {
		if err != redisCache.ErrCacheMiss {
			log.Debug("failed to get from redis", "key", key, "error", err)
		}
		return nil, false
	}
	return &record, true
}

func (a *RedisCacheAdapter) Set(key string, record *storage.Record, expiration time.Duration) {
	err := a.store.Set(&redisCache.Item{
		Key:        key,
		Object:     record,
		Expiration: expiration,
	})
	if err != nil {
		log.Debug("failed to set to redis", "key", key, "error", err)
	}
}

func (a *RedisCacheAdapter) Remove(key string) {
	if err := a.store.Delete(key); err != nil && err != redisCache.ErrCacheMiss {
		log.Debug("failed to remove from redis", "key", key, "error", err)
	}
}
