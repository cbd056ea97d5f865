package cache

import (
	"boscoin.io/dbo/lib/common"
	"boscoin.io/dbo/lib/errors"
)

func NewAdapter(cfg common.Config) (Adapter, error) {
	switch cfg.CacheAdapter {
	case "", common.CacheNopAdapterName:
		return NewNopCacheAdapter(), nil
	case common.CacheMemoryAdapterName:
		size := cfg.CachePoolSize
		if size < 1 {
			size = common.DefaultCachePoolSize
		}
		return NewMemCacheAdapter(size), nil
	case common.CacheRedisAdapterName:
		if len(cfg.CacheRedisAddrs) < 1 {
			return nil, errors.CacheAdapterNotFound.Clone().SetData("error", "empty redis addresses")
		}
		return NewRedisCacheAdapter(&RedisRingOptions{Addrs: cfg.CacheRedisAddrs}), nil
	default:
		return nil, errors.CacheAdapterNotFound.Clone().SetData("adapter", cfg.CacheAdapter)
	}
}
