package cache

import (
	"time"

	"github.com/hashicorp/golang-lru"

	"boscoin.io/dbo/lib/storage"
)

// MemCacheAdapter is a process local LRU; expirations are ignored, entries
// leave only by eviction or `Remove`.
type MemCacheAdapter struct {
	lruCache *lru.Cache
}

func NewMemCacheAdapter(size int) *MemCacheAdapter {
	lruCache, err := lru.New(size)
	if err != nil {
		panic(err)
	}

	a := &MemCacheAdapter{
		lruCache: lruCache,
	}
	return a
}

func (a *MemCacheAdapter) Get(key string) (*storage.Record, bool) {
	value, ok := a.lruCache.Get(key)
	if ok {
		record, ok := value.(*storage.Record)
		return record, ok
	}
	return nil, ok
}

func (a *MemCacheAdapter) Set(key string, record *storage.Record, _ time.Duration) {
	a.lruCache.Add(key, record)
}

func (a *MemCacheAdapter) Remove(key string) {
	a.lruCache.Remove(key)
}

func (a *MemCacheAdapter) Len() int {
	return a.lruCache.Len()
}
