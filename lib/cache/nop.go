package cache

import (
	"time"

	"boscoin.io/dbo/lib/storage"
)

type NopCacheAdapter struct {
}

func NewNopCacheAdapter() *NopCacheAdapter {
	return &NopCacheAdapter{}
}

func (NopCacheAdapter) Get(string) (*storage.Record, bool) {
	return nil, false
}

func (NopCacheAdapter) Set(string, *storage.Record, time.Duration) {}

func (NopCacheAdapter) Remove(string) {}
