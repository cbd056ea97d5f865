package cache

import (
	"time"

	"golang.org/x/sync/singleflight"

	"boscoin.io/dbo/lib/storage"
)

const DefaultExpiration = 10 * time.Minute

// Loader reads rows through an `Adapter`. Concurrent misses of the same key
// share one fetch.
type Loader struct {
	adapter    Adapter
	expiration time.Duration
	group      singleflight.Group
}

func NewLoader(adapter Adapter, expiration time.Duration) *Loader {
	if adapter == nil {
		adapter = NewNopCacheAdapter()
	}
	return &Loader{adapter: adapter, expiration: expiration}
}

func (l *Loader) Load(key string, fetch func() (*storage.Record, error)) (*storage.Record, error) {
	if record, ok := l.adapter.Get(key); ok {
		return record, nil
	}

	v, err, _ := l.group.Do(key, func() (interface{}, error) {
		record, err := fetch()
		if err != nil {
			return nil, err
		}
		l.adapter.Set(key, record, l.expiration)
		return record, nil
	})
	if err != nil {
		return nil, err
	}

	return v.(*storage.Record), nil
}

func (l *Loader) Remove(keys ...string) {
	for _, key := range keys {
		l.group.Forget(key)
		l.adapter.Remove(key)
	}
}
