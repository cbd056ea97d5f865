package cache

import (
	"time"

	"boscoin.io/dbo/lib/storage"
)

// Adapter keeps committed rows by their storage key. Adapters never fail
// loudly; a broken cache behaves like an empty one.
type Adapter interface {
	Get(key string) (*storage.Record, bool)
	Set(key string, record *storage.Record, expiration time.Duration)
	Remove(key string)
}
