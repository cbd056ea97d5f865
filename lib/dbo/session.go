// Package dbo keeps one in-memory object per stored row and tracks its
// persistence state through flushes and transactions.
package dbo

import (
	"reflect"
	"time"

	"github.com/GianlucaGuarini/go-observable"
	logging "github.com/inconshreveable/log15"

	"boscoin.io/dbo/lib/cache"
	"boscoin.io/dbo/lib/common"
	"boscoin.io/dbo/lib/common/observer"
	"boscoin.io/dbo/lib/errors"
	"boscoin.io/dbo/lib/metrics"
	"boscoin.io/dbo/lib/storage"
)

// Session is one unit of work over the store: it maps every row to at most
// one `MetaObject` and queues the dirty ones until they are flushed. A
// session must be used by one goroutine at a time.
type Session struct {
	storage *storage.LevelDBBackend

	mappings map[reflect.Type]interface{}
	tables   map[string]reflect.Type

	identity map[identityKey]metaBase
	dirty    []metaBase
	txn      *transactionImpl
	closed   bool

	cache    *cache.Loader
	metrics  *metrics.SessionMetrics
	observer *observable.Observable
	log      logging.Logger
}

func NewSession(st *storage.LevelDBBackend) *Session {
	return &Session{
		storage:  st,
		mappings: map[reflect.Type]interface{}{},
		tables:   map[string]reflect.Type{},
		identity: map[identityKey]metaBase{},
		cache:    cache.NewLoader(nil, 0),
		metrics:  metrics.Session,
		observer: observer.SessionObserver,
		log:      log.New("session", common.GenerateUUID()),
	}
}

// SetCache shares committed rows with the other sessions using the same
// adapter. Rows read inside a write transaction never go to the cache.
func (s *Session) SetCache(adapter cache.Adapter, expiration time.Duration) {
	s.cache = cache.NewLoader(adapter, expiration)
}

func (s *Session) SetCacheLoader(l *cache.Loader) {
	s.cache = l
}

func (s *Session) SetMetrics(m *metrics.SessionMetrics) {
	s.metrics = m
}

func (s *Session) SetObserver(o *observable.Observable) {
	s.observer = o
}

func (s *Session) Storage() *storage.LevelDBBackend {
	return s.storage
}

func (s *Session) InTransaction() bool {
	return s.txn != nil
}

// Len is the number of objects in the identity map.
func (s *Session) Len() int {
	return len(s.identity)
}

func (s *Session) IsClosed() bool {
	return s.closed
}

// Flush writes every queued change in the order the objects became dirty.
// It stops at the first failure; the failed object stays queued.
func (s *Session) Flush() error {
	if s.closed {
		return errors.SessionClosed
	}
	if len(s.dirty) < 1 {
		return nil
	}
	if s.txn == nil {
		return errors.NoActiveTransaction
	}

	for len(s.dirty) > 0 {
		m := s.dirty[0]
		if err := m.flush(); err != nil {
			s.log.Debug("failed to flush", "key", m.identity(), "error", err)
			return err
		}
		s.discardChanges(m)
	}

	return nil
}

// Close orphans every object the session knows; handles still holding them
// fail with `InvalidState` afterwards.
func (s *Session) Close() error {
	if s.closed {
		return nil
	}
	if s.txn != nil {
		return errors.InvalidState.Clone().SetData("error", "transaction is still open")
	}

	dirty := s.dirty
	s.dirty = nil
	for _, m := range dirty {
		m.orphan()
	}

	for _, m := range s.identity {
		m.orphan()
	}
	s.metrics.AddLiveObjects(-len(s.identity))
	s.identity = map[identityKey]metaBase{}
	s.closed = true

	s.log.Debug("session closed", "orphaned", len(dirty))

	return nil
}

func (s *Session) reader() (*storage.LevelDBBackend, error) {
	if s.closed {
		return nil, errors.SessionClosed
	}
	if s.txn == nil {
		return nil, errors.NoActiveTransaction
	}
	if s.txn.st != nil {
		return s.txn.st, nil
	}

	return s.storage, nil
}

// writer opens the storage transaction at the first write, so sessions only
// reading never wait for each other.
func (s *Session) writer() (*storage.LevelDBBackend, error) {
	if s.closed {
		return nil, errors.SessionClosed
	}
	if s.txn == nil {
		return nil, errors.NoActiveTransaction
	}
	if s.txn.st == nil {
		st, err := s.storage.OpenTransaction()
		if err != nil {
			return nil, err
		}
		s.txn.st = st
	}

	return s.txn.st, nil
}

func (s *Session) readRecord(table, id string) (*storage.Record, error) {
	st, err := s.reader()
	if err != nil {
		return nil, err
	}

	fetch := func() (*storage.Record, error) {
		record, err := st.GetRecord(table, id)
		if err != nil {
			if err == errors.StorageRecordDoesNotExist {
				return nil, errors.ObjectNotFound.Clone().SetData("table", table).SetData("id", id)
			}
			return nil, err
		}
		return &record, nil
	}

	if st.IsInTransaction() {
		return fetch()
	}

	return s.cache.Load(storage.RecordKey(table, id), fetch)
}

func (s *Session) lookup(k identityKey) (metaBase, bool) {
	m, found := s.identity[k]
	return m, found
}

func (s *Session) register(m metaBase) {
	k := m.identity()
	if _, found := s.identity[k]; found {
		return
	}

	s.identity[k] = m
	s.metrics.AddLiveObjects(1)
}

func (s *Session) prune(m metaBase) {
	k := m.identity()
	if found, ok := s.identity[k]; !ok || found != m {
		return
	}

	delete(s.identity, k)
	s.metrics.AddLiveObjects(-1)
}

// claim makes room for an object about to be inserted under k. Only a
// lazy placeholder which was never loaded gives way; it is orphaned.
func (s *Session) claim(k identityKey, m metaBase) error {
	other, found := s.identity[k]
	if !found || other == m {
		return nil
	}
	if !other.isPlaceholder() {
		return errors.ObjectAlreadyExists.Clone().SetData("table", k.table).SetData("id", k.id)
	}

	delete(s.identity, k)
	s.metrics.AddLiveObjects(-1)
	other.orphan()
	s.log.Debug("placeholder orphaned by insert", "table", k.table, "id", k.id)

	return nil
}

// needsFlush queues the object once and registers it with the open
// transaction, so rollback can forget the change.
func (s *Session) needsFlush(m metaBase) {
	s.observe(m)
	if m.isQueued() {
		return
	}

	m.setQueued(true)
	m.pin()
	s.dirty = append(s.dirty, m)
}

func (s *Session) discardChanges(m metaBase) {
	if !m.isQueued() {
		return
	}

	for i, d := range s.dirty {
		if d == m {
			s.dirty = append(s.dirty[:i], s.dirty[i+1:]...)
			break
		}
	}
	m.setQueued(false)
	m.unpin()
}

// observe registers the object to be told the end of the open transaction.
// It returns false when the object is already registered.
func (s *Session) observe(m metaBase) bool {
	if s.txn == nil {
		return false
	}

	return s.txn.add(m)
}

func (s *Session) written(key string) {
	if s.txn == nil {
		return
	}
	s.txn.written = append(s.txn.written, key)
}

func (s *Session) trigger(event string, e observer.Event) {
	if s.observer == nil {
		return
	}
	s.observer.Trigger(event, e)
}
