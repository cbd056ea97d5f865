package dbo

import (
	"encoding/json"
	"sync/atomic"

	pkgerrors "github.com/pkg/errors"

	"boscoin.io/dbo/lib/common/observer"
	"boscoin.io/dbo/lib/errors"
	"boscoin.io/dbo/lib/storage"
)

var metaSerial uint64

// metaBase is what the session and the transaction need from a
// `MetaObject` without knowing its type.
type metaBase interface {
	identity() identityKey
	flush() error
	transactionDone(success bool)
	enterTransaction()
	pin()
	unpin()
	orphan()
	isQueued() bool
	setQueued(bool)
	isPlaceholder() bool
}

type identityKey struct {
	table string
	id    string
}

// MetaObject holds everything known about one logical row: the id, the
// optimistic locking version, the state and the instance once it is loaded.
// It never points back to the handles; handles count themselves in
// `refCount`. The dirty list and the open transaction hold it in `pins`.
type MetaObject[C any] struct {
	id         interface{}
	version    int64
	txnVersion int64
	obj        *C
	state      ObjectState
	refCount   int
	pins       int
	queued     bool
	serial     uint64
	session    *Session
	mapping    *Mapping[C]
}

func newMeta[C any](obj *C) *MetaObject[C] {
	return &MetaObject[C]{
		id:         DefaultInvalidID,
		version:    -1,
		txnVersion: -1,
		obj:        obj,
		state:      NewObjectState(PhaseNew),
		serial:     atomic.AddUint64(&metaSerial, 1),
	}
}

func newPersistedMeta[C any](s *Session, mapping *Mapping[C], id interface{}) *MetaObject[C] {
	return &MetaObject[C]{
		id:         id,
		version:    -1,
		txnVersion: -1,
		state:      NewObjectState(PhasePersisted),
		serial:     atomic.AddUint64(&metaSerial, 1),
		session:    s,
		mapping:    mapping,
	}
}

func (m *MetaObject[C]) ID() interface{} {
	return m.id
}

func (m *MetaObject[C]) Key() string {
	return FormatID(m.id)
}

func (m *MetaObject[C]) Version() int64 {
	return m.version
}

func (m *MetaObject[C]) State() ObjectState {
	return m.state
}

func (m *MetaObject[C]) IsLoaded() bool {
	return m.obj != nil
}

func (m *MetaObject[C]) Session() *Session {
	return m.session
}

func (m *MetaObject[C]) RefCount() int {
	return m.refCount
}

func (m *MetaObject[C]) Table() string {
	if m.mapping == nil {
		return ""
	}
	return m.mapping.Table
}

func (m *MetaObject[C]) identity() identityKey {
	return identityKey{table: m.Table(), id: m.Key()}
}

func (m *MetaObject[C]) isSurrogate() bool {
	return m.mapping == nil || m.mapping.IsSurrogate()
}

func (m *MetaObject[C]) isVersioned() bool {
	return m.mapping != nil && m.mapping.IsVersioned()
}

func (m *MetaObject[C]) isQueued() bool {
	return m.queued
}

func (m *MetaObject[C]) setQueued(q bool) {
	m.queued = q
}

func (m *MetaObject[C]) checkNotOrphaned() error {
	if m.state.IsOrphaned() {
		return errors.InvalidState.Clone().SetData("error", "object is orphaned").SetData("state", m.state.String())
	}
	return nil
}

// Load reads the row into a new instance unless it is already loaded.
func (m *MetaObject[C]) Load() error {
	if m.obj != nil {
		return nil
	}
	if err := m.checkNotOrphaned(); err != nil {
		return err
	}
	if m.session == nil {
		return errors.InvalidState.Clone().SetData("error", "object is not in a session")
	}

	record, err := m.session.readRecord(m.Table(), m.Key())
	if err != nil {
		return err
	}

	obj := new(C)
	if err := json.Unmarshal(record.Data, obj); err != nil {
		return pkgerrors.Wrapf(err, "failed to decode %s/%s", m.Table(), m.Key())
	}

	m.obj = obj
	if m.isVersioned() {
		m.version = record.Version
	}
	m.session.metrics.AddLoad(m.Table())
	log.Debug("object loaded", "table", m.Table(), "id", m.Key(), "version", m.version)

	return nil
}

func (m *MetaObject[C]) Obj() (*C, error) {
	if err := m.checkNotOrphaned(); err != nil {
		return nil, err
	}
	if err := m.Load(); err != nil {
		return nil, err
	}

	return m.obj, nil
}

// Purge drops a clean instance; the next access loads it again. Nothing
// else changes.
func (m *MetaObject[C]) Purge() {
	s := m.state
	if s.IsPersisted() && !s.IsDirty() && !s.InTransaction() && !s.IsSaving() {
		m.obj = nil
	}
}

// Reread throws away the instance with its unflushed changes.
func (m *MetaObject[C]) Reread() {
	// a row inserted by the open transaction has nothing to be read again
	if m.state.phase != PhasePersisted {
		return
	}

	if m.session != nil {
		m.session.discardChanges(m)
	}
	m.state.reread()
	m.obj = nil
}

// Remove schedules the delete of a persisted row. A new object is only
// taken out of its session.
func (m *MetaObject[C]) Remove() error {
	if err := m.checkNotOrphaned(); err != nil {
		return err
	}
	if m.state.IsDeleted() {
		return nil
	}

	if m.state.IsPersisted() {
		m.state.markDelete()
		if m.session != nil {
			m.session.needsFlush(m)
		}
		return nil
	}

	if s := m.session; s != nil {
		s.discardChanges(m)
		s.prune(m)
		m.session = nil
	}
	m.state.clear(NeedsSave)
	if m.isSurrogate() {
		m.id = m.invalidID()
	}

	return nil
}

func (m *MetaObject[C]) SetDirty() {
	if !m.state.markDirty() {
		return
	}

	if m.session != nil {
		m.session.needsFlush(m)
	}
}

// Flush writes the pending change of this object now.
func (m *MetaObject[C]) Flush() error {
	if err := m.checkNotOrphaned(); err != nil {
		return err
	}
	if !m.state.IsDirty() && !m.state.Has(NeedsDelete) {
		return nil
	}
	if m.session == nil {
		return errors.InvalidState.Clone().SetData("error", "object is not in a session")
	}

	if err := m.flush(); err != nil {
		return err
	}
	m.session.discardChanges(m)

	return nil
}

func (m *MetaObject[C]) flush() error {
	if err := m.checkNotOrphaned(); err != nil {
		return err
	}
	if m.state.IsSaving() {
		return nil
	}

	switch {
	case m.state.Has(NeedsDelete):
		if err := m.deleteRow(); err != nil {
			return err
		}
		m.state.deleted()
	case m.state.IsDirty():
		if err := m.Load(); err != nil {
			return err
		}

		m.state.beginSave()
		err := m.saveRow()
		m.state.endSave(err == nil)
		if err != nil {
			return err
		}
	}

	return nil
}

func (m *MetaObject[C]) invalidID() interface{} {
	if m.mapping == nil {
		return DefaultInvalidID
	}
	return m.mapping.InvalidID
}

func (m *MetaObject[C]) staleError(current int64) error {
	m.session.metrics.AddStaleError(m.Table())

	return errors.StaleObject.Clone().
		SetData("table", m.Table()).
		SetData("id", m.Key()).
		SetData("version", m.version).
		SetData("stored", current)
}

// begin opens the storage transaction for a write and makes sure the
// object hears about its end.
func (m *MetaObject[C]) begin() (*storage.LevelDBBackend, error) {
	st, err := m.session.writer()
	if err != nil {
		return nil, err
	}

	m.session.observe(m)

	return st, nil
}

func (m *MetaObject[C]) saveRow() error {
	st, err := m.begin()
	if err != nil {
		return err
	}

	data, err := json.Marshal(m.obj)
	if err != nil {
		return pkgerrors.Wrapf(err, "failed to encode %s", m.Table())
	}

	table := m.Table()
	if m.state.IsNew() {
		id := m.id
		if m.isSurrogate() {
			if id, err = st.NextSequence(table); err != nil {
				return err
			}
		}

		version := int64(-1)
		if m.isVersioned() {
			version = 0
		}

		encodedID, err := json.Marshal(id)
		if err != nil {
			return pkgerrors.Wrapf(err, "failed to encode id of %s", table)
		}

		record := storage.Record{ID: encodedID, Version: version, Data: data}
		key := FormatID(id)
		if m.isSurrogate() {
			if err := m.session.claim(identityKey{table: table, id: key}, m); err != nil {
				return err
			}
		}
		if err := st.New(storage.RecordKey(table, key), record); err != nil {
			if err == errors.StorageRecordAlreadyExists {
				return errors.ObjectAlreadyExists.Clone().SetData("table", table).SetData("id", key)
			}
			return err
		}

		if m.isSurrogate() {
			m.SetAutogeneratedID(id.(int64))
			m.session.register(m)
		}
		m.version = version
	} else {
		key := m.Key()
		current, err := st.GetRecord(table, key)
		if err != nil {
			if err == errors.StorageRecordDoesNotExist {
				return m.staleError(-1)
			}
			return err
		}
		if m.isVersioned() && current.Version != m.version {
			return m.staleError(current.Version)
		}

		version := int64(-1)
		if m.isVersioned() {
			version = m.version + 1
		}

		record := storage.Record{ID: current.ID, Version: version, Data: data}
		if err := st.Set(storage.RecordKey(table, key), record); err != nil {
			return err
		}
		m.version = version
	}

	m.session.written(storage.RecordKey(table, m.Key()))
	m.session.metrics.AddSave(table)
	log.Debug("object saved", "table", table, "id", m.Key(), "version", m.version)

	return nil
}

func (m *MetaObject[C]) deleteRow() error {
	st, err := m.begin()
	if err != nil {
		return err
	}

	table, key := m.Table(), m.Key()
	current, err := st.GetRecord(table, key)
	if err != nil {
		if err == errors.StorageRecordDoesNotExist {
			return m.staleError(-1)
		}
		return err
	}
	if m.isVersioned() && m.version >= 0 && current.Version != m.version {
		return m.staleError(current.Version)
	}

	if err := st.Remove(storage.RecordKey(table, key)); err != nil {
		return err
	}

	m.session.written(storage.RecordKey(table, key))
	m.session.metrics.AddDelete(table)
	log.Debug("object deleted", "table", table, "id", key)

	return nil
}

func (m *MetaObject[C]) transactionDone(success bool) {
	before := m.state
	s := m.session

	m.state.Done(success)

	switch {
	case success && before.Has(DeletedInTransaction):
		if s != nil {
			s.trigger(observer.ObjectDeleted, observer.NewObjectEvent(observer.ObjectDeleted, m.Table(), m.Key(), m.version))
			s.prune(m)
		}
		m.session = nil
		if m.isSurrogate() {
			m.id = m.invalidID()
		}
		m.version = -1
	case success && before.Has(SavedInTransaction):
		if s != nil {
			s.trigger(observer.ObjectSaved, observer.NewObjectEvent(observer.ObjectSaved, m.Table(), m.Key(), m.version))
		}
	case !success:
		m.version = m.txnVersion
		if before.phase == PhaseNew && before.InTransaction() {
			// the row of the insert is gone
			if s != nil {
				if m.isSurrogate() {
					s.prune(m)
					m.id = m.invalidID()
				}
				if before.Has(DeletedInTransaction) {
					s.prune(m)
					m.session = nil
				}
			}
		} else if before.Has(DeletedInTransaction) {
			// next access reads the row which was not deleted after all
			m.obj = nil
		}
		if m.session != nil {
			if m.state.IsDirty() {
				m.session.needsFlush(m)
			} else {
				// the unflushed delete was forgotten by rollback
				m.session.discardChanges(m)
			}
		}
	}

	log.Debug("transaction done", "table", m.Table(), "id", m.Key(), "success", success, "state", m.state.String())
}

func (m *MetaObject[C]) SetAutogeneratedID(id int64) {
	m.id = id
}

// BindID appends the id to the parameters of a statement.
func (m *MetaObject[C]) BindID(params []interface{}) []interface{} {
	return append(params, m.id)
}

// enterTransaction is called once the open transaction registered the
// object; rollback restores this version.
func (m *MetaObject[C]) enterTransaction() {
	m.txnVersion = m.version
}

func (m *MetaObject[C]) incRef() {
	m.refCount++
}

// decRef never takes the count below zero.
func (m *MetaObject[C]) decRef() {
	if m.refCount < 1 {
		log.Warn("reference count is already zero", "table", m.Table(), "id", m.Key())
		return
	}

	m.refCount--
	m.release()
}

func (m *MetaObject[C]) pin() {
	m.pins++
}

func (m *MetaObject[C]) unpin() {
	if m.pins < 1 {
		log.Warn("object is not pinned", "table", m.Table(), "id", m.Key())
		return
	}

	m.pins--
	m.release()
}

// release frees the instance once no handle, dirty list or transaction
// holds the object. A dirty object of a session is never freed.
func (m *MetaObject[C]) release() {
	if m.refCount > 0 || m.pins > 0 {
		return
	}
	if m.state.IsDirty() && m.session != nil {
		return
	}

	if m.session != nil {
		m.session.prune(m)
	}
	m.obj = nil
}

// isPlaceholder is true for a lazy object which was never loaded nor
// changed; it holds nothing to lose.
func (m *MetaObject[C]) isPlaceholder() bool {
	return m.obj == nil && !m.queued && m.pins == 0 && m.state == NewObjectState(PhasePersisted)
}

func (m *MetaObject[C]) orphan() {
	m.session = nil
	m.queued = false
	m.pins = 0
	m.obj = nil
	m.state.orphan()
}
