package dbo

import (
	"encoding/json"
	"strings"

	pkgerrors "github.com/pkg/errors"

	"boscoin.io/dbo/lib/errors"
	"boscoin.io/dbo/lib/storage"
)

// Add puts a new object into the session; it is inserted by the next flush.
// Adding it again to the same session does nothing.
func Add[C any](s *Session, p *Ptr[C]) error {
	if s.closed {
		return errors.SessionClosed
	}
	if p == nil || p.meta == nil {
		return errors.NullPointer
	}

	m := p.meta
	if m.session == s {
		return nil
	}
	if m.session != nil || !m.state.IsNew() {
		return errors.InvalidState.Clone().SetData("error", "object belongs to another session").SetData("state", m.state.String())
	}

	mapping, err := mappingOf[C](s)
	if err != nil {
		return err
	}
	m.mapping = mapping

	if mapping.IsSurrogate() {
		m.id = mapping.InvalidID
	} else {
		id, err := mapping.normalizeID(mapping.NaturalID(m.obj))
		if err != nil {
			return err
		}
		if _, found := s.lookup(identityKey{table: mapping.Table, id: FormatID(id)}); found {
			return errors.ObjectAlreadyExists.Clone().SetData("table", mapping.Table).SetData("id", FormatID(id))
		}
		m.id = id
		s.register(m)
	}

	m.session = s
	m.SetDirty()

	s.log.Debug("object added", "table", mapping.Table, "id", m.Key())

	return nil
}

// LoadLazy returns the handle of the row without reading it; the row is
// read at the first access.
func LoadLazy[C any](s *Session, id interface{}) (*Ptr[C], error) {
	if s.closed {
		return nil, errors.SessionClosed
	}

	mapping, err := mappingOf[C](s)
	if err != nil {
		return nil, err
	}

	if id, err = mapping.normalizeID(id); err != nil {
		return nil, err
	}

	m, err := metaFor(s, mapping, identityKey{table: mapping.Table, id: FormatID(id)}, id)
	if err != nil {
		return nil, err
	}

	return newPtr(m), nil
}

// Load returns the handle of the row with the instance loaded. It fails
// with `ObjectNotFound` when there is no such row.
func Load[C any](s *Session, id interface{}) (*Ptr[C], error) {
	p, err := LoadLazy[C](s, id)
	if err != nil {
		return nil, err
	}

	if err := p.meta.Load(); err != nil {
		p.Release()
		return nil, err
	}

	return p, nil
}

func metaFor[C any](s *Session, mapping *Mapping[C], k identityKey, id interface{}) (*MetaObject[C], error) {
	if found, ok := s.lookup(k); ok {
		m, ok := found.(*MetaObject[C])
		if !ok {
			return nil, errors.MappingNotFound.Clone().SetData("table", k.table)
		}
		return m, nil
	}

	m := newPersistedMeta(s, mapping, id)
	s.register(m)

	return m, nil
}

// Find returns every row of the table of `C` in key order. Pending changes
// are flushed first so the result includes them. A cursor in `options` is
// the key of the last row already seen; that row is skipped.
func Find[C any](s *Session, options storage.ListOptions) ([]*Ptr[C], error) {
	mapping, err := mappingOf[C](s)
	if err != nil {
		return nil, err
	}

	if err := s.Flush(); err != nil {
		return nil, err
	}

	st, err := s.reader()
	if err != nil {
		return nil, err
	}

	prefix := storage.RecordTablePrefix(mapping.Table)
	listOptions := storage.NewDefaultListOptions(false, nil, 0)
	var cursor string
	if options != nil {
		listOptions.SetReverse(options.Reverse())
		if c := options.Cursor(); len(c) > 0 {
			cursor = string(c)
			listOptions.SetCursor([]byte(prefix + cursor))
		}
	}

	iterFunc, closeFunc := st.GetIterator(prefix, listOptions)
	defer closeFunc()

	var ptrs []*Ptr[C]
	release := func() {
		for _, p := range ptrs {
			p.Release()
		}
	}

	for {
		item, hasNext := iterFunc()
		if !hasNext {
			break
		}

		key := strings.TrimPrefix(string(item.Key), prefix)
		if key == cursor {
			continue
		}
		if options != nil && options.Limit() > 0 && uint64(len(ptrs)) >= options.Limit() {
			break
		}

		k := identityKey{table: mapping.Table, id: key}
		if found, ok := s.lookup(k); ok {
			m, ok := found.(*MetaObject[C])
			if !ok {
				release()
				return nil, errors.MappingNotFound.Clone().SetData("table", k.table)
			}
			if m.state.IsDeleted() {
				continue
			}
			ptrs = append(ptrs, newPtr(m))
			continue
		}

		m, err := decodeRecord(s, mapping, item.Value)
		if err != nil {
			release()
			return nil, err
		}
		s.register(m)
		ptrs = append(ptrs, newPtr(m))
	}

	return ptrs, nil
}

func decodeRecord[C any](s *Session, mapping *Mapping[C], value []byte) (*MetaObject[C], error) {
	var record storage.Record
	if err := json.Unmarshal(value, &record); err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to decode row of %s", mapping.Table)
	}

	obj := new(C)
	if err := json.Unmarshal(record.Data, obj); err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to decode %s", mapping.Table)
	}

	var id interface{}
	if mapping.IsSurrogate() {
		var n int64
		if err := json.Unmarshal(record.ID, &n); err != nil {
			return nil, pkgerrors.Wrapf(err, "failed to decode id of %s", mapping.Table)
		}
		id = n
	} else {
		id = mapping.NaturalID(obj)
	}

	m := newPersistedMeta(s, mapping, id)
	m.obj = obj
	if mapping.IsVersioned() {
		m.version = record.Version
	}
	s.metrics.AddLoad(mapping.Table)

	return m, nil
}
