package dbo

import (
	"testing"

	"github.com/stretchr/testify/require"

	"boscoin.io/dbo/lib/errors"
	"boscoin.io/dbo/lib/storage"
)

type unmapped struct {
	Name string `json:"name"`
}

func TestSessionMap(t *testing.T) {
	st := storage.NewTestStorage()
	defer st.Close()

	s := newTestSession(t, st)

	err := Map[document](s, DefaultTraits("other"), nil)
	require.True(t, errors.Is(err, errors.MappingAlreadyExists))

	err = Map[unmapped](s, DefaultTraits("document"), nil)
	require.True(t, errors.Is(err, errors.MappingAlreadyExists))

	err = Map[unmapped](s, Traits{Table: "unmapped"}, nil)
	require.True(t, errors.Is(err, errors.InvalidState))

	err = Map[unmapped](s, Traits{}, nil)
	require.True(t, errors.Is(err, errors.InvalidState))

	tx := begin(t, s)
	defer tx.Rollback()

	_, err = Load[unmapped](s, 1)
	require.True(t, errors.Is(err, errors.MappingNotFound))

	err = Add(s, NewPtr(&unmapped{}))
	require.True(t, errors.Is(err, errors.MappingNotFound))
}

func TestSessionAddAndLoad(t *testing.T) {
	st := storage.NewTestStorage()
	defer st.Close()

	s := newTestSession(t, st)
	tx := begin(t, s)

	p := NewPtr(&document{Title: "first"})
	require.NoError(t, Add(s, p))
	require.True(t, p.IsNew())
	require.False(t, p.IsPersisted())
	require.True(t, p.IsDirty())
	require.True(t, p.Session() == s)

	// adding again is harmless
	require.NoError(t, Add(s, p))
	require.Equal(t, 1, len(s.dirty))

	require.NoError(t, tx.Commit())
	require.True(t, p.IsPersisted())
	require.False(t, p.IsDirty())
	require.Equal(t, int64(1), p.ID())
	require.Equal(t, int64(0), p.Version())
	require.Equal(t, 1, s.Len())

	other := newTestSession(t, st)
	otx := begin(t, other)
	defer otx.Rollback()

	q, err := Load[document](other, 1)
	require.NoError(t, err)
	d, err := q.Get()
	require.NoError(t, err)
	require.Equal(t, "first", d.Title)
	require.Equal(t, int64(0), q.Version())

	// one object per row in a session
	q2, err := Load[document](other, int64(1))
	require.NoError(t, err)
	require.True(t, q.Equal(q2))
	require.Equal(t, 2, q.Meta().RefCount())

	// but not across sessions
	require.False(t, p.Equal(q))

	_, err = Load[document](other, 99)
	require.True(t, errors.Is(err, errors.ObjectNotFound))

	for _, id := range []interface{}{-1, 0, "1", 1.5} {
		_, err = Load[document](other, id)
		require.True(t, errors.Is(err, errors.InvalidID), "%v", id)
	}
}

func TestSessionLoadRequiresTransaction(t *testing.T) {
	st := storage.NewTestStorage()
	defer st.Close()

	ids := storeDocuments(t, st, "first")
	s := newTestSession(t, st)

	_, err := Load[document](s, ids[0])
	require.Equal(t, errors.NoActiveTransaction, err)

	p, err := LoadLazy[document](s, ids[0])
	require.NoError(t, err)
	require.False(t, p.Meta().IsLoaded())

	_, err = p.Get()
	require.Equal(t, errors.NoActiveTransaction, err)

	tx := begin(t, s)
	defer tx.Rollback()

	d, err := p.Get()
	require.NoError(t, err)
	require.Equal(t, "first", d.Title)
}

func TestSessionReleaseFreesObject(t *testing.T) {
	st := storage.NewTestStorage()
	defer st.Close()

	ids := storeDocuments(t, st, "first")
	s := newTestSession(t, st)
	tx := begin(t, s)
	defer tx.Rollback()

	p, err := Load[document](s, ids[0])
	require.NoError(t, err)
	m := p.Meta()
	require.Equal(t, 1, s.Len())

	p.Release()
	require.Equal(t, 0, s.Len())
	require.False(t, m.IsLoaded())

	q, err := Load[document](s, ids[0])
	require.NoError(t, err)
	require.False(t, q.Meta() == m)
}

func TestSessionRefCountCountsHandles(t *testing.T) {
	st := storage.NewTestStorage()
	defer st.Close()

	ids := storeDocuments(t, st, "first")
	s := newTestSession(t, st)
	tx := begin(t, s)

	p, err := Load[document](s, ids[0])
	require.NoError(t, err)
	require.NoError(t, p.Update(func(d *document) error {
		d.Title = "changed"
		return nil
	}))
	m := p.Meta()

	// the pending change keeps the object without any handle
	p.Release()
	require.Equal(t, 0, m.RefCount())
	require.Equal(t, 2, m.pins)
	require.True(t, m.IsLoaded())
	require.Equal(t, 1, s.Len())

	require.NoError(t, tx.Commit())
	require.Equal(t, 0, m.pins)
	require.False(t, m.IsLoaded())
	require.Equal(t, 0, s.Len())

	record, err := st.GetRecord("document", FormatID(ids[0]))
	require.NoError(t, err)
	require.Equal(t, int64(1), record.Version)
}

func TestSessionPurge(t *testing.T) {
	st := storage.NewTestStorage()
	defer st.Close()

	ids := storeDocuments(t, st, "first")
	s := newTestSession(t, st)
	tx := begin(t, s)
	defer tx.Rollback()

	p, err := Load[document](s, ids[0])
	require.NoError(t, err)
	before, _ := p.Get()
	expected := *before

	p.Purge()
	require.False(t, p.Meta().IsLoaded())
	require.Equal(t, ids[0], p.ID())
	require.Equal(t, int64(0), p.Version())
	require.True(t, p.IsPersisted())

	after, err := p.Get()
	require.NoError(t, err)
	require.Equal(t, expected, *after)

	// a dirty object keeps its instance
	require.NoError(t, p.Update(func(d *document) error {
		d.Title = "changed"
		return nil
	}))
	p.Purge()
	require.True(t, p.Meta().IsLoaded())

	// new objects have nothing to reload from
	n := NewPtr(&document{})
	n.Purge()
	require.True(t, n.Meta().IsLoaded())
}

func TestSessionReread(t *testing.T) {
	st := storage.NewTestStorage()
	defer st.Close()

	ids := storeDocuments(t, st, "first")
	s := newTestSession(t, st)
	tx := begin(t, s)
	defer tx.Rollback()

	p, err := Load[document](s, ids[0])
	require.NoError(t, err)

	require.NoError(t, p.Update(func(d *document) error {
		d.Title = "changed"
		return nil
	}))
	require.True(t, p.IsDirty())
	require.Equal(t, 1, len(s.dirty))

	p.Reread()
	require.False(t, p.IsDirty())
	require.Equal(t, 0, len(s.dirty))

	d, err := p.Get()
	require.NoError(t, err)
	require.Equal(t, "first", d.Title)

	// no-op on new objects
	n := NewPtr(&document{Title: "new"})
	require.NoError(t, Add(s, n))
	n.Reread()
	require.True(t, n.IsDirty())
	require.True(t, n.Meta().IsLoaded())
}

func TestSessionRemoveNew(t *testing.T) {
	st := storage.NewTestStorage()
	defer st.Close()

	s := newTestSession(t, st)
	tx := begin(t, s)

	p := NewPtr(&document{Title: "never stored"})
	require.NoError(t, Add(s, p))
	require.Equal(t, 1, p.Meta().RefCount())
	// the dirty list and the transaction
	require.Equal(t, 2, p.Meta().pins)

	require.NoError(t, p.Remove())
	require.NoError(t, p.Remove())
	require.False(t, p.IsDirty())
	require.Nil(t, p.Session())
	require.Equal(t, 0, len(s.dirty))
	require.Equal(t, 1, p.Meta().RefCount())
	require.Equal(t, 1, p.Meta().pins)

	require.NoError(t, tx.Commit())

	exists, err := st.Has(storage.SequenceKey("document"))
	require.NoError(t, err)
	require.False(t, exists)

	// it can be added again
	tx = begin(t, s)
	require.NoError(t, Add(s, p))
	require.NoError(t, tx.Commit())
	require.True(t, p.IsPersisted())
}

func TestSessionRemovePersisted(t *testing.T) {
	st := storage.NewTestStorage()
	defer st.Close()

	ids := storeDocuments(t, st, "first")
	s := newTestSession(t, st)
	tx := begin(t, s)

	p, err := Load[document](s, ids[0])
	require.NoError(t, err)

	require.NoError(t, p.Remove())
	require.NoError(t, p.Remove())
	require.True(t, p.IsTransient())
	require.Equal(t, 1, len(s.dirty))

	// dirty mark on a deleted object does not bring it back
	require.NoError(t, p.Update(func(d *document) error {
		d.Title = "too late"
		return nil
	}))
	require.False(t, p.IsDirty())
	require.True(t, p.State().Has(NeedsDelete))

	require.NoError(t, tx.Commit())
	require.True(t, p.IsNew())
	require.True(t, p.IsTransient())
	require.Nil(t, p.Session())
	require.Equal(t, DefaultInvalidID, p.ID())
	require.Equal(t, int64(-1), p.Version())
	require.Equal(t, 0, s.Len())

	tx = begin(t, s)
	defer tx.Rollback()

	_, err = Load[document](s, ids[0])
	require.True(t, errors.Is(err, errors.ObjectNotFound))
}

func TestSessionFlushRequiresTransaction(t *testing.T) {
	st := storage.NewTestStorage()
	defer st.Close()

	s := newTestSession(t, st)

	p := NewPtr(&document{Title: "first"})
	require.NoError(t, Add(s, p))

	require.Equal(t, errors.NoActiveTransaction, s.Flush())
	require.Equal(t, errors.NoActiveTransaction, p.Flush())
	require.True(t, p.IsDirty())
	require.False(t, p.State().IsSaving())

	tx := begin(t, s)
	require.NoError(t, p.Flush())
	require.False(t, p.IsDirty())
	require.NoError(t, tx.Commit())
}

func TestSessionNaturalKey(t *testing.T) {
	st := storage.NewTestStorage()
	defer st.Close()

	s := newTestSession(t, st)
	tx := begin(t, s)

	alice := NewPtr(&person{Name: "alice", Age: 30})
	require.NoError(t, Add(s, alice))
	require.Equal(t, "alice", alice.ID())

	// the identity map knows natural keys before the insert
	err := Add(s, NewPtr(&person{Name: "alice"}))
	require.True(t, errors.Is(err, errors.ObjectAlreadyExists))

	loaded, err := Load[person](s, "alice")
	require.NoError(t, err)
	require.True(t, loaded.Equal(alice))

	require.NoError(t, tx.Commit())
	require.Equal(t, int64(-1), alice.Version())

	other := newTestSession(t, st)
	otx := begin(t, other)

	p, err := Load[person](other, "alice")
	require.NoError(t, err)
	require.NoError(t, p.Update(func(p *person) error {
		p.Age++
		return nil
	}))
	require.NoError(t, otx.Commit())
	require.Equal(t, int64(-1), p.Version())

	// a row stored by another session
	third := newTestSession(t, st)
	ttx := begin(t, third)
	require.NoError(t, Add(third, NewPtr(&person{Name: "alice"})))
	err = ttx.Commit()
	require.True(t, errors.Is(err, errors.ObjectAlreadyExists))
	require.False(t, third.InTransaction())
}

func TestSessionClose(t *testing.T) {
	st := storage.NewTestStorage()
	defer st.Close()

	ids := storeDocuments(t, st, "first")
	s := newTestSession(t, st)
	tx := begin(t, s)

	p, err := Load[document](s, ids[0])
	require.NoError(t, err)
	n := NewPtr(&document{Title: "pending"})
	require.NoError(t, Add(s, n))

	err = s.Close()
	require.True(t, errors.Is(err, errors.InvalidState))

	require.NoError(t, tx.Rollback())
	require.NoError(t, s.Close())
	require.NoError(t, s.Close())

	for _, h := range []*Ptr[document]{p, n} {
		require.True(t, h.IsOrphaned())

		_, err = h.Get()
		require.True(t, errors.Is(err, errors.InvalidState))
		_, err = h.Modify()
		require.True(t, errors.Is(err, errors.InvalidState))
		require.True(t, errors.Is(h.Remove(), errors.InvalidState))
		require.True(t, errors.Is(h.Flush(), errors.InvalidState))
	}

	_, err = s.Begin()
	require.Equal(t, errors.SessionClosed, err)
	_, err = LoadLazy[document](s, ids[0])
	require.Equal(t, errors.SessionClosed, err)
	require.Equal(t, errors.SessionClosed, Add(s, NewPtr(&document{})))

	// releasing orphans is fine
	p.Release()
	n.Release()
}
