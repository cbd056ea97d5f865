package document

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"boscoin.io/dbo/lib/cache"
	"boscoin.io/dbo/lib/dbo"
	"boscoin.io/dbo/lib/errors"
	"boscoin.io/dbo/lib/storage"
)

func TestDocumentValidate(t *testing.T) {
	require.NoError(t, Document{Title: "showme"}.Validate())
	require.True(t, errors.Is(Document{}.Validate(), errors.BadRequestParameter))
	require.True(t, errors.Is(Document{Title: "  "}.Validate(), errors.BadRequestParameter))
}

func TestStoreCreateAndGet(t *testing.T) {
	st := storage.NewTestStorage()
	defer st.Close()

	s := NewStore(st, nil)

	_, err := s.Create(Document{})
	require.True(t, errors.Is(err, errors.BadRequestParameter))

	created, err := s.Create(Document{Title: "first", Body: "hello", Tags: []string{"a", "b"}})
	require.NoError(t, err)
	require.Equal(t, int64(1), created.ID)
	require.Equal(t, int64(0), created.Version)

	fetched, err := s.Get(created.ID)
	require.NoError(t, err)
	require.Equal(t, created, fetched)

	_, err = s.Get(100)
	require.True(t, errors.Is(err, errors.ObjectNotFound))

	_, err = s.Get(0)
	require.True(t, errors.Is(err, errors.InvalidID))
}

func TestStoreUpdate(t *testing.T) {
	st := storage.NewTestStorage()
	defer st.Close()

	s := NewStore(st, cache.NewLoader(cache.NewMemCacheAdapter(10), cache.DefaultExpiration))
	created, err := s.Create(Document{Title: "first"})
	require.NoError(t, err)

	// warm the cache
	_, err = s.Get(created.ID)
	require.NoError(t, err)

	updated, err := s.Update(created.ID, created.Version, func(d *Document) error {
		d.Body = "changed"
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, int64(1), updated.Version)
	require.Equal(t, "changed", updated.Body)

	fetched, err := s.Get(created.ID)
	require.NoError(t, err)
	require.Equal(t, updated, fetched)

	// the old version is stale
	_, err = s.Update(created.ID, created.Version, func(d *Document) error {
		d.Body = "lost"
		return nil
	})
	require.True(t, errors.Is(err, errors.StaleObject))

	updated, err = s.Update(created.ID, AnyVersion, func(d *Document) error {
		d.Tags = append(d.Tags, "x")
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, int64(2), updated.Version)
	require.Equal(t, []string{"x"}, updated.Tags)

	// a failed edit is not stored
	_, err = s.Update(created.ID, AnyVersion, func(d *Document) error {
		d.Title = "never"
		return fmt.Errorf("killme")
	})
	require.EqualError(t, err, "killme")

	_, err = s.Update(created.ID, AnyVersion, func(d *Document) error {
		d.Title = ""
		return nil
	})
	require.True(t, errors.Is(err, errors.BadRequestParameter))

	fetched, err = s.Get(created.ID)
	require.NoError(t, err)
	require.Equal(t, "first", fetched.Title)
	require.Equal(t, int64(2), fetched.Version)
}

func TestStoreRemove(t *testing.T) {
	st := storage.NewTestStorage()
	defer st.Close()

	s := NewStore(st, nil)
	created, err := s.Create(Document{Title: "first"})
	require.NoError(t, err)

	err = s.Remove(created.ID, 5)
	require.True(t, errors.Is(err, errors.StaleObject))

	require.NoError(t, s.Remove(created.ID, created.Version))

	_, err = s.Get(created.ID)
	require.True(t, errors.Is(err, errors.ObjectNotFound))

	err = s.Remove(created.ID, AnyVersion)
	require.True(t, errors.Is(err, errors.ObjectNotFound))
}

func TestStoreList(t *testing.T) {
	st := storage.NewTestStorage()
	defer st.Close()

	s := NewStore(st, nil)
	for i := 0; i < 5; i++ {
		_, err := s.Create(Document{Title: fmt.Sprintf("doc-%d", i)})
		require.NoError(t, err)
	}

	entries, err := s.List(nil)
	require.NoError(t, err)
	require.Equal(t, 5, len(entries))
	require.Equal(t, "doc-0", entries[0].Title)

	entries, err = s.List(storage.NewDefaultListOptions(false, nil, 2))
	require.NoError(t, err)
	require.Equal(t, 2, len(entries))

	next, err := s.List(storage.NewDefaultListOptions(false, []byte(Cursor(entries[1])), 2))
	require.NoError(t, err)
	require.Equal(t, []int64{3, 4}, []int64{next[0].ID, next[1].ID})

	entries, err = s.List(storage.NewDefaultListOptions(true, nil, 1))
	require.NoError(t, err)
	require.Equal(t, int64(5), entries[0].ID)
}

func TestStoreDoRollsBackOnError(t *testing.T) {
	st := storage.NewTestStorage()
	defer st.Close()

	s := NewStore(st, nil)
	err := s.Do(func(session *dbo.Session) error {
		p := dbo.NewPtr(&Document{Title: "never"})
		defer p.Release()

		if err := dbo.Add(session, p); err != nil {
			return err
		}
		if err := p.Flush(); err != nil {
			return err
		}
		return fmt.Errorf("killme")
	})
	require.EqualError(t, err, "killme")

	entries, err := s.List(nil)
	require.NoError(t, err)
	require.Equal(t, 0, len(entries))
}
