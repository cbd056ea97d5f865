package dbo

import (
	"testing"

	"github.com/stretchr/testify/require"

	"boscoin.io/dbo/lib/errors"
	"boscoin.io/dbo/lib/storage"
)

func titles(t *testing.T, ptrs []*Ptr[document]) []string {
	var collected []string
	for _, p := range ptrs {
		d, err := p.Get()
		require.NoError(t, err)
		collected = append(collected, d.Title)
	}
	return collected
}

func TestFind(t *testing.T) {
	st := storage.NewTestStorage()
	defer st.Close()

	ids := storeDocuments(t, st, "a", "b", "c", "d", "e")

	s := newTestSession(t, st)

	_, err := Find[document](s, nil)
	require.Equal(t, errors.NoActiveTransaction, err)

	tx := begin(t, s)
	defer tx.Rollback()

	{
		ptrs, err := Find[document](s, nil)
		require.NoError(t, err)
		require.Equal(t, []string{"a", "b", "c", "d", "e"}, titles(t, ptrs))
		for i, p := range ptrs {
			require.Equal(t, ids[i], p.ID())
			require.Equal(t, int64(0), p.Version())
			require.True(t, p.IsPersisted())
		}
	}

	{
		ptrs, err := Find[document](s, storage.NewDefaultListOptions(false, nil, 2))
		require.NoError(t, err)
		require.Equal(t, []string{"a", "b"}, titles(t, ptrs))
	}

	{ // the cursor row itself is skipped
		cursor := []byte(FormatID(ids[1]))
		ptrs, err := Find[document](s, storage.NewDefaultListOptions(false, cursor, 0))
		require.NoError(t, err)
		require.Equal(t, []string{"c", "d", "e"}, titles(t, ptrs))
	}

	{
		ptrs, err := Find[document](s, storage.NewDefaultListOptions(true, nil, 0))
		require.NoError(t, err)
		require.Equal(t, []string{"e", "d", "c", "b", "a"}, titles(t, ptrs))
	}

	{
		cursor := []byte(FormatID(ids[3]))
		ptrs, err := Find[document](s, storage.NewDefaultListOptions(true, cursor, 2))
		require.NoError(t, err)
		require.Equal(t, []string{"c", "b"}, titles(t, ptrs))
	}

	// persons are in another table
	ptrs, err := Find[person](s, nil)
	require.NoError(t, err)
	require.Equal(t, 0, len(ptrs))
}

func TestFindUsesIdentityMap(t *testing.T) {
	st := storage.NewTestStorage()
	defer st.Close()

	ids := storeDocuments(t, st, "a", "b")

	s := newTestSession(t, st)
	tx := begin(t, s)
	defer tx.Rollback()

	p, err := Load[document](s, ids[0])
	require.NoError(t, err)
	require.NoError(t, p.Update(func(d *document) error {
		d.Title = "changed"
		return nil
	}))

	ptrs, err := Find[document](s, nil)
	require.NoError(t, err)
	require.Equal(t, 2, len(ptrs))
	require.True(t, ptrs[0].Equal(p))
	// the handle and the result; the transaction only pins it
	require.Equal(t, 2, p.Meta().RefCount())
	require.Equal(t, 1, p.Meta().pins)
	require.Equal(t, 2, s.Len())

	// flushed before reading
	require.False(t, p.IsDirty())
	require.Equal(t, int64(1), ptrs[0].Version())
	require.Equal(t, []string{"changed", "b"}, titles(t, ptrs))

	for _, q := range ptrs {
		q.Release()
	}
	require.Equal(t, 1, s.Len())
}

func TestFindIncludesPendingChanges(t *testing.T) {
	st := storage.NewTestStorage()
	defer st.Close()

	ids := storeDocuments(t, st, "a", "b")

	s := newTestSession(t, st)
	tx := begin(t, s)
	defer tx.Rollback()

	n := NewPtr(&document{Title: "c"})
	require.NoError(t, Add(s, n))

	p, err := Load[document](s, ids[0])
	require.NoError(t, err)
	require.NoError(t, p.Remove())

	ptrs, err := Find[document](s, nil)
	require.NoError(t, err)
	require.Equal(t, []string{"b", "c"}, titles(t, ptrs))
	require.True(t, ptrs[1].Equal(n))
	require.Equal(t, int64(3), n.ID())
}
