package dbo

import (
	"testing"

	"github.com/stretchr/testify/require"

	"boscoin.io/dbo/lib/storage"
)

type document struct {
	Title string `json:"title"`
	Body  string `json:"body,omitempty"`
	Count int    `json:"count"`
}

// person is stored with a natural key and without versioning.
type person struct {
	Name string `json:"name"`
	Age  int    `json:"age"`
}

func newTestSession(t *testing.T, st *storage.LevelDBBackend) *Session {
	s := NewSession(st)
	require.NoError(t, Map[document](s, DefaultTraits("document"), nil))
	require.NoError(t, Map[person](s, Traits{Table: "person"}, func(p *person) interface{} {
		return p.Name
	}))

	return s
}

func begin(t *testing.T, s *Session) *Transaction {
	tx, err := s.Begin()
	require.NoError(t, err)
	return tx
}

// storeDocuments inserts the documents in their own session and returns
// their ids.
func storeDocuments(t *testing.T, st *storage.LevelDBBackend, titles ...string) []int64 {
	s := newTestSession(t, st)
	tx := begin(t, s)

	var ptrs []*Ptr[document]
	for _, title := range titles {
		p := NewPtr(&document{Title: title})
		require.NoError(t, Add(s, p))
		ptrs = append(ptrs, p)
	}
	require.NoError(t, tx.Commit())

	var ids []int64
	for _, p := range ptrs {
		ids = append(ids, p.ID().(int64))
		p.Release()
	}
	require.NoError(t, s.Close())

	return ids
}
