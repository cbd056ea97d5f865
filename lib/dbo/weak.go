package dbo

import (
	"boscoin.io/dbo/lib/errors"
)

// WeakPtr names an object by session and id without holding a reference.
// Resolving it goes through the identity map and may load the row.
type WeakPtr[C any] struct {
	session *Session
	id      interface{}
}

func NewWeakPtr[C any](r Reference[C]) (*WeakPtr[C], error) {
	m := metaOf(r)
	if m == nil {
		return &WeakPtr[C]{}, nil
	}
	if m.session == nil || m.state.IsNew() {
		return nil, errors.InvalidID.Clone().SetData("error", "object is not stored yet")
	}

	return &WeakPtr[C]{session: m.session, id: m.id}, nil
}

func (w *WeakPtr[C]) Valid() bool {
	return w.session != nil
}

func (w *WeakPtr[C]) ID() interface{} {
	return w.id
}

// Lock returns an owning handle; the caller releases it.
func (w *WeakPtr[C]) Lock() (*Ptr[C], error) {
	if !w.Valid() {
		return &Ptr[C]{}, nil
	}

	return Load[C](w.session, w.id)
}
