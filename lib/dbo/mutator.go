package dbo

// Mutator gives write access to the instance until it is released. Release
// always marks the object dirty, whatever happened to the edit, and only
// the first call counts.
type Mutator[C any] struct {
	meta     *MetaObject[C]
	released bool
}

func newMutator[C any](m *MetaObject[C]) *Mutator[C] {
	return &Mutator[C]{meta: m}
}

func (m *Mutator[C]) Obj() *C {
	return m.meta.obj
}

func (m *Mutator[C]) Release() {
	if m.released {
		return
	}

	m.released = true
	m.meta.SetDirty()
}
