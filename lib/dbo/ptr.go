package dbo

import (
	"encoding/json"

	pkgerrors "github.com/pkg/errors"

	"boscoin.io/dbo/lib/errors"
)

// Reference is implemented by `*Ptr` and `*ReadPtr`. It lets both kinds of
// handle be compared with each other and assigned to a `ReadPtr`.
type Reference[C any] interface {
	metaObject() *MetaObject[C]
}

func metaOf[C any](r Reference[C]) *MetaObject[C] {
	if r == nil {
		return nil
	}
	return r.metaObject()
}

// handle is the part shared by the read-only and the mutable handle.
type handle[C any] struct {
	meta *MetaObject[C]
}

func (h *handle[C]) set(m *MetaObject[C]) {
	if m != nil {
		m.incRef()
	}

	old := h.meta
	h.meta = m
	if old != nil {
		old.decRef()
	}
}

// Valid is true when the handle points to an object.
func (h *handle[C]) Valid() bool {
	return h.meta != nil
}

// Release drops the reference; the handle becomes null.
func (h *handle[C]) Release() {
	h.set(nil)
}

// Get returns the instance, loading it first if needed. The instance must
// only be changed through `Ptr.Modify`.
func (h *handle[C]) Get() (*C, error) {
	if h.meta == nil {
		return nil, errors.NullPointer
	}

	return h.meta.Obj()
}

func (h *handle[C]) Flush() error {
	if h.meta == nil {
		return nil
	}
	return h.meta.Flush()
}

func (h *handle[C]) Remove() error {
	if h.meta == nil {
		return nil
	}
	return h.meta.Remove()
}

func (h *handle[C]) Reread() {
	if h.meta == nil {
		return
	}
	h.meta.Reread()
}

func (h *handle[C]) Purge() {
	if h.meta == nil {
		return
	}
	h.meta.Purge()
}

// Equal compares the identity of the objects, never their fields. Two null
// handles are equal.
func (h *handle[C]) Equal(other Reference[C]) bool {
	return h.meta == metaOf(other)
}

// Less orders handles by the creation of their objects; null comes first.
func (h *handle[C]) Less(other Reference[C]) bool {
	o := metaOf(other)
	switch {
	case h.meta == nil:
		return o != nil
	case o == nil:
		return false
	default:
		return h.meta.serial < o.serial
	}
}

// EqualWeak has to resolve the weak reference, which may load the object.
func (h *handle[C]) EqualWeak(w *WeakPtr[C]) (bool, error) {
	if w == nil || !w.Valid() {
		return h.meta == nil, nil
	}

	p, err := w.Lock()
	if err != nil {
		return false, err
	}
	defer p.Release()

	return h.meta == p.meta, nil
}

func (h *handle[C]) Meta() *MetaObject[C] {
	return h.meta
}

func (h *handle[C]) ID() interface{} {
	if h.meta == nil {
		return nil
	}
	return h.meta.ID()
}

func (h *handle[C]) Key() string {
	if h.meta == nil {
		return ""
	}
	return h.meta.Key()
}

func (h *handle[C]) Version() int64 {
	if h.meta == nil {
		return -1
	}
	return h.meta.Version()
}

func (h *handle[C]) State() ObjectState {
	if h.meta == nil {
		return ObjectState{}
	}
	return h.meta.State()
}

func (h *handle[C]) Session() *Session {
	if h.meta == nil {
		return nil
	}
	return h.meta.Session()
}

func (h *handle[C]) IsNew() bool {
	return h.meta != nil && h.meta.state.IsNew()
}

func (h *handle[C]) IsPersisted() bool {
	return h.meta != nil && h.meta.state.IsPersisted()
}

func (h *handle[C]) IsTransient() bool {
	return h.meta != nil && h.meta.state.IsTransient()
}

func (h *handle[C]) IsDirty() bool {
	return h.meta != nil && h.meta.state.IsDirty()
}

func (h *handle[C]) IsOrphaned() bool {
	return h.meta != nil && h.meta.state.IsOrphaned()
}

func (h *handle[C]) String() string {
	if h.meta == nil {
		return "null"
	}
	return h.meta.Table() + ":" + h.meta.Key()
}

// Fields renders the instance as a JSON object with the id and the version
// added under the field names of the traits.
func (h *handle[C]) Fields() (map[string]interface{}, error) {
	obj, err := h.Get()
	if err != nil {
		return nil, err
	}

	b, err := json.Marshal(obj)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "failed to encode fields")
	}

	fields := map[string]interface{}{}
	if err := json.Unmarshal(b, &fields); err != nil {
		return nil, pkgerrors.Wrap(err, "instance is not a JSON object")
	}

	if mapping := h.meta.mapping; mapping != nil {
		if mapping.IsSurrogate() {
			fields[mapping.SurrogateIDField] = h.meta.ID()
		}
		if mapping.IsVersioned() {
			fields[mapping.VersionField] = h.meta.Version()
		}
	}

	return fields, nil
}

// Ptr is the mutable handle. Copy it with `Clone` and drop it with
// `Release`; plain Go assignment does not count as a reference.
type Ptr[C any] struct {
	handle[C]
}

// NewPtr wraps a new instance; it is stored after `Add` and a flush.
func NewPtr[C any](obj *C) *Ptr[C] {
	p := &Ptr[C]{}
	if obj != nil {
		p.set(newMeta(obj))
	}

	return p
}

func newPtr[C any](m *MetaObject[C]) *Ptr[C] {
	p := &Ptr[C]{}
	p.set(m)
	return p
}

func (p *Ptr[C]) metaObject() *MetaObject[C] {
	if p == nil {
		return nil
	}
	return p.meta
}

func (p *Ptr[C]) Clone() *Ptr[C] {
	return newPtr(p.metaObject())
}

func (p *Ptr[C]) Assign(other *Ptr[C]) {
	p.set(metaOf[C](other))
}

// ReadOnly returns a new read-only handle to the same object.
func (p *Ptr[C]) ReadOnly() *ReadPtr[C] {
	return NewReadPtr[C](p)
}

// Modify loads the object and returns the mutator which marks it dirty when
// released.
func (p *Ptr[C]) Modify() (*Mutator[C], error) {
	meta := p.metaObject()
	if meta == nil {
		return nil, errors.NullPointer
	}
	if _, err := meta.Obj(); err != nil {
		return nil, err
	}

	return newMutator(meta), nil
}

// Update runs `fn` with the instance. The object is marked dirty even when
// `fn` fails or panics.
func (p *Ptr[C]) Update(fn func(*C) error) error {
	m, err := p.Modify()
	if err != nil {
		return err
	}
	defer m.Release()

	return fn(m.Obj())
}

// ReadPtr is the read-only handle. It can be made from a `Ptr`, never the
// other way around.
type ReadPtr[C any] struct {
	handle[C]
}

func NewReadPtr[C any](r Reference[C]) *ReadPtr[C] {
	p := &ReadPtr[C]{}
	p.set(metaOf(r))
	return p
}

func (p *ReadPtr[C]) metaObject() *MetaObject[C] {
	if p == nil {
		return nil
	}
	return p.meta
}

func (p *ReadPtr[C]) Clone() *ReadPtr[C] {
	return NewReadPtr[C](p)
}

func (p *ReadPtr[C]) Assign(other Reference[C]) {
	p.set(metaOf(other))
}
