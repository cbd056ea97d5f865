package dbo

import (
	"fmt"
	"reflect"

	"boscoin.io/dbo/lib/errors"
)

// DefaultInvalidID marks a surrogate id which was not assigned yet.
const DefaultInvalidID int64 = -1

// Traits describes how one Go type is stored. An empty `SurrogateIDField`
// means the id is a natural key computed from the instance; an empty
// `VersionField` disables optimistic locking.
type Traits struct {
	Table            string
	SurrogateIDField string
	VersionField     string
	InvalidID        interface{}
}

func DefaultTraits(table string) Traits {
	return Traits{
		Table:            table,
		SurrogateIDField: "id",
		VersionField:     "version",
		InvalidID:        DefaultInvalidID,
	}
}

func (t Traits) IsSurrogate() bool {
	return len(t.SurrogateIDField) > 0
}

func (t Traits) IsVersioned() bool {
	return len(t.VersionField) > 0
}

type Mapping[C any] struct {
	Traits
	NaturalID func(*C) interface{}
}

func typeOf[C any]() reflect.Type {
	return reflect.TypeOf((*C)(nil)).Elem()
}

// Map registers `C` in the session. `naturalID` is required when the traits
// have no surrogate id field and ignored otherwise.
func Map[C any](s *Session, traits Traits, naturalID func(*C) interface{}) error {
	t := typeOf[C]()

	if len(traits.Table) < 1 {
		return errors.InvalidState.Clone().SetData("error", "empty table name").SetData("type", t.String())
	}
	if !traits.IsSurrogate() && naturalID == nil {
		return errors.InvalidState.Clone().SetData("error", "natural key without id function").SetData("type", t.String())
	}
	if traits.IsSurrogate() {
		naturalID = nil
		if traits.InvalidID == nil {
			traits.InvalidID = DefaultInvalidID
		}
	}

	if _, found := s.mappings[t]; found {
		return errors.MappingAlreadyExists.Clone().SetData("type", t.String())
	}
	if _, found := s.tables[traits.Table]; found {
		return errors.MappingAlreadyExists.Clone().SetData("table", traits.Table)
	}

	s.mappings[t] = &Mapping[C]{Traits: traits, NaturalID: naturalID}
	s.tables[traits.Table] = t

	return nil
}

func mappingOf[C any](s *Session) (*Mapping[C], error) {
	t := typeOf[C]()

	m, found := s.mappings[t]
	if !found {
		return nil, errors.MappingNotFound.Clone().SetData("type", t.String())
	}

	return m.(*Mapping[C]), nil
}

// normalizeID checks the id given by a caller against the traits; surrogate
// ids are always kept as int64.
func (m *Mapping[C]) normalizeID(id interface{}) (interface{}, error) {
	if id == nil {
		return nil, errors.InvalidID.Clone().SetData("table", m.Table)
	}

	if !m.IsSurrogate() {
		return id, nil
	}

	var n int64
	switch v := id.(type) {
	case int64:
		n = v
	case int:
		n = int64(v)
	case int32:
		n = int64(v)
	case uint32:
		n = int64(v)
	case uint64:
		n = int64(v)
	default:
		return nil, errors.InvalidID.Clone().SetData("table", m.Table).SetData("id", fmt.Sprint(id))
	}

	if n == m.InvalidID || n < 1 {
		return nil, errors.InvalidID.Clone().SetData("table", m.Table).SetData("id", n)
	}

	return n, nil
}

// FormatID renders an id as the storage key suffix. Integers are zero padded,
// so rows iterate in id order.
func FormatID(id interface{}) string {
	switch v := id.(type) {
	case int64:
		return fmt.Sprintf("%020d", v)
	case int:
		return fmt.Sprintf("%020d", v)
	case int32:
		return fmt.Sprintf("%020d", v)
	case uint64:
		return fmt.Sprintf("%020d", v)
	case uint32:
		return fmt.Sprintf("%020d", v)
	case string:
		return v
	case fmt.Stringer:
		return v.String()
	default:
		return fmt.Sprint(v)
	}
}
