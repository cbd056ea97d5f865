package dbo

import (
	"strings"

	"boscoin.io/dbo/lib/errors"
)

type Phase uint8

const (
	PhaseNew Phase = iota
	PhasePersisted
	PhaseOrphaned
)

func (p Phase) String() string {
	switch p {
	case PhaseNew:
		return "new"
	case PhasePersisted:
		return "persisted"
	case PhaseOrphaned:
		return "orphaned"
	default:
		return "unknown"
	}
}

type Flag uint8

const (
	NeedsDelete Flag = 1 << iota
	NeedsSave
	Saving
	DeletedInTransaction
	SavedInTransaction
)

const scratchFlags = DeletedInTransaction | SavedInTransaction

var flagNames = []struct {
	flag Flag
	name string
}{
	{NeedsDelete, "needs-delete"},
	{NeedsSave, "needs-save"},
	{Saving, "saving"},
	{DeletedInTransaction, "deleted-in-txn"},
	{SavedInTransaction, "saved-in-txn"},
}

// ObjectState is the persistence phase of one row plus the pending intent
// and transaction scratch flags layered over it. The phase is a separate
// field, so an object can never be new and persisted at once.
type ObjectState struct {
	phase Phase
	flags Flag
}

func NewObjectState(phase Phase) ObjectState {
	return ObjectState{phase: phase}
}

func (s ObjectState) Phase() Phase {
	return s.phase
}

func (s ObjectState) Has(f Flag) bool {
	return s.flags&f != 0
}

// IsNew is true for an object which has no row yet. An object inserted by
// the open transaction is provisionally persisted, not new.
func (s ObjectState) IsNew() bool {
	return s.phase == PhaseNew && !s.Has(SavedInTransaction)
}

func (s ObjectState) IsPersisted() bool {
	return s.phase == PhasePersisted || s.Has(SavedInTransaction)
}

func (s ObjectState) IsOrphaned() bool {
	return s.phase == PhaseOrphaned
}

func (s ObjectState) IsDeleted() bool {
	return s.Has(NeedsDelete | DeletedInTransaction)
}

func (s ObjectState) IsTransient() bool {
	return s.IsNew() || s.IsDeleted()
}

func (s ObjectState) IsDirty() bool {
	return s.Has(NeedsSave)
}

func (s ObjectState) IsSaving() bool {
	return s.Has(Saving)
}

func (s ObjectState) InTransaction() bool {
	return s.Has(scratchFlags)
}

// Validate reports flag combinations no sequence of transitions can reach.
func (s ObjectState) Validate() error {
	switch {
	case s.phase > PhaseOrphaned:
		return errors.InvalidState.Clone().SetData("state", s.String())
	case s.phase == PhaseOrphaned && s.flags != 0:
		return errors.InvalidState.Clone().SetData("state", s.String())
	case s.phase == PhaseNew && s.IsDeleted() && !s.Has(SavedInTransaction):
		return errors.InvalidState.Clone().SetData("state", s.String())
	}

	return nil
}

func (s ObjectState) String() string {
	parts := []string{s.phase.String()}
	for _, f := range flagNames {
		if s.Has(f.flag) {
			parts = append(parts, f.name)
		}
	}

	return strings.Join(parts, "|")
}

func (s *ObjectState) set(f Flag) {
	s.flags |= f
}

func (s *ObjectState) clear(f Flag) {
	s.flags &^= f
}

// markDirty raises `NeedsSave`; deleted objects have nothing to save.
func (s *ObjectState) markDirty() bool {
	if s.IsDeleted() || s.IsOrphaned() {
		return false
	}
	s.set(NeedsSave)
	return true
}

func (s *ObjectState) markDelete() {
	s.set(NeedsDelete)
}

func (s *ObjectState) beginSave() {
	s.clear(NeedsSave)
	s.set(Saving)
}

// endSave finishes a save started by `beginSave`. A failed save puts the
// object back to dirty.
func (s *ObjectState) endSave(ok bool) {
	s.clear(Saving)
	if ok {
		s.set(SavedInTransaction)
	} else {
		s.set(NeedsSave)
	}
}

// deleted records a successful delete of the row. The instance is gone from
// the store, so it is no longer dirty either.
func (s *ObjectState) deleted() {
	s.clear(NeedsDelete | NeedsSave)
	s.set(DeletedInTransaction)
}

func (s *ObjectState) reread() {
	s.clear(NeedsSave | NeedsDelete)
}

func (s *ObjectState) orphan() {
	s.phase = PhaseOrphaned
	s.flags = 0
}

// Done reconciles the scratch flags when the transaction ends. On commit a
// deleted object becomes new again and a saved one becomes persisted. On
// rollback the scratch flags are dropped; a save has to be tried again and
// a delete of a persisted row is forgotten, flushed or not.
func (s *ObjectState) Done(success bool) {
	switch {
	case success && s.Has(DeletedInTransaction):
		s.phase = PhaseNew
		s.flags = 0
	case success && s.Has(SavedInTransaction):
		s.phase = PhasePersisted
		s.clear(scratchFlags | NeedsSave | Saving)
	case !success && s.Has(DeletedInTransaction):
		if s.phase == PhaseNew {
			// inserted and deleted by the same transaction
			s.flags = 0
		} else {
			s.clear(scratchFlags | Saving)
		}
	case !success && s.Has(SavedInTransaction):
		s.clear(scratchFlags | Saving | NeedsDelete)
		s.set(NeedsSave)
	case !success:
		s.clear(scratchFlags | Saving | NeedsDelete)
	default:
		s.clear(scratchFlags | Saving)
	}
}
