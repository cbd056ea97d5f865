package dbo

import (
	"testing"

	"github.com/stretchr/testify/require"

	"boscoin.io/dbo/lib/errors"
)

func TestObjectStatePredicates(t *testing.T) {
	s := NewObjectState(PhaseNew)
	require.True(t, s.IsNew())
	require.True(t, s.IsTransient())
	require.False(t, s.IsPersisted())
	require.False(t, s.IsDirty())
	require.False(t, s.InTransaction())

	require.True(t, s.markDirty())
	require.True(t, s.IsDirty())

	s = NewObjectState(PhasePersisted)
	require.True(t, s.IsPersisted())
	require.False(t, s.IsTransient())

	s.markDelete()
	require.True(t, s.IsDeleted())
	require.True(t, s.IsTransient())

	// nothing to save on a deleted object
	require.False(t, s.markDirty())
	require.False(t, s.IsDirty())
}

func TestObjectStateSave(t *testing.T) {
	s := NewObjectState(PhaseNew)
	s.markDirty()

	s.beginSave()
	require.True(t, s.IsSaving())
	require.False(t, s.IsDirty())

	s.endSave(true)
	require.False(t, s.IsSaving())
	require.True(t, s.InTransaction())
	require.True(t, s.IsPersisted())
	require.False(t, s.IsNew())
	require.False(t, s.IsTransient())
	require.NoError(t, s.Validate())
}

func TestObjectStateFailedSave(t *testing.T) {
	s := NewObjectState(PhasePersisted)
	s.markDirty()

	s.beginSave()
	s.endSave(false)
	require.True(t, s.IsDirty())
	require.False(t, s.IsSaving())
	require.False(t, s.InTransaction())
}

func TestObjectStateDone(t *testing.T) {
	saved := func(phase Phase) ObjectState {
		s := NewObjectState(phase)
		s.markDirty()
		s.beginSave()
		s.endSave(true)
		return s
	}
	deleted := func() ObjectState {
		s := NewObjectState(PhasePersisted)
		s.markDelete()
		s.deleted()
		return s
	}

	{ // commit of an update
		s := saved(PhasePersisted)
		s.Done(true)
		require.Equal(t, PhasePersisted, s.Phase())
		require.True(t, s.IsPersisted())
		require.False(t, s.IsDirty())
		require.False(t, s.InTransaction())
	}

	{ // commit of an insert
		s := saved(PhaseNew)
		s.Done(true)
		require.Equal(t, PhasePersisted, s.Phase())
		require.False(t, s.IsNew())
		require.False(t, s.IsDirty())
	}

	{ // rollback of an update
		s := saved(PhasePersisted)
		s.Done(false)
		require.Equal(t, PhasePersisted, s.Phase())
		require.True(t, s.IsDirty())
		require.False(t, s.InTransaction())
	}

	{ // rollback of an insert
		s := saved(PhaseNew)
		s.Done(false)
		require.True(t, s.IsNew())
		require.False(t, s.IsPersisted())
		require.True(t, s.IsDirty())
		require.False(t, s.InTransaction())
	}

	{ // commit of a delete
		s := deleted()
		require.True(t, s.IsTransient())
		s.Done(true)
		require.True(t, s.IsNew())
		require.True(t, s.IsTransient())
		require.False(t, s.IsDeleted())
		require.False(t, s.IsDirty())
	}

	{ // rollback of a delete
		s := deleted()
		s.Done(false)
		require.True(t, s.IsPersisted())
		require.False(t, s.IsDeleted())
		require.False(t, s.IsDirty())
		require.False(t, s.InTransaction())
	}

	{ // delete requested but never flushed, rolled back
		s := NewObjectState(PhasePersisted)
		s.markDelete()
		s.Done(false)
		require.True(t, s.IsPersisted())
		require.False(t, s.Has(NeedsDelete))
		require.False(t, s.IsTransient())
	}

	{ // changed and deleted, neither flushed, rolled back
		s := NewObjectState(PhasePersisted)
		s.markDirty()
		s.markDelete()
		s.Done(false)
		require.True(t, s.IsDirty())
		require.False(t, s.Has(NeedsDelete))
	}

	{ // inserted and deleted in one transaction, rolled back
		s := saved(PhaseNew)
		s.markDelete()
		s.deleted()
		require.NoError(t, s.Validate())
		s.Done(false)
		require.True(t, s.IsNew())
		require.False(t, s.IsDirty())
		require.False(t, s.IsDeleted())
	}
}

func TestObjectStateValidate(t *testing.T) {
	require.NoError(t, NewObjectState(PhaseNew).Validate())
	require.NoError(t, NewObjectState(PhasePersisted).Validate())
	require.NoError(t, NewObjectState(PhaseOrphaned).Validate())

	invalid := []ObjectState{
		{phase: PhaseOrphaned, flags: NeedsSave},
		{phase: PhaseNew, flags: NeedsDelete},
		{phase: PhaseNew, flags: DeletedInTransaction},
		{phase: Phase(7)},
	}
	for _, s := range invalid {
		err := s.Validate()
		require.True(t, errors.Is(err, errors.InvalidState), s.String())
	}
}

func TestObjectStateString(t *testing.T) {
	s := NewObjectState(PhasePersisted)
	s.set(NeedsSave | SavedInTransaction)
	require.Equal(t, "persisted|needs-save|saved-in-txn", s.String())

	s.orphan()
	require.Equal(t, "orphaned", s.String())
}
