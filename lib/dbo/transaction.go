package dbo

import (
	"github.com/google/uuid"

	"boscoin.io/dbo/lib/common/observer"
	"boscoin.io/dbo/lib/errors"
	"boscoin.io/dbo/lib/storage"
)

// transactionImpl is shared by the nested `Transaction`s of a session.
type transactionImpl struct {
	id           string
	depth        int
	rollbackOnly bool
	st           *storage.LevelDBBackend

	// every object written in the transaction; each holds a reference
	objects  []metaBase
	observed map[metaBase]struct{}

	// storage keys to drop from the row cache after commit
	written []string
}

func (t *transactionImpl) add(m metaBase) bool {
	if _, found := t.observed[m]; found {
		return false
	}

	m.pin()
	m.enterTransaction()
	t.observed[m] = struct{}{}
	t.objects = append(t.objects, m)

	return true
}

// Transaction is a scope of work in a session. Transactions nest; only the
// outermost `Commit` writes to the store, and a `Rollback` at any depth
// rolls back the whole transaction.
type Transaction struct {
	session *Session
	impl    *transactionImpl
	done    bool
}

func (s *Session) Begin() (*Transaction, error) {
	if s.closed {
		return nil, errors.SessionClosed
	}

	if s.txn == nil {
		s.txn = &transactionImpl{
			id:       uuid.New().String(),
			observed: map[metaBase]struct{}{},
		}
		s.log.Debug("transaction begin", "transaction", s.txn.id)
	}
	s.txn.depth++

	return &Transaction{session: s, impl: s.txn}, nil
}

func (t *Transaction) ID() string {
	return t.impl.id
}

func (t *Transaction) IsActive() bool {
	return !t.done && t.session.txn == t.impl
}

func (t *Transaction) Commit() error {
	if !t.IsActive() {
		return errors.TransactionAlreadyDone
	}

	t.done = true
	t.impl.depth--
	if t.impl.depth > 0 {
		return nil
	}

	if t.impl.rollbackOnly {
		t.session.rollback()
		return errors.InvalidState.Clone().SetData("error", "nested transaction was rolled back")
	}

	return t.session.commit()
}

func (t *Transaction) Rollback() error {
	if !t.IsActive() {
		return errors.TransactionAlreadyDone
	}

	t.done = true
	t.impl.depth--
	if t.impl.depth > 0 {
		t.impl.rollbackOnly = true
		return nil
	}

	t.session.rollback()

	return nil
}

// commit flushes the queued changes and commits the storage transaction. On
// any failure everything is rolled back and the error is returned.
func (s *Session) commit() error {
	impl := s.txn

	if err := s.Flush(); err != nil {
		s.rollback()
		return err
	}

	if impl.st != nil {
		if err := impl.st.Commit(); err != nil {
			s.rollback()
			return err
		}
	}
	s.cache.Remove(impl.written...)

	s.txn = nil
	s.finish(impl, true)

	return nil
}

func (s *Session) rollback() {
	impl := s.txn

	if impl.st != nil {
		if err := impl.st.Discard(); err != nil {
			s.log.Error("failed to discard storage transaction", "transaction", impl.id, "error", err)
		}
	}

	s.txn = nil
	s.finish(impl, false)
}

func (s *Session) finish(impl *transactionImpl, success bool) {
	for _, m := range impl.objects {
		m.transactionDone(success)
		m.unpin()
	}

	s.metrics.AddTransaction(success)

	event := observer.TransactionRollback
	if success {
		event = observer.TransactionCommit
	}
	s.trigger(event, observer.NewTransactionEvent(event, impl.id))
	s.log.Debug("transaction done", "transaction", impl.id, "success", success, "objects", len(impl.objects))
}
