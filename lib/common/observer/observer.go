package observer

import (
	"github.com/GianlucaGuarini/go-observable"
)

// SessionObserver carries the events of every `dbo.Session` of the process.
var SessionObserver = observable.New()

const (
	TransactionCommit   = "transaction.commit"
	TransactionRollback = "transaction.rollback"
	ObjectSaved         = "object.saved"
	ObjectDeleted       = "object.deleted"
	ConditionAll        = "*"
)

type Event struct {
	Resource  string `json:"resource"`
	Table     string `json:"table,omitempty"`
	ID        string `json:"id,omitempty"`
	Version   int64  `json:"version"`
	Condition string `json:"condition,omitempty"`
}

func NewObjectEvent(resource, table, id string, version int64) Event {
	return Event{
		Resource: resource,
		Table:    table,
		ID:       id,
		Version:  version,
	}
}

func NewTransactionEvent(resource, transactionID string) Event {
	return Event{
		Resource:  resource,
		ID:        transactionID,
		Version:   -1,
		Condition: ConditionAll,
	}
}

func (e Event) String() string {
	toStr := e.Resource + "-"
	if e.Condition == ConditionAll {
		toStr += e.Condition + "=" + e.ID
	} else {
		toStr += e.Table + "=" + e.ID
	}
	return toStr
}
