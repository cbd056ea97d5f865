package storage

import (
	"encoding/json"
	"strings"

	"boscoin.io/dbo/lib/errors"
)

const (
	RecordPrefix   = "row"
	SequencePrefix = "seq"
	KeyDelimiter   = "/"
)

// Record is the stored form of one mapped object. `Data` is the encoded
// instance; the store never looks into it.
type Record struct {
	ID      json.RawMessage `json:"id"`
	Version int64           `json:"version"`
	Data    json.RawMessage `json:"data"`
}

func (r Record) Serialize() ([]byte, error) {
	return json.Marshal(r)
}

func RecordTablePrefix(table string) string {
	return strings.Join([]string{RecordPrefix, table, ""}, KeyDelimiter)
}

func RecordKey(table, id string) string {
	return RecordTablePrefix(table) + id
}

func SequenceKey(table string) string {
	return strings.Join([]string{SequencePrefix, table}, KeyDelimiter)
}

func (st *LevelDBBackend) GetRecord(table, id string) (record Record, err error) {
	err = st.Get(RecordKey(table, id), &record)
	return
}

// NextSequence increments the surrogate id counter of the table and returns
// the new value; the first id of a table is 1. Inside a transaction the
// counter moves back when the transaction is discarded.
func (st *LevelDBBackend) NextSequence(table string) (next int64, err error) {
	key := SequenceKey(table)

	var current int64
	if err = st.Get(key, &current); err != nil {
		if err != errors.StorageRecordDoesNotExist {
			return
		}
		current = 0
	}

	next = current + 1
	err = st.Put(key, next)

	return
}
