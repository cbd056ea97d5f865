package document

import (
	"boscoin.io/dbo/lib/cache"
	"boscoin.io/dbo/lib/dbo"
	"boscoin.io/dbo/lib/errors"
	"boscoin.io/dbo/lib/storage"
)

// AnyVersion skips the version check of `Update` and `Remove`.
const AnyVersion int64 = -1

// Store runs every operation in its own session and transaction. It is safe
// for concurrent use; the store serializes the writing transactions.
type Store struct {
	storage *storage.LevelDBBackend
	cache   *cache.Loader
}

func NewStore(st *storage.LevelDBBackend, loader *cache.Loader) *Store {
	if loader == nil {
		loader = cache.NewLoader(nil, 0)
	}

	return &Store{storage: st, cache: loader}
}

// Do calls fn inside a transaction of a new session; the transaction is
// committed when fn returns nil and rolled back otherwise.
func (s *Store) Do(fn func(*dbo.Session) error) error {
	session := dbo.NewSession(s.storage)
	session.SetCacheLoader(s.cache)
	if err := Map(session); err != nil {
		return err
	}

	tx, err := session.Begin()
	if err != nil {
		return err
	}

	if err = fn(session); err != nil {
		tx.Rollback()
	} else {
		err = tx.Commit()
	}

	if cerr := session.Close(); cerr != nil {
		log.Error("failed to close session", "error", cerr)
	}

	return err
}

func (s *Store) Create(d Document) (entry Entry, err error) {
	if err = d.Validate(); err != nil {
		return
	}

	err = s.Do(func(session *dbo.Session) error {
		p := dbo.NewPtr(&d)
		defer p.Release()

		if err := dbo.Add(session, p); err != nil {
			return err
		}
		if err := p.Flush(); err != nil {
			return err
		}

		entry, err = entryOf(p)
		return err
	})
	if err == nil {
		log.Debug("document created", "id", entry.ID)
	}

	return
}

func (s *Store) Get(id int64) (entry Entry, err error) {
	err = s.Do(func(session *dbo.Session) error {
		p, err := dbo.Load[Document](session, id)
		if err != nil {
			return err
		}
		defer p.Release()

		entry, err = entryOf(p)
		return err
	})

	return
}

func checkVersion(p *dbo.Ptr[Document], version int64) error {
	if version == AnyVersion || p.Version() == version {
		return nil
	}

	return errors.StaleObject.Clone().
		SetData("table", Table).
		SetData("id", p.Key()).
		SetData("version", version).
		SetData("stored", p.Version())
}

// Update changes the document with fn. A `version` other than `AnyVersion`
// must match the stored version.
func (s *Store) Update(id, version int64, fn func(*Document) error) (entry Entry, err error) {
	err = s.Do(func(session *dbo.Session) error {
		p, err := dbo.Load[Document](session, id)
		if err != nil {
			return err
		}
		defer p.Release()

		if err := checkVersion(p, version); err != nil {
			return err
		}

		err = p.Update(func(d *Document) error {
			if err := fn(d); err != nil {
				return err
			}
			return d.Validate()
		})
		if err != nil {
			return err
		}
		if err := p.Flush(); err != nil {
			return err
		}

		entry, err = entryOf(p)
		return err
	})
	if err == nil {
		log.Debug("document updated", "id", entry.ID, "version", entry.Version)
	}

	return
}

func (s *Store) Remove(id, version int64) error {
	return s.Do(func(session *dbo.Session) error {
		p, err := dbo.Load[Document](session, id)
		if err != nil {
			return err
		}
		defer p.Release()

		if err := checkVersion(p, version); err != nil {
			return err
		}

		return p.Remove()
	})
}

// List returns the documents in id order. The cursor of `options` is the
// formatted id of the last document already seen.
func (s *Store) List(options storage.ListOptions) (entries []Entry, err error) {
	err = s.Do(func(session *dbo.Session) error {
		ptrs, err := dbo.Find[Document](session, options)
		if err != nil {
			return err
		}
		defer func() {
			for _, p := range ptrs {
				p.Release()
			}
		}()

		for _, p := range ptrs {
			entry, err := entryOf(p)
			if err != nil {
				return err
			}
			entries = append(entries, entry)
		}
		return nil
	})

	return
}

// Cursor is the value to pass as the cursor of `List` to continue after
// the entry.
func Cursor(entry Entry) string {
	return dbo.FormatID(entry.ID)
}
