package document

import (
	"strings"

	"boscoin.io/dbo/lib/dbo"
	"boscoin.io/dbo/lib/errors"
)

const Table = "document"

type Document struct {
	Title string   `json:"title" yaml:"title"`
	Body  string   `json:"body,omitempty" yaml:"body,omitempty"`
	Tags  []string `json:"tags,omitempty" yaml:"tags,omitempty"`
}

func (d Document) Validate() error {
	if len(strings.TrimSpace(d.Title)) < 1 {
		return errors.BadRequestParameter.Clone().SetData("error", "title is empty")
	}
	return nil
}

// Entry is a copy of a stored document taken while its session was open.
type Entry struct {
	ID       int64 `json:"id" yaml:"id"`
	Version  int64 `json:"version" yaml:"version"`
	Document `yaml:",inline"`
}

// Map registers `Document` in the session with a surrogate id and
// optimistic locking.
func Map(s *dbo.Session) error {
	return dbo.Map[Document](s, dbo.DefaultTraits(Table), nil)
}

func entryOf(p dbo.Reference[Document]) (Entry, error) {
	r := dbo.NewReadPtr(p)
	defer r.Release()

	d, err := r.Get()
	if err != nil {
		return Entry{}, err
	}

	id, ok := r.ID().(int64)
	if !ok {
		return Entry{}, errors.InvalidID.Clone().SetData("id", r.ID())
	}

	entry := Entry{ID: id, Version: r.Version(), Document: *d}
	if d.Tags != nil {
		entry.Tags = append([]string{}, d.Tags...)
	}

	return entry, nil
}
