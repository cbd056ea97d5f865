package resource

import (
	"strconv"
	"strings"

	"github.com/nvellon/hal"

	"boscoin.io/dbo/lib/document"
)

type Document struct {
	entry document.Entry
}

func NewDocument(entry document.Entry) *Document {
	return &Document{entry: entry}
}

func (d Document) GetMap() hal.Entry {
	tags := d.entry.Tags
	if tags == nil {
		tags = []string{}
	}

	return hal.Entry{
		"id":      d.entry.ID,
		"version": d.entry.Version,
		"title":   d.entry.Title,
		"body":    d.entry.Body,
		"tags":    tags,
	}
}

func (d Document) Resource() *hal.Resource {
	r := hal.NewResource(d, d.LinkSelf())
	r.AddLink("documents", hal.NewLink(URLDocuments+"{?cursor,limit,reverse}", hal.LinkAttr{"templated": true}))
	return r
}

func (d Document) LinkSelf() string {
	return strings.Replace(URLDocument, "{id}", strconv.FormatInt(d.entry.ID, 10), -1)
}

// ETag is the version as an entity tag; `If-Match` takes the same value.
func (d Document) ETag() string {
	return strconv.Quote(strconv.FormatInt(d.entry.Version, 10))
}
