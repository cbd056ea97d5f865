package api

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"boscoin.io/dbo/lib/api/resource"
	"boscoin.io/dbo/lib/errors"
	"boscoin.io/dbo/lib/storage"
)

const (
	DefaultLimit uint64 = 20
	MaxLimit     uint64 = 100
)

// PageQuery reads `cursor`, `limit` and `reverse` of a list request.
type PageQuery struct {
	request *http.Request
	cursor  []byte
	reverse bool
	limit   uint64
}

func NewPageQuery(r *http.Request) (*PageQuery, error) {
	p := &PageQuery{
		request: r,
		limit:   DefaultLimit,
	}
	err := p.parseRequest()
	return p, err
}

func (p *PageQuery) Limit() uint64 {
	return p.limit
}

func (p *PageQuery) Reverse() bool {
	return p.reverse
}

func (p *PageQuery) Cursor() []byte {
	return p.cursor
}

func (p *PageQuery) SelfLink() string {
	return p.request.URL.String()
}

func (p *PageQuery) PrevLink(cursor []byte) string {
	return fmt.Sprintf("%s?%s", p.request.URL.Path, p.urlValues(cursor, !p.reverse).Encode())
}

func (p *PageQuery) NextLink(cursor []byte) string {
	return fmt.Sprintf("%s?%s", p.request.URL.Path, p.urlValues(cursor, p.reverse).Encode())
}

func (p *PageQuery) ListOptions() storage.ListOptions {
	return storage.NewDefaultListOptions(p.Reverse(), p.Cursor(), p.Limit())
}

// ResourceList links the next page after the last record and the previous
// page before the first one.
func (p *PageQuery) ResourceList(rs []resource.Resource, firstCursor, lastCursor []byte) *resource.ResourceList {
	var next, prev string
	if len(lastCursor) > 0 {
		next = p.NextLink(lastCursor)
	}
	if len(firstCursor) > 0 {
		prev = p.PrevLink(firstCursor)
	}

	return resource.NewResourceList(rs, p.SelfLink(), next, prev)
}

func (p *PageQuery) parseRequest() error {
	q := p.request.URL.Query()
	if r := q.Get("reverse"); r != "" {
		reverse, err := strconv.ParseBool(r)
		if err != nil {
			return errors.BadRequestParameter.Clone().SetData("reverse", r)
		}
		p.reverse = reverse
	}

	if c := q.Get("cursor"); c != "" {
		p.cursor = []byte(c)
	}

	if l := q.Get("limit"); l != "" {
		limit, err := strconv.ParseUint(l, 10, 64)
		if err != nil || limit < 1 {
			return errors.BadRequestParameter.Clone().SetData("limit", l)
		}
		if limit > MaxLimit {
			return errors.BadRequestParameter.Clone().SetData("limit", l).SetData("max", MaxLimit)
		}
		p.limit = limit
	}

	return nil
}

func (p PageQuery) urlValues(cursor []byte, reverse bool) url.Values {
	v := url.Values{
		"reverse": []string{strconv.FormatBool(reverse)},
	}

	if len(cursor) > 0 {
		v.Set("cursor", string(cursor))
	}
	if p.limit > 0 {
		v.Set("limit", strconv.FormatUint(p.limit, 10))
	}

	return v
}
