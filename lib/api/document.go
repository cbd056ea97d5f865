package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	"boscoin.io/dbo/lib/api/resource"
	"boscoin.io/dbo/lib/document"
	"boscoin.io/dbo/lib/errors"
	"boscoin.io/dbo/lib/httputils"
)

func parseID(r *http.Request) (int64, error) {
	raw := mux.Vars(r)["id"]
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id < 0 {
		return 0, errors.InvalidID.Clone().SetData("id", raw)
	}
	return id, nil
}

// parseIfMatch returns `document.AnyVersion` without an `If-Match` header.
// Both a quoted entity tag and a bare version are accepted.
func parseIfMatch(r *http.Request) (int64, error) {
	raw := strings.TrimSpace(r.Header.Get("If-Match"))
	if raw == "" || raw == "*" {
		return document.AnyVersion, nil
	}

	tag := strings.TrimPrefix(raw, "W/")
	if unquoted, err := strconv.Unquote(tag); err == nil {
		tag = unquoted
	}

	version, err := strconv.ParseInt(tag, 10, 64)
	if err != nil || version < 0 {
		return 0, errors.BadRequestParameter.Clone().SetData("If-Match", raw)
	}
	return version, nil
}

func decodeDocument(r *http.Request) (d document.Document, err error) {
	defer r.Body.Close()

	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err = decoder.Decode(&d); err != nil {
		err = errors.BadRequestParameter.Clone().SetData("body", err.Error())
	}
	return
}

func writeDocument(w http.ResponseWriter, status int, entry document.Entry) {
	res := resource.NewDocument(entry)
	w.Header().Set("ETag", res.ETag())
	if status == http.StatusCreated {
		w.Header().Set("Location", res.LinkSelf())
	}
	httputils.MustWriteJSON(w, status, res)
}

func (api DocumentAPI) GetDocumentsHandler(w http.ResponseWriter, r *http.Request) {
	p, err := NewPageQuery(r)
	if err != nil {
		httputils.WriteJSONError(w, err)
		return
	}

	entries, err := api.store.List(p.ListOptions())
	if err != nil {
		httputils.WriteJSONError(w, err)
		return
	}

	var rs []resource.Resource
	for _, entry := range entries {
		rs = append(rs, resource.NewDocument(entry))
	}

	var firstCursor, lastCursor []byte
	if len(entries) > 0 {
		firstCursor = []byte(document.Cursor(entries[0]))
		lastCursor = []byte(document.Cursor(entries[len(entries)-1]))
	}

	httputils.MustWriteJSON(w, http.StatusOK, p.ResourceList(rs, firstCursor, lastCursor))
}

func (api DocumentAPI) PostDocumentsHandler(w http.ResponseWriter, r *http.Request) {
	d, err := decodeDocument(r)
	if err != nil {
		httputils.WriteJSONError(w, err)
		return
	}

	entry, err := api.store.Create(d)
	if err != nil {
		httputils.WriteJSONError(w, err)
		return
	}

	writeDocument(w, http.StatusCreated, entry)
}

func (api DocumentAPI) GetDocumentHandler(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		httputils.WriteJSONError(w, err)
		return
	}

	entry, err := api.store.Get(id)
	if err != nil {
		httputils.WriteJSONError(w, err)
		return
	}

	writeDocument(w, http.StatusOK, entry)
}

// PutDocumentHandler replaces the title, body and tags of a document. With
// `If-Match` the stored version must match or the request fails with 409.
func (api DocumentAPI) PutDocumentHandler(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		httputils.WriteJSONError(w, err)
		return
	}
	version, err := parseIfMatch(r)
	if err != nil {
		httputils.WriteJSONError(w, err)
		return
	}
	d, err := decodeDocument(r)
	if err != nil {
		httputils.WriteJSONError(w, err)
		return
	}

	entry, err := api.store.Update(id, version, func(stored *document.Document) error {
		*stored = d
		return nil
	})
	if err != nil {
		httputils.WriteJSONError(w, err)
		return
	}

	writeDocument(w, http.StatusOK, entry)
}

func (api DocumentAPI) DeleteDocumentHandler(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		httputils.WriteJSONError(w, err)
		return
	}
	version, err := parseIfMatch(r)
	if err != nil {
		httputils.WriteJSONError(w, err)
		return
	}

	if err := api.store.Remove(id, version); err != nil {
		httputils.WriteJSONError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
