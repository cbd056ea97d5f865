package httputils

import (
	"encoding/json"
	"net/http"

	"github.com/nvellon/hal"

	"boscoin.io/dbo/lib/errors"
)

var (
	ErrorsToStatus = map[uint]int{
		errors.ObjectNotFound.Code:         http.StatusNotFound,
		errors.StaleObject.Code:            http.StatusConflict,
		errors.NoActiveTransaction.Code:    http.StatusInternalServerError,
		errors.InvalidState.Code:           http.StatusConflict,
		errors.ObjectAlreadyExists.Code:    http.StatusConflict,
		errors.NullPointer.Code:            http.StatusInternalServerError,
		errors.MappingNotFound.Code:        http.StatusInternalServerError,
		errors.MappingAlreadyExists.Code:   http.StatusInternalServerError,
		errors.TransactionAlreadyDone.Code: http.StatusInternalServerError,
		errors.SessionClosed.Code:          http.StatusServiceUnavailable,
		errors.InvalidID.Code:              http.StatusBadRequest,
		errors.BadRequestParameter.Code:    http.StatusBadRequest,
		errors.NotImplemented.Code:         http.StatusNotImplemented,
	}
)

type HALResource interface {
	Resource() *hal.Resource
}

// StatusCode is 500 for every error not listed in `ErrorsToStatus`.
func StatusCode(err error) int {
	if e, ok := err.(*errors.Error); ok {
		if status, found := ErrorsToStatus[e.Code]; found {
			return status
		}
	}
	return http.StatusInternalServerError
}

// WriteJSON writes the value v to the http response as json encoding. HAL
// resources are sent as `application/hal+json` and errors as problems.
func WriteJSON(w http.ResponseWriter, code int, v interface{}) error {
	if h, ok := v.(HALResource); ok {
		w.Header().Set("Content-Type", "application/hal+json")
		v = h.Resource()
	} else if e, ok := v.(error); ok {
		w.Header().Set("Content-Type", ProblemContentType)
		v = NewErrorProblem(e, code)
	} else if _, ok := v.(Problem); ok {
		w.Header().Set("Content-Type", ProblemContentType)
	} else {
		w.Header().Set("Content-Type", "application/json")
	}

	bs, err := json.Marshal(v)
	if err != nil {
		return err
	}

	w.WriteHeader(code)
	if _, err := w.Write(bs); err != nil {
		return err
	}

	return nil
}

func MustWriteJSON(w http.ResponseWriter, code int, v interface{}) {
	if err := WriteJSON(w, code, v); err != nil {
		log.Error("failed to write response", "error", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}

func WriteJSONError(w http.ResponseWriter, err error) {
	MustWriteJSON(w, StatusCode(err), err)
}
