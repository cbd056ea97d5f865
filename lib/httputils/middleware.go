package httputils

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/gorilla/mux"
	logging "github.com/inconshreveable/log15"
)

// RecoverMiddleware answers 500 with a problem instead of dropping the
// connection when a handler panics.
func RecoverMiddleware(logger logging.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rcv := recover(); rcv != nil {
					err, ok := rcv.(error)
					if !ok {
						err = fmt.Errorf("panic: %v", rcv)
					}
					logger.Error("recovered from panic", "error", err, "path", r.URL.Path, "stack", string(debug.Stack()))
					MustWriteJSON(w, http.StatusInternalServerError, err)
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}
