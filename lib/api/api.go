package api

import (
	"net/http"

	ghandlers "github.com/gorilla/handlers"
	"github.com/gorilla/mux"

	"boscoin.io/dbo/lib/api/resource"
	"boscoin.io/dbo/lib/document"
	"boscoin.io/dbo/lib/httputils"
)

// API Endpoint patterns
const (
	GetDocumentsHandlerPattern   = resource.URLDocuments
	PostDocumentsHandlerPattern  = resource.URLDocuments
	GetDocumentHandlerPattern    = resource.URLDocument
	PutDocumentHandlerPattern    = resource.URLDocument
	DeleteDocumentHandlerPattern = resource.URLDocument
)

type DocumentAPI struct {
	store *document.Store
}

func NewDocumentAPI(store *document.Store) *DocumentAPI {
	return &DocumentAPI{store: store}
}

// NewRouter routes the document endpoints through the recover, metrics and
// CORS middlewares.
func NewRouter(api *DocumentAPI) *mux.Router {
	router := mux.NewRouter()

	router.Use(httputils.RecoverMiddleware(log))
	router.Use(MetricsMiddleware)
	router.Use(ghandlers.CORS(
		ghandlers.AllowedOrigins([]string{"*"}),
		ghandlers.AllowedMethods([]string{"GET", "POST", "PUT", "DELETE"}),
		ghandlers.AllowedHeaders([]string{"Content-Type", "If-Match", "X-Requested-With", "Cache-Control"}),
		ghandlers.ExposedHeaders([]string{"ETag", "Location"}),
	))

	router.HandleFunc(GetDocumentsHandlerPattern, api.GetDocumentsHandler).Methods("GET", "OPTIONS")
	router.HandleFunc(PostDocumentsHandlerPattern, api.PostDocumentsHandler).Methods("POST")
	router.HandleFunc(GetDocumentHandlerPattern, api.GetDocumentHandler).Methods("GET", "OPTIONS")
	router.HandleFunc(PutDocumentHandlerPattern, api.PutDocumentHandler).Methods("PUT")
	router.HandleFunc(DeleteDocumentHandlerPattern, api.DeleteDocumentHandler).Methods("DELETE")

	router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		httputils.MustWriteJSON(w, http.StatusNotFound, httputils.ProblemDefaultNotFound.SetInstance(r.URL.Path))
	})
	router.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		httputils.MustWriteJSON(w, http.StatusMethodNotAllowed, httputils.ProblemDefaultMethodNotAllowed.SetInstance(r.URL.Path))
	})

	return router
}
