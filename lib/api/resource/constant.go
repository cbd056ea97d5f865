package resource

const (
	APIVersionV1 = "/v1"
	APIPrefix    = "/api"

	URLDocuments = APIPrefix + APIVersionV1 + "/documents"
	URLDocument  = APIPrefix + APIVersionV1 + "/documents/{id}"
)
