package api

import (
	"context"
	"net/http"

	"github.com/fulldump/box"
)

// preflight answers OPTIONS with an empty success response. The CORS headers
// themselves are set by the CORS interceptor.
func preflight(ctx context.Context) {
	box.GetResponse(ctx).WriteHeader(http.StatusOK)
}
