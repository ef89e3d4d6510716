package api

import (
	"context"
	"net/http"
)

// listCollections builds the no-collection listing view: every visible
// collection with its stats, fetched concurrently by the service.
func listCollections(ctx context.Context, w http.ResponseWriter, r *http.Request) error {

	s := GetServicer(ctx)

	result := s.ListCollections(ctx)

	return writeSuccess(ctx, w, http.StatusOK, result, nil)
}
