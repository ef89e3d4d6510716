package api

import (
	"context"
	"net/http"

	"github.com/fulldump/box"
)

// getDocument resolves a caller-supplied identifier of unknown kind. The
// result shape is "one or many": a deep-scan match returns the list of
// containing objects, every other stage returns a single document.
func getDocument(ctx context.Context, w http.ResponseWriter, r *http.Request) error {

	name := requestCollectionName(ctx, r)
	documentId := box.GetUrlParameter(ctx, "documentId")

	if action := r.URL.Query().Get("action"); action != "" {
		return runAction(ctx, w, r, action, documentId)
	}

	s := GetServicer(ctx)
	col, err := s.Resolve(name)
	if err != nil {
		return err
	}

	result, err := s.Locate(col, documentId)
	if err != nil {
		return err
	}

	if result.Source.Stage == 4 {
		return writeSuccess(ctx, w, http.StatusOK, result.Containers, nil)
	}

	return writeSuccess(ctx, w, http.StatusOK, result.Containers[0], nil)
}
