package api

import (
	"context"
	"net/http"

	"github.com/fulldump/box"

	"github.com/docbridge/docbridge/service"
)

// deleteDocument removes one located document and returns it.
func deleteDocument(ctx context.Context, w http.ResponseWriter, r *http.Request) error {

	name := requestCollectionName(ctx, r)
	documentId := box.GetUrlParameter(ctx, "documentId")

	s := GetServicer(ctx)
	col, err := s.Resolve(name)
	if err != nil {
		return err
	}

	result, err := s.Locate(col, documentId)
	if err != nil {
		return err
	}

	row := result.Rows[0]
	deleted := result.Containers[0]

	err = col.Remove(row)
	if err != nil {
		return err
	}

	return writeSuccess(ctx, w, http.StatusOK, deleted, nil)
}

// deleteCollection is the bulk variant: DELETE on the collection with an
// explicit bulk flag removes every document matching the built predicate.
func deleteCollection(ctx context.Context, w http.ResponseWriter, r *http.Request) error {

	if r.URL.Query().Get("bulk") != "true" {
		return service.ErrMissingId
	}

	name := requestCollectionName(ctx, r)

	s := GetServicer(ctx)
	col, err := s.Resolve(name)
	if err != nil {
		return err
	}

	query := s.BuildQuery(r.URL.Query())

	rows, err := col.FindRows(query.Filter)
	if err != nil {
		return err
	}

	deleted := 0
	for _, row := range rows {
		err := col.Remove(row)
		if err != nil {
			return err
		}
		deleted++
	}

	return writeSuccess(ctx, w, http.StatusOK, JSON{"deleted": deleted}, nil)
}
