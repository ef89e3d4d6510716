package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/fulldump/box"

	"github.com/docbridge/docbridge/service"
)

// replaceDocument is PUT on a located document: the body replaces the whole
// payload, only the primary key survives.
func replaceDocument(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	return updateDocument(ctx, w, r, false)
}

// patchDocument is PATCH on a located document: merge semantics, fields not
// named in the body are untouched.
func patchDocument(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	return updateDocument(ctx, w, r, true)
}

func updateDocument(ctx context.Context, w http.ResponseWriter, r *http.Request, merge bool) error {

	name := requestCollectionName(ctx, r)
	documentId := box.GetUrlParameter(ctx, "documentId")

	s := GetServicer(ctx)
	col, err := s.Resolve(name)
	if err != nil {
		return err
	}

	item := map[string]any{}
	err = json.NewDecoder(r.Body).Decode(&item)
	if err != nil {
		return service.ErrMissingBody
	}

	result, err := s.Locate(col, documentId)
	if err != nil {
		return err
	}

	row := result.Rows[0]
	if merge {
		err = col.Patch(row, item)
	} else {
		err = col.Replace(row, item)
	}
	if err != nil {
		return err
	}

	updated := map[string]any{}
	err = json.Unmarshal(row.Payload, &updated)
	if err != nil {
		return err
	}

	return writeSuccess(ctx, w, http.StatusOK, updated, nil)
}

// updateCollection is the bulk variant: PUT/PATCH on the collection with an
// explicit bulk flag applies the body to every document matching the built
// predicate.
func updateCollection(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	return bulkUpdate(ctx, w, r, false)
}

func patchCollection(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	return bulkUpdate(ctx, w, r, true)
}

func bulkUpdate(ctx context.Context, w http.ResponseWriter, r *http.Request, merge bool) error {

	if r.URL.Query().Get("bulk") != "true" {
		return service.ErrMissingId
	}

	name := requestCollectionName(ctx, r)

	s := GetServicer(ctx)
	col, err := s.Resolve(name)
	if err != nil {
		return err
	}

	item := map[string]any{}
	err = json.NewDecoder(r.Body).Decode(&item)
	if err != nil {
		return service.ErrMissingBody
	}

	query := s.BuildQuery(r.URL.Query())

	rows, err := col.FindRows(query.Filter)
	if err != nil {
		return err
	}

	updated := 0
	for _, row := range rows {
		var err error
		if merge {
			err = col.Patch(row, item)
		} else {
			err = col.Replace(row, item)
		}
		if err != nil {
			return err
		}
		updated++
	}

	return writeSuccess(ctx, w, http.StatusOK, JSON{"updated": updated}, nil)
}
