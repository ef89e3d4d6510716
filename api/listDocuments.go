package api

import (
	"context"
	"net/http"
)

// listDocuments serves GET on a collection: a filtered, sorted, projected and
// paginated document list. With no collection name it degrades to the
// collection listing, with an action parameter it dispatches to the scalar
// actions.
func listDocuments(ctx context.Context, w http.ResponseWriter, r *http.Request) error {

	name := requestCollectionName(ctx, r)
	if name == "" {
		return listCollections(ctx, w, r)
	}

	if action := r.URL.Query().Get("action"); action != "" {
		return runAction(ctx, w, r, action, "")
	}

	s := GetServicer(ctx)
	col, err := s.Resolve(name)
	if err != nil {
		return err
	}

	query := s.BuildQuery(r.URL.Query())

	items, total, err := col.Find(query)
	if err != nil {
		return err
	}

	pagination := &Pagination{
		Total:   total,
		Limit:   query.Limit,
		Skip:    query.Skip,
		HasMore: query.Skip+len(items) < total,
	}

	return writeSuccess(ctx, w, http.StatusOK, items, pagination)
}
