package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/docbridge/docbridge/service"
)

// insertDocuments creates one document (object body) or many (array body).
// The collection is created on first use.
func insertDocuments(ctx context.Context, w http.ResponseWriter, r *http.Request) error {

	name := requestCollectionName(ctx, r)

	s := GetServicer(ctx)
	col, err := s.Resolve(name)
	if err != nil {
		return err
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		return err
	}
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return service.ErrMissingBody
	}

	many := body[0] == '['
	items := []map[string]any{}
	if many {
		err = json.Unmarshal(body, &items)
	} else {
		item := map[string]any{}
		err = json.Unmarshal(body, &item)
		items = append(items, item)
	}
	if err != nil {
		return err
	}

	stored, err := s.Insert(col, items)
	if err != nil {
		return err
	}

	if many {
		return writeSuccess(ctx, w, http.StatusCreated, stored, nil)
	}
	return writeSuccess(ctx, w, http.StatusCreated, stored[0], nil)
}
