package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/docbridge/docbridge/service"
	"github.com/docbridge/docbridge/utils"
)

var validActions = map[string]bool{
	"count":     true,
	"distinct":  true,
	"aggregate": true,
}

// runAction serves the scalar operations: count, distinct and aggregate. For
// distinct the trailing id segment names the field; count and aggregate
// ignore it.
func runAction(ctx context.Context, w http.ResponseWriter, r *http.Request, action, idSegment string) error {

	if !validActions[action] {
		return fmt.Errorf("%w: unknown action '%s', must be one of [%s]",
			service.ErrValidation, action, strings.Join(utils.GetKeys(validActions), "|"))
	}

	name := requestCollectionName(ctx, r)

	s := GetServicer(ctx)
	col, err := s.Resolve(name)
	if err != nil {
		return err
	}

	query := s.BuildQuery(r.URL.Query())

	switch action {

	case "count":
		total, err := col.Count(query.Filter)
		if err != nil {
			return err
		}
		return writeSuccess(ctx, w, http.StatusOK, JSON{"count": total}, nil)

	case "distinct":
		field := idSegment
		if field == "" {
			field = r.URL.Query().Get("field")
		}
		if field == "" {
			return fmt.Errorf("%w: distinct requires a field", service.ErrValidation)
		}
		values, err := col.Distinct(field, query.Filter)
		if err != nil {
			return err
		}
		return writeSuccess(ctx, w, http.StatusOK, values, nil)

	case "aggregate":
		raw := r.URL.Query().Get("pipeline")
		if raw == "" {
			return fmt.Errorf("%w: aggregate requires a pipeline", service.ErrValidation)
		}
		pipeline := []map[string]interface{}{}
		err := json.Unmarshal([]byte(raw), &pipeline)
		if err != nil {
			return fmt.Errorf("%w: pipeline must be a JSON array of stages", service.ErrValidation)
		}
		result, err := col.Aggregate(pipeline)
		if err != nil {
			return fmt.Errorf("%w: %s", service.ErrValidation, err.Error())
		}
		return writeSuccess(ctx, w, http.StatusOK, result, nil)
	}

	return nil
}
