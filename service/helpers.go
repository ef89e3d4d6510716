package service

import (
	"fmt"

	jsonv2 "github.com/go-json-experiment/json"

	"github.com/docbridge/docbridge/collection"
)

func decodeRow(row *collection.Row) (map[string]any, error) {
	item := map[string]any{}
	err := jsonv2.Unmarshal(row.Payload, &item)
	if err != nil {
		return nil, fmt.Errorf("decode document: %w", err)
	}
	return item, nil
}
