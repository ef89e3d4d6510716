package service

import (
	"fmt"
	"strconv"

	"github.com/google/uuid"
	"github.com/tidwall/gjson"

	"github.com/docbridge/docbridge/collection"
)

// alternateIdFields is the fixed priority order for stage 3. Collections are
// schemaless and historically inconsistent about where identifiers live, so
// the locator degrades through decreasingly strict interpretations.
var alternateIdFields = []string{"id", "id2", "slug", "uuid", "email", "username"}

// nestedIdKeys are the keys the stage-4 deep scan looks for inside embedded
// objects and arrays.
var nestedIdKeys = []string{"id", "id2"}

// LocateSource records which interpretation of the identifier matched.
type LocateSource struct {
	Stage int    `json:"stage"`
	Field string `json:"field,omitempty"`
}

// LocateResult is deliberately "one or many": stages 1-3 resolve a single
// document, stage 4 returns every nested containing object it finds.
type LocateResult struct {
	Rows       []*collection.Row
	Containers []map[string]any
	Source     *LocateSource
}

// Locate tries an ordered sequence of identity interpretations and returns
// the first stage that matches:
//
//  1. idValue as a canonical primary key (UUID form)
//  2. idValue as the literal raw value of the primary key field
//  3. alternate identifier fields, as given and as a numeric literal
//  4. bounded deep scan for a nested key named "id"/"id2"
//
// A stage that errors counts as "not found at this stage" and falls through.
func (s *Service) Locate(col *collection.Collection, idValue string) (*LocateResult, error) {

	if idValue == "" {
		return nil, ErrMissingId
	}

	// stage 1: canonical primary key form
	if parsed, err := uuid.Parse(idValue); err == nil {
		if row, found := col.FindByID(parsed.String()); found {
			return singleResult(row, &LocateSource{Stage: 1})
		}
	}

	// stage 2: literal primary key value
	if row, found := col.FindByID(idValue); found {
		return singleResult(row, &LocateSource{Stage: 2})
	}

	// stage 3: alternate identifier fields, string then numeric
	number, parseErr := strconv.ParseFloat(idValue, 64)
	isNumeric := parseErr == nil

	for _, field := range alternateIdFields {
		var match *collection.Row
		col.Traverse(func(row *collection.Row) bool {
			value := gjson.GetBytes(row.Payload, field)
			if !value.Exists() {
				return true
			}
			if value.Type == gjson.String && value.Str == idValue {
				match = row
				return false
			}
			if isNumeric && value.Type == gjson.Number && value.Num == number {
				match = row
				return false
			}
			return true
		})
		if match != nil {
			return singleResult(match, &LocateSource{Stage: 3, Field: field})
		}
	}

	// stage 4: bounded deep scan over nested objects and arrays
	result := &LocateResult{Source: &LocateSource{Stage: 4}}
	visited := 0
	col.Traverse(func(row *collection.Row) bool {
		if visited >= s.MaxScan {
			return false
		}
		visited++

		item, err := decodeRow(row)
		if err != nil {
			return true // skip undecodable rows, next stage semantics
		}

		containers := findContainers(item, idValue, isNumeric, number)
		if len(containers) > 0 {
			result.Rows = append(result.Rows, row)
			result.Containers = append(result.Containers, containers...)
		}
		return true
	})

	if len(result.Rows) > 0 {
		return result, nil
	}

	return nil, fmt.Errorf("%w: '%s'", ErrDocumentNotFound, idValue)
}

func singleResult(row *collection.Row, source *LocateSource) (*LocateResult, error) {
	item, err := decodeRow(row)
	if err != nil {
		return nil, err
	}
	return &LocateResult{
		Rows:       []*collection.Row{row},
		Containers: []map[string]any{item},
		Source:     source,
	}, nil
}

// findContainers walks every nested object and array of a document and
// collects each object holding a nested id key whose value equals idValue.
func findContainers(value any, idValue string, isNumeric bool, number float64) []map[string]any {

	containers := []map[string]any{}

	switch v := value.(type) {
	case map[string]any:
		for _, key := range nestedIdKeys {
			inner, exists := v[key]
			if !exists {
				continue
			}
			if valueEquals(inner, idValue, isNumeric, number) {
				containers = append(containers, v)
				break
			}
		}
		for _, inner := range v {
			containers = append(containers, findContainers(inner, idValue, isNumeric, number)...)
		}
	case []any:
		for _, inner := range v {
			containers = append(containers, findContainers(inner, idValue, isNumeric, number)...)
		}
	}

	return containers
}

func valueEquals(value any, idValue string, isNumeric bool, number float64) bool {
	switch v := value.(type) {
	case string:
		return v == idValue
	case float64:
		return isNumeric && v == number
	}
	return false
}
