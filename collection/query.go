package collection

import (
	"fmt"
	"sort"
	"strings"

	"github.com/SierraSoftworks/connor"
	jsonv2 "github.com/go-json-experiment/json"
	"github.com/tidwall/gjson"
)

// FindOptions is the fully assembled query a handle executes: a connor-style
// filter, a sort spec ("-field" means descending, listed order breaks ties),
// an optional field projection and a pagination window.
type FindOptions struct {
	Filter     map[string]interface{}
	Sort       []string
	Projection []string
	Skip       int
	Limit      int
}

// Find returns one page of matching documents plus the total match count
// before pagination.
func (c *Collection) Find(options FindOptions) ([]map[string]interface{}, int, error) {

	matches := []*Row{}

	var matchErr error
	c.Traverse(func(row *Row) bool {
		match, err := c.matchRow(row, options.Filter)
		if err != nil {
			matchErr = err
			return false
		}
		if match {
			matches = append(matches, row)
		}
		return true
	})
	if matchErr != nil {
		return nil, 0, matchErr
	}

	total := len(matches)

	if len(options.Sort) > 0 {
		sortRows(matches, options.Sort)
	}

	skip := options.Skip
	if skip > len(matches) {
		skip = len(matches)
	}
	matches = matches[skip:]
	if options.Limit > 0 && options.Limit < len(matches) {
		matches = matches[:options.Limit]
	}

	result := make([]map[string]interface{}, 0, len(matches))
	for _, row := range matches {
		item, err := decodeDocument(row.Payload)
		if err != nil {
			return nil, 0, err
		}
		result = append(result, project(item, options.Projection))
	}

	return result, total, nil
}

// FindRows returns the raw rows matching a filter, for callers that mutate
// documents in place.
func (c *Collection) FindRows(filter map[string]interface{}) ([]*Row, error) {

	rows := []*Row{}
	var matchErr error
	c.Traverse(func(row *Row) bool {
		match, err := c.matchRow(row, filter)
		if err != nil {
			matchErr = err
			return false
		}
		if match {
			rows = append(rows, row)
		}
		return true
	})
	if matchErr != nil {
		return nil, matchErr
	}

	return rows, nil
}

// Count returns how many documents match the filter.
func (c *Collection) Count(filter map[string]interface{}) (int, error) {

	total := 0
	var matchErr error
	c.Traverse(func(row *Row) bool {
		match, err := c.matchRow(row, filter)
		if err != nil {
			matchErr = err
			return false
		}
		if match {
			total++
		}
		return true
	})
	if matchErr != nil {
		return 0, matchErr
	}

	return total, nil
}

// Distinct collects the unique values of a (possibly dotted) field across all
// documents matching the filter, in first-seen order.
func (c *Collection) Distinct(field string, filter map[string]interface{}) ([]interface{}, error) {

	seen := map[string]struct{}{}
	values := []interface{}{}

	var matchErr error
	c.Traverse(func(row *Row) bool {
		match, err := c.matchRow(row, filter)
		if err != nil {
			matchErr = err
			return false
		}
		if !match {
			return true
		}

		result := gjson.GetBytes(row.Payload, field)
		if !result.Exists() {
			return true
		}
		key := result.Raw
		if _, duplicated := seen[key]; duplicated {
			return true
		}
		seen[key] = struct{}{}
		values = append(values, result.Value())
		return true
	})
	if matchErr != nil {
		return nil, matchErr
	}

	return values, nil
}

func (c *Collection) matchRow(row *Row, filter map[string]interface{}) (bool, error) {

	if len(filter) == 0 {
		return true, nil
	}

	item, err := decodeDocument(row.Payload)
	if err != nil {
		return false, err
	}

	return matchDocument(filter, item)
}

// matchDocument evaluates $exists clauses locally and delegates everything
// else to connor.
func matchDocument(filter map[string]interface{}, item map[string]interface{}) (bool, error) {

	rest := map[string]interface{}{}
	for field, condition := range filter {
		operators, isOperators := condition.(map[string]interface{})
		if isOperators {
			if want, hasExists := operators["$exists"]; hasExists {
				_, present := item[field]
				if present != (want == true) {
					return false, nil
				}
				if len(operators) == 1 {
					continue
				}
				remaining := map[string]interface{}{}
				for op, value := range operators {
					if op != "$exists" {
						remaining[op] = value
					}
				}
				condition = remaining
			}
		}
		rest[field] = condition
	}

	if len(rest) == 0 {
		return true, nil
	}

	return connor.Match(rest, item)
}

func sortRows(rows []*Row, spec []string) {

	sort.SliceStable(rows, func(i, j int) bool {
		for _, field := range spec {
			descending := strings.HasPrefix(field, "-")
			field = strings.TrimPrefix(field, "-")

			a := gjson.GetBytes(rows[i].Payload, field)
			b := gjson.GetBytes(rows[j].Payload, field)

			cmp := compareValues(a, b)
			if cmp == 0 {
				continue
			}
			if descending {
				return cmp > 0
			}
			return cmp < 0
		}
		return false
	})
}

// compareValues orders two dynamically-typed values: missing < null < false <
// true < numbers < strings. Mixed types never panic, they just rank by type.
func compareValues(a, b gjson.Result) int {

	ra, rb := typeRank(a), typeRank(b)
	if ra != rb {
		return ra - rb
	}

	switch a.Type {
	case gjson.Number:
		switch {
		case a.Num < b.Num:
			return -1
		case a.Num > b.Num:
			return 1
		}
		return 0
	case gjson.String:
		return strings.Compare(a.Str, b.Str)
	default:
		return strings.Compare(a.Raw, b.Raw)
	}
}

func typeRank(v gjson.Result) int {
	switch v.Type {
	case gjson.Null:
		if !v.Exists() {
			return 0
		}
		return 1
	case gjson.False:
		return 2
	case gjson.True:
		return 3
	case gjson.Number:
		return 4
	case gjson.String:
		return 5
	default:
		return 6
	}
}

// project keeps only the selected top-level fields. The primary key is always
// included. An empty projection returns the full document.
func project(item map[string]interface{}, fields []string) map[string]interface{} {

	if len(fields) == 0 {
		return item
	}

	result := map[string]interface{}{}
	if id, exists := item[PrimaryKeyField]; exists {
		result[PrimaryKeyField] = id
	}
	for _, field := range fields {
		if value, exists := item[field]; exists {
			result[field] = value
		}
	}

	return result
}

func decodeDocument(payload []byte) (map[string]interface{}, error) {
	item := map[string]interface{}{}
	err := jsonv2.Unmarshal(payload, &item)
	if err != nil {
		return nil, fmt.Errorf("decode document: %w", err)
	}
	return item, nil
}
