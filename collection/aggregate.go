package collection

import (
	"fmt"
	"sort"
	"strings"
)

var ErrUnknownStage = fmt.Errorf("unknown aggregation stage")

// Aggregate runs a small mongo-flavoured pipeline over the collection. Each
// stage consumes the output of the previous one. Supported stages: $match,
// $sort, $skip, $limit, $project, $count.
func (c *Collection) Aggregate(pipeline []map[string]interface{}) ([]map[string]interface{}, error) {

	items := []map[string]interface{}{}
	var decodeErr error
	c.Traverse(func(row *Row) bool {
		item, err := decodeDocument(row.Payload)
		if err != nil {
			decodeErr = err
			return false
		}
		items = append(items, item)
		return true
	})
	if decodeErr != nil {
		return nil, decodeErr
	}

	for _, stage := range pipeline {
		if len(stage) != 1 {
			return nil, fmt.Errorf("%w: each stage must have exactly one operator", ErrUnknownStage)
		}
		for name, value := range stage {
			var err error
			items, err = applyStage(name, value, items)
			if err != nil {
				return nil, err
			}
		}
	}

	return items, nil
}

func applyStage(name string, value interface{}, items []map[string]interface{}) ([]map[string]interface{}, error) {

	switch name {

	case "$match":
		filter, ok := value.(map[string]interface{})
		if !ok {
			return nil, fmt.Errorf("$match: filter must be an object")
		}
		result := []map[string]interface{}{}
		for _, item := range items {
			match, err := matchDocument(filter, item)
			if err != nil {
				return nil, fmt.Errorf("$match: %w", err)
			}
			if match {
				result = append(result, item)
			}
		}
		return result, nil

	case "$sort":
		spec, err := sortSpec(value)
		if err != nil {
			return nil, err
		}
		sortDocuments(items, spec)
		return items, nil

	case "$skip":
		n, ok := value.(float64)
		if !ok || n < 0 {
			return nil, fmt.Errorf("$skip: must be a non-negative number")
		}
		if int(n) > len(items) {
			return []map[string]interface{}{}, nil
		}
		return items[int(n):], nil

	case "$limit":
		n, ok := value.(float64)
		if !ok || n < 0 {
			return nil, fmt.Errorf("$limit: must be a non-negative number")
		}
		if int(n) < len(items) {
			return items[:int(n)], nil
		}
		return items, nil

	case "$project":
		fields, err := projectionFields(value)
		if err != nil {
			return nil, err
		}
		result := make([]map[string]interface{}, 0, len(items))
		for _, item := range items {
			result = append(result, project(item, fields))
		}
		return result, nil

	case "$count":
		field, ok := value.(string)
		if !ok || field == "" {
			return nil, fmt.Errorf("$count: must be a non-empty field name")
		}
		return []map[string]interface{}{{field: len(items)}}, nil
	}

	return nil, fmt.Errorf("%w: '%s'", ErrUnknownStage, name)
}

// sortSpec accepts both the query-string form ("-created,name") and the mongo
// object form ({"created": -1, "name": 1}, fields applied in key order).
func sortSpec(value interface{}) ([]string, error) {

	switch v := value.(type) {
	case string:
		return strings.Split(v, ","), nil
	case map[string]interface{}:
		fields := make([]string, 0, len(v))
		for field := range v {
			fields = append(fields, field)
		}
		sort.Strings(fields)
		spec := make([]string, 0, len(fields))
		for _, field := range fields {
			if direction, ok := v[field].(float64); ok && direction < 0 {
				spec = append(spec, "-"+field)
				continue
			}
			spec = append(spec, field)
		}
		return spec, nil
	}

	return nil, fmt.Errorf("$sort: must be a string or an object")
}

func projectionFields(value interface{}) ([]string, error) {

	switch v := value.(type) {
	case []interface{}:
		fields := make([]string, 0, len(v))
		for _, field := range v {
			s, ok := field.(string)
			if !ok {
				return nil, fmt.Errorf("$project: fields must be strings")
			}
			fields = append(fields, s)
		}
		return fields, nil
	case map[string]interface{}:
		fields := make([]string, 0, len(v))
		for field, include := range v {
			if include == true || include == float64(1) {
				fields = append(fields, field)
			}
		}
		sort.Strings(fields)
		return fields, nil
	}

	return nil, fmt.Errorf("$project: must be an array or an object")
}

func sortDocuments(items []map[string]interface{}, spec []string) {

	sort.SliceStable(items, func(i, j int) bool {
		for _, field := range spec {
			descending := strings.HasPrefix(field, "-")
			field = strings.TrimPrefix(field, "-")

			cmp := compareAny(lookupPath(items[i], field), lookupPath(items[j], field))
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

// lookupPath walks a dotted path through nested objects.
func lookupPath(item map[string]interface{}, path string) interface{} {

	parts := strings.Split(path, ".")
	var current interface{} = item
	for _, part := range parts {
		object, ok := current.(map[string]interface{})
		if !ok {
			return nil
		}
		current, ok = object[part]
		if !ok {
			return nil
		}
	}

	return current
}

func compareAny(a, b interface{}) int {

	ra, rb := anyRank(a), anyRank(b)
	if ra != rb {
		return ra - rb
	}

	switch va := a.(type) {
	case float64:
		vb := b.(float64)
		switch {
		case va < vb:
			return -1
		case va > vb:
			return 1
		}
		return 0
	case string:
		return strings.Compare(va, b.(string))
	case bool:
		vb := b.(bool)
		switch {
		case !va && vb:
			return -1
		case va && !vb:
			return 1
		}
		return 0
	}

	return 0
}

func anyRank(v interface{}) int {
	switch v.(type) {
	case nil:
		return 0
	case bool:
		return 1
	case float64:
		return 2
	case string:
		return 3
	default:
		return 4
	}
}
