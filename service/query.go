package service

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/docbridge/docbridge/collection"
)

const DefaultLimit = 50

// reservedParams never become part of the filter predicate.
var reservedParams = map[string]bool{
	"limit":      true,
	"skip":       true,
	"sort":       true,
	"select":     true,
	"fields":     true,
	"populate":   true,
	"collection": true,
	"id":         true,
	"action":     true,
	"bulk":       true,
	"pipeline":   true,
}

// operatorSuffixes is the allow-list for "field.op=value" parameters mapped
// to their predicate operators. Unknown suffixes are dropped, never an error.
var operatorSuffixes = map[string]string{
	"gt":         "$gt",
	"gte":        "$gte",
	"lt":         "$lt",
	"lte":        "$lte",
	"ne":         "$ne",
	"in":         "$in",
	"exists":     "$exists",
	"contains":   "$contains",
	"startswith": "$startsWith",
	"endswith":   "$endsWith",
}

// BuildQuery translates raw query parameters into an executable query. It is
// a plain parameter-to-predicate translation: no validation of the resulting
// filter is attempted.
func (s *Service) BuildQuery(params url.Values) collection.FindOptions {

	options := collection.FindOptions{
		Filter: map[string]interface{}{},
		Skip:   0,
		Limit:  DefaultLimit,
	}

	if limit, err := strconv.Atoi(params.Get("limit")); err == nil && limit > 0 {
		options.Limit = limit
	}
	if options.Limit > s.MaxLimit {
		options.Limit = s.MaxLimit
	}

	if skip, err := strconv.Atoi(params.Get("skip")); err == nil && skip > 0 {
		options.Skip = skip
	}

	if sortParam := params.Get("sort"); sortParam != "" {
		options.Sort = splitList(sortParam)
	}

	projection := params.Get("select")
	if projection == "" {
		projection = params.Get("fields")
	}
	if projection != "" {
		options.Projection = splitList(projection)
	}

	for key, values := range params {
		if reservedParams[key] || len(values) == 0 {
			continue
		}
		value := values[0]

		if field, op, found := splitOperator(key); found {
			operator, allowed := operatorSuffixes[op]
			if !allowed {
				continue // unknown operator, dropped
			}
			condition := map[string]interface{}{}
			if existing, ok := options.Filter[field].(map[string]interface{}); ok {
				condition = existing
			}
			if operator == "$in" {
				condition[operator] = coerceList(value)
			} else {
				condition[operator] = coerceValue(value)
			}
			options.Filter[field] = condition
			continue
		}

		if strings.Contains(value, ",") {
			options.Filter[key] = map[string]interface{}{"$in": coerceList(value)}
			continue
		}

		options.Filter[key] = coerceValue(value)
	}

	return options
}

// splitOperator recognizes the "field.op" form. Only the last dot counts, so
// nested paths with operator suffixes keep working.
func splitOperator(key string) (field, op string, found bool) {
	i := strings.LastIndex(key, ".")
	if i <= 0 || i == len(key)-1 {
		return "", "", false
	}
	return key[:i], strings.ToLower(key[i+1:]), true
}

// coerceValue opportunistically converts a raw parameter: booleans and full
// numeric strings become typed values, anything else stays a string.
func coerceValue(value string) interface{} {
	switch value {
	case "true":
		return true
	case "false":
		return false
	}
	if number, err := strconv.ParseFloat(value, 64); err == nil {
		return number
	}
	return value
}

func coerceList(value string) []interface{} {
	parts := strings.Split(value, ",")
	result := make([]interface{}, 0, len(parts))
	for _, part := range parts {
		result = append(result, coerceValue(part))
	}
	return result
}

func splitList(value string) []string {
	result := []string{}
	for _, part := range strings.Split(value, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			result = append(result, part)
		}
	}
	return result
}
