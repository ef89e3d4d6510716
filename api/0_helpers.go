package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/fulldump/box"
)

type JSON = map[string]interface{}

type Pagination struct {
	Total   int  `json:"total"`
	Limit   int  `json:"limit"`
	Skip    int  `json:"skip"`
	HasMore bool `json:"hasMore"`
}

type Meta struct {
	Timestamp    string      `json:"timestamp"`
	ResponseTime string      `json:"responseTime"`
	Pagination   *Pagination `json:"pagination,omitempty"`
}

type successEnvelope struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data"`
	Meta    *Meta       `json:"meta"`
}

type errorEnvelope struct {
	Success bool          `json:"success"`
	Error   *errorPayload `json:"error"`
	Meta    *Meta         `json:"meta"`
}

type errorPayload struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

type contextKey string

const startTimeKey = contextKey("docbridge_start_time")

func responseMeta(ctx context.Context, pagination *Pagination) *Meta {
	meta := &Meta{
		Timestamp:  time.Now().UTC().Format(time.RFC3339Nano),
		Pagination: pagination,
	}
	if start, ok := ctx.Value(startTimeKey).(time.Time); ok {
		meta.ResponseTime = time.Since(start).String()
	}
	return meta
}

func writeSuccess(ctx context.Context, w http.ResponseWriter, status int, data interface{}, pagination *Pagination) error {
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(successEnvelope{
		Success: true,
		Data:    data,
		Meta:    responseMeta(ctx, pagination),
	})
}

// requestCollectionName accepts the collection both as a path segment and as
// the "collection" query parameter.
func requestCollectionName(ctx context.Context, r *http.Request) string {
	name := box.GetUrlParameter(ctx, "collectionName")
	if name == "" {
		name = r.URL.Query().Get("collection")
	}
	return name
}
