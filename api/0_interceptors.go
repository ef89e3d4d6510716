package api

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/fulldump/box"

	"github.com/docbridge/docbridge/collection"
	"github.com/docbridge/docbridge/database"
	"github.com/docbridge/docbridge/service"
)

// RequestTimer stamps the start time used for the responseTime metadata.
func RequestTimer(next box.H) box.H {
	return func(ctx context.Context) {
		next(context.WithValue(ctx, startTimeKey, time.Now()))
	}
}

func AccessLog(l *log.Logger) box.I {
	return func(next box.H) box.H {
		return func(ctx context.Context) {
			r := box.GetRequest(ctx)
			now := time.Now()
			defer func() {
				l.Println(now.UTC().Format(time.RFC3339Nano), formatRemoteAddr(r), r.Method, r.URL.String(), time.Since(now))
			}()

			next(ctx)
		}
	}
}

func formatRemoteAddr(r *http.Request) string {
	xorigin := strings.TrimSpace(strings.Split(
		r.Header.Get("X-Forwarded-For"), ",")[0])
	if xorigin != "" {
		return xorigin
	}

	i := strings.LastIndex(r.RemoteAddr, ":")
	if i < 0 {
		return r.RemoteAddr
	}
	return r.RemoteAddr[0:i]
}

// CORS reflects the request origin when it belongs to the allowed list. An
// entry "*" allows any origin.
func CORS(allowedOrigins []string) box.I {

	allowAll := slices.Contains(allowedOrigins, "*")

	return func(next box.H) box.H {
		return func(ctx context.Context) {
			r := box.GetRequest(ctx)
			w := box.GetResponse(ctx)

			origin := r.Header.Get("Origin")
			if origin != "" && (allowAll || slices.Contains(allowedOrigins, origin)) {
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
				w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
			}

			next(ctx)
		}
	}
}

// InterceptorUnavailable rejects requests while the store is not operating,
// with an error the client can retry once the load settles.
func InterceptorUnavailable(db *database.Database) box.I {
	return func(next box.H) box.H {
		return func(ctx context.Context) {

			status := db.GetStatus()
			if status != database.StatusOperating {
				box.SetError(ctx, database.ErrUnavailable)
				return
			}
			next(ctx)
		}
	}
}

// PrettyErrorInterceptor classifies any error left in the context and writes
// the error envelope with the corresponding status code. Internal failures
// never leak their raw detail.
func PrettyErrorInterceptor(next box.H) box.H {
	return func(ctx context.Context) {

		next(ctx)

		err := box.GetError(ctx)
		if err == nil {
			return
		}
		w := box.GetResponse(ctx)

		status, kind, message := classifyError(ctx, err)
		w.WriteHeader(status)
		json.NewEncoder(w).Encode(errorEnvelope{
			Success: false,
			Error: &errorPayload{
				Kind:    kind,
				Message: message,
			},
			Meta: responseMeta(ctx, nil),
		})
	}
}

func classifyError(ctx context.Context, err error) (status int, kind, message string) {

	switch {
	case errors.Is(err, service.ErrInvalidCollectionName):
		return http.StatusBadRequest, "invalid_name", err.Error()
	case errors.Is(err, service.ErrMissingId):
		return http.StatusBadRequest, "missing_id", err.Error()
	case errors.Is(err, service.ErrMissingBody):
		return http.StatusBadRequest, "missing_body", err.Error()
	case errors.Is(err, service.ErrTooManyDocuments):
		return http.StatusBadRequest, "too_many_documents", err.Error()
	case errors.Is(err, service.ErrValidation):
		return http.StatusBadRequest, "validation_failure", err.Error()
	case errors.Is(err, service.ErrDocumentNotFound),
		errors.Is(err, service.ErrorCollectionNotFound):
		return http.StatusNotFound, "not_found", err.Error()
	case errors.Is(err, collection.ErrDuplicateKey):
		return http.StatusConflict, "duplicate_key", err.Error()
	case errors.Is(err, database.ErrUnavailable):
		return http.StatusInternalServerError, "connection_failure", "store unavailable, retry later"
	case err == box.ErrResourceNotFound:
		return http.StatusNotFound, "not_found", "resource '" + box.GetRequest(ctx).URL.String() + "' not found"
	case err == box.ErrMethodNotAllowed:
		return http.StatusMethodNotAllowed, "method_not_allowed", "method '" + box.GetRequest(ctx).Method + "' not allowed"
	}

	var syntaxError *json.SyntaxError
	if errors.As(err, &syntaxError) {
		return http.StatusBadRequest, "malformed_json", "malformed JSON body"
	}
	var typeError *json.UnmarshalTypeError
	if errors.As(err, &typeError) {
		return http.StatusBadRequest, "cast_failure", "unexpected JSON shape"
	}

	return http.StatusInternalServerError, "internal", "unexpected error"
}
