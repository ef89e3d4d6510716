package service

import (
	"context"
	"errors"
	"net/url"

	"github.com/docbridge/docbridge/collection"
)

var (
	ErrInvalidCollectionName = errors.New("invalid collection name")
	ErrorCollectionNotFound  = errors.New("collection not found")
	ErrDocumentNotFound      = errors.New("document not found")
	ErrMissingId             = errors.New("document id is required")
	ErrMissingBody           = errors.New("request body is required")
	ErrTooManyDocuments      = errors.New("too many documents in one request")
	ErrValidation            = errors.New("validation failure")
)

type Servicer interface {
	Resolve(rawName string) (*collection.Collection, error)
	ListCollections(ctx context.Context) []CollectionStatus
	Locate(col *collection.Collection, idValue string) (*LocateResult, error)
	BuildQuery(params url.Values) collection.FindOptions
	Insert(col *collection.Collection, items []map[string]any) ([]map[string]any, error)
}
