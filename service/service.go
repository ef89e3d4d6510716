package service

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/docbridge/docbridge/collection"
	"github.com/docbridge/docbridge/database"
)

const (
	DefaultMaxLimit       = 1000
	DefaultMaxScan        = 1000
	DefaultMaxInsertBatch = 100

	// listConcurrency bounds the per-collection stat fan-out while listing.
	listConcurrency = 8
)

// collection names are restrictive on purpose: no operator tokens ($, .), no
// path tricks, bounded length
var collectionNamePattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)

type Service struct {
	db             *database.Database
	MaxLimit       int
	MaxScan        int
	MaxInsertBatch int
}

func NewService(db *database.Database) *Service {
	return &Service{
		db:             db,
		MaxLimit:       DefaultMaxLimit,
		MaxScan:        DefaultMaxScan,
		MaxInsertBatch: DefaultMaxInsertBatch,
	}
}

// Resolve validates a raw collection name and returns the cached handle,
// opening the collection on first reference. Invalid names never reach the
// store layer.
func (s *Service) Resolve(rawName string) (*collection.Collection, error) {

	if !collectionNamePattern.MatchString(rawName) {
		return nil, fmt.Errorf("%w: '%s'", ErrInvalidCollectionName, rawName)
	}
	if strings.HasPrefix(rawName, database.ReservedPrefix) {
		return nil, fmt.Errorf("%w: '%s' is reserved", ErrInvalidCollectionName, rawName)
	}

	return s.db.GetOrCreate(rawName)
}

// CollectionStatus is one entry of the listing view. A failed stat fetch is
// reported inline instead of failing the whole listing.
type CollectionStatus struct {
	Name  string `json:"name"`
	Total int    `json:"total"`
	Error string `json:"error,omitempty"`
}

// ListCollections enumerates visible collections and fetches their stats with
// a bounded parallel fan-out. The response waits for every sub-fetch to
// settle.
func (s *Service) ListCollections(ctx context.Context) []CollectionStatus {

	names := s.db.ListNames()
	sort.Strings(names)

	result := make([]CollectionStatus, len(names))

	wg := &sync.WaitGroup{}
	semaphore := make(chan struct{}, listConcurrency)

	for i, name := range names {
		wg.Add(1)
		go func(i int, name string) {
			defer wg.Done()

			semaphore <- struct{}{}
			defer func() { <-semaphore }()

			status := CollectionStatus{Name: name}
			col, err := s.db.GetOrCreate(name)
			if err != nil {
				status.Error = err.Error()
			} else {
				status.Total = col.Len()
			}
			result[i] = status
		}(i, name)
	}

	wg.Wait()

	return result
}

// Insert stores a batch of documents, bounded by MaxInsertBatch, and returns
// the stored payloads with their assigned primary keys.
func (s *Service) Insert(col *collection.Collection, items []map[string]any) ([]map[string]any, error) {

	if len(items) == 0 {
		return nil, ErrMissingBody
	}
	if len(items) > s.MaxInsertBatch {
		return nil, fmt.Errorf("%w: maximum is %d", ErrTooManyDocuments, s.MaxInsertBatch)
	}

	result := make([]map[string]any, 0, len(items))
	for _, item := range items {
		row, err := col.Insert(item)
		if err != nil {
			return nil, err
		}
		stored, err := decodeRow(row)
		if err != nil {
			return nil, err
		}
		result = append(result, stored)
	}

	return result, nil
}

var _ Servicer = &Service{}
