package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	. "github.com/fulldump/biff"

	"github.com/docbridge/docbridge/database"
)

func newTestService(t *testing.T) *Service {
	t.Helper()

	db := database.NewDatabase(&database.Config{
		Dir: t.TempDir(),
	})
	if err := db.Load(); err != nil {
		t.Fatalf("load database: %v", err)
	}
	t.Cleanup(func() {
		db.Stop()
	})

	return NewService(db)
}

func TestResolve_Idempotent(t *testing.T) {

	s := newTestService(t)

	a, err := s.Resolve("users")
	AssertNil(err)

	b, err := s.Resolve("users")
	AssertNil(err)

	AssertTrue(a == b)
}

func TestResolve_InvalidNames(t *testing.T) {

	s := newTestService(t)

	invalid := []string{
		"",
		"$where",
		"users$",
		"a.b",
		"a b",
		"users/../secrets",
		strings.Repeat("x", 65),
		"system-internal",
		"systemlog",
	}

	for _, name := range invalid {
		_, err := s.Resolve(name)
		if !errors.Is(err, ErrInvalidCollectionName) {
			t.Fatalf("name '%s': expected ErrInvalidCollectionName, got %v", name, err)
		}
	}

	// nothing was created in the store
	AssertEqual(len(s.db.ListNames()), 0)
}

func TestResolve_ValidNames(t *testing.T) {

	s := newTestService(t)

	for _, name := range []string{"users", "Users-2", "a_b", "x"} {
		_, err := s.Resolve(name)
		AssertNil(err)
	}
}

func TestListCollections_InlineStats(t *testing.T) {

	s := newTestService(t)

	users, _ := s.Resolve("users")
	users.Insert(map[string]any{"name": "A"})
	users.Insert(map[string]any{"name": "B"})
	s.Resolve("invoices")

	result := s.ListCollections(context.Background())

	AssertEqual(len(result), 2)
	AssertEqual(result[0].Name, "invoices")
	AssertEqual(result[0].Total, 0)
	AssertEqual(result[1].Name, "users")
	AssertEqual(result[1].Total, 2)
}

func TestInsert_BatchCap(t *testing.T) {

	s := newTestService(t)
	s.MaxInsertBatch = 2

	col, _ := s.Resolve("users")

	items := []map[string]any{{"n": 1}, {"n": 2}, {"n": 3}}
	_, err := s.Insert(col, items)
	AssertTrue(errors.Is(err, ErrTooManyDocuments))

	stored, err := s.Insert(col, items[:2])
	AssertNil(err)
	AssertEqual(len(stored), 2)
	AssertNotNil(stored[0]["_id"])
}

func TestInsert_EmptyBatch(t *testing.T) {

	s := newTestService(t)
	col, _ := s.Resolve("users")

	_, err := s.Insert(col, nil)
	AssertTrue(errors.Is(err, ErrMissingBody))
}
