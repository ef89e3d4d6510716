package service

import (
	"errors"
	"testing"

	. "github.com/fulldump/biff"
	"github.com/google/uuid"
)

func TestLocate_Stage1_PrimaryKey(t *testing.T) {

	s := newTestService(t)
	col, _ := s.Resolve("users")

	id := uuid.NewString()
	col.Insert(map[string]any{"_id": id, "name": "A"})
	col.Insert(map[string]any{"name": "B"})

	result, err := s.Locate(col, id)
	AssertNil(err)
	AssertEqual(result.Source.Stage, 1)
	AssertEqual(len(result.Rows), 1)
	AssertEqual(result.Containers[0]["name"], "A")
}

func TestLocate_Stage1_CanonicalForm(t *testing.T) {

	s := newTestService(t)
	col, _ := s.Resolve("users")

	id := "6ba7b810-9dad-11d1-80b4-00c04fd430c8"
	col.Insert(map[string]any{"_id": id, "name": "A"})

	// uppercase input, canonical lowercase stored form
	result, err := s.Locate(col, "6BA7B810-9DAD-11D1-80B4-00C04FD430C8")
	AssertNil(err)
	AssertEqual(result.Source.Stage, 1)
	AssertEqual(result.Containers[0]["name"], "A")
}

func TestLocate_Stage2_LiteralPrimaryKey(t *testing.T) {

	s := newTestService(t)
	col, _ := s.Resolve("users")

	col.Insert(map[string]any{"_id": "not-a-uuid", "name": "A"})

	result, err := s.Locate(col, "not-a-uuid")
	AssertNil(err)
	AssertEqual(result.Source.Stage, 2)
	AssertEqual(result.Containers[0]["name"], "A")
}

func TestLocate_Stage3_AlternateFields(t *testing.T) {

	s := newTestService(t)
	col, _ := s.Resolve("users")

	col.Insert(map[string]any{"slug": "hello-world", "name": "A"})
	col.Insert(map[string]any{"email": "a@example.com", "name": "B"})

	result, err := s.Locate(col, "hello-world")
	AssertNil(err)
	AssertEqual(result.Source.Stage, 3)
	AssertEqual(result.Source.Field, "slug")
	AssertEqual(result.Containers[0]["name"], "A")

	result, err = s.Locate(col, "a@example.com")
	AssertNil(err)
	AssertEqual(result.Source.Field, "email")
	AssertEqual(result.Containers[0]["name"], "B")
}

func TestLocate_Stage3_FieldPriority(t *testing.T) {

	s := newTestService(t)
	col, _ := s.Resolve("users")

	// same value in "slug" and "id": "id" has higher priority
	col.Insert(map[string]any{"slug": "x", "name": "by-slug"})
	col.Insert(map[string]any{"id": "x", "name": "by-id"})

	result, err := s.Locate(col, "x")
	AssertNil(err)
	AssertEqual(result.Source.Field, "id")
	AssertEqual(result.Containers[0]["name"], "by-id")
}

func TestLocate_Stage3_NumericCoercion(t *testing.T) {

	s := newTestService(t)
	col, _ := s.Resolve("users")

	col.Insert(map[string]any{"id": 42, "name": "A"})

	result, err := s.Locate(col, "42")
	AssertNil(err)
	AssertEqual(result.Source.Stage, 3)
	AssertEqual(result.Source.Field, "id")
	AssertEqual(result.Containers[0]["name"], "A")
}

func TestLocate_Stage4_NestedId(t *testing.T) {

	s := newTestService(t)
	col, _ := s.Resolve("orders")

	col.Insert(map[string]any{
		"name": "A",
		"lines": []any{
			map[string]any{"id": "line-7", "qty": 2},
			map[string]any{"id": "line-8", "qty": 1},
		},
	})
	col.Insert(map[string]any{"name": "B"})

	result, err := s.Locate(col, "line-7")
	AssertNil(err)
	AssertEqual(result.Source.Stage, 4)
	AssertEqual(len(result.Rows), 1)
	AssertEqual(len(result.Containers), 1)
	AssertEqual(result.Containers[0]["qty"], 2.0)
}

func TestLocate_Stage4_Id2DeepNesting(t *testing.T) {

	s := newTestService(t)
	col, _ := s.Resolve("orders")

	col.Insert(map[string]any{
		"name": "A",
		"meta": map[string]any{
			"refs": []any{
				map[string]any{"id2": 99, "kind": "legacy"},
			},
		},
	})

	result, err := s.Locate(col, "99")
	AssertNil(err)
	AssertEqual(result.Source.Stage, 4)
	AssertEqual(result.Containers[0]["kind"], "legacy")
}

func TestLocate_Stage4_BoundedScan(t *testing.T) {

	s := newTestService(t)
	s.MaxScan = 5
	col, _ := s.Resolve("orders")

	for i := 0; i < 10; i++ {
		col.Insert(map[string]any{"n": i})
	}
	// the needle sits beyond the scan bound
	col.Insert(map[string]any{
		"lines": []any{map[string]any{"id": "needle"}},
	})

	_, err := s.Locate(col, "needle")
	AssertTrue(errors.Is(err, ErrDocumentNotFound))
}

func TestLocate_NotFound(t *testing.T) {

	s := newTestService(t)
	col, _ := s.Resolve("users")

	col.Insert(map[string]any{"name": "A"})

	_, err := s.Locate(col, "missing")
	AssertTrue(errors.Is(err, ErrDocumentNotFound))
}

func TestLocate_MissingId(t *testing.T) {

	s := newTestService(t)
	col, _ := s.Resolve("users")

	_, err := s.Locate(col, "")
	AssertTrue(errors.Is(err, ErrMissingId))
}
