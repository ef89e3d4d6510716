package collection

import (
	"sync"
	"testing"

	. "github.com/fulldump/biff"
	"github.com/google/uuid"
	"github.com/tidwall/gjson"
)

func TestInsert_AssignsPrimaryKey(t *testing.T) {
	Environment(func(filename string) {

		c, _ := OpenCollection(filename)
		defer c.Close()

		row, err := c.Insert(map[string]interface{}{"name": "A"})

		AssertNil(err)
		AssertNotEqual(row.ID, "")

		_, parseErr := uuid.Parse(row.ID)
		AssertNil(parseErr)
		AssertEqual(gjson.GetBytes(row.Payload, PrimaryKeyField).String(), row.ID)
	})
}

func TestInsert_KeepsProvidedPrimaryKey(t *testing.T) {
	Environment(func(filename string) {

		c, _ := OpenCollection(filename)
		defer c.Close()

		row, err := c.Insert(map[string]interface{}{"_id": "custom-key", "name": "A"})

		AssertNil(err)
		AssertEqual(row.ID, "custom-key")

		found, exists := c.FindByID("custom-key")
		AssertTrue(exists)
		AssertEqual(found, row)
	})
}

func TestInsert_DuplicateKey(t *testing.T) {
	Environment(func(filename string) {

		c, _ := OpenCollection(filename)
		defer c.Close()

		_, err := c.Insert(map[string]interface{}{"_id": "k"})
		AssertNil(err)

		_, err = c.Insert(map[string]interface{}{"_id": "k"})
		AssertEqual(err, ErrDuplicateKey)
		AssertEqual(c.Len(), 1)
	})
}

func TestInsert_Concurrency(t *testing.T) {
	Environment(func(filename string) {

		c, _ := OpenCollection(filename)
		defer c.Close()

		n := 100

		wg := &sync.WaitGroup{}
		for i := 0; i < n; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				c.Insert(map[string]interface{}{"hello": "world"})
			}()
		}

		wg.Wait()

		AssertEqual(c.Len(), n)
		AssertEqual(c.Primary.Len(), n)
	})
}

func TestPatch_MergesFields(t *testing.T) {
	Environment(func(filename string) {

		c, _ := OpenCollection(filename)
		defer c.Close()

		row, _ := c.Insert(map[string]interface{}{"_id": "k", "name": "A", "age": 30})

		err := c.Patch(row, map[string]interface{}{"age": 31})
		AssertNil(err)

		AssertEqual(gjson.GetBytes(row.Payload, "name").String(), "A")
		AssertEqual(gjson.GetBytes(row.Payload, "age").Int(), int64(31))
		AssertEqual(row.ID, "k")
	})
}

func TestReplace_KeepsPrimaryKey(t *testing.T) {
	Environment(func(filename string) {

		c, _ := OpenCollection(filename)
		defer c.Close()

		row, _ := c.Insert(map[string]interface{}{"_id": "k", "name": "A", "age": 30})

		err := c.Replace(row, map[string]interface{}{"name": "B"})
		AssertNil(err)

		AssertEqual(gjson.GetBytes(row.Payload, "name").String(), "B")
		AssertFalse(gjson.GetBytes(row.Payload, "age").Exists())
		AssertEqual(gjson.GetBytes(row.Payload, PrimaryKeyField).String(), "k")
	})
}

func TestRemove(t *testing.T) {
	Environment(func(filename string) {

		c, _ := OpenCollection(filename)
		defer c.Close()

		row, _ := c.Insert(map[string]interface{}{"_id": "k"})

		err := c.Remove(row)
		AssertNil(err)
		AssertEqual(c.Len(), 0)

		_, exists := c.FindByID("k")
		AssertFalse(exists)
	})
}

func TestReopen_ReplaysCommands(t *testing.T) {
	Environment(func(filename string) {

		c, _ := OpenCollection(filename)
		a, _ := c.Insert(map[string]interface{}{"_id": "a", "n": 1})
		b, _ := c.Insert(map[string]interface{}{"_id": "b", "n": 2})
		c.Insert(map[string]interface{}{"_id": "c", "n": 3})
		c.Patch(a, map[string]interface{}{"n": 10})
		c.Remove(b)
		c.Close()

		reopened, err := OpenCollection(filename)
		AssertNil(err)
		defer reopened.Close()

		AssertEqual(reopened.Len(), 2)

		found, exists := reopened.FindByID("a")
		AssertTrue(exists)
		AssertEqual(gjson.GetBytes(found.Payload, "n").Int(), int64(10))

		_, exists = reopened.FindByID("b")
		AssertFalse(exists)

		_, exists = reopened.FindByID("c")
		AssertTrue(exists)
	})
}
