package collection

import (
	"testing"

	. "github.com/fulldump/biff"
)

func populate(c *Collection) {
	c.Insert(map[string]interface{}{"_id": "1", "name": "ada", "age": 36.0, "active": true, "created": 3.0})
	c.Insert(map[string]interface{}{"_id": "2", "name": "bob", "age": 25.0, "active": false, "created": 1.0})
	c.Insert(map[string]interface{}{"_id": "3", "name": "eve", "age": 25.0, "active": true, "created": 3.0})
	c.Insert(map[string]interface{}{"_id": "4", "name": "zoe", "age": 51.0, "created": 2.0})
}

func TestFind_EqualityFilter(t *testing.T) {
	Environment(func(filename string) {

		c, _ := OpenCollection(filename)
		defer c.Close()
		populate(c)

		items, total, err := c.Find(FindOptions{
			Filter: map[string]interface{}{"name": "bob"},
		})

		AssertNil(err)
		AssertEqual(total, 1)
		AssertEqual(items[0]["_id"], "2")
	})
}

func TestFind_OperatorFilter(t *testing.T) {
	Environment(func(filename string) {

		c, _ := OpenCollection(filename)
		defer c.Close()
		populate(c)

		items, total, err := c.Find(FindOptions{
			Filter: map[string]interface{}{
				"age": map[string]interface{}{"$gte": 30.0},
			},
			Sort: []string{"age"},
		})

		AssertNil(err)
		AssertEqual(total, 2)
		AssertEqual(items[0]["name"], "ada")
		AssertEqual(items[1]["name"], "zoe")
	})
}

func TestFind_ExistsFilter(t *testing.T) {
	Environment(func(filename string) {

		c, _ := OpenCollection(filename)
		defer c.Close()
		populate(c)

		_, total, err := c.Find(FindOptions{
			Filter: map[string]interface{}{
				"active": map[string]interface{}{"$exists": false},
			},
		})

		AssertNil(err)
		AssertEqual(total, 1)

		_, total, err = c.Find(FindOptions{
			Filter: map[string]interface{}{
				"active": map[string]interface{}{"$exists": true},
			},
		})

		AssertNil(err)
		AssertEqual(total, 3)
	})
}

func TestFind_SortDescendingWithTieBreak(t *testing.T) {
	Environment(func(filename string) {

		c, _ := OpenCollection(filename)
		defer c.Close()
		populate(c)

		items, _, err := c.Find(FindOptions{
			Sort: []string{"-created", "name"},
		})

		AssertNil(err)
		names := []string{}
		for _, item := range items {
			names = append(names, item["name"].(string))
		}
		AssertEqual(names, []string{"ada", "eve", "zoe", "bob"})
	})
}

func TestFind_Pagination(t *testing.T) {
	Environment(func(filename string) {

		c, _ := OpenCollection(filename)
		defer c.Close()
		populate(c)

		items, total, err := c.Find(FindOptions{
			Sort:  []string{"name"},
			Skip:  1,
			Limit: 2,
		})

		AssertNil(err)
		AssertEqual(total, 4)
		AssertEqual(len(items), 2)
		AssertEqual(items[0]["name"], "bob")
		AssertEqual(items[1]["name"], "eve")
	})
}

func TestFind_SkipBeyondEnd(t *testing.T) {
	Environment(func(filename string) {

		c, _ := OpenCollection(filename)
		defer c.Close()
		populate(c)

		items, total, err := c.Find(FindOptions{Skip: 100})

		AssertNil(err)
		AssertEqual(total, 4)
		AssertEqual(len(items), 0)
	})
}

func TestFind_Projection(t *testing.T) {
	Environment(func(filename string) {

		c, _ := OpenCollection(filename)
		defer c.Close()
		populate(c)

		items, _, err := c.Find(FindOptions{
			Filter:     map[string]interface{}{"name": "ada"},
			Projection: []string{"name"},
		})

		AssertNil(err)
		AssertEqual(items[0], map[string]interface{}{
			"_id":  "1",
			"name": "ada",
		})
	})
}

func TestCount(t *testing.T) {
	Environment(func(filename string) {

		c, _ := OpenCollection(filename)
		defer c.Close()
		populate(c)

		total, err := c.Count(map[string]interface{}{"active": true})

		AssertNil(err)
		AssertEqual(total, 2)
	})
}

func TestDistinct(t *testing.T) {
	Environment(func(filename string) {

		c, _ := OpenCollection(filename)
		defer c.Close()
		populate(c)

		values, err := c.Distinct("age", nil)

		AssertNil(err)
		AssertEqual(values, []interface{}{36.0, 25.0, 51.0})
	})
}

func TestFindRows(t *testing.T) {
	Environment(func(filename string) {

		c, _ := OpenCollection(filename)
		defer c.Close()
		populate(c)

		rows, err := c.FindRows(map[string]interface{}{"created": 3.0})

		AssertNil(err)
		AssertEqual(len(rows), 2)
	})
}
