package collection

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	jsonpatch "github.com/evanphx/json-patch"
	"github.com/google/uuid"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// PrimaryKeyField is the canonical document identifier. It is assigned by the
// store on insert when the caller does not provide one.
const PrimaryKeyField = "_id"

var (
	ErrDuplicateKey = errors.New("duplicate key")
	ErrClosed       = errors.New("collection is closed")
)

type Collection struct {
	filename  string
	file      *os.File
	Rows      []*Row
	rowsMutex *sync.Mutex
	Primary   *PrimaryIndex
}

type Row struct {
	I          int // position in Rows
	ID         string
	Payload    json.RawMessage
	PatchMutex sync.Mutex
}

// OpenCollection reads the whole command log and rebuilds the in-memory rows
// and the primary index. The file is created empty on first open.
func OpenCollection(filename string) (*Collection, error) {

	f, err := os.OpenFile(filename, os.O_RDONLY|os.O_CREATE, 0666)
	if err != nil {
		return nil, fmt.Errorf("open file for read: %w", err)
	}
	defer f.Close()

	c := &Collection{
		filename:  filename,
		Rows:      []*Row{},
		rowsMutex: &sync.Mutex{},
		Primary:   NewPrimaryIndex(),
	}

	j := json.NewDecoder(f)
	for {
		command := &Command{}
		err := j.Decode(&command)
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("decode command: %w", err)
		}

		switch command.Name {
		case "insert":
			_, err := c.addRow(command.Payload)
			if err != nil {
				fmt.Printf("WARNING: replay insert: %s\n", err.Error())
			}
		case "replace":
			params := struct {
				I       int
				Payload json.RawMessage
			}{}
			json.Unmarshal(command.Payload, &params)
			if params.I < len(c.Rows) {
				c.Rows[params.I].Payload = params.Payload
			}
		case "patch":
			params := struct {
				I    int
				Diff json.RawMessage
			}{}
			json.Unmarshal(command.Payload, &params)
			if params.I < len(c.Rows) {
				row := c.Rows[params.I]
				payload, err := jsonpatch.MergePatch(row.Payload, params.Diff)
				if err != nil {
					fmt.Printf("WARNING: replay patch %d: %s\n", params.I, err.Error())
					continue
				}
				row.Payload = payload
			}
		case "remove":
			params := struct {
				I int
			}{}
			json.Unmarshal(command.Payload, &params)
			if params.I < len(c.Rows) {
				err := c.removeByRow(c.Rows[params.I], false)
				if err != nil {
					fmt.Printf("WARNING: replay remove %d: %s\n", params.I, err.Error())
				}
			}
		}
	}

	c.file, err = os.OpenFile(filename, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0666)
	if err != nil {
		return nil, fmt.Errorf("open file for write: %w", err)
	}

	return c, nil
}

func (c *Collection) addRow(payload json.RawMessage) (*Row, error) {

	row := &Row{
		ID:      gjson.GetBytes(payload, PrimaryKeyField).String(),
		Payload: payload,
	}

	err := c.Primary.AddRow(row)
	if err != nil {
		return nil, err
	}

	c.rowsMutex.Lock()
	row.I = len(c.Rows)
	c.Rows = append(c.Rows, row)
	c.rowsMutex.Unlock()

	return row, nil
}

// Insert stores one document. A missing primary key is generated, a provided
// one must not collide with an existing row.
func (c *Collection) Insert(item interface{}) (*Row, error) {
	if c.file == nil {
		return nil, ErrClosed
	}

	payload, err := json.Marshal(item)
	if err != nil {
		return nil, fmt.Errorf("json encode payload: %w", err)
	}

	if !gjson.GetBytes(payload, PrimaryKeyField).Exists() {
		payload, err = sjson.SetBytes(payload, PrimaryKeyField, uuid.NewString())
		if err != nil {
			return nil, fmt.Errorf("set primary key: %w", err)
		}
	}

	row, err := c.addRow(payload)
	if err != nil {
		return nil, err
	}

	err = c.persist("insert", payload)
	if err != nil {
		return nil, err
	}

	return row, nil
}

// FindByID resolves a row by the exact primary key value.
func (c *Collection) FindByID(id string) (*Row, bool) {
	return c.Primary.Get(id)
}

// Replace swaps the whole payload of a row. The primary key is kept, whatever
// the new document says.
func (c *Collection) Replace(row *Row, item interface{}) error {
	if c.file == nil {
		return ErrClosed
	}

	payload, err := json.Marshal(item)
	if err != nil {
		return fmt.Errorf("json encode payload: %w", err)
	}
	payload, err = sjson.SetBytes(payload, PrimaryKeyField, row.ID)
	if err != nil {
		return fmt.Errorf("set primary key: %w", err)
	}

	row.PatchMutex.Lock()
	row.Payload = payload
	row.PatchMutex.Unlock()

	command, err := json.Marshal(map[string]interface{}{
		"i":       row.I,
		"payload": json.RawMessage(payload),
	})
	if err != nil {
		return err
	}

	return c.persist("replace", command)
}

// Patch merges fields into a row. Fields absent from the patch are untouched,
// null fields are removed (JSON merge patch semantics).
func (c *Collection) Patch(row *Row, patch interface{}) error {
	if c.file == nil {
		return ErrClosed
	}

	patchBytes, err := json.Marshal(patch)
	if err != nil {
		return fmt.Errorf("marshal patch: %w", err)
	}

	row.PatchMutex.Lock()
	defer row.PatchMutex.Unlock()

	newPayload, err := jsonpatch.MergePatch(row.Payload, patchBytes)
	if err != nil {
		return fmt.Errorf("cannot apply patch: %w", err)
	}
	newPayload, err = sjson.SetBytes(newPayload, PrimaryKeyField, row.ID)
	if err != nil {
		return fmt.Errorf("set primary key: %w", err)
	}

	diff, err := jsonpatch.CreateMergePatch(row.Payload, newPayload)
	if err != nil {
		return fmt.Errorf("cannot diff: %w", err)
	}

	row.Payload = newPayload

	command, err := json.Marshal(map[string]interface{}{
		"i":    row.I,
		"diff": json.RawMessage(diff),
	})
	if err != nil {
		return err
	}

	return c.persist("patch", command)
}

func (c *Collection) Remove(row *Row) error {
	return c.removeByRow(row, true)
}

func (c *Collection) removeByRow(row *Row, persist bool) error {

	var i int
	err := func() error {
		c.rowsMutex.Lock()
		defer c.rowsMutex.Unlock()

		i = row.I
		if len(c.Rows) <= i || c.Rows[i] != row {
			return fmt.Errorf("row %d does not exist", i)
		}

		c.Primary.RemoveRow(row)

		last := len(c.Rows) - 1
		c.Rows[i] = c.Rows[last]
		c.Rows[i].I = i
		c.Rows = c.Rows[:last]
		return nil
	}()
	if err != nil {
		return err
	}

	if !persist {
		return nil
	}

	command, err := json.Marshal(map[string]interface{}{
		"i": i,
	})
	if err != nil {
		return err
	}

	return c.persist("remove", command)
}

func (c *Collection) persist(name string, payload json.RawMessage) error {

	command := &Command{
		Name:      name,
		Uuid:      uuid.New().String(),
		Timestamp: time.Now().UnixNano(),
		Payload:   payload,
	}

	err := json.NewEncoder(c.file).Encode(command)
	if err != nil {
		return fmt.Errorf("json encode command: %w", err)
	}

	return nil
}

// Traverse visits rows in insertion order until f returns false.
func (c *Collection) Traverse(f func(row *Row) bool) {
	for _, row := range c.Rows {
		if !f(row) {
			break
		}
	}
}

func (c *Collection) Len() int {
	c.rowsMutex.Lock()
	defer c.rowsMutex.Unlock()
	return len(c.Rows)
}

func (c *Collection) Close() error {
	if c.file == nil {
		return nil
	}
	err := c.file.Close()
	c.file = nil
	return err
}

func (c *Collection) Drop() error {
	err := c.Close()
	if err != nil {
		return fmt.Errorf("close: %w", err)
	}

	err = os.Remove(c.filename)
	if err != nil {
		return fmt.Errorf("remove: %w", err)
	}

	return nil
}
