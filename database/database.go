package database

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/docbridge/docbridge/collection"
)

const (
	StatusOpening   = "opening"
	StatusOperating = "operating"
	StatusClosing   = "closing"
)

// ReservedPrefix marks internal collections that are never exposed through
// the HTTP surface.
const ReservedPrefix = "system"

var ErrUnavailable = errors.New("database unavailable")

type Config struct {
	Dir string

	// HandleTTL expires cached collection handles, forcing a reopen on the
	// next access. Zero disables expiry.
	HandleTTL time.Duration
}

type handle struct {
	col      *collection.Collection
	openedAt time.Time
}

type Database struct {
	config  *Config
	status  string
	handles map[string]*handle
	mutex   sync.RWMutex
	exit    chan struct{}
}

func NewDatabase(config *Config) *Database {
	return &Database{
		config:  config,
		status:  StatusOpening,
		handles: map[string]*handle{},
		exit:    make(chan struct{}),
	}
}

func (db *Database) GetStatus() string {
	db.mutex.RLock()
	defer db.mutex.RUnlock()
	return db.status
}

func (db *Database) setStatus(status string) {
	db.mutex.Lock()
	db.status = status
	db.mutex.Unlock()
}

// GetOrCreate returns the cached handle for a name, opening the collection on
// first use. Concurrent first-use converges on one handle: creation is
// re-checked under the write lock so repeated attempts never error on
// "already exists".
func (db *Database) GetOrCreate(name string) (*collection.Collection, error) {

	db.mutex.RLock()
	h, exists := db.handles[name]
	status := db.status
	db.mutex.RUnlock()

	if status != StatusOperating {
		return nil, fmt.Errorf("%w: %s", ErrUnavailable, status)
	}

	if exists && !db.expired(h) {
		return h.col, nil
	}

	db.mutex.Lock()
	defer db.mutex.Unlock()

	h, exists = db.handles[name]
	if exists {
		if !db.expired(h) {
			return h.col, nil
		}
		h.col.Close()
		delete(db.handles, name)
	}

	col, err := collection.OpenCollection(path.Join(db.config.Dir, name))
	if err != nil {
		return nil, fmt.Errorf("open collection '%s': %w", name, err)
	}

	db.handles[name] = &handle{col: col, openedAt: time.Now()}

	return col, nil
}

func (db *Database) expired(h *handle) bool {
	if db.config.HandleTTL <= 0 {
		return false
	}
	return time.Since(h.openedAt) > db.config.HandleTTL
}

// ListNames enumerates the externally visible collection names, excluding the
// reserved ones.
func (db *Database) ListNames() []string {

	db.mutex.RLock()
	defer db.mutex.RUnlock()

	names := []string{}
	for name := range db.handles {
		if strings.HasPrefix(name, ReservedPrefix) {
			continue
		}
		names = append(names, name)
	}

	return names
}

// Drop closes and removes a collection and its file.
func (db *Database) Drop(name string) error {

	db.mutex.Lock()
	defer db.mutex.Unlock()

	h, exists := db.handles[name]
	if !exists {
		return fmt.Errorf("collection '%s' not found", name)
	}

	delete(db.handles, name)

	return h.col.Drop()
}

// Load opens every collection found in the data directory. Requests arriving
// before it finishes are rejected with ErrUnavailable instead of racing their
// own connection attempts.
func (db *Database) Load() error {

	dir := db.config.Dir
	err := os.MkdirAll(dir, 0755)
	if err != nil {
		db.setStatus(StatusClosing)
		return err
	}

	err = filepath.WalkDir(dir, func(filename string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}

		name := filename
		name = strings.TrimPrefix(name, dir)
		name = strings.TrimPrefix(name, "/")

		t0 := time.Now()
		col, err := collection.OpenCollection(filename)
		if err != nil {
			fmt.Printf("ERROR: open collection '%s': %s\n", filename, err.Error())
			return err
		}
		fmt.Println(name, col.Len(), time.Since(t0))

		db.mutex.Lock()
		db.handles[name] = &handle{col: col, openedAt: time.Now()}
		db.mutex.Unlock()

		return nil
	})

	if err != nil {
		db.setStatus(StatusClosing)
		return err
	}

	db.setStatus(StatusOperating)

	return nil
}

func (db *Database) Start() error {

	go db.Load()

	<-db.exit

	return nil
}

func (db *Database) Stop() error {

	defer close(db.exit)

	db.setStatus(StatusClosing)

	db.mutex.Lock()
	defer db.mutex.Unlock()

	var lastErr error
	for name, h := range db.handles {
		err := h.col.Close()
		if err != nil {
			fmt.Printf("ERROR: close(%s): %s\n", name, err.Error())
			lastErr = err
		}
	}

	return lastErr
}
