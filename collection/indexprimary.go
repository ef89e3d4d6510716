package collection

import (
	"sync"

	"github.com/google/btree"
)

// PrimaryIndex keeps every row ordered by its primary key. Lookups by key and
// ordered traversals share the same tree.
type PrimaryIndex struct {
	btree  *btree.BTreeG[*Row]
	rwlock *sync.RWMutex
}

func NewPrimaryIndex() *PrimaryIndex {
	return &PrimaryIndex{
		btree: btree.NewG(32, func(a, b *Row) bool {
			return a.ID < b.ID
		}),
		rwlock: &sync.RWMutex{},
	}
}

func (p *PrimaryIndex) AddRow(row *Row) error {

	p.rwlock.Lock()
	defer p.rwlock.Unlock()

	if _, exists := p.btree.Get(row); exists {
		return ErrDuplicateKey
	}
	p.btree.ReplaceOrInsert(row)

	return nil
}

func (p *PrimaryIndex) RemoveRow(row *Row) {
	p.rwlock.Lock()
	p.btree.Delete(row)
	p.rwlock.Unlock()
}

func (p *PrimaryIndex) Get(id string) (*Row, bool) {
	p.rwlock.RLock()
	defer p.rwlock.RUnlock()

	return p.btree.Get(&Row{ID: id})
}

// Ascend visits rows in primary key order until f returns false.
func (p *PrimaryIndex) Ascend(f func(row *Row) bool) {
	p.rwlock.RLock()
	defer p.rwlock.RUnlock()

	p.btree.Ascend(func(row *Row) bool {
		return f(row)
	})
}

func (p *PrimaryIndex) Len() int {
	p.rwlock.RLock()
	defer p.rwlock.RUnlock()

	return p.btree.Len()
}
