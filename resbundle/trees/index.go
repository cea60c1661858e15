package trees

import (
	"sync"
	"sync/atomic"

	"github.com/ZanzyTHEbar/resbundle/resbundle/common"
	"github.com/ZanzyTHEbar/resbundle/resbundle/resname"

	"github.com/armon/go-radix"
)

type indexEntry struct {
	name resname.Name
	id   uint32
}

// Index is the bijective name<->id mapping of one resource source. Names are
// kept in a radix tree keyed by their canonical form, so walks come out in
// lexical order and per-type walks are prefix walks.
//
// An Index is mutable until Freeze; afterwards reads take no locks.
type Index struct {
	source string
	mu     sync.RWMutex
	names  *radix.Tree
	byID   map[uint32]resname.Name
	nextID uint32
	maxID  uint32
	frozen atomic.Bool
}

// NewIndex creates an empty index for source. Assigned ids start at idBase.
func NewIndex(source string, idBase uint32) *Index {
	return &Index{
		source: source,
		names:  radix.New(),
		byID:   make(map[uint32]resname.Name),
		nextID: idBase,
	}
}

// Source returns the identity of the source this index belongs to.
func (idx *Index) Source() string { return idx.source }

func (idx *Index) readLock() func() {
	if idx.frozen.Load() {
		return func() {}
	}
	idx.mu.RLock()
	return idx.mu.RUnlock
}

// Bind records name<->id. Re-binding the same pair is a no-op; binding a
// bound name to another id, or a bound id to another name, fails with a
// *common.CollisionError and changes nothing.
func (idx *Index) Bind(name resname.Name, id uint32) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	if idx.frozen.Load() {
		return common.ErrSealedTreeMutation
	}
	return idx.bindLocked(name, id)
}

func (idx *Index) bindLocked(name resname.Name, id uint32) error {
	key := name.String()
	if v, ok := idx.names.Get(key); ok {
		existing := v.(indexEntry)
		if existing.id == id {
			return nil
		}
		return &common.CollisionError{
			Name: key, ID: id, ExistingID: existing.id,
			Source: idx.source, ExistingSource: idx.source,
		}
	}
	if other, ok := idx.byID[id]; ok {
		return &common.CollisionError{
			Name: key, ID: id, ExistingName: other.String(), ExistingID: id,
			Source: idx.source, ExistingSource: idx.source,
		}
	}

	idx.names.Insert(key, indexEntry{name: name, id: id})
	idx.byID[id] = name
	if id > idx.maxID {
		idx.maxID = id
	}
	return nil
}

// Assign returns the id bound to name, binding the next free id first when
// the name is new.
func (idx *Index) Assign(name resname.Name) (uint32, error) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	if v, ok := idx.names.Get(name.String()); ok {
		return v.(indexEntry).id, nil
	}
	if idx.frozen.Load() {
		return 0, common.ErrSealedTreeMutation
	}
	for {
		if _, used := idx.byID[idx.nextID]; !used {
			break
		}
		idx.nextID++
	}
	id := idx.nextID
	idx.nextID++
	return id, idx.bindLocked(name, id)
}

// ID returns the id bound to name.
func (idx *Index) ID(name resname.Name) (uint32, bool) {
	defer idx.readLock()()
	v, ok := idx.names.Get(name.String())
	if !ok {
		return 0, false
	}
	return v.(indexEntry).id, true
}

// Name returns the name bound to id.
func (idx *Index) Name(id uint32) (resname.Name, bool) {
	defer idx.readLock()()
	n, ok := idx.byID[id]
	return n, ok
}

// Len returns the number of bindings.
func (idx *Index) Len() int {
	defer idx.readLock()()
	return idx.names.Len()
}

// MaxID returns the largest bound id, or 0 for an empty index.
func (idx *Index) MaxID() uint32 {
	defer idx.readLock()()
	return idx.maxID
}

// Walk calls fn for every binding in lexical name order until fn returns
// false.
func (idx *Index) Walk(fn func(name resname.Name, id uint32) bool) {
	defer idx.readLock()()
	idx.names.Walk(func(_ string, v interface{}) bool {
		e := v.(indexEntry)
		return !fn(e.name, e.id)
	})
}

// WalkType is Walk restricted to one namespace and type.
func (idx *Index) WalkType(namespace, typ string, fn func(name resname.Name, id uint32) bool) {
	defer idx.readLock()()
	idx.names.WalkPrefix(resname.TypePrefix(namespace, typ), func(_ string, v interface{}) bool {
		e := v.(indexEntry)
		return !fn(e.name, e.id)
	})
}

// Freeze makes the index read-only. It is idempotent.
func (idx *Index) Freeze() {
	idx.mu.Lock()
	idx.frozen.Store(true)
	idx.mu.Unlock()
}

// Frozen reports whether Freeze has run.
func (idx *Index) Frozen() bool { return idx.frozen.Load() }
