// Package indexing merges the name<->id indices of several resource sources
// into one combined index and synthesizes ids for platform names that no
// source declared.
package indexing

import (
	"sync"

	"github.com/ZanzyTHEbar/resbundle/resbundle/common"
	"github.com/ZanzyTHEbar/resbundle/resbundle/resname"
	"github.com/ZanzyTHEbar/resbundle/resbundle/trees"

	roaring "github.com/RoaringBitmap/roaring"
	"github.com/rs/zerolog"
)

// MergedIndex is the union of several source indices. It is read-mostly:
// only ResolveOrSynthesize writes, and every access goes through one mutex
// owned by the value.
type MergedIndex struct {
	platformNamespace string
	logger            zerolog.Logger

	mu          sync.RWMutex
	byName      map[resname.Name]uint32
	byID        map[uint32]resname.Name
	origins     map[uint32]string
	used        *roaring.Bitmap
	maxSeen     uint32
	synthesized int
}

// Option configures Merge.
type Option func(*MergedIndex)

// WithLogger sets the logger synthesized ids are reported to.
func WithLogger(logger zerolog.Logger) Option {
	return func(m *MergedIndex) { m.logger = logger }
}

// SyntheticSource is the origin recorded for synthesized ids.
const SyntheticSource = "<synthesized>"

// Merge builds the union of indices. Every index must be frozen. If two
// indices bind one name to different ids, or one id to different names,
// Merge returns a *common.CollisionError naming both sources and no index.
func Merge(platformNamespace string, indices []*trees.Index, opts ...Option) (*MergedIndex, error) {
	m := &MergedIndex{
		platformNamespace: platformNamespace,
		logger:            zerolog.Nop(),
		byName:            make(map[resname.Name]uint32),
		byID:              make(map[uint32]resname.Name),
		origins:           make(map[uint32]string),
		used:              roaring.New(),
	}
	for _, opt := range opts {
		opt(m)
	}

	for _, idx := range indices {
		if !idx.Frozen() {
			return nil, common.WrapError(common.ErrTreeNotSealed, "merge index of %s", idx.Source())
		}
		var err error
		idx.Walk(func(name resname.Name, id uint32) bool {
			err = m.add(name, id, idx.Source())
			return err == nil
		})
		if err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *MergedIndex) add(name resname.Name, id uint32, source string) error {
	if existing, ok := m.byName[name]; ok {
		if existing == id {
			return nil
		}
		return &common.CollisionError{
			Name: name.String(), ID: id, ExistingID: existing,
			Source: source, ExistingSource: m.origins[existing],
		}
	}
	if other, ok := m.byID[id]; ok {
		return &common.CollisionError{
			Name: name.String(), ID: id, ExistingName: other.String(), ExistingID: id,
			Source: source, ExistingSource: m.origins[id],
		}
	}
	m.record(name, id, source)
	return nil
}

func (m *MergedIndex) record(name resname.Name, id uint32, source string) {
	m.byName[name] = id
	m.byID[id] = name
	m.origins[id] = source
	m.used.Add(id)
	if id > m.maxSeen {
		m.maxSeen = id
	}
}

// ID returns the id of name without synthesizing.
func (m *MergedIndex) ID(name resname.Name) (uint32, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	id, ok := m.byName[name]
	return id, ok
}

// Name returns the name bound to id.
func (m *MergedIndex) Name(id uint32) (resname.Name, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n, ok := m.byID[id]
	return n, ok
}

// Origin returns the source that contributed id.
func (m *MergedIndex) Origin(id uint32) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.origins[id]
	return s, ok
}

// ResolveOrSynthesize returns the id of name. An unknown name of the
// platform namespace gets a fresh id above every id seen so far, recorded in
// both directions so later calls agree. Unknown names of other namespaces
// report false, as does a platform name once no id above the largest bound
// id is left.
func (m *MergedIndex) ResolveOrSynthesize(name resname.Name) (uint32, bool) {
	m.mu.RLock()
	id, ok := m.byName[name]
	m.mu.RUnlock()
	if ok {
		return id, true
	}
	if name.Namespace != m.platformNamespace {
		return 0, false
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if id, ok := m.byName[name]; ok {
		return id, true
	}
	id = m.maxSeen + 1
	for id != 0 && m.used.Contains(id) {
		id++
	}
	if id == 0 {
		m.logger.Error().
			Str("resource", name.String()).
			Msg("Resource id space exhausted, cannot synthesize id")
		return 0, false
	}
	m.record(name, id, SyntheticSource)
	m.synthesized++

	m.logger.Info().
		Str("resource", name.String()).
		Uint32("id", id).
		Msg("Synthesized id for undeclared platform resource")
	return id, true
}

// Len returns the number of bindings, synthesized ones included.
func (m *MergedIndex) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.byName)
}

// MaxID returns the largest bound id.
func (m *MergedIndex) MaxID() uint32 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.maxSeen
}

// Synthesized returns how many ids ResolveOrSynthesize has created.
func (m *MergedIndex) Synthesized() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.synthesized
}

// PlatformNamespace returns the namespace that gets synthesized ids.
func (m *MergedIndex) PlatformNamespace() string { return m.platformNamespace }

// Walk calls fn for every binding in ascending id order until fn returns
// false. fn runs on a snapshot and may call back into m.
func (m *MergedIndex) Walk(fn func(id uint32, name resname.Name, origin string) bool) {
	type binding struct {
		id     uint32
		name   resname.Name
		origin string
	}
	m.mu.RLock()
	bindings := make([]binding, 0, len(m.byID))
	it := m.used.Iterator()
	for it.HasNext() {
		id := it.Next()
		bindings = append(bindings, binding{id, m.byID[id], m.origins[id]})
	}
	m.mu.RUnlock()

	for _, b := range bindings {
		if !fn(b.id, b.name, b.origin) {
			return
		}
	}
}
