// Package matcher holds the qualified variants of one resource and picks the
// variant that best matches a runtime qualifier string.
package matcher

import (
	"slices"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/ZanzyTHEbar/resbundle/resbundle/common"
	"github.com/ZanzyTHEbar/resbundle/resbundle/qualifiers"
)

// QualifiedValue is one variant of a resource.
type QualifiedValue struct {
	// Qualifiers is the literal qualifier suffix, "" for the default variant.
	Qualifiers string
	Payload    any
	// Provenance names where the value came from. It is never used for
	// matching.
	Provenance string

	padded  string
	version int
}

// Padded returns the canonical padded qualifier string.
func (v QualifiedValue) Padded() string { return v.padded }

// Version returns the variant's platform version qualifier, if any.
func (v QualifiedValue) Version() (int, bool) { return v.version, v.version >= 0 }

// NewQualifiedValue validates qualifierString and builds a QualifiedValue.
func NewQualifiedValue(qualifierString string, payload any, provenance string) (QualifiedValue, error) {
	q, err := qualifiers.Parse(qualifierString)
	if err != nil {
		return QualifiedValue{}, err
	}
	version, ok := q.Version()
	if !ok {
		version = -1
	}
	return QualifiedValue{
		Qualifiers: qualifierString,
		Payload:    payload,
		Provenance: provenance,
		padded:     q.Padded(),
		version:    version,
	}, nil
}

// ValueSet is the ordered set of variants of one resource. It accepts adds
// until sealed; a sealed set is immutable and safe for concurrent reads.
type ValueSet struct {
	mu     sync.Mutex
	values []QualifiedValue
	seen   map[string]struct{}
	sealed atomic.Bool
}

// NewValueSet returns an empty, open ValueSet.
func NewValueSet() *ValueSet {
	return &ValueSet{seen: make(map[string]struct{})}
}

// Add appends a variant. It reports false without error when a variant with
// the same qualifier string, ignoring case, is already present; the first one
// stays.
func (vs *ValueSet) Add(qualifierString string, payload any, provenance string) (bool, error) {
	if vs.sealed.Load() {
		return false, common.ErrSealedTreeMutation
	}
	v, err := NewQualifiedValue(qualifierString, payload, provenance)
	if err != nil {
		return false, err
	}

	vs.mu.Lock()
	defer vs.mu.Unlock()

	if vs.sealed.Load() {
		return false, common.ErrSealedTreeMutation
	}
	if _, dup := vs.seen[v.padded]; dup {
		return false, nil
	}
	vs.seen[v.padded] = struct{}{}
	vs.values = append(vs.values, v)
	return true, nil
}

// Seal sorts the variants into canonical order and freezes the set. It is
// idempotent.
func (vs *ValueSet) Seal() {
	vs.mu.Lock()
	defer vs.mu.Unlock()
	if vs.sealed.Load() {
		return
	}
	sortCanonical(vs.values)
	vs.seen = nil
	vs.sealed.Store(true)
}

// Sealed reports whether Seal has run.
func (vs *ValueSet) Sealed() bool { return vs.sealed.Load() }

// Len returns the number of variants.
func (vs *ValueSet) Len() int {
	if vs.sealed.Load() {
		return len(vs.values)
	}
	vs.mu.Lock()
	defer vs.mu.Unlock()
	return len(vs.values)
}

// Values returns the variants in canonical order.
func (vs *ValueSet) Values() []QualifiedValue {
	if vs.sealed.Load() {
		return slices.Clone(vs.values)
	}
	vs.mu.Lock()
	out := slices.Clone(vs.values)
	vs.mu.Unlock()
	sortCanonical(out)
	return out
}

// Pick selects the variant best matching runtime. On a sealed set it reads
// without locking.
func (vs *ValueSet) Pick(runtime qualifiers.Qualifiers) (QualifiedValue, bool) {
	if vs.sealed.Load() {
		return Pick(vs.values, runtime)
	}
	return Pick(vs.Values(), runtime)
}

func sortCanonical(values []QualifiedValue) {
	slices.SortStableFunc(values, func(a, b QualifiedValue) int {
		return strings.Compare(a.padded, b.padded)
	})
}
