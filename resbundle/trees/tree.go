// Package trees holds resource trees: the per-source store of named,
// qualified resource values together with the source's name<->id index.
package trees

import (
	"fmt"
	"slices"
	"sync"
	"sync/atomic"

	internal "github.com/ZanzyTHEbar/resbundle/resbundle"
	"github.com/ZanzyTHEbar/resbundle/resbundle/common"
	"github.com/ZanzyTHEbar/resbundle/resbundle/matcher"
	"github.com/ZanzyTHEbar/resbundle/resbundle/qualifiers"
	"github.com/ZanzyTHEbar/resbundle/resbundle/resname"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Tree is the resource store of one source. It has a single writer while
// open; after Seal it is immutable and safe for any number of concurrent
// readers without locking.
type Tree struct {
	id        uuid.UUID
	source    string
	namespace string
	index     *Index

	mu     sync.Mutex
	values map[resname.Name]*matcher.ValueSet
	sealed atomic.Bool

	logger  zerolog.Logger
	metrics *MetricsCollector
}

type treeOptions struct {
	idBase    uint32
	hasIDBase bool
	logger    zerolog.Logger
}

// TreeOption configures NewTree.
type TreeOption func(*treeOptions)

// WithIDBase sets the first id handed out for names without an explicit id.
func WithIDBase(base uint32) TreeOption {
	return func(o *treeOptions) {
		o.idBase = base
		o.hasIDBase = true
	}
}

// WithLogger sets the tree's logger. The default discards everything.
func WithLogger(logger zerolog.Logger) TreeOption {
	return func(o *treeOptions) { o.logger = logger }
}

// NewTree creates an open tree for source holding names of namespace. Without
// WithIDBase, the platform namespace gets the platform id block and every
// other namespace the application block.
func NewTree(source, namespace string, opts ...TreeOption) *Tree {
	o := treeOptions{logger: zerolog.Nop()}
	for _, opt := range opts {
		opt(&o)
	}
	if !o.hasIDBase {
		o.idBase = internal.DefaultAppIDBase
		if namespace == internal.DefaultPlatformNamespace {
			o.idBase = internal.DefaultPlatformIDBase
		}
	}

	id := uuid.New()
	return &Tree{
		id:        id,
		source:    source,
		namespace: namespace,
		index:     NewIndex(source, o.idBase),
		values:    make(map[resname.Name]*matcher.ValueSet),
		logger: o.logger.With().
			Str("source", source).
			Str("namespace", namespace).
			Str("tree", id.String()).
			Logger(),
		metrics: NewMetricsCollector(),
	}
}

// Empty returns a sealed tree with no resources.
func Empty(namespace string) *Tree {
	t := NewTree("", namespace)
	t.Seal()
	return t
}

// ID is unique per tree instance.
func (t *Tree) ID() uuid.UUID { return t.id }

func (t *Tree) Source() string    { return t.source }
func (t *Tree) Namespace() string { return t.namespace }
func (t *Tree) Index() *Index     { return t.index }
func (t *Tree) Sealed() bool      { return t.sealed.Load() }

func (t *Tree) checkName(name resname.Name) error {
	if name.Namespace != t.namespace || name.Type == "" || name.Name == "" {
		return fmt.Errorf("%w: %s does not belong to namespace %q",
			common.ErrInvalidResourceName, name, t.namespace)
	}
	return nil
}

// valueSetLocked returns the set for name, creating it and registering the name
// in the index when create is set. Callers hold t.mu.
func (t *Tree) valueSetLocked(name resname.Name, create bool) (*matcher.ValueSet, error) {
	if vs, ok := t.values[name]; ok {
		return vs, nil
	}
	if !create {
		return nil, nil
	}
	if _, err := t.index.Assign(name); err != nil {
		return nil, err
	}
	vs := matcher.NewValueSet()
	t.values[name] = vs
	return vs, nil
}

// Put adds one variant of name. Names without an id get the next free id of
// the tree's block. A repeated qualifier string for the same name keeps the
// first value and logs a warning.
func (t *Tree) Put(name resname.Name, qualifierString string, payload any) error {
	if t.sealed.Load() {
		return common.ErrSealedTreeMutation
	}
	if err := t.checkName(name); err != nil {
		return err
	}
	if _, err := qualifiers.Parse(qualifierString); err != nil {
		return common.WrapError(err, "put %s", name)
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if t.sealed.Load() {
		return common.ErrSealedTreeMutation
	}

	vs, err := t.valueSetLocked(name, true)
	if err != nil {
		return common.WrapError(err, "put %s", name)
	}
	added, err := vs.Add(qualifierString, payload, t.source)
	if err != nil {
		return common.WrapError(err, "put %s", name)
	}
	t.metrics.recordPut(added)
	if !added {
		t.logger.Warn().
			Str("resource", name.String()).
			Str("qualifiers", qualifierString).
			Msg("Ignoring duplicate qualifier string, keeping the first value")
	}
	return nil
}

// Declare binds name to an explicit id, as loaders do when the source ships
// its own id table.
func (t *Tree) Declare(name resname.Name, id uint32) error {
	if t.sealed.Load() {
		return common.ErrSealedTreeMutation
	}
	if err := t.checkName(name); err != nil {
		return err
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.index.Bind(name, id); err != nil {
		return err
	}
	if _, ok := t.values[name]; !ok {
		t.values[name] = matcher.NewValueSet()
	}
	return nil
}

// Graft binds name to id and stores vs as its value set. vs must be sealed;
// it is shared, not copied. Derived trees are built this way.
func (t *Tree) Graft(name resname.Name, id uint32, vs *matcher.ValueSet) error {
	if t.sealed.Load() {
		return common.ErrSealedTreeMutation
	}
	if !vs.Sealed() {
		return common.WrapError(common.ErrTreeNotSealed, "graft %s", name)
	}
	if err := t.checkName(name); err != nil {
		return err
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.index.Bind(name, id); err != nil {
		return err
	}
	t.values[name] = vs
	return nil
}

// Seal sorts every value set into canonical order and freezes the tree and
// its index. It is idempotent.
func (t *Tree) Seal() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.sealed.Load() {
		return
	}
	for _, vs := range t.values {
		vs.Seal()
	}
	t.index.Freeze()
	t.sealed.Store(true)
	t.metrics.recordSeal()
	t.logger.Debug().Int("resources", len(t.values)).Msg("Sealed resource tree")
}

// Lookup returns the value set of name.
func (t *Tree) Lookup(name resname.Name) (*matcher.ValueSet, bool) {
	if t.sealed.Load() {
		vs, ok := t.values[name]
		return vs, ok
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	vs, ok := t.values[name]
	return vs, ok
}

// Resolve parses runtime and returns the best variant of name. An unknown
// name, or a name with no variants, is reported with ok == false and a nil
// error; only a malformed runtime string is an error.
func (t *Tree) Resolve(name resname.Name, runtime string) (matcher.QualifiedValue, bool, error) {
	rq, err := qualifiers.ParseRuntime(runtime)
	if err != nil {
		return matcher.QualifiedValue{}, false, err
	}
	v, ok := t.ResolveQualifiers(name, rq)
	return v, ok, nil
}

// ResolveQualifiers is Resolve with an already parsed runtime.
func (t *Tree) ResolveQualifiers(name resname.Name, runtime qualifiers.Qualifiers) (matcher.QualifiedValue, bool) {
	vs, ok := t.Lookup(name)
	if !ok {
		t.metrics.recordResolve(false)
		return matcher.QualifiedValue{}, false
	}
	v, ok := vs.Pick(runtime)
	t.metrics.recordResolve(ok)
	if ok {
		t.logger.Debug().
			Str("resource", name.String()).
			Str("runtime", runtime.String()).
			Str("picked", v.Qualifiers).
			Msg("Resolved resource")
	}
	return v, ok
}

// Names lists the names of one type in lexical order.
func (t *Tree) Names(typ string) []resname.Name {
	var out []resname.Name
	t.index.WalkType(t.namespace, typ, func(name resname.Name, _ uint32) bool {
		out = append(out, name)
		return true
	})
	return out
}

// Types lists the resource types present in the tree, sorted.
func (t *Tree) Types() []string {
	var out []string
	t.index.Walk(func(name resname.Name, _ uint32) bool {
		if len(out) == 0 || out[len(out)-1] != name.Type {
			out = append(out, name.Type)
		}
		return true
	})
	slices.Sort(out)
	return slices.Compact(out)
}

// Walk calls fn for every resource in lexical name order until fn returns
// false.
func (t *Tree) Walk(fn func(name resname.Name, id uint32, vs *matcher.ValueSet) bool) {
	type entry struct {
		name resname.Name
		id   uint32
	}
	var entries []entry
	t.index.Walk(func(name resname.Name, id uint32) bool {
		entries = append(entries, entry{name, id})
		return true
	})
	for _, e := range entries {
		vs, ok := t.Lookup(e.name)
		if !ok {
			continue
		}
		if !fn(e.name, e.id, vs) {
			return
		}
	}
}

// Len returns the number of named resources.
func (t *Tree) Len() int { return t.index.Len() }

// Metrics returns a snapshot of the tree's counters.
func (t *Tree) Metrics() TreeMetrics { return t.metrics.Snapshot(t.Len()) }
