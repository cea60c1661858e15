// Package registry caches resource trees by source and memoizes merged
// indices. A Registry is an explicit value owned by the caller; nothing in
// this package is process-global.
package registry

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"

	internal "github.com/ZanzyTHEbar/resbundle/resbundle"
	"github.com/ZanzyTHEbar/resbundle/resbundle/common"
	"github.com/ZanzyTHEbar/resbundle/resbundle/config"
	"github.com/ZanzyTHEbar/resbundle/resbundle/indexing"
	"github.com/ZanzyTHEbar/resbundle/resbundle/trees"

	"github.com/rs/zerolog"
	"github.com/sourcegraph/conc/pool"
)

// FillFunc populates an open tree. The registry seals the tree when it
// returns nil.
type FillFunc func(tree *trees.Tree) error

// Source describes one tree for LoadAll.
type Source struct {
	ID        string
	Namespace string
	Fill      FillFunc
	// Options apply when the tree is created, after the registry defaults.
	Options []trees.TreeOption
}

// Stats reports cache activity.
type Stats struct {
	Trees  int
	Merges int
	Hits   int64
	Misses int64
}

type entry struct {
	tree    *trees.Tree
	claimed bool
	done    chan struct{}
	err     error
}

// Registry is a cache of resource trees keyed by source identity.
type Registry struct {
	platformNamespace string
	appIDBase         uint32
	platformIDBase    uint32
	concurrency       int
	logger            zerolog.Logger

	mu      sync.Mutex
	entries map[string]*entry
	blocks  map[string]uint32

	mergeMu sync.Mutex
	merges  map[string]*indexing.MergedIndex

	hits   atomic.Int64
	misses atomic.Int64
}

// Option configures New.
type Option func(*Registry)

// WithLogger sets the registry's logger; trees it opens inherit it.
func WithLogger(logger zerolog.Logger) Option {
	return func(r *Registry) { r.logger = logger }
}

// WithConcurrency bounds how many fills LoadAll runs at once.
func WithConcurrency(n int) Option {
	return func(r *Registry) {
		if n > 0 {
			r.concurrency = n
		}
	}
}

// WithEngineConfig applies the engine section of the configuration.
func WithEngineConfig(cfg config.EngineConfig) Option {
	return func(r *Registry) {
		if cfg.PlatformNamespace != "" {
			r.platformNamespace = cfg.PlatformNamespace
		}
		if cfg.AppIDBase != 0 {
			r.appIDBase = cfg.AppIDBase
		}
		if cfg.PlatformIDBase != 0 {
			r.platformIDBase = cfg.PlatformIDBase
		}
		if cfg.LoadConcurrency > 0 {
			r.concurrency = cfg.LoadConcurrency
		}
	}
}

// New creates an empty registry.
func New(opts ...Option) *Registry {
	r := &Registry{
		platformNamespace: internal.DefaultPlatformNamespace,
		appIDBase:         internal.DefaultAppIDBase,
		platformIDBase:    internal.DefaultPlatformIDBase,
		concurrency:       internal.DefaultLoadConcurrency,
		logger:            zerolog.Nop(),
		entries:           make(map[string]*entry),
		blocks:            make(map[string]uint32),
		merges:            make(map[string]*indexing.MergedIndex),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// PlatformNamespace returns the namespace whose trees get platform ids.
func (r *Registry) PlatformNamespace() string { return r.platformNamespace }

// Logger returns the registry's logger.
func (r *Registry) Logger() zerolog.Logger { return r.logger }

// idBaseLocked returns the id base of source. Platform sources share the
// platform base; every other source reserves the next free app block on first
// use, so trees routed side by side never auto-assign the same ids. Callers
// hold r.mu.
func (r *Registry) idBaseLocked(source, namespace string) uint32 {
	if namespace == r.platformNamespace {
		return r.platformIDBase
	}
	if base, ok := r.blocks[source]; ok {
		return base
	}
	base := r.appIDBase + uint32(len(r.blocks))*internal.DefaultIDBlockSize
	r.blocks[source] = base
	return base
}

// newTree creates the tree of source. Callers hold r.mu.
func (r *Registry) newTree(source, namespace string, opts []trees.TreeOption) *trees.Tree {
	base := r.idBaseLocked(source, namespace)
	opts = append([]trees.TreeOption{trees.WithIDBase(base), trees.WithLogger(r.logger)}, opts...)
	return trees.NewTree(source, namespace, opts...)
}

// entryLocked returns the entry of source, creating it when absent. Callers
// hold r.mu.
func (r *Registry) entryLocked(source, namespace string, opts []trees.TreeOption) (*entry, bool, error) {
	if e, ok := r.entries[source]; ok {
		if e.tree.Namespace() != namespace {
			return nil, false, common.WrapError(common.ErrNamespaceRoutingConflict,
				"source %s opened for namespace %q, requested %q", source, e.tree.Namespace(), namespace)
		}
		return e, true, nil
	}
	e := &entry{tree: r.newTree(source, namespace, opts), done: make(chan struct{})}
	r.entries[source] = e
	return e, false, nil
}

// Open returns the tree of source, creating an open one on first use. Every
// call for one source returns the same instance; opts only apply on creation.
func (r *Registry) Open(source, namespace string, opts ...trees.TreeOption) (*trees.Tree, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, cached, err := r.entryLocked(source, namespace, opts)
	if err != nil {
		return nil, err
	}
	r.count(cached)
	return e.tree, nil
}

// Get returns the tree of source if it has been opened.
func (r *Registry) Get(source string) (*trees.Tree, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[source]
	if !ok {
		return nil, false
	}
	return e.tree, true
}

func (r *Registry) count(hit bool) {
	if hit {
		r.hits.Add(1)
	} else {
		r.misses.Add(1)
	}
}

// Load returns the sealed tree of source. The first caller runs fill and
// seals the tree; concurrent callers for the same source wait for that
// result, or for ctx to end. A failed fill is the cached result for source.
func (r *Registry) Load(ctx context.Context, source, namespace string, fill FillFunc, opts ...trees.TreeOption) (*trees.Tree, error) {
	r.mu.Lock()
	e, cached, err := r.entryLocked(source, namespace, opts)
	if err != nil {
		r.mu.Unlock()
		return nil, err
	}
	owner := !e.claimed
	e.claimed = true
	r.mu.Unlock()
	r.count(cached && !owner)

	if owner {
		r.fill(e, fill)
		return e.tree, e.err
	}

	select {
	case <-e.done:
		return e.tree, e.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (r *Registry) fill(e *entry, fill FillFunc) {
	defer close(e.done)
	if fill != nil && !e.tree.Sealed() {
		if err := fill(e.tree); err != nil {
			e.err = common.WrapError(err, "load %s", e.tree.Source())
			r.logger.Error().Err(err).Str("source", e.tree.Source()).Msg("Failed to load resource tree")
			return
		}
	}
	e.tree.Seal()
	r.logger.Info().
		Str("source", e.tree.Source()).
		Str("namespace", e.tree.Namespace()).
		Int("resources", e.tree.Len()).
		Msg("Loaded resource tree")
}

// LoadAll loads sources concurrently, at most the configured number at a
// time, and returns the trees in the order of sources. Id blocks are reserved
// in the order of sources before any fill runs.
func (r *Registry) LoadAll(ctx context.Context, sources []Source) ([]*trees.Tree, error) {
	r.mu.Lock()
	for _, src := range sources {
		r.idBaseLocked(src.ID, src.Namespace)
	}
	r.mu.Unlock()

	out := make([]*trees.Tree, len(sources))
	p := pool.New().WithMaxGoroutines(r.concurrency).WithContext(ctx)
	for i, src := range sources {
		p.Go(func(ctx context.Context) error {
			tree, err := r.Load(ctx, src.ID, src.Namespace, src.Fill, src.Options...)
			if err != nil {
				return err
			}
			out[i] = tree
			return nil
		})
	}
	if err := p.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// MergedIndex returns the merged index of the given sealed trees, merging
// once per ordered list of tree instances.
func (r *Registry) MergedIndex(ts ...*trees.Tree) (*indexing.MergedIndex, error) {
	ids := make([]string, len(ts))
	indices := make([]*trees.Index, len(ts))
	for i, t := range ts {
		ids[i] = t.ID().String()
		indices[i] = t.Index()
	}
	key := strings.Join(ids, ",")

	r.mergeMu.Lock()
	defer r.mergeMu.Unlock()
	if m, ok := r.merges[key]; ok {
		r.count(true)
		return m, nil
	}
	m, err := indexing.Merge(r.platformNamespace, indices, indexing.WithLogger(r.logger))
	if err != nil {
		return nil, err
	}
	r.count(false)
	r.merges[key] = m
	return m, nil
}

// Stats returns a snapshot of the cache counters.
func (r *Registry) Stats() Stats {
	r.mu.Lock()
	n := len(r.entries)
	r.mu.Unlock()
	r.mergeMu.Lock()
	m := len(r.merges)
	r.mergeMu.Unlock()
	return Stats{Trees: n, Merges: m, Hits: r.hits.Load(), Misses: r.misses.Load()}
}
