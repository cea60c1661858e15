package routing

import (
	"slices"

	"github.com/ZanzyTHEbar/resbundle/resbundle/common"
	"github.com/ZanzyTHEbar/resbundle/resbundle/indexing"
	"github.com/ZanzyTHEbar/resbundle/resbundle/matcher"
	"github.com/ZanzyTHEbar/resbundle/resbundle/qualifiers"
	"github.com/ZanzyTHEbar/resbundle/resbundle/resname"
	"github.com/ZanzyTHEbar/resbundle/resbundle/trees"

	"github.com/rs/zerolog"
)

type route struct {
	tree    *trees.Tree
	overlay *Overlay
	// owner is the source that claimed the namespace.
	owner string
}

func (r route) resolve(name resname.Name, runtime qualifiers.Qualifiers) (matcher.QualifiedValue, bool) {
	if r.overlay != nil {
		return r.overlay.ResolveQualifiers(name, runtime)
	}
	return r.tree.ResolveQualifiers(name, runtime)
}

// Table routes resource names to the tree that owns their namespace and
// carries the merged index of every routed tree. A Table is immutable; only
// its merged index records synthesized ids.
type Table struct {
	platformNamespace string
	routes            map[string]route
	empty             *trees.Tree
	index             *indexing.MergedIndex
	logger            zerolog.Logger
}

// NewTable routes every tree by its namespace and every overlay by its
// primary and subordinate namespaces. A namespace claimed twice fails with
// common.ErrNamespaceRoutingConflict; conflicting ids across the routed trees
// fail with a *common.CollisionError.
func NewTable(platformNamespace string, standalone []*trees.Tree, overlays []*Overlay, opts ...Option) (*Table, error) {
	o := buildOptions(opts)
	tbl := &Table{
		platformNamespace: platformNamespace,
		routes:            make(map[string]route),
		empty:             trees.Empty(platformNamespace),
		logger:            o.logger,
	}

	claim := func(namespace string, r route) error {
		if existing, ok := tbl.routes[namespace]; ok {
			return common.WrapError(common.ErrNamespaceRoutingConflict,
				"namespace %q claimed by %s and %s", namespace, existing.owner, r.owner)
		}
		tbl.routes[namespace] = r
		return nil
	}

	var indices []*trees.Index
	for _, t := range standalone {
		if !t.Sealed() {
			return nil, common.WrapError(common.ErrTreeNotSealed, "route %s", t.Source())
		}
		if err := claim(t.Namespace(), route{tree: t, owner: t.Source()}); err != nil {
			return nil, err
		}
		indices = append(indices, t.Index())
	}
	for _, ov := range overlays {
		r := route{tree: ov.Tree(), overlay: ov, owner: ov.Tree().Source()}
		if err := claim(ov.Namespace(), r); err != nil {
			return nil, err
		}
		for _, ns := range ov.Subordinates() {
			if err := claim(ns, r); err != nil {
				return nil, err
			}
		}
		indices = append(indices, ov.Tree().Index())
	}

	merged, err := indexing.Merge(platformNamespace, indices, indexing.WithLogger(o.logger))
	if err != nil {
		return nil, err
	}
	tbl.index = merged

	o.logger.Debug().
		Int("namespaces", len(tbl.routes)).
		Int("ids", merged.Len()).
		Msg("Built routing table")
	return tbl, nil
}

// Route returns the tree that owns namespace. The platform namespace always
// routes: when no tree claims it, Route returns an empty sealed tree.
func (tbl *Table) Route(namespace string) (*trees.Tree, bool) {
	if r, ok := tbl.routes[namespace]; ok {
		return r.tree, true
	}
	if namespace == tbl.platformNamespace {
		return tbl.empty, true
	}
	return nil, false
}

// Namespaces lists the routed namespaces, sorted.
func (tbl *Table) Namespaces() []string {
	out := make([]string, 0, len(tbl.routes))
	for ns := range tbl.routes {
		out = append(out, ns)
	}
	slices.Sort(out)
	return out
}

// Index returns the merged index of every routed tree.
func (tbl *Table) Index() *indexing.MergedIndex { return tbl.index }

// PlatformNamespace returns the namespace that always routes.
func (tbl *Table) PlatformNamespace() string { return tbl.platformNamespace }

// Resolve parses runtime and resolves name in the tree owning its
// namespace. Unrouted namespaces and unknown names report false.
func (tbl *Table) Resolve(name resname.Name, runtime string) (matcher.QualifiedValue, bool, error) {
	rq, err := qualifiers.ParseRuntime(runtime)
	if err != nil {
		return matcher.QualifiedValue{}, false, err
	}
	v, ok := tbl.ResolveQualifiers(name, rq)
	return v, ok, nil
}

// ResolveQualifiers is Resolve with an already parsed runtime.
func (tbl *Table) ResolveQualifiers(name resname.Name, runtime qualifiers.Qualifiers) (matcher.QualifiedValue, bool) {
	r, ok := tbl.routes[name.Namespace]
	if !ok {
		if name.Namespace != tbl.platformNamespace {
			tbl.logger.Debug().Str("resource", name.String()).Msg("No tree routes namespace")
		}
		return matcher.QualifiedValue{}, false
	}
	return r.resolve(name, runtime)
}

// ResolveID resolves the resource bound to id in the merged index.
func (tbl *Table) ResolveID(id uint32, runtime string) (resname.Name, matcher.QualifiedValue, bool, error) {
	rq, err := qualifiers.ParseRuntime(runtime)
	if err != nil {
		return resname.Name{}, matcher.QualifiedValue{}, false, err
	}
	name, ok := tbl.index.Name(id)
	if !ok {
		return resname.Name{}, matcher.QualifiedValue{}, false, nil
	}
	v, ok := tbl.ResolveQualifiers(name, rq)
	return name, v, ok, nil
}

// ID returns the id of name, synthesizing one for undeclared platform names.
func (tbl *Table) ID(name resname.Name) (uint32, bool) {
	return tbl.index.ResolveOrSynthesize(name)
}
