// Package routing composes resource trees: overlays layer library trees
// under an application namespace, and a Table routes each namespace to the
// tree that owns it.
package routing

import (
	"fmt"

	"github.com/ZanzyTHEbar/resbundle/resbundle/common"
	"github.com/ZanzyTHEbar/resbundle/resbundle/matcher"
	"github.com/ZanzyTHEbar/resbundle/resbundle/qualifiers"
	"github.com/ZanzyTHEbar/resbundle/resbundle/resname"
	"github.com/ZanzyTHEbar/resbundle/resbundle/trees"

	"github.com/rs/zerolog"
)

// Overlay presents a primary tree and its subordinate trees as one tree of
// the primary namespace. Primary entries shadow subordinate ones, and earlier
// subordinates shadow later ones.
type Overlay struct {
	namespace    string
	primary      *trees.Tree
	subordinates []string
	union        *trees.Tree
}

// Option configures overlays and tables.
type Option func(*options)

type options struct {
	logger zerolog.Logger
}

// WithLogger sets the logger for composition and routing events.
func WithLogger(logger zerolog.Logger) Option {
	return func(o *options) { o.logger = logger }
}

func buildOptions(opts []Option) options {
	o := options{logger: zerolog.Nop()}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// NewOverlay layers inputs under primaryNamespace. Inputs of that namespace
// are primaries and keep their ids; the others are subordinates whose names
// are rewritten into the primary namespace. A subordinate id already taken
// in the union is replaced by the next free one. Every input must be sealed.
func NewOverlay(primaryNamespace string, inputs []*trees.Tree, opts ...Option) (*Overlay, error) {
	o := buildOptions(opts)
	var primaries, subordinates []*trees.Tree
	for _, t := range inputs {
		if !t.Sealed() {
			return nil, common.WrapError(common.ErrTreeNotSealed, "overlay %s", t.Source())
		}
		if t.Namespace() == primaryNamespace {
			primaries = append(primaries, t)
		} else {
			subordinates = append(subordinates, t)
		}
	}

	union := trees.NewTree(fmt.Sprintf("overlay(%s)", primaryNamespace), primaryNamespace,
		trees.WithLogger(o.logger))
	ov := &Overlay{namespace: primaryNamespace, union: union}
	if len(primaries) > 0 {
		ov.primary = primaries[0]
	}

	for _, p := range primaries {
		var err error
		p.Walk(func(name resname.Name, id uint32, vs *matcher.ValueSet) bool {
			if _, ok := union.Lookup(name); ok {
				return true
			}
			err = union.Graft(name, id, vs)
			return err == nil
		})
		if err != nil {
			return nil, common.WrapError(err, "overlay primary %s", p.Source())
		}
	}

	for _, s := range subordinates {
		ov.subordinates = append(ov.subordinates, s.Namespace())
		var err error
		shadowed := 0
		s.Walk(func(name resname.Name, id uint32, vs *matcher.ValueSet) bool {
			remapped := name.WithNamespace(primaryNamespace)
			if _, ok := union.Lookup(remapped); ok {
				shadowed++
				return true
			}
			if _, taken := union.Index().Name(id); taken {
				id = union.Index().MaxID() + 1
			}
			err = union.Graft(remapped, id, vs)
			return err == nil
		})
		if err != nil {
			return nil, common.WrapError(err, "overlay subordinate %s", s.Source())
		}
		o.logger.Debug().
			Str("namespace", primaryNamespace).
			Str("subordinate", s.Source()).
			Int("shadowed", shadowed).
			Msg("Layered subordinate tree")
	}

	union.Seal()
	return ov, nil
}

// Namespace returns the primary namespace.
func (ov *Overlay) Namespace() string { return ov.namespace }

// Subordinates lists the namespaces layered under the primary, in order.
func (ov *Overlay) Subordinates() []string { return ov.subordinates }

// Tree returns the sealed union tree.
func (ov *Overlay) Tree() *trees.Tree { return ov.union }

// Resolve parses runtime and resolves name through the overlay.
func (ov *Overlay) Resolve(name resname.Name, runtime string) (matcher.QualifiedValue, bool, error) {
	rq, err := qualifiers.ParseRuntime(runtime)
	if err != nil {
		return matcher.QualifiedValue{}, false, err
	}
	v, ok := ov.ResolveQualifiers(name, rq)
	return v, ok, nil
}

// ResolveQualifiers resolves a primary-namespace name against the primary
// tree first and then the union. Names of any other namespace are rewritten
// into the primary namespace and resolved against the union.
func (ov *Overlay) ResolveQualifiers(name resname.Name, runtime qualifiers.Qualifiers) (matcher.QualifiedValue, bool) {
	if name.Namespace == ov.namespace && ov.primary != nil {
		if v, ok := ov.primary.ResolveQualifiers(name, runtime); ok {
			return v, true
		}
	}
	return ov.union.ResolveQualifiers(name.WithNamespace(ov.namespace), runtime)
}
