// Package fixtures reads YAML documents that describe resource trees and
// overlays, and builds a routing table from them through a registry.
package fixtures

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/ZanzyTHEbar/resbundle/resbundle/common"
	"github.com/ZanzyTHEbar/resbundle/resbundle/registry"
	"github.com/ZanzyTHEbar/resbundle/resbundle/resname"
	"github.com/ZanzyTHEbar/resbundle/resbundle/routing"
	"github.com/ZanzyTHEbar/resbundle/resbundle/trees"

	"gopkg.in/yaml.v3"
)

// Document is the root of a fixture file.
type Document struct {
	// PlatformNamespace defaults to the registry's platform namespace.
	PlatformNamespace string        `yaml:"platformNamespace,omitempty"`
	Trees             []TreeSpec    `yaml:"trees"`
	Overlays          []OverlaySpec `yaml:"overlays,omitempty"`
}

// TreeSpec describes one source.
type TreeSpec struct {
	Source    string         `yaml:"source"`
	Namespace string         `yaml:"namespace"`
	IDBase    uint32         `yaml:"idBase,omitempty"`
	Resources []ResourceSpec `yaml:"resources"`
}

// ResourceSpec describes one named resource. Name is "type/name" in the
// tree's namespace or a full "namespace:type/name".
type ResourceSpec struct {
	Name   string      `yaml:"name"`
	ID     *uint32     `yaml:"id,omitempty"`
	Values []ValueSpec `yaml:"values"`
}

// ValueSpec is one qualified variant.
type ValueSpec struct {
	Qualifiers string `yaml:"qualifiers"`
	Value      any    `yaml:"value"`
}

// OverlaySpec layers Sources under Namespace.
type OverlaySpec struct {
	Namespace string   `yaml:"namespace"`
	Sources   []string `yaml:"sources"`
}

// Decode reads and validates a document.
func Decode(r io.Reader) (*Document, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var doc Document
	if err := dec.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, common.WrapError(common.ErrInvalidFixture, "empty document")
		}
		return nil, fmt.Errorf("%w: %v", common.ErrInvalidFixture, err)
	}
	if err := doc.Validate(); err != nil {
		return nil, err
	}
	return &doc, nil
}

// ReadFile decodes the document at path.
func ReadFile(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, common.WrapError(err, "read fixture %s", path)
	}
	doc, err := Decode(bytes.NewReader(data))
	if err != nil {
		return nil, common.WrapError(err, "fixture %s", path)
	}
	return doc, nil
}

// Validate checks the document's structure. Qualifier strings and ids are
// checked when the trees are built.
func (d *Document) Validate() error {
	sources := make(map[string]bool, len(d.Trees))
	for i, t := range d.Trees {
		if t.Source == "" || t.Namespace == "" {
			return fmt.Errorf("%w: tree %d needs a source and a namespace", common.ErrInvalidFixture, i)
		}
		if sources[t.Source] {
			return fmt.Errorf("%w: source %q listed twice", common.ErrInvalidFixture, t.Source)
		}
		sources[t.Source] = true
	}

	consumed := make(map[string]string)
	for _, o := range d.Overlays {
		if o.Namespace == "" || len(o.Sources) == 0 {
			return fmt.Errorf("%w: overlay needs a namespace and sources", common.ErrInvalidFixture)
		}
		for _, src := range o.Sources {
			if !sources[src] {
				return fmt.Errorf("%w: overlay %q names unknown source %q", common.ErrInvalidFixture, o.Namespace, src)
			}
			if other, ok := consumed[src]; ok {
				return fmt.Errorf("%w: source %q used by overlays %q and %q", common.ErrInvalidFixture, src, other, o.Namespace)
			}
			consumed[src] = o.Namespace
		}
	}
	return nil
}

// Sources converts the document's trees into registry sources.
func (d *Document) Sources() []registry.Source {
	out := make([]registry.Source, 0, len(d.Trees))
	for _, spec := range d.Trees {
		src := registry.Source{
			ID:        spec.Source,
			Namespace: spec.Namespace,
			Fill:      spec.fill,
		}
		if spec.IDBase != 0 {
			src.Options = append(src.Options, trees.WithIDBase(spec.IDBase))
		}
		out = append(out, src)
	}
	return out
}

func (spec TreeSpec) fill(tree *trees.Tree) error {
	for _, res := range spec.Resources {
		name, err := resname.Parse(res.Name, spec.Namespace)
		if err != nil {
			return err
		}
		if res.ID != nil {
			if err := tree.Declare(name, *res.ID); err != nil {
				return err
			}
		}
		for _, v := range res.Values {
			if err := tree.Put(name, v.Qualifiers, v.Value); err != nil {
				return err
			}
		}
	}
	return nil
}

// Build loads every tree through reg, layers the overlays and routes the
// overlays together with the trees no overlay consumed.
func (d *Document) Build(ctx context.Context, reg *registry.Registry) (*routing.Table, error) {
	if err := d.Validate(); err != nil {
		return nil, err
	}
	platformNamespace := d.PlatformNamespace
	if platformNamespace == "" {
		platformNamespace = reg.PlatformNamespace()
	}

	loaded, err := reg.LoadAll(ctx, d.Sources())
	if err != nil {
		return nil, err
	}
	bySource := make(map[string]*trees.Tree, len(loaded))
	for _, t := range loaded {
		bySource[t.Source()] = t
	}

	logger := reg.Logger()
	consumed := make(map[string]bool)
	var overlays []*routing.Overlay
	for _, o := range d.Overlays {
		inputs := make([]*trees.Tree, 0, len(o.Sources))
		for _, src := range o.Sources {
			inputs = append(inputs, bySource[src])
			consumed[src] = true
		}
		ov, err := routing.NewOverlay(o.Namespace, inputs, routing.WithLogger(logger))
		if err != nil {
			return nil, err
		}
		overlays = append(overlays, ov)
	}

	var standalone []*trees.Tree
	for _, t := range loaded {
		if !consumed[t.Source()] {
			standalone = append(standalone, t)
		}
	}
	return routing.NewTable(platformNamespace, standalone, overlays, routing.WithLogger(logger))
}
