package routing

import (
	"errors"
	"testing"

	"github.com/ZanzyTHEbar/resbundle/resbundle/common"
	"github.com/ZanzyTHEbar/resbundle/resbundle/resname"
	"github.com/ZanzyTHEbar/resbundle/resbundle/trees"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type entry struct {
	name       string
	qualifiers string
	value      string
}

func sealedTree(t *testing.T, source, namespace string, entries []entry, opts ...trees.TreeOption) *trees.Tree {
	t.Helper()
	tree := trees.NewTree(source, namespace, opts...)
	for _, e := range entries {
		require.NoError(t, tree.Put(resname.MustParse(e.name), e.qualifiers, e.value))
	}
	tree.Seal()
	return tree
}

type RoutingTestSuite struct {
	suite.Suite
	platform *trees.Tree
	app      *trees.Tree
	lib      *trees.Tree
	lib2     *trees.Tree
	overlay  *Overlay
}

func (s *RoutingTestSuite) SetupTest() {
	t := s.T()
	s.platform = sealedTree(t, "framework.jar", "android", []entry{
		{"android:string/ok", "", "OK"},
		{"android:string/ok", "fr", "D'accord"},
	})
	s.app = sealedTree(t, "app.apk", "app", []entry{
		{"app:string/title", "", "App Title"},
		{"app:string/shared", "", "app shared"},
	})
	s.lib = sealedTree(t, "lib.aar", "lib", []entry{
		{"lib:string/shared", "", "lib shared"},
		{"lib:string/libonly", "", "Lib"},
		{"lib:string/libonly", "night", "Lib at night"},
	})
	s.lib2 = sealedTree(t, "lib2.aar", "lib2", []entry{
		{"lib2:string/libonly", "", "Lib2"},
		{"lib2:string/deep", "", "Deep"},
	}, trees.WithIDBase(0x7f300000))

	ov, err := NewOverlay("app", []*trees.Tree{s.app, s.lib, s.lib2})
	s.Require().NoError(err)
	s.overlay = ov
}

func (s *RoutingTestSuite) resolveOverlay(name, runtime string) (string, bool) {
	v, ok, err := s.overlay.Resolve(resname.MustParse(name), runtime)
	s.Require().NoError(err)
	if !ok {
		return "", false
	}
	return v.Payload.(string), true
}

func (s *RoutingTestSuite) TestOverlayPrecedence() {
	tests := []struct {
		name    string
		runtime string
		want    string
	}{
		{"app:string/title", "en", "App Title"},
		{"app:string/shared", "en", "app shared"},
		{"lib:string/shared", "en", "app shared"},
		{"app:string/libonly", "en", "Lib"},
		{"lib:string/libonly", "night", "Lib at night"},
		{"lib2:string/libonly", "en", "Lib"},
		{"lib2:string/deep", "en", "Deep"},
		{"app:string/deep", "en", "Deep"},
	}
	for _, tt := range tests {
		got, ok := s.resolveOverlay(tt.name, tt.runtime)
		s.True(ok, tt.name)
		s.Equal(tt.want, got, tt.name)
	}

	_, ok := s.resolveOverlay("app:string/missing", "en")
	s.False(ok)
}

func (s *RoutingTestSuite) TestOverlayIDs() {
	idx := s.overlay.Tree().Index()

	id, ok := idx.ID(resname.MustParse("app:string/title"))
	s.Require().True(ok)
	s.Equal(uint32(0x7f010000), id, "primary ids are kept")

	id, ok = idx.ID(resname.MustParse("app:string/libonly"))
	s.Require().True(ok)
	s.Equal(uint32(0x7f010002), id, "a taken subordinate id moves to the next free id")

	id, ok = idx.ID(resname.MustParse("app:string/deep"))
	s.Require().True(ok)
	s.Equal(uint32(0x7f300001), id, "a free subordinate id is kept")

	s.Equal(4, s.overlay.Tree().Len())
	s.True(s.overlay.Tree().Sealed())
	s.Equal([]string{"lib", "lib2"}, s.overlay.Subordinates())
	s.Equal("app", s.overlay.Namespace())
}

func (s *RoutingTestSuite) TestOverlayRequiresSealedInputs() {
	open := trees.NewTree("open.aar", "open")
	_, err := NewOverlay("app", []*trees.Tree{s.app, open})
	s.True(errors.Is(err, common.ErrTreeNotSealed))
}

func (s *RoutingTestSuite) TestOverlayMalformedRuntime() {
	_, _, err := s.overlay.Resolve(resname.MustParse("app:string/title"), "nodpi")
	s.True(errors.Is(err, common.ErrInvalidDensity))
}

func (s *RoutingTestSuite) TestTableRoutes() {
	other := sealedTree(s.T(), "other.apk", "other", []entry{{"other:string/x", "", "X"}}, trees.WithIDBase(0x7f400000))
	tbl, err := NewTable("android", []*trees.Tree{s.platform, other}, []*Overlay{s.overlay})
	s.Require().NoError(err)

	s.Equal([]string{"android", "app", "lib", "lib2", "other"}, tbl.Namespaces())
	s.Equal("android", tbl.PlatformNamespace())

	tree, ok := tbl.Route("android")
	s.Require().True(ok)
	s.Same(s.platform, tree)

	tree, ok = tbl.Route("lib")
	s.Require().True(ok)
	s.Same(s.overlay.Tree(), tree)

	_, ok = tbl.Route("nope")
	s.False(ok)

	tests := []struct {
		name    string
		runtime string
		want    string
	}{
		{"android:string/ok", "fr-rCA", "D'accord"},
		{"android:string/ok", "de", "OK"},
		{"app:string/title", "", "App Title"},
		{"lib:string/libonly", "night", "Lib at night"},
		{"other:string/x", "v21", "X"},
	}
	for _, tt := range tests {
		v, ok, err := tbl.Resolve(resname.MustParse(tt.name), tt.runtime)
		s.Require().NoError(err)
		s.True(ok, tt.name)
		s.Equal(tt.want, v.Payload, tt.name)
	}

	_, ok, err = tbl.Resolve(resname.MustParse("nope:string/x"), "en")
	s.NoError(err)
	s.False(ok)

	_, _, err = tbl.Resolve(resname.MustParse("app:string/title"), "en-bogus")
	s.True(errors.Is(err, common.ErrUnknownQualifierToken))
}

func (s *RoutingTestSuite) TestTableSentinelPlatformTree() {
	tbl, err := NewTable("android", nil, []*Overlay{s.overlay})
	s.Require().NoError(err)

	tree, ok := tbl.Route("android")
	s.Require().True(ok)
	s.True(tree.Sealed())
	s.Zero(tree.Len())

	again, _ := tbl.Route("android")
	s.Same(tree, again)

	_, ok, err = tbl.Resolve(resname.MustParse("android:string/ok"), "en")
	s.NoError(err)
	s.False(ok)
}

func (s *RoutingTestSuite) TestTableResolveID() {
	tbl, err := NewTable("android", []*trees.Tree{s.platform}, []*Overlay{s.overlay})
	s.Require().NoError(err)

	name, v, ok, err := tbl.ResolveID(0x7f010002, "night")
	s.Require().NoError(err)
	s.Require().True(ok)
	s.Equal("app:string/libonly", name.String())
	s.Equal("Lib at night", v.Payload)

	name, v, ok, err = tbl.ResolveID(0x01010000, "fr")
	s.Require().NoError(err)
	s.Require().True(ok)
	s.Equal("android:string/ok", name.String())
	s.Equal("D'accord", v.Payload)

	_, _, ok, err = tbl.ResolveID(0x7fffffff, "en")
	s.NoError(err)
	s.False(ok)

	_, _, _, err = tbl.ResolveID(0x01010000, "anydpi")
	s.True(errors.Is(err, common.ErrInvalidDensity))
}

func (s *RoutingTestSuite) TestTableSynthesizesPlatformIDs() {
	tbl, err := NewTable("android", []*trees.Tree{s.platform}, []*Overlay{s.overlay})
	s.Require().NoError(err)

	id, ok := tbl.ID(resname.MustParse("android:string/ok"))
	s.True(ok)
	s.Equal(uint32(0x01010000), id)

	maxBefore := tbl.Index().MaxID()
	synth, ok := tbl.ID(resname.MustParse("android:attr/undeclared"))
	s.True(ok)
	s.Equal(maxBefore+1, synth)
	s.Equal(1, tbl.Index().Synthesized())

	_, ok = tbl.ID(resname.MustParse("app:string/undeclared"))
	s.False(ok)
}

func (s *RoutingTestSuite) TestTableConflicts() {
	dup := sealedTree(s.T(), "dup.jar", "android", []entry{{"android:string/x", "", "x"}}, trees.WithIDBase(0x01020000))
	_, err := NewTable("android", []*trees.Tree{s.platform, dup}, nil)
	s.True(errors.Is(err, common.ErrNamespaceRoutingConflict))
	s.Contains(err.Error(), "framework.jar")
	s.Contains(err.Error(), "dup.jar")

	_, err = NewTable("android", []*trees.Tree{s.lib}, []*Overlay{s.overlay})
	s.True(errors.Is(err, common.ErrNamespaceRoutingConflict), "an overlay claims its subordinate namespaces")

	_, err = NewTable("android", []*trees.Tree{s.app, s.lib}, nil)
	s.True(errors.Is(err, common.ErrIndexCollision), "two trees binding one id to different names")

	open := trees.NewTree("open.apk", "open")
	_, err = NewTable("android", []*trees.Tree{open}, nil)
	s.True(errors.Is(err, common.ErrTreeNotSealed))
}

func TestRoutingTestSuite(t *testing.T) {
	suite.Run(t, new(RoutingTestSuite))
}

func TestOverlayWithoutPrimary(t *testing.T) {
	lib := sealedTree(t, "lib.aar", "lib", []entry{{"lib:string/x", "", "X"}})
	ov, err := NewOverlay("app", []*trees.Tree{lib})
	require.NoError(t, err)

	v, ok, err := ov.Resolve(resname.MustParse("app:string/x"), "en")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "X", v.Payload)
	assert.Equal(t, "lib.aar", v.Provenance)
}
