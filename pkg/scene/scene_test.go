package scene

import (
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/digraph/pkg/geometry"
)

func el(id, markup string) Element {
	return Element{ID: id, Kind: KindNode, Markup: markup, Bounds: geometry.Rect{Width: 1, Height: 1}}
}

func TestUpsertOrderAndReplace(t *testing.T) {
	s := New()
	assert.True(t, s.Upsert(LayerEntities, el("a", "1")))
	assert.True(t, s.Upsert(LayerEntities, el("b", "1")))
	assert.True(t, s.Upsert(LayerEntities, el("c", "1")))

	assert.True(t, s.Upsert(LayerEntities, el("b", "2")))
	assert.Equal(t, 1, s.IndexOf(LayerEntities, "b"), "replace keeps sibling position")

	got, ok := s.Get(LayerEntities, "b")
	require.True(t, ok)
	assert.Equal(t, "2", got.Markup)
	assert.Equal(t, []string{"a", "b", "c"}, s.IDs(LayerEntities, KindNode))
}

func TestUpsertIdempotent(t *testing.T) {
	s := New()
	var patches []Patch
	s.Subscribe(func(p Patch) { patches = append(patches, p) })

	s.Upsert(LayerEntities, el("a", "x"))
	before := s.Elements(LayerEntities)
	assert.False(t, s.Upsert(LayerEntities, el("a", "x")))

	assert.Equal(t, before, s.Elements(LayerEntities))
	assert.Len(t, patches, 1)
}

func TestRemoveReindexes(t *testing.T) {
	s := New()
	for _, id := range []string{"a", "b", "c"} {
		s.Upsert(LayerEntities, el(id, ""))
	}
	assert.True(t, s.Remove(LayerEntities, "a"))
	assert.False(t, s.Remove(LayerEntities, "a"))
	assert.Equal(t, 0, s.IndexOf(LayerEntities, "b"))
	assert.Equal(t, 1, s.IndexOf(LayerEntities, "c"))
	assert.Equal(t, -1, s.IndexOf(LayerEntities, "a"))

	s.Upsert(LayerEntities, el("c", "new"))
	got, _ := s.Get(LayerEntities, "c")
	assert.Equal(t, "new", got.Markup)
	assert.Equal(t, 2, s.Len(LayerEntities))
}

func TestBBox(t *testing.T) {
	s := New()
	assert.True(t, s.BBox().IsZero())

	s.Upsert(LayerEntities, Element{ID: "n1", Kind: KindNode, Bounds: geometry.Rect{X: 0, Y: 0, Width: 10, Height: 10}})
	s.Upsert(LayerEntities, Element{ID: "e1", Kind: KindEdge, Bounds: geometry.Rect{X: 5, Y: 5, Width: 20, Height: 0}})
	s.Upsert(LayerEntities, Element{ID: "drag", Kind: KindDragEdge, Bounds: geometry.Rect{X: 1000, Y: 1000, Width: 1, Height: 1}})
	s.Upsert(LayerOverlay, Element{ID: "ctl", Kind: KindOverlay, Bounds: geometry.Rect{X: -100, Y: -100, Width: 1, Height: 1}})

	assert.Equal(t, geometry.Rect{X: 0, Y: 0, Width: 25, Height: 10}, s.BBox())
}

func TestPatches(t *testing.T) {
	s := New()
	var ops []Op
	unsub := s.Subscribe(func(p Patch) { ops = append(ops, p.Op) })

	s.Upsert(LayerEntities, el("a", "1"))
	s.Upsert(LayerEntities, el("a", "2"))
	s.SetTransform(geometry.Transform{K: 2})
	assert.False(t, s.SetTransform(geometry.Transform{K: 2}))
	s.Remove(LayerEntities, "a")
	unsub()
	s.Upsert(LayerEntities, el("b", "1"))

	assert.Equal(t, []Op{OpInsert, OpReplace, OpTransform, OpRemove}, ops)
}

func TestSnapshot(t *testing.T) {
	s := New()
	s.Upsert(LayerEntities, el("a", "1"))
	s.Upsert(LayerOverlay, Element{ID: "ctl", Kind: KindOverlay})

	snap := s.Snapshot()
	require.Len(t, snap, 3)
	assert.Equal(t, OpTransform, snap[0].Op)
	assert.Equal(t, "a", snap[1].Element.ID)
	assert.Equal(t, LayerOverlay, snap[2].Layer)
}

func TestWriteSVG(t *testing.T) {
	s := New()
	s.Upsert(LayerEntities, Element{ID: "node-a-container", Kind: KindNode, Markup: `<g class="node"></g>`})
	s.Upsert(LayerOverlay, Element{ID: "graph-controls", Kind: KindOverlay, Class: "graph-controls"})
	s.SetTransform(geometry.Transform{K: 0.5, X: 10, Y: 20})

	var b strings.Builder
	err := s.WriteSVG(&b, WithSize(500, 400), WithGrid(DefaultGridSpacing, DefaultGridDotSize),
		WithDefs(func(w io.Writer) error {
			_, err := w.Write([]byte("<defs></defs>\n"))
			return err
		}))
	require.NoError(t, err)

	out := b.String()
	assert.True(t, strings.HasPrefix(out, "<svg "))
	assert.Contains(t, out, `viewBox="0 0 500 400"`)
	assert.Contains(t, out, `<g class="view" transform="translate(10,20) scale(0.5)">`)
	assert.Contains(t, out, `<g id="node-a-container" class="node-container"><g class="node"></g></g>`)
	assert.Contains(t, out, `<g id="graph-controls" class="graph-controls"></g>`)
	assert.Contains(t, out, `fill="url(#grid)"`)
	assert.Contains(t, out, "<defs></defs>")
	assert.True(t, strings.Index(out, `id="graph-controls"`) > strings.Index(out, `id="node-a-container"`))
}
