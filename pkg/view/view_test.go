package view

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/digraph/pkg/errors"
	"github.com/matzehuels/digraph/pkg/geometry"
	"github.com/matzehuels/digraph/pkg/graph"
	"github.com/matzehuels/digraph/pkg/interaction"
	"github.com/matzehuels/digraph/pkg/scene"
)

var (
	nodeA = graph.Node{ID: "a", X: 0, Y: 0, Title: "A"}
	nodeB = graph.Node{ID: "b", X: 200, Y: 0, Title: "B"}
	nodeC = graph.Node{ID: "c", X: 0, Y: 200, Title: "C"}
	edgeA = graph.Edge{Source: "a", Target: "b"}
)

type recorder struct {
	created  []geometry.Point
	updated  []graph.Node
	deleted  []graph.Node
	selected []*graph.Node
	edges    [][2]string
	swaps    [][3]string
	dropped  []graph.Edge
	picked   []*graph.Edge
}

func (r *recorder) callbacks() Callbacks {
	return Callbacks{
		OnCreateNode: func(p geometry.Point) { r.created = append(r.created, p) },
		OnUpdateNode: func(n graph.Node) { r.updated = append(r.updated, n) },
		OnDeleteNode: func(n graph.Node) { r.deleted = append(r.deleted, n) },
		OnSelectNode: func(n *graph.Node) { r.selected = append(r.selected, n) },
		OnCreateEdge: func(s, t graph.Node) { r.edges = append(r.edges, [2]string{s.ID, t.ID}) },
		OnSwapEdge: func(s, t graph.Node, old graph.Edge) {
			r.swaps = append(r.swaps, [3]string{s.ID, t.ID, old.Target})
		},
		OnDeleteEdge: func(e graph.Edge) { r.dropped = append(r.dropped, e) },
		OnSelectEdge: func(e *graph.Edge) { r.picked = append(r.picked, e) },
	}
}

func newView(t *testing.T, cfg Config) (*View, *recorder) {
	t.Helper()
	rec := &recorder{}
	v, err := New(cfg, rec.callbacks())
	require.NoError(t, err)
	v.SetGraph([]graph.Node{nodeA, nodeB, nodeC}, []graph.Edge{edgeA}, graph.Selection{})
	v.Settle(time.Now(), 100)
	return v, rec
}

func at(x, y float64) interaction.Event {
	return interaction.Event{Position: geometry.Point{X: x, Y: y}, Buttons: interaction.ButtonPrimary}
}

func shiftAt(x, y float64) interaction.Event {
	ev := at(x, y)
	ev.Shift = true
	return ev
}

func click(v *View, ev interaction.Event) {
	v.PointerDown(ev)
	v.PointerUp(ev)
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
	}{
		{"negative min zoom", Config{MinZoom: -1}},
		{"max below min", Config{MinZoom: 1, MaxZoom: 0.5}},
		{"negative arrow", Config{EdgeArrowSize: -1}},
		{"negative width", Config{Width: -10}},
		{"reserved node key", Config{NodeKey: "x"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.cfg, Callbacks{})
			require.Error(t, err)
			assert.Equal(t, errors.ErrCodeInvalidConfig, errors.GetCode(err))
		})
	}
}

func TestConfigDefaults(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, graph.DefaultNodeKey, cfg.NodeKey)
	assert.Equal(t, 0.15, cfg.MinZoom)
	assert.Equal(t, 1.5, cfg.MaxZoom)
	assert.Equal(t, 750*time.Millisecond, cfg.ZoomDuration)
	assert.Equal(t, 8.0, cfg.EdgeArrowSize)
	assert.Equal(t, 50.0, cfg.EdgeHandleSize)
	assert.Equal(t, 100.0, cfg.NodeSize)
}

func TestSetGraphRenders(t *testing.T) {
	rec := &recorder{}
	v, err := New(Config{}, rec.callbacks())
	require.NoError(t, err)

	v.SetGraph([]graph.Node{nodeA, nodeB}, []graph.Edge{edgeA}, graph.Selection{})
	assert.Equal(t, 0, v.Scene().Len(scene.LayerEntities), "renders wait for a frame")

	v.Settle(time.Now(), 100)
	assert.Equal(t, []string{"node-a-container", "node-b-container"}, v.Scene().IDs(scene.LayerEntities, scene.KindNode))
	assert.Equal(t, []string{"edge-a-b-container"}, v.Scene().IDs(scene.LayerEntities, scene.KindEdge))
	assert.Zero(t, v.Pending())

	v.SetGraph([]graph.Node{nodeA}, nil, graph.Selection{})
	v.Settle(time.Now(), 100)
	assert.Equal(t, []string{"node-a-container"}, v.Scene().IDs(scene.LayerEntities, scene.KindNode))
	assert.Empty(t, v.Scene().IDs(scene.LayerEntities, scene.KindEdge))
}

func TestHitTesting(t *testing.T) {
	v, _ := newView(t, Config{})

	n, ok := v.NodeAt(geometry.Point{X: 10, Y: 10})
	require.True(t, ok)
	assert.Equal(t, "a", n.ID)

	_, ok = v.NodeAt(geometry.Point{X: 100, Y: 100})
	assert.False(t, ok)

	e, ok := v.EdgeAt(geometry.Point{X: 96, Y: 3})
	require.True(t, ok)
	assert.True(t, e.SameAs(edgeA))

	_, ok = v.EdgeAt(geometry.Point{X: 96, Y: 60})
	assert.False(t, ok)
}

func TestClickSelects(t *testing.T) {
	v, rec := newView(t, Config{})

	click(v, at(0, 0))
	require.Len(t, rec.selected, 1)
	require.NotNil(t, rec.selected[0])
	assert.Equal(t, "a", rec.selected[0].ID)

	click(v, at(96, 0))
	require.Len(t, rec.picked, 1)
	assert.True(t, rec.picked[0].SameAs(edgeA))

	click(v, at(400, 400))
	require.Len(t, rec.selected, 2)
	assert.Nil(t, rec.selected[1], "canvas click clears the selection")
	assert.Empty(t, rec.created)
}

func TestShiftClickCreatesNode(t *testing.T) {
	v, rec := newView(t, Config{})

	click(v, shiftAt(400, 300))
	require.Len(t, rec.created, 1)
	assert.Equal(t, geometry.Point{X: 400, Y: 300}, rec.created[0])
	assert.Empty(t, rec.selected)
}

func TestNodeDrag(t *testing.T) {
	v, rec := newView(t, Config{})

	v.PointerDown(at(10, 0))
	v.PointerMove(at(60, 0))
	v.PointerMove(at(110, 0))
	v.PointerUp(at(110, 0))

	require.Len(t, rec.updated, 1)
	assert.Equal(t, "a", rec.updated[0].ID)
	assert.Equal(t, 100.0, rec.updated[0].X)
	assert.Equal(t, 0.0, rec.updated[0].Y)
	assert.Empty(t, rec.selected, "a drag is not a click")

	el, ok := v.Scene().Get(scene.LayerEntities, "node-a-container")
	require.True(t, ok)
	assert.Contains(t, el.Markup, `transform="translate(100, 0)"`)
}

func TestCreateEdgeByShiftDrag(t *testing.T) {
	v, rec := newView(t, Config{})

	v.PointerDown(shiftAt(0, 0))
	require.True(t, v.Machine().Dragging())

	v.PointerMove(shiftAt(0, 200))
	assert.Equal(t, interaction.DraggingNewEdge, v.Machine().State())
	_, ok := v.Scene().Get(scene.LayerEntities, "edge-custom-container")
	assert.True(t, ok, "dragged edge is drawn")

	v.PointerUp(shiftAt(0, 200))
	assert.Equal(t, [][2]string{{"a", "c"}}, rec.edges)
	assert.Equal(t, interaction.Idle, v.Machine().State())
	_, ok = v.Scene().Get(scene.LayerEntities, "edge-custom-container")
	assert.False(t, ok)
}

func TestCreateDuplicateEdgeDiscarded(t *testing.T) {
	v, rec := newView(t, Config{})

	v.PointerDown(shiftAt(0, 0))
	v.PointerMove(shiftAt(200, 0))
	v.PointerUp(shiftAt(200, 0))
	assert.Empty(t, rec.edges)
}

func TestSwapEdgeByArrowDrag(t *testing.T) {
	v, rec := newView(t, Config{})

	v.PointerDown(shiftAt(142, 0))
	require.Equal(t, interaction.DraggingExistingEdge, v.Machine().State())
	_, ok := v.Scene().Get(scene.LayerEntities, "edge-a-b-container")
	assert.False(t, ok, "original edge is lifted")

	v.PointerMove(shiftAt(0, 200))
	v.PointerUp(shiftAt(0, 200))
	assert.Equal(t, [][3]string{{"a", "c", "b"}}, rec.swaps)
}

func TestEscapeRestoresSwappedEdge(t *testing.T) {
	v, rec := newView(t, Config{})

	v.PointerDown(shiftAt(142, 0))
	v.PointerMove(shiftAt(300, 300))
	assert.True(t, v.KeyDown("Escape"))

	assert.Equal(t, interaction.Idle, v.Machine().State())
	_, ok := v.Scene().Get(scene.LayerEntities, "edge-a-b-container")
	assert.True(t, ok)
	assert.Empty(t, rec.swaps)
}

func TestDeleteKey(t *testing.T) {
	v, rec := newView(t, Config{})

	assert.False(t, v.KeyDown("Delete"), "nothing selected")

	v.SetGraph([]graph.Node{nodeA, nodeB, nodeC}, []graph.Edge{edgeA}, graph.SelectNode(nodeB))
	assert.True(t, v.KeyDown("Backspace"))
	require.Len(t, rec.deleted, 1)
	assert.Equal(t, "b", rec.deleted[0].ID)

	v.SetGraph([]graph.Node{nodeA, nodeB, nodeC}, []graph.Edge{edgeA}, graph.SelectEdge(edgeA))
	assert.True(t, v.KeyDown("Delete"))
	require.Len(t, rec.dropped, 1)
	assert.True(t, rec.dropped[0].SameAs(edgeA))
}

func TestReadOnly(t *testing.T) {
	v, rec := newView(t, Config{ReadOnly: true})

	v.PointerDown(shiftAt(0, 0))
	assert.False(t, v.Machine().Dragging())
	v.PointerUp(shiftAt(0, 0))

	v.PointerDown(at(10, 0))
	v.PointerMove(at(110, 0))
	v.PointerUp(at(110, 0))
	assert.Empty(t, rec.updated)
	el, ok := v.Scene().Get(scene.LayerEntities, "node-a-container")
	require.True(t, ok)
	assert.Contains(t, el.Markup, `transform="translate(0, 0)"`)

	click(v, shiftAt(400, 300))
	assert.Empty(t, rec.created)

	v.SetGraph([]graph.Node{nodeA}, nil, graph.SelectNode(nodeA))
	assert.False(t, v.KeyDown("Delete"))
	assert.Empty(t, rec.deleted)
}

func TestPan(t *testing.T) {
	v, _ := newView(t, Config{})

	v.PointerDown(at(400, 400))
	v.PointerMove(at(450, 420))
	v.PointerUp(at(450, 420))
	assert.Equal(t, geometry.Transform{K: 1, X: 50, Y: 20}, v.Transform())
}

func TestHover(t *testing.T) {
	v, _ := newView(t, Config{})

	v.PointerMove(at(200, 0))
	require.NotNil(t, v.Machine().Drag().HoveredNode)
	assert.Equal(t, "b", v.Machine().Drag().HoveredNode.ID)

	v.Hover(nil)
	assert.Nil(t, v.Machine().Drag().HoveredNode)

	n := nodeC
	v.Hover(&n)
	assert.Equal(t, "c", v.Machine().Drag().HoveredNode.ID)
}

func TestWheelZoom(t *testing.T) {
	v, _ := newView(t, Config{MinZoom: 0.25, MaxZoom: 2})

	assert.True(t, v.Wheel(at(0, 0), -500))
	assert.Equal(t, 1.5, v.Transform().K)

	assert.False(t, v.Wheel(at(0, 0), -1000), "past max zoom")
	assert.Equal(t, 1.5, v.Transform().K)
}

func TestKeyZoom(t *testing.T) {
	v, _ := newView(t, Config{})

	assert.True(t, v.KeyDown("f"))
	assert.True(t, v.Viewport().Animating())
	v.Settle(time.Now(), 200)
	assert.False(t, v.Viewport().Animating())

	assert.False(t, v.KeyDown("q"))
}

func TestInstantZoom(t *testing.T) {
	v, _ := newView(t, Config{ZoomDuration: InstantZoom})
	assert.Equal(t, InstantZoom, v.Config().ZoomDuration, "instant zoom is not replaced by the default")

	assert.True(t, v.KeyDown("+"))
	assert.False(t, v.Viewport().Animating())
	assert.InDelta(t, 1.1, v.Transform().K, 1e-9)

	assert.True(t, v.KeyDown("f"))
	assert.False(t, v.Viewport().Animating())
}

func TestGraphControls(t *testing.T) {
	v, _ := newView(t, Config{ShowGraphControls: true})

	el, ok := v.Scene().Get(scene.LayerOverlay, GraphControlsID)
	require.True(t, ok)
	assert.Contains(t, el.Markup, "100%")

	assert.True(t, v.Wheel(at(0, 0), 500))
	el, _ = v.Scene().Get(scene.LayerOverlay, GraphControlsID)
	assert.Contains(t, el.Markup, "50%")

	v.PointerDown(at(20, 20))
	assert.True(t, v.Viewport().Animating(), "fit button zooms to fit")
	v.PointerUp(at(20, 20))
}

func TestGraphControlsHidden(t *testing.T) {
	v, _ := newView(t, Config{})
	_, ok := v.Scene().Get(scene.LayerOverlay, GraphControlsID)
	assert.False(t, ok)
}

func TestWriteSVG(t *testing.T) {
	v, _ := newView(t, Config{})

	var buf bytes.Buffer
	require.NoError(t, v.WriteSVG(&buf))
	out := buf.String()
	assert.Contains(t, out, "<svg")
	assert.Contains(t, out, `id="node-a"`)
	assert.Contains(t, out, `id="edge-a-b"`)
	assert.Contains(t, out, `id="end-arrow"`)
}

func TestClose(t *testing.T) {
	rec := &recorder{}
	v, err := New(Config{}, rec.callbacks())
	require.NoError(t, err)
	v.SetGraph([]graph.Node{nodeA}, nil, graph.Selection{})
	require.NotZero(t, v.Pending())

	v.Close()
	assert.True(t, v.Closed())
	assert.Zero(t, v.Pending())
	assert.Zero(t, v.Tick(time.Now()))

	click(v, at(0, 0))
	assert.Empty(t, rec.selected)
	assert.False(t, v.KeyDown("f"))
	v.Close()
}
