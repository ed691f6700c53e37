package owner

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/digraph/pkg/errors"
	"github.com/matzehuels/digraph/pkg/geometry"
	"github.com/matzehuels/digraph/pkg/graph"
	"github.com/matzehuels/digraph/pkg/interaction"
	"github.com/matzehuels/digraph/pkg/observability"
	"github.com/matzehuels/digraph/pkg/store"
	"github.com/matzehuels/digraph/pkg/view"
)

type fakeViewer struct {
	nodes []graph.Node
	edges []graph.Edge
	sel   graph.Selection
	calls int
}

func (v *fakeViewer) SetGraph(nodes []graph.Node, edges []graph.Edge, sel graph.Selection) {
	v.nodes, v.edges, v.sel = nodes, edges, sel
	v.calls++
}

func sequentialIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("n%d", n)
	}
}

func sample() graph.Document {
	return graph.Document{
		Nodes: []graph.Node{
			{ID: "a", X: 0, Y: 0, Title: "A"},
			{ID: "b", X: 200, Y: 0, Title: "B"},
			{ID: "c", X: 0, Y: 200, Title: "C"},
		},
		Edges: []graph.Edge{{Source: "a", Target: "b"}, {Source: "b", Target: "c"}},
	}
}

func TestAttach(t *testing.T) {
	o := New(sample())
	v := &fakeViewer{}
	o.Attach(v)
	assert.Equal(t, 1, v.calls)
	assert.Len(t, v.nodes, 3)
	assert.Len(t, v.edges, 2)

	o.Detach(v)
	require.NoError(t, o.UpdateNode(context.Background(), graph.Node{ID: "a", X: 5}))
	assert.Equal(t, 1, v.calls, "detached viewers are not refreshed")
}

func TestCreateNode(t *testing.T) {
	ctx := context.Background()
	o := New(sample(), WithIDGenerator(sequentialIDs()))
	v := &fakeViewer{}
	o.Attach(v)

	n, err := o.CreateNode(ctx, geometry.Point{X: 40, Y: 60})
	require.NoError(t, err)
	assert.Equal(t, graph.Node{ID: "n1", X: 40, Y: 60, Type: DefaultNodeType}, n)
	assert.Len(t, v.nodes, 4)
	assert.True(t, v.sel.HasNode("n1"), "new node is selected")
	assert.Equal(t, 1, o.Version())
}

func TestCreateNodeUUID(t *testing.T) {
	o := New(graph.Document{})
	a, err := o.CreateNode(context.Background(), geometry.Point{})
	require.NoError(t, err)
	b, err := o.CreateNode(context.Background(), geometry.Point{})
	require.NoError(t, err)
	assert.Len(t, a.ID, 36)
	assert.NotEqual(t, a.ID, b.ID)
}

func TestDeleteNode(t *testing.T) {
	ctx := context.Background()
	o := New(sample())
	o.SelectNode(&graph.Node{ID: "b"})

	require.NoError(t, o.DeleteNode(ctx, graph.Node{ID: "b"}))
	doc := o.Document()
	assert.Len(t, doc.Nodes, 2)
	assert.Empty(t, doc.Edges, "incident edges go with the node")
	assert.True(t, o.Selection().Empty())

	err := o.DeleteNode(ctx, graph.Node{ID: "b"})
	assert.True(t, errors.Is(err, errors.ErrCodeNodeNotFound))
}

func TestEdgeIntents(t *testing.T) {
	ctx := context.Background()
	o := New(sample())
	a, b, c := graph.Node{ID: "a"}, graph.Node{ID: "b"}, graph.Node{ID: "c"}

	require.NoError(t, o.CreateEdge(ctx, a, c))
	assert.Len(t, o.Document().Edges, 3)
	assert.True(t, o.Selection().HasEdge(graph.Edge{Source: "a", Target: "c"}))

	err := o.CreateEdge(ctx, a, b)
	assert.True(t, errors.Is(err, errors.ErrCodeInvalidGraph), "duplicate")
	assert.Len(t, o.Document().Edges, 3)

	require.NoError(t, o.SwapEdge(ctx, b, a, graph.Edge{Source: "b", Target: "c"}))
	edges := o.Document().Edges
	assert.Equal(t, graph.Edge{Source: "b", Target: "a"}, edges[1], "swap keeps the edge's position")

	require.NoError(t, o.DeleteEdge(ctx, graph.Edge{Source: "a", Target: "b"}))
	assert.Len(t, o.Document().Edges, 2)
	assert.True(t, o.Selection().Empty())
}

func TestRefusedIntentLeavesDocument(t *testing.T) {
	ctx := context.Background()
	o := New(sample())
	o.SelectNode(&graph.Node{ID: "a"})
	before := o.Document()

	err := o.SwapEdge(ctx, graph.Node{ID: "a"}, graph.Node{ID: "b"}, graph.Edge{Source: "b", Target: "c"})
	require.Error(t, err)
	assert.Equal(t, before, o.Document())
	assert.True(t, o.Selection().HasNode("a"))
	assert.Zero(t, o.Version())
}

func TestSelect(t *testing.T) {
	o := New(sample())
	v := &fakeViewer{}
	o.Attach(v)

	o.SelectEdge(&graph.Edge{Source: "a", Target: "b"})
	assert.Equal(t, 2, v.calls)
	o.SelectEdge(&graph.Edge{Source: "a", Target: "b"})
	assert.Equal(t, 2, v.calls, "unchanged selection does not refresh")

	o.SelectNode(nil)
	assert.True(t, v.sel.Empty())
	assert.Equal(t, 3, v.calls)
}

func TestPersistence(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemory()

	o, err := Load(ctx, mem, "flow.yaml", WithIDGenerator(sequentialIDs()))
	require.NoError(t, err)
	assert.Empty(t, o.Document().Nodes, "missing key loads an empty document")

	_, err = o.CreateNode(ctx, geometry.Point{X: 1, Y: 2})
	require.NoError(t, err)

	data, ok, err := mem.Get(ctx, "flow.yaml")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Contains(t, string(data), "id: n1")

	reloaded, err := Load(ctx, mem, "flow.yaml")
	require.NoError(t, err)
	assert.Equal(t, o.Document(), reloaded.Document())
}

func TestLoadInvalidDocument(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemory()
	require.NoError(t, mem.Set(ctx, "bad.json", []byte("{")))

	_, err := Load(ctx, mem, "bad.json")
	assert.True(t, errors.Is(err, errors.ErrCodeInvalidGraph))
}

// gatedStore blocks the first Set until release is closed.
type gatedStore struct {
	*store.Memory
	once    sync.Once
	entered chan struct{}
	release chan struct{}
}

func newGatedStore() *gatedStore {
	return &gatedStore{Memory: store.NewMemory(), entered: make(chan struct{}), release: make(chan struct{})}
}

func (g *gatedStore) Set(ctx context.Context, key string, data []byte) error {
	first := false
	g.once.Do(func() { first = true })
	if first {
		close(g.entered)
		<-g.release
	}
	return g.Memory.Set(ctx, key, data)
}

type countingViewer struct{ counts []int }

func (v *countingViewer) SetGraph(nodes []graph.Node, _ []graph.Edge, _ graph.Selection) {
	v.counts = append(v.counts, len(nodes))
}

func TestConcurrentIntentsPersistInOrder(t *testing.T) {
	ctx := context.Background()
	gs := newGatedStore()
	o, err := Load(ctx, gs, "flow.json")
	require.NoError(t, err)
	v := &countingViewer{}
	o.Attach(v)

	first := make(chan error, 1)
	go func() {
		_, err := o.CreateNode(ctx, geometry.Point{X: 1, Y: 1})
		first <- err
	}()
	<-gs.entered

	second := make(chan error, 1)
	go func() {
		_, err := o.CreateNode(ctx, geometry.Point{X: 2, Y: 2})
		second <- err
	}()

	select {
	case <-second:
		t.Fatal("second intent finished while the first was still saving")
	case <-time.After(50 * time.Millisecond):
	}

	close(gs.release)
	require.NoError(t, <-first)
	require.NoError(t, <-second)

	data, ok, err := gs.Get(ctx, "flow.json")
	require.NoError(t, err)
	require.True(t, ok)
	stored, err := graph.NewCodec("").Unmarshal(data, graph.FormatJSON)
	require.NoError(t, err)
	require.Len(t, stored.Nodes, 2)
	assert.Equal(t, o.Document().Nodes, stored.Nodes)
	assert.Equal(t, []int{0, 1, 2}, v.counts, "viewers see documents in commit order")
}

func TestReplace(t *testing.T) {
	ctx := context.Background()
	o := New(sample())
	o.SelectNode(&graph.Node{ID: "c"})
	var seen []graph.Document
	o.OnChange(func(d graph.Document) { seen = append(seen, d) })

	doc := sample()
	doc.Nodes = doc.Nodes[:2]
	doc.Edges = doc.Edges[:1]
	require.NoError(t, o.Replace(ctx, doc))
	assert.True(t, o.Selection().Empty(), "selection of a vanished node is dropped")
	assert.Len(t, seen, 1)
}

type intentEvents struct{ applied, refused []string }

func (e *intentEvents) OnIntent(_ context.Context, intent string, err error) {
	if err != nil {
		e.refused = append(e.refused, intent)
		return
	}
	e.applied = append(e.applied, intent)
}

func TestIntentHooks(t *testing.T) {
	ev := &intentEvents{}
	observability.SetIntentHooks(ev)
	defer observability.Reset()

	ctx := context.Background()
	o := New(sample())
	_ = o.CreateEdge(ctx, graph.Node{ID: "a"}, graph.Node{ID: "c"})
	_ = o.CreateEdge(ctx, graph.Node{ID: "a"}, graph.Node{ID: "c"})

	assert.Equal(t, []string{IntentCreateEdge}, ev.applied)
	assert.Equal(t, []string{IntentCreateEdge}, ev.refused)
}

func TestDrivesView(t *testing.T) {
	o := New(sample(), WithIDGenerator(sequentialIDs()))
	v, err := view.New(view.Config{}, o.Callbacks())
	require.NoError(t, err)
	o.Attach(v)
	v.Settle(time.Now(), 100)

	shift := func(x, y float64) interaction.Event {
		return interaction.Event{Position: geometry.Point{X: x, Y: y}, Buttons: interaction.ButtonPrimary, Shift: true}
	}
	v.PointerDown(shift(0, 200))
	v.PointerMove(shift(0, 0))
	v.PointerUp(shift(0, 0))

	doc := o.Document()
	require.Len(t, doc.Edges, 3)
	assert.Equal(t, graph.Edge{Source: "c", Target: "a"}, doc.Edges[2])
	assert.True(t, v.Selection().HasEdge(doc.Edges[2]), "view received the new snapshot")

	v.PointerDown(shift(500, 500))
	v.PointerUp(shift(500, 500))
	assert.Len(t, o.Document().Nodes, 4)
}
