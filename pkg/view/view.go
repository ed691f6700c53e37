package view

import (
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/digraph/pkg/frame"
	"github.com/matzehuels/digraph/pkg/geometry"
	"github.com/matzehuels/digraph/pkg/graph"
	"github.com/matzehuels/digraph/pkg/interaction"
	"github.com/matzehuels/digraph/pkg/render"
	"github.com/matzehuels/digraph/pkg/scene"
	"github.com/matzehuels/digraph/pkg/shapes"
	"github.com/matzehuels/digraph/pkg/viewport"
)

// FrameInterval is the frame step used by [View.Settle].
const FrameInterval = 16 * time.Millisecond

// Callbacks receive the intents a view proposes to the graph owner. Nil
// fields are ignored.
type Callbacks struct {
	OnCreateNode func(p geometry.Point)
	OnUpdateNode func(n graph.Node)
	OnDeleteNode func(n graph.Node)
	OnSelectNode func(n *graph.Node)
	OnCreateEdge func(source, target graph.Node)
	OnSwapEdge   func(source, newTarget graph.Node, old graph.Edge)
	OnDeleteEdge func(e graph.Edge)
	OnSelectEdge func(e *graph.Edge)
}

// Option configures a [View].
type Option func(*View)

// WithLogger sets the logger shared by the view and its components.
func WithLogger(l *log.Logger) Option {
	return func(v *View) {
		if l != nil {
			v.logger = l
		}
	}
}

// WithContainer sets the element measured for the viewport size.
func WithContainer(c viewport.Container) Option { return func(v *View) { v.container = c } }

// View is one interactive diagram.
type View struct {
	cfg       Config
	cb        Callbacks
	logger    *log.Logger
	container viewport.Container

	loop     *frame.Loop
	scene    *scene.Scene
	shapes   *shapes.Registry
	geo      *geometry.Engine
	renderer *render.Renderer
	machine  *interaction.Machine
	viewport *viewport.Controller

	ix        *graph.Index
	selection graph.Selection
	gesture   gesture
	closed    bool
}

type dragFunc func() bool

func (f dragFunc) Dragging() bool { return f() }

// New creates a view with no graph. Zero config fields take their defaults;
// impossible configurations are rejected with an INVALID_CONFIG error.
func New(cfg Config, cb Callbacks, opts ...Option) (*View, error) {
	cfg = cfg.WithDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	v := &View{
		cfg:    cfg,
		cb:     cb,
		logger: log.New(io.Discard),
		loop:   frame.NewLoop(),
		scene:  scene.New(),
		shapes: cfg.registry(),
		ix:     graph.NewIndex(nil, nil),
	}
	for _, opt := range opts {
		opt(v)
	}

	v.geo = geometry.NewEngine(v.shapes,
		geometry.WithArrow(cfg.arrow()),
		geometry.WithNodeSize(cfg.NodeSize))

	v.renderer = render.New(v.scene, v.loop, v.geo, v.shapes,
		render.WithLogger(v.logger.WithPrefix("render")),
		render.WithEdgeHandleSize(cfg.EdgeHandleSize),
		render.WithDragReporter(dragFunc(func() bool { return v.machine.Dragging() })))

	v.machine = interaction.New(interaction.Config{
		ReadOnly:       cfg.ReadOnly,
		AllowSelfLoops: cfg.AllowSelfLoops,
		EdgeArrowSize:  cfg.EdgeArrowSize,
	}, interaction.Collaborators{
		Graph:     v,
		Hits:      v,
		Edges:     v.renderer,
		Transform: v.scene,
	},
		interaction.WithLogger(v.logger.WithPrefix("interaction")),
		interaction.WithIntents(interaction.Intents{
			OnCreateEdge: cb.OnCreateEdge,
			OnSwapEdge:   cb.OnSwapEdge,
		}))

	vpOpts := []viewport.Option{
		viewport.WithLogger(v.logger.WithPrefix("viewport")),
		viewport.WithDragForwarder(v.machine),
		viewport.OnChange(func(geometry.Transform) { v.renderControls() }),
	}
	if v.container != nil {
		vpOpts = append(vpOpts, viewport.WithContainer(v.container))
	}
	v.viewport = viewport.New(cfg.viewport(), v.scene, v.scene, v.loop, vpOpts...)

	v.renderControls()
	return v, nil
}

// Config returns the effective configuration.
func (v *View) Config() Config { return v.cfg }

// Codec returns a document codec for the configured node key.
func (v *View) Codec() graph.Codec { return graph.NewCodec(v.cfg.NodeKey) }

// Scene returns the retained scene.
func (v *View) Scene() *scene.Scene { return v.scene }

// Viewport returns the viewport controller.
func (v *View) Viewport() *viewport.Controller { return v.viewport }

// Machine returns the edge interaction state machine.
func (v *View) Machine() *interaction.Machine { return v.machine }

// Renderer returns the entity renderer.
func (v *View) Renderer() *render.Renderer { return v.renderer }

// Shapes returns the shape registry.
func (v *View) Shapes() *shapes.Registry { return v.shapes }

// Index returns the current graph snapshot.
func (v *View) Index() *graph.Index { return v.ix }

// Selection returns the current selection.
func (v *View) Selection() graph.Selection { return v.selection }

// Transform returns the current view transform.
func (v *View) Transform() geometry.Transform { return v.scene.Transform() }

// SetGraph runs one configuration pass: the snapshot replaces the previous
// one, entities that disappeared are removed from the scene and every node
// and edge is scheduled for rendering.
func (v *View) SetGraph(nodes []graph.Node, edges []graph.Edge, selected graph.Selection) {
	if v.closed {
		return
	}
	v.ix = graph.NewIndex(nodes, edges)
	v.selection = selected
	v.renderer.SetGraph(v.ix, selected)
	v.renderer.Prune()
	v.renderer.RenderAllNodes()
	v.renderer.RenderAllEdges()
	v.logger.Debug("graph updated", "nodes", len(nodes), "edges", len(edges))
}

// Node returns the node with id as currently drawn.
func (v *View) Node(id string) (graph.Node, bool) { return v.renderer.Node(id) }

// HasEdge reports whether the current snapshot has an edge from source to target.
func (v *View) HasEdge(source, target string) bool { return v.ix.HasEdge(source, target) }

// NodeAt returns the topmost node whose shape contains p, in model coordinates.
func (v *View) NodeAt(p geometry.Point) (graph.Node, bool) {
	nodes := v.ix.Nodes()
	for i := len(nodes) - 1; i >= 0; i-- {
		n, ok := v.renderer.Node(nodes[i].ID)
		if !ok {
			continue
		}
		shape, ok := v.geo.ShapeOf(n.Type)
		if ok && shape.Contains(n.Position(), p) {
			return n, true
		}
	}
	return graph.Node{}, false
}

// EdgeAt returns the topmost edge passing within the pick radius of p, in
// model coordinates.
func (v *View) EdgeAt(p geometry.Point) (graph.Edge, bool) {
	edges := v.ix.Edges()
	for i := len(edges) - 1; i >= 0; i-- {
		seg, ok := v.renderer.EdgeSegment(edges[i])
		if !ok {
			continue
		}
		if seg.DistanceTo(p) <= v.cfg.EdgeArrowSize ||
			geometry.Distance(seg.Midpoint(), p) <= v.cfg.EdgeHandleSize/2 {
			return edges[i], true
		}
	}
	return graph.Edge{}, false
}

// =============================================================================
// Frames
// =============================================================================

// Tick runs one frame and returns how many callbacks ran.
func (v *View) Tick(now time.Time) int {
	if v.closed {
		return 0
	}
	return v.loop.Tick(now)
}

// Settle runs frames from now until nothing is pending, at most max of
// them, and returns the time of the last frame.
func (v *View) Settle(now time.Time, max int) time.Time {
	if v.closed {
		return now
	}
	return v.loop.Settle(now, FrameInterval, max)
}

// Pending returns the number of frame callbacks waiting to run.
func (v *View) Pending() int { return v.loop.Pending() }

// ZoomToFit frames the rendered entities, animated over the configured
// zoom duration unless animate is false.
func (v *View) ZoomToFit(animate bool) {
	if v.closed {
		return
	}
	v.viewport.ZoomToFit(v.duration(animate))
}

func (v *View) duration(animate bool) time.Duration {
	if !animate || v.cfg.ZoomDuration < 0 {
		return 0
	}
	return v.cfg.ZoomDuration
}

// =============================================================================
// Output
// =============================================================================

// WriteSVG writes the scene as a standalone SVG document sized to the
// viewport, with shape definitions and the background grid.
func (v *View) WriteSVG(w io.Writer) error {
	width, height := v.viewport.Size()
	return v.scene.WriteSVG(w,
		scene.WithSize(width, height),
		scene.WithDefs(func(w io.Writer) error { return v.shapes.WriteDefs(w, v.geo.Arrow()) }),
		scene.WithGrid(scene.DefaultGridSpacing, scene.DefaultGridDotSize))
}

// Subscribe registers fn for every scene patch from now on.
func (v *View) Subscribe(fn func(scene.Patch)) (unsubscribe func()) {
	return v.scene.Subscribe(fn)
}

// Snapshot returns patches that rebuild the current scene.
func (v *View) Snapshot() []scene.Patch { return v.scene.Snapshot() }

// Close cancels every pending render and animation. A closed view ignores
// further input.
func (v *View) Close() {
	if v.closed {
		return
	}
	v.closed = true
	v.renderer.Close()
	v.viewport.Close()
	v.loop.Stop()
	v.gesture = gesture{}
}

// Closed reports whether [View.Close] was called.
func (v *View) Closed() bool { return v.closed }
