package interaction

import (
	"io"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/digraph/pkg/geometry"
	"github.com/matzehuels/digraph/pkg/graph"
)

// DefaultEdgeArrowSize is the pick radius around an edge's target end.
const DefaultEdgeArrowSize = 8

// State is a gesture state.
type State int

const (
	Idle State = iota
	PanZoom
	DraggingNewEdge
	DraggingExistingEdge
)

func (s State) String() string {
	switch s {
	case PanZoom:
		return "pan-zoom"
	case DraggingNewEdge:
		return "dragging-new-edge"
	case DraggingExistingEdge:
		return "dragging-existing-edge"
	default:
		return "idle"
	}
}

// Pointer buttons, as a bit mask.
const (
	ButtonPrimary   = 1
	ButtonSecondary = 2
)

// Event is a pointer event in viewport coordinates.
type Event struct {
	Position geometry.Point
	Buttons  int
	Shift    bool
}

// Secondary reports whether the secondary button is pressed.
func (e Event) Secondary() bool { return e.Buttons&ButtonSecondary != 0 }

// TargetKind classifies what a pointer-down landed on.
type TargetKind int

const (
	TargetCanvas TargetKind = iota
	TargetNode
	TargetEdge
)

// Target is the entity under a pointer-down.
type Target struct {
	Kind TargetKind
	Node *graph.Node
	Edge *graph.Edge
}

// CanvasTarget returns the target for empty canvas.
func CanvasTarget() Target { return Target{Kind: TargetCanvas} }

// NodeTarget returns the target for a node.
func NodeTarget(n graph.Node) Target { return Target{Kind: TargetNode, Node: &n} }

// EdgeTarget returns the target for an edge.
func EdgeTarget(e graph.Edge) Target { return Target{Kind: TargetEdge, Edge: &e} }

// DragState is the state of an edge drag. DraggedEdge is non-nil exactly
// when DraggingEdge is true.
type DragState struct {
	DraggingEdge bool
	DraggedEdge  *graph.Edge
	EdgeEndNode  *graph.Node
	HoveredNode  *graph.Node
}

// Graph answers the questions the machine asks about the current graph.
type Graph interface {
	Node(id string) (graph.Node, bool)
	HasEdge(source, target string) bool
}

// HitTester finds the node under a point in model coordinates.
type HitTester interface {
	NodeAt(p geometry.Point) (graph.Node, bool)
}

// EdgeDrawer draws the edges a gesture touches.
type EdgeDrawer interface {
	RenderDragEdge(e graph.Edge) bool
	RemoveDragEdge() bool
	RenderEdgeNow(e graph.Edge) bool
	RemoveEdge(e graph.Edge) bool
	EdgeSegment(e graph.Edge) (geometry.Segment, bool)
}

// TransformSource supplies the current view transform.
type TransformSource interface {
	Transform() geometry.Transform
}

// Collaborators are the parts of the view a machine drives.
type Collaborators struct {
	Graph     Graph
	Hits      HitTester
	Edges     EdgeDrawer
	Transform TransformSource
}

// Intents receive the changes a finished gesture proposes. Nil fields are
// ignored.
type Intents struct {
	OnCreateEdge func(source, target graph.Node)
	OnSwapEdge   func(source, newTarget graph.Node, old graph.Edge)
}

// Config controls which gestures are allowed.
type Config struct {
	ReadOnly       bool
	AllowSelfLoops bool
	EdgeArrowSize  float64
}

// Option configures a [Machine].
type Option func(*Machine)

// WithLogger sets the logger for debug output. The default discards.
func WithLogger(l *log.Logger) Option {
	return func(m *Machine) {
		if l != nil {
			m.logger = l
		}
	}
}

// WithIntents sets the callbacks fired on release.
func WithIntents(in Intents) Option { return func(m *Machine) { m.intents = in } }

// Machine is the edge gesture state machine. It is not safe for concurrent use.
type Machine struct {
	cfg     Config
	env     Collaborators
	intents Intents
	logger  *log.Logger

	state    State
	drag     DragState
	original *graph.Edge
}

// New creates an idle machine.
func New(cfg Config, env Collaborators, opts ...Option) *Machine {
	if cfg.EdgeArrowSize <= 0 {
		cfg.EdgeArrowSize = DefaultEdgeArrowSize
	}
	m := &Machine{cfg: cfg, env: env, logger: log.New(io.Discard)}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// SetGraph replaces the graph duplicate checks run against.
func (m *Machine) SetGraph(g Graph) { m.env.Graph = g }

// State returns the current state.
func (m *Machine) State() State { return m.state }

// Drag returns a copy of the drag state.
func (m *Machine) Drag() DragState {
	d := m.drag
	if d.DraggedEdge != nil {
		e := d.DraggedEdge.Clone()
		d.DraggedEdge = &e
	}
	return d
}

// Dragging reports whether an edge drag is in progress.
func (m *Machine) Dragging() bool { return m.drag.DraggingEdge }

// ReadOnly reports whether edge gestures are disabled.
func (m *Machine) ReadOnly() bool { return m.cfg.ReadOnly }

// =============================================================================
// Transitions
// =============================================================================

// PointerDown starts a gesture on target and reports whether an edge drag
// began. A pointer-down on the canvas enters [PanZoom].
func (m *Machine) PointerDown(ev Event, target Target) bool {
	if m.state != Idle {
		return m.Dragging()
	}
	switch target.Kind {
	case TargetNode:
		if target.Node == nil || !ev.Shift || m.cfg.ReadOnly {
			return false
		}
		p := m.modelPoint(ev)
		m.begin(DraggingNewEdge, graph.Edge{Source: target.Node.ID, TargetPosition: &p})
		m.logger.Debug("drag new edge", "source", target.Node.ID)
		return true

	case TargetEdge:
		if target.Edge == nil || m.cfg.ReadOnly || !(ev.Secondary() || ev.Shift) {
			return false
		}
		if !m.onArrow(ev, *target.Edge) {
			return false
		}
		orig := target.Edge.Clone()
		m.original = &orig
		m.begin(DraggingExistingEdge, orig.Clone())
		if m.env.Edges != nil {
			m.env.Edges.RemoveEdge(orig)
		}
		m.logger.Debug("drag existing edge", "source", orig.Source, "target", orig.Target)
		return true

	default:
		m.state = PanZoom
		return false
	}
}

func (m *Machine) begin(s State, e graph.Edge) {
	m.state = s
	m.drag = DragState{DraggingEdge: true, DraggedEdge: &e, HoveredNode: m.drag.HoveredNode}
}

func (m *Machine) onArrow(ev Event, e graph.Edge) bool {
	if m.env.Edges == nil {
		return false
	}
	seg, ok := m.env.Edges.EdgeSegment(e)
	if !ok {
		return false
	}
	return geometry.Distance(m.modelPoint(ev), seg.To) <= m.cfg.EdgeArrowSize
}

// PointerMove tracks the pointer during an edge drag and redraws the dragged
// edge. It reports whether the event was consumed by a drag.
func (m *Machine) PointerMove(ev Event) bool {
	if !m.drag.DraggingEdge {
		return false
	}
	p := m.modelPoint(ev)
	e := m.drag.DraggedEdge

	var hit *graph.Node
	if m.env.Hits != nil {
		if n, ok := m.env.Hits.NodeAt(p); ok {
			hit = &n
		}
	}
	m.drag.HoveredNode = hit
	m.drag.EdgeEndNode = hit
	if hit != nil {
		e.Target = hit.ID
		e.TargetPosition = nil
	} else {
		e.Target = ""
		e.TargetPosition = &p
	}

	if m.env.Edges != nil {
		m.env.Edges.RenderDragEdge(*e)
	}
	return true
}

// PointerUp ends the gesture. A dragged edge is committed when its end node
// qualifies and discarded otherwise. It reports whether an edge drag ended.
//
// The drag is cleared before an intent fires, so an owner that answers with a
// new snapshot right away finds the machine idle.
func (m *Machine) PointerUp(Event) bool {
	var intent func()
	switch m.state {
	case DraggingNewEdge:
		intent = m.finishNew()
	case DraggingExistingEdge:
		intent = m.finishSwap()
	default:
		m.state = Idle
		return false
	}
	m.clear()
	if intent != nil {
		intent()
	}
	return true
}

func (m *Machine) finishNew() func() {
	edge, end := *m.drag.DraggedEdge, m.drag.EdgeEndNode
	src, ok := m.node(edge.Source)
	if !ok || !m.CanCreate(src, end) {
		m.logger.Debug("discard new edge", "source", edge.Source)
		return nil
	}
	if m.intents.OnCreateEdge == nil {
		return nil
	}
	tgt := *end
	return func() { m.intents.OnCreateEdge(src, tgt) }
}

func (m *Machine) finishSwap() func() {
	old, end := *m.original, m.drag.EdgeEndNode
	src, ok := m.node(old.Source)
	if !ok || !m.CanSwap(old, end) {
		m.logger.Debug("discard edge swap", "source", old.Source, "target", old.Target)
		if m.env.Edges != nil {
			m.env.Edges.RenderEdgeNow(old)
		}
		return nil
	}
	swapped := old.Clone()
	swapped.Target = end.ID
	swapped.TargetPosition = nil
	if m.env.Edges != nil {
		m.env.Edges.RenderEdgeNow(swapped)
	}
	if m.intents.OnSwapEdge == nil {
		return nil
	}
	tgt := *end
	return func() { m.intents.OnSwapEdge(src, tgt, old) }
}

// Hover records the node under the pointer outside of a drag.
func (m *Machine) Hover(n *graph.Node) {
	if m.drag.DraggingEdge {
		return
	}
	if n != nil {
		c := *n
		n = &c
	}
	m.drag.HoveredNode = n
}

// Reset abandons any gesture. A dragged existing edge is drawn back at its
// original target.
func (m *Machine) Reset() {
	if m.state == DraggingExistingEdge && m.original != nil && m.env.Edges != nil {
		m.env.Edges.RenderEdgeNow(*m.original)
	}
	m.clear()
}

func (m *Machine) clear() {
	if m.drag.DraggingEdge && m.env.Edges != nil {
		m.env.Edges.RemoveDragEdge()
	}
	m.state = Idle
	m.drag = DragState{}
	m.original = nil
}

// =============================================================================
// Guards
// =============================================================================

// CanCreate reports whether an edge from source to end may be created.
func (m *Machine) CanCreate(source graph.Node, end *graph.Node) bool {
	if end == nil {
		return false
	}
	if end.ID == source.ID && !m.cfg.AllowSelfLoops {
		return false
	}
	return !m.hasEdge(source.ID, end.ID)
}

// CanSwap reports whether edge may be retargeted to end. Retargeting onto
// the current target is a duplicate and not allowed.
func (m *Machine) CanSwap(edge graph.Edge, end *graph.Node) bool {
	if end == nil {
		return false
	}
	if end.ID == edge.Source && !m.cfg.AllowSelfLoops {
		return false
	}
	return !m.hasEdge(edge.Source, end.ID)
}

func (m *Machine) hasEdge(source, target string) bool {
	return m.env.Graph != nil && m.env.Graph.HasEdge(source, target)
}

func (m *Machine) node(id string) (graph.Node, bool) {
	if m.env.Graph == nil {
		return graph.Node{}, false
	}
	return m.env.Graph.Node(id)
}

func (m *Machine) modelPoint(ev Event) geometry.Point {
	if m.env.Transform == nil {
		return ev.Position
	}
	return m.env.Transform.Transform().Invert(ev.Position)
}
