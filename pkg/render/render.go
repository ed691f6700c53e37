package render

import (
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/digraph/pkg/frame"
	"github.com/matzehuels/digraph/pkg/geometry"
	"github.com/matzehuels/digraph/pkg/graph"
	"github.com/matzehuels/digraph/pkg/observability"
	"github.com/matzehuels/digraph/pkg/scene"
	"github.com/matzehuels/digraph/pkg/shapes"
)

// DefaultEdgeHandleSize is the side length of the glyph drawn at the middle
// of every edge.
const DefaultEdgeHandleSize = 50

// DragEdgeID is the element id of the edge being dragged.
const DragEdgeID = "edge-custom"

// NodeTimerKey returns the timer table key of a node render.
func NodeTimerKey(id string) string { return "nodes-" + id }

// EdgeTimerKey returns the timer table key of an edge render.
func EdgeTimerKey(e graph.Edge) string { return "edges-" + edgePart(e, "-") }

// NodeElementID returns the element id of a node.
func NodeElementID(id string) string { return "node-" + id }

// EdgeElementID returns the element id of an edge. Edges that do not resolve
// to a target node are drawn as [DragEdgeID].
func EdgeElementID(e graph.Edge) string {
	if !e.Settled() {
		return DragEdgeID
	}
	return "edge-" + edgePart(e, "-")
}

// ContainerID returns the id of the scene container holding an element.
func ContainerID(elementID string) string { return elementID + "-container" }

// OverlayPathID returns the id of the invisible path that receives pointer
// events for an edge.
func OverlayPathID(e graph.Edge) string { return edgePart(e, "_") }

// idEscaper percent-encodes the separators of edge ids, so "a-b"→"c" and
// "a"→"b-c" get different keys. Ids without '%', '-' or '_' pass unchanged.
var idEscaper = strings.NewReplacer("%", "%25", "-", "%2D", "_", "%5F")

func edgePart(e graph.Edge, sep string) string {
	return idEscaper.Replace(e.Source) + sep + idEscaper.Replace(e.Target)
}

// DragReporter reports whether an edge drag is in progress.
type DragReporter interface {
	Dragging() bool
}

type noDrag struct{}

func (noDrag) Dragging() bool { return false }

// Option configures a [Renderer].
type Option func(*Renderer)

// WithLogger sets the logger for debug output. The default discards.
func WithLogger(l *log.Logger) Option {
	return func(r *Renderer) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithDragReporter sets the source of the drag state consulted by bulk renders.
func WithDragReporter(d DragReporter) Option {
	return func(r *Renderer) {
		if d != nil {
			r.drag = d
		}
	}
}

// WithEdgeHandleSize sets the size of the edge handle glyph.
func WithEdgeHandleSize(s float64) Option {
	return func(r *Renderer) {
		if s > 0 {
			r.handleSize = s
		}
	}
}

// Renderer draws graph entities into a scene. It is not safe for concurrent
// use; it must be driven by the goroutine that ticks its scheduler.
type Renderer struct {
	scene      *scene.Scene
	frames     frame.Scheduler
	geo        *geometry.Engine
	shapes     *shapes.Registry
	drag       DragReporter
	logger     *log.Logger
	handleSize float64

	ix        *graph.Index
	selection graph.Selection
	moved     map[string]graph.Node
	timers    map[string]frame.Handle
	segments  map[string]geometry.Segment
}

// New creates a renderer drawing into sc on the frames of sched. A nil
// registry resolves no shapes.
func New(sc *scene.Scene, sched frame.Scheduler, geo *geometry.Engine, reg *shapes.Registry, opts ...Option) *Renderer {
	if reg == nil {
		reg = shapes.NewRegistry(nil, nil, nil)
	}
	r := &Renderer{
		scene:      sc,
		frames:     sched,
		geo:        geo,
		shapes:     reg,
		drag:       noDrag{},
		logger:     log.New(io.Discard),
		handleSize: DefaultEdgeHandleSize,
		ix:         graph.NewIndex(nil, nil),
		moved:      make(map[string]graph.Node),
		timers:     make(map[string]frame.Handle),
		segments:   make(map[string]geometry.Segment),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// SetGraph replaces the entities edge end points are resolved against, and
// the selection drawn as highlighted. Local node moves are discarded.
func (r *Renderer) SetGraph(ix *graph.Index, sel graph.Selection) {
	if ix == nil {
		ix = graph.NewIndex(nil, nil)
	}
	r.ix = ix
	r.selection = sel
	clear(r.moved)
}

// SetSelection changes the highlighted entity. Nothing is redrawn.
func (r *Renderer) SetSelection(sel graph.Selection) { r.selection = sel }

// Node returns the node with id as it is currently drawn, including local
// moves not yet reported to the owner.
func (r *Renderer) Node(id string) (graph.Node, bool) {
	if n, ok := r.moved[id]; ok {
		return n, true
	}
	return r.ix.Node(id)
}

// EdgeSegment returns the visible segment of the edge as last drawn.
func (r *Renderer) EdgeSegment(e graph.Edge) (geometry.Segment, bool) {
	s, ok := r.segments[EdgeElementID(e)]
	return s, ok
}

// =============================================================================
// Debounced rendering
// =============================================================================

// ScheduleNodeRender draws n on the next frame, replacing any render of the
// same node still pending.
func (r *Renderer) ScheduleNodeRender(n graph.Node) {
	r.schedule(NodeTimerKey(n.ID), "node", n.ID, func() { r.RenderNodeNow(n) })
}

// ScheduleEdgeRender draws e on the next frame, replacing any render of the
// same edge still pending. End points are resolved when the frame runs.
func (r *Renderer) ScheduleEdgeRender(e graph.Edge) {
	e = e.Clone()
	r.schedule(EdgeTimerKey(e), "edge", OverlayPathID(e), func() { r.RenderEdgeNow(e) })
}

func (r *Renderer) schedule(key, kind, id string, fn func()) {
	prev, coalesced := r.timers[key]
	if coalesced {
		r.frames.Cancel(prev)
		r.logger.Debug("coalesced render", "key", key)
	}

	var h frame.Handle
	h = r.frames.Request(func(time.Time) {
		if r.timers[key] == h {
			delete(r.timers, key)
		}
		fn()
	})
	if h == 0 {
		delete(r.timers, key)
		return
	}
	r.timers[key] = h
	observability.Render().OnSchedule(kind, id, coalesced)
}

// Pending returns the number of scheduled renders that have not run.
func (r *Renderer) Pending() int { return len(r.timers) }

// IsScheduled reports whether a render is pending under the timer key.
func (r *Renderer) IsScheduled(key string) bool {
	_, ok := r.timers[key]
	return ok
}

func (r *Renderer) cancel(key string) {
	if h, ok := r.timers[key]; ok {
		r.frames.Cancel(h)
		delete(r.timers, key)
	}
}

// Close cancels every pending render.
func (r *Renderer) Close() {
	for key, h := range r.timers {
		r.frames.Cancel(h)
		delete(r.timers, key)
	}
}

// =============================================================================
// Synchronous rendering
// =============================================================================

// RenderNodeNow draws n immediately and schedules its connected edges. It
// reports whether the scene changed.
func (r *Renderer) RenderNodeNow(n graph.Node) bool {
	changed := r.drawNode(n)
	r.RenderConnectedEdges(n)
	return changed
}

// MoveNode draws n at its new position together with its connected edges,
// all immediately. The position is kept until the next [Renderer.SetGraph].
func (r *Renderer) MoveNode(n graph.Node) {
	r.moved[n.ID] = n
	r.cancel(NodeTimerKey(n.ID))
	r.drawNode(n)
	for _, e := range r.ix.Incident(n.ID) {
		r.RenderEdgeNow(e)
	}
}

func (r *Renderer) drawNode(n graph.Node) bool {
	start := time.Now()
	changed := r.scene.Upsert(scene.LayerEntities, r.nodeElement(n))
	observability.Render().OnRender("node", n.ID, changed, time.Since(start))
	return changed
}

// RenderEdgeNow draws e immediately and reports whether the scene changed.
// An edge whose source or target node is unknown is not drawn.
func (r *Renderer) RenderEdgeNow(e graph.Edge) bool {
	if e.Settled() {
		r.cancel(EdgeTimerKey(e))
	}
	return r.drawEdge(EdgeElementID(e), e)
}

// RenderDragEdge draws the edge being dragged. It is always drawn as
// [DragEdgeID], even while its target is set to a hovered node.
func (r *Renderer) RenderDragEdge(e graph.Edge) bool {
	return r.drawEdge(DragEdgeID, e)
}

// RemoveDragEdge removes the dragged edge from the scene.
func (r *Renderer) RemoveDragEdge() bool {
	delete(r.segments, DragEdgeID)
	return r.scene.Remove(scene.LayerEntities, ContainerID(DragEdgeID))
}

func (r *Renderer) drawEdge(id string, e graph.Edge) bool {
	start := time.Now()
	src, ok := r.Node(e.Source)
	if !ok {
		r.logger.Debug("skip edge without source", "source", e.Source, "target", e.Target)
		return false
	}
	from := r.geo.Resolve(src.Position(), src.Type)

	var to geometry.Endpoint
	switch {
	case e.TargetPosition != nil:
		to = geometry.BarePoint(*e.TargetPosition)
	case e.Target != "":
		trg, ok := r.Node(e.Target)
		if !ok {
			r.logger.Debug("skip edge without target", "source", e.Source, "target", e.Target)
			return false
		}
		to = r.geo.Resolve(trg.Position(), trg.Type)
	default:
		return false
	}

	el, seg := r.edgeElement(id, e, from, to)
	r.segments[id] = seg
	changed := r.scene.Upsert(scene.LayerEntities, el)
	observability.Render().OnRender("edge", OverlayPathID(e), changed, time.Since(start))
	return changed
}

// =============================================================================
// Bulk rendering
// =============================================================================

// RenderAllNodes schedules a render of every node. It does nothing while an
// edge is dragged.
func (r *Renderer) RenderAllNodes() {
	if r.suppressed("nodes") {
		return
	}
	for _, n := range r.ix.Nodes() {
		r.ScheduleNodeRender(n)
	}
}

// RenderAllEdges schedules a render of every edge. It does nothing while an
// edge is dragged.
func (r *Renderer) RenderAllEdges() {
	if r.suppressed("edges") {
		return
	}
	for _, e := range r.ix.Edges() {
		r.ScheduleEdgeRender(e)
	}
}

// RenderConnectedEdges schedules a render of every edge incident to n. It
// does nothing while an edge is dragged.
func (r *Renderer) RenderConnectedEdges(n graph.Node) {
	if r.suppressed("edges") {
		return
	}
	for _, e := range r.ix.Incident(n.ID) {
		r.ScheduleEdgeRender(e)
	}
}

func (r *Renderer) suppressed(kind string) bool {
	if !r.drag.Dragging() {
		return false
	}
	observability.Render().OnSuppress(kind)
	return true
}

// =============================================================================
// Removal
// =============================================================================

// RemoveNode cancels any pending render of the node and removes its container.
func (r *Renderer) RemoveNode(id string) bool {
	r.cancel(NodeTimerKey(id))
	delete(r.moved, id)
	return r.scene.Remove(scene.LayerEntities, ContainerID(NodeElementID(id)))
}

// RemoveEdge cancels any pending render of the edge and removes its container.
func (r *Renderer) RemoveEdge(e graph.Edge) bool {
	r.cancel(EdgeTimerKey(e))
	id := EdgeElementID(e)
	delete(r.segments, id)
	return r.scene.Remove(scene.LayerEntities, ContainerID(id))
}

// Prune removes the containers and pending renders of entities that are no
// longer part of the graph. It returns how many containers were removed.
func (r *Renderer) Prune() int {
	want := make(map[string]bool)
	keys := make(map[string]bool)
	for _, n := range r.ix.Nodes() {
		want[ContainerID(NodeElementID(n.ID))] = true
		keys[NodeTimerKey(n.ID)] = true
	}
	for _, e := range r.ix.Edges() {
		want[ContainerID(EdgeElementID(e))] = true
		keys[EdgeTimerKey(e)] = true
	}

	for key := range r.timers {
		if !keys[key] {
			r.cancel(key)
		}
	}

	removed := 0
	for _, kind := range []scene.Kind{scene.KindNode, scene.KindEdge} {
		for _, id := range r.scene.IDs(scene.LayerEntities, kind) {
			if want[id] {
				continue
			}
			if r.scene.Remove(scene.LayerEntities, id) {
				removed++
			}
		}
	}
	for id := range r.segments {
		if id != DragEdgeID && !want[ContainerID(id)] {
			delete(r.segments, id)
		}
	}
	if removed > 0 {
		r.logger.Debug("pruned containers", "count", removed)
	}
	return removed
}
