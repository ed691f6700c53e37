package view

import (
	"github.com/matzehuels/digraph/pkg/geometry"
	"github.com/matzehuels/digraph/pkg/graph"
	"github.com/matzehuels/digraph/pkg/interaction"
	"github.com/matzehuels/digraph/pkg/viewport"
)

// Input tuning.
const (
	// ClickSlop is how far, in viewport pixels, a pointer may travel between
	// down and up and still count as a click.
	ClickSlop = 3
	// WheelZoomFactor converts wheel delta to zoom delta.
	WheelZoomFactor = 0.001
	// KeyZoomStep is the zoom delta of the zoom keys.
	KeyZoomStep = 0.1
)

type gestureKind int

const (
	gestureNone gestureKind = iota
	gesturePan
	gestureNode
	gestureEdge
)

type gesture struct {
	kind           gestureKind
	start          geometry.Point
	startTransform geometry.Transform
	node           graph.Node
	grab           geometry.Point
	edge           graph.Edge
	moved          bool
}

func (v *View) model(ev interaction.Event) geometry.Point {
	return v.scene.Transform().Invert(ev.Position)
}

// PointerDown starts a gesture at the viewport point of ev.
func (v *View) PointerDown(ev interaction.Event) {
	if v.closed {
		return
	}
	if v.controlsDown(ev) {
		return
	}

	p := v.model(ev)
	target := interaction.CanvasTarget()
	if n, ok := v.NodeAt(p); ok {
		target = interaction.NodeTarget(n)
	} else if e, ok := v.EdgeAt(p); ok {
		target = interaction.EdgeTarget(e)
	}

	if v.machine.PointerDown(ev, target) {
		v.gesture = gesture{}
		return
	}

	g := gesture{start: ev.Position, startTransform: v.scene.Transform()}
	switch target.Kind {
	case interaction.TargetNode:
		g.kind = gestureNode
		g.node = *target.Node
		g.grab = p.Sub(target.Node.Position())
	case interaction.TargetEdge:
		g.kind = gestureEdge
		g.edge = *target.Edge
	default:
		g.kind = gesturePan
	}
	v.gesture = g
}

// PointerMove tracks the pointer: it moves the dragged edge or node, pans
// the canvas, or updates the hovered node.
func (v *View) PointerMove(ev interaction.Event) {
	if v.closed {
		return
	}
	if v.machine.PointerMove(ev) {
		return
	}

	g := &v.gesture
	if g.kind != gestureNone && geometry.Distance(ev.Position, g.start) > ClickSlop {
		g.moved = true
	}

	switch g.kind {
	case gestureNode:
		if v.cfg.ReadOnly || !g.moved {
			return
		}
		g.node = g.node.MovedTo(v.model(ev).Sub(g.grab))
		v.renderer.MoveNode(g.node)

	case gesturePan:
		if !g.moved {
			return
		}
		d := ev.Position.Sub(g.start)
		t := g.startTransform
		t.X += d.X
		t.Y += d.Y
		v.viewport.HandleZoom(viewport.Gesture{Transform: t, Pointer: ev})

	case gestureNone:
		if n, ok := v.NodeAt(v.model(ev)); ok {
			v.machine.Hover(&n)
		} else {
			v.machine.Hover(nil)
		}
	}
}

// Hover marks n as the node under the pointer, or clears the hover when n is
// nil. Hosts that hit-test themselves call it instead of PointerMove.
func (v *View) Hover(n *graph.Node) {
	if v.closed {
		return
	}
	v.machine.Hover(n)
}

// PointerUp ends the gesture. Clicks select; a moved node is reported with
// OnUpdateNode; a shift-click on empty canvas proposes a new node.
func (v *View) PointerUp(ev interaction.Event) {
	if v.closed {
		return
	}
	g := v.gesture
	v.gesture = gesture{}
	if v.machine.PointerUp(ev) {
		return
	}

	switch g.kind {
	case gestureNode:
		if g.moved && !v.cfg.ReadOnly {
			if v.cb.OnUpdateNode != nil {
				v.cb.OnUpdateNode(g.node)
			}
			return
		}
		if !g.moved && v.cb.OnSelectNode != nil {
			n := g.node
			v.cb.OnSelectNode(&n)
		}

	case gestureEdge:
		if !g.moved && v.cb.OnSelectEdge != nil {
			e := g.edge
			v.cb.OnSelectEdge(&e)
		}

	case gesturePan:
		if g.moved {
			return
		}
		if ev.Shift && !v.cfg.ReadOnly {
			if v.cb.OnCreateNode != nil {
				v.cb.OnCreateNode(v.model(ev))
			}
			return
		}
		if v.cb.OnSelectNode != nil {
			v.cb.OnSelectNode(nil)
		}
	}
}

// Wheel zooms around the pointer. Positive deltaY zooms out. While an edge
// is dragged the pointer is forwarded to the drag instead.
func (v *View) Wheel(ev interaction.Event, deltaY float64) bool {
	if v.closed {
		return false
	}
	if v.machine.Dragging() {
		v.viewport.HandleZoom(viewport.Gesture{Transform: v.scene.Transform(), Pointer: ev})
		return false
	}
	return v.viewport.ModifyZoom(-deltaY*WheelZoomFactor, ev.Position.X, ev.Position.Y, 0)
}

// KeyDown handles a key press and reports whether the key was used.
//
//	Delete, Backspace  delete the selection
//	Escape             abandon the current gesture
//	+, =, -            zoom around the viewport center
//	f                  zoom to fit
func (v *View) KeyDown(key string) bool {
	if v.closed {
		return false
	}
	switch key {
	case "Delete", "Backspace":
		return v.deleteSelection()
	case "Escape":
		v.machine.Reset()
		v.gesture = gesture{}
		return true
	case "+", "=":
		return v.zoomStep(KeyZoomStep)
	case "-":
		return v.zoomStep(-KeyZoomStep)
	case "f":
		v.viewport.ZoomToFit(v.duration(true))
		return true
	}
	return false
}

func (v *View) zoomStep(delta float64) bool {
	w, h := v.viewport.Size()
	return v.viewport.ModifyZoom(delta, w/2, h/2, v.duration(true))
}

func (v *View) deleteSelection() bool {
	if v.cfg.ReadOnly {
		return false
	}
	switch sel := v.selection; {
	case sel.Node != nil:
		n, ok := v.ix.Node(sel.Node.ID)
		if !ok {
			return false
		}
		if v.cb.OnDeleteNode != nil {
			v.cb.OnDeleteNode(n)
		}
		return true
	case sel.Edge != nil:
		e, ok := v.ix.Edge(sel.Edge.Source, sel.Edge.Target)
		if !ok {
			return false
		}
		if v.cb.OnDeleteEdge != nil {
			v.cb.OnDeleteEdge(e)
		}
		return true
	}
	return false
}
