package render

import (
	"fmt"
	"strings"

	"github.com/matzehuels/digraph/pkg/geometry"
	"github.com/matzehuels/digraph/pkg/graph"
	"github.com/matzehuels/digraph/pkg/scene"
	"github.com/matzehuels/digraph/pkg/shapes"
)

func (r *Renderer) nodeElement(n graph.Node) scene.Element {
	c := n.Position()
	class := "node"
	if r.selection.HasNode(n.ID) {
		class += " selected"
	}

	var b strings.Builder
	fmt.Fprintf(&b, `<g id="%s" class="%s" transform="translate(%s, %s)">`,
		scene.Escape(NodeElementID(n.ID)), class, num(c.X), num(c.Y))

	shape, _ := r.geo.ShapeOf(n.Type)
	if t, ok := r.shapes.Node(n.Type); ok {
		writeUse(&b, "shape", t)
		if t.TypeText != "" {
			fmt.Fprintf(&b, `<text class="type-text" text-anchor="middle" y="%s">%s</text>`,
				num(-t.Size().Height/4), scene.Escape(t.TypeText))
		}
	} else {
		bb := shape.Bounds(geometry.Point{})
		fmt.Fprintf(&b, `<ellipse class="shape" rx="%s" ry="%s"/>`, num(bb.Width/2), num(bb.Height/2))
	}
	if n.Subtype != "" {
		if t, ok := r.shapes.Subtype(n.Subtype); ok {
			writeUse(&b, "subtype-shape", t)
		}
	}
	if n.Title != "" {
		fmt.Fprintf(&b, `<text class="node-text" text-anchor="middle" alignment-baseline="central">%s</text>`,
			scene.Escape(n.Title))
	}
	b.WriteString("</g>")

	return scene.Element{
		ID:     ContainerID(NodeElementID(n.ID)),
		Kind:   scene.KindNode,
		Markup: b.String(),
		Bounds: shape.Bounds(c),
	}
}

// writeUse references a symbol centered on the node origin.
func writeUse(b *strings.Builder, class string, t shapes.Template) {
	s := t.Size()
	fmt.Fprintf(b, `<use class="%s" href="%s" xlink:href="%s" x="%s" y="%s" width="%s" height="%s"/>`,
		class, scene.Escape(t.Href()), scene.Escape(t.Href()),
		num(-s.Width/2), num(-s.Height/2), num(s.Width), num(s.Height))
}

func (r *Renderer) edgeElement(id string, e graph.Edge, from, to geometry.Endpoint) (scene.Element, geometry.Segment) {
	seg := r.geo.Segment(from, to)
	d := geometry.LinePath(seg)
	src, trg := scene.Escape(e.Source), scene.Escape(e.Target)

	class := "edge"
	if id != DragEdgeID && r.selection.HasEdge(e) {
		class += " selected"
	}

	var b strings.Builder
	fmt.Fprintf(&b, `<g id="%s" class="edge-container" data-source="%s" data-target="%s">`, scene.Escape(id), src, trg)
	fmt.Fprintf(&b, `<g class="%s">`, class)
	fmt.Fprintf(&b, `<path class="edge-path" d="%s"/>`, d)
	if t, ok := r.shapes.Edge(e.Type); ok {
		href := scene.Escape(t.Href())
		fmt.Fprintf(&b, `<use class="edge-handle" href="%s" xlink:href="%s" width="%s" height="%s" transform="%s"/>`,
			href, href, num(r.handleSize), num(r.handleSize), seg.HandleTransform(from.Center, to.Center, r.handleSize))
	}
	if e.HandleText != "" {
		fmt.Fprintf(&b, `<text class="edge-text" text-anchor="middle" alignment-baseline="central" transform="%s">%s</text>`,
			seg.MidpointTransform(), scene.Escape(e.HandleText))
	}
	b.WriteString("</g>")
	fmt.Fprintf(&b, `<g class="edge-mouse-handler"><path class="edge-overlay-path" id="%s" data-source="%s" data-target="%s" d="%s"/></g>`,
		scene.Escape(OverlayPathID(e)), src, trg, d)
	b.WriteString("</g>")

	kind := scene.KindEdge
	if id == DragEdgeID {
		kind = scene.KindDragEdge
	}
	return scene.Element{
		ID:     ContainerID(id),
		Kind:   kind,
		Markup: b.String(),
		Bounds: geometry.BoundsOf(seg.From, seg.To),
	}, seg
}

func num(v float64) string { return geometry.FormatNumber(v) }
