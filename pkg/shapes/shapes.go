// Package shapes resolves node and edge type names to shape templates.
//
// A template pairs the id of an SVG symbol, referenced from rendered
// entities with <use href="#...">, with the [geometry.Shape] the geometry
// engine intersects edges against. Three catalogs are kept, as a diagram
// configures them: node types, node subtypes drawn on top of the type, and
// edge types drawn as the edge handle glyph.
//
// Types missing from a catalog fall back to [EmptyNode] or [EmptyEdge] when
// those entries exist.
package shapes

import (
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/matzehuels/digraph/pkg/geometry"
)

// Fallback catalog entries.
const (
	EmptyNode = "emptyNode"
	EmptyEdge = "emptyEdge"
)

// ArrowMarkerID is the id of the arrowhead marker written by [Registry.WriteDefs].
const ArrowMarkerID = "end-arrow"

// Template describes how one type is drawn.
type Template struct {
	// ShapeID references the symbol, with or without a leading "#".
	ShapeID string
	Shape   geometry.Shape
	// Markup optionally replaces the symbol body generated from Shape.
	Markup string
	// TypeText is a short caption drawn inside the node, if any.
	TypeText string
}

// Href returns the symbol reference for use elements.
func (t Template) Href() string {
	if t.ShapeID == "" || strings.HasPrefix(t.ShapeID, "#") {
		return t.ShapeID
	}
	return "#" + t.ShapeID
}

// SymbolID returns the symbol id without the leading "#".
func (t Template) SymbolID() string { return strings.TrimPrefix(t.ShapeID, "#") }

// Size returns the drawn size of the symbol: the shape's declared size, or
// the size of its bounding box when none is declared.
func (t Template) Size() geometry.Size {
	if t.Shape.Width > 0 && t.Shape.Height > 0 {
		return geometry.Size{Width: t.Shape.Width, Height: t.Shape.Height}
	}
	bb := t.Shape.Bounds(geometry.Point{})
	return geometry.Size{Width: bb.Width, Height: bb.Height}
}

// Catalog maps type names to templates.
type Catalog map[string]Template

// Registry resolves types against the three catalogs. It is read-only after
// construction and implements [geometry.Registry] over node types.
type Registry struct {
	nodes    Catalog
	subtypes Catalog
	edges    Catalog
}

// NewRegistry creates a registry. Nil catalogs are treated as empty.
func NewRegistry(nodeTypes, nodeSubtypes, edgeTypes Catalog) *Registry {
	return &Registry{
		nodes:    orEmpty(nodeTypes),
		subtypes: orEmpty(nodeSubtypes),
		edges:    orEmpty(edgeTypes),
	}
}

// Default returns the registry used when a diagram configures no types.
func Default() *Registry {
	return NewRegistry(
		Catalog{
			EmptyNode: {ShapeID: "#empty", Shape: geometry.Circle(100)},
			"empty":   {ShapeID: "#empty", Shape: geometry.Circle(100)},
			"special": {ShapeID: "#special", Shape: geometry.Shape{Kind: geometry.ShapeRect, Width: 100, Height: 100, Rotation: 45}},
			"skinny":  {ShapeID: "#skinny", Shape: geometry.Shape{Kind: geometry.ShapeRect, Width: 154, Height: 54}},
			"poly":    {ShapeID: "#poly", Shape: geometry.Shape{Kind: geometry.ShapePath, Path: "M50,0 L100,25 L100,75 L50,100 L0,75 L0,25 Z"}},
		},
		Catalog{
			"specialChild": {ShapeID: "#specialChild", Shape: geometry.Shape{Kind: geometry.ShapeRect, Width: 90, Height: 90, Rotation: 45}},
		},
		Catalog{
			EmptyEdge: {ShapeID: "#emptyEdge", Shape: geometry.Circle(24)},
		},
	)
}

// Node resolves a node type, falling back to [EmptyNode].
func (r *Registry) Node(typeName string) (Template, bool) { return lookup(r.nodes, typeName, EmptyNode) }

// Subtype resolves a node subtype. There is no fallback.
func (r *Registry) Subtype(name string) (Template, bool) { return lookup(r.subtypes, name, "") }

// Edge resolves an edge type, falling back to [EmptyEdge].
func (r *Registry) Edge(typeName string) (Template, bool) { return lookup(r.edges, typeName, EmptyEdge) }

// Shape implements geometry.Registry.
func (r *Registry) Shape(typeName string) (geometry.Shape, bool) {
	t, ok := r.Node(typeName)
	return t.Shape, ok
}

// NodeTypes returns the configured node type names, sorted.
func (r *Registry) NodeTypes() []string { return sortedKeys(r.nodes) }

// WriteDefs writes an SVG defs element holding a symbol per distinct shape id
// and the arrowhead marker. Symbols are sized to their shape and centered on
// the origin of their viewBox.
func (r *Registry) WriteDefs(w io.Writer, arrow geometry.Size) error {
	var b strings.Builder
	b.WriteString("<defs>\n")

	seen := make(map[string]bool)
	for _, cat := range []Catalog{r.nodes, r.subtypes, r.edges} {
		for _, name := range sortedKeys(cat) {
			t := cat[name]
			id := t.SymbolID()
			if id == "" || seen[id] {
				continue
			}
			seen[id] = true
			writeSymbol(&b, id, name, t)
		}
	}

	fmt.Fprintf(&b, `  <marker id="%s" viewBox="0 -%s %s %s" refX="%s" markerWidth="%s" markerHeight="%s" orient="auto">`+"\n",
		ArrowMarkerID,
		geometry.FormatNumber(arrow.Height/2), geometry.FormatNumber(arrow.Width), geometry.FormatNumber(arrow.Height),
		geometry.FormatNumber(arrow.Width/2), geometry.FormatNumber(arrow.Width), geometry.FormatNumber(arrow.Height))
	fmt.Fprintf(&b, `    <path class="arrow" d="M0,-%[1]sL%[2]s,0L0,%[1]s"/>`+"\n",
		geometry.FormatNumber(arrow.Height/2), geometry.FormatNumber(arrow.Width))
	b.WriteString("  </marker>\n")
	b.WriteString("</defs>\n")

	_, err := io.WriteString(w, b.String())
	return err
}

func writeSymbol(b *strings.Builder, id, name string, t Template) {
	s := t.Shape
	size := t.Size()
	w, h := size.Width, size.Height
	fmt.Fprintf(b, `  <symbol id="%s" class="shape-%s" viewBox="0 0 %s %s" overflow="visible">`+"\n",
		escape(id), escape(name), geometry.FormatNumber(w), geometry.FormatNumber(h))

	body := t.Markup
	if body == "" {
		body = markup(s, w, h)
	}
	if body != "" {
		fmt.Fprintf(b, "    %s\n", body)
	}
	b.WriteString("  </symbol>\n")
}

func markup(s geometry.Shape, w, h float64) string {
	cx, cy := geometry.FormatNumber(w/2), geometry.FormatNumber(h/2)
	switch s.Kind {
	case geometry.ShapeRect:
		rot := ""
		if s.Rotation != 0 {
			rot = fmt.Sprintf(` transform="rotate(%s %s %s)"`, geometry.FormatNumber(s.Rotation), cx, cy)
		}
		return fmt.Sprintf(`<rect width="%s" height="%s"%s/>`, geometry.FormatNumber(s.Width), geometry.FormatNumber(s.Height), rot)
	case geometry.ShapePath:
		return fmt.Sprintf(`<path d="%s"/>`, escape(s.Path))
	default:
		return fmt.Sprintf(`<ellipse cx="%s" cy="%s" rx="%s" ry="%s"/>`, cx, cy, cx, cy)
	}
}

func lookup(c Catalog, name, fallback string) (Template, bool) {
	if t, ok := c[name]; ok && name != "" {
		return t, true
	}
	if fallback != "" {
		if t, ok := c[fallback]; ok {
			return t, true
		}
	}
	return Template{}, false
}

func orEmpty(c Catalog) Catalog {
	if c == nil {
		return Catalog{}
	}
	return c
}

func sortedKeys(c Catalog) []string {
	keys := make([]string, 0, len(c))
	for k := range c {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

var xmlEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;", `"`, "&quot;", "'", "&#39;")

func escape(s string) string { return xmlEscaper.Replace(s) }
