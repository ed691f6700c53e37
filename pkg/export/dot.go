package export

import (
	"bytes"
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/matzehuels/digraph/pkg/geometry"
	"github.com/matzehuels/digraph/pkg/graph"
	"github.com/matzehuels/digraph/pkg/shapes"
)

// UnitsPerInch converts model units to Graphviz inches.
const UnitsPerInch = 72

// Options configures DOT output.
type Options struct {
	// Shapes resolves node types to Graphviz shapes and sizes. Without a
	// registry every node is drawn as a circle of NodeSize.
	Shapes *shapes.Registry

	// NodeSize is the diameter of nodes whose type resolves to no shape.
	NodeSize float64

	// Detailed appends the node's type and attributes to its label.
	Detailed bool
}

// ToDOT converts a document to Graphviz DOT. Nodes are pinned at their
// model positions, with the y axis flipped to Graphviz's orientation, so the
// output must be laid out with neato.
func ToDOT(doc graph.Document, opts Options) string {
	if opts.NodeSize <= 0 {
		opts.NodeSize = 100
	}

	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	buf.WriteString("  layout=neato;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  splines=true;\n")
	buf.WriteString("  node [style=filled, fillcolor=white, fontsize=14, fixedsize=true];\n")
	buf.WriteString("  edge [fontsize=12];\n")
	buf.WriteString("\n")

	for _, n := range doc.Nodes {
		attrs := nodeAttrs(n, opts)
		fmt.Fprintf(&buf, "  %q [%s];\n", n.ID, strings.Join(attrs, ", "))
	}

	buf.WriteString("\n")
	for _, e := range doc.Edges {
		if !e.Settled() {
			continue
		}
		if e.HandleText != "" {
			fmt.Fprintf(&buf, "  %q -> %q [label=%q];\n", e.Source, e.Target, e.HandleText)
			continue
		}
		fmt.Fprintf(&buf, "  %q -> %q;\n", e.Source, e.Target)
	}

	buf.WriteString("}\n")
	return buf.String()
}

func nodeAttrs(n graph.Node, opts Options) []string {
	shape, size := "circle", geometry.Size{Width: opts.NodeSize, Height: opts.NodeSize}
	rotation := 0.0
	if opts.Shapes != nil {
		if t, ok := opts.Shapes.Node(n.Type); ok {
			shape, size, rotation = dotShape(t.Shape), t.Size(), t.Shape.Rotation
		}
	}

	attrs := []string{
		fmt.Sprintf("label=%q", label(n, opts.Detailed)),
		fmt.Sprintf("pos=%q", fmt.Sprintf("%s,%s!", inches(n.X), inches(-n.Y))),
		fmt.Sprintf("shape=%s", shape),
		fmt.Sprintf("width=%s", inches(size.Width)),
		fmt.Sprintf("height=%s", inches(size.Height)),
	}
	if rotation != 0 {
		attrs = append(attrs, fmt.Sprintf("orientation=%s", geometry.FormatNumber(rotation)))
	}
	return attrs
}

func dotShape(s geometry.Shape) string {
	switch s.Kind {
	case geometry.ShapeRect:
		return "box"
	case geometry.ShapeEllipse:
		if s.Width != s.Height {
			return "ellipse"
		}
	case geometry.ShapePath:
		return "polygon"
	}
	return "circle"
}

func label(n graph.Node, detailed bool) string {
	text := n.Title
	if text == "" {
		text = n.ID
	}
	if !detailed {
		return text
	}

	var parts []string
	if n.Type != "" {
		parts = append(parts, "type: "+n.Type)
	}
	for _, k := range slices.Sorted(maps.Keys(n.Attrs)) {
		parts = append(parts, fmt.Sprintf("%s: %v", k, n.Attrs[k]))
	}
	if len(parts) == 0 {
		return text
	}
	return text + "\n" + strings.Join(parts, "\n")
}

func inches(v float64) string { return geometry.FormatNumber(v / UnitsPerInch) }
