package scene

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/matzehuels/digraph/pkg/geometry"
)

// Grid defaults, in model units.
const (
	DefaultGridSpacing = 36
	DefaultGridDotSize = 2
	DefaultGridSize    = 40960
)

const baseCSS = `
    .node .shape { fill: #fff; stroke: #555; stroke-width: 1; }
    .node.selected .shape { stroke: #4a90e2; stroke-width: 3; }
    .node-text { font: 14px sans-serif; fill: #222; }
    .edge-path { stroke: #555; stroke-width: 2; fill: none; marker-end: url(#end-arrow); }
    .edge.selected .edge-path { stroke: #4a90e2; }
    .edge-text { font: 12px sans-serif; fill: #222; }
    .edge-overlay-path { stroke: transparent; stroke-width: 16; fill: none; }
    .edge-custom .edge-path { stroke-dasharray: 4 4; }
    .arrow { fill: #555; }
    .grid-dot { fill: #ddd; }
    .graph-controls text { font: 12px sans-serif; }`

// SVGOption configures [Scene.WriteSVG].
type SVGOption func(*svgWriter)

type svgWriter struct {
	width, height float64
	defs          func(io.Writer) error
	grid          bool
	gridSpacing   float64
	gridDotSize   float64
	css           string
}

// WithSize sets the SVG viewport size.
func WithSize(w, h float64) SVGOption {
	return func(s *svgWriter) { s.width, s.height = w, h }
}

// WithDefs writes shape definitions before the content.
func WithDefs(fn func(io.Writer) error) SVGOption { return func(s *svgWriter) { s.defs = fn } }

// WithGrid draws the dotted background grid under the entities.
func WithGrid(spacing, dotSize float64) SVGOption {
	return func(s *svgWriter) {
		s.grid = true
		s.gridSpacing, s.gridDotSize = spacing, dotSize
	}
}

// WithCSS replaces the built-in stylesheet.
func WithCSS(css string) SVGOption { return func(s *svgWriter) { s.css = css } }

// WriteSVG writes the scene as a standalone SVG document. The entities layer
// is drawn under the view transform; overlays are drawn in screen space.
func (s *Scene) WriteSVG(w io.Writer, opts ...SVGOption) error {
	sw := svgWriter{width: 800, height: 600, css: baseCSS, gridSpacing: DefaultGridSpacing, gridDotSize: DefaultGridDotSize}
	for _, opt := range opts {
		opt(&sw)
	}

	var buf bytes.Buffer
	fmt.Fprintf(&buf, `<svg xmlns="http://www.w3.org/2000/svg" xmlns:xlink="http://www.w3.org/1999/xlink" viewBox="0 0 %s %s" width="%s" height="%s">`+"\n",
		num(sw.width), num(sw.height), num(sw.width), num(sw.height))
	fmt.Fprintf(&buf, "<style>%s\n</style>\n", sw.css)

	if sw.defs != nil {
		if err := sw.defs(&buf); err != nil {
			return fmt.Errorf("write defs: %w", err)
		}
	}

	fmt.Fprintf(&buf, `<g class="view" transform="%s">`+"\n", s.transform)
	if sw.grid {
		writeGrid(&buf, sw.gridSpacing, sw.gridDotSize)
	}
	buf.WriteString(`<g class="entities">` + "\n")
	for _, el := range s.layers[LayerEntities].elems {
		writeElement(&buf, el)
	}
	buf.WriteString("</g>\n</g>\n")

	for _, el := range s.layers[LayerOverlay].elems {
		writeElement(&buf, el)
	}
	buf.WriteString("</svg>\n")

	_, err := w.Write(buf.Bytes())
	return err
}

func writeElement(buf *bytes.Buffer, el Element) {
	class := el.Class
	if class == "" {
		class = string(el.Kind) + "-container"
	}
	fmt.Fprintf(buf, `<g id="%s" class="%s">%s</g>`+"\n", Escape(el.ID), Escape(class), el.Markup)
}

func writeGrid(buf *bytes.Buffer, spacing, dot float64) {
	half := num(DefaultGridSize / 2)
	fmt.Fprintf(buf, `<defs><pattern id="grid" width="%s" height="%s" patternUnits="userSpaceOnUse">`, num(spacing), num(spacing))
	fmt.Fprintf(buf, `<circle class="grid-dot" cx="%s" cy="%s" r="%s"/></pattern></defs>`+"\n", num(spacing/2), num(spacing/2), num(dot/2))
	fmt.Fprintf(buf, `<rect class="grid" x="-%s" y="-%s" width="%s" height="%s" fill="url(#grid)"/>`+"\n",
		half, half, num(DefaultGridSize), num(DefaultGridSize))
}

func num(v float64) string { return geometry.FormatNumber(v) }

var attrEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;", `"`, "&quot;", "'", "&#39;")

// Escape escapes s for use in XML text and attribute values.
func Escape(s string) string { return attrEscaper.Replace(s) }
