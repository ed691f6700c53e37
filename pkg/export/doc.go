// Package export converts graph documents to static formats.
//
// Two renderings are offered. The scene rendering draws a document exactly
// as an interactive view would, shapes and all, through [view.View.WriteSVG].
// The Graphviz rendering emits DOT with every node pinned at its position
// and lets Graphviz draw it, which gives portable output and PDF/PNG
// conversion through librsvg:
//
//	dot := export.ToDOT(doc, export.Options{Shapes: shapes.Default()})
//	svg, err := export.RenderSVG(ctx, dot)
//	pdf, err := export.ToPDF(ctx, svg)
//
// [Render] dispatches on a [Format] name for command-line hosts.
package export
