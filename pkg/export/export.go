package export

import (
	"bytes"
	"context"
	"strings"
	"time"

	"github.com/matzehuels/digraph/pkg/errors"
	"github.com/matzehuels/digraph/pkg/graph"
	"github.com/matzehuels/digraph/pkg/view"
)

// Format names an export format.
type Format string

const (
	// FormatSVG is the scene as an interactive view draws it.
	FormatSVG Format = "svg"
	// FormatDOT is Graphviz source.
	FormatDOT Format = "dot"
	// FormatGraphviz is SVG drawn by Graphviz.
	FormatGraphviz Format = "graphviz"
	// FormatPDF and FormatPNG convert the scene SVG with librsvg.
	FormatPDF Format = "pdf"
	FormatPNG Format = "png"
)

// Formats lists every supported format.
var Formats = []Format{FormatSVG, FormatDOT, FormatGraphviz, FormatPDF, FormatPNG}

// ParseFormat resolves a format name, case-insensitively.
func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Formats {
		if f == known {
			return f, nil
		}
	}
	return "", errors.New(errors.ErrCodeInvalidFormat, "unknown export format %q", s)
}

// Ext returns the file extension for f.
func (f Format) Ext() string {
	if f == FormatGraphviz {
		return ".svg"
	}
	return "." + string(f)
}

// RenderOptions configures [Render].
type RenderOptions struct {
	// View configures the scene rendering. Its shape catalogs also drive
	// the Graphviz shapes.
	View view.Config
	// Fit zooms the scene to fit the viewport before it is written.
	Fit bool
	// Scale is the PNG resolution factor.
	Scale float64
	// Detailed adds types and attributes to Graphviz labels.
	Detailed bool
}

// maxSettleFrames bounds the frames run while settling a scene.
const maxSettleFrames = 1000

// Render renders doc in format f.
func Render(ctx context.Context, doc graph.Document, f Format, opts RenderOptions) ([]byte, error) {
	switch f {
	case FormatDOT, FormatGraphviz:
		v, err := view.New(opts.View, view.Callbacks{})
		if err != nil {
			return nil, err
		}
		defer v.Close()
		dot := ToDOT(doc, Options{Shapes: v.Shapes(), NodeSize: v.Config().NodeSize, Detailed: opts.Detailed})
		if f == FormatDOT {
			return []byte(dot), nil
		}
		return RenderSVG(ctx, dot)
	}

	svg, err := SceneSVG(doc, opts.View, opts.Fit)
	if err != nil {
		return nil, err
	}
	switch f {
	case FormatSVG:
		return svg, nil
	case FormatPDF:
		return ToPDF(ctx, svg)
	case FormatPNG:
		return ToPNG(ctx, svg, opts.Scale)
	}
	return nil, errors.New(errors.ErrCodeInvalidFormat, "unknown export format %q", f)
}

// SceneSVG draws doc in a headless view and returns the view's SVG. The
// view is settled, and optionally zoomed to fit, before it is written.
func SceneSVG(doc graph.Document, cfg view.Config, fit bool) ([]byte, error) {
	v, err := view.New(cfg, view.Callbacks{})
	if err != nil {
		return nil, err
	}
	defer v.Close()

	v.SetGraph(doc.Nodes, doc.Edges, graph.Selection{})
	now := v.Settle(time.Unix(0, 0), maxSettleFrames)
	if fit {
		v.ZoomToFit(false)
		v.Settle(now, maxSettleFrames)
	}

	var buf bytes.Buffer
	if err := v.WriteSVG(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
