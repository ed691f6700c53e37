package view

import (
	"fmt"
	"math"
	"strings"

	"github.com/matzehuels/digraph/pkg/geometry"
	"github.com/matzehuels/digraph/pkg/interaction"
	"github.com/matzehuels/digraph/pkg/scene"
)

// GraphControlsID is the overlay element id of the graph controls panel.
const GraphControlsID = "graph-controls"

// Graph controls layout, in viewport pixels.
const (
	controlsX      = 10
	controlsY      = 10
	controlsWidth  = 232
	controlsHeight = 36
	fitButtonSize  = 24
	fitButtonInset = 6
	sliderX        = 40
	sliderY        = 18
	sliderWidth    = 140
	sliderPick     = 8
	thumbRadius    = 6
	zoomLabelX     = 190
	zoomLabelY     = 22
)

func controlsRect() geometry.Rect {
	return geometry.Rect{X: controlsX, Y: controlsY, Width: controlsWidth, Height: controlsHeight}
}

func fitButtonRect() geometry.Rect {
	return geometry.Rect{
		X:      controlsX + fitButtonInset,
		Y:      controlsY + fitButtonInset,
		Width:  fitButtonSize,
		Height: fitButtonSize,
	}
}

// sliderFraction maps k to the thumb position along the slider.
func (v *View) sliderFraction(k float64) float64 {
	span := v.cfg.MaxZoom - v.cfg.MinZoom
	if span <= 0 {
		return 1
	}
	return math.Min(math.Max((k-v.cfg.MinZoom)/span, 0), 1)
}

func (v *View) renderControls() {
	if !v.cfg.ShowGraphControls {
		return
	}
	k := v.scene.Transform().K

	var b strings.Builder
	fmt.Fprintf(&b, `<g class="graph-controls-wrapper" transform="translate(%d, %d)">`, controlsX, controlsY)
	fmt.Fprintf(&b, `<rect class="graph-controls-bg" width="%d" height="%d" rx="4"/>`, controlsWidth, controlsHeight)
	fmt.Fprintf(&b, `<g class="zoom-to-fit" transform="translate(%d, %d)"><title>Zoom to fit</title>`, fitButtonInset, fitButtonInset)
	fmt.Fprintf(&b, `<rect width="%d" height="%d" rx="3"/>`, fitButtonSize, fitButtonSize)
	b.WriteString(`<path d="M4,9V4H9M15,4H20V9M20,15V20H15M9,20H4V15"/></g>`)
	fmt.Fprintf(&b, `<g class="slider" transform="translate(%d, %d)">`, sliderX, sliderY)
	fmt.Fprintf(&b, `<line class="slider-track" x1="0" y1="0" x2="%d" y2="0"/>`, sliderWidth)
	fmt.Fprintf(&b, `<circle class="slider-thumb" cx="%s" cy="0" r="%d"/></g>`,
		geometry.FormatNumber(v.sliderFraction(k)*sliderWidth), thumbRadius)
	fmt.Fprintf(&b, `<text class="zoom-level" x="%d" y="%d">%d%%</text>`, zoomLabelX, zoomLabelY, int(math.Round(k*100)))
	b.WriteString("</g>")

	v.scene.Upsert(scene.LayerOverlay, scene.Element{
		ID:     GraphControlsID,
		Kind:   scene.KindOverlay,
		Class:  "graph-controls",
		Markup: b.String(),
		Bounds: controlsRect(),
	})
}

// controlsDown handles a pointer-down on the graph controls and reports
// whether it landed there.
func (v *View) controlsDown(ev interaction.Event) bool {
	if !v.cfg.ShowGraphControls || !controlsRect().Contains(ev.Position) {
		return false
	}
	if fitButtonRect().Contains(ev.Position) {
		v.viewport.ZoomToFit(v.duration(true))
		return true
	}

	x := ev.Position.X - (controlsX + sliderX)
	y := ev.Position.Y - (controlsY + sliderY)
	if x >= 0 && x <= sliderWidth && math.Abs(y) <= sliderPick {
		k := v.cfg.MinZoom + x/sliderWidth*(v.cfg.MaxZoom-v.cfg.MinZoom)
		w, h := v.viewport.Size()
		center := geometry.Point{X: w / 2, Y: h / 2}
		m := v.scene.Transform().Invert(center)
		v.viewport.SetZoom(k, center.X-m.X*k, center.Y-m.Y*k, 0)
	}
	return true
}
