// Package viewport owns the pan and zoom transform of a view.
//
// A [Controller] clamps the zoom factor to a configured range, animates
// transitions on a [frame.Scheduler] and frames the rendered entities with
// [Controller.ZoomToFit]. Only the latest zoom command is ever animated: a
// new command cancels the interpolation in flight.
//
// Raw pan and zoom gestures are routed through [Controller.HandleZoom], which
// hands them to the edge interaction instead while an edge is dragged.
package viewport

import (
	"io"
	"math"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/digraph/pkg/frame"
	"github.com/matzehuels/digraph/pkg/geometry"
	"github.com/matzehuels/digraph/pkg/interaction"
	"github.com/matzehuels/digraph/pkg/observability"
)

// Defaults.
const (
	DefaultMinZoom      = 0.15
	DefaultMaxZoom      = 1.5
	DefaultZoomDuration = 750 * time.Millisecond
	DefaultWidth        = 800
	DefaultHeight       = 600

	// FitPadding is the share of the viewport the bounding box fills after
	// zooming to fit.
	FitPadding = 0.9
)

// Config holds the zoom range and the fallback viewport size.
type Config struct {
	MinZoom      float64
	MaxZoom      float64
	ZoomDuration time.Duration
	// Width and Height are used when the container cannot report its size.
	Width  float64
	Height float64
}

func (c Config) withDefaults() Config {
	if c.MinZoom <= 0 {
		c.MinZoom = DefaultMinZoom
	}
	if c.MaxZoom <= 0 {
		c.MaxZoom = DefaultMaxZoom
	}
	if c.ZoomDuration < 0 {
		c.ZoomDuration = 0
	}
	if c.Width <= 0 {
		c.Width = DefaultWidth
	}
	if c.Height <= 0 {
		c.Height = DefaultHeight
	}
	return c
}

// Container is the measurable element hosting the view.
type Container interface {
	Size() (width, height float64)
}

// Surface holds the transform the controller drives. [scene.Scene] is one.
type Surface interface {
	Transform() geometry.Transform
	SetTransform(t geometry.Transform) bool
}

// Bounds reports the bounding box of the rendered entities.
type Bounds interface {
	BBox() geometry.Rect
}

// DragForwarder receives gesture pointers while an edge is dragged.
// [interaction.Machine] is one.
type DragForwarder interface {
	Dragging() bool
	PointerMove(ev interaction.Event) bool
}

// Gesture is a raw pan or zoom step: the transform it would produce and the
// pointer that caused it.
type Gesture struct {
	Transform geometry.Transform
	Pointer   interaction.Event
}

// Option configures a [Controller].
type Option func(*Controller)

// WithLogger sets the logger for debug output. The default discards.
func WithLogger(l *log.Logger) Option {
	return func(c *Controller) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithContainer sets the element measured for the viewport size.
func WithContainer(ct Container) Option { return func(c *Controller) { c.container = ct } }

// WithDragForwarder sets where gestures go while an edge is dragged.
func WithDragForwarder(d DragForwarder) Option { return func(c *Controller) { c.drag = d } }

// OnChange registers fn to run after every applied transform change, such as
// re-rendering the graph controls.
func OnChange(fn func(geometry.Transform)) Option { return func(c *Controller) { c.onChange = fn } }

// Controller drives the view transform. It is not safe for concurrent use.
type Controller struct {
	cfg       Config
	surface   Surface
	bounds    Bounds
	frames    frame.Scheduler
	container Container
	drag      DragForwarder
	onChange  func(geometry.Transform)
	logger    *log.Logger

	anim *interpolation
}

// New creates a controller for surface. Zoom-to-fit frames what bounds reports.
func New(cfg Config, surface Surface, bounds Bounds, frames frame.Scheduler, opts ...Option) *Controller {
	c := &Controller{
		cfg:     cfg.withDefaults(),
		surface: surface,
		bounds:  bounds,
		frames:  frames,
		logger:  log.New(io.Discard),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Config returns the effective configuration.
func (c *Controller) Config() Config { return c.cfg }

// Transform returns the current transform.
func (c *Controller) Transform() geometry.Transform { return c.surface.Transform() }

// Size returns the viewport size, from the container when it reports one.
func (c *Controller) Size() (w, h float64) {
	if c.container != nil {
		if w, h = c.container.Size(); w > 0 && h > 0 {
			return w, h
		}
	}
	return c.cfg.Width, c.cfg.Height
}

// Clamp limits k to the zoom range.
func (c *Controller) Clamp(k float64) float64 {
	return math.Min(math.Max(k, c.cfg.MinZoom), c.cfg.MaxZoom)
}

// =============================================================================
// Zoom commands
// =============================================================================

// SetZoom moves to scale k and translation (x, y), with k clamped to the
// zoom range. A zero duration applies the transform at once; otherwise it is
// interpolated over dur, replacing any interpolation in flight.
func (c *Controller) SetZoom(k, x, y float64, dur time.Duration) {
	c.cancel()
	to := geometry.Transform{K: c.Clamp(k), X: x, Y: y}
	observability.Viewport().OnZoom(to.K, dur > 0)

	if dur <= 0 || c.frames == nil {
		c.apply(to)
		return
	}
	c.anim = &interpolation{from: c.surface.Transform(), to: to, dur: dur}
	c.anim.handle = c.frames.Request(c.animate(c.anim))
	if c.anim.handle == 0 {
		c.anim = nil
		c.apply(to)
	}
}

// ModifyZoom adds delta to the zoom factor keeping the viewport point
// (ax, ay) fixed. When the new factor leaves the zoom range nothing happens
// and false is returned; the bounds themselves are allowed.
func (c *Controller) ModifyZoom(delta, ax, ay float64, dur time.Duration) bool {
	cur := c.surface.Transform()
	k := cur.K + delta
	if k < c.cfg.MinZoom || k > c.cfg.MaxZoom {
		observability.Viewport().OnZoomRejected(k)
		c.logger.Debug("zoom out of range", "k", k)
		return false
	}
	anchor := geometry.Point{X: ax, Y: ay}
	m := cur.Invert(anchor)
	c.SetZoom(k, ax-m.X*k, ay-m.Y*k, dur)
	return true
}

// ZoomToFit frames the bounding box of the rendered entities, filling
// [FitPadding] of the viewport. With nothing rendered the zoom factor is the
// middle of the zoom range and the translation is zero.
func (c *Controller) ZoomToFit(dur time.Duration) {
	var bb geometry.Rect
	if c.bounds != nil {
		bb = c.bounds.BBox()
	}
	k, x, y := c.fit(bb)
	c.SetZoom(k, x, y, dur)
}

func (c *Controller) fit(bb geometry.Rect) (k, x, y float64) {
	vw, vh := c.Size()
	ratio := math.Max(bb.Width/vw, bb.Height/vh)
	if ratio <= 0 || math.IsNaN(ratio) {
		return (c.cfg.MinZoom + c.cfg.MaxZoom) / 2, 0, 0
	}
	k = c.Clamp(FitPadding / ratio)
	mid := bb.Center()
	return k, vw/2 - k*mid.X, vh/2 - k*mid.Y
}

// HandleZoom applies a raw gesture. While an edge is dragged the pointer is
// forwarded to the drag instead and the transform is left alone. It reports
// whether the transform changed.
func (c *Controller) HandleZoom(g Gesture) bool {
	if c.drag != nil && c.drag.Dragging() {
		c.drag.PointerMove(g.Pointer)
		return false
	}
	if g.Transform == c.surface.Transform() {
		return false
	}
	c.cancel()
	g.Transform.K = c.Clamp(g.Transform.K)
	return c.apply(g.Transform)
}

// Animating reports whether an interpolation is in flight.
func (c *Controller) Animating() bool { return c.anim != nil }

// Close cancels the interpolation in flight.
func (c *Controller) Close() { c.cancel() }

func (c *Controller) cancel() {
	if c.anim == nil {
		return
	}
	c.frames.Cancel(c.anim.handle)
	c.anim = nil
}

func (c *Controller) apply(t geometry.Transform) bool {
	if !c.surface.SetTransform(t) {
		return false
	}
	if c.onChange != nil {
		c.onChange(t)
	}
	return true
}

// =============================================================================
// Interpolation
// =============================================================================

type interpolation struct {
	from, to geometry.Transform
	start    time.Time
	dur      time.Duration
	handle   frame.Handle
}

func (c *Controller) animate(a *interpolation) frame.Callback {
	return func(now time.Time) {
		if c.anim != a {
			return
		}
		if a.start.IsZero() {
			a.start = now
		}
		f := float64(now.Sub(a.start)) / float64(a.dur)
		if f >= 1 {
			c.anim = nil
			c.apply(a.to)
			return
		}
		c.apply(a.from.Lerp(a.to, EaseCubicInOut(f)))
		a.handle = c.frames.Request(c.animate(a))
		if a.handle == 0 {
			c.anim = nil
			c.apply(a.to)
		}
	}
}

// EaseCubicInOut is the easing applied to animated zooms.
func EaseCubicInOut(t float64) float64 {
	switch {
	case t <= 0:
		return 0
	case t >= 1:
		return 1
	case t < 0.5:
		return 4 * t * t * t
	default:
		u := -2*t + 2
		return 1 - u*u*u/2
	}
}
