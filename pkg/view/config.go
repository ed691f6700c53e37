package view

import (
	"time"

	"github.com/matzehuels/digraph/pkg/errors"
	"github.com/matzehuels/digraph/pkg/geometry"
	"github.com/matzehuels/digraph/pkg/graph"
	"github.com/matzehuels/digraph/pkg/interaction"
	"github.com/matzehuels/digraph/pkg/render"
	"github.com/matzehuels/digraph/pkg/shapes"
	"github.com/matzehuels/digraph/pkg/viewport"
)

// DefaultNodeSize is the diameter of the circle drawn for node types that
// resolve to no shape.
const DefaultNodeSize = 100

// InstantZoom as Config.ZoomDuration turns zoom animation off. Any negative
// duration has the same effect.
const InstantZoom time.Duration = -1

// Config configures a [View]. The zero value is completed by [Config.WithDefaults].
type Config struct {
	// NodeKey names the identifier field of the owner's node records.
	NodeKey string

	// Shape catalogs. When all three are nil the built-in catalog is used.
	NodeTypes    shapes.Catalog
	NodeSubtypes shapes.Catalog
	EdgeTypes    shapes.Catalog

	MinZoom float64
	MaxZoom float64
	// ZoomDuration is how long animated zooms take. Zero selects the
	// default; InstantZoom applies every zoom at once.
	ZoomDuration time.Duration

	// ReadOnly disables every gesture that proposes a change.
	ReadOnly          bool
	ShowGraphControls bool
	AllowSelfLoops    bool

	EdgeArrowSize  float64
	EdgeHandleSize float64
	NodeSize       float64

	// Width and Height are the viewport size used when no container
	// reports one.
	Width  float64
	Height float64
}

// DefaultConfig returns the configuration used for zero fields.
func DefaultConfig() Config {
	return Config{}.WithDefaults()
}

// WithDefaults fills zero fields with their defaults.
func (c Config) WithDefaults() Config {
	if c.NodeKey == "" {
		c.NodeKey = graph.DefaultNodeKey
	}
	if c.MinZoom == 0 {
		c.MinZoom = viewport.DefaultMinZoom
	}
	if c.MaxZoom == 0 {
		c.MaxZoom = viewport.DefaultMaxZoom
	}
	if c.ZoomDuration == 0 {
		c.ZoomDuration = viewport.DefaultZoomDuration
	}
	if c.EdgeArrowSize == 0 {
		c.EdgeArrowSize = interaction.DefaultEdgeArrowSize
	}
	if c.EdgeHandleSize == 0 {
		c.EdgeHandleSize = render.DefaultEdgeHandleSize
	}
	if c.NodeSize == 0 {
		c.NodeSize = DefaultNodeSize
	}
	if c.Width == 0 {
		c.Width = viewport.DefaultWidth
	}
	if c.Height == 0 {
		c.Height = viewport.DefaultHeight
	}
	return c
}

// Validate reports configurations no view can honor.
func (c Config) Validate() error {
	switch {
	case c.MinZoom <= 0:
		return errors.New(errors.ErrCodeInvalidConfig, "min zoom must be positive, got %v", c.MinZoom)
	case c.MaxZoom < c.MinZoom:
		return errors.New(errors.ErrCodeInvalidConfig, "max zoom %v is below min zoom %v", c.MaxZoom, c.MinZoom)
	case c.EdgeArrowSize < 0, c.EdgeHandleSize < 0, c.NodeSize < 0:
		return errors.New(errors.ErrCodeInvalidConfig, "sizes must not be negative")
	case c.Width < 0, c.Height < 0:
		return errors.New(errors.ErrCodeInvalidConfig, "viewport size must not be negative")
	}
	if graph.Reserved(c.NodeKey) {
		return errors.New(errors.ErrCodeInvalidConfig, "node key %q is a reserved field", c.NodeKey)
	}
	return nil
}

func (c Config) registry() *shapes.Registry {
	if c.NodeTypes == nil && c.NodeSubtypes == nil && c.EdgeTypes == nil {
		return shapes.Default()
	}
	return shapes.NewRegistry(c.NodeTypes, c.NodeSubtypes, c.EdgeTypes)
}

func (c Config) arrow() geometry.Size {
	return geometry.Size{Width: c.EdgeArrowSize, Height: c.EdgeArrowSize}
}

func (c Config) viewport() viewport.Config {
	return viewport.Config{
		MinZoom:      c.MinZoom,
		MaxZoom:      c.MaxZoom,
		ZoomDuration: max(c.ZoomDuration, 0),
		Width:        c.Width,
		Height:       c.Height,
	}
}
