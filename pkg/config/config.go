// Package config loads digraph.toml, the configuration shared by the
// digraph commands.
//
// A configuration file is optional. Values missing from the file take the
// defaults of [Default]; command-line flags override both. Shape catalogs
// declared in the file replace the built-in catalog:
//
//	[view]
//	min_zoom = 0.25
//	zoom_duration_ms = 400
//
//	[node_types.task]
//	shape_id = "task"
//	kind = "rect"
//	width = 154
//	height = 54
package config

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/go-playground/validator/v10"

	"github.com/matzehuels/digraph/pkg/errors"
	"github.com/matzehuels/digraph/pkg/geometry"
	"github.com/matzehuels/digraph/pkg/shapes"
	"github.com/matzehuels/digraph/pkg/view"
	"github.com/matzehuels/digraph/pkg/viewport"
)

// DefaultFile is the configuration file looked up in the working directory.
const DefaultFile = "digraph.toml"

// Config is the parsed configuration file.
type Config struct {
	Store  StoreConfig  `toml:"store"`
	View   ViewConfig   `toml:"view"`
	Serve  ServeConfig  `toml:"serve"`
	Export ExportConfig `toml:"export"`

	NodeTypes    map[string]ShapeConfig `toml:"node_types" validate:"dive"`
	NodeSubtypes map[string]ShapeConfig `toml:"node_subtypes" validate:"dive"`
	EdgeTypes    map[string]ShapeConfig `toml:"edge_types" validate:"dive"`
}

// StoreConfig selects where documents are kept.
type StoreConfig struct {
	URL string `toml:"url" validate:"required"`
}

// ViewConfig mirrors [view.Config]. Durations are given in milliseconds;
// zero fields select the view defaults. A zoom duration of -1 turns zoom
// animation off.
type ViewConfig struct {
	NodeKey           string  `toml:"node_key" validate:"required"`
	MinZoom           float64 `toml:"min_zoom" validate:"gt=0"`
	MaxZoom           float64 `toml:"max_zoom" validate:"gtefield=MinZoom"`
	ZoomDurationMS    int     `toml:"zoom_duration_ms" validate:"gte=-1"`
	ReadOnly          bool    `toml:"read_only"`
	ShowGraphControls bool    `toml:"show_graph_controls"`
	AllowSelfLoops    bool    `toml:"allow_self_loops"`
	EdgeArrowSize     float64 `toml:"edge_arrow_size" validate:"gte=0"`
	EdgeHandleSize    float64 `toml:"edge_handle_size" validate:"gte=0"`
	NodeSize          float64 `toml:"node_size" validate:"gte=0"`
	Width             float64 `toml:"width" validate:"gte=0"`
	Height            float64 `toml:"height" validate:"gte=0"`
}

// ServeConfig configures the diagram server.
type ServeConfig struct {
	Addr string `toml:"addr" validate:"required,hostname_port"`
	// EventsPerSecond limits pointer events per connection.
	EventsPerSecond float64 `toml:"events_per_second" validate:"gt=0"`
	Burst           int     `toml:"burst" validate:"gte=1"`
}

// ExportConfig sets export defaults.
type ExportConfig struct {
	Scale float64 `toml:"scale" validate:"gt=0"`
	Fit   bool    `toml:"fit"`
}

// ShapeConfig declares one catalog entry.
type ShapeConfig struct {
	ShapeID  string  `toml:"shape_id" validate:"required"`
	Kind     string  `toml:"kind" validate:"omitempty,oneof=circle ellipse polygon rect rectangle path"`
	Width    float64 `toml:"width" validate:"gte=0"`
	Height   float64 `toml:"height" validate:"gte=0"`
	Rotation float64 `toml:"rotation"`
	Path     string  `toml:"path" validate:"required_if=Kind path"`
	Markup   string  `toml:"markup"`
	TypeText string  `toml:"type_text"`
}

// Default returns the configuration used when no file is present.
func Default() Config {
	vc := view.DefaultConfig()
	return Config{
		Store: StoreConfig{URL: "file://."},
		View: ViewConfig{
			NodeKey:        vc.NodeKey,
			MinZoom:        vc.MinZoom,
			MaxZoom:        vc.MaxZoom,
			ZoomDurationMS: int(vc.ZoomDuration / time.Millisecond),
			EdgeArrowSize:  vc.EdgeArrowSize,
			EdgeHandleSize: vc.EdgeHandleSize,
			NodeSize:       vc.NodeSize,
			Width:          viewport.DefaultWidth,
			Height:         viewport.DefaultHeight,
		},
		Serve:  ServeConfig{Addr: "localhost:8080", EventsPerSecond: 120, Burst: 30},
		Export: ExportConfig{Scale: 2, Fit: true},
	}
}

// Load reads path over the defaults. A missing file at the default
// location is not an error; path == "" means the default location.
func Load(path string) (Config, error) {
	explicit := path != ""
	if !explicit {
		path = DefaultFile
	}

	f, err := os.Open(path)
	if os.IsNotExist(err) && !explicit {
		return Default(), nil
	}
	if err != nil {
		return Config{}, errors.Wrap(errors.ErrCodeInvalidConfig, err, "open config")
	}
	defer f.Close()
	return Decode(f)
}

// Decode parses a configuration over the defaults and validates it.
// Unknown keys are rejected.
func Decode(r io.Reader) (Config, error) {
	cfg := Default()
	md, err := toml.NewDecoder(r).Decode(&cfg)
	if err != nil {
		return Config{}, errors.Wrap(errors.ErrCodeInvalidConfig, err, "parse config")
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return Config{}, errors.New(errors.ErrCodeInvalidConfig, "unknown config keys: %s", strings.Join(keys, ", "))
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Write encodes cfg as TOML.
func (c Config) Write(w io.Writer) error {
	return toml.NewEncoder(w).Encode(c)
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks struct constraints, shape paths and the store URL.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfig, err, "invalid config")
	}
	if err := errors.ValidateStoreURL(c.Store.URL); err != nil {
		return err
	}
	for _, catalog := range []map[string]ShapeConfig{c.NodeTypes, c.NodeSubtypes, c.EdgeTypes} {
		for name, s := range catalog {
			if _, err := s.Template(); err != nil {
				return errors.Wrap(errors.ErrCodeInvalidConfig, err, "shape %q", name)
			}
		}
	}
	_, err := c.ViewConfig()
	return err
}

// Template converts the entry to a shape template.
func (s ShapeConfig) Template() (shapes.Template, error) {
	kind, ok := geometry.ParseShapeKind(s.Kind)
	if !ok {
		return shapes.Template{}, errors.New(errors.ErrCodeInvalidConfig, "unknown shape kind %q", s.Kind)
	}
	if kind == geometry.ShapePath {
		if _, _, err := geometry.ParsePath(s.Path); err != nil {
			return shapes.Template{}, err
		}
	}
	return shapes.Template{
		ShapeID: s.ShapeID,
		Shape: geometry.Shape{
			Kind:     kind,
			Width:    s.Width,
			Height:   s.Height,
			Rotation: s.Rotation,
			Path:     s.Path,
		},
		Markup:   s.Markup,
		TypeText: s.TypeText,
	}, nil
}

func catalog(entries map[string]ShapeConfig) (shapes.Catalog, error) {
	if entries == nil {
		return nil, nil
	}
	out := make(shapes.Catalog, len(entries))
	for name, s := range entries {
		t, err := s.Template()
		if err != nil {
			return nil, err
		}
		out[name] = t
	}
	return out, nil
}

func zoomDuration(ms int) time.Duration {
	if ms < 0 {
		return view.InstantZoom
	}
	return time.Duration(ms) * time.Millisecond
}

// ViewConfig converts the file to a view configuration and validates it.
func (c Config) ViewConfig() (view.Config, error) {
	nodes, err := catalog(c.NodeTypes)
	if err != nil {
		return view.Config{}, err
	}
	subtypes, err := catalog(c.NodeSubtypes)
	if err != nil {
		return view.Config{}, err
	}
	edges, err := catalog(c.EdgeTypes)
	if err != nil {
		return view.Config{}, err
	}

	v := c.View
	vc := view.Config{
		NodeKey:           v.NodeKey,
		NodeTypes:         nodes,
		NodeSubtypes:      subtypes,
		EdgeTypes:         edges,
		MinZoom:           v.MinZoom,
		MaxZoom:           v.MaxZoom,
		ZoomDuration:      zoomDuration(v.ZoomDurationMS),
		ReadOnly:          v.ReadOnly,
		ShowGraphControls: v.ShowGraphControls,
		AllowSelfLoops:    v.AllowSelfLoops,
		EdgeArrowSize:     v.EdgeArrowSize,
		EdgeHandleSize:    v.EdgeHandleSize,
		NodeSize:          v.NodeSize,
		Width:             v.Width,
		Height:            v.Height,
	}.WithDefaults()
	if err := vc.Validate(); err != nil {
		return view.Config{}, err
	}
	return vc, nil
}
