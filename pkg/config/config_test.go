package config

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/digraph/pkg/errors"
	"github.com/matzehuels/digraph/pkg/geometry"
	"github.com/matzehuels/digraph/pkg/view"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	vc, err := cfg.ViewConfig()
	require.NoError(t, err)
	assert.Equal(t, 0.15, vc.MinZoom)
	assert.Equal(t, 1.5, vc.MaxZoom)
	assert.Equal(t, 750*time.Millisecond, vc.ZoomDuration)
	assert.Nil(t, vc.NodeTypes, "built-in catalog")
}

func TestDecode(t *testing.T) {
	src := `
[store]
url = "memory://"

[view]
min_zoom = 0.25
max_zoom = 2
zoom_duration_ms = 400
read_only = true
show_graph_controls = true

[node_types.task]
shape_id = "task"
kind = "rect"
width = 154
height = 54
type_text = "T"

[node_types.hex]
shape_id = "#hex"
kind = "path"
path = "M50,0 L100,25 L100,75 L50,100 L0,75 L0,25 Z"

[edge_types.emptyEdge]
shape_id = "emptyEdge"
kind = "circle"
width = 24
height = 24
`
	cfg, err := Decode(strings.NewReader(src))
	require.NoError(t, err)
	assert.Equal(t, "memory://", cfg.Store.URL)
	assert.Equal(t, "localhost:8080", cfg.Serve.Addr, "untouched sections keep defaults")

	vc, err := cfg.ViewConfig()
	require.NoError(t, err)
	assert.Equal(t, 0.25, vc.MinZoom)
	assert.Equal(t, 400*time.Millisecond, vc.ZoomDuration)
	assert.True(t, vc.ReadOnly)
	assert.True(t, vc.ShowGraphControls)

	task := vc.NodeTypes["task"]
	assert.Equal(t, geometry.ShapeRect, task.Shape.Kind)
	assert.Equal(t, 154.0, task.Shape.Width)
	assert.Equal(t, "T", task.TypeText)
	assert.Equal(t, geometry.ShapePath, vc.NodeTypes["hex"].Shape.Kind)
	assert.Equal(t, geometry.ShapeEllipse, vc.EdgeTypes["emptyEdge"].Shape.Kind)
	assert.Nil(t, vc.NodeSubtypes)
}

func TestDecodeInstantZoom(t *testing.T) {
	cfg, err := Decode(strings.NewReader("[view]\nzoom_duration_ms = -1\n"))
	require.NoError(t, err)

	vc, err := cfg.ViewConfig()
	require.NoError(t, err)
	assert.Equal(t, view.InstantZoom, vc.ZoomDuration)
}

func TestDecodeErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"syntax", `[view`},
		{"unknown key", "[view]\nzoom = 1\n"},
		{"max below min", "[view]\nmin_zoom = 1\nmax_zoom = 0.5\n"},
		{"negative duration", "[view]\nzoom_duration_ms = -2\n"},
		{"bad store", "[store]\nurl = \"ftp://x\"\n"},
		{"bad addr", "[serve]\naddr = \"nope\"\n"},
		{"shape without id", "[node_types.a]\nkind = \"rect\"\n"},
		{"unknown kind", "[node_types.a]\nshape_id = \"a\"\nkind = \"star\"\n"},
		{"path without data", "[node_types.a]\nshape_id = \"a\"\nkind = \"path\"\n"},
		{"curved path", "[node_types.a]\nshape_id = \"a\"\nkind = \"path\"\npath = \"M0,0 C1,1 2,2 3,3 Z\"\n"},
		{"reserved node key", "[view]\nnode_key = \"title\"\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(strings.NewReader(tt.src))
			require.Error(t, err)
			assert.True(t, errors.Is(err, errors.ErrCodeInvalidConfig), "got %v", err)
		})
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	cfg, err := Load("")
	require.NoError(t, err, "missing default file")
	assert.Equal(t, Default(), cfg)

	_, err = Load(filepath.Join(dir, "missing.toml"))
	assert.Error(t, err, "missing explicit file")

	require.NoError(t, os.WriteFile(DefaultFile, []byte("[export]\nscale = 3\n"), 0o644))
	cfg, err = Load("")
	require.NoError(t, err)
	assert.Equal(t, 3.0, cfg.Export.Scale)
}

func TestWriteRoundTrip(t *testing.T) {
	cfg := Default()
	cfg.NodeTypes = map[string]ShapeConfig{"task": {ShapeID: "task", Kind: "rect", Width: 10, Height: 10}}

	var buf bytes.Buffer
	require.NoError(t, cfg.Write(&buf))
	got, err := Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, cfg.Store, got.Store)
	assert.Equal(t, cfg.View, got.View)
	assert.Equal(t, cfg.Serve, got.Serve)
	assert.Equal(t, cfg.Export, got.Export)
	assert.Equal(t, cfg.NodeTypes, got.NodeTypes)
}
