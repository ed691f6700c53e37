package graph

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/digraph/pkg/errors"
	"github.com/matzehuels/digraph/pkg/geometry"
)

func sampleDoc() Document {
	return Document{
		Nodes: []Node{
			{ID: "a", X: 0, Y: 0, Type: "empty", Title: "Start", Attrs: map[string]any{"owner": "ops"}},
			{ID: "b", X: 100, Y: 0, Type: "special", Subtype: "poly"},
			{ID: "c", X: 50, Y: 80},
		},
		Edges: []Edge{
			{Source: "a", Target: "b", Type: "emptyEdge", HandleText: "next"},
			{Source: "b", Target: "c"},
		},
	}
}

func TestCodecRoundTrip(t *testing.T) {
	for _, f := range []Format{FormatJSON, FormatYAML} {
		for _, key := range []string{"", "uid"} {
			t.Run(string(f)+"/"+key, func(t *testing.T) {
				c := NewCodec(key)
				data, err := c.Marshal(sampleDoc(), f)
				require.NoError(t, err)

				got, err := c.Unmarshal(data, f)
				require.NoError(t, err)
				assert.Equal(t, sampleDoc(), got)
			})
		}
	}
}

func TestCodecNodeKey(t *testing.T) {
	data := []byte(`{"nodes":[{"uid":7,"x":1.5,"y":2,"color":"red"}],"edges":[]}`)

	doc, err := NewCodec("uid").Unmarshal(data, FormatJSON)
	require.NoError(t, err)
	require.Len(t, doc.Nodes, 1)
	n := doc.Nodes[0]
	assert.Equal(t, "7", n.ID)
	assert.Equal(t, 1.5, n.X)
	assert.Equal(t, 2.0, n.Y)
	assert.Equal(t, map[string]any{"color": "red"}, n.Attrs)

	_, err = NewCodec("").Unmarshal(data, FormatJSON)
	assert.True(t, errors.Is(err, errors.ErrCodeInvalidGraph), "got %v", err)
}

func TestCodecYAMLIntegers(t *testing.T) {
	data := []byte(`
nodes:
  - id: a
    x: 10
    y: -20
    type: empty
edges: []
`)
	doc, err := NewCodec("").Unmarshal(data, FormatYAML)
	require.NoError(t, err)
	assert.Equal(t, geometry.Point{X: 10, Y: -20}, doc.Nodes[0].Position())
}

func TestCodecErrors(t *testing.T) {
	tests := []struct {
		name string
		data string
		code errors.Code
	}{
		{"malformed", `{"nodes":`, errors.ErrCodeInvalidFormat},
		{"missing id", `{"nodes":[{"x":1}]}`, errors.ErrCodeInvalidGraph},
		{"bad x", `{"nodes":[{"id":"a","x":"left"}]}`, errors.ErrCodeInvalidGraph},
		{"duplicate node", `{"nodes":[{"id":"a"},{"id":"a"}]}`, errors.ErrCodeInvalidGraph},
		{"dangling edge", `{"nodes":[{"id":"a"}],"edges":[{"source":"a","target":"z"}]}`, errors.ErrCodeInvalidGraph},
		{"duplicate edge", `{"nodes":[{"id":"a"},{"id":"b"}],"edges":[{"source":"a","target":"b"},{"source":"a","target":"b"}]}`, errors.ErrCodeInvalidGraph},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewCodec("").Unmarshal([]byte(tt.data), FormatJSON)
			if !errors.Is(err, tt.code) {
				t.Errorf("Unmarshal() error = %v, want code %v", err, tt.code)
			}
		})
	}
}

func TestFormatFromPath(t *testing.T) {
	tests := []struct {
		path string
		want Format
		err  bool
	}{
		{"a.json", FormatJSON, false},
		{"dir/a.YAML", FormatYAML, false},
		{"a.yml", FormatYAML, false},
		{"a.dot", "", true},
	}
	for _, tt := range tests {
		got, err := FormatFromPath(tt.path)
		if (err != nil) != tt.err || got != tt.want {
			t.Errorf("FormatFromPath(%q) = %v, %v", tt.path, got, err)
		}
	}
}

func TestReadWriteFile(t *testing.T) {
	dir := t.TempDir()
	c := NewCodec("")

	for _, name := range []string{"g.json", "g.yaml"} {
		path := filepath.Join(dir, name)
		require.NoError(t, c.WriteFile(path, sampleDoc()))

		info, err := os.Stat(path)
		require.NoError(t, err)
		assert.NotZero(t, info.Size())

		got, err := c.ReadFile(path)
		require.NoError(t, err)
		assert.Equal(t, sampleDoc(), got)
	}

	_, err := c.ReadFile(filepath.Join(dir, "missing.json"))
	assert.True(t, errors.Is(err, errors.ErrCodeFileNotFound))
}

func TestIndex(t *testing.T) {
	doc := sampleDoc()
	doc.Edges = append(doc.Edges, Edge{Source: "c", Target: "c"})
	ix := NewIndex(doc.Nodes, doc.Edges)

	n, ok := ix.Node("b")
	require.True(t, ok)
	assert.Equal(t, "special", n.Type)

	_, ok = ix.Node("z")
	assert.False(t, ok)

	assert.Len(t, ix.Incoming("b"), 1)
	assert.Len(t, ix.Outgoing("b"), 1)
	assert.Len(t, ix.Incident("b"), 2)
	assert.Len(t, ix.Incident("c"), 2, "self-loop counted once")

	assert.True(t, ix.HasEdge("a", "b"))
	assert.False(t, ix.HasEdge("b", "a"))
}

func TestSelection(t *testing.T) {
	a := Node{ID: "a", X: 1}
	moved := Node{ID: "a", X: 99}
	e := Edge{Source: "a", Target: "b"}

	tests := []struct {
		name string
		s, o Selection
		want bool
	}{
		{"both empty", Selection{}, Selection{}, true},
		{"node by id", SelectNode(a), SelectNode(moved), true},
		{"different nodes", SelectNode(a), SelectNode(Node{ID: "b"}), false},
		{"edge by endpoints", SelectEdge(e), SelectEdge(Edge{Source: "a", Target: "b", HandleText: "x"}), true},
		{"reversed edge", SelectEdge(e), SelectEdge(Edge{Source: "b", Target: "a"}), false},
		{"node vs edge", SelectNode(a), SelectEdge(e), false},
		{"empty vs node", Selection{}, SelectNode(a), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.s.Equal(tt.o); got != tt.want {
				t.Errorf("Equal() = %v, want %v", got, tt.want)
			}
		})
	}

	s := SelectNode(a)
	assert.True(t, s.HasNode("a"))
	assert.False(t, s.HasEdge(e))
}

func TestDocumentEdits(t *testing.T) {
	doc := sampleDoc()

	require.NoError(t, doc.AddNode(Node{ID: "d", X: 5}))
	assert.Error(t, doc.AddNode(Node{ID: "d"}))
	assert.Error(t, doc.AddNode(Node{ID: ""}))

	require.NoError(t, doc.UpdateNode(Node{ID: "d", X: 42}))
	assert.Equal(t, 42.0, doc.Nodes[doc.NodeIndex("d")].X)
	assert.True(t, errors.Is(doc.UpdateNode(Node{ID: "z"}), errors.ErrCodeNodeNotFound))

	require.NoError(t, doc.AddEdge(Edge{Source: "c", Target: "d", TargetPosition: &geometry.Point{}}))
	assert.Nil(t, doc.Edges[len(doc.Edges)-1].TargetPosition)
	assert.Error(t, doc.AddEdge(Edge{Source: "c", Target: "d"}))
	assert.Error(t, doc.AddEdge(Edge{Source: "c", Target: "z"}))

	swapped, err := doc.SwapEdge(Edge{Source: "a", Target: "b"}, "a", "c")
	require.NoError(t, err)
	assert.Equal(t, "next", swapped.HandleText)
	assert.Equal(t, 0, doc.EdgeIndex("a", "c"))
	_, err = doc.SwapEdge(Edge{Source: "a", Target: "c"}, "b", "c")
	assert.Error(t, err, "b→c already exists")

	removed, err := doc.RemoveNode("c")
	require.NoError(t, err)
	assert.Len(t, removed, 3)
	assert.Empty(t, doc.Edges)
	assert.NoError(t, doc.Validate())

	assert.Error(t, doc.RemoveEdge(Edge{Source: "a", Target: "b"}))
}

func TestClone(t *testing.T) {
	doc := sampleDoc()
	p := geometry.Point{X: 1, Y: 2}
	doc.Edges[0].TargetPosition = &p

	c := doc.Clone()
	c.Nodes[0].Attrs["owner"] = "dev"
	c.Edges[0].TargetPosition.X = 50

	assert.Equal(t, "ops", doc.Nodes[0].Attrs["owner"])
	assert.Equal(t, 1.0, doc.Edges[0].TargetPosition.X)
}
