package graph

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/matzehuels/digraph/pkg/errors"
)

// =============================================================================
// Formats
// =============================================================================

// Format is a document serialization format.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// FormatFromPath picks the format from a file extension.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	}
	return "", errors.New(errors.ErrCodeInvalidFormat, "unsupported document extension %q", filepath.Ext(path))
}

// =============================================================================
// Codec
// =============================================================================

// Codec reads and writes documents whose node identifier lives under a
// configurable record field.
//
//	{
//	  "nodes": [{"id": "a", "x": 0, "y": 0, "type": "empty", "title": "Start"}],
//	  "edges": [{"source": "a", "target": "b", "handleText": "next"}]
//	}
type Codec struct {
	NodeKey string
}

// NewCodec returns a codec for nodeKey. An empty key selects [DefaultNodeKey].
func NewCodec(nodeKey string) Codec {
	if nodeKey == "" {
		nodeKey = DefaultNodeKey
	}
	return Codec{NodeKey: nodeKey}
}

type rawDocument struct {
	Nodes []map[string]any `json:"nodes" yaml:"nodes"`
	Edges []Edge           `json:"edges" yaml:"edges"`
}

// Marshal encodes doc in format f.
func (c Codec) Marshal(doc Document, f Format) ([]byte, error) {
	var buf bytes.Buffer
	if err := c.Write(&buf, doc, f); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Write encodes doc to w in format f.
func (c Codec) Write(w io.Writer, doc Document, f Format) error {
	raw := rawDocument{
		Nodes: make([]map[string]any, len(doc.Nodes)),
		Edges: doc.Edges,
	}
	if raw.Edges == nil {
		raw.Edges = []Edge{}
	}
	for i, n := range doc.Nodes {
		raw.Nodes[i] = c.record(n)
	}

	switch f {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(raw); err != nil {
			return fmt.Errorf("encode: %w", err)
		}
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(raw); err != nil {
			return fmt.Errorf("encode: %w", err)
		}
		if err := enc.Close(); err != nil {
			return fmt.Errorf("encode: %w", err)
		}
	default:
		return errors.New(errors.ErrCodeInvalidFormat, "unknown format %q", f)
	}
	return nil
}

// Unmarshal decodes and validates a document in format f.
func (c Codec) Unmarshal(data []byte, f Format) (Document, error) {
	var raw rawDocument
	switch f {
	case FormatJSON:
		if err := json.Unmarshal(data, &raw); err != nil {
			return Document{}, errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode json")
		}
	case FormatYAML:
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return Document{}, errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode yaml")
		}
	default:
		return Document{}, errors.New(errors.ErrCodeInvalidFormat, "unknown format %q", f)
	}

	doc := Document{Nodes: make([]Node, 0, len(raw.Nodes)), Edges: raw.Edges}
	for i, rec := range raw.Nodes {
		n, err := c.node(rec)
		if err != nil {
			return Document{}, fmt.Errorf("node %d: %w", i, err)
		}
		doc.Nodes = append(doc.Nodes, n)
	}
	if doc.Edges == nil {
		doc.Edges = []Edge{}
	}
	if err := doc.Validate(); err != nil {
		return Document{}, err
	}
	return doc, nil
}

// ReadFile reads a document, choosing the format by extension.
func (c Codec) ReadFile(path string) (Document, error) {
	f, err := FormatFromPath(path)
	if err != nil {
		return Document{}, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Document{}, errors.Wrap(errors.ErrCodeFileNotFound, err, "read %s", path)
		}
		return Document{}, fmt.Errorf("read %s: %w", path, err)
	}
	return c.Unmarshal(data, f)
}

// WriteFile writes a document, choosing the format by extension.
// The file is created with 0644 permissions.
func (c Codec) WriteFile(path string, doc Document) error {
	f, err := FormatFromPath(path)
	if err != nil {
		return err
	}
	data, err := c.Marshal(doc, f)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// =============================================================================
// Internal Helpers
// =============================================================================

func (c Codec) key() string {
	if c.NodeKey == "" {
		return DefaultNodeKey
	}
	return c.NodeKey
}

func (c Codec) record(n Node) map[string]any {
	key := c.key()
	rec := make(map[string]any, len(n.Attrs)+6)
	for k, v := range n.Attrs {
		if !Reserved(k) && k != key {
			rec[k] = v
		}
	}
	rec[key] = n.ID
	rec[fieldX] = n.X
	rec[fieldY] = n.Y
	if n.Type != "" {
		rec[fieldType] = n.Type
	}
	if n.Subtype != "" {
		rec[fieldSubtype] = n.Subtype
	}
	if n.Title != "" {
		rec[fieldTitle] = n.Title
	}
	return rec
}

func (c Codec) node(rec map[string]any) (Node, error) {
	key := c.key()
	id, ok := scalarString(rec[key])
	if !ok || id == "" {
		return Node{}, errors.New(errors.ErrCodeInvalidGraph, "missing %q field", key)
	}

	n := Node{ID: id}
	var err error
	if n.X, err = number(rec, fieldX); err != nil {
		return Node{}, err
	}
	if n.Y, err = number(rec, fieldY); err != nil {
		return Node{}, err
	}
	n.Type, _ = rec[fieldType].(string)
	n.Subtype, _ = rec[fieldSubtype].(string)
	n.Title, _ = rec[fieldTitle].(string)

	for k, v := range rec {
		if k == key || Reserved(k) {
			continue
		}
		if n.Attrs == nil {
			n.Attrs = make(map[string]any)
		}
		n.Attrs[k] = v
	}
	return n, nil
}

// Reserved reports whether k is a record field decoded into a [Node] field,
// which makes it unusable as a node key.
func Reserved(k string) bool {
	switch k {
	case fieldX, fieldY, fieldType, fieldSubtype, fieldTitle:
		return true
	}
	return false
}

func number(rec map[string]any, field string) (float64, error) {
	switch v := rec[field].(type) {
	case nil:
		return 0, nil
	case float64:
		return v, nil
	case int:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case uint64:
		return float64(v), nil
	default:
		return 0, errors.New(errors.ErrCodeInvalidGraph, "field %q is not a number: %v", field, v)
	}
}

func scalarString(v any) (string, bool) {
	switch v := v.(type) {
	case string:
		return v, true
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), true
	case int:
		return strconv.Itoa(v), true
	case int64:
		return strconv.FormatInt(v, 10), true
	case uint64:
		return strconv.FormatUint(v, 10), true
	}
	return "", false
}
