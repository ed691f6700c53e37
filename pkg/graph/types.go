package graph

import (
	"github.com/matzehuels/digraph/pkg/geometry"
)

// DefaultNodeKey is the record field holding a node's identifier.
const DefaultNodeKey = "id"

// Reserved record fields decoded into [Node] fields. Anything else lands in
// Node.Attrs and is written back unchanged.
const (
	fieldX       = "x"
	fieldY       = "y"
	fieldType    = "type"
	fieldSubtype = "subtype"
	fieldTitle   = "title"
)

// =============================================================================
// Document
// =============================================================================

// Document is a diagram as supplied by its owner: nodes in drawing order and
// the edges between them.
type Document struct {
	Nodes []Node
	Edges []Edge
}

// Clone returns a deep copy of the document.
func (d Document) Clone() Document {
	out := Document{
		Nodes: make([]Node, len(d.Nodes)),
		Edges: make([]Edge, len(d.Edges)),
	}
	for i, n := range d.Nodes {
		out.Nodes[i] = n.Clone()
	}
	for i, e := range d.Edges {
		out.Edges[i] = e.Clone()
	}
	return out
}

// =============================================================================
// Node
// =============================================================================

// Node is a positioned diagram node. The core treats nodes as immutable
// snapshots; changes are proposed to the owner, never applied in place.
type Node struct {
	ID      string
	X       float64
	Y       float64
	Type    string
	Subtype string
	Title   string
	Attrs   map[string]any
}

// Position returns the node center.
func (n Node) Position() geometry.Point { return geometry.Point{X: n.X, Y: n.Y} }

// MovedTo returns a copy of n at p.
func (n Node) MovedTo(p geometry.Point) Node {
	n.X, n.Y = p.X, p.Y
	return n
}

// Clone returns a copy of n that shares no attribute map with it.
func (n Node) Clone() Node {
	n.Attrs = copyAttrs(n.Attrs)
	return n
}

// =============================================================================
// Edge
// =============================================================================

// Edge is a directed connection between two nodes.
//
// A settled edge names both endpoints. An edge being dragged may have no
// Target yet and carry the pointer position in TargetPosition instead.
type Edge struct {
	Source         string          `json:"source" yaml:"source"`
	Target         string          `json:"target,omitempty" yaml:"target,omitempty"`
	Type           string          `json:"type,omitempty" yaml:"type,omitempty"`
	HandleText     string          `json:"handleText,omitempty" yaml:"handleText,omitempty"`
	TargetPosition *geometry.Point `json:"-" yaml:"-"`
}

// Settled reports whether the edge resolves to a target node.
func (e Edge) Settled() bool { return e.Target != "" && e.TargetPosition == nil }

// Connects reports whether e runs from source to target.
func (e Edge) Connects(source, target string) bool {
	return e.Source == source && e.Target == target
}

// SameAs reports whether e and o connect the same ordered pair of nodes.
func (e Edge) SameAs(o Edge) bool { return e.Connects(o.Source, o.Target) }

// Incident reports whether e touches the node id.
func (e Edge) Incident(id string) bool { return e.Source == id || e.Target == id }

// Clone returns a copy of e that shares no target position with it.
func (e Edge) Clone() Edge {
	if e.TargetPosition != nil {
		p := *e.TargetPosition
		e.TargetPosition = &p
	}
	return e
}

// =============================================================================
// Selection
// =============================================================================

// Selection references at most one node or one edge. Equality is by id
// fields, never by pointer identity.
type Selection struct {
	Node *Node
	Edge *Edge
}

// SelectNode returns a selection of n.
func SelectNode(n Node) Selection { return Selection{Node: &n} }

// SelectEdge returns a selection of e.
func SelectEdge(e Edge) Selection { return Selection{Edge: &e} }

// Empty reports whether nothing is selected.
func (s Selection) Empty() bool { return s.Node == nil && s.Edge == nil }

// HasNode reports whether the node with id is selected.
func (s Selection) HasNode(id string) bool { return s.Node != nil && s.Node.ID == id }

// HasEdge reports whether the edge connecting e's endpoints is selected.
func (s Selection) HasEdge(e Edge) bool { return s.Edge != nil && s.Edge.SameAs(e) }

// Equal reports whether s and o select the same entity.
func (s Selection) Equal(o Selection) bool {
	switch {
	case s.Empty() || o.Empty():
		return s.Empty() && o.Empty()
	case s.Node != nil:
		return o.Node != nil && s.Node.ID == o.Node.ID
	default:
		return o.Edge != nil && s.Edge.SameAs(*o.Edge)
	}
}

func copyAttrs(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
