package graph

import (
	"github.com/matzehuels/digraph/pkg/errors"
)

// Index answers adjacency queries over one snapshot of nodes and edges.
// It is rebuilt on every configuration pass and never mutated.
type Index struct {
	nodes    []Node
	edges    []Edge
	byID     map[string]int
	incoming map[string][]int
	outgoing map[string][]int
}

// NewIndex indexes nodes and edges. Later duplicates of a node id shadow
// earlier ones; edges are indexed even when an endpoint is missing.
func NewIndex(nodes []Node, edges []Edge) *Index {
	ix := &Index{
		nodes:    nodes,
		edges:    edges,
		byID:     make(map[string]int, len(nodes)),
		incoming: make(map[string][]int),
		outgoing: make(map[string][]int),
	}
	for i, n := range nodes {
		ix.byID[n.ID] = i
	}
	for i, e := range edges {
		ix.outgoing[e.Source] = append(ix.outgoing[e.Source], i)
		if e.Target != "" {
			ix.incoming[e.Target] = append(ix.incoming[e.Target], i)
		}
	}
	return ix
}

// Nodes returns the indexed nodes in supplied order.
func (ix *Index) Nodes() []Node { return ix.nodes }

// Edges returns the indexed edges in supplied order.
func (ix *Index) Edges() []Edge { return ix.edges }

// Node looks up a node by id.
func (ix *Index) Node(id string) (Node, bool) {
	i, ok := ix.byID[id]
	if !ok {
		return Node{}, false
	}
	return ix.nodes[i], true
}

// Edge looks up the edge from source to target.
func (ix *Index) Edge(source, target string) (Edge, bool) {
	for _, i := range ix.outgoing[source] {
		if ix.edges[i].Target == target {
			return ix.edges[i], true
		}
	}
	return Edge{}, false
}

// HasEdge reports whether an edge from source to target exists.
func (ix *Index) HasEdge(source, target string) bool {
	_, ok := ix.Edge(source, target)
	return ok
}

// Incoming returns the edges ending at id.
func (ix *Index) Incoming(id string) []Edge { return ix.pick(ix.incoming[id]) }

// Outgoing returns the edges starting at id.
func (ix *Index) Outgoing(id string) []Edge { return ix.pick(ix.outgoing[id]) }

// Incident returns every edge touching id, outgoing first. Self-loops are
// returned once.
func (ix *Index) Incident(id string) []Edge {
	out := ix.Outgoing(id)
	for _, e := range ix.Incoming(id) {
		if e.Source != id {
			out = append(out, e)
		}
	}
	return out
}

func (ix *Index) pick(idx []int) []Edge {
	if len(idx) == 0 {
		return nil
	}
	out := make([]Edge, len(idx))
	for i, j := range idx {
		out[i] = ix.edges[j]
	}
	return out
}

// =============================================================================
// Validation
// =============================================================================

// Validate checks that node ids are valid and unique and that every settled
// edge connects existing nodes. Duplicate edges are rejected too.
func (d Document) Validate() error {
	seen := make(map[string]bool, len(d.Nodes))
	for _, n := range d.Nodes {
		if err := errors.ValidateNodeID(n.ID); err != nil {
			return err
		}
		if seen[n.ID] {
			return errors.New(errors.ErrCodeInvalidGraph, "duplicate node id %q", n.ID)
		}
		seen[n.ID] = true
	}

	type pair struct{ s, t string }
	edges := make(map[pair]bool, len(d.Edges))
	for _, e := range d.Edges {
		if !seen[e.Source] {
			return errors.New(errors.ErrCodeInvalidGraph, "edge source %q is not a node", e.Source)
		}
		if !seen[e.Target] {
			return errors.New(errors.ErrCodeInvalidGraph, "edge %s→%s: target is not a node", e.Source, e.Target)
		}
		p := pair{e.Source, e.Target}
		if edges[p] {
			return errors.New(errors.ErrCodeInvalidGraph, "duplicate edge %s→%s", e.Source, e.Target)
		}
		edges[p] = true
	}
	return nil
}
