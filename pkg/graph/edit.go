package graph

import (
	"slices"

	"github.com/matzehuels/digraph/pkg/errors"
)

// The methods below are the owner-side edits a diagram supports. Each one
// leaves the document valid or returns an error and leaves it unchanged.

// NodeIndex returns the position of the node with id, or -1.
func (d *Document) NodeIndex(id string) int {
	return slices.IndexFunc(d.Nodes, func(n Node) bool { return n.ID == id })
}

// EdgeIndex returns the position of the edge from source to target, or -1.
func (d *Document) EdgeIndex(source, target string) int {
	return slices.IndexFunc(d.Edges, func(e Edge) bool { return e.Connects(source, target) })
}

// AddNode appends n.
func (d *Document) AddNode(n Node) error {
	if err := errors.ValidateNodeID(n.ID); err != nil {
		return err
	}
	if d.NodeIndex(n.ID) >= 0 {
		return errors.New(errors.ErrCodeInvalidGraph, "duplicate node id %q", n.ID)
	}
	d.Nodes = append(d.Nodes, n)
	return nil
}

// UpdateNode replaces the node with n.ID in place.
func (d *Document) UpdateNode(n Node) error {
	i := d.NodeIndex(n.ID)
	if i < 0 {
		return errors.New(errors.ErrCodeNodeNotFound, "node %q not found", n.ID)
	}
	d.Nodes[i] = n
	return nil
}

// RemoveNode deletes the node with id together with its incident edges.
// It returns the removed edges.
func (d *Document) RemoveNode(id string) ([]Edge, error) {
	i := d.NodeIndex(id)
	if i < 0 {
		return nil, errors.New(errors.ErrCodeNodeNotFound, "node %q not found", id)
	}
	d.Nodes = slices.Delete(d.Nodes, i, i+1)

	var removed []Edge
	d.Edges = slices.DeleteFunc(d.Edges, func(e Edge) bool {
		if e.Incident(id) {
			removed = append(removed, e)
			return true
		}
		return false
	})
	return removed, nil
}

// AddEdge appends an edge between existing nodes. Duplicates are rejected.
func (d *Document) AddEdge(e Edge) error {
	if d.NodeIndex(e.Source) < 0 {
		return errors.New(errors.ErrCodeNodeNotFound, "source node %q not found", e.Source)
	}
	if d.NodeIndex(e.Target) < 0 {
		return errors.New(errors.ErrCodeNodeNotFound, "target node %q not found", e.Target)
	}
	if d.EdgeIndex(e.Source, e.Target) >= 0 {
		return errors.New(errors.ErrCodeInvalidGraph, "duplicate edge %s→%s", e.Source, e.Target)
	}
	e.TargetPosition = nil
	d.Edges = append(d.Edges, e)
	return nil
}

// SwapEdge retargets old so that it runs from source to target, keeping its
// type, label and position in the edge list.
func (d *Document) SwapEdge(old Edge, source, target string) (Edge, error) {
	i := d.EdgeIndex(old.Source, old.Target)
	if i < 0 {
		return Edge{}, errors.New(errors.ErrCodeNotFound, "edge %s→%s not found", old.Source, old.Target)
	}
	if d.NodeIndex(source) < 0 || d.NodeIndex(target) < 0 {
		return Edge{}, errors.New(errors.ErrCodeNodeNotFound, "edge %s→%s: endpoint not found", source, target)
	}
	if j := d.EdgeIndex(source, target); j >= 0 && j != i {
		return Edge{}, errors.New(errors.ErrCodeInvalidGraph, "duplicate edge %s→%s", source, target)
	}
	e := d.Edges[i]
	e.Source, e.Target = source, target
	d.Edges[i] = e
	return e, nil
}

// RemoveEdge deletes the edge connecting e's endpoints.
func (d *Document) RemoveEdge(e Edge) error {
	i := d.EdgeIndex(e.Source, e.Target)
	if i < 0 {
		return errors.New(errors.ErrCodeNotFound, "edge %s→%s not found", e.Source, e.Target)
	}
	d.Edges = slices.Delete(d.Edges, i, i+1)
	return nil
}
