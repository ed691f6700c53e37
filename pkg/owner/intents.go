package owner

import (
	"context"
	"slices"

	"github.com/matzehuels/digraph/pkg/geometry"
	"github.com/matzehuels/digraph/pkg/graph"
	"github.com/matzehuels/digraph/pkg/observability"
)

// CreateNode adds a node of the owner's node type at p and selects it.
func (o *Owner) CreateNode(ctx context.Context, p geometry.Point) (graph.Node, error) {
	n := graph.Node{ID: o.newID(), X: p.X, Y: p.Y, Type: o.nodeType}
	err := o.apply(ctx, IntentCreateNode, func(d *graph.Document) error {
		if err := d.AddNode(n); err != nil {
			return err
		}
		o.sel = graph.SelectNode(n)
		return nil
	})
	if err != nil {
		return graph.Node{}, err
	}
	return n, nil
}

// UpdateNode replaces the node with n.ID, typically after a drag.
func (o *Owner) UpdateNode(ctx context.Context, n graph.Node) error {
	return o.apply(ctx, IntentUpdateNode, func(d *graph.Document) error {
		if err := d.UpdateNode(n.Clone()); err != nil {
			return err
		}
		if o.sel.HasNode(n.ID) {
			o.sel = graph.SelectNode(n)
		}
		return nil
	})
}

// DeleteNode removes n and its incident edges and clears the selection.
func (o *Owner) DeleteNode(ctx context.Context, n graph.Node) error {
	return o.apply(ctx, IntentDeleteNode, func(d *graph.Document) error {
		removed, err := d.RemoveNode(n.ID)
		if err != nil {
			return err
		}
		o.logger.Debug("node deleted", "id", n.ID, "edges", len(removed))
		o.sel = graph.Selection{}
		return nil
	})
}

// CreateEdge connects source to target.
func (o *Owner) CreateEdge(ctx context.Context, source, target graph.Node) error {
	return o.apply(ctx, IntentCreateEdge, func(d *graph.Document) error {
		e := graph.Edge{Source: source.ID, Target: target.ID}
		if err := d.AddEdge(e); err != nil {
			return err
		}
		o.sel = graph.SelectEdge(e)
		return nil
	})
}

// SwapEdge retargets old to run from source to target.
func (o *Owner) SwapEdge(ctx context.Context, source, target graph.Node, old graph.Edge) error {
	return o.apply(ctx, IntentSwapEdge, func(d *graph.Document) error {
		e, err := d.SwapEdge(old, source.ID, target.ID)
		if err != nil {
			return err
		}
		o.sel = graph.SelectEdge(e)
		return nil
	})
}

// DeleteEdge removes e and clears the selection.
func (o *Owner) DeleteEdge(ctx context.Context, e graph.Edge) error {
	return o.apply(ctx, IntentDeleteEdge, func(d *graph.Document) error {
		if err := d.RemoveEdge(e); err != nil {
			return err
		}
		o.sel = graph.Selection{}
		return nil
	})
}

// SelectNode selects n, or clears the selection when n is nil.
func (o *Owner) SelectNode(n *graph.Node) {
	if n == nil {
		o.selectOnly(graph.Selection{})
		return
	}
	o.selectOnly(graph.SelectNode(*n))
}

// SelectEdge selects e, or clears the selection when e is nil.
func (o *Owner) SelectEdge(e *graph.Edge) {
	if e == nil {
		o.selectOnly(graph.Selection{})
		return
	}
	o.selectOnly(graph.SelectEdge(*e))
}

func (o *Owner) selectOnly(sel graph.Selection) {
	o.commitMu.Lock()
	defer o.commitMu.Unlock()
	o.mu.Lock()
	if o.sel.Equal(sel) {
		o.mu.Unlock()
		return
	}
	o.sel = sel
	doc, viewers := o.doc.Clone(), append([]Viewer(nil), o.viewers...)
	o.mu.Unlock()

	for _, v := range viewers {
		v.SetGraph(doc.Nodes, doc.Edges, sel)
	}
}

// apply runs fn against a copy of the document and commits the copy when fn
// succeeds. The selection fn leaves behind is committed with it.
func (o *Owner) apply(ctx context.Context, intent string, fn func(*graph.Document) error) error {
	o.commitMu.Lock()
	defer o.commitMu.Unlock()
	o.mu.Lock()
	draft, prevSel := o.doc.Clone(), o.sel
	if err := fn(&draft); err != nil {
		o.sel = prevSel
		o.mu.Unlock()
		o.logger.Debug("intent refused", "intent", intent, "err", err)
		observability.Intent().OnIntent(ctx, intent, err)
		return err
	}
	o.doc = draft
	o.sel = o.resolve(o.sel)
	o.version++
	doc, sel := o.doc.Clone(), o.sel
	viewers := append([]Viewer(nil), o.viewers...)
	changed := slices.Clone(o.changed)
	o.mu.Unlock()

	observability.Intent().OnIntent(ctx, intent, nil)
	o.logger.Debug("intent applied", "intent", intent, "nodes", len(doc.Nodes), "edges", len(doc.Edges))

	err := o.persist(ctx, doc)
	for _, v := range viewers {
		v.SetGraph(doc.Nodes, doc.Edges, sel)
	}
	for _, fn := range changed {
		fn(doc)
	}
	return err
}

// resolve drops a selection that no longer exists in the document.
func (o *Owner) resolve(sel graph.Selection) graph.Selection {
	switch {
	case sel.Node != nil && o.doc.NodeIndex(sel.Node.ID) < 0:
		return graph.Selection{}
	case sel.Edge != nil && o.doc.EdgeIndex(sel.Edge.Source, sel.Edge.Target) < 0:
		return graph.Selection{}
	}
	return sel
}
