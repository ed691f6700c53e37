// Package owner holds a graph document on behalf of one or more views.
//
// A view never edits the graph it draws; it proposes intents through
// [view.Callbacks]. An [Owner] applies those intents to its document,
// persists the result to a [store.Store] when one is configured, and hands
// every attached view the new snapshot.
//
// Each intent is applied to a copy of the document. An intent the document
// refuses (a duplicate edge, a node that no longer exists) leaves the
// document unchanged and is reported to the intent hooks and the logger.
package owner

import (
	"context"
	"io"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/matzehuels/digraph/pkg/errors"
	"github.com/matzehuels/digraph/pkg/geometry"
	"github.com/matzehuels/digraph/pkg/graph"
	"github.com/matzehuels/digraph/pkg/store"
	"github.com/matzehuels/digraph/pkg/view"
)

// DefaultNodeType is the type given to nodes created on the canvas.
const DefaultNodeType = "empty"

// Intent names reported to the observability intent hooks.
const (
	IntentCreateNode = "create_node"
	IntentUpdateNode = "update_node"
	IntentDeleteNode = "delete_node"
	IntentCreateEdge = "create_edge"
	IntentSwapEdge   = "swap_edge"
	IntentDeleteEdge = "delete_edge"
)

// Viewer receives graph snapshots. [view.View] implements it.
type Viewer interface {
	SetGraph(nodes []graph.Node, edges []graph.Edge, selected graph.Selection)
}

// Option configures an [Owner].
type Option func(*Owner)

// WithLogger sets the owner's logger.
func WithLogger(l *log.Logger) Option {
	return func(o *Owner) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithStore persists the document under key after every applied intent.
// The document format is picked from the key's extension and defaults to JSON.
func WithStore(s store.Store, key string) Option {
	return func(o *Owner) {
		o.store, o.key = s, key
		o.format = formatOf(key)
	}
}

// WithIDGenerator replaces the random UUID node ids.
func WithIDGenerator(fn func() string) Option {
	return func(o *Owner) {
		if fn != nil {
			o.newID = fn
		}
	}
}

// WithNodeType sets the type of nodes created on the canvas.
func WithNodeType(t string) Option { return func(o *Owner) { o.nodeType = t } }

// WithCodec sets the codec used to persist the document.
func WithCodec(c graph.Codec) Option { return func(o *Owner) { o.codec = c } }

// Owner applies view intents to a document. It is safe for concurrent use;
// views are refreshed on the goroutine that applied the intent.
//
// Changes are published one at a time: a change is saved and handed to every
// viewer before the next one commits, so the store and the viewers never see
// an older document after a newer one. Viewers must not apply intents from
// inside SetGraph.
type Owner struct {
	// commitMu serialises commit, persist and fan-out. It is taken before mu.
	commitMu sync.Mutex
	mu       sync.Mutex
	doc      graph.Document
	sel      graph.Selection
	viewers  []Viewer
	changed  []func(graph.Document)
	logger   *log.Logger
	codec    graph.Codec
	store    store.Store
	key      string
	format   graph.Format
	newID    func() string
	nodeType string
	version  int
}

// New creates an owner of doc.
func New(doc graph.Document, opts ...Option) *Owner {
	o := &Owner{
		doc:      doc.Clone(),
		logger:   log.New(io.Discard),
		codec:    graph.NewCodec(""),
		newID:    uuid.NewString,
		nodeType: DefaultNodeType,
		format:   graph.FormatJSON,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Load creates an owner of the document stored under key, or of an empty
// document when the key is missing. The owner persists back to the same key.
func Load(ctx context.Context, s store.Store, key string, opts ...Option) (*Owner, error) {
	o := New(graph.Document{}, append(opts, WithStore(s, key))...)
	data, ok, err := s.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	if ok {
		doc, err := o.codec.Unmarshal(data, o.format)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidGraph, err, "load %s", key)
		}
		o.doc = doc
	}
	o.logger.Debug("document loaded", "key", key, "found", ok, "nodes", len(o.doc.Nodes))
	return o, nil
}

func formatOf(key string) graph.Format {
	if f, err := graph.FormatFromPath(key); err == nil {
		return f
	}
	return graph.FormatJSON
}

// Attach registers v and hands it the current document.
func (o *Owner) Attach(v Viewer) {
	o.commitMu.Lock()
	defer o.commitMu.Unlock()
	o.mu.Lock()
	o.viewers = append(o.viewers, v)
	doc, sel := o.doc.Clone(), o.sel
	o.mu.Unlock()
	v.SetGraph(doc.Nodes, doc.Edges, sel)
}

// Detach unregisters v.
func (o *Owner) Detach(v Viewer) {
	o.mu.Lock()
	defer o.mu.Unlock()
	for i, w := range o.viewers {
		if w == v {
			o.viewers = append(o.viewers[:i], o.viewers[i+1:]...)
			return
		}
	}
}

// OnChange registers fn for every applied intent and replaced document.
func (o *Owner) OnChange(fn func(graph.Document)) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.changed = append(o.changed, fn)
}

// Document returns a copy of the current document.
func (o *Owner) Document() graph.Document {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.doc.Clone()
}

// Selection returns the current selection.
func (o *Owner) Selection() graph.Selection {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.sel
}

// Version counts the document changes applied so far.
func (o *Owner) Version() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.version
}

// Replace swaps in a new document, for example one reloaded from disk.
// The selection is kept when it still resolves.
func (o *Owner) Replace(ctx context.Context, doc graph.Document) error {
	if err := doc.Validate(); err != nil {
		return err
	}
	return o.apply(ctx, "replace", func(d *graph.Document) error {
		*d = doc.Clone()
		return nil
	})
}

// Callbacks returns view callbacks that apply intents to this owner.
// Refused intents are logged; they never reach the view as errors.
func (o *Owner) Callbacks() view.Callbacks {
	ctx := context.Background()
	return view.Callbacks{
		OnCreateNode: func(p geometry.Point) { _, _ = o.CreateNode(ctx, p) },
		OnUpdateNode: func(n graph.Node) { _ = o.UpdateNode(ctx, n) },
		OnDeleteNode: func(n graph.Node) { _ = o.DeleteNode(ctx, n) },
		OnSelectNode: o.SelectNode,
		OnCreateEdge: func(s, t graph.Node) { _ = o.CreateEdge(ctx, s, t) },
		OnSwapEdge:   func(s, t graph.Node, old graph.Edge) { _ = o.SwapEdge(ctx, s, t, old) },
		OnDeleteEdge: func(e graph.Edge) { _ = o.DeleteEdge(ctx, e) },
		OnSelectEdge: o.SelectEdge,
	}
}
