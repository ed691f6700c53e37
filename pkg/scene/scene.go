// Package scene is the retained visual tree that entity renderers patch.
//
// A [Scene] holds two ordered layers. The entities layer contains one
// container per rendered node or edge, keyed by its synthetic element id and
// drawn under the view transform. The overlay layer holds screen-space
// decorations such as the graph controls panel.
//
// Renderers replace a container in place when it exists and append one
// otherwise, so sibling order follows the order entities were first
// supplied. Every committed change is published as a [Patch] to subscribers,
// which is how remote hosts mirror the scene without re-sending it.
package scene

import (
	"slices"

	"github.com/matzehuels/digraph/pkg/geometry"
)

// Kind classifies an element.
type Kind string

const (
	KindNode     Kind = "node"
	KindEdge     Kind = "edge"
	KindDragEdge Kind = "drag-edge"
	KindOverlay  Kind = "overlay"
)

// Layer selects one of the scene's ordered element lists.
type Layer int

const (
	LayerEntities Layer = iota
	LayerOverlay
)

// Element is a committed container.
type Element struct {
	ID     string        `json:"id"`
	Kind   Kind          `json:"kind"`
	Class  string        `json:"class,omitempty"`
	Markup string        `json:"markup"`
	Bounds geometry.Rect `json:"-"`
}

// Op is the kind of change a patch describes.
type Op string

const (
	OpInsert    Op = "insert"
	OpReplace   Op = "replace"
	OpRemove    Op = "remove"
	OpTransform Op = "transform"
)

// Patch describes one committed change.
type Patch struct {
	Op        Op                  `json:"op"`
	Layer     Layer               `json:"layer"`
	Index     int                 `json:"index"`
	Element   *Element            `json:"element,omitempty"`
	ID        string              `json:"id,omitempty"`
	Transform *geometry.Transform `json:"transform,omitempty"`
}

type list struct {
	elems []Element
	index map[string]int
}

func newList() list { return list{index: make(map[string]int)} }

func (l *list) reindex(from int) {
	for i := from; i < len(l.elems); i++ {
		l.index[l.elems[i].ID] = i
	}
}

// Scene is the retained tree. It is not safe for concurrent use.
type Scene struct {
	layers    [2]list
	transform geometry.Transform
	subs      map[int]func(Patch)
	nextSub   int
}

// New creates an empty scene with the identity transform.
func New() *Scene {
	return &Scene{
		layers:    [2]list{newList(), newList()},
		transform: geometry.Identity,
		subs:      make(map[int]func(Patch)),
	}
}

// Upsert commits el to layer. An existing element with the same id is
// replaced in place; otherwise el is appended. It reports whether anything
// changed: upserting an identical element is a no-op and publishes nothing.
func (s *Scene) Upsert(layer Layer, el Element) bool {
	l := &s.layers[layer]
	if i, ok := l.index[el.ID]; ok {
		if l.elems[i] == el {
			return false
		}
		l.elems[i] = el
		s.publish(Patch{Op: OpReplace, Layer: layer, Index: i, Element: &el})
		return true
	}
	l.elems = append(l.elems, el)
	i := len(l.elems) - 1
	l.index[el.ID] = i
	s.publish(Patch{Op: OpInsert, Layer: layer, Index: i, Element: &el})
	return true
}

// Remove deletes the element with id from layer and reports whether it existed.
func (s *Scene) Remove(layer Layer, id string) bool {
	l := &s.layers[layer]
	i, ok := l.index[id]
	if !ok {
		return false
	}
	l.elems = slices.Delete(l.elems, i, i+1)
	delete(l.index, id)
	l.reindex(i)
	s.publish(Patch{Op: OpRemove, Layer: layer, Index: i, ID: id})
	return true
}

// Get returns the element with id in layer.
func (s *Scene) Get(layer Layer, id string) (Element, bool) {
	l := &s.layers[layer]
	i, ok := l.index[id]
	if !ok {
		return Element{}, false
	}
	return l.elems[i], true
}

// IndexOf returns the sibling position of id in layer, or -1.
func (s *Scene) IndexOf(layer Layer, id string) int {
	if i, ok := s.layers[layer].index[id]; ok {
		return i
	}
	return -1
}

// Elements returns a copy of the layer in sibling order.
func (s *Scene) Elements(layer Layer) []Element {
	return slices.Clone(s.layers[layer].elems)
}

// Len returns the number of elements in layer.
func (s *Scene) Len(layer Layer) int { return len(s.layers[layer].elems) }

// IDs returns the element ids of the given kind in layer, in sibling order.
func (s *Scene) IDs(layer Layer, kind Kind) []string {
	var out []string
	for _, el := range s.layers[layer].elems {
		if el.Kind == kind {
			out = append(out, el.ID)
		}
	}
	return out
}

// BBox returns the union of node and edge bounds in model coordinates.
// The in-flight drag edge and overlays are excluded. An empty scene yields
// the zero rect.
func (s *Scene) BBox() geometry.Rect {
	var r geometry.Rect
	for _, el := range s.layers[LayerEntities].elems {
		if el.Kind == KindNode || el.Kind == KindEdge {
			r = r.Union(el.Bounds)
		}
	}
	return r
}

// Transform returns the view transform applied to the entities layer.
func (s *Scene) Transform() geometry.Transform { return s.transform }

// SetTransform updates the view transform and reports whether it changed.
func (s *Scene) SetTransform(t geometry.Transform) bool {
	if t == s.transform {
		return false
	}
	s.transform = t
	s.publish(Patch{Op: OpTransform, Layer: LayerEntities, Transform: &t})
	return true
}

// Subscribe registers fn for every patch committed from now on. The returned
// function unsubscribes.
func (s *Scene) Subscribe(fn func(Patch)) (unsubscribe func()) {
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	return func() { delete(s.subs, id) }
}

// Snapshot returns patches that rebuild the current scene from empty.
func (s *Scene) Snapshot() []Patch {
	t := s.transform
	out := []Patch{{Op: OpTransform, Layer: LayerEntities, Transform: &t}}
	for layer := range s.layers {
		for i, el := range s.layers[layer].elems {
			out = append(out, Patch{Op: OpInsert, Layer: Layer(layer), Index: i, Element: &el})
		}
	}
	return out
}

func (s *Scene) publish(p Patch) {
	if len(s.subs) == 0 {
		return
	}
	keys := make([]int, 0, len(s.subs))
	for k := range s.subs {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for _, k := range keys {
		if fn, ok := s.subs[k]; ok {
			fn(p)
		}
	}
}
