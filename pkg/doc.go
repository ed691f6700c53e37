// Package pkg provides the core libraries of digraph, an embeddable editor for
// node-link diagrams.
//
// # Overview
//
// A diagram is a [graph.Document]: positioned nodes joined by directed edges.
// The document belongs to its host. A [view.View] draws it and turns pointer
// and keyboard input into intents (create node, move node, connect, delete).
// The host applies or refuses each intent and pushes the resulting document
// back with SetGraph. The view never edits the document on its own.
//
// # Packages
//
// Data and math:
//
//   - [graph] - nodes, edges, selection, JSON/YAML codec and lookup index
//   - [geometry] - points, transforms, boundary intersection and edge paths
//   - [shapes] - named node and edge shape templates
//
// Drawing:
//
//   - [scene] - the retained visual tree and its patch stream
//   - [frame] - the cooperative frame scheduler that paces redraws
//   - [render] - node and edge renderers that write scene containers
//
// Input:
//
//   - [interaction] - the pointer state machine for drawing and rewiring edges
//   - [viewport] - pan and zoom, with animated transitions and zoom to fit
//   - [view] - composes the above into one embeddable view
//
// Hosting:
//
//   - [owner] - holds a document for one or more views and persists it
//   - [store] - memory, file, redis and mongo document stores
//   - [export] - SVG, DOT, graphviz, PNG and PDF output
//   - [config] - digraph.toml loading and validation
//   - [errors] - structured errors with codes and user messages
//   - [observability] - metric and tracing hooks
//
// # Quick Start
//
//	import (
//	    "github.com/matzehuels/digraph/pkg/graph"
//	    "github.com/matzehuels/digraph/pkg/owner"
//	    "github.com/matzehuels/digraph/pkg/view"
//	)
//
//	doc, _ := graph.NewCodec("").ReadFile("flow.json")
//	o := owner.New(doc)
//	v, _ := view.New(view.Config{}, o.Callbacks())
//	o.Attach(v)
//
//	// feed input events, then pace the frames
//	v.Tick(time.Now())
//	v.WriteSVG(os.Stdout)
//
// The digraph command (cmd/digraph) wraps these packages. It renders and
// exports documents, serves views to browsers over WebSocket, and edits
// documents in the terminal.
//
// [graph]: https://pkg.go.dev/github.com/matzehuels/digraph/pkg/graph
// [geometry]: https://pkg.go.dev/github.com/matzehuels/digraph/pkg/geometry
// [shapes]: https://pkg.go.dev/github.com/matzehuels/digraph/pkg/shapes
// [scene]: https://pkg.go.dev/github.com/matzehuels/digraph/pkg/scene
// [frame]: https://pkg.go.dev/github.com/matzehuels/digraph/pkg/frame
// [render]: https://pkg.go.dev/github.com/matzehuels/digraph/pkg/render
// [interaction]: https://pkg.go.dev/github.com/matzehuels/digraph/pkg/interaction
// [viewport]: https://pkg.go.dev/github.com/matzehuels/digraph/pkg/viewport
// [view]: https://pkg.go.dev/github.com/matzehuels/digraph/pkg/view
// [owner]: https://pkg.go.dev/github.com/matzehuels/digraph/pkg/owner
// [store]: https://pkg.go.dev/github.com/matzehuels/digraph/pkg/store
// [export]: https://pkg.go.dev/github.com/matzehuels/digraph/pkg/export
// [config]: https://pkg.go.dev/github.com/matzehuels/digraph/pkg/config
// [errors]: https://pkg.go.dev/github.com/matzehuels/digraph/pkg/errors
// [observability]: https://pkg.go.dev/github.com/matzehuels/digraph/pkg/observability
package pkg
