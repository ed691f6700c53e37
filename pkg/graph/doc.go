// Package graph provides the diagram data model and its serialization.
//
// The model is owned by the host application. The editor core reads
// [Node] and [Edge] snapshots, derives adjacency through an [Index] on every
// configuration pass, and proposes changes through callbacks; it never edits
// a [Document] itself. Hosts apply those proposals with the [Document] edit
// methods.
//
// # Core Types
//
//   - [Document]: nodes in drawing order plus the edges between them
//   - [Node]: a positioned node with type, subtype and free-form attributes
//   - [Edge]: a directed connection, possibly in flight while being dragged
//   - [Selection]: at most one selected node or edge, compared by id
//   - [Index]: node lookup and incoming/outgoing adjacency
//
// # Serialization
//
// Documents are JSON or YAML, chosen by file extension. The field holding a
// node's identifier is configurable, so records from an existing store can be
// used unchanged:
//
//	codec := graph.NewCodec("uid")
//	doc, err := codec.ReadFile("flow.yaml")
//
//	nodes:
//	  - uid: a
//	    x: 0
//	    y: 0
//	    type: empty
//	    owner: ops        # kept in Node.Attrs
//	edges:
//	  - source: a
//	    target: b
//	    handleText: next
//
// Decoded documents are validated: node ids must be unique and every edge
// must connect existing nodes.
package graph
