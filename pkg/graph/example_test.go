package graph_test

import (
	"bytes"
	"fmt"

	"github.com/matzehuels/digraph/pkg/graph"
)

func ExampleCodec_Write() {
	doc := graph.Document{
		Nodes: []graph.Node{
			{ID: "a", Type: "empty"},
			{ID: "b", X: 100},
		},
		Edges: []graph.Edge{{Source: "a", Target: "b", HandleText: "next"}},
	}

	var buf bytes.Buffer
	if err := graph.NewCodec("").Write(&buf, doc, graph.FormatJSON); err != nil {
		fmt.Println("Error:", err)
		return
	}
	fmt.Println(buf.String())
	// Output:
	// {
	//   "nodes": [
	//     {
	//       "id": "a",
	//       "type": "empty",
	//       "x": 0,
	//       "y": 0
	//     },
	//     {
	//       "id": "b",
	//       "x": 100,
	//       "y": 0
	//     }
	//   ],
	//   "edges": [
	//     {
	//       "source": "a",
	//       "target": "b",
	//       "handleText": "next"
	//     }
	//   ]
	// }
}

func ExampleIndex() {
	ix := graph.NewIndex(
		[]graph.Node{{ID: "a"}, {ID: "b"}, {ID: "c"}},
		[]graph.Edge{
			{Source: "a", Target: "b"},
			{Source: "c", Target: "b"},
			{Source: "b", Target: "a"},
		},
	)

	fmt.Println("incoming b:", len(ix.Incoming("b")))
	fmt.Println("outgoing b:", len(ix.Outgoing("b")))
	fmt.Println("has c→b:", ix.HasEdge("c", "b"))
	fmt.Println("has b→c:", ix.HasEdge("b", "c"))
	// Output:
	// incoming b: 2
	// outgoing b: 1
	// has c→b: true
	// has b→c: false
}
