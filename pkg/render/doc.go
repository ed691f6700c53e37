// Package render turns graph entities into scene containers.
//
// # Overview
//
// A [Renderer] draws one container per node and per edge into the entities
// layer of a [scene.Scene]. Containers are keyed by synthetic element ids:
//
//	node-<id>-container             a node
//	edge-<source>-<target>-container an edge
//	edge-custom-container           the edge being dragged
//
// Rendering an entity whose container exists replaces it in place, so the
// sibling order of the scene follows the order entities were first drawn.
//
// # Debouncing
//
// [Renderer.ScheduleNodeRender] and [Renderer.ScheduleEdgeRender] defer the
// work to the next frame of a [frame.Scheduler]. At most one render is
// pending per entity; scheduling again cancels the pending one, so the last
// request within a frame wins. The pending handles live in a timer table
// keyed "nodes-<id>" and "edges-<source>-<target>". Inside edge keys and
// edge element ids the characters '%', '-' and '_' of node ids are
// percent-encoded, so every edge gets its own key.
//
// [Renderer.RenderNodeNow] and [Renderer.RenderEdgeNow] draw immediately.
// Rendering a node also schedules its connected edges, whose end points
// depend on where the node is.
//
// # Edge drags
//
// While the [DragReporter] reports an edge drag, the bulk entry points
// [Renderer.RenderAllNodes], [Renderer.RenderAllEdges] and
// [Renderer.RenderConnectedEdges] do nothing, so only the dragged edge is
// redrawn as the pointer moves.
package render
