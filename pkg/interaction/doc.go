// Package interaction implements the pointer state machine for drawing and
// retargeting edges.
//
// # States
//
// A [Machine] starts in [Idle] and returns there after every gesture:
//
//	Idle ──pointer-down on canvas──────────────────────▶ PanZoom
//	Idle ──shift+pointer-down on node─────────────────▶ DraggingNewEdge
//	Idle ──secondary/shift pointer-down on arrow───────▶ DraggingExistingEdge
//	any  ──pointer-up──────────────────────────────────▶ Idle
//
// While an edge is dragged, pointer moves are mapped back to model
// coordinates through the inverse view transform and hit-tested against
// nodes. Only the dragged edge is redrawn, synchronously, as the
// "edge-custom" element.
//
// On release a new edge is proposed to the owner through
// [Intents.OnCreateEdge] and a retargeted one through [Intents.OnSwapEdge].
// Gestures that would duplicate an edge, create a self-loop that is not
// allowed, or end over empty canvas are dropped without a callback.
//
// Read-only machines never start an edge drag.
package interaction
