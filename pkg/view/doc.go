// Package view composes the editor core into one embeddable diagram view.
//
// # Overview
//
// A [View] owns a retained [scene.Scene], a [frame.Loop] that paces its
// renders and animations, the entity renderer, the edge interaction state
// machine and the viewport controller. The host feeds it:
//
//   - graph snapshots through [View.SetGraph], one configuration pass each
//   - pointer, wheel and key events through [View.PointerDown],
//     [View.PointerMove], [View.PointerUp], [View.Wheel] and [View.KeyDown]
//   - frame ticks through [View.Tick]
//
// and reads the result back with [View.WriteSVG] or by subscribing to scene
// patches with [View.Subscribe].
//
// # Ownership
//
// The view never changes the graph it was given. Gestures that would change
// it are reported as intents through [Callbacks]; the owner applies them and
// hands the view a new snapshot with [View.SetGraph]. Nodes being dragged are
// moved locally until then.
//
// # Concurrency
//
// A View is not safe for concurrent use. Each view is driven by exactly one
// goroutine, which delivers events and ticks frames.
package view
