// Package observability provides hooks for metrics, tracing, and logging.
//
// This package enables optional instrumentation without adding hard dependencies
// on specific observability backends. Consumers can register hooks at startup
// to receive events about rendering, viewport changes, owner intents and
// document store operations.
//
// # Architecture
//
// The package uses a simple hooks pattern:
//   - Define hook interfaces for different event categories
//   - Provide no-op default implementations
//   - Allow registration of custom implementations at startup
//
// This approach:
//   - Avoids import cycles (hooks are registered by main, not by libraries)
//   - Keeps the editor core free of observability frameworks
//   - Allows different backends (the serve command registers Prometheus)
//
// Render and viewport hooks are called from inside frame callbacks and take
// no context; they must return quickly.
//
// # Usage
//
// Register hooks at application startup:
//
//	func main() {
//	    observability.SetRenderHooks(&myRenderHooks{})
//	    observability.SetStoreHooks(&myStoreHooks{})
//	    // ... run application
//	}
//
// Libraries call hooks to emit events:
//
//	observability.Render().OnRender("node", id, changed, time.Since(start))
package observability

import (
	"context"
	"sync"
	"time"
)

// =============================================================================
// Render Hooks
// =============================================================================

// RenderHooks receives events from the entity renderer.
type RenderHooks interface {
	// OnSchedule records a debounced render request. Coalesced is true when
	// the request replaced one still pending for the same entity.
	OnSchedule(kind, id string, coalesced bool)

	// OnRender records a synchronous render. Changed is false when the
	// committed element was identical to the previous one.
	OnRender(kind, id string, changed bool, duration time.Duration)

	// OnSuppress records a bulk render skipped because an edge drag is active.
	OnSuppress(kind string)
}

// =============================================================================
// Viewport Hooks
// =============================================================================

// ViewportHooks receives events from the viewport controller.
type ViewportHooks interface {
	// OnZoom records an accepted zoom command.
	OnZoom(k float64, animated bool)

	// OnZoomRejected records a relative zoom that would leave the zoom range.
	OnZoomRejected(k float64)
}

// =============================================================================
// Intent Hooks
// =============================================================================

// IntentHooks receives events from the data owner applying view intents.
type IntentHooks interface {
	// OnIntent records an applied (err == nil) or refused intent.
	OnIntent(ctx context.Context, intent string, err error)
}

// =============================================================================
// Store Hooks
// =============================================================================

// StoreHooks receives events from document store operations.
type StoreHooks interface {
	// OnStoreGet records a document read.
	OnStoreGet(ctx context.Context, backend string, hit bool, duration time.Duration)

	// OnStoreSet records a document write.
	OnStoreSet(ctx context.Context, backend string, size int, duration time.Duration)

	// OnStoreError records a failed store operation.
	OnStoreError(ctx context.Context, backend, op string, err error)
}

// =============================================================================
// No-op Implementations
// =============================================================================

// NoopRenderHooks is a no-op implementation of RenderHooks.
type NoopRenderHooks struct{}

func (NoopRenderHooks) OnSchedule(string, string, bool)              {}
func (NoopRenderHooks) OnRender(string, string, bool, time.Duration) {}
func (NoopRenderHooks) OnSuppress(string)                            {}

// NoopViewportHooks is a no-op implementation of ViewportHooks.
type NoopViewportHooks struct{}

func (NoopViewportHooks) OnZoom(float64, bool)   {}
func (NoopViewportHooks) OnZoomRejected(float64) {}

// NoopIntentHooks is a no-op implementation of IntentHooks.
type NoopIntentHooks struct{}

func (NoopIntentHooks) OnIntent(context.Context, string, error) {}

// NoopStoreHooks is a no-op implementation of StoreHooks.
type NoopStoreHooks struct{}

func (NoopStoreHooks) OnStoreGet(context.Context, string, bool, time.Duration) {}
func (NoopStoreHooks) OnStoreSet(context.Context, string, int, time.Duration)  {}
func (NoopStoreHooks) OnStoreError(context.Context, string, string, error)     {}

// =============================================================================
// Global Hook Registry
// =============================================================================

var (
	renderHooks   RenderHooks   = NoopRenderHooks{}
	viewportHooks ViewportHooks = NoopViewportHooks{}
	intentHooks   IntentHooks   = NoopIntentHooks{}
	storeHooks    StoreHooks    = NoopStoreHooks{}
	hooksMu       sync.RWMutex
)

// SetRenderHooks registers custom render hooks.
// This should be called once at application startup before any view is created.
func SetRenderHooks(h RenderHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		renderHooks = h
	}
}

// SetViewportHooks registers custom viewport hooks.
// This should be called once at application startup before any view is created.
func SetViewportHooks(h ViewportHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		viewportHooks = h
	}
}

// SetIntentHooks registers custom intent hooks.
func SetIntentHooks(h IntentHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		intentHooks = h
	}
}

// SetStoreHooks registers custom store hooks.
// This should be called once at application startup before any store is opened.
func SetStoreHooks(h StoreHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		storeHooks = h
	}
}

// Render returns the registered render hooks.
func Render() RenderHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return renderHooks
}

// Viewport returns the registered viewport hooks.
func Viewport() ViewportHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return viewportHooks
}

// Intent returns the registered intent hooks.
func Intent() IntentHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return intentHooks
}

// Store returns the registered store hooks.
func Store() StoreHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return storeHooks
}

// Reset restores all hooks to their no-op defaults.
// This is primarily useful for testing.
func Reset() {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	renderHooks = NoopRenderHooks{}
	viewportHooks = NoopViewportHooks{}
	intentHooks = NoopIntentHooks{}
	storeHooks = NoopStoreHooks{}
}
