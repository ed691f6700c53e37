package cli

import (
	"context"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"

	"github.com/matzehuels/digraph/pkg/graph"
)

// defaultDebounce coalesces the burst of events one save produces.
const defaultDebounce = 100 * time.Millisecond

// docWatcher reports a document file each time it settles after a change.
// It watches the parent directory so that atomic renames are seen.
type docWatcher struct {
	path     string
	codec    graph.Codec
	debounce time.Duration
	watcher  *fsnotify.Watcher
	logger   *log.Logger
	docs     chan graph.Document
}

func newDocWatcher(path string, codec graph.Codec, logger *log.Logger) (*docWatcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := w.Add(filepath.Dir(abs)); err != nil {
		w.Close()
		return nil, err
	}
	return &docWatcher{
		path:     abs,
		codec:    codec,
		debounce: defaultDebounce,
		watcher:  w,
		logger:   logger,
		docs:     make(chan graph.Document, 1),
	}, nil
}

// Docs delivers reloaded documents. It is closed when Run returns.
func (w *docWatcher) Docs() <-chan graph.Document { return w.docs }

// Run watches until ctx ends. Documents that fail to decode are logged and
// skipped; the last good one stays in place.
func (w *docWatcher) Run(ctx context.Context) {
	defer close(w.docs)
	defer w.watcher.Close()

	timer := time.NewTimer(w.debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != w.path {
				continue
			}
			if ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) || ev.Has(fsnotify.Rename) {
				timer.Reset(w.debounce)
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("watch error", "error", err)
		case <-timer.C:
			doc, err := w.codec.ReadFile(w.path)
			if err != nil {
				w.logger.Warn("reload skipped", "path", w.path, "error", err)
				continue
			}
			// Drop an undelivered document in favor of the newer one.
			select {
			case <-w.docs:
			default:
			}
			w.docs <- doc
		}
	}
}
