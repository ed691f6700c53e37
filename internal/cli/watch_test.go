package cli

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/digraph/pkg/graph"
)

func TestDocWatcherReloads(t *testing.T) {
	dir := t.TempDir()
	path := writeSample(t, dir, "flow.json")

	w, err := newDocWatcher(path, graph.NewCodec(""), log.New(io.Discard))
	require.NoError(t, err)
	w.debounce = 10 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Run(ctx)

	// Unrelated files in the same directory are ignored.
	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.json"), []byte("{}"), 0o644))

	updated := `{"nodes": [{"id": "z", "x": 5, "y": 6}], "edges": []}`
	require.NoError(t, os.WriteFile(path, []byte(updated), 0o644))

	select {
	case doc := <-w.Docs():
		require.Len(t, doc.Nodes, 1)
		assert.Equal(t, "z", doc.Nodes[0].ID)
	case <-time.After(5 * time.Second):
		t.Fatal("no reload")
	}
}

func TestDocWatcherSkipsInvalid(t *testing.T) {
	dir := t.TempDir()
	path := writeSample(t, dir, "flow.json")

	w, err := newDocWatcher(path, graph.NewCodec(""), log.New(io.Discard))
	require.NoError(t, err)
	w.debounce = 10 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	go w.Run(ctx)

	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))
	select {
	case doc := <-w.Docs():
		t.Fatalf("unexpected reload: %+v", doc)
	case <-time.After(200 * time.Millisecond):
	}

	cancel()
	_, open := <-w.Docs()
	assert.False(t, open)
}
