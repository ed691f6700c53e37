package store

import (
	"context"
	stderrors "errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/digraph/pkg/errors"
	"github.com/matzehuels/digraph/pkg/observability"
)

func testStore(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()

	_, ok, err := s.Get(ctx, "diagram.json")
	require.NoError(t, err)
	assert.False(t, ok, "empty store")

	require.NoError(t, s.Set(ctx, "diagram.json", []byte(`{"nodes":[]}`)))
	data, ok, err := s.Get(ctx, "diagram.json")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `{"nodes":[]}`, string(data))

	require.NoError(t, s.Set(ctx, "diagram.json", []byte("v2")))
	data, _, _ = s.Get(ctx, "diagram.json")
	assert.Equal(t, "v2", string(data))

	require.NoError(t, s.Delete(ctx, "diagram.json"))
	_, ok, err = s.Get(ctx, "diagram.json")
	require.NoError(t, err)
	assert.False(t, ok)
	require.NoError(t, s.Delete(ctx, "diagram.json"), "deleting a missing key")

	for _, key := range []string{"", "../escape", "/abs", "a//b"} {
		err := s.Set(ctx, key, []byte("x"))
		assert.True(t, errors.Is(err, errors.ErrCodeInvalidKey), "key %q: %v", key, err)
	}
}

func TestMemory(t *testing.T) {
	m := NewMemory()
	defer m.Close()
	testStore(t, m)
}

func TestMemoryCopies(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	buf := []byte("abc")
	require.NoError(t, m.Set(ctx, "k", buf))
	buf[0] = 'x'

	data, _, _ := m.Get(ctx, "k")
	assert.Equal(t, "abc", string(data))
	data[0] = 'y'
	data, _, _ = m.Get(ctx, "k")
	assert.Equal(t, "abc", string(data))
	assert.Equal(t, 1, m.Len())
}

func TestFile(t *testing.T) {
	dir := t.TempDir()
	f, err := NewFile(dir)
	require.NoError(t, err)
	testStore(t, f)
}

func TestFileNestedKeys(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	f, err := NewFile(dir)
	require.NoError(t, err)

	require.NoError(t, f.Set(ctx, "team/flow.yaml", []byte("nodes: []")))
	data, err := os.ReadFile(filepath.Join(dir, "team", "flow.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "nodes: []", string(data))

	entries, err := os.ReadDir(filepath.Join(dir, "team"))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temp files left behind")
}

func TestOpen(t *testing.T) {
	ctx := context.Background()

	s, err := Open(ctx, "memory://")
	require.NoError(t, err)
	testStore(t, s)

	dir := t.TempDir()
	s, err = Open(ctx, "file://"+dir)
	require.NoError(t, err)
	require.NoError(t, s.Set(ctx, "a.json", []byte("{}")))
	_, err = os.Stat(filepath.Join(dir, "a.json"))
	assert.NoError(t, err)

	_, err = Open(ctx, "ftp://example.com")
	assert.True(t, errors.Is(err, errors.ErrCodeInvalidConfig))

	_, err = Open(ctx, "redis://localhost:6379/notanumber")
	assert.True(t, errors.Is(err, errors.ErrCodeInvalidConfig))
}

func TestMongoDatabase(t *testing.T) {
	tests := []struct {
		url  string
		want string
	}{
		{"mongodb://localhost:27017", DefaultMongoDatabase},
		{"mongodb://localhost:27017/", DefaultMongoDatabase},
		{"mongodb://user:pw@localhost/diagrams", "diagrams"},
		{"mongodb+srv://cluster.example.com/prod?retryWrites=true", "prod"},
	}
	for _, tt := range tests {
		got, err := mongoDatabase(tt.url)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, tt.url)
	}
}

type storeEvents struct {
	gets, sets int
	hits       int
	errs       []string
}

func (e *storeEvents) OnStoreGet(_ context.Context, _ string, hit bool, _ time.Duration) {
	e.gets++
	if hit {
		e.hits++
	}
}

func (e *storeEvents) OnStoreSet(context.Context, string, int, time.Duration) { e.sets++ }

func (e *storeEvents) OnStoreError(_ context.Context, backend, op string, _ error) {
	e.errs = append(e.errs, backend+":"+op)
}

func TestInstrument(t *testing.T) {
	ev := &storeEvents{}
	observability.SetStoreHooks(ev)
	defer observability.Reset()

	ctx := context.Background()
	s := Instrument("memory", NewMemory())
	_, _, _ = s.Get(ctx, "a")
	_ = s.Set(ctx, "a", []byte("x"))
	_, _, _ = s.Get(ctx, "a")
	_ = s.Set(ctx, "../a", nil)

	assert.Equal(t, 2, ev.gets)
	assert.Equal(t, 1, ev.hits)
	assert.Equal(t, 1, ev.sets)
	assert.Equal(t, []string{"memory:set"}, ev.errs)
}

func TestHash(t *testing.T) {
	assert.Equal(t, Hash([]byte("hello")), Hash([]byte("hello")))
	assert.NotEqual(t, Hash([]byte("hello")), Hash([]byte("world")))
	assert.Len(t, Hash(nil), 64)
}

var errDown = stderrors.New("connection refused")

func TestRetryWithBackoff(t *testing.T) {
	retryDelay = time.Millisecond
	defer func() { retryDelay = time.Second }()
	ctx := context.Background()

	calls := 0
	err := RetryWithBackoff(ctx, func() error {
		calls++
		return nil
	})
	assert.NoError(t, err)
	assert.Equal(t, 1, calls)

	calls = 0
	err = RetryWithBackoff(ctx, func() error {
		calls++
		return errDown
	})
	assert.Equal(t, errDown, err)
	assert.Equal(t, 1, calls, "plain errors are not retried")

	calls = 0
	err = RetryWithBackoff(ctx, func() error {
		calls++
		if calls < 2 {
			return Retryable(errDown)
		}
		return nil
	})
	assert.NoError(t, err)
	assert.Equal(t, 2, calls)

	calls = 0
	err = RetryWithBackoff(ctx, func() error {
		calls++
		return Retryable(errDown)
	})
	assert.True(t, IsRetryable(err))
	assert.Equal(t, 3, calls)
}

func TestRetryWithBackoffContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := RetryWithBackoff(ctx, func() error {
		return Retryable(errDown)
	})
	assert.Equal(t, context.Canceled, err)
}

func TestRetryable(t *testing.T) {
	assert.Nil(t, Retryable(nil))
	err := Retryable(errDown)
	assert.True(t, IsRetryable(err))
	assert.Equal(t, errDown.Error(), err.Error())
	assert.ErrorIs(t, err, errDown)
	assert.False(t, IsRetryable(errDown))
}

func TestStoreErr(t *testing.T) {
	cause := stderrors.New("connection reset")
	err := storeErr(cause, "get", " flow.json ")
	assert.Equal(t, errors.ErrCodeStore, errors.GetCode(err))
	assert.Equal(t, "get flow.json", errors.UserMessage(err))
	assert.ErrorIs(t, err, cause)

	invalid := errors.New(errors.ErrCodeInvalidKey, "document key cannot be empty")
	assert.Same(t, invalid, storeErr(invalid, "set", ""), "coded errors pass through")
}

func TestFileReadError(t *testing.T) {
	dir := t.TempDir()
	f, err := NewFile(dir)
	require.NoError(t, err)
	require.NoError(t, os.Mkdir(filepath.Join(dir, "flow.json"), 0o755))

	_, _, err = f.Get(context.Background(), "flow.json")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrCodeStore))
}
