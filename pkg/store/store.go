// Package store persists graph documents as opaque bytes under string keys.
//
// # Backends
//
// A [Store] is selected by URL scheme with [Open]:
//
//	memory://                  process-local map, lost on exit
//	file:///var/lib/digraph    one file per key below a directory
//	redis://localhost:6379/0   Redis strings (redis/go-redis)
//	mongodb://localhost/db     one document per key (mongo-driver)
//
// Every store returned by Open reports its operations to the registered
// [observability.StoreHooks].
//
// # Keys
//
// Keys are validated with [errors.ValidateKey] before they reach a backend,
// so file stores never resolve a key outside their directory.
package store

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"net/url"
	"strings"
	"time"

	"github.com/matzehuels/digraph/pkg/errors"
	"github.com/matzehuels/digraph/pkg/observability"
)

// Store is a key-value document store.
type Store interface {
	// Get returns the document stored under key. A missing key is reported
	// with ok == false and a nil error.
	Get(ctx context.Context, key string) (data []byte, ok bool, err error)

	// Set stores data under key, replacing any previous document.
	Set(ctx context.Context, key string, data []byte) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases the backend's connections.
	Close() error
}

// Open connects to the store named by rawURL.
func Open(ctx context.Context, rawURL string) (Store, error) {
	if err := errors.ValidateStoreURL(rawURL); err != nil {
		return nil, err
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "parse store URL")
	}

	var (
		s       Store
		backend = u.Scheme
	)
	switch u.Scheme {
	case "memory":
		s = NewMemory()
	case "file":
		dir := u.Path
		if u.Host != "" {
			dir = u.Host + dir
		}
		s, err = NewFile(dir)
	case "redis", "rediss":
		backend = "redis"
		s, err = NewRedis(ctx, rawURL)
	case "mongodb", "mongodb+srv":
		backend = "mongo"
		s, err = NewMongo(ctx, rawURL)
	}
	if err != nil {
		return nil, err
	}
	return Instrument(backend, s), nil
}

// Hash returns the hex SHA-256 of data. Hosts use it as a document etag.
func Hash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// =============================================================================
// Instrumentation
// =============================================================================

type instrumented struct {
	backend string
	inner   Store
}

// Instrument wraps s so that its operations are reported to the store hooks
// under the given backend name.
func Instrument(backend string, s Store) Store {
	return &instrumented{backend: backend, inner: s}
}

func (s *instrumented) Get(ctx context.Context, key string) ([]byte, bool, error) {
	start := time.Now()
	data, ok, err := s.inner.Get(ctx, key)
	if err != nil {
		observability.Store().OnStoreError(ctx, s.backend, "get", err)
		return nil, false, err
	}
	observability.Store().OnStoreGet(ctx, s.backend, ok, time.Since(start))
	return data, ok, nil
}

func (s *instrumented) Set(ctx context.Context, key string, data []byte) error {
	start := time.Now()
	if err := s.inner.Set(ctx, key, data); err != nil {
		observability.Store().OnStoreError(ctx, s.backend, "set", err)
		return err
	}
	observability.Store().OnStoreSet(ctx, s.backend, len(data), time.Since(start))
	return nil
}

func (s *instrumented) Delete(ctx context.Context, key string) error {
	if err := s.inner.Delete(ctx, key); err != nil {
		observability.Store().OnStoreError(ctx, s.backend, "delete", err)
		return err
	}
	return nil
}

func (s *instrumented) Close() error { return s.inner.Close() }

// storeErr wraps a backend failure, keeping structured errors as they are.
func storeErr(err error, op, key string) error {
	if errors.GetCode(err) != "" {
		return err
	}
	return errors.Wrap(errors.ErrCodeStore, err, "%s %s", op, strings.TrimSpace(key))
}
