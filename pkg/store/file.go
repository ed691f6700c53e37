package store

import (
	"context"
	"os"
	"path/filepath"

	"github.com/matzehuels/digraph/pkg/errors"
)

// File stores each document as a file below a directory. The key is the
// path of the file relative to the directory.
type File struct {
	dir string
}

// NewFile creates a file store in dir.
// The directory will be created if it doesn't exist.
func NewFile(dir string) (*File, error) {
	if dir == "" {
		return nil, errors.New(errors.ErrCodeInvalidConfig, "file store needs a directory")
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, errors.Wrap(errors.ErrCodeStore, err, "create store directory %s", dir)
	}
	return &File{dir: dir}, nil
}

// Dir returns the store directory.
func (f *File) Dir() string { return f.dir }

// Get reads the file for key.
func (f *File) Get(_ context.Context, key string) ([]byte, bool, error) {
	path, err := f.path(key)
	if err != nil {
		return nil, false, err
	}
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, storeErr(err, "read", key)
	}
	return data, true, nil
}

// Set writes the file for key. The file is replaced atomically so readers
// never observe a partial document.
func (f *File) Set(_ context.Context, key string, data []byte) error {
	path, err := f.path(key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return storeErr(err, "write", key)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".digraph-*")
	if err != nil {
		return storeErr(err, "write", key)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return storeErr(err, "write", key)
	}
	if err := tmp.Close(); err != nil {
		return storeErr(err, "write", key)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return storeErr(err, "write", key)
	}
	return nil
}

// Delete removes the file for key.
func (f *File) Delete(_ context.Context, key string) error {
	path, err := f.path(key)
	if err != nil {
		return err
	}
	err = os.Remove(path)
	if err == nil || os.IsNotExist(err) {
		return nil
	}
	return storeErr(err, "delete", key)
}

// Close does nothing for file stores.
func (f *File) Close() error { return nil }

func (f *File) path(key string) (string, error) {
	if err := errors.ValidateKey(key); err != nil {
		return "", err
	}
	return filepath.Join(f.dir, filepath.FromSlash(key)), nil
}

var _ Store = (*File)(nil)
