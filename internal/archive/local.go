package archive

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
)

// LocalStore keeps archived documents under a directory on disk.
type LocalStore struct {
	root string
}

// NewLocal creates the root directory when missing.
func NewLocal(dir string) (*LocalStore, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, err
	}
	return &LocalStore{root: abs}, nil
}

func (l *LocalStore) resolve(key string) string {
	return filepath.Join(l.root, filepath.FromSlash(key))
}

func (l *LocalStore) Put(_ context.Context, key string, data []byte, _ string) error {
	full := l.resolve(key)
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return err
	}
	return os.WriteFile(full, data, 0o600)
}

func (l *LocalStore) Get(_ context.Context, key string) ([]byte, error) {
	return os.ReadFile(l.resolve(key))
}

// Delete also removes the session directory once it is empty.
func (l *LocalStore) Delete(_ context.Context, key string) error {
	full := l.resolve(key)
	err := os.Remove(full)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}

	dir := filepath.Dir(full)
	if dir != l.root {
		if entries, readErr := os.ReadDir(dir); readErr == nil && len(entries) == 0 {
			_ = os.Remove(dir)
		}
	}
	return nil
}

var _ FileStore = (*LocalStore)(nil)
