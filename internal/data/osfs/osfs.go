// Package osfs implements ports.FileSystem by reading directly from
// the operating system's filesystem, with a small per-path content
// cache so a busy include graph does not re-read the same file for
// every translation unit that references it.
package osfs

import (
	"os"
	"path/filepath"
	"sync"

	"codeindex/internal/core/index"
)

type FS struct {
	mu  sync.RWMutex
	cwd string

	cacheMu sync.Mutex
	cache   map[index.AbsolutePath][]byte
}

func New() *FS {
	return &FS{cache: make(map[index.AbsolutePath][]byte)}
}

// GetBuffer reads path's content, consulting the cache first. A
// caller that has just written path on disk must call Invalidate to
// keep this cache from serving stale bytes.
func (f *FS) GetBuffer(path index.AbsolutePath) ([]byte, error) {
	f.cacheMu.Lock()
	if b, ok := f.cache[path]; ok {
		f.cacheMu.Unlock()
		return b, nil
	}
	f.cacheMu.Unlock()

	data, err := os.ReadFile(string(path))
	if err != nil {
		return nil, err
	}

	f.cacheMu.Lock()
	f.cache[path] = data
	f.cacheMu.Unlock()
	return data, nil
}

// Invalidate drops path from the content cache, forcing the next
// GetBuffer to re-read it from disk.
func (f *FS) Invalidate(path index.AbsolutePath) {
	f.cacheMu.Lock()
	delete(f.cache, path)
	f.cacheMu.Unlock()
}

func (f *FS) SetCurrentDirectory(path string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cwd = path
}

func (f *FS) CurrentDirectory() string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.cwd
}

func (f *FS) Abs(path string) (string, error) {
	if filepath.IsAbs(path) {
		return filepath.Clean(path), nil
	}
	return filepath.Abs(filepath.Join(f.CurrentDirectory(), path))
}
