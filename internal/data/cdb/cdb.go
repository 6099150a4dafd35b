// Package cdb adapts the filesystem watcher and a simple directory
// walk into a ports.CompilationDatabase: every supported source file
// under the configured watch paths is its own translation unit.
package cdb

import (
	"io/fs"
	"path/filepath"
	"sync"
	"time"

	"codeindex/internal/core/index"
	"codeindex/internal/core/ports"
	"codeindex/internal/core/watcher"

	"github.com/gobwas/glob"
)

// SourceLister is the subset of *parser.Parser the database needs to
// tell a source file apart from a test file or an unsupported one.
type SourceLister interface {
	IsSupportedPath(path string) bool
	IsTestFile(path string) bool
}

// Invalidator drops a path's cached content, so a changed-files
// notification doesn't feed a filesystem adapter's stale cache back
// into the indexer it also notifies.
type Invalidator interface {
	Invalidate(path index.AbsolutePath)
}

// DB walks a fixed set of watch paths and treats every supported,
// non-test file under them as a one-file translation unit: Directory
// is the file's own directory and Arguments is always empty, since
// the collector this database feeds (internal/engine/collector) needs
// no compiler flags to parse Go source.
type DB struct {
	WatchPaths  []string
	ExcludeDirs []string
	ExcludeFiles []string
	Debounce    time.Duration
	Parser      SourceLister
	FS          Invalidator

	mu      sync.Mutex
	project ports.ProjectInfo
	w       *watcher.Watcher
}

func New(watchPaths, excludeDirs, excludeFiles []string, debounce time.Duration, parser SourceLister, fs Invalidator, sourceRoot string) *DB {
	return &DB{
		WatchPaths:   watchPaths,
		ExcludeDirs:  excludeDirs,
		ExcludeFiles: excludeFiles,
		Debounce:     debounce,
		Parser:       parser,
		FS:           fs,
		project:      ports.ProjectInfo{SourceRoot: sourceRoot},
	}
}

// GetCompileCommand reports the one-file compile command for file, if
// it is a known source file.
func (d *DB) GetCompileCommand(file string) (index.CompileCommand, ports.ProjectInfo, bool) {
	abs, err := filepath.Abs(file)
	if err != nil {
		return index.CompileCommand{}, ports.ProjectInfo{}, false
	}
	if d.Parser != nil && (!d.Parser.IsSupportedPath(abs) || d.Parser.IsTestFile(abs)) {
		return index.CompileCommand{}, ports.ProjectInfo{}, false
	}
	return index.CompileCommand{
		Filename:  filepath.Base(abs),
		Directory: filepath.Dir(abs),
	}, d.project, true
}

// Watch starts the underlying fsnotify watcher over WatchPaths,
// forwarding debounced batches of changed files that are supported
// source files to callback. It returns an unwatch function that stops
// the watcher; a nil return means watching could not start.
func (d *DB) Watch(callback func(changedFiles []string)) func() {
	w, err := watcher.NewWatcher(d.Debounce, d.ExcludeDirs, d.ExcludeFiles, func(paths []string) {
		filtered := make([]string, 0, len(paths))
		for _, p := range paths {
			abs, err := filepath.Abs(p)
			if err != nil {
				continue
			}
			if d.Parser != nil && (!d.Parser.IsSupportedPath(abs) || d.Parser.IsTestFile(abs)) {
				continue
			}
			if d.FS != nil {
				d.FS.Invalidate(index.CleanAbsolutePath(abs))
			}
			filtered = append(filtered, abs)
		}
		if len(filtered) > 0 {
			callback(filtered)
		}
	})
	if err != nil {
		return nil
	}
	d.mu.Lock()
	d.w = w
	d.mu.Unlock()
	if err := w.Watch(d.WatchPaths); err != nil {
		_ = w.Close()
		return nil
	}
	return func() { _ = w.Close() }
}

// ListSourceFiles walks WatchPaths once and returns every file the
// compilation database would accept, for the initial load pass.
func (d *DB) ListSourceFiles() ([]string, error) {
	dirGlobs, err := compileGlobs(d.ExcludeDirs)
	if err != nil {
		return nil, err
	}
	fileGlobs, err := compileGlobs(d.ExcludeFiles)
	if err != nil {
		return nil, err
	}

	var files []string
	for _, root := range d.WatchPaths {
		err := filepath.WalkDir(root, func(path string, ent fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			base := filepath.Base(path)
			if ent.IsDir() {
				for _, g := range dirGlobs {
					if g.Match(base) {
						return filepath.SkipDir
					}
				}
				return nil
			}
			for _, g := range fileGlobs {
				if g.Match(base) {
					return nil
				}
			}
			abs, err := filepath.Abs(path)
			if err != nil {
				return nil
			}
			if d.Parser != nil && (!d.Parser.IsSupportedPath(abs) || d.Parser.IsTestFile(abs)) {
				return nil
			}
			files = append(files, abs)
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	return files, nil
}

func compileGlobs(patterns []string) ([]glob.Glob, error) {
	globs := make([]glob.Glob, 0, len(patterns))
	for _, p := range patterns {
		g, err := glob.Compile(p)
		if err != nil {
			return nil, err
		}
		globs = append(globs, g)
	}
	return globs, nil
}
