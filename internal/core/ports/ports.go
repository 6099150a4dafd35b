// Package ports declares the small capability interfaces through
// which the indexing core reaches every external collaborator: the
// shard store, the compilation database, the virtual filesystem, and
// the compiler frontend/collector. None of these is implemented by
// the core; concrete adapters live under codeindex/internal/data and
// codeindex/internal/engine.
package ports

import (
	"codeindex/internal/core/index"
	"context"
)

// ShardStore is a pluggable key/value store addressed by absolute
// file path. It is opaque to the core: the core hands it a ShardOnDisk
// value and does not define its serialization.
type ShardStore interface {
	LoadShard(path index.AbsolutePath) (*index.ShardOnDisk, error)
	StoreShard(path index.AbsolutePath, shard index.ShardOnDisk) error
}

// ShardStoreFactory derives a ShardStore handle keyed by a project's
// source root, mirroring BackgroundIndexStorage::Factory.
type ShardStoreFactory func(sourceRoot string) ShardStore

// ProjectInfo carries the project metadata returned alongside a
// compile command.
type ProjectInfo struct {
	SourceRoot string
}

// CompilationDatabase supplies compile commands and notifies the core
// when the set of known commands changes.
type CompilationDatabase interface {
	GetCompileCommand(file string) (index.CompileCommand, ProjectInfo, bool)
	Watch(callback func(changedFiles []string)) (unwatch func())
}

// FileSystem is the virtual filesystem the core reads source bytes
// through. It exists so tests can substitute an in-memory filesystem
// without touching disk.
type FileSystem interface {
	GetBuffer(path index.AbsolutePath) ([]byte, error)
	SetCurrentDirectory(path string)
}

// FileFilter decides, for a single file visited during one collector
// execution, whether its symbols/refs/relations should be collected.
// The collector still emits an IncludeGraphNode for a filtered-out
// file; the filter only controls symbol/ref/relation extraction.
type FileFilter func(absPath index.AbsolutePath) bool

// Collector is the compiler frontend and symbol collector. It parses
// one compile command (and transitively whatever it includes/imports)
// and emits four sinks as it goes. It is invoked once and signals
// completion by returning.
type Collector interface {
	Collect(ctx context.Context, cmd index.CompileCommand, filter FileFilter) (result index.IndexFileIn, hadErrors bool, err error)
}
