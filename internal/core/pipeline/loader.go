package pipeline

import (
	"codeindex/internal/core/index"
	"codeindex/internal/core/ports"
	"context"
	"log/slog"
	"math/rand"
)

// Loader seeds the registry and aggregator from a shard store by
// walking the include graph recorded in each shard on disk. It
// implements §4.6.
type Loader struct {
	Store      ports.ShardStore
	Registry   *index.ShardVersionRegistry
	Aggregator *index.Aggregator
	URIs       URIScheme
	Queue      *index.WorkQueue
	Indexer    *Indexer
	Rand       *rand.Rand
}

// loadState is the traversal bookkeeping threaded through one
// LoadShards call. LoadShard walks the include graph recursively,
// depth-first; loadedShards keeps it from revisiting a path.
type loadState struct {
	loadedShards map[index.AbsolutePath]bool
	inQueue      map[index.AbsolutePath]bool
	filesToIndex map[index.AbsolutePath]bool
}

func (l *Loader) resolve(uri string, hint index.AbsolutePath) (index.AbsolutePath, bool) {
	abs, err := l.URIs.Resolve(uri, hint)
	if err != nil {
		return "", false
	}
	return abs, true
}

// selfNode finds the node in shard's include graph that denotes path
// itself, if any.
func (l *Loader) selfNode(path index.AbsolutePath, shard *index.ShardOnDisk) (index.IncludeGraphNode, bool) {
	for uri, node := range shard.IncludeGraph {
		if abs, ok := l.resolve(uri, path); ok && abs == path {
			return node, true
		}
	}
	return index.IncludeGraphNode{}, false
}

// LoadShard loads a single file's shard and folds it into the registry
// and aggregator unless the registry already has an entry for path
// (first-wins; I2 is not applied here). It reports whether path
// needs re-indexing: no shard on disk, a shard recorded with errors, or
// recursively, any dependency that needs re-indexing.
func (l *Loader) LoadShard(path index.AbsolutePath, st *loadState) (needsReIndexing bool) {
	if st.loadedShards[path] {
		return false
	}
	st.loadedShards[path] = true

	shard, err := l.Store.LoadShard(path)
	if err != nil || shard == nil {
		return true
	}

	self, hasSelf := l.selfNode(path, shard)
	if _, exists := l.Registry.Get(path); !exists {
		var version index.ShardVersion
		if hasSelf {
			version = index.ShardVersion{Digest: self.Digest, HadErrors: self.Flags.Has(index.HadErrors)}
		}
		l.Registry.ForceSet(path, version)
		l.Aggregator.Update(path, shard.Symbols, shard.Refs, shard.Relations, shard.CompileCommand != nil)
	}

	if hasSelf && self.Flags.Has(index.HadErrors) {
		needsReIndexing = true
	}

	for uri := range shard.IncludeGraph {
		abs, ok := l.resolve(uri, path)
		if !ok || abs == path || st.loadedShards[abs] {
			continue
		}
		if l.LoadShard(abs, st) {
			needsReIndexing = true
		}
	}
	return needsReIndexing
}

// LoadShards is the entry point run whenever the compilation database
// reports changed files: it loads every known
// shard reachable from changedFiles, then enqueues a Background
// re-index task for every file found to need one, in random order so
// that no one file's dependents are always indexed ahead of another's,
// and finally rebuilds a Heavy index from whatever the load pulled in.
func (l *Loader) LoadShards(changedFiles []string, cdb ports.CompilationDatabase) {
	st := &loadState{
		loadedShards: make(map[index.AbsolutePath]bool),
		inQueue:      make(map[index.AbsolutePath]bool),
		filesToIndex: make(map[index.AbsolutePath]bool),
	}

	commands := make(map[index.AbsolutePath]index.CompileCommand, len(changedFiles))
	for _, file := range changedFiles {
		cmd, _, ok := cdb.GetCompileCommand(file)
		if !ok {
			continue
		}
		abs := index.ResolveAbsolutePath(cmd)
		commands[abs] = cmd
		if l.LoadShard(abs, st) {
			st.filesToIndex[abs] = true
		}
	}

	toIndex := make([]index.AbsolutePath, 0, len(st.filesToIndex))
	for path := range st.filesToIndex {
		if !st.inQueue[path] {
			st.inQueue[path] = true
			toIndex = append(toIndex, path)
		}
	}
	if l.Rand != nil {
		l.Rand.Shuffle(len(toIndex), func(i, j int) { toIndex[i], toIndex[j] = toIndex[j], toIndex[i] })
	}

	for _, path := range toIndex {
		path, cmd := path, commands[path]
		l.Queue.Enqueue(func() {
			if err := l.Indexer.Index(context.Background(), cmd, l.Store); err != nil {
				slog.Error("re-index after shard load failed", "path", path, "error", err)
			}
		}, index.PriorityBackground)
	}

	if l.Indexer.Builder != nil && l.Indexer.Live != nil {
		index.BuildAndSwap(l.Aggregator, l.Indexer.Builder, l.Indexer.Live, index.IndexHeavy, index.DuplicateMerge)
	}
}
