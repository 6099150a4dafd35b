// Package pipeline implements the per-task indexing algorithm (§4.4,
// §4.5) and the shard-loading traversal (§4.6) on top of the pure
// domain types and the queue/registry/aggregator primitives in
// codeindex/internal/core/index, wired to external collaborators
// through codeindex/internal/core/ports.
package pipeline

import (
	"codeindex/internal/core/index"
	cerrors "codeindex/internal/core/errors"
	"codeindex/internal/core/ports"
	"codeindex/internal/shared/observability"
	"context"
	"log/slog"
	"sync/atomic"

	"go.opentelemetry.io/otel/attribute"
)

// URIScheme resolves between the collector's URI space and
// AbsolutePaths. The real URI/path resolver is an external
// collaborator named but not implemented by the spec; FileURIScheme in
// urischeme.go is the file:// encoding this reference implementation
// plugs in when nothing more elaborate is available.
type URIScheme interface {
	ToURI(path index.AbsolutePath) string
	Resolve(uri string, hint index.AbsolutePath) (index.AbsolutePath, error)
}

// Indexer runs the per-TU indexing algorithm described in §4.4/§4.5.
// It owns no state of its own beyond its collaborators: the registry
// and aggregator it mutates are shared with the rest of the
// background indexer.
type Indexer struct {
	FS         ports.FileSystem
	Collector  ports.Collector
	URIs       URIScheme
	Registry   *index.ShardVersionRegistry
	Aggregator *index.Aggregator
	Live       *index.LiveIndex
	Builder    index.IndexBuilder

	// BuildIndexPeriodMs mirrors the constructor parameter: 0 disables
	// the periodic rebuilder, in which case Index builds and swaps a
	// Light index itself before returning.
	BuildIndexPeriodMs int
	// Dirty is set by Index when a periodic rebuilder is configured,
	// and cleared by the rebuilder once it has rebuilt.
	Dirty *DirtyFlag
}

// Index runs §4.4 end to end for a single compile command.
func (ix *Indexer) Index(ctx context.Context, cmd index.CompileCommand, store ports.ShardStore) error {
	ctx, span := observability.Tracer.Start(ctx, "Indexer.Index")
	defer span.End()

	abs := index.ResolveAbsolutePath(cmd)
	span.SetAttributes(attribute.String("codeindex.file", string(abs)))

	if _, err := ix.FS.GetBuffer(abs); err != nil {
		return cerrors.AddContext(cerrors.Wrap(err, cerrors.CodeReadFile, "read main file"), cerrors.CtxPath, string(abs))
	}

	snapshot := ix.Registry.Snapshot()

	// fileFilter implements the per-visited-file half of I2: a file is
	// admitted for symbol/ref/relation collection only if its current
	// content digest differs from the registry's snapshot, or the
	// snapshot entry is itself the product of a failed compile.
	fileFilter := func(path index.AbsolutePath) bool {
		existing, ok := snapshot[path]
		if !ok {
			return true
		}
		liveDigest, err := ix.FS.GetBuffer(path)
		if err != nil {
			return true
		}
		d := index.Digest(liveDigest)
		if existing.Digest == d && !existing.HadErrors {
			return false
		}
		return true
	}

	ix.FS.SetCurrentDirectory(cmd.Directory)
	result, hadErrors, err := ix.Collector.Collect(ctx, cmd, fileFilter)
	if err != nil {
		return cerrors.AddContext(cerrors.Wrap(err, cerrors.CodeActionExecution, "collect"), cerrors.CtxPath, string(abs))
	}
	if hadErrors {
		slog.Warn("indexing produced diagnostics, index may be incomplete", "path", abs)
		for uri, node := range result.Sources {
			node.Flags |= index.HadErrors
			result.Sources[uri] = node
		}
	}

	Update(abs, result, snapshot, store, ix.Registry, ix.Aggregator, hadErrors, ix.URIs.Resolve)

	if ix.BuildIndexPeriodMs > 0 {
		ix.Dirty.Set()
	} else if ix.Builder != nil && ix.Live != nil {
		index.BuildAndSwap(ix.Aggregator, ix.Builder, ix.Live, index.IndexLight, index.DuplicateMerge)
	}
	return nil
}

// DirtyFlag is the "symbols_updated_since_last_index" flag from §5: an
// atomic boolean exchanged false by the periodic rebuild thread and
// set true by every task that folds new data into the aggregator.
type DirtyFlag struct{ v atomic.Bool }

func (f *DirtyFlag) Set() { f.v.Store(true) }

// TestAndClear atomically reads the flag and resets it to false,
// mirroring std::atomic<bool>::exchange(false).
func (f *DirtyFlag) TestAndClear() bool { return f.v.Swap(false) }
