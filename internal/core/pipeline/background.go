package pipeline

import (
	"context"
	"log/slog"
	"math/rand"
	"time"

	"codeindex/internal/core/index"
	"codeindex/internal/core/ports"
)

// BackgroundIndexer is the top-level object: it owns the work queue,
// the registry, the aggregator, the live query index, and (optionally)
// a periodic rebuild goroutine, and wires a compilation database's
// change notifications into enqueued tasks. It is the Go analogue of
// the reference BackgroundIndex class this package's algorithms are
// modeled on.
type BackgroundIndexer struct {
	Queue      *index.WorkQueue
	Registry   *index.ShardVersionRegistry
	Aggregator *index.Aggregator
	Live       *index.LiveIndex
	Indexer    *Indexer
	Loader     *Loader

	cdb        ports.CompilationDatabase
	unwatch    func()
	stopRebuild chan struct{}
}

// Options configures a new BackgroundIndexer.
type Options struct {
	ThreadPoolSize     int
	BuildIndexPeriod   time.Duration
	ThreadPriority     index.ThreadPriorityController
	FS                 ports.FileSystem
	Collector          ports.Collector
	Store              ports.ShardStore
	CDB                ports.CompilationDatabase
	Builder            index.IndexBuilder
	URIs               URIScheme
}

// NewBackgroundIndexer constructs and starts a BackgroundIndexer: the
// worker pool is running and, if opts.CDB is set, watching for changed
// files as soon as this returns.
func NewBackgroundIndexer(opts Options) *BackgroundIndexer {
	if opts.URIs == nil {
		opts.URIs = FileURIScheme{}
	}
	registry := index.NewShardVersionRegistry()
	agg := index.NewAggregator()
	live := index.NewLiveIndex(nil)
	queue := index.NewWorkQueue(opts.ThreadPoolSize, opts.ThreadPriority)

	dirty := &DirtyFlag{}
	ix := &Indexer{
		FS:                 opts.FS,
		Collector:          opts.Collector,
		URIs:               opts.URIs,
		Registry:           registry,
		Aggregator:         agg,
		Live:               live,
		Builder:            opts.Builder,
		BuildIndexPeriodMs: int(opts.BuildIndexPeriod / time.Millisecond),
		Dirty:              dirty,
	}

	loader := &Loader{
		Store:      opts.Store,
		Registry:   registry,
		Aggregator: agg,
		URIs:       opts.URIs,
		Queue:      queue,
		Indexer:    ix,
		Rand:       rand.New(rand.NewSource(1)),
	}

	bi := &BackgroundIndexer{
		Queue:      queue,
		Registry:   registry,
		Aggregator: agg,
		Live:       live,
		Indexer:    ix,
		Loader:     loader,
		cdb:        opts.CDB,
	}

	if opts.BuildIndexPeriod > 0 {
		bi.stopRebuild = make(chan struct{})
		go bi.rebuildLoop(opts.BuildIndexPeriod, dirty)
	}

	if opts.CDB != nil {
		bi.unwatch = opts.CDB.Watch(bi.onFilesChanged)
	}

	return bi
}

// onFilesChanged is the CDB watch callback: it runs the shard-loading
// traversal for the changed set, which in turn enqueues whatever
// Background re-index tasks are needed.
func (bi *BackgroundIndexer) onFilesChanged(changedFiles []string) {
	if bi.Loader.Store == nil {
		bi.enqueueDirectly(changedFiles)
		return
	}
	bi.Loader.LoadShards(changedFiles, bi.cdb)
}

// enqueueDirectly is the fallback path when no shard store is
// configured: changed files are indexed directly without a load pass.
func (bi *BackgroundIndexer) enqueueDirectly(changedFiles []string) {
	for _, file := range changedFiles {
		cmd, _, ok := bi.cdb.GetCompileCommand(file)
		if !ok {
			continue
		}
		bi.Queue.Enqueue(func() {
			if err := bi.Indexer.Index(context.Background(), cmd, bi.Loader.Store); err != nil {
				slog.Error("index failed", "file", cmd.Filename, "error", err)
			}
		}, index.PriorityBackground)
	}
}

// Enqueue schedules a single compile command for indexing at the given
// priority. User-facing "index this file now" requests use
// PriorityNormal; everything else uses PriorityBackground.
func (bi *BackgroundIndexer) Enqueue(cmd index.CompileCommand, priority index.Priority) {
	bi.Queue.Enqueue(func() {
		if err := bi.Indexer.Index(context.Background(), cmd, bi.Loader.Store); err != nil {
			slog.Error("index failed", "file", cmd.Filename, "error", err)
		}
	}, priority)
}

// rebuildLoop rebuilds the Heavy query index on a fixed cadence,
// skipping a rebuild entirely when nothing changed since the last one.
func (bi *BackgroundIndexer) rebuildLoop(period time.Duration, dirty *DirtyFlag) {
	ticker := time.NewTicker(period)
	defer ticker.Stop()
	for {
		select {
		case <-bi.stopRebuild:
			return
		case <-ticker.C:
			if !dirty.TestAndClear() {
				continue
			}
			if bi.Indexer.Builder == nil {
				continue
			}
			index.BuildAndSwap(bi.Aggregator, bi.Indexer.Builder, bi.Live, index.IndexHeavy, index.DuplicateMerge)
		}
	}
}

// BlockUntilIdle waits for the work queue to drain, for tests.
func (bi *BackgroundIndexer) BlockUntilIdle(timeout time.Duration) bool {
	return bi.Queue.BlockUntilIdle(timeout)
}

// Stop stops the rebuild loop, unwatches the compilation database, and
// stops and joins the work queue.
func (bi *BackgroundIndexer) Stop() {
	if bi.stopRebuild != nil {
		close(bi.stopRebuild)
	}
	if bi.unwatch != nil {
		bi.unwatch()
	}
	bi.Queue.Close()
}
