package index

import (
	"sync"
	"sync/atomic"
	"time"

	"codeindex/internal/shared/observability"
)

// IndexBuilder is the external, query-side collaborator that merges a
// set of per-file slabs into an immutable query index. Its algorithms
// (how Light differs from Heavy, how duplicates are merged) are
// deliberately out of scope for this package.
type IndexBuilder interface {
	Build(slabs map[AbsolutePath]PerFileSlab, kind IndexKind, dup DuplicateHandling) any
}

// Aggregator is the thread-safe, per-file mapping from AbsolutePath to
// the most recent (symbols, refs, relations) triple for that file. It
// exclusively owns per-file slabs.
type Aggregator struct {
	mu    sync.RWMutex
	slabs map[AbsolutePath]PerFileSlab
}

// NewAggregator returns an empty aggregator.
func NewAggregator() *Aggregator {
	return &Aggregator{slabs: make(map[AbsolutePath]PerFileSlab)}
}

// Update stores the given slabs for path, replacing any previous ones.
// A nil slab argument preserves the previous slab of that kind.
func (a *Aggregator) Update(path AbsolutePath, symbols SymbolSlab, refs RefSlab, relations RelationSlab, countReferences bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	prev := a.slabs[path]
	next := PerFileSlab{
		Symbols:         symbols,
		Refs:            refs,
		Relations:       relations,
		CountReferences: countReferences,
	}
	if symbols == nil {
		next.Symbols = prev.Symbols
	}
	if refs == nil {
		next.Refs = prev.Refs
	}
	if relations == nil {
		next.Relations = prev.Relations
	}
	a.slabs[path] = next
	observability.AggregatorSlabs.Set(float64(len(a.slabs)))
}

// Snapshot returns a shallow copy of all per-file slabs, suitable for
// handing to an IndexBuilder.
func (a *Aggregator) Snapshot() map[AbsolutePath]PerFileSlab {
	a.mu.RLock()
	defer a.mu.RUnlock()
	out := make(map[AbsolutePath]PerFileSlab, len(a.slabs))
	for k, v := range a.slabs {
		out[k] = v
	}
	return out
}

// Len reports the number of known paths, for tests and metrics.
func (a *Aggregator) Len() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return len(a.slabs)
}

// Get returns a single file's slab, mostly useful in tests.
func (a *Aggregator) Get(path AbsolutePath) (PerFileSlab, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	v, ok := a.slabs[path]
	return v, ok
}

// LiveIndex holds the single, atomically-swapped pointer to the
// current query index. Readers never take a lock; they read the
// pointer and observe either the old or the new index, never a torn
// state.
type LiveIndex struct {
	ptr atomic.Pointer[any]
}

// NewLiveIndex returns a LiveIndex seeded with an empty index value.
func NewLiveIndex(initial any) *LiveIndex {
	l := &LiveIndex{}
	l.ptr.Store(&initial)
	return l
}

// Load returns the current query index.
func (l *LiveIndex) Load() any {
	p := l.ptr.Load()
	if p == nil {
		return nil
	}
	return *p
}

// Swap atomically installs a newly built index.
func (l *LiveIndex) Swap(next any) {
	l.ptr.Store(&next)
}

// BuildAndSwap asks builder to merge the aggregator's current
// contents and installs the result as the live index.
func BuildAndSwap(agg *Aggregator, builder IndexBuilder, live *LiveIndex, kind IndexKind, dup DuplicateHandling) {
	start := time.Now()
	built := builder.Build(agg.Snapshot(), kind, dup)
	live.Swap(built)
	observability.IndexBuildDuration.WithLabelValues(kind.String()).Observe(time.Since(start).Seconds())
}
