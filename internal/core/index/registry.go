package index

import (
	"sync"

	"codeindex/internal/shared/observability"
)

// ShardVersionRegistry is the process-wide mapping from AbsolutePath to
// the most recent indexing outcome for that file. It is protected by a
// single mutex, held only for snapshotting and single-entry updates;
// it is never held across I/O (I1, I2).
type ShardVersionRegistry struct {
	mu      sync.Mutex
	entries map[AbsolutePath]ShardVersion
}

// NewShardVersionRegistry returns an empty registry.
func NewShardVersionRegistry() *ShardVersionRegistry {
	return &ShardVersionRegistry{entries: make(map[AbsolutePath]ShardVersion)}
}

// Snapshot copies all entries under the lock. Callers use this once
// per TU and compare against it for the lifetime of that indexing
// pass; staleness between the snapshot and the eventual write is
// tolerated by design (last-writer-wins).
func (r *ShardVersionRegistry) Snapshot() map[AbsolutePath]ShardVersion {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[AbsolutePath]ShardVersion, len(r.entries))
	for k, v := range r.entries {
		out[k] = v
	}
	return out
}

// Get returns a single entry, mostly useful in tests.
func (r *ShardVersionRegistry) Get(path AbsolutePath) (ShardVersion, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.entries[path]
	return v, ok
}

// ShouldUpdate reports whether writing `next` for `path` is permitted
// under I2: a file is only overwritten when its digest changed, or
// when its previous state had errors and the new one does not.
func ShouldUpdate(existing ShardVersion, existed bool, next ShardVersion) bool {
	if !existed {
		return true
	}
	if existing.Digest != next.Digest {
		return true
	}
	if existing.HadErrors && !next.HadErrors {
		return true
	}
	return false
}

// update applies I2 to a single entry and reports whether the write
// was applied. The caller must hold r.mu; WithLock hands it out so a
// matching aggregator update happens under the same lock (I1).
func (r *ShardVersionRegistry) update(path AbsolutePath, next ShardVersion) bool {
	existing, existed := r.entries[path]
	if !ShouldUpdate(existing, existed, next) {
		return false
	}
	r.entries[path] = next
	observability.ShardRegistrySize.Set(float64(len(r.entries)))
	return true
}

// WithLock runs fn while holding the registry mutex, handing it a
// mutation callback that applies I2 to a single path. The Aggregator
// update the pipeline performs alongside a registry write must happen
// inside fn so that a reader can never observe the registry ahead of
// the aggregator for the same path (I1).
func (r *ShardVersionRegistry) WithLock(fn func(update func(path AbsolutePath, next ShardVersion) (applied bool))) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fn(r.update)
}

// ForceSet installs an entry unconditionally, bypassing I2. Used only
// by the shard-load traversal (§4.6), where first-wins loading is
// acceptable.
func (r *ShardVersionRegistry) ForceSet(path AbsolutePath, v ShardVersion) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[path] = v
	observability.ShardRegistrySize.Set(float64(len(r.entries)))
}

// Len reports the number of known paths, for tests and metrics.
func (r *ShardVersionRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}
