// Package queryindex is the IndexBuilder collaborator the core hands
// off to: it merges per-file slabs into a flat, query-by-name symbol
// index. How Light and Heavy builds differ, and how duplicate symbols
// across files are merged, is entirely this package's business; the
// core treats its output as an opaque any.
package queryindex

import (
	"sort"
	"sync"

	"codeindex/internal/core/index"
)

// Entry is one symbol as it appears in the built index: its
// definition location plus every reference site collected so far.
type Entry struct {
	Symbol     index.Symbol
	File       index.AbsolutePath
	References []index.Reference
}

// Index is the immutable snapshot installed into index.LiveIndex by
// BuildAndSwap. Lookups are by exact symbol name. Light and Heavy
// builds are produced the same way, from every slab in the snapshot;
// the kind is only recorded on the result.
type Index struct {
	byName map[string][]Entry
	byID   map[index.SymbolID]Entry
	kind   index.IndexKind
}

// Lookup returns every known symbol with the given name; the order of
// entries sharing a name is not defined.
func (ix *Index) Lookup(name string) []Entry {
	if ix == nil {
		return nil
	}
	return ix.byName[name]
}

// Get returns the entry for a single symbol ID, if known.
func (ix *Index) Get(id index.SymbolID) (Entry, bool) {
	if ix == nil {
		return Entry{}, false
	}
	e, ok := ix.byID[id]
	return e, ok
}

// Kind reports whether this snapshot was built Light or Heavy.
func (ix *Index) Kind() index.IndexKind {
	if ix == nil {
		return index.IndexLight
	}
	return ix.kind
}

// Len reports the number of distinct symbol names indexed.
func (ix *Index) Len() int {
	if ix == nil {
		return 0
	}
	return len(ix.byName)
}

// Builder implements index.IndexBuilder over the flat symbol index.
// It is safe for concurrent Build calls, though BuildAndSwap's caller
// (the periodic rebuilder, or a single task's light rebuild) never
// issues them concurrently in practice.
type Builder struct {
	mu sync.Mutex
}

func NewBuilder() *Builder { return &Builder{} }

// Build merges every slab in snapshot into a fresh Index. dup controls
// what happens when two files declare a symbol with the same ID: under
// DuplicateMerge the references from both are folded into one entry,
// keeping the first-seen declaration.
func (b *Builder) Build(snapshot map[index.AbsolutePath]index.PerFileSlab, kind index.IndexKind, dup index.DuplicateHandling) any {
	b.mu.Lock()
	defer b.mu.Unlock()

	byID := make(map[index.SymbolID]Entry)
	refsByID := make(map[index.SymbolID][]index.Reference)

	paths := make([]index.AbsolutePath, 0, len(snapshot))
	for p := range snapshot {
		paths = append(paths, p)
	}
	sort.Slice(paths, func(i, j int) bool { return paths[i] < paths[j] })

	for _, path := range paths {
		slab := snapshot[path]
		for _, sym := range slab.Symbols {
			if existing, ok := byID[sym.ID]; ok {
				if dup == index.DuplicateMerge {
					continue
				}
				_ = existing
			}
			byID[sym.ID] = Entry{Symbol: sym, File: path}
		}
	}

	for _, path := range paths {
		slab := snapshot[path]
		if !slab.CountReferences {
			continue
		}
		for _, ref := range slab.Refs {
			refsByID[ref.Symbol] = append(refsByID[ref.Symbol], ref)
		}
	}

	byName := make(map[string][]Entry, len(byID))
	for id, entry := range byID {
		entry.References = refsByID[id]
		byID[id] = entry
		byName[entry.Symbol.Name] = append(byName[entry.Symbol.Name], entry)
	}

	return &Index{byName: byName, byID: byID, kind: kind}
}
