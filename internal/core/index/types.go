// Package index implements the primitives of the background
// code-indexing core: a priority work queue, a shard-version registry,
// and a per-file slab aggregator with a swappable query index. The
// per-TU indexing pipeline and the shard-loading traversal built on
// them live in codeindex/internal/core/pipeline.
//
// Everything outside this package (the compiler frontend, the
// compilation database, the virtual filesystem, the shard store, and
// the query-side index builders) is an external collaborator reached
// only through the interfaces in codeindex/internal/core/ports.
package index

import (
	"time"

	"github.com/google/uuid"
)

// AbsolutePath is a canonicalized absolute filesystem path: no "." or
// ".." segments. It is the primary key used by the registry, the
// aggregator, and the shard store.
type AbsolutePath string

// FileDigest is a fixed-width content hash. The zero value means
// "absent" and must never be treated as a valid digest of real content.
type FileDigest [20]byte

// IsZero reports whether d is the reserved "absent" digest.
func (d FileDigest) IsZero() bool {
	return d == FileDigest{}
}

// SourceFlags is a bitset describing how a file participated in one
// indexing pass.
type SourceFlags uint8

const (
	// IsTU marks a node as the main file of a translation unit, as
	// opposed to a file reached only via inclusion. References inside
	// a TU main file are counted; references inside headers are not,
	// to avoid double counting across TUs that share a header.
	IsTU SourceFlags = 1 << iota
	// HadErrors marks that the compiler reported uncompilable errors
	// while indexing the file that owns this node.
	HadErrors
)

func (f SourceFlags) Has(bit SourceFlags) bool { return f&bit != 0 }

// SymbolID is a stable identity for a Symbol, supplied by the collector.
type SymbolID string

// SymbolLocation is a location inside a file, addressed by URI so it
// can be resolved against whichever file that URI denotes.
type SymbolLocation struct {
	FileURI string
	Line    int
	Column  int
}

// Symbol is an opaque value type supplied by the external collector.
// The core only inspects ID, CanonicalDeclaration, and Definition.
type Symbol struct {
	ID                  SymbolID
	Name                string
	CanonicalDeclaration SymbolLocation
	Definition          SymbolLocation
	HasDeclaration      bool
	HasDefinition       bool
	Payload             any
}

// Reference is an opaque value type supplied by the external collector.
// It carries a file location and resolves to a SymbolID.
type Reference struct {
	Symbol   SymbolID
	Location SymbolLocation
	Payload  any
}

// Relation is an opaque value type supplied by the external collector.
// Its Subject identifies the symbol the relation is attached to.
type Relation struct {
	Subject SymbolID
	Payload any
}

// IncludeGraphNode is the per-file record of a per-TU include graph.
// Nodes are keyed by URI within the graph; DirectIncludes entries are
// URIs that reference keys of the same graph.
type IncludeGraphNode struct {
	URI            string
	Digest         FileDigest
	Flags          SourceFlags
	DirectIncludes []string
}

// IncludeGraph is a directed multigraph over files, keyed by URI. It
// may contain cycles, self-edges, and multi-edges.
type IncludeGraph map[string]IncludeGraphNode

// ShardVersion is the tuple the registry keeps per AbsolutePath.
type ShardVersion struct {
	Digest    FileDigest
	HadErrors bool
}

// SymbolSlab, RefSlab and RelationSlab are immutable, builder-produced
// batches for one file. The core treats their contents as opaque; it
// only ever replaces a slab wholesale, never edits in place.
type SymbolSlab []Symbol
type RefSlab []Reference
type RelationSlab []Relation

// PerFileSlab is the aggregator's entry for one AbsolutePath.
type PerFileSlab struct {
	Symbols         SymbolSlab
	Refs            RefSlab
	Relations       RelationSlab
	CountReferences bool
}

// CompileCommand is a per-translation-unit compiler invocation as
// supplied by the compilation database collaborator.
type CompileCommand struct {
	Filename  string
	Directory string
	Arguments []string
}

// ShardOnDisk is the persisted unit of indexed information for one
// file: its slabs, its one-hop include sub-graph, and (main files
// only) the compile command that produced it.
type ShardOnDisk struct {
	Symbols       SymbolSlab
	Refs          RefSlab
	Relations     RelationSlab
	IncludeGraph  IncludeGraph
	CompileCommand *CompileCommand
}

// Priority is the work-queue priority of a Task.
type Priority int

const (
	// PriorityNormal tasks are inserted ahead of any queued Background
	// task; they are expected to be rare.
	PriorityNormal Priority = iota
	// PriorityBackground tasks are inserted at the tail of the queue.
	PriorityBackground
)

func (p Priority) String() string {
	if p == PriorityNormal {
		return "normal"
	}
	return "background"
}

// Task is a unit of deferred work: a captured callable plus a
// priority tag. Tasks must be safe to run on any worker goroutine.
type Task struct {
	Run      func()
	Priority Priority
	// EnqueuedAt is recorded for metrics/observability only.
	EnqueuedAt time.Time
	// ID correlates this task across log lines and trace spans; it has
	// no role in scheduling.
	ID uuid.UUID
}

// IndexFileIn is what a collector execution yields for one compile
// command: the full set of symbols/refs/relations/sources visited,
// independent of which files the file filter admitted for collection.
type IndexFileIn struct {
	Symbols SymbolSlab
	Refs    RefSlab
	Relations RelationSlab
	Sources IncludeGraph
	Cmd     CompileCommand
}

// IndexKind selects the quality/latency trade-off of a query index
// build; the trade-off itself is owned by the external index builder.
type IndexKind int

const (
	// IndexLight is built per-task when no periodic rebuilder runs.
	IndexLight IndexKind = iota
	// IndexHeavy is built by the periodic rebuilder or after bulk shard load.
	IndexHeavy
)

func (k IndexKind) String() string {
	if k == IndexHeavy {
		return "heavy"
	}
	return "light"
}

// DuplicateHandling controls how the swap-index builder treats
// symbols seen from more than one file's slab.
type DuplicateHandling int

const (
	// DuplicateMerge merges duplicate symbols into one entry; which
	// declaration is kept is up to the IndexBuilder (queryindex keeps
	// the first one seen in sorted path order).
	DuplicateMerge DuplicateHandling = iota
)
