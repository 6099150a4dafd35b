package pipeline

import (
	cerrors "codeindex/internal/core/errors"
	"codeindex/internal/core/index"
	"codeindex/internal/core/ports"
	"log/slog"
)

// uriResolver resolves the URIs a collector emits to AbsolutePaths,
// with a per-TU cache so a busy include graph doesn't re-resolve the
// same URI for every symbol/ref/relation that lands in it.
type uriResolver struct {
	hint    index.AbsolutePath
	resolve func(uri string, hint index.AbsolutePath) (index.AbsolutePath, error)
	cache   *index.LRUCache[string, index.AbsolutePath]
}

func newURIResolver(hint index.AbsolutePath, resolve func(string, index.AbsolutePath) (index.AbsolutePath, error)) *uriResolver {
	return &uriResolver{hint: hint, resolve: resolve, cache: index.NewLRUCache[string, index.AbsolutePath](256)}
}

func (c *uriResolver) Resolve(uri string) (index.AbsolutePath, bool) {
	if v, ok := c.cache.Get(uri); ok {
		return v, v != ""
	}
	p, err := c.resolve(uri, c.hint)
	if err != nil {
		slog.Error("failed to resolve uri", "uri", uri, "error", err)
		c.cache.Put(uri, "")
		return "", false
	}
	c.cache.Put(uri, p)
	return p, true
}

// fileBucket accumulates the symbols/refs/relations selected for one
// file during a single update() call (§4.5 Steps B-D).
type fileBucket struct {
	path      index.AbsolutePath
	digest    index.FileDigest
	symbols   index.SymbolSlab
	refs      index.RefSlab
	relations index.RelationSlab
}

// Update partitions one TU's collector output into per-file buckets,
// writes a shard per bucket, and folds the result into the registry
// and aggregator under I1-I6. It implements §4.5.
func Update(mainFile index.AbsolutePath, result index.IndexFileIn, snapshot map[index.AbsolutePath]index.ShardVersion, store ports.ShardStore, registry *index.ShardVersionRegistry, agg *index.Aggregator, hadErrors bool, resolveURI func(uri string, hint index.AbsolutePath) (index.AbsolutePath, error)) {
	uris := newURIResolver(mainFile, resolveURI)

	buckets := make(map[index.AbsolutePath]*fileBucket)

	// Step A: decide which files to (re)write.
	for _, node := range result.Sources {
		abs, ok := uris.Resolve(node.URI)
		if !ok {
			continue
		}
		existing, existed := snapshot[abs]
		if index.ShouldUpdate(existing, existed, index.ShardVersion{Digest: node.Digest, HadErrors: hadErrors}) {
			buckets[abs] = &fileBucket{path: abs, digest: node.Digest}
		}
	}

	// Step B: place symbols, remembering where each canonical
	// declaration landed so relations (Step D) can find it.
	symbolToBucket := make(map[index.SymbolID]*fileBucket)
	for _, sym := range result.Symbols {
		if sym.HasDeclaration {
			declPath, ok := uris.Resolve(sym.CanonicalDeclaration.FileURI)
			if ok {
				if b, exists := buckets[declPath]; exists {
					b.symbols = append(b.symbols, sym)
					symbolToBucket[sym.ID] = b
				}
			}
		}
		// I5: a symbol whose definition is in a different file from its
		// canonical declaration is also stored in the definition file's bucket.
		if sym.HasDefinition && sym.Definition.FileURI != sym.CanonicalDeclaration.FileURI {
			defPath, ok := uris.Resolve(sym.Definition.FileURI)
			if ok {
				if b, exists := buckets[defPath]; exists {
					b.symbols = append(b.symbols, sym)
				}
			}
		}
	}

	// Step C: place references (I6: only into buckets being rewritten).
	for _, ref := range result.Refs {
		refPath, ok := uris.Resolve(ref.Location.FileURI)
		if !ok {
			continue
		}
		if b, exists := buckets[refPath]; exists {
			b.refs = append(b.refs, ref)
		}
	}

	// Step D: place relations by their subject symbol's bucket.
	for _, rel := range result.Relations {
		if b, exists := symbolToBucket[rel.Subject]; exists {
			b.relations = append(b.relations, rel)
		}
	}

	// Step E: write a shard per bucket.
	for path, b := range buckets {
		shard := index.ShardOnDisk{
			Symbols:      b.symbols,
			Refs:         b.refs,
			Relations:    b.relations,
			IncludeGraph: subGraph(path, result.Sources, uris),
		}
		if path == mainFile {
			cmd := result.Cmd
			shard.CompileCommand = &cmd
		}
		if store != nil {
			if err := store.StoreShard(path, shard); err != nil {
				slog.Error("failed to write shard", "path", path,
					"error", cerrors.AddContext(cerrors.Wrap(err, cerrors.CodeStoreWrite, "store shard"), cerrors.CtxPath, string(path)))
			}
		}
	}

	// Step F: update registry and aggregator together under the
	// registry mutex, preserving I1.
	registry.WithLock(func(update func(path index.AbsolutePath, next index.ShardVersion) (applied bool)) {
		for path, b := range buckets {
			next := index.ShardVersion{Digest: b.digest, HadErrors: hadErrors}
			if !update(path, next) {
				continue
			}
			agg.Update(path, b.symbols, b.refs, b.relations, path == mainFile)
		}
	})
}

// subGraph builds the self-contained sub-include-graph for path: the
// one node for this file plus empty nodes for each of its direct
// includes, with direct-include URIs pointing into the keys of this
// sub-graph.
func subGraph(path index.AbsolutePath, full index.IncludeGraph, uris *uriResolver) index.IncludeGraph {
	sub := make(index.IncludeGraph)
	var selfURI string
	for uri, node := range full {
		if abs, ok := uris.Resolve(uri); ok && abs == path {
			selfURI = uri
			sub[uri] = node
			break
		}
	}
	if selfURI == "" {
		return sub
	}
	node := sub[selfURI]
	for _, inc := range node.DirectIncludes {
		if _, exists := sub[inc]; !exists {
			sub[inc] = index.IncludeGraphNode{URI: inc}
		}
	}
	return sub
}
