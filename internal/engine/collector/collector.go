// Package collector adapts the tree-sitter based parser engine into a
// ports.Collector: given one compile command, it parses the main file
// and the local packages it imports, and emits the symbols, references,
// and include graph the indexing pipeline partitions into shards.
//
// The real compiler frontend/collector the specification treats as an
// external collaborator is out of scope; this adapter is the stand-in
// this reference implementation plugs in, grounded on the kept
// tree-sitter parser and Go import resolver.
package collector

import (
	"context"

	cerrors "codeindex/internal/core/errors"
	"codeindex/internal/core/index"
	"codeindex/internal/core/ports"
	"codeindex/internal/engine/parser"
	"codeindex/internal/engine/resolver/drivers"
	"codeindex/internal/shared/observability"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel/attribute"
)

// MaxImportDepth bounds how many hops of local import resolution one
// Collect call walks, so a single compile command can't pull in an
// entire large module's worth of files in one pass. Files beyond the
// bound are picked up on their own compile command, or on the next
// shard-load traversal.
const MaxImportDepth = 2

// GoCollector implements ports.Collector over the parser engine.
type GoCollector struct {
	FS     ports.FileSystem
	Parser *parser.Parser
}

// NewGoCollector constructs a collector; resolver is built per TU from
// the TU's own file, since different TUs may belong to different
// modules when several projects are watched together.
func NewGoCollector(fs ports.FileSystem, p *parser.Parser) *GoCollector {
	return &GoCollector{FS: fs, Parser: p}
}

type visited struct {
	files   map[index.AbsolutePath]*parser.File
	sources index.IncludeGraph
}

func (c *GoCollector) Collect(ctx context.Context, cmd index.CompileCommand, filter ports.FileFilter) (index.IndexFileIn, bool, error) {
	ctx, span := observability.Tracer.Start(ctx, "GoCollector.Collect")
	defer span.End()

	mainPath := index.ResolveAbsolutePath(cmd)
	span.SetAttributes(attribute.String("codeindex.main_file", string(mainPath)))

	resolver := drivers.NewGoResolver()
	if err := resolver.FindGoMod(string(mainPath)); err != nil {
		return index.IndexFileIn{}, false, cerrors.AddContext(cerrors.Wrap(err, cerrors.CodeBuildInvocation, "locate go.mod"), cerrors.CtxPath, string(mainPath))
	}

	v := &visited{
		files:   make(map[index.AbsolutePath]*parser.File),
		sources: make(index.IncludeGraph),
	}

	hadErrors := false
	c.walk(mainPath, true, resolver, filter, v, 0, &hadErrors)

	result := index.IndexFileIn{Sources: v.sources, Cmd: cmd}
	for path, file := range v.files {
		if !filter(path) {
			continue
		}
		syms, refs := c.extract(path, file)
		result.Symbols = append(result.Symbols, syms...)
		result.Refs = append(result.Refs, refs...)
	}
	return result, hadErrors, nil
}

func fileURI(path index.AbsolutePath) string { return "file://" + string(path) }

func (c *GoCollector) walk(path index.AbsolutePath, isTU bool, resolver *drivers.GoResolver, filter ports.FileFilter, v *visited, depth int, hadErrors *bool) {
	if _, seen := v.files[path]; seen {
		return
	}

	content, err := c.FS.GetBuffer(path)
	if err != nil {
		*hadErrors = true
		v.sources[fileURI(path)] = index.IncludeGraphNode{URI: fileURI(path), Flags: index.HadErrors}
		return
	}
	digest := index.Digest(content)

	timer := prometheus.NewTimer(observability.ParsingDuration.WithLabelValues("go"))
	file, err := c.Parser.ParseFile(string(path), content)
	timer.ObserveDuration()
	if err != nil {
		*hadErrors = true
		v.sources[fileURI(path)] = index.IncludeGraphNode{URI: fileURI(path), Digest: digest, Flags: index.HadErrors}
		return
	}
	v.files[path] = file

	var directIncludes []string
	if depth < MaxImportDepth {
		for _, imp := range file.Imports {
			dir, ok := resolver.DirForImport(imp.Module)
			if !ok {
				continue
			}
			for _, sibling := range c.packageFiles(dir) {
				directIncludes = append(directIncludes, fileURI(sibling))
				c.walk(sibling, false, resolver, filter, v, depth+1, hadErrors)
			}
		}
	}

	var flags index.SourceFlags
	if isTU {
		flags |= index.IsTU
	}
	v.sources[fileURI(path)] = index.IncludeGraphNode{
		URI:            fileURI(path),
		Digest:         digest,
		Flags:          flags,
		DirectIncludes: directIncludes,
	}
}

// packageFiles lists the non-test .go files the parser can handle in
// dir, without recursing into subdirectories.
func (c *GoCollector) packageFiles(dir string) []index.AbsolutePath {
	entries, err := listDir(dir)
	if err != nil {
		return nil
	}
	var out []index.AbsolutePath
	for _, e := range entries {
		if !c.Parser.IsSupportedPath(e) || c.Parser.IsTestFile(e) {
			continue
		}
		out = append(out, index.CleanAbsolutePath(e))
	}
	return out
}

// extract converts one parsed file's definitions and references into
// the shared Symbol/Reference domain types. A symbol's SymbolID is its
// absolute path plus its fully-qualified name: the parser does not
// distinguish a declaration from its definition, so CanonicalDeclaration
// and Definition are always set to the same location.
func (c *GoCollector) extract(path index.AbsolutePath, file *parser.File) (index.SymbolSlab, index.RefSlab) {
	uri := fileURI(path)
	byName := make(map[string]index.SymbolID, len(file.Definitions))

	symbols := make(index.SymbolSlab, 0, len(file.Definitions))
	for _, def := range file.Definitions {
		loc := index.SymbolLocation{FileURI: uri, Line: def.Location.Line, Column: def.Location.Column}
		id := index.SymbolID(string(path) + "#" + def.FullName)
		byName[def.Name] = id
		byName[def.FullName] = id
		symbols = append(symbols, index.Symbol{
			ID:                   id,
			Name:                 def.Name,
			CanonicalDeclaration: loc,
			Definition:           loc,
			HasDeclaration:       true,
			HasDefinition:        true,
			Payload:              def,
		})
	}

	refs := make(index.RefSlab, 0, len(file.References))
	for _, ref := range file.References {
		id, ok := byName[ref.FullName]
		if !ok {
			id, ok = byName[ref.Name]
		}
		if !ok {
			// Cross-file/cross-package references this adapter can't
			// resolve locally are dropped rather than guessed at.
			continue
		}
		refs = append(refs, index.Reference{
			Symbol:   id,
			Location: index.SymbolLocation{FileURI: uri, Line: ref.Location.Line, Column: ref.Location.Column},
			Payload:  ref,
		})
	}
	return symbols, refs
}
