package pipeline

import (
	"codeindex/internal/core/index"
	"fmt"
	"strings"
)

// FileURIScheme is a plain file:// URI scheme: ToURI prefixes the
// absolute path, Resolve strips the prefix and cleans the result. It
// ignores hint, since a bare file:// URI is already absolute; hint
// exists on the interface for schemes (e.g. an actual URI resolver
// with relative references) that need it.
//
// The spec calls the URI/path resolver an external collaborator and
// leaves its format unspecified; this is the simplest scheme that
// satisfies round-tripping and is what the kept Collector adapter emits.
type FileURIScheme struct{}

const fileURIPrefix = "file://"

func (FileURIScheme) ToURI(path index.AbsolutePath) string {
	return fileURIPrefix + string(path)
}

func (FileURIScheme) Resolve(uri string, _ index.AbsolutePath) (index.AbsolutePath, error) {
	if !strings.HasPrefix(uri, fileURIPrefix) {
		return "", fmt.Errorf("pipeline: not a file:// uri: %q", uri)
	}
	return index.CleanAbsolutePath(strings.TrimPrefix(uri, fileURIPrefix)), nil
}
