package index

import (
	"crypto/sha1"
	"path/filepath"
)

// Digest computes the FileDigest of a buffer. SHA-1 is used purely as
// a fast content fingerprint, not for any security property.
func Digest(content []byte) FileDigest {
	sum := sha1.Sum(content)
	var d FileDigest
	copy(d[:], sum[:])
	return d
}

// ResolveAbsolutePath computes the TU's AbsolutePath from a compile
// command: if Filename is already absolute it is used as-is, otherwise
// it is joined with Directory. Either way "." and ".." segments are
// removed.
func ResolveAbsolutePath(cmd CompileCommand) AbsolutePath {
	if filepath.IsAbs(cmd.Filename) {
		return AbsolutePath(filepath.Clean(cmd.Filename))
	}
	return AbsolutePath(filepath.Clean(filepath.Join(cmd.Directory, cmd.Filename)))
}

// CleanAbsolutePath canonicalizes an arbitrary path that is already
// known to be absolute.
func CleanAbsolutePath(p string) AbsolutePath {
	return AbsolutePath(filepath.Clean(p))
}
