// Package paths bridges backend path strings to the stable file identifiers
// used internally.
//
// The backend's path reporting format is not guaranteed stable across
// message types: the same file may arrive as "src/a.py", "src\a.py",
// "/work/src/a.py" or "./src/a.py". The index is built over every observed
// variant so resolution stays robust to all of them.
package paths

import (
	"strings"

	"github.com/polyrun/debug-client/pkg/types"
)

// workRoot is the sandbox root prefix the backend prepends to file paths.
const workRoot = "/work/"

// Canonicalize reduces a backend path string to its canonical form: slashes
// normalized forward, the /work/ root stripped, ./ and leading ../ segments
// collapsed, and no leading slash. Pure function.
func Canonicalize(path string) string {
	p := strings.ReplaceAll(path, "\\", "/")
	if strings.HasPrefix(p, workRoot) {
		p = p[len(workRoot):]
	}
	for {
		switch {
		case strings.HasPrefix(p, "./"):
			p = p[2:]
		case strings.HasPrefix(p, "../"):
			p = p[3:]
		case strings.HasPrefix(p, "/"):
			p = p[1:]
		default:
			return p
		}
	}
}

// Index maps file identifiers and path variants to file descriptors. The
// index is a value built from a snapshot of the file set; it is rebuilt
// whenever the file set changes and stale entries are never consulted.
type Index struct {
	byID   map[string]types.FileDescriptor
	byPath map[string]types.FileDescriptor
}

// BuildIndex builds an index over the given descriptors. Every descriptor is
// registered under its literal path, its canonical form, a /work/-prefixed
// form, a ./-prefixed form, and both slash directions of each, plus its bare
// file name.
func BuildIndex(fds []types.FileDescriptor) *Index {
	idx := &Index{
		byID:   make(map[string]types.FileDescriptor, len(fds)),
		byPath: make(map[string]types.FileDescriptor),
	}
	for _, fd := range fds {
		idx.byID[fd.FileID] = fd

		canon := Canonicalize(fd.FilePath)
		variants := []string{
			fd.FilePath,
			canon,
			workRoot + canon,
			"./" + canon,
			fd.FileName,
		}
		for _, v := range variants {
			if v == "" {
				continue
			}
			idx.byPath[v] = fd
			idx.byPath[strings.ReplaceAll(v, "/", "\\")] = fd
		}
	}
	return idx
}

// ByID looks up a descriptor by its file identifier.
func (idx *Index) ByID(fileID string) (types.FileDescriptor, bool) {
	if idx == nil {
		return types.FileDescriptor{}, false
	}
	fd, ok := idx.byID[fileID]
	return fd, ok
}

// Resolve maps a raw backend path to a descriptor, trying the literal path,
// its slash-flipped form, and its canonicalized form in that order. Returns
// false if no variant matches.
func (idx *Index) Resolve(rawPath string) (types.FileDescriptor, bool) {
	if idx == nil || rawPath == "" {
		return types.FileDescriptor{}, false
	}
	candidates := []string{
		rawPath,
		strings.ReplaceAll(rawPath, "\\", "/"),
		Canonicalize(rawPath),
	}
	for _, c := range candidates {
		if fd, ok := idx.byPath[c]; ok {
			return fd, true
		}
	}
	return types.FileDescriptor{}, false
}

// Descriptors returns the indexed descriptors in unspecified order.
func (idx *Index) Descriptors() []types.FileDescriptor {
	if idx == nil {
		return nil
	}
	out := make([]types.FileDescriptor, 0, len(idx.byID))
	for _, fd := range idx.byID {
		out = append(out, fd)
	}
	return out
}
