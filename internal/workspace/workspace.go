// Package workspace adapts a local directory to the editor-collaborator
// interface the session and advisor consume: a provider of file
// descriptors and live file content.
//
// In the product the editor widget plays this role; the CLI and MCP
// surfaces substitute the filesystem.
package workspace

import (
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/polyrun/debug-client/pkg/types"
)

// sourceExtensions are the file suffixes picked up by Scan.
var sourceExtensions = map[string]bool{
	".py": true, ".js": true, ".ts": true, ".go": true,
	".c": true, ".cpp": true, ".cc": true, ".h": true,
	".java": true, ".rb": true, ".rs": true, ".php": true,
	".txt": true,
}

// Dir exposes the files of a local directory. File identifiers are the
// slash-separated paths relative to the root; content is read live on
// every request so a run always ships current bytes.
type Dir struct {
	root  string
	files []types.FileDescriptor
}

// Scan builds a Dir over the source files under root. Hidden directories
// are skipped.
func Scan(root string) (*Dir, error) {
	var descriptors []types.FileDescriptor
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		name := d.Name()
		if d.IsDir() {
			if path != root && strings.HasPrefix(name, ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if !sourceExtensions[filepath.Ext(name)] {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		descriptors = append(descriptors, types.FileDescriptor{
			FileID:   rel,
			FileName: name,
			FilePath: rel,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(descriptors, func(i, j int) bool {
		return descriptors[i].FilePath < descriptors[j].FilePath
	})
	return &Dir{root: root, files: descriptors}, nil
}

// Files returns the scanned file descriptors.
func (d *Dir) Files() []types.FileDescriptor {
	out := make([]types.FileDescriptor, len(d.files))
	copy(out, d.files)
	return out
}

// Content reads the live content of a file by identifier.
func (d *Dir) Content(fileID string) (string, bool) {
	for _, fd := range d.files {
		if fd.FileID == fileID {
			raw, err := os.ReadFile(filepath.Join(d.root, filepath.FromSlash(fd.FilePath)))
			if err != nil {
				return "", false
			}
			return string(raw), true
		}
	}
	return "", false
}
