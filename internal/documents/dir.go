package documents

import (
	"context"
	"io/fs"
	"os"
)

// DirSource reads documents from a file system, usually os.DirFS of the
// configured topics directory.
type DirSource struct {
	fsys fs.FS
}

// NewDirSource creates a source over fsys.
func NewDirSource(fsys fs.FS) *DirSource {
	return &DirSource{fsys: fsys}
}

// NewDirSourceFromPath creates a source over the directory at path.
func NewDirSourceFromPath(path string) *DirSource {
	return NewDirSource(os.DirFS(path))
}

func (s *DirSource) Fetch(ctx context.Context, name string) (Document, error) {
	if err := checkName(name); err != nil {
		return Document{}, fetchError(name, err)
	}
	if err := ctx.Err(); err != nil {
		return Document{}, fetchError(name, err)
	}

	data, err := fs.ReadFile(s.fsys, name)
	if err != nil {
		return Document{}, fetchError(name, err)
	}
	return NewDocument(name, string(data)), nil
}
