// Package blob provides the binary object store the download path reads
// from. Objects are addressed by opaque storage keys.
package blob

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// ErrObjectNotFound signals a storage key with no backing object.
var ErrObjectNotFound = errors.New("object not found")

// FS serves objects from a directory tree rooted at a configured path.
type FS struct {
	root string
}

// NewFS builds a filesystem-backed object store rooted at dir.
func NewFS(dir string) *FS {
	return &FS{root: dir}
}

// Open returns a reader and size for the object at key. Keys are cleaned and
// confined to the root; anything that would escape it reads as not found.
func (f *FS) Open(ctx context.Context, key string) (io.ReadCloser, int64, error) {
	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}

	clean := path.Clean("/" + key)
	if clean == "/" || strings.Contains(clean, "..") {
		return nil, 0, ErrObjectNotFound
	}
	full := filepath.Join(f.root, filepath.FromSlash(clean))

	file, err := os.Open(full)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, 0, ErrObjectNotFound
		}
		return nil, 0, fmt.Errorf("open object: %w", err)
	}

	info, err := file.Stat()
	if err != nil {
		_ = file.Close()
		return nil, 0, fmt.Errorf("stat object: %w", err)
	}
	if info.IsDir() {
		_ = file.Close()
		return nil, 0, ErrObjectNotFound
	}

	return file, info.Size(), nil
}
