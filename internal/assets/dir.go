package assets

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// NewDirLoader returns a loader rooted at a directory on disk.
// Returns ErrInvalidBasePath if the path is not a readable directory.
func NewDirLoader(basePath string) (*FSLoader, error) {
	if strings.TrimSpace(basePath) == "" {
		return nil, fmt.Errorf("%w: empty path", ErrInvalidBasePath)
	}

	root, err := filepath.Abs(basePath)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidBasePath, err)
	}
	// Containment compares resolved paths, so the root is resolved too
	if resolved, err := filepath.EvalSymlinks(root); err == nil {
		root = resolved
	}

	info, err := os.Stat(root)
	switch {
	case os.IsNotExist(err):
		return nil, fmt.Errorf("%w: directory does not exist: %s", ErrInvalidBasePath, root)
	case err != nil:
		return nil, fmt.Errorf("%w: %v", ErrInvalidBasePath, err)
	case !info.IsDir():
		return nil, fmt.Errorf("%w: not a directory: %s", ErrInvalidBasePath, root)
	}
	if _, err := os.ReadDir(root); err != nil {
		return nil, fmt.Errorf("%w: cannot read directory: %v", ErrInvalidBasePath, err)
	}

	return &FSLoader{fsys: os.DirFS(root), root: root}, nil
}
