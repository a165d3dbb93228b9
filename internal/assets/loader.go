package assets

import (
	"errors"
	"fmt"
	"io/fs"
	"path"
	"path/filepath"
	"sort"
	"strings"
)

// Loader loads stylesheets and page templates by name.
type Loader interface {
	// LoadStyle loads a CSS style by name, without the .css extension.
	LoadStyle(name string) (string, error)

	// LoadTemplate loads an HTML page template by name, without the .html extension.
	LoadTemplate(name string) (string, error)
}

// kind is one asset family: the directory it lives in, its extension and
// the sentinel reported when a name is absent.
type kind struct {
	dir      string
	ext      string
	notFound error
}

var (
	styleKind    = kind{dir: "styles", ext: ".css", notFound: ErrStyleNotFound}
	templateKind = kind{dir: "templates", ext: ".html", notFound: ErrTemplateNotFound}
)

// FSLoader reads assets from a file system laid out as styles/{name}.css
// and templates/{name}.html. It backs both the embedded assets and
// directories on disk.
type FSLoader struct {
	fsys fs.FS
	root string // absolute directory for disk loaders, empty for embedded
}

// LoadStyle loads styles/{name}.css.
func (l *FSLoader) LoadStyle(name string) (string, error) {
	return l.load(styleKind, name)
}

// LoadTemplate loads templates/{name}.html.
func (l *FSLoader) LoadTemplate(name string) (string, error) {
	return l.load(templateKind, name)
}

// StyleNames lists the stylesheet names without extension, sorted.
func (l *FSLoader) StyleNames() []string {
	matches, err := fs.Glob(l.fsys, styleKind.dir+"/*"+styleKind.ext)
	if err != nil {
		return nil
	}
	names := make([]string, 0, len(matches))
	for _, m := range matches {
		names = append(names, strings.TrimSuffix(path.Base(m), styleKind.ext))
	}
	sort.Strings(names)
	return names
}

func (l *FSLoader) load(k kind, name string) (string, error) {
	if err := ValidateAssetName(name); err != nil {
		return "", err
	}

	rel := k.dir + "/" + name + k.ext
	if l.root != "" {
		if err := l.contain(rel); err != nil {
			return "", err
		}
	}

	content, err := fs.ReadFile(l.fsys, rel)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return "", fmt.Errorf("%w: %q", k.notFound, name)
	case err != nil:
		return "", fmt.Errorf("%w: %v", ErrAssetRead, err)
	}
	return string(content), nil
}

// contain rejects a relative asset path whose target, after symlinks,
// lies outside root. os.DirFS follows symlinks, so the name check alone
// is not enough.
func (l *FSLoader) contain(rel string) error {
	target := filepath.Join(l.root, filepath.FromSlash(rel))
	resolved, err := filepath.EvalSymlinks(target)
	if err != nil {
		// Missing files are reported by the read that follows
		return nil
	}
	if !strings.HasPrefix(resolved, l.root+string(filepath.Separator)) {
		return fmt.Errorf("%w: %s escapes %s", ErrPathTraversal, rel, l.root)
	}
	return nil
}

var _ Loader = (*FSLoader)(nil)
