package core

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// SourceRoot is one entry of the resource search path.
type SourceRoot struct {
	// Name identifies the root in error messages (usually its directory).
	Name string
	FS   fs.FS
}

// ResourceLocator resolves declared resource names to handles.
//
// Resolution rules:
//   - A name without '/' is relative to the declaring package directory.
//   - A name containing '/' is rooted at the source roots; a leading '/' is ignored.
//   - Roots are searched in order and the first regular file wins.
//   - Directories never satisfy a lookup.
type ResourceLocator struct {
	Roots []SourceRoot
}

// NewResourceLocator creates a locator over filesystem directories.
func NewResourceLocator(dirs ...string) *ResourceLocator {
	roots := make([]SourceRoot, 0, len(dirs))
	for _, d := range dirs {
		roots = append(roots, SourceRoot{Name: filepath.ToSlash(d), FS: os.DirFS(d)})
	}
	return &ResourceLocator{Roots: roots}
}

// NewResourceLocatorFS creates a locator over arbitrary filesystems.
func NewResourceLocatorFS(roots ...SourceRoot) *ResourceLocator {
	return &ResourceLocator{Roots: roots}
}

// ResourcePath computes the root-relative path for a declared name.
// pkgDir is the slash-separated declaring package directory; "" or "."
// denotes the root package.
func ResourcePath(pkgDir, nameHint string) (string, error) {
	name := strings.TrimSpace(nameHint)
	if name == "" {
		return "", Malformedf("empty resource name")
	}
	var p string
	if !strings.Contains(name, "/") {
		p = path.Join(pkgDir, name)
	} else {
		p = path.Clean(strings.TrimPrefix(name, "/"))
	}
	if !fs.ValidPath(p) || p == "." {
		return "", NotFoundf(nameHint, "resource path escapes the source roots")
	}
	return p, nil
}

// Resolve maps a declared name to a handle.
func (l *ResourceLocator) Resolve(pkgDir, nameHint string) (ResourceHandle, error) {
	p, err := ResourcePath(pkgDir, nameHint)
	if err != nil {
		return ResourceHandle{}, err
	}

	for _, root := range l.Roots {
		info, err := fs.Stat(root.FS, p)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return ResourceHandle{}, IOError(p, "", fmt.Sprintf("stat in %s", root.Name), err)
		}
		if info.IsDir() {
			continue
		}
		content, err := fs.ReadFile(root.FS, p)
		if err != nil {
			return ResourceHandle{}, IOError(p, "", fmt.Sprintf("reading from %s", root.Name), err)
		}
		return NewResourceHandle(p, content), nil
	}

	return ResourceHandle{}, NotFoundf(p, "not found in any of %d source roots; is the name package-relative or rooted as expected?", len(l.Roots))
}
