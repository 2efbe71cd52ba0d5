// Package bundle reads resource bundle declarations from Go source.
//
// A bundle is an interface whose doc comment carries the bundle marker.
// Every method names the resource it returns with a resource marker:
//
//	// Resources are the static files of the feed reader.
//	// +cachebundle:bundle
//	type Resources interface {
//		// Bootstrap is the sandbox iframe document.
//		// +cachebundle:resource=bootstrap.html
//		Bootstrap() string
//	}
//
// A resource name without '/' is relative to the package directory.
package bundle

import (
	"path"
)

const (
	// MarkerBundle flags an interface as a resource bundle.
	MarkerBundle = "+cachebundle:bundle"

	// MarkerResource declares the resource returned by a bundle method.
	MarkerResource = "+cachebundle:resource="
)

// Method is one accessor of a bundle.
type Method struct {
	Name     string
	Resource string
	// Position is "file:line" of the method declaration.
	Position string
}

// Bundle is one annotated interface.
type Bundle struct {
	// Interface is the interface type name.
	Interface string

	// Package is the Go package name.
	Package string

	// ImportPath is the package import path, from the enclosing go.mod.
	ImportPath string

	// PackageDir is the slash-separated package directory relative to the
	// module root. It is the declaring context for package-relative names.
	PackageDir string

	// Dir is the package directory on disk.
	Dir string

	Methods []Method
}

// ID identifies the bundle across packages.
func (b Bundle) ID() string {
	return b.ImportPath + "." + b.Interface
}

// ResourceDir returns the declaring context used by the resource locator.
func (b Bundle) ResourceDir() string {
	if b.PackageDir == "" {
		return "."
	}
	return path.Clean(b.PackageDir)
}
