package bundle

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cachebundle/internal/core"
)

func writeModule(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	files["go.mod"] = "module example.com/feedreader\n\ngo 1.22\n"
	for name, content := range files {
		p := filepath.Join(root, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	}
	return root
}

const resourcesSrc = `package assets

// Resources are the static files of the feed reader.
// +cachebundle:bundle
type Resources interface {
	// Bootstrap is the sandbox iframe document.
	// +cachebundle:resource=bootstrap.html
	Bootstrap() string

	Logo() string // +cachebundle:resource=/img/logo.png
}

// Plain is not a bundle.
type Plain interface {
	Name() string
}

// +cachebundle:bundle
type Aaa interface {
	// +cachebundle:resource=a.txt
	A() string
}
`

func TestScan_FindsAnnotatedInterfaces(t *testing.T) {
	root := writeModule(t, map[string]string{
		"web/assets/resources.go":      resourcesSrc,
		"web/assets/resources_test.go": "package assets\n\n// +cachebundle:bundle\ntype Broken interface{ X() int }\n",
	})

	bundles, err := Scan(filepath.Join(root, "web", "assets"))
	require.NoError(t, err)
	require.Len(t, bundles, 2)

	assert.Equal(t, "Aaa", bundles[0].Interface)
	b := bundles[1]
	assert.Equal(t, "Resources", b.Interface)
	assert.Equal(t, "assets", b.Package)
	assert.Equal(t, "example.com/feedreader/web/assets", b.ImportPath)
	assert.Equal(t, "web/assets", b.PackageDir)
	assert.Equal(t, "web/assets", b.ResourceDir())
	assert.Equal(t, "example.com/feedreader/web/assets.Resources", b.ID())

	require.Len(t, b.Methods, 2)
	assert.Equal(t, Method{Name: "Bootstrap", Resource: "bootstrap.html", Position: "resources.go:8"}, b.Methods[0])
	assert.Equal(t, "Logo", b.Methods[1].Name)
	assert.Equal(t, "/img/logo.png", b.Methods[1].Resource)
}

func TestScan_ModuleRootPackage(t *testing.T) {
	root := writeModule(t, map[string]string{"res.go": resourcesSrc})

	bundles, err := Scan(root)
	require.NoError(t, err)
	require.NotEmpty(t, bundles)
	assert.Equal(t, "example.com/feedreader", bundles[0].ImportPath)
	assert.Equal(t, ".", bundles[0].ResourceDir())
}

func TestScan_SkipsGeneratedFiles(t *testing.T) {
	root := writeModule(t, map[string]string{
		"assets/resources_bundle.go": "// Code generated by cachebundle. DO NOT EDIT.\n\npackage assets\n\n// +cachebundle:bundle\ntype Gen interface{ X() int }\n",
	})

	bundles, err := Scan(filepath.Join(root, "assets"))
	require.NoError(t, err)
	assert.Empty(t, bundles)
}

func TestScan_MalformedMetadata(t *testing.T) {
	cases := map[string]string{
		"missing marker": `package assets
// +cachebundle:bundle
type R interface {
	Logo() string
}`,
		"two markers": `package assets
// +cachebundle:bundle
type R interface {
	// +cachebundle:resource=a.png
	// +cachebundle:resource=b.png
	Logo() string
}`,
		"empty name": `package assets
// +cachebundle:bundle
type R interface {
	// +cachebundle:resource=
	Logo() string
}`,
		"wrong signature": `package assets
// +cachebundle:bundle
type R interface {
	// +cachebundle:resource=a.png
	Logo(size int) string
}`,
		"wrong result": `package assets
// +cachebundle:bundle
type R interface {
	// +cachebundle:resource=a.png
	Logo() []byte
}`,
		"embedded": `package assets
import "fmt"
// +cachebundle:bundle
type R interface {
	fmt.Stringer
}`,
		"not an interface": `package assets
// +cachebundle:bundle
type R struct{}`,
		"syntax error": `package assets
type R interface {`,
	}
	for name, src := range cases {
		t.Run(name, func(t *testing.T) {
			root := writeModule(t, map[string]string{"assets/r.go": src})
			_, err := Scan(filepath.Join(root, "assets"))
			require.Error(t, err)
			assert.ErrorIs(t, err, core.ErrMalformedMetadata)
		})
	}
}
