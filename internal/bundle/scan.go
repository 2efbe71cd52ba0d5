package bundle

import (
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/mod/modfile"

	"cachebundle/internal/core"
)

// generatedPrefix starts the header of files written by cachebundle and
// other Go generators; such files are never scanned.
const generatedPrefix = "// Code generated "

// Scan parses the non-test Go files of one package directory and returns
// its bundles, sorted by interface name.
func Scan(dir string) ([]Bundle, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}
	mod, err := findModule(abs)
	if err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(abs)
	if err != nil {
		return nil, core.IOError(filepath.ToSlash(dir), "", "reading package directory", err)
	}

	fset := token.NewFileSet()
	var bundles []Bundle
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".go") || strings.HasSuffix(name, "_test.go") {
			continue
		}
		file := filepath.Join(abs, name)
		f, err := parser.ParseFile(fset, file, nil, parser.ParseComments)
		if err != nil {
			return nil, core.Malformedf("parsing %s: %v", file, err)
		}
		if isGenerated(f) {
			continue
		}
		found, err := scanFile(fset, f)
		if err != nil {
			return nil, err
		}
		for _, b := range found {
			b.Dir = abs
			b.PackageDir = mod.relDir
			b.ImportPath = mod.importPath
			bundles = append(bundles, b)
		}
	}

	sort.Slice(bundles, func(i, j int) bool { return bundles[i].Interface < bundles[j].Interface })
	return bundles, nil
}

func isGenerated(f *ast.File) bool {
	for _, cg := range f.Comments {
		if cg.Pos() >= f.Package {
			return false
		}
		for _, c := range cg.List {
			if strings.HasPrefix(c.Text, generatedPrefix) && strings.HasSuffix(c.Text, " DO NOT EDIT.") {
				return true
			}
		}
	}
	return false
}

func scanFile(fset *token.FileSet, f *ast.File) ([]Bundle, error) {
	var out []Bundle
	for _, decl := range f.Decls {
		gd, ok := decl.(*ast.GenDecl)
		if !ok || gd.Tok != token.TYPE {
			continue
		}
		for _, spec := range gd.Specs {
			ts, ok := spec.(*ast.TypeSpec)
			if !ok || !hasMarker(ts, gd) {
				continue
			}
			iface, ok := ts.Type.(*ast.InterfaceType)
			if !ok {
				return nil, core.Malformedf("%s: %s is marked as a bundle but is not an interface",
					fset.Position(ts.Pos()), ts.Name.Name)
			}
			methods, err := scanMethods(fset, ts.Name.Name, iface)
			if err != nil {
				return nil, err
			}
			out = append(out, Bundle{
				Interface: ts.Name.Name,
				Package:   f.Name.Name,
				Methods:   methods,
			})
		}
	}
	return out, nil
}

func hasMarker(ts *ast.TypeSpec, gd *ast.GenDecl) bool {
	return commentGroupHasMarker(ts.Doc, MarkerBundle) ||
		(len(gd.Specs) == 1 && commentGroupHasMarker(gd.Doc, MarkerBundle))
}

func commentGroupHasMarker(cg *ast.CommentGroup, marker string) bool {
	if cg == nil {
		return false
	}
	for _, c := range cg.List {
		if commentLine(c.Text) == marker {
			return true
		}
	}
	return false
}

func scanMethods(fset *token.FileSet, ifaceName string, iface *ast.InterfaceType) ([]Method, error) {
	var methods []Method
	for _, field := range iface.Methods.List {
		pos := fset.Position(field.Pos())
		if len(field.Names) == 0 {
			return nil, core.Malformedf("%s: %s embeds another interface; bundles must declare every accessor", pos, ifaceName)
		}
		name := field.Names[0].Name
		ft, ok := field.Type.(*ast.FuncType)
		if !ok {
			return nil, core.Malformedf("%s: %s.%s is not a method", pos, ifaceName, name)
		}
		if ft.Params.NumFields() != 0 || !returnsString(ft) {
			return nil, core.Malformedf("%s: method %s.%s must have the signature %s() string", pos, ifaceName, name, name)
		}

		resources := resourceMarkers(field.Doc)
		resources = append(resources, resourceMarkers(field.Comment)...)
		if len(resources) != 1 {
			return nil, core.Malformedf("%s: method %s.%s does not have exactly one %s marker (found %d)",
				pos, ifaceName, name, strings.TrimSuffix(MarkerResource, "="), len(resources))
		}
		if resources[0] == "" {
			return nil, core.Malformedf("%s: method %s.%s has an empty resource name", pos, ifaceName, name)
		}

		methods = append(methods, Method{
			Name:     name,
			Resource: resources[0],
			Position: fmt.Sprintf("%s:%d", filepath.Base(pos.Filename), pos.Line),
		})
	}
	return methods, nil
}

func returnsString(ft *ast.FuncType) bool {
	if ft.Results.NumFields() != 1 {
		return false
	}
	ident, ok := ft.Results.List[0].Type.(*ast.Ident)
	return ok && ident.Name == "string"
}

func resourceMarkers(cg *ast.CommentGroup) []string {
	if cg == nil {
		return nil
	}
	var out []string
	for _, c := range cg.List {
		line := commentLine(c.Text)
		if v, ok := strings.CutPrefix(line, MarkerResource); ok {
			out = append(out, strings.TrimSpace(v))
		}
	}
	return out
}

func commentLine(text string) string {
	text = strings.TrimPrefix(text, "//")
	text = strings.TrimPrefix(text, "/*")
	text = strings.TrimSuffix(text, "*/")
	return strings.TrimSpace(text)
}

type module struct {
	importPath string
	relDir     string
}

// findModule walks up from dir to the nearest go.mod and derives the
// package import path and module-relative directory.
func findModule(dir string) (module, error) {
	cur := dir
	for {
		modFile := filepath.Join(cur, "go.mod")
		data, err := os.ReadFile(modFile)
		if err == nil {
			modPath := modfile.ModulePath(data)
			if modPath == "" {
				return module{}, core.Malformedf("%s has no module directive", modFile)
			}
			rel, err := filepath.Rel(cur, dir)
			if err != nil {
				return module{}, err
			}
			rel = filepath.ToSlash(rel)
			if rel == "." {
				return module{importPath: modPath, relDir: ""}, nil
			}
			return module{importPath: path.Join(modPath, rel), relDir: rel}, nil
		}
		if !os.IsNotExist(err) {
			return module{}, core.IOError(filepath.ToSlash(modFile), "", "reading go.mod", err)
		}
		parent := filepath.Dir(cur)
		if parent == cur {
			return module{}, core.Malformedf("no go.mod found above %s", dir)
		}
		cur = parent
	}
}
