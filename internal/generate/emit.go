package generate

import (
	"bytes"
	"fmt"
	"go/format"
	"strings"
	"text/template"
	"unicode"

	"cachebundle/internal/bundle"
)

// Accessor is one generated method.
type Accessor struct {
	Method     string
	Source     string
	Expression string
}

type bundleSource struct {
	Package          string
	Interface        string
	TypeName         string
	ContentAddressed bool
	Accessors        []Accessor
}

var bundleTemplate = template.Must(template.New("bundle").Parse(`// Code generated by cachebundle. DO NOT EDIT.

package {{ .Package }}

// {{ .TypeName }} implements {{ .Interface }} with resources published under
{{- if .ContentAddressed }} content-addressed names.{{ else }} their original file names.{{ end }}
type {{ .TypeName }} struct{}

var _ {{ .Interface }} = {{ .TypeName }}{}

// New{{ .Interface }} returns the generated {{ .Interface }}.
func New{{ .Interface }}() {{ .Interface }} {
	return {{ .TypeName }}{}
}
{{ range .Accessors }}
// {{ .Source }}
func ({{ $.TypeName }}) {{ .Method }}() string {
	return {{ .Expression }}
}
{{ end -}}
`))

// Emit renders the gofmt-ed Go source implementing b.
func Emit(b bundle.Bundle, contentAddressed bool, accessors []Accessor) ([]byte, error) {
	var buf bytes.Buffer
	err := bundleTemplate.Execute(&buf, bundleSource{
		Package:          b.Package,
		Interface:        b.Interface,
		TypeName:         TypeName(b.Interface),
		ContentAddressed: contentAddressed,
		Accessors:        accessors,
	})
	if err != nil {
		return nil, fmt.Errorf("rendering %s: %w", b.ID(), err)
	}
	src, err := format.Source(buf.Bytes())
	if err != nil {
		return nil, fmt.Errorf("formatting generated source for %s: %w", b.ID(), err)
	}
	return src, nil
}

// TypeName names the generated implementation: "Resources" becomes
// "resourcesExternalBundle".
func TypeName(iface string) string {
	if iface == "" {
		return "externalBundle"
	}
	r := []rune(iface)
	r[0] = unicode.ToLower(r[0])
	return string(r) + "ExternalBundle"
}

// FileName names the generated file: "FeedImages" becomes "feed_images_bundle.go".
func FileName(iface string) string {
	return snake(iface) + "_bundle.go"
}

func snake(s string) string {
	r := []rune(s)
	var b strings.Builder
	for i, c := range r {
		if unicode.IsUpper(c) {
			prevLower := i > 0 && !unicode.IsUpper(r[i-1])
			nextLower := i > 0 && i+1 < len(r) && unicode.IsLower(r[i+1]) && unicode.IsUpper(r[i-1])
			if prevLower || nextLower {
				b.WriteByte('_')
			}
			b.WriteRune(unicode.ToLower(c))
			continue
		}
		b.WriteRune(c)
	}
	return b.String()
}
