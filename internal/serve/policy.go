// Package serve exposes a published output directory over HTTP with cache
// headers derived from output names.
package serve

import (
	"path"

	"github.com/gobwas/glob"

	"cachebundle/internal/core"
)

const (
	CacheForever = "public, max-age=31536000, immutable"
	NoCache      = "no-cache"
	CacheDefault = "public, max-age=3600"
)

// Policy maps output names to Cache-Control values. Patterns match the
// last path segment only.
type Policy struct {
	forever []glob.Glob
	noCache []glob.Glob
}

// NewPolicy compiles the glob patterns. No-cache patterns win over
// cache-forever patterns.
func NewPolicy(forever, noCache []string) (*Policy, error) {
	fg, err := compileAll(forever)
	if err != nil {
		return nil, err
	}
	ng, err := compileAll(noCache)
	if err != nil {
		return nil, err
	}
	return &Policy{forever: fg, noCache: ng}, nil
}

func compileAll(patterns []string) ([]glob.Glob, error) {
	out := make([]glob.Glob, 0, len(patterns))
	for _, p := range patterns {
		g, err := glob.Compile(p)
		if err != nil {
			return nil, core.InvalidConfigf("failed to compile glob pattern %q: %v", p, err)
		}
		out = append(out, g)
	}
	return out, nil
}

// CacheControl returns the header value for name.
func (p *Policy) CacheControl(name string) string {
	base := path.Base(name)
	if matchAny(p.noCache, base) {
		return NoCache
	}
	if matchAny(p.forever, base) {
		return CacheForever
	}
	return CacheDefault
}

func matchAny(globs []glob.Glob, s string) bool {
	for _, g := range globs {
		if g.Match(s) {
			return true
		}
	}
	return false
}
