package config

import (
	"sort"
	"strconv"
	"strings"

	"cachebundle/internal/core"
)

const (
	// PropEnableRenaming decides whether resources get content-addressed names.
	PropEnableRenaming = "CacheBundle.enableRenaming"

	// PropHashAlgorithm selects the strong-name digest (md5|sha256|blake3).
	PropHashAlgorithm = "CacheBundle.hashAlgorithm"
)

// Properties are build-wide string properties, read once per generation pass.
type Properties map[string]string

// Clone returns an independent copy.
func (p Properties) Clone() Properties {
	out := make(Properties, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}

// Merge returns a copy of p overridden by other.
func (p Properties) Merge(other map[string]string) Properties {
	out := p.Clone()
	for k, v := range other {
		out[k] = v
	}
	return out
}

// Keys returns the property names, sorted.
func (p Properties) Keys() []string {
	keys := make([]string, 0, len(p))
	for k := range p {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// EnableRenaming parses PropEnableRenaming. An absent property means true.
// Any value strconv.ParseBool rejects is an invalid configuration.
func (p Properties) EnableRenaming() (bool, error) {
	raw, ok := p[PropEnableRenaming]
	if !ok {
		return true, nil
	}
	v, err := strconv.ParseBool(strings.TrimSpace(raw))
	if err != nil {
		return false, core.InvalidConfigf("bad value %q for %s", raw, PropEnableRenaming)
	}
	return v, nil
}

// HashAlgorithm parses PropHashAlgorithm.
func (p Properties) HashAlgorithm() (core.HashAlgorithm, error) {
	alg, err := core.ParseHashAlgorithm(p[PropHashAlgorithm])
	if err != nil {
		return "", core.InvalidConfigf("bad value for %s: %v", PropHashAlgorithm, err)
	}
	return alg, nil
}

// ParseDefine parses a "key=value" property override.
func ParseDefine(raw string) (string, string, error) {
	k, v, ok := strings.Cut(raw, "=")
	k = strings.TrimSpace(k)
	if !ok || k == "" {
		return "", "", core.InvalidConfigf("property override %q must have the form key=value", raw)
	}
	return k, v, nil
}
