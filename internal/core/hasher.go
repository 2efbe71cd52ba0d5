package core

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/opencontainers/go-digest"
	"github.com/zeebo/blake3"
)

// HashAlgorithm selects the digest used for strong names.
type HashAlgorithm string

const (
	// MD5 produces 32 upper-case hex characters, the same strong names the
	// GWT compiler emits for its own *.cache.* files.
	MD5 HashAlgorithm = "md5"
	// SHA256 produces 64 lower-case hex characters.
	SHA256 HashAlgorithm = "sha256"
	// BLAKE3 produces 64 lower-case hex characters.
	BLAKE3 HashAlgorithm = "blake3"

	DefaultHashAlgorithm = MD5
)

// CacheInfix separates the strong name from the extension. Cache-control
// layers recognise it as "safe to cache forever".
const CacheInfix = ".cache."

// ParseHashAlgorithm validates a configured algorithm name.
// The empty string selects DefaultHashAlgorithm.
func ParseHashAlgorithm(raw string) (HashAlgorithm, error) {
	switch alg := HashAlgorithm(strings.ToLower(strings.TrimSpace(raw))); alg {
	case "":
		return DefaultHashAlgorithm, nil
	case MD5, SHA256, BLAKE3:
		return alg, nil
	default:
		return "", fmt.Errorf("unknown hash algorithm %q (expected md5|sha256|blake3)", raw)
	}
}

// HexLen returns the length of a strong name produced by the algorithm.
func (a HashAlgorithm) HexLen() int {
	if a == MD5 {
		return 32
	}
	return 64
}

// Namer computes deterministic output names for resources.
//
// Content-addressed names have the form <strong-name>.cache.<extension>;
// identical bytes always yield the identical name across builds.
type Namer struct {
	Algorithm HashAlgorithm
}

// NewNamer creates a Namer. An empty algorithm selects DefaultHashAlgorithm.
func NewNamer(alg HashAlgorithm) *Namer {
	if alg == "" {
		alg = DefaultHashAlgorithm
	}
	return &Namer{Algorithm: alg}
}

// StrongName returns the hex digest of data.
func (n *Namer) StrongName(data []byte) string {
	switch n.Algorithm {
	case SHA256:
		return digest.SHA256.FromBytes(data).Encoded()
	case BLAKE3:
		sum := blake3.Sum256(data)
		return hex.EncodeToString(sum[:])
	default:
		sum := md5.Sum(data)
		return strings.ToUpper(hex.EncodeToString(sum[:]))
	}
}

// OutputName computes the output name for a handle and returns it together
// with the strong name of the handle's content.
//
// In basename mode the name is the last path segment of the source path and
// is not guaranteed to be unique.
func (n *Namer) OutputName(h ResourceHandle, contentAddressed bool) (name, strong string) {
	strong = n.StrongName(h.content)
	if contentAddressed {
		return CacheName(strong, h.Extension), strong
	}
	return h.BaseName(), strong
}

// CacheName joins a strong name and an extension.
func CacheName(strong, ext string) string {
	return strong + CacheInfix + ext
}

// ParseCacheName splits a content-addressed output name. It reports false
// when name is not of the form <hex>.cache.<ext>.
func ParseCacheName(name string) (strong, ext string, ok bool) {
	idx := strings.Index(name, CacheInfix)
	if idx <= 0 {
		return "", "", false
	}
	strong = name[:idx]
	if _, err := hex.DecodeString(strong); err != nil {
		return "", "", false
	}
	return strong, name[idx+len(CacheInfix):], true
}
