package core

import (
	"crypto/rand"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStrongName_KnownVectors(t *testing.T) {
	assert.Equal(t, "900150983CD24FB0D6963F7D28E17F72", NewNamer(MD5).StrongName([]byte("abc")))
	assert.Equal(t, "D41D8CD98F00B204E9800998ECF8427E", NewNamer("").StrongName(nil))
	assert.Equal(t,
		"ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad",
		NewNamer(SHA256).StrongName([]byte("abc")))
}

func TestStrongName_LengthAndCase(t *testing.T) {
	for _, alg := range []HashAlgorithm{MD5, SHA256, BLAKE3} {
		name := NewNamer(alg).StrongName([]byte("payload"))
		assert.Len(t, name, alg.HexLen(), alg)
		if alg == MD5 {
			assert.Equal(t, strings.ToUpper(name), name)
		} else {
			assert.Equal(t, strings.ToLower(name), name)
		}
	}
}

func TestOutputName_DeterministicAcrossNamers(t *testing.T) {
	h := NewResourceHandle("pkg/app.css", []byte("body{}"))
	for _, alg := range []HashAlgorithm{MD5, SHA256, BLAKE3} {
		n1, s1 := NewNamer(alg).OutputName(h, true)
		n2, s2 := NewNamer(alg).OutputName(h, true)
		assert.Equal(t, n1, n2)
		assert.Equal(t, s1, s2)
		assert.True(t, strings.HasSuffix(n1, ".cache.css"), n1)
	}
}

func TestOutputName_DistinctContent(t *testing.T) {
	n := NewNamer(SHA256)
	seen := map[string]struct{}{}
	for i := 0; i < 200; i++ {
		buf := make([]byte, 64)
		_, err := rand.Read(buf)
		require.NoError(t, err)
		name, _ := n.OutputName(NewResourceHandle("r.bin", buf), true)
		_, dup := seen[name]
		require.False(t, dup, "collision on %s", name)
		seen[name] = struct{}{}
	}
}

func TestOutputName_NoExtensionAndBasename(t *testing.T) {
	n := NewNamer(MD5)

	name, _ := n.OutputName(NewResourceHandle("data/readme", []byte("x")), true)
	assert.True(t, strings.HasSuffix(name, ".cache.noext"), name)

	name, strong := n.OutputName(NewResourceHandle("a/b/styles.css", []byte("x")), false)
	assert.Equal(t, "styles.css", name)
	assert.Len(t, strong, 32)
}

func TestParseHashAlgorithm(t *testing.T) {
	alg, err := ParseHashAlgorithm("")
	require.NoError(t, err)
	assert.Equal(t, MD5, alg)

	alg, err = ParseHashAlgorithm(" SHA256 ")
	require.NoError(t, err)
	assert.Equal(t, SHA256, alg)

	_, err = ParseHashAlgorithm("crc32")
	require.Error(t, err)
}

func TestParseCacheName(t *testing.T) {
	strong, ext, ok := ParseCacheName("ABCDEF01.cache.js")
	require.True(t, ok)
	assert.Equal(t, "ABCDEF01", strong)
	assert.Equal(t, "js", ext)

	for _, bad := range []string{"styles.css", ".cache.js", "nothex.cache.js", "ABC.cache.js"} {
		_, _, ok := ParseCacheName(bad)
		assert.False(t, ok, bad)
	}
}
