package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cachebundle/internal/core"
)

func TestDecode_OverridesDefaults(t *testing.T) {
	cfg, err := Decode(strings.NewReader(`
outputDir: war/feedreader
sourceRoots: [src, resources]
packages: [./assets]
precompress: [js, css]
collisionPolicy: error
jobs: 2
properties:
  CacheBundle.enableRenaming: "false"
  CacheBundle.hashAlgorithm: sha256
serve:
  noCache: ["*.nocache.js"]
`))
	require.NoError(t, err)

	assert.Equal(t, "war/feedreader", cfg.OutputDir)
	assert.Equal(t, []string{"src", "resources"}, cfg.SourceRoots)
	assert.Equal(t, []string{"js", "css"}, cfg.Precompress)
	assert.Equal(t, 2, cfg.Jobs)
	assert.Equal(t, core.DefaultBaseURLExpr, cfg.BaseURLExpr)
	assert.Equal(t, []string{"*.cache.*"}, cfg.Serve.CacheForever)
	assert.Equal(t, []string{"*.nocache.js"}, cfg.Serve.NoCache)

	renaming, err := cfg.Properties.EnableRenaming()
	require.NoError(t, err)
	assert.False(t, renaming)
	alg, err := cfg.Properties.HashAlgorithm()
	require.NoError(t, err)
	assert.Equal(t, core.SHA256, alg)
}

func TestDecode_RejectsUnknownFields(t *testing.T) {
	_, err := Decode(strings.NewReader("outputDir: out\nrenaming: true\n"))
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrInvalidConfiguration)
}

func TestDecode_EmptyIsDefault(t *testing.T) {
	cfg, err := Decode(strings.NewReader("  \n"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestValidate(t *testing.T) {
	cfg := Default()
	cfg.OutputDir = " "
	assert.ErrorIs(t, cfg.Validate(), core.ErrInvalidConfiguration)

	cfg = Default()
	cfg.Jobs = -1
	assert.ErrorIs(t, cfg.Validate(), core.ErrInvalidConfiguration)
}

func TestLoadOptional(t *testing.T) {
	dir := t.TempDir()
	cfg, err := LoadOptional(filepath.Join(dir, FileName))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)

	require.NoError(t, os.WriteFile(filepath.Join(dir, FileName), []byte("outputDir: dist\n"), 0o644))
	cfg, err = LoadOptional(filepath.Join(dir, FileName))
	require.NoError(t, err)
	assert.Equal(t, "dist", cfg.OutputDir)
}

func TestResolve_UnderWorkDir(t *testing.T) {
	workDir := t.TempDir()
	cfg := Default()
	cfg.OutputDir = "out/./module"
	cfg.SourceRoots = []string{"src", "/abs/root"}
	cfg.Trace = "trace.json"

	resolved, err := cfg.Resolve(workDir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(workDir, "out", "module"), resolved.OutputDir)
	assert.Equal(t, []string{filepath.Join(workDir, "src"), "/abs/root"}, resolved.SourceRoots)
	assert.Equal(t, filepath.Join(workDir, "trace.json"), resolved.Trace)

	_, err = cfg.Resolve("relative")
	assert.Error(t, err)
}

func TestProperties_EnableRenaming(t *testing.T) {
	v, err := Properties{}.EnableRenaming()
	require.NoError(t, err)
	assert.True(t, v, "absent property defaults to renaming")

	for raw, want := range map[string]bool{"true": true, "FALSE": false, " 1 ": true, "0": false} {
		v, err := Properties{PropEnableRenaming: raw}.EnableRenaming()
		require.NoError(t, err, raw)
		assert.Equal(t, want, v, raw)
	}

	_, err = Properties{PropEnableRenaming: "yes please"}.EnableRenaming()
	assert.ErrorIs(t, err, core.ErrInvalidConfiguration)
}

func TestProperties_HashAlgorithm(t *testing.T) {
	_, err := Properties{PropHashAlgorithm: "crc32"}.HashAlgorithm()
	assert.ErrorIs(t, err, core.ErrInvalidConfiguration)
}

func TestProperties_MergeAndDefine(t *testing.T) {
	base := Properties{"a": "1", "b": "2"}
	merged := base.Merge(map[string]string{"b": "3"})
	assert.Equal(t, "2", base["b"])
	assert.Equal(t, "3", merged["b"])
	assert.Equal(t, []string{"a", "b"}, merged.Keys())

	k, v, err := ParseDefine("CacheBundle.enableRenaming=false")
	require.NoError(t, err)
	assert.Equal(t, PropEnableRenaming, k)
	assert.Equal(t, "false", v)

	_, _, err = ParseDefine("novalue")
	assert.ErrorIs(t, err, core.ErrInvalidConfiguration)
}
