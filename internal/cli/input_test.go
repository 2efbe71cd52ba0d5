package cli

import (
	"errors"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cachebundle/internal/core"
)

func TestExitCode(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{nil, ExitSuccess},
		{invalidInvocationf("bad"), ExitInvalidInvocation},
		{&InvocationError{Message: "zero code"}, ExitInvalidInvocation},
		{core.InvalidConfigf("bad property"), ExitConfigError},
		{fmt.Errorf("Res.Logo (r.go:3): %w", core.NotFoundf("a/logo.png", "missing")), ExitGenerationFailure},
		{core.Malformedf("no marker"), ExitGenerationFailure},
		{core.IOError("a", "b", "copy", errors.New("disk full")), ExitGenerationFailure},
		{fmt.Errorf("%w: 2 problems", ErrVerificationFailed), ExitGenerationFailure},
		{errors.New("boom"), ExitInternalError},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, ExitCode(tc.err), "%v", tc.err)
	}
}

func TestResolveWorkDir(t *testing.T) {
	dir := t.TempDir()
	got, err := resolveWorkDir(dir + string(filepath.Separator) + "x" + string(filepath.Separator) + "..")
	require.NoError(t, err)
	assert.Equal(t, dir, got)

	_, err = resolveWorkDir("rel")
	var invErr *InvocationError
	require.ErrorAs(t, err, &invErr)

	got, err = resolveWorkDir("")
	require.NoError(t, err)
	assert.True(t, filepath.IsAbs(got))
}

func TestResolveUnderWorkDir(t *testing.T) {
	wd := filepath.FromSlash("/work")
	got, err := resolveUnderWorkDir(wd, "out/./x/..")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(wd, "out"), got)

	abs := filepath.FromSlash("/elsewhere/out")
	got, err = resolveUnderWorkDir(wd, abs)
	require.NoError(t, err)
	assert.Equal(t, filepath.Clean(abs), got)

	_, err = resolveUnderWorkDir(wd, "  ")
	require.Error(t, err)
}
