package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"cachebundle/internal/core"
)

const (
	ExitSuccess           = 0
	ExitGenerationFailure = 1
	ExitInvalidInvocation = 2
	ExitConfigError       = 3
	ExitInternalError     = 4
)

// ErrVerificationFailed reports an output directory with findings.
var ErrVerificationFailed = errors.New("verification failed")

type InvocationError struct {
	ExitCode int
	Message  string
}

func (e *InvocationError) Error() string {
	if e == nil {
		return ""
	}
	return e.Message
}

func invalidInvocationf(format string, args ...any) error {
	return &InvocationError{ExitCode: ExitInvalidInvocation, Message: fmt.Sprintf(format, args...)}
}

// resolveWorkDir canonicalizes --workdir. An empty value falls back to the
// process working directory; anything given explicitly must be absolute.
func resolveWorkDir(raw string) (string, error) {
	if strings.TrimSpace(raw) == "" {
		wd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("determining working directory: %w", err)
		}
		return wd, nil
	}
	clean := filepath.Clean(raw)
	if !filepath.IsAbs(clean) {
		return "", invalidInvocationf("--workdir must be an absolute path (got %q)", raw)
	}
	return clean, nil
}

func resolveUnderWorkDir(workDir, p string) (string, error) {
	if strings.TrimSpace(p) == "" {
		return "", invalidInvocationf("path must not be empty")
	}
	clean := filepath.Clean(p)
	if filepath.IsAbs(clean) {
		return clean, nil
	}
	// workDir is absolute, so Join does not consult the process cwd.
	return filepath.Join(workDir, clean), nil
}

// ExitCode maps an error returned by a command to a semantic exit code.
func ExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var invErr *InvocationError
	if errors.As(err, &invErr) && invErr != nil {
		if invErr.ExitCode != 0 {
			return invErr.ExitCode
		}
		return ExitInvalidInvocation
	}
	switch {
	case errors.Is(err, core.ErrInvalidConfiguration):
		return ExitConfigError
	case errors.Is(err, core.ErrResourceNotFound),
		errors.Is(err, core.ErrMalformedMetadata),
		errors.Is(err, core.ErrIO),
		errors.Is(err, ErrVerificationFailed):
		return ExitGenerationFailure
	default:
		return ExitInternalError
	}
}
