// Package verify checks a published output directory: every
// content-addressed file must still hash to its own name.
package verify

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"strings"

	"github.com/klauspost/compress/gzip"
	slogcontext "github.com/veqryn/slog-context"

	"cachebundle/internal/core"
	"cachebundle/internal/publish"
)

// Problem classifies a Finding.
type Problem string

const (
	ProblemDigestMismatch Problem = "digest mismatch"
	ProblemNameLength     Problem = "strong name length does not match algorithm"
	ProblemGzipSibling    Problem = "gzip sibling does not match"
)

// Finding is one file that failed verification.
type Finding struct {
	Name     string
	Problem  Problem
	Expected string
	Actual   string
}

func (f Finding) String() string {
	if f.Expected == "" && f.Actual == "" {
		return fmt.Sprintf("%s: %s", f.Name, f.Problem)
	}
	return fmt.Sprintf("%s: %s (expected %s, got %s)", f.Name, f.Problem, f.Expected, f.Actual)
}

// Report is the outcome of verifying one directory.
//
// Checked, Ignored and Findings are ordered by path.
type Report struct {
	Algorithm core.HashAlgorithm
	Checked   []string
	Ignored   []string
	Findings  []Finding
}

// OK reports whether no finding was recorded.
func (r *Report) OK() bool {
	return len(r.Findings) == 0
}

// Verifier walks an output filesystem.
type Verifier struct {
	Namer *core.Namer
}

// New creates a Verifier for alg.
func New(alg core.HashAlgorithm) *Verifier {
	return &Verifier{Namer: core.NewNamer(alg)}
}

// Verify walks fsys in lexical order.
//
// For every <hex>.cache.<ext> file the digest is recomputed and compared to
// the name. A <name>.gz sibling of a checked file must decompress to the
// same bytes. Other files are listed as ignored. Errors are returned only
// for unreadable files; content problems are findings.
func (v *Verifier) Verify(ctx context.Context, fsys fs.FS) (*Report, error) {
	logger := slogcontext.FromCtx(ctx)
	rep := &Report{Algorithm: v.Namer.Algorithm}

	err := fs.WalkDir(fsys, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}

		if base, ok := strings.CutSuffix(p, publish.GzipSuffix); ok && isCacheName(base) && exists(fsys, base) {
			f, err := v.checkSibling(fsys, base, p)
			if err != nil {
				return err
			}
			rep.Checked = append(rep.Checked, p)
			if f != nil {
				rep.Findings = append(rep.Findings, *f)
			}
			return nil
		}

		if !isCacheName(p) {
			rep.Ignored = append(rep.Ignored, p)
			return nil
		}
		f, err := v.checkFile(fsys, p)
		if err != nil {
			return err
		}
		rep.Checked = append(rep.Checked, p)
		if f != nil {
			rep.Findings = append(rep.Findings, *f)
		}
		return nil
	})
	if err != nil {
		return rep, core.IOError("", "", "verifying output", err)
	}

	logger.Log(ctx, slog.LevelDebug, "verified output",
		slog.Int("checked", len(rep.Checked)),
		slog.Int("ignored", len(rep.Ignored)),
		slog.Int("findings", len(rep.Findings)),
	)
	return rep, nil
}

func (v *Verifier) checkFile(fsys fs.FS, p string) (*Finding, error) {
	strong, _, _ := core.ParseCacheName(core.BaseName(p))
	if len(strong) != v.Namer.Algorithm.HexLen() {
		return &Finding{Name: p, Problem: ProblemNameLength}, nil
	}
	content, err := fs.ReadFile(fsys, p)
	if err != nil {
		return nil, err
	}
	if got := v.Namer.StrongName(content); got != strong {
		return &Finding{Name: p, Problem: ProblemDigestMismatch, Expected: strong, Actual: got}, nil
	}
	return nil, nil
}

func (v *Verifier) checkSibling(fsys fs.FS, base, gz string) (*Finding, error) {
	want, err := fs.ReadFile(fsys, base)
	if err != nil {
		return nil, err
	}
	f, err := fsys.Open(gz)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	zr, err := gzip.NewReader(f)
	if err != nil {
		return &Finding{Name: gz, Problem: ProblemGzipSibling, Actual: err.Error()}, nil
	}
	got, err := io.ReadAll(zr)
	if err != nil {
		return &Finding{Name: gz, Problem: ProblemGzipSibling, Actual: err.Error()}, nil
	}
	if !bytes.Equal(got, want) {
		return &Finding{Name: gz, Problem: ProblemGzipSibling,
			Expected: v.Namer.StrongName(want), Actual: v.Namer.StrongName(got)}, nil
	}
	return nil, nil
}

func isCacheName(p string) bool {
	_, _, ok := core.ParseCacheName(core.BaseName(p))
	return ok
}

func exists(fsys fs.FS, p string) bool {
	info, err := fs.Stat(fsys, p)
	return err == nil && !info.IsDir()
}
