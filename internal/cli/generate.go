package cli

import (
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/spf13/cobra"
	slogcontext "github.com/veqryn/slog-context"

	"cachebundle/internal/core"
	"cachebundle/internal/generate"
	"cachebundle/internal/publish"
	"cachebundle/internal/trace"
)

const (
	flagOutputDir       = "output-dir"
	flagSourceRoot      = "source-root"
	flagBaseURLExpr     = "base-url-expr"
	flagPrecompress     = "precompress"
	flagCollisionPolicy = "collision-policy"
	flagJobs            = "jobs"
	flagTrace           = "trace"
)

func newGenerateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generate [package-dir...]",
		Short: "Publish bundle resources and generate bundle implementations",
		Long: `generate scans the given package directories (or the configured packages)
for bundle interfaces, copies their resources into the output directory and
writes a <interface>_bundle.go implementation next to each interface.`,
		Example: `  cachebundle generate ./web/assets
  cachebundle generate -D CacheBundle.enableRenaming=false --output-dir dist ./ui`,
		RunE:              runGenerate,
		DisableAutoGenTag: true,
		SilenceUsage:      true,
	}

	flags := cmd.Flags()
	flags.String(flagOutputDir, "", "directory receiving published resources")
	flags.StringSlice(flagSourceRoot, nil, "resource search root, searched in order (repeatable)")
	flags.String(flagBaseURLExpr, "", "Go expression prefixed to every published name (default "+core.DefaultBaseURLExpr+")")
	flags.StringSlice(flagPrecompress, nil, "extensions that also get a precompressed .gz sibling")
	flags.String(flagCollisionPolicy, "", "basename collision handling: keep-first|error")
	flags.Int(flagJobs, 0, "bundles processed in parallel")
	flags.String(flagTrace, "", "write the canonical build trace to this path")
	addDefineFlag(flags)
	return cmd
}

func runGenerate(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	logger := slogcontext.FromCtx(ctx)

	inv, err := loadInvocation(cmd)
	if err != nil {
		return err
	}
	cfg := inv.Config
	flags := cmd.Flags()

	if flags.Changed(flagOutputDir) {
		v, _ := flags.GetString(flagOutputDir)
		if cfg.OutputDir, err = resolveUnderWorkDir(inv.WorkDir, v); err != nil {
			return err
		}
	}
	if flags.Changed(flagSourceRoot) {
		roots, _ := flags.GetStringSlice(flagSourceRoot)
		cfg.SourceRoots = nil
		for _, r := range roots {
			resolved, err := resolveUnderWorkDir(inv.WorkDir, r)
			if err != nil {
				return err
			}
			cfg.SourceRoots = append(cfg.SourceRoots, resolved)
		}
	}
	if flags.Changed(flagBaseURLExpr) {
		cfg.BaseURLExpr, _ = flags.GetString(flagBaseURLExpr)
	}
	if flags.Changed(flagPrecompress) {
		cfg.Precompress, _ = flags.GetStringSlice(flagPrecompress)
	}
	if flags.Changed(flagCollisionPolicy) {
		cfg.CollisionPolicy, _ = flags.GetString(flagCollisionPolicy)
	}
	if flags.Changed(flagJobs) {
		cfg.Jobs, _ = flags.GetInt(flagJobs)
	}
	if flags.Changed(flagTrace) {
		v, _ := flags.GetString(flagTrace)
		if cfg.Trace, err = resolveUnderWorkDir(inv.WorkDir, v); err != nil {
			return err
		}
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	packages := cfg.Packages
	if len(args) > 0 {
		packages = make([]string, 0, len(args))
		for _, a := range args {
			p, err := resolveUnderWorkDir(inv.WorkDir, a)
			if err != nil {
				return err
			}
			packages = append(packages, p)
		}
	}
	if len(packages) == 0 {
		return invalidInvocationf("no package directories given and none configured")
	}

	policy, err := publish.ParseCollisionPolicy(cfg.CollisionPolicy)
	if err != nil {
		return err
	}

	rec := trace.NewRecorder()
	gen := generate.New(core.NewResourceLocator(cfg.SourceRoots...), cfg.OutputDir, cfg.Properties, publish.Options{
		BaseURLExpr:     cfg.BaseURLExpr,
		Precompress:     cfg.Precompress,
		CollisionPolicy: policy,
	})
	gen.Sink = rec
	if cfg.Jobs > 0 {
		gen.Jobs = cfg.Jobs
	}

	res, runErr := gen.Run(ctx, packages)
	if res != nil {
		printGenerateResult(cmd, inv.WorkDir, res)
		if cfg.Trace != "" {
			tr := rec.Trace(string(res.Algorithm), res.ContentAddressed)
			if err := tr.WriteFile(cfg.Trace); err != nil {
				logger.Log(ctx, slog.LevelError, "writing trace", slog.String("path", cfg.Trace), slog.Any("error", err))
			} else if hash, err := tr.Hash(); err == nil {
				logger.Log(ctx, slog.LevelInfo, "wrote trace", slog.String("path", cfg.Trace), slog.String("hash", hash))
			}
		}
	}
	return runErr
}

func printGenerateResult(cmd *cobra.Command, workDir string, res *generate.Result) {
	out := cmd.OutOrStdout()
	for _, b := range res.Bundles {
		if b.Bundle.Interface == "" {
			continue
		}
		dir := b.Bundle.Dir
		if rel, err := filepath.Rel(workDir, dir); err == nil {
			dir = rel
		}
		switch {
		case b.Err != nil:
			fmt.Fprintf(out, "failed    %s\n", b.Bundle.ID())
		case b.Skipped:
			fmt.Fprintf(out, "skipped   %s (already generated)\n", b.Bundle.ID())
		case b.File != "":
			fmt.Fprintf(out, "generated %s (%d resources)\n", filepath.ToSlash(filepath.Join(dir, b.File)), len(b.Artifacts))
		}
	}
	fmt.Fprintf(out, "published %d files\n", len(res.Outputs))
}
