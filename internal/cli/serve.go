package cli

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"cachebundle/internal/serve"
)

const flagAddr = "addr"

func newServeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the output directory with cache headers",
		Long: `serve exposes the output directory over HTTP. Names matching the
configured cache-forever patterns (default *.cache.*) are marked immutable,
names matching the no-cache patterns (default *.nocache.*) must be
revalidated. Precompressed .gz siblings are served to clients accepting gzip.`,
		Args:              argsAsInvocation(cobra.NoArgs),
		RunE:              runServe,
		DisableAutoGenTag: true,
		SilenceUsage:      true,
	}
	cmd.Flags().String(flagDir, "", "directory to serve (default: configured outputDir)")
	cmd.Flags().String(flagAddr, "", "listen address (default: configured serve.addr)")
	return cmd
}

func runServe(cmd *cobra.Command, _ []string) error {
	inv, err := loadInvocation(cmd)
	if err != nil {
		return err
	}
	cfg := inv.Config

	dir := cfg.OutputDir
	if cmd.Flags().Changed(flagDir) {
		v, _ := cmd.Flags().GetString(flagDir)
		if dir, err = resolveUnderWorkDir(inv.WorkDir, v); err != nil {
			return err
		}
	}
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		return invalidInvocationf("output directory %s does not exist", dir)
	}
	addr := cfg.Serve.Addr
	if cmd.Flags().Changed(flagAddr) {
		addr, _ = cmd.Flags().GetString(flagAddr)
	}

	policy, err := serve.NewPolicy(cfg.Serve.CacheForever, cfg.Serve.NoCache)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return serve.ListenAndServe(ctx, addr, serve.NewHandler(os.DirFS(dir), policy))
}
