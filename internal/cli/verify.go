package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"cachebundle/internal/verify"
)

const flagDir = "dir"

func newVerifyCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Check that every content-addressed output still matches its name",
		Long: `verify walks the output directory, recomputes the strong name of every
<hash>.cache.<ext> file with the configured hash algorithm and checks that
precompressed siblings decompress to the same bytes.`,
		Args:              argsAsInvocation(cobra.NoArgs),
		RunE:              runVerify,
		DisableAutoGenTag: true,
		SilenceUsage:      true,
	}
	cmd.Flags().String(flagDir, "", "output directory to verify (default: configured outputDir)")
	addDefineFlag(cmd.Flags())
	return cmd
}

func runVerify(cmd *cobra.Command, _ []string) error {
	inv, err := loadInvocation(cmd)
	if err != nil {
		return err
	}
	dir := inv.Config.OutputDir
	if cmd.Flags().Changed(flagDir) {
		v, _ := cmd.Flags().GetString(flagDir)
		if dir, err = resolveUnderWorkDir(inv.WorkDir, v); err != nil {
			return err
		}
	}
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		return invalidInvocationf("output directory %s does not exist", dir)
	}

	alg, err := inv.Config.Properties.HashAlgorithm()
	if err != nil {
		return err
	}

	rep, err := verify.New(alg).Verify(cmd.Context(), os.DirFS(dir))
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	for _, f := range rep.Findings {
		fmt.Fprintln(out, f.String())
	}
	fmt.Fprintf(out, "checked %d files, ignored %d, %d problems\n", len(rep.Checked), len(rep.Ignored), len(rep.Findings))
	if !rep.OK() {
		return fmt.Errorf("%w: %d problems in %s", ErrVerificationFailed, len(rep.Findings), dir)
	}
	return nil
}
