package cli

import (
	"fmt"
	"runtime/debug"

	"github.com/spf13/cobra"
)

// BuildVersion is set at link time with -ldflags "-X cachebundle/internal/cli.BuildVersion=...".
var BuildVersion = "n/a"

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the cachebundle version",
		Args:  argsAsInvocation(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, _ []string) error {
			version := BuildVersion
			goVersion := "unknown"
			if info, ok := debug.ReadBuildInfo(); ok {
				goVersion = info.GoVersion
				if version == "n/a" && info.Main.Version != "" {
					version = info.Main.Version
				}
			}
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "cachebundle %s (%s)\n", version, goVersion)
			return err
		},
		DisableAutoGenTag: true,
		SilenceUsage:      true,
	}
}
