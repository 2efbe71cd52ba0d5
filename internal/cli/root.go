// Package cli implements the cachebundle command line.
package cli

import (
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	slogcontext "github.com/veqryn/slog-context"

	"cachebundle/internal/config"
)

const (
	flagWorkDir   = "workdir"
	flagConfig    = "config"
	flagLogLevel  = "loglevel"
	flagLogFormat = "logformat"
	flagDefine    = "define"
)

// New builds the root command.
func New() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cachebundle [sub-command]",
		Short: "Publish bundle resources under content-addressed names",
		Long: `cachebundle scans Go packages for interfaces marked +cachebundle:bundle,
copies every declared resource into an output directory under a
<hash>.cache.<ext> name and generates an implementation whose accessors
return the published URL expression.`,
		Args: argsAsInvocation(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
		PersistentPreRunE: setupLogger,
		DisableAutoGenTag: true,
		SilenceUsage:      true,
		SilenceErrors:     true,
	}
	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return invalidInvocationf("%v", err)
	})

	flags := cmd.PersistentFlags()
	flags.String(flagWorkDir, "", "absolute working directory; relative paths resolve against it (default: current directory)")
	flags.String(flagConfig, "", "configuration file (default: <workdir>/"+config.FileName+" if present)")
	registerLoggingFlags(flags)

	cmd.AddCommand(newGenerateCommand())
	cmd.AddCommand(newVerifyCommand())
	cmd.AddCommand(newServeCommand())
	cmd.AddCommand(newVersionCommand())
	return cmd
}

func registerLoggingFlags(flags *pflag.FlagSet) {
	flags.String(flagLogLevel, "info", "set the log level (debug, info, warn, error)")
	flags.StringP(flagLogFormat, "f", "text", "set the log format (text, json)")
}

func setupLogger(cmd *cobra.Command, _ []string) error {
	level, err := logLevel(cmd)
	if err != nil {
		return err
	}
	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	switch format, _ := cmd.Flags().GetString(flagLogFormat); format {
	case "json":
		handler = slog.NewJSONHandler(cmd.ErrOrStderr(), opts)
	case "text":
		handler = slog.NewTextHandler(cmd.ErrOrStderr(), opts)
	default:
		return invalidInvocationf("invalid log format: %s", format)
	}

	cmd.SetContext(slogcontext.NewCtx(cmd.Context(), slog.New(handler)))
	return nil
}

func logLevel(cmd *cobra.Command) (slog.Level, error) {
	raw, _ := cmd.Flags().GetString(flagLogLevel)
	switch raw {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, invalidInvocationf("invalid log level: %s", raw)
	}
}

// invocation is the resolved working directory and configuration shared by
// every sub-command.
type invocation struct {
	WorkDir string
	Config  config.Config
}

func loadInvocation(cmd *cobra.Command) (invocation, error) {
	rawWorkDir, _ := cmd.Flags().GetString(flagWorkDir)
	workDir, err := resolveWorkDir(rawWorkDir)
	if err != nil {
		return invocation{}, err
	}

	var cfg config.Config
	if path, _ := cmd.Flags().GetString(flagConfig); path != "" {
		resolved, err := resolveUnderWorkDir(workDir, path)
		if err != nil {
			return invocation{}, err
		}
		cfg, err = config.Load(resolved)
		if err != nil {
			return invocation{}, err
		}
	} else {
		cfg, err = config.LoadOptional(filepath.Join(workDir, config.FileName))
		if err != nil {
			return invocation{}, err
		}
	}

	if cmd.Flags().Lookup(flagDefine) != nil {
		defines, _ := cmd.Flags().GetStringArray(flagDefine)
		overrides := make(map[string]string, len(defines))
		for _, d := range defines {
			k, v, err := config.ParseDefine(d)
			if err != nil {
				return invocation{}, err
			}
			overrides[k] = v
		}
		cfg.Properties = cfg.Properties.Merge(overrides)
	}

	resolved, err := cfg.Resolve(workDir)
	if err != nil {
		return invocation{}, fmt.Errorf("resolving configuration: %w", err)
	}
	return invocation{WorkDir: workDir, Config: resolved}, nil
}

func addDefineFlag(flags *pflag.FlagSet) {
	flags.StringArrayP(flagDefine, "D", nil, "override a build property (key=value), repeatable")
}

// argsAsInvocation turns positional argument validation errors into
// invocation errors.
func argsAsInvocation(validate cobra.PositionalArgs) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := validate(cmd, args); err != nil {
			return invalidInvocationf("%v", err)
		}
		return nil
	}
}
