package cli

import (
	"os"

	"github.com/spf13/cobra"

	"radgrid/logging"
)

// Version is stamped at build time with -ldflags "-X radgrid/cli.Version=..."
var Version = "dev"

// Execute runs the radgrid command tree and exits non-zero on failure
func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		debug     bool
		logFormat string
		logFile   string
		cleanup   func() error
	)

	cmd := &cobra.Command{
		Use:          "radgrid",
		Short:        "Explicit layer/band transport solver",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			cleanup, err = logging.Setup(logging.Config{
				Format: logFormat,
				Debug:  debug,
				Output: cmd.ErrOrStderr(),
				File:   logFile,
			})
			return err
		},
		PersistentPostRunE: func(_ *cobra.Command, _ []string) error {
			if cleanup != nil {
				return cleanup()
			}
			return nil
		},
	}

	cmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
	cmd.PersistentFlags().StringVar(&logFormat, "log-format", "text", "log format: text|json")
	cmd.PersistentFlags().StringVar(&logFile, "log-file", "", "append logs to this file instead of stderr")

	cmd.AddCommand(runCmd(), sweepCmd(), defectsCmd(), serveCmd(), versionCmd())
	return cmd
}
