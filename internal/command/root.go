package command

import (
	"github.com/cirruslabs/bucketcache/internal/command/run"
	"github.com/cirruslabs/bucketcache/internal/logginglevel"
	"github.com/cirruslabs/bucketcache/internal/version"
	"github.com/spf13/cobra"
	"go.uber.org/zap/zapcore"
)

var debug bool

func NewRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "bucketcache",
		Short:         "Caching HTTP front-end for object storage listings and downloads",
		Version:       version.FullVersion,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			if debug {
				logginglevel.Level.SetLevel(zapcore.DebugLevel)
			}

			return nil
		},
	}

	cmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")

	cmd.AddCommand(
		run.NewCommand(),
	)

	return cmd
}
