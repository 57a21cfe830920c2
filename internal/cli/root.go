// Package cli implements the pitchrecord command line.
package cli

import (
	"fmt"
	"slices"

	"github.com/spf13/cobra"

	"github.com/okian/pitchrecord/pkg/logger"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose bool
	Format  string // "json" | "text"
	Config  string
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "pitchrecord",
		Short: "Pitching decisions from plate appearance logs",
		Long: `pitchrecord replays plate appearance logs play by play and credits
wins, losses, saves and holds to the pitchers of each game.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if !slices.Contains(ValidFormats, opts.Format) {
				return WrapExitError(ExitCommandError, "bad flags", fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats))
			}
			// Logs go to stderr so JSON output on stdout stays parseable.
			if err := logger.Configure(opts.Format, cmd.ErrOrStderr()); err != nil {
				return WrapExitError(ExitCommandError, "configure logging", err)
			}
			level := "warn"
			if opts.Verbose {
				level = "debug"
			}
			return logger.SetLevelString(level)
		},
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVarP(&opts.Config, "config", "c", "", "config file (YAML); defaults to $PITCHREC_CONFIG")

	cmd.AddCommand(NewServeCommand(opts))
	cmd.AddCommand(NewDecideCommand(opts))
	cmd.AddCommand(NewSweepCommand(opts))
	cmd.AddCommand(NewScoresCommand(opts))
	cmd.AddCommand(NewTraceCommand(opts))
	cmd.AddCommand(NewRulebookCommand(opts))
	cmd.AddCommand(NewReplayCommand(opts))

	return cmd
}

func newFormatter(opts *RootOptions, cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}
}
