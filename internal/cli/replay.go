package cli

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/okian/pitchrecord/internal/adapters/gamelog"
	"github.com/okian/pitchrecord/internal/replay"
)

// NewReplayCommand creates the replay command.
func NewReplayCommand(rootOpts *RootOptions) *cobra.Command {
	cfg := replay.Config{}

	cmd := &cobra.Command{
		Use:   "replay <season>",
		Short: "Post a season's games to a running server and verify its standings",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			season := args[0]

			appCfg, err := loadConfig(ctx, rootOpts)
			if err != nil {
				return err
			}
			m, err := loadManifest(appCfg, []string{season})
			if err != nil {
				return err
			}
			s, _ := m.Find(season)
			plays, err := m.Load(s)
			if err != nil {
				return WrapExitError(ExitCommandError, "load season", err)
			}

			f := newFormatter(rootOpts, cmd)
			games := replay.FromLog(gamelog.GroupGames(plays))
			f.VerboseLog("posting %d games to %s", len(games), cfg.BaseURL)

			stats, err := replay.Run(ctx, cfg, season, games)
			if err != nil {
				return WrapExitError(ExitFailure, "replay", err)
			}
			return f.Success(stats, func(w io.Writer) error {
				return writeReplay(w, season, stats)
			})
		},
	}

	cmd.Flags().StringVar(&cfg.BaseURL, "server", "http://localhost:9080", "server base URL")
	cmd.Flags().IntVar(&cfg.Workers, "workers", 4, "concurrent submitters")
	cmd.Flags().DurationVar(&cfg.Timeout, "timeout", 10*time.Second, "per-request timeout")
	cmd.Flags().DurationVar(&cfg.Wait, "wait", 30*time.Second, "how long to wait for games to be decided")
	cmd.Flags().IntVar(&cfg.TopN, "top", 10, "leaderboard rows to verify")
	return cmd
}

func writeReplay(w io.Writer, season string, st replay.Stats) error {
	fmt.Fprintf(w, "%s: %d games, %d accepted, %d duplicate, %d failed, %d decided in %s\n",
		season, st.Games, st.Accepted, st.Duplicate, st.Failed, st.Decided, st.Duration.Round(time.Millisecond))
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "RANK\tPITCHER\tW")
	for _, e := range st.Leaders {
		fmt.Fprintf(tw, "%d\t%s\t%d\n", e.Rank, e.PitcherID, e.Count)
	}
	return tw.Flush()
}
