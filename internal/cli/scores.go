package cli

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	service "github.com/okian/pitchrecord/internal/app"
)

// NewScoresCommand creates the scores command.
func NewScoresCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "scores <season>",
		Short: "Print the reconstructed final score of every game in a season",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, _, err := runBatch(cmd.Context(), rootOpts, args)
			if err != nil {
				return err
			}
			defer svc.Stop()

			games := svc.Games(args[0])
			if games == nil {
				games = []service.GameResult{}
			}
			return newFormatter(rootOpts, cmd).Success(games, func(w io.Writer) error {
				return writeScores(w, games)
			})
		},
	}
}

func writeScores(w io.Writer, games []service.GameResult) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "GAME\tAWAY\tR\tHOME\tR\tSTATUS\tW\tL\tSV")
	for _, g := range games {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%d\t%s\t%s\t%s\t%s\n",
			g.Key.GameID, dash(g.Away), g.AwayScore, dash(g.Home), g.HomeScore, g.Status,
			dash(g.Decision.Win), dash(g.Decision.Loss), dash(g.Decision.Save))
	}
	return tw.Flush()
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
