package cli

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	service "github.com/okian/pitchrecord/internal/app"
	"github.com/okian/pitchrecord/internal/domain/model"
)

// NewTraceCommand creates the trace command.
func NewTraceCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "trace <season> <game>",
		Short: "Replay one game play by play",
		Long: `Process a season and print how each play of one game moved the runners,
the outs and the score, with the rule that decided it.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, _, err := runBatch(cmd.Context(), rootOpts, args[:1])
			if err != nil {
				return err
			}
			defer svc.Stop()

			key := model.GameKey{Season: args[0], GameID: args[1]}
			g, err := svc.Trace(cmd.Context(), key)
			if err != nil {
				return WrapExitError(ExitCommandError, "trace "+key.String(), err)
			}
			return newFormatter(rootOpts, cmd).Success(g, func(w io.Writer) error {
				return writeTrace(w, g)
			})
		},
	}
}

func writeTrace(w io.Writer, g service.GameResult) error {
	fmt.Fprintf(w, "%s  %s %d @ %s %d  %s\n", g.Key, dash(g.Away), g.AwayScore, dash(g.Home), g.HomeScore, g.Status)
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "SEQ\tINN\tPITCHER\tPLAY\tRULE\tBASES\tOUTS\tRUNS\tSCORE")
	for _, st := range g.Trace {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s>%s\t%d+%d\t%d\t%d-%d\n",
			st.Seq, st.Inning, st.PitcherID, dash(st.Code), dash(st.Rule),
			st.BasesBefore, st.BasesAfter, st.OutsBefore, st.Outs, st.Runs,
			st.AwayScore, st.HomeScore)
	}
	return tw.Flush()
}
