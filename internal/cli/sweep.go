package cli

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/okian/pitchrecord/internal/domain/review"
)

// NewSweepCommand creates the sweep command.
func NewSweepCommand(rootOpts *RootOptions) *cobra.Command {
	var reasons []string

	cmd := &cobra.Command{
		Use:   "sweep [season...]",
		Short: "List games whose decisions need a manual look",
		Long: `Decide every game and list the ones flagged for review: logs that could
not be reconstructed, tied finals, decided games missing a win or a loss,
and games with plays no rule covers. Exits 1 when anything is flagged.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, _, err := runBatch(cmd.Context(), rootOpts, args)
			if err != nil {
				return err
			}
			defer svc.Stop()

			rs := make([]review.Reason, len(reasons))
			for i, r := range reasons {
				rs[i] = review.Reason(r)
			}
			flags := svc.Review(rs...)
			if flags == nil {
				flags = []review.Flag{}
			}

			f := newFormatter(rootOpts, cmd)
			text := func(w io.Writer) error { return writeFlags(w, flags) }
			if len(flags) == 0 {
				return f.Success(flags, text)
			}
			msg := fmt.Sprintf("%d flags need review", len(flags))
			if err := f.Failure(msg, flags, text); err != nil {
				return err
			}
			return NewExitError(ExitFailure, msg)
		},
	}

	cmd.Flags().StringSliceVar(&reasons, "reason", nil, "only report these reasons (invalid, tied, missing_win, missing_loss, coverage_gap)")
	return cmd
}

func writeFlags(w io.Writer, flags []review.Flag) error {
	if len(flags) == 0 {
		_, err := fmt.Fprintln(w, "no games flagged")
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "GAME\tREASON\tDETAIL")
	for _, fl := range flags {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", fl.Key, fl.Reason, fl.Detail)
	}
	return tw.Flush()
}
