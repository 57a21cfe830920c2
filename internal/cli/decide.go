package cli

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	service "github.com/okian/pitchrecord/internal/app"
	"github.com/okian/pitchrecord/internal/domain/types"
)

// SeasonLines is one season's decision lines.
type SeasonLines struct {
	Summary service.Summary `json:"summary"`
	Lines   []types.Line    `json:"lines"`
}

// NewDecideCommand creates the decide command.
func NewDecideCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "decide [season...]",
		Short: "Decide every game and print each pitcher's W-L-SV-HLD line",
		Long: `Decide every game in the manifest (or only the named seasons) and print
each pitcher's regular-season decision line.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, sums, err := runBatch(cmd.Context(), rootOpts, args)
			if err != nil {
				return err
			}
			defer svc.Stop()

			f := newFormatter(rootOpts, cmd)
			out := make([]SeasonLines, 0, len(sums))
			for _, sum := range sums {
				f.VerboseLog("%s: %d games decided in %s", sum.Season, sum.Games, sum.Duration)
				lines := svc.Lines(sum.Season)
				if lines == nil {
					lines = []types.Line{}
				}
				out = append(out, SeasonLines{Summary: sum, Lines: lines})
			}
			return f.Success(out, func(w io.Writer) error {
				return writeLines(w, out)
			})
		},
	}
}

func writeLines(w io.Writer, seasons []SeasonLines) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for i, s := range seasons {
		if i > 0 {
			fmt.Fprintln(tw)
		}
		fmt.Fprintf(tw, "%s\t%d games\t%d duplicates\t%d flagged\n", s.Summary.Season, s.Summary.Games, s.Summary.Duplicates, s.Summary.Flagged)
		fmt.Fprintln(tw, "PITCHER\tW\tL\tSV\tHLD")
		for _, l := range s.Lines {
			fmt.Fprintf(tw, "%s\t%d\t%d\t%d\t%d\n", l.PitcherID, l.Wins, l.Losses, l.Saves, l.Holds)
		}
	}
	return tw.Flush()
}
