package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/okian/pitchrecord/internal/domain/model"
	"github.com/okian/pitchrecord/internal/domain/simulate"
	"github.com/okian/pitchrecord/internal/domain/vocab"
)

const defaultRulebookEra = 9

// Transition is one simulated cell of a rulebook table.
type Transition struct {
	Before string `json:"before"`
	Outs   int    `json:"outs"`
	After  string `json:"after"`
	Runs   int    `json:"runs"`
	Made   int    `json:"outs_made"`
	Rule   string `json:"rule"`
}

// OutcomeTable lists a play code's effect from every base/out state.
type OutcomeTable struct {
	Code        string       `json:"code"`
	Rule        string       `json:"rule"`
	Transitions []Transition `json:"transitions"`
}

// BuildRulebook simulates each code from every base/out state of one era.
func BuildRulebook(era int, codes []string) ([]OutcomeTable, error) {
	tables := make([]OutcomeTable, 0, len(codes))
	for _, code := range codes {
		play := vocab.Resolve(code, "")
		if !play.Outcome.Known() {
			return nil, fmt.Errorf("unknown play code %q", code)
		}
		t := OutcomeTable{Code: play.Code}
		for obc := 0; obc < 8; obc++ {
			bases := model.BasesFromCode(obc)
			for outs := 0; outs < 3; outs++ {
				res := simulate.Simulate(simulate.Input{Bases: bases, Outs: outs, Play: play, Era: era})
				t.Transitions = append(t.Transitions, Transition{
					Before: bases.String(),
					Outs:   outs,
					After:  res.Bases.String(),
					Runs:   res.Runs,
					Made:   res.Outs,
					Rule:   res.Rule,
				})
			}
		}
		t.Rule = t.Transitions[0].Rule
		tables = append(tables, t)
	}
	return tables, nil
}

// RenderRulebook writes tables as markdown, one row per base state.
func RenderRulebook(w io.Writer, era int, tables []OutcomeTable) error {
	var sb strings.Builder
	fmt.Fprintf(&sb, "# Era %d outcomes\n", era)
	for _, t := range tables {
		fmt.Fprintf(&sb, "\n## %s (%s)\n\n", t.Code, t.Rule)
		sb.WriteString("| bases | 0 outs | 1 out | 2 outs |\n")
		sb.WriteString("| --- | --- | --- | --- |\n")
		for i := 0; i < len(t.Transitions); i += 3 {
			fmt.Fprintf(&sb, "| %s |", t.Transitions[i].Before)
			for _, tr := range t.Transitions[i : i+3] {
				cell := fmt.Sprintf("%s %dR %dO", tr.After, tr.Runs, tr.Made)
				if tr.Rule != t.Rule {
					cell += " " + tr.Rule
				}
				fmt.Fprintf(&sb, " %s |", cell)
			}
			sb.WriteString("\n")
		}
	}
	_, err := io.WriteString(w, sb.String())
	return err
}

// NewRulebookCommand creates the rulebook command.
func NewRulebookCommand(rootOpts *RootOptions) *cobra.Command {
	var (
		era   int
		codes []string
	)

	cmd := &cobra.Command{
		Use:   "rulebook",
		Short: "Print what each play does from every base/out state",
		Long: `Run the play simulator over all 24 base/out states and print the
resulting runners, runs and outs for each play code. Without --code every
accepted code is printed.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if len(codes) == 0 {
				codes = vocab.Spellings()
			}
			tables, err := BuildRulebook(era, codes)
			if err != nil {
				return WrapExitError(ExitCommandError, "build rulebook", err)
			}
			return newFormatter(rootOpts, cmd).Success(tables, func(w io.Writer) error {
				return RenderRulebook(w, era, tables)
			})
		},
	}

	cmd.Flags().IntVar(&era, "era", defaultRulebookEra, "simulation era")
	cmd.Flags().StringArrayVar(&codes, "code", nil, "play code to print (repeatable)")
	return cmd
}
