// Package simulate applies a single play to a base/out state.
//
// Rules are evaluated in order and the first match wins. Era-specific
// special cases come first, the default table by outcome follows, and
// anything left over is reported as uncovered rather than guessed.
package simulate

import (
	"github.com/okian/pitchrecord/internal/domain/model"
	"github.com/okian/pitchrecord/internal/domain/vocab"
)

// RuleUncovered names the fallback for plays no rule recognizes.
const RuleUncovered = "uncovered"

// Input is the state before a play.
type Input struct {
	Bases   model.BaseState
	Outs    int // outs before the play in this half-inning
	Play    vocab.Play
	Diff    int // swing/pitch differential used as a tiebreak
	Era     int
	Subtype int // plate appearance type; 2 means infield in
}

// Result is the effect of a play.
type Result struct {
	Bases   model.BaseState
	Runs    int
	Outs    int
	Rule    string
	Covered bool
}

type rule struct {
	name  string
	match func(Input) bool
	apply func(Input) Result
}

// Simulate returns the runners, runs and outs produced by a play.
// It is pure and safe for concurrent use.
func Simulate(in Input) Result {
	for _, r := range rules {
		if !r.match(in) {
			continue
		}
		res := r.apply(in)
		res.Rule = r.name
		res.Covered = true
		// ground balls never score a run on the third out
		if in.Play.Outcome.Grounder() && in.Outs+res.Outs >= 3 {
			res.Runs = 0
		}
		return res
	}
	return Result{Bases: in.Bases, Rule: RuleUncovered}
}

// Rules returns rule names in evaluation order.
func Rules() []string {
	names := make([]string, 0, len(rules))
	for _, r := range rules {
		names = append(names, r.name)
	}
	return names
}

var rules = append([]rule{
	{
		name:  "infield_in",
		match: func(in Input) bool { return in.Era >= 7 && in.Subtype == 2 && isGroundout(in) },
		apply: func(in Input) Result { return infieldIn[in.Bases].result() },
	},
	{
		name:  "high_diff_lgo",
		match: func(in Input) bool { return highDiffLGO(in) && in.Era >= 9 },
		apply: func(in Input) Result {
			if t, ok := highDiffS9[in.Outs][in.Bases]; ok {
				return t.result()
			}
			return Result{Bases: in.Bases, Outs: 1}
		},
	},
	{
		name: "high_diff_triple_play",
		match: func(in Input) bool {
			return highDiffLGO(in) && in.Era >= 1 && in.Era <= 8 && in.Bases.First() && in.Bases.Second()
		},
		apply: func(Input) Result { return Result{Bases: model.Empty, Outs: 3} },
	},
	{
		name:  "double_play",
		match: func(in Input) bool { return isGroundout(in) && in.Bases.First() },
		apply: doublePlay,
	},
	{
		name:  "legacy_double_play",
		match: func(in Input) bool { return legacyEra(in) && in.Play.Outcome == vocab.DoublePlay },
		apply: func(in Input) Result {
			if in.Bases.First() {
				return doublePlay(in)
			}
			return Result{Bases: in.Bases, Outs: 1}
		},
	},
	{
		name:  "legacy_triple_play",
		match: func(in Input) bool { return legacyEra(in) && in.Play.Outcome == vocab.TriplePlay },
		apply: func(in Input) Result {
			if in.Bases.First() && in.Bases.Second() {
				return Result{Bases: model.Empty, Outs: 3}
			}
			return Result{Bases: in.Bases, Outs: 1}
		},
	},
}, defaultRules()...)

func isGroundout(in Input) bool {
	return in.Play.Outcome == vocab.GroundLeft || in.Play.Outcome == vocab.GroundRight
}

func highDiffLGO(in Input) bool {
	return in.Play.Outcome == vocab.GroundLeft && in.Diff >= 496 && in.Diff <= 500
}

func legacyEra(in Input) bool { return in.Era >= 2 && in.Era <= 3 }

// doublePlay retires the batter and the runner from first. With the inning
// still alive the runner on third scores and the runner on second takes third.
func doublePlay(in Input) Result {
	res := Result{Bases: model.Empty, Outs: 2}
	if in.Outs+res.Outs < 3 {
		if in.Bases.Third() {
			res.Runs++
		}
		if in.Bases.Second() {
			res.Bases |= model.OnThird
		}
	}
	return res
}
