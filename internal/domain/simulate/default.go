package simulate

import (
	"github.com/okian/pitchrecord/internal/domain/model"
	"github.com/okian/pitchrecord/internal/domain/vocab"
)

type play func(in Input, r *runners) int

// runners is a mutable copy of the bases while a default rule runs.
type runners struct {
	first, second, third bool
}

func runnersOf(b model.BaseState) runners {
	return runners{first: b.First(), second: b.Second(), third: b.Third()}
}

func (r runners) bases() model.BaseState { return model.Bases(r.first, r.second, r.third) }

func b2i(b bool) int {
	if b {
		return 1
	}
	return 0
}

// defaultTable maps outcomes to their standard effect. Each entry mutates
// the runners and returns runs scored; outs come from the play's out credit
// unless the entry sets them through a table.
var defaultTable = []struct {
	outcomes []vocab.Outcome
	apply    play
}{
	{[]vocab.Outcome{vocab.HomeRun}, func(in Input, r *runners) int {
		runs := in.Bases.Count() + 1
		*r = runners{}
		return runs
	}},
	{[]vocab.Outcome{vocab.Triple}, func(in Input, r *runners) int {
		runs := in.Bases.Count()
		*r = runners{third: true}
		return runs
	}},
	{[]vocab.Outcome{vocab.Double}, func(in Input, r *runners) int {
		before := *r
		if in.Outs == 2 {
			*r = runners{second: true}
			return in.Bases.Count()
		}
		*r = runners{second: true, third: before.first}
		return b2i(before.third) + b2i(before.second)
	}},
	{[]vocab.Outcome{vocab.Single}, func(in Input, r *runners) int {
		before := *r
		if in.Outs == 2 {
			*r = runners{first: true, third: before.first}
			return b2i(before.third) + b2i(before.second)
		}
		return forceAdvance(r)
	}},
	{[]vocab.Outcome{vocab.BuntSingle}, func(_ Input, r *runners) int {
		return forceAdvance(r)
	}},
	{[]vocab.Outcome{vocab.Walk, vocab.IntentionalWalk}, func(_ Input, r *runners) int {
		runs := 0
		if r.first && r.second && r.third {
			runs = 1
		}
		if r.first && r.second {
			r.third = true
		}
		if r.first {
			r.second = true
		}
		r.first = true
		return runs
	}},
	{[]vocab.Outcome{vocab.Steal2B}, func(_ Input, r *runners) int {
		if r.first {
			r.first, r.second = false, true
		}
		return 0
	}},
	{[]vocab.Outcome{vocab.Steal3B}, func(_ Input, r *runners) int {
		if r.second {
			r.second, r.third = false, true
		}
		return 0
	}},
	{[]vocab.Outcome{vocab.StealHome}, func(_ Input, r *runners) int {
		if r.third {
			r.third = false
			return 1
		}
		return 0
	}},
	{[]vocab.Outcome{vocab.StolenBase}, func(_ Input, r *runners) int {
		switch {
		case r.first && !r.second:
			r.first, r.second = false, true
		case r.second && !r.third:
			r.second, r.third = false, true
		case r.third:
			r.third = false
			return 1
		}
		return 0
	}},
	{[]vocab.Outcome{vocab.MultiSteal3B}, func(_ Input, r *runners) int {
		*r = runners{second: r.first, third: r.second || r.third}
		return 0
	}},
	{[]vocab.Outcome{vocab.MultiStealHome}, func(_ Input, r *runners) int {
		runs := b2i(r.third)
		*r = runners{second: r.first, third: r.second}
		return runs
	}},
	{[]vocab.Outcome{vocab.CaughtStealing2B}, func(_ Input, r *runners) int {
		r.first = false
		return 0
	}},
	{[]vocab.Outcome{vocab.CaughtStealing3B}, func(_ Input, r *runners) int {
		r.second = false
		return 0
	}},
	{[]vocab.Outcome{vocab.CaughtStealingHome}, func(_ Input, r *runners) int {
		r.third = false
		return 0
	}},
	{[]vocab.Outcome{vocab.CaughtStealing}, func(_ Input, r *runners) int {
		switch {
		case r.first && !r.second:
			r.first = false
		case r.second && !r.third:
			r.second = false
		case r.third:
			r.third = false
		}
		return 0
	}},
	{[]vocab.Outcome{vocab.CaughtMultiSteal3B}, func(_ Input, r *runners) int {
		if r.second {
			*r = runners{second: r.first, third: r.third}
		}
		return 0
	}},
	{[]vocab.Outcome{vocab.CaughtMultiStealHome}, func(_ Input, r *runners) int {
		if r.third {
			*r = runners{second: r.first, third: r.second}
		}
		return 0
	}},
	{[]vocab.Outcome{vocab.Flyout, vocab.SacFly}, func(in Input, r *runners) int {
		if in.Outs < 2 && r.third {
			r.third = false
			return 1
		}
		return 0
	}},
	{[]vocab.Outcome{vocab.Popout, vocab.Lineout, vocab.Strikeout}, func(Input, *runners) int {
		return 0
	}},
	{[]vocab.Outcome{vocab.BuntSacrifice}, func(in Input, r *runners) int {
		if in.Outs >= 2 {
			return 0
		}
		switch in.Bases {
		case bs("011"), model.Loaded:
		default:
			*r = runners{second: r.first, third: r.second || r.third}
		}
		return 0
	}},
	{[]vocab.Outcome{vocab.GroundLeft, vocab.GroundRight}, func(in Input, r *runners) int {
		if in.Outs >= 2 {
			*r = runners{}
			return 0
		}
		runs := b2i(r.third)
		if in.Play.Outcome == vocab.GroundRight {
			*r = runners{second: r.first, third: r.second}
		} else {
			*r = runners{second: r.first || r.second, third: r.second && r.first}
		}
		return runs
	}},
}

// forceAdvance moves every runner up one base and puts the batter on first.
func forceAdvance(r *runners) int {
	runs := b2i(r.third)
	*r = runners{first: true, second: r.first, third: r.second}
	return runs
}

func defaultRules() []rule {
	out := make([]rule, 0, len(defaultTable)+1)
	for _, entry := range defaultTable {
		for _, o := range entry.outcomes {
			out = append(out, rule{
				name:  o.String(),
				match: func(in Input) bool { return in.Play.Outcome == o },
				apply: func(in Input) Result {
					r := runnersOf(in.Bases)
					runs := entry.apply(in, &r)
					return Result{Bases: r.bases(), Runs: runs, Outs: in.Play.OutCredit()}
				},
			})
		}
	}
	return append(out, rule{
		name:  vocab.BuntGroundout.String(),
		match: func(in Input) bool {
			return in.Play.Outcome == vocab.BuntGroundout || in.Play.Outcome == vocab.BuntDoublePlay
		},
		apply: func(in Input) Result {
			res := buntGroundout[in.Bases].result()
			if in.Outs+res.Outs > 3 {
				res.Outs = max(3-in.Outs, 0)
			}
			return res
		},
	})
}
