package simulate

import "github.com/okian/pitchrecord/internal/domain/model"

type transition struct {
	bases model.BaseState
	runs  int
	outs  int
}

func (t transition) result() Result {
	return Result{Bases: t.bases, Runs: t.runs, Outs: t.outs}
}

// bs parses occupancy written as first, second, third, e.g. "110".
func bs(s string) model.BaseState {
	return model.Bases(s[0] == '1', s[1] == '1', s[2] == '1')
}

func to(bases string, runs, outs int) transition {
	return transition{bases: bs(bases), runs: runs, outs: outs}
}

var infieldIn = map[model.BaseState]transition{
	bs("000"): to("000", 0, 1),
	bs("100"): to("010", 0, 1),
	bs("010"): to("001", 0, 1),
	bs("001"): to("001", 0, 1),
	bs("110"): to("011", 0, 1),
	bs("101"): to("011", 0, 1),
	bs("011"): to("011", 0, 1),
	bs("111"): to("111", 0, 1), // out at home
}

// highDiffS9 is keyed by outs before the play. The entries are league
// data and do not follow a single formula.
var highDiffS9 = map[int]map[model.BaseState]transition{
	0: {
		bs("000"): to("000", 0, 1),
		bs("100"): to("000", 0, 2),
		bs("010"): to("000", 0, 2),
		bs("001"): to("000", 0, 2),
		bs("110"): to("000", 0, 3),
		bs("101"): to("001", 0, 2),
		bs("011"): to("001", 0, 2),
		bs("111"): to("001", 0, 3),
	},
	1: {
		bs("000"): to("000", 0, 1),
		bs("100"): to("000", 0, 2),
		bs("010"): to("000", 0, 2),
		bs("001"): to("000", 0, 2),
		bs("110"): to("000", 0, 2),
		bs("101"): to("001", 0, 2),
		bs("011"): to("001", 0, 2),
		bs("111"): to("001", 0, 2),
	},
	2: {
		bs("000"): to("000", 0, 1),
		bs("100"): to("000", 0, 1),
		bs("010"): to("000", 0, 1),
		bs("001"): to("000", 0, 1),
		bs("110"): to("000", 0, 1),
		bs("101"): to("000", 0, 1),
		bs("011"): to("000", 0, 1),
		bs("111"): to("000", 0, 1),
	},
}

var buntGroundout = map[model.BaseState]transition{
	bs("000"): to("000", 0, 1),
	bs("100"): to("000", 0, 2),
	bs("010"): to("010", 0, 1),
	bs("001"): to("001", 0, 1),
	bs("110"): to("001", 0, 2),
	bs("101"): to("101", 0, 1),
	bs("011"): to("011", 0, 1),
	bs("111"): to("011", 0, 2),
}
