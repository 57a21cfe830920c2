// Package vocab resolves raw play codes from game logs into outcomes.
package vocab

import (
	"strings"

	"golang.org/x/text/cases"
)

// Outcome is the enumerated result of a plate appearance or baserunning play.
type Outcome int

const (
	None Outcome = iota
	Unknown
	HomeRun
	Triple
	Double
	Single
	BuntSingle
	Walk
	IntentionalWalk
	Steal2B
	Steal3B
	StealHome
	StolenBase
	MultiSteal3B
	MultiStealHome
	CaughtStealing2B
	CaughtStealing3B
	CaughtStealingHome
	CaughtStealing
	CaughtMultiSteal3B
	CaughtMultiStealHome
	Flyout
	SacFly
	Popout
	Lineout
	Strikeout
	BuntSacrifice
	BuntGroundout
	BuntDoublePlay
	GroundLeft
	GroundRight
	DoublePlay
	TriplePlay
)

var outcomeNames = map[Outcome]string{
	None:                 "none",
	Unknown:              "unknown",
	HomeRun:              "home_run",
	Triple:               "triple",
	Double:               "double",
	Single:               "single",
	BuntSingle:           "bunt_single",
	Walk:                 "walk",
	IntentionalWalk:      "intentional_walk",
	Steal2B:              "steal_2b",
	Steal3B:              "steal_3b",
	StealHome:            "steal_home",
	StolenBase:           "stolen_base",
	MultiSteal3B:         "multi_steal_3b",
	MultiStealHome:       "multi_steal_home",
	CaughtStealing2B:     "caught_stealing_2b",
	CaughtStealing3B:     "caught_stealing_3b",
	CaughtStealingHome:   "caught_stealing_home",
	CaughtStealing:       "caught_stealing",
	CaughtMultiSteal3B:   "caught_multi_steal_3b",
	CaughtMultiStealHome: "caught_multi_steal_home",
	Flyout:               "flyout",
	SacFly:               "sac_fly",
	Popout:               "popout",
	Lineout:              "lineout",
	Strikeout:            "strikeout",
	BuntSacrifice:        "bunt_sacrifice",
	BuntGroundout:        "bunt_groundout",
	BuntDoublePlay:       "bunt_double_play",
	GroundLeft:           "groundout_left",
	GroundRight:          "groundout_right",
	DoublePlay:           "double_play",
	TriplePlay:           "triple_play",
}

func (o Outcome) String() string {
	if s, ok := outcomeNames[o]; ok {
		return s
	}
	return "unknown"
}

// Code returns the canonical log spelling of o.
func (o Outcome) Code() string {
	for _, s := range spellings {
		if s.outcome == o {
			return s.code
		}
	}
	return ""
}

// Known reports whether o is a recognized play.
func (o Outcome) Known() bool { return o != None && o != Unknown }

// Grounder reports whether o is a ground ball that cancels runs on the third out.
func (o Outcome) Grounder() bool {
	switch o {
	case GroundLeft, GroundRight, BuntGroundout, BuntDoublePlay, DoublePlay, TriplePlay:
		return true
	default:
		return false
	}
}

type spelling struct {
	code    string
	outcome Outcome
}

// spellings lists every accepted code; the first spelling of an outcome is canonical.
var spellings = []spelling{
	{"HR", HomeRun},
	{"3B", Triple},
	{"2B", Double},
	{"1B", Single},
	{"BUNT 1B", BuntSingle},
	{"BB", Walk},
	{"AUTO BB", Walk},
	{"IBB", IntentionalWalk},
	{"STEAL 2B", Steal2B},
	{"STEAL 3B", Steal3B},
	{"STEAL HOME", StealHome},
	{"SB", StolenBase},
	{"MSTEAL 3B", MultiSteal3B},
	{"MSTEAL HOME", MultiStealHome},
	{"CS 2B", CaughtStealing2B},
	{"CS 3B", CaughtStealing3B},
	{"CS Home", CaughtStealingHome},
	{"CS", CaughtStealing},
	{"CMS 3B", CaughtMultiSteal3B},
	{"CMS Home", CaughtMultiStealHome},
	{"FO", Flyout},
	{"Sac", SacFly},
	{"PO", Popout},
	{"LO", Lineout},
	{"K", Strikeout},
	{"Auto K", Strikeout},
	{"Bunt K", Strikeout},
	{"BUNT Sac", BuntSacrifice},
	{"Bunt", BuntSacrifice},
	{"BUNT GO", BuntGroundout},
	{"BUNT DP", BuntDoublePlay},
	{"LGO", GroundLeft},
	{"RGO", GroundRight},
	{"DP", DoublePlay},
	{"TP", TriplePlay},
}

var byFolded = func() map[string]Outcome {
	m := make(map[string]Outcome, len(spellings))
	for _, s := range spellings {
		m[Fold(s.code)] = s.outcome
	}
	return m
}()

// Fold normalizes a raw code for comparison: case-folded, whitespace collapsed.
func Fold(code string) string {
	return cases.Fold().String(strings.Join(strings.Fields(code), " "))
}

// Lookup maps a raw code to its outcome. Blank codes give None.
func Lookup(code string) Outcome {
	f := Fold(code)
	if f == "" {
		return None
	}
	if o, ok := byFolded[f]; ok {
		return o
	}
	return Unknown
}

// Spellings returns the accepted codes in declaration order.
func Spellings() []string {
	out := make([]string, 0, len(spellings))
	for _, s := range spellings {
		out = append(out, s.code)
	}
	return out
}
