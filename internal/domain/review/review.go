// Package review collects games that need a manual look.
package review

import (
	"fmt"
	"sort"
	"sync"

	"github.com/okian/pitchrecord/internal/domain/model"
)

// Reason explains why a game was flagged.
type Reason string

const (
	ReasonInvalid     Reason = "invalid"
	ReasonTied        Reason = "tied"
	ReasonMissingWin  Reason = "missing_win"
	ReasonMissingLoss Reason = "missing_loss"
	ReasonCoverageGap Reason = "coverage_gap"
)

// Flag is one review item.
type Flag struct {
	Key    model.GameKey `json:"game"`
	Reason Reason        `json:"reason"`
	Detail string        `json:"detail,omitempty"`
}

// Check classifies a processed game. err is the reconstruction error, if any.
func Check(key model.GameKey, d model.Decision, err error, gaps int) []Flag {
	if err != nil {
		return []Flag{{Key: key, Reason: ReasonInvalid, Detail: err.Error()}}
	}
	var out []Flag
	switch d.Status {
	case model.Invalid:
		out = append(out, Flag{Key: key, Reason: ReasonInvalid})
	case model.Tied:
		out = append(out, Flag{Key: key, Reason: ReasonTied})
	case model.Decided:
		if d.Win == "" {
			out = append(out, Flag{Key: key, Reason: ReasonMissingWin})
		}
		if d.Loss == "" {
			out = append(out, Flag{Key: key, Reason: ReasonMissingLoss})
		}
	}
	if gaps > 0 {
		out = append(out, Flag{Key: key, Reason: ReasonCoverageGap, Detail: fmt.Sprintf("%d uncovered plays", gaps)})
	}
	return out
}

// List is a concurrency-safe set of flags.
type List struct {
	mu    sync.Mutex
	flags []Flag
}

// New creates an empty List.
func New() *List { return &List{} }

// Add records flags.
func (l *List) Add(fs ...Flag) {
	if len(fs) == 0 {
		return
	}
	l.mu.Lock()
	l.flags = append(l.flags, fs...)
	l.mu.Unlock()
}

// Len returns the number of flags.
func (l *List) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.flags)
}

// Flags returns a copy ordered by season, game and reason.
func (l *List) Flags() []Flag {
	l.mu.Lock()
	out := make([]Flag, len(l.flags))
	copy(out, l.flags)
	l.mu.Unlock()
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Key != out[j].Key {
			return Less(out[i].Key, out[j].Key)
		}
		return out[i].Reason < out[j].Reason
	})
	return out
}

// Reasons filters flags by reason.
func (l *List) Reasons(rs ...Reason) []Flag {
	want := make(map[Reason]bool, len(rs))
	for _, r := range rs {
		want[r] = true
	}
	var out []Flag
	for _, f := range l.Flags() {
		if want[f.Reason] {
			out = append(out, f)
		}
	}
	return out
}

// Less orders game keys by season then game, comparing numerically when both are numbers.
func Less(a, b model.GameKey) bool {
	if a.Season != b.Season {
		return naturalLess(a.Season, b.Season)
	}
	return naturalLess(a.GameID, b.GameID)
}

func naturalLess(a, b string) bool {
	na, nb := model.EraFromSeason(a), model.EraFromSeason(b)
	if na != nb && na > 0 && nb > 0 {
		return na < nb
	}
	return a < b
}
