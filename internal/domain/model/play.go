// Package model contains domain models passed between layers.
package model

import (
	"math"
	"strconv"
	"strings"
)

// Half is the half of an inning.
type Half int

const (
	Top Half = iota
	Bottom
)

func (h Half) String() string {
	if h == Bottom {
		return "bottom"
	}
	return "top"
}

// Short returns the one-letter label used in game logs ("T" or "B").
func (h Half) Short() string {
	if h == Bottom {
		return "B"
	}
	return "T"
}

// Inning identifies a half-inning.
type Inning struct {
	Number int
	Half   Half
}

// Before reports whether i is played before o.
func (i Inning) Before(o Inning) bool {
	if i.Number != o.Number {
		return i.Number < o.Number
	}
	return i.Half < o.Half
}

func (i Inning) String() string { return i.Half.Short() + strconv.Itoa(i.Number) }

// MarshalText encodes the inning as its log label, e.g. "B7".
func (i Inning) MarshalText() ([]byte, error) { return []byte(i.String()), nil }

// BaseState is the occupancy of the three bases as a bitmask.
// Bit 0 is first base, bit 1 second, bit 2 third.
type BaseState uint8

const (
	OnFirst BaseState = 1 << iota
	OnSecond
	OnThird

	Empty  BaseState = 0
	Loaded           = OnFirst | OnSecond | OnThird
)

// Bases builds a BaseState from per-base occupancy.
func Bases(first, second, third bool) BaseState {
	var b BaseState
	if first {
		b |= OnFirst
	}
	if second {
		b |= OnSecond
	}
	if third {
		b |= OnThird
	}
	return b
}

// obcStates maps the base/out code used in game logs to occupancy.
var obcStates = [8]BaseState{
	0: Empty,
	1: OnFirst,
	2: OnSecond,
	3: OnThird,
	4: OnFirst | OnSecond,
	5: OnFirst | OnThird,
	6: OnSecond | OnThird,
	7: Loaded,
}

// BasesFromCode decodes a logged base/out code. Unknown codes mean empty bases.
func BasesFromCode(code int) BaseState {
	if code < 0 || code >= len(obcStates) {
		return Empty
	}
	return obcStates[code]
}

// Code returns the base/out code for b.
func (b BaseState) Code() int {
	for code, s := range obcStates {
		if s == b&Loaded {
			return code
		}
	}
	return 0
}

func (b BaseState) First() bool  { return b&OnFirst != 0 }
func (b BaseState) Second() bool { return b&OnSecond != 0 }
func (b BaseState) Third() bool  { return b&OnThird != 0 }

// Count returns the number of runners on base.
func (b BaseState) Count() int {
	n := 0
	for _, on := range [3]bool{b.First(), b.Second(), b.Third()} {
		if on {
			n++
		}
	}
	return n
}

// String renders occupancy as first, second, third, e.g. "101".
func (b BaseState) String() string {
	var sb strings.Builder
	for _, on := range [3]bool{b.First(), b.Second(), b.Third()} {
		if on {
			sb.WriteByte('1')
		} else {
			sb.WriteByte('0')
		}
	}
	return sb.String()
}

// MarshalText encodes b the way String renders it.
func (b BaseState) MarshalText() ([]byte, error) { return []byte(b.String()), nil }

// PlateAppearance is one row of a game log.
type PlateAppearance struct {
	Season       string // season id, e.g. "S5"
	Era          int    // numeric season used for rule selection
	GameID       string
	InningLabel  string // raw label, e.g. "T3" or "B10"
	Session      int
	BatterTeam   string
	PitcherTeam  string
	HitterID     string
	PitcherID    string
	Hitter       string
	Pitcher      string
	OBC          BaseState // runners before the play
	Outs         int       // logged outs before the play
	LegacyResult string
	ExactResult  string
	Diff         int
	PAType       int
	Seq          int // position in the original log
}

// GameKey identifies a game within a season.
type GameKey struct {
	Season string `json:"season"`
	GameID string `json:"game_id"`
}

func (k GameKey) String() string { return k.Season + "/" + k.GameID }

// ParseIntOrZero coerces a logged numeric field, treating blanks and junk as zero.
// Float spellings such as "3.0" are truncated; NaN, infinities and values
// outside the int range are junk.
func ParseIntOrZero(s string) int {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || f < math.MinInt || f >= math.MaxInt {
		return 0
	}
	return int(f)
}

// EraFromSeason extracts the numeric era from a season id like "S5".
func EraFromSeason(season string) int {
	digits := strings.TrimLeftFunc(strings.TrimSpace(season), func(r rune) bool {
		return r < '0' || r > '9'
	})
	return ParseIntOrZero(digits)
}
